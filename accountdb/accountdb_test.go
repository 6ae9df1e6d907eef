// Copyright 2024 The Bloomevm Authors
// This file is part of Bloomevm.
//
// Bloomevm is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Bloomevm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Bloomevm. If not, see <http://www.gnu.org/licenses/>.

package accountdb

import (
	"testing"

	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/trie"
	"github.com/stretchr/testify/require"
)

type memHashDB struct {
	nodes map[bloomtypes.Hash][]byte
}

func newMemHashDB() *memHashDB {
	return &memHashDB{nodes: make(map[bloomtypes.Hash][]byte)}
}

func (d *memHashDB) Get(hash bloomtypes.Hash) ([]byte, bool) {
	v, ok := d.nodes[hash]
	return v, ok
}
func (d *memHashDB) Emplace(hash bloomtypes.Hash, value []byte) { d.nodes[hash] = value }
func (d *memHashDB) Remove(hash bloomtypes.Hash)                { delete(d.nodes, hash) }

func TestMangledKeysAreDisjointAcrossAccounts(t *testing.T) {
	underlying := newMemHashDB()
	addrA := bloomtypes.Keccak256([]byte("account-a"))
	addrB := bloomtypes.Keccak256([]byte("account-b"))

	dbA := Mangled.For(underlying, addrA)
	dbB := Mangled.For(underlying, addrB)

	nodeHash := bloomtypes.Keccak256([]byte("identical node bytes"))
	dbA.Emplace(nodeHash, []byte("payload"))

	// The same node hash, unmangled, must not resolve through B's view:
	// mangling makes the two accounts' key neighborhoods disjoint.
	_, ok := dbB.Get(nodeHash)
	require.False(t, ok)

	v, ok := dbA.Get(nodeHash)
	require.True(t, ok)
	require.Equal(t, []byte("payload"), v)
}

func TestMangledEmptyTrieAndEmptyCodeShortCircuit(t *testing.T) {
	underlying := newMemHashDB()
	addr := bloomtypes.Keccak256([]byte("account"))
	db := Mangled.For(underlying, addr)

	v, ok := db.Get(bloomtypes.EmptyRootHash)
	require.True(t, ok)
	require.Equal(t, []byte{0x80}, v)

	v, ok = db.Get(bloomtypes.EmptyCodeHash)
	require.True(t, ok)
	require.Empty(t, v)

	// Writes to these canonical hashes are no-ops: nothing should land in
	// the underlying store.
	db.Emplace(bloomtypes.EmptyRootHash, []byte("should not persist"))
	require.Empty(t, underlying.nodes)
}

func TestPlainIsIdentityPassthrough(t *testing.T) {
	underlying := newMemHashDB()
	db := Plain.For(underlying, bloomtypes.Hash{})

	h := bloomtypes.Keccak256([]byte("node"))
	db.Emplace(h, []byte("v"))
	v, ok := underlying.Get(h)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	v, ok = db.Get(h)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)
}

// TestStorageWritesDoNotCollideAcrossAccountsThroughTrie exercises spec invariant 5 end-to-end through a
// real SecureTrie, matching how state.Account.CommitStorage uses the
// Mangled account DB per address.
func TestStorageWritesDoNotCollideAcrossAccountsThroughTrie(t *testing.T) {
	underlying := newMemHashDB()
	addrA := bloomtypes.Keccak256([]byte("0xA"))
	addrB := bloomtypes.Keccak256([]byte("0xB"))

	dbA := Mangled.For(underlying, addrA)
	dbB := Mangled.For(underlying, addrB)

	trA, err := trie.NewSecure(bloomtypes.Hash{}, dbA)
	require.NoError(t, err)
	trB, err := trie.NewSecure(bloomtypes.Hash{}, dbB)
	require.NoError(t, err)

	key := bloomtypes.Keccak256([]byte("slot")).Bytes()
	require.NoError(t, trA.Insert(key, []byte("valueA")))
	require.NoError(t, trB.Insert(key, []byte("valueA"))) // same (k, v) pair

	rootA := trA.Commit()
	rootB := trB.Commit()

	reopenedA, err := trie.NewSecure(rootA, dbA)
	require.NoError(t, err)
	v, ok, err := reopenedA.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("valueA"), v)

	// Deleting in B's view must never affect A's subtree.
	require.NoError(t, trB.Delete(key))
	trB.Commit()

	reopenedA2, err := trie.NewSecure(rootA, dbA)
	require.NoError(t, err)
	v, ok, err = reopenedA2.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("valueA"), v)
}
