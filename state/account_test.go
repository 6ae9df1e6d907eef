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

package state

import (
	"testing"

	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/holiman/uint256"
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

func TestAccountEncodeDecodeRoundTripShortForm(t *testing.T) {
	a := NewBasicAccount(uint256.NewInt(1_000_000), uint256.NewInt(3))
	enc, err := a.Encode()
	require.NoError(t, err)

	decoded, err := DecodeAccount(enc)
	require.NoError(t, err)
	require.Equal(t, a.Balance().String(), decoded.Balance().String())
	require.Equal(t, a.Nonce().String(), decoded.Nonce().String())
	require.Equal(t, a.StorageRoot(), decoded.StorageRoot())
	require.Equal(t, a.CodeHash(), decoded.CodeHash())
}

func TestAccountEncodeDecodeRoundTripLongFormWithCodeVersion(t *testing.T) {
	a := NewBasicAccount(uint256.NewInt(5), uint256.NewInt(0))
	a.codeVersion = uint256.NewInt(2)
	enc, err := a.Encode()
	require.NoError(t, err)

	decoded, err := DecodeAccount(enc)
	require.NoError(t, err)
	require.Equal(t, uint64(2), decoded.codeVersion.Uint64())
}

func TestIsContractFalseForExternalAccount(t *testing.T) {
	a := NewBasicAccount(uint256.NewInt(1), uint256.NewInt(0))
	require.False(t, a.IsContract())
}

func TestInitCodeMarksContract(t *testing.T) {
	a := NewBasicAccount(uint256.NewInt(1), uint256.NewInt(0))
	a.InitCode([]byte{0x60, 0x00})
	require.True(t, a.IsContract())
	require.Equal(t, bloomtypes.Keccak256([]byte{0x60, 0x00}), a.CodeHash())
}

// TestStorageZeroLaw is spec invariant 6: set_storage(k, 0) followed by
// commit_storage must yield the same storage_root as never having set k.
func TestStorageZeroLaw(t *testing.T) {
	db := newMemHashDB()
	baseline := NewBasicAccount(uint256.NewInt(1), uint256.NewInt(0))
	require.NoError(t, baseline.CommitStorage(db))
	emptyRoot := baseline.StorageRoot()

	withZero := NewBasicAccount(uint256.NewInt(1), uint256.NewInt(0))
	withZero.SetStorage(bloomtypes.Keccak256([]byte("k")), bloomtypes.Hash{})
	require.NoError(t, withZero.CommitStorage(db))
	require.Equal(t, emptyRoot, withZero.StorageRoot())
}

func TestCommitStorageThenStorageAt(t *testing.T) {
	db := newMemHashDB()
	a := NewBasicAccount(uint256.NewInt(1), uint256.NewInt(0))
	key := bloomtypes.Keccak256([]byte("slot"))
	val := bloomtypes.BytesToHash([]byte{0x2a})
	a.SetStorage(key, val)
	require.NoError(t, a.CommitStorage(db))
	require.NotEqual(t, bloomtypes.EmptyRootHash, a.StorageRoot())

	got := a.StorageAt(db, key)
	require.Equal(t, val, got)
}

func TestCommitStorageDeletesZeroEntryAfterNonZero(t *testing.T) {
	db := newMemHashDB()
	a := NewBasicAccount(uint256.NewInt(1), uint256.NewInt(0))
	key := bloomtypes.Keccak256([]byte("slot"))
	a.SetStorage(key, bloomtypes.BytesToHash([]byte{0x01}))
	require.NoError(t, a.CommitStorage(db))
	nonEmptyRoot := a.StorageRoot()
	require.NotEqual(t, bloomtypes.EmptyRootHash, nonEmptyRoot)

	a.SetStorage(key, bloomtypes.Hash{})
	require.NoError(t, a.CommitStorage(db))
	require.Equal(t, bloomtypes.EmptyRootHash, a.StorageRoot())
}

func TestCommitCodeOnlyWritesWhenDirtyAndNonEmpty(t *testing.T) {
	db := newMemHashDB()
	a := NewBasicAccount(uint256.NewInt(1), uint256.NewInt(0))
	// Fresh account defaults to empty code; CommitCode must be a no-op.
	a.CommitCode(db)
	require.Empty(t, db.nodes)

	a.InitCode([]byte("bytecode"))
	a.CommitCode(db)
	raw, ok := db.Get(a.CodeHash())
	require.True(t, ok)
	require.Equal(t, []byte("bytecode"), raw)

	// A second commit with nothing dirty must not re-emplace (idempotent).
	delete(db.nodes, a.CodeHash())
	a.CommitCode(db)
	_, ok = db.Get(a.CodeHash())
	require.False(t, ok)
}

func TestCacheCodeFetchesAndMemoizes(t *testing.T) {
	db := newMemHashDB()
	codeHash := bloomtypes.Keccak256([]byte("code"))
	db.Emplace(codeHash, []byte("code"))

	a, err := DecodeAccount(func() []byte {
		acc := NewBasicAccount(uint256.NewInt(0), uint256.NewInt(0))
		acc.codeHash = codeHash
		enc, err := acc.Encode()
		require.NoError(t, err)
		return enc
	}())
	require.NoError(t, err)

	code, ok := a.CacheCode(db)
	require.True(t, ok)
	require.Equal(t, []byte("code"), code)

	delete(db.nodes, codeHash)
	code2, ok := a.CacheCode(db)
	require.True(t, ok)
	require.Equal(t, []byte("code"), code2)
}

func TestStorageDumpEnumeratesAllEntries(t *testing.T) {
	db := newMemHashDB()
	a := NewBasicAccount(uint256.NewInt(1), uint256.NewInt(0))
	a.SetStorage(bloomtypes.Keccak256([]byte("k1")), bloomtypes.BytesToHash([]byte{1}))
	a.SetStorage(bloomtypes.Keccak256([]byte("k2")), bloomtypes.BytesToHash([]byte{2}))
	require.NoError(t, a.CommitStorage(db))

	dump, err := StorageDump(db, a.StorageRoot())
	require.NoError(t, err)
	require.Len(t, dump, 2)
}

func TestAddressHashMemoized(t *testing.T) {
	a := NewBasicAccount(uint256.NewInt(1), uint256.NewInt(0))
	addr := bloomtypes.BytesToAddress([]byte("addr"))
	h1 := a.AddressHash(addr)
	h2 := a.AddressHash(addr)
	require.Equal(t, h1, h2)
	require.Equal(t, bloomtypes.Keccak256(addr.Bytes()), h1)
}
