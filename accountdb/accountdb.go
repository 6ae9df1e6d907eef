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

// Package accountdb implements the two HashDB views every account's
// per-account trie and code blob are read and written through (spec
// §4.3), grounded on state/src/account_db.rs in the original prototype.
package accountdb

import (
	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/trie"
)

// emptyTrieRLP is the canonical RLP encoding of an empty trie node (the
// bare empty-string element, 0x80) — the value every Get of
// bloomtypes.EmptyRootHash must short-circuit to, since that key is never
// actually stored.
var emptyTrieRLP = []byte{0x80}

func combineKey(addressHash, key bloomtypes.Hash) bloomtypes.Hash {
	var dst bloomtypes.Hash
	copy(dst[:12], key[:12])
	for i := 12; i < 32; i++ {
		dst[i] = key[i] ^ addressHash[i]
	}
	return dst
}

// Factory selects which account DB variant backs a trie: Mangled gives
// every account's storage trie a disjoint key neighborhood in the shared
// state column; Plain is an identity wrapper, used for the main state
// trie. The zero value is Mangled (spec §4.3's documented default).
type Factory int

const (
	Mangled Factory = iota
	Plain
)

// For opens a HashDB view over db suitable for addressHash's storage
// trie (or, with Plain, for the main state trie — addressHash is ignored
// in that case).
func (f Factory) For(db trie.HashDB, addressHash bloomtypes.Hash) trie.HashDB {
	if f == Plain {
		return Wrapping{db: db}
	}
	return AccountDB{db: db, addressHash: addressHash}
}

// AccountDB is the Mangled variant: every key is xor-combined with
// addressHash before touching the underlying store, so distinct
// accounts' subtrees never collide even when they hold byte-identical
// nodes (spec §4.3).
type AccountDB struct {
	db          trie.HashDB
	addressHash bloomtypes.Hash
}

func (a AccountDB) Get(hash bloomtypes.Hash) ([]byte, bool) {
	if hash == bloomtypes.EmptyRootHash {
		return emptyTrieRLP, true
	}
	if hash == bloomtypes.EmptyCodeHash {
		return []byte{}, true
	}
	return a.db.Get(combineKey(a.addressHash, hash))
}

func (a AccountDB) Emplace(hash bloomtypes.Hash, value []byte) {
	if hash == bloomtypes.EmptyRootHash || hash == bloomtypes.EmptyCodeHash {
		return
	}
	a.db.Emplace(combineKey(a.addressHash, hash), value)
}

func (a AccountDB) Remove(hash bloomtypes.Hash) {
	if hash == bloomtypes.EmptyRootHash || hash == bloomtypes.EmptyCodeHash {
		return
	}
	a.db.Remove(combineKey(a.addressHash, hash))
}

// Wrapping is the Plain variant: an identity pass-through, used for the
// main state trie where no account-scoped disjointness is needed.
type Wrapping struct {
	db trie.HashDB
}

func (w Wrapping) Get(hash bloomtypes.Hash) ([]byte, bool) {
	if hash == bloomtypes.EmptyRootHash {
		return emptyTrieRLP, true
	}
	if hash == bloomtypes.EmptyCodeHash {
		return []byte{}, true
	}
	return w.db.Get(hash)
}

func (w Wrapping) Emplace(hash bloomtypes.Hash, value []byte) {
	if hash == bloomtypes.EmptyRootHash || hash == bloomtypes.EmptyCodeHash {
		return
	}
	w.db.Emplace(hash, value)
}

func (w Wrapping) Remove(hash bloomtypes.Hash) {
	if hash == bloomtypes.EmptyRootHash || hash == bloomtypes.EmptyCodeHash {
		return
	}
	w.db.Remove(hash)
}
