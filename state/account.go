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

// Package state implements the account record (spec §4.5) and the
// top-level State object the EVM reads and writes through (spec §4.6),
// grounded on state/src/account.rs and state/src/state.rs in the
// original prototype.
package state

import (
	"fmt"

	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/trie"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// basicAccount is the on-disk form of an Account (spec §3): a 4-item list
// for code_version == 0, or the 5-item long form when code versioning is
// in use. CodeVersion is an optional trailing field: rlp omits it when
// nil and accepts both the 4- and the 5-item list on decode.
type basicAccount struct {
	Nonce       *bloomtypes.U256
	Balance     *bloomtypes.U256
	StorageRoot bloomtypes.Hash
	CodeHash    bloomtypes.Hash
	CodeVersion *bloomtypes.U256 `rlp:"optional"`
}

// Account is the in-memory, mutable view of one state-trie leaf. It
// carries no back-pointer to the owning State (spec §9's cyclic-reference
// redesign): all per-account tries are addressed transiently through an
// accountdb.Factory view constructed by the caller.
type Account struct {
	balance     *bloomtypes.U256
	nonce       *bloomtypes.U256
	storageRoot bloomtypes.Hash
	codeHash    bloomtypes.Hash
	codeVersion *bloomtypes.U256

	storageChanges map[bloomtypes.Hash]bloomtypes.Hash

	codeCache []byte
	codeSize  int
	codeKnown bool
	codeDirty bool

	addressHash    bloomtypes.Hash
	addressHashSet bool
}

// NewBasicAccount builds a fresh externally-owned account with the given
// balance and nonce, empty storage and code.
func NewBasicAccount(balance, nonce *bloomtypes.U256) *Account {
	return &Account{
		balance:        balance,
		nonce:          nonce,
		storageRoot:    bloomtypes.EmptyRootHash,
		codeHash:       bloomtypes.EmptyCodeHash,
		codeVersion:    uint256.NewInt(0),
		storageChanges: make(map[bloomtypes.Hash]bloomtypes.Hash),
		codeKnown:      true,
		codeDirty:      true,
	}
}

// DecodeAccount parses the RLP encoding of an account (spec §4.5's
// from_encoded, supporting both the short and long forms).
func DecodeAccount(enc []byte) (*Account, error) {
	var ba basicAccount
	if err := rlp.DecodeBytes(enc, &ba); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	codeVersion := ba.CodeVersion
	if codeVersion == nil {
		codeVersion = uint256.NewInt(0)
	}
	return &Account{
		balance:        ba.Balance,
		nonce:          ba.Nonce,
		storageRoot:    ba.StorageRoot,
		codeHash:       ba.CodeHash,
		codeVersion:    codeVersion,
		storageChanges: make(map[bloomtypes.Hash]bloomtypes.Hash),
	}, nil
}

// Encode returns the RLP encoding of a (spec §4.5's encoded()). The long
// (5-item) form is only emitted when code_version is non-zero, matching
// the original prototype's short/long split.
func (a *Account) Encode() ([]byte, error) {
	ba := basicAccount{
		Nonce:       a.nonce,
		Balance:     a.balance,
		StorageRoot: a.storageRoot,
		CodeHash:    a.codeHash,
	}
	if a.codeVersion != nil && !a.codeVersion.IsZero() {
		ba.CodeVersion = a.codeVersion
	}
	return rlp.EncodeToBytes(&ba)
}

func (a *Account) Balance() *bloomtypes.U256  { return a.balance }
func (a *Account) Nonce() *bloomtypes.U256    { return a.nonce }
func (a *Account) CodeHash() bloomtypes.Hash  { return a.codeHash }
func (a *Account) StorageRoot() bloomtypes.Hash {
	return a.storageRoot
}

// IsContract reports whether the account's known code size is non-zero
// (spec §4.5's is_contract: code size > 0). The size is set by InitCode,
// CacheCode and CommitCode; an account fresh from DecodeAccount reports
// false until its code has been loaded with CacheCode.
func (a *Account) IsContract() bool {
	return a.codeSize > 0
}

// AddressHash memoizes Keccak(address); repeated calls with the same
// address are free after the first.
func (a *Account) AddressHash(address bloomtypes.Address) bloomtypes.Hash {
	if a.addressHashSet {
		return a.addressHash
	}
	a.addressHash = bloomtypes.Keccak256(address.Bytes())
	a.addressHashSet = true
	return a.addressHash
}

func (a *Account) SetBalance(v *bloomtypes.U256) { a.balance = v }
func (a *Account) SetNonce(v *bloomtypes.U256)   { a.nonce = v }
func (a *Account) IncNonce()                     { a.nonce = new(uint256.Int).AddUint64(a.nonce, 1) }

func (a *Account) AddBalance(x *bloomtypes.U256) {
	a.balance = new(uint256.Int).Add(a.balance, x)
}

// SubBalance subtracts x from the account's balance. It panics if the
// balance would go negative — callers (the executor) are required to
// check sufficiency first, mirroring the original prototype's assertion.
func (a *Account) SubBalance(x *bloomtypes.U256) {
	if a.balance.Lt(x) {
		panic("state: SubBalance would underflow account balance")
	}
	a.balance = new(uint256.Int).Sub(a.balance, x)
}

// InitCode installs fresh contract bytecode, recomputing code_hash and
// marking the code dirty so the next CommitCode writes it out.
func (a *Account) InitCode(code []byte) {
	a.codeHash = bloomtypes.Keccak256(code)
	a.codeCache = code
	a.codeSize = len(code)
	a.codeKnown = true
	a.codeDirty = true
}

// SetStorage stages a pending write to the account's storage, without
// touching storage_root until CommitStorage runs (spec §4.5).
func (a *Account) SetStorage(key, value bloomtypes.Hash) {
	if a.storageChanges == nil {
		a.storageChanges = make(map[bloomtypes.Hash]bloomtypes.Hash)
	}
	a.storageChanges[key] = value
}

// CacheCode lazily fetches the account's bytecode from db (keyed by
// code_hash) and caches it for subsequent calls (spec §4.5).
func (a *Account) CacheCode(db trie.HashDB) ([]byte, bool) {
	if a.codeKnown {
		return a.codeCache, true
	}
	raw, ok := db.Get(a.codeHash)
	if !ok {
		return nil, false
	}
	a.codeCache = raw
	a.codeSize = len(raw)
	a.codeKnown = true
	return a.codeCache, true
}

// CommitStorage applies every staged storage write to the account's
// sub-trie: zero values are removed, everything else is inserted as the
// RLP of its big-endian integer form (spec §4.5).
func (a *Account) CommitStorage(storageDB trie.HashDB) error {
	t, err := trie.NewSecure(a.storageRoot, storageDB)
	if err != nil {
		return err
	}
	for k, v := range a.storageChanges {
		if v == (bloomtypes.Hash{}) {
			if err := t.Delete(k.Bytes()); err != nil {
				return err
			}
			continue
		}
		enc, err := rlp.EncodeToBytes(new(uint256.Int).SetBytes(v.Bytes()))
		if err != nil {
			return err
		}
		if err := t.Insert(k.Bytes(), enc); err != nil {
			return err
		}
	}
	a.storageChanges = make(map[bloomtypes.Hash]bloomtypes.Hash)
	a.storageRoot = t.Commit()
	return nil
}

// CommitCode emplaces the account's dirty code into db at code_hash, if
// the code is both dirty and non-empty (spec §4.5).
func (a *Account) CommitCode(db trie.HashDB) {
	if !a.codeDirty {
		return
	}
	if len(a.codeCache) == 0 {
		a.codeSize = 0
		a.codeDirty = false
		return
	}
	db.Emplace(a.codeHash, a.codeCache)
	a.codeSize = len(a.codeCache)
	a.codeDirty = false
}

// StorageAt looks up key against the account's already-committed storage
// root (spec §4.5). Trie errors degrade to the zero value, matching the
// EVM's "absent is zero" read contract (spec §4.6).
func (a *Account) StorageAt(storageDB trie.HashDB, key bloomtypes.Hash) bloomtypes.Hash {
	t, err := trie.NewSecure(a.storageRoot, storageDB)
	if err != nil {
		return bloomtypes.Hash{}
	}
	enc, ok, err := t.Get(key.Bytes())
	if err != nil || !ok {
		return bloomtypes.Hash{}
	}
	var v uint256.Int
	if err := rlp.DecodeBytes(enc, &v); err != nil {
		return bloomtypes.Hash{}
	}
	return bloomtypes.Hash(v.Bytes32())
}

// StorageDump enumerates every (key, value) pair of the storage trie
// rooted at root (spec §4.5's get_storage_dump, used for CLI inspection).
// Keys are the trie's hashed keys, not recoverable storage-slot indices
// (spec §4.4's documented limitation).
func StorageDump(storageDB trie.HashDB, root bloomtypes.Hash) (map[bloomtypes.Hash]bloomtypes.Hash, error) {
	t, err := trie.NewSecure(root, storageDB)
	if err != nil {
		return nil, err
	}
	kvs, err := t.Iterate()
	if err != nil {
		return nil, err
	}
	out := make(map[bloomtypes.Hash]bloomtypes.Hash, len(kvs))
	for _, kv := range kvs {
		var v uint256.Int
		if err := rlp.DecodeBytes(kv.Value, &v); err != nil {
			continue
		}
		out[kv.Key] = bloomtypes.Hash(v.Bytes32())
	}
	return out, nil
}
