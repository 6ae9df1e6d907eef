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
	"fmt"

	"github.com/dao-galaxy/bloomevm/accountdb"
	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/evm"
	"github.com/dao-galaxy/bloomevm/journal"
	"github.com/dao-galaxy/bloomevm/kv"
	"github.com/dao-galaxy/bloomevm/trie"
	"github.com/holiman/uint256"
)

// State owns a journaling-overlay view of the state column, the current
// root hash, and an accumulator of emitted logs (spec §4.6, C6). It
// implements evm.Backend directly, so it can be handed to an
// evm.Executor with no adapter.
type State struct {
	vicinity *evm.Vicinity
	store    kv.Store
	overlay  *journal.Overlay
	root     bloomtypes.Hash
	logs     []evm.Log
}

// Fresh opens a State at the canonical empty-trie root (spec §4.6).
func Fresh(vicinity *evm.Vicinity, store kv.Store) *State {
	return &State{
		vicinity: vicinity,
		store:    store,
		overlay:  journal.New(store),
		root:     bloomtypes.EmptyRootHash,
	}
}

// FromExisting opens a State at root, which must already resolve in
// store's state column; otherwise an "invalid state root" error is
// returned to the caller rather than treated as fatal (spec §4.6, §7).
func FromExisting(root bloomtypes.Hash, vicinity *evm.Vicinity, store kv.Store) (*State, error) {
	overlay := journal.New(store)
	if _, err := trie.New(root, overlay); err != nil {
		return nil, fmt.Errorf("invalid state root %x: %w", root, err)
	}
	return &State{vicinity: vicinity, store: store, overlay: overlay, root: root}, nil
}

// Root returns the state trie's current root hash.
func (s *State) Root() bloomtypes.Hash { return s.root }

// Logs returns every log accumulated by Apply calls so far.
func (s *State) Logs() []evm.Log { return s.logs }

func (s *State) mainTrie() (*trie.SecureTrie, error) {
	db := accountdb.Plain.For(s.overlay, bloomtypes.Hash{})
	return trie.NewSecure(s.root, db)
}

func (s *State) storageDB(addressHash bloomtypes.Hash) trie.HashDB {
	return accountdb.Mangled.For(s.overlay, addressHash)
}

// loadAccount decodes addr's account leaf, consulting the package-level
// LRU cache keyed by (root, address) first. Every successful decode is
// added to the cache, whichever State made it; since a root hash fixes
// the trie's contents, an entry for a given (root, address) never goes
// stale.
func (s *State) loadAccount(addr bloomtypes.Address) (*Account, bool, error) {
	key := accountCacheKey{root: s.root, addr: addr}
	if cached, ok := accountCache.Get(key); ok {
		return cloneForCache(cached), true, nil
	}

	t, err := s.mainTrie()
	if err != nil {
		return nil, false, err
	}
	enc, ok, err := t.Get(addr.Bytes())
	if err != nil || !ok {
		return nil, false, err
	}
	acc, err := DecodeAccount(enc)
	if err != nil {
		return nil, false, err
	}
	accountCache.Add(key, cloneForCache(acc))
	return acc, true, nil
}

// --- evm.Backend ---

func (s *State) GasPrice() *bloomtypes.U256        { return s.vicinity.GasPrice }
func (s *State) Origin() bloomtypes.Address        { return s.vicinity.Origin }
func (s *State) ChainID() *bloomtypes.U256         { return s.vicinity.ChainID }
func (s *State) BlockNumber() *bloomtypes.U256     { return s.vicinity.BlockNumber }
func (s *State) BlockCoinbase() bloomtypes.Address { return s.vicinity.BlockCoinbase }
func (s *State) BlockTimestamp() *bloomtypes.U256  { return s.vicinity.BlockTimestamp }
func (s *State) BlockDifficulty() *bloomtypes.U256 { return s.vicinity.BlockDifficulty }
func (s *State) BlockGasLimit() *bloomtypes.U256   { return s.vicinity.BlockGasLimit }

// BlockHash returns the hash of block number from the vicinity's window,
// or the zero hash if number is out of range (spec §4.6).
func (s *State) BlockHash(number *bloomtypes.U256) bloomtypes.Hash {
	bn := s.vicinity.BlockNumber
	if number.Cmp(bn) >= 0 {
		return bloomtypes.Hash{}
	}
	dist := new(uint256.Int).Sub(bn, number)
	dist = new(uint256.Int).Sub(dist, uint256.NewInt(1))
	if dist.Cmp(uint256.NewInt(uint64(len(s.vicinity.BlockHashes)))) >= 0 {
		return bloomtypes.Hash{}
	}
	return s.vicinity.BlockHashes[dist.Uint64()]
}

// Exists reports whether addr has a leaf in the state trie.
func (s *State) Exists(addr bloomtypes.Address) bool {
	_, ok, err := s.loadAccount(addr)
	return err == nil && ok
}

// BasicAccount returns addr's balance and nonce, zero-valued if absent or
// unreadable (spec §4.6: absent accounts degrade to zero, never a fault).
func (s *State) BasicAccount(addr bloomtypes.Address) evm.Basic {
	acc, ok, err := s.loadAccount(addr)
	if err != nil || !ok {
		return evm.Basic{Balance: uint256.NewInt(0), Nonce: uint256.NewInt(0)}
	}
	return evm.Basic{Balance: acc.Balance(), Nonce: acc.Nonce()}
}

func (s *State) CodeHash(addr bloomtypes.Address) bloomtypes.Hash {
	acc, ok, err := s.loadAccount(addr)
	if err != nil || !ok {
		return bloomtypes.EmptyCodeHash
	}
	return acc.CodeHash()
}

func (s *State) CodeSize(addr bloomtypes.Address) int {
	code := s.Code(addr)
	return len(code)
}

func (s *State) Code(addr bloomtypes.Address) []byte {
	acc, ok, err := s.loadAccount(addr)
	if err != nil || !ok {
		return nil
	}
	addressHash := acc.AddressHash(addr)
	code, ok := acc.CacheCode(s.storageDB(addressHash))
	if !ok {
		return nil
	}
	return code
}

func (s *State) Storage(addr bloomtypes.Address, index bloomtypes.Hash) bloomtypes.Hash {
	acc, ok, err := s.loadAccount(addr)
	if err != nil || !ok {
		return bloomtypes.Hash{}
	}
	addressHash := acc.AddressHash(addr)
	return acc.StorageAt(s.storageDB(addressHash), index)
}

// --- Mutation ---

// Apply consumes a batch of EVM writes, loading (or defaulting) each
// touched account, staging its balance/nonce/code/storage changes, and
// immediately folding storage and code into the per-account DB before
// inserting the encoded account into the main state trie (spec §4.6's
// "Mutation: apply"). delete_empty is accepted but, matching the
// original prototype, not consulted (spec §9 open question 4).
func (s *State) Apply(writes []evm.Apply, logs []evm.Log, deleteEmpty bool) error {
	t, err := s.mainTrie()
	if err != nil {
		return err
	}
	for _, w := range writes {
		switch {
		case w.Delete != nil:
			if err := t.Delete(w.Delete.Address.Bytes()); err != nil {
				return err
			}
		case w.Modify != nil:
			m := w.Modify
			acc, ok, err := s.loadAccount(m.Address)
			if err != nil {
				return err
			}
			if !ok {
				acc = NewBasicAccount(uint256.NewInt(0), uint256.NewInt(0))
			}
			acc.SetBalance(m.Basic.Balance)
			acc.SetNonce(m.Basic.Nonce)
			if m.Code != nil {
				acc.InitCode(m.Code)
			}
			addressHash := acc.AddressHash(m.Address)
			storageDB := s.storageDB(addressHash)
			for k, v := range m.Storage {
				acc.SetStorage(k, v)
			}
			if err := acc.CommitStorage(storageDB); err != nil {
				return err
			}
			acc.CommitCode(storageDB)

			enc, err := acc.Encode()
			if err != nil {
				return err
			}
			if err := t.Insert(m.Address.Bytes(), enc); err != nil {
				return err
			}
		}
	}
	s.logs = append(s.logs, logs...)
	s.root = t.Commit()
	return nil
}

// Commit flushes the journaling overlay into a KV batch and writes it,
// returning the root of the most recent Apply (spec §4.6's commit()).
func (s *State) Commit() (bloomtypes.Hash, error) {
	batch := s.store.NewBatch()
	s.overlay.Flush(batch)
	if err := batch.Write(); err != nil {
		return bloomtypes.Hash{}, err
	}
	s.overlay.Reset()
	return s.root, nil
}

// --- Auxiliary queries ---

// GetAccount returns the decoded account at addr, if present.
func (s *State) GetAccount(addr bloomtypes.Address) (*Account, bool, error) {
	return s.loadAccount(addr)
}

// GetCode returns the bytecode stored at codeHash for addr's account DB
// view.
func (s *State) GetCode(addr bloomtypes.Address, codeHash bloomtypes.Hash) ([]byte, bool) {
	acc, ok, err := s.loadAccount(addr)
	if err != nil || !ok {
		return nil, false
	}
	return s.storageDB(acc.AddressHash(addr)).Get(codeHash)
}

// GetStorage enumerates every (key, value) pair of addr's storage trie
// rooted at storageRoot.
func (s *State) GetStorage(addr bloomtypes.Address, storageRoot bloomtypes.Hash) (map[bloomtypes.Hash]bloomtypes.Hash, error) {
	acc, ok, err := s.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	var addressHash bloomtypes.Hash
	if ok {
		addressHash = acc.AddressHash(addr)
	} else {
		addressHash = bloomtypes.Keccak256(addr.Bytes())
	}
	return StorageDump(s.storageDB(addressHash), storageRoot)
}

// StorageRoot returns addr's committed storage root, or the empty-trie
// root if the account is absent.
func (s *State) StorageRoot(addr bloomtypes.Address) bloomtypes.Hash {
	acc, ok, err := s.loadAccount(addr)
	if err != nil || !ok {
		return bloomtypes.EmptyRootHash
	}
	return acc.StorageRoot()
}

// ListAddress iterates the main state trie and returns every leaf key
// (spec §4.6's list_address). Leaf keys are Keccak(address); the
// original 20-byte address is not recoverable from the trie alone (spec
// §4.4).
func (s *State) ListAddress() ([]bloomtypes.Hash, error) {
	t, err := s.mainTrie()
	if err != nil {
		return nil, err
	}
	kvs, err := t.Iterate()
	if err != nil {
		return nil, err
	}
	out := make([]bloomtypes.Hash, len(kvs))
	for i, kv := range kvs {
		out[i] = kv.Key
	}
	return out, nil
}
