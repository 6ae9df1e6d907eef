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

package trie

import "github.com/dao-galaxy/bloomevm/bloomtypes"

// SecureTrie wraps Trie and Keccak-256 hashes every external key before
// touching the underlying tree, so that trie depth is bounded by the hash
// length rather than by adversarially chosen keys (spec §4.4's "secure
// trie"). Both the state trie (addresses as keys) and every account's
// storage trie (storage slots as keys) are SecureTries.
type SecureTrie struct {
	trie *Trie
}

// NewSecure opens a secure trie rooted at root.
func NewSecure(root bloomtypes.Hash, db HashDB) (*SecureTrie, error) {
	t, err := New(root, db)
	if err != nil {
		return nil, err
	}
	return &SecureTrie{trie: t}, nil
}

func (s *SecureTrie) Get(key []byte) ([]byte, bool, error) {
	h := bloomtypes.Keccak256(key)
	return s.trie.Get(h.Bytes())
}

func (s *SecureTrie) Insert(key, value []byte) error {
	h := bloomtypes.Keccak256(key)
	return s.trie.Insert(h.Bytes(), value)
}

func (s *SecureTrie) Delete(key []byte) error {
	h := bloomtypes.Keccak256(key)
	return s.trie.Delete(h.Bytes())
}

// Commit hashes and persists the trie, returning its new root.
func (s *SecureTrie) Commit() bloomtypes.Hash {
	return s.trie.Commit()
}

// Iterate returns the trie's (keyHash, value) pairs. Since keys are
// hashed on the way in, the original preimage (address or storage slot)
// is not recoverable from this alone — callers that need the preimage
// must keep their own index of it (spec §4.4).
func (s *SecureTrie) Iterate() ([]KV, error) {
	return s.trie.Iterate()
}
