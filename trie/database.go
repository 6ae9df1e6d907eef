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

// HashDB is the content-addressed node store a trie is built on (spec
// §4.3): Account DB's Mangled/Plain variants and the plain journaling
// overlay both implement it. Trie code never talks to kv.Store directly.
type HashDB interface {
	// Get returns the bytes stored under hash, or ok=false if absent.
	Get(hash bloomtypes.Hash) (value []byte, ok bool)
	// Emplace stores value under its caller-supplied (already-hashed) key.
	Emplace(hash bloomtypes.Hash, value []byte)
	// Remove deletes the entry at hash, if present.
	Remove(hash bloomtypes.Hash)
}
