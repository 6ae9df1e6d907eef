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
	"github.com/dao-galaxy/bloomevm/bloomtypes"
	lru "github.com/hashicorp/golang-lru/v2"
)

// accountCacheSize bounds the number of decoded (root, address) account
// lookups kept around. A query-thread request constructs a fresh State
// per call (spec §5), so this cache's value is entirely cross-request: it
// saves a trie descent when the same hot address (e.g. a relayer, or a
// popular contract) is queried again at the same root shortly after.
const accountCacheSize = 8192

type accountCacheKey struct {
	root bloomtypes.Hash
	addr bloomtypes.Address
}

var accountCache, _ = lru.New[accountCacheKey, *Account](accountCacheSize)

// cloneForCache returns a defensive copy of acc safe to hand to a second,
// unrelated caller out of the shared cache.
func cloneForCache(acc *Account) *Account {
	cp := *acc
	cp.storageChanges = make(map[bloomtypes.Hash]bloomtypes.Hash, len(acc.storageChanges))
	for k, v := range acc.storageChanges {
		cp.storageChanges[k] = v
	}
	return &cp
}
