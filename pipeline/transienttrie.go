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

package pipeline

import (
	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/ethereum/go-ethereum/rlp"
)

// transientDB is an in-memory-only trie.HashDB: the transaction trie's
// own nodes never need to survive past the header that references its
// root (spec §4.8's build_transaction_trie is used once per
// create_header/apply_block call and never looked back up by root).
type transientDB struct {
	nodes map[bloomtypes.Hash][]byte
}

func newTransientDB() *transientDB {
	return &transientDB{nodes: make(map[bloomtypes.Hash][]byte)}
}

func (d *transientDB) Get(hash bloomtypes.Hash) ([]byte, bool) {
	v, ok := d.nodes[hash]
	return v, ok
}

func (d *transientDB) Emplace(hash bloomtypes.Hash, value []byte) {
	d.nodes[hash] = value
}

func (d *transientDB) Remove(hash bloomtypes.Hash) {
	delete(d.nodes, hash)
}

func encodeTx(tx *bloomtypes.UnverifiedTransaction) ([]byte, error) {
	return rlp.EncodeToBytes(tx)
}
