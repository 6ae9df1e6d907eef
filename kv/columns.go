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

// Package kv is the column-partitioned, batched key-value facade every
// other layer of the node builds on (spec §4.1). Columns are stable
// integer IDs, grounded on db/src/db.rs in the original prototype; the
// backing engine is go.etcd.io/bbolt, one bucket per column.
package kv

// Column identifies one of the node's logical key spaces. The numeric
// values are part of the on-disk format and must never be renumbered.
type Column uint32

const (
	ColState            Column = 0
	ColHeaders           Column = 1
	ColBodies            Column = 2
	ColExtras            Column = 3
	ColTrace             Column = 4
	colDeprecated        Column = 5 // formerly the accounts-existence bloom filter
	ColNodeInfo          Column = 6
	ColLightChain        Column = 7
	ColPrivateTx         Column = 8
	ColTransactions      Column = 9

	NumColumns = 10
)

// columnNames gives every column a stable bucket name in the backing
// store, independent of the Column's numeric value.
var columnNames = [NumColumns][]byte{
	ColState:       []byte("state"),
	ColHeaders:     []byte("headers"),
	ColBodies:      []byte("bodies"),
	ColExtras:      []byte("extras"),
	ColTrace:       []byte("trace"),
	colDeprecated:  []byte("deprecated"),
	ColNodeInfo:    []byte("node_info"),
	ColLightChain:  []byte("light_chain"),
	ColPrivateTx:   []byte("private_tx"),
	ColTransactions: []byte("transactions"),
}

// Name returns the backing-store bucket name for c.
func (c Column) Name() []byte { return columnNames[c] }

// AllColumns lists every column, for bootstrap bucket creation.
func AllColumns() []Column {
	cols := make([]Column, NumColumns)
	for i := range cols {
		cols[i] = Column(i)
	}
	return cols
}
