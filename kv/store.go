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

package kv

// Reader reads from the column store. A missing key returns (nil, nil):
// absence is not an error (spec §4.1). Any other returned error is a
// low-level store fault and is treated as fatal by every caller.
type Reader interface {
	Get(col Column, key []byte) ([]byte, error)
	Has(col Column, key []byte) (bool, error)
}

// Batch accumulates puts and deletes across one or more columns and
// applies them atomically on Write. It is the KV facade's unit of
// durability: nothing is visible to a Reader until Write returns nil.
type Batch interface {
	Put(col Column, key, value []byte)
	Delete(col Column, key []byte)
	Write() error
}

// Store is the full column-partitioned KV facade (spec §4.1, C1).
type Store interface {
	Reader
	NewBatch() Batch
	Close() error
}
