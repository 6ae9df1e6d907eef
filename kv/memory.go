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

import "sync"

// memoryStore is a map-backed Store, the Go analogue of the original
// prototype's kvdb_memorydb::create used throughout its test suite. It
// backs every test in this repository that wants a fresh, isolated KV
// without touching disk.
type memoryStore struct {
	mu   sync.RWMutex
	cols [NumColumns]map[string][]byte
}

// NewMemory returns a fresh in-memory Store.
func NewMemory() Store {
	s := &memoryStore{}
	for i := range s.cols {
		s.cols[i] = make(map[string][]byte)
	}
	return s
}

func (s *memoryStore) Get(col Column, key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.cols[col][string(key)]; ok {
		return append([]byte(nil), v...), nil
	}
	return nil, nil
}

func (s *memoryStore) Has(col Column, key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cols[col][string(key)]
	return ok, nil
}

func (s *memoryStore) NewBatch() Batch {
	return &memoryBatch{store: s}
}

func (s *memoryStore) Close() error { return nil }

type memoryBatch struct {
	store *memoryStore
	ops   []writeOp
}

func (b *memoryBatch) Put(col Column, key, value []byte) {
	b.ops = append(b.ops, writeOp{col: col, key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
}

func (b *memoryBatch) Delete(col Column, key []byte) {
	b.ops = append(b.ops, writeOp{col: col, key: append([]byte(nil), key...), value: nil})
}

func (b *memoryBatch) Write() error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for _, op := range b.ops {
		if op.value == nil {
			delete(b.store.cols[op.col], string(op.key))
			continue
		}
		b.store.cols[op.col][string(op.key)] = op.value
	}
	return nil
}
