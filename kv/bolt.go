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

import (
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// boltStore backs the column facade with go.etcd.io/bbolt: one bucket per
// column, a bbolt read-write transaction as the batch.
type boltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if necessary) a bbolt-backed Store at path,
// with one bucket pre-created per column.
func OpenBolt(path string) (Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open bbolt database")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, col := range AllColumns() {
			if _, err := tx.CreateBucketIfNotExists(col.Name()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create column buckets")
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Get(col Column, key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(col.Name())
		if v := b.Get(key); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "bbolt get")
	}
	return value, nil
}

func (s *boltStore) Has(col Column, key []byte) (bool, error) {
	v, err := s.Get(col, key)
	return v != nil, err
}

func (s *boltStore) NewBatch() Batch {
	return &boltBatch{db: s.db}
}

func (s *boltStore) Close() error {
	return s.db.Close()
}

type writeOp struct {
	col     Column
	key     []byte
	value   []byte // nil means delete
}

// boltBatch buffers writes in memory and applies them inside a single
// bbolt transaction on Write, so a batch is atomic even though bbolt has
// no separate "batch" object of its own.
type boltBatch struct {
	db  *bolt.DB
	ops []writeOp
}

func (b *boltBatch) Put(col Column, key, value []byte) {
	b.ops = append(b.ops, writeOp{col: col, key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
}

func (b *boltBatch) Delete(col Column, key []byte) {
	b.ops = append(b.ops, writeOp{col: col, key: append([]byte(nil), key...), value: nil})
}

func (b *boltBatch) Write() error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		for _, op := range b.ops {
			bucket := tx.Bucket(op.col.Name())
			if op.value == nil {
				if err := bucket.Delete(op.key); err != nil {
					return err
				}
				continue
			}
			if err := bucket.Put(op.key, op.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "bbolt batch write")
	}
	return nil
}
