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
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// WriteTyped RLP-encodes value and writes it under key in col. This is the
// Go equivalent of the original prototype's Writable::write<T> (db/src/db.rs).
func WriteTyped(b Batch, col Column, key []byte, value interface{}) error {
	enc, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrap(err, "rlp encode")
	}
	b.Put(col, key, enc)
	return nil
}

// ReadTyped reads the value at key in col and RLP-decodes it into out. It
// reports (false, nil) if the key is absent, mirroring Readable::read<T>
// returning Option<T> rather than an error for a missing key.
func ReadTyped(r Reader, col Column, key []byte, out interface{}) (bool, error) {
	raw, err := r.Get(col, key)
	if err != nil {
		return false, errors.Wrap(err, "kv get")
	}
	if raw == nil {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, errors.Wrap(err, "rlp decode")
	}
	return true, nil
}

// BlockNumberKey encodes a block number as the 4-byte big-endian key used
// for the extras[n] index (spec §4.1, §9 open question 3: this truncates
// block heights above 2^32-1; a compatibility-free deployment could widen
// this to 8 bytes, but this module preserves the original prototype's
// 4-byte form).
func BlockNumberKey(number uint64) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(number))
	return buf[:]
}

// BestBlockKey is the literal ASCII key under which the best block hash is
// stored in the extras column.
var BestBlockKey = []byte("best")
