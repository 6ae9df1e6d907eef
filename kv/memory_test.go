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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAbsentKeyIsNilNotError(t *testing.T) {
	s := NewMemory()
	v, err := s.Get(ColState, []byte("nope"))
	require.NoError(t, err)
	require.Nil(t, v)

	ok, err := s.Has(ColState, []byte("nope"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreBatchWriteIsAtomicAndVisible(t *testing.T) {
	s := NewMemory()
	b := s.NewBatch()
	b.Put(ColState, []byte("a"), []byte("1"))
	b.Put(ColHeaders, []byte("b"), []byte("2"))
	require.NoError(t, b.Write())

	v, err := s.Get(ColState, []byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)

	v, err = s.Get(ColHeaders, []byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), v)

	// Columns are independent key spaces.
	v, err = s.Get(ColHeaders, []byte("a"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemory()
	b := s.NewBatch()
	b.Put(ColState, []byte("k"), []byte("v"))
	require.NoError(t, b.Write())

	b = s.NewBatch()
	b.Delete(ColState, []byte("k"))
	require.NoError(t, b.Write())

	v, err := s.Get(ColState, []byte("k"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestMemoryStoreGetReturnsDefensiveCopy(t *testing.T) {
	s := NewMemory()
	b := s.NewBatch()
	b.Put(ColState, []byte("k"), []byte("v"))
	require.NoError(t, b.Write())

	v, err := s.Get(ColState, []byte("k"))
	require.NoError(t, err)
	v[0] = 'x'

	v2, err := s.Get(ColState, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v2)
}
