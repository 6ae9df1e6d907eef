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

package genesis

import (
	"testing"

	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/kv"
	"github.com/dao-galaxy/bloomevm/state"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestBuildSeedsAccountsAndCommits(t *testing.T) {
	store := kv.NewMemory()
	addr := bloomtypes.BytesToAddress([]byte{0x01})
	balance, err := uint256.FromDecimal("1000000000000000000")
	require.NoError(t, err)

	header, err := Build(store, []Account{{Address: addr, Value: balance}})
	require.NoError(t, err)
	require.NotEqual(t, bloomtypes.EmptyRootHash, header.StateRoot)
	require.Equal(t, bloomtypes.EmptyRootHash, header.TransactionsRoot)
	require.Equal(t, uint64(0), header.Number)

	st, err := state.FromExisting(header.StateRoot, zeroVicinity(), store)
	require.NoError(t, err)
	basic := st.BasicAccount(addr)
	require.Equal(t, balance.String(), basic.Balance.String())
}

func TestBuildWithNoAccountsYieldsEmptyRoot(t *testing.T) {
	store := kv.NewMemory()
	header, err := Build(store, nil)
	require.NoError(t, err)
	require.Equal(t, bloomtypes.EmptyRootHash, header.StateRoot)
}

func TestBuildDistinctAccountsAreIndependentlyReadable(t *testing.T) {
	store := kv.NewMemory()
	a := bloomtypes.BytesToAddress([]byte{0xAA})
	b := bloomtypes.BytesToAddress([]byte{0xBB})
	header, err := Build(store, []Account{
		{Address: a, Value: uint256.NewInt(10)},
		{Address: b, Value: uint256.NewInt(20)},
	})
	require.NoError(t, err)

	st, err := state.FromExisting(header.StateRoot, zeroVicinity(), store)
	require.NoError(t, err)
	require.Equal(t, uint64(10), st.BasicAccount(a).Balance.Uint64())
	require.Equal(t, uint64(20), st.BasicAccount(b).Balance.Uint64())
}
