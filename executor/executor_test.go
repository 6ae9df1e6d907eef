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

package executor

import (
	"testing"

	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/evm"
	"github.com/dao-galaxy/bloomevm/kv"
	"github.com/dao-galaxy/bloomevm/state"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func zeroVicinity() *evm.Vicinity {
	return &evm.Vicinity{
		GasPrice:        uint256.NewInt(0),
		ChainID:         uint256.NewInt(0),
		BlockNumber:     uint256.NewInt(0),
		BlockTimestamp:  uint256.NewInt(0),
		BlockDifficulty: uint256.NewInt(0),
		BlockGasLimit:   uint256.NewInt(0),
	}
}

// seedAccounts writes each (address, balance, nonce) triple and commits,
// returning the resulting state root.
func seedAccounts(t *testing.T, store kv.Store, balances map[bloomtypes.Address]uint64) bloomtypes.Hash {
	t.Helper()
	st := state.Fresh(zeroVicinity(), store)
	var writes []evm.Apply
	for addr, bal := range balances {
		writes = append(writes, evm.Apply{Modify: &evm.ApplyModify{
			Address: addr,
			Basic:   evm.Basic{Balance: uint256.NewInt(bal), Nonce: uint256.NewInt(0)},
		}})
	}
	require.NoError(t, st.Apply(writes, nil, true))
	root, err := st.Commit()
	require.NoError(t, err)
	return root
}

func header(root bloomtypes.Hash) *bloomtypes.Header {
	return &bloomtypes.Header{Number: 1, GasLimit: 1_000_000}
}

// TestTransferUpdatesBothBalancesAndNonce is spec scenario S4.
func TestTransferUpdatesBothBalancesAndNonce(t *testing.T) {
	store := kv.NewMemory()
	a := bloomtypes.BytesToAddress([]byte{0xAA})
	b := bloomtypes.BytesToAddress([]byte{0xBB})
	root := seedAccounts(t, store, map[bloomtypes.Address]uint64{a: 1_000_000_000_000_000_000, b: 0})

	tx := bloomtypes.NewSignedTransaction(bloomtypes.UnverifiedTransaction{
		Nonce:    0,
		GasPrice: uint256.NewInt(0),
		Gas:      21000,
		To:       &b,
		Value:    uint256.NewInt(100_000_000_000_000_000),
	}, a)

	result, err := Execute(store, header(root), tx, root, true)
	require.NoError(t, err)

	st, err := state.FromExisting(result.StateRoot, zeroVicinity(), store)
	require.NoError(t, err)

	require.Equal(t, uint256.NewInt(900_000_000_000_000_000).String(), st.BasicAccount(a).Balance.String())
	require.Equal(t, uint256.NewInt(100_000_000_000_000_000).String(), st.BasicAccount(b).Balance.String())
	require.Equal(t, uint64(1), st.BasicAccount(a).Nonce.Uint64())
}

// TestNonceMismatchFailsAndLeavesStateUnchanged is spec scenario S7.
func TestNonceMismatchFailsAndLeavesStateUnchanged(t *testing.T) {
	store := kv.NewMemory()
	a := bloomtypes.BytesToAddress([]byte{0xAA})
	b := bloomtypes.BytesToAddress([]byte{0xBB})
	root := seedAccounts(t, store, map[bloomtypes.Address]uint64{a: 1000, b: 0})

	tx := bloomtypes.NewSignedTransaction(bloomtypes.UnverifiedTransaction{
		Nonce:    1, // account nonce is actually 0
		GasPrice: uint256.NewInt(0),
		Gas:      21000,
		To:       &b,
		Value:    uint256.NewInt(1),
	}, a)

	_, err := Execute(store, header(root), tx, root, true)
	require.Error(t, err)
	execErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, InvalidNonce, execErr.Kind)

	st, err := state.FromExisting(root, zeroVicinity(), store)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), st.BasicAccount(a).Balance.Uint64())
}

func TestBalanceLowFailsBeforeAnyWithdraw(t *testing.T) {
	store := kv.NewMemory()
	a := bloomtypes.BytesToAddress([]byte{0xAA})
	b := bloomtypes.BytesToAddress([]byte{0xBB})
	root := seedAccounts(t, store, map[bloomtypes.Address]uint64{a: 10, b: 0})

	tx := bloomtypes.NewSignedTransaction(bloomtypes.UnverifiedTransaction{
		Nonce:    0,
		GasPrice: uint256.NewInt(0),
		Gas:      21000,
		To:       &b,
		Value:    uint256.NewInt(1000),
	}, a)

	_, err := Execute(store, header(root), tx, root, true)
	require.Error(t, err)
	execErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, BalanceLow, execErr.Kind)
}

// TestFeeConservationOnSuccessfulTransfer is spec invariant 8's success
// branch: with a non-zero gas price, ending balance = B - value - fee.
func TestFeeConservationOnSuccessfulTransfer(t *testing.T) {
	store := kv.NewMemory()
	a := bloomtypes.BytesToAddress([]byte{0xAA})
	b := bloomtypes.BytesToAddress([]byte{0xBB})
	root := seedAccounts(t, store, map[bloomtypes.Address]uint64{a: 1_000_000, b: 0})

	gasPrice := uint256.NewInt(2)
	tx := bloomtypes.NewSignedTransaction(bloomtypes.UnverifiedTransaction{
		Nonce:    0,
		GasPrice: gasPrice,
		Gas:      21000,
		To:       &b,
		Value:    uint256.NewInt(1000),
	}, a)

	result, err := Execute(store, header(root), tx, root, true)
	require.NoError(t, err)
	require.LessOrEqual(t, result.GasUsed, uint64(21000))

	st, err := state.FromExisting(result.StateRoot, zeroVicinity(), store)
	require.NoError(t, err)

	fee := result.GasUsed * gasPrice.Uint64()
	want := uint64(1_000_000) - 1000 - fee
	require.Equal(t, want, st.BasicAccount(a).Balance.Uint64())
}

func TestContractCreationRecordsDeployedAddress(t *testing.T) {
	store := kv.NewMemory()
	a := bloomtypes.BytesToAddress([]byte{0xAA})
	root := seedAccounts(t, store, map[bloomtypes.Address]uint64{a: 1_000_000_000})

	tx := bloomtypes.NewSignedTransaction(bloomtypes.UnverifiedTransaction{
		Nonce:    0,
		GasPrice: uint256.NewInt(0),
		Gas:      1_000_000,
		To:       nil,
		Value:    uint256.NewInt(0),
		Data:     []byte{0x60, 0x60},
	}, a)
	require.True(t, tx.IsContractCreation())

	result, err := Execute(store, header(root), tx, root, true)
	require.NoError(t, err)
	require.NotNil(t, result.ContractAddress)
	require.Equal(t, evm.CreateAddress(a, 0), *result.ContractAddress)

	st, err := state.FromExisting(result.StateRoot, zeroVicinity(), store)
	require.NoError(t, err)
	// Spec invariant 7: nonce increases by exactly one per transaction,
	// even for a contract-creation send (the create-address derivation
	// must not itself bump the nonce a second time).
	require.Equal(t, uint64(1), st.BasicAccount(a).Nonce.Uint64())
}

// TestGasPriceBelowFloorIsRejected exercises GasPriceTooLow by raising the
// floor for the duration of the test; in production the floor is zero and
// every non-negative uint256 gas price clears it.
func TestGasPriceBelowFloorIsRejected(t *testing.T) {
	old := minGasPrice
	minGasPrice = uint256.NewInt(5)
	defer func() { minGasPrice = old }()

	store := kv.NewMemory()
	a := bloomtypes.BytesToAddress([]byte{0xAA})
	b := bloomtypes.BytesToAddress([]byte{0xBB})
	root := seedAccounts(t, store, map[bloomtypes.Address]uint64{a: 1000, b: 0})

	tx := bloomtypes.NewSignedTransaction(bloomtypes.UnverifiedTransaction{
		Nonce:    0,
		GasPrice: uint256.NewInt(1),
		Gas:      21000,
		To:       &b,
		Value:    uint256.NewInt(1),
	}, a)

	result, err := Execute(store, header(root), tx, root, true)
	require.Error(t, err)
	execErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, GasPriceTooLow, execErr.Kind)
	// Rejected before dispatch: the threaded root is unchanged.
	require.Equal(t, root, result.StateRoot)
}

// TestDeterministicExecutionGivenSameInputs is spec invariant 3: identical
// parent root and tx list produce identical state_root and gas_used.
func TestDeterministicExecutionGivenSameInputs(t *testing.T) {
	runOnce := func() (bloomtypes.Hash, uint64) {
		store := kv.NewMemory()
		a := bloomtypes.BytesToAddress([]byte{0xAA})
		b := bloomtypes.BytesToAddress([]byte{0xBB})
		root := seedAccounts(t, store, map[bloomtypes.Address]uint64{a: 5_000_000, b: 0})
		tx := bloomtypes.NewSignedTransaction(bloomtypes.UnverifiedTransaction{
			Nonce:    0,
			GasPrice: uint256.NewInt(1),
			Gas:      21000,
			To:       &b,
			Value:    uint256.NewInt(500),
		}, a)
		result, err := Execute(store, header(root), tx, root, false)
		require.NoError(t, err)
		return result.StateRoot, result.GasUsed
	}

	root1, gas1 := runOnce()
	root2, gas2 := runOnce()
	require.Equal(t, root1, root2)
	require.Equal(t, gas1, gas2)
}
