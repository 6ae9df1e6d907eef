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

// Package executor runs one signed transaction against a State, the way
// execute_evm/execute_transfer did in the original prototype's
// executer/src/lib.rs (spec §4.7, C7).
package executor

import (
	"fmt"

	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/evm"
	"github.com/dao-galaxy/bloomevm/kv"
	"github.com/dao-galaxy/bloomevm/state"
	"github.com/holiman/uint256"
)

// Kind names one of the executor's typed failure modes (spec §7).
type Kind int

const (
	BalanceLow Kind = iota
	FeeOverflow
	PaymentOverflow
	WithdrawFailed
	GasPriceTooLow
	ExitReasonFailed
	ExitReasonRevert
	ExitReasonFatal
	InvalidNonce
)

func (k Kind) String() string {
	switch k {
	case BalanceLow:
		return "BalanceLow"
	case FeeOverflow:
		return "FeeOverflow"
	case PaymentOverflow:
		return "PaymentOverflow"
	case WithdrawFailed:
		return "WithdrawFailed"
	case GasPriceTooLow:
		return "GasPriceTooLow"
	case ExitReasonFailed:
		return "ExitReasonFailed"
	case ExitReasonRevert:
		return "ExitReasonRevert"
	case ExitReasonFatal:
		return "ExitReasonFatal"
	case InvalidNonce:
		return "InvalidNonce"
	default:
		return "Unknown"
	}
}

// Error is a typed executor failure (spec §7: "any of the above aborts
// that transaction").
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

// minGasPrice is the floor below which a transaction is rejected as
// GasPriceTooLow. uint256.Int cannot represent a negative value, so a
// "negative gas price" check can never fire; the floor is currently zero
// (spec §4.7: "currently the floor is zero"), and overridable here the
// same way pipeline.nowFunc is, for tests that need the kind reachable.
var minGasPrice = uint256.NewInt(0)

// Result is the successful outcome of one transaction: the new state
// root threaded to the next transaction in the block, the gas spent, and
// (for a contract-creation transaction) the address that was created.
type Result struct {
	StateRoot       bloomtypes.Hash
	GasUsed         uint64
	ContractAddress *bloomtypes.Address
}

// Execute runs tx against store at newStateRoot (spec §4.7 steps 1-10).
// If commit is true, the resulting State is flushed to store and
// newStateRoot becomes durable; if false (the proposer's speculative
// path), the journaling overlay's writes never leave memory.
func Execute(store kv.Store, header *bloomtypes.Header, tx bloomtypes.SignedTransaction, newStateRoot bloomtypes.Hash, commit bool) (Result, error) {
	// threadedRoot is what every pre-dispatch failure below returns as
	// Result.StateRoot: the root this transaction started from, unchanged.
	// A caller (pipeline.ApplyBlock) that threads stateRoot = result.
	// StateRoot across a block must see the prior root carried forward on
	// these kinds, not the zero hash — only Revert/Error/Fatal, which run
	// after the writeset has actually been applied, return a new root.
	threadedRoot := newStateRoot

	if tx.GasPrice.Lt(minGasPrice) {
		return Result{StateRoot: threadedRoot}, newError(GasPriceTooLow, "")
	}

	vicinity := &evm.Vicinity{
		GasPrice:        tx.GasPrice,
		Origin:          tx.Sender,
		ChainID:         uint256.NewInt(0),
		BlockHashes:     nil,
		BlockNumber:     uint256.NewInt(header.Number),
		BlockCoinbase:   header.Author,
		BlockTimestamp:  uint256.NewInt(header.Timestamp),
		BlockDifficulty: uint256.NewInt(header.Difficulty),
		BlockGasLimit:   uint256.NewInt(header.GasLimit),
	}

	var st *state.State
	if newStateRoot == bloomtypes.EmptyRootHash {
		st = state.Fresh(vicinity, store)
	} else {
		var err error
		st, err = state.FromExisting(newStateRoot, vicinity, store)
		if err != nil {
			return Result{StateRoot: threadedRoot}, err
		}
	}

	totalFee, overflow := checkedMul(tx.GasPrice, tx.Gas)
	if overflow {
		return Result{StateRoot: threadedRoot}, newError(FeeOverflow, "")
	}
	totalPayment, overflow := checkedAdd(tx.Value, totalFee)
	if overflow {
		return Result{StateRoot: threadedRoot}, newError(PaymentOverflow, "")
	}

	sender := st.BasicAccount(tx.Sender)
	if sender.Balance.Lt(totalPayment) {
		return Result{StateRoot: threadedRoot}, newError(BalanceLow, "")
	}
	if sender.Nonce.Cmp(uint256.NewInt(tx.Nonce)) != 0 {
		return Result{StateRoot: threadedRoot}, newError(InvalidNonce, "")
	}

	ex := evm.NewExecutor(st, tx.Gas)
	if err := ex.Withdraw(tx.Sender, totalFee); err != nil {
		return Result{StateRoot: threadedRoot}, newError(WithdrawFailed, err.Error())
	}

	// The create-address derivation (if any) reads the sender's nonce
	// before it is bumped for this send, so dispatch runs first and the
	// single IncNonce below covers both the call and create paths.
	var contractAddr *bloomtypes.Address
	var reason evm.ExitReason
	if tx.IsContractCreation() {
		addr, r := ex.TransactCreate(tx.Sender, tx.Value, tx.Data, tx.Gas)
		reason = r
		if r.Kind == evm.ExitSucceed {
			contractAddr = &addr
		}
	} else {
		reason = ex.TransactCall(tx.Sender, *tx.To, tx.Value, tx.Data, tx.Gas)
	}
	ex.IncNonce(tx.Sender)

	var execErr error
	switch reason.Kind {
	case evm.ExitSucceed:
	case evm.ExitError:
		execErr = newError(ExitReasonFailed, reason.Message)
	case evm.ExitRevert:
		execErr = newError(ExitReasonRevert, reason.Message)
	case evm.ExitFatal:
		execErr = newError(ExitReasonFatal, reason.Message)
	}

	actualFee := ex.Fee(tx.GasPrice)
	refund := new(uint256.Int).Sub(totalFee, actualFee)
	ex.Deposit(tx.Sender, refund)

	writes, logs := ex.Deconstruct()
	if err := st.Apply(writes, logs, true); err != nil {
		return Result{}, err
	}

	gasUsed := tx.Gas - ex.GasLeft()
	root := st.Root()
	if commit {
		r, err := st.Commit()
		if err != nil {
			return Result{}, err
		}
		root = r
	}

	if execErr != nil {
		return Result{StateRoot: root, GasUsed: gasUsed}, execErr
	}
	return Result{StateRoot: root, GasUsed: gasUsed, ContractAddress: contractAddr}, nil
}

func checkedMul(price *bloomtypes.U256, gas uint64) (*bloomtypes.U256, bool) {
	g := uint256.NewInt(gas)
	result, overflow := new(uint256.Int).MulOverflow(price, g)
	return result, overflow
}

func checkedAdd(a, b *bloomtypes.U256) (*bloomtypes.U256, bool) {
	result, overflow := new(uint256.Int).AddOverflow(a, b)
	return result, overflow
}
