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

package evm

import (
	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

const (
	gasTransfer    = 21000
	gasPerCodeByte = 200
)

type acctState struct {
	basic        Basic
	code         []byte
	codeSet      bool
	storage      map[bloomtypes.Hash]bloomtypes.Hash
	resetStorage bool
	deleted      bool
	touched      bool
}

// Executor is a minimal, deterministic stand-in for a real EVM stack
// executor (spec's StackExecutor, grounded on executer/src/lib.rs). It
// overlays Backend reads in memory exactly the way the original
// prototype's executor.account_mut/withdraw/deposit/deconstruct do, so
// the transaction executor package can drive it without knowing that a
// full interpreter isn't behind it. It supports plain value transfers
// and contract-creation bookkeeping (storing the deployed code verbatim,
// with no opcode execution) — sufficient for the node's own
// create/call/transfer flow; arbitrary bytecode interpretation is not
// implemented.
type Executor struct {
	backend  Backend
	gasLimit uint64
	gasUsed  uint64
	accounts map[bloomtypes.Address]*acctState
	logs     []Log
}

// NewExecutor constructs an Executor bound to backend with the given gas
// limit for this one transaction.
func NewExecutor(backend Backend, gasLimit uint64) *Executor {
	return &Executor{
		backend:  backend,
		gasLimit: gasLimit,
		accounts: make(map[bloomtypes.Address]*acctState),
	}
}

func (e *Executor) accountMut(addr bloomtypes.Address) *acctState {
	if a, ok := e.accounts[addr]; ok {
		return a
	}
	basic := e.backend.BasicAccount(addr)
	a := &acctState{
		basic:   Basic{Balance: cloneU256(basic.Balance), Nonce: cloneU256(basic.Nonce)},
		storage: make(map[bloomtypes.Hash]bloomtypes.Hash),
	}
	e.accounts[addr] = a
	return a
}

func cloneU256(v *bloomtypes.U256) *bloomtypes.U256 {
	if v == nil {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(v)
}

// Balance returns addr's current (possibly overlaid) balance.
func (e *Executor) Balance(addr bloomtypes.Address) *bloomtypes.U256 {
	return e.accountMut(addr).basic.Balance
}

// Nonce returns addr's current (possibly overlaid) nonce.
func (e *Executor) Nonce(addr bloomtypes.Address) *bloomtypes.U256 {
	return e.accountMut(addr).basic.Nonce
}

// IncNonce bumps addr's nonce by one.
func (e *Executor) IncNonce(addr bloomtypes.Address) {
	a := e.accountMut(addr)
	a.basic.Nonce = new(uint256.Int).AddUint64(a.basic.Nonce, 1)
	a.touched = true
}

// Withdraw subtracts amount from addr's balance, failing if insufficient.
func (e *Executor) Withdraw(addr bloomtypes.Address, amount *bloomtypes.U256) error {
	a := e.accountMut(addr)
	if a.basic.Balance.Lt(amount) {
		return errInsufficientBalance
	}
	a.basic.Balance = new(uint256.Int).Sub(a.basic.Balance, amount)
	a.touched = true
	return nil
}

// Deposit adds amount to addr's balance.
func (e *Executor) Deposit(addr bloomtypes.Address, amount *bloomtypes.U256) {
	a := e.accountMut(addr)
	a.basic.Balance = new(uint256.Int).Add(a.basic.Balance, amount)
	a.touched = true
}

// Transfer moves value from source to target.
func (e *Executor) Transfer(source, target bloomtypes.Address, value *bloomtypes.U256) error {
	if err := e.Withdraw(source, value); err != nil {
		return err
	}
	e.Deposit(target, value)
	return nil
}

// CreateAddress computes the legacy CREATE contract address for caller
// at nonce (spec §4.7 step 6).
func CreateAddress(caller bloomtypes.Address, nonce uint64) bloomtypes.Address {
	return crypto.CreateAddress(caller, nonce)
}

// TransactCreate deploys code at the legacy-CREATE address derived from
// caller's nonce at the time of this send (spec §4.7 step 6). The
// caller's nonce itself is bumped once, uniformly for call and create
// transactions alike, by the executor's single IncNonce call.
func (e *Executor) TransactCreate(caller bloomtypes.Address, value *bloomtypes.U256, code []byte, gasLimit uint64) (bloomtypes.Address, ExitReason) {
	callerAcct := e.accountMut(caller)
	contract := CreateAddress(caller, callerAcct.basic.Nonce.Uint64())

	cost := uint64(gasTransfer) + uint64(len(code))*gasPerCodeByte
	if cost > gasLimit {
		e.gasUsed += gasLimit
		return bloomtypes.Address{}, Errored("out of gas")
	}
	e.gasUsed += cost

	if err := e.Transfer(caller, contract, value); err != nil {
		return bloomtypes.Address{}, Errored(err.Error())
	}
	dst := e.accountMut(contract)
	dst.code = code
	dst.codeSet = true
	dst.touched = true
	return contract, Succeed()
}

// TransactCall performs a value transfer to target. Contract code at
// target, if any, is not interpreted — see the package doc comment.
func (e *Executor) TransactCall(caller, target bloomtypes.Address, value *bloomtypes.U256, input []byte, gasLimit uint64) ExitReason {
	if gasTransfer > gasLimit {
		e.gasUsed += gasLimit
		return Errored("out of gas")
	}
	e.gasUsed += gasTransfer
	if err := e.Transfer(caller, target, value); err != nil {
		return Errored(err.Error())
	}
	return Succeed()
}

// GasLeft returns the gas remaining in this executor's budget.
func (e *Executor) GasLeft() uint64 {
	if e.gasUsed >= e.gasLimit {
		return 0
	}
	return e.gasLimit - e.gasUsed
}

// Fee returns gasUsed * gasPrice, the actual fee owed for this execution.
func (e *Executor) Fee(gasPrice *bloomtypes.U256) *bloomtypes.U256 {
	return new(uint256.Int).Mul(uint256.NewInt(e.gasUsed), gasPrice)
}

// Deconstruct harvests every touched account and emitted log as Apply
// writes (spec §4.7 step 9).
func (e *Executor) Deconstruct() ([]Apply, []Log) {
	writes := make([]Apply, 0, len(e.accounts))
	for addr, a := range e.accounts {
		if !a.touched && !a.codeSet {
			continue
		}
		if a.deleted {
			writes = append(writes, Apply{Delete: &ApplyDelete{Address: addr}})
			continue
		}
		m := &ApplyModify{
			Address:      addr,
			Basic:        a.basic,
			Storage:      a.storage,
			ResetStorage: a.resetStorage,
		}
		if a.codeSet {
			m.Code = a.code
		}
		writes = append(writes, Apply{Modify: m})
	}
	return writes, e.logs
}

type executorError string

func (e executorError) Error() string { return string(e) }

const errInsufficientBalance = executorError("insufficient balance")
