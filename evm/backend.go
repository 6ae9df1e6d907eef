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

// Package evm defines the backend contract the transaction executor runs
// against (spec §4.6's "EVM backend contract" and §4.7), grounded on
// executer/src/lib.rs and state/src/state.rs in the original prototype.
// The package also carries a minimal, deterministic reference executor
// that implements value transfers and contract-creation bookkeeping —
// real opcode interpretation is out of this module's scope (spec §1
// treats the EVM as an external collaborator); the reference executor
// exists only so the rest of the pipeline is runnable and testable.
package evm

import (
	"github.com/dao-galaxy/bloomevm/bloomtypes"
)

// Vicinity is the block- and transaction-level environment the EVM reads
// from (spec's GLOSSARY). It is constructed once per transaction by the
// executor and is immutable for the lifetime of that transaction.
type Vicinity struct {
	GasPrice        *bloomtypes.U256
	Origin          bloomtypes.Address
	ChainID         *bloomtypes.U256
	BlockHashes     []bloomtypes.Hash // most recent first
	BlockNumber     *bloomtypes.U256
	BlockCoinbase   bloomtypes.Address
	BlockTimestamp  *bloomtypes.U256
	BlockDifficulty *bloomtypes.U256
	BlockGasLimit   *bloomtypes.U256
}

// Basic is the minimal per-account view the EVM needs for balance and
// nonce checks.
type Basic struct {
	Balance *bloomtypes.U256
	Nonce   *bloomtypes.U256
}

// Backend is the EVM's read-only view of chain state (spec §4.6's "EVM
// backend contract"). State implements this over the state trie at a
// fixed root.
type Backend interface {
	GasPrice() *bloomtypes.U256
	Origin() bloomtypes.Address
	ChainID() *bloomtypes.U256
	BlockHash(number *bloomtypes.U256) bloomtypes.Hash
	BlockNumber() *bloomtypes.U256
	BlockCoinbase() bloomtypes.Address
	BlockTimestamp() *bloomtypes.U256
	BlockDifficulty() *bloomtypes.U256
	BlockGasLimit() *bloomtypes.U256

	Exists(addr bloomtypes.Address) bool
	BasicAccount(addr bloomtypes.Address) Basic
	CodeHash(addr bloomtypes.Address) bloomtypes.Hash
	CodeSize(addr bloomtypes.Address) int
	Code(addr bloomtypes.Address) []byte
	Storage(addr bloomtypes.Address, index bloomtypes.Hash) bloomtypes.Hash
}

// Log is one EVM event log entry.
type Log struct {
	Address bloomtypes.Address
	Topics  []bloomtypes.Hash
	Data    []byte
}

// Apply is a pending write the executor harvests from the EVM and hands
// to State.Apply (spec §4.6's "Mutation: apply(writes, logs, delete_empty)").
// Exactly one of Modify or Delete is non-nil.
type Apply struct {
	Modify *ApplyModify
	Delete *ApplyDelete
}

// ApplyModify stages every change to one account: its balance/nonce, an
// optional code replacement, and any storage writes.
type ApplyModify struct {
	Address      bloomtypes.Address
	Basic        Basic
	Code         []byte // nil means "code unchanged"
	Storage      map[bloomtypes.Hash]bloomtypes.Hash
	ResetStorage bool
}

// ApplyDelete marks an account for removal.
type ApplyDelete struct {
	Address bloomtypes.Address
}

// ExitKind classifies an ExitReason the way the executor's error mapping
// needs (spec §4.7 step 7).
type ExitKind int

const (
	ExitSucceed ExitKind = iota
	ExitError
	ExitRevert
	ExitFatal
)

// ExitReason is the terminal status of one EVM dispatch (create or call).
type ExitReason struct {
	Kind    ExitKind
	Message string
}

func Succeed() ExitReason            { return ExitReason{Kind: ExitSucceed} }
func Errored(msg string) ExitReason  { return ExitReason{Kind: ExitError, Message: msg} }
func Reverted(msg string) ExitReason { return ExitReason{Kind: ExitRevert, Message: msg} }
func Fatal(msg string) ExitReason    { return ExitReason{Kind: ExitFatal, Message: msg} }
