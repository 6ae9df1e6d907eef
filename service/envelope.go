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

// Package service implements the four-method request/response dispatcher
// (spec §4.10, C10), grounded on chainstate/src/handler.rs in the
// original prototype. The dispatcher is transport-agnostic; see the
// transport package for the ZeroMQ wire binding it is served over.
package service

import "github.com/dao-galaxy/bloomevm/bloomtypes"

// Request is the decoded form of one incoming call (spec §6's service
// envelope): a method name, a correlation id, and method-specific
// encoded params.
type Request struct {
	Method string
	ID     uint64
	Params []byte
}

// Reply is the encoded outgoing envelope: status 0 means result is the
// method's typed payload; any other status means result is an encoded
// error message string (spec §6, §7).
type Reply struct {
	ID     uint64
	Status uint32
	Result []byte
}

const (
	statusOK    = 0
	statusError = 1
)

// CreateHeaderParams mirrors the original prototype's CreateHeaderReq.
type CreateHeaderParams struct {
	ParentHash   bloomtypes.Hash
	Author       bloomtypes.Address
	ExtraData    []byte
	GasLimit     uint64
	Difficulty   uint64
	Transactions []bloomtypes.UnverifiedTransaction
}

// CreateHeaderResult wraps the header returned to the caller.
type CreateHeaderResult struct {
	Header bloomtypes.Header
}

// ApplyBlockParams mirrors the original prototype's ApplyBlockReq (a
// header, transactions pair).
type ApplyBlockParams struct {
	Header       bloomtypes.Header
	Transactions []bloomtypes.UnverifiedTransaction
}

// ApplyBlockResult carries the boolean acknowledgement (spec §4.10).
type ApplyBlockResult struct {
	Ok bool
}

// LatestBlocksParams carries the requested count, clamped to >= 1 by the
// dispatcher (spec §4.10).
type LatestBlocksParams struct {
	N int64
}

// LatestBlocksResult is up to N most-recent headers, descending by
// height.
type LatestBlocksResult struct {
	Headers []bloomtypes.Header
}

// AccountInfoParams carries the address to look up.
type AccountInfoParams struct {
	Address bloomtypes.Address
}

// AccountInfoResult is the account's nonce and balance at the current
// best state root.
type AccountInfoResult struct {
	Nonce   *bloomtypes.U256
	Balance *bloomtypes.U256
}
