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

package bloomtypes

import (
	"github.com/ethereum/go-ethereum/rlp"
)

// UnverifiedTransaction is a transaction as received over the wire: signed,
// but with the sender not yet recovered from the signature. Field order is
// the RLP encoding order.
type UnverifiedTransaction struct {
	Nonce    uint64
	GasPrice *U256
	Gas      uint64
	To       *Address `rlp:"nil"` // nil means contract creation
	Value    *U256
	Data     []byte
	V        uint64
	R        *U256
	S        *U256
}

// Hash returns the Keccak-256 hash of the transaction's canonical RLP
// encoding. It is used as the chain store's transaction key and as the
// transaction-trie leaf key.
func (tx *UnverifiedTransaction) Hash() Hash {
	enc, err := rlp.EncodeToBytes(tx)
	if err != nil {
		panic(err)
	}
	return Keccak256(enc)
}

// IsContractCreation reports whether the transaction has no recipient.
func (tx *UnverifiedTransaction) IsContractCreation() bool {
	return tx.To == nil
}

// SignedTransaction pairs an UnverifiedTransaction with the address
// recovered from its signature. Recovery itself is out of scope for this
// module (spec §1) — callers obtain the sender via a supplied
// recover_sender-shaped function and construct SignedTransaction from the
// result.
type SignedTransaction struct {
	UnverifiedTransaction
	Sender Address
}

// NewSignedTransaction pairs an unverified transaction with its recovered
// sender.
func NewSignedTransaction(tx UnverifiedTransaction, sender Address) SignedTransaction {
	return SignedTransaction{UnverifiedTransaction: tx, Sender: sender}
}

// RecoverSender is the shape of the external signature-recovery
// collaborator named in spec §1.
type RecoverSender func(tx *UnverifiedTransaction) (Address, error)

// TxLocation records where a transaction was included: which block, at
// which height and index. A transaction may have more than one location
// because the chain store is not fork-resolved (spec §3).
type TxLocation struct {
	BlockHash  Hash
	BlockNumber uint64
	Index      uint64
}

// TransactionBody is the chain store's stored representation of a
// transaction: the transaction itself plus every location it has been
// seen included at.
type TransactionBody struct {
	Tx        UnverifiedTransaction
	Locations []TxLocation
}

// TransactionHashList is the per-block ordered list of transaction hashes
// stored under the block's hash in the bodies column.
type TransactionHashList struct {
	Hashes []Hash
}

// BlockHashList is the ordered list of block hashes recorded at a given
// height (spec §3, §9 open question 1): append-on-insert, read index 0.
type BlockHashList struct {
	Hashes []Hash
}
