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

// Package pipeline implements the proposer and validator block-building
// paths (spec §4.8, C8), grounded on executer/src/lib.rs's apply_block in
// the original prototype.
package pipeline

import (
	"fmt"
	"time"

	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/chainstore"
	"github.com/dao-galaxy/bloomevm/executor"
	"github.com/dao-galaxy/bloomevm/kv"
	"github.com/dao-galaxy/bloomevm/trie"
)

// Kind names one of the pipeline's own failure modes (spec §7), distinct
// from the per-transaction executor.Error kinds.
type Kind int

const (
	BlockHashNotExist Kind = iota
)

type Error struct {
	Kind Kind
}

func (e *Error) Error() string {
	switch e.Kind {
	case BlockHashNotExist:
		return "BlockHashNotExist"
	default:
		return "unknown pipeline error"
	}
}

// nowFunc is overridable in tests that need a deterministic timestamp;
// production code always uses wall-clock time (spec §4.8 step 2).
var nowFunc = func() uint64 { return uint64(time.Now().Unix()) }

// CreateHeader builds a new, speculative header on top of parent_hash
// without writing anything to the chain store (spec §4.8's proposer
// path). The executor runs in non-commit mode, so none of its journaling
// overlay writes reach disk (spec invariant 4).
func CreateHeader(store kv.Store, cs *chainstore.ChainStore, parentHash bloomtypes.Hash, author bloomtypes.Address, extraData []byte, gasLimit, difficulty uint64, txs []bloomtypes.SignedTransaction) (*bloomtypes.Header, error) {
	parent, err := cs.HeaderByHash(parentHash)
	if err != nil {
		return nil, &Error{Kind: BlockHashNotExist}
	}

	header := &bloomtypes.Header{
		ParentHash: parent.Hash(),
		Author:     author,
		StateRoot:  parent.StateRoot,
		Number:     parent.Number + 1,
		GasLimit:   gasLimit,
		Difficulty: difficulty,
		Timestamp:  nowFunc(),
		ExtraData:  extraData,
	}

	stateRoot := parent.StateRoot
	var totalGasUsed uint64
	for _, tx := range txs {
		result, err := executor.Execute(store, header, tx, stateRoot, false)
		if err != nil {
			return nil, err
		}
		stateRoot = result.StateRoot
		totalGasUsed += result.GasUsed
	}

	header.GasUsed = totalGasUsed
	header.StateRoot = stateRoot
	root, err := BuildTransactionTrie(store, txsOf(txs))
	if err != nil {
		return nil, err
	}
	header.TransactionsRoot = root
	return header, nil
}

// ApplyBlock commits header and raw_txs to the chain store (spec §4.8's
// validator path). The executor runs in commit mode starting from the
// chain's current best state root; it does not verify that the
// recomputed state root matches header.StateRoot (spec §9 open question
// 2, preserved here rather than silently guessed at).
func ApplyBlock(store kv.Store, cs *chainstore.ChainStore, header *bloomtypes.Header, txs []bloomtypes.SignedTransaction) error {
	best := cs.BestBlockHeader()
	stateRoot := best.StateRoot

	for _, tx := range txs {
		result, err := executor.Execute(store, header, tx, stateRoot, true)
		if err != nil {
			if execErr, ok := err.(*executor.Error); ok && execErr.Kind == executor.ExitReasonFatal {
				return err
			}
			// Every other kind still carries a meaningful Result.StateRoot:
			// Revert/Error ran after the writeset was applied, so the root
			// moved; the pre-dispatch kinds (BalanceLow, InvalidNonce, ...)
			// carry back the root this tx started from unchanged, so a
			// rejected tx is simply skipped rather than wiping the chain's
			// state to the empty trie. Only Fatal aborts the block.
		}
		stateRoot = result.StateRoot
	}

	plainTxs := txsOf(txs)
	block := &bloomtypes.Block{Header: header, Transactions: plainTxs}
	if err := cs.InsertBlock(block); err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

func txsOf(txs []bloomtypes.SignedTransaction) []bloomtypes.UnverifiedTransaction {
	out := make([]bloomtypes.UnverifiedTransaction, len(txs))
	for i, tx := range txs {
		out[i] = tx.UnverifiedTransaction
	}
	return out
}

// BuildTransactionTrie builds a trie over a transient column keyed by
// tx.hash(), returning its root (spec §4.8's build_transaction_trie). The
// trie's nodes are written to an in-memory transientDB that is discarded
// when the call returns; store is not written to.
func BuildTransactionTrie(store kv.Store, txs []bloomtypes.UnverifiedTransaction) (bloomtypes.Hash, error) {
	db := newTransientDB()
	t, err := trie.New(bloomtypes.Hash{}, db)
	if err != nil {
		return bloomtypes.Hash{}, err
	}
	for _, tx := range txs {
		enc, err := encodeTx(&tx)
		if err != nil {
			return bloomtypes.Hash{}, err
		}
		hash := tx.Hash()
		if err := t.Insert(hash.Bytes(), enc); err != nil {
			return bloomtypes.Hash{}, err
		}
	}
	return t.Commit(), nil
}
