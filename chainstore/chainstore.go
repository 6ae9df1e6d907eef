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

// Package chainstore implements the header/body/transaction index over
// the KV store (spec §4.9, C9), grounded on blockchain/src/blockchain.rs
// in the original prototype.
package chainstore

import (
	"fmt"
	"sync"

	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/kv"
)

// ChainStore is the node's header/body/transaction index. Its best-block
// cell is protected by a read-write lock (spec §5): many readers, a
// single writer (the consensus thread in normal operation).
type ChainStore struct {
	store kv.Store

	mu   sync.RWMutex
	best *bloomtypes.Header
}

// Open bootstraps the chain store (spec §4.9): if extras["best"] is
// absent, it synthesizes and writes the genesis block; otherwise it loads
// the existing best header into memory.
func Open(store kv.Store, genesis *bloomtypes.Header) (*ChainStore, error) {
	cs := &ChainStore{store: store}

	var bestHash bloomtypes.Hash
	found, err := kv.ReadTyped(store, kv.ColExtras, kv.BestBlockKey, &bestHash)
	if err != nil {
		return nil, err
	}
	if !found {
		if err := cs.writeGenesis(genesis); err != nil {
			return nil, err
		}
		cs.best = genesis
		return cs, nil
	}

	header, err := cs.headerByHash(bestHash)
	if err != nil {
		return nil, err
	}
	cs.best = header
	return cs, nil
}

func (cs *ChainStore) writeGenesis(genesis *bloomtypes.Header) error {
	batch := cs.store.NewBatch()
	hash := genesis.Hash()
	if err := kv.WriteTyped(batch, kv.ColHeaders, hash.Bytes(), genesis); err != nil {
		return err
	}
	hashList := bloomtypes.TransactionHashList{}
	if err := kv.WriteTyped(batch, kv.ColBodies, hash.Bytes(), &hashList); err != nil {
		return err
	}
	blockList := bloomtypes.BlockHashList{Hashes: []bloomtypes.Hash{hash}}
	if err := kv.WriteTyped(batch, kv.ColExtras, kv.BlockNumberKey(0), &blockList); err != nil {
		return err
	}
	if err := kv.WriteTyped(batch, kv.ColExtras, kv.BestBlockKey, &hash); err != nil {
		return err
	}
	return batch.Write()
}

// BestBlockHeader returns (a copy of) the current best header.
func (cs *ChainStore) BestBlockHeader() *bloomtypes.Header {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	h := *cs.best
	return &h
}

func (cs *ChainStore) BestBlockHash() bloomtypes.Hash   { return cs.BestBlockHeader().Hash() }
func (cs *ChainStore) BestBlockNumber() uint64          { return cs.BestBlockHeader().Number }
func (cs *ChainStore) BestBlockTimestamp() uint64       { return cs.BestBlockHeader().Timestamp }
func (cs *ChainStore) BestBlockDifficulty() uint64      { return cs.BestBlockHeader().Difficulty }

// SetBestBlock moves the best-block pointer in memory. Persisting it to
// extras["best"] is the caller's responsibility; the dispatcher's
// ApplyBlock handler writes it in its own batch just before calling this
// (spec §9 open question 5: InsertBlock alone never moves the pointer).
func (cs *ChainStore) SetBestBlock(h *bloomtypes.Header) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cp := *h
	cs.best = &cp
}

func (cs *ChainStore) headerByHash(hash bloomtypes.Hash) (*bloomtypes.Header, error) {
	var h bloomtypes.Header
	found, err := kv.ReadTyped(cs.store, kv.ColHeaders, hash.Bytes(), &h)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("chainstore: no header for hash %x", hash)
	}
	return &h, nil
}

// HeaderByHash returns the header stored at hash.
func (cs *ChainStore) HeaderByHash(hash bloomtypes.Hash) (*bloomtypes.Header, error) {
	return cs.headerByHash(hash)
}

// BlockHashByNumber returns the first (spec §9 open question 1) entry of
// extras[number].
func (cs *ChainStore) BlockHashByNumber(number uint64) (bloomtypes.Hash, error) {
	var list bloomtypes.BlockHashList
	found, err := kv.ReadTyped(cs.store, kv.ColExtras, kv.BlockNumberKey(number), &list)
	if err != nil {
		return bloomtypes.Hash{}, err
	}
	if !found || len(list.Hashes) == 0 {
		return bloomtypes.Hash{}, fmt.Errorf("chainstore: no block at height %d", number)
	}
	return list.Hashes[0], nil
}

// BlockByHash assembles {header, transactions} from three separate reads
// (spec §4.9).
func (cs *ChainStore) BlockByHash(hash bloomtypes.Hash) (*bloomtypes.Block, error) {
	header, err := cs.headerByHash(hash)
	if err != nil {
		return nil, err
	}
	var hashList bloomtypes.TransactionHashList
	found, err := kv.ReadTyped(cs.store, kv.ColBodies, hash.Bytes(), &hashList)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("chainstore: no body for hash %x", hash)
	}
	txs := make([]bloomtypes.UnverifiedTransaction, 0, len(hashList.Hashes))
	for _, txHash := range hashList.Hashes {
		body, err := cs.TransactionBodyByHash(txHash)
		if err != nil {
			return nil, err
		}
		txs = append(txs, body.Tx)
	}
	return &bloomtypes.Block{Header: header, Transactions: txs}, nil
}

// BlockByNumber resolves height to a hash and then delegates to
// BlockByHash.
func (cs *ChainStore) BlockByNumber(number uint64) (*bloomtypes.Block, error) {
	hash, err := cs.BlockHashByNumber(number)
	if err != nil {
		return nil, err
	}
	return cs.BlockByHash(hash)
}

// TransactionHashListByBlockHash reads the ordered list of transaction
// hashes included in the block at hash.
func (cs *ChainStore) TransactionHashListByBlockHash(hash bloomtypes.Hash) (*bloomtypes.TransactionHashList, error) {
	var hashList bloomtypes.TransactionHashList
	found, err := kv.ReadTyped(cs.store, kv.ColBodies, hash.Bytes(), &hashList)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("chainstore: no body for hash %x", hash)
	}
	return &hashList, nil
}

// TransactionBodyByHash reads one transaction's stored body, including
// every block location it has been seen included at.
func (cs *ChainStore) TransactionBodyByHash(hash bloomtypes.Hash) (*bloomtypes.TransactionBody, error) {
	var body bloomtypes.TransactionBody
	found, err := kv.ReadTyped(cs.store, kv.ColTransactions, hash.Bytes(), &body)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("chainstore: no transaction body for hash %x", hash)
	}
	return &body, nil
}

// InsertBlock writes header, tx-hash list, the per-height block-hash
// list, and every transaction's merged body in a single batch (spec
// §4.9). It never moves the best pointer — only a caller that has
// applied the block (the service dispatcher's ApplyBlock handler, after
// pipeline.ApplyBlock succeeds) does that, via SetBestBlock.
func (cs *ChainStore) InsertBlock(block *bloomtypes.Block) error {
	batch := cs.store.NewBatch()
	hash := block.Header.Hash()

	if err := kv.WriteTyped(batch, kv.ColHeaders, hash.Bytes(), block.Header); err != nil {
		return err
	}

	txHashes := make([]bloomtypes.Hash, len(block.Transactions))
	for i, tx := range block.Transactions {
		txHashes[i] = tx.Hash()
	}
	hashList := bloomtypes.TransactionHashList{Hashes: txHashes}
	if err := kv.WriteTyped(batch, kv.ColBodies, hash.Bytes(), &hashList); err != nil {
		return err
	}

	var existing bloomtypes.BlockHashList
	found, err := kv.ReadTyped(cs.store, kv.ColExtras, kv.BlockNumberKey(block.Header.Number), &existing)
	if err != nil {
		return err
	}
	if !found {
		existing = bloomtypes.BlockHashList{}
	}
	existing.Hashes = append(existing.Hashes, hash)
	if err := kv.WriteTyped(batch, kv.ColExtras, kv.BlockNumberKey(block.Header.Number), &existing); err != nil {
		return err
	}

	for i, tx := range block.Transactions {
		txHash := tx.Hash()
		var body bloomtypes.TransactionBody
		found, err := kv.ReadTyped(cs.store, kv.ColTransactions, txHash.Bytes(), &body)
		if err != nil {
			return err
		}
		if !found {
			body = bloomtypes.TransactionBody{Tx: tx}
		}
		body.Locations = append(body.Locations, bloomtypes.TxLocation{
			BlockHash:   hash,
			BlockNumber: block.Header.Number,
			Index:       uint64(i),
		})
		if err := kv.WriteTyped(batch, kv.ColTransactions, txHash.Bytes(), &body); err != nil {
			return err
		}
	}

	return batch.Write()
}
