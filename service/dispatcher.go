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

package service

import (
	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/chainstore"
	"github.com/dao-galaxy/bloomevm/evm"
	"github.com/dao-galaxy/bloomevm/kv"
	"github.com/dao-galaxy/bloomevm/pipeline"
	"github.com/dao-galaxy/bloomevm/state"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Dispatcher routes decoded requests to the chain store, pipeline, and
// state packages (spec §4.10). It holds the only mutable handle to the
// chain store on the consensus thread; the query thread should construct
// a Dispatcher over the same store but never call CreateHeader/ApplyBlock
// concurrently with the consensus thread's own Dispatcher (spec §5).
type Dispatcher struct {
	store         kv.Store
	chain         *chainstore.ChainStore
	recoverSender bloomtypes.RecoverSender
}

// New builds a Dispatcher. recoverSender recovers a transaction's sender
// from its signature; it is an external collaborator (spec §1).
func New(store kv.Store, chain *chainstore.ChainStore, recoverSender bloomtypes.RecoverSender) *Dispatcher {
	return &Dispatcher{store: store, chain: chain, recoverSender: recoverSender}
}

// Handle decodes, dispatches, and encodes req into a reply. Decode
// failures on either the envelope (handled by the transport before this
// is called) or the inner request never abort the dispatcher — they
// produce a default error reply (spec §4.10, §7).
func (d *Dispatcher) Handle(req Request) Reply {
	switch req.Method {
	case "CreateHeader":
		return d.handleCreateHeader(req)
	case "ApplyBlock":
		return d.handleApplyBlock(req)
	case "LatestBlocks":
		return d.handleLatestBlocks(req)
	case "AccountInfo":
		return d.handleAccountInfo(req)
	default:
		return errorReply(req.ID, "unknown method")
	}
}

func (d *Dispatcher) recoverAll(txs []bloomtypes.UnverifiedTransaction) ([]bloomtypes.SignedTransaction, error) {
	out := make([]bloomtypes.SignedTransaction, len(txs))
	for i, tx := range txs {
		sender, err := d.recoverSender(&tx)
		if err != nil {
			return nil, err
		}
		out[i] = bloomtypes.NewSignedTransaction(tx, sender)
	}
	return out, nil
}

func (d *Dispatcher) handleCreateHeader(req Request) Reply {
	var p CreateHeaderParams
	if err := rlp.DecodeBytes(req.Params, &p); err != nil {
		return errorReply(req.ID, "decode error")
	}
	signedTxs, err := d.recoverAll(p.Transactions)
	if err != nil {
		return errorReply(req.ID, err.Error())
	}
	header, err := pipeline.CreateHeader(d.store, d.chain, p.ParentHash, p.Author, p.ExtraData, p.GasLimit, p.Difficulty, signedTxs)
	if err != nil {
		return errorReply(req.ID, err.Error())
	}
	return okReply(req.ID, &CreateHeaderResult{Header: *header})
}

func (d *Dispatcher) handleApplyBlock(req Request) Reply {
	var p ApplyBlockParams
	if err := rlp.DecodeBytes(req.Params, &p); err != nil {
		return errorReply(req.ID, "decode error")
	}
	signedTxs, err := d.recoverAll(p.Transactions)
	if err != nil {
		return errorReply(req.ID, err.Error())
	}
	if err := pipeline.ApplyBlock(d.store, d.chain, &p.Header, signedTxs); err != nil {
		return errorReply(req.ID, err.Error())
	}
	bestHash := p.Header.Hash()
	batch := d.store.NewBatch()
	if err := kv.WriteTyped(batch, kv.ColExtras, kv.BestBlockKey, &bestHash); err != nil {
		return errorReply(req.ID, err.Error())
	}
	if err := batch.Write(); err != nil {
		return errorReply(req.ID, err.Error())
	}
	d.chain.SetBestBlock(&p.Header)
	return okReply(req.ID, &ApplyBlockResult{Ok: true})
}

func (d *Dispatcher) handleLatestBlocks(req Request) Reply {
	var p LatestBlocksParams
	if err := rlp.DecodeBytes(req.Params, &p); err != nil {
		return errorReply(req.ID, "decode error")
	}
	n := p.N
	if n <= 0 {
		n = 1
	}
	best := d.chain.BestBlockNumber()
	var headers []bloomtypes.Header
	for i := int64(0); i < n; i++ {
		if uint64(i) > best {
			break
		}
		number := best - uint64(i)
		block, err := d.chain.BlockByNumber(number)
		if err != nil {
			break
		}
		headers = append(headers, *block.Header)
	}
	return okReply(req.ID, &LatestBlocksResult{Headers: headers})
}

func (d *Dispatcher) handleAccountInfo(req Request) Reply {
	var p AccountInfoParams
	if err := rlp.DecodeBytes(req.Params, &p); err != nil {
		return errorReply(req.ID, "decode error")
	}
	best := d.chain.BestBlockHeader()
	st, err := state.FromExisting(best.StateRoot, zeroVicinity(), d.store)
	if err != nil {
		return errorReply(req.ID, err.Error())
	}
	basic := st.BasicAccount(p.Address)
	return okReply(req.ID, &AccountInfoResult{Nonce: basic.Nonce, Balance: basic.Balance})
}

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

func okReply(id uint64, payload interface{}) Reply {
	enc, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return errorReply(id, "encode error")
	}
	return Reply{ID: id, Status: statusOK, Result: enc}
}

func errorReply(id uint64, msg string) Reply {
	enc, _ := rlp.EncodeToBytes(msg)
	return Reply{ID: id, Status: statusError, Result: enc}
}
