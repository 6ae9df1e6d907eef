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
	"testing"

	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/chainstore"
	"github.com/dao-galaxy/bloomevm/evm"
	"github.com/dao-galaxy/bloomevm/kv"
	"github.com/dao-galaxy/bloomevm/state"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func noopRecover(tx *bloomtypes.UnverifiedTransaction) (bloomtypes.Address, error) {
	return bloomtypes.Address{}, nil
}

func newTestDispatcher(t *testing.T, balances map[bloomtypes.Address]uint64) *Dispatcher {
	t.Helper()
	store := kv.NewMemory()
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

	genesis := bloomtypes.GenesisHeader(root)
	cs, err := chainstore.Open(store, genesis)
	require.NoError(t, err)
	return New(store, cs, noopRecover)
}

func TestAccountInfoReadsBestState(t *testing.T) {
	addr := bloomtypes.BytesToAddress([]byte{0xAA})
	d := newTestDispatcher(t, map[bloomtypes.Address]uint64{addr: 500})

	params, err := rlp.EncodeToBytes(&AccountInfoParams{Address: addr})
	require.NoError(t, err)

	reply := d.Handle(Request{Method: "AccountInfo", ID: 1, Params: params})
	require.Equal(t, uint32(statusOK), reply.Status)

	var result AccountInfoResult
	require.NoError(t, rlp.DecodeBytes(reply.Result, &result))
	require.Equal(t, uint64(500), result.Balance.Uint64())
	require.Equal(t, uint64(0), result.Nonce.Uint64())
}

func TestHandleUnknownMethodReturnsError(t *testing.T) {
	d := newTestDispatcher(t, nil)
	reply := d.Handle(Request{Method: "Bogus", ID: 7})
	require.Equal(t, uint32(statusError), reply.Status)
	require.Equal(t, uint64(7), reply.ID)
}

func TestHandleDecodeFailureReturnsError(t *testing.T) {
	d := newTestDispatcher(t, nil)
	reply := d.Handle(Request{Method: "AccountInfo", ID: 3, Params: []byte{0xff, 0xff}})
	require.Equal(t, uint32(statusError), reply.Status)
	require.Equal(t, uint64(3), reply.ID)
}

// TestLatestBlocksClampsAndOrdersDescending is spec scenario S6.
func TestLatestBlocksClampsAndOrdersDescending(t *testing.T) {
	store := kv.NewMemory()
	st := state.Fresh(zeroVicinity(), store)
	root, err := st.Commit()
	require.NoError(t, err)
	genesis := bloomtypes.GenesisHeader(root)
	cs, err := chainstore.Open(store, genesis)
	require.NoError(t, err)

	h1 := &bloomtypes.Header{ParentHash: genesis.Hash(), Number: 1}
	require.NoError(t, cs.InsertBlock(&bloomtypes.Block{Header: h1}))
	cs.SetBestBlock(h1)
	h2 := &bloomtypes.Header{ParentHash: h1.Hash(), Number: 2}
	require.NoError(t, cs.InsertBlock(&bloomtypes.Block{Header: h2}))
	cs.SetBestBlock(h2)

	d := New(store, cs, noopRecover)

	// Request more than exist: must clamp to what's actually present
	// (genesis, h1, h2), not error or pad.
	params, err := rlp.EncodeToBytes(&LatestBlocksParams{N: 10})
	require.NoError(t, err)
	reply := d.Handle(Request{Method: "LatestBlocks", ID: 1, Params: params})
	require.Equal(t, uint32(statusOK), reply.Status)

	var result LatestBlocksResult
	require.NoError(t, rlp.DecodeBytes(reply.Result, &result))
	require.Len(t, result.Headers, 3)
	require.Equal(t, uint64(2), result.Headers[0].Number)
	require.Equal(t, uint64(1), result.Headers[1].Number)
	require.Equal(t, uint64(0), result.Headers[2].Number)

	// N <= 0 must clamp to 1.
	params, err = rlp.EncodeToBytes(&LatestBlocksParams{N: 0})
	require.NoError(t, err)
	reply = d.Handle(Request{Method: "LatestBlocks", ID: 2, Params: params})
	require.NoError(t, rlp.DecodeBytes(reply.Result, &result))
	require.Len(t, result.Headers, 1)
	require.Equal(t, uint64(2), result.Headers[0].Number)
}

func TestCreateHeaderThenApplyBlockRoundTrip(t *testing.T) {
	a := bloomtypes.BytesToAddress([]byte{0xAA})
	b := bloomtypes.BytesToAddress([]byte{0xBB})
	d := newTestDispatcher(t, map[bloomtypes.Address]uint64{a: 1_000_000, b: 0})
	d.recoverSender = func(*bloomtypes.UnverifiedTransaction) (bloomtypes.Address, error) { return a, nil }

	tx := bloomtypes.UnverifiedTransaction{
		Nonce:    0,
		GasPrice: uint256.NewInt(0),
		Gas:      21000,
		To:       &b,
		Value:    uint256.NewInt(1000),
	}

	chParams, err := rlp.EncodeToBytes(&CreateHeaderParams{
		ParentHash:   d.chain.BestBlockHash(),
		GasLimit:     1_000_000,
		Transactions: []bloomtypes.UnverifiedTransaction{tx},
	})
	require.NoError(t, err)
	reply := d.Handle(Request{Method: "CreateHeader", ID: 1, Params: chParams})
	require.Equal(t, uint32(statusOK), reply.Status)

	var chResult CreateHeaderResult
	require.NoError(t, rlp.DecodeBytes(reply.Result, &chResult))
	require.NotEqual(t, bloomtypes.Hash{}, chResult.Header.StateRoot)

	abParams, err := rlp.EncodeToBytes(&ApplyBlockParams{
		Header:       chResult.Header,
		Transactions: []bloomtypes.UnverifiedTransaction{tx},
	})
	require.NoError(t, err)
	reply = d.Handle(Request{Method: "ApplyBlock", ID: 2, Params: abParams})
	require.Equal(t, uint32(statusOK), reply.Status)

	var abResult ApplyBlockResult
	require.NoError(t, rlp.DecodeBytes(reply.Result, &abResult))
	require.True(t, abResult.Ok)
	require.Equal(t, chResult.Header.Hash(), d.chain.BestBlockHash())
}
