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

// Package genesis seeds the initial account set from the config file's
// `accounts` list (spec §6's genesis bootstrap), grounded on
// chain-state/src/genesis.rs in the original prototype.
package genesis

import (
	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/evm"
	"github.com/dao-galaxy/bloomevm/kv"
	"github.com/dao-galaxy/bloomevm/state"
	"github.com/holiman/uint256"
)

// Account is one genesis allocation entry (spec §6's `accounts:
// [{address, value}]` config field).
type Account struct {
	Address bloomtypes.Address
	Value   *bloomtypes.U256
}

// Build inserts each account with the given balance and nonce 0, commits,
// and returns the resulting genesis header: one whose state_root encodes
// the seeded accounts, whose transactions_root is the empty-trie hash, and
// whose every other field is zero (spec §6: "if
// data-dir does not exist at startup, iterate accounts... insert an
// account... commit yields the genesis state root").
func Build(store kv.Store, accounts []Account) (*bloomtypes.Header, error) {
	st := state.Fresh(zeroVicinity(), store)

	var writes []evm.Apply
	for _, a := range accounts {
		writes = append(writes, evm.Apply{Modify: &evm.ApplyModify{
			Address: a.Address,
			Basic:   evm.Basic{Balance: a.Value, Nonce: uint256.NewInt(0)},
		}})
	}
	if err := st.Apply(writes, nil, true); err != nil {
		return nil, err
	}
	root, err := st.Commit()
	if err != nil {
		return nil, err
	}
	return bloomtypes.GenesisHeader(root), nil
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
