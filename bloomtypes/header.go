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

// Header is a block header. Field order matters: it is also the RLP
// encoding order (see spec §6), so do not reorder these without updating
// the on-disk format.
type Header struct {
	ParentHash       Hash
	Author           Address
	StateRoot        Hash
	TransactionsRoot Hash
	Difficulty       uint64
	Number           uint64
	GasLimit         uint64
	GasUsed          uint64
	Timestamp        uint64
	ExtraData        []byte
}

// Hash returns the Keccak-256 hash of the header's canonical RLP encoding.
func (h *Header) Hash() Hash {
	enc, err := rlp.EncodeToBytes(h)
	if err != nil {
		// Header only contains fixed-size fields and a byte slice; encoding
		// cannot fail.
		panic(err)
	}
	return Keccak256(enc)
}

// GenesisHeader returns the canonical genesis header: all-zero fields
// except for the transactions root, which is the empty-trie hash, and an
// explicit state root, which callers fill in once the genesis accounts
// have been committed to a fresh state.
func GenesisHeader(stateRoot Hash) *Header {
	return &Header{
		StateRoot:        stateRoot,
		TransactionsRoot: EmptyRootHash,
	}
}
