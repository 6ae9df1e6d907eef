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
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Address and Hash are the 20-byte and 32-byte identifiers used throughout
// the node. They are aliases of go-ethereum's types rather than fresh
// definitions: every wire format in this repository (accounts, headers,
// trie keys) is keccak/RLP compatible with the rest of the Ethereum
// ecosystem, so there is no reason to re-invent fixed-size byte arrays.
type (
	Address = common.Address
	Hash    = common.Hash
)

// U256 is a 256-bit unsigned integer with checked arithmetic, used for
// balances, nonces, gas prices and storage slot values.
type U256 = uint256.Int

// EmptyCodeHash is the Keccak-256 hash of the empty byte string — the
// code_hash of an externally-owned account.
var EmptyCodeHash = crypto.Keccak256Hash(nil)

// EmptyRootHash is the root hash of an empty Merkle-Patricia trie: the
// Keccak-256 hash of the RLP encoding of an empty string.
var EmptyRootHash = crypto.Keccak256Hash([]byte{0x80})

// Keccak256 hashes b with Keccak-256.
func Keccak256(b ...[]byte) Hash {
	return crypto.Keccak256Hash(b...)
}

// BytesToHash left-pads (or truncates) b to a 32-byte Hash.
func BytesToHash(b []byte) Hash {
	return common.BytesToHash(b)
}

// BytesToAddress left-pads (or truncates) b to a 20-byte Address.
func BytesToAddress(b []byte) Address {
	return common.BytesToAddress(b)
}
