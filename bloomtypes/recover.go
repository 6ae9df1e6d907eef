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
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// RecoverSenderECDSA is the default RecoverSender: plain (non-EIP-155)
// secp256k1 recovery from V/R/S, matching the legacy signing scheme the
// original prototype's transactions use. It is a concrete instance of
// the external collaborator spec §1 leaves abstract, not itself part of
// the module under spec — most callers wire this in directly, but the
// dispatcher only ever depends on the RecoverSender function type.
func RecoverSenderECDSA(tx *UnverifiedTransaction) (Address, error) {
	if tx.V != 27 && tx.V != 28 {
		return Address{}, fmt.Errorf("bloomtypes: unsupported signature V %d", tx.V)
	}
	r := tx.R.Bytes32()
	s := tx.S.Bytes32()
	sig := make([]byte, 65)
	copy(sig[0:32], r[:])
	copy(sig[32:64], s[:])
	sig[64] = byte(tx.V - 27)

	signingHash := signingHash(tx)
	pub, err := crypto.SigToPub(signingHash[:], sig)
	if err != nil {
		return Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// signingHash hashes the transaction with V/R/S zeroed, the portion that
// was actually signed.
func signingHash(tx *UnverifiedTransaction) Hash {
	unsigned := *tx
	unsigned.V, unsigned.R, unsigned.S = 0, new(U256), new(U256)
	return unsigned.Hash()
}
