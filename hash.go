// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"github.com/luxfi/geth/common"
	"golang.org/x/crypto/sha3"
)

// EnterEventSignature is topic0 of every Enter log.
var EnterEventSignature = Keccak256([]byte("Enter(address,address,uint256,uint256,uint256,uint256)"))

// Keccak256 returns the legacy keccak256 digest of the concatenated inputs.
func Keccak256(data ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}
