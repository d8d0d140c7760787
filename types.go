// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package bridge defines the records exchanged between the two sides of a
// lock/mint token bridge: the Enter record emitted on the source chain, the
// Exit record emitted when a proof of that Enter is redeemed, and the token
// descriptors that decide how value moves on each side.
package bridge

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Fee is the bridge fee in basis points. It is not charged by enter or exit.
const Fee = 0

// NativeToken is the sentinel token address for the chain's native currency.
var NativeToken = common.Address{}

// Commitment is the keccak256 fingerprint of raw proof bytes. It is the only
// key used for replay protection.
type Commitment = common.Hash

// Policy decides how value leaves and arrives for a listed token.
type Policy uint8

const (
	PolicyUnknown Policy = iota
	// Custodial tokens are locked in router custody on the origin side and
	// released from custody on the destination side.
	Custodial
	// Synthetic tokens are burned on the origin side and minted on the
	// destination side.
	Synthetic
)

func (p Policy) String() string {
	switch p {
	case Custodial:
		return "custodial"
	case Synthetic:
		return "synthetic"
	default:
		return "unknown"
	}
}

// ParsePolicy parses the names returned by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "custodial", "default":
		return Custodial, nil
	case "synthetic", "mintable":
		return Synthetic, nil
	default:
		return PolicyUnknown, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// TokenDescriptor is the registry's view of a token for one counterpart chain.
type TokenDescriptor struct {
	Address common.Address
	Policy  Policy
	Listed  bool
}

// IsNative reports whether the descriptor refers to the native currency.
func (d TokenDescriptor) IsNative() bool {
	return d.Address == NativeToken
}

// EnterEvent is the canonical cross-chain record produced by a successful
// enter. Its log encoding is the proof format redeemed on the counterpart.
type EnterEvent struct {
	Emitter       common.Address
	Token         common.Address
	Claimant      common.Address
	Amount        *uint256.Int
	Nonce         uint64
	SourceChainID uint64
	TargetChainID uint64
}

// ExitEvent is emitted when a proof is redeemed on the local chain.
type ExitEvent struct {
	Token         common.Address
	Claimant      common.Address
	Amount        *uint256.Int
	Commitment    Commitment
	LocalChainID  uint64
	SourceChainID uint64
}
