// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package quorum attests that enough cosigners signed a proof commitment for
// a given source chain.
//
// Each cosigner signs keccak256(commitment || uint256(sourceChainID)) with a
// secp256k1 key and produces a 65-byte R || S || V signature. A signature set
// is accepted when the distinct known signers hold at least the quorum
// fraction of the source chain's cosigner weight.
package quorum

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/math/set"

	"github.com/luxfi/bridge"
)

const (
	SignatureLen = 65

	DefaultQuorumNum = 67
	DefaultQuorumDen = 100
)

var (
	ErrInsufficientWeight = errors.New("insufficient weight")

	errInvalidQuorum  = errors.New("invalid quorum fraction")
	errUnknownChain   = errors.New("no cosigners for source chain")
	errNoSignatures   = errors.New("no signatures")
	errSignatureLen   = errors.New("invalid signature length")
	errRecoveryID     = errors.New("invalid recovery id")
	errMalleable      = errors.New("signature s value is not canonical")
	errRecoverFailure = errors.New("failed to recover signer")
)

var _ Verifier = (*Quorum)(nil)

// Verifier is the attestation capability consumed by the router.
type Verifier interface {
	Verify(commitment bridge.Commitment, sourceChainID uint64, sigs [][]byte) bool
}

// SigningDigest returns the digest cosigners sign for commitment on
// sourceChainID.
func SigningDigest(commitment bridge.Commitment, sourceChainID uint64) common.Hash {
	var chain [32]byte
	binary.BigEndian.PutUint64(chain[24:], sourceChainID)
	return bridge.Keccak256(commitment[:], chain[:])
}

// Quorum verifies signature sets against per-source-chain cosigner sets.
type Quorum struct {
	num, den uint64

	lock sync.RWMutex
	sets map[uint64]*CosignerSet
}

// New returns a quorum requiring num/den of the cosigner weight.
func New(num, den uint64) (*Quorum, error) {
	if den == 0 || num == 0 || num > den {
		return nil, fmt.Errorf("%w: %d/%d", errInvalidQuorum, num, den)
	}
	return &Quorum{
		num:  num,
		den:  den,
		sets: make(map[uint64]*CosignerSet),
	}, nil
}

// SetCosigners replaces the cosigner set for sourceChainID.
func (q *Quorum) SetCosigners(sourceChainID uint64, cs *CosignerSet) {
	q.lock.Lock()
	defer q.lock.Unlock()

	q.sets[sourceChainID] = cs
}

// Cosigners returns the cosigner set for sourceChainID.
func (q *Quorum) Cosigners(sourceChainID uint64) (*CosignerSet, bool) {
	q.lock.RLock()
	defer q.lock.RUnlock()

	cs, ok := q.sets[sourceChainID]
	return cs, ok
}

// Fraction returns the quorum numerator and denominator.
func (q *Quorum) Fraction() (uint64, uint64) {
	return q.num, q.den
}

// Verify implements Verifier.
func (q *Quorum) Verify(commitment bridge.Commitment, sourceChainID uint64, sigs [][]byte) bool {
	return q.Check(commitment, sourceChainID, sigs) == nil
}

// Check is Verify with the reason for rejection. Every signature must be
// well formed. Signatures from accounts outside the cosigner set add no
// weight and a signer is counted once.
func (q *Quorum) Check(commitment bridge.Commitment, sourceChainID uint64, sigs [][]byte) error {
	cs, ok := q.Cosigners(sourceChainID)
	if !ok {
		return fmt.Errorf("%w: %d", errUnknownChain, sourceChainID)
	}
	if len(sigs) == 0 {
		return errNoSignatures
	}

	digest := SigningDigest(commitment, sourceChainID)
	signers := set.NewSet[common.Address](len(sigs))
	var signedWeight uint64
	for i, sig := range sigs {
		addr, err := Recover(digest, sig)
		if err != nil {
			return fmt.Errorf("signature %d: %w", i, err)
		}
		if signers.Contains(addr) {
			continue
		}
		signers.Add(addr)

		w := cs.Weight(addr)
		if w == 0 {
			continue
		}
		// Cannot overflow, the set total was checked at construction.
		signedWeight += w
	}

	return VerifyWeight(signedWeight, cs.TotalWeight(), q.num, q.den)
}

// Recover returns the account that produced sig over digest.
func Recover(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLen {
		return common.Address{}, fmt.Errorf("%w: %d", errSignatureLen, len(sig))
	}

	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return common.Address{}, fmt.Errorf("%w: %d", errRecoveryID, sig[64])
	}

	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(sig[32:64]); overflow || s.IsOverHalfOrder() {
		return common.Address{}, errMalleable
	}

	compact := make([]byte, SignatureLen)
	compact[0] = 27 + v
	copy(compact[1:], sig[:64])
	pub, _, err := ecdsa.RecoverCompact(compact, digest[:])
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", errRecoverFailure, err)
	}
	return PubkeyToAddress(pub), nil
}

// PubkeyToAddress returns the account address of pub.
func PubkeyToAddress(pub *secp256k1.PublicKey) common.Address {
	uncompressed := pub.SerializeUncompressed()
	return common.BytesToAddress(bridge.Keccak256(uncompressed[1:]).Bytes()[12:])
}
