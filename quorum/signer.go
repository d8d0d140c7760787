// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package quorum

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/bridge"
)

var errInvalidKey = errors.New("invalid private key")

// Signer produces cosigner attestations.
type Signer interface {
	Sign(commitment bridge.Commitment, sourceChainID uint64) ([]byte, error)
	Address() common.Address
}

// LocalSigner signs with an in-process secp256k1 key.
type LocalSigner struct {
	sk   *secp256k1.PrivateKey
	addr common.Address
}

func NewLocalSigner(sk *secp256k1.PrivateKey) *LocalSigner {
	return &LocalSigner{
		sk:   sk,
		addr: PubkeyToAddress(sk.PubKey()),
	}
}

// GenerateLocalSigner creates a signer with a fresh random key.
func GenerateLocalSigner() (*LocalSigner, error) {
	sk, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return NewLocalSigner(sk), nil
}

// ParseLocalSigner parses a hex encoded 32-byte private key.
func ParseLocalSigner(s string) (*LocalSigner, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidKey, err)
	}
	if len(b) != secp256k1.PrivKeyBytesLen {
		return nil, fmt.Errorf("%w: %d bytes", errInvalidKey, len(b))
	}
	return NewLocalSigner(secp256k1.PrivKeyFromBytes(b)), nil
}

// Sign returns a 65-byte R || S || V signature with V in {27, 28}.
func (s *LocalSigner) Sign(commitment bridge.Commitment, sourceChainID uint64) ([]byte, error) {
	digest := SigningDigest(commitment, sourceChainID)
	return s.SignDigest(digest), nil
}

// SignDigest signs an arbitrary 32-byte digest.
func (s *LocalSigner) SignDigest(digest common.Hash) []byte {
	compact := ecdsa.SignCompact(s.sk, digest[:], false)
	sig := make([]byte, SignatureLen)
	copy(sig, compact[1:])
	sig[64] = compact[0]
	return sig
}

func (s *LocalSigner) Address() common.Address {
	return s.addr
}

// Hex returns the private key as hex.
func (s *LocalSigner) Hex() string {
	return hex.EncodeToString(s.sk.Serialize())
}
