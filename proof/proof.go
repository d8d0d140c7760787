// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package proof implements the wire format of the Enter record: the RLP
// encoding of the EVM log emitted by a router on the source chain.
//
// A proof is [emitter, [topic0, token, claimant], data] where topic0 is
// bridge.EnterEventSignature, token and claimant are left-padded addresses
// and data holds four 32-byte words: amount, nonce, source chain id and
// target chain id.
package proof

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/geth/rlp"

	"github.com/luxfi/bridge"
)

const (
	// MaxProofSize bounds the input accepted by Decode. A well-formed proof
	// is 254 bytes.
	MaxProofSize = 4 * 1024

	wordLen    = 32
	topicCount = 3
	dataLen    = 4 * wordLen
)

var errNilAmount = errors.New("enter event has nil amount")

// Fingerprint returns the commitment of raw proof bytes. The input is not
// parsed.
func Fingerprint(raw []byte) bridge.Commitment {
	return bridge.Keccak256(raw)
}

// Decode parses raw proof bytes into an EnterEvent. Structural violations
// return bridge.ErrMalformedProof, a foreign event returns
// bridge.ErrInvalidEventSignature.
func Decode(raw []byte) (*bridge.EnterEvent, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", bridge.ErrMalformedProof)
	}
	if len(raw) > MaxProofSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds maximum %d", bridge.ErrMalformedProof, len(raw), MaxProofSize)
	}

	k, payload, rest, err := split(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", bridge.ErrMalformedProof, err)
	}
	if k != kindList {
		return nil, fmt.Errorf("%w: log is not a list", bridge.ErrMalformedProof)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", bridge.ErrMalformedProof, len(rest))
	}

	fields, err := items(payload, 3)
	if err != nil {
		return nil, fmt.Errorf("%w: log: %w", bridge.ErrMalformedProof, err)
	}
	emitter, err := fields[0].bytes(common.AddressLength, "emitter")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", bridge.ErrMalformedProof, err)
	}
	if fields[1].kind != kindList {
		return nil, fmt.Errorf("%w: topics is not a list", bridge.ErrMalformedProof)
	}
	topicItems, err := items(fields[1].content, topicCount)
	if err != nil {
		return nil, fmt.Errorf("%w: topics: %w", bridge.ErrMalformedProof, err)
	}
	var topics [topicCount]common.Hash
	for i, t := range topicItems {
		b, err := t.bytes(wordLen, fmt.Sprintf("topic %d", i))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", bridge.ErrMalformedProof, err)
		}
		topics[i] = common.BytesToHash(b)
	}
	data, err := fields[2].bytes(dataLen, "data")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", bridge.ErrMalformedProof, err)
	}

	if topics[0] != bridge.EnterEventSignature {
		return nil, fmt.Errorf("%w: topic0 %s", bridge.ErrInvalidEventSignature, topics[0].Hex())
	}

	token, err := topicAddress(topics[1])
	if err != nil {
		return nil, fmt.Errorf("%w: token: %w", bridge.ErrMalformedProof, err)
	}
	claimant, err := topicAddress(topics[2])
	if err != nil {
		return nil, fmt.Errorf("%w: claimant: %w", bridge.ErrMalformedProof, err)
	}

	words := make([][]byte, 4)
	for i := range words {
		words[i] = data[i*wordLen : (i+1)*wordLen]
	}
	nonce, err := wordUint64(words[1])
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %w", bridge.ErrMalformedProof, err)
	}
	source, err := wordUint64(words[2])
	if err != nil {
		return nil, fmt.Errorf("%w: source chain id: %w", bridge.ErrMalformedProof, err)
	}
	target, err := wordUint64(words[3])
	if err != nil {
		return nil, fmt.Errorf("%w: target chain id: %w", bridge.ErrMalformedProof, err)
	}

	return &bridge.EnterEvent{
		Emitter:       common.BytesToAddress(emitter),
		Token:         token,
		Claimant:      claimant,
		Amount:        new(uint256.Int).SetBytes32(words[0]),
		Nonce:         nonce,
		SourceChainID: source,
		TargetChainID: target,
	}, nil
}

// Log returns the EVM log form of an Enter record.
func Log(ev *bridge.EnterEvent) *types.Log {
	data := make([]byte, dataLen)
	if ev.Amount != nil {
		amount := ev.Amount.Bytes32()
		copy(data[:wordLen], amount[:])
	}
	binary.BigEndian.PutUint64(data[2*wordLen-8:2*wordLen], ev.Nonce)
	binary.BigEndian.PutUint64(data[3*wordLen-8:3*wordLen], ev.SourceChainID)
	binary.BigEndian.PutUint64(data[4*wordLen-8:4*wordLen], ev.TargetChainID)

	return &types.Log{
		Address: ev.Emitter,
		Topics: []common.Hash{
			bridge.EnterEventSignature,
			common.BytesToHash(ev.Token.Bytes()),
			common.BytesToHash(ev.Claimant.Bytes()),
		},
		Data: data,
	}
}

// Encode returns the proof bytes of an Enter record.
func Encode(ev *bridge.EnterEvent) ([]byte, error) {
	if ev.Amount == nil {
		return nil, errNilAmount
	}
	return rlp.EncodeToBytes(Log(ev))
}

func topicAddress(topic common.Hash) (common.Address, error) {
	for _, b := range topic[:wordLen-common.AddressLength] {
		if b != 0 {
			return common.Address{}, errors.New("non-zero address padding")
		}
	}
	return common.BytesToAddress(topic[wordLen-common.AddressLength:]), nil
}

func wordUint64(word []byte) (uint64, error) {
	for _, b := range word[:wordLen-8] {
		if b != 0 {
			return 0, errors.New("value exceeds 64 bits")
		}
	}
	return binary.BigEndian.Uint64(word[wordLen-8:]), nil
}
