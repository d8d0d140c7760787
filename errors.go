// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import "errors"

// Input validation
var (
	ErrZeroAddress = errors.New("zero address")
	ErrZeroAmount  = errors.New("zero amount")

	ErrUnknownPolicy = errors.New("unknown issuance policy")
)

// Proof decoding
var (
	ErrMalformedProof        = errors.New("malformed proof")
	ErrInvalidEventSignature = errors.New("invalid event signature")
)

// Chain routing
var (
	ErrWrongSourceChain = errors.New("wrong source chain")
	ErrWrongTargetChain = errors.New("wrong target chain")
)

// Authorization, replay and registry
var (
	ErrNotOwner          = errors.New("not owner")
	ErrInvalidSignatures = errors.New("invalid signatures")
	ErrCommitmentKnown   = errors.New("commitment known")
	ErrTokenNotListed    = errors.New("token not listed")
	ErrPaused            = errors.New("paused")
)

// Value movement
var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrSendReverted          = errors.New("send reverted")
	ErrTokenRejected         = errors.New("token rejected call")
)

var reasons = []struct {
	err    error
	reason string
}{
	{ErrZeroAddress, "zero_address"},
	{ErrZeroAmount, "zero_amount"},
	{ErrUnknownPolicy, "unknown_policy"},
	{ErrMalformedProof, "malformed_proof"},
	{ErrInvalidEventSignature, "invalid_event_signature"},
	{ErrWrongSourceChain, "wrong_source_chain"},
	{ErrWrongTargetChain, "wrong_target_chain"},
	{ErrNotOwner, "not_owner"},
	{ErrInvalidSignatures, "invalid_signatures"},
	{ErrCommitmentKnown, "commitment_known"},
	{ErrTokenNotListed, "token_not_listed"},
	{ErrPaused, "paused"},
	{ErrInsufficientBalance, "insufficient_balance"},
	{ErrInsufficientAllowance, "insufficient_allowance"},
	{ErrSendReverted, "send_reverted"},
	{ErrTokenRejected, "token_rejected"},
}

// Reason returns a short stable label for err, suitable for metrics.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "internal"
}
