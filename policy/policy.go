// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package policy moves value for a resolved token descriptor: lock and
// release for custodial tokens, burn and mint for synthetic tokens, and
// direct transfer for the native currency.
package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/bridge"
)

// Token is a fungible token handle acting on behalf of the router account.
// Failures should wrap bridge.ErrInsufficientBalance,
// bridge.ErrInsufficientAllowance or bridge.ErrTokenRejected.
type Token interface {
	Mint(ctx context.Context, to common.Address, amount *uint256.Int) error
	Burn(ctx context.Context, from common.Address, amount *uint256.Int) error
	Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error
	TransferFrom(ctx context.Context, from, to common.Address, amount *uint256.Int) error
}

// Tokens resolves token addresses to handles.
type Tokens interface {
	Token(addr common.Address) (Token, error)
}

// Native is the router's native currency account.
type Native interface {
	// Receive moves the value attached to a call from the caller into
	// router custody.
	Receive(ctx context.Context, from common.Address, amount *uint256.Int) error
	// Balance returns the value held in router custody.
	Balance(ctx context.Context) *uint256.Int
	// Send moves value out of router custody. The recipient may run code
	// and reject the transfer.
	Send(ctx context.Context, to common.Address, amount *uint256.Int) error
}

// Mover dispatches debits and credits on the issuance policy.
type Mover struct {
	tokens  Tokens
	native  Native
	custody common.Address
}

// NewMover returns a mover that holds custodial tokens at custody.
func NewMover(tokens Tokens, native Native, custody common.Address) *Mover {
	return &Mover{
		tokens:  tokens,
		native:  native,
		custody: custody,
	}
}

// Custody returns the router custody account.
func (m *Mover) Custody() common.Address {
	return m.custody
}

// Debit takes amount from the caller for an enter.
func (m *Mover) Debit(ctx context.Context, desc bridge.TokenDescriptor, from common.Address, amount *uint256.Int) error {
	if desc.IsNative() {
		return m.native.Receive(ctx, from, amount)
	}

	token, err := m.tokens.Token(desc.Address)
	if err != nil {
		return fmt.Errorf("%w: %w", bridge.ErrTokenRejected, err)
	}

	switch desc.Policy {
	case bridge.Synthetic:
		return token.Burn(ctx, from, amount)
	case bridge.Custodial:
		return token.TransferFrom(ctx, from, m.custody, amount)
	default:
		panic(fmt.Sprintf("policy: descriptor for %s has issuance policy %s", desc.Address, desc.Policy))
	}
}

// Credit pays amount to the claimant for an exit.
func (m *Mover) Credit(ctx context.Context, desc bridge.TokenDescriptor, to common.Address, amount *uint256.Int) error {
	if desc.IsNative() {
		if bal := m.native.Balance(ctx); bal.Lt(amount) {
			return fmt.Errorf("%w: custody holds %s, need %s", bridge.ErrInsufficientBalance, bal, amount)
		}
		if err := m.native.Send(ctx, to, amount); err != nil {
			if errors.Is(err, bridge.ErrSendReverted) {
				return err
			}
			return fmt.Errorf("%w: %w", bridge.ErrSendReverted, err)
		}
		return nil
	}

	token, err := m.tokens.Token(desc.Address)
	if err != nil {
		return fmt.Errorf("%w: %w", bridge.ErrTokenRejected, err)
	}

	switch desc.Policy {
	case bridge.Synthetic:
		return token.Mint(ctx, to, amount)
	case bridge.Custodial:
		return token.Transfer(ctx, to, amount)
	default:
		panic(fmt.Sprintf("policy: descriptor for %s has issuance policy %s", desc.Address, desc.Policy))
	}
}
