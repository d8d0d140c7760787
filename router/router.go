// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package router implements the enter and exit state machine of a two-chain
// token bridge.
//
// Enter takes value from the caller and records a canonical Enter event whose
// log encoding is the proof redeemed on the counterpart chain. Exit redeems
// such a proof once, after a cosigner quorum attested to its exact bytes.
//
// Calls are serialized by a single router lock. State changes of a call are
// committed to the store before any value moves, so a call that re-enters
// the router through a token or native recipient hook observes them. A
// re-entrant call must use the context handed to the hook.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/event"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/bridge"
	"github.com/luxfi/bridge/policy"
	"github.com/luxfi/bridge/proof"
	"github.com/luxfi/bridge/quorum"
	"github.com/luxfi/bridge/registry"
	"github.com/luxfi/bridge/state"
)

const (
	opEnter       = "enter"
	opEnterNative = "enter_native"
	opExit        = "exit"
)

var (
	errZeroChainID   = errors.New("chain id is zero")
	errMissingConfig = errors.New("missing router dependency")
)

// Config configures a Router.
type Config struct {
	// ChainID is the local chain. It never changes.
	ChainID uint64
	// Address is the router account. It emits Enter events and holds
	// custody of locked value.
	Address common.Address
	Owner   common.Address

	DB       state.Database
	Registry registry.Registry
	Quorum   quorum.Verifier
	Tokens   policy.Tokens
	Native   policy.Native

	Log        log.Logger
	Registerer prometheus.Registerer
}

func (c *Config) validate() error {
	switch {
	case c.ChainID == 0:
		return errZeroChainID
	case c.Address == (common.Address{}):
		return fmt.Errorf("%w: router address", bridge.ErrZeroAddress)
	case c.Owner == (common.Address{}):
		return fmt.Errorf("%w: owner", bridge.ErrZeroAddress)
	case c.DB == nil:
		return fmt.Errorf("%w: database", errMissingConfig)
	case c.Registry == nil:
		return fmt.Errorf("%w: registry", errMissingConfig)
	case c.Quorum == nil:
		return fmt.Errorf("%w: quorum", errMissingConfig)
	case c.Tokens == nil:
		return fmt.Errorf("%w: tokens", errMissingConfig)
	case c.Native == nil:
		return fmt.Errorf("%w: native", errMissingConfig)
	}
	return nil
}

// Router is the bridge endpoint of one chain.
type Router struct {
	chainID uint64
	address common.Address
	store   *state.Store
	mover   *policy.Mover
	log     log.Logger
	metrics *metrics

	enterFeed event.Feed
	exitFeed  event.Feed

	// lock serializes calls. Nested calls run under the lock of the
	// outermost call.
	lock sync.Mutex

	adminLock sync.RWMutex
	owner     common.Address
	paused    bool
	registry  registry.Registry
	quorum    quorum.Verifier
}

func New(cfg Config) (*Router, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid router config: %w", err)
	}
	if cfg.Log == nil {
		cfg.Log = log.NewNoOpLogger()
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.NewRegistry()
	}
	m, err := newMetrics(cfg.Registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return &Router{
		chainID:  cfg.ChainID,
		address:  cfg.Address,
		store:    state.New(cfg.DB),
		mover:    policy.NewMover(cfg.Tokens, cfg.Native, cfg.Address),
		log:      cfg.Log,
		metrics:  m,
		owner:    cfg.Owner,
		registry: cfg.Registry,
		quorum:   cfg.Quorum,
	}, nil
}

// Enter debits amount of token from caller and returns the Enter event
// redeemable on targetChainID.
func (r *Router) Enter(
	ctx context.Context,
	caller common.Address,
	token common.Address,
	amount *uint256.Int,
	targetChainID uint64,
) (*bridge.EnterEvent, error) {
	var ev *bridge.EnterEvent
	err := r.call(ctx, opEnter, func(ctx context.Context, f *frame) error {
		if token == bridge.NativeToken {
			return fmt.Errorf("%w: token", bridge.ErrZeroAddress)
		}
		var err error
		ev, err = r.enter(ctx, f, caller, token, amount, targetChainID)
		return err
	})
	return ev, err
}

// EnterNative moves value attached by caller into custody and returns the
// Enter event redeemable on targetChainID.
func (r *Router) EnterNative(
	ctx context.Context,
	caller common.Address,
	value *uint256.Int,
	targetChainID uint64,
) (*bridge.EnterEvent, error) {
	var ev *bridge.EnterEvent
	err := r.call(ctx, opEnterNative, func(ctx context.Context, f *frame) error {
		var err error
		ev, err = r.enter(ctx, f, caller, bridge.NativeToken, value, targetChainID)
		return err
	})
	return ev, err
}

func (r *Router) enter(
	ctx context.Context,
	f *frame,
	caller common.Address,
	token common.Address,
	amount *uint256.Int,
	targetChainID uint64,
) (*bridge.EnterEvent, error) {
	if amount == nil || amount.IsZero() {
		return nil, bridge.ErrZeroAmount
	}
	if targetChainID == r.chainID {
		return nil, fmt.Errorf("%w: %d is the local chain", bridge.ErrWrongTargetChain, targetChainID)
	}
	desc, err := r.resolve(token, targetChainID)
	if err != nil {
		return nil, err
	}

	txn := r.store.Begin()
	nonce, err := txn.IncrementNonce(caller)
	if err != nil {
		return nil, err
	}
	ev := &bridge.EnterEvent{
		Emitter:       r.address,
		Token:         token,
		Claimant:      caller,
		Amount:        amount.Clone(),
		Nonce:         nonce,
		SourceChainID: r.chainID,
		TargetChainID: targetChainID,
	}
	raw, err := proof.Encode(ev)
	if err != nil {
		return nil, err
	}
	if err := txn.PutEnterProof(caller, nonce, raw); err != nil {
		return nil, err
	}
	if err := f.commit(txn); err != nil {
		return nil, err
	}

	if err := r.mover.Debit(ctx, desc, caller, amount); err != nil {
		return nil, err
	}

	f.enters = append(f.enters, ev)
	r.metrics.entered(targetChainID, desc.Policy)
	r.log.Info("entered",
		log.Stringer("caller", caller),
		log.Stringer("token", token),
		log.Stringer("amount", amount),
		log.Uint64("nonce", nonce),
		log.Uint64("targetChainID", targetChainID),
	)
	return ev, nil
}

// Exit redeems raw, an Enter log from the counterpart chain, for caller.
func (r *Router) Exit(ctx context.Context, caller common.Address, raw []byte, sigs [][]byte) (*bridge.ExitEvent, error) {
	var ev *bridge.ExitEvent
	err := r.call(ctx, opExit, func(ctx context.Context, f *frame) error {
		var err error
		ev, err = r.exit(ctx, f, caller, raw, sigs)
		return err
	})
	return ev, err
}

func (r *Router) exit(
	ctx context.Context,
	f *frame,
	caller common.Address,
	raw []byte,
	sigs [][]byte,
) (*bridge.ExitEvent, error) {
	enter, err := proof.Decode(raw)
	if err != nil {
		return nil, err
	}
	if enter.Claimant != caller {
		return nil, fmt.Errorf("%w: proof claimant %s, caller %s", bridge.ErrNotOwner, enter.Claimant, caller)
	}
	if enter.Amount.IsZero() {
		return nil, bridge.ErrZeroAmount
	}
	if enter.SourceChainID == r.chainID {
		return nil, fmt.Errorf("%w: %d is the local chain", bridge.ErrWrongSourceChain, enter.SourceChainID)
	}
	if enter.TargetChainID != r.chainID {
		return nil, fmt.Errorf("%w: proof targets %d, local chain is %d", bridge.ErrWrongTargetChain, enter.TargetChainID, r.chainID)
	}

	commitment := proof.Fingerprint(raw)
	consumed, err := r.store.Consumed(commitment)
	if err != nil {
		return nil, err
	}
	if consumed {
		return nil, fmt.Errorf("%w: %s", bridge.ErrCommitmentKnown, commitment)
	}

	if !r.Quorum().Verify(commitment, enter.SourceChainID, sigs) {
		return nil, bridge.ErrInvalidSignatures
	}

	desc, err := r.resolve(enter.Token, r.chainID)
	if err != nil {
		return nil, err
	}
	ev := &bridge.ExitEvent{
		Token:         desc.Address,
		Claimant:      enter.Claimant,
		Amount:        enter.Amount,
		Commitment:    commitment,
		LocalChainID:  r.chainID,
		SourceChainID: enter.SourceChainID,
	}
	// Consumed before the credit below, which may run recipient code.
	txn := r.store.Begin()
	if err := txn.Consume(ev); err != nil {
		return nil, err
	}
	if err := f.commit(txn); err != nil {
		return nil, err
	}

	if err := r.mover.Credit(ctx, desc, enter.Claimant, enter.Amount); err != nil {
		return nil, err
	}

	f.exits = append(f.exits, ev)
	r.metrics.exited(enter.SourceChainID, desc.Policy)
	r.log.Info("exited",
		log.Stringer("commitment", ids.ID(commitment)),
		log.Stringer("claimant", enter.Claimant),
		log.Stringer("token", desc.Address),
		log.Stringer("amount", enter.Amount),
		log.Uint64("sourceChainID", enter.SourceChainID),
	)
	return ev, nil
}

func (r *Router) resolve(token common.Address, counterpartChainID uint64) (bridge.TokenDescriptor, error) {
	desc, ok := r.Registry().ResolveLocal(token, counterpartChainID)
	if !ok || !desc.Listed {
		return bridge.TokenDescriptor{}, fmt.Errorf("%w: %s for chain %d", bridge.ErrTokenNotListed, token, counterpartChainID)
	}
	return desc, nil
}

// SubscribeEnter delivers the Enter events of successful calls.
func (r *Router) SubscribeEnter(ch chan<- *bridge.EnterEvent) event.Subscription {
	return r.enterFeed.Subscribe(ch)
}

// SubscribeExit delivers the Exit events of successful calls.
func (r *Router) SubscribeExit(ch chan<- *bridge.ExitEvent) event.Subscription {
	return r.exitFeed.Subscribe(ch)
}

func (r *Router) ChainID() uint64 {
	return r.chainID
}

func (r *Router) Address() common.Address {
	return r.address
}

// Nonce returns the nonce the next enter of addr will use.
func (r *Router) Nonce(addr common.Address) (uint64, error) {
	return r.store.Nonce(addr)
}

// Consumed reports whether the proof with commitment c was redeemed.
func (r *Router) Consumed(c bridge.Commitment) (bool, error) {
	return r.store.Consumed(c)
}

// ExitRecord returns the exit that consumed c.
func (r *Router) ExitRecord(c bridge.Commitment) (*bridge.ExitEvent, bool, error) {
	return r.store.Exit(c)
}

// EnterProof returns the proof bytes of the enter of addr with nonce.
func (r *Router) EnterProof(addr common.Address, nonce uint64) ([]byte, bool, error) {
	return r.store.EnterProof(addr, nonce)
}
