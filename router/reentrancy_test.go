// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/bridge"
	"github.com/luxfi/bridge/proof"
)

var errRejected = errors.New("rejected by recipient")

type countingVerifier struct {
	accept        bool
	calls         int
	commitment    bridge.Commitment
	sourceChainID uint64
}

func (v *countingVerifier) Verify(c bridge.Commitment, sourceChainID uint64, _ [][]byte) bool {
	v.calls++
	v.commitment = c
	v.sourceChainID = sourceChainID
	return v.accept
}

func TestExitReentrancy(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	tb := newTestBridge(t)

	ev, err := tb.a.router.EnterNative(ctx, alice, u(50), chainB)
	require.NoError(err)
	raw := enterProof(t, tb.a, ev)
	sigs := attest(t, raw, chainA, tb.signers...)
	tb.b.vault.Deposit(tb.b.router.Address(), u(100))

	var (
		nestedErr      error
		consumedInHook bool
	)
	tb.b.vault.SetHook(alice, func(ctx context.Context, _ common.Address, _ *uint256.Int) error {
		var err error
		consumedInHook, err = tb.b.router.Consumed(proof.Fingerprint(raw))
		if err != nil {
			return err
		}
		_, nestedErr = tb.b.router.Exit(ctx, alice, raw, sigs)
		return nil
	})

	_, err = tb.b.router.Exit(ctx, alice, raw, sigs)
	require.NoError(err)
	require.True(consumedInHook)
	require.ErrorIs(nestedErr, bridge.ErrCommitmentKnown)

	// Paid exactly once.
	require.Equal(u(1050), tb.b.vault.BalanceOf(alice))
	require.Equal(u(50), tb.b.vault.Balance(ctx))
}

func TestEnterReentrancy(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := newTestBridge(t).a

	enters := make(chan *bridge.EnterEvent, 4)
	sub := a.router.SubscribeEnter(enters)
	defer sub.Unsubscribe()

	var (
		nonceInHook uint64
		nested      *bridge.EnterEvent
	)
	a.locked.SetHook(a.router.Address(), func(ctx context.Context, _ common.Address, _ *uint256.Int) error {
		var err error
		nonceInHook, err = a.router.Nonce(alice)
		if err != nil {
			return err
		}
		a.locked.SetHook(a.router.Address(), nil)
		nested, err = a.router.Enter(ctx, alice, tokenS, u(5), chainB)
		return err
	})
	a.locked.Approve(alice, a.router.Address(), u(10))

	ev, err := a.router.Enter(ctx, alice, tokenL, u(10), chainB)
	require.NoError(err)
	require.Zero(ev.Nonce)
	require.Equal(uint64(1), nonceInHook)
	require.NotNil(nested)
	require.Equal(uint64(1), nested.Nonce)

	n, err := a.router.Nonce(alice)
	require.NoError(err)
	require.Equal(uint64(2), n)

	// The nested enter completed first.
	require.Equal(nested, <-enters)
	require.Equal(ev, <-enters)
}

func TestNestedCallOutlivesOuterFailure(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	tb := newTestBridge(t)

	ev, err := tb.a.router.EnterNative(ctx, alice, u(50), chainB)
	require.NoError(err)
	raw := enterProof(t, tb.a, ev)
	sigs := attest(t, raw, chainA, tb.signers...)
	tb.b.vault.Deposit(tb.b.router.Address(), u(50))

	enters := make(chan *bridge.EnterEvent, 1)
	sub := tb.b.router.SubscribeEnter(enters)
	defer sub.Unsubscribe()
	exits := make(chan *bridge.ExitEvent, 1)
	exitSub := tb.b.router.SubscribeExit(exits)
	defer exitSub.Unsubscribe()

	var nested *bridge.EnterEvent
	tb.b.vault.SetHook(alice, func(ctx context.Context, _ common.Address, _ *uint256.Int) error {
		var err error
		nested, err = tb.b.router.EnterNative(ctx, alice, u(1), chainA)
		if err != nil {
			return err
		}
		return errRejected
	})

	_, err = tb.b.router.Exit(ctx, alice, raw, sigs)
	require.ErrorIs(err, bridge.ErrSendReverted)
	require.NotNil(nested)

	// The nested enter moved value, so its record stays redeemable.
	n, err := tb.b.router.Nonce(alice)
	require.NoError(err)
	require.Equal(uint64(1), n)
	nestedRaw, ok, err := tb.b.router.EnterProof(alice, 0)
	require.NoError(err)
	require.True(ok)
	expected, err := proof.Encode(nested)
	require.NoError(err)
	require.Equal(expected, nestedRaw)
	require.Equal(nested, <-enters)
	require.Equal(u(999), tb.b.vault.BalanceOf(alice))

	// The failed exit is not.
	consumed, err := tb.b.router.Consumed(proof.Fingerprint(raw))
	require.NoError(err)
	require.False(consumed)
	require.Empty(exits)

	tb.b.vault.SetHook(alice, nil)
	_, err = tb.b.router.Exit(ctx, alice, raw, sigs)
	require.NoError(err)
	require.Equal(u(1049), tb.b.vault.BalanceOf(alice))
}

func TestNestedExitRedeemedOnce(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	tb := newTestBridge(t)

	native, err := tb.a.router.EnterNative(ctx, alice, u(50), chainB)
	require.NoError(err)
	rawNative := enterProof(t, tb.a, native)
	sigsNative := attest(t, rawNative, chainA, tb.signers...)
	synthetic, err := tb.a.router.Enter(ctx, alice, tokenS, u(20), chainB)
	require.NoError(err)
	rawSynthetic := enterProof(t, tb.a, synthetic)
	sigsSynthetic := attest(t, rawSynthetic, chainA, tb.signers...)
	tb.b.vault.Deposit(tb.b.router.Address(), u(50))

	exits := make(chan *bridge.ExitEvent, 2)
	sub := tb.b.router.SubscribeExit(exits)
	defer sub.Unsubscribe()

	var nested *bridge.ExitEvent
	tb.b.vault.SetHook(alice, func(ctx context.Context, _ common.Address, _ *uint256.Int) error {
		var err error
		nested, err = tb.b.router.Exit(ctx, alice, rawSynthetic, sigsSynthetic)
		if err != nil {
			return err
		}
		return errRejected
	})

	_, err = tb.b.router.Exit(ctx, alice, rawNative, sigsNative)
	require.ErrorIs(err, bridge.ErrSendReverted)
	require.NotNil(nested)
	require.Equal(nested, <-exits)

	consumed, err := tb.b.router.Consumed(proof.Fingerprint(rawSynthetic))
	require.NoError(err)
	require.True(consumed)
	require.Equal(u(1020), tb.b.synthetic.BalanceOf(alice))

	_, err = tb.b.router.Exit(ctx, alice, rawSynthetic, sigsSynthetic)
	require.ErrorIs(err, bridge.ErrCommitmentKnown)
	require.Equal(u(1020), tb.b.synthetic.BalanceOf(alice))
	require.Empty(exits)
}

func TestNestedEnterKeepsNonceAfterOuterFailure(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := newTestBridge(t).a

	var nested *bridge.EnterEvent
	a.locked.SetHook(a.router.Address(), func(ctx context.Context, _ common.Address, _ *uint256.Int) error {
		a.locked.SetHook(a.router.Address(), nil)
		var err error
		nested, err = a.router.Enter(ctx, alice, tokenS, u(5), chainB)
		if err != nil {
			return err
		}
		return errRejected
	})
	a.locked.Approve(alice, a.router.Address(), u(10))

	_, err := a.router.Enter(ctx, alice, tokenL, u(10), chainB)
	require.ErrorIs(err, errRejected)
	require.NotNil(nested)
	require.Equal(uint64(1), nested.Nonce)

	// Nonce 0 is skipped and nonce 1 keeps the nested proof.
	_, ok, err := a.router.EnterProof(alice, 0)
	require.NoError(err)
	require.False(ok)
	nestedRaw, ok, err := a.router.EnterProof(alice, 1)
	require.NoError(err)
	require.True(ok)

	ev, err := a.router.Enter(ctx, alice, tokenS, u(5), chainB)
	require.NoError(err)
	require.Equal(uint64(2), ev.Nonce)
	raw, ok, err := a.router.EnterProof(alice, 1)
	require.NoError(err)
	require.True(ok)
	require.Equal(nestedRaw, raw)
	require.Equal(u(990), a.synthetic.BalanceOf(alice))
	require.Equal(u(1000), a.locked.BalanceOf(alice))
}

func TestNestedAdminCallIsFinal(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	tb := newTestBridge(t)

	ev, err := tb.a.router.EnterNative(ctx, alice, u(50), chainB)
	require.NoError(err)
	raw := enterProof(t, tb.a, ev)
	sigs := attest(t, raw, chainA, tb.signers...)
	tb.b.vault.Deposit(tb.b.router.Address(), u(50))

	tb.b.vault.SetHook(alice, func(ctx context.Context, _ common.Address, _ *uint256.Int) error {
		if err := tb.b.router.Pause(ctx, owner); err != nil {
			return err
		}
		return errRejected
	})

	_, err = tb.b.router.Exit(ctx, alice, raw, sigs)
	require.ErrorIs(err, bridge.ErrSendReverted)
	require.True(tb.b.router.Paused())

	tb.b.vault.SetHook(alice, nil)
	_, err = tb.b.router.Exit(ctx, alice, raw, sigs)
	require.ErrorIs(err, bridge.ErrPaused)
}

func TestRevertFailureReturned(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := newTestBridge(t).a

	err := a.router.call(ctx, opEnter, func(_ context.Context, f *frame) error {
		txn := a.router.store.Begin()
		if _, err := txn.IncrementNonce(alice); err != nil {
			return err
		}
		if err := f.commit(txn); err != nil {
			return err
		}
		// A released txn can no longer be reverted.
		txn.Done()
		return errRejected
	})
	require.ErrorIs(err, errRejected)
	require.ErrorIs(err, errRevert)
}

func TestNestedFailureKeepsOuter(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	tb := newTestBridge(t)

	ev, err := tb.a.router.Enter(ctx, alice, tokenS, u(20), chainB)
	require.NoError(err)
	raw := enterProof(t, tb.a, ev)
	sigs := attest(t, raw, chainA, tb.signers...)

	var nestedErr error
	tb.b.synthetic.SetHook(alice, func(ctx context.Context, _ common.Address, _ *uint256.Int) error {
		_, nestedErr = tb.b.router.Enter(ctx, alice, tokenS, u(5000), chainA)
		return nil
	})

	_, err = tb.b.router.Exit(ctx, alice, raw, sigs)
	require.NoError(err)
	require.ErrorIs(nestedErr, bridge.ErrInsufficientBalance)

	n, err := tb.b.router.Nonce(alice)
	require.NoError(err)
	require.Zero(n)
	consumed, err := tb.b.router.Consumed(proof.Fingerprint(raw))
	require.NoError(err)
	require.True(consumed)
}

func TestCallIntoOtherRouter(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	tb := newTestBridge(t)

	// A hook running under A's lock may call B, which takes its own lock.
	var nested *bridge.EnterEvent
	tb.a.locked.SetHook(tb.a.router.Address(), func(ctx context.Context, _ common.Address, _ *uint256.Int) error {
		var err error
		nested, err = tb.b.router.Enter(ctx, alice, tokenS, u(1), chainA)
		return err
	})
	tb.a.locked.Approve(alice, tb.a.router.Address(), u(1))

	_, err := tb.a.router.Enter(ctx, alice, tokenL, u(1), chainB)
	require.NoError(err)
	require.NotNil(nested)
	require.Equal(uint64(chainB), nested.SourceChainID)
}

func TestStaleFrameContext(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	a := newTestBridge(t).a

	var saved context.Context
	a.locked.SetHook(a.router.Address(), func(ctx context.Context, _ common.Address, _ *uint256.Int) error {
		saved = ctx
		return nil
	})
	a.locked.Approve(alice, a.router.Address(), u(1))
	_, err := a.router.Enter(ctx, alice, tokenL, u(1), chainB)
	require.NoError(err)
	require.NotNil(saved)

	enters := make(chan *bridge.EnterEvent, 1)
	sub := a.router.SubscribeEnter(enters)
	defer sub.Unsubscribe()

	// A context outliving its call starts a new outermost call.
	ev, err := a.router.Enter(saved, alice, tokenS, u(1), chainB)
	require.NoError(err)
	require.Equal(uint64(1), ev.Nonce)
	require.Equal(ev, <-enters)
}
