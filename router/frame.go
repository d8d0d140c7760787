// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/log"

	"github.com/luxfi/bridge"
	"github.com/luxfi/bridge/state"
)

const opAdmin = "admin"

var errRevert = errors.New("failed to revert state transition")

type frameKey struct {
	router *Router
}

// frame is the state of one outermost call and every call nested in it.
// A call that succeeds is final: its transactions are released and its events
// are published even when an enclosing call fails later. A call that fails
// reverts only the transactions committed by itself.
type frame struct {
	active bool
	txns   []*state.Txn
	enters []*bridge.EnterEvent
	exits  []*bridge.ExitEvent
}

// commit writes txn ahead of any value movement.
func (f *frame) commit(txn *state.Txn) error {
	if err := txn.Commit(); err != nil {
		return err
	}
	f.txns = append(f.txns, txn)
	return nil
}

// call runs fn under the router lock, or inside the running call when ctx
// was handed out by it.
func (r *Router) call(ctx context.Context, op string, fn func(context.Context, *frame) error) error {
	if f, ok := ctx.Value(frameKey{r}).(*frame); ok && f.active {
		return r.run(ctx, f, op, fn)
	}

	f, err := r.outermost(ctx, op, fn)
	for _, ev := range f.enters {
		r.enterFeed.Send(ev)
	}
	for _, ev := range f.exits {
		r.exitFeed.Send(ev)
	}
	return err
}

func (r *Router) outermost(ctx context.Context, op string, fn func(context.Context, *frame) error) (*frame, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	f := &frame{active: true}
	defer func() {
		f.active = false
	}()

	err := r.run(context.WithValue(ctx, frameKey{r}, f), f, op, fn)
	return f, err
}

func (r *Router) run(ctx context.Context, f *frame, op string, fn func(context.Context, *frame) error) error {
	mark := len(f.txns)

	err := bridge.ErrPaused
	if op == opAdmin || !r.Paused() {
		err = fn(ctx, f)
	}
	if err == nil {
		for _, txn := range f.txns[mark:] {
			txn.Done()
		}
		f.txns = f.txns[:mark]
		return nil
	}

	if rerr := r.rollback(f, mark); rerr != nil {
		err = errors.Join(err, rerr)
	}
	r.metrics.failed(op, err)
	r.log.Debug("call rejected",
		log.String("op", op),
		log.String("reason", bridge.Reason(err)),
		log.Err(err),
	)
	return err
}

// rollback reverts the transactions committed since mark, newest first.
func (r *Router) rollback(f *frame, mark int) error {
	var errs []error
	for i := len(f.txns) - 1; i >= mark; i-- {
		if err := f.txns[i].Revert(); err != nil {
			r.log.Error("failed to revert state transition", log.Err(err))
			errs = append(errs, fmt.Errorf("%w: %w", errRevert, err))
		}
	}
	f.txns = f.txns[:mark]
	return errors.Join(errs...)
}
