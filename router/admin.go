// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/bridge"
	"github.com/luxfi/bridge/quorum"
	"github.com/luxfi/bridge/registry"
)

var errNilCapability = errors.New("nil capability")

func (r *Router) authorize(caller common.Address) error {
	if owner := r.Owner(); caller != owner {
		return fmt.Errorf("%w: %s", bridge.ErrNotOwner, caller)
	}
	return nil
}

// admin runs fn for the owner, serialized with enters and exits.
func (r *Router) admin(ctx context.Context, caller common.Address, fn func() error) error {
	return r.call(ctx, opAdmin, func(context.Context, *frame) error {
		if err := r.authorize(caller); err != nil {
			return err
		}
		r.adminLock.Lock()
		defer r.adminLock.Unlock()

		return fn()
	})
}

// Pause rejects every enter and exit until Unpause.
func (r *Router) Pause(ctx context.Context, caller common.Address) error {
	return r.admin(ctx, caller, func() error {
		r.paused = true
		r.log.Info("paused", log.Stringer("by", caller))
		return nil
	})
}

func (r *Router) Unpause(ctx context.Context, caller common.Address) error {
	return r.admin(ctx, caller, func() error {
		r.paused = false
		r.log.Info("unpaused", log.Stringer("by", caller))
		return nil
	})
}

func (r *Router) SetRegistry(ctx context.Context, caller common.Address, reg registry.Registry) error {
	if reg == nil {
		return fmt.Errorf("%w: registry", errNilCapability)
	}
	return r.admin(ctx, caller, func() error {
		r.registry = reg
		r.log.Info("registry replaced", log.Stringer("by", caller))
		return nil
	})
}

func (r *Router) SetQuorum(ctx context.Context, caller common.Address, q quorum.Verifier) error {
	if q == nil {
		return fmt.Errorf("%w: quorum", errNilCapability)
	}
	return r.admin(ctx, caller, func() error {
		r.quorum = q
		r.log.Info("quorum replaced", log.Stringer("by", caller))
		return nil
	})
}

func (r *Router) TransferOwnership(ctx context.Context, caller, newOwner common.Address) error {
	if newOwner == (common.Address{}) {
		return fmt.Errorf("%w: new owner", bridge.ErrZeroAddress)
	}
	return r.admin(ctx, caller, func() error {
		r.owner = newOwner
		r.log.Info("ownership transferred",
			log.Stringer("from", caller),
			log.Stringer("to", newOwner),
		)
		return nil
	})
}

func (r *Router) Owner() common.Address {
	r.adminLock.RLock()
	defer r.adminLock.RUnlock()

	return r.owner
}

func (r *Router) Paused() bool {
	r.adminLock.RLock()
	defer r.adminLock.RUnlock()

	return r.paused
}

// Registry returns the configured token registry.
func (r *Router) Registry() registry.Registry {
	r.adminLock.RLock()
	defer r.adminLock.RUnlock()

	return r.registry
}

// Quorum returns the configured signature verifier.
func (r *Router) Quorum() quorum.Verifier {
	r.adminLock.RLock()
	defer r.adminLock.RUnlock()

	return r.quorum
}
