// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/bridge"
	"github.com/luxfi/bridge/policy"
)

var _ policy.Native = (*Vault)(nil)

// Vault holds native currency balances, including the router custody
// account.
type Vault struct {
	custody common.Address

	mu       sync.Mutex
	balances map[common.Address]*uint256.Int
	hooks    map[common.Address]Hook
}

func NewVault(custody common.Address) *Vault {
	return &Vault{
		custody:  custody,
		balances: make(map[common.Address]*uint256.Int),
		hooks:    make(map[common.Address]Hook),
	}
}

// Deposit credits addr out of thin air.
func (v *Vault) Deposit(addr common.Address, amount *uint256.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.balances[addr] = new(uint256.Int).Add(v.balance(addr), amount)
}

func (v *Vault) BalanceOf(addr common.Address) *uint256.Int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.balance(addr).Clone()
}

// SetHook installs a receive hook for addr. A nil hook removes it.
func (v *Vault) SetHook(addr common.Address, hook Hook) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if hook == nil {
		delete(v.hooks, addr)
		return
	}
	v.hooks[addr] = hook
}

// Receive implements policy.Native.
func (v *Vault) Receive(_ context.Context, from common.Address, amount *uint256.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.move(from, v.custody, amount)
}

// Balance implements policy.Native.
func (v *Vault) Balance(context.Context) *uint256.Int {
	return v.BalanceOf(v.custody)
}

// Send implements policy.Native. The recipient hook runs after the value
// arrives. A rejecting hook undoes the move.
func (v *Vault) Send(ctx context.Context, to common.Address, amount *uint256.Int) error {
	v.mu.Lock()
	if err := v.move(v.custody, to, amount); err != nil {
		v.mu.Unlock()
		return err
	}
	hook := v.hooks[to]
	v.mu.Unlock()

	if hook == nil {
		return nil
	}
	if err := hook(ctx, v.custody, amount); err != nil {
		v.mu.Lock()
		_ = v.move(to, v.custody, amount)
		v.mu.Unlock()
		return fmt.Errorf("%w: %w", bridge.ErrSendReverted, err)
	}
	return nil
}

func (v *Vault) balance(addr common.Address) *uint256.Int {
	if b, ok := v.balances[addr]; ok {
		return b
	}
	return new(uint256.Int)
}

func (v *Vault) move(from, to common.Address, amount *uint256.Int) error {
	bal := v.balance(from)
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, need %s", bridge.ErrInsufficientBalance, from, bal, amount)
	}
	v.balances[from] = new(uint256.Int).Sub(bal, amount)
	v.balances[to] = new(uint256.Int).Add(v.balance(to), amount)
	return nil
}
