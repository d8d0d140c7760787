// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger is an in-memory implementation of the token and native
// currency capabilities consumed by the router. It backs the devnet command
// and the router tests.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/math/set"

	"github.com/luxfi/bridge"
	"github.com/luxfi/bridge/policy"
)

var (
	errNotMinter    = errors.New("caller is not a minter")
	errUnknownToken = errors.New("unknown token")
	errOverflow     = errors.New("balance overflow")
)

// Hook runs after value arrives at an account. Returning an error rejects the
// transfer.
type Hook func(ctx context.Context, from common.Address, amount *uint256.Int) error

// Token is a fungible token with balances, allowances and a minter set.
type Token struct {
	name string

	mu         sync.Mutex
	balances   map[common.Address]*uint256.Int
	allowances map[common.Address]map[common.Address]*uint256.Int
	supply     *uint256.Int
	minters    set.Set[common.Address]
	hooks      map[common.Address]Hook
}

func NewToken(name string) *Token {
	return &Token{
		name:       name,
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[common.Address]map[common.Address]*uint256.Int),
		supply:     new(uint256.Int),
		minters:    set.NewSet[common.Address](1),
		hooks:      make(map[common.Address]Hook),
	}
}

func (t *Token) Name() string {
	return t.name
}

func (t *Token) BalanceOf(addr common.Address) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.balance(addr).Clone()
}

func (t *Token) TotalSupply() *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.supply.Clone()
}

func (t *Token) Allowance(owner, spender common.Address) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.allowance(owner, spender).Clone()
}

func (t *Token) Approve(owner, spender common.Address, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*uint256.Int)
	}
	t.allowances[owner][spender] = amount.Clone()
}

// AddMinter lets addr mint and burn.
func (t *Token) AddMinter(addr common.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.minters.Add(addr)
}

// Deposit mints amount to addr without a minter check.
func (t *Token) Deposit(addr common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.mint(addr, amount)
}

// SetHook installs a receive hook for addr. A nil hook removes it.
func (t *Token) SetHook(addr common.Address, hook Hook) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if hook == nil {
		delete(t.hooks, addr)
		return
	}
	t.hooks[addr] = hook
}

// Handle returns a capability that acts as caller.
func (t *Token) Handle(caller common.Address) policy.Token {
	return &handle{token: t, caller: caller}
}

func (t *Token) balance(addr common.Address) *uint256.Int {
	if b, ok := t.balances[addr]; ok {
		return b
	}
	return new(uint256.Int)
}

func (t *Token) allowance(owner, spender common.Address) *uint256.Int {
	if a, ok := t.allowances[owner][spender]; ok {
		return a
	}
	return new(uint256.Int)
}

func (t *Token) mint(to common.Address, amount *uint256.Int) error {
	supply, overflow := new(uint256.Int).AddOverflow(t.supply, amount)
	if overflow {
		return errOverflow
	}
	t.supply = supply
	t.balances[to] = new(uint256.Int).Add(t.balance(to), amount)
	return nil
}

func (t *Token) burn(from common.Address, amount *uint256.Int) error {
	bal := t.balance(from)
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s %s, need %s", bridge.ErrInsufficientBalance, from, bal, t.name, amount)
	}
	t.balances[from] = new(uint256.Int).Sub(bal, amount)
	t.supply = new(uint256.Int).Sub(t.supply, amount)
	return nil
}

func (t *Token) move(from, to common.Address, amount *uint256.Int) error {
	bal := t.balance(from)
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s %s, need %s", bridge.ErrInsufficientBalance, from, bal, t.name, amount)
	}
	t.balances[from] = new(uint256.Int).Sub(bal, amount)
	t.balances[to] = new(uint256.Int).Add(t.balance(to), amount)
	return nil
}

// notify runs the hook of to without holding the lock and calls undo if the
// hook rejects.
func (t *Token) notify(ctx context.Context, from, to common.Address, amount *uint256.Int, undo func()) error {
	t.mu.Lock()
	hook := t.hooks[to]
	t.mu.Unlock()
	if hook == nil {
		return nil
	}

	if err := hook(ctx, from, amount); err != nil {
		t.mu.Lock()
		undo()
		t.mu.Unlock()
		return fmt.Errorf("%w: %s receiver: %w", bridge.ErrTokenRejected, t.name, err)
	}
	return nil
}

var _ policy.Token = (*handle)(nil)

type handle struct {
	token  *Token
	caller common.Address
}

func (h *handle) Mint(ctx context.Context, to common.Address, amount *uint256.Int) error {
	t := h.token
	t.mu.Lock()
	if !t.minters.Contains(h.caller) {
		t.mu.Unlock()
		return fmt.Errorf("%w: %w: %s", bridge.ErrTokenRejected, errNotMinter, h.caller)
	}
	if err := t.mint(to, amount); err != nil {
		t.mu.Unlock()
		return fmt.Errorf("%w: %w", bridge.ErrTokenRejected, err)
	}
	t.mu.Unlock()

	return t.notify(ctx, h.caller, to, amount, func() {
		_ = t.burn(to, amount)
	})
}

func (h *handle) Burn(_ context.Context, from common.Address, amount *uint256.Int) error {
	t := h.token
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.minters.Contains(h.caller) {
		return fmt.Errorf("%w: %w: %s", bridge.ErrTokenRejected, errNotMinter, h.caller)
	}
	return t.burn(from, amount)
}

func (h *handle) Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error {
	t := h.token
	t.mu.Lock()
	if err := t.move(h.caller, to, amount); err != nil {
		t.mu.Unlock()
		return err
	}
	t.mu.Unlock()

	return t.notify(ctx, h.caller, to, amount, func() {
		_ = t.move(to, h.caller, amount)
	})
}

func (h *handle) TransferFrom(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	t := h.token
	t.mu.Lock()
	allowed := t.allowance(from, h.caller)
	if allowed.Lt(amount) {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s allows %s %s, need %s", bridge.ErrInsufficientAllowance, from, allowed, t.name, amount)
	}
	if err := t.move(from, to, amount); err != nil {
		t.mu.Unlock()
		return err
	}
	t.allowances[from][h.caller] = new(uint256.Int).Sub(allowed, amount)
	t.mu.Unlock()

	return t.notify(ctx, from, to, amount, func() {
		if t.move(to, from, amount) == nil {
			t.allowances[from][h.caller] = new(uint256.Int).Add(t.allowance(from, h.caller), amount)
		}
	})
}

var _ policy.Tokens = (*Ledger)(nil)

// Ledger is a set of tokens whose handles act as one account.
type Ledger struct {
	account common.Address

	mu     sync.RWMutex
	tokens map[common.Address]*Token
}

// New returns a ledger whose handles act as account.
func New(account common.Address) *Ledger {
	return &Ledger{
		account: account,
		tokens:  make(map[common.Address]*Token),
	}
}

// Add registers token at addr.
func (l *Ledger) Add(addr common.Address, token *Token) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tokens[addr] = token
}

// Get returns the token at addr.
func (l *Ledger) Get(addr common.Address) (*Token, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.tokens[addr]
	return t, ok
}

// Token implements policy.Tokens.
func (l *Ledger) Token(addr common.Address) (policy.Token, error) {
	t, ok := l.Get(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownToken, addr)
	}
	return t.Handle(l.account), nil
}
