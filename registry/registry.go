// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry resolves token addresses to the descriptors that govern
// how the router moves their value.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/bridge"
)

var errUnknownPolicy = errors.New("unknown issuance policy")

// Registry resolves a (token, counterpart chain) pair to a descriptor.
// Implementations must not mutate router state.
type Registry interface {
	ResolveLocal(token common.Address, counterpartChainID uint64) (bridge.TokenDescriptor, bool)
}

type key struct {
	token   common.Address
	chainID uint64
}

// Versioned is a Registry that counts its mutations. A Cached view of a
// Versioned registry drops its entries whenever the version moves.
type Versioned interface {
	Registry
	Version() uint64
}

var _ Versioned = (*Memory)(nil)

// Memory is an in-memory Registry.
type Memory struct {
	mu      sync.RWMutex
	entries map[key]bridge.TokenDescriptor
	version atomic.Uint64
}

// NewMemory returns an empty registry.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[key]bridge.TokenDescriptor),
	}
}

// List registers the descriptor used for token against counterpartChainID.
func (m *Memory) List(token common.Address, counterpartChainID uint64, address common.Address, policy bridge.Policy) error {
	if policy != bridge.Custodial && policy != bridge.Synthetic {
		return fmt.Errorf("%w: %s", errUnknownPolicy, policy)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key{token, counterpartChainID}] = bridge.TokenDescriptor{
		Address: address,
		Policy:  policy,
		Listed:  true,
	}
	m.version.Add(1)
	return nil
}

// Delist keeps the entry but clears its listed flag.
func (m *Memory) Delist(token common.Address, counterpartChainID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{token, counterpartChainID}
	if d, ok := m.entries[k]; ok {
		d.Listed = false
		m.entries[k] = d
		m.version.Add(1)
	}
}

// Version increases with every List and Delist.
func (m *Memory) Version() uint64 {
	return m.version.Load()
}

// ResolveLocal implements Registry.
func (m *Memory) ResolveLocal(token common.Address, counterpartChainID uint64) (bridge.TokenDescriptor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.entries[key{token, counterpartChainID}]
	return d, ok
}

// Len returns the number of entries, listed or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}
