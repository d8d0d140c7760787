// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/bridge"
	"github.com/luxfi/bridge/quorum"
	"github.com/luxfi/bridge/registry"
)

const (
	defaultLogLevel  = "info"
	defaultDBCache   = 16
	defaultDBHandles = 16

	DefaultRegistryCacheSize = registry.DefaultCacheSize
)

var (
	errZeroChainID       = errors.New("chain id must be non-zero")
	errInvalidAddress    = errors.New("invalid address")
	errNegativeSetting   = errors.New("setting must not be negative")
	errLocalChain        = errors.New("counterpart chain equals local chain")
	errDuplicateChain    = errors.New("duplicate cosigner set")
	errDuplicateToken    = errors.New("duplicate token listing")
	errNoCosignerConfigs = errors.New("no cosigner sets configured")
)

// CosignerConfig is one weighted attester of a source chain.
type CosignerConfig struct {
	Address string `mapstructure:"address" json:"address"`
	Weight  uint64 `mapstructure:"weight" json:"weight"`
}

// CosignerSetConfig is the attester set accepted for enters made on
// SourceChainID.
type CosignerSetConfig struct {
	SourceChainID uint64           `mapstructure:"source-chain-id" json:"source-chain-id"`
	Cosigners     []CosignerConfig `mapstructure:"cosigners" json:"cosigners"`
}

// TokenConfig lists Token for enters targeting CounterpartChainID. Exits
// resolve the token named by the proof against the local chain id, so a
// token redeemable here is also listed with CounterpartChainID set to the
// local chain. Address is the local token moved by the router, and the zero
// address stands for the native currency.
type TokenConfig struct {
	Token              string `mapstructure:"token" json:"token"`
	CounterpartChainID uint64 `mapstructure:"counterpart-chain-id" json:"counterpart-chain-id"`
	Address            string `mapstructure:"address" json:"address"`
	Policy             string `mapstructure:"policy" json:"policy"`
}

// Config is the configuration of a router node.
type Config struct {
	LogLevel          string              `mapstructure:"log-level" json:"log-level,omitempty"`
	ChainID           uint64              `mapstructure:"chain-id" json:"chain-id,omitempty"`
	RouterAddress     string              `mapstructure:"router-address" json:"router-address,omitempty"`
	Owner             string              `mapstructure:"owner" json:"owner,omitempty"`
	DBPath            string              `mapstructure:"db-path" json:"db-path,omitempty"`
	DBCache           int                 `mapstructure:"db-cache" json:"db-cache,omitempty"`
	DBHandles         int                 `mapstructure:"db-handles" json:"db-handles,omitempty"`
	RegistryCacheSize int                 `mapstructure:"registry-cache-size" json:"registry-cache-size,omitempty"`
	QuorumNum         uint64              `mapstructure:"quorum-num" json:"quorum-num,omitempty"`
	QuorumDen         uint64              `mapstructure:"quorum-den" json:"quorum-den,omitempty"`
	Cosigners         []CosignerSetConfig `mapstructure:"cosigners" json:"cosigners,omitempty"`
	Tokens            []TokenConfig       `mapstructure:"tokens" json:"tokens,omitempty"`

	// convenience fields populated by Validate
	routerAddress common.Address
	owner         common.Address
	cosignerSets  map[uint64]*quorum.CosignerSet
	listings      []listing
}

type listing struct {
	token              common.Address
	counterpartChainID uint64
	address            common.Address
	policy             bridge.Policy
}

// Validate checks the configuration and populates the parsed fields.
func (c *Config) Validate() error {
	if c.ChainID == 0 {
		return errZeroChainID
	}
	var err error
	if c.routerAddress, err = parseNonZeroAddress(RouterAddressKey, c.RouterAddress); err != nil {
		return err
	}
	if c.owner, err = parseNonZeroAddress(OwnerKey, c.Owner); err != nil {
		return err
	}
	for key, value := range map[string]int{
		DBCacheKey:           c.DBCache,
		DBHandlesKey:         c.DBHandles,
		RegistryCacheSizeKey: c.RegistryCacheSize,
	} {
		if value < 0 {
			return fmt.Errorf("%w: %s=%d", errNegativeSetting, key, value)
		}
	}
	if _, err := quorum.New(c.QuorumNum, c.QuorumDen); err != nil {
		return err
	}
	if err := c.validateCosigners(); err != nil {
		return err
	}
	return c.validateTokens()
}

func (c *Config) validateCosigners() error {
	if len(c.Cosigners) == 0 {
		return errNoCosignerConfigs
	}
	c.cosignerSets = make(map[uint64]*quorum.CosignerSet, len(c.Cosigners))
	for _, sc := range c.Cosigners {
		if err := c.checkCounterpart(sc.SourceChainID); err != nil {
			return err
		}
		if _, ok := c.cosignerSets[sc.SourceChainID]; ok {
			return fmt.Errorf("%w: chain %d", errDuplicateChain, sc.SourceChainID)
		}
		cosigners := make([]quorum.Cosigner, len(sc.Cosigners))
		for i, cc := range sc.Cosigners {
			addr, err := parseAddress(CosignersKey, cc.Address)
			if err != nil {
				return err
			}
			cosigners[i] = quorum.Cosigner{Address: addr, Weight: cc.Weight}
		}
		set, err := quorum.NewCosignerSet(cosigners)
		if err != nil {
			return fmt.Errorf("invalid cosigners for chain %d: %w", sc.SourceChainID, err)
		}
		c.cosignerSets[sc.SourceChainID] = set
	}
	return nil
}

func (c *Config) validateTokens() error {
	type key struct {
		token   common.Address
		chainID uint64
	}
	seen := make(map[key]struct{}, len(c.Tokens))
	c.listings = make([]listing, 0, len(c.Tokens))
	for _, tc := range c.Tokens {
		token, err := parseAddress(TokensKey, tc.Token)
		if err != nil {
			return err
		}
		address, err := parseAddress(TokensKey, tc.Address)
		if err != nil {
			return err
		}
		if tc.CounterpartChainID == 0 {
			return fmt.Errorf("%w: token %s", errZeroChainID, token)
		}
		policy, err := bridge.ParsePolicy(tc.Policy)
		if err != nil {
			return fmt.Errorf("token %s: %w", token, err)
		}
		k := key{token: token, chainID: tc.CounterpartChainID}
		if _, ok := seen[k]; ok {
			return fmt.Errorf("%w: %s on chain %d", errDuplicateToken, token, tc.CounterpartChainID)
		}
		seen[k] = struct{}{}
		c.listings = append(c.listings, listing{
			token:              token,
			counterpartChainID: tc.CounterpartChainID,
			address:            address,
			policy:             policy,
		})
	}
	return nil
}

func (c *Config) checkCounterpart(chainID uint64) error {
	switch chainID {
	case 0:
		return errZeroChainID
	case c.ChainID:
		return fmt.Errorf("%w: %d", errLocalChain, chainID)
	default:
		return nil
	}
}

func (c *Config) GetRouterAddress() common.Address {
	return c.routerAddress
}

func (c *Config) GetOwner() common.Address {
	return c.owner
}

// NewQuorum builds the signature verifier described by the configuration.
// Validate must be called first.
func (c *Config) NewQuorum() (*quorum.Quorum, error) {
	q, err := quorum.New(c.QuorumNum, c.QuorumDen)
	if err != nil {
		return nil, err
	}
	for chainID, set := range c.cosignerSets {
		q.SetCosigners(chainID, set)
	}
	return q, nil
}

// NewRegistry builds the token registry described by the configuration,
// fronted by a descriptor cache when RegistryCacheSize is positive.
// Validate must be called first.
func (c *Config) NewRegistry() (*registry.Memory, registry.Registry, error) {
	mem := registry.NewMemory()
	for _, l := range c.listings {
		if err := mem.List(l.token, l.counterpartChainID, l.address, l.policy); err != nil {
			return nil, nil, err
		}
	}
	if c.RegistryCacheSize == 0 {
		return mem, mem, nil
	}
	return mem, registry.NewCached(mem, c.RegistryCacheSize), nil
}

func parseAddress(key, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %s=%q", errInvalidAddress, key, s)
	}
	return common.HexToAddress(s), nil
}

func parseNonZeroAddress(key, s string) (common.Address, error) {
	addr, err := parseAddress(key, s)
	if err != nil {
		return common.Address{}, err
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s", bridge.ErrZeroAddress, key)
	}
	return addr, nil
}
