// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/ethdb/memorydb"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/luxfi/bridge"
	"github.com/luxfi/bridge/ledger"
	"github.com/luxfi/bridge/quorum"
	"github.com/luxfi/bridge/registry"
	"github.com/luxfi/bridge/router"
)

const (
	devnetChainA = 96369
	devnetChainB = 200200

	amountFlag    = "amount"
	cosignersFlag = "cosigners"
	logLevelFlag  = "log-level"
)

var (
	devnetOwner   = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	devnetUser    = common.HexToAddress("0xa11ce00000000000000000000000000000000000")
	devnetToken   = common.HexToAddress("0x5555555555555555555555555555555555555555")
	devnetBalance = uint256.NewInt(1_000_000)

	errDevnetReplay = errors.New("replayed exit was accepted")
)

// devnetChain is one in-memory chain running a router.
type devnetChain struct {
	id     uint64
	router *router.Router
	token  *ledger.Token
	vault  *ledger.Vault
}

func newDevnetChain(id, counterpart uint64, signers []*quorum.LocalSigner, logger log.Logger) (*devnetChain, error) {
	addr := common.BytesToAddress(uint256.NewInt(id).Bytes())

	tokens := ledger.New(addr)
	token := ledger.NewToken(fmt.Sprintf("wrapped-%d", id))
	token.AddMinter(addr)
	tokens.Add(devnetToken, token)
	vault := ledger.NewVault(addr)
	vault.Deposit(devnetUser, devnetBalance)
	vault.Deposit(addr, devnetBalance)
	if err := token.Deposit(devnetUser, devnetBalance); err != nil {
		return nil, err
	}

	reg := registry.NewMemory()
	if err := reg.List(devnetToken, counterpart, devnetToken, bridge.Synthetic); err != nil {
		return nil, err
	}
	if err := reg.List(devnetToken, id, devnetToken, bridge.Synthetic); err != nil {
		return nil, err
	}
	if err := reg.List(bridge.NativeToken, counterpart, bridge.NativeToken, bridge.Custodial); err != nil {
		return nil, err
	}
	if err := reg.List(bridge.NativeToken, id, bridge.NativeToken, bridge.Custodial); err != nil {
		return nil, err
	}

	cosigners := make([]quorum.Cosigner, len(signers))
	for i, s := range signers {
		cosigners[i] = quorum.Cosigner{Address: s.Address(), Weight: 1}
	}
	cs, err := quorum.NewCosignerSet(cosigners)
	if err != nil {
		return nil, err
	}
	q, err := quorum.New(quorum.DefaultQuorumNum, quorum.DefaultQuorumDen)
	if err != nil {
		return nil, err
	}
	q.SetCosigners(counterpart, cs)

	r, err := router.New(router.Config{
		ChainID:    id,
		Address:    addr,
		Owner:      devnetOwner,
		DB:         memorydb.New(),
		Registry:   registry.NewCached(reg, registry.DefaultCacheSize),
		Quorum:     q,
		Tokens:     tokens,
		Native:     vault,
		Log:        logger,
		Registerer: prometheus.NewRegistry(),
	})
	if err != nil {
		return nil, err
	}
	return &devnetChain{
		id:     id,
		router: r,
		token:  token,
		vault:  vault,
	}, nil
}

// relay carries ev from src to dst: it fetches the journaled proof, collects
// the attestations of signers and submits the exit.
func relay(ctx context.Context, src, dst *devnetChain, ev *bridge.EnterEvent, signers []*quorum.LocalSigner) ([]byte, [][]byte, *bridge.ExitEvent, error) {
	raw, ok, err := src.router.EnterProof(ev.Claimant, ev.Nonce)
	if err != nil {
		return nil, nil, nil, err
	}
	if !ok {
		return nil, nil, nil, fmt.Errorf("no proof journaled for nonce %d", ev.Nonce)
	}
	c := bridge.Keccak256(raw)
	sigs := make([][]byte, len(signers))
	for i, s := range signers {
		if sigs[i], err = s.Sign(c, src.id); err != nil {
			return nil, nil, nil, err
		}
	}
	exit, err := dst.router.Exit(ctx, ev.Claimant, raw, sigs)
	if err != nil {
		return nil, nil, nil, err
	}
	return raw, sigs, exit, nil
}

// runDevnet bridges amount of a synthetic token and of the native currency
// from chain A to chain B and back, then checks that a replay is rejected.
func runDevnet(ctx context.Context, w io.Writer, logger log.Logger, amount *uint256.Int, numSigners int) error {
	signers := make([]*quorum.LocalSigner, numSigners)
	for i := range signers {
		s, err := quorum.GenerateLocalSigner()
		if err != nil {
			return err
		}
		signers[i] = s
	}
	a, err := newDevnetChain(devnetChainA, devnetChainB, signers, logger)
	if err != nil {
		return err
	}
	b, err := newDevnetChain(devnetChainB, devnetChainA, signers, logger)
	if err != nil {
		return err
	}

	steps := []struct {
		name     string
		src, dst *devnetChain
		enter    func() (*bridge.EnterEvent, error)
	}{
		{
			name: "synthetic A -> B",
			src:  a,
			dst:  b,
			enter: func() (*bridge.EnterEvent, error) {
				return a.router.Enter(ctx, devnetUser, devnetToken, amount, devnetChainB)
			},
		},
		{
			name: "native A -> B",
			src:  a,
			dst:  b,
			enter: func() (*bridge.EnterEvent, error) {
				return a.router.EnterNative(ctx, devnetUser, amount, devnetChainB)
			},
		},
		{
			name: "synthetic B -> A",
			src:  b,
			dst:  a,
			enter: func() (*bridge.EnterEvent, error) {
				return b.router.Enter(ctx, devnetUser, devnetToken, amount, devnetChainA)
			},
		},
	}

	var (
		lastProof []byte
		lastSigs  [][]byte
		lastDst   *devnetChain
	)
	for _, step := range steps {
		ev, err := step.enter()
		if err != nil {
			return fmt.Errorf("%s: enter: %w", step.name, err)
		}
		raw, sigs, exit, err := relay(ctx, step.src, step.dst, ev, signers)
		if err != nil {
			return fmt.Errorf("%s: exit: %w", step.name, err)
		}
		fmt.Fprintf(w, "%s: nonce %d, commitment %s, proof %d bytes\n",
			step.name, ev.Nonce, exit.Commitment, len(raw))
		lastProof, lastSigs, lastDst = raw, sigs, step.dst
	}

	_, err = lastDst.router.Exit(ctx, devnetUser, lastProof, lastSigs)
	if !errors.Is(err, bridge.ErrCommitmentKnown) {
		return fmt.Errorf("%w: %v", errDevnetReplay, err)
	}
	fmt.Fprintf(w, "replay rejected: %s\n", bridge.Reason(err))

	for _, c := range []*devnetChain{a, b} {
		fmt.Fprintf(w, "chain %d: token %s, native %s, vault %s\n",
			c.id,
			c.token.BalanceOf(devnetUser).Dec(),
			c.vault.BalanceOf(devnetUser).Dec(),
			c.vault.Balance(ctx).Dec(),
		)
	}
	return nil
}

func newDevnetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devnet",
		Short: "Run a two-chain round trip in memory",
		Long: `Start two routers on in-memory state and ledgers, bridge a synthetic token
and the native currency across and back, and check replay protection.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level, _ := cmd.Flags().GetString(logLevelFlag)
			logger, err := newLogger(level)
			if err != nil {
				return err
			}
			s, _ := cmd.Flags().GetString(amountFlag)
			amount, err := uint256.FromDecimal(s)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", amountFlag, s, err)
			}
			numSigners, _ := cmd.Flags().GetInt(cosignersFlag)
			if numSigners <= 0 {
				return fmt.Errorf("invalid %s %d", cosignersFlag, numSigners)
			}
			return runDevnet(cmd.Context(), cmd.OutOrStdout(), logger, amount, numSigners)
		},
	}
	cmd.Flags().String(amountFlag, "1000", "Amount moved by each transfer")
	cmd.Flags().Int(cosignersFlag, 3, "Number of cosigners attesting each chain")
	cmd.Flags().String(logLevelFlag, "info", "Log level")
	return cmd
}
