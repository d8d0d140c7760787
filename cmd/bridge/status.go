// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/ids"
	"github.com/spf13/cobra"

	"github.com/luxfi/bridge/state"
)

const (
	accountFlag    = "account"
	nonceFlag      = "nonce"
	commitmentFlag = "commitment"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Read a router's persistent state",
		Long: `Print the next enter nonce of an account, the journaled proof of one of
its enters and whether a commitment has been consumed by an exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg, true)
			if err != nil {
				return err
			}
			defer db.Close()

			return printStatus(cmd, state.New(db))
		},
	}
	cmd.Flags().String(accountFlag, "", "Account whose nonce and enter proofs are printed")
	cmd.Flags().Uint64(nonceFlag, 0, "Print the proof of the account's enter with this nonce")
	cmd.Flags().String(commitmentFlag, "", "Commitment (hex) to look up")
	addConfigFlags(cmd)
	return cmd
}

func printStatus(cmd *cobra.Command, store *state.Store) error {
	w := cmd.OutOrStdout()
	flags := cmd.Flags()

	if account, _ := flags.GetString(accountFlag); account != "" {
		if !common.IsHexAddress(account) {
			return fmt.Errorf("invalid %s %q", accountFlag, account)
		}
		addr := common.HexToAddress(account)
		next, err := store.Nonce(addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Account %s:\n", addr)
		fmt.Fprintf(w, "  Next Nonce: %d\n", next)

		if flags.Changed(nonceFlag) {
			nonce, _ := flags.GetUint64(nonceFlag)
			raw, ok, err := store.EnterProof(addr, nonce)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(w, "  Enter %d: not found\n", nonce)
			} else {
				fmt.Fprintf(w, "  Enter %d Proof: %s\n", nonce, hexutil.Encode(raw))
			}
		}
	}

	if s, _ := flags.GetString(commitmentFlag); s != "" {
		b, err := parseHex(commitmentFlag, s)
		if err != nil {
			return err
		}
		if len(b) != common.HashLength {
			return fmt.Errorf("invalid %s length %d", commitmentFlag, len(b))
		}
		c := common.BytesToHash(b)
		ev, ok, err := store.Exit(c)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Commitment %s (%s):\n", c, ids.ID(c))
		if !ok {
			fmt.Fprintln(w, "  Consumed: false")
			return nil
		}
		fmt.Fprintln(w, "  Consumed: true")
		fmt.Fprintf(w, "  Token: %s\n", ev.Token)
		fmt.Fprintf(w, "  Claimant: %s\n", ev.Claimant)
		fmt.Fprintf(w, "  Amount: %s\n", ev.Amount.Dec())
		fmt.Fprintf(w, "  Source Chain: %d\n", ev.SourceChainID)
	}
	return nil
}
