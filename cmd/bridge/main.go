// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bridge",
		Short: "Two-chain token bridge router CLI",
		Long: `bridge moves fungible tokens and native currency between two chains.

This CLI inspects Enter proofs, produces and checks cosigner attestations,
reads a router's persistent state and runs an in-memory two-chain devnet.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newDecodeCmd(),
		newFingerprintCmd(),
		newKeygenCmd(),
		newSignCmd(),
		newVerifyCmd(),
		newStatusCmd(),
		newDevnetCmd(),
	)
	return root
}
