// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/ids"
	"github.com/spf13/cobra"

	"github.com/luxfi/bridge"
	"github.com/luxfi/bridge/proof"
)

const proofFlag = "proof"

func parseHex(name, s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s hex: %w", name, err)
	}
	return b, nil
}

func proofBytes(cmd *cobra.Command) ([]byte, error) {
	s, err := cmd.Flags().GetString(proofFlag)
	if err != nil {
		return nil, err
	}
	return parseHex(proofFlag, s)
}

func printEnter(w io.Writer, ev *bridge.EnterEvent) {
	fmt.Fprintf(w, "Enter event:\n")
	fmt.Fprintf(w, "  Emitter: %s\n", ev.Emitter)
	fmt.Fprintf(w, "  Token: %s\n", ev.Token)
	fmt.Fprintf(w, "  Claimant: %s\n", ev.Claimant)
	fmt.Fprintf(w, "  Amount: %s\n", ev.Amount.Dec())
	fmt.Fprintf(w, "  Nonce: %d\n", ev.Nonce)
	fmt.Fprintf(w, "  Source Chain: %d\n", ev.SourceChainID)
	fmt.Fprintf(w, "  Target Chain: %d\n", ev.TargetChainID)
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode an Enter proof",
		Long:  `Decode a hex-encoded Enter proof and print the transfer it records.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := proofBytes(cmd)
			if err != nil {
				return err
			}
			ev, err := proof.Decode(raw)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printEnter(w, ev)
			c := proof.Fingerprint(raw)
			fmt.Fprintf(w, "  Commitment: %s (%s)\n", c, ids.ID(c))
			return nil
		},
	}
	cmd.Flags().StringP(proofFlag, "p", "", "Enter proof (hex)")
	_ = cmd.MarkFlagRequired(proofFlag)
	return cmd
}

func newFingerprintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the commitment of a proof",
		Long:  `Print the keccak256 commitment of raw proof bytes without parsing them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := proofBytes(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), proof.Fingerprint(raw).Hex())
			return nil
		},
	}
	cmd.Flags().StringP(proofFlag, "p", "", "Proof bytes (hex)")
	_ = cmd.MarkFlagRequired(proofFlag)
	return cmd
}
