// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/luxfi/geth/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/luxfi/bridge/proof"
	"github.com/luxfi/bridge/quorum"
)

const (
	keyFileFlag = "key-file"
	outFlag     = "out"
)

func loadSigner(path string) (*quorum.LocalSigner, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return quorum.ParseLocalSigner(strings.TrimSpace(string(b)))
}

func newKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a cosigner key",
		Long:  `Generate a secp256k1 cosigner key and print its address.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := quorum.GenerateLocalSigner()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			out, _ := cmd.Flags().GetString(outFlag)
			if out == "" {
				fmt.Fprintf(w, "Private Key: 0x%s\n", s.Hex())
			} else if err := os.WriteFile(out, []byte(s.Hex()+"\n"), 0o600); err != nil {
				return fmt.Errorf("failed to write key file: %w", err)
			}
			fmt.Fprintf(w, "Address: %s\n", s.Address())
			return nil
		},
	}
	cmd.Flags().StringP(outFlag, "o", "", "Write the private key to this file instead of stdout")
	return cmd
}

func newSignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Attest an Enter proof",
		Long: `Sign the commitment of an Enter proof for the source chain it names.
The proof is decoded first so that malformed proofs are never attested.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := proofBytes(cmd)
			if err != nil {
				return err
			}
			ev, err := proof.Decode(raw)
			if err != nil {
				return err
			}
			keyFile, _ := cmd.Flags().GetString(keyFileFlag)
			s, err := loadSigner(keyFile)
			if err != nil {
				return err
			}
			sig, err := s.Sign(proof.Fingerprint(raw), ev.SourceChainID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(sig))
			return nil
		},
	}
	cmd.Flags().StringP(proofFlag, "p", "", "Enter proof (hex)")
	cmd.Flags().StringP(keyFileFlag, "k", "", "Cosigner private key file")
	_ = cmd.MarkFlagRequired(proofFlag)
	_ = cmd.MarkFlagRequired(keyFileFlag)
	return cmd
}
