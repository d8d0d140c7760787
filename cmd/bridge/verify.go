// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/luxfi/log"
	"github.com/spf13/cobra"

	"github.com/luxfi/bridge"
	"github.com/luxfi/bridge/proof"
)

const sigFlag = "sig"

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check an exit before submitting it",
		Long: `Run the checks an Exit performs that do not depend on router state:
proof decoding, chain routing and the cosigner quorum of the node config.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			raw, err := proofBytes(cmd)
			if err != nil {
				return err
			}
			hexSigs, _ := cmd.Flags().GetStringSlice(sigFlag)
			sigs := make([][]byte, len(hexSigs))
			for i, s := range hexSigs {
				if sigs[i], err = parseHex(sigFlag, s); err != nil {
					return err
				}
			}

			ev, err := proof.Decode(raw)
			if err != nil {
				return err
			}
			switch {
			case ev.SourceChainID == cfg.ChainID:
				return fmt.Errorf("%w: %d", bridge.ErrWrongSourceChain, ev.SourceChainID)
			case ev.TargetChainID != cfg.ChainID:
				return fmt.Errorf("%w: %d", bridge.ErrWrongTargetChain, ev.TargetChainID)
			}

			q, err := cfg.NewQuorum()
			if err != nil {
				return err
			}
			c := proof.Fingerprint(raw)
			if err := q.Check(c, ev.SourceChainID, sigs); err != nil {
				return fmt.Errorf("%w: %w", bridge.ErrInvalidSignatures, err)
			}
			logger.Info("exit attested",
				log.Stringer("commitment", c),
				log.Uint64("sourceChainID", ev.SourceChainID),
				log.Uint64("signatures", uint64(len(sigs))),
			)
			w := cmd.OutOrStdout()
			printEnter(w, ev)
			fmt.Fprintf(w, "  Commitment: %s\n", c)
			fmt.Fprintln(w, "Quorum reached")
			return nil
		},
	}
	cmd.Flags().StringP(proofFlag, "p", "", "Enter proof (hex)")
	cmd.Flags().StringSlice(sigFlag, nil, "Cosigner signature (hex), repeatable")
	_ = cmd.MarkFlagRequired(proofFlag)
	addConfigFlags(cmd)
	return cmd
}
