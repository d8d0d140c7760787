// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/luxfi/geth/ethdb/leveldb"
	"github.com/luxfi/geth/ethdb/memorydb"
	"github.com/luxfi/log"
	"github.com/spf13/cobra"

	"github.com/luxfi/bridge/config"
	"github.com/luxfi/bridge/state"
)

const dbNamespace = "bridge/db/"

// addConfigFlags attaches the node configuration flags to cmd.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().AddFlagSet(config.BuildFlagSet())
}

// loadConfig builds the node configuration from the flags of cmd, the
// environment and the config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v, err := config.BuildViper(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("couldn't configure flags: %w", err)
	}
	cfg, err := config.NewConfig(v)
	if err != nil {
		return nil, fmt.Errorf("couldn't build config: %w", err)
	}
	return &cfg, nil
}

func newLogger(level string) (log.Logger, error) {
	lvl, err := log.ToLevel(level)
	if err != nil {
		return nil, fmt.Errorf("error reading log level from config: %w", err)
	}
	return log.NewLogger(
		"bridge",
		*log.NewWrappedCore(
			lvl,
			os.Stderr,
			log.Plain.ConsoleEncoder(),
		),
	), nil
}

type database interface {
	state.Database
	Close() error
}

// openDatabase opens the leveldb store at cfg.DBPath, or an empty in-memory
// store when no path is configured.
func openDatabase(cfg *config.Config, readonly bool) (database, error) {
	if cfg.DBPath == "" {
		return memorydb.New(), nil
	}
	db, err := leveldb.New(cfg.DBPath, cfg.DBCache, cfg.DBHandles, dbNamespace, readonly)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err)
	}
	return db, nil
}
