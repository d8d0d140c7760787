// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// BuildFlagSet returns the flags shared by every command that runs against a
// node configuration. Keys without a flag are read from the config file or
// the environment.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("bridge", pflag.ContinueOnError)
	fs.String(ConfigFileKey, "", "Specifies the node config file (env: "+ConfigFileEnvKey+")")
	fs.String(LogLevelKey, defaultLogLevel, "Log level")
	fs.Uint64(ChainIDKey, 0, "Local chain id")
	fs.String(DBPathKey, "", "State database directory, in memory when empty")
	return fs
}

func DisplayUsageText() {
	fmt.Fprintf(os.Stderr, "Usage: bridge <command> --%s path/to/config.json\n", ConfigFileKey)
	fmt.Fprintln(os.Stderr, "Options:")
	BuildFlagSet().PrintDefaults()
}
