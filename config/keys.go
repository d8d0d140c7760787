// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"
	VersionKey    = "version"
	HelpKey       = "help"

	// Environment variable keys
	ConfigFileEnvKey = "CONFIG_FILE"

	// Top-level configuration keys
	LogLevelKey          = "log-level"
	ChainIDKey           = "chain-id"
	RouterAddressKey     = "router-address"
	OwnerKey             = "owner"
	DBPathKey            = "db-path"
	DBCacheKey           = "db-cache"
	DBHandlesKey         = "db-handles"
	RegistryCacheSizeKey = "registry-cache-size"
	QuorumNumKey         = "quorum-num"
	QuorumDenKey         = "quorum-den"
	CosignersKey         = "cosigners"
	TokensKey            = "tokens"
)
