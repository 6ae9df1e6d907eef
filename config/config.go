// Copyright 2024 The Bloomevm Authors
// This file is part of Bloomevm.
//
// Bloomevm is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Bloomevm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Bloomevm. If not, see <http://www.gnu.org/licenses/>.

// Package config decodes bloom.conf (spec §6) and defines the shared CLI
// flags of the consensus and query binaries.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/genesis"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// AccountEntry is one genesis allocation entry, as written under the
// config file's `[[accounts]]` table array.
type AccountEntry struct {
	Address bloomtypes.Address `toml:"address"`
	Value   string             `toml:"value"`
}

// Config mirrors bloom.conf's fields (spec §6).
type Config struct {
	LogLevel      string         `toml:"log_level"`
	DataDirectory string         `toml:"data_directory"`
	ChainSocket   string         `toml:"chain_socket"`
	QuerySocket   string         `toml:"query_socket"`
	Consensus     bool           `toml:"consensus"`
	Index         uint64         `toml:"index"`
	BlockDuration uint64         `toml:"block_duration"`
	Accounts      []AccountEntry `toml:"accounts"`
}

// Default returns a Config with every field set to the value the
// original prototype falls back to when bloom.conf omits it.
func Default() *Config {
	return &Config{
		LogLevel:      "debug",
		DataDirectory: "chain-data",
		ChainSocket:   "tcp://127.0.0.1:7200",
		QuerySocket:   "tcp://127.0.0.1:7201",
		Consensus:     true,
		Index:         0,
		BlockDuration: 5,
	}
}

// Load decodes the TOML file at path over Default(), so a partial
// bloom.conf still yields a usable configuration.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: decode %s", path)
	}
	return cfg, nil
}

// Flags is the CLI surface shared by cmd/consensus and cmd/query (spec
// §6): --config, --data-dir, --log.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Value: "bloom.conf",
			Usage: "path to the TOML configuration file",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Value: "chain-data",
			Usage: "directory holding the bbolt chain database",
		},
		&cli.StringFlag{
			Name:  "log",
			Value: "debug",
			Usage: "log level (debug, info, warn, error)",
		},
	}
}

// GenesisAccounts parses each entry's decimal Value string into a
// genesis.Account, matching the original prototype's accounts table
// (spec §6: `accounts: [{address, value}]`).
func (c *Config) GenesisAccounts() ([]genesis.Account, error) {
	out := make([]genesis.Account, len(c.Accounts))
	for i, e := range c.Accounts {
		v, err := uint256.FromDecimal(e.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "config: account %d value %q", i, e.Value)
		}
		out[i] = genesis.Account{Address: e.Address, Value: v}
	}
	return out, nil
}

// ApplyFlags overrides fields of cfg with any CLI flag explicitly set on
// c, giving command-line arguments precedence over bloom.conf.
func ApplyFlags(cfg *Config, c *cli.Context) {
	if c.IsSet("data-dir") {
		cfg.DataDirectory = c.String("data-dir")
	}
	if c.IsSet("log") {
		cfg.LogLevel = c.String("log")
	}
}
