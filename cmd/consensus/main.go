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

// Command consensus runs the proposer/validator thread (spec §1, §5): it
// serves CreateHeader and ApplyBlock over a ZeroMQ socket bound to the
// config file's chain_socket.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/chainstore"
	"github.com/dao-galaxy/bloomevm/config"
	"github.com/dao-galaxy/bloomevm/genesis"
	"github.com/dao-galaxy/bloomevm/kv"
	"github.com/dao-galaxy/bloomevm/logging"
	"github.com/dao-galaxy/bloomevm/service"
	"github.com/dao-galaxy/bloomevm/transport"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "bloomevm-consensus",
		Usage: "consensus-thread service: CreateHeader and ApplyBlock",
		Flags: config.Flags(),
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	config.ApplyFlags(cfg, c)

	log, err := logging.New(logging.Options{Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	defer log.Sync()

	store, genesisHeader, err := openChainData(cfg)
	if err != nil {
		return errors.Wrap(err, "consensus: open chain data")
	}
	defer store.Close()

	chain, err := chainstore.Open(store, genesisHeader)
	if err != nil {
		return errors.Wrap(err, "consensus: open chain store")
	}

	dispatcher := service.New(store, chain, bloomtypes.RecoverSenderECDSA)
	server, err := transport.NewServer(cfg.ChainSocket, dispatcher, log)
	if err != nil {
		return errors.Wrap(err, "consensus: bind chain socket")
	}
	defer server.Close()

	log.Info("consensus thread listening", zap.String("endpoint", cfg.ChainSocket))
	return server.Serve()
}

// openChainData opens (or initializes) the bbolt-backed store at
// cfg.DataDirectory, seeding the genesis header from cfg.Accounts on a
// fresh data directory (spec §6).
func openChainData(cfg *config.Config) (kv.Store, *bloomtypes.Header, error) {
	dataDir := cfg.DataDirectory
	_, statErr := os.Stat(dataDir)
	fresh := os.IsNotExist(statErr)
	if fresh {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, nil, err
		}
	}

	store, err := kv.OpenBolt(filepath.Join(dataDir, "chain.db"))
	if err != nil {
		return nil, nil, err
	}

	if !fresh {
		return store, nil, nil
	}

	accounts, err := cfg.GenesisAccounts()
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	header, err := genesis.Build(store, accounts)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, header, nil
}
