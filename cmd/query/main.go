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

// Command query runs the read-only query thread (spec §1, §5): it serves
// LatestBlocks and AccountInfo over a ZeroMQ socket bound to the config
// file's query_socket, against the same on-disk store the consensus
// thread writes to.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/chainstore"
	"github.com/dao-galaxy/bloomevm/config"
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
		Name:   "bloomevm-query",
		Usage:  "query-thread service: LatestBlocks and AccountInfo",
		Flags:  config.Flags(),
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

	if _, err := os.Stat(cfg.DataDirectory); os.IsNotExist(err) {
		return errors.Errorf("query: data directory %s does not exist; start the consensus thread first", cfg.DataDirectory)
	}

	store, err := kv.OpenBolt(filepath.Join(cfg.DataDirectory, "chain.db"))
	if err != nil {
		return errors.Wrap(err, "query: open chain data")
	}
	defer store.Close()

	// The query thread never writes a genesis header itself — the
	// consensus thread owns bootstrap (spec §5's single-writer rule).
	chain, err := chainstore.Open(store, nil)
	if err != nil {
		return errors.Wrap(err, "query: open chain store")
	}

	dispatcher := service.New(store, chain, bloomtypes.RecoverSenderECDSA)
	server, err := transport.NewServer(cfg.QuerySocket, dispatcher, log)
	if err != nil {
		return errors.Wrap(err, "query: bind query socket")
	}
	defer server.Close()

	log.Info("query thread listening", zap.String("endpoint", cfg.QuerySocket))
	return server.Serve()
}
