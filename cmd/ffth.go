// Copyright © 2025 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hyperledger/firefly-common/pkg/config"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-txharness/internal/journal"
	"github.com/hyperledger/firefly-txharness/internal/memnode"
	"github.com/hyperledger/firefly-txharness/internal/metrics"
	"github.com/hyperledger/firefly-txharness/internal/nodeserver"
	"github.com/hyperledger/firefly-txharness/internal/thconfig"
	"github.com/hyperledger/firefly-txharness/pkg/environment"
	"github.com/hyperledger/firefly-txharness/pkg/keys"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var sigs = make(chan os.Signal, 1)

var cfgFile string

var rootCmd = newRootCommand()

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ffth",
		Short: "Hyperledger FireFly Transaction Harness",
		Long:  `Serves an in-memory ledger node, and funds and inspects accounts on the configured node`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "f", "", "config file")
	root.AddCommand(versionCommand())
	root.AddCommand(accountsCommand())
	root.AddCommand(nonceCommand())
	return root
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	thconfig.Reset()
	journal.InitConfig(thconfig.JournalPostgresConfig)
}

// loadConfig reads the configuration, and returns a context carrying the logger
func loadConfig() (context.Context, error) {
	initConfig()
	err := config.ReadConfig("ffth", cfgFile)

	// Setup logging after reading config (even if failed), to output header correctly
	ctx := log.WithLogger(context.Background(), logrus.WithField("pid", fmt.Sprintf("%d", os.Getpid())))
	ctx = log.WithLogger(ctx, logrus.WithField("prefix", "ffth"))

	config.SetupLogging(ctx)

	// Deferred error return from reading config
	if err != nil {
		return nil, i18n.WrapError(ctx, err, i18n.MsgConfigFailed)
	}
	return ctx, nil
}

// run serves an in-memory node until interrupted, whatever backend is configured
func run() error {
	ctx, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancelCtx := context.WithCancel(ctx)
	defer cancelCtx()

	gameteKey, err := environment.GameteKey(ctx, environment.NodeBackendMemory)
	if err != nil {
		return err
	}
	node, err := memnode.NewFromConfig(ctx, keys.Identity(gameteKey))
	if err != nil {
		return err
	}
	defer node.Close(ctx)

	// Setup signal handling to cancel the context, which shuts down the API Server
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	server, err := nodeserver.NewServer(ctx, node, metrics.NewMetricsManager(ctx))
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}
	sig := <-sigs
	log.L(ctx).Infof("Shutting down due to %s", sig.String())
	cancelCtx()
	return server.WaitStop()
}
