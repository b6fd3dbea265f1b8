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
	"fmt"

	"github.com/hyperledger/firefly-txharness/internal/metrics"
	"github.com/hyperledger/firefly-txharness/internal/thconfig"
	"github.com/hyperledger/firefly-txharness/pkg/environment"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
	"github.com/hyperledger/firefly-txharness/pkg/nonces"
	"github.com/spf13/cobra"
)

func nonceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nonce <address>",
		Short: "Print the nonce of an account, as read from the configured node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := loadConfig()
			if err != nil {
				return err
			}
			account, err := ledger.ParseStorageReference(ctx, args[0])
			if err != nil {
				return err
			}
			node, err := environment.NewNode(ctx)
			if err != nil {
				return err
			}
			defer node.Close(ctx)

			viewGasLimit, err := thconfig.GetBigInt(ctx, thconfig.NoncesViewGasLimit)
			if err != nil {
				return err
			}
			nc, err := nonces.NewCoordinator(ctx, node, metrics.NewMetricsManager(ctx), &nonces.Options{
				ViewGasLimit: viewGasLimit,
			})
			if err != nil {
				return err
			}
			nonce, err := nc.QueryNonce(ctx, account)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), nonce.String())
			return err
		},
	}
}
