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
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/hyperledger/firefly-txharness/pkg/bootstrap"
	"github.com/hyperledger/firefly-txharness/pkg/environment"
	"github.com/hyperledger/firefly-txharness/pkg/keys"
	"github.com/spf13/cobra"
)

type createdAccount struct {
	Address    string `json:"address"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
	Balance    string `json:"balance"`
	RedBalance string `json:"redBalance,omitempty"`
}

func accountsCommand() *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts <subcommand>",
		Short: "Create accounts on the configured node",
	}
	accountsCmd.AddCommand(accountsCreateCommand())
	return accountsCmd
}

func accountsCreateCommand() *cobra.Command {
	var coins []string
	var red []string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create accounts funded from the local gamete, and print their keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := loadConfig()
			if err != nil {
				return err
			}
			pairs, err := parseAmounts(ctx, coins, red)
			if err != nil {
				return err
			}
			env, err := environment.New(ctx)
			if err != nil {
				return err
			}
			defer env.Close(ctx)

			accounts, err := env.CreateAccounts(ctx, pairs...)
			if err != nil {
				return err
			}
			out := make([]*createdAccount, accounts.Len())
			for i, a := range accounts.Accounts {
				out[i] = &createdAccount{
					Address:    a.Address.String(),
					PublicKey:  keys.Identity(a.Key),
					PrivateKey: keys.PrivateKeyHex(a.Key),
					Balance:    pairs[i].Green.String(),
				}
				if pairs[i].Red.Sign() > 0 {
					out[i].RedBalance = pairs[i].Red.String()
				}
			}
			b, _ := json.MarshalIndent(out, "", "  ")
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
	createCmd.Flags().StringArrayVarP(&coins, "coins", "c", []string{}, "Green balance of an account. Repeat for each account")
	createCmd.Flags().StringArrayVarP(&red, "red", "r", []string{}, "Red balance of the account in the same position. Zero when omitted")
	return createCmd
}

func parseAmount(ctx context.Context, s, name string) (*big.Int, error) {
	i, ok := new(big.Int).SetString(s, 10)
	if !ok || i.Sign() < 0 {
		return nil, i18n.NewError(ctx, thmsgs.MsgInvalidCoinAmount, s, name)
	}
	return i, nil
}

func parseAmounts(ctx context.Context, coins, red []string) ([]bootstrap.GreenRed, error) {
	if len(coins) == 0 {
		return nil, i18n.NewError(ctx, thmsgs.MsgBootstrapNoCoins)
	}
	if len(red) > len(coins) {
		return nil, i18n.NewError(ctx, thmsgs.MsgInvalidCoinAmount, red[len(coins)], "red")
	}
	pairs := make([]bootstrap.GreenRed, len(coins))
	for i, c := range coins {
		green, err := parseAmount(ctx, c, "coins")
		if err != nil {
			return nil, err
		}
		pairs[i] = bootstrap.GreenRed{Green: green, Red: new(big.Int)}
		if i < len(red) {
			if pairs[i].Red, err = parseAmount(ctx, red[i], "red"); err != nil {
				return nil, err
			}
		}
	}
	return pairs, nil
}
