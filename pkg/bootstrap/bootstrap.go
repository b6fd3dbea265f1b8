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

package bootstrap

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-signer/pkg/secp256k1"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/hyperledger/firefly-txharness/pkg/execution"
	"github.com/hyperledger/firefly-txharness/pkg/keys"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
	"github.com/hyperledger/firefly-txharness/pkg/requests"
)

// Amounts of coins commonly given to accounts
var (
	Coins50K  = big.NewInt(50_000)
	Coins100K = big.NewInt(100_000)
	Coins500K = big.NewInt(500_000)
	Coins1M   = big.NewInt(1_000_000)
	Coins5M   = big.NewInt(5_000_000)
	Coins10M  = big.NewInt(10_000_000)
	Coins1B   = big.NewInt(1_000_000_000)
	Coins10B  = big.NewInt(10_000_000_000)
)

const AccountsClass = "ledger.Accounts"

var (
	addRedBalancesMethod = ledger.NewVoidMethodSignature(AccountsClass, "addRedBalances", ledger.TypeBigInteger, ledger.TypeString)
	getMethod            = ledger.NewNonVoidMethodSignature(AccountsClass, "get", "ledger.ExternallyOwnedAccount", ledger.TypeInt)
)

const (
	DefaultGasPerAccount = 200_000
	DefaultViewGasLimit  = 100_000
)

type Options struct {
	// ContainerClass is the class of the container of new accounts, ledger.Accounts or a subclass
	ContainerClass string
	GasPerAccount  *big.Int
	GasPrice       *big.Int
	ViewGasLimit   *big.Int
}

// Bootstrap creates funded accounts, paid for by a funder account.
//
// All the accounts of one call are created by a single constructor call, so
// either all of them exist afterwards or none does. Calls paid by the same
// funder are serialized.
type Bootstrap struct {
	factory        *requests.Factory
	model          *execution.Model
	classpath      ledger.TransactionReference
	containerClass string
	gasPerAccount  *big.Int
	gasPrice       *big.Int
	viewGasLimit   *big.Int

	mux         sync.Mutex
	funderLocks map[ledger.StorageReference]*sync.Mutex
}

func NewBootstrap(factory *requests.Factory, model *execution.Model, classpath ledger.TransactionReference, opts *Options) *Bootstrap {
	b := &Bootstrap{
		factory:        factory,
		model:          model,
		classpath:      classpath,
		containerClass: opts.ContainerClass,
		gasPerAccount:  opts.GasPerAccount,
		gasPrice:       opts.GasPrice,
		viewGasLimit:   opts.ViewGasLimit,
		funderLocks:    make(map[ledger.StorageReference]*sync.Mutex),
	}
	if b.containerClass == "" {
		b.containerClass = AccountsClass
	}
	if b.gasPerAccount == nil {
		b.gasPerAccount = big.NewInt(DefaultGasPerAccount)
	}
	if b.gasPrice == nil {
		b.gasPrice = big.NewInt(1)
	}
	if b.viewGasLimit == nil {
		b.viewGasLimit = big.NewInt(DefaultViewGasLimit)
	}
	return b
}

// Accounts are the accounts created by one call, with the container that holds them
type Accounts struct {
	Container ledger.StorageReference
	Accounts  []*keys.KeyedAccount
}

func (a *Accounts) Len() int {
	return len(a.Accounts)
}

func (a *Accounts) Get(i int) *keys.KeyedAccount {
	return a.Accounts[i]
}

// GreenRed is the pair of initial balances of an account with a red balance
type GreenRed struct {
	Green *big.Int
	Red   *big.Int
}

func (b *Bootstrap) lockFunder(funder ledger.StorageReference) func() {
	b.mux.Lock()
	l, ok := b.funderLocks[funder]
	if !ok {
		l = &sync.Mutex{}
		b.funderLocks[funder] = l
	}
	b.mux.Unlock()
	l.Lock()
	return l.Unlock
}

// CreateFundedAccounts creates one account for each amount of coins, paid by funder
func (b *Bootstrap) CreateFundedAccounts(ctx context.Context, funder *keys.KeyedAccount, coins ...*big.Int) (*Accounts, error) {
	pairs := make([]GreenRed, len(coins))
	for i, c := range coins {
		pairs[i] = GreenRed{Green: c}
	}
	return b.create(ctx, funder, false, pairs)
}

// CreateGreenRedAccounts creates one account for each pair, with both its green and red balances.
// The red balances are added by a second transaction of the funder, after the accounts exist.
func (b *Bootstrap) CreateGreenRedAccounts(ctx context.Context, funder *keys.KeyedAccount, pairs ...GreenRed) (*Accounts, error) {
	return b.create(ctx, funder, true, pairs)
}

func (b *Bootstrap) create(ctx context.Context, funder *keys.KeyedAccount, withRed bool, pairs []GreenRed) (*Accounts, error) {
	if len(pairs) == 0 {
		return nil, i18n.NewError(ctx, thmsgs.MsgBootstrapNoCoins)
	}
	ctx = log.WithLogField(ctx, "funder", funder.Address.String())

	sum, sumRed := new(big.Int), new(big.Int)
	balances := make([]string, len(pairs))
	redBalances := make([]string, len(pairs))
	identities := make([]string, len(pairs))
	kps := make([]*secp256k1.KeyPair, len(pairs))
	for i, p := range pairs {
		green := p.Green
		red := p.Red
		if red == nil {
			red = new(big.Int)
		}
		if green == nil || green.Sign() < 0 || red.Sign() < 0 {
			return nil, i18n.NewError(ctx, thmsgs.MsgInvalidCoinAmount, fmt.Sprintf("%v/%v", p.Green, p.Red), fmt.Sprintf("account %d", i))
		}
		kp, err := keys.GenerateKey(ctx)
		if err != nil {
			return nil, err
		}
		kps[i] = kp
		identities[i] = keys.Identity(kp)
		balances[i] = green.String()
		redBalances[i] = red.String()
		sum.Add(sum, green)
		sumRed.Add(sumRed, red)
	}
	gas := new(big.Int).Mul(b.gasPerAccount, big.NewInt(int64(len(pairs))))

	unlock := b.lockFunder(funder.Address)
	defer unlock()

	signer := funder.Signer()
	req, err := b.factory.ConstructorCall(ctx, signer, funder.Address, gas, b.gasPrice, b.classpath,
		ledger.NewConstructorSignature(b.containerClass, ledger.TypeBigInteger, ledger.TypeString, ledger.TypeString),
		ledger.BigIntegerOfBig(sum), ledger.StringOf(strings.Join(balances, " ")), ledger.StringOf(strings.Join(identities, " ")))
	if err != nil {
		return nil, err
	}
	container, err := b.model.AddConstructor(ctx, req)
	if err != nil {
		return nil, err
	}
	log.L(ctx).Debugf("Created container %s of %d accounts", container, len(pairs))

	if withRed {
		req, err := b.factory.InstanceMethodCall(ctx, signer, funder.Address, gas, b.gasPrice, b.classpath,
			addRedBalancesMethod, container, ledger.BigIntegerOfBig(sumRed), ledger.StringOf(strings.Join(redBalances, " ")))
		if err != nil {
			return nil, err
		}
		if err := b.model.AddVoid(ctx, req); err != nil {
			return nil, err
		}
	}

	accounts := make([]*keys.KeyedAccount, len(pairs))
	for i := range pairs {
		v, err := b.model.RunNonVoid(ctx, b.factory.InstanceViewCall(funder.Address, b.viewGasLimit, b.classpath, getMethod, container, ledger.IntOf(int32(i))))
		if err != nil {
			return nil, err
		}
		address, err := v.AsReference(ctx)
		if err != nil {
			return nil, i18n.WrapError(ctx, err, thmsgs.MsgBootstrapUnexpectedResult, i, container)
		}
		accounts[i] = keys.NewKeyedAccount(address, kps[i])
	}
	return &Accounts{
		Container: container,
		Accounts:  accounts,
	}, nil
}
