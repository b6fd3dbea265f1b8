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

package environment

import (
	"context"
	"math/big"

	"github.com/hyperledger/firefly-txharness/pkg/bootstrap"
	"github.com/hyperledger/firefly-txharness/pkg/execution"
	"github.com/hyperledger/firefly-txharness/pkg/keys"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
)

// Fixture is the set of funded accounts of one test, with helpers that
// build, sign and submit a request in one call.
//
// Requests use Classpath, which starts as the base jar of the environment.
type Fixture struct {
	env       *Environment
	accounts  *bootstrap.Accounts
	Classpath ledger.TransactionReference
}

// NewFixture funds one account per amount of coins, from the local gamete
func (env *Environment) NewFixture(ctx context.Context, coins ...*big.Int) (*Fixture, error) {
	if err := env.checkOpen(ctx); err != nil {
		return nil, err
	}
	accounts, err := env.bootstrap.CreateFundedAccounts(ctx, env.localGamete, coins...)
	if err != nil {
		return nil, err
	}
	return env.newFixture(accounts), nil
}

// NewGreenRedFixture funds one account per pair, with both green and red coins
func (env *Environment) NewGreenRedFixture(ctx context.Context, pairs ...bootstrap.GreenRed) (*Fixture, error) {
	if err := env.checkOpen(ctx); err != nil {
		return nil, err
	}
	accounts, err := env.bootstrap.CreateGreenRedAccounts(ctx, env.localGamete, pairs...)
	if err != nil {
		return nil, err
	}
	return env.newFixture(accounts), nil
}

func (env *Environment) newFixture(accounts *bootstrap.Accounts) *Fixture {
	return &Fixture{
		env:       env,
		accounts:  accounts,
		Classpath: env.takamakaCode,
	}
}

func (f *Fixture) Environment() *Environment {
	return f.env
}

func (f *Fixture) Account(i int) *keys.KeyedAccount {
	return f.accounts.Get(i)
}

func (f *Fixture) Accounts() *bootstrap.Accounts {
	return f.accounts
}

func (f *Fixture) AddJarStore(ctx context.Context, account *keys.KeyedAccount, gasLimit, gasPrice *big.Int, jar []byte, dependencies ...ledger.TransactionReference) (ledger.TransactionReference, error) {
	req, err := f.env.factory.JarStore(ctx, account.Signer(), account.Address, gasLimit, gasPrice, f.Classpath, jar, dependencies...)
	if err != nil {
		return "", err
	}
	return f.env.model.AddJarStore(ctx, req)
}

func (f *Fixture) PostJarStore(ctx context.Context, account *keys.KeyedAccount, gasLimit, gasPrice *big.Int, jar []byte, dependencies ...ledger.TransactionReference) (*execution.PendingHandle, error) {
	req, err := f.env.factory.JarStore(ctx, account.Signer(), account.Address, gasLimit, gasPrice, f.Classpath, jar, dependencies...)
	if err != nil {
		return nil, err
	}
	return f.env.model.Post(ctx, req)
}

// AddConstructorCall returns the reference of the object created
func (f *Fixture) AddConstructorCall(ctx context.Context, account *keys.KeyedAccount, gasLimit, gasPrice *big.Int, constructor *ledger.ConstructorSignature, actuals ...*ledger.StorageValue) (ledger.StorageReference, error) {
	req, err := f.env.factory.ConstructorCall(ctx, account.Signer(), account.Address, gasLimit, gasPrice, f.Classpath, constructor, actuals...)
	if err != nil {
		return ledger.StorageReference{}, err
	}
	return f.env.model.AddConstructor(ctx, req)
}

func (f *Fixture) PostConstructorCall(ctx context.Context, account *keys.KeyedAccount, gasLimit, gasPrice *big.Int, constructor *ledger.ConstructorSignature, actuals ...*ledger.StorageValue) (*execution.PendingHandle, error) {
	req, err := f.env.factory.ConstructorCall(ctx, account.Signer(), account.Address, gasLimit, gasPrice, f.Classpath, constructor, actuals...)
	if err != nil {
		return nil, err
	}
	return f.env.model.Post(ctx, req)
}

// AddInstanceMethodCall returns the result of the method, or nil if it is void
func (f *Fixture) AddInstanceMethodCall(ctx context.Context, account *keys.KeyedAccount, gasLimit, gasPrice *big.Int, method *ledger.MethodSignature, receiver ledger.StorageReference, actuals ...*ledger.StorageValue) (*ledger.StorageValue, error) {
	req, err := f.env.factory.InstanceMethodCall(ctx, account.Signer(), account.Address, gasLimit, gasPrice, f.Classpath, method, receiver, actuals...)
	if err != nil {
		return nil, err
	}
	return f.env.model.Add(ctx, req)
}

func (f *Fixture) PostInstanceMethodCall(ctx context.Context, account *keys.KeyedAccount, gasLimit, gasPrice *big.Int, method *ledger.MethodSignature, receiver ledger.StorageReference, actuals ...*ledger.StorageValue) (*execution.PendingHandle, error) {
	req, err := f.env.factory.InstanceMethodCall(ctx, account.Signer(), account.Address, gasLimit, gasPrice, f.Classpath, method, receiver, actuals...)
	if err != nil {
		return nil, err
	}
	return f.env.model.Post(ctx, req)
}

func (f *Fixture) AddStaticMethodCall(ctx context.Context, account *keys.KeyedAccount, gasLimit, gasPrice *big.Int, method *ledger.MethodSignature, actuals ...*ledger.StorageValue) (*ledger.StorageValue, error) {
	req, err := f.env.factory.StaticMethodCall(ctx, account.Signer(), account.Address, gasLimit, gasPrice, f.Classpath, method, actuals...)
	if err != nil {
		return nil, err
	}
	return f.env.model.Add(ctx, req)
}

func (f *Fixture) PostStaticMethodCall(ctx context.Context, account *keys.KeyedAccount, gasLimit, gasPrice *big.Int, method *ledger.MethodSignature, actuals ...*ledger.StorageValue) (*execution.PendingHandle, error) {
	req, err := f.env.factory.StaticMethodCall(ctx, account.Signer(), account.Address, gasLimit, gasPrice, f.Classpath, method, actuals...)
	if err != nil {
		return nil, err
	}
	return f.env.model.Post(ctx, req)
}

func (f *Fixture) RunInstanceViewCall(ctx context.Context, account *keys.KeyedAccount, gasLimit *big.Int, method *ledger.MethodSignature, receiver ledger.StorageReference, actuals ...*ledger.StorageValue) (*ledger.StorageValue, error) {
	return f.env.model.Run(ctx, f.env.factory.InstanceViewCall(account.Address, gasLimit, f.Classpath, method, receiver, actuals...))
}

func (f *Fixture) RunStaticViewCall(ctx context.Context, account *keys.KeyedAccount, gasLimit *big.Int, method *ledger.MethodSignature, actuals ...*ledger.StorageValue) (*ledger.StorageValue, error) {
	return f.env.model.Run(ctx, f.env.factory.StaticViewCall(account.Address, gasLimit, f.Classpath, method, actuals...))
}

// GetRequest reads back a request the ledger has recorded an outcome for
func (f *Fixture) GetRequest(ctx context.Context, ref ledger.TransactionReference) (*ledger.TransactionRequest, error) {
	req, _, err := f.env.node.GetRequest(ctx, ref)
	return req, err
}

// GetResponse reads back the recorded outcome of a request, without waiting for it
func (f *Fixture) GetResponse(ctx context.Context, ref ledger.TransactionReference) (*ledger.TransactionResponse, error) {
	res, _, err := f.env.node.GetResponse(ctx, ref)
	return res, err
}
