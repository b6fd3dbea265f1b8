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

package requests

import (
	"context"
	"math/big"

	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-txharness/pkg/keys"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
)

// NonceSource allocates the nonces of the requests built by a Factory
type NonceSource interface {
	NonceFor(ctx context.Context, account ledger.StorageReference) (*big.Int, error)
}

// Factory builds signed requests, one builder per request shape.
//
// Signed requests take their nonce from the NonceSource at build time, so the
// order in which requests of an account are built is the order of their nonces.
// View requests are neither nonced nor signed.
type Factory struct {
	nonces  NonceSource
	chainID string
}

func NewFactory(nonces NonceSource, chainID string) *Factory {
	return &Factory{
		nonces:  nonces,
		chainID: chainID,
	}
}

func (f *Factory) ChainID() string {
	return f.chainID
}

// JarStore builds a request that installs a jar, whose classes can use those of the dependencies
func (f *Factory) JarStore(ctx context.Context, signer keys.Signer, caller ledger.StorageReference, gasLimit, gasPrice *big.Int, classpath ledger.TransactionReference, jar []byte, dependencies ...ledger.TransactionReference) (*ledger.TransactionRequest, error) {
	return f.sign(ctx, signer, &ledger.TransactionRequest{
		Kind:         ledger.RequestKindJarStore,
		Caller:       caller,
		GasLimit:     (*fftypes.FFBigInt)(gasLimit),
		GasPrice:     (*fftypes.FFBigInt)(gasPrice),
		Classpath:    classpath,
		Jar:          jar,
		Dependencies: dependencies,
	})
}

func (f *Factory) ConstructorCall(ctx context.Context, signer keys.Signer, caller ledger.StorageReference, gasLimit, gasPrice *big.Int, classpath ledger.TransactionReference, constructor *ledger.ConstructorSignature, actuals ...*ledger.StorageValue) (*ledger.TransactionRequest, error) {
	return f.sign(ctx, signer, &ledger.TransactionRequest{
		Kind:        ledger.RequestKindConstructorCall,
		Caller:      caller,
		GasLimit:    (*fftypes.FFBigInt)(gasLimit),
		GasPrice:    (*fftypes.FFBigInt)(gasPrice),
		Classpath:   classpath,
		Constructor: constructor,
		Actuals:     actuals,
	})
}

// InstanceMethodCall builds a call of a method on receiver. Whether the call
// is void follows from the return type of the method.
func (f *Factory) InstanceMethodCall(ctx context.Context, signer keys.Signer, caller ledger.StorageReference, gasLimit, gasPrice *big.Int, classpath ledger.TransactionReference, method *ledger.MethodSignature, receiver ledger.StorageReference, actuals ...*ledger.StorageValue) (*ledger.TransactionRequest, error) {
	return f.sign(ctx, signer, &ledger.TransactionRequest{
		Kind:      ledger.RequestKindInstanceMethodCall,
		Caller:    caller,
		GasLimit:  (*fftypes.FFBigInt)(gasLimit),
		GasPrice:  (*fftypes.FFBigInt)(gasPrice),
		Classpath: classpath,
		Method:    method,
		Receiver:  &receiver,
		Actuals:   actuals,
	})
}

func (f *Factory) StaticMethodCall(ctx context.Context, signer keys.Signer, caller ledger.StorageReference, gasLimit, gasPrice *big.Int, classpath ledger.TransactionReference, method *ledger.MethodSignature, actuals ...*ledger.StorageValue) (*ledger.TransactionRequest, error) {
	return f.sign(ctx, signer, &ledger.TransactionRequest{
		Kind:      ledger.RequestKindStaticMethodCall,
		Caller:    caller,
		GasLimit:  (*fftypes.FFBigInt)(gasLimit),
		GasPrice:  (*fftypes.FFBigInt)(gasPrice),
		Classpath: classpath,
		Method:    method,
		Actuals:   actuals,
	})
}

func (f *Factory) InstanceViewCall(caller ledger.StorageReference, gasLimit *big.Int, classpath ledger.TransactionReference, method *ledger.MethodSignature, receiver ledger.StorageReference, actuals ...*ledger.StorageValue) *ledger.TransactionRequest {
	return &ledger.TransactionRequest{
		Kind:      ledger.RequestKindInstanceViewCall,
		Caller:    caller,
		GasLimit:  (*fftypes.FFBigInt)(gasLimit),
		Classpath: classpath,
		Method:    method,
		Receiver:  &receiver,
		Actuals:   actuals,
	}
}

func (f *Factory) StaticViewCall(caller ledger.StorageReference, gasLimit *big.Int, classpath ledger.TransactionReference, method *ledger.MethodSignature, actuals ...*ledger.StorageValue) *ledger.TransactionRequest {
	return &ledger.TransactionRequest{
		Kind:      ledger.RequestKindStaticViewCall,
		Caller:    caller,
		GasLimit:  (*fftypes.FFBigInt)(gasLimit),
		Classpath: classpath,
		Method:    method,
		Actuals:   actuals,
	}
}

func (f *Factory) sign(ctx context.Context, signer keys.Signer, req *ledger.TransactionRequest) (*ledger.TransactionRequest, error) {
	nonce, err := f.nonces.NonceFor(ctx, req.Caller)
	if err != nil {
		return nil, err
	}
	req.Nonce = (*fftypes.FFBigInt)(nonce)
	req.ChainID = f.chainID
	if req.Signature, err = signer.Sign(ctx, req.BytesWithoutSignature()); err != nil {
		return nil, err
	}
	log.L(ctx).Debugf("Built %s request caller=%s nonce=%s", req.Kind, req.Caller, nonce)
	return req, nil
}
