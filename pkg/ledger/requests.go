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

package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-signer/pkg/ethtypes"
	"github.com/hyperledger/firefly-signer/pkg/rlp"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"golang.org/x/crypto/sha3"
)

type RequestKind string

const (
	RequestKindJarStore           RequestKind = "jar_store"
	RequestKindConstructorCall    RequestKind = "constructor_call"
	RequestKindInstanceMethodCall RequestKind = "instance_method_call"
	RequestKindStaticMethodCall   RequestKind = "static_method_call"
	RequestKindInstanceViewCall   RequestKind = "instance_view_call"
	RequestKindStaticViewCall     RequestKind = "static_view_call"
)

// TransactionRequest is the union of all the request shapes a Node accepts.
// Only the fields relevant to Kind are set. View calls carry no nonce, chain
// identifier, gas price or signature.
type TransactionRequest struct {
	Kind         RequestKind               `json:"kind"`
	Caller       StorageReference          `json:"caller"`
	Nonce        *fftypes.FFBigInt         `json:"nonce,omitempty"`
	ChainID      string                    `json:"chainId,omitempty"`
	GasLimit     *fftypes.FFBigInt         `json:"gasLimit"`
	GasPrice     *fftypes.FFBigInt         `json:"gasPrice,omitempty"`
	Classpath    TransactionReference      `json:"classpath"`
	Jar          ethtypes.HexBytes0xPrefix `json:"jar,omitempty"`
	Dependencies []TransactionReference    `json:"dependencies,omitempty"`
	Constructor  *ConstructorSignature     `json:"constructor,omitempty"`
	Method       *MethodSignature          `json:"method,omitempty"`
	Receiver     *StorageReference         `json:"receiver,omitempty"`
	Actuals      []*StorageValue           `json:"actuals,omitempty"`
	Signature    ethtypes.HexBytes0xPrefix `json:"signature,omitempty"`
}

func (r *TransactionRequest) IsView() bool {
	return r.Kind == RequestKindInstanceViewCall || r.Kind == RequestKindStaticViewCall
}

// IsVoid is true for requests that return no value on success
func (r *TransactionRequest) IsVoid() bool {
	switch r.Kind {
	case RequestKindJarStore:
		return true
	case RequestKindConstructorCall:
		return false
	default:
		return r.Method == nil || r.Method.IsVoid()
	}
}

// Validate checks that the fields required by the kind of the request are set
func (r *TransactionRequest) Validate(ctx context.Context) error {
	missing := func(field string) error {
		return i18n.NewError(ctx, thmsgs.MsgMissingRequestField, field, r.Kind)
	}
	if r.Caller.IsZero() {
		return missing("caller")
	}
	if r.GasLimit == nil || r.GasLimit.Int().Sign() <= 0 {
		return missing("gasLimit")
	}
	if r.Classpath.IsZero() {
		return missing("classpath")
	}
	if !r.IsView() {
		if r.Nonce == nil {
			return missing("nonce")
		}
		if r.GasPrice == nil {
			return missing("gasPrice")
		}
		if len(r.Signature) == 0 {
			return missing("signature")
		}
	}
	switch r.Kind {
	case RequestKindJarStore:
		if len(r.Jar) == 0 {
			return missing("jar")
		}
	case RequestKindConstructorCall:
		if r.Constructor == nil {
			return missing("constructor")
		}
	case RequestKindInstanceMethodCall, RequestKindInstanceViewCall:
		if r.Method == nil {
			return missing("method")
		}
		if r.Receiver == nil || r.Receiver.IsZero() {
			return missing("receiver")
		}
	case RequestKindStaticMethodCall, RequestKindStaticViewCall:
		if r.Method == nil {
			return missing("method")
		}
	default:
		return i18n.NewError(ctx, thmsgs.MsgInvalidRequestErr, r.Kind, "unknown request kind")
	}
	for i, a := range r.Actuals {
		if a == nil {
			return missing(fmt.Sprintf("actuals[%d]", i))
		}
	}
	return nil
}

// BytesWithoutSignature is the canonical encoding of the request, that is
// signed by the caller. It never includes the signature itself.
func (r *TransactionRequest) BytesWithoutSignature() []byte {
	fields := rlp.List{
		rlp.Data(r.Kind),
		rlp.Data(r.Caller.String()),
	}
	if !r.IsView() {
		fields = append(fields, wrapBigInt(r.Nonce), rlp.Data(r.ChainID))
	}
	fields = append(fields, wrapBigInt(r.GasLimit))
	if !r.IsView() {
		fields = append(fields, wrapBigInt(r.GasPrice))
	}
	fields = append(fields, rlp.Data(r.Classpath))

	switch r.Kind {
	case RequestKindJarStore:
		deps := rlp.List{}
		for _, d := range r.Dependencies {
			deps = append(deps, rlp.Data(d))
		}
		fields = append(fields, rlp.Data(r.Jar), deps)
	case RequestKindConstructorCall:
		if r.Constructor != nil {
			fields = append(fields, rlp.Data(r.Constructor.String()))
		}
	case RequestKindInstanceMethodCall, RequestKindInstanceViewCall:
		if r.Method != nil {
			fields = append(fields, rlp.Data(r.Method.String()))
		}
		if r.Receiver != nil {
			fields = append(fields, rlp.Data(r.Receiver.String()))
		}
	case RequestKindStaticMethodCall, RequestKindStaticViewCall:
		if r.Method != nil {
			fields = append(fields, rlp.Data(r.Method.String()))
		}
	}
	if r.Kind != RequestKindJarStore {
		actuals := rlp.List{}
		for _, a := range r.Actuals {
			if a == nil {
				actuals = append(actuals, rlp.List{})
				continue
			}
			actuals = append(actuals, rlp.List{rlp.Data(a.Type), rlp.Data(a.Value)})
		}
		fields = append(fields, actuals)
	}
	return fields.Encode()
}

// Reference is the hash that identifies the request, signature included, once
// it has been submitted to a Node
func (r *TransactionRequest) Reference() TransactionReference {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(r.BytesWithoutSignature())
	hash.Write(r.Signature)
	return NewTransactionReference(hash.Sum(nil))
}

func wrapBigInt(i *fftypes.FFBigInt) rlp.Data {
	if i == nil {
		return rlp.WrapInt(big.NewInt(0))
	}
	return rlp.WrapInt(i.Int())
}
