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
	"encoding/json"
	"fmt"
	"testing"

	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/stretchr/testify/assert"
)

func sampleMethodCall() *TransactionRequest {
	receiver := StorageReference{Transaction: testTxRef, Progressive: 1}
	return &TransactionRequest{
		Kind:      RequestKindInstanceMethodCall,
		Caller:    StorageReference{Transaction: testTxRef, Progressive: 0},
		Nonce:     fftypes.NewFFBigInt(3),
		ChainID:   "chain1",
		GasLimit:  fftypes.NewFFBigInt(200000),
		GasPrice:  fftypes.NewFFBigInt(1),
		Classpath: testTxRef,
		Method:    NewVoidMethodSignature("ledger.ExternallyOwnedAccount", "receive", TypeBigInteger),
		Receiver:  &receiver,
		Actuals:   []*StorageValue{BigIntegerOf(100)},
		Signature: []byte{0x01, 0x02},
	}
}

func TestBytesWithoutSignatureIgnoresSignature(t *testing.T) {
	r := sampleMethodCall()
	b1 := r.BytesWithoutSignature()
	r.Signature = []byte{0x03}
	assert.Equal(t, b1, r.BytesWithoutSignature())
}

func TestBytesWithoutSignatureCoversEveryField(t *testing.T) {
	base := sampleMethodCall().BytesWithoutSignature()
	mutations := []func(r *TransactionRequest){
		func(r *TransactionRequest) { r.Caller.Progressive = 9 },
		func(r *TransactionRequest) { r.Nonce = fftypes.NewFFBigInt(4) },
		func(r *TransactionRequest) { r.ChainID = "chain2" },
		func(r *TransactionRequest) { r.GasLimit = fftypes.NewFFBigInt(200001) },
		func(r *TransactionRequest) { r.GasPrice = fftypes.NewFFBigInt(2) },
		func(r *TransactionRequest) { r.Classpath = TransactionReference("ff" + string(testTxRef[2:])) },
		func(r *TransactionRequest) { r.Method = NewVoidMethodSignature("ledger.Gamete", "receive", TypeBigInteger) },
		func(r *TransactionRequest) { r.Receiver = &StorageReference{Transaction: testTxRef, Progressive: 2} },
		func(r *TransactionRequest) { r.Actuals = []*StorageValue{BigIntegerOf(101)} },
		func(r *TransactionRequest) { r.Actuals = []*StorageValue{IntOf(100)} },
	}
	for i, m := range mutations {
		r := sampleMethodCall()
		m(r)
		assert.NotEqual(t, base, r.BytesWithoutSignature(), fmt.Sprintf("mutation %d", i))
	}
}

func TestViewCallEncodingOmitsMutationFields(t *testing.T) {
	r := sampleMethodCall()
	r.Kind = RequestKindInstanceViewCall
	b1 := r.BytesWithoutSignature()
	r.Nonce = fftypes.NewFFBigInt(99)
	r.GasPrice = fftypes.NewFFBigInt(99)
	r.ChainID = "other"
	assert.Equal(t, b1, r.BytesWithoutSignature())
	assert.True(t, r.IsView())
}

func TestReferenceIncludesSignature(t *testing.T) {
	r := sampleMethodCall()
	ref1 := r.Reference()
	assert.Len(t, string(ref1), 64)
	assert.Equal(t, ref1, r.Reference())
	r.Signature = []byte{0x09}
	assert.NotEqual(t, ref1, r.Reference())
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, sampleMethodCall().Validate(ctx))

	r := sampleMethodCall()
	r.Signature = nil
	assert.Regexp(t, "FF21203.*signature", r.Validate(ctx))

	r = sampleMethodCall()
	r.Receiver = nil
	assert.Regexp(t, "FF21203.*receiver", r.Validate(ctx))

	r = sampleMethodCall()
	r.GasLimit = fftypes.NewFFBigInt(0)
	assert.Regexp(t, "FF21203.*gasLimit", r.Validate(ctx))

	r = sampleMethodCall()
	r.Kind = RequestKindJarStore
	assert.Regexp(t, "FF21203.*jar", r.Validate(ctx))

	r = sampleMethodCall()
	r.Kind = RequestKindConstructorCall
	assert.Regexp(t, "FF21203.*constructor", r.Validate(ctx))

	r = sampleMethodCall()
	r.Kind = "wrong"
	assert.Regexp(t, "FF21202", r.Validate(ctx))

	r = sampleMethodCall()
	r.Kind = RequestKindStaticViewCall
	r.Nonce = nil
	r.Signature = nil
	r.GasPrice = nil
	assert.NoError(t, r.Validate(ctx))
}

func TestIsVoid(t *testing.T) {
	r := sampleMethodCall()
	assert.True(t, r.IsVoid())
	r.Method = NewNonVoidMethodSignature("ledger.ExternallyOwnedAccount", "nonce", TypeBigInteger)
	assert.False(t, r.IsVoid())
	r.Kind = RequestKindJarStore
	assert.True(t, r.IsVoid())
	r.Kind = RequestKindConstructorCall
	assert.False(t, r.IsVoid())
}

func TestRequestJSON(t *testing.T) {
	r := sampleMethodCall()
	b, err := json.Marshal(r)
	assert.NoError(t, err)
	var r2 TransactionRequest
	err = json.Unmarshal(b, &r2)
	assert.NoError(t, err)
	assert.Equal(t, r.BytesWithoutSignature(), r2.BytesWithoutSignature())
	assert.Equal(t, r.Reference(), r2.Reference())
}

func TestErrorsRenderCause(t *testing.T) {
	rejected := NewRejectedError(CauseIncorrectNonce, "expected %d but found %d", 3, 5)
	assert.Equal(t, "IncorrectNonce: expected 3 but found 5", rejected.Error())
	assert.Equal(t, rejected, ParseRejectedError(rejected.Error()))
	assert.Equal(t, ErrorReasonRejected, MapErrorReason(fmt.Errorf("wrapped: %w", rejected)))

	failed := &FailedError{Cause: CauseInsufficientFunds, Message: "not enough balance"}
	assert.Equal(t, "InsufficientFundsError: not enough balance", failed.Error())
	assert.Equal(t, ErrorReason(""), MapErrorReason(failed))

	assert.Equal(t, ErrorReasonTimeout, MapErrorReason(&TimeoutError{Reference: testTxRef, Attempts: 3}))
	assert.True(t, CauseTag("InsufficientFundsError").Matches("InsufficientFunds"))
	assert.False(t, CauseTag("OutOfGasError").Matches("InsufficientFunds"))
}

func TestNullActualRejected(t *testing.T) {
	req := &TransactionRequest{
		Kind:      RequestKindStaticViewCall,
		Caller:    StorageReference{Transaction: testTxRef},
		GasLimit:  fftypes.NewFFBigInt(1000),
		Classpath: testTxRef,
		Method:    NewNonVoidMethodSignature("test.C", "m", TypeInt, TypeInt),
		Actuals:   []*StorageValue{nil},
	}
	assert.Regexp(t, "FF21203.*actuals\\[0\\]", req.Validate(context.Background()))
	assert.NotPanics(t, func() { req.Reference() })

	req.Actuals = []*StorageValue{IntOf(1), nil}
	assert.Regexp(t, "FF21203.*actuals\\[1\\]", req.Validate(context.Background()))
}
