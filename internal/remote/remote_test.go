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

package remote

import (
	"context"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyperledger/firefly-common/pkg/ffresty"
	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/hyperledger/firefly-common/pkg/httpserver"
	"github.com/hyperledger/firefly-signer/pkg/secp256k1"
	"github.com/hyperledger/firefly-txharness/internal/memnode"
	"github.com/hyperledger/firefly-txharness/internal/metrics"
	"github.com/hyperledger/firefly-txharness/internal/nodeserver"
	"github.com/hyperledger/firefly-txharness/internal/thconfig"
	"github.com/hyperledger/firefly-txharness/pkg/execution"
	"github.com/hyperledger/firefly-txharness/pkg/keys"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
	"github.com/hyperledger/firefly-txharness/pkg/nonces"
	"github.com/hyperledger/firefly-txharness/pkg/outcomes"
	"github.com/hyperledger/firefly-txharness/pkg/requests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainID = "remote"

// newServedNode serves an in-memory node, and returns a remote client of it
func newServedNode(t *testing.T) (*Node, *secp256k1.KeyPair, func()) {
	ctx := context.Background()
	thconfig.Reset()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := strings.Split(ln.Addr().String(), ":")[1]
	ln.Close()
	thconfig.APIConfig.Set(httpserver.HTTPConfPort, port)
	thconfig.APIConfig.Set(httpserver.HTTPConfAddress, "127.0.0.1")

	kp := keys.DeriveKey([]byte("remote"), 0)
	n, err := memnode.New(ctx, &memnode.Config{
		ChainID:              testChainID,
		InitialSupply:        big.NewInt(1_000_000_000),
		InitialRedSupply:     big.NewInt(1_000_000_000),
		MaxGasPerTransaction: big.NewInt(1_000_000),
		MinGasPrice:          big.NewInt(1),
		QueueLength:          10,
		GameteIdentity:       keys.Identity(kp),
	})
	require.NoError(t, err)
	s, err := nodeserver.NewServer(ctx, n, metrics.NewMetricsManager(ctx))
	require.NoError(t, err)
	require.NoError(t, s.Start())

	thconfig.NodeRemoteConfig.Set(ffresty.HTTPConfigURL, fmt.Sprintf("http://127.0.0.1:%s", port))
	rn, err := New(ctx, thconfig.NodeRemoteConfig)
	require.NoError(t, err)

	return rn, kp, func() {
		rn.Close(ctx)
		s.Close()
		n.Close(ctx)
	}
}

func newJSONServer(t *testing.T, status int, contentType, body string) (*Node, func()) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	thconfig.Reset()
	rn, err := NewWithURL(context.Background(), thconfig.NodeRemoteConfig, server.URL)
	require.NoError(t, err)
	assert.Equal(t, server.URL, rn.URL())
	return rn, server.Close
}

func TestSubmitThroughServer(t *testing.T) {
	ctx := context.Background()
	rn, kp, done := newServedNode(t)
	defer done()

	manifest, _, err := rn.GetManifest(ctx)
	require.NoError(t, err)
	takamakaCode, _, err := rn.GetTakamakaCode(ctx)
	require.NoError(t, err)
	tag, _, err := rn.GetClassTag(ctx, *manifest)
	require.NoError(t, err)
	assert.Equal(t, memnode.ClassManifest, tag.ClassName)

	res, _, err := rn.RunViewTransaction(ctx, &ledger.TransactionRequest{
		Kind:      ledger.RequestKindInstanceViewCall,
		Caller:    *manifest,
		GasLimit:  fftypes.NewFFBigInt(10_000),
		Classpath: *takamakaCode,
		Method:    ledger.NewNonVoidMethodSignature(memnode.ClassManifest, "getGamete", memnode.ClassGamete),
		Receiver:  manifest,
	})
	require.NoError(t, err)
	gamete, err := res.Result.AsReference(ctx)
	require.NoError(t, err)

	mm := metrics.NewMetricsManager(ctx)
	nc, err := nonces.NewCoordinator(ctx, rn, mm, &nonces.Options{})
	require.NoError(t, err)
	f := requests.NewFactory(nc, testChainID)
	model := execution.NewModel(rn, mm, &execution.Options{PollDelay: time.Millisecond})
	signer := keys.NewSigner(kp)

	newKey, err := keys.GenerateKey(ctx)
	require.NoError(t, err)
	constructor := ledger.NewConstructorSignature(memnode.ClassExternallyOwnedAccount, ledger.TypeBigInteger, ledger.TypeString)

	// blocking add
	req, err := f.ConstructorCall(ctx, signer, gamete, big.NewInt(10_000), big.NewInt(1), *takamakaCode, constructor,
		ledger.BigIntegerOf(1000), ledger.StringOf(keys.Identity(newKey)))
	require.NoError(t, err)
	account, err := model.AddConstructor(ctx, req)
	require.NoError(t, err)

	// post then resolve, polling the server until delivered
	req, err = f.InstanceMethodCall(ctx, signer, gamete, big.NewInt(10_000), big.NewInt(1), *takamakaCode,
		ledger.NewVoidMethodSignature(memnode.ClassExternallyOwnedAccount, "receive", ledger.TypeBigInteger), account, ledger.BigIntegerOf(10))
	require.NoError(t, err)
	h, err := model.Post(ctx, req)
	require.NoError(t, err)
	v, err := h.Resolve(ctx)
	require.NoError(t, err)
	assert.Nil(t, v)

	stored, _, err := rn.GetRequest(ctx, h.Reference())
	require.NoError(t, err)
	assert.Equal(t, h.Reference(), stored.Reference())
	assert.Equal(t, req.Signature, stored.Signature)

	balance, err := model.RunNonVoid(ctx, f.InstanceViewCall(account, big.NewInt(10_000), *takamakaCode,
		ledger.NewNonVoidMethodSignature(memnode.ClassExternallyOwnedAccount, "balance", ledger.TypeBigInteger), account))
	require.NoError(t, err)
	i, err := balance.AsBigInt(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1010), i.Int64())

	nonce, err := nc.QueryNonce(ctx, gamete)
	require.NoError(t, err)
	assert.Equal(t, int64(2), nonce.Int64())

	// a failure comes back with its cause
	req, err = f.InstanceMethodCall(ctx, signer, gamete, big.NewInt(10_000), big.NewInt(1), *takamakaCode,
		ledger.NewVoidMethodSignature(memnode.ClassExternallyOwnedAccount, "receive", ledger.TypeBigInteger), account, ledger.BigIntegerOf(-1))
	require.NoError(t, err)
	outcomes.AssertFailureMatches(t, ledger.CauseIllegalArgument, "", func() error {
		return model.AddVoid(ctx, req)
	})

	// a rejection too, with no nonce consumed
	req, err = f.InstanceMethodCall(ctx, signer, gamete, big.NewInt(10_000_000), big.NewInt(1), *takamakaCode,
		ledger.NewVoidMethodSignature(memnode.ClassExternallyOwnedAccount, "receive", ledger.TypeBigInteger), account, ledger.BigIntegerOf(1))
	require.NoError(t, err)
	outcomes.AssertRejectedMatches(t, ledger.CauseGasLimitTooHigh, func() error {
		_, err := model.Post(ctx, req)
		return err
	})
	nonce, err = nc.QueryNonce(ctx, gamete)
	require.NoError(t, err)
	assert.Equal(t, int64(3), nonce.Int64())
}

func TestGetResponsePendingIsNotFound(t *testing.T) {
	ctx := context.Background()
	rn, _, done := newServedNode(t)
	defer done()

	_, reason, err := rn.GetResponse(ctx, "abababababababababababababababababababababababababababababababab")
	assert.Equal(t, ledger.ErrorReasonNotFound, reason)
	assert.Regexp(t, "FF21214.*status=404.*FF21217", err)

	_, reason, err = rn.GetRequest(ctx, "abababababababababababababababababababababababababababababababab")
	assert.Equal(t, ledger.ErrorReasonNotFound, reason)
	assert.Regexp(t, "FF21214.*status=404.*FF21239", err)

	_, reason, err = rn.GetClassTag(ctx, ledger.StorageReference{Transaction: "abababababababababababababababababababababababababababababababab", Progressive: 3})
	assert.Equal(t, ledger.ErrorReasonNotFound, reason)
	assert.Regexp(t, "FF21218", err)
}

func TestRejectedMappedBack(t *testing.T) {
	rn, done := newJSONServer(t, http.StatusUnprocessableEntity, "application/json",
		`{"reason":"rejected","error":"IncorrectNonce: expected 1 but got 2"}`)
	defer done()

	_, reason, err := rn.AddTransaction(context.Background(), &ledger.TransactionRequest{})
	assert.Equal(t, ledger.ErrorReasonRejected, reason)
	rejected, ok := err.(*ledger.RejectedError)
	require.True(t, ok)
	assert.Equal(t, ledger.CauseIncorrectNonce, rejected.Cause)
	assert.Equal(t, "expected 1 but got 2", rejected.Message)

	_, reason, err = rn.PostTransaction(context.Background(), &ledger.TransactionRequest{})
	assert.Equal(t, ledger.ErrorReasonRejected, reason)
	assert.IsType(t, &ledger.RejectedError{}, err)
}

func TestServerErrorHasNoReason(t *testing.T) {
	rn, done := newJSONServer(t, http.StatusInternalServerError, "application/json", `{"error":"pop"}`)
	defer done()

	_, reason, err := rn.RunViewTransaction(context.Background(), &ledger.TransactionRequest{})
	assert.Empty(t, reason)
	assert.Regexp(t, "FF21214.*status=500.*pop", err)
}

func TestInvalidContentType(t *testing.T) {
	rn, done := newJSONServer(t, http.StatusBadGateway, "text/html", `<html>oops</html>`)
	defer done()

	_, reason, err := rn.GetManifest(context.Background())
	assert.Empty(t, reason)
	assert.Regexp(t, "FF21215.*502.*text/html", err)

	_, _, err = rn.GetTakamakaCode(context.Background())
	assert.Regexp(t, "FF21215", err)
}

func TestTransportFailure(t *testing.T) {
	thconfig.Reset()
	rn, err := NewWithURL(context.Background(), thconfig.NodeRemoteConfig, "http://127.0.0.1:1")
	require.NoError(t, err)

	_, reason, err := rn.GetResponse(context.Background(), "abababababababababababababababababababababababababababababababab")
	assert.Empty(t, reason)
	assert.Regexp(t, "FF21237", err)
}
