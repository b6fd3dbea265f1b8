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

package nodeserver

import (
	"context"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/hyperledger/firefly-common/pkg/config"
	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/hyperledger/firefly-common/pkg/httpserver"
	"github.com/hyperledger/firefly-signer/pkg/secp256k1"
	"github.com/hyperledger/firefly-txharness/internal/memnode"
	"github.com/hyperledger/firefly-txharness/internal/metrics"
	"github.com/hyperledger/firefly-txharness/internal/thconfig"
	"github.com/hyperledger/firefly-txharness/pkg/keys"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	url       string
	node      *memnode.Node
	gameteKey *secp256k1.KeyPair
}

func newTestServer(t *testing.T, metricsEnabled bool) (*testServer, func()) {
	ctx := context.Background()
	thconfig.Reset()
	config.Set(thconfig.MetricsEnabled, metricsEnabled)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := strings.Split(ln.Addr().String(), ":")[1]
	ln.Close()
	thconfig.APIConfig.Set(httpserver.HTTPConfPort, port)
	thconfig.APIConfig.Set(httpserver.HTTPConfAddress, "127.0.0.1")

	kp := keys.DeriveKey([]byte("nodeserver"), 0)
	n, err := memnode.New(ctx, &memnode.Config{
		ChainID:              "test",
		InitialSupply:        big.NewInt(1_000_000_000),
		InitialRedSupply:     big.NewInt(1_000_000_000),
		MaxGasPerTransaction: big.NewInt(1_000_000),
		MinGasPrice:          big.NewInt(1),
		QueueLength:          10,
		GameteIdentity:       keys.Identity(kp),
	})
	require.NoError(t, err)

	s, err := NewServer(ctx, n, metrics.NewMetricsManager(ctx))
	require.NoError(t, err)
	err = s.Start()
	require.NoError(t, err)

	return &testServer{
			url:       fmt.Sprintf("http://127.0.0.1:%s", port),
			node:      n,
			gameteKey: kp,
		}, func() {
			s.Close()
			n.Close(ctx)
		}
}

func TestGetManifestAndTakamakaCode(t *testing.T) {
	ts, done := newTestServer(t, false)
	defer done()

	var manifest ledger.StorageReference
	res, err := resty.New().R().SetResult(&manifest).Get(ts.url + "/manifest")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode())
	expected, _, _ := ts.node.GetManifest(context.Background())
	assert.Equal(t, *expected, manifest)

	var takamakaCode ledger.TransactionReference
	res, err = resty.New().R().SetResult(&takamakaCode).Get(ts.url + "/takamakacode")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode())
	assert.Len(t, takamakaCode.String(), 64)

	var tag ledger.ClassTag
	res, err = resty.New().R().
		SetPathParam("ref", manifest.String()).
		SetResult(&tag).
		Get(ts.url + "/classtags/{ref}")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode())
	assert.Equal(t, memnode.ClassManifest, tag.ClassName)
	assert.Equal(t, takamakaCode, tag.Jar)
}

func TestErrorReasonsAndStatus(t *testing.T) {
	ts, done := newTestServer(t, false)
	defer done()

	var errRes ledger.ErrorResponse
	unknown := ledger.StorageReference{Transaction: "abababababababababababababababababababababababababababababababab"}

	res, err := resty.New().R().
		SetPathParam("ref", unknown.String()).
		SetError(&errRes).
		Get(ts.url + "/classtags/{ref}")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode())
	assert.Equal(t, ledger.ErrorReasonNotFound, errRes.Reason)
	assert.Regexp(t, "FF21218", errRes.Error)

	res, err = resty.New().R().
		SetError(&errRes).
		Get(ts.url + "/classtags/wrong")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode())
	assert.Equal(t, ledger.ErrorReasonInvalidInputs, errRes.Reason)
	assert.Regexp(t, "FF21205", errRes.Error)

	res, err = resty.New().R().
		SetError(&errRes).
		Get(ts.url + "/responses/" + unknown.Transaction.String())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode())
	assert.Regexp(t, "FF21217", errRes.Error)

	res, err = resty.New().R().
		SetError(&errRes).
		Get(ts.url + "/requests/" + unknown.Transaction.String())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode())
	assert.Equal(t, ledger.ErrorReasonNotFound, errRes.Reason)
	assert.Regexp(t, "FF21239", errRes.Error)

	res, err = resty.New().R().
		SetError(&errRes).
		Get(ts.url + "/requests/wrong")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode())
	assert.Regexp(t, "FF21204", errRes.Error)

	res, err = resty.New().R().
		SetError(&errRes).
		Get(ts.url + "/responses/wrong")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode())
	assert.Regexp(t, "FF21204", errRes.Error)

	res, err = resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody("!json").
		SetError(&errRes).
		Post(ts.url + "/transactions/add")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode())
	assert.Equal(t, ledger.ErrorReasonInvalidInputs, errRes.Reason)
	assert.Regexp(t, "FF21202", errRes.Error)

	res, err = resty.New().R().
		SetHeader("Content-Type", "application/json").
		SetBody("null").
		SetError(&errRes).
		Post(ts.url + "/views/run")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode())
	assert.Regexp(t, "FF21202.*empty body", errRes.Error)

	res, err = resty.New().R().
		SetError(&errRes).
		Get(ts.url + "/not/a/route")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode())
	assert.Regexp(t, "FF00167", errRes.Error)
}

func TestAddRejectedIsUnprocessable(t *testing.T) {
	ts, done := newTestServer(t, false)
	defer done()
	ctx := context.Background()

	manifest, _, err := ts.node.GetManifest(ctx)
	require.NoError(t, err)
	takamakaCode, _, err := ts.node.GetTakamakaCode(ctx)
	require.NoError(t, err)

	// the manifest is not an account, so cannot pay for anything
	req := &ledger.TransactionRequest{
		Kind:      ledger.RequestKindInstanceMethodCall,
		Caller:    *manifest,
		Nonce:     fftypes.NewFFBigInt(0),
		ChainID:   "test",
		GasLimit:  fftypes.NewFFBigInt(1000),
		GasPrice:  fftypes.NewFFBigInt(1),
		Classpath: *takamakaCode,
		Method:    ledger.NewNonVoidMethodSignature(memnode.ClassManifest, "getChainId", ledger.TypeString),
		Receiver:  manifest,
	}
	sig, err := keys.NewSigner(ts.gameteKey).Sign(ctx, req.BytesWithoutSignature())
	require.NoError(t, err)
	req.Signature = sig

	var errRes ledger.ErrorResponse
	res, err := resty.New().R().
		SetBody(req).
		SetError(&errRes).
		Post(ts.url + "/transactions/post")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode())
	assert.Equal(t, ledger.ErrorReasonRejected, errRes.Reason)
	rejection := ledger.ParseRejectedError(errRes.Error)
	assert.Equal(t, ledger.CauseUnknownCaller, rejection.Cause)
}

func TestRunView(t *testing.T) {
	ts, done := newTestServer(t, false)
	defer done()
	ctx := context.Background()

	manifest, _, err := ts.node.GetManifest(ctx)
	require.NoError(t, err)
	takamakaCode, _, err := ts.node.GetTakamakaCode(ctx)
	require.NoError(t, err)

	req := &ledger.TransactionRequest{
		Kind:      ledger.RequestKindInstanceViewCall,
		Caller:    *manifest,
		GasLimit:  fftypes.NewFFBigInt(10_000),
		Classpath: *takamakaCode,
		Method:    ledger.NewNonVoidMethodSignature(memnode.ClassManifest, "getChainId", ledger.TypeString),
		Receiver:  manifest,
	}
	var txRes ledger.TransactionResponse
	res, err := resty.New().R().
		SetBody(req).
		SetResult(&txRes).
		Post(ts.url + "/views/run")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode())
	assert.Equal(t, ledger.TransactionStatusSucceeded, txRes.Status)
	chainID, err := txRes.Result.AsString(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", chainID)

	// a view is not a transaction
	var errRes ledger.ErrorResponse
	res, err = resty.New().R().
		SetBody(req).
		SetError(&errRes).
		Post(ts.url + "/transactions/add")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode())
	assert.Regexp(t, "FF21211", errRes.Error)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, done := newTestServer(t, true)
	defer done()

	_, err := resty.New().R().Get(ts.url + "/manifest")
	require.NoError(t, err)

	res, err := resty.New().R().Get(ts.url + "/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode())
	assert.Contains(t, res.String(), "ff_harness_nodeserver")
}

func TestMetricsEndpointDisabled(t *testing.T) {
	ts, done := newTestServer(t, false)
	defer done()

	res, err := resty.New().R().Get(ts.url + "/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode())
}

func TestNewServerBadConfig(t *testing.T) {
	thconfig.Reset()
	thconfig.APIConfig.Set(httpserver.HTTPConfAddress, "::::")
	_, err := NewServer(context.Background(), nil, metrics.NewMetricsManager(context.Background()))
	assert.Error(t, err)
}

func TestStatusForUnclassified(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor("", fmt.Errorf("pop")))
}

func TestNullActualIsMalformed(t *testing.T) {
	ts, done := newTestServer(t, false)
	defer done()
	ctx := context.Background()

	manifest, _, err := ts.node.GetManifest(ctx)
	require.NoError(t, err)
	takamakaCode, _, err := ts.node.GetTakamakaCode(ctx)
	require.NoError(t, err)

	view := &ledger.TransactionRequest{
		Kind:      ledger.RequestKindInstanceViewCall,
		Caller:    *manifest,
		GasLimit:  fftypes.NewFFBigInt(10_000),
		Classpath: *takamakaCode,
		Method:    ledger.NewNonVoidMethodSignature(memnode.ClassManifest, "getChainId", ledger.TypeString, ledger.TypeInt),
		Receiver:  manifest,
		Actuals:   []*ledger.StorageValue{nil},
	}
	tx := *view
	tx.Kind = ledger.RequestKindInstanceMethodCall
	tx.Nonce = fftypes.NewFFBigInt(0)
	tx.ChainID = "test"
	tx.GasPrice = fftypes.NewFFBigInt(1)
	tx.Signature, err = keys.NewSigner(ts.gameteKey).Sign(ctx, tx.BytesWithoutSignature())
	require.NoError(t, err)

	for path, req := range map[string]*ledger.TransactionRequest{
		"/views/run":         view,
		"/transactions/add":  &tx,
		"/transactions/post": &tx,
	} {
		var errRes ledger.ErrorResponse
		res, err := resty.New().R().
			SetBody(req).
			SetError(&errRes).
			Post(ts.url + path)
		require.NoError(t, err, path)
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode(), path)
		assert.Equal(t, ledger.ErrorReasonRejected, errRes.Reason, path)
		assert.Equal(t, ledger.CauseMalformedRequest, ledger.ParseRejectedError(errRes.Error).Cause, path)
		assert.Contains(t, errRes.Error, "actuals[0]", path)
	}
}
