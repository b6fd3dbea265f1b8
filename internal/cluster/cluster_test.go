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

package cluster

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperledger/firefly-common/pkg/config"
	"github.com/hyperledger/firefly-txharness/internal/thconfig"
	"github.com/hyperledger/firefly-txharness/mocks/ledgermocks"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testRef = ledger.TransactionReference("1111111111111111111111111111111111111111111111111111111111111111")

func newTestCluster(t *testing.T, size int) (*Node, []*ledgermocks.Node) {
	mocks := make([]*ledgermocks.Node, size)
	members := make([]ledger.Node, size)
	for i := range mocks {
		mocks[i] = ledgermocks.NewNode(t)
		members[i] = mocks[i]
	}
	c, err := NewWithMembers(context.Background(), members...)
	require.NoError(t, err)
	return c, mocks
}

func TestNoMembers(t *testing.T) {
	_, err := NewWithMembers(context.Background())
	assert.Regexp(t, "FF21223", err)

	thconfig.Reset()
	_, err = New(context.Background())
	assert.Regexp(t, "FF21223", err)
}

func TestNewFromConfig(t *testing.T) {
	thconfig.Reset()
	config.Set(thconfig.NodeClusterURLs, []string{"http://node1:5108", "http://node2:5108"})
	c, err := New(context.Background())
	require.NoError(t, err)
	assert.Len(t, c.members, 2)
	c.Close(context.Background())
}

func TestLeaderServesWrites(t *testing.T) {
	c, mocks := newTestCluster(t, 3)
	req := &ledger.TransactionRequest{}
	ref := testRef

	mocks[0].On("PostTransaction", mock.Anything, req).Return(&ref, ledger.ErrorReason(""), nil).Twice()
	for i := 0; i < 2; i++ {
		res, _, err := c.PostTransaction(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, testRef, *res)
	}
}

func TestFailoverOnTransportError(t *testing.T) {
	c, mocks := newTestCluster(t, 3)
	req := &ledger.TransactionRequest{}
	res := &ledger.TransactionResponse{Reference: testRef, Status: ledger.TransactionStatusSucceeded}

	mocks[0].On("AddTransaction", mock.Anything, req).Return(nil, ledger.ErrorReason(""), fmt.Errorf("connection refused")).Once()
	mocks[1].On("AddTransaction", mock.Anything, req).Return(res, ledger.ErrorReason(""), nil).Once()
	out, _, err := c.AddTransaction(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, res, out)

	// the new leader stays the leader
	mocks[1].On("GetResponse", mock.Anything, testRef).Return(res, ledger.ErrorReason(""), nil).Once()
	out, _, err = c.GetResponse(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, res, out)
}

func TestLedgerErrorsNotRetried(t *testing.T) {
	c, mocks := newTestCluster(t, 2)
	req := &ledger.TransactionRequest{}
	rejection := ledger.NewRejectedError(ledger.CauseIncorrectNonce, "expected 1 but got 0")

	mocks[0].On("PostTransaction", mock.Anything, req).Return(nil, ledger.ErrorReasonRejected, rejection).Once()
	_, reason, err := c.PostTransaction(context.Background(), req)
	assert.Equal(t, ledger.ErrorReasonRejected, reason)
	assert.Equal(t, rejection, err)

	mocks[0].On("GetResponse", mock.Anything, testRef).Return(nil, ledger.ErrorReasonNotFound, fmt.Errorf("pending")).Once()
	_, reason, err = c.GetResponse(context.Background(), testRef)
	assert.Equal(t, ledger.ErrorReasonNotFound, reason)
	assert.Regexp(t, "pending", err)

	mocks[1].AssertNotCalled(t, "PostTransaction", mock.Anything, mock.Anything)
}

func TestAllMembersFailed(t *testing.T) {
	c, mocks := newTestCluster(t, 2)
	manifest := ledger.StorageReference{Transaction: testRef}

	mocks[0].On("GetManifest", mock.Anything).Return(nil, ledger.ErrorReason(""), fmt.Errorf("pop0")).Once()
	mocks[1].On("GetManifest", mock.Anything).Return(nil, ledger.ErrorReason(""), fmt.Errorf("pop1")).Once()
	_, reason, err := c.GetManifest(context.Background())
	assert.Empty(t, reason)
	assert.Regexp(t, "FF21224.*2.*pop1", err)

	// leadership wrapped round to the first member again
	mocks[0].On("GetManifest", mock.Anything).Return(&manifest, ledger.ErrorReason(""), nil).Once()
	res, _, err := c.GetManifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, manifest, *res)
}

func TestNoFailoverWhenCancelled(t *testing.T) {
	c, mocks := newTestCluster(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mocks[0].On("GetTakamakaCode", mock.Anything).Return(nil, ledger.ErrorReason(""), fmt.Errorf("context canceled")).Once()
	_, _, err := c.GetTakamakaCode(ctx)
	assert.Regexp(t, "context canceled", err)
	mocks[1].AssertNotCalled(t, "GetTakamakaCode", mock.Anything)
}

func TestReadsFailOver(t *testing.T) {
	c, mocks := newTestCluster(t, 2)
	ref := ledger.StorageReference{Transaction: testRef}
	tag := &ledger.ClassTag{ClassName: "ledger.Gamete", Jar: testRef}
	view := &ledger.TransactionRequest{Kind: ledger.RequestKindInstanceViewCall}
	res := &ledger.TransactionResponse{Status: ledger.TransactionStatusSucceeded}

	mocks[0].On("GetClassTag", mock.Anything, ref).Return(nil, ledger.ErrorReason(""), fmt.Errorf("pop")).Once()
	mocks[1].On("GetClassTag", mock.Anything, ref).Return(tag, ledger.ErrorReason(""), nil).Once()
	mocks[1].On("RunViewTransaction", mock.Anything, view).Return(res, ledger.ErrorReason(""), nil).Once()
	mocks[1].On("GetTakamakaCode", mock.Anything).Return(&testRef, ledger.ErrorReason(""), nil).Once()
	mocks[1].On("GetRequest", mock.Anything, testRef).Return(view, ledger.ErrorReason(""), nil).Once()

	out, _, err := c.GetClassTag(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, tag, out)
	vres, _, err := c.RunViewTransaction(context.Background(), view)
	require.NoError(t, err)
	assert.Equal(t, res, vres)
	tc, _, err := c.GetTakamakaCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testRef, *tc)
	stored, _, err := c.GetRequest(context.Background(), testRef)
	require.NoError(t, err)
	assert.Equal(t, view, stored)
}

func TestCloseAllMembers(t *testing.T) {
	c, mocks := newTestCluster(t, 2)
	for _, m := range mocks {
		m.On("Close", mock.Anything).Return().Once()
	}
	c.Close(context.Background())
}
