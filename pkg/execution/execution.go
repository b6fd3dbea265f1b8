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

package execution

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-common/pkg/retry"
	"github.com/hyperledger/firefly-txharness/internal/journal"
	"github.com/hyperledger/firefly-txharness/internal/metrics"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
	"github.com/hyperledger/firefly-txharness/pkg/outcomes"
)

const (
	PathAdd  = "add"
	PathPost = "post"
	PathRun  = "run"
)

const (
	DefaultMaxAttempts = 100
	DefaultPollDelay   = 10 * time.Millisecond
)

// Model submits requests to a node, either blocking until the outcome is
// recorded (Add) or returning a handle to resolve later (Post).
// Both paths turn a response into a value or error in the same way.
type Model struct {
	node        ledger.Node
	metrics     metrics.Metrics
	journal     journal.Journal
	maxAttempts int
	pollDelay   time.Duration
}

type Options struct {
	// MaxAttempts bounds the polls made by PendingHandle.Resolve
	MaxAttempts int
	// PollDelay is the fixed delay between those polls
	PollDelay time.Duration
	// Journal records every outcome, if set
	Journal journal.Journal
}

func NewModel(node ledger.Node, mm metrics.Metrics, opts *Options) *Model {
	m := &Model{
		node:        node,
		metrics:     mm,
		journal:     opts.Journal,
		maxAttempts: opts.MaxAttempts,
		pollDelay:   opts.PollDelay,
	}
	if m.maxAttempts <= 0 {
		m.maxAttempts = DefaultMaxAttempts
	}
	if m.pollDelay <= 0 {
		m.pollDelay = DefaultPollDelay
	}
	return m
}

func (m *Model) Node() ledger.Node {
	return m.node
}

// Add submits a request and blocks until the ledger has recorded its outcome.
// It returns the result for a non-void call, nil for a void call, or the
// *ledger.RejectedError or *ledger.FailedError of the request.
func (m *Model) Add(ctx context.Context, req *ledger.TransactionRequest) (*ledger.StorageValue, error) {
	res, err := m.add(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

func (m *Model) add(ctx context.Context, req *ledger.TransactionRequest) (*ledger.TransactionResponse, error) {
	if req.IsView() {
		return nil, i18n.NewError(ctx, thmsgs.MsgNotATransactionRequest, req.Kind)
	}
	res, _, err := m.node.AddTransaction(ctx, req)
	if err != nil {
		m.recordOutcome(ctx, PathAdd, req, "", err)
		return nil, err
	}
	err = outcomeOf(ctx, res)
	m.recordOutcome(ctx, PathAdd, req, res.Reference, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Post submits a request and returns as soon as the node has admitted it.
// A request the node refuses to admit is returned as a *ledger.RejectedError here,
// not from the handle.
func (m *Model) Post(ctx context.Context, req *ledger.TransactionRequest) (*PendingHandle, error) {
	if req.IsView() {
		return nil, i18n.NewError(ctx, thmsgs.MsgNotATransactionRequest, req.Kind)
	}
	ref, _, err := m.node.PostTransaction(ctx, req)
	if err != nil {
		m.recordOutcome(ctx, PathPost, req, "", err)
		return nil, err
	}
	log.L(ctx).Debugf("Posted %s request %s", req.Kind, *ref)
	return &PendingHandle{
		m:   m,
		req: req,
		ref: *ref,
	}, nil
}

// Run runs a view call. Views have no side effects, so there is only a blocking form.
func (m *Model) Run(ctx context.Context, req *ledger.TransactionRequest) (*ledger.StorageValue, error) {
	if !req.IsView() {
		return nil, i18n.NewError(ctx, thmsgs.MsgNotAViewRequest, req.Kind)
	}
	res, _, err := m.node.RunViewTransaction(ctx, req)
	if err != nil {
		m.recordOutcome(ctx, PathRun, req, "", err)
		return nil, err
	}
	err = outcomeOf(ctx, res)
	m.recordOutcome(ctx, PathRun, req, res.Reference, err)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

// AddJarStore installs a jar, returning the reference to use in classpaths
func (m *Model) AddJarStore(ctx context.Context, req *ledger.TransactionRequest) (ledger.TransactionReference, error) {
	res, err := m.add(ctx, req)
	if err != nil {
		return "", err
	}
	return res.Reference, nil
}

// AddConstructor runs a constructor call, returning the reference of the new object
func (m *Model) AddConstructor(ctx context.Context, req *ledger.TransactionRequest) (ledger.StorageReference, error) {
	res, err := m.add(ctx, req)
	if err != nil {
		return ledger.StorageReference{}, err
	}
	return referenceOf(ctx, res.Reference, res.Result)
}

func (m *Model) AddNonVoid(ctx context.Context, req *ledger.TransactionRequest) (*ledger.StorageValue, error) {
	res, err := m.add(ctx, req)
	if err != nil {
		return nil, err
	}
	return nonVoid(res.Reference, res.Result)
}

func (m *Model) AddVoid(ctx context.Context, req *ledger.TransactionRequest) error {
	_, err := m.add(ctx, req)
	return err
}

func (m *Model) RunNonVoid(ctx context.Context, req *ledger.TransactionRequest) (*ledger.StorageValue, error) {
	v, err := m.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	return nonVoid("", v)
}

// outcomeOf is the single place a recorded response turns into an error
func outcomeOf(ctx context.Context, res *ledger.TransactionResponse) error {
	switch res.Status {
	case ledger.TransactionStatusSucceeded:
		return nil
	case ledger.TransactionStatusFailed:
		return &ledger.FailedError{
			Reference: res.Reference,
			Cause:     res.Cause,
			Message:   res.Message,
		}
	default:
		return i18n.NewError(ctx, thmsgs.MsgUnexpectedNodeResponseStatus, res.Status, res.Reference)
	}
}

func nonVoid(ref ledger.TransactionReference, v *ledger.StorageValue) (*ledger.StorageValue, error) {
	if v == nil {
		return nil, &ledger.UnexpectedVoidError{Reference: ref}
	}
	return v, nil
}

func referenceOf(ctx context.Context, ref ledger.TransactionReference, v *ledger.StorageValue) (ledger.StorageReference, error) {
	v, err := nonVoid(ref, v)
	if err != nil {
		return ledger.StorageReference{}, err
	}
	return v.AsReference(ctx)
}

func outcomeLabel(err error) string {
	var timeout *ledger.TimeoutError
	if errors.As(err, &timeout) {
		return "timeout"
	}
	return string(outcomes.Classify(err))
}

func (m *Model) recordOutcome(ctx context.Context, path string, req *ledger.TransactionRequest, ref ledger.TransactionReference, err error) {
	outcome := outcomeLabel(err)
	m.metrics.CountSubmission(ctx, path, outcome)
	if err != nil {
		log.L(ctx).Debugf("%s of %s request from %s: %s", path, req.Kind, req.Caller, err)
	}
	if m.journal == nil {
		return
	}
	if jerr := m.journal.Record(ctx, journal.NewEntry(path, req, ref, outcome, err)); jerr != nil {
		// a journal write failure never fails the submission
		log.L(ctx).Warnf("Failed to journal %s of %s request: %s", path, req.Kind, jerr)
	}
}

// PendingHandle is the eventual outcome of a posted request
type PendingHandle struct {
	m   *Model
	req *ledger.TransactionRequest
	ref ledger.TransactionReference

	mux      sync.Mutex
	resolved atomic.Bool
	res      *ledger.TransactionResponse
	err      error
}

func (h *PendingHandle) Reference() ledger.TransactionReference {
	return h.ref
}

// Done reports whether the handle has been resolved
func (h *PendingHandle) Done() bool {
	return h.resolved.Load()
}

// Resolve blocks until the outcome of the request is available, and returns
// it exactly as Model.Add would have. The node is polled a bounded number of
// times with a fixed delay, after which a *ledger.TimeoutError is returned.
// The outcome is memoized, so later calls return it without polling again.
// Cancelling ctx, or an error reaching the node, abandons this call only,
// and a later call polls afresh.
func (h *PendingHandle) Resolve(ctx context.Context) (*ledger.StorageValue, error) {
	res, err := h.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

func (h *PendingHandle) ResolveReference(ctx context.Context) (ledger.StorageReference, error) {
	res, err := h.resolve(ctx)
	if err != nil {
		return ledger.StorageReference{}, err
	}
	return referenceOf(ctx, res.Reference, res.Result)
}

func (h *PendingHandle) ResolveNonVoid(ctx context.Context) (*ledger.StorageValue, error) {
	res, err := h.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return nonVoid(res.Reference, res.Result)
}

func (h *PendingHandle) resolve(ctx context.Context) (*ledger.TransactionResponse, error) {
	h.mux.Lock()
	defer h.mux.Unlock()
	if h.resolved.Load() {
		return h.res, h.err
	}

	maxAttempts := h.m.maxAttempts
	poll := &retry.Retry{
		InitialDelay: h.m.pollDelay,
		MaximumDelay: h.m.pollDelay,
		Factor:       1,
	}
	var res *ledger.TransactionResponse
	attempts := 0
	err := poll.Do(ctx, "resolve "+string(h.ref), func(attempt int) (bool, error) {
		attempts = attempt
		r, reason, err := h.m.node.GetResponse(ctx, h.ref)
		switch {
		case err == nil:
			res = r
			return false, nil
		case reason != ledger.ErrorReasonNotFound:
			return false, err
		case attempt >= maxAttempts:
			return false, &ledger.TimeoutError{Reference: h.ref, Attempts: attempt}
		default:
			return true, err
		}
	})
	h.m.metrics.ObserveResolveAttempts(ctx, attempts)

	var timeout *ledger.TimeoutError
	var rejected *ledger.RejectedError
	if err != nil && !errors.As(err, &timeout) && !errors.As(err, &rejected) {
		// not an outcome, so the handle stays unresolved
		if ctx.Err() != nil {
			return nil, i18n.WrapError(ctx, err, thmsgs.MsgHandleResolveCancelled, h.ref)
		}
		return nil, err
	}
	if err == nil {
		err = outcomeOf(ctx, res)
	}
	h.m.recordOutcome(ctx, PathPost, h.req, h.ref, err)
	if err != nil {
		h.err = err
	} else {
		h.res = res
	}
	h.resolved.Store(true)
	return h.res, h.err
}
