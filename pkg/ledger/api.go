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
	"errors"
)

// Node is the interface to the ledger the harness submits transactions to.
// The in-memory, remote and cluster backends all implement it.
//
// The functions follow the pattern of returning an ErrorReason alongside any
// error, so callers can classify failures without parsing messages.
type Node interface {

	// GetManifest returns the reference of the manifest object, that gives access to the gamete and the chain identifier
	GetManifest(ctx context.Context) (*StorageReference, ErrorReason, error)

	// GetTakamakaCode returns the reference of the jar holding the base runtime classes
	GetTakamakaCode(ctx context.Context) (*TransactionReference, ErrorReason, error)

	// GetClassTag returns the class of an object in the store, and the jar that installed it
	GetClassTag(ctx context.Context, ref StorageReference) (*ClassTag, ErrorReason, error)

	// AddTransaction submits a signed request and blocks until the ledger has recorded its outcome.
	// Rejections are returned with ErrorReasonRejected and a *RejectedError.
	AddTransaction(ctx context.Context, req *TransactionRequest) (*TransactionResponse, ErrorReason, error)

	// PostTransaction submits a signed request, returning as soon as it has been admitted
	PostTransaction(ctx context.Context, req *TransactionRequest) (*TransactionReference, ErrorReason, error)

	// GetResponse returns the recorded outcome of a posted request without blocking.
	// While the request is still pending, ErrorReasonNotFound is returned.
	GetResponse(ctx context.Context, ref TransactionReference) (*TransactionResponse, ErrorReason, error)

	// GetRequest returns a request the ledger has recorded an outcome for.
	// Rejected and pending requests are not recorded, so ErrorReasonNotFound is returned for them.
	GetRequest(ctx context.Context, ref TransactionReference) (*TransactionRequest, ErrorReason, error)

	// RunViewTransaction runs a view call against the current state, without side effects
	RunViewTransaction(ctx context.Context, req *TransactionRequest) (*TransactionResponse, ErrorReason, error)

	// Close releases the resources of the node
	Close(ctx context.Context)
}

// ErrorReason is a set of standard error conditions a Node can return, that
// affect how the harness treats the error.
// An empty reason means the error was in the transport to the node.
type ErrorReason string

const (
	// ErrorReasonInvalidInputs the request could not be parsed (nothing was sent to the ledger)
	ErrorReasonInvalidInputs ErrorReason = "invalid_inputs"
	// ErrorReasonRejected the ledger refused to admit the request. The error is a *RejectedError
	ErrorReasonRejected ErrorReason = "rejected"
	// ErrorReasonNotFound the referenced transaction or object is not known, or its outcome is not yet available
	ErrorReasonNotFound ErrorReason = "not_found"
	// ErrorReasonTimeout the outcome did not become available in time
	ErrorReasonTimeout ErrorReason = "timeout"
)

// ErrorResponse is the body of a failed request to a remote node
type ErrorResponse struct {
	Reason ErrorReason `json:"reason,omitempty"`
	Error  string      `json:"error"`
}

// MapErrorReason classifies an error returned from the harness into the reason a node reports for it
func MapErrorReason(err error) ErrorReason {
	var rejected *RejectedError
	var timeout *TimeoutError
	switch {
	case errors.As(err, &rejected):
		return ErrorReasonRejected
	case errors.As(err, &timeout):
		return ErrorReasonTimeout
	default:
		return ""
	}
}
