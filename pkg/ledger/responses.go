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
	"fmt"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/fftypes"
)

// CauseTag is the string identifier of the cause of a rejection or failure,
// as reported by the ledger. The ledger protocol carries causes only as
// strings, so they are matched by prefix rather than by type.
type CauseTag string

func (ct CauseTag) Matches(expected CauseTag) bool {
	return strings.HasPrefix(string(ct), string(expected))
}

// Causes produced by the harness itself, or by every Node implementation
const (
	CauseNonceUnavailable        CauseTag = "NonceUnavailable"
	CauseIncorrectNonce          CauseTag = "IncorrectNonce"
	CauseInvalidSignature        CauseTag = "InvalidSignature"
	CauseInvalidChainID          CauseTag = "InvalidChainId"
	CauseMalformedRequest        CauseTag = "MalformedRequest"
	CauseUnknownCaller           CauseTag = "UnknownCaller"
	CauseUnknownClasspath        CauseTag = "UnknownClasspath"
	CauseRepeatedRequest         CauseTag = "RepeatedRequest"
	CauseGasLimitTooHigh         CauseTag = "GasLimitTooHigh"
	CauseGasPriceTooLow          CauseTag = "GasPriceTooLow"
	CauseInsufficientFundsForGas CauseTag = "InsufficientFundsForGas"

	CauseOutOfGas          CauseTag = "OutOfGasError"
	CauseInsufficientFunds CauseTag = "InsufficientFundsError"
	CauseIllegalArgument   CauseTag = "IllegalArgumentError"
	CauseNoSuchMethod      CauseTag = "NoSuchMethodError"
	CauseNoSuchElement     CauseTag = "NoSuchElementError"
	CauseNullPointer       CauseTag = "NullPointerError"
)

type TransactionStatus string

const (
	TransactionStatusSucceeded TransactionStatus = "succeeded"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// TransactionResponse is what the ledger recorded for an admitted request.
// Rejected requests have no response: they are reported as a RejectedError.
type TransactionResponse struct {
	Reference   TransactionReference `json:"reference"`
	Status      TransactionStatus    `json:"status"`
	Result      *StorageValue        `json:"result,omitempty"`
	Cause       CauseTag             `json:"cause,omitempty"`
	Message     string               `json:"message,omitempty"`
	GasConsumed *fftypes.FFBigInt    `json:"gasConsumed,omitempty"`
}

// RejectedError means the ledger refused to admit the request, so no nonce was consumed
type RejectedError struct {
	Cause   CauseTag
	Message string
}

func NewRejectedError(cause CauseTag, format string, a ...interface{}) *RejectedError {
	return &RejectedError{Cause: cause, Message: fmt.Sprintf(format, a...)}
}

// ParseRejectedError rebuilds a rejection from its Error() text, as carried over the wire
func ParseRejectedError(s string) *RejectedError {
	cause, message, _ := strings.Cut(s, ": ")
	return &RejectedError{Cause: CauseTag(cause), Message: message}
}

func (e *RejectedError) Error() string {
	return causeString(e.Cause, e.Message)
}

// FailedError means the request was admitted and ran, but raised an error in the ledger
type FailedError struct {
	Reference TransactionReference
	Cause     CauseTag
	Message   string
}

func (e *FailedError) Error() string {
	return causeString(e.Cause, e.Message)
}

// TimeoutError means the outcome of a posted request was not available after
// the configured number of polls
type TimeoutError struct {
	Reference TransactionReference
	Attempts  int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no outcome for transaction %s after %d attempts", e.Reference, e.Attempts)
}

// UnexpectedVoidError is returned when a call expected to yield a value returned none
type UnexpectedVoidError struct {
	Reference TransactionReference
}

func (e *UnexpectedVoidError) Error() string {
	return fmt.Sprintf("transaction %s returned no value", e.Reference)
}

func causeString(cause CauseTag, message string) string {
	if message == "" {
		return string(cause)
	}
	return string(cause) + ": " + message
}
