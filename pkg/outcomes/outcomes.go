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

package outcomes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/firefly-txharness/pkg/ledger"
	"github.com/stretchr/testify/assert"
)

// Kind is the class of outcome of a submission
type Kind string

const (
	Succeeded    Kind = "succeeded"
	Rejected     Kind = "rejected"
	Failed       Kind = "failed"
	Unclassified Kind = "unclassified"
)

// Classify returns the class of the outcome of a submission that returned err.
// Errors that are neither a rejection nor a failure, such as transport errors
// or a timeout resolving a posted transaction, are Unclassified.
func Classify(err error) Kind {
	if err == nil {
		return Succeeded
	}
	var rejected *ledger.RejectedError
	var failed *ledger.FailedError
	switch {
	case errors.As(err, &rejected):
		return Rejected
	case errors.As(err, &failed):
		return Failed
	default:
		return Unclassified
	}
}

// MatchFailure checks that err is a failure whose cause starts with cause and,
// if substring is not empty, whose message contains substring.
// When it does not match, the returned diagnostic describes what err was instead.
func MatchFailure(err error, cause ledger.CauseTag, substring string) (bool, string) {
	var failed *ledger.FailedError
	if !errors.As(err, &failed) {
		return false, mismatch(Failed, cause, err)
	}
	return matchCause(Failed, failed.Cause, failed.Message, cause, substring)
}

// MatchRejected is MatchFailure for rejections
func MatchRejected(err error, cause ledger.CauseTag, substring string) (bool, string) {
	var rejected *ledger.RejectedError
	if !errors.As(err, &rejected) {
		return false, mismatch(Rejected, cause, err)
	}
	return matchCause(Rejected, rejected.Cause, rejected.Message, cause, substring)
}

func matchCause(kind Kind, actual ledger.CauseTag, message string, expected ledger.CauseTag, substring string) (bool, string) {
	if !actual.Matches(expected) {
		return false, fmt.Sprintf("wrong cause: expected %s but got %s", expected, actual)
	}
	if substring != "" && !strings.Contains(message, substring) {
		return false, fmt.Sprintf("wrong message: expected %s %s containing '%s' but got '%s'", kind, expected, substring, message)
	}
	return true, ""
}

func mismatch(kind Kind, expected ledger.CauseTag, err error) string {
	if err == nil {
		return fmt.Sprintf("expected %s with cause %s but got success", kind, expected)
	}
	return fmt.Sprintf("expected %s with cause %s but got %s: %s", kind, expected, Classify(err), err)
}

// AssertFailureMatches runs block and asserts that it returns a failure whose
// cause starts with cause, and whose message contains substring unless empty
func AssertFailureMatches(t assert.TestingT, cause ledger.CauseTag, substring string, block func() error) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	ok, diagnostic := MatchFailure(block(), cause, substring)
	if !ok {
		return assert.Fail(t, diagnostic)
	}
	return true
}

// AssertRejectedMatches runs block and asserts that it returns a rejection whose cause starts with cause
func AssertRejectedMatches(t assert.TestingT, cause ledger.CauseTag, block func() error) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	ok, diagnostic := MatchRejected(block(), cause, "")
	if !ok {
		return assert.Fail(t, diagnostic)
	}
	return true
}
