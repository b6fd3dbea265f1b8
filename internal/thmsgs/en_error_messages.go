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

package thmsgs

import (
	"net/http"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"golang.org/x/text/language"
)

var ffe = func(key, translation string, statusHint ...int) i18n.ErrorMessageKey {
	return i18n.FFE(language.AmericanEnglish, key, translation, statusHint...)
}

//revive:disable
var (
	MsgConfigParamNotSet            = ffe("FF21200", "Configuration parameter '%s' must be set")
	MsgInvalidNodeBackend           = ffe("FF21201", "Invalid node backend '%s'")
	MsgInvalidRequestErr            = ffe("FF21202", "Invalid '%s' request: %s", http.StatusBadRequest)
	MsgMissingRequestField          = ffe("FF21203", "Request field '%s' must be set for a '%s' request", http.StatusBadRequest)
	MsgInvalidTransactionReference  = ffe("FF21204", "Invalid transaction reference '%s'", http.StatusBadRequest)
	MsgInvalidStorageReference      = ffe("FF21205", "Invalid storage reference '%s'", http.StatusBadRequest)
	MsgInvalidStorageValue          = ffe("FF21206", "Value '%s' is not a valid %s")
	MsgSigningFailed                = ffe("FF21207", "Failed to sign request: %s")
	MsgInvalidPrivateKey            = ffe("FF21208", "Invalid private key: %s")
	MsgInvalidSignature             = ffe("FF21209", "Invalid signature: %s")
	MsgNonceQueryFailed             = ffe("FF21210", "Failed to query the nonce of account %s: %s")
	MsgNotATransactionRequest       = ffe("FF21211", "Request kind '%s' cannot be submitted as a transaction", http.StatusBadRequest)
	MsgNotAViewRequest              = ffe("FF21212", "Request kind '%s' is not a view call", http.StatusBadRequest)
	MsgUnexpectedResultType         = ffe("FF21213", "Unexpected result type '%s' (expected '%s')")
	MsgNodeError                    = ffe("FF21214", "Node failed request. status=%d reason=%s error: %s")
	MsgNodeInvalidContentType       = ffe("FF21215", "Node failed request. status=%d invalid response content type: %s")
	MsgNodeClosed                   = ffe("FF21216", "Node is closed")
	MsgResponseNotFound             = ffe("FF21217", "No response available for transaction %s", http.StatusNotFound)
	MsgUnknownStorageReference      = ffe("FF21218", "Unknown storage reference %s", http.StatusNotFound)
	MsgBootstrapNoCoins             = ffe("FF21219", "At least one coin amount must be supplied")
	MsgBootstrapUnexpectedResult    = ffe("FF21220", "Account %d of container %s is not a storage reference")
	MsgEnvironmentClosed            = ffe("FF21221", "Test environment is closed")
	MsgGameteKeyMismatch            = ffe("FF21222", "Configured gamete key %s does not control gamete %s")
	MsgClusterNoMembers             = ffe("FF21223", "At least one cluster member URL must be configured")
	MsgClusterAllMembersFailed      = ffe("FF21224", "All %d cluster members failed: %s")
	MsgJournalInvalidType           = ffe("FF21225", "Invalid journal type '%s'")
	MsgJournalPersistenceError      = ffe("FF21226", "Journal persistence error")
	MsgJournalEntryCorrupt          = ffe("FF21227", "Journal entry '%s' is corrupt")
	MsgLevelDBOpenFailed            = ffe("FF21228", "Failed to open LevelDB at '%s'")
	MsgNodeStateError               = ffe("FF21229", "Node state error")
	MsgInvalidCoinAmount            = ffe("FF21230", "Invalid amount '%s' for '%s'")
	MsgClassAlreadyRegistered       = ffe("FF21231", "Class '%s' is already registered")
	MsgHandleResolveCancelled       = ffe("FF21232", "Resolution of transaction %s was cancelled")
	MsgNodeQueueFull                = ffe("FF21233", "Node submission queue is full", http.StatusServiceUnavailable)
	MsgInvalidOutputType            = ffe("FF21234", "Invalid output type: %s")
	MsgGameteNotConfigured          = ffe("FF21235", "A gamete private key must be configured for the '%s' backend")
	MsgUnexpectedNodeResponseStatus = ffe("FF21236", "Unexpected response status '%s' for transaction %s")
	MsgNodeRequestFailed            = ffe("FF21237", "Failed to reach node at %s")
	MsgInvalidCacheSize             = ffe("FF21238", "Invalid cache size %d for '%s'")
	MsgRequestNotFound              = ffe("FF21239", "No request recorded for transaction %s", http.StatusNotFound)
)
