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
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
)

// TransactionReference identifies a transaction recorded by the ledger: the
// lower-case hex of the hash of its signed request.
type TransactionReference string

const transactionReferenceLength = 64

func NewTransactionReference(hash []byte) TransactionReference {
	return TransactionReference(hex.EncodeToString(hash))
}

func ParseTransactionReference(ctx context.Context, s string) (TransactionReference, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(s) != transactionReferenceLength {
		return "", i18n.NewError(ctx, thmsgs.MsgInvalidTransactionReference, s)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", i18n.NewError(ctx, thmsgs.MsgInvalidTransactionReference, s)
	}
	return TransactionReference(s), nil
}

func (tr TransactionReference) String() string {
	return string(tr)
}

func (tr TransactionReference) IsZero() bool {
	return tr == ""
}

// StorageReference is the address of an object in the store of the ledger:
// the transaction that created it, and the progressive number of the object
// among those created by that transaction.
// It is comparable, so it can be used as a map key.
type StorageReference struct {
	Transaction TransactionReference `json:"transaction"`
	Progressive uint64               `json:"progressive"`
}

func (sr StorageReference) String() string {
	return string(sr.Transaction) + "#" + strconv.FormatUint(sr.Progressive, 16)
}

func (sr StorageReference) IsZero() bool {
	return sr.Transaction == ""
}

func ParseStorageReference(ctx context.Context, s string) (StorageReference, error) {
	hash, progressive, ok := strings.Cut(s, "#")
	if !ok {
		return StorageReference{}, i18n.NewError(ctx, thmsgs.MsgInvalidStorageReference, s)
	}
	tr, err := ParseTransactionReference(ctx, hash)
	if err != nil {
		return StorageReference{}, i18n.NewError(ctx, thmsgs.MsgInvalidStorageReference, s)
	}
	p, err := strconv.ParseUint(progressive, 16, 64)
	if err != nil {
		return StorageReference{}, i18n.NewError(ctx, thmsgs.MsgInvalidStorageReference, s)
	}
	return StorageReference{Transaction: tr, Progressive: p}, nil
}

// ClassTag is the immutable description of the class of an object, and of
// the jar that installed that class.
type ClassTag struct {
	ClassName string               `json:"className"`
	Jar       TransactionReference `json:"jar"`
}
