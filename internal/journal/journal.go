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

package journal

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/hyperledger/firefly-common/pkg/config"
	"github.com/hyperledger/firefly-common/pkg/fftypes"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-txharness/internal/thconfig"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
	ulid "github.com/oklog/ulid/v2"
)

const (
	TypeNone     = "none"
	TypeLevelDB  = "leveldb"
	TypePostgres = "postgres"
)

// Entry is the record of one classified submission
type Entry struct {
	ID        *fftypes.UUID               `json:"id"`
	Created   *fftypes.FFTime             `json:"created"`
	Updated   *fftypes.FFTime             `json:"updated,omitempty"`
	Path      string                      `json:"path"`
	Kind      ledger.RequestKind          `json:"kind"`
	Caller    string                      `json:"caller"`
	Nonce     *fftypes.FFBigInt           `json:"nonce,omitempty"`
	Reference ledger.TransactionReference `json:"reference,omitempty"`
	Outcome   string                      `json:"outcome"`
	Cause     ledger.CauseTag             `json:"cause,omitempty"`
	Message   string                      `json:"message,omitempty"`
}

func (e *Entry) GetID() string {
	return e.ID.String()
}

func (e *Entry) SetCreated(t *fftypes.FFTime) {
	e.Created = t
}

func (e *Entry) SetUpdated(t *fftypes.FFTime) {
	e.Updated = t
}

// Journal keeps a record of submissions, for inspection after a run
type Journal interface {
	Record(ctx context.Context, entry *Entry) error
	// List returns the newest entries first, optionally only those of one caller
	List(ctx context.Context, caller string, limit int) ([]*Entry, error)
	Close(ctx context.Context)
}

var ulidReader = &ulid.LockedMonotonicReader{
	MonotonicReader: &ulid.MonotonicEntropy{
		Reader: rand.Reader,
	},
}

// NewULID returns a lexicographically sortable identifier, formatted like a UUID
// so that entry keys and primary keys sort by creation
func NewULID() *fftypes.UUID {
	u := ulid.MustNew(ulid.Timestamp(time.Now()), ulidReader)
	return (*fftypes.UUID)(&u)
}

// NewEntry builds the entry for a request submitted on a path, that ended with the given outcome
func NewEntry(path string, req *ledger.TransactionRequest, ref ledger.TransactionReference, outcome string, err error) *Entry {
	e := &Entry{
		ID:        NewULID(),
		Created:   fftypes.Now(),
		Path:      path,
		Kind:      req.Kind,
		Caller:    req.Caller.String(),
		Nonce:     req.Nonce,
		Reference: ref,
		Outcome:   outcome,
	}
	switch terr := err.(type) {
	case nil:
	case *ledger.RejectedError:
		e.Cause, e.Message = terr.Cause, terr.Message
	case *ledger.FailedError:
		e.Cause, e.Message = terr.Cause, terr.Message
	default:
		e.Message = err.Error()
	}
	return e
}

// New builds the journal selected by configuration
func New(ctx context.Context) (Journal, error) {
	switch jt := config.GetString(thconfig.JournalType); jt {
	case TypeNone, "":
		return &noJournal{}, nil
	case TypeLevelDB:
		return NewLevelDBJournal(ctx)
	case TypePostgres:
		return NewPostgresJournal(ctx, thconfig.JournalPostgresConfig)
	default:
		return nil, i18n.NewError(ctx, thmsgs.MsgJournalInvalidType, jt)
	}
}

type noJournal struct{}

func (nj *noJournal) Record(_ context.Context, _ *Entry) error { return nil }

func (nj *noJournal) List(_ context.Context, _ string, _ int) ([]*Entry, error) {
	return []*Entry{}, nil
}

func (nj *noJournal) Close(_ context.Context) {}
