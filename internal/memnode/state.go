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

package memnode

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/hyperledger/firefly-txharness/pkg/ledger"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

const (
	objectsPrefix   = "obj_0/"
	jarsPrefix      = "jar_0/"
	requestsPrefix  = "req_0/"
	responsesPrefix = "rsp_0/"
	rejectedPrefix  = "rej_0/"
	manifestKey     = "meta_0/manifest"
	takamakaCodeKey = "meta_0/takamakacode"
)

func objectKey(ref ledger.StorageReference) string {
	return objectsPrefix + ref.String()
}

func jarKey(ref ledger.TransactionReference) string {
	return jarsPrefix + string(ref)
}

func requestKey(ref ledger.TransactionReference) string {
	return requestsPrefix + string(ref)
}

func responseKey(ref ledger.TransactionReference) string {
	return responsesPrefix + string(ref)
}

func rejectedKey(ref ledger.TransactionReference) string {
	return rejectedPrefix + string(ref)
}

func openStore(ctx context.Context, path string) (*leveldb.DB, error) {
	if path == "" {
		db, err := leveldb.Open(storage.NewMemStorage(), nil)
		if err != nil {
			return nil, i18n.WrapError(ctx, err, thmsgs.MsgLevelDBOpenFailed, "memory")
		}
		return db, nil
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, thmsgs.MsgLevelDBOpenFailed, path)
	}
	return db, nil
}

type reader interface {
	get(ctx context.Context, key string) ([]byte, error)
}

type dbReader struct {
	db *leveldb.DB
}

// get returns nil for a missing key
func (r *dbReader) get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.db.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, i18n.WrapError(ctx, err, thmsgs.MsgNodeStateError)
	}
	return b, nil
}

// overlay buffers writes on top of a reader. Writes reach the store only when
// the outermost overlay is committed, so a discarded overlay leaves no trace.
type overlay struct {
	parent reader
	writes map[string][]byte
}

func newOverlay(parent reader) *overlay {
	return &overlay{
		parent: parent,
		writes: make(map[string][]byte),
	}
}

func (o *overlay) get(ctx context.Context, key string) ([]byte, error) {
	if b, ok := o.writes[key]; ok {
		return b, nil
	}
	return o.parent.get(ctx, key)
}

func (o *overlay) put(key string, value []byte) {
	o.writes[key] = value
}

func (o *overlay) putJSON(ctx context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return i18n.WrapError(ctx, err, thmsgs.MsgNodeStateError)
	}
	o.put(key, b)
	return nil
}

func (o *overlay) getJSON(ctx context.Context, key string, target interface{}) (bool, error) {
	b, err := o.get(ctx, key)
	if err != nil || b == nil {
		return false, err
	}
	if err := json.Unmarshal(b, target); err != nil {
		return false, i18n.WrapError(ctx, err, thmsgs.MsgNodeStateError)
	}
	return true, nil
}

// mergeInto moves the writes of this overlay into its parent overlay
func (o *overlay) mergeInto(parent *overlay) {
	for k, v := range o.writes {
		parent.writes[k] = v
	}
}

// commit writes all buffered writes to the store in one atomic batch
func (o *overlay) commit(ctx context.Context, db *leveldb.DB, sync bool) error {
	keys := make([]string, 0, len(o.writes))
	for k := range o.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := new(leveldb.Batch)
	for _, k := range keys {
		batch.Put([]byte(k), o.writes[k])
	}
	if err := db.Write(batch, &opt.WriteOptions{Sync: sync}); err != nil {
		return i18n.WrapError(ctx, err, thmsgs.MsgNodeStateError)
	}
	return nil
}
