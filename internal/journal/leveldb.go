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
	"encoding/json"
	"fmt"

	"github.com/hyperledger/firefly-common/pkg/config"
	"github.com/hyperledger/firefly-common/pkg/i18n"
	"github.com/hyperledger/firefly-common/pkg/log"
	"github.com/hyperledger/firefly-txharness/internal/thconfig"
	"github.com/hyperledger/firefly-txharness/internal/thmsgs"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const entriesPrefix = "journal_0/"
const entriesEnd = "journal_1"

type leveldbJournal struct {
	db         *leveldb.DB
	syncWrites bool
}

func NewLevelDBJournal(ctx context.Context) (Journal, error) {
	dbPath := config.GetString(thconfig.JournalLevelDBPath)
	if dbPath == "" {
		return nil, i18n.NewError(ctx, thmsgs.MsgConfigParamNotSet, thconfig.JournalLevelDBPath)
	}
	db, err := leveldb.OpenFile(dbPath, &opt.Options{
		OpenFilesCacheCapacity: config.GetInt(thconfig.JournalLevelDBMaxHandles),
	})
	if err != nil {
		return nil, i18n.WrapError(ctx, err, thmsgs.MsgLevelDBOpenFailed, dbPath)
	}
	return &leveldbJournal{
		db:         db,
		syncWrites: config.GetBool(thconfig.JournalLevelDBSyncWrites),
	}, nil
}

func entryKey(e *Entry) []byte {
	return []byte(fmt.Sprintf("%s%s", entriesPrefix, e.ID))
}

func (j *leveldbJournal) Record(ctx context.Context, e *Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return i18n.WrapError(ctx, err, thmsgs.MsgJournalPersistenceError)
	}
	key := entryKey(e)
	if err := j.db.Put(key, b, &opt.WriteOptions{Sync: j.syncWrites}); err != nil {
		return i18n.WrapError(ctx, err, thmsgs.MsgJournalPersistenceError)
	}
	log.L(ctx).Tracef("Wrote %s", key)
	return nil
}

// List walks the keys backwards, as the ULIDs sort by creation time
func (j *leveldbJournal) List(ctx context.Context, caller string, limit int) ([]*Entry, error) {
	it := j.db.NewIterator(&util.Range{
		Start: []byte(entriesPrefix),
		Limit: []byte(entriesEnd),
	}, &opt.ReadOptions{DontFillCache: true})
	defer it.Release()

	entries := []*Entry{}
	for valid := it.Last(); valid; valid = it.Prev() {
		var e Entry
		if err := json.Unmarshal(it.Value(), &e); err != nil {
			return nil, i18n.WrapError(ctx, err, thmsgs.MsgJournalEntryCorrupt, it.Key())
		}
		if caller != "" && e.Caller != caller {
			continue
		}
		entries = append(entries, &e)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	if err := it.Error(); err != nil {
		return nil, i18n.WrapError(ctx, err, thmsgs.MsgJournalPersistenceError)
	}
	return entries, nil
}

func (j *leveldbJournal) Close(ctx context.Context) {
	if err := j.db.Close(); err != nil {
		log.L(ctx).Warnf("Error closing journal: %s", err)
	}
}
