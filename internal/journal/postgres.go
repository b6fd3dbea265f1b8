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
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/hyperledger/firefly-common/pkg/config"
	"github.com/hyperledger/firefly-common/pkg/dbsql"
	"github.com/hyperledger/firefly-common/pkg/ffapi"

	// Import pq driver
	_ "github.com/lib/pq"
)

type Postgres struct {
	dbsql.Database
}

// InitConfig registers the dbsql keys of the postgres journal section
func InitConfig(conf config.Section) {
	psql := &Postgres{}
	psql.Database.InitConfig(psql, conf)
}

func (psql *Postgres) Name() string {
	return "postgres"
}

func (psql *Postgres) SequenceColumn() string {
	return "seq"
}

func (psql *Postgres) MigrationsDir() string {
	return psql.Name()
}

func (psql *Postgres) Features() dbsql.SQLFeatures {
	features := dbsql.DefaultSQLProviderFeatures()
	features.PlaceholderFormat = sq.Dollar
	features.UseILIKE = false
	features.MultiRowInsert = true
	return features
}

func (psql *Postgres) ApplyInsertQueryCustomizations(insert sq.InsertBuilder, requestConflictEmptyResult bool) (sq.InsertBuilder, bool) {
	suffix := " RETURNING seq"
	if requestConflictEmptyResult {
		suffix = fmt.Sprintf(" ON CONFLICT DO NOTHING%s", suffix)
	}
	return insert.Suffix(suffix), true
}

func (psql *Postgres) Open(url string) (*sql.DB, error) {
	return sql.Open(psql.Name(), url)
}

func (psql *Postgres) GetMigrationDriver(db *sql.DB) (migratedb.Driver, error) {
	return postgres.WithInstance(db, &postgres.Config{})
}

// EntryFilters are the fields an entry query can filter and sort on
var EntryFilters = &ffapi.QueryFields{
	"sequence": &ffapi.Int64Field{},
	"id":       &ffapi.StringField{},
	"created":  &ffapi.TimeField{},
	"caller":   &ffapi.StringField{},
	"kind":     &ffapi.StringField{},
	"outcome":  &ffapi.StringField{},
}

type sqlJournal struct {
	db      *dbsql.Database
	entries *dbsql.CrudBase[*Entry]
}

func NewPostgresJournal(ctx context.Context, conf config.Section) (Journal, error) {
	psql := &Postgres{}
	psql.Database.InitConfig(psql, conf)
	if err := psql.Database.Init(ctx, psql, conf); err != nil {
		return nil, err
	}
	return newSQLJournal(&psql.Database), nil
}

func newSQLJournal(db *dbsql.Database) *sqlJournal {
	j := &sqlJournal{db: db}
	j.entries = &dbsql.CrudBase[*Entry]{
		DB:    db,
		Table: "journal",
		Columns: []string{
			dbsql.ColumnID,
			dbsql.ColumnCreated,
			dbsql.ColumnUpdated,
			"path",
			"kind",
			"caller",
			"nonce",
			"reference",
			"outcome",
			"cause",
			"message",
		},
		FilterFieldMap: map[string]string{
			"sequence": db.SequenceColumn(),
		},
		PatchDisabled: true,
		NilValue:      func() *Entry { return nil },
		NewInstance:   func() *Entry { return &Entry{} },
		GetFieldPtr: func(inst *Entry, col string) interface{} {
			switch col {
			case dbsql.ColumnID:
				return &inst.ID
			case dbsql.ColumnCreated:
				return &inst.Created
			case dbsql.ColumnUpdated:
				return &inst.Updated
			case "path":
				return &inst.Path
			case "kind":
				return &inst.Kind
			case "caller":
				return &inst.Caller
			case "nonce":
				return &inst.Nonce
			case "reference":
				return &inst.Reference
			case "outcome":
				return &inst.Outcome
			case "cause":
				return &inst.Cause
			case "message":
				return &inst.Message
			}
			return nil
		},
	}
	j.entries.Validate()
	return j
}

func (j *sqlJournal) Record(ctx context.Context, e *Entry) error {
	return j.entries.Insert(ctx, e)
}

func (j *sqlJournal) List(ctx context.Context, caller string, limit int) ([]*Entry, error) {
	fb := EntryFilters.NewFilterLimit(ctx, uint64(limit))
	var filter ffapi.Filter
	if caller != "" {
		filter = fb.And(fb.Eq("caller", caller))
	} else {
		filter = fb.And()
	}
	entries, _, err := j.entries.GetMany(ctx, filter.Sort("-sequence"))
	return entries, err
}

func (j *sqlJournal) Close(_ context.Context) {
	j.db.Close()
}
