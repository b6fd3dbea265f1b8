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
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hyperledger/firefly-common/pkg/dbsql"
	"github.com/stretchr/testify/assert"
)

func newMockSQLJournal(t *testing.T) (context.Context, *sqlJournal, sqlmock.Sqlmock, func()) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	db, mdb := dbsql.NewMockProvider().UTInit()
	return ctx, newSQLJournal(&db.Database), mdb, cancelCtx
}

func TestSQLRecordOK(t *testing.T) {
	ctx, j, mdb, done := newMockSQLJournal(t)
	defer done()

	mdb.ExpectBegin()
	mdb.ExpectExec("INSERT.*journal").WillReturnResult(sqlmock.NewResult(1, 1))
	mdb.ExpectCommit()

	e := NewEntry("add", testRequest(0), "", "succeeded", nil)
	err := j.Record(ctx, e)
	assert.NoError(t, err)
	assert.NotNil(t, e.Updated)
	assert.NoError(t, mdb.ExpectationsWereMet())
}

func TestSQLRecordFail(t *testing.T) {
	ctx, j, mdb, done := newMockSQLJournal(t)
	defer done()

	mdb.ExpectBegin()
	mdb.ExpectExec("INSERT.*journal").WillReturnError(fmt.Errorf("pop"))
	mdb.ExpectRollback()

	err := j.Record(ctx, NewEntry("add", testRequest(0), "", "succeeded", nil))
	assert.Regexp(t, "pop", err)
	assert.NoError(t, mdb.ExpectationsWereMet())
}

func TestSQLListByCaller(t *testing.T) {
	ctx, j, mdb, done := newMockSQLJournal(t)
	defer done()

	mdb.ExpectQuery("SELECT.*journal.*caller.*ORDER BY.*seq DESC").WillReturnRows(sqlmock.NewRows([]string{"seq"}))

	entries, err := j.List(ctx, testRequest(0).Caller.String(), 10)
	assert.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mdb.ExpectationsWereMet())
}

func TestSQLListFail(t *testing.T) {
	ctx, j, mdb, done := newMockSQLJournal(t)
	defer done()

	mdb.ExpectQuery("SELECT.*journal").WillReturnError(fmt.Errorf("pop"))

	_, err := j.List(ctx, "", 10)
	assert.Regexp(t, "FF00176", err)
	assert.NoError(t, mdb.ExpectationsWereMet())
}

func TestPostgresProvider(t *testing.T) {
	psql := &Postgres{}
	assert.Equal(t, "postgres", psql.Name())
	assert.Equal(t, "seq", psql.SequenceColumn())
	assert.Equal(t, "postgres", psql.MigrationsDir())
	assert.True(t, psql.Features().MultiRowInsert)
}
