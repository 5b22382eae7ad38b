/*
 * Copyright 2024 ScopeDB, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package iotdb

import (
	"context"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// Statement is a struct that represents a statement to be executed on the server.
type Statement struct {
	s *Session

	stmt string

	// Timeout is the maximum time for statement execution on the server.
	//
	// If the execution time exceeds this value, the statement is failed as
	// timed out. Zero uses the session's configured timeout.
	Timeout time.Duration
	// FetchSize is the number of rows per result page. Zero uses the
	// session's configured fetch size.
	FetchSize int32
}

// Statement creates a new statement with the given SQL statement.
func (s *Session) Statement(stmt string) *Statement {
	return &Statement{
		s:    s,
		stmt: stmt,
	}
}

// Query executes the statement as a query and returns a cursor over its result.
func (st *Statement) Query(ctx context.Context) (*SessionDataSet, error) {
	return st.s.executeStatement(ctx, "execute query statement", st.s.transport.ExecuteQueryStatement,
		st.stmt, st.FetchSize, st.Timeout.Milliseconds(), true)
}

// Execute executes the statement. The returned dataset is nil if the
// statement produces no result set.
func (st *Statement) Execute(ctx context.Context) (*SessionDataSet, error) {
	return st.s.executeStatement(ctx, "execute statement", st.s.transport.ExecuteStatement,
		st.stmt, st.FetchSize, st.Timeout.Milliseconds(), false)
}

// Update executes the statement as a non-query statement and releases any
// result set the server returns.
func (st *Statement) Update(ctx context.Context) error {
	ds, err := st.s.executeStatement(ctx, "execute update statement", st.s.transport.ExecuteUpdateStatement,
		st.stmt, st.FetchSize, st.Timeout.Milliseconds(), false)
	if err != nil {
		return err
	}
	if ds != nil {
		return ds.Close(ctx)
	}
	return nil
}

// Values executes the statement as a query and reads all the rows.
func (st *Statement) Values(ctx context.Context) ([][]Value, error) {
	ds, err := st.Query(ctx)
	if err != nil {
		return nil, err
	}
	return ds.ToValues(ctx)
}

// ArrowBatches executes the statement as a query and reads all the rows as
// Arrow records of at most FetchSize rows each.
func (st *Statement) ArrowBatches(ctx context.Context, mem memory.Allocator) ([]arrow.Record, error) {
	ds, err := st.Query(ctx)
	if err != nil {
		return nil, err
	}
	return ds.ToArrowBatch(ctx, mem, int(ds.fetchSize))
}
