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
	"errors"
	"fmt"
)

type ExecuteStatementRequest struct {
	SessionID int64
	// Statement is the SQL statement to execute.
	Statement string
	// StatementID is the ID allocated when the session was opened.
	StatementID int64
	// FetchSize is the maximum number of rows of the first page.
	FetchSize int32
	// Timeout is the server-side timeout in milliseconds. Zero means no timeout.
	Timeout             int64
	EnableRedirectQuery bool
	JDBCQuery           bool
}

type ExecuteStatementResponse struct {
	Status *Status
	// QueryID identifies the query result on the server.
	QueryID int64
	// Columns are the result column names, in display order and without the
	// time column.
	Columns       []string
	OperationType string
	// IgnoreTimeStamp is true when the result has no meaningful time column.
	IgnoreTimeStamp bool
	// DataTypeList holds the type name of each column in Columns.
	DataTypeList []string
	// QueryDataSet is the first page of the result, if any.
	QueryDataSet *QueryDataSet
	// ColumnNameIndexMap maps each column name to its position in the
	// value and bitmap lists of a page. Nil means the positions follow Columns.
	ColumnNameIndexMap map[string]int32
	// MoreData reports whether pages remain after QueryDataSet.
	MoreData bool
}

// QueryDataSet is one page of a query result.
type QueryDataSet struct {
	// Time holds one 8-byte big-endian timestamp per row.
	Time []byte
	// ValueList holds, per column, the tag-less payloads of its non-null values.
	ValueList [][]byte
	// BitmapList holds, per column, one byte per 8 rows, most significant bit
	// first; a clear bit marks a null.
	BitmapList [][]byte
}

type RawDataQueryRequest struct {
	SessionID           int64
	Paths               []string
	FetchSize           int32
	StartTime           int64
	EndTime             int64
	StatementID         int64
	EnableRedirectQuery bool
	JDBCQuery           bool
}

type ExecuteBatchStatementRequest struct {
	SessionID  int64
	Statements []string
}

type FetchResultsRequest struct {
	SessionID int64
	Statement string
	FetchSize int32
	QueryID   int64
	IsAlign   bool
	Timeout   int64
}

type FetchResultsResponse struct {
	Status *Status
	// HasResultSet is false when the result has no more rows.
	HasResultSet bool
	IsAlign      bool
	QueryDataSet *QueryDataSet
	// MoreData reports whether pages remain after QueryDataSet.
	MoreData bool
}

type CloseOperationRequest struct {
	SessionID   int64
	QueryID     int64
	StatementID int64
}

type executeRPC func(context.Context, *ExecuteStatementRequest) (*ExecuteStatementResponse, error)

// ExecuteStatement executes any statement. The returned dataset is nil when
// the statement produces no result set.
//
// timeoutMs overrides the configured statement timeout when positive.
func (s *Session) ExecuteStatement(ctx context.Context, statement string, timeoutMs int64) (*SessionDataSet, error) {
	return s.executeStatement(ctx, "execute statement", s.transport.ExecuteStatement, statement, 0, timeoutMs, false)
}

// ExecuteQueryStatement executes a query and returns a cursor over its result.
//
// timeoutMs overrides the configured statement timeout when positive.
func (s *Session) ExecuteQueryStatement(ctx context.Context, statement string, timeoutMs int64) (*SessionDataSet, error) {
	return s.executeStatement(ctx, "execute query statement", s.transport.ExecuteQueryStatement, statement, 0, timeoutMs, true)
}

// ExecuteUpdateStatement executes a non-query statement. The returned dataset
// is nil unless the server answers with a result set.
func (s *Session) ExecuteUpdateStatement(ctx context.Context, statement string) (*SessionDataSet, error) {
	return s.executeStatement(ctx, "execute update statement", s.transport.ExecuteUpdateStatement, statement, 0, 0, false)
}

// ExecuteRawDataQuery queries the raw data of paths in [startTime, endTime).
func (s *Session) ExecuteRawDataQuery(ctx context.Context, paths []string, startTime, endTime int64) (*SessionDataSet, error) {
	var ds *SessionDataSet
	err := s.call(func(sessionID int64) error {
		resp, err := s.transport.ExecuteRawDataQuery(ctx, &RawDataQueryRequest{
			SessionID:           sessionID,
			Paths:               paths,
			FetchSize:           s.config.FetchSize,
			StartTime:           startTime,
			EndTime:             endTime,
			StatementID:         s.statementID,
			EnableRedirectQuery: s.config.EnableRedirectQuery,
		})
		if err != nil {
			return transportError("execute raw data query", err)
		}
		if resp == nil {
			return transportError("execute raw data query", errEmptyResponse)
		}
		if err := checkStatus(resp.Status); err != nil {
			return err
		}
		if resp.QueryDataSet == nil {
			return errors.New("raw data query returned no result set")
		}
		ds, err = s.newDataSet(ctx, fmt.Sprintf("raw data query %v [%d, %d)", paths, startTime, endTime), resp, s.config.FetchSize, s.config.TimeoutMs)
		return err
	})
	return ds, err
}

// ExecuteBatchStatement executes statements in one round trip.
func (s *Session) ExecuteBatchStatement(ctx context.Context, statements []string) error {
	return s.execute("execute batch statement", func(sessionID int64) (*Status, error) {
		return s.transport.ExecuteBatchStatement(ctx, &ExecuteBatchStatementRequest{
			SessionID:  sessionID,
			Statements: statements,
		})
	})
}

// executeStatement runs rpc for statement. Non-positive fetchSize and
// timeoutMs fall back to the configured values.
func (s *Session) executeStatement(ctx context.Context, op string, rpc executeRPC, statement string, fetchSize int32, timeoutMs int64, query bool) (*SessionDataSet, error) {
	if fetchSize <= 0 {
		fetchSize = s.config.FetchSize
	}
	if timeoutMs <= 0 {
		timeoutMs = s.config.TimeoutMs
	}

	var ds *SessionDataSet
	err := s.call(func(sessionID int64) error {
		resp, err := rpc(ctx, &ExecuteStatementRequest{
			SessionID:           sessionID,
			Statement:           statement,
			StatementID:         s.statementID,
			FetchSize:           fetchSize,
			Timeout:             timeoutMs,
			EnableRedirectQuery: s.config.EnableRedirectQuery,
		})
		if err != nil {
			return transportError(op, err)
		}
		if resp == nil {
			return transportError(op, errEmptyResponse)
		}
		if err := checkStatus(resp.Status); err != nil {
			return err
		}
		s.logger.Debug().
			Str("statement", statement).
			Int64("query_id", resp.QueryID).
			Bool("result_set", resp.QueryDataSet != nil).
			Msg("statement executed")

		if resp.QueryDataSet == nil {
			if query {
				return fmt.Errorf("query %q returned no result set", statement)
			}
			return nil
		}
		ds, err = s.newDataSet(ctx, statement, resp, fetchSize, timeoutMs)
		return err
	})
	return ds, err
}

// newDataSet creates the cursor of a query result. The caller holds s.mu.
// If the response cannot be decoded, the server query is released.
func (s *Session) newDataSet(ctx context.Context, statement string, resp *ExecuteStatementResponse, fetchSize int32, timeoutMs int64) (*SessionDataSet, error) {
	ds, err := newSessionDataSet(s, statement, resp, fetchSize, timeoutMs)
	if err != nil {
		if _, cerr := s.transport.CloseOperation(ctx, &CloseOperationRequest{
			SessionID:   s.sessionID,
			QueryID:     resp.QueryID,
			StatementID: s.statementID,
		}); cerr != nil {
			s.logger.Warn().Err(cerr).Int64("query_id", resp.QueryID).Msg("failed to release query")
		}
		return nil, err
	}
	s.datasets[ds] = struct{}{}
	return ds, nil
}

// fetchResults fetches the next page of the query behind ds.
func (s *Session) fetchResults(ctx context.Context, ds *SessionDataSet) (*FetchResultsResponse, error) {
	var resp *FetchResultsResponse
	err := s.call(func(sessionID int64) error {
		r, err := s.transport.FetchResults(ctx, &FetchResultsRequest{
			SessionID: sessionID,
			Statement: ds.statement,
			FetchSize: ds.fetchSize,
			QueryID:   ds.queryID,
			IsAlign:   true,
			Timeout:   ds.timeoutMs,
		})
		if err != nil {
			return transportError("fetch results", err)
		}
		if r == nil {
			return transportError("fetch results", errEmptyResponse)
		}
		if err := checkStatus(r.Status); err != nil {
			return err
		}
		resp = r
		return nil
	})
	return resp, err
}

// closeOperation releases the server resources of the query behind ds.
func (s *Session) closeOperation(ctx context.Context, ds *SessionDataSet) error {
	s.mu.Lock()
	delete(s.datasets, ds)
	s.mu.Unlock()

	err := s.execute("close operation", func(sessionID int64) (*Status, error) {
		return s.transport.CloseOperation(ctx, &CloseOperationRequest{
			SessionID:   sessionID,
			QueryID:     ds.queryID,
			StatementID: s.statementID,
		})
	})
	s.logger.Debug().Int64("query_id", ds.queryID).Err(err).Msg("query released")
	return err
}
