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
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSessionOpen(t *testing.T) {
	ctx := context.Background()
	ft := newFakeTransport()
	config := DefaultConfig()
	config.Username = "admin"
	config.TimeZone = "+08:00"
	s := NewSession(config, ft, zerolog.Nop())
	require.False(t, s.IsOpen())

	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Open(ctx))
	require.True(t, s.IsOpen())
	require.Equal(t, 1, ft.count("OpenSession"))
	require.Equal(t, 1, ft.count("RequestStatementID"))

	req := ft.last("OpenSession").(*OpenSessionRequest)
	require.Equal(t, ProtocolV3, req.ClientProtocol)
	require.Equal(t, "admin", req.Username)
	require.Equal(t, "+08:00", req.ZoneID)
	_, err := uuid.Parse(req.Configuration["client_id"])
	require.NoError(t, err)

	require.NoError(t, s.Close(ctx))
	require.False(t, s.IsOpen())
	require.Equal(t, &CloseSessionRequest{SessionID: 42}, ft.last("CloseSession"))
}

func TestSessionOpenFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("status", func(t *testing.T) {
		ft := newFakeTransport()
		ft.statuses["OpenSession"] = &Status{Code: WrongLoginPasswordError, Message: "authentication failed"}
		s := NewSession(nil, ft, zerolog.Nop())
		require.EqualError(t, s.Open(ctx), "600: authentication failed")
		require.False(t, s.IsOpen())
	})

	t.Run("protocol", func(t *testing.T) {
		ft := newFakeTransport()
		ft.serverProtocol = ProtocolV2
		s := NewSession(nil, ft, zerolog.Nop())
		err := s.Open(ctx)
		var statusErr *Error
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, IncompatibleVersion, statusErr.Code)
		require.EqualError(t, err, "203: protocol differs, client version V3 but server version V2")
		require.Equal(t, 1, ft.count("CloseSession"))
		require.False(t, s.IsOpen())
	})

	t.Run("statement id", func(t *testing.T) {
		ft := newFakeTransport()
		ft.errs["RequestStatementID"] = errors.New("broken pipe")
		s := NewSession(nil, ft, zerolog.Nop())
		require.EqualError(t, s.Open(ctx), "request statement id: broken pipe")
		require.Equal(t, 1, ft.count("CloseSession"))
		require.False(t, s.IsOpen())
	})

	t.Run("empty response", func(t *testing.T) {
		ft := newFakeTransport()
		ft.empty["OpenSession"] = true
		s := NewSession(nil, ft, zerolog.Nop())
		require.EqualError(t, s.Open(ctx), "open session: empty response")
		require.False(t, s.IsOpen())
		require.Zero(t, ft.count("RequestStatementID"))
	})
}

func TestEmptyResponses(t *testing.T) {
	ctx := context.Background()
	s, ft := NewTestSession(t)
	defer s.Close(ctx)

	ft.empty["GetTimeZone"] = true
	_, err := s.TimeZone(ctx)
	require.EqualError(t, err, "get time zone: empty response")

	ft.empty["ExecuteQueryStatement"] = true
	_, err = s.ExecuteQueryStatement(ctx, "SELECT s1 FROM root.sg.d1", 0)
	require.EqualError(t, err, "execute query statement: empty response")

	ft.empty["ExecuteRawDataQuery"] = true
	_, err = s.ExecuteRawDataQuery(ctx, []string{"root.sg.d1.s1"}, 0, 10)
	require.EqualError(t, err, "execute raw data query: empty response")

	ft.result = &fakeResult{
		queryID:   5,
		columns:   []string{"root.sg.d1.s1"},
		dataTypes: []string{"INT32"},
		pages: paginate([]TSDataType{Int32DataType}, []int64{1, 2},
			[][]Value{{Int32(1)}, {Int32(2)}}, 1),
	}
	ft.empty["FetchResults"] = true
	ds, err := s.ExecuteStatement(ctx, "SELECT s1 FROM root.sg.d1", 0)
	require.NoError(t, err)
	require.True(t, ds.Next(ctx))
	require.False(t, ds.Next(ctx))
	require.EqualError(t, ds.Err(), "fetch results: empty response")
	require.NoError(t, ds.Close(ctx))
}

func TestSessionTimeZone(t *testing.T) {
	ctx := context.Background()
	s, ft := NewTestSession(t)
	defer s.Close(ctx)

	tz, err := s.TimeZone(ctx)
	require.NoError(t, err)
	require.Equal(t, "Asia/Shanghai", tz)

	require.NoError(t, s.SetTimeZone(ctx, "UTC"))
	tz, err = s.TimeZone(ctx)
	require.NoError(t, err)
	require.Equal(t, "UTC", tz)

	ft.statuses["SetTimeZone"] = &Status{Code: SetTimeZoneError, Message: "unknown zone"}
	require.EqualError(t, s.SetTimeZone(ctx, "Mars/Olympus"), "403: unknown zone")
}

func TestExecuteStatement(t *testing.T) {
	ctx := context.Background()
	s, ft := NewTestSession(t)
	defer s.Close(ctx)

	ds, err := s.ExecuteStatement(ctx, "CREATE DATABASE root.sg", 0)
	require.NoError(t, err)
	require.Nil(t, ds)

	req := ft.last("ExecuteStatement").(*ExecuteStatementRequest)
	require.Equal(t, int64(42), req.SessionID)
	require.Equal(t, int64(7), req.StatementID)
	require.Equal(t, int64(30000), req.Timeout)
	require.Equal(t, int32(1024), req.FetchSize)

	_, err = s.ExecuteStatement(ctx, "FLUSH", 500)
	require.NoError(t, err)
	require.Equal(t, int64(500), ft.last("ExecuteStatement").(*ExecuteStatementRequest).Timeout)

	ds, err = s.ExecuteUpdateStatement(ctx, "DELETE FROM root.sg.d1.s1")
	require.NoError(t, err)
	require.Nil(t, ds)

	_, err = s.ExecuteQueryStatement(ctx, "SELECT * FROM root.sg.d1", 0)
	require.EqualError(t, err, `query "SELECT * FROM root.sg.d1" returned no result set`)

	ft.statuses["ExecuteStatement"] = &Status{Code: SQLParseError, Message: "mismatched input"}
	_, err = s.ExecuteStatement(ctx, "SELEC", 0)
	require.EqualError(t, err, "401: mismatched input")
}

func TestExecuteBatchAndRawDataQuery(t *testing.T) {
	ctx := context.Background()
	s, ft := NewTestSession(t)
	defer s.Close(ctx)

	statements := []string{"CREATE DATABASE root.a", "CREATE DATABASE root.b"}
	require.NoError(t, s.ExecuteBatchStatement(ctx, statements))
	require.Equal(t, &ExecuteBatchStatementRequest{SessionID: 42, Statements: statements}, ft.last("ExecuteBatchStatement"))

	ft.result = &fakeResult{
		queryID:   21,
		columns:   []string{"root.sg.d1.s1"},
		dataTypes: []string{"INT32"},
		pages:     paginate([]TSDataType{Int32DataType}, []int64{10, 20}, [][]Value{{Int32(1)}, {Int32(2)}}, 8),
	}
	ds, err := s.ExecuteRawDataQuery(ctx, []string{"root.sg.d1.s1"}, 0, 100)
	require.NoError(t, err)
	values, err := ds.ToValues(ctx)
	require.NoError(t, err)
	require.Equal(t, [][]Value{{Int64(10), Int32(1)}, {Int64(20), Int32(2)}}, values)

	req := ft.last("ExecuteRawDataQuery").(*RawDataQueryRequest)
	require.Equal(t, []string{"root.sg.d1.s1"}, req.Paths)
	require.Equal(t, int64(0), req.StartTime)
	require.Equal(t, int64(100), req.EndTime)
}

func TestStatement(t *testing.T) {
	ctx := context.Background()
	s, ft := NewTestSession(t)
	defer s.Close(ctx)

	ft.result = &fakeResult{
		queryID:   31,
		columns:   []string{"count(root.sg.d1.s1)"},
		dataTypes: []string{"INT64"},
		pages:     paginate([]TSDataType{Int64DataType}, []int64{0}, [][]Value{{Int64(3)}}, 8),
	}

	st := s.Statement("SELECT count(s1) FROM root.sg.d1")
	st.Timeout = 2 * time.Second
	st.FetchSize = 16
	values, err := st.Values(ctx)
	require.NoError(t, err)
	require.Equal(t, [][]Value{{Int64(0), Int64(3)}}, values)

	req := ft.last("ExecuteQueryStatement").(*ExecuteStatementRequest)
	require.Equal(t, int64(2000), req.Timeout)
	require.Equal(t, int32(16), req.FetchSize)
	require.Equal(t, 1, ft.count("CloseOperation"))

	// An update that answers with a result set releases it.
	require.NoError(t, s.Statement("FLUSH").Update(ctx))
	require.Equal(t, 2, ft.count("CloseOperation"))
}

func TestAutoReleaseFailureIsLogged(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	ft := newFakeTransport()
	s := NewSession(nil, ft, zerolog.New(&logs))
	require.NoError(t, s.Open(ctx))
	defer s.Close(ctx)

	ft.result = &fakeResult{
		queryID:   41,
		columns:   []string{"s1"},
		dataTypes: []string{"BOOLEAN"},
		pages:     paginate([]TSDataType{BooleanDataType}, []int64{1}, [][]Value{{Boolean(true)}}, 8),
	}
	ft.statuses["CloseOperation"] = &Status{Code: CloseOperationError, Message: "query not found"}

	ds, err := s.ExecuteQueryStatement(ctx, "SELECT s1 FROM root.sg.d1", 0)
	require.NoError(t, err)
	require.True(t, ds.Next(ctx))
	require.False(t, ds.Next(ctx))
	require.EqualError(t, ds.Err(), "501: query not found")
	require.Equal(t, DataSetExhausted, ds.State())
	require.Contains(t, logs.String(), `"level":"warn"`)
	require.Contains(t, logs.String(), `"query_id":41`)
	require.Contains(t, logs.String(), `"component":"session"`)
}
