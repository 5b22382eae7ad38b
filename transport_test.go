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
	"encoding/binary"
	"sync"
)

// fakeTransport is an in-memory server. Every call is recorded; the status
// and error of each operation can be overridden by name.
type fakeTransport struct {
	mu sync.Mutex

	sessionID      int64
	statementID    int64
	serverProtocol ProtocolVersion
	timeZone       string

	statuses map[string]*Status
	errs     map[string]error
	// empty lists the operations that answer with neither response nor error.
	empty    map[string]bool
	calls    []string
	requests []any

	// result is served by the execute operations and FetchResults.
	result *fakeResult
}

// fakeResult is a query result split into pages, in wire column order.
type fakeResult struct {
	queryID         int64
	columns         []string
	dataTypes       []string
	indexMap        map[string]int32
	ignoreTimestamp bool
	pages           []*QueryDataSet
	next            int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		sessionID:      42,
		statementID:    7,
		serverProtocol: ProtocolV3,
		timeZone:       "Asia/Shanghai",
		statuses:       make(map[string]*Status),
		errs:           make(map[string]error),
		empty:          make(map[string]bool),
	}
}

func (f *fakeTransport) record(op string, req any) (*Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	f.requests = append(f.requests, req)
	if err := f.errs[op]; err != nil {
		return nil, err
	}
	if status, ok := f.statuses[op]; ok {
		return status, nil
	}
	return &Status{Code: SuccessStatus}, nil
}

func (f *fakeTransport) isEmpty(op string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.empty[op]
}

func (f *fakeTransport) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if call == op {
			n++
		}
	}
	return n
}

// last returns the last request recorded for op.
func (f *fakeTransport) last(op string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i] == op {
			return f.requests[i]
		}
	}
	return nil
}

func (f *fakeTransport) OpenSession(_ context.Context, req *OpenSessionRequest) (*OpenSessionResponse, error) {
	status, err := f.record("OpenSession", req)
	if err != nil || f.isEmpty("OpenSession") {
		return nil, err
	}
	return &OpenSessionResponse{
		Status:                status,
		ServerProtocolVersion: f.serverProtocol,
		SessionID:             f.sessionID,
	}, nil
}

func (f *fakeTransport) CloseSession(_ context.Context, req *CloseSessionRequest) (*Status, error) {
	return f.record("CloseSession", req)
}

func (f *fakeTransport) RequestStatementID(_ context.Context, sessionID int64) (int64, error) {
	if _, err := f.record("RequestStatementID", sessionID); err != nil {
		return 0, err
	}
	return f.statementID, nil
}

func (f *fakeTransport) GetTimeZone(_ context.Context, sessionID int64) (*TimeZoneResponse, error) {
	status, err := f.record("GetTimeZone", sessionID)
	if err != nil || f.isEmpty("GetTimeZone") {
		return nil, err
	}
	return &TimeZoneResponse{Status: status, TimeZone: f.timeZone}, nil
}

func (f *fakeTransport) SetTimeZone(_ context.Context, req *SetTimeZoneRequest) (*Status, error) {
	status, err := f.record("SetTimeZone", req)
	if err == nil && status.ok() {
		f.timeZone = req.TimeZone
	}
	return status, err
}

func (f *fakeTransport) executeResponse(op string, req any) (*ExecuteStatementResponse, error) {
	status, err := f.record(op, req)
	if err != nil || f.isEmpty(op) {
		return nil, err
	}
	resp := &ExecuteStatementResponse{Status: status}
	if r := f.result; r != nil && status.ok() {
		resp.QueryID = r.queryID
		resp.Columns = r.columns
		resp.DataTypeList = r.dataTypes
		resp.ColumnNameIndexMap = r.indexMap
		resp.IgnoreTimeStamp = r.ignoreTimestamp
		resp.QueryDataSet = &QueryDataSet{}
		if len(r.pages) > 0 {
			resp.QueryDataSet = r.pages[0]
			r.next = 1
		}
		resp.MoreData = r.next < len(r.pages)
	}
	return resp, nil
}

func (f *fakeTransport) ExecuteStatement(_ context.Context, req *ExecuteStatementRequest) (*ExecuteStatementResponse, error) {
	return f.executeResponse("ExecuteStatement", req)
}

func (f *fakeTransport) ExecuteQueryStatement(_ context.Context, req *ExecuteStatementRequest) (*ExecuteStatementResponse, error) {
	return f.executeResponse("ExecuteQueryStatement", req)
}

func (f *fakeTransport) ExecuteUpdateStatement(_ context.Context, req *ExecuteStatementRequest) (*ExecuteStatementResponse, error) {
	return f.executeResponse("ExecuteUpdateStatement", req)
}

func (f *fakeTransport) ExecuteRawDataQuery(_ context.Context, req *RawDataQueryRequest) (*ExecuteStatementResponse, error) {
	return f.executeResponse("ExecuteRawDataQuery", req)
}

func (f *fakeTransport) ExecuteBatchStatement(_ context.Context, req *ExecuteBatchStatementRequest) (*Status, error) {
	return f.record("ExecuteBatchStatement", req)
}

func (f *fakeTransport) FetchResults(_ context.Context, req *FetchResultsRequest) (*FetchResultsResponse, error) {
	status, err := f.record("FetchResults", req)
	if err != nil || f.isEmpty("FetchResults") {
		return nil, err
	}
	resp := &FetchResultsResponse{Status: status, IsAlign: true}
	if r := f.result; r != nil && r.next < len(r.pages) {
		resp.HasResultSet = true
		resp.QueryDataSet = r.pages[r.next]
		r.next++
		resp.MoreData = r.next < len(r.pages)
	}
	return resp, nil
}

func (f *fakeTransport) CloseOperation(_ context.Context, req *CloseOperationRequest) (*Status, error) {
	return f.record("CloseOperation", req)
}

func (f *fakeTransport) SetStorageGroup(_ context.Context, req *SetStorageGroupRequest) (*Status, error) {
	return f.record("SetStorageGroup", req)
}

func (f *fakeTransport) DeleteStorageGroups(_ context.Context, req *DeleteStorageGroupsRequest) (*Status, error) {
	return f.record("DeleteStorageGroups", req)
}

func (f *fakeTransport) CreateTimeseries(_ context.Context, req *CreateTimeseriesRequest) (*Status, error) {
	return f.record("CreateTimeseries", req)
}

func (f *fakeTransport) CreateMultiTimeseries(_ context.Context, req *CreateMultiTimeseriesRequest) (*Status, error) {
	return f.record("CreateMultiTimeseries", req)
}

func (f *fakeTransport) DeleteTimeseries(_ context.Context, req *DeleteTimeseriesRequest) (*Status, error) {
	return f.record("DeleteTimeseries", req)
}

func (f *fakeTransport) DeleteData(_ context.Context, req *DeleteDataRequest) (*Status, error) {
	return f.record("DeleteData", req)
}

func (f *fakeTransport) InsertRecord(_ context.Context, req *InsertRecordRequest) (*Status, error) {
	return f.record("InsertRecord", req)
}

func (f *fakeTransport) InsertStringRecord(_ context.Context, req *InsertStringRecordRequest) (*Status, error) {
	return f.record("InsertStringRecord", req)
}

func (f *fakeTransport) InsertRecords(_ context.Context, req *InsertRecordsRequest) (*Status, error) {
	return f.record("InsertRecords", req)
}

func (f *fakeTransport) InsertRecordsOfOneDevice(_ context.Context, req *InsertRecordsOfOneDeviceRequest) (*Status, error) {
	return f.record("InsertRecordsOfOneDevice", req)
}

func (f *fakeTransport) InsertTablet(_ context.Context, req *InsertTabletRequest) (*Status, error) {
	return f.record("InsertTablet", req)
}

func (f *fakeTransport) InsertTablets(_ context.Context, req *InsertTabletsRequest) (*Status, error) {
	return f.record("InsertTablets", req)
}

var _ Transport = (*fakeTransport)(nil)

// encodePage encodes rows, given in wire column order, the way the server
// lays out a result page.
func encodePage(types []TSDataType, timestamps []int64, rows [][]Value) *QueryDataSet {
	page := &QueryDataSet{
		Time:       encodeTimestamps(timestamps),
		ValueList:  make([][]byte, len(types)),
		BitmapList: make([][]byte, len(types)),
	}
	for col := range types {
		page.ValueList[col] = []byte{}
		for row, values := range rows {
			if row%8 == 0 {
				page.BitmapList[col] = append(page.BitmapList[col], 0)
			}
			if IsNull(values[col]) {
				continue
			}
			page.BitmapList[col][row/8] |= 0x80 >> (row % 8)
			page.ValueList[col] = appendPayload(page.ValueList[col], values[col])
		}
	}
	return page
}

// paginate splits rows into pages of at most pageSize rows.
func paginate(types []TSDataType, timestamps []int64, rows [][]Value, pageSize int) []*QueryDataSet {
	var pages []*QueryDataSet
	for start := 0; start < len(rows); start += pageSize {
		end := min(start+pageSize, len(rows))
		pages = append(pages, encodePage(types, timestamps[start:end], rows[start:end]))
	}
	return pages
}

func int64Payload(v int64) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(v))
}
