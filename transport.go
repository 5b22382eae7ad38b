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

import "context"

// Transport is the interface for the RPC client of the server.
//
// Every method is one blocking round trip. An error return means the call
// did not complete (connection or framing failure); server-side failures are
// reported through the returned Status instead. Implementations wrap the
// generated service stubs and own the connection; a Session never closes its
// Transport.
type Transport interface {
	// OpenSession authenticates and opens a session.
	OpenSession(context.Context, *OpenSessionRequest) (*OpenSessionResponse, error)
	// CloseSession closes a session.
	CloseSession(context.Context, *CloseSessionRequest) (*Status, error)
	// RequestStatementID allocates the statement ID used by the session's queries.
	RequestStatementID(ctx context.Context, sessionID int64) (int64, error)

	// GetTimeZone returns the time zone of the session.
	GetTimeZone(ctx context.Context, sessionID int64) (*TimeZoneResponse, error)
	// SetTimeZone sets the time zone of the session.
	SetTimeZone(context.Context, *SetTimeZoneRequest) (*Status, error)

	// ExecuteStatement executes any statement.
	ExecuteStatement(context.Context, *ExecuteStatementRequest) (*ExecuteStatementResponse, error)
	// ExecuteQueryStatement executes a query statement.
	ExecuteQueryStatement(context.Context, *ExecuteStatementRequest) (*ExecuteStatementResponse, error)
	// ExecuteUpdateStatement executes a non-query statement.
	ExecuteUpdateStatement(context.Context, *ExecuteStatementRequest) (*ExecuteStatementResponse, error)
	// ExecuteRawDataQuery queries raw data of paths in a time range.
	ExecuteRawDataQuery(context.Context, *RawDataQueryRequest) (*ExecuteStatementResponse, error)
	// ExecuteBatchStatement executes statements in one round trip.
	ExecuteBatchStatement(context.Context, *ExecuteBatchStatementRequest) (*Status, error)
	// FetchResults fetches the next page of a query result.
	FetchResults(context.Context, *FetchResultsRequest) (*FetchResultsResponse, error)
	// CloseOperation releases the server resources of a query.
	CloseOperation(context.Context, *CloseOperationRequest) (*Status, error)

	// SetStorageGroup creates a storage group.
	SetStorageGroup(context.Context, *SetStorageGroupRequest) (*Status, error)
	// DeleteStorageGroups deletes storage groups.
	DeleteStorageGroups(context.Context, *DeleteStorageGroupsRequest) (*Status, error)
	// CreateTimeseries creates a time series.
	CreateTimeseries(context.Context, *CreateTimeseriesRequest) (*Status, error)
	// CreateMultiTimeseries creates time series in one round trip.
	CreateMultiTimeseries(context.Context, *CreateMultiTimeseriesRequest) (*Status, error)
	// DeleteTimeseries deletes time series.
	DeleteTimeseries(context.Context, *DeleteTimeseriesRequest) (*Status, error)
	// DeleteData deletes data of time series in a time range.
	DeleteData(context.Context, *DeleteDataRequest) (*Status, error)

	// InsertRecord inserts one row of one device.
	InsertRecord(context.Context, *InsertRecordRequest) (*Status, error)
	// InsertStringRecord inserts one row of one device given as strings.
	InsertStringRecord(context.Context, *InsertStringRecordRequest) (*Status, error)
	// InsertRecords inserts rows of many devices.
	InsertRecords(context.Context, *InsertRecordsRequest) (*Status, error)
	// InsertRecordsOfOneDevice inserts rows of one device.
	InsertRecordsOfOneDevice(context.Context, *InsertRecordsOfOneDeviceRequest) (*Status, error)
	// InsertTablet inserts a tablet.
	InsertTablet(context.Context, *InsertTabletRequest) (*Status, error)
	// InsertTablets inserts tablets in one round trip.
	InsertTablets(context.Context, *InsertTabletsRequest) (*Status, error)
}
