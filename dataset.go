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
	"fmt"
	"iter"
	"slices"
)

// TimeColumn is the name of the synthetic leading column that carries the
// row timestamp.
const TimeColumn = "Time"

// DataSet is a forward-only sequence of rows.
type DataSet interface {
	// IsIgnoreTimestamp returns true if rows carry no time column.
	IsIgnoreTimestamp() bool
	// ColumnNames returns the column names in display order.
	ColumnNames() []string
	// ColumnTypes returns the data types parallel to ColumnNames.
	ColumnTypes() []TSDataType
	// All returns the remaining rows. The sequence can be ranged over once.
	All(ctx context.Context) iter.Seq2[*RowRecord, error]
}

// RowRecord is one decoded row.
type RowRecord struct {
	// Timestamp is the row timestamp, also present as the first value unless
	// the dataset ignores timestamps.
	Timestamp int64
	// Values are in the order of the dataset's ColumnNames.
	Values []Value
}

// DataSetState is the lifecycle state of a SessionDataSet.
type DataSetState int

const (
	// DataSetOpen means more rows may be read.
	DataSetOpen DataSetState = iota
	// DataSetExhausted means every row was read and the server query was released.
	DataSetExhausted
	// DataSetClosed means the dataset was closed by the caller.
	DataSetClosed
)

func (s DataSetState) String() string {
	switch s {
	case DataSetOpen:
		return "open"
	case DataSetExhausted:
		return "exhausted"
	case DataSetClosed:
		return "closed"
	default:
		return fmt.Sprintf("DataSetState(%d)", int(s))
	}
}

// SessionDataSet is a cursor over the result of a query.
//
// The first page arrives with the query response; further pages are fetched
// through the session when the buffered one runs out. The server query is
// released when the rows are exhausted, when Close is called, or when the
// session is closed, whichever happens first.
//
// A SessionDataSet is not safe for concurrent use.
type SessionDataSet struct {
	s         *Session
	statement string
	queryID   int64
	fetchSize int32
	timeoutMs int64

	ignoreTimestamp bool
	columnNames     []string
	columnTypes     []TSDataType
	// wireTypes is the declared type of each column as laid out on the wire.
	wireTypes []TSDataType
	// displayToWire maps each display column to its wire column.
	displayToWire []int

	page     QueryDataSet
	moreData bool
	rowIndex int
	bitmaps  []byte

	state    DataSetState
	released bool
	record   *RowRecord
	err      error
}

var _ DataSet = (*SessionDataSet)(nil)

func newSessionDataSet(s *Session, statement string, resp *ExecuteStatementResponse, fetchSize int32, timeoutMs int64) (*SessionDataSet, error) {
	if len(resp.DataTypeList) != len(resp.Columns) {
		return nil, fmt.Errorf("got %d data types for %d columns", len(resp.DataTypeList), len(resp.Columns))
	}

	columnTypes := make([]TSDataType, len(resp.Columns))
	for i, name := range resp.DataTypeList {
		t, err := ParseDataType(name)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", resp.Columns[i], err)
		}
		columnTypes[i] = t
	}

	displayToWire := make([]int, len(resp.Columns))
	wireCount := 0
	for i, name := range resp.Columns {
		w := i
		if resp.ColumnNameIndexMap != nil {
			idx, ok := resp.ColumnNameIndexMap[name]
			if !ok {
				return nil, fmt.Errorf("column %s is missing from the column index map", name)
			}
			w = int(idx)
		}
		if w < 0 || w >= len(resp.Columns) {
			return nil, fmt.Errorf("column %s has invalid wire index %d", name, w)
		}
		displayToWire[i] = w
		wireCount = max(wireCount, w+1)
	}

	wireTypes := make([]TSDataType, wireCount)
	assigned := make([]bool, wireCount)
	for i, w := range displayToWire {
		wireTypes[w] = columnTypes[i]
		assigned[w] = true
	}
	if i := slices.Index(assigned, false); i >= 0 {
		return nil, fmt.Errorf("no column is mapped to wire index %d", i)
	}

	ds := &SessionDataSet{
		s:               s,
		statement:       statement,
		queryID:         resp.QueryID,
		fetchSize:       fetchSize,
		timeoutMs:       timeoutMs,
		ignoreTimestamp: resp.IgnoreTimeStamp,
		columnNames:     slices.Clone(resp.Columns),
		columnTypes:     columnTypes,
		wireTypes:       wireTypes,
		displayToWire:   displayToWire,
		bitmaps:         make([]byte, wireCount),
		state:           DataSetOpen,
	}
	if err := ds.load(resp.QueryDataSet, resp.MoreData); err != nil {
		return nil, err
	}
	return ds, nil
}

// IsIgnoreTimestamp returns true if rows carry no time column.
func (ds *SessionDataSet) IsIgnoreTimestamp() bool {
	return ds.ignoreTimestamp
}

// ColumnNames returns the column names in display order, starting with
// TimeColumn unless timestamps are ignored.
func (ds *SessionDataSet) ColumnNames() []string {
	if ds.ignoreTimestamp {
		return slices.Clone(ds.columnNames)
	}
	return append([]string{TimeColumn}, ds.columnNames...)
}

// ColumnTypes returns the data types parallel to ColumnNames.
func (ds *SessionDataSet) ColumnTypes() []TSDataType {
	if ds.ignoreTimestamp {
		return slices.Clone(ds.columnTypes)
	}
	return append([]TSDataType{Int64DataType}, ds.columnTypes...)
}

// State returns the lifecycle state.
func (ds *SessionDataSet) State() DataSetState {
	return ds.state
}

// Record returns the row read by the last successful call to Next.
func (ds *SessionDataSet) Record() *RowRecord {
	return ds.record
}

// Err returns the error that stopped iteration, if any.
func (ds *SessionDataSet) Err() error {
	return ds.err
}

// Next advances to the next row, fetching the next page when the buffered
// one is consumed. It returns false when there are no more rows or an error
// occurred; check Err to tell them apart.
func (ds *SessionDataSet) Next(ctx context.Context) bool {
	ds.record = nil
	if ds.state != DataSetOpen || ds.err != nil {
		return false
	}

	for len(ds.page.Time) == 0 {
		if !ds.moreData {
			ds.exhaust(ctx)
			return false
		}
		if !ds.fetch(ctx) {
			return false
		}
	}

	record, err := ds.decodeRow()
	if err != nil {
		ds.err = err
		return false
	}
	ds.record = record
	return true
}

// All returns the remaining rows. The dataset is closed when the sequence
// ends, including when the caller stops early.
func (ds *SessionDataSet) All(ctx context.Context) iter.Seq2[*RowRecord, error] {
	return func(yield func(*RowRecord, error) bool) {
		defer func() { _ = ds.Close(ctx) }()

		for ds.Next(ctx) {
			if !yield(ds.record, nil) {
				return
			}
		}
		if ds.err != nil {
			yield(nil, ds.err)
		}
	}
}

// ToValues reads the remaining rows and returns them as value lists, then
// closes the dataset.
func (ds *SessionDataSet) ToValues(ctx context.Context) ([][]Value, error) {
	var rows [][]Value
	for record, err := range ds.All(ctx) {
		if err != nil {
			return nil, err
		}
		rows = append(rows, record.Values)
	}
	return rows, nil
}

// Close releases the server query. Closing a closed dataset does nothing.
func (ds *SessionDataSet) Close(ctx context.Context) error {
	if ds.state == DataSetClosed {
		return nil
	}
	ds.state = DataSetClosed
	ds.page = QueryDataSet{}
	return ds.release(ctx)
}

func (ds *SessionDataSet) exhaust(ctx context.Context) {
	ds.state = DataSetExhausted
	if err := ds.release(ctx); err != nil {
		ds.s.logger.Warn().Err(err).Int64("query_id", ds.queryID).Msg("failed to release exhausted query")
		ds.err = err
	}
}

func (ds *SessionDataSet) release(ctx context.Context) error {
	if ds.released {
		return nil
	}
	ds.released = true
	return ds.s.closeOperation(ctx, ds)
}

// fetch loads the next page. It returns false if iteration must stop.
func (ds *SessionDataSet) fetch(ctx context.Context) bool {
	resp, err := ds.s.fetchResults(ctx, ds)
	if err != nil {
		ds.err = err
		return false
	}
	if !resp.HasResultSet || resp.QueryDataSet == nil || len(resp.QueryDataSet.Time) == 0 {
		ds.moreData = false
		ds.exhaust(ctx)
		return false
	}
	if err := ds.load(resp.QueryDataSet, resp.MoreData); err != nil {
		ds.err = err
		return false
	}
	ds.s.logger.Debug().
		Int64("query_id", ds.queryID).
		Int("rows", len(ds.page.Time)/8).
		Bool("more_data", ds.moreData).
		Msg("fetched result page")
	return true
}

// load buffers page. The outer slices are copied so decoding never writes
// to the caller's page.
func (ds *SessionDataSet) load(page *QueryDataSet, moreData bool) error {
	ds.moreData = moreData
	ds.rowIndex = 0
	if page == nil {
		ds.page = QueryDataSet{}
		return nil
	}
	if len(page.Time)%8 != 0 {
		return fmt.Errorf("%w: time buffer of %d bytes", ErrTruncated, len(page.Time))
	}
	if len(page.Time) > 0 && (len(page.ValueList) != len(ds.wireTypes) || len(page.BitmapList) != len(ds.wireTypes)) {
		return fmt.Errorf("%w: page has %d value and %d bitmap columns, want %d",
			ErrTruncated, len(page.ValueList), len(page.BitmapList), len(ds.wireTypes))
	}
	ds.page = QueryDataSet{
		Time:       page.Time,
		ValueList:  slices.Clone(page.ValueList),
		BitmapList: slices.Clone(page.BitmapList),
	}
	return nil
}

// decodeRow decodes the next buffered row.
func (ds *SessionDataSet) decodeRow() (*RowRecord, error) {
	timestamp := int64(binary.BigEndian.Uint64(ds.page.Time))
	ds.page.Time = ds.page.Time[8:]

	shift := ds.rowIndex % 8
	wire := make([]Value, len(ds.wireTypes))
	for col, t := range ds.wireTypes {
		if shift == 0 {
			if len(ds.page.BitmapList[col]) == 0 {
				return nil, fmt.Errorf("%w: bitmap of column %d ends at row %d", ErrTruncated, col, ds.rowIndex)
			}
			ds.bitmaps[col] = ds.page.BitmapList[col][0]
			ds.page.BitmapList[col] = ds.page.BitmapList[col][1:]
		}
		if ds.bitmaps[col]&(0x80>>shift) == 0 {
			wire[col] = Null{}
			continue
		}

		v, n, err := decodePayload(t, ds.page.ValueList[col])
		if err != nil {
			return nil, fmt.Errorf("column %d row %d: %w", col, ds.rowIndex, err)
		}
		ds.page.ValueList[col] = ds.page.ValueList[col][n:]
		wire[col] = v
	}
	ds.rowIndex++

	values := make([]Value, 0, len(ds.displayToWire)+1)
	if !ds.ignoreTimestamp {
		values = append(values, Int64(timestamp))
	}
	for _, w := range ds.displayToWire {
		values = append(values, wire[w])
	}
	return &RowRecord{Timestamp: timestamp, Values: values}, nil
}
