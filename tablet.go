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
	"cmp"
	"encoding/binary"
	"fmt"
	"slices"
)

// Tablet is a columnar batch of timestamped rows for one device.
//
// Rows are appended with AddRow. The server requires rows ordered by
// timestamp: call Sort before handing the tablet to InsertTablet with
// sorted=true, or let InsertTablet sort it. Appending after Sort invalidates
// the order and the tablet does not track that; sort again before the next
// write.
type Tablet struct {
	deviceID   string
	schemas    []*MeasurementSchema
	timestamps []int64
	columns    [][]Value
}

// NewTablet creates an empty tablet with one column per schema.
func NewTablet(deviceID string, schemas []*MeasurementSchema) *Tablet {
	return &Tablet{
		deviceID: deviceID,
		schemas:  schemas,
		columns:  make([][]Value, len(schemas)),
	}
}

// DeviceID returns the device path the tablet writes to.
func (t *Tablet) DeviceID() string {
	return t.deviceID
}

// Schemas returns the measurement schemas, in column order.
func (t *Tablet) Schemas() []*MeasurementSchema {
	return t.schemas
}

// RowCount returns the number of rows.
func (t *Tablet) RowCount() int {
	return len(t.timestamps)
}

// Timestamps returns a copy of the row timestamps.
func (t *Tablet) Timestamps() []int64 {
	return slices.Clone(t.timestamps)
}

// Column returns a copy of the i-th column.
func (t *Tablet) Column(i int) []Value {
	return slices.Clone(t.columns[i])
}

// AddRow appends one row. The values must be non-null and match the schemas
// in number and type; otherwise the tablet is left unchanged.
func (t *Tablet) AddRow(values []Value, timestamp int64) error {
	if len(values) != len(t.schemas) {
		return fmt.Errorf("%w: got %d values for %d measurements", ErrSchemaMismatch, len(values), len(t.schemas))
	}
	for i, v := range values {
		if IsNull(v) {
			return fmt.Errorf("%w: measurement %s", ErrNullNotSupported, t.schemas[i].Measurement)
		}
		if v.DataType() != t.schemas[i].DataType {
			return fmt.Errorf("%w: measurement %s expects %s, got %s",
				ErrSchemaMismatch, t.schemas[i].Measurement, t.schemas[i].DataType, v.DataType())
		}
	}

	t.timestamps = append(t.timestamps, timestamp)
	for i, v := range values {
		t.columns[i] = append(t.columns[i], v)
	}
	return nil
}

// Reset drops every row but keeps the schemas.
func (t *Tablet) Reset() {
	t.timestamps = t.timestamps[:0]
	for i := range t.columns {
		t.columns[i] = t.columns[i][:0]
	}
}

// Sorted returns true if the timestamps are in non-decreasing order.
func (t *Tablet) Sorted() bool {
	return slices.IsSorted(t.timestamps)
}

// Sort orders the rows by timestamp. Rows with equal timestamps keep their
// insertion order.
func (t *Tablet) Sort() {
	if t.Sorted() {
		return
	}

	perm := sortPermutation(t.timestamps)
	timestamps := permute(t.timestamps, perm)
	columns := make([][]Value, len(t.columns))
	for i, column := range t.columns {
		columns[i] = permute(column, perm)
	}
	t.timestamps, t.columns = timestamps, columns
}

// sortPermutation returns the stable permutation that orders timestamps.
func sortPermutation(timestamps []int64) []int {
	perm := make([]int, len(timestamps))
	for i := range perm {
		perm[i] = i
	}
	slices.SortStableFunc(perm, func(a, b int) int {
		return cmp.Compare(timestamps[a], timestamps[b])
	})
	return perm
}

func permute[T any](s []T, perm []int) []T {
	out := make([]T, len(perm))
	for i, j := range perm {
		out[i] = s[j]
	}
	return out
}

// ValuesBuffer returns the value buffer of the tablet as the server expects
// it: column by column in schema order, each value's payload without its type
// tag.
func (t *Tablet) ValuesBuffer() []byte {
	var buf []byte
	for _, column := range t.columns {
		for _, v := range column {
			buf = appendPayload(buf, v)
		}
	}
	return buf
}

// TimestampsBuffer returns the timestamps as 8-byte big-endian integers.
func (t *Tablet) TimestampsBuffer() []byte {
	return encodeTimestamps(t.timestamps)
}

func encodeTimestamps(timestamps []int64) []byte {
	buf := make([]byte, 0, 8*len(timestamps))
	for _, ts := range timestamps {
		buf = binary.BigEndian.AppendUint64(buf, uint64(ts))
	}
	return buf
}
