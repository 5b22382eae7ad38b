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
	"fmt"

	"github.com/samber/lo"
)

type InsertRecordRequest struct {
	SessionID    int64
	PrefixPath   string
	Measurements []string
	// Values holds the tagged wire form of each value, concatenated.
	Values    []byte
	Timestamp int64
	IsAligned bool
}

type InsertStringRecordRequest struct {
	SessionID    int64
	PrefixPath   string
	Measurements []string
	Values       []string
	Timestamp    int64
	IsAligned    bool
}

type InsertRecordsRequest struct {
	SessionID        int64
	PrefixPaths      []string
	MeasurementsList [][]string
	ValuesList       [][]byte
	Timestamps       []int64
	IsAligned        bool
}

type InsertRecordsOfOneDeviceRequest struct {
	SessionID        int64
	PrefixPath       string
	MeasurementsList [][]string
	ValuesList       [][]byte
	Timestamps       []int64
	IsAligned        bool
}

type InsertTabletRequest struct {
	SessionID    int64
	PrefixPath   string
	Measurements []string
	// Values is the column-major value buffer of the tablet.
	Values []byte
	// Timestamps holds one 8-byte big-endian timestamp per row.
	Timestamps []byte
	Types      []int32
	Size       int32
	IsAligned  bool
}

type InsertTabletsRequest struct {
	SessionID        int64
	PrefixPaths      []string
	MeasurementsList [][]string
	ValuesList       [][]byte
	TimestampsList   [][]byte
	TypesList        [][]int32
	SizeList         []int32
	IsAligned        bool
}

// InsertRecord inserts one row of the device at deviceID. Values must be
// non-null and parallel to measurements.
func (s *Session) InsertRecord(ctx context.Context, deviceID string, measurements []string, values []Value, timestamp int64) error {
	buf, err := encodeRecord(measurements, values)
	if err != nil {
		return err
	}
	return s.execute("insert record", func(sessionID int64) (*Status, error) {
		return s.transport.InsertRecord(ctx, &InsertRecordRequest{
			SessionID:    sessionID,
			PrefixPath:   deviceID,
			Measurements: measurements,
			Values:       buf,
			Timestamp:    timestamp,
		})
	})
}

// InsertStringRecord inserts one row whose values are given in text form;
// the server converts them to the registered types of the measurements.
func (s *Session) InsertStringRecord(ctx context.Context, deviceID string, measurements []string, values []string, timestamp int64) error {
	if len(measurements) != len(values) {
		return fmt.Errorf("%w: got %d values for %d measurements", ErrSchemaMismatch, len(values), len(measurements))
	}
	return s.execute("insert string record", func(sessionID int64) (*Status, error) {
		return s.transport.InsertStringRecord(ctx, &InsertStringRecordRequest{
			SessionID:    sessionID,
			PrefixPath:   deviceID,
			Measurements: measurements,
			Values:       values,
			Timestamp:    timestamp,
		})
	})
}

// InsertRecords inserts rows of possibly different devices. The i-th row
// writes values[i] to measurements[i] of deviceIDs[i] at timestamps[i].
func (s *Session) InsertRecords(ctx context.Context, deviceIDs []string, measurements [][]string, values [][]Value, timestamps []int64) error {
	if len(measurements) != len(deviceIDs) || len(values) != len(deviceIDs) || len(timestamps) != len(deviceIDs) {
		return fmt.Errorf("%w: got %d devices, %d measurement lists, %d value lists and %d timestamps",
			ErrSchemaMismatch, len(deviceIDs), len(measurements), len(values), len(timestamps))
	}
	valuesList, err := encodeRecords(measurements, values)
	if err != nil {
		return err
	}
	return s.execute("insert records", func(sessionID int64) (*Status, error) {
		return s.transport.InsertRecords(ctx, &InsertRecordsRequest{
			SessionID:        sessionID,
			PrefixPaths:      deviceIDs,
			MeasurementsList: measurements,
			ValuesList:       valuesList,
			Timestamps:       timestamps,
		})
	})
}

// InsertRecordsOfOneDevice inserts rows of one device. Unless sorted is true,
// the rows are ordered by timestamp before sending; rows with equal
// timestamps keep their order. The caller's slices are not modified.
func (s *Session) InsertRecordsOfOneDevice(ctx context.Context, deviceID string, timestamps []int64, measurements [][]string, values [][]Value, sorted bool) error {
	if len(measurements) != len(timestamps) || len(values) != len(timestamps) {
		return fmt.Errorf("%w: got %d timestamps, %d measurement lists and %d value lists",
			ErrSchemaMismatch, len(timestamps), len(measurements), len(values))
	}
	if !sorted {
		perm := sortPermutation(timestamps)
		timestamps = permute(timestamps, perm)
		measurements = permute(measurements, perm)
		values = permute(values, perm)
	}
	valuesList, err := encodeRecords(measurements, values)
	if err != nil {
		return err
	}
	return s.execute("insert records of one device", func(sessionID int64) (*Status, error) {
		return s.transport.InsertRecordsOfOneDevice(ctx, &InsertRecordsOfOneDeviceRequest{
			SessionID:        sessionID,
			PrefixPath:       deviceID,
			MeasurementsList: measurements,
			ValuesList:       valuesList,
			Timestamps:       timestamps,
		})
	})
}

// InsertTablet writes the rows of t. Unless sorted is true, t is sorted in
// place first.
func (s *Session) InsertTablet(ctx context.Context, t *Tablet, sorted bool) error {
	return s.execute("insert tablet", func(sessionID int64) (*Status, error) {
		if !sorted {
			t.Sort()
		}
		req := tabletRequest(t)
		req.SessionID = sessionID
		return s.transport.InsertTablet(ctx, req)
	})
}

// InsertTablets writes the rows of every tablet in one round trip. Unless
// sorted is true, each tablet is sorted in place first.
func (s *Session) InsertTablets(ctx context.Context, tablets []*Tablet, sorted bool) error {
	return s.execute("insert tablets", func(sessionID int64) (*Status, error) {
		if !sorted {
			for _, t := range tablets {
				t.Sort()
			}
		}
		reqs := lo.Map(tablets, func(t *Tablet, _ int) *InsertTabletRequest {
			return tabletRequest(t)
		})
		return s.transport.InsertTablets(ctx, &InsertTabletsRequest{
			SessionID:        sessionID,
			PrefixPaths:      lo.Map(reqs, func(r *InsertTabletRequest, _ int) string { return r.PrefixPath }),
			MeasurementsList: lo.Map(reqs, func(r *InsertTabletRequest, _ int) []string { return r.Measurements }),
			ValuesList:       lo.Map(reqs, func(r *InsertTabletRequest, _ int) []byte { return r.Values }),
			TimestampsList:   lo.Map(reqs, func(r *InsertTabletRequest, _ int) []byte { return r.Timestamps }),
			TypesList:        lo.Map(reqs, func(r *InsertTabletRequest, _ int) []int32 { return r.Types }),
			SizeList:         lo.Map(reqs, func(r *InsertTabletRequest, _ int) int32 { return r.Size }),
		})
	})
}

func tabletRequest(t *Tablet) *InsertTabletRequest {
	return &InsertTabletRequest{
		PrefixPath: t.DeviceID(),
		Measurements: lo.Map(t.Schemas(), func(m *MeasurementSchema, _ int) string {
			return m.Measurement
		}),
		Values:     t.ValuesBuffer(),
		Timestamps: t.TimestampsBuffer(),
		Types: lo.Map(t.Schemas(), func(m *MeasurementSchema, _ int) int32 {
			return int32(m.DataType)
		}),
		Size: int32(t.RowCount()),
	}
}

// encodeRecord concatenates the tagged wire form of values.
func encodeRecord(measurements []string, values []Value) ([]byte, error) {
	if len(measurements) != len(values) {
		return nil, fmt.Errorf("%w: got %d values for %d measurements", ErrSchemaMismatch, len(values), len(measurements))
	}
	var buf []byte
	for i, v := range values {
		if IsNull(v) {
			return nil, fmt.Errorf("%w: measurement %s", ErrNullNotSupported, measurements[i])
		}
		buf = appendValue(buf, v)
	}
	return buf, nil
}

func encodeRecords(measurements [][]string, values [][]Value) ([][]byte, error) {
	valuesList := make([][]byte, len(values))
	for i := range values {
		buf, err := encodeRecord(measurements[i], values[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		valuesList[i] = buf
	}
	return valuesList, nil
}
