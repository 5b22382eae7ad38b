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

	"github.com/samber/lo"
)

type SetStorageGroupRequest struct {
	SessionID    int64
	StorageGroup string
}

type DeleteStorageGroupsRequest struct {
	SessionID     int64
	StorageGroups []string
}

type CreateTimeseriesRequest struct {
	SessionID        int64
	Path             string
	DataType         int32
	Encoding         int32
	Compressor       int32
	Props            map[string]string
	Tags             map[string]string
	Attributes       map[string]string
	MeasurementAlias string
}

type CreateMultiTimeseriesRequest struct {
	SessionID            int64
	Paths                []string
	DataTypes            []int32
	Encodings            []int32
	Compressors          []int32
	PropsList            []map[string]string
	AttributesList       []map[string]string
	TagsList             []map[string]string
	MeasurementAliasList []string
}

type DeleteTimeseriesRequest struct {
	SessionID int64
	Paths     []string
}

type DeleteDataRequest struct {
	SessionID int64
	Paths     []string
	StartTime int64
	EndTime   int64
}

// SetStorageGroup creates the storage group at the given path, e.g. "root.sg".
func (s *Session) SetStorageGroup(ctx context.Context, storageGroup string) error {
	return s.execute("set storage group", func(sessionID int64) (*Status, error) {
		return s.transport.SetStorageGroup(ctx, &SetStorageGroupRequest{
			SessionID:    sessionID,
			StorageGroup: storageGroup,
		})
	})
}

// DeleteStorageGroup deletes a storage group and all of its data.
func (s *Session) DeleteStorageGroup(ctx context.Context, storageGroup string) error {
	return s.DeleteStorageGroups(ctx, []string{storageGroup})
}

// DeleteStorageGroups deletes storage groups and all of their data.
func (s *Session) DeleteStorageGroups(ctx context.Context, storageGroups []string) error {
	return s.execute("delete storage groups", func(sessionID int64) (*Status, error) {
		return s.transport.DeleteStorageGroups(ctx, &DeleteStorageGroupsRequest{
			SessionID:     sessionID,
			StorageGroups: storageGroups,
		})
	})
}

// CreateTimeseries creates one time series.
func (s *Session) CreateTimeseries(ctx context.Context, ts *Timeseries) error {
	return s.execute("create timeseries", func(sessionID int64) (*Status, error) {
		return s.transport.CreateTimeseries(ctx, &CreateTimeseriesRequest{
			SessionID:        sessionID,
			Path:             ts.Path,
			DataType:         int32(ts.DataType),
			Encoding:         int32(ts.Encoding),
			Compressor:       int32(ts.Compressor),
			Props:            ts.Props,
			Tags:             ts.Tags,
			Attributes:       ts.Attributes,
			MeasurementAlias: ts.Alias,
		})
	})
}

// CreateMultiTimeseries creates time series in one round trip.
func (s *Session) CreateMultiTimeseries(ctx context.Context, ts []*Timeseries) error {
	req := &CreateMultiTimeseriesRequest{
		Paths:       lo.Map(ts, func(t *Timeseries, _ int) string { return t.Path }),
		DataTypes:   lo.Map(ts, func(t *Timeseries, _ int) int32 { return int32(t.DataType) }),
		Encodings:   lo.Map(ts, func(t *Timeseries, _ int) int32 { return int32(t.Encoding) }),
		Compressors: lo.Map(ts, func(t *Timeseries, _ int) int32 { return int32(t.Compressor) }),
	}
	if lo.SomeBy(ts, func(t *Timeseries) bool { return len(t.Props) > 0 }) {
		req.PropsList = lo.Map(ts, func(t *Timeseries, _ int) map[string]string { return t.Props })
	}
	if lo.SomeBy(ts, func(t *Timeseries) bool { return len(t.Attributes) > 0 }) {
		req.AttributesList = lo.Map(ts, func(t *Timeseries, _ int) map[string]string { return t.Attributes })
	}
	if lo.SomeBy(ts, func(t *Timeseries) bool { return len(t.Tags) > 0 }) {
		req.TagsList = lo.Map(ts, func(t *Timeseries, _ int) map[string]string { return t.Tags })
	}
	if lo.SomeBy(ts, func(t *Timeseries) bool { return t.Alias != "" }) {
		req.MeasurementAliasList = lo.Map(ts, func(t *Timeseries, _ int) string { return t.Alias })
	}

	return s.execute("create multi timeseries", func(sessionID int64) (*Status, error) {
		req.SessionID = sessionID
		return s.transport.CreateMultiTimeseries(ctx, req)
	})
}

// DeleteTimeseries deletes time series and their data. Paths may contain
// wildcards.
func (s *Session) DeleteTimeseries(ctx context.Context, paths []string) error {
	return s.execute("delete timeseries", func(sessionID int64) (*Status, error) {
		return s.transport.DeleteTimeseries(ctx, &DeleteTimeseriesRequest{
			SessionID: sessionID,
			Paths:     paths,
		})
	})
}

// DeleteData deletes the data of paths in [startTime, endTime], keeping the
// time series.
func (s *Session) DeleteData(ctx context.Context, paths []string, startTime, endTime int64) error {
	return s.execute("delete data", func(sessionID int64) (*Status, error) {
		return s.transport.DeleteData(ctx, &DeleteDataRequest{
			SessionID: sessionID,
			Paths:     paths,
			StartTime: startTime,
			EndTime:   endTime,
		})
	})
}
