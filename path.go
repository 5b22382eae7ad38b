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
	"strings"
	"unicode"
)

// Device is a device under a storage group.
type Device struct {
	s *Session

	// StorageGroup is the full path of the storage group, e.g. "root.sg".
	StorageGroup string
	// Device is the name of the device node under the storage group.
	Device string
}

// Device returns a handle to the device named name under storageGroup.
func (s *Session) Device(storageGroup, name string) *Device {
	return &Device{
		s:            s,
		StorageGroup: storageGroup,
		Device:       name,
	}
}

// Path returns the full device path, quoting the device node if needed.
func (d *Device) Path() string {
	return d.StorageGroup + "." + quoteNode(d.Device)
}

// Tablet creates an empty tablet for this device.
func (d *Device) Tablet(schemas []*MeasurementSchema) *Tablet {
	return NewTablet(d.Path(), schemas)
}

// CreateMeasurements creates one time series per schema under the device.
func (d *Device) CreateMeasurements(ctx context.Context, schemas []*MeasurementSchema) error {
	ts := make([]*Timeseries, 0, len(schemas))
	for _, schema := range schemas {
		ts = append(ts, schema.Timeseries(d.Path()))
	}
	return d.s.CreateMultiTimeseries(ctx, ts)
}

// Drop deletes every time series of the device.
func (d *Device) Drop(ctx context.Context) error {
	return d.s.DeleteTimeseries(ctx, []string{d.Path() + ".*"})
}

// Measurements lists the measurement schemas of the device as reported by
// the server.
func (d *Device) Measurements(ctx context.Context) ([]*MeasurementSchema, error) {
	ds, err := d.s.ExecuteQueryStatement(ctx, fmt.Sprintf("SHOW TIMESERIES %s.*", d.Path()), 0)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ds.Close(ctx) }()

	index := make(map[string]int)
	for i, name := range ds.ColumnNames() {
		index[strings.ToLower(name)] = i
	}
	column := func(record *RowRecord, name string) (string, error) {
		i, ok := index[name]
		if !ok {
			return "", fmt.Errorf("expected column %q, got %v", name, ds.ColumnNames())
		}
		return record.Values[i].String(), nil
	}

	var schemas []*MeasurementSchema
	for record, err := range ds.All(ctx) {
		if err != nil {
			return nil, err
		}
		path, err := column(record, "timeseries")
		if err != nil {
			return nil, err
		}
		dataType, err := column(record, "datatype")
		if err != nil {
			return nil, err
		}
		encoding, err := column(record, "encoding")
		if err != nil {
			return nil, err
		}
		compression, err := column(record, "compression")
		if err != nil {
			return nil, err
		}

		schema := &MeasurementSchema{Measurement: lastNode(path)}
		if schema.DataType, err = ParseDataType(dataType); err != nil {
			return nil, err
		}
		if schema.Encoding, err = ParseEncoding(encoding); err != nil {
			return nil, err
		}
		if schema.Compressor, err = ParseCompressionType(compression); err != nil {
			return nil, err
		}
		schemas = append(schemas, schema)
	}
	return schemas, nil
}

// JoinPath joins path nodes with '.', quoting every node after the first one
// that is not a plain identifier.
func JoinPath(nodes ...string) string {
	var b strings.Builder
	for i, node := range nodes {
		if i > 0 {
			b.WriteByte('.')
			b.WriteString(quoteNode(node))
		} else {
			b.WriteString(node)
		}
	}
	return b.String()
}

func quoteNode(s string) string {
	if isPlainNode(s) {
		return s
	}
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func isPlainNode(s string) bool {
	if s == "" || s == "*" || s == "**" {
		return s != ""
	}
	digits := true
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c == '_' || (c < unicode.MaxASCII && unicode.IsLetter(c)):
			digits = false
		case c >= 0x2E80 && c <= 0x9FFF:
			digits = false
		default:
			return false
		}
	}
	return !digits
}

func lastNode(path string) string {
	if strings.HasSuffix(path, "`") {
		if i := strings.LastIndex(path[:len(path)-1], ".`"); i >= 0 {
			return strings.ReplaceAll(path[i+2:len(path)-1], "``", "`")
		}
	}
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}
