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

import "maps"

// MeasurementSchema describes a single measurement (column) of a device.
//
// A schema is declarative: create it once and share the pointer between
// tablets and CreateTimeseries calls. It must not be mutated afterwards.
type MeasurementSchema struct {
	// Measurement is the last node of the time series path.
	Measurement string
	// DataType is the type of every value of the measurement.
	DataType TSDataType
	// Encoding is the storage encoding.
	Encoding TSEncoding
	// Compressor is the storage compressor.
	Compressor TSCompressionType
	// Properties is optional.
	Properties map[string]string
}

// NewMeasurementSchema creates a schema with the default encoding for the
// data type and snappy compression.
func NewMeasurementSchema(measurement string, dataType TSDataType) *MeasurementSchema {
	return &MeasurementSchema{
		Measurement: measurement,
		DataType:    dataType,
		Encoding:    DefaultEncoding(dataType),
		Compressor:  SnappyCompression,
	}
}

// Equal reports whether s and o describe the same measurement.
func (s *MeasurementSchema) Equal(o *MeasurementSchema) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Measurement == o.Measurement &&
		s.DataType == o.DataType &&
		s.Encoding == o.Encoding &&
		s.Compressor == o.Compressor &&
		maps.Equal(s.Properties, o.Properties)
}

// Timeseries returns the time series definition of this measurement under
// the given device path.
func (s *MeasurementSchema) Timeseries(deviceID string) *Timeseries {
	return &Timeseries{
		Path:       deviceID + "." + quoteNode(s.Measurement),
		DataType:   s.DataType,
		Encoding:   s.Encoding,
		Compressor: s.Compressor,
		Props:      s.Properties,
	}
}

// Timeseries is the definition of a time series to create.
type Timeseries struct {
	// Path is the full path, e.g. "root.sg.d1.s1".
	Path       string
	DataType   TSDataType
	Encoding   TSEncoding
	Compressor TSCompressionType
	// Props, Attributes and Tags are optional.
	Props      map[string]string
	Attributes map[string]string
	Tags       map[string]string
	// Alias is an optional measurement alias.
	Alias string
}
