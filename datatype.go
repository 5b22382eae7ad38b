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
	"fmt"
	"strings"
)

// TSDataType is the data type of a time series. Its numeric value is the
// type tag used on the wire.
type TSDataType int8

const (
	// BooleanDataType is a bool data type.
	BooleanDataType TSDataType = 0
	// Int32DataType is a 32-bit int data type.
	Int32DataType TSDataType = 1
	// Int64DataType is a 64-bit int data type.
	Int64DataType TSDataType = 2
	// FloatDataType is a 32-bit float data type.
	FloatDataType TSDataType = 3
	// DoubleDataType is a 64-bit float data type.
	DoubleDataType TSDataType = 4
	// TextDataType is a string data type.
	TextDataType TSDataType = 5

	// NullDataType is reported by Null values. It is never sent to the server.
	NullDataType TSDataType = -1
)

func (t TSDataType) String() string {
	switch t {
	case BooleanDataType:
		return "BOOLEAN"
	case Int32DataType:
		return "INT32"
	case Int64DataType:
		return "INT64"
	case FloatDataType:
		return "FLOAT"
	case DoubleDataType:
		return "DOUBLE"
	case TextDataType:
		return "TEXT"
	case NullDataType:
		return "NULL"
	default:
		return fmt.Sprintf("TSDataType(%d)", int8(t))
	}
}

// Valid returns true if t is a data type the server can store.
func (t TSDataType) Valid() bool {
	return t >= BooleanDataType && t <= TextDataType
}

// ParseDataType parses the data type names returned by the server in query
// responses, e.g. "INT64".
func ParseDataType(s string) (TSDataType, error) {
	switch strings.ToUpper(s) {
	case "BOOLEAN":
		return BooleanDataType, nil
	case "INT32":
		return Int32DataType, nil
	case "INT64":
		return Int64DataType, nil
	case "FLOAT":
		return FloatDataType, nil
	case "DOUBLE":
		return DoubleDataType, nil
	case "TEXT":
		return TextDataType, nil
	default:
		return NullDataType, fmt.Errorf("illegal data type: %s", s)
	}
}

// TSEncoding is the storage encoding of a time series.
type TSEncoding int8

const (
	PlainEncoding           TSEncoding = 0
	PlainDictionaryEncoding TSEncoding = 1
	RLEEncoding             TSEncoding = 2
	DiffEncoding            TSEncoding = 3
	TS2DiffEncoding         TSEncoding = 4
	BitmapEncoding          TSEncoding = 5
	GorillaV1Encoding       TSEncoding = 6
	RegularEncoding         TSEncoding = 7
	GorillaEncoding         TSEncoding = 8
)

func (e TSEncoding) String() string {
	switch e {
	case PlainEncoding:
		return "PLAIN"
	case PlainDictionaryEncoding:
		return "PLAIN_DICTIONARY"
	case RLEEncoding:
		return "RLE"
	case DiffEncoding:
		return "DIFF"
	case TS2DiffEncoding:
		return "TS_2DIFF"
	case BitmapEncoding:
		return "BITMAP"
	case GorillaV1Encoding:
		return "GORILLA_V1"
	case RegularEncoding:
		return "REGULAR"
	case GorillaEncoding:
		return "GORILLA"
	default:
		return fmt.Sprintf("TSEncoding(%d)", int8(e))
	}
}

// DefaultEncoding returns the encoding the server picks for t when none is
// configured.
func DefaultEncoding(t TSDataType) TSEncoding {
	switch t {
	case BooleanDataType:
		return RLEEncoding
	case Int32DataType, Int64DataType:
		return TS2DiffEncoding
	case FloatDataType, DoubleDataType:
		return GorillaEncoding
	default:
		return PlainEncoding
	}
}

// TSCompressionType is the compressor of a time series.
type TSCompressionType int8

const (
	Uncompressed      TSCompressionType = 0
	SnappyCompression TSCompressionType = 1
	GzipCompression   TSCompressionType = 2
	LZOCompression    TSCompressionType = 3
	SDTCompression    TSCompressionType = 4
	PAACompression    TSCompressionType = 5
	PLACompression    TSCompressionType = 6
	LZ4Compression    TSCompressionType = 7
)

func (c TSCompressionType) String() string {
	switch c {
	case Uncompressed:
		return "UNCOMPRESSED"
	case SnappyCompression:
		return "SNAPPY"
	case GzipCompression:
		return "GZIP"
	case LZOCompression:
		return "LZO"
	case SDTCompression:
		return "SDT"
	case PAACompression:
		return "PAA"
	case PLACompression:
		return "PLA"
	case LZ4Compression:
		return "LZ4"
	default:
		return fmt.Sprintf("TSCompressionType(%d)", int8(c))
	}
}

// ParseEncoding parses an encoding name, e.g. "TS_2DIFF".
func ParseEncoding(s string) (TSEncoding, error) {
	for e := PlainEncoding; e <= GorillaEncoding; e++ {
		if strings.EqualFold(e.String(), s) {
			return e, nil
		}
	}
	return PlainEncoding, fmt.Errorf("illegal encoding: %s", s)
}

// ParseCompressionType parses a compressor name, e.g. "SNAPPY".
func ParseCompressionType(s string) (TSCompressionType, error) {
	for c := Uncompressed; c <= LZ4Compression; c++ {
		if strings.EqualFold(c.String(), s) {
			return c, nil
		}
	}
	return Uncompressed, fmt.Errorf("illegal compressor: %s", s)
}
