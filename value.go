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
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// Value stores the contents of a single cell exchanged with the server.
//
// The set of implementations is closed: Boolean, Int32, Int64, Float, Double,
// Text and Null. Values compare structurally with ==.
type Value interface {
	// DataType returns the data type of the value, NullDataType for Null.
	DataType() TSDataType
	// String renders the value the way the server prints it.
	String() string

	isValue()
}

type (
	// Boolean is a BOOLEAN value.
	Boolean bool
	// Int32 is an INT32 value.
	Int32 int32
	// Int64 is an INT64 value.
	Int64 int64
	// Float is a FLOAT value.
	Float float32
	// Double is a DOUBLE value.
	Double float64
	// Text is a TEXT value.
	Text string
	// Null marks an absent value. It only travels through the null bitmap of
	// query results and is never written to the server.
	Null struct{}
)

func (Boolean) DataType() TSDataType { return BooleanDataType }
func (Int32) DataType() TSDataType   { return Int32DataType }
func (Int64) DataType() TSDataType   { return Int64DataType }
func (Float) DataType() TSDataType   { return FloatDataType }
func (Double) DataType() TSDataType  { return DoubleDataType }
func (Text) DataType() TSDataType    { return TextDataType }
func (Null) DataType() TSDataType    { return NullDataType }

func (v Boolean) String() string { return strconv.FormatBool(bool(v)) }
func (v Int32) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Int64) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string   { return strconv.FormatFloat(float64(v), 'g', -1, 32) }
func (v Double) String() string  { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Text) String() string    { return string(v) }
func (Null) String() string      { return "null" }

func (Boolean) isValue() {}
func (Int32) isValue()   {}
func (Int64) isValue()   {}
func (Float) isValue()   {}
func (Double) isValue()  {}
func (Text) isValue()    {}
func (Null) isValue()    {}

// IsNull returns true if v is Null or a nil Value.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// NewValue parses s as a value of type t.
func NewValue(t TSDataType, s string) (Value, error) {
	switch t {
	case BooleanDataType:
		b, err := strconv.ParseBool(s)
		return Boolean(b), err
	case Int32DataType:
		i, err := strconv.ParseInt(s, 10, 32)
		return Int32(i), err
	case Int64DataType:
		i, err := strconv.ParseInt(s, 10, 64)
		return Int64(i), err
	case FloatDataType:
		f, err := strconv.ParseFloat(s, 32)
		return Float(f), err
	case DoubleDataType:
		f, err := strconv.ParseFloat(s, 64)
		return Double(f), err
	case TextDataType:
		return Text(s), nil
	default:
		return nil, fmt.Errorf("unsupported data type: %s", t)
	}
}

// EncodeValue encodes v into its wire form: the type tag followed by the
// payload. Null encodes to an empty slice.
func EncodeValue(v Value) []byte {
	if IsNull(v) {
		return []byte{}
	}
	return appendValue(make([]byte, 0, 9), v)
}

// appendValue appends the tagged wire form of v to dst.
func appendValue(dst []byte, v Value) []byte {
	if IsNull(v) {
		return dst
	}
	dst = append(dst, byte(v.DataType()))
	return appendPayload(dst, v)
}

// appendPayload appends the wire form of v without its type tag.
func appendPayload(dst []byte, v Value) []byte {
	switch v := v.(type) {
	case Boolean:
		if v {
			return append(dst, 1)
		}
		return append(dst, 0)
	case Int32:
		return binary.BigEndian.AppendUint32(dst, uint32(v))
	case Int64:
		return binary.BigEndian.AppendUint64(dst, uint64(v))
	case Float:
		return binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(v)))
	case Double:
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(float64(v)))
	case Text:
		dst = binary.BigEndian.AppendUint32(dst, uint32(int32(len(v))))
		return append(dst, v...)
	default:
		return dst
	}
}

// DecodeValue decodes one tagged value from the head of data and returns it
// with the number of bytes consumed.
//
// An unrecognised tag decodes to Null after consuming the tag byte only, and
// empty input decodes to Null consuming nothing. The server uses out-of-range
// tags to signal "no value" on some paths, so a malformed tag is silently read
// as Null rather than rejected. A Text payload that is not valid UTF-8 is
// rejected with a CodecError wrapping ErrInvalidText.
func DecodeValue(data []byte) (Value, int, error) {
	if len(data) == 0 {
		return Null{}, 0, nil
	}
	v, n, err := decodePayload(TSDataType(int8(data[0])), data[1:])
	if err != nil {
		return nil, 0, err
	}
	return v, n + 1, nil
}

// decodePayload decodes one value of type t from the head of data, which holds
// the payload without the type tag.
func decodePayload(t TSDataType, data []byte) (Value, int, error) {
	need := func(n int) error {
		if len(data) < n {
			return &CodecError{Type: t, Want: n, Have: len(data)}
		}
		return nil
	}

	switch t {
	case BooleanDataType:
		if err := need(1); err != nil {
			return nil, 0, err
		}
		return Boolean(data[0] == 1), 1, nil
	case Int32DataType:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return Int32(int32(binary.BigEndian.Uint32(data))), 4, nil
	case Int64DataType:
		if err := need(8); err != nil {
			return nil, 0, err
		}
		return Int64(int64(binary.BigEndian.Uint64(data))), 8, nil
	case FloatDataType:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return Float(math.Float32frombits(binary.BigEndian.Uint32(data))), 4, nil
	case DoubleDataType:
		if err := need(8); err != nil {
			return nil, 0, err
		}
		return Double(math.Float64frombits(binary.BigEndian.Uint64(data))), 8, nil
	case TextDataType:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		length := int32(binary.BigEndian.Uint32(data))
		if length < 0 {
			return nil, 0, &CodecError{Type: t, Want: int(length), Have: len(data) - 4}
		}
		if err := need(4 + int(length)); err != nil {
			return nil, 0, err
		}
		text := data[4 : 4+int(length)]
		if !utf8.Valid(text) {
			return nil, 0, &CodecError{Type: t, Want: int(length), Have: int(length), Err: ErrInvalidText}
		}
		return Text(text), 4 + int(length), nil
	default:
		return Null{}, 0, nil
	}
}
