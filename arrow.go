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
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// ToArrowRecord converts the tablet into an Arrow record. The first column is
// TimeColumn as int64, followed by one non-nullable column per measurement.
func (t *Tablet) ToArrowRecord(mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	fields := make([]arrow.Field, 0, len(t.schemas)+1)
	fields = append(fields, arrow.Field{Name: TimeColumn, Type: arrow.PrimitiveTypes.Int64})
	for _, schema := range t.schemas {
		typ, err := arrowType(schema.DataType)
		if err != nil {
			return nil, fmt.Errorf("measurement %s: %w", schema.Measurement, err)
		}
		fields = append(fields, arrow.Field{Name: schema.Measurement, Type: typ})
	}

	b := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer b.Release()

	b.Field(0).(*array.Int64Builder).AppendValues(t.timestamps, nil)
	for i, column := range t.columns {
		for _, v := range column {
			appendArrow(b.Field(i+1), v)
		}
	}
	return b.NewRecord(), nil
}

// NewTabletFromArrowRecord builds a tablet for deviceID from an Arrow record
// laid out like the output of Tablet.ToArrowRecord. Null cells are rejected.
func NewTabletFromArrowRecord(deviceID string, rec arrow.Record) (*Tablet, error) {
	if rec.NumCols() == 0 || rec.ColumnName(0) != TimeColumn || rec.Column(0).DataType().ID() != arrow.INT64 {
		return nil, fmt.Errorf("%w: the first column must be %s of type int64", ErrSchemaMismatch, TimeColumn)
	}

	schemas := make([]*MeasurementSchema, 0, rec.NumCols()-1)
	for _, field := range rec.Schema().Fields()[1:] {
		t, err := dataTypeOf(field.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}
		schemas = append(schemas, NewMeasurementSchema(field.Name, t))
	}

	tablet := NewTablet(deviceID, schemas)
	times := rec.Column(0).(*array.Int64)
	values := make([]Value, len(schemas))
	for row := 0; row < int(rec.NumRows()); row++ {
		if times.IsNull(row) {
			return nil, fmt.Errorf("%w: %s at row %d", ErrNullNotSupported, TimeColumn, row)
		}
		for col := range schemas {
			values[col] = valueAt(rec.Column(col+1), row)
		}
		if err := tablet.AddRow(values, times.Value(row)); err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
	}
	return tablet, nil
}

// ToArrowBatch reads the remaining rows into Arrow records of at most
// batchSize rows each, then closes the dataset. Value columns are nullable.
func (ds *SessionDataSet) ToArrowBatch(ctx context.Context, mem memory.Allocator, batchSize int) (batches []arrow.Record, err error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	if batchSize <= 0 {
		batchSize = int(ds.fetchSize)
	}

	names, types := ds.ColumnNames(), ds.ColumnTypes()
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		typ, err := arrowType(types[i])
		if err != nil {
			_ = ds.Close(ctx)
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		fields[i] = arrow.Field{Name: name, Type: typ, Nullable: i > 0 || ds.ignoreTimestamp}
	}

	b := array.NewRecordBuilder(mem, arrow.NewSchema(fields, nil))
	defer b.Release()
	defer func() {
		if err != nil {
			for _, batch := range batches {
				batch.Release()
			}
			batches = nil
		}
	}()

	rows := 0
	for record, err := range ds.All(ctx) {
		if err != nil {
			return batches, err
		}
		for i, v := range record.Values {
			appendArrow(b.Field(i), v)
		}
		if rows++; rows == batchSize {
			batches = append(batches, b.NewRecord())
			rows = 0
		}
	}
	if rows > 0 {
		batches = append(batches, b.NewRecord())
	}
	return batches, nil
}

// EncodeArrowBatches writes batches to w in the Arrow IPC stream format.
// Every batch must share the schema of the first one.
func EncodeArrowBatches(w io.Writer, batches []arrow.Record) (err error) {
	if len(batches) == 0 {
		return errors.New("cannot encode empty batches")
	}

	writer := ipc.NewWriter(w, ipc.WithSchema(batches[0].Schema()))
	defer func() {
		err = errors.Join(err, writer.Close())
	}()

	for _, batch := range batches {
		if err := writer.Write(batch); err != nil {
			return err
		}
	}
	return nil
}

// DecodeArrowBatches reads every record of an Arrow IPC stream. The caller
// must release the returned records.
func DecodeArrowBatches(r io.Reader) ([]arrow.Record, error) {
	reader, err := ipc.NewReader(r, ipc.WithDelayReadSchema(true))
	if err != nil {
		return nil, err
	}
	defer reader.Release()

	batches := make([]arrow.Record, 0)
	for reader.Next() {
		batch := reader.Record()
		batch.Retain()
		batches = append(batches, batch)
	}
	if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		for _, batch := range batches {
			batch.Release()
		}
		return nil, err
	}
	return batches, nil
}

func arrowType(t TSDataType) (arrow.DataType, error) {
	switch t {
	case BooleanDataType:
		return arrow.FixedWidthTypes.Boolean, nil
	case Int32DataType:
		return arrow.PrimitiveTypes.Int32, nil
	case Int64DataType:
		return arrow.PrimitiveTypes.Int64, nil
	case FloatDataType:
		return arrow.PrimitiveTypes.Float32, nil
	case DoubleDataType:
		return arrow.PrimitiveTypes.Float64, nil
	case TextDataType:
		return arrow.BinaryTypes.String, nil
	default:
		return nil, fmt.Errorf("unsupported data type: %s", t)
	}
}

func dataTypeOf(t arrow.DataType) (TSDataType, error) {
	switch t.ID() {
	case arrow.BOOL:
		return BooleanDataType, nil
	case arrow.INT32:
		return Int32DataType, nil
	case arrow.INT64:
		return Int64DataType, nil
	case arrow.FLOAT32:
		return FloatDataType, nil
	case arrow.FLOAT64:
		return DoubleDataType, nil
	case arrow.STRING:
		return TextDataType, nil
	default:
		return NullDataType, fmt.Errorf("unsupported arrow type: %s", t)
	}
}

// appendArrow appends v to b, which must be the builder of v's arrow type.
func appendArrow(b array.Builder, v Value) {
	if IsNull(v) {
		b.AppendNull()
		return
	}
	switch v := v.(type) {
	case Boolean:
		b.(*array.BooleanBuilder).Append(bool(v))
	case Int32:
		b.(*array.Int32Builder).Append(int32(v))
	case Int64:
		b.(*array.Int64Builder).Append(int64(v))
	case Float:
		b.(*array.Float32Builder).Append(float32(v))
	case Double:
		b.(*array.Float64Builder).Append(float64(v))
	case Text:
		b.(*array.StringBuilder).Append(string(v))
	}
}

func valueAt(arr arrow.Array, i int) Value {
	if arr.IsNull(i) {
		return Null{}
	}
	switch arr := arr.(type) {
	case *array.Boolean:
		return Boolean(arr.Value(i))
	case *array.Int32:
		return Int32(arr.Value(i))
	case *array.Int64:
		return Int64(arr.Value(i))
	case *array.Float32:
		return Float(arr.Value(i))
	case *array.Float64:
		return Double(arr.Value(i))
	case *array.String:
		return Text(arr.Value(i))
	default:
		return Null{}
	}
}
