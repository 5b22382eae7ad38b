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
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
)

func TestTabletWriter(t *testing.T) {
	ctx := context.Background()
	s, ft := NewTestSession(t)
	defer s.Close(ctx)

	faker := gofakeit.New(0)
	w := s.TabletWriter("root.sg.d1", []*MeasurementSchema{
		NewMeasurementSchema("v", Int64DataType),
	})
	w.BatchSize = 4
	w.BatchInterval = 0

	for i := range 10 {
		require.NoError(t, w.Write(ctx, []Value{Int64(faker.Int64())}, int64(10-i)))
	}
	require.Equal(t, 2, ft.count("InsertTablet"))
	require.Equal(t, 2, w.Buffered())

	req := ft.last("InsertTablet").(*InsertTabletRequest)
	require.Equal(t, int32(4), req.Size)
	require.Equal(t, encodeTimestamps([]int64{3, 4, 5, 6}), req.Timestamps)

	require.ErrorIs(t, w.Write(ctx, []Value{Null{}}, 0), ErrNullNotSupported)
	require.Equal(t, 2, w.Buffered())

	require.NoError(t, w.Close(ctx))
	require.Equal(t, 3, ft.count("InsertTablet"))
	require.Zero(t, w.Buffered())
	require.Equal(t, encodeTimestamps([]int64{1, 2}), ft.last("InsertTablet").(*InsertTabletRequest).Timestamps)

	require.NoError(t, w.Close(ctx))
	require.Error(t, w.Write(ctx, []Value{Int64(1)}, 0))
	require.Equal(t, 3, ft.count("InsertTablet"))
}

func TestTabletWriterKeepsRowsOnFailure(t *testing.T) {
	ctx := context.Background()
	s, ft := NewTestSession(t)
	defer s.Close(ctx)

	w := s.TabletWriter("root.sg.d1", []*MeasurementSchema{
		NewMeasurementSchema("v", BooleanDataType),
	})
	require.NoError(t, w.Write(ctx, []Value{Boolean(true)}, 1))

	ft.errs["InsertTablet"] = errors.New("connection refused")
	require.Error(t, w.Flush(ctx))
	require.Equal(t, 1, w.Buffered())

	delete(ft.errs, "InsertTablet")
	require.NoError(t, w.Flush(ctx))
	require.Zero(t, w.Buffered())
	require.Equal(t, 2, ft.count("InsertTablet"))
}
