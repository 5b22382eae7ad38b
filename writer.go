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
	"time"
)

// TabletWriter buffers rows of one device and writes them as tablets.
//
// A batch is written when it holds BatchSize rows, or on the next Write after
// BatchInterval has passed since the last flush. Rows are sorted by timestamp
// before each write. A TabletWriter is not safe for concurrent use.
type TabletWriter struct {
	s      *Session
	tablet *Tablet

	lastFlush time.Time
	closed    bool

	// BatchSize is the maximum number of rows per tablet.
	BatchSize int
	// BatchInterval bounds how long rows wait in the buffer. Zero disables
	// time-based flushes.
	BatchInterval time.Duration
}

// TabletWriter creates a writer for the device at deviceID.
func (s *Session) TabletWriter(deviceID string, schemas []*MeasurementSchema) *TabletWriter {
	return &TabletWriter{
		s:             s,
		tablet:        NewTablet(deviceID, schemas),
		lastFlush:     time.Now(),
		BatchSize:     1024,        // default to 1024 rows
		BatchInterval: time.Second, // default to 1 second
	}
}

// Write buffers one row and writes the batch if it is due. Invalid rows are
// rejected before they are buffered.
func (w *TabletWriter) Write(ctx context.Context, values []Value, timestamp int64) error {
	if w.closed {
		return errors.New("tablet writer is closed")
	}
	if err := w.tablet.AddRow(values, timestamp); err != nil {
		return err
	}

	if w.tablet.RowCount() >= w.BatchSize ||
		(w.BatchInterval > 0 && time.Since(w.lastFlush) >= w.BatchInterval) {
		return w.Flush(ctx)
	}
	return nil
}

// Buffered returns the number of rows waiting to be written.
func (w *TabletWriter) Buffered() int {
	return w.tablet.RowCount()
}

// Flush writes the buffered rows. The buffer is kept if the write fails.
func (w *TabletWriter) Flush(ctx context.Context) error {
	w.lastFlush = time.Now()
	if w.tablet.RowCount() == 0 {
		return nil
	}
	if err := w.s.InsertTablet(ctx, w.tablet, false); err != nil {
		return err
	}

	w.s.logger.Debug().
		Str("device", w.tablet.DeviceID()).
		Int("rows", w.tablet.RowCount()).
		Msg("tablet written")
	w.tablet.Reset()
	return nil
}

// Close flushes the buffered rows. Writes after Close fail.
func (w *TabletWriter) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.Flush(ctx)
}
