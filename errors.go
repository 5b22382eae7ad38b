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
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrSessionClosed is returned by every operation on a session that is
	// not open.
	ErrSessionClosed = errors.New("operation can't be performed, the session is closed")
	// ErrSchemaMismatch is returned when values do not match the columns they
	// are written to.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrNullNotSupported is returned when a null value is written.
	ErrNullNotSupported = errors.New("null values are not supported on write")
	// ErrTruncated is wrapped by a CodecError for a short payload.
	ErrTruncated = errors.New("truncated payload")
	// ErrInvalidText is wrapped by a CodecError for a Text payload that is not
	// valid UTF-8.
	ErrInvalidText = errors.New("invalid utf-8 text")

	errEmptyResponse = errors.New("empty response")
)

// Error represents a non-success status returned by the server.
type Error struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d: unknown error", e.Code)
	}
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// TransportError wraps a failure of the underlying Transport. It is never
// retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CodecError reports a payload that cannot be decoded as the value it
// declares. Err is nil for a short payload.
type CodecError struct {
	Type TSDataType
	Want int
	Have int
	Err  error
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s payload of %d bytes", e.Err, e.Type, e.Have)
	}
	if e.Want < 0 {
		return fmt.Sprintf("%s: invalid %s length %d", ErrTruncated, e.Type, e.Want)
	}
	return fmt.Sprintf("%s: %s needs %d bytes, %d left", ErrTruncated, e.Type, e.Want, e.Have)
}

func (e *CodecError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrTruncated
}

func transportError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

// checkStatus maps a server status to an error.
//
// Success and redirection are accepted; redirection is not followed.
// A MULTIPLE_ERROR status is reported as one error carrying the messages of
// every failing sub-status.
func checkStatus(status *Status) error {
	if status == nil {
		return errors.New("missing status in server response")
	}

	switch {
	case status.ok():
		return nil
	case status.Code == MultipleErrorStatus:
		var result *multierror.Error
		for _, sub := range status.SubStatus {
			if sub == nil || sub.ok() {
				continue
			}
			result = multierror.Append(result, &Error{Code: sub.Code, Message: sub.Message})
		}
		if result == nil {
			return &Error{Code: status.Code, Message: status.Message}
		}
		result.ErrorFormat = joinSubStatusMessages
		return &Error{Code: status.Code, Message: result.Error()}
	default:
		return &Error{Code: status.Code, Message: status.Message}
	}
}

func joinSubStatusMessages(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}
