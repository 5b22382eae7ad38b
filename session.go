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
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session is a session on the server.
//
// Operations block until the server responds. A session is safe for use by
// multiple goroutines, but it serialises every call: there is at most one
// request in flight per session. Result cursors borrow the session for each
// page they fetch.
type Session struct {
	config    *Config
	transport Transport
	logger    zerolog.Logger
	clientID  uuid.UUID

	mu          sync.Mutex
	open        bool
	sessionID   int64
	statementID int64
	datasets    map[*SessionDataSet]struct{}
}

// NewSession creates a session that talks to the server through transport.
// The session is not usable until Open succeeds.
func NewSession(config *Config, transport Transport, logger zerolog.Logger) *Session {
	if config == nil {
		config = DefaultConfig()
	}
	clientID := uuid.New()
	return &Session{
		config:    config,
		transport: transport,
		clientID:  clientID,
		logger: logger.With().
			Str("component", "session").
			Str("client_id", clientID.String()).
			Logger(),
		datasets: make(map[*SessionDataSet]struct{}),
	}
}

// Open opens the session. Opening an open session does nothing.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return nil
	}

	resp, err := s.transport.OpenSession(ctx, &OpenSessionRequest{
		ClientProtocol: s.config.ProtocolVersion,
		ZoneID:         s.config.TimeZone,
		Username:       s.config.Username,
		Password:       s.config.Password,
		Configuration: map[string]string{
			"client_id": s.clientID.String(),
		},
	})
	if err != nil {
		return transportError("open session", err)
	}
	if resp == nil {
		return transportError("open session", errEmptyResponse)
	}
	if err := checkStatus(resp.Status); err != nil {
		return err
	}
	if resp.ServerProtocolVersion != s.config.ProtocolVersion {
		_, _ = s.transport.CloseSession(ctx, &CloseSessionRequest{SessionID: resp.SessionID})
		return &Error{
			Code:    IncompatibleVersion,
			Message: "protocol differs, client version " + protocolName(s.config.ProtocolVersion) + " but server version " + protocolName(resp.ServerProtocolVersion),
		}
	}

	statementID, err := s.transport.RequestStatementID(ctx, resp.SessionID)
	if err != nil {
		_, _ = s.transport.CloseSession(ctx, &CloseSessionRequest{SessionID: resp.SessionID})
		return transportError("request statement id", err)
	}

	s.open = true
	s.sessionID = resp.SessionID
	s.statementID = statementID
	s.logger.Debug().
		Str("endpoint", s.config.Endpoint()).
		Int64("session_id", s.sessionID).
		Int64("statement_id", s.statementID).
		Msg("session opened")
	return nil
}

// Close releases every result cursor still open and closes the session.
// Closing a session that is not open returns ErrSessionClosed.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	datasets := make([]*SessionDataSet, 0, len(s.datasets))
	for ds := range s.datasets {
		datasets = append(datasets, ds)
	}
	s.mu.Unlock()

	var errs []error
	for _, ds := range datasets {
		errs = append(errs, ds.Close(ctx))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	status, err := s.transport.CloseSession(ctx, &CloseSessionRequest{SessionID: s.sessionID})
	s.open = false
	s.logger.Debug().Int64("session_id", s.sessionID).Msg("session closed")
	if err != nil {
		errs = append(errs, transportError("close session", err))
	} else {
		errs = append(errs, checkStatus(status))
	}
	return errors.Join(errs...)
}

// IsOpen returns true if the session is open.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Config returns the configuration of the session.
func (s *Session) Config() *Config {
	return s.config
}

// call runs fn while holding the session, failing with ErrSessionClosed when
// the session is not open.
func (s *Session) call(fn func(sessionID int64) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return ErrSessionClosed
	}
	return fn(s.sessionID)
}

// execute runs an RPC that only returns a status.
func (s *Session) execute(op string, rpc func(sessionID int64) (*Status, error)) error {
	return s.call(func(sessionID int64) error {
		status, err := rpc(sessionID)
		if err != nil {
			return transportError(op, err)
		}
		return checkStatus(status)
	})
}

func protocolName(v ProtocolVersion) string {
	switch v {
	case ProtocolV1:
		return "V1"
	case ProtocolV2:
		return "V2"
	case ProtocolV3:
		return "V3"
	default:
		return "unknown"
	}
}
