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

import "context"

type OpenSessionRequest struct {
	ClientProtocol ProtocolVersion
	ZoneID         string
	Username       string
	Password       string
	Configuration  map[string]string
}

type OpenSessionResponse struct {
	Status                *Status
	ServerProtocolVersion ProtocolVersion
	SessionID             int64
	Configuration         map[string]string
}

type CloseSessionRequest struct {
	SessionID int64
}

type TimeZoneResponse struct {
	Status   *Status
	TimeZone string
}

type SetTimeZoneRequest struct {
	SessionID int64
	TimeZone  string
}

// TimeZone returns the time zone of the session.
func (s *Session) TimeZone(ctx context.Context) (string, error) {
	var tz string
	err := s.call(func(sessionID int64) error {
		resp, err := s.transport.GetTimeZone(ctx, sessionID)
		if err != nil {
			return transportError("get time zone", err)
		}
		if resp == nil {
			return transportError("get time zone", errEmptyResponse)
		}
		if err := checkStatus(resp.Status); err != nil {
			return err
		}
		tz = resp.TimeZone
		return nil
	})
	return tz, err
}

// SetTimeZone sets the time zone of the session, e.g. "Asia/Shanghai" or "+08:00".
func (s *Session) SetTimeZone(ctx context.Context, timeZone string) error {
	return s.execute("set time zone", func(sessionID int64) (*Status, error) {
		return s.transport.SetTimeZone(ctx, &SetTimeZoneRequest{
			SessionID: sessionID,
			TimeZone:  timeZone,
		})
	})
}
