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

// Status codes returned by the server.
const (
	SuccessStatus        int32 = 200
	StillExecutingStatus int32 = 201
	InvalidHandleStatus  int32 = 202
	IncompatibleVersion  int32 = 203

	NodeDeleteFailedError      int32 = 298
	AliasAlreadyExistError     int32 = 299
	PathAlreadyExistError      int32 = 300
	PathNotExistError          int32 = 301
	MetadataError              int32 = 303
	TimeseriesNotExist         int32 = 304
	OutOfTTLError              int32 = 305
	StorageGroupNotReady       int32 = 317
	ExecuteStatementError      int32 = 400
	SQLParseError              int32 = 401
	GenerateTimeZoneError      int32 = 402
	SetTimeZoneError           int32 = 403
	NotStorageGroupError       int32 = 404
	QueryNotAllowed            int32 = 405
	QueryProcessError          int32 = 411
	WriteProcessError          int32 = 412
	WriteProcessReject         int32 = 413
	InternalServerError        int32 = 500
	CloseOperationError        int32 = 501
	ReadOnlySystemError        int32 = 502
	DiskSpaceInsufficientError int32 = 503
	MultipleErrorStatus        int32 = 506
	WrongLoginPasswordError    int32 = 600
	NotLoginError              int32 = 601
	NoPermissionError          int32 = 602
	TimeOutError               int32 = 701
	NoLeaderError              int32 = 702
	UnsupportedOperationError  int32 = 703
	NoConnectionError          int32 = 706
	NeedRedirectionStatus      int32 = 707
)

// EndPoint is a server address, reported with redirection statuses.
type EndPoint struct {
	IP   string `json:"ip"`
	Port int32  `json:"port"`
}

// Status is the result status of every server operation.
type Status struct {
	Code         int32     `json:"code"`
	Message      string    `json:"message,omitempty"`
	SubStatus    []*Status `json:"sub_status,omitempty"`
	RedirectNode *EndPoint `json:"redirect_node,omitempty"`
}

// ok returns true for success and redirection.
func (s *Status) ok() bool {
	return s.Code == SuccessStatus || s.Code == NeedRedirectionStatus
}
