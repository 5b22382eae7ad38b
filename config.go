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
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// ProtocolVersion is the version of the client/server protocol.
type ProtocolVersion int32

const (
	ProtocolV1 ProtocolVersion = 0
	ProtocolV2 ProtocolVersion = 1
	ProtocolV3 ProtocolVersion = 2
)

// Config defines the configuration for the session.
type Config struct {
	// Host is the host of the server.
	Host string `json:"host" mapstructure:"host"`
	// Port is the RPC port of the server.
	Port int `json:"port" mapstructure:"port"`
	// Username and Password are the login credentials.
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	// FetchSize is the number of rows per result page.
	FetchSize int32 `json:"fetch_size" mapstructure:"fetch_size"`
	// TimeoutMs is the default server-side statement timeout in milliseconds.
	// Zero means no timeout.
	TimeoutMs int64 `json:"timeout_ms" mapstructure:"timeout_ms"`
	// TimeZone is the zone ID sent when the session is opened.
	TimeZone string `json:"time_zone" mapstructure:"time_zone"`
	// ProtocolVersion is the protocol version the client speaks.
	ProtocolVersion ProtocolVersion `json:"protocol_version" mapstructure:"protocol_version"`
	// EnableRedirectQuery lets the server answer queries with a redirection.
	EnableRedirectQuery bool `json:"enable_redirect_query" mapstructure:"enable_redirect_query"`
}

const (
	defaultHost      = "127.0.0.1"
	defaultPort      = 6667
	defaultUser      = "root"
	defaultPassword  = "root"
	defaultFetchSize = 1024
	defaultTimeoutMs = 30000
	defaultTimeZone  = "Asia/Shanghai"
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Host:            defaultHost,
		Port:            defaultPort,
		Username:        defaultUser,
		Password:        defaultPassword,
		FetchSize:       defaultFetchSize,
		TimeoutMs:       defaultTimeoutMs,
		TimeZone:        defaultTimeZone,
		ProtocolVersion: ProtocolV3,
	}
}

// Endpoint returns the "host:port" address of the server.
func (c *Config) Endpoint() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the configuration for values the server would reject.
func (c *Config) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("host must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}
	if c.FetchSize <= 0 {
		errs = append(errs, fmt.Errorf("fetch size must be positive, got %d", c.FetchSize))
	}
	if c.TimeoutMs < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %d", c.TimeoutMs))
	}
	return errors.Join(errs...)
}

// LoadConfig loads the configuration from IOTDB_* environment variables and,
// when path is not empty, from the config file at path. Unset keys keep the
// values of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("IOTDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Host:                v.GetString("host"),
		Port:                v.GetInt("port"),
		Username:            v.GetString("username"),
		Password:            v.GetString("password"),
		FetchSize:           v.GetInt32("fetch_size"),
		TimeoutMs:           v.GetInt64("timeout_ms"),
		TimeZone:            v.GetString("time_zone"),
		ProtocolVersion:     ProtocolVersion(v.GetInt32("protocol_version")),
		EnableRedirectQuery: v.GetBool("enable_redirect_query"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("username", d.Username)
	v.SetDefault("password", d.Password)
	v.SetDefault("fetch_size", d.FetchSize)
	v.SetDefault("timeout_ms", d.TimeoutMs)
	v.SetDefault("time_zone", d.TimeZone)
	v.SetDefault("protocol_version", int32(d.ProtocolVersion))
	v.SetDefault("enable_redirect_query", d.EnableRedirectQuery)
}
