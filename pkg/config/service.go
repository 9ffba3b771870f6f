/*
 * Copyright 2025 Carver Automation Corporation.
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

package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/panelsync/pkg/configstore"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
)

var (
	errListenAddr  = errors.New("listen_addr is invalid")
	errInvalidPort = errors.New("invalid port")
	errNegative    = errors.New("value must not be negative")
)

const (
	defaultListenAddr     = "0.0.0.0:8080"
	defaultDeviceTimeout  = 4 * time.Second
	defaultCommandTimeout = 15 * time.Second
	defaultAutoUpdateTick = 2 * time.Second
	defaultSlowRequest    = 800 * time.Millisecond
	defaultStreamInterval = time.Second
	defaultLogTail        = 200
	defaultMaxSyncJobs    = 64

	configFileName = "config.json"
	cacheDirName   = "remote_cache"
	logFileName    = "panel.log"
)

// DeviceConfig tunes the device HTTP client.
type DeviceConfig struct {
	Timeout models.Duration `json:"timeout"`
}

// ActionsConfig tunes local command execution.
type ActionsConfig struct {
	CommandTimeout models.Duration `json:"command_timeout"`
}

// APIConfig tunes the HTTP surface.
type APIConfig struct {
	SlowRequest    models.Duration `json:"slow_request"`
	LogTail        int             `json:"log_tail"`
	MetricsEnabled bool            `json:"metrics_enabled"`
	AllowedOrigins []string        `json:"allowed_origins"`
	StreamInterval models.Duration `json:"stream_interval"`
}

// ServiceConfig is the bootstrap configuration of the panel server. The
// panel document itself (device address, remote origins) lives in
// <data_dir>/config.json and is owned by the config store.
type ServiceConfig struct {
	ListenAddr string `json:"listen_addr"`
	// Root anchors the relative directories below; relative video
	// directories in the panel document also resolve against it.
	Root      string `json:"root"`
	DataDir   string `json:"data_dir"`
	StaticDir string `json:"static_dir"`
	LogsDir   string `json:"logs_dir"`

	Logging     *logger.Config      `json:"logging"`
	Status      poller.Config       `json:"status"`
	ConfigStore configstore.Options `json:"config_store"`
	Device      DeviceConfig        `json:"device"`
	Actions     ActionsConfig       `json:"actions"`
	API         APIConfig           `json:"api"`

	AutoUpdateTick models.Duration `json:"auto_update_tick"`
	MaxSyncJobs    int             `json:"max_sync_jobs"`
}

// DefaultServiceConfig returns the bootstrap defaults.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		ListenAddr:  defaultListenAddr,
		Root:        ".",
		DataDir:     "data",
		StaticDir:   "static",
		LogsDir:     "logs",
		Logging:     logger.DefaultConfig(),
		Status:      poller.DefaultConfig(),
		ConfigStore: configstore.DefaultOptions(),
		Device:      DeviceConfig{Timeout: models.Duration(defaultDeviceTimeout)},
		Actions:     ActionsConfig{CommandTimeout: models.Duration(defaultCommandTimeout)},
		API: APIConfig{
			SlowRequest:    models.Duration(defaultSlowRequest),
			LogTail:        defaultLogTail,
			MetricsEnabled: true,
			StreamInterval: models.Duration(defaultStreamInterval),
		},
		AutoUpdateTick: models.Duration(defaultAutoUpdateTick),
		MaxSyncJobs:    defaultMaxSyncJobs,
	}
}

// ResolvePaths anchors Root at baseDir and the data, static and log
// directories at Root.
func (c *ServiceConfig) ResolvePaths(baseDir string) {
	if c.Root == "" {
		c.Root = "."
	}

	if !filepath.IsAbs(c.Root) {
		c.Root = filepath.Join(baseDir, c.Root)
	}

	for _, dir := range []*string{&c.DataDir, &c.StaticDir, &c.LogsDir} {
		if *dir != "" && !filepath.IsAbs(*dir) {
			*dir = filepath.Join(c.Root, *dir)
		}
	}
}

// ApplyPort replaces the port of ListenAddr. An empty port is ignored.
func (c *ServiceConfig) ApplyPort(port string) error {
	port = strings.TrimSpace(port)
	if port == "" {
		return nil
	}

	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, port)
	}

	host, _, err := net.SplitHostPort(c.ListenAddr)
	if err != nil {
		host = ""
	}

	c.ListenAddr = net.JoinHostPort(host, port)

	return nil
}

// Validate fills zero values with defaults and rejects invalid ones.
func (c *ServiceConfig) Validate() error {
	d := DefaultServiceConfig()

	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = d.ListenAddr
	}

	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("%w: %w", errListenAddr, err)
	}

	if c.DataDir == "" {
		c.DataDir = filepath.Join(c.Root, d.DataDir)
	}

	if c.StaticDir == "" {
		c.StaticDir = filepath.Join(c.Root, d.StaticDir)
	}

	if c.LogsDir == "" {
		c.LogsDir = filepath.Join(c.Root, d.LogsDir)
	}

	if c.Logging == nil {
		c.Logging = d.Logging
	}

	if err := c.Logging.Validate(); err != nil {
		return err
	}

	if err := c.Status.Validate(); err != nil {
		return err
	}

	durations := []struct {
		name string
		val  *models.Duration
		def  models.Duration
	}{
		{"device.timeout", &c.Device.Timeout, d.Device.Timeout},
		{"actions.command_timeout", &c.Actions.CommandTimeout, d.Actions.CommandTimeout},
		{"api.slow_request", &c.API.SlowRequest, d.API.SlowRequest},
		{"api.stream_interval", &c.API.StreamInterval, d.API.StreamInterval},
		{"auto_update_tick", &c.AutoUpdateTick, d.AutoUpdateTick},
	}

	for _, f := range durations {
		if *f.val < 0 {
			return fmt.Errorf("%w: %s", errNegative, f.name)
		}

		if *f.val == 0 {
			*f.val = f.def
		}
	}

	if c.API.LogTail <= 0 {
		c.API.LogTail = d.API.LogTail
	}

	if c.MaxSyncJobs <= 0 {
		c.MaxSyncJobs = d.MaxSyncJobs
	}

	return nil
}

// ConfigPath is the location of the persisted panel document.
func (c *ServiceConfig) ConfigPath() string {
	return filepath.Join(c.DataDir, configFileName)
}

// CacheDir holds the mirrored UI assets and their metadata.
func (c *ServiceConfig) CacheDir() string {
	return filepath.Join(c.DataDir, cacheDirName)
}

// LogFile is the append-only log written next to the in-memory ring.
func (c *ServiceConfig) LogFile() string {
	if c.Logging != nil && c.Logging.File != "" {
		return c.Logging.File
	}

	return filepath.Join(c.LogsDir, logFileName)
}
