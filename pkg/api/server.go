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

// Package api provides the HTTP surface of the panel: JSON endpoints used by
// the touch UI and the device, UI asset serving, and a live status stream.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/poller"
	"github.com/gorilla/mux"
)

const (
	defaultReadTimeout    = 10 * time.Second
	defaultIdleTimeout    = 60 * time.Second
	defaultSlowRequest    = 800 * time.Millisecond
	defaultLogTail        = 200
	defaultStreamInterval = time.Second
	defaultPingInterval   = 30 * time.Second
	maxRequestBody        = 1 << 20
)

// Config tunes the HTTP surface.
type Config struct {
	// SlowRequest is the duration above which a request is logged.
	SlowRequest time.Duration
	// LogTail is the default number of lines returned by /api/logs.
	LogTail int
	// AllowedOrigins lists origins granted CORS access. "*" allows any.
	AllowedOrigins []string
	// StreamInterval is how often the status stream checks for changes.
	StreamInterval time.Duration
	// PingInterval is the keepalive period of the status stream.
	PingInterval time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c

	if out.SlowRequest <= 0 {
		out.SlowRequest = defaultSlowRequest
	}

	if out.LogTail <= 0 {
		out.LogTail = defaultLogTail
	}

	if out.StreamInterval <= 0 {
		out.StreamInterval = defaultStreamInterval
	}

	if out.PingInterval <= 0 {
		out.PingInterval = defaultPingInterval
	}

	return out
}

// Server routes HTTP requests to the panel components. Components left
// unset answer 503.
type Server struct {
	router *mux.Router
	config Config
	logger logger.Logger
	clock  poller.Clock
	start  time.Time

	status  StatusProvider
	sink    TelemetrySink
	device  DeviceProxy
	actions ActionRunner
	volume  VolumeControl
	syncs   SyncService
	updater AutoUpdater
	assets  AssetResolver
	store   poller.ConfigStore
	logs    LogTail
	metrics http.Handler
}

// NewServer creates a Server with the given configuration.
func NewServer(config *Config, log logger.Logger, options ...func(server *Server)) *Server {
	s := &Server{
		router: mux.NewRouter(),
		config: config.withDefaults(),
		logger: log,
		clock:  poller.NewClock(),
	}

	for _, o := range options {
		o(s)
	}

	s.start = s.clock.Now()

	s.setupRoutes()

	return s
}

// WithClock replaces the wall clock.
func WithClock(c poller.Clock) func(server *Server) {
	return func(server *Server) {
		server.clock = c
	}
}

// WithStatus adds the status cache.
func WithStatus(p StatusProvider) func(server *Server) {
	return func(server *Server) {
		server.status = p
	}
}

// WithSink adds the telemetry sink.
func WithSink(t TelemetrySink) func(server *Server) {
	return func(server *Server) {
		server.sink = t
	}
}

// WithDevice adds the raw device proxy.
func WithDevice(d DeviceProxy) func(server *Server) {
	return func(server *Server) {
		server.device = d
	}
}

// WithActions adds the action runner.
func WithActions(a ActionRunner) func(server *Server) {
	return func(server *Server) {
		server.actions = a
	}
}

// WithVolume adds master volume control.
func WithVolume(v VolumeControl) func(server *Server) {
	return func(server *Server) {
		server.volume = v
	}
}

// WithSync adds the sync job manager.
func WithSync(m SyncService) func(server *Server) {
	return func(server *Server) {
		server.syncs = m
	}
}

// WithAutoUpdate adds the auto-update scheduler.
func WithAutoUpdate(u AutoUpdater) func(server *Server) {
	return func(server *Server) {
		server.updater = u
	}
}

// WithAssets adds the UI asset resolver.
func WithAssets(a AssetResolver) func(server *Server) {
	return func(server *Server) {
		server.assets = a
	}
}

// WithConfigStore adds the panel document store.
func WithConfigStore(c poller.ConfigStore) func(server *Server) {
	return func(server *Server) {
		server.store = c
	}
}

// WithLogs adds the in-memory log view.
func WithLogs(l LogTail) func(server *Server) {
	return func(server *Server) {
		server.logs = l
	}
}

// WithMetricsHandler exposes h on /metrics.
func WithMetricsHandler(h http.Handler) func(server *Server) {
	return func(server *Server) {
		server.metrics = h
	}
}

// setupRoutes configures the HTTP routes. Asset routes are registered last
// because they catch every remaining path.
func (s *Server) setupRoutes() {
	s.setupMiddleware()
	s.setupDeviceRoutes()
	s.setupActionRoutes()
	s.setupSyncRoutes()
	s.setupSystemRoutes()
	s.setupAssetRoutes()
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.requestIDMiddleware, s.loggingMiddleware, s.corsMiddleware)

	// Preflight requests must match a route for the middleware to run.
	s.router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) setupDeviceRoutes() {
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/status/stream", s.handleStatusStream).Methods(http.MethodGet)
	s.router.HandleFunc("/api/esp-state-sink", s.handleStateSink).Methods(http.MethodPost)
	s.router.HandleFunc("/api/time", s.handleTime).Methods(http.MethodGet)
	s.router.HandleFunc("/api/esp-ip", s.handleGetDeviceIP).Methods(http.MethodGet)
	s.router.HandleFunc("/api/esp-ip", s.handleSetDeviceIP).Methods(http.MethodPost)
	s.router.HandleFunc("/api/state", s.handleRawState).Methods(http.MethodGet)
	s.router.HandleFunc("/api/status_esp32", s.handleRawStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/wifi_config", s.handleWiFiConfig).Methods(http.MethodPost)
	s.router.HandleFunc("/api/ir", s.handleIR).Methods(http.MethodPost)
	s.router.HandleFunc("/api/gpio", s.handleGPIO).Methods(http.MethodPost)
}

func (s *Server) setupActionRoutes() {
	s.router.HandleFunc("/api/youtube", s.handleYouTube).Methods(http.MethodPost)
	s.router.HandleFunc("/api/home", s.handleHome).Methods(http.MethodPost)
	s.router.HandleFunc("/api/welcome", s.handleWelcome).Methods(http.MethodPost)
	s.router.HandleFunc("/api/playvideo", s.handlePlayVideo).Methods(http.MethodPost)
	s.router.HandleFunc("/api/startshow", s.handleStartShow).Methods(http.MethodPost)
	s.router.HandleFunc("/api/stopshow", s.handleStopShow).Methods(http.MethodPost)
	s.router.HandleFunc("/api/vol", s.handleGetVolume).Methods(http.MethodGet)
	s.router.HandleFunc("/api/vol/set", s.handleSetVolume).Methods(http.MethodPost)
	s.router.HandleFunc("/api/mute", s.handleToggleMute).Methods(http.MethodPost)
}

func (s *Server) setupSyncRoutes() {
	s.router.HandleFunc("/api/sync-remote", s.handleSyncRemote).Methods(http.MethodPost)
	s.router.HandleFunc("/api/sync-progress", s.handleSyncProgress).Methods(http.MethodGet)
	s.router.HandleFunc("/api/sync-last", s.handleSyncLast).Methods(http.MethodGet)
	s.router.HandleFunc("/api/auto-update", s.handleGetAutoUpdate).Methods(http.MethodGet)
	s.router.HandleFunc("/api/auto-update", s.handleSetAutoUpdate).Methods(http.MethodPost)
}

func (s *Server) setupSystemRoutes() {
	s.router.HandleFunc("/api/logs", s.handleLogs).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer returns an http.Server serving the routes on addr. It carries
// no write timeout: sync waits and the status stream outlive any fixed
// deadline.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       defaultReadTimeout,
		ReadHeaderTimeout: defaultReadTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
}

// errorResponse is the body of every failed API call.
type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) unavailable(w http.ResponseWriter, what string) {
	s.writeError(w, what+" not available", http.StatusServiceUnavailable)
}

// decodeBody reads an optional JSON object into dst. An empty body leaves
// dst untouched.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))

	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}
