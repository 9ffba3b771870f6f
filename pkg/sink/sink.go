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

// Package sink ingests state documents pushed by the device.
package sink

import (
	"maps"
	"sync"
	"time"

	"github.com/carverauto/panelsync/pkg/device"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/metrics"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
	"golang.org/x/time/rate"
)

const (
	defaultKeepaliveLog = 60 * time.Second
	defaultChangeLog    = 5 * time.Second
	defaultSlowWarn     = 300 * time.Millisecond
	slowWarnInterval    = 10 * time.Second
)

// StatusRecorder receives the normalized pushed state.
type StatusRecorder interface {
	RecordPush(state models.DeviceState, source string, seq int64, at time.Time)
}

// Ack is returned to the device for every accepted push.
type Ack struct {
	OK          bool   `json:"ok"`
	AckSeq      int64  `json:"ack_seq"`
	ServerEpoch int64  `json:"server_epoch"`
	ServerISO   string `json:"server_iso"`
	TZOffsetS   int    `json:"tz_offset_s"`
}

// Sink validates, normalizes and records pushed telemetry. It never touches
// the disk; persistence is left to the config store's background worker.
type Sink struct {
	status  StatusRecorder
	store   poller.ConfigStore
	clock   poller.Clock
	logger  logger.Logger
	metrics metrics.Recorder

	keepaliveLog time.Duration
	changeLog    time.Duration
	slowWarn     time.Duration

	mu       sync.Mutex
	lastHash string
	lastLog  time.Time

	slowLog rate.Sometimes
}

// Option configures a Sink.
type Option func(*Sink)

// WithMetrics counts pushes.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Sink) {
		s.metrics = r
	}
}

// New creates a Sink.
func New(status StatusRecorder, store poller.ConfigStore, clock poller.Clock, log logger.Logger, opts ...Option) *Sink {
	if clock == nil {
		clock = poller.NewClock()
	}

	s := &Sink{
		status:       status,
		store:        store,
		clock:        clock,
		logger:       log,
		metrics:      metrics.NoOpRecorder{},
		keepaliveLog: defaultKeepaliveLog,
		changeLog:    defaultChangeLog,
		slowWarn:     defaultSlowWarn,
		slowLog:      rate.Sometimes{First: 1, Interval: slowWarnInterval},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Ingest accepts a push body from remote. Invalid bodies return
// device.ErrInvalidPayload and leave all state untouched.
func (s *Sink) Ingest(body []byte, remote string) (Ack, error) {
	start := s.clock.Now()

	raw, err := device.UnwrapPayload(body)
	if err != nil {
		return Ack{}, err
	}

	seq := device.Sequence(raw)

	state := device.Normalize(raw, s.store.Get().MuteState)
	if state.SSID != "" || state.MAC != "" || state.RSSIdBm != nil {
		state.WiFi = true
	}

	state.Via = models.ViaSink
	state.LocalIP = remote
	state.ServerSeenTS = float64(start.Unix())
	state.Seq = seq

	changed := s.remember(state.Fingerprint())

	err = s.store.Mutate(func(cfg *models.PanelConfig) bool {
		muteChanged := !maps.Equal(cfg.MuteState, state.MuteState)
		cfg.MuteState = maps.Clone(state.MuteState)
		state.IP = cfg.ESPIP

		// Compared against the record, not the previous push: a poll in
		// between may have replaced the stored state.
		if muteChanged || cfg.ESPState.Fingerprint() != state.Fingerprint() {
			cfg.ESPState = state.Clone()
			return true
		}

		return false
	}, false)
	if err != nil {
		s.logger.Warn().Err(err).Str("from", remote).Msg("Failed to record pushed device state")
	}

	s.status.RecordPush(state, remote, seq, start)
	s.metrics.RecordPush(changed)

	s.logPush(start, remote, seq, changed)

	if elapsed := s.clock.Now().Sub(start); elapsed >= s.slowWarn {
		s.slowLog.Do(func() {
			s.logger.Warn().
				Str("from", remote).
				Int64("seq", seq).
				Dur("elapsed", elapsed).
				Msg("Slow telemetry push")
		})
	}

	clock := models.NewServerClock(start)

	return Ack{
		OK:          true,
		AckSeq:      seq,
		ServerEpoch: clock.Epoch,
		ServerISO:   clock.ISO,
		TZOffsetS:   clock.TZOffsetS,
	}, nil
}

// remember stores hash and reports whether it differs from the previous push.
func (s *Sink) remember(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hash == s.lastHash {
		return false
	}

	s.lastHash = hash

	return true
}

// logPush logs a keepalive line at most once per keepalive interval and a
// change line at most once per change interval.
func (s *Sink) logPush(now time.Time, remote string, seq int64, changed bool) {
	s.mu.Lock()

	since := now.Sub(s.lastLog)
	due := since >= s.keepaliveLog || (changed && since >= s.changeLog)

	if due {
		s.lastLog = now
	}

	s.mu.Unlock()

	if !due {
		return
	}

	s.logger.Info().
		Str("from", remote).
		Int64("seq", seq).
		Bool("changed", changed).
		Msg("Telemetry push received")
}
