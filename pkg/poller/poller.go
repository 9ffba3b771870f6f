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

// Package poller keeps the cached view of the device state. Callers read it
// through StatusCache.Get, which decides whether a real device request is
// due and guarantees at most one request is outstanding at a time.
package poller

import (
	"context"
	"maps"
	"math"
	"sync"
	"time"

	"github.com/carverauto/panelsync/pkg/device"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/metrics"
	"github.com/carverauto/panelsync/pkg/models"
)

// StatusCache holds the last known device state, the poll health and the
// push metadata under a single mutex.
type StatusCache struct {
	config  Config
	fetcher StateFetcher
	store   ConfigStore
	clock   Clock
	logger  logger.Logger
	metrics metrics.Recorder

	mu            sync.Mutex
	state         models.DeviceState
	lastPoll      time.Time
	lastPollOK    bool
	health        Health
	sink          SinkMeta
	inFlight      bool
	inFlightSince time.Time
	transition    transition
}

// Option configures a StatusCache.
type Option func(*StatusCache)

// WithMetrics records poll outcomes and the online flag.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *StatusCache) {
		c.metrics = r
	}
}

// New creates a StatusCache seeded with the device state persisted in store.
func New(cfg *Config, fetcher StateFetcher, store ConfigStore, clock Clock, log logger.Logger, opts ...Option) *StatusCache {
	if clock == nil {
		clock = realClock{}
	}

	c := &StatusCache{
		config:  *cfg,
		fetcher: fetcher,
		store:   store,
		clock:   clock,
		logger:  log,
		metrics: metrics.NoOpRecorder{},
	}

	for _, opt := range opts {
		opt(c)
	}

	persisted := store.Get()
	c.state = persisted.ESPState.Clone()

	if c.state.IP == "" {
		c.state.IP = persisted.ESPIP
	}

	return c
}

// Get returns the device status, polling the device only when the minimum gap
// has elapsed, no recent push covers it, and no other poll is outstanding.
// It never returns an error: failures degrade to the last known state.
func (c *StatusCache) Get(ctx context.Context) Status {
	now := c.clock.Now()

	c.mu.Lock()

	gap := c.minGapLocked()
	age := now.Sub(c.lastPoll)

	if age < gap {
		st := c.statusLocked(now)
		st.NextPollInS = roundSeconds(gap - age)
		c.mu.Unlock()

		return st
	}

	if c.pushRecentLocked(now) {
		st := c.statusLocked(now)
		st.Online = true

		if st.Via == "" {
			st.Via = models.ViaSink
		}

		st.LastOKTS = unixSeconds(latest(c.health.LastOK, c.sink.LastPush))
		st.LastSeenTS = unixSeconds(c.sink.LastPush)
		st.AgeS = roundSeconds(now.Sub(c.sink.LastPush))
		st.PollSkipped = PollSkippedSinkRecent
		c.mu.Unlock()

		return st
	}

	if c.inFlight && now.Sub(c.inFlightSince) < time.Duration(c.config.InFlightStale) {
		st := c.statusLocked(now)
		st.PollInFlight = true
		c.mu.Unlock()

		return st
	}

	c.inFlight = true
	c.inFlightSince = now
	c.mu.Unlock()

	state, err := c.poll(ctx)
	done := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight = false
	c.lastPoll = done
	c.lastPollOK = err == nil

	if err == nil {
		c.state = state
		c.health.LastOK = done
		c.health.FailStreak = 0
	} else {
		c.health.LastFail = done
		c.health.FailStreak++

		if c.state.IP == "" {
			c.state.IP = state.IP
		}
	}

	c.logTransitionLocked(err)

	st := c.statusLocked(done)
	st.NextPollInS = roundSeconds(c.minGapLocked())
	st.Polled = true

	c.metrics.RecordOnline(st.Online)

	return st
}

// Snapshot returns the cached status without ever contacting the device.
func (c *StatusCache) Snapshot() Status {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.statusLocked(now)
	st.NextPollInS = roundSeconds(max(0, c.minGapLocked()-now.Sub(c.lastPoll)))

	if !c.sink.LastPush.IsZero() {
		st.LastSeenTS = unixSeconds(c.sink.LastPush)
		st.AgeS = roundSeconds(now.Sub(c.sink.LastPush))
	}

	return st
}

// RecordPush stores a state pushed by the device. A push counts as a
// successful contact: it resets the failure streak and restarts the poll gap.
func (c *StatusCache) RecordPush(state models.DeviceState, source string, seq int64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = state.Clone()
	c.lastPoll = at
	c.lastPollOK = true
	c.health.LastOK = at
	c.health.FailStreak = 0
	c.sink = SinkMeta{LastPush: at, Source: source, Seq: seq}

	if c.transition == transitionFailing {
		c.logger.Info().Str("source", source).Msg("Device connection restored by push")
	}

	c.transition = transitionOK
	c.metrics.RecordOnline(true)
}

// Sink returns the metadata of the latest push.
func (c *StatusCache) Sink() SinkMeta {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sink
}

// poll performs the device request outside the status lock and reconciles the
// result into the persisted configuration. On failure only the configured
// address is filled in; the caller keeps its last known state.
func (c *StatusCache) poll(ctx context.Context) (models.DeviceState, error) {
	persisted := c.store.Get()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.config.PollTimeout))
	defer cancel()

	start := c.clock.Now()
	raw, err := c.fetcher.FetchState(ctx)
	c.metrics.RecordPoll(err == nil, c.clock.Now().Sub(start))

	if err != nil {
		return models.DeviceState{IP: persisted.ESPIP}, err
	}

	state := device.Normalize(raw, persisted.MuteState)
	state.Via = models.ViaPoll

	mutateErr := c.store.Mutate(func(cfg *models.PanelConfig) bool {
		changed := !maps.Equal(cfg.MuteState, state.MuteState)
		cfg.MuteState = maps.Clone(state.MuteState)
		state.IP = cfg.ESPIP

		if cfg.ESPState.Fingerprint() != state.Fingerprint() {
			cfg.ESPState = state.Clone()
			changed = true
		}

		return changed
	}, false)
	if mutateErr != nil {
		c.logger.Warn().Err(mutateErr).Msg("Failed to record polled device state")
	}

	return state, nil
}

func (c *StatusCache) logTransitionLocked(err error) {
	prev := c.transition

	if err == nil {
		c.transition = transitionOK

		switch prev {
		case transitionFailing:
			c.logger.Info().Msg("Device connection restored, state refreshed")
		case transitionUnknown:
			c.logger.Info().Msg("Device state received")
		case transitionOK:
		}

		return
	}

	c.transition = transitionFailing

	if prev != transitionFailing {
		c.logger.Warn().Err(err).Msg("Device state refresh failed, keeping last known state")
	}
}

func (c *StatusCache) minGapLocked() time.Duration {
	return MinGap(c.config, c.lastPollOK, c.health.FailStreak)
}

func (c *StatusCache) pushRecentLocked(now time.Time) bool {
	return !c.sink.LastPush.IsZero() && now.Sub(c.sink.LastPush) <= time.Duration(c.config.Grace)
}

func (c *StatusCache) onlineLocked(now time.Time) bool {
	last := latest(c.lastPoll, c.sink.LastPush)
	if !c.lastPollOK || last.IsZero() {
		return false
	}

	return now.Sub(last) <= time.Duration(c.config.Grace)
}

func (c *StatusCache) statusLocked(now time.Time) Status {
	return Status{
		DeviceState: c.state.Clone(),
		Online:      c.onlineLocked(now),
		Diagnostics: Diagnostics{
			TS:         now.Unix(),
			FailStreak: c.health.FailStreak,
			LastOKTS:   unixSeconds(c.health.LastOK),
			LastFailTS: unixSeconds(c.health.LastFail),
		},
	}
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}

	return b
}

func unixSeconds(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.Unix()
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
