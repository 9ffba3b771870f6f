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

// Package autoupdate periodically revalidates the UI assets once their
// cache TTL has elapsed.
package autoupdate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/panelsync/pkg/assets"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
)

const (
	defaultTick = 2 * time.Second
	fallbackTTL = time.Hour
)

var errStarted = errors.New("auto-update scheduler already started")

// AssetFetcher revalidates a single UI asset.
type AssetFetcher interface {
	Fetch(ctx context.Context, rel string, force, respectTTL bool) (assets.Result, error)
}

// Scheduler runs the auto-update loop.
type Scheduler struct {
	assets AssetFetcher
	store  poller.ConfigStore
	clock  poller.Clock
	logger logger.Logger
	tickD  time.Duration

	mu        sync.Mutex
	enabled   bool
	running   bool
	lastCheck time.Time
	summary   *models.SyncSummary
	lastErr   string

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTick overrides the loop interval.
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tickD = d
		}
	}
}

// New creates a scheduler. It starts enabled when the stored configuration
// says so.
func New(a AssetFetcher, store poller.ConfigStore, clock poller.Clock, log logger.Logger, opts ...Option) *Scheduler {
	if clock == nil {
		clock = poller.NewClock()
	}

	s := &Scheduler{
		assets:  a,
		store:   store,
		clock:   clock,
		logger:  log,
		tickD:   defaultTick,
		enabled: store.Get().AutoUpdateUI,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetEnabled turns the loop on or off and persists the choice immediately.
// The in-memory flag changes even when persisting fails.
func (s *Scheduler) SetEnabled(enabled bool) error {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()

	s.logger.Info().Bool("enabled", enabled).Msg("Auto-update toggled")

	return s.store.Mutate(func(cfg *models.PanelConfig) bool {
		if cfg.AutoUpdateUI == enabled {
			return false
		}

		cfg.AutoUpdateUI = enabled

		return true
	}, true)
}

// Status reports the loop state.
func (s *Scheduler) Status() models.AutoUpdateStatus {
	src := s.store.Get().RemoteAssets
	ttl := ttlOf(src)
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	st := models.AutoUpdateStatus{
		Enabled: s.enabled,
		Running: s.running,
		TTLS:    ttl.Seconds(),
		BaseURL: src.BaseURL,
		Error:   s.lastErr,
	}

	if s.summary != nil {
		summary := *s.summary
		st.Summary = &summary
	}

	if !s.lastCheck.IsZero() {
		last := s.lastCheck
		st.LastCheck = &last
	}

	if s.enabled && !s.lastCheck.IsZero() {
		st.NextCheckInS = max(0, s.lastCheck.Add(ttl).Sub(now).Seconds())
	}

	return st
}

func ttlOf(src models.RemoteSource) time.Duration {
	if ttl := src.TTL(); ttl > 0 {
		return ttl
	}

	return fallbackTTL
}

// Start launches the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return errStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)

	return nil
}

// Stop halts the loop and waits for an in-progress check to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := s.clock.Ticker(s.tickD)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.Chan():
			s.tick(ctx, now)
		}
	}
}

// tick runs a check when enabled, idle, configured and due.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	src := s.store.Get().RemoteAssets
	if !src.Enabled() {
		return
	}

	ttl := ttlOf(src)

	s.mu.Lock()
	due := s.enabled && !s.running && (s.lastCheck.IsZero() || now.Sub(s.lastCheck) >= ttl)
	if due {
		// the check time is claimed up front so a failing origin is retried once per TTL
		s.running = true
		s.lastCheck = now
	}
	s.mu.Unlock()

	if !due {
		return
	}

	summary, err := s.check(ctx)

	s.mu.Lock()
	s.running = false

	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.summary = &summary
		s.lastErr = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Msg("Auto-update check failed")
		return
	}

	s.logger.Info().
		Float64("ttl_s", ttl.Seconds()).
		Int("ok", summary.OK).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("Auto-update check finished")
}

// check revalidates every UI file, bypassing the TTL but still sending the
// stored validators.
func (s *Scheduler) check(ctx context.Context) (summary models.SyncSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("auto-update panic: %v", r)
		}
	}()

	summary.Total = len(assets.UIFiles)

	for _, rel := range assets.UIFiles {
		res, fetchErr := s.assets.Fetch(ctx, rel, false, false)

		switch {
		case fetchErr != nil || res.Data == nil:
			summary.Failed++
		case res.Source == assets.SourceCache:
			summary.Skipped++
		default:
			summary.OK++
		}
	}

	return summary, nil
}
