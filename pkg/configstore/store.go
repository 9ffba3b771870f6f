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

// Package configstore owns the persisted panel configuration record. Readers
// always see the in-memory record; writes are persisted either immediately or
// by a background worker that coalesces bursts of changes.
package configstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/carverauto/panelsync/pkg/atomicfile"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/metrics"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
)

var (
	// ErrPersist is returned by immediate writes that could not reach disk.
	// The in-memory record is updated regardless.
	ErrPersist = errors.New("failed to persist configuration")
	errStarted = errors.New("config store already started")
)

// Options controls the background flush policy.
type Options struct {
	// Tick is how often the worker checks for pending changes.
	Tick models.Duration `json:"tick"`
	// Debounce is the quiet period required after the last change.
	Debounce models.Duration `json:"debounce"`
	// MinInterval is the minimum time between two writes.
	MinInterval models.Duration `json:"min_interval"`
	// MaxStale lets a quiet record be written before MinInterval has passed
	// once its changes have been pending this long.
	MaxStale models.Duration `json:"max_stale"`
}

// DefaultOptions returns the flush policy defaults.
func DefaultOptions() Options {
	return Options{
		Tick:        models.Duration(250 * time.Millisecond),
		Debounce:    models.Duration(800 * time.Millisecond),
		MinInterval: models.Duration(2 * time.Second),
		MaxStale:    models.Duration(30 * time.Second),
	}
}

func (o *Options) withDefaults() Options {
	d := DefaultOptions()
	out := *o

	if out.Tick <= 0 {
		out.Tick = d.Tick
	}

	if out.Debounce <= 0 {
		out.Debounce = d.Debounce
	}

	if out.MinInterval <= 0 {
		out.MinInterval = d.MinInterval
	}

	if out.MaxStale <= 0 {
		out.MaxStale = d.MaxStale
	}

	return out
}

type writeFunc func(path string, v interface{}) error

// Store is the single live configuration record.
type Store struct {
	path    string
	opts    Options
	clock   poller.Clock
	logger  logger.Logger
	metrics metrics.Recorder
	write   writeFunc

	mu         sync.Mutex
	cfg        models.PanelConfig
	gen        uint64
	dirty      bool
	dirtySince time.Time
	lastDirty  time.Time
	lastSave   time.Time

	// saveMu orders disk writes so an older snapshot never lands after a newer one.
	saveMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMetrics records flush outcomes.
func WithMetrics(r metrics.Recorder) StoreOption {
	return func(s *Store) {
		s.metrics = r
	}
}

func withWriter(w writeFunc) StoreOption {
	return func(s *Store) {
		s.write = w
	}
}

// Open loads the record at path. A missing or unreadable document yields the
// defaults; a corrupt one is logged and replaced on the next write.
func Open(path string, opts *Options, clock poller.Clock, log logger.Logger, storeOpts ...StoreOption) *Store {
	if clock == nil {
		clock = poller.NewClock()
	}

	s := &Store{
		path:    path,
		opts:    opts.withDefaults(),
		clock:   clock,
		logger:  log,
		metrics: metrics.NoOpRecorder{},
		write:   atomicfile.WriteJSON,
	}

	for _, opt := range storeOpts {
		opt(s)
	}

	s.cfg = s.load()

	return s
}

func (s *Store) load() models.PanelConfig {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to read configuration, using defaults")
		}

		return models.DefaultPanelConfig()
	}

	cfg, err := models.DecodePanelConfig(data)

	var skipped *models.SkippedFieldsError

	switch {
	case errors.As(err, &skipped):
		s.logger.Warn().Strs("fields", skipped.Fields).Str("path", s.path).
			Msg("Configuration has unreadable fields, keeping their defaults")
	case err != nil:
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Configuration is corrupt, using defaults")
	}

	return cfg
}

// Get returns a copy of the current record.
func (s *Store) Get() models.PanelConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cfg.Clone()
}

// Set replaces the record. With persistImmediately the record is written
// before returning; otherwise it is marked dirty for the background worker.
func (s *Store) Set(cfg *models.PanelConfig, persistImmediately bool) error {
	s.mu.Lock()
	s.cfg = cfg.Clone()
	s.markDirtyLocked(s.clock.Now())
	s.mu.Unlock()

	if persistImmediately {
		return s.Flush()
	}

	return nil
}

// Mutate applies fn to a copy of the record and installs the copy when fn
// reports a change.
func (s *Store) Mutate(fn func(cfg *models.PanelConfig) bool, persistImmediately bool) error {
	s.mu.Lock()

	next := s.cfg.Clone()
	if !fn(&next) {
		dirty := s.dirty
		s.mu.Unlock()

		if persistImmediately && dirty {
			return s.Flush()
		}

		return nil
	}

	s.cfg = next
	s.markDirtyLocked(s.clock.Now())
	s.mu.Unlock()

	if persistImmediately {
		return s.Flush()
	}

	return nil
}

func (s *Store) markDirtyLocked(now time.Time) {
	if !s.dirty {
		s.dirtySince = now
	}

	s.dirty = true
	s.lastDirty = now
	s.gen++
}

// Dirty reports whether the in-memory record has unsaved changes.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dirty
}

// Flush writes the current record if it has unsaved changes.
func (s *Store) Flush() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}

	snapshot := s.cfg.Clone()
	gen := s.gen
	s.mu.Unlock()

	err := s.write(s.path, &snapshot)
	now := s.clock.Now()

	s.metrics.RecordFlush(err == nil)

	if err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Failed to save configuration")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSave = now

	if s.gen == gen {
		s.dirty = false
	} else {
		s.dirtySince = now
	}

	return nil
}

// due reports whether the flush policy calls for a write at now.
func (s *Store) due(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return false
	}

	if now.Sub(s.lastDirty) < time.Duration(s.opts.Debounce) {
		return false
	}

	return now.Sub(s.lastSave) >= time.Duration(s.opts.MinInterval) ||
		now.Sub(s.dirtySince) >= time.Duration(s.opts.MaxStale)
}

func (s *Store) flushIfDue(now time.Time) {
	if !s.due(now) {
		return
	}

	// failures stay dirty and are retried on a later tick
	_ = s.Flush()
}

// Start launches the background flush worker.
func (s *Store) Start(ctx context.Context) error {
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

func (s *Store) run(ctx context.Context) {
	defer close(s.done)

	ticker := s.clock.Ticker(time.Duration(s.opts.Tick))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.Chan():
			s.tick(now)
		}
	}
}

func (s *Store) tick(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("Config flush worker recovered from panic")
		}
	}()

	s.flushIfDue(now)
}

// Stop halts the worker and writes any pending changes.
func (s *Store) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return s.Flush()
}
