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

// Package sync runs remote synchronization jobs in the background and keeps
// a bounded registry of their progress for the UI to poll.
package sync

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/panelsync/pkg/assets"
	"github.com/carverauto/panelsync/pkg/download"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/metrics"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
	"github.com/google/uuid"
)

const (
	defaultMaxFinished = 64
	idLength           = 12
	configItemName     = "config"
)

var (
	// ErrJobNotFound is returned for an unknown or evicted job id.
	ErrJobNotFound = errors.New("sync job not found")
	// ErrClosed is returned when starting a job after Close.
	ErrClosed = errors.New("sync manager closed")

	errNoData = errors.New("download failed and no cached copy")
)

// Manager owns the job registry.
type Manager struct {
	assets  AssetFetcher
	videos  VideoSyncer
	config  ConfigSource
	clock   poller.Clock
	logger  logger.Logger
	metrics metrics.Recorder

	maxFinished int

	mu       sync.Mutex
	jobs     map[string]*models.SyncJob
	finished []string
	last     map[models.SyncKind]string
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetrics records job outcomes.
func WithMetrics(r metrics.Recorder) Option {
	return func(m *Manager) {
		m.metrics = r
	}
}

// WithMaxFinished bounds the number of finished jobs kept for lookup.
func WithMaxFinished(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxFinished = n
		}
	}
}

// NewManager creates a job manager.
func NewManager(a AssetFetcher, v VideoSyncer, config ConfigSource, clock poller.Clock, log logger.Logger, opts ...Option) *Manager {
	if clock == nil {
		clock = poller.NewClock()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		assets:      a,
		videos:      v,
		config:      config,
		clock:       clock,
		logger:      log,
		metrics:     metrics.NoOpRecorder{},
		maxFinished: defaultMaxFinished,
		jobs:        make(map[string]*models.SyncJob),
		last:        make(map[models.SyncKind]string),
		ctx:         ctx,
		cancel:      cancel,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start registers a job and runs it on its own goroutine. It returns the job
// id immediately.
func (m *Manager) Start(kind models.SyncKind, force, respectTTL bool) (string, error) {
	id, err := m.register(kind, force, respectTTL)
	if err != nil {
		return "", err
	}

	go func() {
		defer m.wg.Done()

		m.run(m.ctx, id)
	}()

	return id, nil
}

// RunWait runs a job on the calling goroutine and returns its final snapshot.
// Close cancels the job and waits for it like any other.
func (m *Manager) RunWait(ctx context.Context, kind models.SyncKind, force, respectTTL bool) (models.SyncJob, error) {
	id, err := m.register(kind, force, respectTTL)
	if err != nil {
		return models.SyncJob{}, err
	}

	defer m.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(m.ctx, cancel)
	defer stop()

	m.run(ctx, id)

	return m.Progress(id)
}

// Progress returns a snapshot of the job.
func (m *Manager) Progress(id string) (models.SyncJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return models.SyncJob{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	out := job.Clone()
	out.Summary = models.Summarize(out.Items)

	return out, nil
}

// Last returns the id of the most recent job of kind, or "" when none ran.
// Any ui or videos job is also recorded as the latest "all" job.
func (m *Manager) Last(kind models.SyncKind) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.last[kind]
}

// Close cancels running jobs and waits for their workers, including RunWait
// callers, to return.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.cancel()

	done := make(chan struct{})

	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// register records a new job and counts it in the wait group. The Add happens
// under the lock so Close never waits on a group that can still grow.
func (m *Manager) register(kind models.SyncKind, force, respectTTL bool) (string, error) {
	id := newID()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", ErrClosed
	}

	m.wg.Add(1)

	m.jobs[id] = &models.SyncJob{
		ID:         id,
		Kind:       kind,
		Force:      force,
		RespectTTL: respectTTL,
		StartedAt:  m.clock.Now(),
		Items:      []models.SyncItem{},
	}

	m.last[kind] = id
	if kind == models.SyncUI || kind == models.SyncVideos {
		m.last[models.SyncAll] = id
	}

	return id, nil
}

func newID() string {
	u := uuid.New()

	return hex.EncodeToString(u[:])[:idLength]
}

// update applies fn to the job under the registry lock.
func (m *Manager) update(id string, fn func(job *models.SyncJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, ok := m.jobs[id]; ok {
		fn(job)
	}
}

// finish marks the job done and evicts the oldest finished jobs beyond the bound.
func (m *Manager) finish(id string, jobErr error) models.SyncJob {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return models.SyncJob{}
	}

	job.Summary = models.Summarize(job.Items)
	job.Done = true
	job.FinishedAt = &now

	succeeded := jobErr == nil && job.Summary.Failed == 0
	job.Succeeded = &succeeded

	if jobErr != nil {
		job.Error = jobErr.Error()
	} else {
		job.Progress = 100
	}

	m.finished = append(m.finished, id)

	for len(m.finished) > m.maxFinished {
		oldest := m.finished[0]
		m.finished = m.finished[1:]
		delete(m.jobs, oldest)
	}

	return job.Clone()
}

func (m *Manager) run(ctx context.Context, id string) {
	job, err := m.Progress(id)
	if err != nil {
		return
	}

	log := m.logger.With().Str("sync_id", id).Str("what", string(job.Kind)).Logger()
	log.Info().Bool("force", job.Force).Bool("respect_ttl", job.RespectTTL).Msg("Sync started")

	var runErr error

	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("sync worker panic: %v", r)
			}
		}()

		m.execute(ctx, &job)
	}()

	final := m.finish(id, runErr)

	if runErr != nil {
		log.Error().Err(runErr).Msg("Sync failed")
	} else {
		log.Info().
			Bool("ok", final.Succeeded != nil && *final.Succeeded).
			Int("total", final.Summary.Total).
			Int("ok_items", final.Summary.OK).
			Int("skipped", final.Summary.Skipped).
			Int("failed", final.Summary.Failed).
			Msg("Sync finished")
	}

	elapsed := time.Duration(0)
	if final.FinishedAt != nil {
		elapsed = final.FinishedAt.Sub(final.StartedAt)
	}

	m.metrics.RecordSyncJob(string(job.Kind), final.Succeeded != nil && *final.Succeeded, elapsed)
}

type progress struct {
	m     *Manager
	id    string
	done  int
	total int
}

func (p *progress) add(item *models.SyncItem) {
	p.done++
	pct := p.done * 100 / max(1, p.total)

	p.m.update(p.id, func(job *models.SyncJob) {
		job.Items = append(job.Items, *item)
		job.Progress = pct
	})

	ev := p.m.logger.Info()
	if item.Status == models.ItemFailed {
		ev = p.m.logger.Warn()
	}

	ev.Str("sync_id", p.id).
		Str("kind", item.Kind).
		Str("name", item.Name).
		Str("status", string(item.Status)).
		Int64("bytes", item.Bytes).
		Int("http", item.HTTPStatus).
		Str("error", item.Error).
		Msg("Sync item")
}

func (m *Manager) execute(ctx context.Context, job *models.SyncJob) {
	cfg := m.config.Get()

	uiEnabled := cfg.RemoteAssets.Enabled()
	videosEnabled := cfg.RemoteVideos.Enabled()

	p := &progress{m: m, id: job.ID}

	if job.Kind.IncludesUI() {
		p.total += sectionSize(uiEnabled, len(assets.UIFiles))
	}

	if job.Kind.IncludesVideos() {
		p.total += sectionSize(videosEnabled, len(download.Videos))
	}

	if job.Kind.IncludesUI() {
		m.syncUI(ctx, job, uiEnabled, p)
	}

	if job.Kind.IncludesVideos() {
		m.syncVideos(ctx, job, videosEnabled, p)
	}
}

func sectionSize(enabled bool, n int) int {
	if !enabled {
		return 1
	}

	return n
}

func (m *Manager) syncUI(ctx context.Context, job *models.SyncJob, enabled bool, p *progress) {
	if !enabled {
		p.add(&models.SyncItem{
			Kind:   string(models.SyncUI),
			Name:   configItemName,
			Status: models.ItemFailed,
			Source: configItemName,
			Error:  "remote_assets.base_url is empty",
		})

		return
	}

	for _, rel := range assets.UIFiles {
		res, err := m.assets.Fetch(ctx, rel, job.Force, job.RespectTTL)

		item := models.SyncItem{
			Kind:       string(models.SyncUI),
			Name:       rel,
			Source:     string(res.Source),
			Bytes:      int64(len(res.Data)),
			HTTPStatus: res.HTTPStatus,
		}

		switch {
		case err != nil || res.Data == nil:
			item.Status = models.ItemFailed
			item.Source = "none"
			item.Error = errNoData.Error()

			if err != nil {
				item.Error = err.Error()
			}
		case res.Source == assets.SourceCache:
			item.Status = models.ItemSkipped
		default:
			item.Status = models.ItemOK
		}

		p.add(&item)
	}
}

func (m *Manager) syncVideos(ctx context.Context, job *models.SyncJob, enabled bool, p *progress) {
	if !enabled {
		p.add(&models.SyncItem{
			Kind:   string(models.SyncVideos),
			Name:   configItemName,
			Status: models.ItemFailed,
			Error:  "remote_videos.base_url is empty",
		})

		return
	}

	for _, v := range download.Videos {
		out := m.videos.Sync(ctx, v.Key, job.Force, job.RespectTTL)

		item := models.SyncItem{
			Kind:       string(models.SyncVideos),
			Name:       v.Key,
			Status:     out.Status(),
			Path:       out.Path,
			Bytes:      out.Bytes,
			HTTPStatus: out.HTTPStatus,
			SHA256:     out.SHA256,
		}

		if out.Err != nil {
			item.Error = out.Err.Error()
		}

		p.add(&item)
	}
}
