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

package sync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/carverauto/panelsync/pkg/assets"
	"github.com/carverauto/panelsync/pkg/atomicfile"
	"github.com/carverauto/panelsync/pkg/download"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var errTestError = errors.New("test error")

type staticConfig struct {
	cfg models.PanelConfig
}

func (s *staticConfig) Get() models.PanelConfig {
	return s.cfg.Clone()
}

func enabledConfig(base string) *staticConfig {
	cfg := models.DefaultPanelConfig()
	cfg.RemoteAssets.BaseURL = base
	cfg.RemoteVideos.BaseURL = base

	return &staticConfig{cfg: cfg}
}

type assetFunc func(ctx context.Context, rel string, force, respectTTL bool) (assets.Result, error)

func (f assetFunc) Fetch(ctx context.Context, rel string, force, respectTTL bool) (assets.Result, error) {
	return f(ctx, rel, force, respectTTL)
}

type videoFunc func(ctx context.Context, key string, force, respectTTL bool) download.Outcome

func (f videoFunc) Sync(ctx context.Context, key string, force, respectTTL bool) download.Outcome {
	return f(ctx, key, force, respectTTL)
}

func remoteAssets() assetFunc {
	return func(_ context.Context, _ string, _, _ bool) (assets.Result, error) {
		return assets.Result{Data: []byte("x"), Source: assets.SourceRemote, HTTPStatus: http.StatusOK}, nil
	}
}

func skippedVideos() videoFunc {
	return func(_ context.Context, key string, _, _ bool) download.Outcome {
		return download.Outcome{Key: key, Skipped: true}
	}
}

func newClock(ctrl *gomock.Controller) *poller.MockClock {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	clock := poller.NewMockClock(ctrl)
	clock.EXPECT().Now().DoAndReturn(func() time.Time { return now }).AnyTimes()

	return clock
}

func waitDone(t *testing.T, m *Manager, id string) models.SyncJob {
	t.Helper()

	var job models.SyncJob

	require.Eventually(t, func() bool {
		var err error

		job, err = m.Progress(id)

		return err == nil && job.Done
	}, 5*time.Second, 10*time.Millisecond)

	return job
}

// Five UI files: three cached and fresh, one fetched, one failing with no cache.
func TestUISyncMixedOutcomes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/images/background.jpg" {
			_, _ = w.Write([]byte("jpeg"))
			return
		}

		http.NotFound(w, r)
	}))
	defer origin.Close()

	clock := newClock(ctrl)
	cacheDir := t.TempDir()
	cfg := enabledConfig(origin.URL)

	for _, rel := range []string{"index.html", "esp.html", "style.css"} {
		path := filepath.Join(cacheDir, rel)
		require.NoError(t, atomicfile.WriteFile(path, []byte("cached "+rel)))
		require.NoError(t, atomicfile.WriteJSON(path+models.MetaSuffix, &models.CacheMeta{FetchedAt: clock.Now()}))
	}

	cache := assets.NewCache(cacheDir, t.TempDir(), cfg, clock, logger.NewTestLogger())
	m := NewManager(cache, skippedVideos(), cfg, clock, logger.NewTestLogger())

	id, err := m.Start(models.SyncUI, false, true)
	require.NoError(t, err)
	assert.Len(t, id, 12)

	job := waitDone(t, m, id)
	assert.Equal(t, models.SyncSummary{OK: 1, Skipped: 3, Failed: 1, Total: 5}, job.Summary)
	require.NotNil(t, job.Succeeded)
	assert.False(t, *job.Succeeded)
	assert.Equal(t, 100, job.Progress)
	assert.NotNil(t, job.FinishedAt)

	byName := map[string]models.SyncItem{}
	for _, it := range job.Items {
		byName[it.Name] = it
	}

	assert.Equal(t, models.ItemOK, byName["images/background.jpg"].Status)
	assert.Equal(t, "remote", byName["images/background.jpg"].Source)
	assert.Equal(t, int64(4), byName["images/background.jpg"].Bytes)
	assert.Equal(t, models.ItemFailed, byName["favicon.ico"].Status)
	assert.NotEmpty(t, byName["favicon.ico"].Error)
	assert.Equal(t, models.ItemSkipped, byName["style.css"].Status)

	require.NoError(t, m.Close(context.Background()))
}

func TestDisabledOriginsProduceConfigItems(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := NewManager(remoteAssets(), skippedVideos(), enabledConfig(""), newClock(ctrl), logger.NewTestLogger())

	job, err := m.RunWait(context.Background(), models.SyncAll, false, false)
	require.NoError(t, err)

	require.Len(t, job.Items, 2)
	assert.Equal(t, "config", job.Items[0].Name)
	assert.Equal(t, string(models.SyncUI), job.Items[0].Kind)
	assert.Equal(t, models.ItemFailed, job.Items[0].Status)
	assert.Equal(t, string(models.SyncVideos), job.Items[1].Kind)
	assert.Equal(t, models.SyncSummary{Failed: 2, Total: 2}, job.Summary)
	assert.False(t, *job.Succeeded)
	assert.Equal(t, 100, job.Progress)
}

func TestVideoItemStatuses(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	videos := videoFunc(func(_ context.Context, key string, force, _ bool) download.Outcome {
		assert.True(t, force)

		switch key {
		case "welcome":
			return download.Outcome{Key: key, Bytes: 10, SHA256: "abc", HTTPStatus: http.StatusOK}
		case "video1":
			return download.Outcome{Key: key, NotModified: true, HTTPStatus: http.StatusNotModified}
		default:
			return download.Outcome{Key: key, Err: errTestError}
		}
	})

	m := NewManager(remoteAssets(), videos, enabledConfig("http://origin.invalid"), newClock(ctrl), logger.NewTestLogger())

	job, err := m.RunWait(context.Background(), models.SyncVideos, true, false)
	require.NoError(t, err)

	require.Len(t, job.Items, 3)
	assert.Equal(t, models.ItemOK, job.Items[0].Status)
	assert.Equal(t, "abc", job.Items[0].SHA256)
	assert.Equal(t, models.ItemSkipped, job.Items[1].Status)
	assert.Equal(t, http.StatusNotModified, job.Items[1].HTTPStatus)
	assert.Equal(t, models.ItemFailed, job.Items[2].Status)
	assert.Equal(t, errTestError.Error(), job.Items[2].Error)
}

func TestLastTracksKinds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := NewManager(remoteAssets(), skippedVideos(), enabledConfig("http://origin.invalid"), newClock(ctrl), logger.NewTestLogger())

	assert.Empty(t, m.Last(models.SyncAll))

	ui, err := m.RunWait(context.Background(), models.SyncUI, false, false)
	require.NoError(t, err)
	assert.Equal(t, ui.ID, m.Last(models.SyncUI))
	assert.Equal(t, ui.ID, m.Last(models.SyncAll))

	videos, err := m.RunWait(context.Background(), models.SyncVideos, false, false)
	require.NoError(t, err)
	assert.Equal(t, videos.ID, m.Last(models.SyncVideos))
	assert.Equal(t, videos.ID, m.Last(models.SyncAll))
	assert.Equal(t, ui.ID, m.Last(models.SyncUI))
	assert.True(t, *videos.Succeeded)
}

func TestRegistryEvictsOldestFinished(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := NewManager(remoteAssets(), skippedVideos(), enabledConfig("http://origin.invalid"), newClock(ctrl),
		logger.NewTestLogger(), WithMaxFinished(2))

	ids := make([]string, 0, 3)

	for i := 0; i < 3; i++ {
		job, err := m.RunWait(context.Background(), models.SyncUI, false, false)
		require.NoError(t, err)

		ids = append(ids, job.ID)
	}

	_, err := m.Progress(ids[0])
	require.ErrorIs(t, err, ErrJobNotFound)

	for _, id := range ids[1:] {
		_, err := m.Progress(id)
		require.NoError(t, err)
	}
}

func TestWorkerPanicMarksJobFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := assetFunc(func(context.Context, string, bool, bool) (assets.Result, error) {
		panic("boom")
	})

	m := NewManager(boom, skippedVideos(), enabledConfig("http://origin.invalid"), newClock(ctrl), logger.NewTestLogger())

	id, err := m.Start(models.SyncUI, false, false)
	require.NoError(t, err)

	job := waitDone(t, m, id)
	assert.False(t, *job.Succeeded)
	assert.Contains(t, job.Error, "boom")
}

func TestStartAfterClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := NewManager(remoteAssets(), skippedVideos(), enabledConfig(""), newClock(ctrl), logger.NewTestLogger())
	require.NoError(t, m.Close(context.Background()))

	_, err := m.Start(models.SyncAll, false, false)
	require.ErrorIs(t, err, ErrClosed)
}

func TestCloseWaitsForRunWait(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	started := make(chan struct{})

	blocking := assetFunc(func(ctx context.Context, _ string, _, _ bool) (assets.Result, error) {
		select {
		case started <- struct{}{}:
		default:
		}

		<-ctx.Done()

		return assets.Result{}, ctx.Err()
	})

	m := NewManager(blocking, skippedVideos(), enabledConfig("http://origin.invalid"), newClock(ctrl), logger.NewTestLogger())

	finished := make(chan models.SyncJob, 1)

	go func() {
		job, err := m.RunWait(context.Background(), models.SyncUI, false, false)
		assert.NoError(t, err)

		finished <- job
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, m.Close(ctx))

	select {
	case job := <-finished:
		assert.True(t, job.Done)
		assert.False(t, *job.Succeeded)
	default:
		t.Fatal("Close returned before the RunWait job finished")
	}
}

func TestStartConcurrentWithCloseIsAwaited(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := NewManager(remoteAssets(), skippedVideos(), enabledConfig("http://origin.invalid"), newClock(ctrl), logger.NewTestLogger())

	const starters = 16

	ids := make(chan string, starters)
	release := make(chan struct{})
	returned := make(chan struct{}, starters)

	for range starters {
		go func() {
			defer func() { returned <- struct{}{} }()

			<-release

			if id, err := m.Start(models.SyncUI, false, false); err == nil {
				ids <- id
			}
		}()
	}

	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, m.Close(ctx))

	// Any Start that was accepted before Close must already be finished.
	accepted := make(map[string]bool)

	for range starters {
		<-returned
	}

	close(ids)

	for id := range ids {
		accepted[id] = true
	}

	for id := range accepted {
		job, err := m.Progress(id)
		require.NoError(t, err)
		assert.True(t, job.Done, "job %s still running after Close", id)
	}
}
