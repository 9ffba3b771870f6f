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

package autoupdate

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/carverauto/panelsync/pkg/assets"
	"github.com/carverauto/panelsync/pkg/configstore"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingFetcher struct {
	mu    sync.Mutex
	calls []string
	res   map[string]assets.Result
}

func (r *recordingFetcher) Fetch(_ context.Context, rel string, force, respectTTL bool) (assets.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if force || respectTTL {
		panic("auto-update must revalidate without force and without TTL")
	}

	r.calls = append(r.calls, rel)

	return r.res[rel], nil
}

func (r *recordingFetcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.calls)
}

type fixture struct {
	sched   *Scheduler
	store   *configstore.Store
	fetcher *recordingFetcher
	path    string
	now     time.Time
	clock   *poller.MockClock
}

func newFixture(t *testing.T, baseURL string, enabled bool) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &fixture{
		path: filepath.Join(t.TempDir(), "config.json"),
		now:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		fetcher: &recordingFetcher{res: map[string]assets.Result{
			"index.html":            {Data: []byte("a"), Source: assets.SourceRemote},
			"esp.html":              {Data: []byte("b"), Source: assets.SourceCache},
			"style.css":             {Data: []byte("c"), Source: assets.SourceCache},
			"images/background.jpg": {Data: []byte("d"), Source: assets.SourceCache},
		}},
	}

	f.clock = poller.NewMockClock(ctrl)
	f.clock.EXPECT().Now().DoAndReturn(func() time.Time { return f.now }).AnyTimes()

	opts := configstore.DefaultOptions()
	f.store = configstore.Open(f.path, &opts, f.clock, logger.NewTestLogger())

	cfg := f.store.Get()
	cfg.RemoteAssets.BaseURL = baseURL
	cfg.AutoUpdateUI = enabled
	require.NoError(t, f.store.Set(&cfg, true))

	f.sched = New(f.fetcher, f.store, f.clock, logger.NewTestLogger())

	return f
}

func TestTickRunsOncePerTTL(t *testing.T) {
	f := newFixture(t, "http://origin.invalid", true)
	ctx := context.Background()

	f.sched.tick(ctx, f.now)
	assert.Equal(t, len(assets.UIFiles), f.fetcher.count())

	st := f.sched.Status()
	require.NotNil(t, st.Summary)
	assert.Equal(t, models.SyncSummary{OK: 1, Skipped: 3, Failed: 1, Total: 5}, *st.Summary)
	assert.InDelta(t, 3600, st.NextCheckInS, 0.001)
	assert.False(t, st.Running)

	f.now = f.now.Add(30 * time.Minute)
	f.sched.tick(ctx, f.now)
	assert.Equal(t, len(assets.UIFiles), f.fetcher.count())
	assert.InDelta(t, 1800, f.sched.Status().NextCheckInS, 0.001)

	f.now = f.now.Add(31 * time.Minute)
	f.sched.tick(ctx, f.now)
	assert.Equal(t, 2*len(assets.UIFiles), f.fetcher.count())
}

func TestTickIdleWhenDisabledOrUnconfigured(t *testing.T) {
	f := newFixture(t, "http://origin.invalid", false)
	f.sched.tick(context.Background(), f.now)
	assert.Zero(t, f.fetcher.count())

	st := f.sched.Status()
	assert.False(t, st.Enabled)
	assert.Nil(t, st.LastCheck)
	assert.Zero(t, st.NextCheckInS)

	f = newFixture(t, "", true)
	f.sched.tick(context.Background(), f.now)
	assert.Zero(t, f.fetcher.count())
}

func TestSetEnabledPersistsImmediately(t *testing.T) {
	f := newFixture(t, "http://origin.invalid", false)

	require.NoError(t, f.sched.SetEnabled(true))
	assert.True(t, f.sched.Status().Enabled)
	assert.False(t, f.store.Dirty())

	data, err := os.ReadFile(f.path)
	require.NoError(t, err)

	cfg, err := models.DecodePanelConfig(data)
	require.NoError(t, err)
	assert.True(t, cfg.AutoUpdateUI)
}

func TestLoopTicksUntilStopped(t *testing.T) {
	f := newFixture(t, "http://origin.invalid", true)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ticks := make(chan time.Time)

	ticker := poller.NewMockTicker(ctrl)
	ticker.EXPECT().Chan().Return((<-chan time.Time)(ticks)).AnyTimes()
	ticker.EXPECT().Stop().Times(1)

	f.clock.EXPECT().Ticker(defaultTick).Return(ticker)

	require.NoError(t, f.sched.Start(context.Background()))
	require.ErrorIs(t, f.sched.Start(context.Background()), errStarted)

	ticks <- f.now

	require.Eventually(t, func() bool {
		return f.sched.Status().Summary != nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, f.sched.Stop(context.Background()))
	require.NoError(t, f.sched.Stop(context.Background()))
}
