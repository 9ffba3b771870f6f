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

package sink

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/carverauto/panelsync/pkg/configstore"
	"github.com/carverauto/panelsync/pkg/device"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var errRecordFailed = errors.New("disk full")

type recordedPush struct {
	state  models.DeviceState
	source string
	seq    int64
	at     time.Time
}

type fakeStatus struct {
	mu     sync.Mutex
	pushes []recordedPush
}

func (f *fakeStatus) RecordPush(state models.DeviceState, source string, seq int64, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pushes = append(f.pushes, recordedPush{state: state, source: source, seq: seq, at: at})
}

func (f *fakeStatus) last() recordedPush {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.pushes[len(f.pushes)-1]
}

type fixture struct {
	sink   *Sink
	status *fakeStatus
	store  *configstore.Store
	logs   *bytes.Buffer
	now    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := &fixture{status: &fakeStatus{}, logs: &bytes.Buffer{}, now: &now}

	clock := poller.NewMockClock(ctrl)
	clock.EXPECT().Now().DoAndReturn(func() time.Time { return *f.now }).AnyTimes()

	opts := configstore.DefaultOptions()
	f.store = configstore.Open(filepath.Join(t.TempDir(), "config.json"), &opts, clock, logger.NewTestLogger())

	cfg := f.store.Get()
	cfg.ESPIP = "192.168.0.150"
	require.NoError(t, f.store.Set(&cfg, true))

	f.sink = New(f.status, f.store, clock, logger.NewWriterLogger(f.logs))

	return f
}

func (f *fixture) logLines(msg string) int {
	return strings.Count(f.logs.String(), msg)
}

func TestIngestWrappedPayload(t *testing.T) {
	f := newFixture(t)

	ack, err := f.sink.Ingest([]byte(`{"state":{"seq":12,"ssid":"panel","gpio_states":{"22":"ON"},
		"ir_mutes":{"QUIOSQUE":true,"PISCINA":false}}}`), "192.168.0.150")
	require.NoError(t, err)

	assert.True(t, ack.OK)
	assert.Equal(t, int64(12), ack.AckSeq)
	assert.Equal(t, f.now.Unix(), ack.ServerEpoch)
	assert.NotEmpty(t, ack.ServerISO)

	push := f.status.last()
	assert.Equal(t, int64(12), push.seq)
	assert.Equal(t, "192.168.0.150", push.source)
	assert.Equal(t, models.ViaSink, push.state.Via)
	assert.True(t, push.state.WiFi)
	assert.Equal(t, "192.168.0.150", push.state.LocalIP)
	assert.Equal(t, 1, push.state.Relays[models.RelayTwo])

	cfg := f.store.Get()
	assert.True(t, cfg.MuteState[models.ZoneKiosk])
	assert.Equal(t, int64(12), cfg.ESPState.Seq)
	assert.True(t, f.store.Dirty(), "persisted later by the background worker")
}

func TestIngestBarePayloadDefaultsSequence(t *testing.T) {
	f := newFixture(t)

	ack, err := f.sink.Ingest([]byte(`{"ir_volumes":{"PISCINA":8}}`), "10.0.0.9")
	require.NoError(t, err)
	assert.Equal(t, int64(0), ack.AckSeq)
	assert.Equal(t, 8, f.status.last().state.Volumes["piscina"])
}

func TestIngestRejectsInvalidPayload(t *testing.T) {
	f := newFixture(t)

	before := f.store.Get()

	for _, body := range []string{``, `{}`, `[1]`, `"state"`, `{broken`} {
		_, err := f.sink.Ingest([]byte(body), "10.0.0.9")
		require.ErrorIs(t, err, device.ErrInvalidPayload, body)
	}

	assert.Empty(t, f.status.pushes)
	assert.Equal(t, before, f.store.Get())
	assert.False(t, f.store.Dirty())
}

func TestIngestDeduplicatesAndRateLimitsLogs(t *testing.T) {
	f := newFixture(t)

	const msg = "Telemetry push received"

	body := func(seq int, relay string) []byte {
		return []byte(`{"seq":` + strconv.Itoa(seq) + `,"gpio_states":{"23":"` + relay + `"}}`)
	}

	_, err := f.sink.Ingest(body(1, "ON"), "192.168.0.150")
	require.NoError(t, err)
	assert.Equal(t, 1, f.logLines(msg))

	require.NoError(t, f.store.Flush())

	// same readings, new sequence: not a change
	*f.now = f.now.Add(time.Second)
	_, err = f.sink.Ingest(body(2, "ON"), "192.168.0.150")
	require.NoError(t, err)
	assert.False(t, f.store.Dirty())
	assert.Equal(t, 1, f.logLines(msg))

	// a change inside the change-log window is recorded but not logged
	*f.now = f.now.Add(time.Second)
	_, err = f.sink.Ingest(body(3, "OFF"), "192.168.0.150")
	require.NoError(t, err)
	assert.True(t, f.store.Dirty())
	assert.Equal(t, 1, f.logLines(msg))

	*f.now = f.now.Add(5 * time.Second)
	_, err = f.sink.Ingest(body(4, "ON"), "192.168.0.150")
	require.NoError(t, err)
	assert.Equal(t, 2, f.logLines(msg))

	// keepalive without changes
	*f.now = f.now.Add(61 * time.Second)
	_, err = f.sink.Ingest(body(5, "ON"), "192.168.0.150")
	require.NoError(t, err)
	assert.Equal(t, 3, f.logLines(msg))
}

func TestFailedPollKeepsLatestPushedState(t *testing.T) {
	f := newFixture(t)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := poller.NewMockClock(ctrl)
	clock.EXPECT().Now().DoAndReturn(func() time.Time { return *f.now }).AnyTimes()

	fetcher := poller.NewMockStateFetcher(ctrl)
	gomock.InOrder(
		fetcher.EXPECT().FetchState(gomock.Any()).
			Return(map[string]interface{}{"ir_volumes": map[string]interface{}{"QUIOSQUE": float64(12)}}, nil),
		fetcher.EXPECT().FetchState(gomock.Any()).Return(nil, device.ErrUnreachable),
	)

	pcfg := poller.DefaultConfig()
	status := poller.New(&pcfg, fetcher, f.store, clock, logger.NewTestLogger())
	s := New(status, f.store, clock, logger.NewTestLogger())

	push := []byte(`{"ir_volumes":{"QUIOSQUE":10}}`)

	_, err := s.Ingest(push, "192.168.0.150")
	require.NoError(t, err)
	assert.Equal(t, 10, status.Snapshot().Volumes["quiosque"])

	// a newer poll reading replaces the stored state
	*f.now = f.now.Add(13 * time.Second)
	st := status.Get(context.Background())
	require.True(t, st.Polled)
	assert.Equal(t, 12, st.Volumes["quiosque"])
	assert.Equal(t, 12, f.store.Get().ESPState.Volumes["quiosque"])

	// the device pushes the same reading it pushed before
	*f.now = f.now.Add(time.Second)
	_, err = s.Ingest(push, "192.168.0.150")
	require.NoError(t, err)
	assert.Equal(t, 10, f.store.Get().ESPState.Volumes["quiosque"])
	assert.True(t, f.store.Dirty())

	*f.now = f.now.Add(13 * time.Second)
	st = status.Get(context.Background())
	require.True(t, st.Polled)
	assert.False(t, st.Online)
	assert.Equal(t, 10, st.Volumes["quiosque"], "a failed poll keeps the last known state")
	assert.Equal(t, 10, f.store.Get().ESPState.Volumes["quiosque"])
	assert.Equal(t, "192.168.0.150", st.IP)
}

func TestIngestLogsStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	clock := poller.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(now).AnyTimes()

	store := poller.NewMockConfigStore(ctrl)
	store.EXPECT().Get().Return(models.DefaultPanelConfig()).AnyTimes()
	store.EXPECT().Mutate(gomock.Any(), false).DoAndReturn(
		func(fn func(cfg *models.PanelConfig) bool, _ bool) error {
			cfg := models.DefaultPanelConfig()
			assert.True(t, fn(&cfg))

			return errRecordFailed
		})

	status := &fakeStatus{}
	logs := &bytes.Buffer{}
	s := New(status, store, clock, logger.NewWriterLogger(logs))

	ack, err := s.Ingest([]byte(`{"seq":3,"ssid":"panel"}`), "192.168.0.150")
	require.NoError(t, err)
	assert.True(t, ack.OK)

	assert.Equal(t, int64(3), status.last().seq)
	assert.Contains(t, logs.String(), "Failed to record pushed device state")
	assert.Contains(t, logs.String(), errRecordFailed.Error())
}
