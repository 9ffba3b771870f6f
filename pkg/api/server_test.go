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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/carverauto/panelsync/pkg/actions"
	"github.com/carverauto/panelsync/pkg/assets"
	"github.com/carverauto/panelsync/pkg/device"
	"github.com/carverauto/panelsync/pkg/download"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
	"github.com/carverauto/panelsync/pkg/sink"
	"github.com/carverauto/panelsync/pkg/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var errTestError = errors.New("test error")

type harness struct {
	server  *Server
	status  *MockStatusProvider
	sink    *MockTelemetrySink
	device  *MockDeviceProxy
	actions *MockActionRunner
	volume  *MockVolumeControl
	syncs   *MockSyncService
	updater *MockAutoUpdater
	assets  *MockAssetResolver
	store   *poller.MockConfigStore
	logs    []string
}

type tailFunc func(n int) []string

func (f tailFunc) Tail(n int) []string { return f(n) }

func newHarness(t *testing.T) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	h := &harness{
		status:  NewMockStatusProvider(ctrl),
		sink:    NewMockTelemetrySink(ctrl),
		device:  NewMockDeviceProxy(ctrl),
		actions: NewMockActionRunner(ctrl),
		volume:  NewMockVolumeControl(ctrl),
		syncs:   NewMockSyncService(ctrl),
		updater: NewMockAutoUpdater(ctrl),
		assets:  NewMockAssetResolver(ctrl),
		store:   poller.NewMockConfigStore(ctrl),
	}

	h.server = NewServer(&Config{LogTail: 3, AllowedOrigins: []string{"http://panel.local"}}, logger.NewTestLogger(),
		WithStatus(h.status),
		WithSink(h.sink),
		WithDevice(h.device),
		WithActions(h.actions),
		WithVolume(h.volume),
		WithSync(h.syncs),
		WithAutoUpdate(h.updater),
		WithAssets(h.assets),
		WithConfigStore(h.store),
		WithLogs(tailFunc(func(n int) []string {
			if n > len(h.logs) {
				n = len(h.logs)
			}

			return h.logs[len(h.logs)-n:]
		})),
		WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("panel_device_online 1\n"))
		})),
	)

	return h
}

func (h *harness) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rr, req)

	return rr
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())

	return out
}

func TestStatusAnswersOKWhileDeviceOffline(t *testing.T) {
	h := newHarness(t)

	h.status.EXPECT().Get(gomock.Any()).Return(poller.Status{
		DeviceState: models.DeviceState{IP: "10.0.0.9"},
		Diagnostics: poller.Diagnostics{FailStreak: 3},
	})

	rr := h.do(http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeMap(t, rr)
	assert.Equal(t, true, body["ok"])

	state := body["state"].(map[string]interface{})
	assert.Equal(t, false, state["online"])
	assert.InDelta(t, 3, state["fail_streak"], 0)
}

func TestStateSink(t *testing.T) {
	h := newHarness(t)

	h.sink.EXPECT().Ingest([]byte(`{"state":{}}`), "192.0.2.1").
		Return(sink.Ack{}, fmt.Errorf("%w: empty", device.ErrInvalidPayload))
	h.sink.EXPECT().Ingest([]byte(`{"seq":4,"volumes":{}}`), "192.0.2.1").
		Return(sink.Ack{OK: true, AckSeq: 4, ServerEpoch: 1700000000}, nil)

	rr := h.do(http.MethodPost, "/api/esp-state-sink", `{"state":{}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, false, decodeMap(t, rr)["ok"])

	rr = h.do(http.MethodPost, "/api/esp-state-sink", `{"seq":4,"volumes":{}}`)
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeMap(t, rr)
	assert.InDelta(t, 4, body["ack_seq"], 0)
	assert.InDelta(t, 1700000000, body["server_epoch"], 0)
}

func TestTimeReportsServerClock(t *testing.T) {
	h := newHarness(t)

	body := decodeMap(t, h.do(http.MethodGet, "/api/time", ""))
	assert.Equal(t, true, body["ok"])
	assert.Contains(t, body, "epoch")
	assert.Contains(t, body, "tz_offset_s")
}

func TestDeviceIP(t *testing.T) {
	h := newHarness(t)

	cfg := models.DefaultPanelConfig()
	cfg.ESPIP = "10.0.0.2"

	h.store.EXPECT().Get().DoAndReturn(func() models.PanelConfig { return cfg }).AnyTimes()
	h.store.EXPECT().Mutate(gomock.Any(), true).DoAndReturn(func(fn func(*models.PanelConfig) bool, _ bool) error {
		fn(&cfg)
		return nil
	}).Times(2)

	body := decodeMap(t, h.do(http.MethodGet, "/api/esp-ip", ""))
	assert.Equal(t, "10.0.0.2", body["esp_ip"])

	rr := h.do(http.MethodPost, "/api/esp-ip", `{"esp_ip":" 10.0.0.7 "}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "10.0.0.7", decodeMap(t, rr)["ip"])
	assert.Equal(t, "10.0.0.7", cfg.ESPIP)

	req := httptest.NewRequest(http.MethodPost, "/api/esp-ip", strings.NewReader(url.Values{"ip": {"10.0.0.8"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr = httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "10.0.0.8", cfg.ESPIP)

	rr = h.do(http.MethodPost, "/api/esp-ip", `{"ip":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRawDeviceProxies(t *testing.T) {
	h := newHarness(t)

	h.device.EXPECT().Get(gomock.Any(), "state", url.Values(nil)).Return(nil, device.ErrUnreachable)
	h.device.EXPECT().RawStatus(gomock.Any()).Return(map[string]interface{}{"uptime": 12.0}, nil)
	h.device.EXPECT().ConfigureWiFi(gomock.Any(), "lab", "secret").Return("ok", nil)

	assert.Equal(t, http.StatusBadGateway, h.do(http.MethodGet, "/api/state", "").Code)

	rr := h.do(http.MethodGet, "/api/status_esp32", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]interface{}{"uptime": 12.0}, decodeMap(t, rr)["response"])

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/wifi_config", `{"ssid":"lab"}`).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/wifi_config", `{"ssid":"lab","pass":"secret"}`).Code)
}

func TestIRAndGPIOErrors(t *testing.T) {
	h := newHarness(t)

	h.actions.EXPECT().SendIR(gomock.Any(), "", "MUTE").Return(nil, fmt.Errorf("%w: device", actions.ErrInvalidCommand))
	h.actions.EXPECT().SendIR(gomock.Any(), "QUIOSQUE", "MUTE").Return(nil, device.ErrUnreachable)
	h.actions.EXPECT().SetGPIO(gomock.Any(), 23, "ON").Return("ok", nil)
	h.actions.EXPECT().SetGPIO(gomock.Any(), 22, float64(0)).Return("ok", nil)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/ir", `{"command":"MUTE"}`).Code)
	assert.Equal(t, http.StatusBadGateway, h.do(http.MethodPost, "/api/ir", `{"device":"QUIOSQUE","command":"MUTE"}`).Code)

	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/gpio", `{"pin":"23","state":"ON"}`).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/gpio", `{"pin":22,"state":0}`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/gpio", `{"state":"ON"}`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/gpio", `{"pin":23}`).Code)
}

func TestPlayVideo(t *testing.T) {
	h := newHarness(t)

	h.actions.EXPECT().PlayVideo(gomock.Any(), "nope").Return(actions.PlayResult{}, download.ErrUnknownVideo)
	h.actions.EXPECT().PlayVideo(gomock.Any(), "welcome").Return(actions.PlayResult{OK: true, Path: "/v/w.mp4"}, nil)
	h.actions.EXPECT().PlayVideo(gomock.Any(), "promo").Return(actions.PlayResult{Path: "/v/p.mp4", Error: "missing"}, nil)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/playvideo", `{"key":"nope"}`).Code)

	rr := h.do(http.MethodPost, "/api/welcome", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeMap(t, rr)
	assert.Equal(t, "welcome", body["key"])
	assert.Equal(t, "/v/w.mp4", body["path"])

	assert.Equal(t, http.StatusInternalServerError, h.do(http.MethodPost, "/api/playvideo", `{"key":"promo"}`).Code)
}

func TestShowDelays(t *testing.T) {
	h := newHarness(t)

	h.actions.EXPECT().StartShow(gomock.Any(), actions.DefaultStartDelay).Return(actions.Report{OK: true})
	h.actions.EXPECT().StartShow(gomock.Any(), 10*time.Second).Return(actions.Report{OK: false})
	h.actions.EXPECT().StopShow(gomock.Any(), 1500*time.Millisecond).Return(actions.Report{
		OK:    true,
		Steps: []actions.StepResult{{Step: "relay_r1_off", Error: "unreachable"}, {Step: "home", OK: true}},
	})

	rr := h.do(http.MethodPost, "/api/startshow", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.InDelta(t, 45, decodeMap(t, rr)["delay_s"], 0)

	assert.Equal(t, http.StatusInternalServerError, h.do(http.MethodPost, "/api/startshow", `{"delay_s":10}`).Code)

	rr = h.do(http.MethodPost, "/api/stopshow", `{"delay_s":1.5}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeMap(t, rr)["steps"], 2)
}

func TestVolume(t *testing.T) {
	h := newHarness(t)

	muted := true

	h.volume.EXPECT().Get(gomock.Any()).Return(actions.Volume{Stream: "music", Value: 5, Max: 15}, nil)
	h.volume.EXPECT().Set(gomock.Any(), 9).Return(actions.Volume{Stream: "music", Value: 9, Max: 15}, nil)
	h.volume.EXPECT().ToggleMute(gomock.Any()).Return(actions.Volume{Stream: "music", Max: 15, Muted: &muted}, nil)

	body := decodeMap(t, h.do(http.MethodGet, "/api/vol", ""))
	assert.InDelta(t, 5, body["value"], 0)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/vol/set", `{}`).Code)

	body = decodeMap(t, h.do(http.MethodPost, "/api/vol/set", `{"value":9}`))
	assert.InDelta(t, 9, body["value"], 0)

	body = decodeMap(t, h.do(http.MethodPost, "/api/mute", ""))
	assert.Equal(t, true, body["muted"])
}

func TestSyncRemote(t *testing.T) {
	h := newHarness(t)

	ok := true
	job := models.SyncJob{ID: "abc", Kind: models.SyncUI, Done: true, Succeeded: &ok}

	h.syncs.EXPECT().Start(models.SyncAll, true, false).Return("job1", nil)
	h.syncs.EXPECT().RunWait(gomock.Any(), models.SyncUI, false, true).Return(job, nil)
	h.syncs.EXPECT().Start(models.SyncVideos, false, false).Return("", sync.ErrClosed)

	body := decodeMap(t, h.do(http.MethodPost, "/api/sync-remote", `{"what":"bogus","force_download":true}`))
	assert.Equal(t, "job1", body["sync_id"])
	assert.Equal(t, "all", body["what"])
	assert.Equal(t, false, body["wait"])

	body = decodeMap(t, h.do(http.MethodPost, "/api/sync-remote?wait=1", `{"what":"ui","respect_ttl":true}`))
	assert.Equal(t, true, body["wait"])
	assert.Equal(t, "abc", body["job"].(map[string]interface{})["sync_id"])

	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodPost, "/api/sync-remote?what=videos", "").Code)
}

func TestSyncProgressAndLast(t *testing.T) {
	h := newHarness(t)

	failed := false

	h.syncs.EXPECT().Progress("missing").Return(models.SyncJob{}, sync.ErrJobNotFound)
	h.syncs.EXPECT().Progress("abc").Return(models.SyncJob{ID: "abc", Kind: models.SyncUI, Done: true, Succeeded: &failed}, nil)
	h.syncs.EXPECT().Last(models.SyncVideos).Return("")
	h.syncs.EXPECT().Last(models.SyncAll).Return("abc")

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/sync-progress", "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/sync-progress?sync_id=missing", "").Code)

	body := decodeMap(t, h.do(http.MethodGet, "/api/sync-progress?sync_id=abc", ""))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, false, body["job_ok"])
	assert.Equal(t, true, body["done"])

	body = decodeMap(t, h.do(http.MethodGet, "/api/sync-last?what=videos", ""))
	assert.Nil(t, body["sync_id"])

	body = decodeMap(t, h.do(http.MethodGet, "/api/sync-last?what=weird", ""))
	assert.Equal(t, "all", body["what"])
	assert.Equal(t, "abc", body["sync_id"])
}

func TestAutoUpdateToggle(t *testing.T) {
	h := newHarness(t)

	h.updater.EXPECT().SetEnabled(true).Return(nil)
	h.updater.EXPECT().SetEnabled(false).Return(nil)
	h.updater.EXPECT().SetEnabled(true).Return(errTestError)
	h.updater.EXPECT().Status().Return(models.AutoUpdateStatus{Enabled: true, TTLS: 60}).Times(3)

	body := decodeMap(t, h.do(http.MethodPost, "/api/auto-update", `{"enabled":"yes"}`))
	assert.Equal(t, true, body["enabled"])
	assert.InDelta(t, 60, body["ttl_s"], 0)

	req := httptest.NewRequest(http.MethodPost, "/api/auto-update?enabled=off", http.NoBody)
	rr := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, http.StatusInternalServerError, h.do(http.MethodPost, "/api/auto-update", `{"enabled":1}`).Code)

	body = decodeMap(t, h.do(http.MethodGet, "/api/auto-update", ""))
	assert.Equal(t, true, body["ok"])
}

func TestLogsDefaultTail(t *testing.T) {
	h := newHarness(t)
	h.logs = []string{"a", "b", "c", "d", "e"}

	body := decodeMap(t, h.do(http.MethodGet, "/api/logs", ""))
	assert.Equal(t, []interface{}{"c", "d", "e"}, body["lines"])

	body = decodeMap(t, h.do(http.MethodGet, "/api/logs?n=1", ""))
	assert.Equal(t, []interface{}{"e"}, body["lines"])
}

func TestAssetServing(t *testing.T) {
	h := newHarness(t)

	h.assets.EXPECT().Resolve(gomock.Any(), "index.html").Return([]byte("<html></html>"), assets.SourceCache, nil)
	h.assets.EXPECT().Resolve(gomock.Any(), "style.css").Return([]byte("body{}"), assets.SourceLocal, nil)
	h.assets.EXPECT().Resolve(gomock.Any(), "favicon.ico").Return(nil, assets.Source(""), assets.ErrNoContent)
	h.assets.EXPECT().Resolve(gomock.Any(), "images/x.png").Return(nil, assets.Source(""), assets.ErrUnsafePath)

	rr := h.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "<html></html>", rr.Body.String())
	assert.Equal(t, "no-cache", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "cache", rr.Header().Get(AssetSourceHeader))
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")

	rr = h.do(http.MethodGet, "/style.css", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=0, must-revalidate", rr.Header().Get("Cache-Control"))
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/css")

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodGet, "/favicon.ico", "").Code)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/images/x.png", "").Code)

	rr = h.do(http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMiddleware(t *testing.T) {
	h := newHarness(t)

	rr := h.do(http.MethodGet, "/api/time", "")
	assert.Len(t, rr.Header().Get(RequestIDHeader), 8)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/api/ir", http.NoBody)
	req.Header.Set("Origin", "http://panel.local")

	rr = httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://panel.local", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/time", http.NoBody)
	req.Header.Set("Origin", "http://evil.example")

	rr = httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	rr = h.do(http.MethodGet, "/metrics", "")
	assert.Contains(t, rr.Body.String(), "panel_device_online")
}

func TestMissingComponentsAnswerUnavailable(t *testing.T) {
	s := NewServer(&Config{}, logger.NewTestLogger())

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/api/status"},
		{http.MethodPost, "/api/ir"},
		{http.MethodGet, "/api/vol"},
		{http.MethodPost, "/api/sync-remote"},
		{http.MethodGet, "/api/auto-update"},
		{http.MethodGet, "/api/logs"},
	} {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest(tc.method, tc.target, http.NoBody))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, tc.target)
	}

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	h.status.EXPECT().Snapshot().Return(poller.Status{Online: true})

	body := decodeMap(t, h.do(http.MethodGet, "/healthz", ""))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["device_online"])
	assert.Contains(t, body, "uptime_s")
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	assert.Len(t, newRequestID(), 8)
}
