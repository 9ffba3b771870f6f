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

package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carverauto/panelsync/pkg/config"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/models"
	jobs "github.com/carverauto/panelsync/pkg/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T, espIP string) *config.ServiceConfig {
	t.Helper()

	root := t.TempDir()

	cfg := config.DefaultServiceConfig()
	cfg.ResolvePaths(root)
	require.NoError(t, cfg.Validate())
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0o755))

	doc, err := json.Marshal(map[string]string{"esp_ip": espIP})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.ConfigPath(), doc, 0o600))

	return cfg
}

func getJSON(t *testing.T, h http.Handler, path string) (int, map[string]interface{}) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}

	return rec.Code, body
}

func TestBuildServesDeviceStatus(t *testing.T) {
	dev := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/state" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"gpio_states":{"23":"ON"}}`))
	}))
	defer dev.Close()

	cfg := newTestConfig(t, strings.TrimPrefix(dev.URL, "http://"))
	c := build(cfg, logger.NewTestLogger(), logger.NewRing(16))

	code, body := getJSON(t, c.api.Handler(), "/api/status")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["ok"])

	state, ok := body["state"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, state["online"])

	code, body = getJSON(t, c.api.Handler(), "/api/esp-ip")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, strings.TrimPrefix(dev.URL, "http://"), body["esp_ip"])

	code, _ = getJSON(t, c.api.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, code)

	require.NoError(t, c.store.Stop(context.Background()))
}

func TestBuildWithoutMetrics(t *testing.T) {
	cfg := newTestConfig(t, "")
	cfg.API.MetricsEnabled = false

	c := build(cfg, logger.NewTestLogger(), logger.NewRing(16))

	code, body := getJSON(t, c.api.Handler(), "/api/status")
	require.Equal(t, http.StatusOK, code)

	state, ok := body["state"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, state["online"])

	rec := httptest.NewRecorder()
	c.api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestJobsServiceStopDrainsManager(t *testing.T) {
	cfg := newTestConfig(t, "")
	c := build(cfg, logger.NewTestLogger(), logger.NewRing(16))

	svc := &jobsService{manager: c.jobs}
	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Stop(context.Background()))

	_, err := c.jobs.Start(models.SyncUI, false, true)
	assert.ErrorIs(t, err, jobs.ErrClosed)
}

func TestRunRejectsInvalidPort(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	path := filepath.Join(t.TempDir(), "panel.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listen_addr":"127.0.0.1:0"}`), 0o600))

	err := Run(context.Background(), Options{ConfigPath: path, Port: "99999"})
	assert.Error(t, err)
}
