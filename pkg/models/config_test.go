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

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePanelConfigKeepsDefaultsForMissingFields(t *testing.T) {
	cfg, err := DecodePanelConfig([]byte(`{"esp_ip":" 192.168.0.150 ","remote_assets":{"base_url":"https://example.com/ui"}}`))
	require.NoError(t, err)

	assert.Equal(t, "192.168.0.150", cfg.ESPIP)
	assert.Equal(t, "https://example.com/ui", cfg.RemoteAssets.BaseURL)
	assert.Equal(t, time.Hour, cfg.RemoteAssets.TTL())
	assert.Equal(t, 3*time.Second, cfg.RemoteAssets.Timeout())
	assert.Equal(t, 90*time.Second, cfg.RemoteAssets.FailCooldown())
	assert.Equal(t, 24*time.Hour, cfg.RemoteVideos.TTL())
	assert.Equal(t, 20*time.Second, cfg.RemoteVideos.Timeout())
	assert.Equal(t, "static/videos", cfg.VideoDir)
	assert.True(t, cfg.VideoPlay.PreHome)
	assert.Equal(t, []string{"org.videolan.vlc"}, cfg.VideoPlay.ForceStopPkgs)
	assert.Equal(t, "0x10008000", cfg.VideoPlay.IntentFlags)
	assert.Equal(t, map[string]int{ZoneKiosk: 15, ZonePool: 15}, cfg.PrevVolumes)
}

func TestDecodePanelConfigCorruptReturnsDefaults(t *testing.T) {
	cfg, err := DecodePanelConfig([]byte(`{"esp_ip": `))
	require.Error(t, err)
	assert.Equal(t, DefaultPanelConfig(), cfg)
}

func TestDecodePanelConfigSkipsMistypedLeaves(t *testing.T) {
	cfg, err := DecodePanelConfig([]byte(`{
		"esp_ip": "10.0.0.5",
		"esp_state": {"flask_connected": 1, "rssi_dbm": "weak", "ssid": "panel", "volumes": {"quiosque": 7}},
		"prev_volumes": "oops",
		"remote_assets": {"base_url": "https://example.com/ui", "cache_ttl_s": "soon"}
	}`))

	var skipped *SkippedFieldsError
	require.ErrorAs(t, err, &skipped)
	assert.Equal(t, []string{
		"esp_state.flask_connected", "esp_state.rssi_dbm", "prev_volumes", "remote_assets.cache_ttl_s",
	}, skipped.Fields)

	assert.Equal(t, "10.0.0.5", cfg.ESPIP)
	assert.Equal(t, "panel", cfg.ESPState.SSID)
	assert.Equal(t, 7, cfg.ESPState.Volumes["quiosque"])
	assert.Nil(t, cfg.ESPState.ServerLinked)
	assert.Nil(t, cfg.ESPState.RSSIdBm)
	assert.Equal(t, "https://example.com/ui", cfg.RemoteAssets.BaseURL)
	assert.Equal(t, time.Hour, cfg.RemoteAssets.TTL())
	assert.Equal(t, map[string]int{ZoneKiosk: 15, ZonePool: 15}, cfg.PrevVolumes)
}

func TestVideoPlayConfigLenientShapes(t *testing.T) {
	var v VideoPlayConfig

	require.NoError(t, json.Unmarshal([]byte(`{"pre_home":false,"force_stop_pkgs":"com.player","intent_flags":268468224}`), &v))

	assert.False(t, v.PreHome)
	assert.Equal(t, []string{"com.player"}, v.ForceStopPkgs)
	assert.Equal(t, "0x10008000", v.IntentFlags)
}

func TestPanelConfigCloneIsIndependent(t *testing.T) {
	cfg := DefaultPanelConfig()
	cfg.ESPState.Volumes = map[string]int{"quiosque": 10}

	clone := cfg.Clone()
	clone.MuteState[ZoneKiosk] = true
	clone.ESPState.Volumes["quiosque"] = 99
	clone.VideoPlay.ForceStopPkgs[0] = "changed"

	assert.False(t, cfg.MuteState[ZoneKiosk])
	assert.Equal(t, 10, cfg.ESPState.Volumes["quiosque"])
	assert.Equal(t, "org.videolan.vlc", cfg.VideoPlay.ForceStopPkgs[0])
}

func TestRemoteSourceURL(t *testing.T) {
	src := RemoteSource{BaseURL: " https://raw.example.com/panel/ "}

	assert.True(t, src.Enabled())
	assert.Equal(t, "https://raw.example.com/panel/images/background.jpg", src.URL("images/background.jpg"))
	assert.False(t, RemoteSource{}.Enabled())
}

func TestCacheMetaFreshAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	meta := &CacheMeta{FetchedAt: now.Add(-30 * time.Minute)}

	assert.True(t, meta.FreshAt(now, time.Hour))
	assert.False(t, meta.FreshAt(now, 10*time.Minute))
	assert.False(t, (&CacheMeta{}).FreshAt(now, time.Hour))
}

func TestCacheMetaDecodesLegacyEpoch(t *testing.T) {
	var legacy CacheMeta
	require.NoError(t, json.Unmarshal([]byte(`{"url":"https://example.com/ui/style.css","etag":"\"v1\"",
		"last_modified":"","fetched_at":1717243190.5,"status":200}`), &legacy))

	assert.Equal(t, `"v1"`, legacy.ETag)
	assert.Equal(t, 200, legacy.Status)
	assert.Equal(t, time.Unix(1717243190, 500_000_000), legacy.FetchedAt)

	stamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := json.Marshal(CacheMeta{ETag: "x", FetchedAt: stamp})
	require.NoError(t, err)

	var current CacheMeta
	require.NoError(t, json.Unmarshal(data, &current))
	assert.True(t, stamp.Equal(current.FetchedAt))

	var broken CacheMeta
	require.NoError(t, json.Unmarshal([]byte(`{"etag":"e","fetched_at":"yesterday"}`), &broken))
	assert.Equal(t, "e", broken.ETag)
	assert.True(t, broken.FetchedAt.IsZero())
}
