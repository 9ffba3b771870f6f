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

// Package models contains the data types shared across the panel services.
package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"
)

const (
	defaultVolume         = 15
	defaultAssetTTLS      = 3600
	defaultAssetTimeoutS  = 3.0
	defaultVideoTTLS      = 86400
	defaultVideoTimeoutS  = 20.0
	defaultFailCooldownS  = 90.0
	defaultVideoDir       = "static/videos"
	defaultIntentFlags    = "0x10008000"
	defaultVideoPlayerPkg = "org.videolan.vlc"
)

// RemoteSource describes a remote origin that assets or videos are mirrored from.
type RemoteSource struct {
	BaseURL       string  `json:"base_url"`
	CacheTTLS     float64 `json:"cache_ttl_s"`
	TimeoutS      float64 `json:"timeout_s"`
	FailCooldownS float64 `json:"fail_cooldown_s,omitempty"`
}

// Enabled reports whether a base URL is configured.
func (r RemoteSource) Enabled() bool {
	return strings.TrimSpace(r.BaseURL) != ""
}

// URL joins the base URL and a normalized relative path.
func (r RemoteSource) URL(rel string) string {
	return strings.TrimRight(strings.TrimSpace(r.BaseURL), "/") + "/" + strings.TrimLeft(rel, "/")
}

func (r RemoteSource) TTL() time.Duration          { return Seconds(r.CacheTTLS) }
func (r RemoteSource) Timeout() time.Duration      { return Seconds(r.TimeoutS) }
func (r RemoteSource) FailCooldown() time.Duration { return Seconds(r.FailCooldownS) }

// VideoPlayConfig controls how the local media player is driven.
type VideoPlayConfig struct {
	PreHome       bool     `json:"pre_home"`
	ForceStopPkgs []string `json:"force_stop_pkgs"`
	IntentFlags   string   `json:"intent_flags"`
}

// UnmarshalJSON accepts intent_flags as a string or a number and
// force_stop_pkgs as a single string or a list.
func (v *VideoPlayConfig) UnmarshalJSON(b []byte) error {
	var raw struct {
		PreHome       *bool           `json:"pre_home"`
		ForceStopPkgs json.RawMessage `json:"force_stop_pkgs"`
		IntentFlags   json.RawMessage `json:"intent_flags"`
	}

	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if raw.PreHome != nil {
		v.PreHome = *raw.PreHome
	}

	if len(raw.ForceStopPkgs) > 0 {
		var list []string

		var single string

		switch {
		case json.Unmarshal(raw.ForceStopPkgs, &list) == nil:
			v.ForceStopPkgs = list
		case json.Unmarshal(raw.ForceStopPkgs, &single) == nil:
			v.ForceStopPkgs = []string{single}
		default:
			v.ForceStopPkgs = nil
		}
	}

	if len(raw.IntentFlags) > 0 {
		var s string

		var n float64

		switch {
		case json.Unmarshal(raw.IntentFlags, &s) == nil:
			v.IntentFlags = s
		case json.Unmarshal(raw.IntentFlags, &n) == nil:
			v.IntentFlags = fmt.Sprintf("%#x", int64(n))
		}
	}

	return nil
}

// PanelConfig is the persisted panel configuration document.
type PanelConfig struct {
	ESPIP            string          `json:"esp_ip"`
	ESPState         DeviceState     `json:"esp_state"`
	MuteState        map[string]bool `json:"mute_state"`
	PrevVolumes      map[string]int  `json:"prev_volumes"`
	RemoteAssets     RemoteSource    `json:"remote_assets"`
	RemoteVideos     RemoteSource    `json:"remote_videos"`
	VideoDir         string          `json:"video_dir"`
	WelcomeVideoPath string          `json:"welcome_video_path,omitempty"`
	AutoUpdateUI     bool            `json:"auto_update_ui"`
	VideoPlay        VideoPlayConfig `json:"video_play"`
}

// DefaultPanelConfig returns the configuration used when no document exists
// on disk or the document cannot be decoded.
func DefaultPanelConfig() PanelConfig {
	return PanelConfig{
		MuteState:   map[string]bool{ZoneKiosk: false, ZonePool: false},
		PrevVolumes: map[string]int{ZoneKiosk: defaultVolume, ZonePool: defaultVolume},
		RemoteAssets: RemoteSource{
			CacheTTLS:     defaultAssetTTLS,
			TimeoutS:      defaultAssetTimeoutS,
			FailCooldownS: defaultFailCooldownS,
		},
		RemoteVideos: RemoteSource{
			CacheTTLS:     defaultVideoTTLS,
			TimeoutS:      defaultVideoTimeoutS,
			FailCooldownS: defaultFailCooldownS,
		},
		VideoDir: defaultVideoDir,
		VideoPlay: VideoPlayConfig{
			PreHome:       true,
			ForceStopPkgs: []string{defaultVideoPlayerPkg},
			IntentFlags:   defaultIntentFlags,
		},
	}
}

// DecodePanelConfig decodes a stored document on top of the defaults, so
// fields missing from older documents keep their default values. A document
// that is not a JSON object yields the defaults and an error. Fields whose
// values do not fit keep their defaults and are reported through a
// *SkippedFieldsError alongside the otherwise decoded record.
func DecodePanelConfig(data []byte) (PanelConfig, error) {
	cfg := DefaultPanelConfig()

	var skipped []string
	if err := decodeLenient(data, reflect.ValueOf(&cfg).Elem(), "", &skipped); err != nil {
		return DefaultPanelConfig(), err
	}

	cfg.normalize()

	if len(skipped) > 0 {
		slices.Sort(skipped)
		return cfg, &SkippedFieldsError{Fields: skipped}
	}

	return cfg, nil
}

func (c *PanelConfig) normalize() {
	defaults := DefaultPanelConfig()

	c.ESPIP = strings.TrimSpace(c.ESPIP)

	if c.MuteState == nil {
		c.MuteState = defaults.MuteState
	}

	if c.PrevVolumes == nil {
		c.PrevVolumes = defaults.PrevVolumes
	}

	fillSource(&c.RemoteAssets, defaults.RemoteAssets)
	fillSource(&c.RemoteVideos, defaults.RemoteVideos)

	if strings.TrimSpace(c.VideoDir) == "" {
		c.VideoDir = defaults.VideoDir
	}

	c.VideoPlay.IntentFlags = strings.TrimSpace(c.VideoPlay.IntentFlags)
	if c.VideoPlay.IntentFlags == "" {
		c.VideoPlay.IntentFlags = defaults.VideoPlay.IntentFlags
	}

	pkgs := make([]string, 0, len(c.VideoPlay.ForceStopPkgs))

	for _, p := range c.VideoPlay.ForceStopPkgs {
		if p = strings.TrimSpace(p); p != "" {
			pkgs = append(pkgs, p)
		}
	}

	c.VideoPlay.ForceStopPkgs = pkgs
}

func fillSource(src *RemoteSource, defaults RemoteSource) {
	if src.CacheTTLS <= 0 {
		src.CacheTTLS = defaults.CacheTTLS
	}

	if src.TimeoutS <= 0 {
		src.TimeoutS = defaults.TimeoutS
	}

	if src.FailCooldownS <= 0 {
		src.FailCooldownS = defaults.FailCooldownS
	}
}

// Clone returns a deep copy.
func (c *PanelConfig) Clone() PanelConfig {
	out := *c
	out.ESPState = c.ESPState.Clone()
	out.MuteState = maps.Clone(c.MuteState)
	out.PrevVolumes = maps.Clone(c.PrevVolumes)
	out.VideoPlay.ForceStopPkgs = slices.Clone(c.VideoPlay.ForceStopPkgs)

	return out
}
