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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
)

// Zone names as reported by the device firmware.
const (
	ZoneKiosk = "QUIOSQUE"
	ZonePool  = "PISCINA"
)

// Relay names exposed to the UI. The device reports relays by GPIO pin.
const (
	RelayOne   = "r1"
	RelayTwo   = "r2"
	RelayThree = "r3"
	RelayFour  = "r4"
)

// Sources a DeviceState can come from.
const (
	ViaPoll = "poll"
	ViaSink = "sink"
)

// NetworkDiagnostics carries optional Wi-Fi and identity readings of the device.
type NetworkDiagnostics struct {
	WiFi           bool     `json:"wifi"`
	SSID           string   `json:"ssid,omitempty"`
	MAC            string   `json:"mac,omitempty"`
	RSSIdBm        *float64 `json:"rssi_dbm,omitempty"`
	RSSIBars       *int     `json:"rssi_bars,omitempty"`
	LocalIP        string   `json:"local_ip,omitempty"`
	Gateway        string   `json:"gateway,omitempty"`
	Subnet         string   `json:"subnet,omitempty"`
	FreeHeapKB     *float64 `json:"free_heap_kb,omitempty"`
	UptimeS        *float64 `json:"uptime_s,omitempty"`
	ServerLinked   *bool    `json:"flask_connected,omitempty"`
	LastEvent      string   `json:"last_event,omitempty"`
}

// DeviceState is the normalized view of the device's readings. It is always
// replaced wholesale; callers receive clones.
type DeviceState struct {
	Volumes   map[string]int  `json:"volumes,omitempty"`
	Relays    map[string]int  `json:"relays,omitempty"`
	BLE       int             `json:"ble"`
	MuteState map[string]bool `json:"mute_state,omitempty"`

	NetworkDiagnostics

	IP           string  `json:"ip,omitempty"`
	Via          string  `json:"via,omitempty"`
	ServerSeenTS float64 `json:"server_seen_ts,omitempty"`
	Seq          int64   `json:"esp_seq,omitempty"`
}

// IsZero reports whether no reading has ever been recorded.
func (s *DeviceState) IsZero() bool {
	return s == nil || (len(s.Volumes) == 0 && len(s.Relays) == 0 && len(s.MuteState) == 0 &&
		s.IP == "" && s.Via == "" && !s.WiFi)
}

// Clone returns a deep copy.
func (s *DeviceState) Clone() DeviceState {
	if s == nil {
		return DeviceState{}
	}

	out := *s
	out.Volumes = maps.Clone(s.Volumes)
	out.Relays = maps.Clone(s.Relays)
	out.MuteState = maps.Clone(s.MuteState)
	out.RSSIdBm = clonePtr(s.RSSIdBm)
	out.RSSIBars = clonePtr(s.RSSIBars)
	out.FreeHeapKB = clonePtr(s.FreeHeapKB)
	out.UptimeS = clonePtr(s.UptimeS)
	out.ServerLinked = clonePtr(s.ServerLinked)

	return out
}

func clonePtr[T any](in *T) *T {
	if in == nil {
		return nil
	}

	v := *in

	return &v
}

// Fingerprint hashes the state with the per-push volatile fields cleared, so
// two readings that differ only in sequence or receipt time compare equal.
func (s *DeviceState) Fingerprint() string {
	c := s.Clone()
	c.Seq = 0
	c.ServerSeenTS = 0

	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}
