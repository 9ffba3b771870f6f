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

package device

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/carverauto/panelsync/pkg/models"
)

// relayPins maps the GPIO pins reported by the firmware to relay names.
var relayPins = []struct {
	pin  string
	name string
}{
	{"23", models.RelayOne},
	{"22", models.RelayTwo},
	{"21", models.RelayThree},
	{"19", models.RelayFour},
}

// RelayPin returns the GPIO pin driving relay name.
func RelayPin(name string) (int, bool) {
	for _, rp := range relayPins {
		if rp.name == name {
			pin, _ := strconv.Atoi(rp.pin)
			return pin, true
		}
	}

	return 0, false
}

// Normalize converts a raw device state document into a DeviceState.
// Mute flags come from ir_mutes, then the legacy mute_state key, then
// fallbackMute.
func Normalize(raw map[string]interface{}, fallbackMute map[string]bool) models.DeviceState {
	state := models.DeviceState{
		Volumes:   normalizeVolumes(asMap(raw["ir_volumes"])),
		Relays:    normalizeRelays(asMap(raw["gpio_states"])),
		MuteState: normalizeMute(raw, fallbackMute),
	}

	state.WiFi = truthy(raw["wifi"])

	if s, ok := raw["ssid"].(string); ok {
		state.SSID = s
	}

	if s, ok := raw["mac"].(string); ok {
		state.MAC = s
	}

	rssi, ok := raw["rssi_dbm"]
	if !ok || rssi == nil {
		rssi = raw["rssi"]
	}

	if f, ok := toFloat(rssi); ok {
		state.RSSIdBm = &f
	}

	if f, ok := toFloat(raw["rssi_bars"]); ok {
		bars := int(f)
		state.RSSIBars = &bars
	}

	state.LocalIP = asString(raw["local_ip"])
	state.Gateway = asString(raw["gateway"])
	state.Subnet = asString(raw["subnet"])
	state.LastEvent = asString(raw["last_event"])

	if f, ok := toFloat(raw["free_heap_kb"]); ok {
		state.FreeHeapKB = &f
	}

	if f, ok := toFloat(raw["uptime_s"]); ok {
		state.UptimeS = &f
	}

	if v, ok := raw["flask_connected"]; ok && v != nil {
		connected := truthy(v)
		state.ServerLinked = &connected
	}

	return state
}

// Sequence extracts the push sequence number, defaulting to zero.
func Sequence(raw map[string]interface{}) int64 {
	f, ok := toFloat(raw["seq"])
	if !ok {
		return 0
	}

	return int64(f)
}

func normalizeVolumes(vols map[string]interface{}) map[string]int {
	out := map[string]int{"quiosque": 0, "piscina": 0}

	for _, zone := range []string{models.ZoneKiosk, models.ZonePool} {
		if f, ok := toFloat(vols[zone]); ok {
			out[strings.ToLower(zone)] = int(f)
		}
	}

	return out
}

func normalizeRelays(gpio map[string]interface{}) map[string]int {
	out := make(map[string]int, len(relayPins))

	for _, rp := range relayPins {
		out[rp.name] = 0
		if isOn(gpio[rp.pin]) {
			out[rp.name] = 1
		}
	}

	return out
}

func normalizeMute(raw map[string]interface{}, fallback map[string]bool) map[string]bool {
	if m, ok := raw["ir_mutes"].(map[string]interface{}); ok {
		return map[string]bool{
			models.ZoneKiosk: truthy(firstPresent(m, models.ZoneKiosk, "quiosque")),
			models.ZonePool:  truthy(firstPresent(m, models.ZonePool, "piscina")),
		}
	}

	if m, ok := raw["mute_state"].(map[string]interface{}); ok {
		return map[string]bool{
			models.ZoneKiosk: truthy(m[models.ZoneKiosk]),
			models.ZonePool:  truthy(m[models.ZonePool]),
		}
	}

	return map[string]bool{
		models.ZoneKiosk: fallback[models.ZoneKiosk],
		models.ZonePool:  fallback[models.ZonePool],
	}
}

func firstPresent(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}

	return nil
}

func isOn(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val == 1
	case json.Number:
		return val.String() == "1"
	case string:
		switch strings.ToUpper(strings.TrimSpace(val)) {
		case "1", "ON", "HIGH":
			return true
		}
	}

	return false
}

func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	case map[string]interface{}:
		return len(val) > 0
	case []interface{}:
		return len(val) > 0
	default:
		return true
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	case bool:
		if val {
			return 1, true
		}

		return 0, true
	default:
		return 0, false
	}
}

func asMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}

	return nil
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
