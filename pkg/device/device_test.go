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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/carverauto/panelsync/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) map[string]interface{} {
	t.Helper()

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &m))

	return m
}

func TestNormalize(t *testing.T) {
	fallback := map[string]bool{models.ZoneKiosk: true, models.ZonePool: false}

	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, s models.DeviceState)
	}{
		{
			name: "relays and volumes",
			raw:  `{"gpio_states":{"23":"ON","22":1,"21":"LOW","19":true},"ir_volumes":{"QUIOSQUE":12,"PISCINA":"7"}}`,
			check: func(t *testing.T, s models.DeviceState) {
				t.Helper()
				assert.Equal(t, map[string]int{"r1": 1, "r2": 1, "r3": 0, "r4": 1}, s.Relays)
				assert.Equal(t, map[string]int{"quiosque": 12, "piscina": 7}, s.Volumes)
				assert.Equal(t, 0, s.BLE)
			},
		},
		{
			name: "ir_mutes preferred with lowercase keys",
			raw:  `{"ir_mutes":{"quiosque":true},"mute_state":{"PISCINA":true}}`,
			check: func(t *testing.T, s models.DeviceState) {
				t.Helper()
				assert.Equal(t, map[string]bool{models.ZoneKiosk: true, models.ZonePool: false}, s.MuteState)
			},
		},
		{
			name: "legacy mute_state",
			raw:  `{"mute_state":{"PISCINA":true}}`,
			check: func(t *testing.T, s models.DeviceState) {
				t.Helper()
				assert.Equal(t, map[string]bool{models.ZoneKiosk: false, models.ZonePool: true}, s.MuteState)
			},
		},
		{
			name: "falls back to configured mute state",
			raw:  `{}`,
			check: func(t *testing.T, s models.DeviceState) {
				t.Helper()
				assert.Equal(t, fallback, s.MuteState)
				assert.Equal(t, map[string]int{"quiosque": 0, "piscina": 0}, s.Volumes)
			},
		},
		{
			name: "network diagnostics",
			raw: `{"wifi":1,"ssid":"panel","mac":"AA:BB","rssi":"-61.5","rssi_bars":3,
				"local_ip":"192.168.0.150","uptime_s":3600,"flask_connected":true,"last_event":"boot"}`,
			check: func(t *testing.T, s models.DeviceState) {
				t.Helper()
				assert.True(t, s.WiFi)
				assert.Equal(t, "panel", s.SSID)
				require.NotNil(t, s.RSSIdBm)
				assert.InDelta(t, -61.5, *s.RSSIdBm, 0.001)
				require.NotNil(t, s.RSSIBars)
				assert.Equal(t, 3, *s.RSSIBars)
				assert.Equal(t, "192.168.0.150", s.LocalIP)
				require.NotNil(t, s.ServerLinked)
				assert.True(t, *s.ServerLinked)
				assert.Equal(t, "boot", s.LastEvent)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Normalize(decode(t, tt.raw), fallback))
		})
	}
}

func TestSequence(t *testing.T) {
	assert.Equal(t, int64(42), Sequence(decode(t, `{"seq":42}`)))
	assert.Equal(t, int64(7), Sequence(decode(t, `{"seq":"7"}`)))
	assert.Equal(t, int64(0), Sequence(decode(t, `{"seq":"abc"}`)))
	assert.Equal(t, int64(0), Sequence(decode(t, `{}`)))
}

func TestUnwrapPayload(t *testing.T) {
	inner, err := UnwrapPayload([]byte(`{"state":{"seq":3,"wifi":true}}`))
	require.NoError(t, err)
	assert.Equal(t, float64(3), inner["seq"])

	bare, err := UnwrapPayload([]byte(`{"seq":4}`))
	require.NoError(t, err)
	assert.Equal(t, float64(4), bare["seq"])

	notObjectState, err := UnwrapPayload([]byte(`{"state":"x","seq":5}`))
	require.NoError(t, err)
	assert.Equal(t, "x", notObjectState["state"])

	for _, body := range []string{`[1,2]`, `"text"`, `{}`, `{bad`, ``} {
		_, err := UnwrapPayload([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidPayload, body)
	}
}

type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) Do(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return nil, errors.New("unexpected network call")
}

func TestClientNotConfiguredMakesNoNetworkCall(t *testing.T) {
	transport := &countingTransport{}
	client := NewClient(func() string { return "  " }, WithHTTPClient(transport))

	_, err := client.FetchState(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, int32(0), transport.calls.Load())
}

func TestClientAgainstDevice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/state":
			_, _ = w.Write([]byte(`{"gpio_states":{"23":"ON"}}`))
		case "/gpio":
			assert.Equal(t, "22", r.URL.Query().Get("pin"))
			assert.Equal(t, "OFF", r.URL.Query().Get("state"))
			_, _ = w.Write([]byte("ok"))
		case "/ir":
			http.Error(w, "unknown command", http.StatusBadRequest)
		case "/wifi":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]string{"ssid": "lab", "pass": "secret"}, body)

			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(func() string { return srv.URL + "/" })

	doc, err := client.FetchState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"23": "ON"}, doc["gpio_states"])

	res, err := client.SetGPIO(context.Background(), 22, false)
	require.NoError(t, err)
	assert.Equal(t, "ok", res)

	_, err = client.SendIR(context.Background(), models.ZoneKiosk, "FOO")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)

	res, err = client.ConfigureWiFi(context.Background(), "lab", "secret")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"ok": true}, res)
}

func TestBaseURLAddsScheme(t *testing.T) {
	client := NewClient(func() string { return "192.168.0.150" })

	base, err := client.BaseURL()
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.0.150", base)

	pin, ok := RelayPin(models.RelayTwo)
	assert.True(t, ok)
	assert.Equal(t, 22, pin)
}
