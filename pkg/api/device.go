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
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/carverauto/panelsync/pkg/actions"
	"github.com/carverauto/panelsync/pkg/device"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
)

type statusResponse struct {
	OK    bool          `json:"ok"`
	State poller.Status `json:"state"`
}

type timeResponse struct {
	OK bool `json:"ok"`
	models.ServerClock
}

type proxyResponse struct {
	OK       bool        `json:"ok"`
	Response interface{} `json:"response,omitempty"`
	State    interface{} `json:"state,omitempty"`
}

// handleStatus returns the cached device state. The answer is always 200;
// reachability is reported in state.online.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		s.unavailable(w, "status")
		return
	}

	s.writeJSON(w, http.StatusOK, statusResponse{OK: true, State: s.status.Get(r.Context())})
}

func (s *Server) handleStateSink(w http.ResponseWriter, r *http.Request) {
	if s.sink == nil {
		s.unavailable(w, "sink")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.writeError(w, "failed to read body", http.StatusBadRequest)
		return
	}

	ack, err := s.sink.Ingest(body, remoteHost(r))

	switch {
	case errors.Is(err, device.ErrInvalidPayload):
		s.writeError(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		s.writeError(w, err.Error(), http.StatusInternalServerError)
	default:
		s.writeJSON(w, http.StatusOK, ack)
	}
}

func (s *Server) handleTime(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, timeResponse{OK: true, ServerClock: models.NewServerClock(s.clock.Now())})
}

func (s *Server) handleGetDeviceIP(w http.ResponseWriter, _ *http.Request) {
	if s.store == nil {
		s.unavailable(w, "config")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "esp_ip": s.store.Get().ESPIP})
}

func (s *Server) handleSetDeviceIP(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.unavailable(w, "config")
		return
	}

	var ip string

	if isJSON(r) {
		var req struct {
			IP    string `json:"ip"`
			ESPIP string `json:"esp_ip"`
		}

		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		ip = firstNonEmpty(req.IP, req.ESPIP)
	} else {
		ip = firstNonEmpty(r.PostFormValue("ip"), r.PostFormValue("esp_ip"))
	}

	ip = strings.TrimSpace(ip)
	if ip == "" {
		s.writeError(w, "ip is empty", http.StatusBadRequest)
		return
	}

	err := s.store.Mutate(func(cfg *models.PanelConfig) bool {
		if cfg.ESPIP == ip {
			return false
		}

		cfg.ESPIP = ip

		return true
	}, true)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Info().Str("ip", ip).Msg("Device address saved")

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "ip": ip})
}

func (s *Server) handleRawState(w http.ResponseWriter, r *http.Request) {
	if s.device == nil {
		s.unavailable(w, "device")
		return
	}

	res, err := s.device.Get(r.Context(), "state", nil)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.writeJSON(w, http.StatusOK, proxyResponse{OK: true, State: res})
}

func (s *Server) handleRawStatus(w http.ResponseWriter, r *http.Request) {
	if s.device == nil {
		s.unavailable(w, "device")
		return
	}

	res, err := s.device.RawStatus(r.Context())
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.writeJSON(w, http.StatusOK, proxyResponse{OK: true, Response: res})
}

func (s *Server) handleWiFiConfig(w http.ResponseWriter, r *http.Request) {
	if s.device == nil {
		s.unavailable(w, "device")
		return
	}

	var req struct {
		SSID     string `json:"ssid"`
		Password string `json:"password"`
		Pass     string `json:"pass"`
	}

	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	password := firstNonEmpty(req.Password, req.Pass)
	if req.SSID == "" || password == "" {
		s.writeError(w, "ssid or password missing", http.StatusBadRequest)
		return
	}

	res, err := s.device.ConfigureWiFi(r.Context(), req.SSID, password)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.writeJSON(w, http.StatusOK, proxyResponse{OK: true, Response: res})
}

func (s *Server) handleIR(w http.ResponseWriter, r *http.Request) {
	if s.actions == nil {
		s.unavailable(w, "actions")
		return
	}

	var req struct {
		Device  string `json:"device"`
		Command string `json:"command"`
	}

	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	res, err := s.actions.SendIR(r.Context(), req.Device, req.Command)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, proxyResponse{OK: true, Response: res})
}

func (s *Server) handleGPIO(w http.ResponseWriter, r *http.Request) {
	if s.actions == nil {
		s.unavailable(w, "actions")
		return
	}

	var req struct {
		Pin   json.Number `json:"pin"`
		State interface{} `json:"state"`
	}

	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	pin, err := strconv.Atoi(req.Pin.String())
	if err != nil || req.State == nil {
		s.writeError(w, "pin and state are required", http.StatusBadRequest)
		return
	}

	res, err := s.actions.SetGPIO(r.Context(), pin, req.State)
	if err != nil {
		s.writeCommandError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, proxyResponse{OK: true, Response: res})
}

func (s *Server) writeCommandError(w http.ResponseWriter, err error) {
	if errors.Is(err, actions.ErrInvalidCommand) {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.writeError(w, err.Error(), http.StatusBadGateway)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

func isJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}
