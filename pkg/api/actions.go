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
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/carverauto/panelsync/pkg/actions"
	"github.com/carverauto/panelsync/pkg/download"
)

const welcomeVideo = "welcome"

type showResponse struct {
	actions.Report
	DelayS float64 `json:"delay_s"`
}

type playResponse struct {
	actions.PlayResult
	Key string `json:"key"`
}

type volumeResponse struct {
	OK bool `json:"ok"`
	actions.Volume
}

func okStatus(ok bool) int {
	if ok {
		return http.StatusOK
	}

	return http.StatusInternalServerError
}

func (s *Server) handleYouTube(w http.ResponseWriter, r *http.Request) {
	if s.actions == nil {
		s.unavailable(w, "actions")
		return
	}

	res := s.actions.OpenYouTube(r.Context())
	s.writeJSON(w, okStatus(res.OK), res)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if s.actions == nil {
		s.unavailable(w, "actions")
		return
	}

	res := s.actions.GoHome(r.Context())
	s.writeJSON(w, okStatus(res.OK), res)
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	s.playVideo(w, r, welcomeVideo)
}

func (s *Server) handlePlayVideo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}

	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	s.playVideo(w, r, strings.TrimSpace(req.Key))
}

func (s *Server) playVideo(w http.ResponseWriter, r *http.Request, key string) {
	if s.actions == nil {
		s.unavailable(w, "actions")
		return
	}

	res, err := s.actions.PlayVideo(r.Context(), key)

	switch {
	case errors.Is(err, download.ErrUnknownVideo):
		s.writeError(w, "invalid key", http.StatusBadRequest)
	case err != nil:
		s.writeError(w, err.Error(), http.StatusInternalServerError)
	default:
		s.writeJSON(w, okStatus(res.OK), playResponse{PlayResult: res, Key: key})
	}
}

// delayFrom reads delay_s from the request body, falling back to def.
func delayFrom(r *http.Request, def time.Duration) (time.Duration, error) {
	var req struct {
		DelayS *float64 `json:"delay_s"`
	}

	if err := decodeBody(r, &req); err != nil {
		return 0, err
	}

	if req.DelayS == nil || *req.DelayS < 0 {
		return def, nil
	}

	return time.Duration(*req.DelayS * float64(time.Second)), nil
}

// handleStartShow powers the relays, plays the welcome video and schedules
// YouTube after delay_s seconds.
func (s *Server) handleStartShow(w http.ResponseWriter, r *http.Request) {
	if s.actions == nil {
		s.unavailable(w, "actions")
		return
	}

	delay, err := delayFrom(r, actions.DefaultStartDelay)
	if err != nil {
		s.writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	report := s.actions.StartShow(r.Context(), delay)

	s.writeJSON(w, okStatus(report.OK), showResponse{Report: report, DelayS: delay.Seconds()})
}

// handleStopShow switches the relays off delay_s seconds apart and returns
// to the launcher.
func (s *Server) handleStopShow(w http.ResponseWriter, r *http.Request) {
	if s.actions == nil {
		s.unavailable(w, "actions")
		return
	}

	delay, err := delayFrom(r, actions.DefaultStopDelay)
	if err != nil {
		s.writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	report := s.actions.StopShow(r.Context(), delay)

	s.writeJSON(w, okStatus(report.OK), showResponse{Report: report, DelayS: delay.Seconds()})
}

func (s *Server) handleGetVolume(w http.ResponseWriter, r *http.Request) {
	if s.volume == nil {
		s.unavailable(w, "volume")
		return
	}

	v, err := s.volume.Get(r.Context())
	s.writeVolume(w, v, err)
}

func (s *Server) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	if s.volume == nil {
		s.unavailable(w, "volume")
		return
	}

	var req struct {
		Value *int `json:"value"`
	}

	if err := decodeBody(r, &req); err != nil || req.Value == nil {
		s.writeError(w, "value is required", http.StatusBadRequest)
		return
	}

	v, err := s.volume.Set(r.Context(), *req.Value)
	s.writeVolume(w, v, err)
}

func (s *Server) handleToggleMute(w http.ResponseWriter, r *http.Request) {
	if s.volume == nil {
		s.unavailable(w, "volume")
		return
	}

	v, err := s.volume.ToggleMute(r.Context())
	s.writeVolume(w, v, err)
}

func (s *Server) writeVolume(w http.ResponseWriter, v actions.Volume, err error) {
	if err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, volumeResponse{OK: true, Volume: v})
}
