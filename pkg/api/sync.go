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
	"strconv"
	"strings"

	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/sync"
)

type syncRequest struct {
	What          string `json:"what"`
	Force         bool   `json:"force"`
	ForceDownload *bool  `json:"force_download"`
	RespectTTL    bool   `json:"respect_ttl"`
	Wait          bool   `json:"wait"`
}

type syncStarted struct {
	OK         bool            `json:"ok"`
	SyncID     string          `json:"sync_id,omitempty"`
	What       models.SyncKind `json:"what"`
	Force      bool            `json:"force"`
	RespectTTL bool            `json:"respect_ttl"`
	Wait       bool            `json:"wait"`
	Job        *models.SyncJob `json:"job,omitempty"`
}

// syncProgress flattens a job next to the call status; the job's own
// result moves to job_ok.
type syncProgress struct {
	OK bool `json:"ok"`
	models.SyncJob
	JobOK *bool `json:"job_ok"`
}

type syncLast struct {
	OK     bool            `json:"ok"`
	What   models.SyncKind `json:"what"`
	SyncID *string         `json:"sync_id"`
}

type autoUpdateResponse struct {
	OK bool `json:"ok"`
	models.AutoUpdateStatus
}

// kindOrAll parses a kind name, treating unknown names as all.
func kindOrAll(name string) models.SyncKind {
	kind, err := models.ParseSyncKind(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return models.SyncAll
	}

	return kind
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes", "y":
		return true
	default:
		return false
	}
}

// handleSyncRemote starts a sync job. With wait the request blocks until the
// job finishes; otherwise the job id is returned for progress polling.
func (s *Server) handleSyncRemote(w http.ResponseWriter, r *http.Request) {
	if s.syncs == nil {
		s.unavailable(w, "sync")
		return
	}

	var req syncRequest

	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()

	kind := kindOrAll(firstNonEmpty(req.What, q.Get("what")))

	force := req.Force
	if req.ForceDownload != nil {
		force = *req.ForceDownload
	}

	wait := req.Wait || truthy(q.Get("wait"))
	out := syncStarted{OK: true, What: kind, Force: force, RespectTTL: req.RespectTTL, Wait: wait}

	if wait {
		job, err := s.syncs.RunWait(r.Context(), kind, force, req.RespectTTL)
		if err != nil {
			s.writeSyncError(w, err)
			return
		}

		out.SyncID = job.ID
		out.Job = &job

		s.writeJSON(w, http.StatusOK, out)

		return
	}

	id, err := s.syncs.Start(kind, force, req.RespectTTL)
	if err != nil {
		s.writeSyncError(w, err)
		return
	}

	out.SyncID = id

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSyncProgress(w http.ResponseWriter, r *http.Request) {
	if s.syncs == nil {
		s.unavailable(w, "sync")
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("sync_id"))
	if id == "" {
		s.writeError(w, "sync_id missing", http.StatusBadRequest)
		return
	}

	job, err := s.syncs.Progress(id)
	if err != nil {
		s.writeSyncError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, syncProgress{OK: true, SyncJob: job, JobOK: job.Succeeded})
}

func (s *Server) handleSyncLast(w http.ResponseWriter, r *http.Request) {
	if s.syncs == nil {
		s.unavailable(w, "sync")
		return
	}

	kind := kindOrAll(r.URL.Query().Get("what"))
	out := syncLast{OK: true, What: kind}

	if id := s.syncs.Last(kind); id != "" {
		out.SyncID = &id
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sync.ErrJobNotFound):
		s.writeError(w, "sync_id not found", http.StatusNotFound)
	case errors.Is(err, sync.ErrClosed):
		s.writeError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleGetAutoUpdate(w http.ResponseWriter, _ *http.Request) {
	if s.updater == nil {
		s.unavailable(w, "auto-update")
		return
	}

	s.writeJSON(w, http.StatusOK, autoUpdateResponse{OK: true, AutoUpdateStatus: s.updater.Status()})
}

// handleSetAutoUpdate reads enabled from a JSON body, a form or the query.
func (s *Server) handleSetAutoUpdate(w http.ResponseWriter, r *http.Request) {
	if s.updater == nil {
		s.unavailable(w, "auto-update")
		return
	}

	var raw string

	if isJSON(r) {
		var req struct {
			Enabled interface{} `json:"enabled"`
		}

		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		switch v := req.Enabled.(type) {
		case bool:
			raw = strconv.FormatBool(v)
		case float64:
			raw = strconv.FormatFloat(v, 'f', -1, 64)
		case string:
			raw = v
		}
	} else {
		raw = r.FormValue("enabled")
	}

	if err := s.updater.SetEnabled(truthy(raw)); err != nil {
		s.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, autoUpdateResponse{OK: true, AutoUpdateStatus: s.updater.Status()})
}
