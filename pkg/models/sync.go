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
	"errors"
	"fmt"
	"slices"
	"time"
)

var ErrUnknownSyncKind = errors.New("unknown sync kind")

// SyncKind selects which remote collections a sync job mirrors.
type SyncKind string

const (
	SyncUI     SyncKind = "ui"
	SyncVideos SyncKind = "videos"
	SyncAll    SyncKind = "all"
)

// ParseSyncKind validates a kind name. An empty name means SyncAll.
func ParseSyncKind(s string) (SyncKind, error) {
	switch SyncKind(s) {
	case "":
		return SyncAll, nil
	case SyncUI, SyncVideos, SyncAll:
		return SyncKind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSyncKind, s)
	}
}

// IncludesUI reports whether UI assets are part of the job.
func (k SyncKind) IncludesUI() bool { return k == SyncUI || k == SyncAll }

// IncludesVideos reports whether videos are part of the job.
func (k SyncKind) IncludesVideos() bool { return k == SyncVideos || k == SyncAll }

// ItemStatus is the outcome of a single synchronized item.
type ItemStatus string

const (
	ItemOK      ItemStatus = "ok"
	ItemSkipped ItemStatus = "skipped"
	ItemFailed  ItemStatus = "failed"
)

// SyncItem records what happened to one asset or video.
type SyncItem struct {
	Kind       string     `json:"kind"`
	Name       string     `json:"name"`
	Status     ItemStatus `json:"status"`
	Source     string     `json:"source,omitempty"`
	Path       string     `json:"path,omitempty"`
	Bytes      int64      `json:"bytes"`
	HTTPStatus int        `json:"http,omitempty"`
	SHA256     string     `json:"sha256,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// SyncSummary aggregates item outcomes.
type SyncSummary struct {
	OK      int `json:"ok"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

// Summarize counts the outcomes of items.
func Summarize(items []SyncItem) SyncSummary {
	s := SyncSummary{Total: len(items)}

	for i := range items {
		switch items[i].Status {
		case ItemOK:
			s.OK++
		case ItemSkipped:
			s.Skipped++
		case ItemFailed:
			s.Failed++
		}
	}

	return s
}

// SyncJob is a snapshot of an asynchronous synchronization run.
type SyncJob struct {
	ID         string      `json:"sync_id"`
	Kind       SyncKind    `json:"what"`
	Force      bool        `json:"force"`
	RespectTTL bool        `json:"respect_ttl"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at"`
	Done       bool        `json:"done"`
	Succeeded  *bool       `json:"ok"`
	Progress   int         `json:"progress"`
	Items      []SyncItem  `json:"items"`
	Summary    SyncSummary `json:"summary"`
	Error      string      `json:"error,omitempty"`
}

// Clone returns a deep copy safe to hand to readers.
func (j *SyncJob) Clone() SyncJob {
	out := *j
	out.Items = slices.Clone(j.Items)

	if out.Items == nil {
		out.Items = []SyncItem{}
	}

	if j.FinishedAt != nil {
		t := *j.FinishedAt
		out.FinishedAt = &t
	}

	if j.Succeeded != nil {
		ok := *j.Succeeded
		out.Succeeded = &ok
	}

	return out
}

// AutoUpdateStatus reports the state of the periodic UI refresh loop.
type AutoUpdateStatus struct {
	Enabled      bool         `json:"enabled"`
	Running      bool         `json:"running"`
	TTLS         float64      `json:"ttl_s"`
	LastCheck    *time.Time   `json:"last_check_ts"`
	NextCheckInS float64      `json:"next_check_in_s"`
	BaseURL      string       `json:"base_url"`
	Summary      *SyncSummary `json:"summary"`
	Error        string       `json:"error,omitempty"`
}
