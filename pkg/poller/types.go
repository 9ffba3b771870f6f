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

package poller

import (
	"time"

	"github.com/carverauto/panelsync/pkg/models"
)

// PollSkippedSinkRecent marks a status served from a recent push.
const PollSkippedSinkRecent = "sink_recent"

// Health drives the poll backoff.
type Health struct {
	FailStreak int
	LastOK     time.Time
	LastFail   time.Time
}

// SinkMeta describes the most recent push received from the device.
type SinkMeta struct {
	LastPush time.Time
	Source   string
	Seq      int64
}

// Diagnostics annotate a status answer with the cache's view of the device.
type Diagnostics struct {
	TS           int64   `json:"ts"`
	FailStreak   int     `json:"fail_streak"`
	LastOKTS     int64   `json:"last_ok_ts"`
	LastFailTS   int64   `json:"last_fail_ts"`
	NextPollInS  float64 `json:"next_poll_in_s"`
	LastSeenTS   int64   `json:"last_seen_ts,omitempty"`
	AgeS         float64 `json:"age_s,omitempty"`
	PollInFlight bool    `json:"poll_inflight,omitempty"`
	PollSkipped  string  `json:"poll_skipped,omitempty"`

	// Polled is set when this call performed the device request itself.
	Polled bool `json:"-"`
}

// Status is the device state together with the online flag and diagnostics.
type Status struct {
	models.DeviceState
	Online bool `json:"online"`
	Diagnostics
}

type transition int

const (
	transitionUnknown transition = iota
	transitionOK
	transitionFailing
)
