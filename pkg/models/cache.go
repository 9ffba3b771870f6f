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
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// MetaSuffix is appended to a cached file's path to form its sidecar path.
const MetaSuffix = ".meta.json"

// CacheMeta is the sidecar document stored next to every mirrored file.
type CacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	FetchedAt    time.Time `json:"fetched_at"`
	Status       int       `json:"status"`
	Bytes        int64     `json:"bytes,omitempty"`
	SHA256       string    `json:"sha256,omitempty"`
}

// FreshAt reports whether the entry was fetched less than ttl before now.
func (m *CacheMeta) FreshAt(now time.Time, ttl time.Duration) bool {
	if m == nil || m.FetchedAt.IsZero() {
		return false
	}

	return now.Sub(m.FetchedAt) < ttl
}

// UnmarshalJSON accepts fetched_at as an RFC 3339 string or as a float of
// Unix seconds, the form older sidecars were written in. An unreadable
// timestamp leaves the entry stale but keeps its validators.
func (m *CacheMeta) UnmarshalJSON(b []byte) error {
	type plain CacheMeta

	aux := struct {
		*plain
		FetchedAt json.RawMessage `json:"fetched_at"`
	}{plain: (*plain)(m)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	m.FetchedAt = parseTimestamp(aux.FetchedAt)

	return nil
}

func parseTimestamp(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}

	var secs float64
	if err := json.Unmarshal(raw, &secs); err == nil {
		if secs <= 0 || math.IsInf(secs, 0) {
			return time.Time{}
		}

		whole, frac := math.Modf(secs)

		return time.Unix(int64(whole), int64(frac*float64(time.Second)))
	}

	var t time.Time
	if err := json.Unmarshal(raw, &t); err == nil {
		return t
	}

	return time.Time{}
}
