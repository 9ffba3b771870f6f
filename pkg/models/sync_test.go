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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSyncKind(t *testing.T) {
	tests := []struct {
		in      string
		want    SyncKind
		wantErr bool
	}{
		{"", SyncAll, false},
		{"ui", SyncUI, false},
		{"videos", SyncVideos, false},
		{"all", SyncAll, false},
		{"UI", "", true},
		{"photos", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSyncKind(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownSyncKind)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, SyncAll.IncludesUI())
	assert.True(t, SyncAll.IncludesVideos())
	assert.False(t, SyncUI.IncludesVideos())
	assert.False(t, SyncVideos.IncludesUI())
}

func TestSummarize(t *testing.T) {
	s := Summarize([]SyncItem{
		{Name: "index.html", Status: ItemOK},
		{Name: "app.js", Status: ItemSkipped},
		{Name: "style.css", Status: ItemFailed},
		{Name: "intro", Status: ItemOK},
	})

	assert.Equal(t, SyncSummary{OK: 2, Skipped: 1, Failed: 1, Total: 4}, s)
	assert.Equal(t, SyncSummary{}, Summarize(nil))
}

func TestSyncJobCloneIsDeep(t *testing.T) {
	done := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	ok := true

	job := SyncJob{
		ID:         "a1",
		Kind:       SyncUI,
		FinishedAt: &done,
		Succeeded:  &ok,
		Items:      []SyncItem{{Name: "index.html", Status: ItemOK}},
	}

	c := job.Clone()
	c.Items[0].Status = ItemFailed
	*c.FinishedAt = done.Add(time.Hour)
	*c.Succeeded = false

	assert.Equal(t, ItemOK, job.Items[0].Status)
	assert.True(t, job.FinishedAt.Equal(done))
	assert.True(t, *job.Succeeded)

	empty := (&SyncJob{ID: "b2"}).Clone()
	data, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"items":[]`)
}
