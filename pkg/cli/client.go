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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/panelsync/pkg/api"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
)

const (
	defaultServerURL = "http://127.0.0.1:8080"
	defaultTimeout   = 10 * time.Second
	maxResponseBody  = 4 << 20
)

// Client talks to the panel HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultServerURL
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SyncStarted is the reply to a sync request.
type SyncStarted struct {
	SyncID string          `json:"sync_id"`
	What   models.SyncKind `json:"what"`
	Job    *models.SyncJob `json:"job"`
}

// JobView is a sync job as reported by the progress endpoint.
type JobView struct {
	models.SyncJob
	JobOK *bool `json:"job_ok"`
}

// Status returns the cached device status.
func (c *Client) Status(ctx context.Context) (poller.Status, error) {
	var out struct {
		State poller.Status `json:"state"`
	}

	err := c.getJSON(ctx, "/api/status", nil, &out)

	return out.State, err
}

// Health returns the server health report.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var out api.HealthResponse

	err := c.getJSON(ctx, "/healthz", nil, &out)

	return out, err
}

// StartSync starts a job of kind. With wait the server answers once the job
// is finished and Job is set.
func (c *Client) StartSync(ctx context.Context, kind models.SyncKind, force, respectTTL, wait bool) (SyncStarted, error) {
	body := map[string]interface{}{
		"what":        string(kind),
		"force":       force,
		"respect_ttl": respectTTL,
		"wait":        wait,
	}

	var out SyncStarted

	err := c.doJSON(ctx, http.MethodPost, "/api/sync-remote", nil, body, &out)

	return out, err
}

// Progress returns the current snapshot of a job.
func (c *Client) Progress(ctx context.Context, id string) (models.SyncJob, error) {
	var out JobView

	if err := c.getJSON(ctx, "/api/sync-progress", url.Values{"sync_id": {id}}, &out); err != nil {
		return models.SyncJob{}, err
	}

	job := out.SyncJob
	job.Succeeded = out.JobOK

	return job, nil
}

// Last returns the id of the latest job of kind, or "" when none ran.
func (c *Client) Last(ctx context.Context, kind models.SyncKind) (string, error) {
	var out struct {
		SyncID *string `json:"sync_id"`
	}

	if err := c.getJSON(ctx, "/api/sync-last", url.Values{"what": {string(kind)}}, &out); err != nil {
		return "", err
	}

	if out.SyncID == nil {
		return "", nil
	}

	return *out.SyncID, nil
}

// Logs returns up to n recent log lines. n <= 0 uses the server default.
func (c *Client) Logs(ctx context.Context, n int) ([]string, error) {
	var q url.Values
	if n > 0 {
		q = url.Values{"n": {strconv.Itoa(n)}}
	}

	var out struct {
		Lines []string `json:"lines"`
	}

	err := c.getJSON(ctx, "/api/logs", q, &out)

	return out.Lines, err
}

// AutoUpdate returns the auto-update state.
func (c *Client) AutoUpdate(ctx context.Context) (models.AutoUpdateStatus, error) {
	var out models.AutoUpdateStatus

	err := c.getJSON(ctx, "/api/auto-update", nil, &out)

	return out, err
}

// SetAutoUpdate toggles auto-update and returns the resulting state.
func (c *Client) SetAutoUpdate(ctx context.Context, enabled bool) (models.AutoUpdateStatus, error) {
	var out models.AutoUpdateStatus

	err := c.doJSON(ctx, http.MethodPost, "/api/auto-update", nil, map[string]bool{"enabled": enabled}, &out)

	return out, err
}

// Raw performs a request and returns the undecoded response body.
func (c *Client) Raw(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	var payload io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}

		payload = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, err
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return data, serverError(resp.StatusCode, data)
	}

	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dst interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, query, nil, dst)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, dst interface{}) error {
	data, err := c.Raw(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}

func serverError(code int, body []byte) error {
	var e struct {
		Error string `json:"error"`
	}

	msg := http.StatusText(code)
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}

	return fmt.Errorf("%w: %d %s", errServer, code, msg)
}
