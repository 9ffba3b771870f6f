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

// Package remote implements conditional HTTP retrieval from a remote origin
// and the failure cooldown shared by the asset cache and the downloader.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/carverauto/panelsync/pkg/hashutil"
)

// UserAgent is sent with every origin request.
const UserAgent = "InsightPanel/1.0"

var (
	// ErrCooldown is returned when the origin failed recently and the request
	// was suppressed without touching the network.
	ErrCooldown = errors.New("remote origin in failure cooldown")
	// ErrDisabled is returned when no base URL is configured.
	ErrDisabled = errors.New("remote origin not configured")
)

// HTTPClient is the subset of *http.Client used for origin requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Validators are the stored cache validators for a conditional request.
type Validators struct {
	ETag         string
	LastModified string
}

// FetchError describes a failed origin request. StatusCode is zero for
// transport failures.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
	}

	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Response is an origin response that is either 2xx with a body or a 304.
// Close must be called to release the connection and the request deadline.
type Response struct {
	StatusCode   int
	NotModified  bool
	ETag         string
	LastModified string
	Body         io.ReadCloser

	// Digest is the SHA-256 the origin advertised for Body, if any.
	Digest string
}

func (r *Response) Close() error {
	if r.Body == nil {
		return nil
	}

	return r.Body.Close()
}

// Fetcher issues conditional GET requests.
type Fetcher struct {
	client HTTPClient
}

// NewFetcher returns a Fetcher using client, or http.DefaultClient when nil.
func NewFetcher(client HTTPClient) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}

	return &Fetcher{client: client}
}

// Get requests url. Unless force is set, the validators are sent as
// If-None-Match/If-Modified-Since. The timeout covers the whole exchange,
// including reading the body.
func (f *Fetcher) Get(ctx context.Context, url string, v Validators, force bool, timeout time.Duration) (*Response, error) {
	var (
		reqCtx context.Context
		cancel context.CancelFunc
	)

	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		reqCtx, cancel = context.WithCancel(ctx)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		cancel()
		return nil, &FetchError{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", UserAgent)

	if !force {
		if v.ETag != "" {
			req.Header.Set("If-None-Match", v.ETag)
		}

		if v.LastModified != "" {
			req.Header.Set("If-Modified-Since", v.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		cancel()
		return nil, &FetchError{URL: url, Err: err}
	}

	if resp.StatusCode == http.StatusNotModified {
		_ = resp.Body.Close()
		cancel()

		return &Response{
			StatusCode:   resp.StatusCode,
			NotModified:  true,
			ETag:         firstNonEmpty(resp.Header.Get("ETag"), v.ETag),
			LastModified: firstNonEmpty(resp.Header.Get("Last-Modified"), v.LastModified),
		}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		cancel()

		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	return &Response{
		StatusCode:   resp.StatusCode,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		Digest:       hashutil.FromHeader(resp.Header),
		Body:         &cancelOnClose{ReadCloser: resp.Body, cancel: cancel},
	}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()

	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
