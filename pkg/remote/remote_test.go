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

package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var errTestError = errors.New("test error")

func TestBreakerCooldown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := poller.NewMockClock(ctrl)
	clock.EXPECT().Now().DoAndReturn(func() time.Time { return now }).AnyTimes()

	b := NewBreaker("assets", CooldownConfig(90*time.Second), clock, logger.NewTestLogger())
	assert.True(t, b.Allow())
	assert.Equal(t, StateClosed, b.State())

	b.RecordFailure(errTestError)
	assert.Equal(t, StateOpen, b.State())

	now = now.Add(10 * time.Second)
	assert.False(t, b.Allow())
	assert.Equal(t, 80*time.Second, b.CooldownRemaining())

	now = now.Add(80 * time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	b.RecordFailure(errTestError)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())

	now = now.Add(90 * time.Second)
	require.True(t, b.Allow())
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, time.Duration(0), b.CooldownRemaining())

	metrics := b.GetMetrics()
	assert.Equal(t, "closed", metrics["state"])
	assert.Equal(t, 2, metrics["total_fails"])
}

func TestBreakerSetCooldown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := poller.NewMockClock(ctrl)
	clock.EXPECT().Now().DoAndReturn(func() time.Time { return now }).AnyTimes()

	b := NewBreaker("videos", CooldownConfig(90*time.Second), clock, logger.NewTestLogger())
	b.RecordFailure(errTestError)

	b.SetCooldown(5 * time.Second)

	now = now.Add(5 * time.Second)
	assert.True(t, b.Allow())
}

func TestFetcherConditionalRequests(t *testing.T) {
	const etag = `"v1"`

	var gotHeaders []http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = append(gotHeaders, r.Header.Clone())

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", etag)
		w.Header().Set("Last-Modified", "Mon, 02 Jun 2025 10:00:00 GMT")
		w.Header().Set("X-Checksum-Sha256", "230d8358dc8e8890b4c58deeb62912ee2f20357ae92a5cc861b98e68fe31acb5")
		_, _ = w.Write([]byte("body"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())

	resp, err := f.Get(context.Background(), srv.URL+"/style.css", Validators{}, false, time.Second)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Close())

	assert.Equal(t, "body", string(body))
	assert.Equal(t, etag, resp.ETag)
	assert.Equal(t, "230d8358dc8e8890b4c58deeb62912ee2f20357ae92a5cc861b98e68fe31acb5", resp.Digest)
	assert.Equal(t, UserAgent, gotHeaders[0].Get("User-Agent"))

	v := Validators{ETag: resp.ETag, LastModified: resp.LastModified}

	resp, err = f.Get(context.Background(), srv.URL+"/style.css", v, false, time.Second)
	require.NoError(t, err)
	assert.True(t, resp.NotModified)
	assert.Nil(t, resp.Body)
	assert.Equal(t, etag, resp.ETag)
	assert.Equal(t, "Mon, 02 Jun 2025 10:00:00 GMT", gotHeaders[1].Get("If-Modified-Since"))

	resp, err = f.Get(context.Background(), srv.URL+"/style.css", v, true, time.Second)
	require.NoError(t, err)
	assert.False(t, resp.NotModified)
	assert.Empty(t, gotHeaders[2].Get("If-None-Match"))
	require.NoError(t, resp.Close())
}

func TestFetcherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))

	f := NewFetcher(nil)

	_, err := f.Get(context.Background(), srv.URL+"/missing", Validators{}, false, time.Second)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)

	srv.Close()

	_, err = f.Get(context.Background(), srv.URL+"/missing", Validators{}, false, time.Second)
	require.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, fetchErr.StatusCode)
	assert.Error(t, errors.Unwrap(fetchErr))
}
