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

// Package assets mirrors the panel UI files from a remote origin into a local
// cache and resolves asset requests without waiting on the network whenever a
// cached or bundled copy exists.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/carverauto/panelsync/pkg/atomicfile"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/metrics"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
	"github.com/carverauto/panelsync/pkg/remote"
	"golang.org/x/sync/singleflight"
)

const (
	collection   = "assets"
	maxAssetSize = 32 << 20
	faviconPath  = "favicon.ico"
)

// Source tells where resolved bytes came from.
type Source string

const (
	SourceCache  Source = "cache"
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

var (
	// ErrUnsafePath rejects paths that would escape the cache or static root.
	ErrUnsafePath = errors.New("unsafe asset path")
	// ErrNotFound means no cached, bundled or remote copy is available.
	ErrNotFound = errors.New("asset not found")
	// ErrNoContent is returned for an optional asset that is absent locally.
	// It never triggers a remote request.
	ErrNoContent = errors.New("asset has no content")
	errEmptyBody = errors.New("origin returned an empty body")
)

// UIFiles is the fixed list of files mirrored by UI sync jobs.
var UIFiles = []string{"index.html", "esp.html", "style.css", "images/background.jpg", "favicon.ico"}

// ConfigSource supplies the current remote origin settings.
type ConfigSource interface {
	Get() models.PanelConfig
}

// Result describes the outcome of an explicit fetch.
type Result struct {
	Data        []byte
	Source      Source
	HTTPStatus  int
	NotModified bool
}

// Cache resolves UI assets from the remote cache directory, the bundled
// static directory, or the remote origin.
type Cache struct {
	cacheDir  string
	staticDir string
	config    ConfigSource
	fetcher   *remote.Fetcher
	breaker   *remote.Breaker
	clock     poller.Clock
	logger    logger.Logger
	metrics   metrics.Recorder
	group     singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

func WithMetrics(r metrics.Recorder) Option {
	return func(c *Cache) {
		c.metrics = r
	}
}

func WithHTTPClient(client remote.HTTPClient) Option {
	return func(c *Cache) {
		c.fetcher = remote.NewFetcher(client)
	}
}

// NewCache creates an asset cache.
func NewCache(cacheDir, staticDir string, config ConfigSource, clock poller.Clock, log logger.Logger, opts ...Option) *Cache {
	if clock == nil {
		clock = poller.NewClock()
	}

	c := &Cache{
		cacheDir:  cacheDir,
		staticDir: staticDir,
		config:    config,
		fetcher:   remote.NewFetcher(nil),
		clock:     clock,
		logger:    log,
		metrics:   metrics.NoOpRecorder{},
	}

	for _, opt := range opts {
		opt(c)
	}

	cooldown := config.Get().RemoteAssets.FailCooldown()
	c.breaker = remote.NewBreaker(collection, remote.CooldownConfig(cooldown), clock, log)

	return c
}

// SafeRelPath normalizes a request path into a slash-separated relative path.
// Paths with parent segments or no segments at all are rejected.
func SafeRelPath(rel string) (string, error) {
	p := strings.ReplaceAll(strings.TrimSpace(rel), "\\", "/")

	parts := make([]string, 0, strings.Count(p, "/")+1)

	for _, part := range strings.Split(p, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", fmt.Errorf("%w: %q", ErrUnsafePath, rel)
		}

		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, rel)
	}

	return strings.Join(parts, "/"), nil
}

// Breaker exposes the origin failure cooldown.
func (c *Cache) Breaker() *remote.Breaker {
	return c.breaker
}

// Resolve returns the bytes for rel. A cached copy wins unless the bundled
// copy is newer; the origin is only contacted when neither exists, and never
// during a failure cooldown.
func (c *Cache) Resolve(ctx context.Context, rel string) ([]byte, Source, error) {
	rel, err := SafeRelPath(rel)
	if err != nil {
		return nil, "", err
	}

	localPath := filepath.Join(c.staticDir, filepath.FromSlash(rel))
	localInfo, localErr := os.Stat(localPath)
	hasLocal := localErr == nil && !localInfo.IsDir()

	if data, meta, ok := c.readCache(rel); ok {
		if !hasLocal || !meta.FetchedAt.Before(localInfo.ModTime()) {
			return data, SourceCache, nil
		}
	}

	if hasLocal {
		data, err := os.ReadFile(localPath)
		if err == nil {
			return data, SourceLocal, nil
		}

		c.logger.Warn().Err(err).Str("path", rel).Msg("Failed to read bundled asset")
	}

	if rel == faviconPath {
		return nil, "", ErrNoContent
	}

	res, err := c.Fetch(ctx, rel, false, true)
	if err == nil && res.Data != nil {
		return res.Data, res.Source, nil
	}

	return nil, "", fmt.Errorf("%w: %s", ErrNotFound, rel)
}

// Fetch revalidates rel against the origin. With respectTTL a cached copy
// younger than the TTL is returned without a request. Unless force is set,
// the stored validators are sent and the failure cooldown is honored. When
// the origin fails, a cached copy is still returned.
func (c *Cache) Fetch(ctx context.Context, rel string, force, respectTTL bool) (Result, error) {
	rel, err := SafeRelPath(rel)
	if err != nil {
		return Result{}, err
	}

	key := fmt.Sprintf("%s|%t|%t", rel, force, respectTTL)

	return remote.Shared(ctx, &c.group, key, c.config.Get().RemoteAssets.Timeout(),
		func(ctx context.Context) (Result, error) {
			return c.fetch(ctx, rel, force, respectTTL)
		})
}

func (c *Cache) fetch(ctx context.Context, rel string, force, respectTTL bool) (Result, error) {
	src := c.config.Get().RemoteAssets
	if !src.Enabled() {
		return Result{}, remote.ErrDisabled
	}

	c.breaker.SetCooldown(src.FailCooldown())

	now := c.clock.Now()
	cached, meta, hasCache := c.readCache(rel)

	if respectTTL && hasCache && meta.FreshAt(now, src.TTL()) {
		c.metrics.RecordRemoteFetch(collection, "fresh")
		return Result{Data: cached, Source: SourceCache}, nil
	}

	if !force && !c.breaker.Allow() {
		c.metrics.RecordRemoteFetch(collection, "cooldown")

		if hasCache {
			return Result{Data: cached, Source: SourceCache}, nil
		}

		return Result{}, remote.ErrCooldown
	}

	url := src.URL(rel)
	validators := remote.Validators{ETag: meta.ETag, LastModified: meta.LastModified}

	resp, err := c.fetcher.Get(ctx, url, validators, force, src.Timeout())
	if err != nil {
		return c.fallback(rel, url, err, cached, hasCache)
	}
	defer func() { _ = resp.Close() }()

	if resp.NotModified {
		c.breaker.RecordSuccess()
		c.metrics.RecordRemoteFetch(collection, "not_modified")

		if !hasCache {
			return Result{HTTPStatus: resp.StatusCode}, fmt.Errorf("%w: %s not modified but not cached", ErrNotFound, rel)
		}

		meta.FetchedAt = c.clock.Now()
		meta.Status = resp.StatusCode
		meta.ETag = resp.ETag
		meta.LastModified = resp.LastModified
		c.writeMeta(rel, &meta)

		return Result{Data: cached, Source: SourceCache, HTTPStatus: resp.StatusCode, NotModified: true}, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return c.fallback(rel, url, &remote.FetchError{URL: url, Err: err}, cached, hasCache)
	}

	c.breaker.RecordSuccess()

	if len(data) == 0 {
		c.metrics.RecordRemoteFetch(collection, "empty")

		if hasCache {
			return Result{Data: cached, Source: SourceCache, HTTPStatus: resp.StatusCode}, nil
		}

		return Result{HTTPStatus: resp.StatusCode}, errEmptyBody
	}

	cachePath := c.cachePath(rel)
	if err := atomicfile.WriteFile(cachePath, data); err != nil {
		c.logger.Error().Err(err).Str("path", rel).Msg("Failed to store fetched asset")
		return Result{Data: data, Source: SourceRemote, HTTPStatus: resp.StatusCode}, nil
	}

	c.writeMeta(rel, &models.CacheMeta{
		URL:          url,
		ETag:         resp.ETag,
		LastModified: resp.LastModified,
		FetchedAt:    c.clock.Now(),
		Status:       resp.StatusCode,
		Bytes:        int64(len(data)),
	})

	c.metrics.RecordRemoteFetch(collection, "fetched")

	return Result{Data: data, Source: SourceRemote, HTTPStatus: resp.StatusCode}, nil
}

func (c *Cache) fallback(rel, url string, err error, cached []byte, hasCache bool) (Result, error) {
	c.breaker.RecordFailure(err)
	c.metrics.RecordRemoteFetch(collection, "failed")

	c.logger.Warn().Err(err).Str("url", url).Bool("cached", hasCache).Msg("Remote asset fetch failed")

	status := 0

	var fetchErr *remote.FetchError
	if errors.As(err, &fetchErr) {
		status = fetchErr.StatusCode
	}

	if hasCache {
		return Result{Data: cached, Source: SourceCache, HTTPStatus: status}, nil
	}

	return Result{HTTPStatus: status}, fmt.Errorf("fetch %s: %w", rel, err)
}

func (c *Cache) cachePath(rel string) string {
	return filepath.Join(c.cacheDir, filepath.FromSlash(rel))
}

// readCache returns the cached bytes and sidecar for rel. A missing or
// undecodable sidecar yields a zero CacheMeta.
func (c *Cache) readCache(rel string) ([]byte, models.CacheMeta, bool) {
	var meta models.CacheMeta

	path := c.cachePath(rel)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, meta, false
	}

	if err := atomicfile.ReadJSON(path+models.MetaSuffix, &meta); err != nil {
		meta = models.CacheMeta{}
	}

	return data, meta, true
}

func (c *Cache) writeMeta(rel string, meta *models.CacheMeta) {
	if err := atomicfile.WriteJSON(c.cachePath(rel)+models.MetaSuffix, meta); err != nil {
		c.logger.Warn().Err(err).Str("path", rel).Msg("Failed to write cache metadata")
	}
}
