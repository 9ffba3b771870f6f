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

// Package download mirrors large media files from a remote origin. Bodies are
// streamed to a temporary file while being hashed and only renamed over the
// destination once fully received.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/panelsync/pkg/atomicfile"
	"github.com/carverauto/panelsync/pkg/hashutil"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/metrics"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
	"github.com/carverauto/panelsync/pkg/remote"
	"golang.org/x/sync/singleflight"
)

const collection = "videos"

// ErrUnknownVideo is returned for a key outside the known video list.
var ErrUnknownVideo = errors.New("unknown video")

// Video maps a button key to the file name stored locally and on the origin.
type Video struct {
	Key  string
	File string
}

// Videos is the fixed list of mirrored videos.
var Videos = []Video{
	{Key: "welcome", File: "bemvindo.mp4"},
	{Key: "video1", File: "video1.mp4"},
	{Key: "saudacao", File: "saudacao.mp4"},
}

// Lookup returns the video registered under key.
func Lookup(key string) (Video, error) {
	for _, v := range Videos {
		if v.Key == key {
			return v, nil
		}
	}

	return Video{}, fmt.Errorf("%w: %q", ErrUnknownVideo, key)
}

// ConfigSource supplies the current remote origin settings.
type ConfigSource interface {
	Get() models.PanelConfig
}

// Result is the outcome of a single streamed download.
type Result struct {
	HTTPStatus   int
	NotModified  bool
	ETag         string
	LastModified string
	Bytes        int64
	SHA256       string
}

// Outcome is the outcome of synchronizing one video.
type Outcome struct {
	Key         string
	Path        string
	Skipped     bool
	NotModified bool
	HTTPStatus  int
	Bytes       int64
	SHA256      string
	Err         error
}

// Status maps an outcome onto a sync item status.
func (o *Outcome) Status() models.ItemStatus {
	switch {
	case o.Err != nil:
		return models.ItemFailed
	case o.Skipped, o.NotModified:
		return models.ItemSkipped
	default:
		return models.ItemOK
	}
}

// Downloader keeps the local video directory in step with the origin.
type Downloader struct {
	root    string
	config  ConfigSource
	fetcher *remote.Fetcher
	breaker *remote.Breaker
	clock   poller.Clock
	logger  logger.Logger
	metrics metrics.Recorder
	group   singleflight.Group
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithMetrics records fetch outcomes.
func WithMetrics(r metrics.Recorder) Option {
	return func(d *Downloader) {
		d.metrics = r
	}
}

// WithHTTPClient overrides the HTTP client used for downloads.
func WithHTTPClient(client remote.HTTPClient) Option {
	return func(d *Downloader) {
		d.fetcher = remote.NewFetcher(client)
	}
}

// New creates a Downloader. Relative video directories are resolved against root.
func New(root string, config ConfigSource, clock poller.Clock, log logger.Logger, opts ...Option) *Downloader {
	if clock == nil {
		clock = poller.NewClock()
	}

	d := &Downloader{
		root:    root,
		config:  config,
		fetcher: remote.NewFetcher(nil),
		clock:   clock,
		logger:  log,
		metrics: metrics.NoOpRecorder{},
	}

	for _, opt := range opts {
		opt(d)
	}

	cooldown := config.Get().RemoteVideos.FailCooldown()
	d.breaker = remote.NewBreaker(collection, remote.CooldownConfig(cooldown), clock, log)

	return d
}

// Dir returns the absolute local video directory.
func (d *Downloader) Dir() string {
	dir := strings.TrimSpace(d.config.Get().VideoDir)
	if filepath.IsAbs(dir) {
		return dir
	}

	return filepath.Join(d.root, dir)
}

// Path returns the local path of the video registered under key.
func (d *Downloader) Path(key string) (string, error) {
	v, err := Lookup(key)
	if err != nil {
		return "", err
	}

	return filepath.Join(d.Dir(), v.File), nil
}

// Enabled reports whether a video origin is configured.
func (d *Downloader) Enabled() bool {
	return d.config.Get().RemoteVideos.Enabled()
}

// Sync mirrors one video. A local copy checked within the TTL is skipped
// when respectTTL is set and force is not. Failures are reported in the
// outcome and never remove the existing local copy.
func (d *Downloader) Sync(ctx context.Context, key string, force, respectTTL bool) Outcome {
	v, err := Lookup(key)
	if err != nil {
		return Outcome{Key: key, Err: err}
	}

	dest := filepath.Join(d.Dir(), v.File)
	flight := fmt.Sprintf("%s|%t|%t", dest, force, respectTTL)

	out, err := remote.Shared(ctx, &d.group, flight, d.config.Get().RemoteVideos.Timeout(),
		func(ctx context.Context) (Outcome, error) {
			return d.sync(ctx, v, dest, force, respectTTL), nil
		})
	if err != nil {
		return Outcome{Key: key, Path: dest, Err: err}
	}

	return out
}

func (d *Downloader) sync(ctx context.Context, v Video, dest string, force, respectTTL bool) Outcome {
	out := Outcome{Key: v.Key, Path: dest}

	src := d.config.Get().RemoteVideos
	if !src.Enabled() {
		out.Err = remote.ErrDisabled
		return out
	}

	d.breaker.SetCooldown(src.FailCooldown())

	now := d.clock.Now()
	metaPath := dest + models.MetaSuffix

	var meta models.CacheMeta
	if err := atomicfile.ReadJSON(metaPath, &meta); err != nil {
		meta = models.CacheMeta{}
	}

	_, statErr := os.Stat(dest)
	haveLocal := statErr == nil

	if respectTTL && !force && haveLocal && meta.FreshAt(now, src.TTL()) {
		d.metrics.RecordRemoteFetch(collection, "fresh")

		out.Skipped = true
		out.SHA256 = meta.SHA256

		return out
	}

	if !force && !d.breaker.Allow() {
		d.metrics.RecordRemoteFetch(collection, "cooldown")

		if haveLocal {
			out.Skipped = true
			out.SHA256 = meta.SHA256

			return out
		}

		out.Err = remote.ErrCooldown

		return out
	}

	url := src.URL(v.File)
	if force {
		url = withCacheBuster(url, now.UnixMilli())
	}

	validators := remote.Validators{ETag: meta.ETag, LastModified: meta.LastModified}

	// a conditional request is meaningless without the file it validates
	if !haveLocal {
		validators = remote.Validators{}
	}

	res, err := d.Download(ctx, url, dest, validators, force, src.Timeout())
	if err != nil {
		d.breaker.RecordFailure(err)
		d.metrics.RecordRemoteFetch(collection, "failed")

		var fetchErr *remote.FetchError
		if errors.As(err, &fetchErr) {
			out.HTTPStatus = fetchErr.StatusCode
		}

		out.Err = err

		return out
	}

	d.breaker.RecordSuccess()

	meta.URL = url
	meta.ETag = res.ETag
	meta.LastModified = res.LastModified
	meta.FetchedAt = now
	meta.Status = res.HTTPStatus

	if !res.NotModified {
		meta.Bytes = res.Bytes
		meta.SHA256 = res.SHA256
	}

	if err := atomicfile.WriteJSON(metaPath, &meta); err != nil {
		d.logger.Warn().Err(err).Str("path", metaPath).Msg("Failed to write video metadata")
	}

	out.HTTPStatus = res.HTTPStatus
	out.NotModified = res.NotModified
	out.SHA256 = meta.SHA256

	if res.NotModified {
		d.metrics.RecordRemoteFetch(collection, "not_modified")
	} else {
		d.metrics.RecordRemoteFetch(collection, "fetched")
		out.Bytes = res.Bytes
	}

	return out
}

// SyncAll mirrors every known video in order.
func (d *Downloader) SyncAll(ctx context.Context, force, respectTTL bool) ([]Outcome, error) {
	if !d.Enabled() {
		return nil, remote.ErrDisabled
	}

	outcomes := make([]Outcome, 0, len(Videos))

	for _, v := range Videos {
		outcomes = append(outcomes, d.Sync(ctx, v.Key, force, respectTTL))
	}

	return outcomes, nil
}

// Download streams url into dest. Unless force is set the validators are
// sent; a 304 leaves dest untouched. dest is replaced only after the whole
// body has been received and hashed.
func (d *Downloader) Download(
	ctx context.Context, url, dest string, v remote.Validators, force bool, timeout time.Duration) (Result, error) {
	resp, err := d.fetcher.Get(ctx, url, v, force, timeout)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = resp.Close() }()

	if resp.NotModified {
		return Result{
			HTTPStatus:   resp.StatusCode,
			NotModified:  true,
			ETag:         resp.ETag,
			LastModified: resp.LastModified,
		}, nil
	}

	hash := sha256.New()

	var body io.Reader = io.TeeReader(resp.Body, hash)

	if resp.Digest != "" {
		verified, err := hashutil.NewVerifier(body, resp.Digest)
		if err != nil {
			d.logger.Warn().Err(err).Str("url", url).Msg("Ignoring unreadable origin digest")
		} else {
			body = verified
		}
	}

	n, err := atomicfile.WriteFrom(dest, body)
	if err != nil {
		return Result{}, &remote.FetchError{URL: url, Err: err}
	}

	d.logger.Debug().
		Str("url", url).
		Str("path", dest).
		Int64("bytes", n).
		Msg("Download complete")

	return Result{
		HTTPStatus:   resp.StatusCode,
		ETag:         resp.ETag,
		LastModified: resp.LastModified,
		Bytes:        n,
		SHA256:       hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

func withCacheBuster(url string, ms int64) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}

	return url + sep + "cb=" + strconv.FormatInt(ms, 10)
}
