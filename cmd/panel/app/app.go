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

// Package app assembles the panel server from its components.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/carverauto/panelsync/pkg/actions"
	"github.com/carverauto/panelsync/pkg/api"
	"github.com/carverauto/panelsync/pkg/assets"
	"github.com/carverauto/panelsync/pkg/autoupdate"
	"github.com/carverauto/panelsync/pkg/config"
	"github.com/carverauto/panelsync/pkg/configstore"
	"github.com/carverauto/panelsync/pkg/device"
	"github.com/carverauto/panelsync/pkg/download"
	"github.com/carverauto/panelsync/pkg/lifecycle"
	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/metrics"
	"github.com/carverauto/panelsync/pkg/poller"
	"github.com/carverauto/panelsync/pkg/sink"
	jobs "github.com/carverauto/panelsync/pkg/sync"
	"github.com/carverauto/panelsync/pkg/version"
)

const serviceName = "panel"

// Options contains runtime configuration derived from CLI flags.
type Options struct {
	ConfigPath string
	EnvFiles   []string
	// Port overrides the port of the configured listen address.
	Port string
}

// Run boots the panel server and blocks until it shuts down.
func Run(ctx context.Context, opts Options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := config.LoadDotEnv(opts.EnvFiles...); err != nil {
		return err
	}

	cfg := config.DefaultServiceConfig()
	if err := config.NewConfig(nil).LoadAndValidate(ctx, opts.ConfigPath, cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.ApplyPort(opts.Port); err != nil {
		return err
	}

	if cfg.Logging.File == "" {
		cfg.Logging.File = cfg.LogFile()
	}

	ring := logger.NewRing(cfg.Logging.RingSize)

	root, err := lifecycle.NewLoggerImpl(cfg.Logging, ring.ConsoleWriter())
	if err != nil {
		return err
	}

	mainLogger := root.Component("panel-main")
	mainLogger.Info().
		Str("version", version.Get().String()).
		Str("root", cfg.Root).
		Str("data_dir", cfg.DataDir).
		Msg("Starting panel")

	c := build(cfg, root, ring)

	return lifecycle.RunServer(ctx, &lifecycle.ServerOptions{
		ServiceName: serviceName,
		Services:    []lifecycle.Service{c.store, c.updater, &jobsService{manager: c.jobs}},
		HTTPServer:  c.api.HTTPServer(cfg.ListenAddr),
		Logger:      mainLogger,
	})
}

type components struct {
	store   *configstore.Store
	updater *autoupdate.Scheduler
	jobs    *jobs.Manager
	api     *api.Server
}

func build(cfg *config.ServiceConfig, root logger.Logger, ring *logger.Ring) *components {
	clock := poller.NewClock()

	var (
		recorder       metrics.Recorder = metrics.NoOpRecorder{}
		metricsHandler http.Handler
	)

	if cfg.API.MetricsEnabled {
		prom := metrics.NewPrometheusRecorder()
		recorder, metricsHandler = prom, prom.Handler()
	}

	store := configstore.Open(cfg.ConfigPath(), &cfg.ConfigStore, clock, root.Component("config-store"),
		configstore.WithMetrics(recorder))

	client := device.NewClient(func() string { return store.Get().ESPIP },
		device.WithTimeout(time.Duration(cfg.Device.Timeout)))

	status := poller.New(&cfg.Status, client, store, clock, root.Component("status"), poller.WithMetrics(recorder))
	telemetry := sink.New(status, store, clock, root.Component("state-sink"), sink.WithMetrics(recorder))

	cache := assets.NewCache(cfg.CacheDir(), cfg.StaticDir, store, clock, root.Component("assets"),
		assets.WithMetrics(recorder))
	videos := download.New(cfg.Root, store, clock, root.Component("videos"), download.WithMetrics(recorder))

	manager := jobs.NewManager(cache, videos, store, clock, root.Component("sync"),
		jobs.WithMetrics(recorder), jobs.WithMaxFinished(cfg.MaxSyncJobs))
	updater := autoupdate.New(cache, store, clock, root.Component("auto-update"),
		autoupdate.WithTick(time.Duration(cfg.AutoUpdateTick)))

	actionsLogger := root.Component("actions")
	exec := actions.NewShellExecutor(time.Duration(cfg.Actions.CommandTimeout), actions.TermuxBinaries(), actionsLogger)
	runner := actions.NewRunner(exec, client, videos, store, actionsLogger)
	volume := actions.NewMasterVolume(exec, clock, actionsLogger)

	apiOptions := []func(server *api.Server){
		api.WithClock(clock),
		api.WithStatus(status),
		api.WithSink(telemetry),
		api.WithDevice(client),
		api.WithActions(runner),
		api.WithVolume(volume),
		api.WithSync(manager),
		api.WithAutoUpdate(updater),
		api.WithAssets(cache),
		api.WithConfigStore(store),
		api.WithLogs(ring),
	}
	if metricsHandler != nil {
		apiOptions = append(apiOptions, api.WithMetricsHandler(metricsHandler))
	}

	server := api.NewServer(&api.Config{
		SlowRequest:    time.Duration(cfg.API.SlowRequest),
		LogTail:        cfg.API.LogTail,
		AllowedOrigins: cfg.API.AllowedOrigins,
		StreamInterval: time.Duration(cfg.API.StreamInterval),
	}, root.Component("api"), apiOptions...)

	return &components{store: store, updater: updater, jobs: manager, api: server}
}

// jobsService lets RunServer drain running sync jobs on shutdown.
type jobsService struct {
	manager *jobs.Manager
}

func (*jobsService) Start(context.Context) error { return nil }

func (j *jobsService) Stop(ctx context.Context) error {
	return j.manager.Close(ctx)
}
