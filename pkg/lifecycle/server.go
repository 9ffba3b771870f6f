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

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/panelsync/pkg/logger"
)

const defaultShutdownTimeout = 10 * time.Second

// Service is a long running background component.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ServerOptions describes what RunServer starts and stops.
type ServerOptions struct {
	ServiceName     string
	Services        []Service
	HTTPServer      *http.Server
	ShutdownTimeout time.Duration
	Logger          logger.Logger
}

// RunServer starts every service, serves HTTP, and blocks until ctx is done,
// SIGINT/SIGTERM arrives, or the HTTP server fails. Services are stopped in
// reverse start order.
func RunServer(ctx context.Context, opts *ServerOptions) error {
	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := make([]Service, 0, len(opts.Services))

	for _, svc := range opts.Services {
		if err := svc.Start(ctx); err != nil {
			stopAll(started, opts.shutdownTimeout(), log)
			return fmt.Errorf("failed to start %s: %w", opts.ServiceName, err)
		}

		started = append(started, svc)
	}

	errCh := make(chan error, 1)

	if opts.HTTPServer != nil {
		go func() {
			log.Info().Str("addr", opts.HTTPServer.Addr).Msg("HTTP server listening")

			if err := opts.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	var runErr error

	select {
	case <-ctx.Done():
		log.Info().Str("service", opts.ServiceName).Msg("Shutdown requested")
	case err := <-errCh:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout())
	defer cancel()

	if opts.HTTPServer != nil {
		if err := opts.HTTPServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("HTTP server shutdown")
		}
	}

	stopAll(started, opts.shutdownTimeout(), log)

	return runErr
}

func (o *ServerOptions) shutdownTimeout() time.Duration {
	if o.ShutdownTimeout > 0 {
		return o.ShutdownTimeout
	}

	return defaultShutdownTimeout
}

func stopAll(services []Service, timeout time.Duration, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(ctx); err != nil {
			log.Warn().Err(err).Msg("Service stop failed")
		}
	}
}
