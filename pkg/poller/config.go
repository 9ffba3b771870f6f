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
	"fmt"
	"time"

	"github.com/carverauto/panelsync/pkg/models"
)

const (
	defaultHealthyGap    = 1 * time.Second
	defaultFailingGap    = 3 * time.Second
	defaultGrace         = 12 * time.Second
	defaultInFlightStale = 5 * time.Second
	defaultPollTimeout   = 4 * time.Second
)

// Config holds the status cache tunables.
type Config struct {
	// HealthyGap is the minimum time between device polls while the last poll succeeded.
	HealthyGap models.Duration `json:"healthy_gap"`
	// FailingGap is the base gap while polls fail; it grows in steps with the failure streak.
	FailingGap models.Duration `json:"failing_gap"`
	// Grace is how long a successful poll or push keeps the device online.
	Grace models.Duration `json:"grace"`
	// InFlightStale bounds how long an unfinished poll blocks new ones.
	InFlightStale models.Duration `json:"inflight_stale"`
	// PollTimeout caps a single device request.
	PollTimeout models.Duration `json:"poll_timeout"`
}

// DefaultConfig returns the status cache defaults.
func DefaultConfig() Config {
	return Config{
		HealthyGap:    models.Duration(defaultHealthyGap),
		FailingGap:    models.Duration(defaultFailingGap),
		Grace:         models.Duration(defaultGrace),
		InFlightStale: models.Duration(defaultInFlightStale),
		PollTimeout:   models.Duration(defaultPollTimeout),
	}
}

// Validate fills zero fields with defaults and rejects negative values.
func (c *Config) Validate() error {
	defaults := DefaultConfig()

	fields := []struct {
		name string
		val  *models.Duration
		def  models.Duration
	}{
		{"healthy_gap", &c.HealthyGap, defaults.HealthyGap},
		{"failing_gap", &c.FailingGap, defaults.FailingGap},
		{"grace", &c.Grace, defaults.Grace},
		{"inflight_stale", &c.InFlightStale, defaults.InFlightStale},
		{"poll_timeout", &c.PollTimeout, defaults.PollTimeout},
	}

	for _, f := range fields {
		if *f.val < 0 {
			return fmt.Errorf("%w: %s", errInvalidDuration, f.name)
		}

		if *f.val == 0 {
			*f.val = f.def
		}
	}

	return nil
}

// MinGap returns the minimum time between device polls. Healthy polling uses
// the short gap; a failing device is knocked at the base gap, raised in four
// steps as the failure streak grows.
func MinGap(cfg Config, healthy bool, failStreak int) time.Duration {
	if healthy {
		return time.Duration(cfg.HealthyGap)
	}

	base := time.Duration(cfg.FailingGap)

	switch {
	case failStreak <= 1:
		return base
	case failStreak <= 3:
		return max(base, 4*time.Second)
	case failStreak <= 6:
		return max(base, 6*time.Second)
	default:
		return max(base, 10*time.Second)
	}
}
