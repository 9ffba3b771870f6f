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
	"sync"
	"time"

	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/poller"
)

// BreakerState represents the current state of the circuit breaker
type BreakerState int

const (
	// StateClosed - requests are allowed
	StateClosed BreakerState = iota
	// StateOpen - the origin failed recently, implicit requests are suppressed
	StateOpen
	// StateHalfOpen - the cooldown elapsed and a probe request is allowed
	StateHalfOpen
)

// BreakerConfig holds configuration for the circuit breaker
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening
	FailureThreshold int
	// SuccessThreshold is the number of successes needed to close from half-open
	SuccessThreshold int
	// Cooldown is how long to stay open before allowing a probe
	Cooldown time.Duration
}

// CooldownConfig opens on the first failure and closes on the first success.
func CooldownConfig(cooldown time.Duration) BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Cooldown:         cooldown,
	}
}

// Breaker suppresses requests to an origin for a cooldown window after it fails.
type Breaker struct {
	mu           sync.RWMutex
	config       BreakerConfig
	state        BreakerState
	failureCount int
	successCount int
	totalFails   int
	lastFailTime time.Time
	clock        poller.Clock
	logger       logger.Logger
	name         string
}

// NewBreaker creates a new breaker with the given configuration
func NewBreaker(name string, config BreakerConfig, clock poller.Clock, log logger.Logger) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 1
	}

	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}

	if clock == nil {
		clock = poller.NewClock()
	}

	return &Breaker{
		config: config,
		state:  StateClosed,
		clock:  clock,
		logger: log,
		name:   name,
	}
}

// SetCooldown changes the cooldown window. Configuration is re-read on every
// sync so operators can tune it without a restart.
func (b *Breaker) SetCooldown(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.config.Cooldown = d
}

// Allow reports whether a request may be issued now. An open breaker whose
// cooldown has elapsed moves to half-open and allows one probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if b.clock.Now().Sub(b.lastFailTime) >= b.config.Cooldown {
			b.state = StateHalfOpen
			b.successCount = 0

			b.logger.Debug().
				Str("breaker", b.name).
				Msg("Cooldown elapsed, allowing probe request")

			return true
		}

		return false
	default:
		return false
	}
}

// RecordFailure notes a failed request.
func (b *Breaker) RecordFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.totalFails++
	b.lastFailTime = b.clock.Now()

	switch b.state {
	case StateClosed:
		if b.failureCount >= b.config.FailureThreshold {
			b.state = StateOpen
			b.logger.Warn().
				Str("breaker", b.name).
				Err(err).
				Dur("cooldown", b.config.Cooldown).
				Msg("Remote origin failed, entering cooldown")
		}
	case StateHalfOpen:
		b.state = StateOpen
		b.logger.Warn().
			Str("breaker", b.name).
			Err(err).
			Msg("Probe request failed, cooldown restarted")
	case StateOpen:
	}
}

// RecordSuccess notes a successful request.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen, StateOpen:
		b.successCount++
		if b.successCount >= b.config.SuccessThreshold {
			b.state = StateClosed
			b.failureCount = 0
			b.logger.Info().
				Str("breaker", b.name).
				Msg("Remote origin recovered")
		}
	case StateClosed:
		b.failureCount = 0
	}
}

// State returns the current state of the breaker
func (b *Breaker) State() BreakerState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.state
}

// CooldownRemaining returns how long implicit requests stay suppressed.
func (b *Breaker) CooldownRemaining() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.state != StateOpen {
		return 0
	}

	remaining := b.config.Cooldown - b.clock.Now().Sub(b.lastFailTime)
	if remaining < 0 {
		return 0
	}

	return remaining
}

// GetMetrics returns current metrics for monitoring
func (b *Breaker) GetMetrics() map[string]interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return map[string]interface{}{
		"name":          b.name,
		"state":         b.state.String(),
		"failure_count": b.failureCount,
		"total_fails":   b.totalFails,
		"last_failure":  b.lastFailTime,
	}
}

// String returns a string representation of the breaker state
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
