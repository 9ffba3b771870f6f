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

package logger

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var errOutput = errors.New("logging output must be stdout or stderr")

const (
	outputStdout = "stdout"
	outputStderr = "stderr"
)

// Config selects the level, destinations and format of the panel log.
type Config struct {
	Level      string `json:"level"`
	Debug      bool   `json:"debug"`
	Output     string `json:"output"`
	TimeFormat string `json:"time_format"`
	// File, when set, receives a copy of every log line.
	File string `json:"file,omitempty"`
	// RingSize bounds the in-memory buffer behind the log view.
	RingSize int `json:"ring_size,omitempty"`
}

// DefaultConfig returns the logging defaults, overridden by LOG_LEVEL,
// DEBUG, LOG_OUTPUT, LOG_TIME_FORMAT, LOG_FILE and LOG_RING_SIZE.
func DefaultConfig() *Config {
	c := &Config{Level: "info", Output: outputStdout, RingSize: DefaultRingSize}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Level = v
	}

	switch strings.ToLower(os.Getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		c.Debug = true
	}

	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		c.Output = v
	}

	c.TimeFormat = os.Getenv("LOG_TIME_FORMAT")
	c.File = os.Getenv("LOG_FILE")

	if n, err := strconv.Atoi(os.Getenv("LOG_RING_SIZE")); err == nil && n > 0 {
		c.RingSize = n
	}

	return c
}

// Validate rejects unknown levels and outputs.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c); err != nil {
		return fmt.Errorf("logging level %q: %w", c.Level, err)
	}

	switch c.Output {
	case "", outputStdout, outputStderr:
	default:
		return fmt.Errorf("%w: %q", errOutput, c.Output)
	}

	if c.RingSize <= 0 {
		c.RingSize = DefaultRingSize
	}

	return nil
}
