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

// Package logger provides JSON structured logging using zerolog, plus the
// in-memory ring that backs the operator log view.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init builds the process logger described by config and installs it as the
// zerolog default. Extra writers receive every line in addition to the
// configured output.
func Init(config *Config, extra ...io.Writer) (zerolog.Logger, error) {
	output, err := BuildOutput(config, extra...)
	if err != nil {
		return zerolog.Nop(), err
	}

	level, err := ParseLevel(config)
	if err != nil {
		return zerolog.Nop(), err
	}

	zerolog.TimeFieldFormat = time.RFC3339
	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	l := zerolog.New(output).Level(level).With().Timestamp().Logger()
	log.Logger = l

	return l, nil
}

// ParseLevel resolves the effective level of config.
func ParseLevel(config *Config) (zerolog.Level, error) {
	if config.Debug {
		return zerolog.DebugLevel, nil
	}

	if config.Level == "" {
		return zerolog.InfoLevel, nil
	}

	return zerolog.ParseLevel(config.Level)
}

// BuildOutput assembles the writer chain described by config.
func BuildOutput(config *Config, extra ...io.Writer) (io.Writer, error) {
	var output io.Writer = os.Stdout

	if config.Output == "stderr" {
		output = os.Stderr
	}

	writers := []io.Writer{output}

	if config.File != "" {
		if err := os.MkdirAll(filepath.Dir(config.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}

		f, err := os.OpenFile(config.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}

		writers = append(writers, f)
	}

	for _, w := range extra {
		if w != nil {
			writers = append(writers, w)
		}
	}

	if len(writers) == 1 {
		return output, nil
	}

	return NewMultiWriter(writers...), nil
}

// MultiWriter fans every write out to all writers. A failing writer does not
// stop the others.
type MultiWriter struct {
	writers []io.Writer
}

func NewMultiWriter(writers ...io.Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

func (mw *MultiWriter) Write(p []byte) (int, error) {
	var firstErr error

	for _, w := range mw.writers {
		n, err := w.Write(p)
		if err == nil && n != len(p) {
			err = io.ErrShortWrite
		}

		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return len(p), firstErr
}
