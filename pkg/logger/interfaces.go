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
	"io"

	"github.com/rs/zerolog"
)

// Logger is the structured logger handed to every panel component.
type Logger interface {
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	With() zerolog.Context
	// Component returns a child logger tagged with component=name that
	// shares the parent's writers.
	Component(name string) Logger
}

// NewTestLogger returns a Logger that drops everything.
func NewTestLogger() Logger {
	return &zlog{l: zerolog.New(io.Discard).Level(zerolog.Disabled)}
}

// NewWriterLogger returns a Logger that writes JSON lines to w at debug
// level. Tests use it to assert on emitted log lines.
func NewWriterLogger(w io.Writer) Logger {
	return &zlog{l: zerolog.New(w).Level(zerolog.DebugLevel)}
}

// Wrap adapts a configured zerolog.Logger.
func Wrap(l zerolog.Logger) Logger {
	return &zlog{l: l}
}

type zlog struct {
	l zerolog.Logger
}

func (z *zlog) Debug() *zerolog.Event { return z.l.Debug() }
func (z *zlog) Info() *zerolog.Event  { return z.l.Info() }
func (z *zlog) Warn() *zerolog.Event  { return z.l.Warn() }
func (z *zlog) Error() *zerolog.Event { return z.l.Error() }
func (z *zlog) With() zerolog.Context { return z.l.With() }

func (z *zlog) Component(name string) Logger {
	return &zlog{l: z.l.With().Str("component", name).Logger()}
}
