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
	"io"

	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/rs/zerolog"
)

// LoggerImpl is the process root logger. Components receive children of it
// through Component so they share one file handle and one ring.
type LoggerImpl struct {
	logger zerolog.Logger
}

var _ logger.Logger = (*LoggerImpl)(nil)

// NewLoggerImpl builds the root logger. A nil config uses the defaults.
// Extra writers, such as the in-memory log ring, receive every line.
func NewLoggerImpl(config *logger.Config, extra ...io.Writer) (*LoggerImpl, error) {
	if config == nil {
		config = logger.DefaultConfig()
	}

	zlog, err := logger.Init(config, extra...)
	if err != nil {
		return nil, err
	}

	return &LoggerImpl{logger: zlog}, nil
}

func (l *LoggerImpl) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *LoggerImpl) Info() *zerolog.Event  { return l.logger.Info() }
func (l *LoggerImpl) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *LoggerImpl) Error() *zerolog.Event { return l.logger.Error() }
func (l *LoggerImpl) With() zerolog.Context { return l.logger.With() }

// Component returns a child of l tagged with component.
func (l *LoggerImpl) Component(component string) logger.Logger {
	return logger.Wrap(l.logger.With().Str("component", component).Logger())
}
