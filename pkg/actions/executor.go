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

package actions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/carverauto/panelsync/pkg/logger"
)

//go:generate mockgen -destination=mock_actions.go -package=actions github.com/carverauto/panelsync/pkg/actions Executor,DeviceCommander,VideoLocator

const defaultCommandTimeout = 15 * time.Second

var errEmptyCommand = errors.New("empty command")

// Executor runs a local OS command and returns its trimmed output. The
// output is stdout, or stderr when stdout is empty.
type Executor interface {
	Run(ctx context.Context, argv []string) (string, error)
}

// ShellExecutor runs commands with os/exec.
type ShellExecutor struct {
	timeout  time.Duration
	fallback map[string]string
	logger   logger.Logger
}

// NewShellExecutor creates an executor. Binaries that are not on PATH are
// looked up in fallback by name before giving up.
func NewShellExecutor(timeout time.Duration, fallback map[string]string, log logger.Logger) *ShellExecutor {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}

	return &ShellExecutor{timeout: timeout, fallback: fallback, logger: log}
}

// TermuxBinaries maps the helpers used on Android to their Termux install path.
func TermuxBinaries() map[string]string {
	return map[string]string{
		"termux-open": "/data/data/com.termux/files/usr/bin/termux-open",
		"am":          "/system/bin/am",
		"input":       "/system/bin/input",
		"sh":          "/system/bin/sh",
	}
}

// Run executes argv without a shell.
func (e *ShellExecutor) Run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", errEmptyCommand
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.resolve(argv[0]), argv[1:]...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		out = strings.TrimSpace(stderr.String())
	}

	e.logger.Debug().Strs("argv", argv).Str("output", out).Err(err).Msg("Command finished")

	if err != nil {
		return out, fmt.Errorf("%s: %w", argv[0], err)
	}

	return out, nil
}

func (e *ShellExecutor) resolve(name string) string {
	if _, err := exec.LookPath(name); err == nil {
		return name
	}

	if p, ok := e.fallback[name]; ok {
		return p
	}

	return name
}
