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
	"context"
	"testing"

	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellExecutorOutput(t *testing.T) {
	e := NewShellExecutor(0, nil, logger.NewTestLogger())
	ctx := context.Background()

	out, err := e.Run(ctx, []string{"sh", "-c", "echo '  out  '"})
	require.NoError(t, err)
	assert.Equal(t, "out", out)

	out, err = e.Run(ctx, []string{"sh", "-c", "echo err 1>&2"})
	require.NoError(t, err)
	assert.Equal(t, "err", out)

	out, err = e.Run(ctx, []string{"sh", "-c", "echo broken 1>&2; exit 3"})
	require.Error(t, err)
	assert.Equal(t, "broken", out)

	_, err = e.Run(ctx, nil)
	require.ErrorIs(t, err, errEmptyCommand)
}

func TestShellExecutorFallbackBinary(t *testing.T) {
	e := NewShellExecutor(0, map[string]string{"panel-missing-helper": "/bin/echo"}, logger.NewTestLogger())

	out, err := e.Run(context.Background(), []string{"panel-missing-helper", "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}
