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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/singleflight"
)

func TestSharedOutlivesCancelledCaller(t *testing.T) {
	var g singleflight.Group

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	result := make(chan error, 1)

	fn := func(ctx context.Context) (string, error) {
		select {
		case entered <- struct{}{}:
		default:
		}

		<-release

		return "done", ctx.Err()
	}

	first, cancel := context.WithCancel(context.Background())

	go func() {
		_, err := Shared(first, &g, "k", time.Minute, fn)
		result <- err
	}()

	<-entered

	joined := make(chan string, 1)

	go func() {
		v, err := Shared(context.Background(), &g, "k", time.Minute, fn)
		assert.NoError(t, err)

		joined <- v
	}()

	cancel()
	require.ErrorIs(t, <-result, context.Canceled)

	close(release)

	select {
	case v := <-joined:
		assert.Equal(t, "done", v)
	case <-time.After(5 * time.Second):
		t.Fatal("joined caller never returned")
	}
}

func TestSharedBoundsDetachedCall(t *testing.T) {
	var g singleflight.Group

	_, err := Shared(context.Background(), &g, "k", 20*time.Millisecond,
		func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
