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
	"time"

	"golang.org/x/sync/singleflight"
)

// defaultFlightTimeout bounds a shared call when the source has no timeout.
const defaultFlightTimeout = 5 * time.Minute

// Shared runs fn once per key among concurrent callers. fn gets a context
// that keeps ctx's values but not its cancellation, bounded by timeout, so
// one caller giving up does not fail the others. Each caller stops waiting
// when its own ctx ends.
func Shared[T any](
	ctx context.Context, g *singleflight.Group, key string, timeout time.Duration,
	fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = defaultFlightTimeout
	}

	ch := g.DoChan(key, func() (interface{}, error) {
		detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		return fn(detached)
	})

	var zero T

	select {
	case r := <-ch:
		v, _ := r.Val.(T)

		return v, r.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
