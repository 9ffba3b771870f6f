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
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/carverauto/panelsync/pkg/logger"
	"github.com/carverauto/panelsync/pkg/poller"
)

const (
	volumeBinary   = "termux-volume"
	volumeCacheTTL = 2 * time.Second
)

var (
	errNoMediaStream  = errors.New("music/media stream not found")
	errVolumeFormat   = errors.New("unexpected termux-volume output")
	mediaStreamNames  = []string{"music", "media"}
	defaultLastVolume = 10
)

// Volume is the level of the local media stream.
type Volume struct {
	Stream string `json:"stream"`
	Value  int    `json:"value"`
	Max    int    `json:"max"`
	Muted  *bool  `json:"muted,omitempty"`
}

type streamLevel struct {
	volume int
	max    int
}

// MasterVolume controls the local media stream through termux-volume.
// Reads are cached briefly so a polling UI does not spawn a process per poll.
type MasterVolume struct {
	exec   Executor
	clock  poller.Clock
	logger logger.Logger

	mu          sync.Mutex
	cached      *Volume
	cachedAt    time.Time
	lastNonZero int
}

// NewMasterVolume creates a MasterVolume.
func NewMasterVolume(exec Executor, clock poller.Clock, log logger.Logger) *MasterVolume {
	if clock == nil {
		clock = poller.NewClock()
	}

	return &MasterVolume{exec: exec, clock: clock, logger: log, lastNonZero: defaultLastVolume}
}

// Get returns the current media volume.
func (m *MasterVolume) Get(ctx context.Context) (Volume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil && m.clock.Now().Sub(m.cachedAt) < volumeCacheTTL {
		return *m.cached, nil
	}

	return m.readLocked(ctx)
}

// Set clamps value to the stream range and applies it.
func (m *MasterVolume) Set(ctx context.Context, value int) (Volume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, err := m.readLocked(ctx)
	if err != nil {
		return Volume{}, err
	}

	target := min(max(value, 0), cur.Max)
	if target > 0 {
		m.lastNonZero = target
	}

	return m.applyLocked(ctx, cur, target)
}

// ToggleMute silences the stream, or restores the last non-zero level.
func (m *MasterVolume) ToggleMute(ctx context.Context) (Volume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, err := m.readLocked(ctx)
	if err != nil {
		return Volume{}, err
	}

	if cur.Value > 0 {
		m.lastNonZero = cur.Value

		out, err := m.applyLocked(ctx, cur, 0)
		muted := true
		out.Muted = &muted

		return out, err
	}

	restore := m.lastNonZero
	if restore <= 0 {
		restore = max(1, cur.Max/2)
	}

	out, err := m.applyLocked(ctx, cur, min(restore, cur.Max))
	muted := false
	out.Muted = &muted

	return out, err
}

func (m *MasterVolume) applyLocked(ctx context.Context, cur Volume, target int) (Volume, error) {
	if out, err := m.exec.Run(ctx, []string{volumeBinary, cur.Stream, strconv.Itoa(target)}); err != nil {
		return Volume{}, fmt.Errorf("set volume: %w: %s", err, out)
	}

	v := Volume{Stream: cur.Stream, Value: target, Max: cur.Max}
	m.cached, m.cachedAt = &v, m.clock.Now()

	m.logger.Info().Str("stream", v.Stream).Int("value", target).Msg("Master volume set")

	return v, nil
}

func (m *MasterVolume) readLocked(ctx context.Context) (Volume, error) {
	out, err := m.exec.Run(ctx, []string{volumeBinary})
	if err != nil {
		return Volume{}, fmt.Errorf("read volume: %w", err)
	}

	streams, err := parseVolumes([]byte(out))
	if err != nil {
		return Volume{}, err
	}

	for _, name := range mediaStreamNames {
		if lvl, ok := streams[name]; ok {
			v := Volume{Stream: name, Value: lvl.volume, Max: lvl.max}
			m.cached, m.cachedAt = &v, m.clock.Now()

			return v, nil
		}
	}

	return Volume{}, errNoMediaStream
}

// parseVolumes accepts the list form [{"stream","volume","max_volume"}] and
// the keyed form {"music": {"volume","max_volume"}}.
func parseVolumes(data []byte) (map[string]streamLevel, error) {
	type entry struct {
		Stream    string `json:"stream"`
		Volume    *int   `json:"volume"`
		MaxVolume int    `json:"max_volume"`
	}

	out := make(map[string]streamLevel)

	var list []entry
	if err := json.Unmarshal(data, &list); err == nil {
		for _, e := range list {
			if e.Stream == "" {
				continue
			}

			lvl := streamLevel{max: e.MaxVolume}
			if e.Volume != nil {
				lvl.volume = *e.Volume
			}

			out[e.Stream] = lvl
		}

		return out, nil
	}

	var keyed map[string]entry
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("%w: %w", errVolumeFormat, err)
	}

	for name, e := range keyed {
		if e.Volume != nil {
			out[name] = streamLevel{volume: *e.Volume, max: e.MaxVolume}
		}
	}

	return out, nil
}
