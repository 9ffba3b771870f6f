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

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/carverauto/panelsync/pkg/version"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/sync/errgroup"
)

const healthProbeTimeout = 2 * time.Second

type logsResponse struct {
	OK    bool     `json:"ok"`
	Lines []string `json:"lines"`
}

// MemoryStats is the host memory summary.
type MemoryStats struct {
	TotalBytes     uint64  `json:"total_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsedPercent    float64 `json:"used_percent"`
}

// LoadStats is the host load average.
type LoadStats struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// HealthResponse is served on /healthz.
type HealthResponse struct {
	OK           bool         `json:"ok"`
	Version      string       `json:"version"`
	UptimeS      float64      `json:"uptime_s"`
	HostUptimeS  uint64       `json:"host_uptime_s,omitempty"`
	DeviceOnline *bool        `json:"device_online,omitempty"`
	Memory       *MemoryStats `json:"memory,omitempty"`
	Load         *LoadStats   `json:"load,omitempty"`
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		s.unavailable(w, "logs")
		return
	}

	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil || n <= 0 {
		n = s.config.LogTail
	}

	lines := s.logs.Tail(n)
	if lines == nil {
		lines = []string{}
	}

	s.writeJSON(w, http.StatusOK, logsResponse{OK: true, Lines: lines})
}

// handleHealth reports process uptime and host resources. A failing probe
// leaves its section out; the endpoint itself stays healthy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	out := HealthResponse{
		OK:      true,
		Version: version.Get().String(),
		UptimeS: s.clock.Now().Sub(s.start).Seconds(),
	}

	if s.status != nil {
		online := s.status.Snapshot().Online
		out.DeviceOnline = &online
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Memory probe failed")
			return nil
		}

		out.Memory = &MemoryStats{TotalBytes: vm.Total, AvailableBytes: vm.Available, UsedPercent: vm.UsedPercent}

		return nil
	})

	g.Go(func() error {
		avg, err := load.AvgWithContext(ctx)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Load probe failed")
			return nil
		}

		out.Load = &LoadStats{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}

		return nil
	})

	g.Go(func() error {
		up, err := host.UptimeWithContext(ctx)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Host uptime probe failed")
			return nil
		}

		out.HostUptimeS = up

		return nil
	})

	_ = g.Wait()

	s.writeJSON(w, http.StatusOK, out)
}
