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

// Package metrics exposes panel service counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "panel"

// Recorder defines the interface for collecting panel service metrics
type Recorder interface {
	// Device state
	RecordPoll(ok bool, duration time.Duration)
	RecordPush(changed bool)
	RecordOnline(online bool)

	// Persistence
	RecordFlush(ok bool)

	// Remote origin
	RecordRemoteFetch(collection, outcome string)

	// Sync jobs
	RecordSyncJob(kind string, succeeded bool, duration time.Duration)
}

// NoOpRecorder provides a no-op implementation of the Recorder interface
type NoOpRecorder struct{}

func (NoOpRecorder) RecordPoll(bool, time.Duration)            {}
func (NoOpRecorder) RecordPush(bool)                           {}
func (NoOpRecorder) RecordOnline(bool)                         {}
func (NoOpRecorder) RecordFlush(bool)                          {}
func (NoOpRecorder) RecordRemoteFetch(string, string)          {}
func (NoOpRecorder) RecordSyncJob(string, bool, time.Duration) {}

// PrometheusRecorder records into a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	polls        *prometheus.CounterVec
	pollDuration prometheus.Histogram
	pushes       *prometheus.CounterVec
	online       prometheus.Gauge
	flushes      *prometheus.CounterVec
	fetches      *prometheus.CounterVec
	syncJobs     *prometheus.CounterVec
	syncDuration *prometheus.HistogramVec
}

// NewPrometheusRecorder creates the collectors and registers them together
// with the Go runtime and process collectors.
func NewPrometheusRecorder() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_polls_total",
			Help:      "Device state polls by result.",
		}, []string{"result"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "device_poll_duration_seconds",
			Help:      "Latency of device state polls.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4},
		}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_pushes_total",
			Help:      "Telemetry pushes received from the device.",
		}, []string{"changed"}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "device_online",
			Help:      "1 when the device is considered online.",
		}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_flushes_total",
			Help:      "Configuration document writes by result.",
		}, []string{"result"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_fetches_total",
			Help:      "Remote origin lookups by collection and outcome.",
		}, []string{"collection", "outcome"}),
		syncJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_jobs_total",
			Help:      "Finished sync jobs by kind and result.",
		}, []string{"kind", "result"}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_job_duration_seconds",
			Help:      "Duration of sync jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"kind"}),
	}

	r.registry.MustRegister(
		r.polls, r.pollDuration, r.pushes, r.online, r.flushes, r.fetches, r.syncJobs, r.syncDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry, mostly for tests.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *PrometheusRecorder) RecordPoll(ok bool, duration time.Duration) {
	r.polls.WithLabelValues(result(ok)).Inc()
	r.pollDuration.Observe(duration.Seconds())
}

func (r *PrometheusRecorder) RecordPush(changed bool) {
	label := "false"
	if changed {
		label = "true"
	}

	r.pushes.WithLabelValues(label).Inc()
}

func (r *PrometheusRecorder) RecordOnline(online bool) {
	if online {
		r.online.Set(1)
		return
	}

	r.online.Set(0)
}

func (r *PrometheusRecorder) RecordFlush(ok bool) {
	r.flushes.WithLabelValues(result(ok)).Inc()
}

func (r *PrometheusRecorder) RecordRemoteFetch(collection, outcome string) {
	r.fetches.WithLabelValues(collection, outcome).Inc()
}

func (r *PrometheusRecorder) RecordSyncJob(kind string, succeeded bool, duration time.Duration) {
	r.syncJobs.WithLabelValues(kind, result(succeeded)).Inc()
	r.syncDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func result(ok bool) string {
	if ok {
		return "success"
	}

	return "failure"
}
