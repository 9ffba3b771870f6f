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
	"net/url"
	"time"

	"github.com/carverauto/panelsync/pkg/actions"
	"github.com/carverauto/panelsync/pkg/assets"
	"github.com/carverauto/panelsync/pkg/models"
	"github.com/carverauto/panelsync/pkg/poller"
	"github.com/carverauto/panelsync/pkg/sink"
)

//go:generate mockgen -destination=mock_api.go -package=api github.com/carverauto/panelsync/pkg/api StatusProvider,TelemetrySink,DeviceProxy,ActionRunner,VolumeControl,SyncService,AutoUpdater,AssetResolver

// StatusProvider answers device status queries.
type StatusProvider interface {
	Get(ctx context.Context) poller.Status
	Snapshot() poller.Status
}

// TelemetrySink accepts device pushes.
type TelemetrySink interface {
	Ingest(body []byte, remote string) (sink.Ack, error)
}

// DeviceProxy forwards raw requests to the device.
type DeviceProxy interface {
	Get(ctx context.Context, path string, params url.Values) (interface{}, error)
	RawStatus(ctx context.Context) (interface{}, error)
	ConfigureWiFi(ctx context.Context, ssid, password string) (interface{}, error)
}

// ActionRunner triggers local playback and device commands.
type ActionRunner interface {
	PlayVideo(ctx context.Context, key string) (actions.PlayResult, error)
	GoHome(ctx context.Context) actions.StepResult
	OpenYouTube(ctx context.Context) actions.StepResult
	StartShow(ctx context.Context, delay time.Duration) actions.Report
	StopShow(ctx context.Context, delay time.Duration) actions.Report
	SendIR(ctx context.Context, zone, command string) (interface{}, error)
	SetGPIO(ctx context.Context, pin int, state interface{}) (interface{}, error)
}

// VolumeControl drives the local media volume.
type VolumeControl interface {
	Get(ctx context.Context) (actions.Volume, error)
	Set(ctx context.Context, value int) (actions.Volume, error)
	ToggleMute(ctx context.Context) (actions.Volume, error)
}

// SyncService runs and reports sync jobs.
type SyncService interface {
	Start(kind models.SyncKind, force, respectTTL bool) (string, error)
	RunWait(ctx context.Context, kind models.SyncKind, force, respectTTL bool) (models.SyncJob, error)
	Progress(id string) (models.SyncJob, error)
	Last(kind models.SyncKind) string
}

// AutoUpdater toggles and reports the periodic UI refresh.
type AutoUpdater interface {
	SetEnabled(enabled bool) error
	Status() models.AutoUpdateStatus
}

// AssetResolver returns UI file contents.
type AssetResolver interface {
	Resolve(ctx context.Context, rel string) ([]byte, assets.Source, error)
}

// LogTail returns the most recent log lines.
type LogTail interface {
	Tail(n int) []string
}
