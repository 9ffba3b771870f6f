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

package sync

import (
	"context"

	"github.com/carverauto/panelsync/pkg/assets"
	"github.com/carverauto/panelsync/pkg/download"
	"github.com/carverauto/panelsync/pkg/models"
)

// AssetFetcher revalidates a single UI asset.
type AssetFetcher interface {
	Fetch(ctx context.Context, rel string, force, respectTTL bool) (assets.Result, error)
}

// VideoSyncer mirrors a single video.
type VideoSyncer interface {
	Sync(ctx context.Context, key string, force, respectTTL bool) download.Outcome
}

// ConfigSource supplies the current remote origin settings.
type ConfigSource interface {
	Get() models.PanelConfig
}
