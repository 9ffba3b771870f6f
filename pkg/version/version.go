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

// Package version reports the build version of the panel binaries.
package version

import (
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/carverauto/panelsync/pkg/version.version=..."
var (
	version = "dev"
	buildID = ""
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	BuildID   string `json:"build_id,omitempty"`
	GoVersion string `json:"go_version"`
	Modified  bool   `json:"modified,omitempty"`
}

// Get returns the build information. Without a linker-provided build ID the
// VCS revision stamped by the go tool is used.
func Get() Info {
	info := Info{Version: version, BuildID: buildID, GoVersion: runtime.Version()}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.BuildID == "" {
				info.BuildID = shortRevision(s.Value)
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}

	return info
}

// String renders "<version> (build: <id>)", or just the version when no
// build ID is known.
func (i Info) String() string {
	s := i.Version
	if i.BuildID != "" {
		s += " (build: " + i.BuildID
		if i.Modified {
			s += "+dirty"
		}

		s += ")"
	}

	return s
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}

	return rev
}
