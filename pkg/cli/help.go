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

package cli

import (
	"fmt"
	"io"
)

// ShowHelp writes the usage message.
func ShowHelp(w io.Writer) {
	fmt.Fprint(w, `panelctl: operate a running panel server

Usage:
  panelctl [global options] <command> [options]

Global options:
  -server string     panel base URL (default "http://127.0.0.1:8080", env PANEL_URL)
  -timeout duration  request timeout (default 10s)
  -json              print raw JSON responses

Commands:
  status             show the cached device state
  health             show server health
  sync               start a remote sync
  progress           show a sync job
  logs               print recent server log lines
  auto-update        show or toggle UI auto-update

Options for sync:
  -what string       ui, videos or all (default "all")
  -force             re-download even when unchanged
  -respect-ttl       skip items fetched within their TTL
  -wait              block on the server until the job finishes
  -watch             follow the job with a live progress view

Options for progress:
  -id string         sync id (defaults to the last job)
  -watch             follow the job until it finishes

Options for logs:
  -n int             number of lines (default: server setting)

Examples:
  panelctl status
  panelctl sync -what ui -force -watch
  panelctl progress -id 3f2a9c1b
  panelctl auto-update on
`)
}
