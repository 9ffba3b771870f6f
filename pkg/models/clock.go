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

package models

import "time"

// ServerClock is the server wall clock as reported to the device.
type ServerClock struct {
	Epoch     int64  `json:"epoch"`
	ISO       string `json:"iso"`
	TZOffsetS int    `json:"tz_offset_s"`
}

// NewServerClock describes t in the local time zone.
func NewServerClock(t time.Time) ServerClock {
	local := t.Local()
	_, offset := local.Zone()

	return ServerClock{
		Epoch:     local.Unix(),
		ISO:       local.Format(time.DateTime),
		TZOffsetS: offset,
	}
}
