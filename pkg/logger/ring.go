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

package logger

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultRingSize = 500

// Ring keeps the most recent log lines in memory for the operator log view.
type Ring struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}

	return &Ring{lines: make([]string, size)}
}

// Write stores each newline terminated line of p.
func (r *Ring) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) == 0 {
			continue
		}

		r.lines[r.next] = string(line)
		r.next = (r.next + 1) % len(r.lines)

		if r.next == 0 {
			r.full = true
		}
	}

	return len(p), nil
}

// Tail returns up to n of the most recent lines, oldest first.
func (r *Ring) Tail(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	if r.full {
		count = len(r.lines)
	}

	if n <= 0 || n > count {
		n = count
	}

	out := make([]string, 0, n)
	start := (r.next - n + len(r.lines)) % len(r.lines)

	for i := 0; i < n; i++ {
		out = append(out, r.lines[(start+i)%len(r.lines)])
	}

	return out
}

// ConsoleWriter wraps r so it receives human readable lines instead of JSON.
func (r *Ring) ConsoleWriter() io.Writer {
	return zerolog.ConsoleWriter{
		Out:        r,
		NoColor:    true,
		TimeFormat: time.DateTime,
		FormatLevel: func(i interface{}) string {
			if s, ok := i.(string); ok {
				return strings.ToUpper(s)
			}

			return ""
		},
	}
}
