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

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

var errTrailingData = errors.New("unexpected data after the JSON document")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileConfigLoader reads a JSON document on top of the values already in dst.
// Strict rejects keys that do not map to a field of dst.
type FileConfigLoader struct {
	Strict bool
}

// Load implements ConfigLoader.
func (f *FileConfigLoader) Load(_ context.Context, path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	// Editors on the tablet like to save with a byte order mark.
	data = bytes.TrimPrefix(data, utf8BOM)

	dec := json.NewDecoder(bytes.NewReader(data))
	if f.Strict {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("parse config %s: %w", path, locate(data, err))
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, errTrailingData)
	}

	return nil
}

// locate adds a line and column to JSON syntax and type errors.
func locate(data []byte, err error) error {
	var offset int64

	var syntaxErr *json.SyntaxError

	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}

	if offset > int64(len(data)) {
		offset = int64(len(data))
	}

	line := 1 + bytes.Count(data[:offset], []byte("\n"))
	col := offset - int64(bytes.LastIndexByte(data[:offset], '\n'))

	return fmt.Errorf("line %d column %d: %w", line, col, err)
}
