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

// Package atomicfile replaces files on disk without ever exposing a partially
// written destination. Content goes to a uniquely named temporary file in the
// destination directory, is fsynced, and is then renamed over the target.
package atomicfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	defaultFileMode = 0o644
	defaultDirMode  = 0o755
)

var (
	errAlreadyClosed = errors.New("pending file already committed or aborted")
)

// PendingFile is an in-progress replacement of a destination path. Nothing is
// visible at the destination until Commit succeeds.
type PendingFile struct {
	dest   string
	tmp    *os.File
	closed bool
}

// Create opens a temporary file next to dest. Parent directories are created
// as needed.
func Create(dest string) (*PendingFile, error) {
	dir := filepath.Dir(dest)

	if err := os.MkdirAll(dir, defaultDirMode); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temporary file for %s: %w", dest, err)
	}

	return &PendingFile{dest: dest, tmp: tmp}, nil
}

// Write appends p to the pending content.
func (p *PendingFile) Write(b []byte) (int, error) {
	if p.closed {
		return 0, errAlreadyClosed
	}

	return p.tmp.Write(b)
}

// TempPath returns the path of the backing temporary file.
func (p *PendingFile) TempPath() string {
	return p.tmp.Name()
}

// Commit flushes the pending content to stable storage and renames it over
// the destination.
func (p *PendingFile) Commit() error {
	if p.closed {
		return errAlreadyClosed
	}

	p.closed = true
	tmpPath := p.tmp.Name()

	if err := p.tmp.Chmod(defaultFileMode); err != nil {
		p.discard()
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}

	if err := p.tmp.Sync(); err != nil {
		p.discard()
		return fmt.Errorf("fsync %s: %w", tmpPath, err)
	}

	if err := p.tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, p.dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s to %s: %w", tmpPath, p.dest, err)
	}

	syncDir(filepath.Dir(p.dest))

	return nil
}

// Abort drops the pending content. The destination is left untouched. Calling
// Abort after Commit is a no-op, so it is safe to defer.
func (p *PendingFile) Abort() {
	if p.closed {
		return
	}

	p.closed = true
	p.discard()
}

func (p *PendingFile) discard() {
	tmpPath := p.tmp.Name()
	_ = p.tmp.Close()
	_ = os.Remove(tmpPath)
}

// WriteFile atomically replaces dest with data.
func WriteFile(dest string, data []byte) error {
	pending, err := Create(dest)
	if err != nil {
		return err
	}
	defer pending.Abort()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", pending.TempPath(), err)
	}

	return pending.Commit()
}

// WriteFrom atomically replaces dest with everything read from r and returns
// the number of bytes written.
func WriteFrom(dest string, r io.Reader) (int64, error) {
	pending, err := Create(dest)
	if err != nil {
		return 0, err
	}
	defer pending.Abort()

	n, err := io.Copy(pending, r)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", pending.TempPath(), err)
	}

	return n, pending.Commit()
}

// WriteJSON atomically replaces dest with the indented JSON encoding of v.
func WriteJSON(dest string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", dest, err)
	}

	return WriteFile(dest, data)
}

// ReadJSON decodes the JSON document at path into v.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}

	_ = d.Sync()
	_ = d.Close()
}
