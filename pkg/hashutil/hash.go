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

// Package hashutil decodes and checks the SHA-256 digests that remote
// origins advertise for the files they serve.
package hashutil

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"strings"
)

var (
	ErrEmptyDigest    = errors.New("empty checksum string")
	ErrDigestEncoding = errors.New("unsupported checksum encoding")
	ErrDigestMismatch = errors.New("sha256 mismatch")
)

// ChecksumHeader carries a bare hex or base64 SHA-256 of the body.
const ChecksumHeader = "X-Checksum-Sha256"

// DecodeSHA256String decodes a hex, base64 or base64url checksum into the
// raw 32-byte digest.
func DecodeSHA256String(s string) ([]byte, error) {
	clean := strings.Trim(strings.TrimSpace(s), ":")
	if clean == "" {
		return nil, ErrEmptyDigest
	}

	if decoded, err := hex.DecodeString(clean); err == nil && len(decoded) == sha256.Size {
		return decoded, nil
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if decoded, err := enc.DecodeString(clean); err == nil && len(decoded) == sha256.Size {
			return decoded, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrDigestEncoding, s)
}

// EqualSHA256 reports whether expected, in any encoding DecodeSHA256String
// accepts, matches actual.
func EqualSHA256(expected string, actual []byte) bool {
	decoded, err := DecodeSHA256String(expected)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(decoded, actual) == 1
}

// FromHeader returns the SHA-256 advertised in h, or "". It understands
// X-Checksum-Sha256, the structured Repr-Digest and Content-Digest fields
// (sha-256=:<base64>:) and the legacy Digest field (SHA-256=<base64>).
func FromHeader(h http.Header) string {
	if v := strings.TrimSpace(h.Get(ChecksumHeader)); v != "" {
		return v
	}

	for _, name := range []string{"Repr-Digest", "Content-Digest", "Digest"} {
		for _, member := range strings.Split(h.Get(name), ",") {
			algo, value, ok := strings.Cut(strings.TrimSpace(member), "=")
			if ok && strings.EqualFold(strings.TrimSpace(algo), "sha-256") {
				return strings.Trim(strings.TrimSpace(value), ":")
			}
		}
	}

	return ""
}

// Verifier hashes what is read through it and fails the final read when the
// content does not match the expected digest.
type Verifier struct {
	r        io.Reader
	expected []byte
	hash     hash.Hash
}

// NewVerifier wraps r. expected may be in any encoding DecodeSHA256String
// accepts.
func NewVerifier(r io.Reader, expected string) (*Verifier, error) {
	decoded, err := DecodeSHA256String(expected)
	if err != nil {
		return nil, err
	}

	return &Verifier{r: r, expected: decoded, hash: sha256.New()}, nil
}

func (v *Verifier) Read(p []byte) (int, error) {
	n, err := v.r.Read(p)
	v.hash.Write(p[:n])

	if errors.Is(err, io.EOF) && subtle.ConstantTimeCompare(v.hash.Sum(nil), v.expected) != 1 {
		return n, fmt.Errorf("%w: got %s", ErrDigestMismatch, hex.EncodeToString(v.hash.Sum(nil)))
	}

	return n, err
}
