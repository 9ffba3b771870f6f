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

// Package device talks to the panel's remote controller board over HTTP and
// normalizes the state documents it reports.
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout = 4 * time.Second
	maxBodyBytes   = 1 << 20
	errorBodyLimit = 200
)

var (
	// ErrNotConfigured is returned without any network activity when no device
	// address is configured.
	ErrNotConfigured = errors.New("device address not configured")
	// ErrUnreachable wraps transport failures such as timeouts and refused
	// connections.
	ErrUnreachable = errors.New("device unreachable")
	// ErrInvalidPayload marks a state document that is not a JSON object.
	ErrInvalidPayload = errors.New("invalid state payload")
)

// StatusError is returned when the device answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Body)
}

// HTTPClient is the subset of *http.Client used to reach the device.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// AddressFunc returns the configured device address, which may be a bare
// host or a full URL. It is consulted on every request.
type AddressFunc func() string

// Client issues requests to the device.
type Client struct {
	address AddressFunc
	http    HTTPClient
	timeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithHTTPClient(c HTTPClient) ClientOption {
	return func(cl *Client) {
		cl.http = c
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// NewClient creates a device client.
func NewClient(address AddressFunc, opts ...ClientOption) *Client {
	c := &Client{
		address: address,
		http:    http.DefaultClient,
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the device base URL or ErrNotConfigured.
func (c *Client) BaseURL() (string, error) {
	addr := strings.TrimSpace(c.address())
	if addr == "" {
		return "", ErrNotConfigured
	}

	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}

	return strings.TrimRight(addr, "/"), nil
}

// FetchState returns the raw state document from the device.
func (c *Client) FetchState(ctx context.Context) (map[string]interface{}, error) {
	res, err := c.Get(ctx, "state", nil)
	if err != nil {
		return nil, err
	}

	doc, ok := res.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: expected object, got %T", ErrInvalidPayload, res)
	}

	return doc, nil
}

// SendIR forwards an infrared command for a zone.
func (c *Client) SendIR(ctx context.Context, zone, command string) (interface{}, error) {
	return c.Get(ctx, "ir", url.Values{"device": {zone}, "command": {command}})
}

// SetGPIO switches a GPIO pin on or off.
func (c *Client) SetGPIO(ctx context.Context, pin int, on bool) (interface{}, error) {
	state := "OFF"
	if on {
		state = "ON"
	}

	return c.Get(ctx, "gpio", url.Values{"pin": {strconv.Itoa(pin)}, "state": {state}})
}

// RawStatus returns the device's own diagnostic status document.
func (c *Client) RawStatus(ctx context.Context) (interface{}, error) {
	return c.Get(ctx, "status", nil)
}

// ConfigureWiFi asks the device to join a wireless network.
func (c *Client) ConfigureWiFi(ctx context.Context, ssid, password string) (interface{}, error) {
	body, err := json.Marshal(map[string]string{"ssid": ssid, "pass": password})
	if err != nil {
		return nil, fmt.Errorf("encode wifi request: %w", err)
	}

	return c.do(ctx, http.MethodPost, "wifi", nil, body)
}

// Get performs a GET against path and returns the decoded JSON body, or the
// body as a string when it is not JSON.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (interface{}, error) {
	return c.do(ctx, http.MethodGet, path, params, nil)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload []byte) (interface{}, error) {
	base, err := c.BaseURL()
	if err != nil {
		return nil, err
	}

	target := base + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader = http.NoBody
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build device request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreachable, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read device response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		text := string(body)
		if len(text) > errorBodyLimit {
			text = text[:errorBodyLimit]
		}

		return nil, &StatusError{StatusCode: resp.StatusCode, Body: text}
	}

	var decoded interface{}

	if err := json.Unmarshal(body, &decoded); err != nil {
		return string(bytes.TrimSpace(body)), nil
	}

	return decoded, nil
}

// UnwrapPayload decodes a pushed telemetry body. Two shapes are accepted: an
// object wrapped under a "state" key, or a bare object. Anything else,
// including an empty object, is ErrInvalidPayload.
func UnwrapPayload(body []byte) (map[string]interface{}, error) {
	var doc interface{}

	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	outer, ok := doc.(map[string]interface{})
	if !ok || len(outer) == 0 {
		return nil, fmt.Errorf("%w: no state data provided", ErrInvalidPayload)
	}

	if inner, ok := outer["state"].(map[string]interface{}); ok {
		return inner, nil
	}

	return outer, nil
}
