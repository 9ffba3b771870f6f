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
	"fmt"
	"net/http"
	"time"

	"github.com/carverauto/panelsync/pkg/poller"
	"github.com/gorilla/websocket"
)

const (
	streamReadDeadline  = 60 * time.Second
	streamWriteDeadline = 10 * time.Second
)

// StreamStatus is the type of status messages.
const StreamStatus = "status"

// StreamMessage represents a message sent over the status WebSocket.
type StreamMessage struct {
	Type      string         `json:"type"`
	Data      *poller.Status `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// handleStatusStream pushes the device status whenever it changes. The
// stream reads cached snapshots only and never polls the device itself.
func (s *Server) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		s.unavailable(w, "status")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkWebSocketOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("Failed to upgrade to WebSocket")

		return
	}

	defer func() { _ = conn.Close() }()

	s.logger.Debug().Str("remote_addr", r.RemoteAddr).Msg("Status stream opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.handleClientMessages(ctx, conn, cancel)

	if err := s.streamStatus(ctx, conn); err != nil {
		s.logger.Debug().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Status stream ended")
	}
}

func (s *Server) streamStatus(ctx context.Context, conn *websocket.Conn) error {
	ticker := s.clock.Ticker(s.config.StreamInterval)
	defer ticker.Stop()

	pings := s.clock.Ticker(s.config.PingInterval)
	defer pings.Stop()

	var last string

	send := func() error {
		st := s.status.Snapshot()

		fp := st.Fingerprint() + fmt.Sprint(st.Online)
		if fp == last {
			return nil
		}

		last = fp

		return s.writeMessage(conn, StreamMessage{Type: StreamStatus, Data: &st})
	}

	if err := send(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if err := send(); err != nil {
				return err
			}
		case <-pings.Chan():
			deadline := time.Now().Add(streamWriteDeadline)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}
		}
	}
}

func (s *Server) writeMessage(conn *websocket.Conn, msg StreamMessage) error {
	msg.Timestamp = s.clock.Now()

	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteDeadline)); err != nil {
		return err
	}

	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write %s message: %w", msg.Type, err)
	}

	return nil
}

// handleClientMessages drains client frames and cancels the stream when the
// client goes away. Pongs answering the keepalive pings extend the read
// deadline.
func (s *Server) handleClientMessages(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamReadDeadline))
	})

	if err := conn.SetReadDeadline(time.Now().Add(streamReadDeadline)); err != nil {
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("Status stream closed unexpectedly")
			}

			return
		}
	}
}

func (s *Server) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}

	if s.originAllowed(origin) {
		return true
	}

	s.logger.Warn().Str("origin", origin).Msg("WebSocket origin not allowed")

	return false
}
