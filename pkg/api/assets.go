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
	"bytes"
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/carverauto/panelsync/pkg/assets"
	"github.com/gorilla/mux"
)

// AssetSourceHeader tells the UI where an asset was served from.
const AssetSourceHeader = "X-Asset-Source"

var fallbackTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".json": "application/json",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".ico":  "image/x-icon",
	".webp": "image/webp",
}

func (s *Server) setupAssetRoutes() {
	s.router.HandleFunc("/", s.assetHandler("index.html")).Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc("/esp", s.assetHandler("esp.html")).Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc("/{path:.*}", s.handleAssetPath).Methods(http.MethodGet, http.MethodHead)
}

func (s *Server) assetHandler(rel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.serveAsset(w, r, rel)
	}
}

func (s *Server) handleAssetPath(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]

	if strings.HasPrefix(rel, "api/") {
		s.writeError(w, "not found", http.StatusNotFound)
		return
	}

	s.serveAsset(w, r, rel)
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request, rel string) {
	if s.assets == nil {
		http.NotFound(w, r)
		return
	}

	data, source, err := s.assets.Resolve(r.Context(), rel)

	switch {
	case errors.Is(err, assets.ErrNoContent):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, assets.ErrUnsafePath), errors.Is(err, assets.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		s.logger.Warn().Str("path", rel).Err(err).Msg("Asset unavailable")
		http.Error(w, "asset unavailable", http.StatusBadGateway)

		return
	}

	ext := strings.ToLower(path.Ext(rel))

	w.Header().Set("Content-Type", contentType(ext))
	w.Header().Set(AssetSourceHeader, string(source))

	if ext == ".html" {
		w.Header().Set("Cache-Control", "no-cache")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=0, must-revalidate")
	}

	http.ServeContent(w, r, path.Base(rel), time.Time{}, bytes.NewReader(data))
}

func contentType(ext string) string {
	if ct, ok := fallbackTypes[ext]; ok {
		return ct
	}

	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}

	return "application/octet-stream"
}
