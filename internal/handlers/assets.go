package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Rahdeg/alt-commmerce/internal/gallery"
	"github.com/Rahdeg/alt-commmerce/internal/platform/requestctx"
	"github.com/Rahdeg/alt-commmerce/internal/tokens"
)

// Tokens serves the design tokens as CSS custom properties.
func (h *Handlers) Tokens(w http.ResponseWriter, r *http.Request) {
	css, etag := tokens.Stylesheet()
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(css))
}

// Image serves product images, deriving "-thumbnail" variants on demand.
func (h *Handlers) Image(w http.ResponseWriter, r *http.Request) {
	if h.thumbs == nil {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	data, err := h.thumbs.Thumbnail("images/" + name)
	if err != nil {
		if !errors.Is(err, gallery.ErrThumbnailNotFound) {
			requestctx.Logger(r.Context()).Error("image.failed", zap.String("name", name), zap.Error(err))
		}
		http.NotFound(w, r)
		return
	}
	// derived thumbnails are JPEG whatever their name says
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=604800")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
