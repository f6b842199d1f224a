package handlers

import (
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
)

// ServeImage streams a stored word image.
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		http.NotFound(w, r)
		return
	}

	key := chi.URLParam(r, "*")
	rc, err := h.images.Get(r.Context(), key)
	if err != nil {
		if isNotFound(err) {
			http.NotFound(w, r)
			return
		}
		h.log.Error().Err(err).Str("key", key).Msg("failed to read image")
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	defer rc.Close()

	if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn().Err(err).Str("key", key).Msg("image stream interrupted")
	}
}
