package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/wordbank/dictionary/internal/services"
	"github.com/wordbank/dictionary/types"
)

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// redirectWith sends a 303 to target with key=text appended to its query.
func redirectWith(w http.ResponseWriter, r *http.Request, target, key, text string) {
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set(key, text)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

func redirectMessage(w http.ResponseWriter, r *http.Request, target, message string) {
	redirectWith(w, r, target, "message", message)
}

func redirectError(w http.ResponseWriter, r *http.Request, target, message string) {
	redirectWith(w, r, target, "error", message)
}

func levels() []int {
	out := make([]int, 0, types.MaxLevel-types.MinLevel+1)
	for level := types.MinLevel; level <= types.MaxLevel; level++ {
		out = append(out, level)
	}
	return out
}

func pathInt(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, name)))
	return n, err == nil && n > 0
}

func formInt(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
	return n, err == nil && n > 0
}

// renderPage executes a page into a buffer so a template error never produces half a page.
func renderPage(w http.ResponseWriter, renderer Renderer, log zerolog.Logger, status int, name string, data map[string]any) {
	var buf bytes.Buffer
	if err := renderer.Render(&buf, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// failure translates a service error into a redirect, or a 503 page for store failures.
// notFound is the message shown when the target row is missing.
func (h *Handler) failure(w http.ResponseWriter, r *http.Request, err error, target, notFound string) {
	if msg, ok := services.UserMessage(err); ok {
		redirectError(w, r, target, msg)
		return
	}
	if isNotFound(err) && notFound != "" {
		redirectError(w, r, target, notFound)
		return
	}
	h.unavailable(w, r, err)
}

func (h *Handler) unavailable(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("store unavailable")
	renderPage(w, h.renderer, h.log, http.StatusServiceUnavailable, "unavailable", map[string]any{
		"Identity": IdentityFrom(r.Context()),
		"Levels":   levels(),
		"Query":    "",
		"Message":  "",
		"Error":    "",
	})
}
