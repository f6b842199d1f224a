package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/wordbank/dictionary/types"
)

const (
	msgWordNotFound     = "Word not found"
	msgCategoryNotFound = "Category not found"
)

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, "index", nil)
}

func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	words, err := h.words.List(r.Context())
	if err != nil {
		h.unavailable(w, r, err)
		return
	}
	h.page(w, r, "admin", map[string]any{"Words": words})
}

func (h *Handler) WordInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "wordID")
	if !ok {
		redirectError(w, r, "/", msgWordNotFound)
		return
	}

	word, err := h.words.Get(r.Context(), id)
	if err != nil {
		h.failure(w, r, err, "/", msgWordNotFound)
		return
	}
	h.page(w, r, "word_info", map[string]any{"Word": word})
}

func (h *Handler) CategoryWords(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "categoryID")
	if !ok {
		redirectError(w, r, "/", msgCategoryNotFound)
		return
	}

	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		h.failure(w, r, err, "/", msgCategoryNotFound)
		return
	}
	words, err := h.words.ListByCategory(r.Context(), id)
	if err != nil {
		h.failure(w, r, err, "/", msgCategoryNotFound)
		return
	}
	h.page(w, r, "dictionary", map[string]any{
		"Heading": title(category.Name),
		"Words":   words,
	})
}

func (h *Handler) LevelWords(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "level")))
	if err != nil {
		level = 0
	}

	words, err := h.words.ListByLevel(r.Context(), level)
	if err != nil {
		h.failure(w, r, err, "/", "")
		return
	}
	h.page(w, r, "dictionary", map[string]any{
		"Heading": fmt.Sprintf("Level %d", level),
		"Words":   words,
	})
}

// Search accepts the term as query param q or form field search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		term = strings.TrimSpace(r.FormValue("search"))
	}

	var words []types.WordView
	if term != "" {
		var err error
		words, err = h.words.Search(r.Context(), term)
		if err != nil {
			h.failure(w, r, err, "/", "")
			return
		}
		h.metrics.RecordSearch(len(words))
	}

	heading := "Search"
	if term != "" {
		heading = fmt.Sprintf("Results for %q", term)
	}
	h.page(w, r, "dictionary", map[string]any{
		"Heading": heading,
		"Words":   words,
		"Query":   term,
	})
}

func title(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + s[size:]
}
