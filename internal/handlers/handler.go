package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/wordbank/dictionary/internal/metrics"
	"github.com/wordbank/dictionary/internal/ratelimit"
	"github.com/wordbank/dictionary/internal/services"
	"github.com/wordbank/dictionary/internal/storage"
	"github.com/wordbank/dictionary/internal/store"
)

// ImageSource streams stored word images.
type ImageSource interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// Deps are the collaborators of the route handlers. Images, Limiter and Metrics may be nil.
type Deps struct {
	Users         *services.UserService
	Categories    *services.CategoryService
	Words         *services.WordService
	Images        ImageSource
	Sessions      *SessionManager
	Confirmations *Confirmations
	Limiter       *ratelimit.Limiter
	Metrics       *metrics.Metrics
	Renderer      Renderer
	Log           zerolog.Logger
	Ping          func(ctx context.Context) error
}

// Handler serves every dictionary route.
type Handler struct {
	users      *services.UserService
	categories *services.CategoryService
	words      *services.WordService
	images     ImageSource
	sessions   *SessionManager
	confirm    *Confirmations
	limiter    *ratelimit.Limiter
	metrics    *metrics.Metrics
	renderer   Renderer
	log        zerolog.Logger
	ping       func(ctx context.Context) error
}

func New(deps Deps) *Handler {
	return &Handler{
		users:      deps.Users,
		categories: deps.Categories,
		words:      deps.Words,
		images:     deps.Images,
		sessions:   deps.Sessions,
		confirm:    deps.Confirmations,
		limiter:    deps.Limiter,
		metrics:    deps.Metrics,
		renderer:   deps.Renderer,
		log:        deps.Log,
		ping:       deps.Ping,
	}
}

// Routes registers the dictionary routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.Healthz)
	r.Get("/images/*", h.ServeImage)

	r.Group(func(r chi.Router) {
		r.Use(h.sessions.Load)

		r.Get("/", h.Home)
		r.Get("/login", h.LoginForm)
		r.Post("/login", h.Login)
		r.Get("/logout", h.Logout)
		r.Get("/signup", h.SignupForm)
		r.Post("/signup", h.Signup)

		r.Get("/word_info/{wordID}", h.WordInfo)
		r.Get("/dictionary/category/{categoryID}", h.CategoryWords)
		r.Get("/dictionary/level/{level}", h.LevelWords)
		r.Get("/dictionary/search", h.Search)
		r.Post("/dictionary/search", h.Search)

		r.Group(func(r chi.Router) {
			r.Use(RequireTeacher)

			r.Get("/admin", h.Admin)
			r.Post("/word_info/{wordID}", h.UpdateWord)
			r.Post("/add_category", h.AddCategory)
			r.Post("/delete_category", h.DeleteCategory)
			r.Get("/delete_category_confirm/{categoryID}", h.DeleteCategoryConfirm)
			r.Post("/add_word", h.AddWord)
			r.Post("/delete_word", h.DeleteWord)
			r.Get("/delete_word_confirm/{wordID}", h.DeleteWordConfirm)
			r.Post("/edit/{wordID}/{field}", h.EditField)
		})
	})
}

// page renders name with the values every page needs merged under data.
func (h *Handler) page(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		h.unavailable(w, r, err)
		return
	}

	q := r.URL.Query()
	values := map[string]any{
		"Identity":   IdentityFrom(r.Context()),
		"Categories": categories,
		"Levels":     levels(),
		"Message":    q.Get("message"),
		"Error":      q.Get("error"),
		"Query":      "",
	}
	for key, value := range data {
		values[key] = value
	}
	renderPage(w, h.renderer, h.log, http.StatusOK, name, values)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, storage.ErrObjectNotFound)
}

// Healthz reports liveness and, when configured, store connectivity.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
