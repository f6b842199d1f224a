package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/wordbank/dictionary/config"
	"github.com/wordbank/dictionary/internal/db"
	"github.com/wordbank/dictionary/internal/handlers"
	"github.com/wordbank/dictionary/internal/logger"
	"github.com/wordbank/dictionary/internal/metrics"
	"github.com/wordbank/dictionary/internal/mq"
	"github.com/wordbank/dictionary/internal/ratelimit"
	"github.com/wordbank/dictionary/internal/services"
	"github.com/wordbank/dictionary/internal/storage"
	"github.com/wordbank/dictionary/internal/store"
)

const (
	requestTimeout  = 60 * time.Second
	shutdownTimeout = 15 * time.Second
)

// Server wraps the HTTP server and the resources it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *db.DB
	mq         *mq.MQ
	redis      *ratelimit.RedisCounter
	log        zerolog.Logger
}

// New connects every backend named in cfg and builds the router.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logger.Logger()
	s := &Server{log: log}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.db = dbConn
	if err := dbConn.EnsureSchema(ctx); err != nil {
		s.close()
		return nil, err
	}

	images, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var events services.EventPublisher = services.NopPublisher{}
	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		s.close()
		return nil, err
	}
	if broker != nil {
		s.mq = broker
		events = mq.NewEventPublisher(broker, cfg.MQ.Channel, log.With().Str("component", "events").Logger())
	}

	var limiter *ratelimit.Limiter
	if url := strings.TrimSpace(cfg.Redis.URL); url != "" {
		counter, err := ratelimit.NewRedisCounter(ctx, url)
		if err != nil {
			s.close()
			return nil, err
		}
		s.redis = counter
		limiter = ratelimit.New(counter, "dictionary:login:", cfg.Redis.LoginLimit, cfg.Redis.LoginWindow)
	}

	secret, err := sessionSecret(cfg.Session.Secret, log)
	if err != nil {
		s.close()
		return nil, err
	}

	renderer, err := handlers.NewTemplateRenderer()
	if err != nil {
		s.close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	categoryRepo := store.NewCategoryRepository(dbConn)
	wordRepo := store.NewWordRepository(dbConn)
	m := metrics.New()

	h := handlers.New(handlers.Deps{
		Users:         services.NewUserService(userRepo, cfg.Auth.StudentMarker),
		Categories:    services.NewCategoryService(categoryRepo, events),
		Words:         services.NewWordService(wordRepo, categoryRepo, userRepo, images, events, log.With().Str("component", "words").Logger()),
		Images:        images,
		Sessions:      handlers.NewSessionManager(secret, cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.Secure),
		Confirmations: handlers.NewConfirmations(secret),
		Limiter:       limiter,
		Metrics:       m,
		Renderer:      renderer,
		Log:           log,
		Ping:          dbConn.PingContext,
	})

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger(log),
		m.Middleware,
		middleware.Timeout(requestTimeout),
	)
	router.Handle("/metrics", m.Handler())
	h.Routes(router)

	s.router = router
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("dictionary server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown drains in-flight requests and releases backends.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	s.close()
	s.log.Info().Msg("dictionary server stopped")
	return err
}

func (s *Server) close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.mq != nil {
		_ = s.mq.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

// sessionSecret returns the configured secret or a random one for this process.
func sessionSecret(configured string, log zerolog.Logger) ([]byte, error) {
	if secret := strings.TrimSpace(configured); secret != "" {
		return []byte(secret), nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	log.Warn().Msg("SESSION_SECRET is not set; using a random secret, sessions end when the process restarts")
	return buf, nil
}

// requestLogger logs one line per request with its route, status and duration.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			event := log.Info()
			if ww.Status() >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("route", route).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
