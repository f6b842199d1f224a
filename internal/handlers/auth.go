package handlers

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"

	"github.com/wordbank/dictionary/internal/services"
)

const (
	msgLoggedOut     = "See you next time!"
	msgBadLogin      = "Email invalid or password incorrect"
	msgSignedUp      = "Account created, please log in"
	msgAlreadyInside = "You are already logged in"
)

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if IdentityFrom(r.Context()).IsAuthenticated() {
		redirectMessage(w, r, "/", msgAlreadyInside)
		return
	}
	h.page(w, r, "login", nil)
}

// Login verifies the credentials and issues the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if IdentityFrom(r.Context()).IsAuthenticated() {
		redirectMessage(w, r, "/", msgAlreadyInside)
		return
	}

	decision, err := h.limiter.Allow(r.Context(), clientIP(r))
	if err != nil {
		h.log.Warn().Err(err).Msg("login rate limiter unavailable")
	}
	if !decision.Allowed {
		h.metrics.RecordLogin("throttled")
		minutes := int(math.Ceil(decision.RetryAfter.Minutes()))
		if minutes < 1 {
			minutes = 1
		}
		redirectError(w, r, "/login", fmt.Sprintf("Too many login attempts, try again in %d minute(s)", minutes))
		return
	}

	user, err := h.users.Login(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.metrics.RecordLogin("invalid")
			redirectError(w, r, "/login", msgBadLogin)
			return
		}
		h.unavailable(w, r, err)
		return
	}

	if err := h.sessions.Issue(w, user); err != nil {
		h.log.Error().Err(err).Msg("failed to sign session")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.metrics.RecordLogin("success")
	h.log.Info().Int("user_id", user.ID).Msg("user logged in")
	redirectMessage(w, r, "/", "Welcome back, "+user.FirstName)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	redirectMessage(w, r, "/", msgLoggedOut)
}

func (h *Handler) SignupForm(w http.ResponseWriter, r *http.Request) {
	if IdentityFrom(r.Context()).IsAuthenticated() {
		redirectMessage(w, r, "/", msgAlreadyInside)
		return
	}
	h.page(w, r, "signup", nil)
}

// Signup creates an account from the signup form.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if IdentityFrom(r.Context()).IsAuthenticated() {
		redirectMessage(w, r, "/", msgAlreadyInside)
		return
	}

	user, err := h.users.Signup(r.Context(), services.SignupRequest{
		FirstName:       r.FormValue("fname"),
		LastName:        r.FormValue("lname"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("password2"),
		TeacherChecked:  checkboxChecked(r.FormValue("teacher")),
	})
	if err != nil {
		h.failure(w, r, err, "/signup", "")
		return
	}

	h.log.Info().Int("user_id", user.ID).Int("teacher", user.Teacher).Msg("user signed up")
	redirectMessage(w, r, "/login", msgSignedUp)
}

func checkboxChecked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "off":
		return false
	default:
		return true
	}
}

// clientIP returns the request address without its port; RealIP runs earlier in the chain.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
