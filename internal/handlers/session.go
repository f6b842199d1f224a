package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wordbank/dictionary/types"
)

type contextKey string

const contextIdentityKey contextKey = "identity"

// SessionManager stores the identity in a signed cookie.
type SessionManager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
}

func NewSessionManager(secret []byte, cookieName string, ttl time.Duration, secure bool) *SessionManager {
	if cookieName == "" {
		cookieName = "dictionary_session"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{secret: secret, cookieName: cookieName, ttl: ttl, secure: secure}
}

type sessionClaims struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Teacher   int    `json:"teacher"`
	jwt.RegisteredClaims
}

// CookieName returns the name of the session cookie.
func (m *SessionManager) CookieName() string {
	return m.cookieName
}

// Issue writes a session cookie for the user.
func (m *SessionManager) Issue(w http.ResponseWriter, user types.User) error {
	now := time.Now()
	claims := sessionClaims{
		Email:     user.Email,
		FirstName: user.FirstName,
		Teacher:   user.Teacher,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(m.ttl),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Load puts the session identity on the request context.
// A missing or invalid cookie yields the anonymous identity.
func (m *SessionManager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var identity types.Identity
		if cookie, err := r.Cookie(m.cookieName); err == nil {
			if parsed, err := m.parse(cookie.Value); err == nil {
				identity = parsed
			}
		}
		ctx := context.WithValue(r.Context(), contextIdentityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionManager) parse(tokenString string) (types.Identity, error) {
	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return types.Identity{}, err
	}
	if !token.Valid {
		return types.Identity{}, errors.New("invalid token")
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || userID < 1 {
		return types.Identity{}, errors.New("invalid subject")
	}
	return types.Identity{
		Email:     claims.Email,
		FirstName: claims.FirstName,
		UserID:    userID,
		Teacher:   claims.Teacher,
	}, nil
}

// IdentityFrom returns the identity placed on ctx by the session middleware.
func IdentityFrom(ctx context.Context) types.Identity {
	identity, _ := ctx.Value(contextIdentityKey).(types.Identity)
	return identity
}
