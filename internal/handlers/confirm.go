package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	purposeDeleteCategory = "delete_category"
	purposeDeleteWord     = "delete_word"

	defaultConfirmTTL = 10 * time.Minute
)

var errBadConfirmation = errors.New("invalid confirmation token")

// Confirmations signs short-lived tokens that authorise one delete of one target.
type Confirmations struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewConfirmations(secret []byte) *Confirmations {
	return &Confirmations{secret: secret, ttl: defaultConfirmTTL, now: time.Now}
}

type confirmClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Issue returns a token for purpose on target id.
func (c *Confirmations) Issue(purpose string, id int) (string, error) {
	now := c.now()
	claims := confirmClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.Itoa(id),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks the signature, expiry, purpose and target of a token.
func (c *Confirmations) Verify(tokenString, purpose string, id int) error {
	if tokenString == "" {
		return errBadConfirmation
	}

	claims := confirmClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return errBadConfirmation
	}
	if claims.Purpose != purpose || claims.Subject != strconv.Itoa(id) {
		return errBadConfirmation
	}
	return nil
}
