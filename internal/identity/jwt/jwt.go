// Package jwt issues and verifies signed session tokens.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/stockroom/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Verification failure kinds. Callers can distinguish them with
// errors.Is; the HTTP layer collapses all of them into 401.
var (
	ErrTokenMissing          = errors.New("token missing")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalid          = errors.New("token invalid")
)

// Claims are the identity fields carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
}

// Config contains token signing configuration.
type Config struct {
	SecretKey     string
	TokenDuration time.Duration
	Issuer        string
}

// Authenticator issues and verifies HS256 session tokens. The signing
// key is immutable after construction.
type Authenticator struct {
	secret   []byte
	duration time.Duration
	issuer   string
	now      func() time.Time
}

// NewAuthenticator creates a token authenticator.
func NewAuthenticator(cfg Config) *Authenticator {
	return &Authenticator{
		secret:   []byte(cfg.SecretKey),
		duration: cfg.TokenDuration,
		issuer:   cfg.Issuer,
		now:      time.Now,
	}
}

// Issue mints a signed token for the user, valid for the configured
// duration from now. Tokens issued at different instants for the same
// user differ but are each valid until their own expiry.
func (a *Authenticator) Issue(user *domain.User) (string, error) {
	now := a.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.duration)),
		},
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates the token signature and expiry and returns the
// recovered claims. Pure function of token, key, and current time.
func (a *Authenticator) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
