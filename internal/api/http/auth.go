package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Hassam-Ata/linklens/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const authCookieName = "linklens_auth"

type contextKey string

const userContextKey contextKey = "user"

// userFromContext returns the caller identity, or nil when the request
// carried no valid session. Handlers pass the result explicitly into the
// service layer; the service never reaches into the context itself.
func userFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

type authClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Authenticator issues and verifies the signed identity cookie. Identities
// are anonymous: a fresh UUID minted on first use, persisted client-side in
// the cookie.
type Authenticator struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthenticator(secret string, tokenTTL time.Duration) *Authenticator {
	return &Authenticator{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

func (a *Authenticator) signToken(userID string) (string, error) {
	const op = "api.http.Authenticator.signToken"

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenTTL)),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("%s: failed to sign token: %w", op, err)
	}

	return signed, nil
}

func (a *Authenticator) parseToken(tokenString string) (string, error) {
	const op = "api.http.Authenticator.parseToken"

	claims := new(authClaims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: failed to parse token: %w", op, err)
	}
	if !token.Valid || claims.UserID == "" {
		return "", fmt.Errorf("%s: invalid token", op)
	}

	return claims.UserID, nil
}

// Middleware extracts the caller identity from the auth cookie, if present
// and valid, and stores it in the request context. It never rejects a
// request: endpoints that require an identity enforce that themselves.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(authCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := a.parseToken(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, &models.User{ID: userID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Issue mints an anonymous identity for requests that arrive without one and
// sets the auth cookie, so first-time visitors can create URLs they own.
func (a *Authenticator) Issue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		userID := uuid.New().String()

		signed, err := a.signToken(userID)
		if err != nil {
			// The request proceeds without an identity; endpoints that
			// need one will reject it.
			next.ServeHTTP(w, r)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     authCookieName,
			Value:    signed,
			Path:     "/",
			Expires:  time.Now().Add(a.tokenTTL),
			HttpOnly: true,
		})

		ctx := context.WithValue(r.Context(), userContextKey, &models.User{ID: userID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
