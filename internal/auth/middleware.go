package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dev-rodrigobaliza/rest-api-course/internal/i18n"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// RequireToken creates a middleware that validates the bearer token before
// handler dispatch. The capability requirement (plain access, fresh
// access, or refresh) is a parameter, so every guarded route states what
// it needs.
func RequireToken(tm *TokenManager, opts ValidateOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err == nil {
				var claims *Claims
				claims, err = tm.Validate(tokenString, opts)
				if err == nil {
					ctx := context.WithValue(r.Context(), claimsContextKey, claims)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			writeAuthError(w, err)
		})
	}
}

// ClaimsFromContext retrieves the validated claims from the context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrMalformedToken
	}
	return parts[1], nil
}

func writeAuthError(w http.ResponseWriter, err error) {
	var key string
	switch {
	case errors.Is(err, ErrMissingToken):
		key = "token_missing"
	case errors.Is(err, ErrExpiredToken):
		key = "token_expired"
	case errors.Is(err, ErrRevokedToken):
		key = "token_revoked"
	case errors.Is(err, ErrWrongTokenType):
		key = "token_wrong_type"
	case errors.Is(err, ErrTokenNotFresh):
		key = "token_not_fresh"
	default:
		key = "token_invalid"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": i18n.Text(key)})
}
