// Package middleware provides HTTP middleware shared by the portal and the
// internal user API.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vasapolrittideah/member-portal-api/shared/auth"
	"github.com/vasapolrittideah/member-portal-api/shared/httputil"
)

type contextKey struct{}

// UserClaimsKey locates the validated JWT claims on the request context.
var UserClaimsKey = contextKey{}

// RequireJWT rejects requests without a valid bearer token and stores the
// validated claims on the request context.
func RequireJWT(jwtAuth auth.JWTAuthenticator, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractAndValidateJWT(r, jwtAuth, secret)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose claims do not carry the admin flag.
// It must run after RequireJWT.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			httputil.Error(w, http.StatusUnauthorized, "unauthorized", "missing claims")
			return
		}

		if admin, ok := claims["admin"].(bool); !ok || !admin {
			httputil.Error(w, http.StatusForbidden, "forbidden", "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the claims stored by RequireJWT, or nil.
func ClaimsFromContext(ctx context.Context) jwt.MapClaims {
	claims, _ := ctx.Value(UserClaimsKey).(jwt.MapClaims)
	return claims
}

func extractAndValidateJWT(r *http.Request, jwtAuth auth.JWTAuthenticator, secret string) (jwt.MapClaims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errors.New("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, errors.New("invalid authorization header format")
	}

	claims := jwt.MapClaims{}
	if _, err := jwtAuth.ValidateTokenWithClaims(parts[1], secret, claims); err != nil {
		return nil, err
	}

	return claims, nil
}
