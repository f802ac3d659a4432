package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/quartierboard/board-api/internal/token"
)

// CookieName is the http-only cookie carrying the session token.
const CookieName = "access_token"

type contextKey struct{}

var claimsKey contextKey

// Auth verifies the session cookie and stores its claims in the request
// context. Absence or invalidity yields 403 with a machine-readable
// reason; an invalid token also clears the cookie.
func Auth(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				forbidden(w, "No token provided.")
				return
			}

			claims, err := tokens.Parse(cookie.Value)
			if err != nil {
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    "",
					Path:     "/",
					MaxAge:   -1,
					HttpOnly: true,
				})
				forbidden(w, "Failed to authenticate token.")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom returns the authenticated claims stored by Auth.
func ClaimsFrom(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*token.Claims)
	return claims, ok
}

// WithClaims injects claims into a context; test helper for handlers.
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func forbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
