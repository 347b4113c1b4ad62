// Package auth guards the administrative API routes with a static key.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

type unauthorizedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAdminKey returns middleware that only lets through requests bearing
// key. An empty key disables the check.
func RequireAdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(unauthorizedResponse{Message: "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
