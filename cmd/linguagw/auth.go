package main

import (
	"crypto/subtle"
	"net/http"
)

// authHeader carries the shared secret on protected endpoints.
const authHeader = "X-Internal-API-Key"

// authMiddleware rejects requests whose secret header does not match the
// configured key. With no key configured, auth is disabled.
func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.cfg.Auth.InternalAPIKey
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		supplied := r.Header.Get(authHeader)
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(key)) != 1 {
			writeErrorMessage(w, http.StatusForbidden, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
