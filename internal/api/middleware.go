// Package api implements the specgraph REST API using chi.
package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// AuthMiddleware enforces "Authorization: Bearer <token>" when enabled.
// Rejected requests get a 401 with a WWW-Authenticate challenge and are
// logged at Warn without the offered credential.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			offered, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(offered), []byte(token)) != 1 {
				slog.Warn("api: unauthorized request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("header_present", r.Header.Get("Authorization") != ""))
				w.Header().Set("WWW-Authenticate", `Bearer realm="specgraph"`)
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
