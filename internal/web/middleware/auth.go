package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/returnsdesk/internal/config"
)

// APIKeyAuth checks the X-API-Key header (or an "Authorization: Bearer"
// token) against the configured keys. With RequireAPIKey off every request
// passes; with it on and no keys configured every request is rejected.
func APIKeyAuth(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			key := requestKey(r)
			if key == "" {
				slog.Warn("auth: missing API key", "path", r.URL.Path, "method", r.Method, "remote_addr", r.RemoteAddr)
				denied(w, http.StatusUnauthorized, "missing API key", "AUTH_MISSING_KEY")
				return
			}
			if !isValidAPIKey(key, cfg.APIKeys) {
				slog.Warn("auth: invalid API key", "path", r.URL.Path, "method", r.Method, "remote_addr", r.RemoteAddr)
				denied(w, http.StatusForbidden, "invalid API key", "AUTH_INVALID_KEY")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requestKey(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func denied(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}

// isValidAPIKey compares against every key in constant time, so timing does
// not reveal which key (if any) matched.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
