package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// RunIDHeader carries the run ID of a generated table.
const RunIDHeader = "X-Run-ID"

type clientKey struct{}

// APIKeyAuth provides API key authentication middleware. validKeys maps
// keys to client names; an empty map disables the check.
func APIKeyAuth(logger *slog.Logger, validKeys map[string]string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				logger.WarnContext(ctx, "missing API key",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				)
				renderProblem(w, r, http.StatusUnauthorized, "/errors/unauthorized", "Unauthorized", "API key required")
				return
			}

			clientName, valid := lookupKey(validKeys, apiKey)
			if !valid {
				logger.WarnContext(ctx, "invalid API key",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				)
				renderProblem(w, r, http.StatusUnauthorized, "/errors/unauthorized", "Unauthorized", "Invalid API key")
				return
			}

			ctx = context.WithValue(ctx, clientKey{}, clientName)
			logger.DebugContext(ctx, "API key authentication successful",
				slog.String("client", clientName),
				slog.String("path", r.URL.Path),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientName returns the authenticated client, if any.
func ClientName(ctx context.Context) string {
	name, _ := ctx.Value(clientKey{}).(string)
	return name
}

// lookupKey compares in constant time against every key.
func lookupKey(keys map[string]string, candidate string) (string, bool) {
	var name string
	found := false
	for key, client := range keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(candidate)) == 1 {
			name, found = client, true
		}
	}
	return name, found
}
