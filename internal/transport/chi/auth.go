package chi

import (
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// BearerAuthMiddleware returns a middleware that validates Bearer
// tokens against the configured key set. An empty key set disables
// authentication entirely. /health and /metrics are always reachable
// so probes and scrapers need no credentials.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			token, errMsg := bearerToken(r)
			if errMsg != "" {
				writeError(w, http.StatusUnauthorized, codeBadRequest, errMsg)
				return
			}
			if _, ok := validKeys[token]; !ok {
				writeError(w, http.StatusUnauthorized, codeBadRequest, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from the Authorization header.
// Returns a non-empty message describing what is wrong otherwise.
func bearerToken(r *http.Request) (token, errMsg string) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(auth, bearerPrefix) {
		return "", "authorization header must use Bearer scheme"
	}
	return auth[len(bearerPrefix):], ""
}
