package middleware

import (
	"net/http"
	"os"
	"strings"
)

// CORSMiddleware adds CORS headers and answers preflight requests. Allowed
// origins come from ALLOWED_ORIGINS (comma separated); when unset every
// origin is allowed, which is only acceptable in development.
func CORSMiddleware(next http.Handler) http.Handler {
	allowAll := true
	allowed := map[string]bool{}
	if env := os.Getenv("ALLOWED_ORIGINS"); env != "" {
		allowAll = false
		for _, origin := range strings.Split(env, ",") {
			allowed[strings.TrimSpace(origin)] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
