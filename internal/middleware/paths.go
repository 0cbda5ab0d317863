package middleware

import (
	"net/http"
	"strings"
)

// LowercaseAPIPaths lowercases paths under /api/ so that routes match
// regardless of case, as in /api/Expense.
func LowercaseAPIPaths(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) >= 5 && strings.EqualFold(r.URL.Path[:5], "/api/") {
			lower := strings.ToLower(r.URL.Path)
			if lower != r.URL.Path {
				r2 := r.Clone(r.Context())
				r2.URL.Path = lower
				r2.URL.RawPath = ""
				r = r2
			}
		}
		next.ServeHTTP(w, r)
	})
}
