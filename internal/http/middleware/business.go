package middleware

import (
	"net/http"
	"strings"

	"github.com/nightglass/storefront/internal/tenancy"
)

const businessHeader = "X-Business-Id"

// RequireBusinessID enforces the multi-tenancy header for API requests and
// stores the id in the request context.
func RequireBusinessID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		businessID := strings.TrimSpace(r.Header.Get(businessHeader))
		if businessID == "" {
			http.Error(w, "missing X-Business-Id", http.StatusBadRequest)
			return
		}
		ctx := tenancy.WithBusinessID(r.Context(), businessID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
