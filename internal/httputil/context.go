package httputil

import (
	"net/http"

	"piuma/internal/domain"
)

// WithUserID adds userID to the request context
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(domain.WithUserID(r.Context(), userID))
}

// GetUserID retrieves userID from context, returns empty string if not found
func GetUserID(r *http.Request) string {
	return domain.UserIDFrom(r.Context())
}
