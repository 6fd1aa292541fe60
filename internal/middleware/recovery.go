package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"piuma/internal/httputil"
)

// Recovery turns a panic in a handler into a 500 problem response and logs
// the stack. http.ErrAbortHandler is re-raised so net/http can abort the
// connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					"error", fmt.Sprint(rec),
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", httputil.GetUserID(r),
					"stack", string(debug.Stack()),
				)
				httputil.RespondErrorWithExtras(w, http.StatusInternalServerError, "internal server error",
					map[string]interface{}{"instance": r.URL.Path})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
