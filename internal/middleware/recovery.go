package middleware

import (
	"fmt"
	"net/http"

	"github.com/ufukayyildiz/tocwtr2b/internal/httputil"
	"github.com/ufukayyildiz/tocwtr2b/internal/logging"
)

// Recovery is the error boundary: a panic from any handler or adapter is
// caught, logged with request context, and converted to the 500 envelope.
// Nothing propagates uncaught to the platform layer.
func Recovery(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.LogError(r.Context(), fmt.Errorf("panic: %v", rec), map[string]interface{}{
						"method": r.Method,
						"path":   r.URL.Path,
					})
					httputil.InternalError(w, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
