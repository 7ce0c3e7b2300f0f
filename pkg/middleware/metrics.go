package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/metrics"
)

// unmatchedRoute labels requests no mux pattern matched.
const unmatchedRoute = "unmatched"

// Metrics returns middleware that records request counts and latency by
// route pattern. It must wrap the *http.ServeMux directly so the matched
// pattern is visible on the request after it is served.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			route := r.Pattern
			if route == "" {
				route = unmatchedRoute
			}
			metrics.ObserveHTTPRequest(r.Method, route, strconv.Itoa(wrapped.statusCode), time.Since(start))
		})
	}
}
