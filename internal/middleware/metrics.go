package middleware

import (
	"net/http"
	"strconv"
	"time"

	"logistics/pkg/metrics"
)

// Metrics records request duration and in-flight count per the teacher's
// MetricsInterceptor, keyed by path instead of gRPC full method.
func Metrics(next http.Handler) http.Handler {
	m := metrics.Get()
	tracker := metrics.NewRequestTracker(m.HTTPRequestsInFlight)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracker.Start(r.URL.Path)
		defer tracker.End(r.URL.Path)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(rec.status), time.Since(start))
	})
}
