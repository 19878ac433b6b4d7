package handlers

import (
	"fmt"
	"net/http"

	"github.com/kscout/runboard-api/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// routePath returns the path template of the route which matched r, or the request
// path if no route matched
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}

	return r.URL.Path
}

// MetricsHandler records the duration of every routed request. Panics are counted
// by PanicHandler instead.
type MetricsHandler struct {
	BaseHandler

	// Handler will actually handle requests
	Handler http.Handler
}

// ServeHTTP will observe custom metrics and let the .Handler handle the request
func (h MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	recorder := metrics.NewStatusRecorder(w)
	durationTimer := h.Metrics.StartTimer()

	h.Handler.ServeHTTP(recorder, r)

	durationTimer.Finish(h.Metrics.APIResponseDurationsMilliseconds.With(prometheus.Labels{
		"path":        routePath(r),
		"method":      r.Method,
		"status_code": fmt.Sprintf("%d", recorder.Status()),
	}))
}

// Middleware wraps a matched route's handler in a MetricsHandler
func (h MetricsHandler) Middleware(next http.Handler) http.Handler {
	h.Handler = next
	return h
}
