package handlers

import (
	"net/http"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
)

// PanicHandler runs another http.Handler, recovers from its panics, and responds
// with a generic 500 envelope. The stack trace is logged with the request ID.
type PanicHandler struct {
	BaseHandler

	// Handler to run
	Handler http.Handler
}

// ServeHTTP implements http.Handler
func (h PanicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if recovery := recover(); recovery != nil {
			// Metrics
			h.Metrics.APIHandlerPanicsTotal.With(prometheus.Labels{
				"path":   routePath(r),
				"method": r.Method,
			}).Inc()

			// Handle panic
			h.Logger.Errorf("%s panicked while handling %s %s: %#v\n%s",
				r.Header.Get(RequestIDHeader), r.Method, r.URL.Path, recovery,
				string(debug.Stack()))

			h.RespondJSON(w, http.StatusInternalServerError, Response{
				Message: "Internal server error",
			})
		}
	}()

	h.Handler.ServeHTTP(w, r)
}
