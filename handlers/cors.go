package handlers

import (
	"net/http"
)

// CORSHandler lets browsers on the configured origin call the API and read the
// request ID
type CORSHandler struct {
	BaseHandler

	// Handler to enable CORS for
	Handler http.Handler
}

// ServeHTTP sets CORS response headers then runs Handler
func (h CORSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := h.Cfg.CORSOrigin
	if len(origin) == 0 {
		origin = "*"
	}

	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
	if origin != "*" {
		w.Header().Add("Vary", "Origin")
	}

	h.Handler.ServeHTTP(w, r)
}
