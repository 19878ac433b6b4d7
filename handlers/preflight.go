package handlers

import (
	"net/http"
	"strings"

	"github.com/kscout/runboard-api/models"

	"github.com/gorilla/mux"
)

// preflightMethods are the methods a pre-flight request may be answered with
var preflightMethods = []string{"GET", "POST", "PUT", "DELETE"}

// PreFlightOptionsHandler answers CORS pre-flight requests with the methods the
// requested path is routed for. Paths with no route are not found.
type PreFlightOptionsHandler struct {
	BaseHandler

	// Router holds the API's routes
	Router *mux.Router
}

// allowedMethods returns the methods Router handles for r's path
func (h PreFlightOptionsHandler) allowedMethods(r *http.Request) []string {
	allowed := []string{}

	for _, method := range preflightMethods {
		candidate := r.Clone(r.Context())
		candidate.Method = method

		var match mux.RouteMatch
		if h.Router.Match(candidate, &match) && match.MatchErr == nil {
			allowed = append(allowed, method)
		}
	}

	return allowed
}

// ServeHTTP implements http.Handler
func (h PreFlightOptionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	allowed := h.allowedMethods(r)
	if len(allowed) == 0 {
		h.RespondError(w, r, models.NotFoundError{What: "route"})
		return
	}

	w.Header().Set("Access-Control-Allow-Methods", strings.Join(append(allowed, "OPTIONS"), ", "))
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+RequestIDHeader)
	w.WriteHeader(http.StatusNoContent)
}
