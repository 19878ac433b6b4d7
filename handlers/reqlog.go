package handlers

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the ID of a request
const RequestIDHeader = "X-Request-Id"

// ReqLoggerHandler logs every request. Requests without an ID are assigned one,
// which is echoed in the response.
type ReqLoggerHandler struct {
	BaseHandler

	// Handler to actually handle requests
	Handler http.Handler
}

// ServeHTTP implements http.Handler
func (h ReqLoggerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(RequestIDHeader)
	if len(id) == 0 {
		id = uuid.New().String()
		r.Header.Set(RequestIDHeader, id)
	}
	w.Header().Set(RequestIDHeader, id)

	h.Logger.Debugf("%s %s %s", id, r.Method, r.URL.String())

	h.Handler.ServeHTTP(w, r)
}
