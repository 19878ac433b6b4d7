package metrics

import (
	"net/http"
)

// StatusRecorder wraps a net/http.ResponseWriter and remembers the status code of
// the response
type StatusRecorder struct {
	// ResponseWriter which writes the response
	ResponseWriter http.ResponseWriter

	// status is the code passed to WriteHeader, 0 until the header is written
	status int
}

// NewStatusRecorder wraps w
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w}
}

// Status returns the code written to the client. A response whose header was never
// written explicitly is sent with 200.
func (r *StatusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}

	return r.status
}

// Header calls ResponseWriter.Header
func (r *StatusRecorder) Header() http.Header {
	return r.ResponseWriter.Header()
}

// Write calls ResponseWriter.Write
func (r *StatusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}

	return r.ResponseWriter.Write(b)
}

// WriteHeader records the first code and calls ResponseWriter.WriteHeader
func (r *StatusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}

	r.ResponseWriter.WriteHeader(code)
}
