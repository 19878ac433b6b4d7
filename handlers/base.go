package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kscout/runboard-api/auth"
	"github.com/kscout/runboard-api/config"
	"github.com/kscout/runboard-api/metrics"
	"github.com/kscout/runboard-api/models"
	"github.com/kscout/runboard-api/reports"
	"github.com/kscout/runboard-api/submissions"

	"github.com/Noah-Huppert/golog"
)

// BaseHandler provides helper methods and commonly used variables for API endpoints to base
// their http.Handlers off
type BaseHandler struct {
	// Ctx is the application context
	Ctx context.Context

	// Logger logs information
	Logger golog.Logger

	// Cfg is the application configuration
	Cfg *config.Config

	// Metrics holds internal Prometheus metrics recorders
	Metrics metrics.Metrics

	// Verifier checks bearer tokens
	Verifier auth.Verifier

	// Submissions performs submission operations
	Submissions submissions.Service

	// Reports answers coordinator report queries
	Reports reports.Engine
}

// GetChild makes a child instance of the base handler with a prefix
func (h BaseHandler) GetChild(prefix string) BaseHandler {
	h.Logger = h.Logger.GetChild(prefix)

	return h
}

// Response is the envelope every API response is sent in
type Response struct {
	// Success is true when the request was fulfilled
	Success bool `json:"success"`

	// Message is a human readable summary
	Message string `json:"message,omitempty"`

	// Data is the response payload
	Data interface{} `json:"data,omitempty"`

	// Errors lists invalid input fields
	Errors []models.FieldError `json:"errors,omitempty"`
}

// RespondJSON sends an object as a JSON encoded response
func (h BaseHandler) RespondJSON(w http.ResponseWriter, status int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	if err := encoder.Encode(resp); err != nil {
		panic(fmt.Errorf("failed to encode response as JSON: %s", err.Error()))
	}
}

// RespondData sends data in a successful Response
func (h BaseHandler) RespondData(w http.ResponseWriter, status int, message string, data interface{}) {
	h.RespondJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ParseJSON parses a request body as JSON. Malformed bodies are a validation error.
func (h BaseHandler) ParseJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return models.NewValidationError("body", "must be valid JSON: %s", err.Error())
	}

	return nil
}
