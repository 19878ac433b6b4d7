package handlers

import (
	"net/http"
)

// healthData is the payload of a health check
type healthData struct {
	OK bool `json:"ok"`

	// StoreDriver is where the server keeps data
	StoreDriver string `json:"storeDriver"`
}

// HealthHandler reports that the server is up. It does not check the store.
type HealthHandler struct {
	BaseHandler
}

// ServeHTTP implements http.Handler
func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.RespondData(w, http.StatusOK, "", healthData{
		OK:          true,
		StoreDriver: h.Cfg.StoreDriver,
	})
}
