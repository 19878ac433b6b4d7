package handlers

import (
	"net/http"

	"github.com/kscout/runboard-api/parsing"
)

// MySubmissionsHandler lists the authenticated contributor's submissions, newest first.
//
// Query parameters:
//
//	page: page number, starts at 1
//	limit: page size
//	search: optional text test names must contain
type MySubmissionsHandler struct {
	BaseHandler
}

// ServeHTTP implements http.Handler
func (h MySubmissionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := parsing.ParsePage(query.Get("page"), query.Get("limit"),
		h.Cfg.PageLimit, h.Cfg.MaxPageLimit)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	listing, err := h.Submissions.ListMine(r.Context(), mustActor(r), page, query.Get("search"))
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	h.RespondData(w, http.StatusOK, "", listing)
}
