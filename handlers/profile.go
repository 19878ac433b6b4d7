package handlers

import (
	"net/http"

	"github.com/kscout/runboard-api/models"
)

// profileData is the payload of profile responses
type profileData struct {
	User models.Profile `json:"user"`
}

// ProfileHandler returns the authenticated user's profile
type ProfileHandler struct {
	BaseHandler
}

// ServeHTTP implements http.Handler
func (h ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Submissions.Profile(r.Context(), mustActor(r))
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	h.RespondData(w, http.StatusOK, "", profileData{User: *profile})
}

// UpdateProfileHandler renames the authenticated contributor's team
type UpdateProfileHandler struct {
	BaseHandler
}

// ServeHTTP implements http.Handler
func (h UpdateProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var changes models.ProfileChanges
	if err := h.ParseJSON(r, &changes); err != nil {
		h.RespondError(w, r, err)
		return
	}

	profile, err := h.Submissions.UpdateProfile(r.Context(), mustActor(r), changes)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	h.RespondData(w, http.StatusOK, "Profile updated successfully", profileData{User: *profile})
}
