package handlers

import (
	"net/http"

	"github.com/kscout/runboard-api/models"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// submissionID parses the id route variable
func submissionID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		return primitive.NilObjectID, models.NewValidationError("id",
			"must be a valid submission ID")
	}

	return id, nil
}

// submissionData is the payload of single submission responses
type submissionData struct {
	Submission models.Submission `json:"submission"`
}

// CreateSubmissionHandler files a new run for the authenticated contributor
type CreateSubmissionHandler struct {
	BaseHandler
}

// ServeHTTP implements http.Handler
func (h CreateSubmissionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var input models.SubmissionInput
	if err := h.ParseJSON(r, &input); err != nil {
		h.RespondError(w, r, err)
		return
	}

	sub, err := h.Submissions.Create(r.Context(), mustActor(r), input)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	h.Metrics.SubmissionsWrittenTotal.WithLabelValues("create").Inc()

	h.RespondData(w, http.StatusCreated, "Submission created successfully",
		submissionData{Submission: *sub})
}

// GetSubmissionHandler returns one submission the actor may read
type GetSubmissionHandler struct {
	BaseHandler
}

// ServeHTTP implements http.Handler
func (h GetSubmissionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := submissionID(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	sub, err := h.Submissions.GetByID(r.Context(), mustActor(r), id)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	h.RespondData(w, http.StatusOK, "", submissionData{Submission: *sub})
}

// UpdateSubmissionHandler changes one of the contributor's own submissions
type UpdateSubmissionHandler struct {
	BaseHandler
}

// ServeHTTP implements http.Handler
func (h UpdateSubmissionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := submissionID(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	var changes models.SubmissionChanges
	if err := h.ParseJSON(r, &changes); err != nil {
		h.RespondError(w, r, err)
		return
	}

	sub, err := h.Submissions.Update(r.Context(), mustActor(r), id, changes)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	h.Metrics.SubmissionsWrittenTotal.WithLabelValues("update").Inc()

	h.RespondData(w, http.StatusOK, "Submission updated successfully",
		submissionData{Submission: *sub})
}

// DeleteSubmissionHandler removes one of the contributor's own submissions
type DeleteSubmissionHandler struct {
	BaseHandler
}

// ServeHTTP implements http.Handler
func (h DeleteSubmissionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := submissionID(r)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	if err := h.Submissions.Delete(r.Context(), mustActor(r), id); err != nil {
		h.RespondError(w, r, err)
		return
	}

	h.Metrics.SubmissionsWrittenTotal.WithLabelValues("delete").Inc()

	h.RespondData(w, http.StatusOK, "Submission deleted successfully", nil)
}
