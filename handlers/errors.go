package handlers

import (
	"errors"
	"net/http"

	"github.com/kscout/runboard-api/auth"
	"github.com/kscout/runboard-api/models"
)

// RespondError sends the Response matching err. Persistence failures and unexpected
// errors are logged and reported without detail, whatever they wrap.
func (h BaseHandler) RespondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		retrievalErr  models.RetrievalError
		validationErr *models.ValidationError
		authzErr      models.AuthorizationError
		notFoundErr   models.NotFoundError
		credentialErr auth.CredentialError
	)

	switch {
	case errors.As(err, &retrievalErr):
		h.respondInternal(w, r, err)

	case errors.As(err, &validationErr):
		h.RespondJSON(w, http.StatusBadRequest, Response{
			Message: "Validation failed",
			Errors:  validationErr.Fields,
		})

	case errors.Is(err, auth.ErrNoCredentials):
		h.RespondJSON(w, http.StatusUnauthorized, Response{
			Message: "Authentication required",
		})

	case errors.As(err, &credentialErr):
		h.RespondJSON(w, http.StatusUnauthorized, Response{
			Message: "Invalid or expired token",
		})

	case errors.As(err, &authzErr):
		h.RespondJSON(w, http.StatusForbidden, Response{
			Message: "Access denied: " + authzErr.Error(),
		})

	case errors.As(err, &notFoundErr):
		h.RespondJSON(w, http.StatusNotFound, Response{
			Message: notFoundErr.Error(),
		})

	default:
		h.respondInternal(w, r, err)
	}
}

// respondInternal logs err and sends a generic 500
func (h BaseHandler) respondInternal(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Errorf("failed to handle %s %s: %s", r.Method, r.URL.Path, err.Error())

	h.RespondJSON(w, http.StatusInternalServerError, Response{
		Message: "Internal server error",
	})
}
