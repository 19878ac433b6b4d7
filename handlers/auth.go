package handlers

import (
	"context"
	"net/http"

	"github.com/kscout/runboard-api/auth"
	"github.com/kscout/runboard-api/models"
)

// actorKey is the request context key the authenticated actor is stored under
type actorKey struct{}

// RequestActor returns the actor AuthHandler authenticated for r
func RequestActor(r *http.Request) (models.Actor, bool) {
	actor, ok := r.Context().Value(actorKey{}).(models.Actor)
	return actor, ok
}

// AuthHandler authenticates the bearer token of a request and optionally requires
// a role before running Handler
type AuthHandler struct {
	BaseHandler

	// Role required to run Handler, any role if empty
	Role models.Role

	// Handler to run with the actor in the request context
	Handler http.Handler
}

// ServeHTTP implements http.Handler
func (h AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	actor, err := h.Verifier.Verify(r.Context(), token)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	if len(h.Role) > 0 {
		if err := actor.Require(h.Role, r.Method+" "+r.URL.Path); err != nil {
			h.RespondError(w, r, err)
			return
		}
	}

	h.Handler.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
}

// mustActor returns the request's actor. Panics if the handler is not behind an
// AuthHandler.
func mustActor(r *http.Request) models.Actor {
	actor, ok := RequestActor(r)
	if !ok {
		panic("handler requires an authenticated actor, not wrapped in AuthHandler")
	}

	return actor
}
