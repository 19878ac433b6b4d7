package handlers

import (
	"net/http"

	"github.com/kscout/runboard-api/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the API's http.Handler, including logging, CORS, and panic
// recovery. Metrics in gatherer are served on /metrics.
func NewRouter(baseHandler BaseHandler, gatherer prometheus.Gatherer) http.Handler {
	router := mux.NewRouter()
	router.Use(MetricsHandler{BaseHandler: baseHandler}.Middleware)

	// authed wraps a handler in an AuthHandler requiring role
	authed := func(role models.Role, handler http.Handler) http.Handler {
		return AuthHandler{
			BaseHandler: baseHandler.GetChild("auth"),
			Role:        role,
			Handler:     handler,
		}
	}

	// {{{1 Operations
	router.Handle("/health", HealthHandler{
		baseHandler.GetChild("health"),
	}).Methods("GET")

	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).
		Methods("GET")

	// {{{1 Submissions
	router.Handle("/api/submissions", authed(models.RoleContributor, CreateSubmissionHandler{
		baseHandler.GetChild("create submission"),
	})).Methods("POST")

	router.Handle("/api/submissions/mine", authed(models.RoleContributor, MySubmissionsHandler{
		baseHandler.GetChild("my submissions"),
	})).Methods("GET")

	router.Handle("/api/submissions/{id}", authed("", GetSubmissionHandler{
		baseHandler.GetChild("get submission"),
	})).Methods("GET")

	router.Handle("/api/submissions/{id}", authed(models.RoleContributor, UpdateSubmissionHandler{
		baseHandler.GetChild("update submission"),
	})).Methods("PUT")

	router.Handle("/api/submissions/{id}", authed(models.RoleContributor, DeleteSubmissionHandler{
		baseHandler.GetChild("delete submission"),
	})).Methods("DELETE")

	// {{{1 Manager reports
	router.Handle("/api/manager/runs", authed(models.RoleCoordinator, RunsHandler{
		baseHandler.GetChild("runs"),
	})).Methods("GET")

	router.Handle("/api/manager/teams", authed(models.RoleCoordinator, TeamsHandler{
		baseHandler.GetChild("teams"),
	})).Methods("GET")

	router.Handle("/api/manager/dashboard", authed(models.RoleCoordinator, DashboardHandler{
		baseHandler.GetChild("dashboard"),
	})).Methods("GET")

	router.Handle("/api/manager/stats", authed(models.RoleCoordinator, StatsHandler{
		baseHandler.GetChild("stats"),
	})).Methods("GET")

	// {{{1 Profile
	router.Handle("/api/profile", authed("", ProfileHandler{
		baseHandler.GetChild("profile"),
	})).Methods("GET")

	router.Handle("/api/profile", authed(models.RoleContributor, UpdateProfileHandler{
		baseHandler.GetChild("update profile"),
	})).Methods("PUT")

	// {{{1 CORS pre-flight
	router.Methods("OPTIONS").Handler(PreFlightOptionsHandler{
		BaseHandler: baseHandler.GetChild("pre-flight options"),
		Router:      router,
	})

	// {{{1 Middleware
	return PanicHandler{
		BaseHandler: baseHandler.GetChild("panic"),
		Handler: ReqLoggerHandler{
			BaseHandler: baseHandler.GetChild("request"),
			Handler: CORSHandler{
				BaseHandler: baseHandler,
				Handler:     router,
			},
		},
	}
}
