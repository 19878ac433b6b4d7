package handlers

import (
	"net/http"

	"github.com/kscout/runboard-api/metrics"
	"github.com/kscout/runboard-api/parsing"
)

// MaxDashboardDays is the longest dashboard window a caller may ask for
const MaxDashboardDays = 365

// observeReport records the duration of a report query
func (h BaseHandler) observeReport(report string, timer metrics.Timer, err error) {
	timer.Finish(h.Metrics.ReportQueryDurationsMilliseconds.WithLabelValues(report,
		metrics.Successful(err)))
}

// RunsHandler lists a coordinator's runs on one date.
//
// Query parameters:
//
//	date: YYYY-MM-DD, required
//	team: optional team label
type RunsHandler struct {
	BaseHandler
}

// ServeHTTP implements http.Handler
func (h RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	timer := h.Metrics.StartTimer()
	report, err := h.Reports.RunsForDate(r.Context(), mustActor(r).ID, query.Get("date"),
		query.Get("team"))
	h.observeReport("runs", timer, err)

	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	h.RespondData(w, http.StatusOK, "", report)
}

// TeamsHandler lists a coordinator's teams with their leads
type TeamsHandler struct {
	BaseHandler
}

// ServeHTTP implements http.Handler
func (h TeamsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	timer := h.Metrics.StartTimer()
	report, err := h.Reports.Teams(r.Context(), mustActor(r).ID)
	h.observeReport("teams", timer, err)

	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	h.RespondData(w, http.StatusOK, "", report)
}

// DashboardHandler summarizes a trailing window for a coordinator.
//
// Query parameters:
//
//	days: window length, defaults to the configured dashboard days
type DashboardHandler struct {
	BaseHandler
}

// ServeHTTP implements http.Handler
func (h DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	days, err := parsing.ParsePositiveInt("days", r.URL.Query().Get("days"),
		h.Cfg.DashboardDays, MaxDashboardDays)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	timer := h.Metrics.StartTimer()
	dash, err := h.Reports.DashboardSummary(r.Context(), mustActor(r).ID, days)
	h.observeReport("dashboard", timer, err)

	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	h.RespondData(w, http.StatusOK, "", dash)
}

// StatsHandler breaks down a coordinator's results over a trailing period.
//
// Query parameters:
//
//	period: week, month, quarter, or year, defaults to week
type StatsHandler struct {
	BaseHandler
}

// ServeHTTP implements http.Handler
func (h StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	timer := h.Metrics.StartTimer()
	stats, err := h.Reports.PeriodStats(r.Context(), mustActor(r).ID, r.URL.Query().Get("period"))
	h.observeReport("stats", timer, err)

	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	h.RespondData(w, http.StatusOK, "", stats)
}
