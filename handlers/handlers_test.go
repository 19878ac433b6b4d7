package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kscout/runboard-api/auth"
	"github.com/kscout/runboard-api/config"
	"github.com/kscout/runboard-api/metrics"
	"github.com/kscout/runboard-api/models"
	"github.com/kscout/runboard-api/reports"
	"github.com/kscout/runboard-api/scope"
	"github.com/kscout/runboard-api/store"
	"github.com/kscout/runboard-api/submissions"

	"github.com/Noah-Huppert/golog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// server is an API backed by in memory stores
type server struct {
	handler  http.Handler
	base     BaseHandler
	verifier auth.Verifier
	manager  models.User
	lead     models.User
	other    models.User
}

func newServer(t *testing.T) *server {
	ctx := context.Background()
	users := store.NewMemoryUsers()
	subs := store.NewMemorySubmissions()

	s := &server{}

	s.manager = models.User{Name: "Manager", Email: "manager@example.com", Membership: models.Coordinator{}}
	require.NoError(t, users.InsertUser(ctx, &s.manager))

	s.lead = models.User{Name: "Lead", Email: "lead@example.com",
		Membership: models.Contributor{Team: "qa", ManagerID: s.manager.ID}}
	require.NoError(t, users.InsertUser(ctx, &s.lead))

	s.other = models.User{Name: "Other", Email: "other@example.com",
		Membership: models.Contributor{Team: "qa", ManagerID: s.manager.ID}}
	require.NoError(t, users.InsertUser(ctx, &s.other))

	clock := func() time.Time {
		return now
	}
	resolver := scope.Resolver{Users: users}
	reg := prometheus.NewRegistry()

	s.verifier = auth.Verifier{Secret: []byte("test-secret"), Users: users}
	s.base = BaseHandler{
		Ctx:    ctx,
		Logger: golog.NewStdLogger("test").GetChild("handlers"),
		Cfg: &config.Config{
			StoreDriver:   config.StoreDriverMemory,
			DashboardDays: 7,
			PageLimit:     10,
			MaxPageLimit:  100,
		},
		Metrics:  metrics.NewMetrics(reg),
		Verifier: s.verifier,
		Submissions: submissions.Service{
			Submissions: subs,
			Users:       users,
			Scope:       resolver,
			Now:         clock,
		},
		Reports: reports.Engine{
			Submissions: subs,
			Scope:       resolver,
			Location:    time.UTC,
			Now:         clock,
		},
	}
	s.handler = NewRouter(s.base, reg)

	return s
}

// do sends a request as user, a nil user sends no token
func (s *server) do(t *testing.T, user *models.User, method, path string, body interface{}) (*httptest.ResponseRecorder, Response) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if user != nil {
		token, err := s.verifier.Issue(*user, time.Now(), time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var resp Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}

	return rec, resp
}

// data re-decodes a response's data into dest
func data(t *testing.T, resp Response, dest interface{}) {
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest))
}

// submissionBody is a create request with an errored section and a stale status
func submissionBody() map[string]interface{} {
	return map[string]interface{}{
		"testName":  "nightly",
		"status":    "passed",
		"timestamp": "2024-03-15T09:30:00Z",
		"sections": []map[string]interface{}{
			{"name": "login", "result": "passed", "subsections": []map[string]interface{}{
				{"name": "form", "result": "errored"},
			}},
		},
	}
}

// create files a submission as the lead and returns its ID
func (s *server) create(t *testing.T) string {
	rec, resp := s.do(t, &s.lead, "POST", "/api/submissions", submissionBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payload struct {
		Submission models.SubmissionRecord `json:"submission"`
	}
	data(t, resp, &payload)

	return payload.Submission.ID.Hex()
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	rec, _ := s.do(t, nil, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true, "data": {"ok": true, "storeDriver": "memory"}}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequiresToken(t *testing.T) {
	s := newServer(t)

	rec, resp := s.do(t, nil, "GET", "/api/submissions/mine", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.Success)

	req := httptest.NewRequest("GET", "/api/submissions/mine", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateSubmission(t *testing.T) {
	s := newServer(t)

	rec, resp := s.do(t, &s.lead, "POST", "/api/submissions", submissionBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)

	var payload struct {
		Submission models.SubmissionRecord `json:"submission"`
	}
	data(t, resp, &payload)

	assert.Equal(t, models.OutcomeErrored, payload.Submission.Status)
	assert.Equal(t, "qa", payload.Submission.Team)
	assert.Equal(t, s.manager.ID, payload.Submission.ManagerID)
	assert.Equal(t, []models.Subsection{{Name: "form", Result: models.OutcomeErrored}},
		payload.Submission.Sections[0].Subsections)
}

func TestCreateSubmissionRoles(t *testing.T) {
	s := newServer(t)

	rec, resp := s.do(t, &s.manager, "POST", "/api/submissions", submissionBody())
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, resp.Success)
}

func TestCreateSubmissionValidation(t *testing.T) {
	s := newServer(t)

	rec, resp := s.do(t, &s.lead, "POST", "/api/submissions", map[string]interface{}{
		"testName": "",
		"sections": []map[string]interface{}{{"name": "s"}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	paths := []string{}
	for _, f := range resp.Errors {
		paths = append(paths, f.Field)
	}
	assert.ElementsMatch(t, []string{"testName", "sections[0].result"}, paths)

	rec, _ = s.do(t, &s.lead, "POST", "/api/submissions", map[string]interface{}{
		"testName": "bad label",
		"sections": []map[string]interface{}{{"name": "s", "result": "exploded"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmissionOwnership(t *testing.T) {
	s := newServer(t)
	id := s.create(t)

	rec, _ := s.do(t, &s.lead, "GET", "/api/submissions/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, &s.manager, "GET", "/api/submissions/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp := s.do(t, &s.other, "GET", "/api/submissions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "submission not found or access denied", resp.Message)

	rec, _ = s.do(t, &s.other, "PUT", "/api/submissions/"+id, map[string]string{"testName": "mine now"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, &s.other, "DELETE", "/api/submissions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, &s.lead, "GET", "/api/submissions/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteSubmission(t *testing.T) {
	s := newServer(t)
	id := s.create(t)

	rec, resp := s.do(t, &s.lead, "PUT", "/api/submissions/"+id, map[string]interface{}{
		"sections": []map[string]interface{}{{"name": "only", "result": "skipped"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload struct {
		Submission models.SubmissionRecord `json:"submission"`
	}
	data(t, resp, &payload)
	assert.Equal(t, models.OutcomeSkipped, payload.Submission.Status)
	assert.Equal(t, "nightly", payload.Submission.TestName)

	rec, _ = s.do(t, &s.lead, "DELETE", "/api/submissions/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, &s.lead, "GET", "/api/submissions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMySubmissions(t *testing.T) {
	s := newServer(t)
	s.create(t)
	s.create(t)

	rec, resp := s.do(t, &s.lead, "GET", "/api/submissions/mine?limit=1&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var listing submissions.Listing
	data(t, resp, &listing)
	assert.Len(t, listing.Submissions, 1)
	assert.Equal(t, submissions.Pagination{
		CurrentPage: 2,
		TotalPages:  2,
		TotalCount:  2,
		HasNextPage: false,
		HasPrevPage: true,
		Limit:       1,
	}, listing.Pagination)

	rec, _ = s.do(t, &s.lead, "GET", "/api/submissions/mine?limit=101", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = s.do(t, &s.other, "GET", "/api/submissions/mine", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data(t, resp, &listing)
	assert.Empty(t, listing.Submissions)
}

func TestManagerRuns(t *testing.T) {
	s := newServer(t)
	s.create(t)

	rec, resp := s.do(t, &s.manager, "GET", "/api/manager/runs?date=2024-03-15", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report struct {
		Team          string `json:"team"`
		TotalRuns     int    `json:"totalRuns"`
		AggregateData struct {
			StatusCounts map[string]int `json:"statusCounts"`
		} `json:"aggregateData"`
	}
	data(t, resp, &report)
	assert.Equal(t, "all", report.Team)
	assert.Equal(t, 1, report.TotalRuns)
	assert.Equal(t, map[string]int{"passed": 1, "failed": 0, "skipped": 0, "errored": 1},
		report.AggregateData.StatusCounts)

	rec, _ = s.do(t, &s.manager, "GET", "/api/manager/runs?date=15-03-2024", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, &s.manager, "GET", "/api/manager/runs", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, &s.lead, "GET", "/api/manager/runs?date=2024-03-15", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestManagerTeamsDashboardStats(t *testing.T) {
	s := newServer(t)
	s.create(t)

	rec, resp := s.do(t, &s.manager, "GET", "/api/manager/teams", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var teams reports.TeamsReport
	data(t, resp, &teams)
	assert.Equal(t, 1, teams.TotalTeams)
	assert.Equal(t, 2, teams.TotalTeamLeads)
	assert.Equal(t, []string{"qa"}, teams.SubmissionTeams)

	rec, resp = s.do(t, &s.manager, "GET", "/api/manager/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash struct {
		Summary reports.DashboardSummary `json:"summary"`
	}
	data(t, resp, &dash)
	assert.Equal(t, 1, dash.Summary.TotalSubmissions)
	assert.Equal(t, 7, dash.Summary.DateRange.Days)

	rec, _ = s.do(t, &s.manager, "GET", "/api/manager/dashboard?days=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = s.do(t, &s.manager, "GET", "/api/manager/stats?period=month", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Period  string `json:"period"`
		Overall struct {
			TotalOccurrences int `json:"totalOccurrences"`
		} `json:"overall"`
	}
	data(t, resp, &stats)
	assert.Equal(t, "month", stats.Period)
	assert.Equal(t, 2, stats.Overall.TotalOccurrences)
}

func TestProfile(t *testing.T) {
	s := newServer(t)

	rec, resp := s.do(t, &s.lead, "PUT", "/api/profile", map[string]string{"team": "platform"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload struct {
		User models.Profile `json:"user"`
	}
	data(t, resp, &payload)
	assert.Equal(t, "platform", payload.User.Team)

	rec, _ = s.do(t, &s.manager, "PUT", "/api/profile", map[string]string{"team": "platform"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp = s.do(t, &s.manager, "GET", "/api/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data(t, resp, &payload)
	assert.Equal(t, models.RoleCoordinator, payload.User.Role)
}

func TestPreFlight(t *testing.T) {
	s := newServer(t)

	rec, _ := s.do(t, nil, "OPTIONS", "/api/submissions", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	rec, _ = s.do(t, nil, "OPTIONS", "/api/submissions/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	rec, resp := s.do(t, nil, "OPTIONS", "/api/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)
}

func TestCORSOrigin(t *testing.T) {
	s := newServer(t)
	s.base.Cfg.CORSOrigin = "https://runboard.example.com"
	s.handler = NewRouter(s.base, prometheus.NewRegistry())

	rec, _ := s.do(t, nil, "GET", "/health", nil)
	assert.Equal(t, "https://runboard.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	assert.Equal(t, RequestIDHeader, rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestPanicHandler(t *testing.T) {
	s := newServer(t)

	h := PanicHandler{
		BaseHandler: s.base,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}),
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success": false, "message": "Internal server error"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)
	s.do(t, nil, "GET", "/health", nil)

	rec, _ := s.do(t, nil, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := ioutil.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `runboard_api_api_response_durations_milliseconds_count{method="GET",path="/health",status_code="200"} 1`)
}

// corruptSubmissions returns the raw load error of an unreadable record from FindOne
type corruptSubmissions struct {
	store.SubmissionStore
}

func (c corruptSubmissions) FindOne(ctx context.Context, filter store.SubmissionFilter) (*models.Submission, error) {
	return models.LoadSubmission(models.SubmissionRecord{ID: *filter.ID})
}

func TestCorruptSubmissionIsServerError(t *testing.T) {
	s := newServer(t)
	s.base.Submissions.Submissions = corruptSubmissions{s.base.Submissions.Submissions}
	s.handler = NewRouter(s.base, prometheus.NewRegistry())

	rec, resp := s.do(t, &s.lead, "GET", "/api/submissions/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", resp.Message)
	assert.Empty(t, resp.Errors)
}

func TestRespondErrorRetrievalWrapsValidation(t *testing.T) {
	s := newServer(t)

	rec := httptest.NewRecorder()
	s.base.RespondError(rec, httptest.NewRequest("GET", "/api/submissions/x", nil),
		models.RetrievalError{
			Op:  "find submission",
			Err: models.NewValidationError("sections", "at least one section is required"),
		})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success": false, "message": "Internal server error"}`, rec.Body.String())
}
