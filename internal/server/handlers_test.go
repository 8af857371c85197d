package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/types"
)

// schemaInvoker dispatches canned responses by schema name, in call order
// per schema.
type schemaInvoker struct {
	responses map[string][]response
	served    map[string]int
}

type response struct {
	payload string
	err     error
}

func newSchemaInvoker() *schemaInvoker {
	return &schemaInvoker{
		responses: map[string][]response{},
		served:    map[string]int{},
	}
}

func (s *schemaInvoker) on(schema string, r response) {
	s.responses[schema] = append(s.responses[schema], r)
}

func (s *schemaInvoker) InvokeJSON(_ context.Context, _ llm.ModelTier, _, schemaName string, dest any) error {
	queue := s.responses[schemaName]
	i := s.served[schemaName]
	if i >= len(queue) {
		return fmt.Errorf("unexpected %s call %d", schemaName, i)
	}
	s.served[schemaName]++
	if queue[i].err != nil {
		return queue[i].err
	}
	return json.Unmarshal([]byte(queue[i].payload), dest)
}

func (s *schemaInvoker) calls(schema string) int { return s.served[schema] }

func newTestServer(t *testing.T, inv llm.Caller) *Server {
	t.Helper()
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("JWT_SECRET", "")

	srv, err := New(Config{
		Port: 0,
		Matching: config.Config{
			TopMatches:     10,
			QuickRankBatch: 50,
		},
	}, inv, nil)
	require.NoError(t, err)
	t.Cleanup(srv.rateLimiter.Stop)
	return srv
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, req)
	return w
}

func testProfileJSON() string {
	return `{"name": "Jane", "skills": ["Go", "SQL"]}`
}

func testJobJSON(id int) string {
	return fmt.Sprintf(`{
		"job": {"id": "%d", "Title": "Role %d", "JobDescription": "Build things."},
		"company": {"CompanyName": "Acme"}
	}`, id, id)
}

const skillsPayload = `{"hard_skills": ["Go"], "soft_skills": ["Teamwork"]}`
const gapPayload = `{
	"matched_skills": ["Go"],
	"missing_required_skills": ["Kubernetes"],
	"suggested_learning_path": ["Learn K8s"],
	"learning_resources": [{"name": "CKA", "url": "https://example.com/cka"}]
}`

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, newSchemaInvoker())

	w := doRequest(srv, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHandleMatch_FullRun(t *testing.T) {
	inv := newSchemaInvoker()
	inv.on("extracted_skills", response{payload: skillsPayload})
	inv.on("extracted_skills", response{payload: skillsPayload})
	inv.on("matches", response{payload: `[
		{"job_id": "1", "match_score": 0.5, "reasoning": "ok"},
		{"job_id": "2", "match_score": 0.8, "reasoning": "strong"}
	]`})
	inv.on("gap_result", response{payload: gapPayload})
	inv.on("gap_result", response{payload: gapPayload})
	inv.on("review_outcome", response{payload: `{"warnings": [], "flagged_job_ids": []}`})
	srv := newTestServer(t, inv)

	body := fmt.Sprintf(`{"profile": %s, "jobs": [%s, %s]}`,
		testProfileJSON(), testJobJSON(1), testJobJSON(2))
	w := doRequest(srv, http.MethodPost, "/match", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report types.FinalReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Len(t, report.RankedJobs, 2)
	assert.Equal(t, "2", report.RankedJobs[0].Posting.ID)
	assert.Len(t, report.SkillGaps, 2)
}

func TestHandleMatch_RequiresJobs(t *testing.T) {
	srv := newTestServer(t, newSchemaInvoker())

	w := doRequest(srv, http.MethodPost, "/match",
		fmt.Sprintf(`{"profile": %s, "jobs": []}`, testProfileJSON()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "jobs is required")
}

func TestHandleMatch_RequiresProfileOrResume(t *testing.T) {
	srv := newTestServer(t, newSchemaInvoker())

	w := doRequest(srv, http.MethodPost, "/match",
		fmt.Sprintf(`{"jobs": [%s]}`, testJobJSON(1)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "either profile or resume_text is required")
}

func TestHandleMatch_BuildsProfileFromResumeText(t *testing.T) {
	inv := newSchemaInvoker()
	inv.on("profile", response{payload: `{"name": "Jane", "skills": ["Go"]}`})
	inv.on("extracted_skills", response{payload: skillsPayload})
	inv.on("matches", response{payload: `[{"job_id": "1", "match_score": 0.7, "reasoning": "ok"}]`})
	inv.on("gap_result", response{payload: gapPayload})
	inv.on("review_outcome", response{payload: `{"warnings": [], "flagged_job_ids": []}`})
	srv := newTestServer(t, inv)

	body := fmt.Sprintf(`{"resume_text": "Jane. Go developer.", "jobs": [%s]}`, testJobJSON(1))
	w := doRequest(srv, http.MethodPost, "/match", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, inv.calls("profile"))
}

func TestHandleMatchStream_EmitsStageEvents(t *testing.T) {
	inv := newSchemaInvoker()
	inv.on("extracted_skills", response{payload: skillsPayload})
	inv.on("matches", response{payload: `[{"job_id": "1", "match_score": 0.7, "reasoning": "ok"}]`})
	inv.on("gap_result", response{payload: gapPayload})
	inv.on("review_outcome", response{payload: `{"warnings": [], "flagged_job_ids": []}`})
	srv := newTestServer(t, inv)

	body := fmt.Sprintf(`{"profile": %s, "jobs": [%s]}`, testProfileJSON(), testJobJSON(1))
	w := doRequest(srv, http.MethodPost, "/match/stream", body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := w.Body.String()
	assert.Contains(t, events, "event: stage")
	assert.Contains(t, events, `"stage":"normalizing"`)
	assert.Contains(t, events, `"stage":"finalized"`)
	assert.Contains(t, events, "event: complete")
	assert.Contains(t, events, `"ranked_jobs"`)
}

func TestHandleAnalyze_SingleJobSkipsRanking(t *testing.T) {
	inv := newSchemaInvoker()
	inv.on("extracted_skills", response{payload: skillsPayload})
	inv.on("gap_result", response{payload: gapPayload})
	srv := newTestServer(t, inv)

	body := fmt.Sprintf(`{"profile": %s, "job": %s}`, testProfileJSON(), testJobJSON(1))
	w := doRequest(srv, http.MethodPost, "/analyze", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report types.FinalReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Len(t, report.RankedJobs, 1)
	assert.Len(t, report.SkillGaps, 1)
	assert.Zero(t, inv.calls("matches"))
	assert.Zero(t, inv.calls("review_outcome"))
}

func TestHandleQuickRank(t *testing.T) {
	inv := newSchemaInvoker()
	inv.on("quick_rank", response{payload: `[
		{"job_id": "1", "match_score": 0.4},
		{"job_id": "2", "match_score": 0.9}
	]`})
	srv := newTestServer(t, inv)

	body := fmt.Sprintf(`{"profile": %s, "jobs": [%s, %s]}`,
		testProfileJSON(), testJobJSON(1), testJobJSON(2))
	w := doRequest(srv, http.MethodPost, "/rank", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Scores map[string]float64 `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]float64{"1": 0.4, "2": 0.9}, resp.Scores)
}

func TestRunEndpoints_WithoutStore(t *testing.T) {
	srv := newTestServer(t, newSchemaInvoker())

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/runs"},
		{http.MethodGet, "/runs/" + testUUID + ""},
		{http.MethodGet, "/runs/" + testUUID + "/report"},
		{http.MethodDelete, "/runs/" + testUUID + ""},
	} {
		w := doRequest(srv, tc.method, tc.path, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, "%s %s", tc.method, tc.path)
		assert.Contains(t, w.Body.String(), "persistence is not configured")
	}
}

const testUUID = "9f3b1c2a-0d4e-4f6a-8b7c-2d1e0f9a8b7c"

func TestProtectedRoutes_RequireTokenWhenSecretSet(t *testing.T) {
	inv := newSchemaInvoker()
	inv.on("extracted_skills", response{payload: skillsPayload})
	inv.on("matches", response{payload: `[{"job_id": "1", "match_score": 0.7, "reasoning": "ok"}]`})
	inv.on("gap_result", response{payload: gapPayload})
	inv.on("review_outcome", response{payload: `{"warnings": [], "flagged_job_ids": []}`})

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("JWT_SECRET", "test-secret")
	srv, err := New(Config{Matching: config.Config{TopMatches: 10, QuickRankBatch: 50}}, inv, nil)
	require.NoError(t, err)
	t.Cleanup(srv.rateLimiter.Stop)

	body := fmt.Sprintf(`{"profile": %s, "jobs": [%s]}`, testProfileJSON(), testJobJSON(1))

	// Without a token the route is rejected.
	w := doRequest(srv, http.MethodPost, "/match", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Health stays open.
	w = doRequest(srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// A minted token passes.
	token, err := srv.jwtService.GenerateToken("cli")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRateLimitHeaders(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "5")
	srv, err := New(Config{Matching: config.Config{TopMatches: 10, QuickRankBatch: 50}}, newSchemaInvoker(), nil)
	require.NoError(t, err)
	t.Cleanup(srv.rateLimiter.Stop)

	w := doRequest(srv, http.MethodGet, "/runs", "")
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
}
