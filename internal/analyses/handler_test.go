package analyses

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexguard-backend/internal/llm"
	"lexguard-backend/internal/shared/server/middleware"
)

func setupAnalysisRouter(t *testing.T, fake *fakeLLM) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := newTestService()
	h := NewHandler(&Generator{LLM: fake}, svc)

	r := gin.New()
	r.Use(middleware.Auth("development"))
	api := r.Group("/api/v1")
	h.RegisterRoutes(api)
	h.RegisterRecordRoutes(api)
	return r, svc
}

func doJSON(r *gin.Engine, method, path, guest string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if guest != "" {
		req.Header.Set("X-Guest-Id", guest)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestAnalyzeEndpoint(t *testing.T) {
	fake := &fakeLLM{content: validPayload}
	r, _ := setupAnalysisRouter(t, fake)

	resp := doJSON(r, http.MethodPost, "/api/v1/analyze", "g1", map[string]any{
		"text":          contractText,
		"documentTitle": "MSA",
		"userContext":   map[string]any{"role": "buyer"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var out struct {
		Analysis AnalysisResult `json:"analysis"`
		Model    string         `json:"model"`
		Status   string         `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, RiskHigh, out.Analysis.OverallRisk)
	assert.Equal(t, "gpt-4o-mini", out.Model)
	assert.Equal(t, "ok", out.Status)
}

func TestAnalyzeEndpointRequiresIdentity(t *testing.T) {
	fake := &fakeLLM{content: validPayload}
	r, _ := setupAnalysisRouter(t, fake)

	resp := doJSON(r, http.MethodPost, "/api/v1/analyze", "", map[string]any{"text": contractText})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Zero(t, fake.calls)
}

func TestAnalyzeEndpointEmptyTextNoProviderCall(t *testing.T) {
	fake := &fakeLLM{content: validPayload}
	r, _ := setupAnalysisRouter(t, fake)

	resp := doJSON(r, http.MethodPost, "/api/v1/analyze", "g1", map[string]any{"text": "", "documentTitle": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doJSON(r, http.MethodPost, "/api/v1/analyze", "g1", map[string]any{"text": "tiny"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Zero(t, fake.calls)
}

func TestAnalyzeEndpointMalformedBody(t *testing.T) {
	r, _ := setupAnalysisRouter(t, &fakeLLM{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "g1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAnalyzeEndpointProviderFailures(t *testing.T) {
	cases := []struct {
		kind   llm.ErrorKind
		status int
	}{
		{llm.KindStatus, http.StatusBadGateway},
		{llm.KindUnreachable, http.StatusBadGateway},
		{llm.KindCredentials, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			fake := &fakeLLM{err: &llm.ProviderError{Kind: tc.kind, StatusCode: 500, Body: "upstream secret detail"}}
			r, _ := setupAnalysisRouter(t, fake)

			resp := doJSON(r, http.MethodPost, "/api/v1/analyze", "g1", map[string]any{"text": contractText})
			assert.Equal(t, tc.status, resp.Code)
			assert.NotContains(t, resp.Body.String(), "upstream secret detail")
			assert.Contains(t, resp.Body.String(), "PROVIDER_ERROR")
		})
	}
}

func TestAnalysisRecordLifecycle(t *testing.T) {
	r, _ := setupAnalysisRouter(t, &fakeLLM{})

	resp := doJSON(r, http.MethodPost, "/api/v1/analyses", "owner", map[string]any{
		"sourceTitle": "NDA",
		"text":        contractText,
		"analysis":    map[string]any{"summary": "Mutual NDA.", "overallRisk": "low", "redFlags": []any{}},
		"model":       "gpt-4o-mini",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var created Record
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Equal(t, "guest:owner", created.UserID)
	assert.NotEmpty(t, created.DocFingerprint)

	resp = doJSON(r, http.MethodGet, "/api/v1/analyses/"+created.ID, "intruder", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = doJSON(r, http.MethodGet, "/api/v1/analyses/"+created.ID, "owner", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(r, http.MethodGet, "/api/v1/analyses", "owner", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var listed struct {
		Analyses []map[string]any `json:"analyses"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listed))
	require.Len(t, listed.Analyses, 1)
	assert.Equal(t, "NDA", listed.Analyses[0]["sourceTitle"])

	resp = doJSON(r, http.MethodDelete, "/api/v1/analyses/"+created.ID, "intruder", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = doJSON(r, http.MethodDelete, "/api/v1/analyses/"+created.ID, "owner", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"success":true}`, resp.Body.String())

	resp = doJSON(r, http.MethodGet, "/api/v1/analyses/"+created.ID, "owner", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSaveRequiresSummary(t *testing.T) {
	r, _ := setupAnalysisRouter(t, &fakeLLM{})
	resp := doJSON(r, http.MethodPost, "/api/v1/analyses", "owner", map[string]any{"sourceTitle": "NDA"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
