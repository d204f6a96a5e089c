package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-editor/backend/internal/editor"
	"campaign-editor/backend/internal/logging"
	"campaign-editor/backend/internal/services"
	"campaign-editor/backend/pkg/models"
)

// memoryBackend is an in-process stand-in for Chutney.
type memoryBackend struct {
	mu        sync.Mutex
	campaigns map[int64]*models.Campaign
	nextID    int64
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{campaigns: map[int64]*models.Campaign{}, nextID: 1}
}

func (m *memoryBackend) FindCampaign(_ context.Context, id int64) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, editor.ErrCampaignNotFound
	}
	return c.Clone(), nil
}

func (m *memoryBackend) CreateCampaign(_ context.Context, c *models.Campaign) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := c.Clone()
	id := m.nextID
	m.nextID++
	saved.ID = &id
	m.campaigns[id] = saved
	return saved.Clone(), nil
}

func (m *memoryBackend) UpdateCampaign(_ context.Context, c *models.Campaign) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[*c.ID] = c.Clone()
	return c.Clone(), nil
}

func (m *memoryBackend) ListScenarios(context.Context) ([]models.ScenarioIndex, error) {
	return []models.ScenarioIndex{
		{ID: "1", Title: "Login", Tags: []string{"smoke"}},
		{ID: "2", Title: "Logout"},
		{ID: "5-1", Title: "Transfer", Tags: []string{"smoke", "bank"}},
	}, nil
}

func (m *memoryBackend) ExecutableParameters(_ context.Context, id string) ([]models.KeyValue, error) {
	if id == "5-1" {
		return []models.KeyValue{{Key: "amount", Value: "10"}}, nil
	}
	return nil, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T, store Pinger) (*echo.Echo, *memoryBackend) {
	t.Helper()
	backend := newMemoryBackend()
	svc, err := services.NewSessionService(editor.Dependencies{
		Campaigns:  backend,
		Catalog:    backend,
		Parameters: backend,
	}, 0, logging.NewNop())
	require.NoError(t, err)

	h := NewHandler(svc, store, logging.NewNop())
	e := echo.New()
	e.GET("/health", echo.WrapHandler(http.HandlerFunc(h.HandleHealth)))
	RegisterHandlersWithBaseURL(e, h, "/api/v1")
	return e, backend
}

func do(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func openSession(t *testing.T, e *echo.Echo, body string) string {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/api/v1/sessions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[OpenSessionResponse](t, rec).SessionID
}

func TestHandleHealth(t *testing.T) {
	e, _ := newTestServer(t, nil)
	rec := do(t, e, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	status := decode[HealthStatus](t, rec)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "campaign-editor", status.Service)
	assert.Empty(t, status.Store)
}

func TestHandleHealth_StoreDown(t *testing.T) {
	e, _ := newTestServer(t, failingPinger{})
	rec := do(t, e, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	status := decode[HealthStatus](t, rec)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "unreachable", status.Store)
}

func TestSessionLifecycle(t *testing.T) {
	e, backend := newTestServer(t, nil)
	id := openSession(t, e, "")
	base := "/api/v1/sessions/" + id

	rec := do(t, e, http.MethodPatch, base+"/form", `{"title":"Payments","tags":"nightly, bank","scheduleTime":"07:45"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodPost, base+"/scenarios", `{"scenarioId":"5-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[editor.View](t, rec)
	assert.Equal(t, []models.KeyValue{{Key: "amount", Value: ""}}, view.Parameters)

	rec = do(t, e, http.MethodPut, base+"/parameters/amount", `{"value":"250"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodPost, base+"/submit", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[SubmitResponse](t, rec)
	assert.Equal(t, "/campaign/1/execution", resp.Redirect)
	assert.Empty(t, resp.LinkageError)

	saved, err := backend.FindCampaign(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Payments", saved.Title)
	assert.Equal(t, []string{"nightly", "bank"}, saved.Tags)
	assert.Equal(t, []string{"5-1"}, saved.ScenarioIDs)
	assert.Equal(t, map[string]string{"amount": "250"}, saved.Parameters)

	rec = do(t, e, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmit_ValidationProblem(t *testing.T) {
	e, _ := newTestServer(t, nil)
	id := openSession(t, e, "")

	rec := do(t, e, http.MethodPatch, "/api/v1/sessions/"+id+"/form", `{"scheduleTime":"7:45"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodPost, "/api/v1/sessions/"+id+"/submit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get(echo.HeaderContentType))
	problem := decode[ProblemDetails](t, rec)
	assert.Contains(t, problem.Errors, "title")
	assert.Contains(t, problem.Errors, "scheduleTime")
}

func TestOpenSession_UnknownCampaign(t *testing.T) {
	e, _ := newTestServer(t, nil)
	rec := do(t, e, http.MethodPost, "/api/v1/sessions", `{"campaignId":99}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Campaign not found", decode[ProblemDetails](t, rec).Title)
}

func TestOpenSession_ExistingCampaign(t *testing.T) {
	e, backend := newTestServer(t, nil)
	_, err := backend.CreateCampaign(context.Background(), &models.Campaign{
		Title:       "Old",
		ScenarioIDs: []string{"2", "gone"},
	})
	require.NoError(t, err)

	rec := do(t, e, http.MethodPost, "/api/v1/sessions", `{"campaignId":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decode[OpenSessionResponse](t, rec).View
	require.NotNil(t, view.CampaignID)
	assert.Equal(t, int64(1), *view.CampaignID)
	require.Len(t, view.Selected, 1)
	assert.Equal(t, "2", view.Selected[0].ID)
	assert.Len(t, view.Warnings, 1)
}

func TestUnknownSession(t *testing.T) {
	e, _ := newTestServer(t, nil)
	rec := do(t, e, http.MethodGet, "/api/v1/sessions/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Session not found", decode[ProblemDetails](t, rec).Title)
}

func TestAddScenario_Errors(t *testing.T) {
	e, _ := newTestServer(t, nil)
	id := openSession(t, e, "")

	rec := do(t, e, http.MethodPost, "/api/v1/sessions/"+id+"/scenarios", `{"scenarioId":"404"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown scenario", decode[ProblemDetails](t, rec).Title)

	rec = do(t, e, http.MethodPost, "/api/v1/sessions/"+id+"/scenarios", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodPut, "/api/v1/sessions/"+id+"/parameters/missing", `{"value":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveScenario(t *testing.T) {
	e, _ := newTestServer(t, nil)
	id := openSession(t, e, "")
	base := "/api/v1/sessions/" + id

	require.Equal(t, http.StatusOK, do(t, e, http.MethodPost, base+"/scenarios", `{"scenarioId":"1"}`).Code)
	require.Equal(t, http.StatusOK, do(t, e, http.MethodPost, base+"/scenarios", `{"scenarioId":"2"}`).Code)

	rec := do(t, e, http.MethodDelete, base+"/scenarios/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[editor.View](t, rec)
	require.Len(t, view.Selected, 1)
	assert.Equal(t, "2", view.Selected[0].ID)
}

func TestTagFilter(t *testing.T) {
	e, _ := newTestServer(t, nil)
	id := openSession(t, e, "")
	base := "/api/v1/sessions/" + id

	rec := do(t, e, http.MethodPost, base+"/tags/bank", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[editor.View](t, rec)
	require.Len(t, view.Scenarios, 1)
	assert.Equal(t, "5-1", view.Scenarios[0].ID)

	rec = do(t, e, http.MethodDelete, base+"/tags/bank", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[editor.View](t, rec).Scenarios, 3)
}

func TestDiscardSession(t *testing.T) {
	e, _ := newTestServer(t, nil)
	id := openSession(t, e, "")

	rec := do(t, e, http.MethodDelete, "/api/v1/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/campaign", decode[DiscardResponse](t, rec).Redirect)

	rec = do(t, e, http.MethodDelete, "/api/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSpecHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("url: {oktaIssuer}/v1/token\n"), 0o644))

	rec := httptest.NewRecorder()
	SpecHandler(path, "https://acme.okta.com/oauth2/default")(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "url: https://acme.okta.com/oauth2/default/v1/token\n", rec.Body.String())

	rec = httptest.NewRecorder()
	SpecHandler(filepath.Join(t.TempDir(), "missing.yaml"), "")(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSwaggerHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://editor.local/docs", nil)
	SwaggerHandler("https://acme.okta.com", "swagger-client")(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `clientId: "swagger-client"`)
	assert.Contains(t, body, "campaign:write")
	assert.Contains(t, body, "http://editor.local/docs/oauth2-redirect.html")
	assert.NotContains(t, body, "${")
}

func TestFail_StatusMapping(t *testing.T) {
	h := NewHandler(nil, nil, logging.NewNop())
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"submit in progress", editor.ErrSubmitInProgress, http.StatusConflict},
		{"parameters pending", editor.ErrParametersPending, http.StatusConflict},
		{"catalog not loaded", editor.ErrCatalogNotLoaded, http.StatusConflict},
		{"unknown parameter", editor.ErrUnknownParameter, http.StatusNotFound},
		{"save failed", &editor.SaveError{Message: "quota exceeded"}, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
			require.NoError(t, h.fail(c, tt.err))
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get(echo.HeaderContentType))
		})
	}
}
