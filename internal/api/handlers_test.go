//nolint:testpackage // Testing internal handler wiring
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clindocs/casenote-classifier/internal/config"
	"github.com/clindocs/casenote-classifier/internal/database"
	"github.com/clindocs/casenote-classifier/internal/dictionary"
	"github.com/clindocs/casenote-classifier/internal/domain"
	"github.com/clindocs/casenote-classifier/internal/processor"
)

type mockLogger struct{}

func (mockLogger) Debug(string, ...any) {}
func (mockLogger) Info(string, ...any)  {}
func (mockLogger) Warn(string, ...any)  {}
func (mockLogger) Error(string, ...any) {}

func newTestRouter(t *testing.T, withHistory bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg, err := dictionary.Load()
	require.NoError(t, err)

	pipeline, err := processor.NewPipeline(reg, config.CategorizerConfig{FalsePositiveFiltering: true}, nil, mockLogger{})
	require.NoError(t, err)

	batch := processor.NewRateLimitedProcessor(
		processor.NewBatchProcessor(pipeline, 2, mockLogger{}),
		1000, 1000, nil, mockLogger{},
	)

	var history *database.HistoryRepository
	historyCfg := config.HistoryConfig{Enabled: withHistory, DefaultLimit: 50, MaxLimit: 500}
	if withHistory {
		dbCfg := config.Default().Database
		dbCfg.Driver = "sqlite3"
		dbCfg.DSN = ":memory:"
		dbCfg.MaxConnections = 1

		db, err := database.Connect(dbCfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		history = database.NewHistoryRepository(db)
		require.NoError(t, history.EnsureSchema(context.Background()))
	}

	handler := NewHandler(pipeline, batch, reg, history, historyCfg, mockLogger{})
	router := gin.New()
	SetupRoutes(router, handler, nil)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCategorize(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/categorize", CategorizeRequest{
		Entry: &domain.NoteEntry{ID: "e1", Text: "He punched a nurse during the evening."},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CategorizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.Contains(t, resp.Result.ByDomain["behaviour"], "Physical Aggression")
	require.NotNil(t, resp.Result.Incidents)
	assert.Contains(t, resp.Result.Incidents.Labels, "Physical Aggression")
	assert.Contains(t, resp.Result.Entry.Categories, "Physical Aggression")
}

func TestCategorize_InvalidBody(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/categorize", gin.H{"nope": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategorize_DomainRestriction(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/categorize", CategorizeRequest{
		Entry:   &domain.NoteEntry{ID: "e1", Text: "Threats of violence after he punched a nurse."},
		Domains: []string{"risk"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CategorizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Result.ByDomain["risk"], "Violence")
	assert.NotContains(t, resp.Result.ByDomain, "behaviour", "unrequested domains stay out")
	assert.Nil(t, resp.Result.Incidents, "domain-restricted calls skip the incident matcher")
}

func TestCategorize_UnknownDomain(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/categorize", CategorizeRequest{
		Entry:   &domain.NoteEntry{ID: "e1", Text: "anything"},
		Domains: []string{"astrology"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategorize_FilterOverride(t *testing.T) {
	router := newTestRouter(t, false)
	off := false

	rec := doJSON(t, router, http.MethodPost, "/api/v1/categorize", CategorizeRequest{
		Entry:  &domain.NoteEntry{ID: "e1", Text: "There was no evidence of self-harm."},
		Filter: &off,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CategorizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Result.ByDomain["risk"], "Self-Harm",
		"per-request override must disable suppression")
}

func TestCategorizeBatch(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/categorize/batch", BatchCategorizeRequest{
		Entries: []*domain.NoteEntry{
			{ID: "e0", Text: "She absconded from escorted leave."},
			{ID: "e1", Text: "Quiet shift with good sleep overnight."},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp BatchCategorizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Matched)
	assert.Equal(t, 0, resp.Failed)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "e0", resp.Results[0].Entry.ID, "results keep input order")
}

func TestCategorizeBatch_EmptyRejected(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/categorize/batch", BatchCategorizeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIncidents(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/incidents", IncidentRequest{
		Text: "He kicked a patient in the lounge.",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Labels, "Physical Aggression")
}

func TestIncidentContext(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/incidents/context", IncidentRequest{
		Text: "He kicked a patient in the lounge.",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp IncidentContextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.Contains(t, resp.Result.Context, "[[kicked a patient]]")
}

func TestIncidentContext_NoMatch(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/incidents/context", IncidentRequest{
		Text: "Quiet shift with good sleep overnight.",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp IncidentContextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Result, "no match is a null result, not an error")
}

func TestListDictionaries(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/dictionaries", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DictionariesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Domains)
	assert.Contains(t, resp.Incidents, "Physical Aggression")
}

func TestGetDictionary(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/dictionaries/risk", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var set domain.KeywordSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	assert.Equal(t, "risk", set.Domain)
	assert.NotEmpty(t, set.Categories)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/dictionaries/astrology", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistory(t *testing.T) {
	router := newTestRouter(t, true)

	// A matching categorize call writes history.
	rec := doJSON(t, router, http.MethodPost, "/api/v1/categorize", CategorizeRequest{
		Entry: &domain.NoteEntry{ID: "e1", Text: "He punched a nurse during the evening."},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Records []*database.MatchRecord `json:"records"`
		Total   int                     `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Positive(t, resp.Total)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/history?limit=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory_Disabled(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/history", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(t, false)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dictionaries")
}
