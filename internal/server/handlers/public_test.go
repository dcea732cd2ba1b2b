package handlers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/ristopoint/internal/datastore"
	"github.com/iudanet/ristopoint/pkg/api"
)

func newTestPublicHandler(t *testing.T) *PublicHandler {
	t.Helper()
	logger := setupTestLogger()
	store := datastore.NewStore(filepath.Join(t.TempDir(), "site-data.json"), logger)
	require.NoError(t, store.Load())
	return NewPublicHandler(logger, store)
}

func TestPublicHandler_Health(t *testing.T) {
	handler := newTestPublicHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	handler.Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.OK)

	parsed, err := time.Parse(time.RFC3339, resp.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)
}

func TestPublicHandler_Data(t *testing.T) {
	handler := newTestPublicHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/public-data", nil)
	w := httptest.NewRecorder()
	handler.Data(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var resp api.DataResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, datastore.DefaultDocument(), resp.Data)
	assert.Empty(t, resp.CSRFToken, "public endpoint never leaks CSRF tokens")
}
