package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/ristopoint/internal/datastore"
	"github.com/iudanet/ristopoint/internal/models"
	"github.com/iudanet/ristopoint/internal/server/auth"
	"github.com/iudanet/ristopoint/internal/server/ratelimit"
	"github.com/iudanet/ristopoint/internal/server/session"
	"github.com/iudanet/ristopoint/pkg/api"
)

const (
	testLogin    = "admin"
	testPassword = "password-segreta"
	testSalt     = "test-salt"
)

func newTestAdminHandler(t *testing.T) *AdminHandler {
	t.Helper()

	hash, err := auth.HashPassword(testPassword, testSalt)
	require.NoError(t, err)

	logger := setupTestLogger()
	dir := t.TempDir()

	store := datastore.NewStore(filepath.Join(dir, "site-data.json"), logger)
	require.NoError(t, store.Load())

	return NewAdminHandler(
		logger,
		&models.Credential{Login: testLogin, Salt: testSalt, Hash: hash},
		ratelimit.NewDefault(),
		session.NewStore(session.DefaultTTL, logger),
		store,
		filepath.Join(dir, "uploads"),
		8*1024*1024,
	)
}

func loginRequest(t *testing.T, login, password string) *http.Request {
	t.Helper()
	body, err := json.Marshal(api.LoginRequest{Login: login, Password: password})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// doLogin выполняет успешный вход и возвращает cookie сессии и CSRF токен.
func doLogin(t *testing.T, handler *AdminHandler) (*http.Cookie, string) {
	t.Helper()

	w := httptest.NewRecorder()
	handler.Login(w, loginRequest(t, testLogin, testPassword))
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.LoginResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.True(t, resp.Authenticated)
	require.NotEmpty(t, resp.CSRFToken)

	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	return sessionCookie, resp.CSRFToken
}

func TestAdminHandler_Login_Success(t *testing.T) {
	handler := newTestAdminHandler(t)

	w := httptest.NewRecorder()
	handler.Login(w, loginRequest(t, testLogin, testPassword))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.LoginResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Authenticated)
	assert.NotEmpty(t, resp.CSRFToken)

	cookies := w.Result().Cookies()
	names := make(map[string]string)
	for _, c := range cookies {
		names[c.Name] = c.Value
	}
	assert.NotEmpty(t, names[SessionCookieName])
	assert.Equal(t, resp.CSRFToken, names[CSRFCookieName])
}

func TestAdminHandler_Login_WrongPassword(t *testing.T) {
	handler := newTestAdminHandler(t)

	w := httptest.NewRecorder()
	handler.Login(w, loginRequest(t, testLogin, "sbagliata"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestAdminHandler_Login_WrongLogin(t *testing.T) {
	handler := newTestAdminHandler(t)

	w := httptest.NewRecorder()
	handler.Login(w, loginRequest(t, "intruso", testPassword))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminHandler_Login_CrossOrigin(t *testing.T) {
	handler := newTestAdminHandler(t)

	req := loginRequest(t, testLogin, testPassword)
	req.Header.Set("Origin", "http://evil.example")

	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminHandler_Login_InvalidJSON(t *testing.T) {
	handler := newTestAdminHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader([]byte("{broken")))
	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_Login_LockoutAfterRepeatedFailures(t *testing.T) {
	handler := newTestAdminHandler(t)

	for i := 0; i < ratelimit.DefaultMaxAttempts; i++ {
		w := httptest.NewRecorder()
		handler.Login(w, loginRequest(t, testLogin, "sbagliata"))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i+1)
	}

	// после порога даже верный пароль получает 429
	w := httptest.NewRecorder()
	handler.Login(w, loginRequest(t, testLogin, testPassword))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestAdminHandler_Login_SuccessClearsFailures(t *testing.T) {
	handler := newTestAdminHandler(t)

	for i := 0; i < ratelimit.DefaultMaxAttempts-1; i++ {
		w := httptest.NewRecorder()
		handler.Login(w, loginRequest(t, testLogin, "sbagliata"))
	}

	w := httptest.NewRecorder()
	handler.Login(w, loginRequest(t, testLogin, testPassword))
	require.Equal(t, http.StatusOK, w.Code)

	// счетчик сброшен, новые неудачи снова начинают с нуля
	for i := 0; i < ratelimit.DefaultMaxAttempts-1; i++ {
		w := httptest.NewRecorder()
		handler.Login(w, loginRequest(t, testLogin, "sbagliata"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestAdminHandler_Session_Unauthenticated(t *testing.T) {
	handler := newTestAdminHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	w := httptest.NewRecorder()
	handler.Session(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.SessionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Authenticated)
	assert.Empty(t, resp.CSRFToken)
}

func TestAdminHandler_Session_Authenticated(t *testing.T) {
	handler := newTestAdminHandler(t)
	cookie, csrfToken := doLogin(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler.Session(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.SessionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Authenticated)
	assert.Equal(t, testLogin, resp.Login)
	assert.Equal(t, csrfToken, resp.CSRFToken)
	assert.Positive(t, resp.ExpiresAt)
}

func TestAdminHandler_Logout(t *testing.T) {
	handler := newTestAdminHandler(t)
	cookie, csrfToken := doLogin(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	req.AddCookie(cookie)
	req.Header.Set(CSRFHeader, csrfToken)
	w := httptest.NewRecorder()
	handler.Logout(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// сессия уничтожена
	check := httptest.NewRequest(http.MethodGet, "/api/admin/session", nil)
	check.AddCookie(cookie)
	wCheck := httptest.NewRecorder()
	handler.Session(wCheck, check)

	var resp api.SessionResponse
	require.NoError(t, json.NewDecoder(wCheck.Body).Decode(&resp))
	assert.False(t, resp.Authenticated)
}

func TestAdminHandler_Logout_RequiresCSRF(t *testing.T) {
	handler := newTestAdminHandler(t)
	cookie, _ := doLogin(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler.Logout(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminHandler_GetData_RequiresSession(t *testing.T) {
	handler := newTestAdminHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/data", nil)
	w := httptest.NewRecorder()
	handler.GetData(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminHandler_GetData(t *testing.T) {
	handler := newTestAdminHandler(t)
	cookie, csrfToken := doLogin(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/data", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler.GetData(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.DataResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Data.Regions)
	assert.Equal(t, csrfToken, resp.CSRFToken)
}

func TestAdminHandler_PutData_RequiresCSRF(t *testing.T) {
	handler := newTestAdminHandler(t)
	cookie, _ := doLogin(t, handler)

	body := []byte(`{"data":{"regions":[]}}`)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/data", bytes.NewReader(body))
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler.PutData(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminHandler_PutData_SavesNormalized(t *testing.T) {
	handler := newTestAdminHandler(t)
	cookie, csrfToken := doLogin(t, handler)

	body := []byte(`{"data":{"regions":[{"activePoints":[{"stars":99}]}]}}`)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/data", bytes.NewReader(body))
	req.AddCookie(cookie)
	req.Header.Set(CSRFHeader, csrfToken)
	w := httptest.NewRecorder()
	handler.PutData(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.DataResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.OK)
	require.Len(t, resp.Data.Regions, 1)
	assert.Equal(t, "regione-1", resp.Data.Regions[0].ID)
	assert.Equal(t, 3, resp.Data.Regions[0].ActivePoints[0].Stars)

	// документ реально сохранен
	current := handler.store.Current()
	assert.Equal(t, resp.Data, current)
}

func TestAdminHandler_PutData_RejectsNonObject(t *testing.T) {
	handler := newTestAdminHandler(t)
	cookie, csrfToken := doLogin(t, handler)

	tests := []struct {
		name string
		body string
	}{
		{"data is string", `{"data":"testo"}`},
		{"data is number", `{"data":42}`},
		{"data missing", `{}`},
		{"data is null", `{"data":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/admin/data", bytes.NewReader([]byte(tt.body)))
			req.AddCookie(cookie)
			req.Header.Set(CSRFHeader, csrfToken)
			w := httptest.NewRecorder()
			handler.PutData(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAdminHandler_PutData_ArrayNormalizedToDefaults(t *testing.T) {
	handler := newTestAdminHandler(t)
	cookie, csrfToken := doLogin(t, handler)

	// массив — валидный JSON-объект в широком смысле: нормализация
	// приводит его к дефолтному документу
	req := httptest.NewRequest(http.MethodPut, "/api/admin/data",
		bytes.NewReader([]byte(`{"data":[1,2,3]}`)))
	req.AddCookie(cookie)
	req.Header.Set(CSRFHeader, csrfToken)
	w := httptest.NewRecorder()
	handler.PutData(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.DataResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, datastore.DefaultDocument(), resp.Data)
	assert.Equal(t, datastore.DefaultDocument(), handler.store.Current())
}

func TestAdminHandler_PutData_BodyTooLarge(t *testing.T) {
	handler := newTestAdminHandler(t)
	cookie, csrfToken := doLogin(t, handler)

	big := bytes.Repeat([]byte("a"), BodyLimitBytes+1)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/data", bytes.NewReader(big))
	req.AddCookie(cookie)
	req.Header.Set(CSRFHeader, csrfToken)
	w := httptest.NewRecorder()
	handler.PutData(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAdminHandler_Reset(t *testing.T) {
	handler := newTestAdminHandler(t)
	cookie, csrfToken := doLogin(t, handler)

	// сначала затираем документ
	body := []byte(`{"data":{"regions":[]}}`)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/data", bytes.NewReader(body))
	req.AddCookie(cookie)
	req.Header.Set(CSRFHeader, csrfToken)
	w := httptest.NewRecorder()
	handler.PutData(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, handler.store.Current().Regions)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/reset", nil)
	req.AddCookie(cookie)
	req.Header.Set(CSRFHeader, csrfToken)
	w = httptest.NewRecorder()
	handler.Reset(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, datastore.DefaultDocument(), handler.store.Current())
}
