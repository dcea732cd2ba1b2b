package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/iudanet/ristopoint/internal/datastore"
	"github.com/iudanet/ristopoint/internal/models"
	"github.com/iudanet/ristopoint/internal/server/auth"
	"github.com/iudanet/ristopoint/internal/server/ratelimit"
	"github.com/iudanet/ristopoint/internal/server/session"
	"github.com/iudanet/ristopoint/pkg/api"
)

// AdminHandler обрабатывает запросы админ-панели.
// Композиция ядра: credential store + rate limiter + session store +
// CSRF guard + datastore.
type AdminHandler struct {
	logger     *slog.Logger
	cred       *models.Credential
	limiter    *ratelimit.Limiter
	sessions   *session.Store
	store      *datastore.Store
	uploadsDir string
	uploadMax  int64
}

// NewAdminHandler создает handler админ-панели.
func NewAdminHandler(
	logger *slog.Logger,
	cred *models.Credential,
	limiter *ratelimit.Limiter,
	sessions *session.Store,
	store *datastore.Store,
	uploadsDir string,
	uploadMax int64,
) *AdminHandler {
	return &AdminHandler{
		logger:     logger,
		cred:       cred,
		limiter:    limiter,
		sessions:   sessions,
		store:      store,
		uploadsDir: uploadsDir,
		uploadMax:  uploadMax,
	}
}

// Login обрабатывает POST /api/admin/login.
// Порядок проверок фиксирован: same-origin -> rate limit -> credentials.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !isSameOrigin(r) {
		h.logger.WarnContext(ctx, "cross-origin login rejected",
			slog.String("origin", r.Header.Get("Origin")))
		writeError(h.logger, w, "invalid request origin", http.StatusForbidden)
		return
	}

	ip := clientIP(r)
	decision := h.limiter.Check(ip)
	if !decision.Allowed {
		retryAfter := max(1, decision.RetryAfter)
		h.logger.WarnContext(ctx, "login rate limited",
			slog.String("ip", ip),
			slog.Int("retry_after_s", retryAfter))
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeError(h.logger, w,
			"too many attempts, retry in "+strconv.Itoa(retryAfter)+"s",
			http.StatusTooManyRequests)
		return
	}

	var req api.LoginRequest
	if err := decodeJSON(w, r, BodyLimitBytes, &req); err != nil {
		h.writeBodyError(w, err)
		return
	}

	login := strings.TrimSpace(req.Login)
	if !auth.SecureCompare(login, h.cred.Login) ||
		!auth.VerifyPassword(req.Password, h.cred.Salt, h.cred.Hash) {
		h.limiter.RecordFailure(ip)
		h.logger.WarnContext(ctx, "login failed", slog.String("ip", ip))
		writeError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	h.limiter.Clear(ip)
	sess, err := h.sessions.Create(h.cred.Login, session.Meta{
		ClientIP:  ip,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create session", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "admin logged in", slog.String("ip", ip))

	setSessionCookies(w, r, sess, h.sessions.TTL())
	writeJSON(h.logger, w, api.LoginResponse{
		Authenticated: true,
		CSRFToken:     sess.CSRFToken,
	}, http.StatusOK)
}

// Logout обрабатывает POST /api/admin/logout.
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w, r)
	if sess == nil {
		return
	}
	if !h.requireCSRF(w, r, sess) {
		return
	}

	h.sessions.Destroy(sess.ID)
	clearSessionCookies(w, r)
	writeJSON(h.logger, w, api.OKResponse{OK: true}, http.StatusOK)
}

// Session обрабатывает GET /api/admin/session: состояние аутентификации
// без побочных эффектов (кроме скользящего продления срока сессии).
func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFromRequest(r)
	if sess == nil {
		writeJSON(h.logger, w, api.SessionResponse{Authenticated: false}, http.StatusOK)
		return
	}

	writeJSON(h.logger, w, api.SessionResponse{
		Authenticated: true,
		Login:         sess.Login,
		ExpiresAt:     sess.ExpiresAt.UnixMilli(),
		CSRFToken:     sess.CSRFToken,
	}, http.StatusOK)
}

// GetData обрабатывает GET /api/admin/data.
func (h *AdminHandler) GetData(w http.ResponseWriter, r *http.Request) {
	sess := h.requireSession(w, r)
	if sess == nil {
		return
	}

	writeJSON(h.logger, w, api.DataResponse{
		Data:      h.store.Current(),
		CSRFToken: sess.CSRFToken,
	}, http.StatusOK)
}

// PutData обрабатывает PUT /api/admin/data: кандидат-документ
// нормализуется и атомарно сохраняется (last-write-wins).
func (h *AdminHandler) PutData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess := h.requireSession(w, r)
	if sess == nil {
		return
	}
	if !h.requireCSRF(w, r, sess) {
		return
	}

	var req api.DataRequest
	if err := decodeJSON(w, r, BodyLimitBytes, &req); err != nil {
		h.writeBodyError(w, err)
		return
	}

	// Скаляры и null отклоняются, но массив проходит: нормализация
	// сведет его к дефолтному документу.
	switch req.Data.(type) {
	case map[string]any, []any:
	default:
		writeError(h.logger, w, "invalid payload", http.StatusBadRequest)
		return
	}

	saved, err := h.store.Save(datastore.Normalize(req.Data))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to persist document", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "document updated",
		slog.Int("regions", len(saved.Regions)))

	writeJSON(h.logger, w, api.DataResponse{
		OK:        true,
		Data:      saved,
		CSRFToken: sess.CSRFToken,
	}, http.StatusOK)
}

// Reset обрабатывает POST /api/admin/reset: возврат к дефолтному
// документу.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess := h.requireSession(w, r)
	if sess == nil {
		return
	}
	if !h.requireCSRF(w, r, sess) {
		return
	}

	saved, err := h.store.Reset()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to reset document", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "document reset to defaults")

	writeJSON(h.logger, w, api.DataResponse{
		OK:        true,
		Data:      saved,
		CSRFToken: sess.CSRFToken,
	}, http.StatusOK)
}

// sessionFromRequest разрешает сессию из cookie; nil если сессии нет
// или она истекла.
func (h *AdminHandler) sessionFromRequest(r *http.Request) *models.Session {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	return h.sessions.Resolve(cookie.Value)
}

// requireSession отвечает 401 и возвращает nil, если живой сессии нет.
func (h *AdminHandler) requireSession(w http.ResponseWriter, r *http.Request) *models.Session {
	sess := h.sessionFromRequest(r)
	if sess == nil {
		writeError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return nil
	}
	return sess
}

// requireCSRF отвечает 403 и возвращает false при отсутствующем или
// неверном CSRF токене.
func (h *AdminHandler) requireCSRF(w http.ResponseWriter, r *http.Request, sess *models.Session) bool {
	if !validateCSRF(r, sess) {
		h.logger.WarnContext(r.Context(), "CSRF validation failed",
			slog.String("path", r.URL.Path))
		writeError(h.logger, w, "invalid CSRF token", http.StatusForbidden)
		return false
	}
	return true
}

// writeBodyError переводит ошибки чтения тела в 413/400.
func (h *AdminHandler) writeBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(h.logger, w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	writeError(h.logger, w, "invalid request body", http.StatusBadRequest)
}
