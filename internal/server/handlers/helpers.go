// Package handlers реализует админ и публичный API поверх datastore,
// session store, rate limiter и credential store.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/iudanet/ristopoint/internal/models"
	"github.com/iudanet/ristopoint/internal/server/auth"
	"github.com/iudanet/ristopoint/pkg/api"
)

// Имена cookie админ-сессии.
const (
	SessionCookieName = "admin_session" // http-only, браузеру недоступна
	CSRFCookieName    = "admin_csrf"    // читается фронтендом для заголовка
)

// CSRFHeader - заголовок с CSRF токеном на мутирующих запросах.
const CSRFHeader = "x-csrf-token"

// BodyLimitBytes ограничивает обычные JSON тела запросов.
const BodyLimitBytes = 1_000_000

// errBodyTooLarge маркирует превышение лимита тела запроса.
var errBodyTooLarge = errors.New("request body too large")

// writeJSON сериализует ответ. Ошибка кодирования уже не может быть
// доставлена клиенту, поэтому только логируется.
func writeJSON(logger *slog.Logger, w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Referrer-Policy", "same-origin")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// writeError отправляет структурированную ошибку.
func writeError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	writeJSON(logger, w, api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}, statusCode)
}

// decodeJSON читает тело запроса с лимитом и разбирает JSON в dst.
// Пустое тело допустимо и оставляет dst нетронутым.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// clientIP возвращает ключ клиента для rate limiter: первый адрес из
// X-Forwarded-For, иначе адрес сокета без порта.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}

// isRequestSecure определяет, пришел ли запрос по HTTPS (напрямую
// или через reverse proxy).
func isRequestSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// isSameOrigin проверяет заголовок Origin против Host. Отсутствующий
// Origin (не-браузерные клиенты, same-origin GET) пропускается.
func isSameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	host := strings.TrimSpace(r.Host)
	if host == "" {
		return false
	}

	scheme := "http"
	if isRequestSecure(r) {
		scheme = "https"
	}
	return origin == scheme+"://"+host
}

// validateCSRF сравнивает заголовок с токеном сессии за константное
// время. Пустой заголовок и любое несовпадение закрывают запрос.
func validateCSRF(r *http.Request, session *models.Session) bool {
	headerToken := r.Header.Get(CSRFHeader)
	if headerToken == "" {
		return false
	}
	return auth.SecureCompare(headerToken, session.CSRFToken)
}

// setSessionCookies выставляет пару cookie: id сессии (http-only) и
// CSRF токен (доступен скрипту админки).
func setSessionCookies(w http.ResponseWriter, r *http.Request, session *models.Session, ttl time.Duration) {
	secure := isRequestSecure(r)
	maxAge := int(ttl / time.Second)

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    session.CSRFToken,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookies сбрасывает обе cookie при выходе.
func clearSessionCookies(w http.ResponseWriter, r *http.Request) {
	secure := isRequestSecure(r)

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
