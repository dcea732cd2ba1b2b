package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/ristopoint/internal/models"
	"github.com/iudanet/ristopoint/pkg/api"
)

// allowedUploadMime задает allow-list MIME типов и каноническое
// расширение для каждого.
var allowedUploadMime = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/quicktime": ".mov",
}

// knownUploadExtensions - расширения, допустимые как подсказка из
// исходного имени файла.
var knownUploadExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
	".gif": true, ".mp4": true, ".webm": true, ".mov": true,
}

var (
	base64Re   = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)
	fileNameRe = regexp.MustCompile(`[^\w.-]+`)
)

// UploadMedia обрабатывает POST /api/admin/upload-media: декодирует
// base64, проверяет allow-list и лимит размера, пишет файл через
// temp+rename и возвращает публичный URL.
func (h *AdminHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess := h.requireSession(w, r)
	if sess == nil {
		return
	}
	if !h.requireCSRF(w, r, sess) {
		return
	}

	// base64 расширяет данные примерно на треть, лимит тела с запасом.
	bodyLimit := h.uploadMax + h.uploadMax/2

	var req api.UploadRequest
	if err := decodeJSON(w, r, bodyLimit, &req); err != nil {
		h.writeBodyError(w, err)
		return
	}

	mimeType := strings.ToLower(strings.TrimSpace(req.MimeType))
	ext, allowed := allowedUploadMime[mimeType]
	if !allowed {
		writeError(h.logger, w, "unsupported media type", http.StatusBadRequest)
		return
	}

	rawBase64 := strings.TrimSpace(req.Base64)
	if rawBase64 == "" {
		writeError(h.logger, w, "missing media payload", http.StatusBadRequest)
		return
	}
	// data-URI префикс (data:image/png;base64,...) отбрасывается.
	if idx := strings.LastIndex(rawBase64, ","); idx >= 0 {
		rawBase64 = strings.TrimSpace(rawBase64[idx+1:])
	}
	if !base64Re.MatchString(rawBase64) {
		writeError(h.logger, w, "invalid base64 payload", http.StatusBadRequest)
		return
	}

	payload, err := base64.StdEncoding.DecodeString(rawBase64)
	if err != nil {
		payload, err = base64.RawStdEncoding.DecodeString(rawBase64)
	}
	if err != nil {
		writeError(h.logger, w, "invalid base64 payload", http.StatusBadRequest)
		return
	}
	if len(payload) == 0 {
		writeError(h.logger, w, "empty media payload", http.StatusBadRequest)
		return
	}
	if int64(len(payload)) > h.uploadMax {
		writeError(h.logger, w,
			"file too large, maximum "+strconv.FormatInt(h.uploadMax/(1024*1024), 10)+"MB",
			http.StatusRequestEntityTooLarge)
		return
	}

	if hintExt := resolveUploadExtension(mimeType, req.FileName); hintExt != "" {
		ext = hintExt
	}

	storageName := strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + uuid.NewString() + ext
	finalPath := filepath.Join(h.uploadsDir, storageName)

	if err := os.MkdirAll(h.uploadsDir, 0o750); err != nil {
		h.logger.ErrorContext(ctx, "failed to create uploads directory", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	tempPath := finalPath + ".tmp"
	if err := os.WriteFile(tempPath, payload, 0o600); err != nil {
		h.logger.ErrorContext(ctx, "failed to write upload", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		h.logger.ErrorContext(ctx, "failed to finalize upload", slog.Any("error", err))
		writeError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "media uploaded",
		slog.String("file", storageName),
		slog.Int("bytes", len(payload)))

	writeJSON(h.logger, w, api.UploadResponse{
		OK:        true,
		URL:       "/uploads/" + storageName,
		MediaType: mediaTypeFromMime(mimeType),
		FileName:  storageName,
		Bytes:     len(payload),
		CSRFToken: sess.CSRFToken,
	}, http.StatusOK)
}

// resolveUploadExtension возвращает каноническое расширение по MIME,
// иначе известное расширение из исходного имени, иначе пустую строку.
func resolveUploadExtension(mimeType, originalName string) string {
	if ext, ok := allowedUploadMime[mimeType]; ok {
		return ext
	}
	ext := strings.ToLower(filepath.Ext(sanitizeFileName(originalName)))
	if knownUploadExtensions[ext] {
		return ext
	}
	return ""
}

// sanitizeFileName оставляет от исходного имени только безопасные
// символы; используется исключительно как подсказка расширения.
func sanitizeFileName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "upload"
	}
	cleaned := fileNameRe.ReplaceAllString(trimmed, "_")
	runes := []rune(cleaned)
	if len(runes) > 120 {
		runes = runes[:120]
	}
	return string(runes)
}

// mediaTypeFromMime выводит тип медиа карточки из MIME.
func mediaTypeFromMime(mimeType string) string {
	switch {
	case mimeType == "image/gif":
		return models.MediaGif
	case strings.HasPrefix(mimeType, "video/"):
		return models.MediaVideo
	default:
		return models.MediaPhoto
	}
}
