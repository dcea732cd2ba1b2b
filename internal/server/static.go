package server

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/iudanet/ristopoint/pkg/api"

	"github.com/goccy/go-json"
)

// Static отдает фронтенд (пикер и админку) и загруженные медиа.
// Тонкий коллаборатор ядра: никакой логики кроме маппинга путей,
// защиты от traversal и кеш-заголовков.
type Static struct {
	logger     *slog.Logger
	webDir     string
	uploadsDir string
}

// NewStatic создает обработчик статики с двумя корнями: webDir для
// фронтенда и uploadsDir для /uploads/*.
func NewStatic(logger *slog.Logger, webDir, uploadsDir string) *Static {
	return &Static{
		logger:     logger,
		webDir:     webDir,
		uploadsDir: uploadsDir,
	}
}

func (s *Static) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Неизвестные API маршруты не должны отдавать статику.
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.writeError(w, "endpoint not found", http.StatusNotFound)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	relativePath := r.URL.Path
	switch relativePath {
	case "/", "":
		relativePath = "/index.html"
	case "/admin", "/admin/":
		relativePath = "/admin.html"
	}

	root := s.webDir
	if strings.HasPrefix(relativePath, "/uploads/") {
		root = s.uploadsDir
		relativePath = strings.TrimPrefix(relativePath, "/uploads")
	}

	// path.Clean от корня отбрасывает любые ".." до резолва на диске.
	cleanPath := path.Clean("/" + relativePath)
	filePath := filepath.Join(root, filepath.FromSlash(cleanPath))
	if !isPathInside(root, filePath) {
		s.writeError(w, "access denied", http.StatusForbidden)
		return
	}

	info, err := os.Stat(filePath)
	if err == nil && info.IsDir() {
		filePath = filepath.Join(filePath, "index.html")
		info, err = os.Stat(filePath)
	}
	if err != nil || info.IsDir() {
		s.writeError(w, "resource not found", http.StatusNotFound)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Referrer-Policy", "same-origin")
	if strings.HasSuffix(filePath, ".html") {
		w.Header().Set("Cache-Control", "no-store")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=300")
	}

	http.ServeFile(w, r, filePath)
}

// writeError отдает JSON ошибку в формате API.
func (s *Static) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}); err != nil {
		s.logger.Error("failed to encode static error response", slog.Any("error", err))
	}
}

// isPathInside проверяет, что target не выходит за пределы baseDir.
func isPathInside(baseDir, target string) bool {
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	if abs == base {
		return true
	}
	return strings.HasPrefix(abs, base+string(filepath.Separator))
}
