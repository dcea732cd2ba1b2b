package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/ristopoint/internal/datastore"
	"github.com/iudanet/ristopoint/pkg/api"
)

// PublicHandler обрабатывает неаутентифицированные запросы:
// health-check и публичный read-only документ для пикера и бота.
type PublicHandler struct {
	logger *slog.Logger
	store  *datastore.Store
}

// NewPublicHandler создает handler публичного API.
func NewPublicHandler(logger *slog.Logger, store *datastore.Store) *PublicHandler {
	return &PublicHandler{
		logger: logger,
		store:  store,
	}
}

// Health обрабатывает GET /api/health.
func (h *PublicHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, api.HealthResponse{
		OK:        true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// Data обрабатывает GET /api/public-data: единственный интерфейс,
// через который фронтенд-пикер читает документ.
func (h *PublicHandler) Data(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, api.DataResponse{
		Data: h.store.Current(),
	}, http.StatusOK)
}
