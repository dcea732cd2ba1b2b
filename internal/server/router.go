// Package server собирает HTTP поверхность: маршруты API, статику
// и жизненный цикл http.Server.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iudanet/ristopoint/internal/server/handlers"
	"github.com/iudanet/ristopoint/internal/server/middleware"
)

// NewRouter собирает все маршруты. Админ-эндпоинты защищаются внутри
// handlers (сессия + CSRF), здесь только композиция.
func NewRouter(
	logger *slog.Logger,
	admin *handlers.AdminHandler,
	public *handlers.PublicHandler,
	static *Static,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.LoggingWithSkip(logger, []string{"/api/health"}))

	r.Get("/api/health", public.Health)
	r.Get("/api/public-data", public.Data)

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", admin.Login)
		r.Post("/logout", admin.Logout)
		r.Get("/session", admin.Session)
		r.Get("/data", admin.GetData)
		r.Put("/data", admin.PutData)
		r.Post("/reset", admin.Reset)
		r.Post("/upload-media", admin.UploadMedia)
	})

	// Все остальное - статика; неизвестные /api/* пути получают JSON 404
	// внутри Static.
	r.NotFound(static.ServeHTTP)
	r.MethodNotAllowed(static.ServeHTTP)

	return r
}
