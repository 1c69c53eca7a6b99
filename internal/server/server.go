// Пакет server — HTTP-сервер REURB backend с graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/reurb-backend/internal/api/errors"
	"github.com/bigkaa/reurb-backend/internal/api/handlers"
	"github.com/bigkaa/reurb-backend/internal/api/middleware"
	"github.com/bigkaa/reurb-backend/internal/config"
	"github.com/bigkaa/reurb-backend/internal/domain/rbac"
)

// Server — HTTP-сервер REURB backend.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// Routes — обработчики, из которых собирается маршрутизатор.
type Routes struct {
	API     *handlers.APIHandler
	Health  *handlers.HealthHandler
	OpenAPI http.Handler
	Auth    *middleware.Authenticator
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, routes Routes) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(cfg, logger, routes),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает маршрутизатор chi.
// Публичные: /health/*, /metrics, /uploads/{fileName}, /api/v1/login,
// /api/v1/openapi.json. Остальное требует токен, администрирование — роль
// Administrador.
func NewRouter(cfg *config.Config, logger *slog.Logger, routes Routes) http.Handler {
	api := routes.API
	r := chi.NewRouter()

	// Глобальные middleware. CORS отвечает на preflight до аутентификации.
	r.Use(middleware.RequestID())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.NotFound(w, "Маршрут не найден")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.MethodNotAllowed(w, "Метод не поддерживается")
	})

	r.Get("/health/live", routes.Health.HealthLive)
	r.Get("/health/ready", routes.Health.HealthReady)
	r.Get("/metrics", routes.Health.GetMetrics)
	r.Get("/uploads/{fileName}", api.ServeUpload)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", api.Login)
		if routes.OpenAPI != nil {
			r.Method(http.MethodGet, "/openapi.json", routes.OpenAPI)
		}

		r.Group(func(r chi.Router) {
			r.Use(routes.Auth.Middleware())

			r.Get("/auth/me", api.Me)

			r.Get("/registrations", api.ListRegistrations)
			r.Post("/registrations", api.CreateRegistration)
			r.Get("/registrations/{id}", api.GetRegistration)
			r.Put("/registrations/{id}", api.UpdateRegistration)
			r.Delete("/registrations/{id}", api.DeleteRegistration)

			r.Get("/tax-estimate/{inscricao}", api.TaxEstimate)
			r.Post("/documents/{registrationId}", api.UploadDocument)
			r.Get("/reference-tables/{name}", api.ListReferenceEntries)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(rbac.RoleAdmin))

				r.Get("/users", api.ListUsers)
				r.Post("/users", api.CreateUser)
				r.Get("/users/{id}", api.GetUser)
				r.Put("/users/{id}", api.UpdateUser)
				r.Delete("/users/{id}", api.DeleteUser)

				r.Post("/reference-tables/{name}", api.CreateReferenceEntry)
				r.Delete("/reference-tables/{name}/{id}", api.DeleteReferenceEntry)

				r.Post("/import", api.ImportRegistrations)
			})
		})
	})

	return r
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
