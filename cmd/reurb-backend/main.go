// Точка входа REURB backend — сервер регуларизации земельных участков.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт администратора по умолчанию, сервисный слой и API handlers,
// запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/pflag"

	"github.com/bigkaa/reurb-backend/internal/api/handlers"
	"github.com/bigkaa/reurb-backend/internal/api/middleware"
	"github.com/bigkaa/reurb-backend/internal/api/openapi"
	"github.com/bigkaa/reurb-backend/internal/auth"
	"github.com/bigkaa/reurb-backend/internal/config"
	"github.com/bigkaa/reurb-backend/internal/database"
	"github.com/bigkaa/reurb-backend/internal/importer"
	"github.com/bigkaa/reurb-backend/internal/repository"
	"github.com/bigkaa/reurb-backend/internal/server"
	"github.com/bigkaa/reurb-backend/internal/service"
	"github.com/bigkaa/reurb-backend/internal/storage/filestore"
)

// defaultAdminPassword — пароль bootstrap-администратора, если не задан другой.
const defaultAdminPassword = "admin"

func main() {
	envFile := pflag.String("env-file", ".env", "путь к .env файлу")
	pflag.Parse()

	// 1. Загрузка конфигурации (.env + переменные окружения)
	if err := config.LoadDotEnv(*envFile); err != nil {
		slog.Error("Ошибка загрузки .env", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("REURB backend запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)
	if cfg.AllowsAnyOrigin() {
		logger.Warn("CORS разрешён для любого origin")
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Пароли и session tokens
	hasher, err := auth.NewPasswordHasher(auth.DefaultParams)
	if err != nil {
		logger.Error("Ошибка настройки хэширования паролей", slog.String("error", err.Error()))
		os.Exit(1)
	}
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	// 6. Хранилище загруженных документов
	files, err := filestore.New(cfg.UploadDir)
	if err != nil {
		logger.Error("Ошибка инициализации директории загрузок",
			slog.String("dir", cfg.UploadDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// 7. Варианты заголовков колонок для импорта
	aliases, err := importer.LoadAliases(cfg.ImportAliasesFile)
	if err != nil {
		logger.Error("Ошибка загрузки вариантов заголовков",
			slog.String("path", cfg.ImportAliasesFile),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// 8. Repositories
	userRepo := repository.NewUserRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	docRepo := repository.NewDocumentRepository(pool)
	refRepo := repository.NewReferenceRepository(pool)

	// 9. Services
	valuationSvc := service.NewValuationService(refRepo, cfg.ValuationCacheSize, cfg.ValuationCacheTTL, logger)
	authSvc := service.NewAuthService(userRepo, hasher, tokens, logger)
	usersSvc := service.NewUserService(userRepo, hasher, logger)
	registrationsSvc := service.NewRegistrationService(regRepo, docRepo, valuationSvc, files, logger)
	documentsSvc := service.NewDocumentService(regRepo, docRepo, files, cfg.MaxUploadSize, logger)
	referencesSvc := service.NewReferenceService(refRepo, valuationSvc, logger)
	importSvc := service.NewImportService(regRepo, aliases, logger)

	// 10. Администратор по умолчанию
	created, err := usersSvc.EnsureAdmin(ctx, cfg.AdminLogin, cfg.AdminPassword)
	if err != nil {
		logger.Error("Ошибка создания администратора", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if created {
		logger.Info("Создан администратор по умолчанию", slog.String("login", cfg.AdminLogin))
		if cfg.AdminPassword == defaultAdminPassword {
			logger.Warn("Администратор создан с паролем по умолчанию, смените его")
		}
	}

	// 11. topologymetrics — мониторинг PostgreSQL
	var dephealthSvc *service.DephealthService
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"reurb-backend",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 12. Health, OpenAPI и API handlers
	var deps handlers.DependencyReporter
	if dephealthSvc != nil {
		deps = dephealthSvc
	}
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool), deps)

	doc, err := openapi.Load(ctx)
	if err != nil {
		logger.Error("Некорректный OpenAPI-документ", slog.String("error", err.Error()))
		os.Exit(1)
	}
	docHandler, err := openapi.NewHandler(doc)
	if err != nil {
		logger.Error("Ошибка подготовки OpenAPI-документа", slog.String("error", err.Error()))
		os.Exit(1)
	}

	apiHandler := handlers.NewAPIHandler(
		authSvc,
		usersSvc,
		registrationsSvc,
		documentsSvc,
		referencesSvc,
		importSvc,
		logger,
	)

	// 13. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, server.Routes{
		API:     apiHandler,
		Health:  healthHandler,
		OpenAPI: docHandler,
		Auth:    middleware.NewAuthenticator(authSvc, logger),
	})
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 14. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("REURB backend остановлен")
}
