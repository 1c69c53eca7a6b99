// Утилита пакетного импорта записей REURB из CSV/XLSX напрямую в PostgreSQL.
// Использует тот же разбор и ту же транзакцию, что и POST /api/v1/import:
// при ошибке в любой строке не сохраняется ни одна запись.
//
// Пример:
//
//	reurb-import --file cadastro.xlsx --aliases aliases.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bigkaa/reurb-backend/internal/config"
	"github.com/bigkaa/reurb-backend/internal/database"
	"github.com/bigkaa/reurb-backend/internal/importer"
	"github.com/bigkaa/reurb-backend/internal/repository"
	"github.com/bigkaa/reurb-backend/internal/service"
)

func main() {
	flags := pflag.NewFlagSet("reurb-import", pflag.ExitOnError)
	filePath := flags.StringP("file", "f", "", "файл CSV или XLSX для импорта (обязательно)")
	aliasesPath := flags.String("aliases", "", "YAML-файл дополнительных вариантов заголовков")
	envFile := flags.String("env-file", ".env", "путь к .env файлу")
	skipMigrate := flags.Bool("skip-migrate", false, "не применять миграции перед импортом")
	_ = flags.Parse(os.Args[1:])

	if err := run(*filePath, *aliasesPath, *envFile, *skipMigrate); err != nil {
		fmt.Fprintln(os.Stderr, "reurb-import:", err)
		os.Exit(1)
	}
}

func run(filePath, aliasesPath, envFile string, skipMigrate bool) error {
	if filePath == "" {
		return fmt.Errorf("флаг --file обязателен")
	}

	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.SetupLogger(cfg)

	if aliasesPath == "" {
		aliasesPath = cfg.ImportAliasesFile
	}
	aliases, err := importer.LoadAliases(aliasesPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !skipMigrate {
		if err := database.Migrate(cfg, logger); err != nil {
			return err
		}
	}

	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("ошибка открытия файла: %w", err)
	}
	defer f.Close()

	svc := service.NewImportService(repository.NewRegistrationRepository(pool), aliases, logger)
	result, err := svc.Import(ctx, f, filepath.Base(filePath))
	if err != nil {
		return err
	}

	logger.Info("Импорт выполнен",
		slog.Int("imported", result.Imported),
		slog.String("columns", strings.Join(result.Columns, ",")),
		slog.Any("dropped_columns", result.Dropped),
	)
	fmt.Printf("Импортировано записей: %d\n", result.Imported)
	return nil
}
