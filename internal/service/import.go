// import.go — ImportService: пакетная загрузка записей из CSV/XLSX.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/reurb-backend/internal/importer"
	"github.com/bigkaa/reurb-backend/internal/repository"
)

// Prometheus-метрики импорта.
var (
	importBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reurb_import_batches_total",
		Help: "Количество пакетов импорта по результату.",
	}, []string{"result"})
	importRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reurb_import_rows_total",
		Help: "Количество записей, сохранённых импортом.",
	})
)

// ImportResult — итог импорта.
type ImportResult struct {
	// Imported — количество сохранённых записей
	Imported int
	// Columns — распознанные поля
	Columns []string
	// Dropped — отброшенные колонки
	Dropped []string
}

// ImportService — импорт выгрузок в одной транзакции.
type ImportService struct {
	repo    repository.RegistrationRepository
	aliases importer.Aliases
	logger  *slog.Logger
}

// NewImportService создаёт сервис импорта.
func NewImportService(repo repository.RegistrationRepository, aliases importer.Aliases, logger *slog.Logger) *ImportService {
	return &ImportService{
		repo:    repo,
		aliases: aliases,
		logger:  logger.With(slog.String("component", "import_service")),
	}
}

// Import разбирает файл и сохраняет все строки одной транзакцией.
// Неподдерживаемый формат или пустой файл — ErrValidation; ошибка
// строки или базы — ErrImport, ни одна запись при этом не сохраняется.
func (s *ImportService) Import(ctx context.Context, content io.Reader, fileName string) (*ImportResult, error) {
	format, err := importer.DetectFormat(fileName)
	if err != nil {
		importBatchesTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	parsed, err := importer.Parse(content, format, s.aliases)
	if err != nil {
		if errors.Is(err, importer.ErrNoData) {
			importBatchesTotal.WithLabelValues("rejected").Inc()
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		importBatchesTotal.WithLabelValues("failed").Inc()
		s.logger.WarnContext(ctx, "Ошибка разбора файла импорта",
			slog.String("file", fileName),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrImport, err)
	}

	if err := s.repo.CreateBatch(ctx, parsed.Registrations); err != nil {
		importBatchesTotal.WithLabelValues("failed").Inc()
		s.logger.WarnContext(ctx, "Импорт отменён, транзакция откатена",
			slog.String("file", fileName),
			slog.Int("rows", len(parsed.Registrations)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrImport, err)
	}

	importBatchesTotal.WithLabelValues("ok").Inc()
	importRowsTotal.Add(float64(len(parsed.Registrations)))
	s.logger.InfoContext(ctx, "Импорт завершён",
		slog.String("file", fileName),
		slog.Int("rows", len(parsed.Registrations)),
		slog.Any("dropped_columns", parsed.Dropped),
	)

	return &ImportResult{
		Imported: len(parsed.Registrations),
		Columns:  parsed.Columns,
		Dropped:  parsed.Dropped,
	}, nil
}
