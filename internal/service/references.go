// references.go — ReferenceService: справочники PGV.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/reurb-backend/internal/domain/model"
	"github.com/bigkaa/reurb-backend/internal/repository"
)

// ReferenceService — чтение и администрирование справочников PGV.
// Любая запись сбрасывает кэш расчёта стоимости.
type ReferenceService struct {
	repo      repository.ReferenceRepository
	valuation *ValuationService
	logger    *slog.Logger
}

// NewReferenceService создаёт сервис справочников.
func NewReferenceService(repo repository.ReferenceRepository, valuer *ValuationService, logger *slog.Logger) *ReferenceService {
	return &ReferenceService{
		repo:      repo,
		valuation: valuer,
		logger:    logger.With(slog.String("component", "reference_service")),
	}
}

// List возвращает строки справочника.
func (s *ReferenceService) List(ctx context.Context, kind model.ReferenceKind) ([]*model.ReferenceEntry, error) {
	entries, err := s.repo.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("получение справочника %s: %w", kind, err)
	}
	return entries, nil
}

// Create добавляет строку. Дубликат ключа — ErrConflict.
func (s *ReferenceService) Create(ctx context.Context, kind model.ReferenceKind, fields map[string]any) (*model.ReferenceEntry, error) {
	entry, err := model.ParseReferenceEntry(kind, fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, fmt.Errorf("%w: %s '%s' уже существует", ErrConflict, kind.KeyField(), entry.Key)
		case errors.Is(err, repository.ErrInvalidData):
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		default:
			return nil, fmt.Errorf("сохранение строки справочника %s: %w", kind, err)
		}
	}
	s.valuation.Purge()

	s.logger.InfoContext(ctx, "Строка справочника создана",
		slog.String("table", string(kind)),
		slog.Int64("id", entry.ID),
		slog.String("key", entry.Key),
	)
	return entry, nil
}

// Delete удаляет строку справочника.
func (s *ReferenceService) Delete(ctx context.Context, kind model.ReferenceKind, id int64) error {
	if err := s.repo.Delete(ctx, kind, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление строки справочника %s: %w", kind, err)
	}
	s.valuation.Purge()

	s.logger.InfoContext(ctx, "Строка справочника удалена",
		slog.String("table", string(kind)),
		slog.Int64("id", id),
	)
	return nil
}
