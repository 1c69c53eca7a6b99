// registrations.go — RegistrationService: регистрационные записи REURB
// с расчётом стоимости и списком документов.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/reurb-backend/internal/domain/model"
	"github.com/bigkaa/reurb-backend/internal/domain/valuation"
	"github.com/bigkaa/reurb-backend/internal/repository"
	"github.com/bigkaa/reurb-backend/internal/storage/filestore"
)

// RegistrationView — запись вместе с вычисленными полями.
type RegistrationView struct {
	Registration *model.Registration
	Valuation    valuation.Result
	// Documents заполняется только для одиночной записи
	Documents []*model.Document
}

// RegistrationService — CRUD регистрационных записей.
type RegistrationService struct {
	repo      repository.RegistrationRepository
	docs      repository.DocumentRepository
	valuation *ValuationService
	files     *filestore.FileStore
	logger    *slog.Logger
}

// NewRegistrationService создаёт сервис регистрационных записей.
func NewRegistrationService(
	repo repository.RegistrationRepository,
	docs repository.DocumentRepository,
	valuer *ValuationService,
	files *filestore.FileStore,
	logger *slog.Logger,
) *RegistrationService {
	return &RegistrationService{
		repo:      repo,
		docs:      docs,
		valuation: valuer,
		files:     files,
		logger:    logger.With(slog.String("component", "registration_service")),
	}
}

// Create создаёт запись из JSON-полей. Возвращает ключи, которые не были
// применены (неизвестные и серверные поля).
func (s *RegistrationService) Create(ctx context.Context, payload map[string]any) (*model.Registration, []string, error) {
	reg := &model.Registration{}
	ignored, err := reg.Apply(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.repo.Create(ctx, reg); err != nil {
		return nil, nil, mapRegistrationRepoError(err)
	}

	s.logger.InfoContext(ctx, "Запись создана",
		slog.Int64("registration_id", reg.ID),
		slog.Int("ignored_fields", len(ignored)),
	)
	return reg, ignored, nil
}

// List возвращает все записи (новые первыми) с расчётом стоимости.
func (s *RegistrationService) List(ctx context.Context) ([]RegistrationView, error) {
	regs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение списка записей: %w", err)
	}

	views := make([]RegistrationView, len(regs))
	for i, reg := range regs {
		views[i] = RegistrationView{
			Registration: reg,
			Valuation:    s.valuation.Calculate(ctx, reg),
		}
	}
	return views, nil
}

// Get возвращает запись с документами и расчётом стоимости.
func (s *RegistrationService) Get(ctx context.Context, id int64) (*RegistrationView, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRegistrationRepoError(err)
	}

	docs, err := s.docs.ListByRegistration(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("получение документов записи: %w", err)
	}

	return &RegistrationView{
		Registration: reg,
		Valuation:    s.valuation.Calculate(ctx, reg),
		Documents:    docs,
	}, nil
}

// Update применяет к записи только разрешённые поля из payload.
// id и временные метки через API не меняются.
func (s *RegistrationService) Update(ctx context.Context, id int64, payload map[string]any) (*model.Registration, []string, error) {
	reg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, mapRegistrationRepoError(err)
	}

	ignored, err := reg.Apply(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.repo.Update(ctx, reg); err != nil {
		return nil, nil, mapRegistrationRepoError(err)
	}

	s.logger.InfoContext(ctx, "Запись обновлена",
		slog.Int64("registration_id", id),
		slog.Any("ignored_fields", ignored),
	)
	return reg, ignored, nil
}

// Delete удаляет запись и её документы. Файлы документов удаляются
// после коммита; ошибка удаления файла только логируется.
func (s *RegistrationService) Delete(ctx context.Context, id int64) error {
	paths, err := s.repo.Delete(ctx, id)
	if err != nil {
		return mapRegistrationRepoError(err)
	}

	for _, p := range paths {
		if err := s.files.Delete(p); err != nil {
			s.logger.WarnContext(ctx, "Не удалось удалить файл документа",
				slog.Int64("registration_id", id),
				slog.String("file", p),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "Запись удалена",
		slog.Int64("registration_id", id),
		slog.Int("documents", len(paths)),
	)
	return nil
}

// TaxEstimate считает стоимость первой записи с указанным
// inscricao_imobiliaria.
func (s *RegistrationService) TaxEstimate(ctx context.Context, inscricao string) (*model.Registration, valuation.Result, error) {
	reg, err := s.repo.FindByInscricao(ctx, inscricao)
	if err != nil {
		return nil, valuation.Result{}, mapRegistrationRepoError(err)
	}
	return reg, s.valuation.Calculate(ctx, reg), nil
}

func mapRegistrationRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrInvalidData):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	default:
		return fmt.Errorf("операция с записью: %w", err)
	}
}
