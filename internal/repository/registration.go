package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/reurb-backend/internal/domain/model"
)

// RegistrationRepository — интерфейс CRUD для таблицы registrations.
type RegistrationRepository interface {
	// Create сохраняет запись, заполняя ID и временные метки.
	Create(ctx context.Context, reg *model.Registration) error
	// CreateBatch сохраняет все записи в одной транзакции.
	// При ошибке любой строки не сохраняется ни одна.
	CreateBatch(ctx context.Context, regs []*model.Registration) error
	// GetByID возвращает запись по ID.
	GetByID(ctx context.Context, id int64) (*model.Registration, error)
	// FindByInscricao возвращает первую запись с указанной inscricao_imobiliaria.
	FindByInscricao(ctx context.Context, inscricao string) (*model.Registration, error)
	// List возвращает все записи, новые первыми (по убыванию ID).
	List(ctx context.Context) ([]*model.Registration, error)
	// Update перезаписывает описательные поля и обновляет data_atualizacao.
	Update(ctx context.Context, reg *model.Registration) error
	// Delete удаляет запись вместе с документами и возвращает
	// имена файлов удалённых документов.
	Delete(ctx context.Context, id int64) (storagePaths []string, err error)
	// Exists проверяет наличие записи.
	Exists(ctx context.Context, id int64) (bool, error)
}

type registrationRepo struct {
	db     DBTX
	fields []model.Field
	// columns — описательные колонки в порядке fields
	columns string
	// insertSQL — INSERT для всех описательных колонок
	insertSQL string
	// updateSQL — UPDATE всех описательных колонок
	updateSQL string
	// selectSQL — SELECT без условия
	selectSQL string
}

// NewRegistrationRepository создаёт репозиторий регистрационных записей.
// SQL строится по списку разрешённых полей модели.
func NewRegistrationRepository(db DBTX) RegistrationRepository {
	fields := model.RegistrationFields()

	names := make([]string, len(fields))
	placeholders := make([]string, len(fields))
	sets := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		sets[i] = fmt.Sprintf("%s = $%d", f.Name, i+1)
	}
	columns := strings.Join(names, ", ")

	return &registrationRepo{
		db:      db,
		fields:  fields,
		columns: columns,
		insertSQL: fmt.Sprintf(
			`INSERT INTO registrations (%s) VALUES (%s) RETURNING id, data_criacao, data_atualizacao`,
			columns, strings.Join(placeholders, ", ")),
		updateSQL: fmt.Sprintf(
			`UPDATE registrations SET %s, data_atualizacao = now() WHERE id = $%d RETURNING data_criacao, data_atualizacao`,
			strings.Join(sets, ", "), len(fields)+1),
		selectSQL: fmt.Sprintf(
			`SELECT id, %s, data_criacao, data_atualizacao FROM registrations`, columns),
	}
}

// args возвращает значения описательных полей для SQL.
func (r *registrationRepo) args(reg *model.Registration) []any {
	args := make([]any, 0, len(r.fields)+1)
	for _, f := range r.fields {
		args = append(args, f.Value(reg))
	}
	return args
}

func (r *registrationRepo) scan(row pgx.Row) (*model.Registration, error) {
	reg := &model.Registration{}
	dest := make([]any, 0, len(r.fields)+3)
	dest = append(dest, &reg.ID)
	for _, f := range r.fields {
		dest = append(dest, f.ScanTarget(reg))
	}
	dest = append(dest, &reg.CreatedAt, &reg.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	err := r.db.QueryRow(ctx, r.insertSQL, r.args(reg)...).
		Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return classifyWriteError("ошибка создания записи", err)
	}
	return nil
}

func (r *registrationRepo) CreateBatch(ctx context.Context, regs []*model.Registration) error {
	return runInTx(ctx, r.db, func(tx pgx.Tx) error {
		for i, reg := range regs {
			err := tx.QueryRow(ctx, r.insertSQL, r.args(reg)...).
				Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
			if err != nil {
				return classifyWriteError(fmt.Sprintf("ошибка сохранения записи %d", i+1), err)
			}
		}
		return nil
	})
}

func (r *registrationRepo) GetByID(ctx context.Context, id int64) (*model.Registration, error) {
	reg, err := r.scan(r.db.QueryRow(ctx, r.selectSQL+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}
	return reg, nil
}

func (r *registrationRepo) FindByInscricao(ctx context.Context, inscricao string) (*model.Registration, error) {
	query := r.selectSQL + ` WHERE inscricao_imobiliaria = $1 ORDER BY id LIMIT 1`

	reg, err := r.scan(r.db.QueryRow(ctx, query, inscricao))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска записи по inscricao_imobiliaria: %w", err)
	}
	return reg, nil
}

func (r *registrationRepo) List(ctx context.Context) ([]*model.Registration, error) {
	rows, err := r.db.Query(ctx, r.selectSQL+` ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка записей: %w", err)
	}
	defer rows.Close()

	var result []*model.Registration
	for rows.Next() {
		reg, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		result = append(result, reg)
	}
	return result, rows.Err()
}

func (r *registrationRepo) Update(ctx context.Context, reg *model.Registration) error {
	args := append(r.args(reg), reg.ID)

	err := r.db.QueryRow(ctx, r.updateSQL, args...).Scan(&reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return classifyWriteError("ошибка обновления записи", err)
	}
	return nil
}

func (r *registrationRepo) Delete(ctx context.Context, id int64) ([]string, error) {
	var paths []string

	err := runInTx(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT storage_path FROM documents WHERE registration_id = $1`, id)
		if err != nil {
			return fmt.Errorf("ошибка получения документов записи: %w", err)
		}
		paths, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("ошибка сканирования документов записи: %w", err)
		}

		// documents удаляются каскадно (ON DELETE CASCADE)
		tag, err := tx.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("ошибка удаления записи: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *registrationRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM registrations WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки записи: %w", err)
	}
	return exists, nil
}
