package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/reurb-backend/internal/domain/model"
)

// ReferenceRepository — интерфейс для справочников PGV
// (construction_standards, street_values, tax_rates).
type ReferenceRepository interface {
	// List возвращает строки справочника по возрастанию ID.
	List(ctx context.Context, kind model.ReferenceKind) ([]*model.ReferenceEntry, error)
	// Create сохраняет строку. Дубликат ключа — ErrConflict.
	Create(ctx context.Context, entry *model.ReferenceEntry) error
	// Delete удаляет строку по ID.
	Delete(ctx context.Context, kind model.ReferenceKind, id int64) error
	// FindValue ищет значение по точному совпадению ключа.
	FindValue(ctx context.Context, kind model.ReferenceKind, key string) (value float64, found bool, err error)
}

type referenceRepo struct {
	db DBTX
}

// NewReferenceRepository создаёт репозиторий справочников.
func NewReferenceRepository(db DBTX) ReferenceRepository {
	return &referenceRepo{db: db}
}

// Имена таблиц и колонок берутся только из model.ReferenceKind
// (закрытое множество), пользовательский ввод в SQL не попадает.

func (r *referenceRepo) List(ctx context.Context, kind model.ReferenceKind) ([]*model.ReferenceEntry, error) {
	query := fmt.Sprintf(`SELECT id, %s, %s FROM %s ORDER BY id`,
		kind.KeyField(), kind.ValueField(), kind.Table())

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения справочника %s: %w", kind, err)
	}
	defer rows.Close()

	var result []*model.ReferenceEntry
	for rows.Next() {
		e := &model.ReferenceEntry{Kind: kind}
		if err := rows.Scan(&e.ID, &e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("ошибка сканирования справочника %s: %w", kind, err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *referenceRepo) Create(ctx context.Context, entry *model.ReferenceEntry) error {
	kind := entry.Kind
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) RETURNING id`,
		kind.Table(), kind.KeyField(), kind.ValueField())

	if err := r.db.QueryRow(ctx, query, entry.Key, entry.Value).Scan(&entry.ID); err != nil {
		return classifyWriteError(fmt.Sprintf("ошибка добавления в справочник %s", kind), err)
	}
	return nil
}

func (r *referenceRepo) Delete(ctx context.Context, kind model.ReferenceKind, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, kind.Table())

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления из справочника %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *referenceRepo) FindValue(ctx context.Context, kind model.ReferenceKind, key string) (float64, bool, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 LIMIT 1`,
		kind.ValueField(), kind.Table(), kind.KeyField())

	var value float64
	err := r.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("ошибка поиска в справочнике %s: %w", kind, err)
	}
	return value, true, nil
}
