package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bigkaa/reurb-backend/internal/domain/model"
)

// DocumentRepository — интерфейс для таблицы documents.
type DocumentRepository interface {
	// Create сохраняет документ. Несуществующая запись-владелец — ErrNotFound.
	Create(ctx context.Context, doc *model.Document) error
	// ListByRegistration возвращает документы записи по времени загрузки.
	ListByRegistration(ctx context.Context, registrationID int64) ([]*model.Document, error)
	// CountByRegistration возвращает количество документов записи.
	CountByRegistration(ctx context.Context, registrationID int64) (int, error)
}

type documentRepo struct {
	db DBTX
}

// NewDocumentRepository создаёт репозиторий документов.
func NewDocumentRepository(db DBTX) DocumentRepository {
	return &documentRepo{db: db}
}

const docColumns = `id, registration_id, file_name, storage_path, document_type, size, checksum, uploaded_at`

func (r *documentRepo) Create(ctx context.Context, doc *model.Document) error {
	query := `
		INSERT INTO documents (registration_id, file_name, storage_path, document_type, size, checksum)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, uploaded_at`

	err := r.db.QueryRow(ctx, query,
		doc.RegistrationID, doc.FileName, doc.StoragePath, doc.DocumentType, doc.Size, doc.Checksum,
	).Scan(&doc.ID, &doc.UploadedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return classifyWriteError("ошибка сохранения документа", err)
	}
	return nil
}

func (r *documentRepo) ListByRegistration(ctx context.Context, registrationID int64) ([]*model.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE registration_id = $1 ORDER BY uploaded_at, id`, docColumns)

	rows, err := r.db.Query(ctx, query, registrationID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения документов: %w", err)
	}
	defer rows.Close()

	var result []*model.Document
	for rows.Next() {
		d := &model.Document{}
		if err := rows.Scan(
			&d.ID, &d.RegistrationID, &d.FileName, &d.StoragePath,
			&d.DocumentType, &d.Size, &d.Checksum, &d.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования документа: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *documentRepo) CountByRegistration(ctx context.Context, registrationID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM documents WHERE registration_id = $1`, registrationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта документов: %w", err)
	}
	return count, nil
}

// isForeignKeyViolation проверяет нарушение внешнего ключа (23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
