// documents.go — DocumentService: прикрепление и выдача файлов документов.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bigkaa/reurb-backend/internal/domain/model"
	"github.com/bigkaa/reurb-backend/internal/repository"
	"github.com/bigkaa/reurb-backend/internal/storage/filestore"
)

// DocumentService — документы регистрационных записей.
type DocumentService struct {
	regs    repository.RegistrationRepository
	docs    repository.DocumentRepository
	files   *filestore.FileStore
	maxSize int64
	logger  *slog.Logger
}

// NewDocumentService создаёт сервис документов. maxSize — лимит размера файла.
func NewDocumentService(
	regs repository.RegistrationRepository,
	docs repository.DocumentRepository,
	files *filestore.FileStore,
	maxSize int64,
	logger *slog.Logger,
) *DocumentService {
	return &DocumentService{
		regs:    regs,
		docs:    docs,
		files:   files,
		maxSize: maxSize,
		logger:  logger.With(slog.String("component", "document_service")),
	}
}

// MaxSize возвращает лимит размера загружаемого файла.
func (s *DocumentService) MaxSize() int64 {
	return s.maxSize
}

// Attach сохраняет файл и прикрепляет его к записи.
// Пустой documentType заменяется на model.DefaultDocumentType.
func (s *DocumentService) Attach(ctx context.Context, registrationID int64, content io.Reader, fileName, documentType string) (*model.Document, error) {
	exists, err := s.regs.Exists(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("проверка записи: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	documentType = strings.TrimSpace(documentType)
	if documentType == "" {
		documentType = model.DefaultDocumentType
	}

	saved, err := s.files.Save(content, fileName, s.maxSize)
	if err != nil {
		if errors.Is(err, filestore.ErrTooLarge) {
			return nil, fmt.Errorf("%w: размер превышает %d байт", ErrUploadRejected, s.maxSize)
		}
		return nil, fmt.Errorf("сохранение файла: %w", err)
	}

	doc := &model.Document{
		RegistrationID: registrationID,
		FileName:       filestore.SanitizeFileName(fileName),
		StoragePath:    saved.StorageName,
		DocumentType:   documentType,
		Size:           saved.Size,
		Checksum:       saved.Checksum,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if rmErr := s.files.Delete(saved.StorageName); rmErr != nil {
			s.logger.WarnContext(ctx, "Не удалось удалить файл после ошибки сохранения документа",
				slog.String("file", saved.StorageName),
				slog.String("error", rmErr.Error()),
			)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("сохранение документа: %w", err)
	}

	s.logger.InfoContext(ctx, "Документ прикреплён",
		slog.Int64("registration_id", registrationID),
		slog.String("file", doc.StoragePath),
		slog.String("document_type", doc.DocumentType),
		slog.Int64("size", doc.Size),
	)
	return doc, nil
}

// Open открывает сохранённый файл по имени.
// Отсутствующее или недопустимое имя — ErrNotFound.
func (s *DocumentService) Open(name string) (*os.File, error) {
	f, err := s.files.Open(name)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) || errors.Is(err, filestore.ErrInvalidName) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}
