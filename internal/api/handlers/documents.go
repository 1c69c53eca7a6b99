// documents.go — загрузка документов к записям и раздача сохранённых файлов.
package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/reurb-backend/internal/api/errors"
	"github.com/bigkaa/reurb-backend/internal/service"
)

// multipartOverhead — запас на заголовки и текстовые поля multipart.
const multipartOverhead = 1 << 20

// multipartMemory — часть формы, которая держится в памяти; остальное на диске.
const multipartMemory = 8 << 20

// parseUpload ограничивает тело запроса и разбирает multipart-форму.
// Возвращает файл из первого найденного поля fields. При ошибке ответ уже записан.
func (h *APIHandler) parseUpload(w http.ResponseWriter, r *http.Request, fields ...string) (multipart.File, *multipart.FileHeader, bool) {
	limit := h.documents.MaxSize()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.UploadRejected(w, fmt.Sprintf("Размер файла превышает %d байт", limit))
			return nil, nil, false
		}
		apierrors.ValidationError(w, "Ошибка разбора multipart: "+err.Error())
		return nil, nil, false
	}

	for _, name := range fields {
		file, header, err := r.FormFile(name)
		if err == nil {
			if header.Filename == "" {
				file.Close()
				apierrors.ValidationError(w, "Пустое имя файла")
				return nil, nil, false
			}
			return file, header, true
		}
	}

	apierrors.ValidationError(w, fmt.Sprintf("Поле '%s' обязательно", fields[0]))
	return nil, nil, false
}

// UploadDocument — POST /api/v1/documents/{registrationId}.
// Multipart form: file (обязательно), document_type (опционально).
func (h *APIHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	regID, ok := pathID(w, r, "registrationId")
	if !ok {
		return
	}

	file, header, ok := h.parseUpload(w, r, "file")
	if !ok {
		return
	}
	defer file.Close()
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	docType := r.FormValue("document_type")
	if docType == "" {
		docType = r.FormValue("tipo_documento")
	}

	doc, err := h.documents.Attach(r.Context(), regID, file, header.Filename, docType)
	if err != nil {
		h.writeServiceError(w, r, err, registrationNotFound, "Ошибка сохранения документа")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"fileName": doc.StoragePath,
		"document": doc.ToMap(),
	})
}

// ServeUpload — GET /uploads/{fileName}. Сырые байты файла.
func (h *APIHandler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "fileName")

	f, err := h.documents.Open(name)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Файл не найден")
			return
		}
		h.writeServiceError(w, r, err, "", "Ошибка чтения файла")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.writeServiceError(w, r, err, "", "Ошибка чтения файла")
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
