// handler.go — APIHandler: HTTP-обработчики REURB API поверх сервисного слоя.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/reurb-backend/internal/api/errors"
	"github.com/bigkaa/reurb-backend/internal/service"
)

// APIHandler — основной обработчик API REURB backend.
type APIHandler struct {
	auth          *service.AuthService
	users         *service.UserService
	registrations *service.RegistrationService
	documents     *service.DocumentService
	references    *service.ReferenceService
	imports       *service.ImportService
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	authSvc *service.AuthService,
	users *service.UserService,
	registrations *service.RegistrationService,
	documents *service.DocumentService,
	references *service.ReferenceService,
	imports *service.ImportService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		auth:          authSvc,
		users:         users,
		registrations: registrations,
		documents:     documents,
		references:    references,
		imports:       imports,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// maxJSONBody — предел тела JSON-запроса.
const maxJSONBody = 1 << 20

// decodeJSON читает тело запроса в v. Ошибка пригодна для ответа 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("пустое тело запроса")
		}
		return fmt.Errorf("некорректный JSON: %w", err)
	}
	return nil
}

// decodeFields читает тело запроса как JSON-объект с произвольными ключами.
// Числа остаются json.Number: текстовые поля сохраняют исходную запись.
func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	var raw map[string]any
	if err := decodeJSON(w, r, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("ожидается JSON-объект")
	}
	return raw, nil
}

// pathID разбирает целочисленный параметр пути. При ошибке пишет 400.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный идентификатор %q", raw))
		return 0, false
	}
	return id, true
}

// writeServiceError отображает ошибку сервисного слоя в HTTP-ответ.
// notFound — сообщение для ErrNotFound, op — операция для лога.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound, op string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, notFound)
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrUploadRejected):
		apierrors.UploadRejected(w, err.Error())
	case errors.Is(err, service.ErrImport):
		h.logger.ErrorContext(r.Context(), op, slog.String("error", err.Error()))
		apierrors.ImportFailed(w, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), op, slog.String("error", err.Error()))
		apierrors.InternalError(w, op)
	}
}

// emptyIfNil возвращает пустой срез вместо nil для JSON.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
