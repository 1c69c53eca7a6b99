// reference_tables.go — справочники PGV: /api/v1/reference-tables/{name}.
// Чтение доступно всем сотрудникам, изменение — только Administrador.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/reurb-backend/internal/api/errors"
	"github.com/bigkaa/reurb-backend/internal/domain/model"
)

// referenceKind разбирает имя справочника. Неизвестное имя — 404.
func referenceKind(w http.ResponseWriter, r *http.Request) (model.ReferenceKind, bool) {
	name := chi.URLParam(r, "name")
	kind, ok := model.ParseReferenceKind(name)
	if !ok {
		apierrors.NotFound(w, "Неизвестный справочник "+name)
		return "", false
	}
	return kind, true
}

// ListReferenceEntries — GET /api/v1/reference-tables/{name}.
func (h *APIHandler) ListReferenceEntries(w http.ResponseWriter, r *http.Request) {
	kind, ok := referenceKind(w, r)
	if !ok {
		return
	}

	entries, err := h.references.List(r.Context(), kind)
	if err != nil {
		h.writeServiceError(w, r, err, "", "Ошибка получения справочника")
		return
	}

	items := make([]map[string]any, len(entries))
	for i, e := range entries {
		items[i] = e.ToMap()
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// CreateReferenceEntry — POST /api/v1/reference-tables/{name}.
// Дублирующийся ключ — 409.
func (h *APIHandler) CreateReferenceEntry(w http.ResponseWriter, r *http.Request) {
	kind, ok := referenceKind(w, r)
	if !ok {
		return
	}

	fields, err := decodeFields(w, r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	entry, err := h.references.Create(r.Context(), kind, fields)
	if err != nil {
		h.writeServiceError(w, r, err, "", "Ошибка добавления в справочник")
		return
	}
	writeJSON(w, http.StatusCreated, entry.ToMap())
}

// DeleteReferenceEntry — DELETE /api/v1/reference-tables/{name}/{id}.
func (h *APIHandler) DeleteReferenceEntry(w http.ResponseWriter, r *http.Request) {
	kind, ok := referenceKind(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.references.Delete(r.Context(), kind, id); err != nil {
		h.writeServiceError(w, r, err, "Строка справочника не найдена", "Ошибка удаления из справочника")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
