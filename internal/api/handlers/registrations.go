// registrations.go — обработчики /api/v1/registrations и /api/v1/tax-estimate.
package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/reurb-backend/internal/api/errors"
	"github.com/bigkaa/reurb-backend/internal/domain/model"
	"github.com/bigkaa/reurb-backend/internal/domain/valuation"
)

const registrationNotFound = "Регистрационная запись не найдена"

// registrationJSON объединяет поля записи с результатом расчёта.
func registrationJSON(reg *model.Registration, v valuation.Result) map[string]any {
	m := reg.ToMap()
	m["vvt"] = v.LandValue
	m["vvc"] = v.ConstructionValue
	m["vvi"] = v.TotalValue
	m["iptu"] = v.Tax
	return m
}

func documentsJSON(docs []*model.Document) []map[string]any {
	out := make([]map[string]any, len(docs))
	for i, d := range docs {
		out[i] = d.ToMap()
	}
	return out
}

// ListRegistrations — GET /api/v1/registrations. Новые записи первыми.
func (h *APIHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	views, err := h.registrations.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "", "Ошибка получения записей")
		return
	}

	items := make([]map[string]any, len(views))
	for i, v := range views {
		items[i] = registrationJSON(v.Registration, v.Valuation)
	}
	writeJSON(w, http.StatusOK, map[string]any{"registrations": items})
}

// CreateRegistration — POST /api/v1/registrations.
// Неизвестные ключи не сохраняются и возвращаются в ignored_fields.
func (h *APIHandler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(w, r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	reg, ignored, err := h.registrations.Create(r.Context(), fields)
	if err != nil {
		h.writeServiceError(w, r, err, "", "Ошибка создания записи")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":             reg.ID,
		"ignored_fields": emptyIfNil(ignored),
	})
}

// GetRegistration — GET /api/v1/registrations/{id}.
// Запись с документами и расчётом стоимости.
func (h *APIHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.registrations.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, registrationNotFound, "Ошибка получения записи")
		return
	}

	resp := registrationJSON(view.Registration, view.Valuation)
	resp["documents"] = documentsJSON(view.Documents)
	writeJSON(w, http.StatusOK, resp)
}

// UpdateRegistration — PUT /api/v1/registrations/{id}.
func (h *APIHandler) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	fields, err := decodeFields(w, r)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	reg, ignored, err := h.registrations.Update(r.Context(), id, fields)
	if err != nil {
		h.writeServiceError(w, r, err, registrationNotFound, "Ошибка обновления записи")
		return
	}

	resp := reg.ToMap()
	resp["ignored_fields"] = emptyIfNil(ignored)
	writeJSON(w, http.StatusOK, resp)
}

// DeleteRegistration — DELETE /api/v1/registrations/{id}.
// Документы записи удаляются вместе с ней.
func (h *APIHandler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.registrations.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, registrationNotFound, "Ошибка удаления записи")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type taxEstimateResponse struct {
	RegistrationID int64  `json:"registration_id"`
	Inscricao      string `json:"inscricao_imobiliaria"`
	valuation.Result
}

// TaxEstimate — GET /api/v1/tax-estimate/{inscricao}.
func (h *APIHandler) TaxEstimate(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "inscricao"))
	inscricao := strings.TrimSpace(raw)
	if err != nil || inscricao == "" {
		apierrors.ValidationError(w, "Не указан inscricao_imobiliaria")
		return
	}

	reg, result, err := h.registrations.TaxEstimate(r.Context(), inscricao)
	if err != nil {
		h.writeServiceError(w, r, err,
			"Запись с inscricao_imobiliaria "+inscricao+" не найдена", "Ошибка расчёта IPTU")
		return
	}

	writeJSON(w, http.StatusOK, taxEstimateResponse{
		RegistrationID: reg.ID,
		Inscricao:      inscricao,
		Result:         result,
	})
}
