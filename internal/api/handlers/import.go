package handlers

import (
	"net/http"
)

type importResponse struct {
	Imported int      `json:"imported"`
	Columns  []string `json:"columns"`
	Dropped  []string `json:"dropped_columns"`
}

// ImportRegistrations — POST /api/v1/import (только Administrador).
// Multipart: file (.csv или .xlsx). Все строки сохраняются одной
// транзакцией; ошибка любой строки отменяет импорт целиком (500).
func (h *APIHandler) ImportRegistrations(w http.ResponseWriter, r *http.Request) {
	file, header, ok := h.parseUpload(w, r, "file", "arquivo")
	if !ok {
		return
	}
	defer file.Close()
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	result, err := h.imports.Import(r.Context(), file, header.Filename)
	if err != nil {
		h.writeServiceError(w, r, err, "", "Ошибка импорта")
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		Imported: result.Imported,
		Columns:  emptyIfNil(result.Columns),
		Dropped:  emptyIfNil(result.Dropped),
	})
}
