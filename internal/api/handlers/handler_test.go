package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/reurb-backend/internal/service"
	"github.com/bigkaa/reurb-backend/internal/testutil"
)

type stubChecker struct {
	status, message string
}

func (c stubChecker) CheckReady() (string, string) { return c.status, c.message }

type stubDeps map[string]bool

func (d stubDeps) Health() map[string]bool { return d }

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		checker    ReadinessChecker
		deps       DependencyReporter
		wantStatus int
		wantBody   string
	}{
		{"ok", stubChecker{"ok", ""}, nil, http.StatusOK, "ok"},
		{"degraded", stubChecker{"degraded", "медленно"}, nil, http.StatusOK, "degraded"},
		{"fail", stubChecker{"fail", "нет соединения"}, nil, http.StatusServiceUnavailable, "fail"},
		{"без проверки", nil, nil, http.StatusServiceUnavailable, "fail"},
		// Фоновые проверки статус не меняют
		{"зависимость упала", stubChecker{"ok", ""}, stubDeps{"postgresql:5432": false}, http.StatusOK, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checker, tt.deps)
			rec := httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("статус = %d, ожидается %d", rec.Code, tt.wantStatus)
			}
			var resp healthReadyResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.wantBody {
				t.Errorf("status = %q, ожидается %q", resp.Status, tt.wantBody)
			}
			if resp.Service != serviceName {
				t.Errorf("service = %q", resp.Service)
			}
			if tt.deps != nil && len(resp.Dependencies) != 1 {
				t.Errorf("dependencies = %v", resp.Dependencies)
			}
		})
	}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(nil, nil).HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("тело = %s", rec.Body.String())
	}
}

func TestDecodeFields(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"объект", `{"req_cpf": 12345678900, "req_nome": "Ana"}`, false},
		{"пусто", ``, true},
		{"null", `null`, true},
		{"массив", `[1,2]`, true},
		{"мусор", `{"a":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			fields, err := decodeFields(httptest.NewRecorder(), req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ошибка = %v, ожидается ошибка: %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			// Число сохраняет исходную запись цифр
			if n, ok := fields["req_cpf"].(json.Number); !ok || n.String() != "12345678900" {
				t.Errorf("req_cpf = %#v", fields["req_cpf"])
			}
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		raw    string
		wantID int64
		wantOK bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"99999999999999999999", 0, false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/x/"+tt.raw, nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", tt.raw)
		req = req.WithContext(contextWithRoute(req, rctx))

		rec := httptest.NewRecorder()
		id, ok := pathID(rec, req, "id")
		if ok != tt.wantOK || id != tt.wantID {
			t.Errorf("pathID(%q) = %d, %v", tt.raw, id, ok)
		}
		if !ok && rec.Code != http.StatusBadRequest {
			t.Errorf("pathID(%q): статус %d, ожидается 400", tt.raw, rec.Code)
		}
	}
}

func TestWriteServiceError(t *testing.T) {
	h := &APIHandler{logger: testutil.Logger()}

	tests := []struct {
		err      error
		wantCode int
		wantBody string
	}{
		{fmt.Errorf("запись 1: %w", service.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: поле x", service.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("%w: login", service.ErrConflict), http.StatusConflict, "CONFLICT"},
		{service.ErrUploadRejected, http.StatusRequestEntityTooLarge, "UPLOAD_REJECTED"},
		{fmt.Errorf("%w: строка 3", service.ErrImport), http.StatusInternalServerError, "IMPORT_FAILED"},
		{errors.New("соединение разорвано"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, "Не найдено", "операция")

		if rec.Code != tt.wantCode {
			t.Errorf("%v: статус %d, ожидается %d", tt.err, rec.Code, tt.wantCode)
		}
		if !strings.Contains(rec.Body.String(), tt.wantBody) {
			t.Errorf("%v: тело %s, ожидается код %s", tt.err, rec.Body.String(), tt.wantBody)
		}
	}
}

func contextWithRoute(r *http.Request, rctx *chi.Context) context.Context {
	return context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
}
