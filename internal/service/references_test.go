package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bigkaa/reurb-backend/internal/domain/model"
	"github.com/bigkaa/reurb-backend/internal/domain/valuation"
)

func TestReferenceService_CreateDelete(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	entry, err := f.refs.Create(ctx, model.KindStreets, map[string]any{"street": "Rua A", "unit_value": 50.0})
	if err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if entry.ID == 0 || entry.Value != 50 {
		t.Errorf("entry = %+v", entry)
	}

	if _, err := f.refs.Create(ctx, model.KindStreets, map[string]any{"street": "Rua A", "unit_value": 70.0}); !errors.Is(err, ErrConflict) {
		t.Errorf("дубликат = %v, ожидалась ErrConflict", err)
	}

	invalid := []map[string]any{
		{"unit_value": 10.0},
		{"street": "Rua B"},
		{"street": "Rua B", "unit_value": 0.0},
		{"street": "Rua B", "unit_value": -1.0},
		{"street": "Rua B", "unit_value": "abc"},
	}
	for _, fields := range invalid {
		if _, err := f.refs.Create(ctx, model.KindStreets, fields); !errors.Is(err, ErrValidation) {
			t.Errorf("Create(%v) = %v, ожидалась ErrValidation", fields, err)
		}
	}

	list, _ := f.refs.List(ctx, model.KindStreets)
	if len(list) != 1 {
		t.Errorf("List() = %d строк", len(list))
	}

	if err := f.refs.Delete(ctx, model.KindStreets, entry.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if err := f.refs.Delete(ctx, model.KindStreets, entry.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete() = %v", err)
	}
}

// TestValuationService_CacheInvalidation проверяет кэширование поиска
// и сброс кэша при изменении справочника.
func TestValuationService_CacheInvalidation(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	reg, _, _ := f.regs.Create(ctx, map[string]any{
		"imovel_logradouro": "Rua C",
		"imovel_area_total": 10,
	})

	if v := f.val.Calculate(ctx, reg); v.LandValue != 0 {
		t.Errorf("без справочника LandValue = %v", v.LandValue)
	}
	if v := f.val.Calculate(ctx, reg); v.LandValue != 0 {
		t.Errorf("повтор LandValue = %v", v.LandValue)
	}
	if n := f.store.Lookups(); n != 1 {
		t.Errorf("обращений к справочнику: %d, второе должно обслуживаться кэшем", n)
	}

	// Создание строки через сервис сбрасывает кэш
	if _, err := f.refs.Create(ctx, model.KindStreets, map[string]any{"street": "Rua C", "unit_value": 3.0}); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if v := f.val.Calculate(ctx, reg); v.LandValue != 30 {
		t.Errorf("после добавления строки LandValue = %v, ожидалось 30", v.LandValue)
	}
}

func TestValuationService_LookupErrorSwallowed(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	reg, _, _ := f.regs.Create(ctx, map[string]any{
		"imovel_logradouro":      "Rua D",
		"imovel_area_total":      10,
		"imovel_tipo_construcao": "Madeira",
		"imovel_area_construida": 5,
		"imovel_uso":             "Residencial",
	})

	f.store.SetLookupError(errors.New("соединение потеряно"))
	if v := f.val.Calculate(ctx, reg); v != (valuation.Result{}) {
		t.Errorf("при ошибках поиска ожидался нулевой результат, получено %+v", v)
	}

	// Ошибки не кэшируются
	f.store.SetLookupError(nil)
	f.store.AddReference(model.KindStreets, "Rua D", 2)
	if v := f.val.Calculate(ctx, reg); v.LandValue != 20 {
		t.Errorf("после восстановления LandValue = %v, ожидалось 20", v.LandValue)
	}
}
