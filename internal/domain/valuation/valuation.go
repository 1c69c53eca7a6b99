// Пакет valuation — расчёт стоимости объекта и оценки IPTU
// по справочникам PGV.
//
// Расчёт никогда не возвращает ошибку: отсутствующие входные данные,
// отсутствующая строка справочника или ошибка поиска дают нулевой вклад.
package valuation

import (
	"context"
	"log/slog"

	"github.com/bigkaa/reurb-backend/internal/domain/model"
)

// Шаги расчёта (для логов и метрик).
const (
	StepLand         = "land"
	StepConstruction = "construction"
	StepTax          = "tax"
)

// Result — результат расчёта. JSON-имена совпадают с полями ответа API.
type Result struct {
	// LandValue — стоимость земли (VVT)
	LandValue float64 `json:"vvt"`
	// ConstructionValue — стоимость постройки (VVC)
	ConstructionValue float64 `json:"vvc"`
	// TotalValue — общая стоимость объекта (VVI)
	TotalValue float64 `json:"vvi"`
	// Tax — оценка IPTU
	Tax float64 `json:"iptu"`
}

// Lookup — точный поиск значений в справочниках PGV.
// found=false означает, что строки с таким ключом нет.
type Lookup interface {
	StreetUnitValue(ctx context.Context, street string) (value float64, found bool, err error)
	ConstructionUnitValue(ctx context.Context, description string) (value float64, found bool, err error)
	TaxRate(ctx context.Context, usage string) (rate float64, found bool, err error)
}

// ErrorHook вызывается при ошибке поиска в справочнике.
type ErrorHook func(step string, err error)

// Engine — калькулятор стоимости.
type Engine struct {
	lookup  Lookup
	logger  *slog.Logger
	onError ErrorHook
}

// NewEngine создаёт калькулятор. onError может быть nil.
func NewEngine(lookup Lookup, onError ErrorHook, logger *slog.Logger) *Engine {
	return &Engine{
		lookup:  lookup,
		logger:  logger.With(slog.String("component", "valuation")),
		onError: onError,
	}
}

// Calculate считает VVT, VVC, VVI и IPTU для записи:
//  1. улица и общая площадь заданы: VVT = площадь × стоимость м² улицы;
//  2. тип постройки и площадь застройки заданы: VVC = площадь × стоимость м² стандарта;
//  3. VVI = VVT + VVC;
//  4. категория использования задана: IPTU = VVI × ставка.
//
// Каждый шаг, для которого нет данных, даёт 0.
func (e *Engine) Calculate(ctx context.Context, reg *model.Registration) Result {
	var res Result

	if street, ok := reg.Street(); ok {
		if area, ok := reg.TotalArea(); ok {
			if v, found := e.find(ctx, StepLand, reg.ID, func() (float64, bool, error) {
				return e.lookup.StreetUnitValue(ctx, street)
			}); found {
				res.LandValue = area * v
			}
		}
	}

	if standard, ok := reg.ConstructionType(); ok {
		if area, ok := reg.BuiltArea(); ok {
			if v, found := e.find(ctx, StepConstruction, reg.ID, func() (float64, bool, error) {
				return e.lookup.ConstructionUnitValue(ctx, standard)
			}); found {
				res.ConstructionValue = area * v
			}
		}
	}

	res.TotalValue = res.LandValue + res.ConstructionValue

	if usage, ok := reg.Usage(); ok {
		if rate, found := e.find(ctx, StepTax, reg.ID, func() (float64, bool, error) {
			return e.lookup.TaxRate(ctx, usage)
		}); found {
			res.Tax = res.TotalValue * rate
		}
	}

	return res
}

// find выполняет поиск и превращает ошибку в «не найдено».
func (e *Engine) find(ctx context.Context, step string, regID int64, fn func() (float64, bool, error)) (float64, bool) {
	v, found, err := fn()
	if err != nil {
		e.logger.WarnContext(ctx, "Ошибка поиска в справочнике PGV, вклад принят равным 0",
			slog.String("step", step),
			slog.Int64("registration_id", regID),
			slog.String("error", err.Error()),
		)
		if e.onError != nil {
			e.onError(step, err)
		}
		return 0, false
	}
	return v, found
}
