// valuation.go — ValuationService: расчёт стоимости записи с кэшированием
// поиска в справочниках PGV. Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/reurb-backend/internal/domain/model"
	"github.com/bigkaa/reurb-backend/internal/domain/valuation"
	"github.com/bigkaa/reurb-backend/internal/repository"
)

// Prometheus-метрики расчёта стоимости.
var (
	valuationCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reurb_valuation_cache_hits_total",
		Help: "Общее количество попаданий в кэш справочников PGV.",
	})
	valuationCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reurb_valuation_cache_misses_total",
		Help: "Общее количество промахов кэша справочников PGV.",
	})
	valuationLookupErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reurb_valuation_lookup_errors_total",
		Help: "Ошибки поиска в справочниках PGV, поглощённые при расчёте.",
	}, []string{"step"})
)

var _ valuation.Lookup = (*ValuationService)(nil)

// cachedValue — результат поиска. Отсутствие строки тоже кэшируется.
type cachedValue struct {
	value float64
	found bool
}

// ValuationService — расчёт VVT/VVC/VVI/IPTU. Реализует valuation.Lookup
// поверх ReferenceRepository с LRU-кэшем и TTL.
// Кэш сбрасывается при любой записи в справочник (см. ReferenceService).
type ValuationService struct {
	repo   repository.ReferenceRepository
	cache  *expirable.LRU[string, cachedValue]
	engine *valuation.Engine
	logger *slog.Logger
}

// NewValuationService создаёт сервис расчёта.
// cacheSize — максимальное количество ключей, ttl — время жизни ключа.
func NewValuationService(repo repository.ReferenceRepository, cacheSize int, ttl time.Duration, logger *slog.Logger) *ValuationService {
	s := &ValuationService{
		repo:   repo,
		cache:  expirable.NewLRU[string, cachedValue](cacheSize, nil, ttl),
		logger: logger.With(slog.String("component", "valuation_service")),
	}
	s.engine = valuation.NewEngine(s, func(step string, _ error) {
		valuationLookupErrorsTotal.WithLabelValues(step).Inc()
	}, logger)
	return s
}

// Calculate считает стоимость записи. Ошибки поиска не выходят наружу.
func (s *ValuationService) Calculate(ctx context.Context, reg *model.Registration) valuation.Result {
	return s.engine.Calculate(ctx, reg)
}

// Purge сбрасывает кэш справочников.
func (s *ValuationService) Purge() {
	s.cache.Purge()
	s.logger.Debug("Кэш справочников PGV сброшен")
}

// StreetUnitValue — стоимость м² земли по улице.
func (s *ValuationService) StreetUnitValue(ctx context.Context, street string) (float64, bool, error) {
	return s.lookup(ctx, model.KindStreets, street)
}

// ConstructionUnitValue — стоимость м² постройки по стандарту.
func (s *ValuationService) ConstructionUnitValue(ctx context.Context, description string) (float64, bool, error) {
	return s.lookup(ctx, model.KindStandards, description)
}

// TaxRate — ставка IPTU по категории использования.
func (s *ValuationService) TaxRate(ctx context.Context, usage string) (float64, bool, error) {
	return s.lookup(ctx, model.KindRates, usage)
}

func (s *ValuationService) lookup(ctx context.Context, kind model.ReferenceKind, key string) (float64, bool, error) {
	cacheKey := string(kind) + "\x00" + key
	if v, ok := s.cache.Get(cacheKey); ok {
		valuationCacheHitsTotal.Inc()
		return v.value, v.found, nil
	}
	valuationCacheMissesTotal.Inc()

	value, found, err := s.repo.FindValue(ctx, kind, key)
	if err != nil {
		// Ошибки не кэшируются
		return 0, false, err
	}
	s.cache.Add(cacheKey, cachedValue{value: value, found: found})
	return value, found, nil
}
