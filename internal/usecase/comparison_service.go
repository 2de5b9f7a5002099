package usecase

import (
	"context"
	"time"

	"github.com/pricewise/backend/internal/domain"
	"github.com/pricewise/backend/internal/infrastructure/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogSource supplies the price catalog, newest observation first
type CatalogSource interface {
	Catalog(ctx context.Context) ([]domain.CatalogEntry, error)
}

// DistanceSource resolves distances from an origin to supermarkets
type DistanceSource interface {
	Distances(ctx context.Context, origin *domain.GeoPoint, labels []string) (map[string]decimal.Decimal, map[string]bool)
}

// ComparisonService loads lists and catalog data and runs the price comparator
type ComparisonService struct {
	catalog    CatalogSource
	lists      domain.ShoppingListRepository
	locations  DistanceSource
	comparator *PriceComparator
	metrics    *metrics.Registry
	logger     *zap.Logger
	now        func() time.Time
}

// NewComparisonService creates a comparison service. locations and m may be nil.
func NewComparisonService(
	catalog CatalogSource,
	lists domain.ShoppingListRepository,
	locations DistanceSource,
	comparator *PriceComparator,
	m *metrics.Registry,
	logger *zap.Logger,
) *ComparisonService {
	if comparator == nil {
		comparator = NewPriceComparator(domain.PolicyZeroCost)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComparisonService{
		catalog:    catalog,
		lists:      lists,
		locations:  locations,
		comparator: comparator,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// CompareList compares a stored shopping list
func (s *ComparisonService) CompareList(ctx context.Context, listID string, origin *domain.GeoPoint) (*domain.ComparisonResult, error) {
	list, err := s.lists.GetList(ctx, listID)
	if err != nil {
		return nil, err
	}
	return s.CompareItems(ctx, list.Items, origin)
}

// CompareItems totals items at every supermarket that carries at least one of them
func (s *ComparisonService) CompareItems(ctx context.Context, items []domain.ShoppingListItem, origin *domain.GeoPoint) (*domain.ComparisonResult, error) {
	start := s.now()

	cleaned, err := normalizeItems(items)
	if err != nil {
		return nil, err
	}
	if origin != nil {
		if err := origin.Validate(); err != nil {
			return nil, err
		}
	}

	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	labels := relevantSupermarkets(cleaned, catalog)
	distances := make(map[string]decimal.Decimal)
	known := make(map[string]bool)
	if s.locations != nil && len(labels) > 0 {
		distances, known = s.locations.Distances(ctx, origin, labels)
	}

	totals, err := s.comparator.Compare(cleaned, catalog, func(label string) decimal.Decimal {
		return distances[label]
	})
	if err != nil {
		return nil, err
	}

	result := &domain.ComparisonResult{
		Items:      cleaned,
		Totals:     totals,
		Policy:     s.comparator.Policy(),
		ComparedAt: s.now().UTC(),
	}
	for i := range totals {
		totals[i].DistanceKnown = known[totals[i].SupermarketLabel]
		if totals[i].IsBestChoice {
			best := totals[i]
			result.Best = &best
		}
	}

	if s.metrics != nil {
		s.metrics.Comparisons.WithLabelValues(string(result.Policy)).Inc()
		s.metrics.ComparisonDuration.Observe(s.now().Sub(start).Seconds())
	}
	s.logger.Debug("shopping list compared",
		zap.Int("items", len(cleaned)),
		zap.Int("supermarkets", len(totals)),
		zap.Bool("has_best", result.Best != nil))

	return result, nil
}

// relevantSupermarkets returns labels carrying at least one item, in catalog order
func relevantSupermarkets(items []domain.ShoppingListItem, catalog []domain.CatalogEntry) []string {
	wanted := make(map[string]bool, len(items))
	for _, item := range items {
		wanted[item.ProductName] = true
	}
	seen := make(map[string]bool)
	var labels []string
	for _, entry := range catalog {
		if !wanted[entry.ProductName] || seen[entry.SupermarketLabel] {
			continue
		}
		seen[entry.SupermarketLabel] = true
		labels = append(labels, entry.SupermarketLabel)
	}
	return labels
}
