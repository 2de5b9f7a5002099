package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/pricewise/backend/internal/domain"
	"github.com/pricewise/backend/internal/infrastructure/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var nonAlphanumericRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// LocationServiceConfig holds configuration for the location service
type LocationServiceConfig struct {
	CacheTTL time.Duration
}

// LocationService resolves supermarket coordinates and distances from an origin.
// Lookup order: stored coordinates, cache, geocoder.
type LocationService struct {
	markets  domain.SupermarketRepository
	cache    domain.CacheRepository
	geocoder domain.Geocoder
	metrics  *metrics.Registry
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewLocationService creates a location service. cache, geocoder and m may be nil.
func NewLocationService(
	markets domain.SupermarketRepository,
	cache domain.CacheRepository,
	geocoder domain.Geocoder,
	m *metrics.Registry,
	logger *zap.Logger,
	config LocationServiceConfig,
) *LocationService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 720 * time.Hour // Default 30 days
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LocationService{
		markets:  markets,
		cache:    cache,
		geocoder: geocoder,
		metrics:  m,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// Distances returns the distance in km (2 decimals) from origin to each labelled
// supermarket, and whether it is known. Unknown distances are zero.
// A nil origin makes every distance unknown without any lookup.
func (s *LocationService) Distances(
	ctx context.Context,
	origin *domain.GeoPoint,
	labels []string,
) (map[string]decimal.Decimal, map[string]bool) {
	distances := make(map[string]decimal.Decimal, len(labels))
	known := make(map[string]bool, len(labels))
	for _, label := range labels {
		distances[label] = decimal.Zero
		known[label] = false
	}
	if origin == nil {
		return distances, known
	}

	for _, label := range labels {
		if ctx.Err() != nil {
			break
		}
		loc, ok := s.Locate(ctx, label)
		if !ok {
			continue
		}
		km := origin.DistanceKm(*loc)
		distances[label] = decimal.NewFromFloat(km).Round(2)
		known[label] = true
	}
	return distances, known
}

// Locate resolves a supermarket's coordinates. Failures are logged and reported as not found.
func (s *LocationService) Locate(ctx context.Context, label string) (*domain.GeoPoint, bool) {
	query := label
	market, err := s.markets.GetSupermarket(ctx, label)
	switch {
	case err == nil:
		if market.Location != nil {
			s.recordLookup(metrics.GeocodeStored)
			return market.Location, true
		}
		if market.Address != "" {
			query = label + " " + market.Address
		}
	case errors.Is(err, domain.ErrSupermarketNotFound):
	default:
		s.logger.Warn("supermarket lookup failed", zap.String("supermarket", label), zap.Error(err))
		s.recordLookup(metrics.GeocodeFailed)
		return nil, false
	}

	cacheKey := generateGeoCacheKey(query)
	if loc, err := s.getFromCache(ctx, cacheKey); err == nil {
		s.recordLookup(metrics.GeocodeCached)
		return loc, true
	}

	if s.geocoder == nil {
		s.recordLookup(metrics.GeocodeFailed)
		return nil, false
	}

	place, err := s.geocoder.Search(ctx, query)
	if err != nil {
		s.logger.Warn("geocoding supermarket failed",
			zap.String("supermarket", label),
			zap.String("query", query),
			zap.Error(err))
		s.recordLookup(metrics.GeocodeFailed)
		return nil, false
	}

	if err := s.setInCache(ctx, cacheKey, place.Location); err != nil {
		s.logger.Debug("failed to cache location", zap.String("key", cacheKey), zap.Error(err))
	}
	s.recordLookup(metrics.GeocodeFetched)
	return &place.Location, true
}

func (s *LocationService) recordLookup(result string) {
	if s.metrics != nil {
		s.metrics.GeocodeLookups.WithLabelValues(result).Inc()
	}
}

// generateGeoCacheKey creates a normalized cache key. Format: "geo:{normalized_query}"
func generateGeoCacheKey(query string) string {
	return "geo:" + normalizeForCacheKey(query)
}

// normalizeForCacheKey lowercases, strips punctuation and collapses whitespace
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// getFromCache retrieves a location from cache
func (s *LocationService) getFromCache(ctx context.Context, key string) (*domain.GeoPoint, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		s.recordCache(false)
		return nil, err
	}

	var loc *domain.GeoPoint
	switch v := value.(type) {
	case domain.GeoPoint:
		loc = &v
	case *domain.GeoPoint:
		loc = v
	case map[string]interface{}:
		// JSON-backed caches hand back the decoded map form
		loc = mapToGeoPoint(v)
	}
	if loc == nil {
		s.recordCache(false)
		return nil, domain.ErrCacheMiss
	}
	s.recordCache(true)
	return loc, nil
}

func (s *LocationService) recordCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHits.Inc()
	} else {
		s.metrics.CacheMisses.Inc()
	}
}

// setInCache stores a location in cache
func (s *LocationService) setInCache(ctx context.Context, key string, loc domain.GeoPoint) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, key, loc, s.cacheTTL)
}

// mapToGeoPoint converts a map (from JSON cache) to a GeoPoint
func mapToGeoPoint(data map[string]interface{}) *domain.GeoPoint {
	lat, ok := data["latitude"].(float64)
	if !ok {
		return nil
	}
	lon, ok := data["longitude"].(float64)
	if !ok {
		return nil
	}
	return &domain.GeoPoint{Latitude: lat, Longitude: lon}
}
