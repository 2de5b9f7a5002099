package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pricewise/backend/internal/domain"
	"github.com/pricewise/backend/internal/infrastructure/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	paris  = domain.GeoPoint{Latitude: 48.8566, Longitude: 2.3522}
	london = domain.GeoPoint{Latitude: 51.5074, Longitude: -0.1278}
)

func TestNewLocationService_Defaults(t *testing.T) {
	svc := NewLocationService(memory.NewStore(), nil, nil, nil, nil, LocationServiceConfig{})
	assert.Equal(t, 720*time.Hour, svc.cacheTTL)
}

func TestLocationService_Distances(t *testing.T) {
	ctx := context.Background()

	t.Run("no origin means unknown without lookups", func(t *testing.T) {
		geo := NewMockGeocoder()
		svc := NewLocationService(memory.NewStore(), NewMockCacheRepository(), geo, nil, nil, LocationServiceConfig{})

		distances, known := svc.Distances(ctx, nil, []string{"A", "B"})

		assert.True(t, distances["A"].IsZero())
		assert.False(t, known["A"])
		assert.False(t, known["B"])
		assert.Empty(t, geo.queries)
	})

	t.Run("stored coordinates are used first", func(t *testing.T) {
		store := memory.NewStore()
		require.NoError(t, store.SaveSupermarket(ctx, &domain.Supermarket{Label: "London Store", Location: &london}))
		geo := NewMockGeocoder()
		svc := NewLocationService(store, NewMockCacheRepository(), geo, nil, nil, LocationServiceConfig{})

		distances, known := svc.Distances(ctx, &paris, []string{"London Store"})

		assert.True(t, known["London Store"])
		assert.InDelta(t, 343.56, distances["London Store"].InexactFloat64(), 0.5)
		assert.True(t, distances["London Store"].Equal(distances["London Store"].Round(2)))
		assert.Empty(t, geo.queries)
	})

	t.Run("geocodes label and address then caches", func(t *testing.T) {
		store := memory.NewStore()
		require.NoError(t, store.SaveSupermarket(ctx, &domain.Supermarket{Label: "Tesco", Address: "Oxford Street"}))
		geo := NewMockGeocoder()
		geo.places["Tesco Oxford Street"] = london
		cache := NewMockCacheRepository()
		svc := NewLocationService(store, cache, geo, nil, nil, LocationServiceConfig{})

		_, known := svc.Distances(ctx, &paris, []string{"Tesco"})
		require.True(t, known["Tesco"])
		assert.True(t, cache.setCalled)
		assert.Contains(t, cache.data, "geo:tesco oxford street")

		_, known = svc.Distances(ctx, &paris, []string{"Tesco"})
		assert.True(t, known["Tesco"])
		assert.Len(t, geo.queries, 1)
	})

	t.Run("unregistered supermarket is geocoded by label", func(t *testing.T) {
		geo := NewMockGeocoder()
		geo.places["Carrefour"] = paris
		svc := NewLocationService(memory.NewStore(), nil, geo, nil, nil, LocationServiceConfig{})

		distances, known := svc.Distances(ctx, &paris, []string{"Carrefour"})
		assert.True(t, known["Carrefour"])
		assert.True(t, distances["Carrefour"].IsZero())
	})

	t.Run("geocoder failure yields unknown distance", func(t *testing.T) {
		geo := NewMockGeocoder()
		geo.err = domain.ErrGeocoderFailure
		svc := NewLocationService(memory.NewStore(), NewMockCacheRepository(), geo, nil, nil, LocationServiceConfig{})

		distances, known := svc.Distances(ctx, &paris, []string{"A"})
		assert.False(t, known["A"])
		assert.True(t, distances["A"].IsZero())
	})

	t.Run("cache errors fall through to geocoder", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.getError = errors.New("cache down")
		cache.setError = errors.New("cache down")
		geo := NewMockGeocoder()
		geo.places["A"] = london
		svc := NewLocationService(memory.NewStore(), cache, geo, nil, nil, LocationServiceConfig{})

		_, known := svc.Distances(ctx, &paris, []string{"A"})
		assert.True(t, known["A"])
	})

	t.Run("nil geocoder yields unknown distance", func(t *testing.T) {
		svc := NewLocationService(memory.NewStore(), nil, nil, nil, nil, LocationServiceConfig{})
		_, known := svc.Distances(ctx, &paris, []string{"A"})
		assert.False(t, known["A"])
	})
}

func TestLocationService_GetFromCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMockCacheRepository()
	svc := NewLocationService(memory.NewStore(), cache, nil, nil, nil, LocationServiceConfig{})

	cache.data["value"] = paris
	cache.data["pointer"] = &london
	cache.data["map"] = map[string]interface{}{"latitude": 1.5, "longitude": 2.5}
	cache.data["bad map"] = map[string]interface{}{"latitude": "x"}
	cache.data["other"] = 42

	loc, err := svc.getFromCache(ctx, "value")
	require.NoError(t, err)
	assert.Equal(t, paris, *loc)

	loc, err = svc.getFromCache(ctx, "pointer")
	require.NoError(t, err)
	assert.Equal(t, london, *loc)

	loc, err = svc.getFromCache(ctx, "map")
	require.NoError(t, err)
	assert.Equal(t, domain.GeoPoint{Latitude: 1.5, Longitude: 2.5}, *loc)

	_, err = svc.getFromCache(ctx, "bad map")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	_, err = svc.getFromCache(ctx, "other")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestNormalizeForCacheKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Tesco, Oxford St.", "tesco oxford st"},
		{"  REWE   Alexanderplatz ", "rewe alexanderplatz"},
		{"Café Müller", "café müller"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeForCacheKey(tt.in))
		})
	}
}
