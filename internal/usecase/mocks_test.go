package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/pricewise/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockGeocoder is a mock implementation of domain.Geocoder
type MockGeocoder struct {
	places  map[string]domain.GeoPoint
	err     error
	queries []string
}

func NewMockGeocoder() *MockGeocoder {
	return &MockGeocoder{places: make(map[string]domain.GeoPoint)}
}

func (m *MockGeocoder) Search(ctx context.Context, query string) (*domain.Place, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	loc, ok := m.places[query]
	if !ok {
		return nil, domain.ErrPlaceNotFound
	}
	return &domain.Place{DisplayName: query, Location: loc}, nil
}

// MockPublisher records published events
type MockPublisher struct {
	mu     sync.Mutex
	events []domain.PriceRecordedEvent
	err    error
}

func (m *MockPublisher) PublishPriceRecorded(ctx context.Context, event domain.PriceRecordedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

// fixedClock returns a clock that advances by step on every call
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		t := current
		current = current.Add(step)
		return t
	}
}
