package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pricewise/backend/internal/domain"
	"github.com/pricewise/backend/internal/infrastructure/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService registers products and supermarkets and records observed prices
type CatalogService struct {
	products  domain.ProductRepository
	prices    domain.PriceRepository
	markets   domain.SupermarketRepository
	publisher domain.EventPublisher
	metrics   *metrics.Registry
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewCatalogService creates a catalog service. publisher and m may be nil.
func NewCatalogService(
	products domain.ProductRepository,
	prices domain.PriceRepository,
	markets domain.SupermarketRepository,
	publisher domain.EventPublisher,
	m *metrics.Registry,
	logger *zap.Logger,
) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		products:  products,
		prices:    prices,
		markets:   markets,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// RegisterProduct validates and stores a new product
func (s *CatalogService) RegisterProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.Barcode = strings.TrimSpace(product.Barcode)
	product.Name = strings.TrimSpace(product.Name)
	product.Brand = strings.TrimSpace(product.Brand)

	if err := domain.ValidateBarcode(product.Barcode); err != nil {
		return nil, err
	}
	if product.Name == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	}
	product.CreatedAt = s.now().UTC()

	if err := s.products.CreateProduct(ctx, &product); err != nil {
		return nil, err
	}

	s.logger.Info("product registered",
		zap.String("barcode", product.Barcode),
		zap.String("name", product.Name))
	return &product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	return s.products.GetProduct(ctx, strings.TrimSpace(barcode))
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListProducts(ctx)
}

// RegisterSupermarket creates or updates a supermarket
func (s *CatalogService) RegisterSupermarket(ctx context.Context, market domain.Supermarket) (*domain.Supermarket, error) {
	market.Label = strings.TrimSpace(market.Label)
	market.Address = strings.TrimSpace(market.Address)
	if market.Label == "" {
		return nil, fmt.Errorf("%w: supermarket label is required", domain.ErrInvalidInput)
	}
	if market.Location != nil {
		if err := market.Location.Validate(); err != nil {
			return nil, err
		}
	}

	if err := s.markets.SaveSupermarket(ctx, &market); err != nil {
		return nil, err
	}
	return &market, nil
}

func (s *CatalogService) ListSupermarkets(ctx context.Context) ([]domain.Supermarket, error) {
	return s.markets.ListSupermarkets(ctx)
}

// RecordPrice stores a price observation for a registered product.
// A zero observedAt means now. Unknown supermarkets are registered on first sight.
func (s *CatalogService) RecordPrice(
	ctx context.Context,
	barcode string,
	supermarketLabel string,
	price decimal.Decimal,
	observedAt time.Time,
) (*domain.PriceObservation, error) {
	supermarketLabel = strings.TrimSpace(supermarketLabel)
	if supermarketLabel == "" {
		return nil, fmt.Errorf("%w: supermarket label is required", domain.ErrInvalidInput)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price %s is negative", domain.ErrInvalidInput, price)
	}

	product, err := s.products.GetProduct(ctx, strings.TrimSpace(barcode))
	if err != nil {
		return nil, err
	}

	if err := s.ensureSupermarket(ctx, supermarketLabel); err != nil {
		return nil, err
	}

	if observedAt.IsZero() {
		observedAt = s.now()
	}
	obs := &domain.PriceObservation{
		ID:               s.newID(),
		Barcode:          product.Barcode,
		ProductName:      product.Name,
		SupermarketLabel: supermarketLabel,
		Price:            price,
		ObservedAt:       observedAt.UTC(),
	}
	if err := s.prices.AddObservation(ctx, obs); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PricesRecorded.Inc()
	}

	s.publish(ctx, obs)
	return obs, nil
}

func (s *CatalogService) ensureSupermarket(ctx context.Context, label string) error {
	_, err := s.markets.GetSupermarket(ctx, label)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrSupermarketNotFound) {
		return err
	}

	s.logger.Info("registering supermarket on first price", zap.String("supermarket", label))
	return s.markets.SaveSupermarket(ctx, &domain.Supermarket{Label: label})
}

// publish emits the price event; failures are logged, never returned
func (s *CatalogService) publish(ctx context.Context, obs *domain.PriceObservation) {
	if s.publisher == nil {
		return
	}
	event := domain.PriceRecordedEvent{
		ObservationID:    obs.ID,
		Barcode:          obs.Barcode,
		ProductName:      obs.ProductName,
		SupermarketLabel: obs.SupermarketLabel,
		Price:            obs.Price,
		ObservedAt:       obs.ObservedAt,
	}
	if err := s.publisher.PublishPriceRecorded(ctx, event); err != nil {
		if s.metrics != nil {
			s.metrics.EventPublishErrors.Inc()
		}
		s.logger.Warn("failed to publish price event",
			zap.String("observation_id", obs.ID),
			zap.Error(err))
	}
}

// PriceHistory returns the observations of one product, oldest first
func (s *CatalogService) PriceHistory(ctx context.Context, barcode string) ([]domain.PriceObservation, error) {
	barcode = strings.TrimSpace(barcode)
	if _, err := s.products.GetProduct(ctx, barcode); err != nil {
		return nil, err
	}

	newest, err := s.prices.ListObservationsByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	history := make([]domain.PriceObservation, len(newest))
	for i, obs := range newest {
		history[len(newest)-1-i] = obs
	}
	return history, nil
}

// Catalog returns every observation as a comparator entry, newest first,
// so the latest price per supermarket and product is the one compared.
func (s *CatalogService) Catalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	observations, err := s.prices.ListObservations(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.CatalogEntry, len(observations))
	for i, obs := range observations {
		entries[i] = obs.ToCatalogEntry()
	}
	return entries, nil
}
