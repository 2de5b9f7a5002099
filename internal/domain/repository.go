package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ProductRepository persists barcode-registered products
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *Product) error
	GetProduct(ctx context.Context, barcode string) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
}

// PriceRepository persists price observations
type PriceRepository interface {
	AddObservation(ctx context.Context, obs *PriceObservation) error
	// ListObservations returns every observation, newest first
	ListObservations(ctx context.Context) ([]PriceObservation, error)
	ListObservationsByBarcode(ctx context.Context, barcode string) ([]PriceObservation, error)
}

// ShoppingListRepository persists shopping lists
type ShoppingListRepository interface {
	SaveList(ctx context.Context, list *ShoppingList) error
	GetList(ctx context.Context, id string) (*ShoppingList, error)
	// UpdateList applies fn to the stored list and saves the result atomically.
	// An error from fn aborts the update and is returned as is.
	UpdateList(ctx context.Context, id string, fn func(list *ShoppingList) error) (*ShoppingList, error)
	ListByOwner(ctx context.Context, ownerID string) ([]ShoppingList, error)
	DeleteList(ctx context.Context, id string) error
}

// SupermarketRepository persists known supermarkets
type SupermarketRepository interface {
	SaveSupermarket(ctx context.Context, market *Supermarket) error
	GetSupermarket(ctx context.Context, label string) (*Supermarket, error)
	ListSupermarkets(ctx context.Context) ([]Supermarket, error)
}

// Geocoder resolves free-text place queries to coordinates
type Geocoder interface {
	Search(ctx context.Context, query string) (*Place, error)
}

// EventPublisher publishes domain events to downstream consumers
type EventPublisher interface {
	PublishPriceRecorded(ctx context.Context, event PriceRecordedEvent) error
}
