package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pricewise/backend/internal/domain"
)

// Store is a thread-safe in-memory implementation of the product, price,
// shopping list and supermarket repositories. Contents are lost on restart.
type Store struct {
	mutex        sync.RWMutex
	products     map[string]domain.Product
	observations []domain.PriceObservation // insertion order
	lists        map[string]domain.ShoppingList
	supermarkets map[string]domain.Supermarket
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		products:     make(map[string]domain.Product),
		lists:        make(map[string]domain.ShoppingList),
		supermarkets: make(map[string]domain.Supermarket),
	}
}

// CreateProduct stores a product, failing if the barcode is taken
func (s *Store) CreateProduct(ctx context.Context, product *domain.Product) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.products[product.Barcode]; exists {
		return domain.ErrProductExists
	}
	s.products[product.Barcode] = *product
	return nil
}

// GetProduct returns the product registered under barcode
func (s *Store) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	product, ok := s.products[barcode]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &product, nil
}

// ListProducts returns all products ordered by barcode
func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Barcode < out[j].Barcode })
	return out, nil
}

// AddObservation appends a price observation
func (s *Store) AddObservation(ctx context.Context, obs *domain.PriceObservation) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.observations = append(s.observations, *obs)
	return nil
}

// ListObservations returns every observation, newest first.
// Observations with equal timestamps keep reverse insertion order.
func (s *Store) ListObservations(ctx context.Context) ([]domain.PriceObservation, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return newestFirst(s.observations, func(domain.PriceObservation) bool { return true }), nil
}

// ListObservationsByBarcode returns the observations of one product, newest first
func (s *Store) ListObservationsByBarcode(ctx context.Context, barcode string) ([]domain.PriceObservation, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return newestFirst(s.observations, func(o domain.PriceObservation) bool { return o.Barcode == barcode }), nil
}

func newestFirst(all []domain.PriceObservation, keep func(domain.PriceObservation) bool) []domain.PriceObservation {
	out := make([]domain.PriceObservation, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if keep(all[i]) {
			out = append(out, all[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ObservedAt.After(out[j].ObservedAt) })
	return out
}

// SaveList creates or replaces a shopping list
func (s *Store) SaveList(ctx context.Context, list *domain.ShoppingList) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := *list
	stored.Items = append([]domain.ShoppingListItem(nil), list.Items...)
	s.lists[list.ID] = stored
	return nil
}

// GetList returns a copy of the shopping list with the given id
func (s *Store) GetList(ctx context.Context, id string) (*domain.ShoppingList, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	list, ok := s.lists[id]
	if !ok {
		return nil, domain.ErrShoppingListNotFound
	}
	list.Items = append([]domain.ShoppingListItem(nil), list.Items...)
	return &list, nil
}

// UpdateList applies fn to a copy of the list under the write lock and stores
// the result. Nothing is stored when fn fails.
func (s *Store) UpdateList(ctx context.Context, id string, fn func(list *domain.ShoppingList) error) (*domain.ShoppingList, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	list, ok := s.lists[id]
	if !ok {
		return nil, domain.ErrShoppingListNotFound
	}
	list.Items = append([]domain.ShoppingListItem(nil), list.Items...)
	if err := fn(&list); err != nil {
		return nil, err
	}

	stored := list
	stored.Items = append([]domain.ShoppingListItem(nil), list.Items...)
	s.lists[id] = stored
	return &list, nil
}

// ListByOwner returns the owner's lists, oldest first
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]domain.ShoppingList, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]domain.ShoppingList, 0)
	for _, list := range s.lists {
		if list.OwnerID == ownerID {
			list.Items = append([]domain.ShoppingListItem(nil), list.Items...)
			out = append(out, list)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteList removes a shopping list
func (s *Store) DeleteList(ctx context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.lists[id]; !ok {
		return domain.ErrShoppingListNotFound
	}
	delete(s.lists, id)
	return nil
}

// SaveSupermarket creates or replaces a supermarket
func (s *Store) SaveSupermarket(ctx context.Context, market *domain.Supermarket) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := *market
	if market.Location != nil {
		loc := *market.Location
		stored.Location = &loc
	}
	s.supermarkets[market.Label] = stored
	return nil
}

// GetSupermarket returns the supermarket with the given label
func (s *Store) GetSupermarket(ctx context.Context, label string) (*domain.Supermarket, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	market, ok := s.supermarkets[label]
	if !ok {
		return nil, domain.ErrSupermarketNotFound
	}
	return &market, nil
}

// ListSupermarkets returns all supermarkets ordered by label
func (s *Store) ListSupermarkets(ctx context.Context) ([]domain.Supermarket, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]domain.Supermarket, 0, len(s.supermarkets))
	for _, m := range s.supermarkets {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}
