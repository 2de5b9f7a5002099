package pebblestore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/pricewise/backend/internal/domain"
)

// Key prefixes. Price keys embed an inverted timestamp and insertion
// sequence so a forward scan yields observations newest first.
const (
	productPrefix     = "product/"
	pricePrefix       = "price/"
	listPrefix        = "list/"
	supermarketPrefix = "market/"
	priceSeqKey       = "meta/price-seq"
)

// Store implements the domain repositories on top of PebbleDB.
type Store struct {
	db *pebble.DB
	// guards check-then-write sequences and priceSeq
	writeMu  sync.Mutex
	priceSeq uint64
}

// Open opens (or creates) a store in dir
func Open(dir string) (*Store, error) {
	opts := &pebble.Options{
		MemTableSize: 64 << 20,
	}
	db, err := pebble.Open(filepath.Clean(dir), opts)
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}

	store := &Store{db: db}
	val, closer, err := db.Get([]byte(priceSeqKey))
	switch {
	case errors.Is(err, pebble.ErrNotFound):
	case err != nil:
		_ = db.Close()
		return nil, fmt.Errorf("read %s: %w", priceSeqKey, err)
	default:
		if len(val) == 8 {
			store.priceSeq = binary.BigEndian.Uint64(val)
		}
		_ = closer.Close()
	}
	return store, nil
}

// Close flushes and closes the database
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) put(key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.db.Set([]byte(key), b, pebble.Sync)
}

// get decodes the value at key into v; found is false when the key is absent
func (s *Store) get(key string, v interface{}) (found bool, err error) {
	val, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer closer.Close()

	if err := json.Unmarshal(val, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// scan calls fn with the raw value of every key under prefix, in key order
func (s *Store) scan(ctx context.Context, prefix string, fn func(val []byte) error) error {
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: prefixUpperBound([]byte(prefix)),
	})
	if err != nil {
		return err
	}
	defer it.Close()

	for it.First(); it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// CreateProduct stores a product, failing if the barcode is taken
func (s *Store) CreateProduct(ctx context.Context, product *domain.Product) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var existing domain.Product
	found, err := s.get(productPrefix+product.Barcode, &existing)
	if err != nil {
		return err
	}
	if found {
		return domain.ErrProductExists
	}
	return s.put(productPrefix+product.Barcode, product)
}

// GetProduct returns the product registered under barcode
func (s *Store) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	var product domain.Product
	found, err := s.get(productPrefix+barcode, &product)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrProductNotFound
	}
	return &product, nil
}

// ListProducts returns all products ordered by barcode
func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0)
	err := s.scan(ctx, productPrefix, func(val []byte) error {
		var p domain.Product
		if err := json.Unmarshal(val, &p); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// priceKey sorts newer observations first. Flipping the sign bit makes the
// signed nanosecond timestamp order as unsigned, so pre-1970 times sort
// correctly. Equal timestamps fall back to the inverted insertion sequence.
func priceKey(observedAt time.Time, seq uint64, id string) string {
	ts := uint64(observedAt.UnixNano()) ^ (1 << 63)
	return fmt.Sprintf("%s%016x/%016x/%s", pricePrefix, ^ts, ^seq, id)
}

// AddObservation stores a price observation
func (s *Store) AddObservation(ctx context.Context, obs *domain.PriceObservation) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	b, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("encode observation %s: %w", obs.ID, err)
	}
	seq := s.priceSeq + 1
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], seq)

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set([]byte(priceKey(obs.ObservedAt, seq, obs.ID)), b, nil); err != nil {
		return err
	}
	if err := batch.Set([]byte(priceSeqKey), seqBuf[:], nil); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit observation %s: %w", obs.ID, err)
	}
	s.priceSeq = seq
	return nil
}

// ListObservations returns every observation, newest first
func (s *Store) ListObservations(ctx context.Context) ([]domain.PriceObservation, error) {
	return s.listObservations(ctx, func(domain.PriceObservation) bool { return true })
}

// ListObservationsByBarcode returns the observations of one product, newest first
func (s *Store) ListObservationsByBarcode(ctx context.Context, barcode string) ([]domain.PriceObservation, error) {
	return s.listObservations(ctx, func(o domain.PriceObservation) bool { return o.Barcode == barcode })
}

func (s *Store) listObservations(ctx context.Context, keep func(domain.PriceObservation) bool) ([]domain.PriceObservation, error) {
	out := make([]domain.PriceObservation, 0)
	err := s.scan(ctx, pricePrefix, func(val []byte) error {
		var obs domain.PriceObservation
		if err := json.Unmarshal(val, &obs); err != nil {
			return err
		}
		if keep(obs) {
			out = append(out, obs)
		}
		return nil
	})
	return out, err
}

// SaveList creates or replaces a shopping list
func (s *Store) SaveList(ctx context.Context, list *domain.ShoppingList) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.put(listPrefix+list.ID, list)
}

// UpdateList reads, modifies and writes a list under writeMu
func (s *Store) UpdateList(ctx context.Context, id string, fn func(list *domain.ShoppingList) error) (*domain.ShoppingList, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var list domain.ShoppingList
	found, err := s.get(listPrefix+id, &list)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrShoppingListNotFound
	}
	if err := fn(&list); err != nil {
		return nil, err
	}
	if err := s.put(listPrefix+id, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetList returns the shopping list with the given id
func (s *Store) GetList(ctx context.Context, id string) (*domain.ShoppingList, error) {
	var list domain.ShoppingList
	found, err := s.get(listPrefix+id, &list)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrShoppingListNotFound
	}
	return &list, nil
}

// ListByOwner returns the owner's lists, oldest first
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]domain.ShoppingList, error) {
	out := make([]domain.ShoppingList, 0)
	err := s.scan(ctx, listPrefix, func(val []byte) error {
		var list domain.ShoppingList
		if err := json.Unmarshal(val, &list); err != nil {
			return err
		}
		if list.OwnerID == ownerID {
			out = append(out, list)
		}
		return nil
	})
	if err != nil {
		return nil, err
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
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var list domain.ShoppingList
	found, err := s.get(listPrefix+id, &list)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrShoppingListNotFound
	}
	return s.db.Delete([]byte(listPrefix+id), pebble.Sync)
}

// SaveSupermarket creates or replaces a supermarket
func (s *Store) SaveSupermarket(ctx context.Context, market *domain.Supermarket) error {
	return s.put(supermarketPrefix+market.Label, market)
}

// GetSupermarket returns the supermarket with the given label
func (s *Store) GetSupermarket(ctx context.Context, label string) (*domain.Supermarket, error) {
	var market domain.Supermarket
	found, err := s.get(supermarketPrefix+label, &market)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrSupermarketNotFound
	}
	return &market, nil
}

// ListSupermarkets returns all supermarkets ordered by label
func (s *Store) ListSupermarkets(ctx context.Context) ([]domain.Supermarket, error) {
	out := make([]domain.Supermarket, 0)
	err := s.scan(ctx, supermarketPrefix, func(val []byte) error {
		var m domain.Supermarket
		if err := json.Unmarshal(val, &m); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	return out, err
}
