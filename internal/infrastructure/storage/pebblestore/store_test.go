package pebblestore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pricewise/backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Products(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	milk := &domain.Product{Barcode: "4006381333931", Name: "Milk", Brand: "Farm"}
	require.NoError(t, store.CreateProduct(ctx, milk))
	assert.ErrorIs(t, store.CreateProduct(ctx, milk), domain.ErrProductExists)

	got, err := store.GetProduct(ctx, milk.Barcode)
	require.NoError(t, err)
	assert.Equal(t, "Milk", got.Name)
	assert.Equal(t, "Farm", got.Brand)

	_, err = store.GetProduct(ctx, "96385074")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	require.NoError(t, store.CreateProduct(ctx, &domain.Product{Barcode: "036000291452", Name: "Bread"}))
	all, err := store.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "036000291452", all[0].Barcode)
	assert.Equal(t, "4006381333931", all[1].Barcode)
}

func TestStore_ObservationsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	obs := []domain.PriceObservation{
		{ID: "1", Barcode: "A", ProductName: "Milk", SupermarketLabel: "S1", Price: decimal.NewFromInt(1), ObservedAt: base},
		{ID: "2", Barcode: "A", ProductName: "Milk", SupermarketLabel: "S1", Price: decimal.NewFromInt(2), ObservedAt: base.Add(2 * time.Hour)},
		{ID: "3", Barcode: "B", ProductName: "Bread", SupermarketLabel: "S2", Price: decimal.NewFromInt(3), ObservedAt: base.Add(time.Hour)},
	}
	for i := range obs {
		require.NoError(t, store.AddObservation(ctx, &obs[i]))
	}

	all, err := store.ListObservations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"2", "3", "1"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.True(t, all[0].Price.Equal(decimal.NewFromInt(2)))

	forA, err := store.ListObservationsByBarcode(ctx, "A")
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, "2", forA[0].ID)
	assert.Equal(t, "1", forA[1].ID)
}

func TestStore_ObservationOrderingEdgeCases(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	same := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	obs := []domain.PriceObservation{
		{ID: "new", Barcode: "A", ProductName: "Milk", SupermarketLabel: "S1", Price: decimal.NewFromInt(4), ObservedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "old", Barcode: "A", ProductName: "Milk", SupermarketLabel: "S1", Price: decimal.NewFromInt(99), ObservedAt: time.Date(1969, 7, 20, 0, 0, 0, 0, time.UTC)},
		{ID: "epoch", Barcode: "A", ProductName: "Milk", SupermarketLabel: "S1", Price: decimal.NewFromInt(5), ObservedAt: time.Unix(0, 0).UTC()},
		{ID: "z-first", Barcode: "B", ProductName: "Bread", SupermarketLabel: "S1", Price: decimal.NewFromInt(1), ObservedAt: same},
		{ID: "a-second", Barcode: "B", ProductName: "Bread", SupermarketLabel: "S1", Price: decimal.NewFromInt(2), ObservedAt: same},
	}
	for i := range obs {
		require.NoError(t, store.AddObservation(ctx, &obs[i]))
	}

	forA, err := store.ListObservationsByBarcode(ctx, "A")
	require.NoError(t, err)
	require.Len(t, forA, 3)
	assert.Equal(t, []string{"new", "epoch", "old"}, []string{forA[0].ID, forA[1].ID, forA[2].ID})

	forB, err := store.ListObservationsByBarcode(ctx, "B")
	require.NoError(t, err)
	require.Len(t, forB, 2)
	assert.Equal(t, "a-second", forB[0].ID, "equal timestamps list the latest write first")
	assert.Equal(t, "z-first", forB[1].ID)
}

func TestStore_ObservationSequenceSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	same := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.AddObservation(ctx, &domain.PriceObservation{ID: "before", Barcode: "A", Price: decimal.NewFromInt(1), ObservedAt: same}))
	require.NoError(t, store.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.AddObservation(ctx, &domain.PriceObservation{ID: "after", Barcode: "A", Price: decimal.NewFromInt(2), ObservedAt: same}))

	all, err := reopened.ListObservations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "after", all[0].ID)
}

func TestStore_ShoppingLists(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := &domain.ShoppingList{ID: "l1", Name: "Weekly", OwnerID: "u1", CreatedAt: now,
		Items: []domain.ShoppingListItem{{ProductName: "Milk"}}}
	second := &domain.ShoppingList{ID: "l2", Name: "Party", OwnerID: "u1", CreatedAt: now.Add(time.Minute)}
	other := &domain.ShoppingList{ID: "l3", Name: "Other", OwnerID: "u2", CreatedAt: now}

	for _, l := range []*domain.ShoppingList{second, first, other} {
		require.NoError(t, store.SaveList(ctx, l))
	}

	got, err := store.GetList(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, []domain.ShoppingListItem{{ProductName: "Milk"}}, got.Items)

	mine, err := store.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "l1", mine[0].ID)
	assert.Equal(t, "l2", mine[1].ID)

	t.Run("equal creation times order by id", func(t *testing.T) {
		require.NoError(t, store.SaveList(ctx, &domain.ShoppingList{ID: "b", OwnerID: "u3", CreatedAt: now}))
		require.NoError(t, store.SaveList(ctx, &domain.ShoppingList{ID: "a", OwnerID: "u3", CreatedAt: now}))
		tied, err := store.ListByOwner(ctx, "u3")
		require.NoError(t, err)
		require.Len(t, tied, 2)
		assert.Equal(t, "a", tied[0].ID)
		assert.Equal(t, "b", tied[1].ID)
	})

	require.NoError(t, store.DeleteList(ctx, "l1"))
	_, err = store.GetList(ctx, "l1")
	assert.ErrorIs(t, err, domain.ErrShoppingListNotFound)
	assert.ErrorIs(t, store.DeleteList(ctx, "l1"), domain.ErrShoppingListNotFound)
}

func TestStore_UpdateList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveList(ctx, &domain.ShoppingList{ID: "l1", OwnerID: "u1"}))

	t.Run("not found", func(t *testing.T) {
		_, err := store.UpdateList(ctx, "missing", func(*domain.ShoppingList) error { return nil })
		assert.ErrorIs(t, err, domain.ErrShoppingListNotFound)
	})

	t.Run("error from fn leaves the list untouched", func(t *testing.T) {
		_, err := store.UpdateList(ctx, "l1", func(list *domain.ShoppingList) error {
			list.Name = "changed"
			return domain.ErrInvalidInput
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		got, err := store.GetList(ctx, "l1")
		require.NoError(t, err)
		assert.Empty(t, got.Name)
	})

	t.Run("concurrent appends are all kept", func(t *testing.T) {
		const n = 50
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := store.UpdateList(ctx, "l1", func(list *domain.ShoppingList) error {
					list.Items = append(list.Items, domain.ShoppingListItem{ProductName: fmt.Sprintf("item-%d", i)})
					return nil
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := store.GetList(ctx, "l1")
		require.NoError(t, err)
		assert.Len(t, got.Items, n)
	})
}

func TestStore_Supermarkets(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	loc := &domain.GeoPoint{Latitude: 52.52, Longitude: 13.405}
	require.NoError(t, store.SaveSupermarket(ctx, &domain.Supermarket{Label: "Rewe", Address: "Berlin", Location: loc}))
	require.NoError(t, store.SaveSupermarket(ctx, &domain.Supermarket{Label: "Aldi"}))

	got, err := store.GetSupermarket(ctx, "Rewe")
	require.NoError(t, err)
	require.NotNil(t, got.Location)
	assert.Equal(t, *loc, *got.Location)

	_, err = store.GetSupermarket(ctx, "Lidl")
	assert.ErrorIs(t, err, domain.ErrSupermarketNotFound)

	all, err := store.ListSupermarkets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Aldi", all[0].Label)
}

func TestStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.CreateProduct(ctx, &domain.Product{Barcode: "96385074", Name: "Eggs"}))
	require.NoError(t, store.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetProduct(ctx, "96385074")
	require.NoError(t, err)
	assert.Equal(t, "Eggs", got.Name)
}

func TestPrefixUpperBound(t *testing.T) {
	assert.Equal(t, []byte("price0"), prefixUpperBound([]byte("price/")))
	assert.Equal(t, []byte{0x02}, prefixUpperBound([]byte{0x01, 0xff}))
	assert.Nil(t, prefixUpperBound([]byte{0xff}))
}
