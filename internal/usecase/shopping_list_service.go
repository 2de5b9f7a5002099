package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pricewise/backend/internal/domain"
	"go.uber.org/zap"
)

// ShoppingListService manages owner-scoped shopping lists
type ShoppingListService struct {
	lists  domain.ShoppingListRepository
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewShoppingListService(lists domain.ShoppingListRepository, logger *zap.Logger) *ShoppingListService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShoppingListService{
		lists:  lists,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// CreateList stores a new list. Item names are trimmed and must be non-empty.
func (s *ShoppingListService) CreateList(ctx context.Context, ownerID, name string, items []domain.ShoppingListItem) (*domain.ShoppingList, error) {
	ownerID = strings.TrimSpace(ownerID)
	name = strings.TrimSpace(name)
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: list name is required", domain.ErrInvalidInput)
	}

	cleaned, err := normalizeItems(items)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	list := &domain.ShoppingList{
		ID:        s.newID(),
		Name:      name,
		OwnerID:   ownerID,
		Items:     cleaned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.lists.SaveList(ctx, list); err != nil {
		return nil, err
	}

	s.logger.Info("shopping list created",
		zap.String("list_id", list.ID),
		zap.String("owner", ownerID),
		zap.Int("items", len(cleaned)))
	return list, nil
}

func (s *ShoppingListService) GetList(ctx context.Context, id string) (*domain.ShoppingList, error) {
	return s.lists.GetList(ctx, id)
}

func (s *ShoppingListService) ListByOwner(ctx context.Context, ownerID string) ([]domain.ShoppingList, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	return s.lists.ListByOwner(ctx, ownerID)
}

// AddItem appends an item. Duplicates are allowed and each counts in a comparison.
func (s *ShoppingListService) AddItem(ctx context.Context, id, productName string) (*domain.ShoppingList, error) {
	productName = strings.TrimSpace(productName)
	if productName == "" {
		return nil, fmt.Errorf("%w: item name is required", domain.ErrInvalidInput)
	}

	return s.lists.UpdateList(ctx, id, func(list *domain.ShoppingList) error {
		list.Items = append(list.Items, domain.ShoppingListItem{ProductName: productName})
		list.UpdatedAt = s.now().UTC()
		return nil
	})
}

// RemoveItem removes the first item named productName
func (s *ShoppingListService) RemoveItem(ctx context.Context, id, productName string) (*domain.ShoppingList, error) {
	productName = strings.TrimSpace(productName)
	if productName == "" {
		return nil, fmt.Errorf("%w: item name is required", domain.ErrInvalidInput)
	}

	return s.lists.UpdateList(ctx, id, func(list *domain.ShoppingList) error {
		idx := -1
		for i, item := range list.Items {
			if item.ProductName == productName {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %q is not on the list", domain.ErrInvalidInput, productName)
		}
		list.Items = append(list.Items[:idx], list.Items[idx+1:]...)
		list.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *ShoppingListService) DeleteList(ctx context.Context, id string) error {
	if err := s.lists.DeleteList(ctx, id); err != nil {
		return err
	}
	s.logger.Info("shopping list deleted", zap.String("list_id", id))
	return nil
}

func normalizeItems(items []domain.ShoppingListItem) ([]domain.ShoppingListItem, error) {
	out := make([]domain.ShoppingListItem, 0, len(items))
	for i, item := range items {
		name := strings.TrimSpace(item.ProductName)
		if name == "" {
			return nil, fmt.Errorf("%w: item %d has an empty name", domain.ErrInvalidInput, i)
		}
		out = append(out, domain.ShoppingListItem{ProductName: name})
	}
	return out, nil
}
