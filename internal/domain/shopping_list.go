package domain

import "time"

// ShoppingList is a named, owner-scoped list of wanted products
type ShoppingList struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	OwnerID   string             `json:"ownerId"`
	Items     []ShoppingListItem `json:"items"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// CreateListRequest represents a shopping list creation request
type CreateListRequest struct {
	Name    string             `json:"name" binding:"required"`
	OwnerID string             `json:"ownerId" binding:"required"`
	Items   []ShoppingListItem `json:"items"`
}

// ProductNames returns the product names of the list items in order
func (l *ShoppingList) ProductNames() []string {
	names := make([]string, len(l.Items))
	for i, item := range l.Items {
		names[i] = item.ProductName
	}
	return names
}
