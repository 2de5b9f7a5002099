package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogEntry is one observed (supermarket, product, price) fact
type CatalogEntry struct {
	SupermarketLabel string          `json:"supermarketLabel"`
	ProductName      string          `json:"productName"`
	Price            decimal.Decimal `json:"price"`
}

// ShoppingListItem is a product the user wants, not yet tied to a supermarket
type ShoppingListItem struct {
	ProductName string `json:"productName" binding:"required"`
}

// SupermarketTotal is the cost of a shopping list at one supermarket
type SupermarketTotal struct {
	SupermarketLabel string          `json:"supermarketLabel"`
	TotalPrice       decimal.Decimal `json:"totalPrice"`
	Distance         decimal.Decimal `json:"distance"` // kilometres
	DistanceKnown    bool            `json:"distanceKnown"`
	IsBestChoice     bool            `json:"isBestChoice"`
	ItemsFound       int             `json:"itemsFound"`
	MissingItems     []string        `json:"missingItems,omitempty"`
}

// MissingItemPolicy controls how a supermarket that lacks list items competes for best choice
type MissingItemPolicy string

const (
	// PolicyZeroCost counts missing items as free everywhere
	PolicyZeroCost MissingItemPolicy = "zero_cost"

	// PolicyExcludeIncomplete keeps incomplete supermarkets out of the best-choice
	// race whenever at least one supermarket carries the whole list
	PolicyExcludeIncomplete MissingItemPolicy = "exclude_incomplete"
)

// Valid reports whether p is a known policy
func (p MissingItemPolicy) Valid() bool {
	return p == PolicyZeroCost || p == PolicyExcludeIncomplete
}

// ComparisonResult is the response of a shopping list comparison
type ComparisonResult struct {
	Items      []ShoppingListItem `json:"items"`
	Totals     []SupermarketTotal `json:"totals"`
	Best       *SupermarketTotal  `json:"best,omitempty"`
	Policy     MissingItemPolicy  `json:"policy"`
	ComparedAt time.Time          `json:"comparedAt"`
}

// CompareRequest represents an ad-hoc comparison request
type CompareRequest struct {
	Items  []ShoppingListItem `json:"items"`
	Origin *GeoPoint          `json:"origin,omitempty"`
}
