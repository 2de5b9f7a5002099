package usecase

import (
	"fmt"

	"github.com/pricewise/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// DistanceFunc returns the distance in kilometres to a supermarket
type DistanceFunc func(supermarketLabel string) decimal.Decimal

// PriceComparator totals a shopping list per supermarket and picks the cheapest
type PriceComparator struct {
	policy domain.MissingItemPolicy
}

// NewPriceComparator creates a comparator. An unknown policy falls back to zero-cost.
func NewPriceComparator(policy domain.MissingItemPolicy) *PriceComparator {
	if !policy.Valid() {
		policy = domain.PolicyZeroCost
	}
	return &PriceComparator{policy: policy}
}

// Policy returns the missing-item policy in effect
func (c *PriceComparator) Policy() domain.MissingItemPolicy {
	return c.policy
}

// supermarketGroup holds the first price seen per product at one supermarket
type supermarketGroup struct {
	label  string
	prices map[string]decimal.Decimal
}

// Compare returns one total per supermarket carrying at least one list item,
// in order of first appearance in the catalog. Product names match exactly.
// The inputs are read, never modified; callers must not mutate them during the call.
func (c *PriceComparator) Compare(
	shoppingList []domain.ShoppingListItem,
	catalog []domain.CatalogEntry,
	distanceOf DistanceFunc,
) ([]domain.SupermarketTotal, error) {
	wanted := make(map[string]struct{}, len(shoppingList))
	for _, item := range shoppingList {
		wanted[item.ProductName] = struct{}{}
	}

	var groups []*supermarketGroup
	byLabel := make(map[string]*supermarketGroup)

	for i, entry := range catalog {
		if entry.Price.IsNegative() {
			return nil, fmt.Errorf("%w: catalog entry %d (%s at %s) has negative price %s",
				domain.ErrInvalidInput, i, entry.ProductName, entry.SupermarketLabel, entry.Price)
		}
		if _, ok := wanted[entry.ProductName]; !ok {
			continue
		}

		group, ok := byLabel[entry.SupermarketLabel]
		if !ok {
			group = &supermarketGroup{label: entry.SupermarketLabel, prices: make(map[string]decimal.Decimal)}
			byLabel[entry.SupermarketLabel] = group
			groups = append(groups, group)
		}
		// First entry in input order wins for duplicates.
		if _, seen := group.prices[entry.ProductName]; !seen {
			group.prices[entry.ProductName] = entry.Price
		}
	}

	if len(groups) == 0 {
		return []domain.SupermarketTotal{}, nil
	}

	totals := make([]domain.SupermarketTotal, len(groups))
	for i, group := range groups {
		total := decimal.Zero
		found := 0
		var missing []string
		for _, item := range shoppingList {
			price, ok := group.prices[item.ProductName]
			if !ok {
				missing = append(missing, item.ProductName)
				continue
			}
			total = total.Add(price)
			found++
		}

		distance := decimal.Zero
		if distanceOf != nil {
			distance = distanceOf(group.label)
			if distance.IsNegative() {
				distance = decimal.Zero
			}
		}

		totals[i] = domain.SupermarketTotal{
			SupermarketLabel: group.label,
			TotalPrice:       total,
			Distance:         distance,
			ItemsFound:       found,
			MissingItems:     missing,
		}
	}

	if best := c.bestIndex(totals); best >= 0 {
		totals[best].IsBestChoice = true
	}
	return totals, nil
}

// bestIndex returns the index of the cheapest eligible total; ties keep the earlier one.
func (c *PriceComparator) bestIndex(totals []domain.SupermarketTotal) int {
	eligible := func(domain.SupermarketTotal) bool { return true }

	if c.policy == domain.PolicyExcludeIncomplete {
		for _, t := range totals {
			if len(t.MissingItems) == 0 {
				eligible = func(t domain.SupermarketTotal) bool { return len(t.MissingItems) == 0 }
				break
			}
		}
	}

	best := -1
	for i, t := range totals {
		if !eligible(t) {
			continue
		}
		if best < 0 || t.TotalPrice.LessThan(totals[best].TotalPrice) {
			best = i
		}
	}
	return best
}
