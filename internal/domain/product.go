package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a barcode-registered item
type Product struct {
	Barcode   string    `json:"barcode" binding:"required"`
	Name      string    `json:"name" binding:"required"`
	Brand     string    `json:"brand,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// PriceObservation records a price seen for a product at a supermarket
type PriceObservation struct {
	ID               string          `json:"id"`
	Barcode          string          `json:"barcode"`
	ProductName      string          `json:"productName"`
	SupermarketLabel string          `json:"supermarketLabel"`
	Price            decimal.Decimal `json:"price"`
	ObservedAt       time.Time       `json:"observedAt"`
}

// ToCatalogEntry projects the observation onto the comparator input
func (o PriceObservation) ToCatalogEntry() CatalogEntry {
	return CatalogEntry{
		SupermarketLabel: o.SupermarketLabel,
		ProductName:      o.ProductName,
		Price:            o.Price,
	}
}

// RecordPriceRequest represents a price observation submitted by a client
type RecordPriceRequest struct {
	SupermarketLabel string           `json:"supermarketLabel" binding:"required"`
	Price            *decimal.Decimal `json:"price" binding:"required"`
	ObservedAt       *time.Time       `json:"observedAt,omitempty"`
}

// ProductMatch is a product search hit
type ProductMatch struct {
	Product       Product  `json:"product"`
	Score         float64  `json:"score"`
	MatchedTokens []string `json:"matchedTokens,omitempty"`
}

// ValidateBarcode accepts EAN-8, UPC-A and EAN-13 codes with a correct GS1 check digit.
func ValidateBarcode(code string) error {
	switch len(code) {
	case 8, 12, 13:
	default:
		return fmt.Errorf("%w: %q has %d digits, want 8, 12 or 13", ErrInvalidBarcode, code, len(code))
	}

	sum := 0
	// Weights alternate 3,1 starting from the digit left of the check digit.
	for i := len(code) - 2; i >= 0; i-- {
		c := code[i]
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: %q contains non-digit characters", ErrInvalidBarcode, code)
		}
		d := int(c - '0')
		if (len(code)-2-i)%2 == 0 {
			d *= 3
		}
		sum += d
	}

	last := code[len(code)-1]
	if last < '0' || last > '9' {
		return fmt.Errorf("%w: %q contains non-digit characters", ErrInvalidBarcode, code)
	}
	if want := (10 - sum%10) % 10; int(last-'0') != want {
		return fmt.Errorf("%w: %q check digit mismatch", ErrInvalidBarcode, code)
	}
	return nil
}
