package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecordedEvent is emitted whenever a price observation is stored
type PriceRecordedEvent struct {
	ObservationID    string          `json:"observationId"`
	Barcode          string          `json:"barcode"`
	ProductName      string          `json:"productName"`
	SupermarketLabel string          `json:"supermarketLabel"`
	Price            decimal.Decimal `json:"price"`
	ObservedAt       time.Time       `json:"observedAt"`
}
