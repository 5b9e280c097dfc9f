package domain

import "time"

// TimeFormat is the layout every timestamp is persisted with.
const TimeFormat = "2006-01-02 15:04:05"

// Item is one catalog entry. UnitPrice is in minor currency units (paise).
type Item struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	UnitPrice    int64     `json:"unit_price"`
	Stock        int       `json:"stock_quantity"`
	ReorderLevel int       `json:"reorder_level"`
	ExpiryDate   string    `json:"expiry_date,omitempty"`
	Supplier     string    `json:"supplier,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Stock adjustment reasons recorded in the inventory log.
const (
	AdjustReasonSale    = "sale"
	AdjustReasonRestock = "restock"
	AdjustReasonManual  = "manual"
)

// StockEntry is one row of the append-only inventory change log.
type StockEntry struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"item_id"`
	Delta      int       `json:"delta"`
	StockAfter int       `json:"stock_after"`
	Reason     string    `json:"reason"`
	LoggedAt   time.Time `json:"logged_at"`
}
