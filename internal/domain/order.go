package domain

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

// LineItem is one (item, quantity, price-at-sale) entry within an order.
// UnitPrice is captured when the line is accepted; later catalog price edits
// never rewrite it.
type LineItem struct {
	ID        int64 `json:"id"`
	ReceiptID int64 `json:"receipt_id"`
	ItemID    int64 `json:"item_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
	LineTotal int64 `json:"line_total"`
}

type Order struct {
	ReceiptID     int64         `json:"receipt_id"`
	CustomerName  string        `json:"customer_name"`
	CreatedAt     time.Time     `json:"created_at"`
	Total         int64         `json:"total"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Lines         []LineItem    `json:"lines"`
}
