package domain

import "time"

// SaleFinalizedEvent is published when an order is finalized. EventID is
// unique per publish so consumers can drop Kafka redeliveries.
type SaleFinalizedEvent struct {
	EventID      string     `json:"event_id"`
	ReceiptID    int64      `json:"receipt_id"`
	CustomerName string     `json:"customer_name"`
	Lines        []LineItem `json:"lines"`
	Total        int64      `json:"total"`
	Timestamp    time.Time  `json:"timestamp"`
}
