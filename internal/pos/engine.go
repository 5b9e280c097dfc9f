// Package pos drives one customer order from open to close, keeping consumed
// stock and recorded revenue consistent.
package pos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dmaia-dev/medishop/internal/domain"
)

// CatalogStore is the slice of the catalog the engine needs: current price
// and stock for validation, and the atomic conditional stock adjust.
type CatalogStore interface {
	GetItem(ctx context.Context, id int64) (*domain.Item, error)
	AdjustStock(ctx context.Context, id int64, delta int, reason string) error
}

// OrderLedger is the append-only order history the engine writes to.
type OrderLedger interface {
	CreateOrder(ctx context.Context, customerName string, createdAt time.Time) (int64, error)
	AppendLineItem(ctx context.Context, line domain.LineItem) error
	SetOrderTotal(ctx context.Context, receiptID, total int64) error
}

// LineResult reports one accepted line back to the caller.
type LineResult struct {
	LineTotal  int64 `json:"line_total"`
	OrderTotal int64 `json:"order_total"`
}

// OrderSummary is returned by FinalizeOrder for receipt printing.
type OrderSummary struct {
	ReceiptID int64 `json:"receipt_id"`
	Total     int64 `json:"total"`
}

type session struct {
	total     int64
	finalized bool
}

// Engine orchestrates the order transaction. Line items and their stock
// decrements are durably written as each line is accepted; the order header
// total is written once, at finalize. An order abandoned before finalize
// therefore leaves stock decremented and the header total at zero.
type Engine struct {
	catalog CatalogStore
	ledger  OrderLedger
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

func NewEngine(catalog CatalogStore, ledger OrderLedger, logger *slog.Logger) *Engine {
	return &Engine{
		catalog:  catalog,
		ledger:   ledger,
		logger:   logger,
		sessions: make(map[int64]*session),
	}
}

// OpenOrder creates an order header with total 0 and status Pending and
// returns the assigned receipt id.
func (e *Engine) OpenOrder(ctx context.Context, customerName string) (int64, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return 0, fmt.Errorf("%w: customer name is empty", domain.ErrInvalidInput)
	}

	receiptID, err := e.ledger.CreateOrder(ctx, customerName, time.Now())
	if err != nil {
		return 0, storageErr("create order", err)
	}

	e.mu.Lock()
	e.sessions[receiptID] = &session{}
	e.mu.Unlock()

	e.logger.Info("order opened", "receipt_id", receiptID, "customer", customerName)
	return receiptID, nil
}

// AddLine validates one (item, quantity) request against current stock,
// snapshots the unit price, decrements stock, and appends the line item. A
// rejected line leaves no trace: no line item, no stock adjustment, no total
// accumulation.
func (e *Engine) AddLine(ctx context.Context, receiptID, itemID int64, quantity int) (*LineResult, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidInput, quantity)
	}

	sess, err := e.session(receiptID)
	if err != nil {
		return nil, err
	}

	item, err := e.catalog.GetItem(ctx, itemID)
	if err != nil {
		return nil, storageErr("get item", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %d", domain.ErrItemNotFound, itemID)
	}

	if quantity > item.Stock {
		return nil, fmt.Errorf("%w: item %d has %d, requested %d", domain.ErrInsufficientStock, itemID, item.Stock, quantity)
	}

	// The store re-checks the decrement atomically; with concurrent
	// terminals the check above can pass against stale stock, and the
	// conditional update is what actually guards the lost-update race.
	if err := e.catalog.AdjustStock(ctx, itemID, -quantity, domain.AdjustReasonSale); err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			return nil, fmt.Errorf("%w: item %d", domain.ErrInsufficientStock, itemID)
		}
		if errors.Is(err, domain.ErrItemNotFound) {
			return nil, err
		}
		return nil, storageErr("adjust stock", err)
	}

	lineTotal := int64(quantity) * item.UnitPrice
	line := domain.LineItem{
		ReceiptID: receiptID,
		ItemID:    itemID,
		Quantity:  quantity,
		UnitPrice: item.UnitPrice,
		LineTotal: lineTotal,
	}
	if err := e.ledger.AppendLineItem(ctx, line); err != nil {
		return nil, storageErr("append line item", err)
	}

	e.mu.Lock()
	sess.total += lineTotal
	orderTotal := sess.total
	e.mu.Unlock()

	e.logger.Info("line accepted",
		"receipt_id", receiptID, "item_id", itemID, "quantity", quantity,
		"line_total", lineTotal, "order_total", orderTotal)

	return &LineResult{LineTotal: lineTotal, OrderTotal: orderTotal}, nil
}

// FinalizeOrder writes the accumulated total into the order header and closes
// the session; further AddLine calls for the receipt are rejected. An order
// with zero accepted lines finalizes with total 0.
func (e *Engine) FinalizeOrder(ctx context.Context, receiptID int64) (*OrderSummary, error) {
	sess, err := e.session(receiptID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	total := sess.total
	e.mu.Unlock()

	if err := e.ledger.SetOrderTotal(ctx, receiptID, total); err != nil {
		if errors.Is(err, domain.ErrInvalidState) {
			return nil, err
		}
		return nil, storageErr("set order total", err)
	}

	e.mu.Lock()
	sess.finalized = true
	e.mu.Unlock()

	e.logger.Info("order finalized", "receipt_id", receiptID, "total", total)
	return &OrderSummary{ReceiptID: receiptID, Total: total}, nil
}

func (e *Engine) session(receiptID int64) (*session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, ok := e.sessions[receiptID]
	if !ok {
		return nil, fmt.Errorf("%w: no open order %d", domain.ErrInvalidState, receiptID)
	}
	if sess.finalized {
		return nil, fmt.Errorf("%w: order %d already finalized", domain.ErrInvalidState, receiptID)
	}
	return sess, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorageUnavailable, op, err)
}
