// Package ledger persists order headers and their line items. Rows are
// write-once: headers gain a total and a payment status, but no line item is
// ever updated or deleted.
package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/dmaia-dev/medishop/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateOrder opens an order header with total 0 and payment status Pending,
// returning the assigned receipt id.
func (r *Repository) CreateOrder(ctx context.Context, customerName string, createdAt time.Time) (int64, error) {
	var receiptID int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (customer_name, order_date, total_amount, payment_status)
		VALUES ($1, $2, 0, $3)
		RETURNING receipt_number
	`, customerName, createdAt.Format(domain.TimeFormat), domain.PaymentPending).Scan(&receiptID)
	if err != nil {
		return 0, err
	}
	return receiptID, nil
}

func (r *Repository) AppendLineItem(ctx context.Context, line domain.LineItem) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_items (receipt_number, item_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5)
	`, line.ReceiptID, line.ItemID, line.Quantity, line.UnitPrice, line.LineTotal)
	return err
}

func (r *Repository) SetOrderTotal(ctx context.Context, receiptID, total int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET total_amount = $1
		WHERE receipt_number = $2
	`, total, receiptID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrInvalidState
	}

	return nil
}

// SetPaymentStatus returns the updated order, or nil when the receipt id is
// unknown.
func (r *Repository) SetPaymentStatus(ctx context.Context, receiptID int64, status domain.PaymentStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_status = $1
		WHERE receipt_number = $2
	`, status, receiptID)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetOrder(ctx, receiptID)
}

// GetOrder returns the header with its line items, or nil when the receipt id
// is unknown.
func (r *Repository) GetOrder(ctx context.Context, receiptID int64) (*domain.Order, error) {
	order := &domain.Order{}
	var orderDate string

	err := r.db.QueryRowContext(ctx, `
		SELECT receipt_number, customer_name, order_date, total_amount, payment_status
		FROM orders
		WHERE receipt_number = $1
	`, receiptID).Scan(&order.ReceiptID, &order.CustomerName, &orderDate, &order.Total, &order.PaymentStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if order.CreatedAt, err = time.Parse(domain.TimeFormat, orderDate); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT line_id, receipt_number, item_id, quantity, unit_price, line_total
		FROM order_items
		WHERE receipt_number = $1
		ORDER BY line_id
	`, receiptID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line domain.LineItem
		if err := rows.Scan(&line.ID, &line.ReceiptID, &line.ItemID, &line.Quantity, &line.UnitPrice, &line.LineTotal); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// ListOrders returns all orders newest first, line items fetched in one
// batched query.
func (r *Repository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT receipt_number, customer_name, order_date, total_amount, payment_status
		FROM orders
		ORDER BY receipt_number DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[int64]*domain.Order)
	var receiptIDs []int64

	for rows.Next() {
		var order domain.Order
		var orderDate string
		if err := rows.Scan(&order.ReceiptID, &order.CustomerName, &orderDate, &order.Total, &order.PaymentStatus); err != nil {
			return nil, err
		}
		if order.CreatedAt, err = time.Parse(domain.TimeFormat, orderDate); err != nil {
			return nil, err
		}
		order.Lines = []domain.LineItem{}
		orderMap[order.ReceiptID] = &order
		receiptIDs = append(receiptIDs, order.ReceiptID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(receiptIDs) == 0 {
		return []domain.Order{}, nil
	}

	lineRows, err := r.db.QueryContext(ctx, `
		SELECT line_id, receipt_number, item_id, quantity, unit_price, line_total
		FROM order_items
		WHERE receipt_number = ANY($1)
		ORDER BY line_id
	`, pq.Array(receiptIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = lineRows.Close() }()

	for lineRows.Next() {
		var line domain.LineItem
		if err := lineRows.Scan(&line.ID, &line.ReceiptID, &line.ItemID, &line.Quantity, &line.UnitPrice, &line.LineTotal); err != nil {
			return nil, err
		}
		order := orderMap[line.ReceiptID]
		order.Lines = append(order.Lines, line)
	}

	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(receiptIDs))
	for _, id := range receiptIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}
