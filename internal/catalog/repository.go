package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmaia-dev/medishop/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const itemColumns = `item_id, item_name, category, unit_price, stock_quantity, reorder_level,
	COALESCE(expiry_date, ''), COALESCE(supplier, ''), last_updated`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	item := &domain.Item{}
	var lastUpdated string
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.UnitPrice,
		&item.Stock, &item.ReorderLevel, &item.ExpiryDate, &item.Supplier, &lastUpdated)
	if err != nil {
		return nil, err
	}
	item.LastUpdated, err = time.Parse(domain.TimeFormat, lastUpdated)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem returns nil without error when the id is unknown.
func (r *Repository) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE item_id = $1
	`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func (r *Repository) ListItems(ctx context.Context) ([]domain.Item, error) {
	return r.queryItems(ctx, `
		SELECT `+itemColumns+`
		FROM items
		ORDER BY item_id
	`)
}

// LowStock lists items at or below their reorder level.
func (r *Repository) LowStock(ctx context.Context) ([]domain.Item, error) {
	return r.queryItems(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE stock_quantity <= reorder_level
		ORDER BY item_id
	`)
}

func (r *Repository) queryItems(ctx context.Context, query string) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// InsertItem stores a new catalog entry and returns it with the assigned id
// and refreshed last_updated timestamp.
func (r *Repository) InsertItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO items (item_name, category, unit_price, stock_quantity, reorder_level, expiry_date, supplier, last_updated)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)
		RETURNING item_id
	`, item.Name, item.Category, item.UnitPrice, item.Stock, item.ReorderLevel,
		item.ExpiryDate, item.Supplier, now.Format(domain.TimeFormat)).Scan(&item.ID)
	if err != nil {
		return nil, err
	}
	item.LastUpdated = now
	return &item, nil
}

// AdjustStock applies a signed delta to an item's stock quantity and appends
// an inventory log entry in the same transaction. The UPDATE carries the
// non-negative guard itself, so the stock check and the decrement are one
// atomic read-check-write unit. Fails with domain.ErrInvalidState when the
// delta would drive stock negative and domain.ErrItemNotFound when the id is
// unknown.
func (r *Repository) AdjustStock(ctx context.Context, id int64, delta int, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Format(domain.TimeFormat)

	result, err := tx.ExecContext(ctx, `
		UPDATE items
		SET stock_quantity = stock_quantity + $2, last_updated = $3
		WHERE item_id = $1 AND stock_quantity + $2 >= 0
	`, id, delta, now)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM items WHERE item_id = $1)
		`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrItemNotFound
		}
		return domain.ErrInvalidState
	}

	if err := r.appendLog(ctx, tx, id, delta, reason, now); err != nil {
		return err
	}

	return tx.Commit()
}

// SetStock overwrites an item's stock quantity (manual restock). The logged
// delta is the difference against the previous quantity.
func (r *Repository) SetStock(ctx context.Context, id int64, quantity int, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var previous int
	err = tx.QueryRowContext(ctx, `
		SELECT stock_quantity FROM items WHERE item_id = $1 FOR UPDATE
	`, id).Scan(&previous)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrItemNotFound
		}
		return err
	}

	now := time.Now().Format(domain.TimeFormat)

	_, err = tx.ExecContext(ctx, `
		UPDATE items
		SET stock_quantity = $2, last_updated = $3
		WHERE item_id = $1
	`, id, quantity, now)
	if err != nil {
		return err
	}

	if err := r.appendLog(ctx, tx, id, quantity-previous, reason, now); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) appendLog(ctx context.Context, tx *sql.Tx, id int64, delta int, reason, loggedAt string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO inventory_log (item_id, delta, stock_after, reason, logged_at)
		SELECT item_id, $2, stock_quantity, $3, $4
		FROM items
		WHERE item_id = $1
	`, id, delta, reason, loggedAt)
	return err
}

// StockLog returns the inventory change history for one item, oldest first.
func (r *Repository) StockLog(ctx context.Context, id int64) ([]domain.StockEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT entry_id, item_id, delta, stock_after, reason, logged_at
		FROM inventory_log
		WHERE item_id = $1
		ORDER BY entry_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.StockEntry
	for rows.Next() {
		var entry domain.StockEntry
		var loggedAt string
		if err := rows.Scan(&entry.ID, &entry.ItemID, &entry.Delta, &entry.StockAfter, &entry.Reason, &loggedAt); err != nil {
			return nil, err
		}
		if entry.LoggedAt, err = time.Parse(domain.TimeFormat, loggedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
