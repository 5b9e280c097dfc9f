package catalog

import (
	"context"
	"time"

	"github.com/dmaia-dev/medishop/internal/domain"
)

var defaultItems = []domain.Item{
	{Name: "Paracetamol", Category: "Tablet", UnitPrice: 1000, Stock: 100, ReorderLevel: 10, ExpiryDate: "2026-12-31", Supplier: "ABC Pharma"},
	{Name: "Amoxicillin", Category: "Capsule", UnitPrice: 2000, Stock: 80, ReorderLevel: 10, ExpiryDate: "2026-11-30", Supplier: "XYZ Pharma"},
	{Name: "Cough Syrup", Category: "Syrup", UnitPrice: 5000, Stock: 60, ReorderLevel: 10, ExpiryDate: "2026-10-30", Supplier: "HealthCare Ltd"},
}

// Seed inserts the default catalog entries. It is a no-op when the catalog
// already has items, so fresh deployments get stock and existing ones are
// left alone.
func (r *Repository) Seed(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().Format(domain.TimeFormat)

	for _, item := range defaultItems {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO items (item_name, category, unit_price, stock_quantity, reorder_level, expiry_date, supplier, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, item.Name, item.Category, item.UnitPrice, item.Stock, item.ReorderLevel, item.ExpiryDate, item.Supplier, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
