package pos

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dmaia-dev/medishop/internal/domain"
)

type fakeCatalog struct {
	items     map[int64]*domain.Item
	adjustErr error
}

func (f *fakeCatalog) GetItem(_ context.Context, id int64) (*domain.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (f *fakeCatalog) AdjustStock(_ context.Context, id int64, delta int, _ string) error {
	if f.adjustErr != nil {
		return f.adjustErr
	}
	item, ok := f.items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	if item.Stock+delta < 0 {
		return domain.ErrInvalidState
	}
	item.Stock += delta
	return nil
}

type fakeLedger struct {
	nextReceipt int64
	customers   map[int64]string
	totals      map[int64]int64
	lines       []domain.LineItem

	createErr error
	appendErr error
	totalErr  error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		customers: make(map[int64]string),
		totals:    make(map[int64]int64),
	}
}

func (f *fakeLedger) CreateOrder(_ context.Context, customerName string, _ time.Time) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextReceipt++
	f.customers[f.nextReceipt] = customerName
	f.totals[f.nextReceipt] = 0
	return f.nextReceipt, nil
}

func (f *fakeLedger) AppendLineItem(_ context.Context, line domain.LineItem) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.lines = append(f.lines, line)
	return nil
}

func (f *fakeLedger) SetOrderTotal(_ context.Context, receiptID, total int64) error {
	if f.totalErr != nil {
		return f.totalErr
	}
	if _, ok := f.totals[receiptID]; !ok {
		return domain.ErrInvalidState
	}
	f.totals[receiptID] = total
	return nil
}

func (f *fakeLedger) linesFor(receiptID int64) []domain.LineItem {
	var lines []domain.LineItem
	for _, line := range f.lines {
		if line.ReceiptID == receiptID {
			lines = append(lines, line)
		}
	}
	return lines
}

func newTestEngine(catalog *fakeCatalog, ledger *fakeLedger) *Engine {
	return NewEngine(catalog, ledger, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seededCatalog() *fakeCatalog {
	return &fakeCatalog{items: map[int64]*domain.Item{
		1: {ID: 1, Name: "Paracetamol", Category: "Tablet", UnitPrice: 1000, Stock: 100, ReorderLevel: 10},
		2: {ID: 2, Name: "Amoxicillin", Category: "Capsule", UnitPrice: 2000, Stock: 80, ReorderLevel: 10},
	}}
}

func TestEngine_OpenOrder(t *testing.T) {
	t.Run("assigns receipt id", func(t *testing.T) {
		ledger := newFakeLedger()
		engine := newTestEngine(seededCatalog(), ledger)

		receiptID, err := engine.OpenOrder(context.Background(), "Asha")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if receiptID != 1 {
			t.Errorf("expected receipt id 1, got %d", receiptID)
		}
		if ledger.customers[receiptID] != "Asha" {
			t.Errorf("expected customer Asha, got %q", ledger.customers[receiptID])
		}
		if ledger.totals[receiptID] != 0 {
			t.Errorf("expected initial total 0, got %d", ledger.totals[receiptID])
		}
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		ledger := newFakeLedger()
		engine := newTestEngine(seededCatalog(), ledger)

		receiptID, err := engine.OpenOrder(context.Background(), "  Asha  ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ledger.customers[receiptID] != "Asha" {
			t.Errorf("expected trimmed customer name, got %q", ledger.customers[receiptID])
		}
	})

	t.Run("rejects empty customer name", func(t *testing.T) {
		engine := newTestEngine(seededCatalog(), newFakeLedger())

		if _, err := engine.OpenOrder(context.Background(), "   "); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("wraps ledger failures as storage errors", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.createErr = errors.New("connection refused")
		engine := newTestEngine(seededCatalog(), ledger)

		if _, err := engine.OpenOrder(context.Background(), "Asha"); !errors.Is(err, domain.ErrStorageUnavailable) {
			t.Errorf("expected ErrStorageUnavailable, got %v", err)
		}
	})
}

func TestEngine_AddLine(t *testing.T) {
	t.Run("accepts a line and decrements stock", func(t *testing.T) {
		catalog := seededCatalog()
		ledger := newFakeLedger()
		engine := newTestEngine(catalog, ledger)

		receiptID, _ := engine.OpenOrder(context.Background(), "Asha")

		result, err := engine.AddLine(context.Background(), receiptID, 1, 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.LineTotal != 5000 {
			t.Errorf("expected line total 5000, got %d", result.LineTotal)
		}
		if result.OrderTotal != 5000 {
			t.Errorf("expected order total 5000, got %d", result.OrderTotal)
		}
		if catalog.items[1].Stock != 95 {
			t.Errorf("expected stock 95, got %d", catalog.items[1].Stock)
		}

		lines := ledger.linesFor(receiptID)
		if len(lines) != 1 {
			t.Fatalf("expected 1 line item, got %d", len(lines))
		}
		if lines[0].UnitPrice != 1000 || lines[0].Quantity != 5 || lines[0].LineTotal != 5000 {
			t.Errorf("unexpected line item: %+v", lines[0])
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		engine := newTestEngine(seededCatalog(), newFakeLedger())
		receiptID, _ := engine.OpenOrder(context.Background(), "Asha")

		for _, quantity := range []int{0, -3} {
			if _, err := engine.AddLine(context.Background(), receiptID, 1, quantity); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("quantity %d: expected ErrInvalidInput, got %v", quantity, err)
			}
		}
	})

	t.Run("rejects unknown item without side effects", func(t *testing.T) {
		catalog := seededCatalog()
		ledger := newFakeLedger()
		engine := newTestEngine(catalog, ledger)
		receiptID, _ := engine.OpenOrder(context.Background(), "Asha")

		if _, err := engine.AddLine(context.Background(), receiptID, 99, 1); !errors.Is(err, domain.ErrItemNotFound) {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
		if len(ledger.lines) != 0 {
			t.Errorf("expected no line items, got %d", len(ledger.lines))
		}
	})

	t.Run("rejects quantity above stock without side effects", func(t *testing.T) {
		catalog := seededCatalog()
		ledger := newFakeLedger()
		engine := newTestEngine(catalog, ledger)
		receiptID, _ := engine.OpenOrder(context.Background(), "Asha")

		if _, err := engine.AddLine(context.Background(), receiptID, 1, 101); !errors.Is(err, domain.ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		if catalog.items[1].Stock != 100 {
			t.Errorf("expected stock unchanged at 100, got %d", catalog.items[1].Stock)
		}
		if len(ledger.lines) != 0 {
			t.Errorf("expected no line items, got %d", len(ledger.lines))
		}

		// The rejected line must not count toward the total either.
		summary, err := engine.FinalizeOrder(context.Background(), receiptID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.Total != 0 {
			t.Errorf("expected total 0 after rejection, got %d", summary.Total)
		}
	})

	t.Run("quantity equal to stock empties it", func(t *testing.T) {
		catalog := seededCatalog()
		engine := newTestEngine(catalog, newFakeLedger())
		receiptID, _ := engine.OpenOrder(context.Background(), "Asha")

		if _, err := engine.AddLine(context.Background(), receiptID, 2, 80); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if catalog.items[2].Stock != 0 {
			t.Errorf("expected stock 0, got %d", catalog.items[2].Stock)
		}
	})

	t.Run("repeat lines consume stock cumulatively", func(t *testing.T) {
		catalog := seededCatalog()
		catalog.items[1].Stock = 10
		engine := newTestEngine(catalog, newFakeLedger())
		receiptID, _ := engine.OpenOrder(context.Background(), "Asha")

		if _, err := engine.AddLine(context.Background(), receiptID, 1, 4); err != nil {
			t.Fatalf("first line: %v", err)
		}
		if _, err := engine.AddLine(context.Background(), receiptID, 1, 6); err != nil {
			t.Fatalf("second line: %v", err)
		}
		if catalog.items[1].Stock != 0 {
			t.Errorf("expected stock 0, got %d", catalog.items[1].Stock)
		}
		if _, err := engine.AddLine(context.Background(), receiptID, 1, 1); !errors.Is(err, domain.ErrInsufficientStock) {
			t.Errorf("expected ErrInsufficientStock, got %v", err)
		}
	})

	t.Run("rejects unknown receipt", func(t *testing.T) {
		engine := newTestEngine(seededCatalog(), newFakeLedger())

		if _, err := engine.AddLine(context.Background(), 42, 1, 1); !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("translates store-level guard into insufficient stock", func(t *testing.T) {
		// Simulates another terminal draining stock between the engine's
		// check and the decrement.
		catalog := seededCatalog()
		catalog.adjustErr = domain.ErrInvalidState
		engine := newTestEngine(catalog, newFakeLedger())
		receiptID, _ := engine.OpenOrder(context.Background(), "Asha")

		if _, err := engine.AddLine(context.Background(), receiptID, 1, 5); !errors.Is(err, domain.ErrInsufficientStock) {
			t.Errorf("expected ErrInsufficientStock, got %v", err)
		}
	})

	t.Run("wraps ledger append failures as storage errors", func(t *testing.T) {
		ledger := newFakeLedger()
		engine := newTestEngine(seededCatalog(), ledger)
		receiptID, _ := engine.OpenOrder(context.Background(), "Asha")
		ledger.appendErr = errors.New("disk full")

		if _, err := engine.AddLine(context.Background(), receiptID, 1, 5); !errors.Is(err, domain.ErrStorageUnavailable) {
			t.Errorf("expected ErrStorageUnavailable, got %v", err)
		}
	})
}

func TestEngine_FinalizeOrder(t *testing.T) {
	t.Run("writes accumulated total", func(t *testing.T) {
		ledger := newFakeLedger()
		engine := newTestEngine(seededCatalog(), ledger)
		receiptID, _ := engine.OpenOrder(context.Background(), "Asha")

		_, _ = engine.AddLine(context.Background(), receiptID, 1, 5)
		_, _ = engine.AddLine(context.Background(), receiptID, 2, 2)

		summary, err := engine.FinalizeOrder(context.Background(), receiptID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.Total != 9000 {
			t.Errorf("expected total 9000, got %d", summary.Total)
		}
		if ledger.totals[receiptID] != 9000 {
			t.Errorf("expected persisted total 9000, got %d", ledger.totals[receiptID])
		}

		var sum int64
		for _, line := range ledger.linesFor(receiptID) {
			sum += line.LineTotal
		}
		if sum != summary.Total {
			t.Errorf("total %d does not match line sum %d", summary.Total, sum)
		}
	})

	t.Run("zero lines finalizes with total zero", func(t *testing.T) {
		ledger := newFakeLedger()
		engine := newTestEngine(seededCatalog(), ledger)
		receiptID, _ := engine.OpenOrder(context.Background(), "Asha")

		summary, err := engine.FinalizeOrder(context.Background(), receiptID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.Total != 0 {
			t.Errorf("expected total 0, got %d", summary.Total)
		}
	})

	t.Run("rejects double finalize", func(t *testing.T) {
		engine := newTestEngine(seededCatalog(), newFakeLedger())
		receiptID, _ := engine.OpenOrder(context.Background(), "Asha")

		if _, err := engine.FinalizeOrder(context.Background(), receiptID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := engine.FinalizeOrder(context.Background(), receiptID); !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("rejects add line after finalize", func(t *testing.T) {
		engine := newTestEngine(seededCatalog(), newFakeLedger())
		receiptID, _ := engine.OpenOrder(context.Background(), "Asha")
		_, _ = engine.FinalizeOrder(context.Background(), receiptID)

		if _, err := engine.AddLine(context.Background(), receiptID, 1, 1); !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("price edits after acceptance do not change totals", func(t *testing.T) {
		catalog := seededCatalog()
		ledger := newFakeLedger()
		engine := newTestEngine(catalog, ledger)
		receiptID, _ := engine.OpenOrder(context.Background(), "Asha")

		_, _ = engine.AddLine(context.Background(), receiptID, 1, 5)
		catalog.items[1].UnitPrice = 9999

		summary, err := engine.FinalizeOrder(context.Background(), receiptID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.Total != 5000 {
			t.Errorf("expected total 5000 from snapshotted price, got %d", summary.Total)
		}
		if line := ledger.linesFor(receiptID)[0]; line.UnitPrice != 1000 {
			t.Errorf("expected stored unit price 1000, got %d", line.UnitPrice)
		}
	})
}

func TestEngine_FullOrderScenario(t *testing.T) {
	catalog := seededCatalog()
	ledger := newFakeLedger()
	engine := newTestEngine(catalog, ledger)

	receiptID, err := engine.OpenOrder(context.Background(), "Asha")
	if err != nil {
		t.Fatalf("open order: %v", err)
	}

	result, err := engine.AddLine(context.Background(), receiptID, 1, 5)
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	if result.LineTotal != 5000 {
		t.Errorf("expected line total 5000, got %d", result.LineTotal)
	}
	if catalog.items[1].Stock != 95 {
		t.Errorf("expected stock 95, got %d", catalog.items[1].Stock)
	}

	if _, err := engine.AddLine(context.Background(), receiptID, 99, 1); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if catalog.items[1].Stock != 95 {
		t.Errorf("stock changed by rejected line: %d", catalog.items[1].Stock)
	}

	summary, err := engine.FinalizeOrder(context.Background(), receiptID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if summary.Total != 5000 {
		t.Errorf("expected total 5000, got %d", summary.Total)
	}
}
