package terminal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmaia-dev/medishop/internal/domain"
	"github.com/dmaia-dev/medishop/internal/pos"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewClient(server.URL, &http.Client{Timeout: 5 * time.Second})
}

func TestClient_OpenOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CustomerName string `json:"customer_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CustomerName != "Asha" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]int64{"receipt_id": 7})
	})
	client := newTestClient(t, mux)

	receiptID, err := client.OpenOrder(context.Background(), "Asha")
	if err != nil {
		t.Fatalf("OpenOrder returned error: %v", err)
	}
	if receiptID != 7 {
		t.Errorf("expected receipt 7, got %d", receiptID)
	}
}

func TestClient_AddLine(t *testing.T) {
	t.Run("returns line result", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /orders/{id}/lines", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(pos.LineResult{LineTotal: 5000, OrderTotal: 5000})
		})
		client := newTestClient(t, mux)

		result, err := client.AddLine(context.Background(), 1, 1, 5)
		if err != nil {
			t.Fatalf("AddLine returned error: %v", err)
		}
		if result.LineTotal != 5000 || result.OrderTotal != 5000 {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("surfaces service error message", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /orders/{id}/lines", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "insufficient stock"})
		})
		client := newTestClient(t, mux)

		_, err := client.AddLine(context.Background(), 1, 1, 500)
		if err == nil {
			t.Fatal("expected error")
		}
		if err.Error() != "insufficient stock" {
			t.Errorf("expected service message, got %q", err.Error())
		}
	})

	t.Run("falls back to status code without payload", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /orders/{id}/lines", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		client := newTestClient(t, mux)

		_, err := client.AddLine(context.Background(), 1, 1, 1)
		if err == nil {
			t.Fatal("expected error")
		}
		if err.Error() != "pos service returned status 502" {
			t.Errorf("unexpected error message: %q", err.Error())
		}
	})
}

func TestClient_FinalizeOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders/{id}/finalize", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(pos.OrderSummary{ReceiptID: 1, Total: 9000})
	})
	client := newTestClient(t, mux)

	summary, err := client.FinalizeOrder(context.Background(), 1)
	if err != nil {
		t.Fatalf("FinalizeOrder returned error: %v", err)
	}
	if summary.Total != 9000 {
		t.Errorf("expected total 9000, got %d", summary.Total)
	}
}

func TestClient_Catalog(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /catalog", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]domain.Item{{ID: 1, Name: "Paracetamol", UnitPrice: 1000, Stock: 100}})
	})
	mux.HandleFunc("POST /catalog", func(w http.ResponseWriter, r *http.Request) {
		var item domain.Item
		_ = json.NewDecoder(r.Body).Decode(&item)
		item.ID = 4
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(item)
	})
	mux.HandleFunc("PUT /catalog/{id}/stock", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.Item{ID: 1, Stock: 250})
	})
	client := newTestClient(t, mux)

	items, err := client.ListItems(context.Background())
	if err != nil {
		t.Fatalf("ListItems returned error: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Paracetamol" {
		t.Errorf("unexpected items: %+v", items)
	}

	created, err := client.AddItem(context.Background(), domain.Item{Name: "Ibuprofen", UnitPrice: 1500, Stock: 40})
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if created.ID != 4 {
		t.Errorf("expected id 4, got %d", created.ID)
	}

	updated, err := client.SetStock(context.Background(), 1, 250)
	if err != nil {
		t.Fatalf("SetStock returned error: %v", err)
	}
	if updated.Stock != 250 {
		t.Errorf("expected stock 250, got %d", updated.Stock)
	}
}
