// Package notifier reacts to finalized sales by checking whether any sold
// item fell to its reorder level and emailing the supplier a reorder notice.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dmaia-dev/medishop/internal/domain"
)

type ReorderHandler struct {
	posServiceURL    string
	mailerServiceURL string
	httpClient       *http.Client
	logger           *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewReorderHandler(posServiceURL, mailerServiceURL string, client *http.Client, logger *slog.Logger) *ReorderHandler {
	return &ReorderHandler{
		posServiceURL:    posServiceURL,
		mailerServiceURL: mailerServiceURL,
		httpClient:       client,
		logger:           logger,
		seen:             make(map[string]struct{}),
	}
}

// Handle processes one sale.finalized payload. Redelivered events (same
// event id) are dropped so a rebalance never mails a supplier twice.
func (h *ReorderHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.SaleFinalizedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal sale finalized event: %w", err)
	}

	if h.duplicate(event.EventID) {
		h.logger.Info("duplicate event skipped", "event_id", event.EventID, "receipt_id", event.ReceiptID)
		return nil
	}

	h.logger.Info("processing sale", "receipt_id", event.ReceiptID, "lines", len(event.Lines))

	for _, line := range event.Lines {
		item, err := h.fetchItem(ctx, line.ItemID)
		if err != nil {
			return fmt.Errorf("fetch item %d: %w", line.ItemID, err)
		}
		if item == nil {
			h.logger.Error("sold item missing from catalog", "item_id", line.ItemID, "receipt_id", event.ReceiptID)
			continue
		}

		if item.Stock > item.ReorderLevel {
			continue
		}

		if err := h.sendReorderNotice(ctx, item); err != nil {
			return fmt.Errorf("send reorder notice for item %d: %w", item.ID, err)
		}

		h.logger.Info("reorder notice sent", "item_id", item.ID, "name", item.Name, "stock", item.Stock)
	}

	return nil
}

func (h *ReorderHandler) duplicate(eventID string) bool {
	if eventID == "" {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.seen[eventID]; ok {
		return true
	}
	h.seen[eventID] = struct{}{}
	return false
}

func (h *ReorderHandler) fetchItem(ctx context.Context, itemID int64) (*domain.Item, error) {
	url := fmt.Sprintf("%s/catalog/%d", h.posServiceURL, itemID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pos service returned status %d", resp.StatusCode)
	}

	var item domain.Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, err
	}

	return &item, nil
}

func (h *ReorderHandler) sendReorderNotice(ctx context.Context, item *domain.Item) error {
	to := "purchasing@medishop.local"
	if item.Supplier != "" {
		to = item.Supplier
	}

	body := map[string]string{
		"to":      to,
		"subject": fmt.Sprintf("Reorder: %s (item %d)", item.Name, item.ID),
		"body": fmt.Sprintf("Stock for %s is down to %d (reorder level %d). Please restock.",
			item.Name, item.Stock, item.ReorderLevel),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.mailerServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mailer service returned status %d", resp.StatusCode)
	}

	return nil
}
