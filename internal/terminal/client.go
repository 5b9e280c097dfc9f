// Package terminal is the shop counter: a typed client for the POS service
// and the interactive console session built on top of it.
package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmaia-dev/medishop/internal/domain"
	"github.com/dmaia-dev/medishop/internal/pos"
)

// Client speaks to the POS service over HTTP. Service-side error kinds come
// back as the error payload's message.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, client *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: client,
	}
}

func (c *Client) OpenOrder(ctx context.Context, customerName string) (int64, error) {
	var resp struct {
		ReceiptID int64 `json:"receipt_id"`
	}
	err := c.do(ctx, http.MethodPost, "/orders",
		map[string]string{"customer_name": customerName}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.ReceiptID, nil
}

func (c *Client) AddLine(ctx context.Context, receiptID, itemID int64, quantity int) (*pos.LineResult, error) {
	var result pos.LineResult
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/lines", receiptID),
		map[string]any{"item_id": itemID, "quantity": quantity}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) FinalizeOrder(ctx context.Context, receiptID int64) (*pos.OrderSummary, error) {
	var summary pos.OrderSummary
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/finalize", receiptID), nil, &summary)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) ListItems(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	if err := c.do(ctx, http.MethodGet, "/catalog", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) AddItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	var created domain.Item
	err := c.do(ctx, http.MethodPost, "/catalog", map[string]any{
		"name":           item.Name,
		"category":       item.Category,
		"unit_price":     item.UnitPrice,
		"stock_quantity": item.Stock,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) SetStock(ctx context.Context, itemID int64, quantity int) (*domain.Item, error) {
	var updated domain.Item
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/catalog/%d/stock", itemID),
		map[string]int{"quantity": quantity}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("pos service returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
