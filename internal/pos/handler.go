package pos

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmaia-dev/medishop/internal/domain"
	"github.com/dmaia-dev/medishop/internal/telemetry"
)

// Catalog is the full catalog surface the HTTP layer exposes.
type Catalog interface {
	CatalogStore
	ListItems(ctx context.Context) ([]domain.Item, error)
	InsertItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	SetStock(ctx context.Context, id int64, quantity int, reason string) error
	LowStock(ctx context.Context) ([]domain.Item, error)
	StockLog(ctx context.Context, id int64) ([]domain.StockEntry, error)
}

// Ledger is the full order history surface the HTTP layer exposes.
type Ledger interface {
	OrderLedger
	GetOrder(ctx context.Context, receiptID int64) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	SetPaymentStatus(ctx context.Context, receiptID int64, status domain.PaymentStatus) (*domain.Order, error)
}

// SalePublisher emits sale.finalized events. Optional; a nil publisher
// disables event publishing.
type SalePublisher interface {
	PublishSale(ctx context.Context, event domain.SaleFinalizedEvent) error
}

type Handler struct {
	engine    *Engine
	catalog   Catalog
	ledger    Ledger
	publisher SalePublisher
	logger    *slog.Logger
}

func NewHandler(engine *Engine, catalog Catalog, ledger Ledger, publisher SalePublisher, logger *slog.Logger) *Handler {
	return &Handler{
		engine:    engine,
		catalog:   catalog,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
	}
}

// Register wires every route onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(h.HandleOpenOrder))
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(h.HandleListOrders))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(h.HandleGetOrder))
	mux.HandleFunc("POST /orders/{id}/lines", telemetry.WithHTTPRoute(h.HandleAddLine))
	mux.HandleFunc("POST /orders/{id}/finalize", telemetry.WithHTTPRoute(h.HandleFinalize))
	mux.HandleFunc("PATCH /orders/{id}/payment", telemetry.WithHTTPRoute(h.HandleSetPayment))
	mux.HandleFunc("GET /catalog", telemetry.WithHTTPRoute(h.HandleListCatalog))
	mux.HandleFunc("POST /catalog", telemetry.WithHTTPRoute(h.HandleAddItem))
	mux.HandleFunc("GET /catalog/low-stock", telemetry.WithHTTPRoute(h.HandleLowStock))
	mux.HandleFunc("GET /catalog/{id}", telemetry.WithHTTPRoute(h.HandleGetItem))
	mux.HandleFunc("PUT /catalog/{id}/stock", telemetry.WithHTTPRoute(h.HandleSetStock))
	mux.HandleFunc("POST /catalog/{id}/adjust", telemetry.WithHTTPRoute(h.HandleAdjustStock))
	mux.HandleFunc("GET /catalog/{id}/log", telemetry.WithHTTPRoute(h.HandleStockLog))
}

type openOrderRequest struct {
	CustomerName string `json:"customer_name"`
}

type openOrderResponse struct {
	ReceiptID int64 `json:"receipt_id"`
}

func (h *Handler) HandleOpenOrder(w http.ResponseWriter, r *http.Request) {
	var req openOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	receiptID, err := h.engine.OpenOrder(r.Context(), req.CustomerName)
	if err != nil {
		h.writeEngineError(w, err, "failed to open order")
		return
	}

	h.writeJSON(w, http.StatusCreated, openOrderResponse{ReceiptID: receiptID})
}

type addLineRequest struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

func (h *Handler) HandleAddLine(w http.ResponseWriter, r *http.Request) {
	receiptID, ok := h.pathID(w, r, "invalid receipt id")
	if !ok {
		return
	}

	var req addLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.engine.AddLine(r.Context(), receiptID, req.ItemID, req.Quantity)
	if err != nil {
		h.writeEngineError(w, err, "failed to add line")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	receiptID, ok := h.pathID(w, r, "invalid receipt id")
	if !ok {
		return
	}

	summary, err := h.engine.FinalizeOrder(r.Context(), receiptID)
	if err != nil {
		h.writeEngineError(w, err, "failed to finalize order")
		return
	}

	if h.publisher != nil {
		h.publishSale(r.Context(), receiptID)
	}

	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) publishSale(ctx context.Context, receiptID int64) {
	order, err := h.ledger.GetOrder(ctx, receiptID)
	if err != nil || order == nil {
		h.logger.Error("failed to load finalized order for event", "error", err, "receipt_id", receiptID)
		return
	}

	event := domain.SaleFinalizedEvent{
		ReceiptID:    order.ReceiptID,
		CustomerName: order.CustomerName,
		Lines:        order.Lines,
		Total:        order.Total,
		Timestamp:    order.CreatedAt,
	}
	if err := h.publisher.PublishSale(ctx, event); err != nil {
		h.logger.Error("failed to publish sale finalized event", "error", err, "receipt_id", receiptID)
	}
}

type setPaymentRequest struct {
	Status domain.PaymentStatus `json:"status"`
}

func (h *Handler) HandleSetPayment(w http.ResponseWriter, r *http.Request) {
	receiptID, ok := h.pathID(w, r, "invalid receipt id")
	if !ok {
		return
	}

	var req setPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Status != domain.PaymentPending && req.Status != domain.PaymentPaid {
		h.writeError(w, http.StatusBadRequest, "invalid payment status")
		return
	}

	order, err := h.ledger.SetPaymentStatus(r.Context(), receiptID, req.Status)
	if err != nil {
		h.logger.Error("failed to set payment status", "error", err, "receipt_id", receiptID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.logger.Info("payment status updated", "receipt_id", receiptID, "status", order.PaymentStatus)
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	receiptID, ok := h.pathID(w, r, "invalid receipt id")
	if !ok {
		return
	}

	order, err := h.ledger.GetOrder(r.Context(), receiptID)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "receipt_id", receiptID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.ledger.ListOrders(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleListCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListItems(r.Context())
	if err != nil {
		h.logger.Error("failed to list catalog", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.pathID(w, r, "invalid item id")
	if !ok {
		return
	}

	item, err := h.catalog.GetItem(r.Context(), itemID)
	if err != nil {
		h.logger.Error("failed to get item", "error", err, "item_id", itemID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if item == nil {
		h.writeError(w, http.StatusNotFound, "item not found")
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

type addItemRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	UnitPrice    int64  `json:"unit_price"`
	Stock        int    `json:"stock_quantity"`
	ReorderLevel *int   `json:"reorder_level,omitempty"`
	ExpiryDate   string `json:"expiry_date,omitempty"`
	Supplier     string `json:"supplier,omitempty"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "item name is required")
		return
	}
	if req.UnitPrice < 0 || req.Stock < 0 {
		h.writeError(w, http.StatusBadRequest, "price and stock must be non-negative")
		return
	}

	reorderLevel := 10
	if req.ReorderLevel != nil {
		if *req.ReorderLevel < 0 {
			h.writeError(w, http.StatusBadRequest, "reorder level must be non-negative")
			return
		}
		reorderLevel = *req.ReorderLevel
	}

	item, err := h.catalog.InsertItem(r.Context(), domain.Item{
		Name:         req.Name,
		Category:     req.Category,
		UnitPrice:    req.UnitPrice,
		Stock:        req.Stock,
		ReorderLevel: reorderLevel,
		ExpiryDate:   req.ExpiryDate,
		Supplier:     req.Supplier,
	})
	if err != nil {
		h.logger.Error("failed to insert item", "error", err, "name", req.Name)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("item added", "item_id", item.ID, "name", item.Name)
	h.writeJSON(w, http.StatusCreated, item)
}

type setStockRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleSetStock(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.pathID(w, r, "invalid item id")
	if !ok {
		return
	}

	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Quantity < 0 {
		h.writeError(w, http.StatusBadRequest, "quantity must be non-negative")
		return
	}

	if err := h.catalog.SetStock(r.Context(), itemID, req.Quantity, domain.AdjustReasonRestock); err != nil {
		h.writeEngineError(w, err, "failed to set stock")
		return
	}

	h.logger.Info("stock updated", "item_id", itemID, "quantity", req.Quantity)
	h.writeItem(r.Context(), w, itemID)
}

type adjustStockRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) HandleAdjustStock(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.pathID(w, r, "invalid item id")
	if !ok {
		return
	}

	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.catalog.AdjustStock(r.Context(), itemID, req.Delta, domain.AdjustReasonManual); err != nil {
		h.writeEngineError(w, err, "failed to adjust stock")
		return
	}

	h.logger.Info("stock adjusted", "item_id", itemID, "delta", req.Delta)
	h.writeItem(r.Context(), w, itemID)
}

func (h *Handler) HandleLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.LowStock(r.Context())
	if err != nil {
		h.logger.Error("failed to list low stock", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleStockLog(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.pathID(w, r, "invalid item id")
	if !ok {
		return
	}

	entries, err := h.catalog.StockLog(r.Context(), itemID)
	if err != nil {
		h.logger.Error("failed to read stock log", "error", err, "item_id", itemID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) writeItem(ctx context.Context, w http.ResponseWriter, itemID int64) {
	item, err := h.catalog.GetItem(ctx, itemID)
	if err != nil || item == nil {
		h.logger.Error("failed to reload item", "error", err, "item_id", itemID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, message string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, message)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeEngineError(w http.ResponseWriter, err error, logMessage string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrItemNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrStorageUnavailable):
		h.logger.Error(logMessage, "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		h.logger.Error(logMessage, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
