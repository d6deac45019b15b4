/*
handlers.go - HTTP handlers for the inventory and order commands

PURPOSE:
  Exposes the engine's command surface over REST for the UI layer.
  Handles HTTP request/response, JSON serialization, and input
  validation; all business rules live in the engine and below.

REQUEST FLOW:
  1. Decode request body
  2. Validate with go-playground/validator
  3. Call the engine command
  4. Map domain errors to HTTP status
  5. Serialize response

ERROR HANDLING:
  - 400: Malformed body, failed validation, invalid quantity
  - 404: Unknown product or order key
  - 409: Duplicate product/order, already shipped
  - 422: Business rejections (insufficient stock, invalid transition, ...)
  - 500: Snapshot write failures and other faults

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - engine/engine.go: The command surface this wraps
*/
package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/lumen/inventory-engine/engine"
	"github.com/lumen/inventory-engine/inventory"
	"github.com/lumen/inventory-engine/orders"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	Engine   *engine.Engine
	validate *validator.Validate
}

func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{
		Engine:   eng,
		validate: validator.New(),
	}
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns all products, ordered by name.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.Engine.ListProducts()
	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Engine.GetProduct(chi.URLParam(r, "name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// AddProduct creates a product with an opening balance.
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req AddProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.Engine.AddProduct(r.Context(), req.Name, req.InitialQuantity,
		req.ReorderPoint, req.MaxStock, decimal.NewFromFloat(req.UnitCost))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

// StockIn receives stock for a product.
func (h *Handler) StockIn(w http.ResponseWriter, r *http.Request) {
	var req StockMovementRequest
	if !h.decode(w, r, &req) {
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.Engine.StockIn(r.Context(), name, req.Quantity, req.ReferenceID, req.Note); err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondProduct(w, name)
}

// StockOut removes stock from a product, all-or-nothing.
func (h *Handler) StockOut(w http.ResponseWriter, r *http.Request) {
	var req StockMovementRequest
	if !h.decode(w, r, &req) {
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.Engine.StockOut(r.Context(), name, req.Quantity, req.ReferenceID, req.Note); err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondProduct(w, name)
}

// AdjustStock sets an absolute on-hand count.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req AdjustStockRequest
	if !h.decode(w, r, &req) {
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.Engine.AdjustStock(r.Context(), name, req.NewQuantity, req.Note); err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondProduct(w, name)
}

// SetReorderPoint sets or clears the low-stock threshold.
func (h *Handler) SetReorderPoint(w http.ResponseWriter, r *http.Request) {
	var req ThresholdRequest
	if !h.decode(w, r, &req) {
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.Engine.SetReorderPoint(r.Context(), name, req.Value); err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondProduct(w, name)
}

// SetMaxStock sets or clears the over-stock threshold.
func (h *Handler) SetMaxStock(w http.ResponseWriter, r *http.Request) {
	var req ThresholdRequest
	if !h.decode(w, r, &req) {
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.Engine.SetMaxStock(r.Context(), name, req.Value); err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondProduct(w, name)
}

// SetAllocatable seeds (set) or shifts (delta) the allocatable counter.
func (h *Handler) SetAllocatable(w http.ResponseWriter, r *http.Request) {
	var req AllocatableRequest
	if !h.decode(w, r, &req) {
		return
	}
	if (req.Set == nil) == (req.Delta == nil) {
		writeError(w, http.StatusBadRequest, "provide exactly one of set or delta", nil)
		return
	}

	name := chi.URLParam(r, "name")
	var err error
	if req.Set != nil {
		err = h.Engine.SetAllocatable(r.Context(), name, *req.Set)
	} else {
		err = h.Engine.AdjustAllocatable(r.Context(), name, *req.Delta)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.respondProduct(w, name)
}

// ProductHistory returns the transaction log for one product.
func (h *Handler) ProductHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := h.Engine.GetProduct(name); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(h.Engine.ProductHistory(name)))
}

// ListTransactions returns the full transaction log.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toTransactionDTOs(h.Engine.Transactions()))
}

// ListAlerts returns the collected threshold alerts, oldest first.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.Engine.Alerts()
	dtos := make([]AlertDTO, len(alerts))
	for i, a := range alerts {
		dtos[i] = toAlertDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// ListOrders returns all orders, optionally filtered by ?status=.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var list []orders.Order
	if status := r.URL.Query().Get("status"); status != "" {
		list = h.Engine.ListOrdersByStatus(orders.Status(status))
	} else {
		list = h.Engine.ListOrders()
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(list))
}

// GetOrder returns a single order line.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Engine.GetOrder(orderKey(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

// CreateOrder opens a new order line.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	o, err := h.Engine.CreateOrder(r.Context(), orders.CreateInput{
		Key:         orders.Key{TransID: req.TransID, SeqID: req.SeqID},
		Kind:        orders.Kind(req.Kind),
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		UnitPrice:   decimal.NewFromFloat(req.UnitPrice),
		Customer:    orders.Customer{ID: req.CustID, Name: req.CustName},
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(o))
}

// AllocateOrder performs one best-effort partial allocation.
func (h *Handler) AllocateOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Engine.AllocateOrder(r.Context(), orderKey(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

// ShipOrder ships the order's stock and closes it.
func (h *Handler) ShipOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Engine.ShipOrder(r.Context(), orderKey(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

// CancelOrder cancels the order and releases its allocation.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Engine.CancelOrder(r.Context(), orderKey(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

// ProduceForOrder books production output against the order.
func (h *Handler) ProduceForOrder(w http.ResponseWriter, r *http.Request) {
	var req ProduceRequest
	if !h.decode(w, r, &req) {
		return
	}

	o, err := h.Engine.ProduceForOrder(r.Context(), orderKey(r), req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}

// =============================================================================
// HELPERS
// =============================================================================

func orderKey(r *http.Request) orders.Key {
	return orders.Key{
		TransID: chi.URLParam(r, "trans"),
		SeqID:   chi.URLParam(r, "seq"),
	}
}

// decode parses and validates the request body. On failure it writes
// the error response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func (h *Handler) respondProduct(w http.ResponseWriter, name string) {
	p, err := h.Engine.GetProduct(name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

// writeDomainError maps domain errors onto HTTP statuses. Consistency
// anomalies and snapshot corruption get distinct codes so the UI can
// tell recoverable validation failures from data-integrity problems.
func writeDomainError(w http.ResponseWriter, err error) {
	var consistency *orders.ConsistencyError
	switch {
	case errors.Is(err, inventory.ErrNotFound) || errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, inventory.ErrAlreadyExists) || errors.Is(err, orders.ErrDuplicateKey) ||
		errors.Is(err, orders.ErrAlreadyShipped):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, inventory.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &consistency):
		writeErrorCode(w, http.StatusConflict, err.Error(), "consistency_error")
	case errors.Is(err, inventory.ErrCorruptSnapshot):
		writeErrorCode(w, http.StatusInternalServerError, err.Error(), "data_integrity")
	case orders.IsClientError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, err.Error(), nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeErrorCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}
