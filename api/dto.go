/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run
  the validator before touching the engine, so malformed commands never
  reach domain logic.

SEE ALSO:
  - handlers.go: Uses these types
  - inventory/types.go, orders/types.go: The domain types mirrored here
*/
package api

import (
	"time"

	"github.com/lumen/inventory-engine/inventory"
	"github.com/lumen/inventory-engine/orders"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// AddProductRequest creates a catalog entry with an opening balance.
type AddProductRequest struct {
	Name            string  `json:"name" validate:"required"`
	InitialQuantity int     `json:"initial_quantity" validate:"gte=0"`
	ReorderPoint    *int    `json:"reorder_point,omitempty" validate:"omitempty,gte=0"`
	MaxStock        *int    `json:"max_stock,omitempty" validate:"omitempty,gte=0"`
	UnitCost        float64 `json:"unit_cost" validate:"gte=0"`
}

// StockMovementRequest covers stock-in and stock-out.
type StockMovementRequest struct {
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	ReferenceID string `json:"reference_id,omitempty"`
	Note        string `json:"note,omitempty"`
}

// AdjustStockRequest sets an absolute on-hand count.
type AdjustStockRequest struct {
	NewQuantity int    `json:"new_quantity" validate:"gte=0"`
	Note        string `json:"note,omitempty"`
}

// ThresholdRequest sets or clears a reorder/max threshold.
type ThresholdRequest struct {
	Value *int `json:"value" validate:"omitempty,gte=0"`
}

// AllocatableRequest seeds or shifts the allocatable counter.
type AllocatableRequest struct {
	Set   *int `json:"set,omitempty" validate:"omitempty,gte=0"`
	Delta *int `json:"delta,omitempty"`
}

// CreateOrderRequest opens a new order line.
type CreateOrderRequest struct {
	TransID     string  `json:"trans_id" validate:"required"`
	SeqID       string  `json:"seq_id" validate:"required"`
	Kind        string  `json:"kind,omitempty" validate:"omitempty,oneof=sales production"`
	ProductName string  `json:"product_name" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	CustID      string  `json:"cust_id,omitempty"`
	CustName    string  `json:"cust_name,omitempty"`
}

// ProduceRequest books production output against an order.
type ProduceRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type ProductDTO struct {
	Name          string  `json:"name"`
	ProductID     string  `json:"product_id"`
	Quantity      int     `json:"quantity"`
	Allocatable   int     `json:"allocatable"`
	ReorderPoint  *int    `json:"reorder_point,omitempty"`
	MaxStock      *int    `json:"max_stock,omitempty"`
	UnitCost      float64 `json:"unit_cost"`
	CreatedAt     string  `json:"created_at"`
	LastUpdatedAt string  `json:"last_updated_at"`
}

type TransactionDTO struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	ProductName string `json:"product_name"`
	Kind        string `json:"kind"`
	Delta       int    `json:"delta"`
	ReferenceID string `json:"reference_id,omitempty"`
	Note        string `json:"note,omitempty"`
}

type OrderDTO struct {
	TransID           string  `json:"trans_id"`
	SeqID             string  `json:"seq_id"`
	Kind              string  `json:"kind"`
	ProductName       string  `json:"product_name"`
	Quantity          int     `json:"quantity"`
	UnitPrice         float64 `json:"unit_price"`
	Amount            float64 `json:"amount"`
	CustID            string  `json:"cust_id,omitempty"`
	CustName          string  `json:"cust_name,omitempty"`
	Status            string  `json:"status"`
	AllocatedQuantity int     `json:"allocated_quantity"`
	ProducedQuantity  int     `json:"produced_quantity,omitempty"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
	ShippedAt         *string `json:"shipped_at,omitempty"`
}

type AlertDTO struct {
	ProductName string `json:"product_name"`
	Type        string `json:"type"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toProductDTO(p inventory.Product) ProductDTO {
	return ProductDTO{
		Name:          p.Name,
		ProductID:     p.ProductID,
		Quantity:      p.Quantity,
		Allocatable:   p.Allocatable,
		ReorderPoint:  p.ReorderPoint,
		MaxStock:      p.MaxStock,
		UnitCost:      p.UnitCost.InexactFloat64(),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		LastUpdatedAt: p.LastUpdatedAt.Format(time.RFC3339),
	}
}

func toTransactionDTO(tx inventory.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          tx.ID,
		Timestamp:   tx.Timestamp.Format(time.RFC3339),
		ProductName: tx.ProductName,
		Kind:        string(tx.Kind),
		Delta:       tx.Delta,
		ReferenceID: tx.ReferenceID,
		Note:        tx.Note,
	}
}

func toTransactionDTOs(txs []inventory.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

func toOrderDTO(o orders.Order) OrderDTO {
	dto := OrderDTO{
		TransID:           o.Key.TransID,
		SeqID:             o.Key.SeqID,
		Kind:              string(o.Kind),
		ProductName:       o.ProductName,
		Quantity:          o.Quantity,
		UnitPrice:         o.UnitPrice.InexactFloat64(),
		Amount:            o.Amount().InexactFloat64(),
		CustID:            o.Customer.ID,
		CustName:          o.Customer.Name,
		Status:            string(o.Status),
		AllocatedQuantity: o.AllocatedQuantity,
		ProducedQuantity:  o.ProducedQuantity,
		CreatedAt:         o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         o.UpdatedAt.Format(time.RFC3339),
	}
	if o.ShippedAt != nil {
		s := o.ShippedAt.Format(time.RFC3339)
		dto.ShippedAt = &s
	}
	return dto
}

func toOrderDTOs(os []orders.Order) []OrderDTO {
	dtos := make([]OrderDTO, len(os))
	for i, o := range os {
		dtos[i] = toOrderDTO(o)
	}
	return dtos
}

func toAlertDTO(a inventory.Alert) AlertDTO {
	return AlertDTO{
		ProductName: a.ProductName,
		Type:        string(a.Type),
		Message:     a.Message,
		Timestamp:   a.Timestamp.Format(time.RFC3339),
	}
}
