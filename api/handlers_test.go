package api_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen/inventory-engine/api"
	"github.com/lumen/inventory-engine/engine"
	"github.com/lumen/inventory-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	eng, err := engine.New(context.Background(), memory.New(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close(context.Background()) })

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(eng)))
	t.Cleanup(srv.Close)
	return srv
}

// do sends a request and decodes the JSON response body into out.
func do(t *testing.T, srv *httptest.Server, method, path string, body, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func addProduct(t *testing.T, srv *httptest.Server, name string, quantity int, reorderPoint *int) {
	t.Helper()
	status := do(t, srv, http.MethodPost, "/api/products", api.AddProductRequest{
		Name:            name,
		InitialQuantity: quantity,
		ReorderPoint:    reorderPoint,
		UnitCost:        12.5,
	}, nil)
	require.Equal(t, http.StatusCreated, status)
}

func intPtr(v int) *int { return &v }

// =============================================================================
// PRODUCT ENDPOINTS
// =============================================================================

func TestAPI_AddAndGetProduct(t *testing.T) {
	srv := newTestServer(t)

	addProduct(t, srv, "Lamp", 100, intPtr(10))

	var p api.ProductDTO
	status := do(t, srv, http.MethodGet, "/api/products/Lamp", nil, &p)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Lamp", p.Name)
	assert.Equal(t, 100, p.Quantity)
	require.NotNil(t, p.ReorderPoint)
	assert.Equal(t, 10, *p.ReorderPoint)
	assert.NotEmpty(t, p.ProductID)
}

func TestAPI_AddProduct_Duplicate_Conflict(t *testing.T) {
	srv := newTestServer(t)

	addProduct(t, srv, "Lamp", 100, nil)

	var errResp api.ErrorResponse
	status := do(t, srv, http.MethodPost, "/api/products", api.AddProductRequest{
		Name: "Lamp", InitialQuantity: 1,
	}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.NotEmpty(t, errResp.Error)
}

func TestAPI_AddProduct_MissingName_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	status := do(t, srv, http.MethodPost, "/api/products", api.AddProductRequest{
		InitialQuantity: 1,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_GetProduct_Unknown_NotFound(t *testing.T) {
	srv := newTestServer(t)

	status := do(t, srv, http.MethodGet, "/api/products/Ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_StockMovements(t *testing.T) {
	srv := newTestServer(t)
	addProduct(t, srv, "Lamp", 10, nil)

	var p api.ProductDTO
	status := do(t, srv, http.MethodPost, "/api/products/Lamp/stock-in",
		api.StockMovementRequest{Quantity: 40, ReferenceID: "PO-7"}, &p)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 50, p.Quantity)

	status = do(t, srv, http.MethodPost, "/api/products/Lamp/stock-out",
		api.StockMovementRequest{Quantity: 15}, &p)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 35, p.Quantity)

	var history []api.TransactionDTO
	status = do(t, srv, http.MethodGet, "/api/products/Lamp/transactions", nil, &history)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, history, 2)
	assert.Equal(t, "in", history[0].Kind)
	assert.Equal(t, "out", history[1].Kind)
	assert.Equal(t, "PO-7", history[0].ReferenceID)
}

func TestAPI_StockOut_Insufficient_Unprocessable(t *testing.T) {
	srv := newTestServer(t)
	addProduct(t, srv, "Lamp", 10, nil)

	var errResp api.ErrorResponse
	status := do(t, srv, http.MethodPost, "/api/products/Lamp/stock-out",
		api.StockMovementRequest{Quantity: 11}, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, errResp.Error, "insufficient")
}

func TestAPI_AdjustStock(t *testing.T) {
	srv := newTestServer(t)
	addProduct(t, srv, "Lamp", 100, nil)

	var p api.ProductDTO
	status := do(t, srv, http.MethodPost, "/api/products/Lamp/adjust",
		api.AdjustStockRequest{NewQuantity: 80, Note: "damaged units"}, &p)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 80, p.Quantity)
}

func TestAPI_Allocatable_RequiresExactlyOneField(t *testing.T) {
	srv := newTestServer(t)
	addProduct(t, srv, "Lamp", 100, nil)

	// Neither field.
	status := do(t, srv, http.MethodPost, "/api/products/Lamp/allocatable",
		api.AllocatableRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// Both fields.
	status = do(t, srv, http.MethodPost, "/api/products/Lamp/allocatable",
		api.AllocatableRequest{Set: intPtr(5), Delta: intPtr(1)}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var p api.ProductDTO
	status = do(t, srv, http.MethodPost, "/api/products/Lamp/allocatable",
		api.AllocatableRequest{Set: intPtr(30)}, &p)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 30, p.Allocatable)

	status = do(t, srv, http.MethodPost, "/api/products/Lamp/allocatable",
		api.AllocatableRequest{Delta: intPtr(-12)}, &p)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 18, p.Allocatable)
}

func TestAPI_Alerts(t *testing.T) {
	srv := newTestServer(t)
	addProduct(t, srv, "Lamp", 100, intPtr(10))

	status := do(t, srv, http.MethodPost, "/api/products/Lamp/stock-out",
		api.StockMovementRequest{Quantity: 95}, nil)
	require.Equal(t, http.StatusOK, status)

	var alerts []api.AlertDTO
	status = do(t, srv, http.MethodGet, "/api/alerts", nil, &alerts)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, alerts, 1)
	assert.Equal(t, "low_stock", alerts[0].Type)
	assert.Equal(t, "Lamp", alerts[0].ProductName)
}

// =============================================================================
// ORDER ENDPOINTS
// =============================================================================

func createOrder(t *testing.T, srv *httptest.Server, req api.CreateOrderRequest) api.OrderDTO {
	t.Helper()
	var o api.OrderDTO
	status := do(t, srv, http.MethodPost, "/api/orders", req, &o)
	require.Equal(t, http.StatusCreated, status)
	return o
}

func TestAPI_OrderLifecycle(t *testing.T) {
	srv := newTestServer(t)
	addProduct(t, srv, "Lamp", 50, nil)

	status := do(t, srv, http.MethodPost, "/api/products/Lamp/allocatable",
		api.AllocatableRequest{Set: intPtr(50)}, nil)
	require.Equal(t, http.StatusOK, status)

	o := createOrder(t, srv, api.CreateOrderRequest{
		TransID: "SO1", SeqID: "001", ProductName: "Lamp",
		Quantity: 12, UnitPrice: 20, CustID: "C1", CustName: "Acme",
	})
	assert.Equal(t, "new", o.Status)
	assert.Equal(t, "sales", o.Kind, "kind defaults to sales")
	assert.InDelta(t, 240.0, o.Amount, 0.001)

	status = do(t, srv, http.MethodPost, "/api/orders/SO1/001/allocate", nil, &o)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "allocated", o.Status)
	assert.Equal(t, 12, o.AllocatedQuantity)

	status = do(t, srv, http.MethodPost, "/api/orders/SO1/001/ship", nil, &o)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "shipped", o.Status)
	require.NotNil(t, o.ShippedAt)

	var p api.ProductDTO
	status = do(t, srv, http.MethodGet, "/api/products/Lamp", nil, &p)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 38, p.Quantity)
}

func TestAPI_CreateOrder_DuplicateKey_Conflict(t *testing.T) {
	srv := newTestServer(t)

	req := api.CreateOrderRequest{
		TransID: "SO1", SeqID: "001", ProductName: "Lamp", Quantity: 5,
	}
	createOrder(t, srv, req)

	status := do(t, srv, http.MethodPost, "/api/orders", req, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestAPI_CancelShippedOrder_Conflict(t *testing.T) {
	srv := newTestServer(t)
	addProduct(t, srv, "Lamp", 50, nil)

	status := do(t, srv, http.MethodPost, "/api/products/Lamp/allocatable",
		api.AllocatableRequest{Set: intPtr(50)}, nil)
	require.Equal(t, http.StatusOK, status)

	createOrder(t, srv, api.CreateOrderRequest{
		TransID: "SO1", SeqID: "001", ProductName: "Lamp", Quantity: 5,
	})
	require.Equal(t, http.StatusOK,
		do(t, srv, http.MethodPost, "/api/orders/SO1/001/allocate", nil, nil))
	require.Equal(t, http.StatusOK,
		do(t, srv, http.MethodPost, "/api/orders/SO1/001/ship", nil, nil))

	status = do(t, srv, http.MethodPost, "/api/orders/SO1/001/cancel", nil, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestAPI_Ship_ConsistencyFailure_DistinctCode(t *testing.T) {
	// The reservation promises more than the shelf holds; shipping must
	// surface the anomaly with its own error code.
	srv := newTestServer(t)
	addProduct(t, srv, "Lamp", 3, nil)

	status := do(t, srv, http.MethodPost, "/api/products/Lamp/allocatable",
		api.AllocatableRequest{Set: intPtr(10)}, nil)
	require.Equal(t, http.StatusOK, status)

	createOrder(t, srv, api.CreateOrderRequest{
		TransID: "SO1", SeqID: "001", ProductName: "Lamp", Quantity: 10,
	})
	require.Equal(t, http.StatusOK,
		do(t, srv, http.MethodPost, "/api/orders/SO1/001/allocate", nil, nil))

	var errResp api.ErrorResponse
	status = do(t, srv, http.MethodPost, "/api/orders/SO1/001/ship", nil, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "consistency_error", errResp.Code)

	// The order is still allocated and recoverable.
	var o api.OrderDTO
	status = do(t, srv, http.MethodGet, "/api/orders/SO1/001", nil, &o)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "allocated", o.Status)
}

func TestAPI_ProductionOrder(t *testing.T) {
	srv := newTestServer(t)

	o := createOrder(t, srv, api.CreateOrderRequest{
		TransID: "MO1", SeqID: "001", Kind: "production",
		ProductName: "Chair", Quantity: 8, UnitPrice: 30,
	})
	assert.Equal(t, "production", o.Kind)

	status := do(t, srv, http.MethodPost, "/api/orders/MO1/001/produce",
		api.ProduceRequest{Quantity: 8}, &o)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "awaiting_shipment", o.Status)
	assert.Equal(t, 8, o.ProducedQuantity)

	// Production auto-created the product and booked the output in.
	var p api.ProductDTO
	status = do(t, srv, http.MethodGet, "/api/products/Chair", nil, &p)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 8, p.Quantity)
}

func TestAPI_ListOrders_FilterByStatus(t *testing.T) {
	srv := newTestServer(t)

	createOrder(t, srv, api.CreateOrderRequest{
		TransID: "SO1", SeqID: "001", ProductName: "Lamp", Quantity: 5,
	})
	createOrder(t, srv, api.CreateOrderRequest{
		TransID: "SO1", SeqID: "002", ProductName: "Lamp", Quantity: 3,
	})
	require.Equal(t, http.StatusOK,
		do(t, srv, http.MethodPost, "/api/orders/SO1/002/cancel", nil, nil))

	var all []api.OrderDTO
	status := do(t, srv, http.MethodGet, "/api/orders", nil, &all)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, all, 2)

	var cancelled []api.OrderDTO
	status = do(t, srv, http.MethodGet, "/api/orders?status=cancelled", nil, &cancelled)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, cancelled, 1)
	assert.Equal(t, "002", cancelled[0].SeqID)
}
