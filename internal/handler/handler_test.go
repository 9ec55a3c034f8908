package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"go-variant-inventory/internal/audit"
	"go-variant-inventory/internal/guard"
	"go-variant-inventory/internal/repository"
	"go-variant-inventory/internal/service"
	"go-variant-inventory/internal/testdb"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	db := testdb.Open(t)
	productRepo := repository.NewProductRepo(db)
	variantRepo := repository.NewVariantRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	recorder := audit.NewInlineRecorder(txRepo, 1)
	notifier := service.NopNotifier{}

	stock := service.NewStockService(variantRepo, recorder, notifier, db, false)
	reservations := service.NewReservationService(variantRepo, guard.NewMemoryGuard(time.Hour), recorder, notifier, db)
	rollup := service.NewRollupService(productRepo, variantRepo, db)

	routes := Routes{
		Inventory: NewInventoryHandler(service.NewInventoryService(productRepo, txRepo, 5)),
		Variants:  NewVariantHandler(service.NewVariantService(productRepo, variantRepo, notifier, db, 5), stock, rollup),
		Stock:     NewStockHandler(stock),
		Orders:    NewOrderHandler(service.NewOrderService(orderRepo, variantRepo, reservations, recorder, notifier, db), rollup),
		Dashboard: NewDashboardHandler(service.NewDashboardService(txRepo)),
	}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(ActorKey, "handler-test")
		return c.Next()
	})
	routes.Register(app.Group("/api/v1"))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func createProduct(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, body := doJSON(t, app, "POST", "/api/v1/products", map[string]interface{}{"name": "Tee"})
	require.Equal(t, fiber.StatusCreated, status, body)
	return body["data"].(map[string]interface{})["id"].(string)
}

func provision(t *testing.T, app *fiber.App, productID string) {
	t.Helper()
	status, body := doJSON(t, app, "POST", "/api/v1/variants", map[string]interface{}{
		"product_id":       productID,
		"colors":           []string{"Red", "Blue"},
		"sizes":            []string{"S", "M"},
		"inventory_by_key": map[string]int{"Red-S": 3, "Blue-M": 1},
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	require.Len(t, body["variants"], 4)
}

func TestProvisionAndRollup(t *testing.T) {
	app := setupApp(t)
	productID := createProduct(t, app)
	provision(t, app, productID)

	status, body := doJSON(t, app, "GET", "/api/v1/products/"+productID+"/stock", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["tracks_variants"])
	assert.EqualValues(t, 4, body["total_stock"])
	assert.Equal(t, true, body["partially_available"])

	status, body = doJSON(t, app, "GET", "/api/v1/products/"+productID, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 4, body["inventory_count"], "denormalized count synced")

	status, body = doJSON(t, app, "POST", "/api/v1/variants", map[string]interface{}{
		"product_id": productID, "colors": []string{"Red"}, "sizes": []string{"S"},
	})
	assert.Equal(t, fiber.StatusBadRequest, status, body)
}

func TestGetVariants(t *testing.T) {
	app := setupApp(t)
	productID := createProduct(t, app)
	provision(t, app, productID)

	status, body := doJSON(t, app, "GET", "/api/v1/variants?product_id="+productID+"&includeStock=true", nil)
	require.Equal(t, fiber.StatusOK, status)
	variants := body["variants"].([]interface{})
	require.Len(t, variants, 4)
	first := variants[0].(map[string]interface{})
	for _, field := range []string{"inventory_count", "low_stock_threshold", "is_low_stock", "is_out_of_stock", "status"} {
		assert.Contains(t, first, field)
	}

	status, body = doJSON(t, app, "GET", "/api/v1/variants?product_id="+productID, nil)
	require.Equal(t, fiber.StatusOK, status)
	plain := body["variants"].([]interface{})[0].(map[string]interface{})
	assert.NotContains(t, plain, "inventory_count")

	status, _ = doJSON(t, app, "GET", "/api/v1/variants?product_id=nope", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAdjustStock(t *testing.T) {
	app := setupApp(t)
	productID := createProduct(t, app)
	provision(t, app, productID)

	status, body := doJSON(t, app, "PUT", "/api/v1/variants", map[string]interface{}{
		"product_id": productID, "color": "Red", "size": "S", "quantity_change": 7, "transaction_type": "restock",
	})
	require.Equal(t, fiber.StatusOK, status, body)
	variant := body["variant"].(map[string]interface{})
	assert.EqualValues(t, 10, variant["inventory_count"])
	assert.Equal(t, "in_stock", variant["status"])

	status, _ = doJSON(t, app, "PUT", "/api/v1/variants", map[string]interface{}{
		"product_id": productID, "color": "Red", "size": "S", "quantity_change": 1, "transaction_type": "gift",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doJSON(t, app, "PUT", "/api/v1/variants", map[string]interface{}{
		"product_id": productID, "color": "Pink", "size": "S", "quantity_change": 1, "transaction_type": "restock",
	})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = doJSON(t, app, "PUT", "/api/v1/variants", "{not json")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doJSON(t, app, "GET", "/api/v1/inventory-transactions?product_id="+productID+"&type=restock", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = doJSON(t, app, "GET", "/api/v1/inventory-transactions?type=gift", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCheckStock(t *testing.T) {
	app := setupApp(t)
	productID := createProduct(t, app)
	provision(t, app, productID)

	status, body := doJSON(t, app, "POST", "/api/v1/stock/check", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": productID, "color": "Red", "size": "S", "requested_quantity": 2},
			{"product_id": productID, "color": "Blue", "size": "M", "requested_quantity": 2},
		},
	})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, false, body["available"])
	assert.Len(t, body["unavailable"], 1)
	stock := body["stock_by_key"].(map[string]interface{})
	assert.EqualValues(t, 3, stock[fmt.Sprintf("%s-Red-S", productID)])

	status, _ = doJSON(t, app, "POST", "/api/v1/stock/check", map[string]interface{}{"items": []interface{}{}})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestOrderLifecycle(t *testing.T) {
	app := setupApp(t)
	productID := createProduct(t, app)
	provision(t, app, productID)

	status, body := doJSON(t, app, "POST", "/api/v1/orders", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": productID, "selected_color": "Blue", "selected_size": "M", "quantity": 2},
		},
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Insufficient stock", body["error"])
	assert.Len(t, body["unavailable_variants"], 1)
	assert.EqualValues(t, 1, body["variant_stock"].(map[string]interface{})["Blue-M"])

	status, body = doJSON(t, app, "POST", "/api/v1/orders", map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": productID, "selected_color": "Red", "selected_size": "S", "quantity": 2},
		},
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	orderID := body["order"].(map[string]interface{})["id"].(string)

	_, stockBody := doJSON(t, app, "GET", "/api/v1/products/"+productID+"/stock", nil)
	assert.EqualValues(t, 2, stockBody["total_stock"])

	status, body = doJSON(t, app, "POST", "/api/v1/orders/"+orderID+"/cancel", nil)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "cancelled", body["order"].(map[string]interface{})["status"])

	status, _ = doJSON(t, app, "POST", "/api/v1/orders/"+orderID+"/cancel", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = doJSON(t, app, "GET", "/api/v1/orders/"+orderID, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestDashboard(t *testing.T) {
	app := setupApp(t)
	productID := createProduct(t, app)
	provision(t, app, productID)

	status, body := doJSON(t, app, "GET", "/api/v1/dashboard/stats", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 4, body["active_variants"])
	assert.EqualValues(t, 2, body["out_of_stock_count"])
}

func TestRespondError_DuplicateReservation(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return respondError(c, service.ErrDuplicateReservation) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestSetActive(t *testing.T) {
	app := setupApp(t)
	productID := createProduct(t, app)
	provision(t, app, productID)

	_, body := doJSON(t, app, "GET", "/api/v1/variants?product_id="+productID, nil)
	id := body["variants"].([]interface{})[0].(map[string]interface{})["id"].(string)

	status, body := doJSON(t, app, "PATCH", "/api/v1/variants/"+id+"/active", map[string]interface{}{"is_active": false})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, false, body["variant"].(map[string]interface{})["is_active"])

	status, _ = doJSON(t, app, "PATCH", "/api/v1/variants/"+id+"/active", map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, status)
}
