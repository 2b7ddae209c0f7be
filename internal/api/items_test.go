package api

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/m/domain"
)

func TestItemCRUD(t *testing.T) {
	h := newTestHandler(t)
	router := h.Router()
	token := adminToken(t, router)

	rec := doRequest(t, router, http.MethodPost, "/api/items", token, map[string]any{
		"name":           "Espresso",
		"description":    "double shot",
		"price":          2.50,
		"category":       "drinks",
		"stock_quantity": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item domain.Item
	dataInto(t, rec, &item)
	assert.Equal(t, "Espresso", item.Name)
	require.NotNil(t, item.Description)
	assert.Equal(t, "double shot", *item.Description)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("2.5")))
	assert.EqualValues(t, 10, item.StockQuantity)

	rec = doRequest(t, router, http.MethodGet, itemPath(item.ItemID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, itemPath(999), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, itemPath(item.ItemID), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, itemPath(item.ItemID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestItemValidation(t *testing.T) {
	h := newTestHandler(t)
	router := h.Router()
	token := adminToken(t, router)

	rec := doRequest(t, router, http.MethodPost, "/api/items", token, map[string]any{
		"name":           "",
		"price":          -1,
		"category":       "",
		"stock_quantity": -3,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Validation failed", env.Message)

	var data struct {
		Errors []string `json:"errors"`
	}
	dataInto(t, rec, &data)
	assert.Len(t, data.Errors, 4)
}

func TestItemListFilters(t *testing.T) {
	h := newTestHandler(t)
	router := h.Router()
	token := adminToken(t, router)

	createTestItem(t, router, token, "Americano", "2.00", 5)
	createTestItem(t, router, token, "Bagel", "1.50", 5)
	rec := doRequest(t, router, http.MethodPost, "/api/items", token, map[string]any{
		"name":           "Latte",
		"price":          3.00,
		"category":       "drinks",
		"stock_quantity": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/items", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []domain.Item
	dataInto(t, rec, &items)
	require.Len(t, items, 3)
	// Name-ordered listing.
	assert.Equal(t, "Americano", items[0].Name)
	assert.Equal(t, "Bagel", items[1].Name)
	assert.Equal(t, "Latte", items[2].Name)

	rec = doRequest(t, router, http.MethodGet, "/api/items?category=drinks", token, nil)
	dataInto(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Latte", items[0].Name)

	rec = doRequest(t, router, http.MethodGet, "/api/items?search=bag", token, nil)
	dataInto(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Bagel", items[0].Name)
}

// Updating only the price must leave every other field untouched.
func TestItemSparseUpdate(t *testing.T) {
	h := newTestHandler(t)
	router := h.Router()
	token := adminToken(t, router)

	rec := doRequest(t, router, http.MethodPost, "/api/items", token, map[string]any{
		"name":           "Muffin",
		"description":    "blueberry",
		"price":          2.25,
		"category":       "bakery",
		"stock_quantity": 8,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var item domain.Item
	dataInto(t, rec, &item)

	rec = doRequest(t, router, http.MethodPut, itemPath(item.ItemID), token, map[string]any{
		"price": 9.99,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Item
	dataInto(t, rec, &updated)

	assert.True(t, updated.Price.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, "Muffin", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "blueberry", *updated.Description)
	assert.Equal(t, "bakery", updated.Category)
	assert.EqualValues(t, 8, updated.StockQuantity)
}

func TestItemUpdateNoFields(t *testing.T) {
	h := newTestHandler(t)
	router := h.Router()
	token := adminToken(t, router)

	item := createTestItem(t, router, token, "Scone", "1.80", 5)
	rec := doRequest(t, router, http.MethodPut, itemPath(item.ItemID), token, map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No fields to update", decodeEnvelope(t, rec).Message)
}

func TestItemDeleteReferencedByOrder(t *testing.T) {
	h := newTestHandler(t)
	router := h.Router()
	token := adminToken(t, router)

	item := createTestItem(t, router, token, "Cookie", "1.00", 5)
	rec := doRequest(t, router, http.MethodPost, "/api/orders", token, orderBody(line(item.ItemID, 1)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, itemPath(item.ItemID), token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestItemWriteRequiresAdmin(t *testing.T) {
	h := newTestHandler(t)
	router := h.Router()
	token := adminToken(t, router)

	rec := doRequest(t, router, http.MethodPost, "/api/users", token, map[string]any{
		"username": "till2",
		"email":    "till2@pos.com",
		"password": "secret2",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	cashier := loginAs(t, router, "till2", "secret2")

	// Cashiers can read the catalog but not change it.
	rec = doRequest(t, router, http.MethodGet, "/api/items", cashier, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/items", cashier, map[string]any{
		"name":           "Sneaky",
		"price":          1.00,
		"category":       "misc",
		"stock_quantity": 1,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
