package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"tillpoint/m/domain"
)

const itemColumns = `itemid, name, description, price, category, stock_quantity, created_at, updated_at`

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any

	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		like := "%" + search + "%"
		query += ` AND (name LIKE ? OR description LIKE ?)`
		args = append(args, like, like)
	}
	query += ` ORDER BY name ASC`

	items := []domain.Item{}
	if err := h.db.Select(&items, query, args...); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve items")
		return
	}
	respondData(w, http.StatusOK, items)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "itemid")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var item domain.Item
	if err := h.db.Get(&item, `SELECT `+itemColumns+` FROM items WHERE itemid = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Item not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to retrieve item")
		return
	}
	respondData(w, http.StatusOK, item)
}

type itemCreateRequest struct {
	Name          string           `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Category      string           `json:"category"`
	StockQuantity *int64           `json:"stock_quantity"`
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req itemCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []string
	if len(req.Name) < 1 || len(req.Name) > 100 {
		errs = append(errs, "Item name is required and must be less than 100 characters")
	}
	if req.Description != nil && len(*req.Description) > 1000 {
		errs = append(errs, "Description must be less than 1000 characters")
	}
	if req.Price == nil || req.Price.IsNegative() {
		errs = append(errs, "Price must be a non-negative number")
	}
	if len(req.Category) < 1 || len(req.Category) > 50 {
		errs = append(errs, "Category is required and must be less than 50 characters")
	}
	if req.StockQuantity == nil || *req.StockQuantity < 0 {
		errs = append(errs, "Stock quantity must be a non-negative integer")
	}
	if len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	res, err := h.db.Exec(`INSERT INTO items (name, description, price, category, stock_quantity) VALUES (?, ?, ?, ?, ?)`,
		req.Name, req.Description, *req.Price, req.Category, *req.StockQuantity)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create item")
		return
	}
	id, _ := res.LastInsertId()

	var item domain.Item
	if err := h.db.Get(&item, `SELECT `+itemColumns+` FROM items WHERE itemid = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve item")
		return
	}
	respondMessageData(w, http.StatusCreated, "Item created successfully", item)
}

type itemUpdateRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Category      *string          `json:"category"`
	StockQuantity *int64           `json:"stock_quantity"`
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "itemid")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req itemUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []string
	var update fieldUpdate
	if req.Name != nil {
		if len(*req.Name) < 1 || len(*req.Name) > 100 {
			errs = append(errs, "Item name must be between 1 and 100 characters")
		}
		update.set("name", *req.Name)
	}
	if req.Description != nil {
		if len(*req.Description) > 1000 {
			errs = append(errs, "Description must be less than 1000 characters")
		}
		update.set("description", *req.Description)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			errs = append(errs, "Price must be a non-negative number")
		}
		update.set("price", *req.Price)
	}
	if req.Category != nil {
		if len(*req.Category) < 1 || len(*req.Category) > 50 {
			errs = append(errs, "Category must be between 1 and 50 characters")
		}
		update.set("category", *req.Category)
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			errs = append(errs, "Stock quantity must be a non-negative integer")
		}
		update.set("stock_quantity", *req.StockQuantity)
	}
	if len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	stmt, args, err := update.query("items", "itemid", id)
	if err != nil {
		respondError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	res, err := h.db.Exec(stmt, args...)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update item")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "Item not found")
		return
	}

	var item domain.Item
	if err := h.db.Get(&item, `SELECT `+itemColumns+` FROM items WHERE itemid = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve item")
		return
	}
	respondMessageData(w, http.StatusOK, "Item updated successfully", item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "itemid")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.db.Exec(`DELETE FROM items WHERE itemid = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			respondError(w, http.StatusConflict, "Item is referenced by existing orders")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to delete item")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "Item not found")
		return
	}
	respondMessage(w, http.StatusOK, "Item deleted successfully")
}
