package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"tillpoint/m/domain"
)

const orderSelect = `SELECT o.orderid, o.customerid, o.total_amount, o.status, o.created_at, o.updated_at,
       c.name AS customer_name, c.email AS customer_email, c.phone AS customer_phone
  FROM orders o
  LEFT JOIN customers c ON o.customerid = c.customerid`

type orderLineRow struct {
	OrderID int64 `db:"orderid"`
	domain.OrderLine
}

// attachLines loads the line items for the given orders in one query and
// groups them by order.
func (h *Handler) attachLines(orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	for i, order := range orders {
		ids[i] = order.OrderID
	}

	query, args, err := sqlx.In(`SELECT oi.orderid, oi.itemid, oi.quantity, oi.price, i.name, i.category
        FROM order_items oi
        JOIN items i ON i.itemid = oi.itemid
        WHERE oi.orderid IN (?)`, ids)
	if err != nil {
		return err
	}
	query = h.db.Rebind(query)

	var rows []orderLineRow
	if err := h.db.Select(&rows, query, args...); err != nil {
		return err
	}
	linesByOrder := make(map[int64][]domain.OrderLine)
	for _, row := range rows {
		linesByOrder[row.OrderID] = append(linesByOrder[row.OrderID], row.OrderLine)
	}
	for i := range orders {
		lines := linesByOrder[orders[i].OrderID]
		if lines == nil {
			lines = []domain.OrderLine{}
		}
		orders[i].Items = lines
	}
	return nil
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders := []domain.Order{}
	if err := h.db.Select(&orders, orderSelect+` ORDER BY o.created_at DESC, o.orderid DESC`); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}
	if err := h.attachLines(orders); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve orders")
		return
	}
	respondData(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "orderid")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	order, err := h.loadOrder(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to retrieve order")
		return
	}
	respondData(w, http.StatusOK, order)
}

func (h *Handler) loadOrder(id int64) (domain.Order, error) {
	var order domain.Order
	if err := h.db.Get(&order, orderSelect+` WHERE o.orderid = ?`, id); err != nil {
		return order, err
	}
	orders := []domain.Order{order}
	if err := h.attachLines(orders); err != nil {
		return order, err
	}
	return orders[0], nil
}

type orderLineRequest struct {
	ItemID   int64 `json:"itemid"`
	Quantity int64 `json:"quantity"`
}

type orderCreateRequest struct {
	CustomerID *int64             `json:"customerid"`
	Items      []orderLineRequest `json:"items"`
}

// createOrder runs the whole order as one transaction: every requested line
// is validated against current stock before any row is written, prices are
// snapshotted inside the transaction, and the stock decrement is guarded so
// stock_quantity can never go below zero. Any failure rolls back everything.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orderCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []string
	if len(req.Items) == 0 {
		errs = append(errs, "Order must contain at least one item")
	}
	for _, line := range req.Items {
		if line.ItemID <= 0 {
			errs = append(errs, "Item ID must be a positive integer")
		}
		if line.Quantity <= 0 {
			errs = append(errs, "Quantity must be a positive integer")
		}
	}
	if len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}
	defer tx.Rollback()

	if req.CustomerID != nil {
		var exists bool
		if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM customers WHERE customerid = ?)`, *req.CustomerID); err != nil || !exists {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Customer with ID %d not found", *req.CustomerID))
			return
		}
	}

	// Validate every line and capture price snapshots before touching any row.
	type pricedLine struct {
		ItemID   int64           `db:"itemid"`
		Name     string          `db:"name"`
		Category string          `db:"category"`
		Price    decimal.Decimal `db:"price"`
		Stock    int64           `db:"stock_quantity"`
		Quantity int64
	}
	priced := make([]pricedLine, 0, len(req.Items))
	total := decimal.Zero
	for _, line := range req.Items {
		var pl pricedLine
		err := tx.Get(&pl, `SELECT itemid, name, category, price, stock_quantity FROM items WHERE itemid = ?`, line.ItemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				respondError(w, http.StatusBadRequest, fmt.Sprintf("Item with ID %d not found", line.ItemID))
				return
			}
			respondError(w, http.StatusInternalServerError, "Failed to create order")
			return
		}
		if pl.Stock < line.Quantity {
			respondError(w, http.StatusBadRequest,
				fmt.Sprintf("Insufficient stock for item: %s (available %d, requested %d)", pl.Name, pl.Stock, line.Quantity))
			return
		}
		pl.Quantity = line.Quantity
		priced = append(priced, pl)
		total = total.Add(pl.Price.Mul(decimal.NewFromInt(line.Quantity)))
	}

	res, err := tx.Exec(`INSERT INTO orders (customerid, total_amount, status) VALUES (?, ?, 'pending')`,
		req.CustomerID, total)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	for _, pl := range priced {
		if _, err := tx.Exec(`INSERT INTO order_items (orderid, itemid, quantity, price) VALUES (?, ?, ?, ?)`,
			orderID, pl.ItemID, pl.Quantity, pl.Price); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to create order")
			return
		}
		// The guard clause re-checks availability at write time, which also
		// covers the same item appearing on multiple request lines.
		dec, err := tx.Exec(`UPDATE items
            SET stock_quantity = stock_quantity - ?, updated_at = CURRENT_TIMESTAMP
            WHERE itemid = ? AND stock_quantity >= ?`, pl.Quantity, pl.ItemID, pl.Quantity)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to create order")
			return
		}
		if affected, _ := dec.RowsAffected(); affected == 0 {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Insufficient stock for item: %s", pl.Name))
			return
		}
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	order, err := h.loadOrder(orderID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve order")
		return
	}
	respondMessageData(w, http.StatusCreated, "Order created successfully", order)
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

func validOrderStatus(status string) bool {
	switch status {
	case domain.OrderStatusPending, domain.OrderStatusCompleted, domain.OrderStatusCancelled:
		return true
	}
	return false
}

// updateOrderStatus is a metadata change only. Stock moves exclusively on
// order creation and deletion; marking an order cancelled does not restore
// inventory.
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "orderid")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req orderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validOrderStatus(req.Status) {
		respondValidation(w, []string{"Status must be pending, completed or cancelled"})
		return
	}

	res, err := h.db.Exec(`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE orderid = ?`, req.Status, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}

	order, err := h.loadOrder(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve order")
		return
	}
	respondMessageData(w, http.StatusOK, "Order updated successfully", order)
}

// deleteOrder reverses the order inside one transaction: every line's
// quantity is restored to its item before the header row is deleted (the
// cascade removes the lines). A missing order fails before any mutation.
func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "orderid")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete order")
		return
	}
	defer tx.Rollback()

	var orderID int64
	if err := tx.Get(&orderID, `SELECT orderid FROM orders WHERE orderid = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to delete order")
		return
	}

	var lines []struct {
		ItemID   int64 `db:"itemid"`
		Quantity int64 `db:"quantity"`
	}
	if err := tx.Select(&lines, `SELECT itemid, quantity FROM order_items WHERE orderid = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete order")
		return
	}

	for _, line := range lines {
		if _, err := tx.Exec(`UPDATE items
            SET stock_quantity = stock_quantity + ?, updated_at = CURRENT_TIMESTAMP
            WHERE itemid = ?`, line.Quantity, line.ItemID); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to delete order")
			return
		}
	}

	if _, err := tx.Exec(`DELETE FROM orders WHERE orderid = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete order")
		return
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete order")
		return
	}
	respondMessage(w, http.StatusOK, "Order deleted successfully")
}
