package api

import (
	"database/sql"
	"errors"
	"net/http"

	"tillpoint/m/domain"
)

const customerColumns = `customerid, name, email, phone, address, created_at, updated_at`

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers := []domain.Customer{}
	if err := h.db.Select(&customers, `SELECT `+customerColumns+` FROM customers ORDER BY name ASC`); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}
	respondData(w, http.StatusOK, customers)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "customerid")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var customer domain.Customer
	if err := h.db.Get(&customer, `SELECT `+customerColumns+` FROM customers WHERE customerid = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Customer not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to retrieve customer")
		return
	}
	respondData(w, http.StatusOK, customer)
}

type customerCreateRequest struct {
	Name    string  `json:"name"`
	Email   *string `json:"email"`
	Phone   string  `json:"phone"`
	Address *string `json:"address"`
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []string
	if len(req.Name) < 2 || len(req.Name) > 100 {
		errs = append(errs, "Customer name must be between 2 and 100 characters")
	}
	if req.Email != nil && !validEmail(*req.Email) {
		errs = append(errs, "Please provide a valid email")
	}
	if len(req.Phone) < 7 || len(req.Phone) > 20 {
		errs = append(errs, "Please provide a valid phone number")
	}
	if req.Address != nil && len(*req.Address) > 500 {
		errs = append(errs, "Address must be less than 500 characters")
	}
	if len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	res, err := h.db.Exec(`INSERT INTO customers (name, email, phone, address) VALUES (?, ?, ?, ?)`,
		req.Name, req.Email, req.Phone, req.Address)
	if err != nil {
		if isUniqueViolation(err) {
			respondError(w, http.StatusConflict, "Customer with this phone or email already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to create customer")
		return
	}
	id, _ := res.LastInsertId()

	var customer domain.Customer
	if err := h.db.Get(&customer, `SELECT `+customerColumns+` FROM customers WHERE customerid = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve customer")
		return
	}
	respondMessageData(w, http.StatusCreated, "Customer created successfully", customer)
}

type customerUpdateRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "customerid")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req customerUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []string
	var update fieldUpdate
	if req.Name != nil {
		if len(*req.Name) < 2 || len(*req.Name) > 100 {
			errs = append(errs, "Customer name must be between 2 and 100 characters")
		}
		update.set("name", *req.Name)
	}
	if req.Email != nil {
		if !validEmail(*req.Email) {
			errs = append(errs, "Please provide a valid email")
		}
		update.set("email", *req.Email)
	}
	if req.Phone != nil {
		if len(*req.Phone) < 7 || len(*req.Phone) > 20 {
			errs = append(errs, "Please provide a valid phone number")
		}
		update.set("phone", *req.Phone)
	}
	if req.Address != nil {
		if len(*req.Address) > 500 {
			errs = append(errs, "Address must be less than 500 characters")
		}
		update.set("address", *req.Address)
	}
	if len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	stmt, args, err := update.query("customers", "customerid", id)
	if err != nil {
		respondError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	res, err := h.db.Exec(stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			respondError(w, http.StatusConflict, "Customer with this phone or email already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update customer")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	var customer domain.Customer
	if err := h.db.Get(&customer, `SELECT `+customerColumns+` FROM customers WHERE customerid = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve customer")
		return
	}
	respondMessageData(w, http.StatusOK, "Customer updated successfully", customer)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "customerid")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.db.Exec(`DELETE FROM customers WHERE customerid = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			respondError(w, http.StatusConflict, "Customer is referenced by existing orders")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to delete customer")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "Customer not found")
		return
	}
	respondMessage(w, http.StatusOK, "Customer deleted successfully")
}
