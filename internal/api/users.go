package api

import (
	"database/sql"
	"errors"
	"net/http"
	"net/mail"

	"golang.org/x/crypto/bcrypt"

	"tillpoint/m/domain"
)

const userColumns = `userid, username, email, role, created_at, updated_at`

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users := []domain.User{}
	if err := h.db.Select(&users, `SELECT `+userColumns+` FROM users ORDER BY username ASC`); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve users")
		return
	}
	respondData(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "userid")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !allowSelfOrAdmin(r, id) {
		respondError(w, http.StatusForbidden, "Access denied")
		return
	}
	var user domain.User
	if err := h.db.Get(&user, `SELECT `+userColumns+` FROM users WHERE userid = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to retrieve user")
		return
	}
	respondData(w, http.StatusOK, user)
}

type userCreateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func validRole(role string) bool {
	return role == domain.RoleAdmin || role == domain.RoleCashier
}

func validEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []string
	if len(req.Username) < 2 || len(req.Username) > 100 {
		errs = append(errs, "Username must be between 2 and 100 characters")
	}
	if !validEmail(req.Email) {
		errs = append(errs, "Please provide a valid email")
	}
	if len(req.Password) < 6 {
		errs = append(errs, "Password must be at least 6 characters long")
	}
	if req.Role == "" {
		req.Role = domain.RoleCashier
	}
	if !validRole(req.Role) {
		errs = append(errs, "Role must be either admin or cashier")
	}
	if len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Unable to secure password")
		return
	}

	res, err := h.db.Exec(`INSERT INTO users (username, email, role, password) VALUES (?, ?, ?, ?)`,
		req.Username, req.Email, req.Role, string(hashed))
	if err != nil {
		if isUniqueViolation(err) {
			respondError(w, http.StatusConflict, "Username or email already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	id, _ := res.LastInsertId()

	var user domain.User
	if err := h.db.Get(&user, `SELECT `+userColumns+` FROM users WHERE userid = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve user")
		return
	}
	respondMessageData(w, http.StatusCreated, "User created successfully", user)
}

type userUpdateRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "userid")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !allowSelfOrAdmin(r, id) {
		respondError(w, http.StatusForbidden, "Access denied")
		return
	}
	var req userUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []string
	var update fieldUpdate
	if req.Username != nil {
		if len(*req.Username) < 2 || len(*req.Username) > 100 {
			errs = append(errs, "Username must be between 2 and 100 characters")
		}
		update.set("username", *req.Username)
	}
	if req.Email != nil {
		if !validEmail(*req.Email) {
			errs = append(errs, "Please provide a valid email")
		}
		update.set("email", *req.Email)
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			errs = append(errs, "Password must be at least 6 characters long")
		} else {
			hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "Unable to secure password")
				return
			}
			update.set("password", string(hashed))
		}
	}
	if req.Role != nil {
		// Only admins may assign roles; otherwise a cashier could promote
		// themselves through the self-update path.
		if roleFromContext(r) != domain.RoleAdmin {
			respondError(w, http.StatusForbidden, "Only admins can change roles")
			return
		}
		if !validRole(*req.Role) {
			errs = append(errs, "Role must be either admin or cashier")
		}
		update.set("role", *req.Role)
	}
	if len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	stmt, args, err := update.query("users", "userid", id)
	if err != nil {
		respondError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	res, err := h.db.Exec(stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			respondError(w, http.StatusConflict, "Username or email already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	var user domain.User
	if err := h.db.Get(&user, `SELECT `+userColumns+` FROM users WHERE userid = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to retrieve user")
		return
	}
	respondMessageData(w, http.StatusOK, "User updated successfully", user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "userid")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.db.Exec(`DELETE FROM users WHERE userid = ?`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	respondMessage(w, http.StatusOK, "User deleted successfully")
}
