package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"tillpoint/m/domain"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         domain.User `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var errs []string
	if req.Username == "" {
		errs = append(errs, "Username is required")
	}
	if req.Password == "" {
		errs = append(errs, "Password is required")
	}
	if len(errs) > 0 {
		respondValidation(w, errs)
		return
	}

	var user domain.User
	err := h.db.Get(&user, `SELECT userid, username, email, role, password, created_at, updated_at FROM users WHERE username = ?`, req.Username)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Unable to generate token")
		return
	}
	refreshToken, err := h.generateRefreshToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Unable to generate token")
		return
	}

	respondMessageData(w, http.StatusOK, "Login successful", loginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "Refresh token required")
		return
	}

	token, err := jwt.ParseWithClaims(req.RefreshToken, &refreshClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.secret), nil
	})
	if err != nil || !token.Valid {
		respondError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	claims, ok := token.Claims.(*refreshClaims)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	// The user may have been deleted since the refresh token was issued.
	var user domain.User
	err = h.db.Get(&user, `SELECT userid, username, email, role, created_at, updated_at FROM users WHERE userid = ?`, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		respondError(w, http.StatusInternalServerError, "Unable to refresh token")
		return
	}

	newToken, err := h.generateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Unable to generate token")
		return
	}
	respondMessageData(w, http.StatusOK, "Token refreshed", map[string]string{"token": newToken})
}
