package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"

	"tillpoint/m/domain"
)

type ctxKey string

const (
	ctxUserID   ctxKey = "userID"
	ctxUsername ctxKey = "username"
	ctxRole     ctxKey = "role"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db      *sqlx.DB
	secret  string
	limiter *rateLimiter
}

// New constructs a Handler. A non-positive maxRequests disables rate limiting.
func New(db *sqlx.DB, secret string, window time.Duration, maxRequests int) *Handler {
	return &Handler{db: db, secret: secret, limiter: newRateLimiter(window, maxRequests)}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.limiter.middleware)

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.login)
			r.Post("/refresh", h.refresh)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.authMiddleware)

			pr.Route("/users", func(r chi.Router) {
				r.With(h.requireAdmin).Get("/", h.listUsers)
				r.With(h.requireAdmin).Post("/", h.createUser)
				r.Get("/{userid}", h.getUser)
				r.Put("/{userid}", h.updateUser)
				r.With(h.requireAdmin).Delete("/{userid}", h.deleteUser)
			})

			pr.Route("/items", func(r chi.Router) {
				r.Get("/", h.listItems)
				r.Get("/{itemid}", h.getItem)
				r.With(h.requireAdmin).Post("/", h.createItem)
				r.With(h.requireAdmin).Put("/{itemid}", h.updateItem)
				r.With(h.requireAdmin).Delete("/{itemid}", h.deleteItem)
			})

			pr.Route("/customers", func(r chi.Router) {
				r.Use(h.requireAdmin)
				r.Get("/", h.listCustomers)
				r.Get("/{customerid}", h.getCustomer)
				r.Post("/", h.createCustomer)
				r.Put("/{customerid}", h.updateCustomer)
				r.Delete("/{customerid}", h.deleteCustomer)
			})

			pr.Route("/orders", func(r chi.Router) {
				r.Use(h.requireAdmin)
				r.Get("/", h.listOrders)
				r.Get("/{orderid}", h.getOrder)
				r.Post("/", h.createOrder)
				r.Put("/{orderid}", h.updateOrderStatus)
				r.Delete("/{orderid}", h.deleteOrder)
			})
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondMessageData(w, http.StatusOK, "POS backend is running", map[string]string{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Authentication helpers

type authClaims struct {
	UserID   int64  `json:"userid"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	UserID   int64  `json:"userid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(user domain.User) (string, error) {
	claims := authClaims{
		UserID:   user.UserID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) generateRefreshToken(user domain.User) (string, error) {
	claims := refreshClaims{
		UserID:   user.UserID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(7 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "Access token required")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				respondError(w, http.StatusUnauthorized, "Token expired")
				return
			}
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok || !token.Valid {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxUsername, claims.Username)
		ctx = context.WithValue(ctx, ctxRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if roleFromContext(r) != domain.RoleAdmin {
			respondError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func roleFromContext(r *http.Request) string {
	if role, ok := r.Context().Value(ctxRole).(string); ok {
		return role
	}
	return ""
}

func userIDFromContext(r *http.Request) int64 {
	if id, ok := r.Context().Value(ctxUserID).(int64); ok {
		return id
	}
	return 0
}

// allowSelfOrAdmin reports whether the requester is an admin or is acting on
// their own user record.
func allowSelfOrAdmin(r *http.Request, userID int64) bool {
	return roleFromContext(r) == domain.RoleAdmin || userIDFromContext(r) == userID
}

// idParam parses a positive integer URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("ID must be a positive integer")
	}
	return id, nil
}

// Response envelope helpers

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, response{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, response{Success: true, Message: message})
}

func respondMessageData(w http.ResponseWriter, status int, message string, data any) {
	respondJSON(w, status, response{Success: true, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, response{Success: false, Message: message})
}

// respondValidation enumerates each failing field.
func respondValidation(w http.ResponseWriter, errs []string) {
	respondJSON(w, http.StatusBadRequest, response{
		Success: false,
		Message: "Validation failed",
		Data:    map[string][]string{"errors": errs},
	})
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
