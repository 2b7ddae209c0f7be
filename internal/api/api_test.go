package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"tillpoint/m/domain"
	"tillpoint/m/internal/database"
	"tillpoint/m/internal/migrations"
	"tillpoint/m/internal/seed"
)

// newTestHandler builds a handler backed by a fresh in-memory database with
// the schema migrated and the default admin seeded. Rate limiting is off.
func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	db := database.Connect(":memory:")
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)
	seed.EnsureAdmin(db)
	return New(db, "test-secret", 0, 0)
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func dataInto(t *testing.T, rec *httptest.ResponseRecorder, dest any) envelope {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Data, "response has no data: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dest))
	return env
}

func loginAs(t *testing.T, router http.Handler, username, password string) string {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	dataInto(t, rec, &data)
	return data.Token
}

func adminToken(t *testing.T, router http.Handler) string {
	t.Helper()
	return loginAs(t, router, "admin", "admin123")
}

func createTestItem(t *testing.T, router http.Handler, token, name, price string, stock int64) domain.Item {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/api/items", token, map[string]any{
		"name":           name,
		"price":          json.RawMessage(price),
		"category":       "general",
		"stock_quantity": stock,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item domain.Item
	dataInto(t, rec, &item)
	return item
}

func itemPath(id int64) string     { return fmt.Sprintf("/api/items/%d", id) }
func orderPath(id int64) string    { return fmt.Sprintf("/api/orders/%d", id) }
func customerPath(id int64) string { return fmt.Sprintf("/api/customers/%d", id) }
func userPath(id int64) string     { return fmt.Sprintf("/api/users/%d", id) }

func getTestItem(t *testing.T, router http.Handler, token string, id int64) domain.Item {
	t.Helper()
	rec := doRequest(t, router, http.MethodGet, itemPath(id), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var item domain.Item
	dataInto(t, rec, &item)
	return item
}
