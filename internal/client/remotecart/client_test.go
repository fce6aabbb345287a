package remotecart

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoBiul-Hasan-Jisan/hudai/internal/domain"
	apperrors "github.com/RoBiul-Hasan-Jisan/hudai/pkg/errors"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/httpclient"
	"github.com/RoBiul-Hasan-Jisan/hudai/pkg/middleware"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	doer := httpclient.NewCircuitBreakerClient(httpclient.New(cfg), httpclient.DefaultCircuitBreakerConfig("remotecart-test"), logger)

	return New(doer, server.URL+"/api")
}

func authed() context.Context {
	return middleware.WithClaims(context.Background(), &middleware.Claims{UserID: "u-1", Token: "tok"})
}

func TestItemsFromLines(t *testing.T) {
	ls := domain.Lines{
		{Product: domain.Product{ID: "a", Price: decimal.RequireFromString("2.5"), Stock: 3}, Quantity: 2},
	}

	items := ItemsFromLines(ls)

	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "2.5", items[0].Price.String())
}

func TestLoad(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/cart", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"items":[{"productId":"a","quantity":2,"price":10}]}`))
	})

	items, err := c.Load(authed())

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, Item{ProductID: "a", Quantity: 2, Price: items[0].Price}, items[0])
	assert.Equal(t, "10", items[0].Price.String())
}

func TestLoad_NoItems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	items, err := c.Load(authed())

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestSave(t *testing.T) {
	var got payload
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"Cart saved"}`))
	})

	err := c.Save(authed(), []Item{{ProductID: "a", Quantity: 1, Price: decimal.NewFromInt(5)}})

	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "a", got.Items[0].ProductID)
}

func TestSave_NilSendsEmptyArray(t *testing.T) {
	var raw map[string]json.RawMessage
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Save(authed(), nil))
	assert.JSONEq(t, `[]`, string(raw["items"]))
}

func TestClear(t *testing.T) {
	var method string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Clear(authed()))
	assert.Equal(t, http.MethodDelete, method)
}

func TestClear_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := c.Clear(context.Background())

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
