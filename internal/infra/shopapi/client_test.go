package shopapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiru781/cursior/internal/domain"
	"github.com/chiru781/cursior/internal/infra/httpclient"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := domain.DefaultConfig()
	cfg.App.APIBaseURL = srv.URL + "/"
	return New(cfg, WithExecutor(httpclient.NewExecutor(
		httpclient.WithRetries(2),
		httpclient.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginSendsCredentialsAndDecodesJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "test@example.com", body["email"])
		writeJSON(w, http.StatusOK, map[string]any{"token": "abc", "user": map[string]any{"id": 7}})
	}))

	resp := c.Login(context.Background(), "test@example.com", "SecurePass123!")

	require.NoError(t, resp.Err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc", resp.Object()["token"])
	assert.Greater(t, resp.Duration, time.Duration(0))
}

func TestAuthTokenIsAttachedUntilCleared(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	ctx := context.Background()

	c.SetAuthToken("t0k")
	c.OrderDetails(ctx, "ORD1")
	c.ClearAuthToken()
	c.OrderDetails(ctx, "ORD1")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer t0k", ""}, seen)
}

func TestNonJSONBodyIsKeptAsText(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "pong")
	}))

	resp := c.Health(context.Background())
	assert.Equal(t, "pong", resp.Data)
	assert.Nil(t, resp.Object())
}

func TestTransportFailureHasZeroStatus(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.App.APIBaseURL = "http://127.0.0.1:1"
	c := New(cfg, WithExecutor(httpclient.NewExecutor(httpclient.WithRetries(0))))

	resp := c.Health(context.Background())
	assert.Equal(t, 0, resp.StatusCode)
	require.Error(t, resp.Err)
	assert.True(t, domain.IsKind(resp.Err, domain.KindExecution))
}

func TestGetRetriesServiceUnavailable(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": []any{}})
	}))

	resp := c.SearchProducts(context.Background(), "laptop")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, calls.Load())
}

func TestEndpointsUseDocumentedPaths(t *testing.T) {
	type call struct{ method, path, query string }
	var (
		mu  sync.Mutex
		got []call
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, call{r.Method, r.URL.Path, r.URL.RawQuery})
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	ctx := context.Background()

	c.AddToCart(ctx, "7", "42", 0)
	c.UpdateOrderStatus(ctx, "ORD1", "shipped")
	c.CancelOrder(ctx, "ORD1")
	c.RefundPayment(ctx, "p1", 0)
	c.AdminUsers(ctx, 0, 0)
	c.PurchaseProduct(ctx, map[string]any{"product_name": "Laptop", "quantity": 1})
	c.ClearCart(ctx, "7")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []call{
		{http.MethodPost, "/users/7/cart", ""},
		{http.MethodPatch, "/orders/ORD1", ""},
		{http.MethodPatch, "/orders/ORD1/cancel", ""},
		{http.MethodPost, "/payments/p1/refund", ""},
		{http.MethodGet, "/admin/users", "limit=50&page=1"},
		{http.MethodPost, "/products/purchase", ""},
		{http.MethodDelete, "/users/7/cart", ""},
	}, got)
}

func TestWaitReady(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	assert.True(t, c.WaitReady(context.Background(), 5, time.Millisecond))
	assert.EqualValues(t, 3, calls.Load())

	down := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	assert.False(t, down.WaitReady(context.Background(), 2, time.Millisecond))
}

func TestVerifySchema(t *testing.T) {
	resp := domain.APIResponse{
		StatusCode: http.StatusOK,
		Data: map[string]any{
			"order_id": "ORD12345",
			"status":   "processing",
			"items":    []any{map[string]any{"name": "Laptop"}},
		},
	}

	require.NoError(t, VerifySchema(resp, []string{"order_id", "status", "$.items[0].name"}))

	err := VerifySchema(resp, []string{"order_id", "payment_status"})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindAssertion))
	assert.Contains(t, err.Error(), "payment_status")

	resp.StatusCode = http.StatusNotFound
	assert.Error(t, VerifySchema(resp, nil))

	v, ok := Field(domain.APIResponse{Data: resp.Data}, "$.items[0].name")
	require.True(t, ok)
	assert.Equal(t, "Laptop", v)
}

func TestNullFieldsArePresent(t *testing.T) {
	resp := domain.APIResponse{
		StatusCode: http.StatusOK,
		Data: map[string]any{
			"order_id": "ORD1",
			"coupon":   nil,
			"payment":  map[string]any{"refund": nil},
		},
	}

	assert.Empty(t, MissingKeys(resp, []string{"coupon", "$.coupon", "$.payment.refund"}))
	assert.Equal(t, []string{"discount", "$.discount", "$.payment.card"},
		MissingKeys(resp, []string{"discount", "$.discount", "$.payment.card"}))

	for _, key := range []string{"coupon", "$.coupon"} {
		v, ok := Field(resp, key)
		assert.True(t, ok, key)
		assert.Nil(t, v, key)
	}
	_, ok := Field(resp, "$.discount")
	assert.False(t, ok)
}
