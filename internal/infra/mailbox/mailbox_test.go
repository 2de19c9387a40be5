package mailbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiru781/cursior/internal/domain"
)

func config(url string, enabled bool) domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Email.MailboxURL = url
	cfg.Features.Email = enabled
	return cfg
}

func TestWaitForEmail_DisabledAlwaysReceived(t *testing.T) {
	ok, err := New(config("", false)).WaitForEmail(context.Background(), "a@test.com", "Welcome", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWaitForEmail_MissingURL(t *testing.T) {
	_, err := New(config("", true)).WaitForEmail(context.Background(), "a@test.com", "Welcome", time.Second)
	assert.True(t, domain.IsKind(err, domain.KindInvalidConfig))
}

func TestWaitForEmail_PollsUntilMatch(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/search", r.URL.Path)
		assert.Equal(t, "to:jane@test.com", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			_, _ = w.Write([]byte(`{"messages":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"messages":[{"ID":"m1","From":{"Address":"shop@demo.com"},"To":[{"Address":"jane@test.com"}],"Subject":"Welcome to Demo Shop"}]}`))
	}))
	defer srv.Close()

	c := New(config(srv.URL, true), WithInterval(10*time.Millisecond))
	ok, err := c.WaitForEmail(context.Background(), "jane@test.com", "welcome", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestWaitForEmail_TimeoutIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"messages":[{"ID":"m1","Subject":"Newsletter"}]}`))
	}))
	defer srv.Close()

	c := New(config(srv.URL, true), WithInterval(10*time.Millisecond))
	ok, err := c.WaitForEmail(context.Background(), "jane@test.com", "Order Confirmation", 100*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWaitForEmail_TransportFailureIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(config(srv.URL, true), WithInterval(10*time.Millisecond))
	ok, err := c.WaitForEmail(context.Background(), "a@test.com", "Welcome", 100*time.Millisecond)
	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindExecution))
	assert.Contains(t, err.Error(), "unexpected status 500")

	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()

	ok, err = New(config(url, true), WithInterval(10*time.Millisecond)).
		WaitForEmail(context.Background(), "a@test.com", "Welcome", 100*time.Millisecond)
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"messages":[{"ID":"m1","From":{"Address":"shop@demo.com"},"To":[{"Address":"a@test.com"},{"Address":"b@test.com"}],"Subject":"Hi"}]}`))
	}))
	defer srv.Close()

	msgs, err := New(config(srv.URL, true)).Messages(context.Background(), "a@test.com")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "shop@demo.com", msgs[0].From)
	assert.Equal(t, []string{"a@test.com", "b@test.com"}, msgs[0].To)
}

func TestMessages_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(config(srv.URL, true)).Messages(context.Background(), "a@test.com")
	assert.True(t, domain.IsKind(err, domain.KindExecution))
}
