package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/marketpipe/pkg/config"
	"github.com/wonny/marketpipe/pkg/logger"
)

func testClient(retries int) *Client {
	return New(config.HTTPConfig{Timeout: 5 * time.Second, MaxRetries: retries}, logger.NewNop()).
		WithRetry(retries, time.Millisecond)
}

func TestNew(t *testing.T) {
	c := New(config.HTTPConfig{Timeout: 2 * time.Second, MaxRetries: 3, RatePerSec: 4}, logger.NewNop())

	assert.Equal(t, 2*time.Second, c.httpClient.Timeout)
	assert.True(t, c.retryConfig.Enabled)
	assert.Equal(t, 3, c.retryConfig.MaxRetries)
	assert.NotNil(t, c.limiter)
}

func TestNewDefaults(t *testing.T) {
	c := New(config.HTTPConfig{}, logger.NewNop())

	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
	assert.False(t, c.retryConfig.Enabled)
	assert.Nil(t, c.limiter)
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ticker":"AAPL","close":101.5}`))
	}))
	defer server.Close()

	var out struct {
		Ticker string  `json:"ticker"`
		Close  float64 `json:"close"`
	}
	require.NoError(t, testClient(0).GetJSON(context.Background(), server.URL, &out))
	assert.Equal(t, "AAPL", out.Ticker)
	assert.Equal(t, 101.5, out.Close)
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	body, err := testClient(3).GetBytes(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient(2).GetBytes(context.Background(), server.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := testClient(5).WithRetry(5, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, server.URL)
	assert.Error(t, err)
}

type countingWaiter struct{ n int32 }

func (w *countingWaiter) Wait(ctx context.Context) error {
	atomic.AddInt32(&w.n, 1)
	return nil
}

func TestWithLimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	w := &countingWaiter{}
	c := testClient(0).WithLimiter(w)
	for i := 0; i < 3; i++ {
		_, err := c.GetBytes(context.Background(), server.URL)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, w.n)
}

func TestIsRetryableStatus(t *testing.T) {
	assert.True(t, IsRetryableStatus(500))
	assert.True(t, IsRetryableStatus(503))
	assert.True(t, IsRetryableStatus(429))
	assert.False(t, IsRetryableStatus(404))
	assert.False(t, IsRetryableStatus(200))
}
