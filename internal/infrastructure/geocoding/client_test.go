package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pricewise/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient returns a client without rate limiting delays or backoff sleeps
func newTestClient(baseURL string) *Client {
	c := NewClient(Config{
		BaseURL:           baseURL,
		APIKey:            "test-key",
		RequestsPerSecond: 1000,
		Burst:             10,
	}, nil)
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{BaseURL: "https://geo.example.com/"}, nil)

	assert.Equal(t, "https://geo.example.com", client.baseURL)
	assert.Equal(t, "Pricewise/1.0", client.userAgent)
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)

	client.SetDebug(true)
	assert.True(t, client.debug)
	client.debugLog("debug message")
}

func TestExponentialBackoff(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, exponentialBackoff(1))
	assert.Equal(t, time.Second, exponentialBackoff(2))
	assert.Equal(t, 2*time.Second, exponentialBackoff(3))
}

func TestSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Rewe Alexanderplatz", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "Pricewise/1.0", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"52.5219","lon":"13.4132","display_name":"Rewe, Alexanderplatz, Berlin"}]`))
	}))
	defer server.Close()

	place, err := newTestClient(server.URL).Search(context.Background(), "  Rewe Alexanderplatz ")

	require.NoError(t, err)
	assert.Equal(t, "Rewe, Alexanderplatz, Berlin", place.DisplayName)
	assert.InDelta(t, 52.5219, place.Location.Latitude, 1e-9)
	assert.InDelta(t, 13.4132, place.Location.Longitude, 1e-9)
}

func TestSearch_EmptyQuery(t *testing.T) {
	_, err := newTestClient("http://unused").Search(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	place, err := newTestClient(server.URL).Search(context.Background(), "nowhere")

	assert.Nil(t, place)
	assert.ErrorIs(t, err, domain.ErrPlaceNotFound)
}

func TestSearch_ServerError_Retries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"lat":"1","lon":"2","display_name":"ok"}]`))
	}))
	defer server.Close()

	place, err := newTestClient(server.URL).Search(context.Background(), "retry")

	require.NoError(t, err)
	assert.Equal(t, "ok", place.DisplayName)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestSearch_TooManyRequests_Retries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[{"lat":"1","lon":"2","display_name":"ok"}]`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "throttled")

	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestSearch_ClientError_NoRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	place, err := newTestClient(server.URL).Search(context.Background(), "forbidden")

	assert.Nil(t, place)
	assert.ErrorIs(t, err, domain.ErrGeocoderFailure)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestSearch_AllRetriesFail(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "down")

	assert.ErrorIs(t, err, domain.ErrGeocoderFailure)
	assert.Equal(t, int32(maxAttempts), attempts.Load())
}

func TestSearch_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "broken")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestSearch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	place, err := newTestClient(server.URL).Search(ctx, "slow")

	assert.Nil(t, place)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSearch_RequestCreationError(t *testing.T) {
	_, err := newTestClient("://invalid-url").Search(context.Background(), "x")
	assert.Error(t, err)
}

func TestReadLimitedBody(t *testing.T) {
	body, err := readLimitedBody(strings.NewReader("short content"), 1000)
	require.NoError(t, err)
	assert.Equal(t, "short content", string(body))

	body, err = readLimitedBody(strings.NewReader(strings.Repeat("0123456789", 100)), 100)
	require.NoError(t, err)
	assert.Len(t, body, 100)
}
