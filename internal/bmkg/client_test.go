package bmkg

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danwib/tacwx/internal/config"
	"github.com/danwib/tacwx/pkg/logger"
)

func testClient(baseURL string, maxRetries int) *Client {
	return NewClient(config.BMKGConfig{
		BaseURL:               baseURL,
		AdmLevel:              "adm4",
		RequestTimeoutSeconds: 5,
		MaxRetries:            maxRetries,
		RateLimitRPS:          100,
		RateLimitBurst:        100,
		UserAgent:             "Mozilla/5.0 (TacWX/1.0)",
	}, logger.NewNop())
}

const validPayload = `{"data": [{"lokasi": {"adm4": "31.71.01.1001"}, "cuaca": [[{"t": 30}]]}]}`

func TestFetchForecastSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "31.71.01.1001", r.URL.Query().Get("adm4"))
		assert.Equal(t, "Mozilla/5.0 (TacWX/1.0)", r.Header.Get("User-Agent"))
		w.Write([]byte(validPayload))
	}))
	defer server.Close()

	resp, err := testClient(server.URL, 0).FetchForecast(context.Background(), "31.71.01.1001")
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "31.71.01.1001", resp.Data[0].Lokasi["adm4"])
}

func TestFetchForecastServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(server.URL, 0).FetchForecast(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, KindNetworkError, KindOf(err))
}

func TestFetchForecastMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [`))
	}))
	defer server.Close()

	_, err := testClient(server.URL, 0).FetchForecast(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, KindMalformedPayload, KindOf(err))
}

func TestFetchForecastEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL, 0).FetchForecast(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, KindEmptyResult, KindOf(err))
}

func TestFetchForecastRetriesNetworkErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(validPayload))
	}))
	defer server.Close()

	resp, err := testClient(server.URL, 3).FetchForecast(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchForecastDoesNotRetryEmptyResult(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL, 3).FetchForecast(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, KindEmptyResult, KindOf(err))
	assert.Equal(t, int32(1), calls.Load(), "empty results must not be retried")
}

func TestObservationsShapes(t *testing.T) {
	// List of objects
	obs := Observations([]byte(`[{"t": 30}, {"t": 31}]`))
	require.Len(t, obs, 2)
	assert.Equal(t, 30.0, obs[0]["t"])

	// Bare object
	obs = Observations([]byte(`{"t": 28}`))
	require.Len(t, obs, 1)
	assert.Equal(t, 28.0, obs[0]["t"])

	// Garbage entries inside a list are dropped, not substituted
	obs = Observations([]byte(`[{"t": 30}, 42, "x"]`))
	require.Len(t, obs, 1)

	// Entirely unusable group
	assert.Empty(t, Observations([]byte(`"nope"`)))
}

func TestErrorKindOf(t *testing.T) {
	err := NewError(KindEmptyResult, "boom", nil)
	assert.Equal(t, KindEmptyResult, KindOf(err))

	// Wrapped errors still expose their kind
	wrapped := fmt.Errorf("fetch failed: %w", err)
	assert.Equal(t, KindEmptyResult, KindOf(wrapped))

	// Foreign errors map to the conservative network category
	assert.Equal(t, KindNetworkError, KindOf(context.Canceled))
}
