package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agristats/internal/database"
	"agristats/internal/engine"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	src, err := database.NewMemorySource(map[database.Table][]database.Record{
		database.Production: {
			{"id": 1, "country": "Tunisia", "product": "Wheat", "year": 2020, "production_quantity": 100.0},
			{"id": 2, "country": "Morocco", "product": "Wheat", "year": 2020, "production_quantity": 300.0},
			{"id": 3, "country": "Tunisia", "product": "Wheat", "year": 2021, "production_quantity": 80.0},
		},
		database.ProducerPrices: {
			{"id": 1, "country": "Tunisia", "product": "Wheat", "year": 2020, "price": 10.0},
		},
		database.LandUse: {
			{"id": 1, "country": "Tunisia", "year": 2020, "land_area_agricultural": 50.0, "land_area_total": 200.0},
		},
	})
	require.NoError(t, err)

	ts := httptest.NewServer(New(engine.New(src)).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestProductionTimeseries(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts, "/api/production/timeseries/?product=Wheat&country=Tunisia")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.JSONEq(t, `[{"year":2020,"value":100},{"year":2021,"value":80}]`, string(body))
}

func TestTopProducers(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts, "/api/production/top/?product=Wheat&year=2020&n=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"country":"Morocco","value":300}]`, string(body))
}

func TestTopProducersExplicitZero(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts, "/api/production/top/?product=Wheat&year=2020&n=0")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, body = get(t, ts, "/api/production/top/?product=Wheat&year=2020")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"country":"Morocco","value":300},{"country":"Tunisia","value":100}]`, string(body))
}

func TestLandShare(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts, "/api/land/share/?country=Tunisia&year=2020")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"country":"Tunisia","year":2020,"share_pct":25}`, string(body))
}

func TestEmptyResultIsArray(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts, "/api/price/timeseries/?product=Rice")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		path    string
		message string
	}{
		{"/api/production/top/?product=Wheat", "product and year required"},
		{"/api/production/top/?product=Wheat&year=2020&n=-1", "n must not be negative"},
		{"/api/production/top/?product=Wheat&year=2020&n=", `n must be an integer, got ""`},
		{"/api/production/top/?product=Wheat&year=abc", `year must be an integer, got "abc"`},
		{"/api/fdi/stacked/", "year required"},
		{"/api/land/share/?country=Tunisia", "country and year required"},
		{"/api/employment/timeseries/", "country required"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, ts, tt.path)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var got errorResponse
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.message, got.Error)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/production/timeseries/", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestUnknownPath(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := get(t, ts, "/api/production/timeseries/extra")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)

	get(t, ts, "/api/options/")
	get(t, ts, "/api/fdi/stacked/")

	resp, body := get(t, ts, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `agristats_requests_total{op="filter_options",status="200"} 1`)
	assert.Contains(t, string(body), `agristats_requests_total{op="fdi_stacked",status="400"} 1`)
	assert.Contains(t, string(body), "agristats_request_duration_seconds_bucket")
}

type failingSource struct{}

func (failingSource) Connect(context.Context, string) error { return nil }
func (failingSource) Close() error                          { return nil }
func (failingSource) Query(context.Context, database.Query) ([]database.Row, error) {
	return nil, errors.New("connection reset")
}

func TestSourceErrorIsInternal(t *testing.T) {
	ts := httptest.NewServer(New(engine.New(failingSource{})).Handler())
	defer ts.Close()

	resp, body := get(t, ts, "/api/production/timeseries/?product=Wheat")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"internal error"}`, string(body))
}
