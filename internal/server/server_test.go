package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/trovo/internal/index"
	"github.com/Aman-CERP/trovo/internal/metrics"
	"github.com/Aman-CERP/trovo/internal/search"
)

var corpus = []string{
	"/home/u/docs/report.pdf",
	"/home/u/docs/invoice.pdf",
	"/home/u/music/song.mp3",
}

func newEngine(t *testing.T, paths []string, k int) *search.Engine {
	t.Helper()
	var idx *index.Index
	if paths != nil {
		var err error
		idx, err = index.Build(index.NewCorpus(paths), k)
		require.NoError(t, err)
	}
	engine, err := search.New(index.NewHandle(idx))
	require.NoError(t, err)
	return engine
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSearch_ReturnsRankedPaths(t *testing.T) {
	srv := New(newEngine(t, corpus, 3), nil)

	rec := get(t, srv.Handler(), "/search?q=report")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "report", resp.Query)
	assert.Equal(t, 3, resp.K)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "/home/u/docs/report.pdf", resp.Results[0].Path)
	assert.Positive(t, resp.Results[0].Score)
}

func TestSearch_RequestErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"missing q", "/search", http.StatusBadRequest, "ERR_404_QUERY_EMPTY"},
		{"bad limit", "/search?q=report&limit=abc", http.StatusBadRequest, "ERR_401_INVALID_INPUT"},
		{"negative limit", "/search?q=report&limit=-1", http.StatusBadRequest, "ERR_401_INVALID_INPUT"},
		{"bad k", "/search?q=report&k=x", http.StatusBadRequest, "ERR_401_INVALID_INPUT"},
		{"k mismatch", "/search?q=report&k=2", http.StatusBadRequest, "ERR_402_SHINGLE_MISMATCH"},
	}

	srv := New(newEngine(t, corpus, 3), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv.Handler(), tt.target)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestSearch_Limit(t *testing.T) {
	srv := New(newEngine(t, corpus, 1), nil, WithDefaultLimit(1))

	var resp SearchResponse
	rec := get(t, srv.Handler(), "/search?q=o")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 1)

	rec = get(t, srv.Handler(), "/search?q=o&limit=0")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 3)
}

func TestSearch_NoMatchesIsEmptyArray(t *testing.T) {
	srv := New(newEngine(t, corpus, 3), nil)

	rec := get(t, srv.Handler(), "/search?q=zzzz")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"results":[]`)
}

func TestSearch_NoIndexLoaded(t *testing.T) {
	srv := New(newEngine(t, nil, 0), nil)

	rec := get(t, srv.Handler(), "/search?q=report")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_503")
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		paths  []string
		status int
		want   HealthResponse
	}{
		{"loaded", corpus, http.StatusOK, HealthResponse{Status: "ok", Documents: 3, K: 2}},
		{"empty", nil, http.StatusServiceUnavailable, HealthResponse{Status: "empty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(newEngine(t, tt.paths, 2), nil)

			rec := get(t, srv.Handler(), "/healthz")

			assert.Equal(t, tt.status, rec.Code)
			var got HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMetricsEndpointAndMiddleware(t *testing.T) {
	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	srv := New(newEngine(t, corpus, 3), reg, WithMetrics(m))
	h := srv.Handler()

	get(t, h, "/search?q=report")
	get(t, h, "/search")
	get(t, h, "/nope/123")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/search", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/search", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "other", "404")))
	assert.Zero(t, testutil.ToFloat64(m.HTTPRequestsInFlight))

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trovo_http_requests_total")
}

func TestMetricsEndpoint_AbsentWithoutRegistry(t *testing.T) {
	srv := New(newEngine(t, corpus, 3), nil)

	rec := get(t, srv.Handler(), "/metrics")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/search", routeLabel("/search"))
	assert.Equal(t, "/healthz", routeLabel("/healthz"))
	assert.Equal(t, "other", routeLabel("/search/extra"))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv := New(newEngine(t, corpus, 3), nil, WithShutdownTimeout(time.Second))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	// Given a running server answering requests
	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	// When the context is cancelled
	cancel()

	// Then Serve returns cleanly
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServe_BadAddress(t *testing.T) {
	srv := New(newEngine(t, corpus, 3), nil)

	err := srv.ListenAndServe(context.Background(), "not-an-address")

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to listen"))
}
