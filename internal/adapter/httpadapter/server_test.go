package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/tmc-data-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/tmc-data-etl/internal/domain"
	"github.com/couchcryptid/tmc-data-etl/internal/pipeline"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockRunner struct {
	result *pipeline.Result
	err    error
	calls  int
}

func (m *mockRunner) Run(_ context.Context) (*pipeline.Result, error) {
	m.calls++
	return m.result, m.err
}

func successResult() *pipeline.Result {
	start := time.Date(2019, time.August, 27, 7, 15, 0, 0, time.UTC)
	report := &domain.Report{
		Sites: []*domain.Site{{Meta: domain.SiteMeta{LocationID: "1"}}},
		NetworkPeaks: map[domain.DayPart]domain.NetworkPeak{
			domain.AM: {DayPart: domain.AM, Window: domain.Window{Start: start, End: start.Add(time.Hour)}},
			domain.PM: {DayPart: domain.PM, Window: domain.Window{Start: start.Add(9 * time.Hour), End: start.Add(10 * time.Hour)}},
		},
	}
	return &pipeline.Result{
		Report:      report,
		ReportPath:  "/out/TMC Summary.xlsx",
		ArchivePath: "/out/tmc_summary.zip",
	}
}

func newTestServer(runner *mockRunner, readyErr error) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", runner, &mockReadiness{err: readyErr}, logger)
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(&mockRunner{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(&mockRunner{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockRunner{}, fmt.Errorf("input folder missing"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "input folder missing", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&mockRunner{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRunEndpoint(t *testing.T) {
	runner := &mockRunner{result: successResult()}
	srv := newTestServer(runner, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/runs", nil)

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.calls)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["sites"])
	assert.Equal(t, "07:15 to 08:15", body["am_network_peak"])
	assert.Equal(t, "/out/tmc_summary.zip", body["archive_path"])
	assert.NotContains(t, body, "geojson_path", "omitted when no geocoding ran")
}

func TestRunEndpointFailure(t *testing.T) {
	runner := &mockRunner{err: errors.New("no survey workbooks found in ./data")}
	srv := newTestServer(runner, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/runs", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "no survey workbooks")
}

func TestRunEndpointRejectsGet(t *testing.T) {
	srv := newTestServer(&mockRunner{result: successResult()}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/runs", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
