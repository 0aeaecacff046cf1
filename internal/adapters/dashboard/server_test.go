package dashboard

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/clawfarm/internal/domain"
	"github.com/bnema/clawfarm/internal/obs"
)

type staticProvider struct {
	snap domain.FleetSnapshot
}

func (p staticProvider) Snapshot() domain.FleetSnapshot {
	return p.snap
}

func testSnapshot() domain.FleetSnapshot {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	accounts := []domain.StatsSnapshot{
		{
			ID:         "acc_01",
			TrustScore: 42,
			CWBalance:  1500,
			Status:     domain.WorkerFarming,
			Runtime:    "0:10:00",
		},
	}
	return domain.NewFleetSnapshot("run-test", accounts, 1, now)
}

func TestStatsEndpointServesSnapshotWithCORS(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewServer(staticProvider{snap: testSnapshot()}, nil, nil))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var snap domain.FleetSnapshot
	require.NoError(t, json.NewDecoder(res.Body).Decode(&snap))
	assert.Equal(t, "run-test", snap.RunID)
	require.Len(t, snap.Accounts, 1)
	assert.Equal(t, "acc_01", string(snap.Accounts[0].ID))
	assert.Equal(t, 1, snap.Summary.Running)
}

func TestIndexServesPollingPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewServer(staticProvider{snap: testSnapshot()}, nil, nil))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "/api/stats")
	assert.Contains(t, string(body), "setInterval(refresh, 10000)")
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewServer(staticProvider{}, nil, nil))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestMetricsEndpointWhenConfigured(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := obs.NewMetrics()
	metrics.MustRegister(reg)
	metrics.MomentsPosted.Inc()

	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	srv := httptest.NewServer(NewServer(staticProvider{}, handler, nil))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "clawfarm_moments_posted_total 1")
}

func TestMetricsEndpointAbsentWithoutHandler(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(NewServer(staticProvider{}, nil, nil))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
