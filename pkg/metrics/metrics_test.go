package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistryIsolated(t *testing.T) {
	a := NewWithRegistry(prometheus.NewRegistry())
	b := NewWithRegistry(prometheus.NewRegistry())

	a.SearchQueriesTotal.WithLabelValues("hit").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.SearchQueriesTotal.WithLabelValues("hit")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SearchQueriesTotal.WithLabelValues("hit")))
}

func TestRegistersEveryCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	m.IndexReady.Set(1)
	m.EvaluationMAP.Set(0.5)
	m.CircuitBreakerState.WithLabelValues("feature-extractor").Set(0)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"index_ready", "evaluation_mean_average_precision", "circuit_breaker_state"} {
		assert.True(t, names[want], want)
	}
}

func TestHandlerServes(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
