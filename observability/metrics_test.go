package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.AddDiagonalizations("bilayer", "sweep", 40000)
	c.AddDiagonalizations("bilayer", "sweep", 2)
	c.AddVertices("bilayer", "Axz", 17)
	c.SetMeshPoints(40000)
	c.ObservePhase("bilayer", "sweep", time.Now().Add(-time.Second))

	assert.Equal(t, 40002.0, testutil.ToFloat64(c.Diagonalizations.WithLabelValues("bilayer", "sweep")))
	assert.Equal(t, 17.0, testutil.ToFloat64(c.ContourVertices.WithLabelValues("bilayer", "Axz")))
	assert.Equal(t, 40000.0, testutil.ToFloat64(c.MeshPoints))
	assert.Equal(t, 1, testutil.CollectAndCount(c.PhaseDurations))

	// A second collector on the same registry shares the series
	c2, err := NewCollector(reg)
	require.NoError(t, err)
	c2.AddDiagonalizations("bilayer", "sweep", 1)
	assert.Equal(t, 40003.0, testutil.ToFloat64(c.Diagonalizations.WithLabelValues("bilayer", "sweep")))
	assert.Equal(t, prometheus.Gatherer(reg), c2.Gatherer())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tb_diagonalizations_total{model="bilayer",phase="sweep"} 40003`)
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.AddDiagonalizations("m", "p", 1)
		c.AddVertices("m", "b", 1)
		c.SetMeshPoints(1)
		c.ObservePhase("m", "p", time.Now())
	})
	assert.Equal(t, prometheus.DefaultGatherer, c.Gatherer())
}
