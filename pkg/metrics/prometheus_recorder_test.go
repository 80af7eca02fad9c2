package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg, "docsite")

	pr.ObserveMarkdownDuration("parse", 150*time.Microsecond)
	pr.IncProjectOperation("create", ResultSuccess)
	pr.IncProjectOperation("create", ResultSuccess)
	pr.IncProjectOperation("update", "NotFound")
	pr.ObserveImport(200*time.Millisecond, ResultError)
	pr.IncSyncAction("created")
	pr.ObserveHTTPRequest("/api/projects", http.MethodGet, 200, 5*time.Millisecond)
	pr.SetProjectCount(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.projectOps.WithLabelValues("create", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.projectOps.WithLabelValues("update", "NotFound")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.syncActions.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.httpRequests.WithLabelValues("/api/projects", "GET", "200")))
	assert.Equal(t, 3.0, testutil.ToFloat64(pr.projectCount))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveMarkdownDuration("parse", time.Millisecond)
		pr.IncProjectOperation("create", ResultSuccess)
		pr.SetProjectCount(1)
	})
}

func TestNoopRecorder(t *testing.T) {
	r := OrNoop(nil)
	assert.IsType(t, NoopRecorder{}, r)
	assert.NotPanics(t, func() {
		r.ObserveHTTPRequest("/", "GET", 200, time.Millisecond)
		r.IncSyncAction("deleted")
	})

	pr := NewPrometheusRecorder(nil, "")
	assert.Same(t, pr, OrNoop(pr))
}

func TestHTTPHandler(t *testing.T) {
	reg := NewRegistry()
	pr := NewPrometheusRecorder(reg, "docsite")
	pr.SetProjectCount(7)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "docsite_projects 7")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
