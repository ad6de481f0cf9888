package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStep(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveStep("deploy", "forward", "succeeded", 2*time.Second)
	m.ObserveStep("deploy", "forward", "succeeded", time.Second)
	m.ObserveStep("deploy", "rollback", "rolled_back", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.stepsTotal.WithLabelValues("deploy", "forward", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stepsTotal.WithLabelValues("deploy", "rollback", "rolled_back")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.stepDuration))
}

func TestObserveRun(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRun("deploy", "failed_rolled_back")

	expected := `
# HELP hoc_engine_runs_total Total number of procedure runs by outcome
# TYPE hoc_engine_runs_total counter
hoc_engine_runs_total{outcome="failed_rolled_back",procedure="deploy"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.runsTotal, strings.NewReader(expected)))
}

func TestObserveHCloudCall(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveHCloudCall("server.get", nil, 100*time.Millisecond)
	m.ObserveHCloudCall("server.get", errors.New("boom"), 100*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.hcloudAPICallsTotal.WithLabelValues("server.get", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.hcloudAPICallsTotal.WithLabelValues("server.get", "success")))
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveStep("p", "forward", "failed", time.Second)
	m.ObserveRun("p", "succeeded")
	m.ObserveHCloudCall("server.get", nil, time.Second)
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRun("deploy", "succeeded")

	path := filepath.Join(t.TempDir(), "hoc.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `hoc_engine_runs_total{outcome="succeeded",procedure="deploy"} 1`)
}
