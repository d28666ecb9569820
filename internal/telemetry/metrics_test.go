package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHelpers(t *testing.T) {
	m := NewMetrics()

	m.ObservePoll("bench", "cpu", 10*time.Millisecond, nil)
	m.ObservePoll("bench", "cpu", 20*time.Millisecond, errors.New("boom"))
	m.AddMissed("bench", "cpu", 3)
	m.AddMissed("bench", "cpu", 0)
	m.IncSamples("bench", "cpu")
	m.MonitorStarted()
	m.MonitorStarted()
	m.MonitorStopped()
	m.ObserveBenchmark("bench", time.Second, nil)
	m.ObserveBenchmark("bench", time.Second, errors.New("failed"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PollsTotal.WithLabelValues("bench", "cpu")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollFailures.WithLabelValues("bench", "cpu")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.MissedPolls.WithLabelValues("bench", "cpu")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SamplesRetained.WithLabelValues("bench", "cpu")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MonitorsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BenchmarkResults.WithLabelValues("bench", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BenchmarkResults.WithLabelValues("bench", "failure")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePoll("b", "m", time.Millisecond, nil)
		m.AddMissed("b", "m", 2)
		m.IncSamples("b", "m")
		m.MonitorStarted()
		m.MonitorStopped()
		m.ObserveBenchmark("b", time.Second, nil)
	})
	assert.Nil(t, m.Registry())
}

func TestStartMetricsServer(t *testing.T) {
	// Grab a free port, then release it for the server.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	m := NewMetrics()
	m.IncSamples("bench", "heartbeat")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- StartMetricsServer(ctx, addr, m) }()

	// Poll until server is up or timeout
	deadline := time.Now().Add(2 * time.Second)
	var body string
	for time.Now().Before(deadline) {
		resp, reqErr := http.Get(fmt.Sprintf("http://%s/metrics", addr))
		if reqErr == nil {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				body = string(b)
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	assert.Contains(t, body, "vgbench_monitor_samples_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("metrics server did not shut down")
	}
}
