package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSamplesGauges(t *testing.T) {
	m := New(Options{Logger: zerolog.Nop()})
	conns := 3
	m.Register("ws_connections", func() int { return conns })

	m.Check()
	metrics := m.Metrics()
	assert.Equal(t, 3, metrics.Gauges["ws_connections"])
	assert.GreaterOrEqual(t, metrics.Peak, metrics.Goroutines)
	assert.Positive(t, metrics.Baseline)

	conns = 5
	m.Check()
	assert.Equal(t, 5, m.Metrics().Gauges["ws_connections"])
}

func TestMetricsAreCopies(t *testing.T) {
	m := New(Options{Logger: zerolog.Nop()})
	m.Register("x", func() int { return 1 })
	m.Check()

	metrics := m.Metrics()
	metrics.Gauges["x"] = 99
	assert.Equal(t, 1, m.Metrics().Gauges["x"])
}

func TestRunStopsWithContext(t *testing.T) {
	m := New(Options{CheckInterval: time.Millisecond, Logger: zerolog.Nop()})
	calls := make(chan struct{}, 100)
	m.Register("tick", func() int {
		select {
		case calls <- struct{}{}:
		default:
		}
		return 0
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor never sampled")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
}
