package monitoring

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Gauge reports the current value of something worth watching, such as
// open WebSocket connections
type Gauge func() int

// Monitor samples the goroutine count and registered gauges on an
// interval and warns when goroutines pass a threshold
type Monitor struct {
	mu             sync.RWMutex
	baseline       int
	current        int
	peak           int
	checkInterval  time.Duration
	alertThreshold int
	lastAlert      time.Time
	alertCooldown  time.Duration
	gauges         map[string]Gauge
	values         map[string]int
	logger         zerolog.Logger
}

// Options configures a Monitor. Zero values take defaults.
type Options struct {
	CheckInterval  time.Duration
	AlertThreshold int
	AlertCooldown  time.Duration
	Logger         zerolog.Logger
}

// New creates a monitor with the current goroutine count as baseline
func New(opts Options) *Monitor {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 30 * time.Second
	}
	if opts.AlertThreshold <= 0 {
		opts.AlertThreshold = 1000
	}
	if opts.AlertCooldown <= 0 {
		opts.AlertCooldown = 5 * time.Minute
	}
	baseline := runtime.NumGoroutine()
	return &Monitor{
		baseline:       baseline,
		current:        baseline,
		peak:           baseline,
		checkInterval:  opts.CheckInterval,
		alertThreshold: opts.AlertThreshold,
		alertCooldown:  opts.AlertCooldown,
		gauges:         make(map[string]Gauge),
		values:         make(map[string]int),
		logger:         opts.Logger.With().Str("component", "monitor").Logger(),
	}
}

// Register adds a named gauge sampled on every check
func (m *Monitor) Register(name string, g Gauge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = g
}

// Run samples until ctx is cancelled
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info().
		Int("baseline", m.baseline).
		Dur("interval", m.checkInterval).
		Msg("Started runtime monitoring")

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check()
		case <-ctx.Done():
			return nil
		}
	}
}

// Check takes one sample
func (m *Monitor) Check() {
	current := runtime.NumGoroutine()

	m.mu.Lock()
	m.current = current
	if current > m.peak {
		m.peak = current
	}
	for name, g := range m.gauges {
		m.values[name] = g()
	}
	growth := current - m.baseline
	growthRate := float64(growth) / float64(m.baseline) * 100

	shouldAlert := current > m.alertThreshold &&
		time.Since(m.lastAlert) > m.alertCooldown
	if shouldAlert {
		m.lastAlert = time.Now()
	}
	values := copyMap(m.values)
	peak := m.peak
	m.mu.Unlock()

	event := m.logger.Debug().
		Int("goroutines", current).
		Int("baseline", m.baseline).
		Int("peak", peak).
		Float64("growth_rate", growthRate)
	for name, v := range values {
		event = event.Int(name, v)
	}
	event.Msg("Runtime metrics")

	if shouldAlert {
		m.logger.Warn().
			Int("goroutines", current).
			Int("threshold", m.alertThreshold).
			Float64("growth_rate", growthRate).
			Msg("High goroutine count detected - possible leak")
	}
}

// Metrics returns the last sample
func (m *Monitor) Metrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Metrics{
		Goroutines: m.current,
		Baseline:   m.baseline,
		Peak:       m.peak,
		Growth:     m.current - m.baseline,
		Gauges:     copyMap(m.values),
	}
}

// Metrics is one sample of runtime state
type Metrics struct {
	Goroutines int            `json:"goroutines"`
	Baseline   int            `json:"baseline"`
	Peak       int            `json:"peak"`
	Growth     int            `json:"growth"`
	Gauges     map[string]int `json:"gauges"`
}

func copyMap(m map[string]int) map[string]int {
	result := make(map[string]int, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
