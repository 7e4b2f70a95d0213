package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// Histogram range in microseconds: 1us to 60s.
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
	sigFigs      = 3
)

// Metrics collects latency and outcome counts, overall and per name.
type Metrics struct {
	mu sync.RWMutex

	totalRequests   atomic.Int64
	successRequests atomic.Int64
	errorRequests   atomic.Int64
	timeoutRequests atomic.Int64

	histogram *hdrhistogram.Histogram
	byName    map[string]*nameMetrics

	startTime time.Time
	endTime   time.Time
}

type nameMetrics struct {
	mu        sync.Mutex
	total     atomic.Int64
	success   atomic.Int64
	errors    atomic.Int64
	histogram *hdrhistogram.Histogram
}

func newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(minLatencyUs, maxLatencyUs, sigFigs)
}

// NewMetrics creates an empty collector. The clock starts on creation.
func NewMetrics() *Metrics {
	return &Metrics{
		histogram: newHistogram(),
		byName:    make(map[string]*nameMetrics),
		startTime: time.Now(),
	}
}

// Stop freezes the duration reported by Summary.
func (m *Metrics) Stop() {
	m.mu.Lock()
	m.endTime = time.Now()
	m.mu.Unlock()
}

func clampLatency(d time.Duration) int64 {
	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}
	return us
}

// Record adds one completed request. A non-nil err counts it as an error.
func (m *Metrics) Record(name string, duration time.Duration, err error) {
	m.totalRequests.Add(1)
	if err != nil {
		m.errorRequests.Add(1)
	} else {
		m.successRequests.Add(1)
	}

	latency := clampLatency(duration)

	m.mu.Lock()
	_ = m.histogram.RecordValue(latency)
	m.mu.Unlock()

	if name == "" {
		return
	}
	nm := m.named(name)
	nm.total.Add(1)
	if err != nil {
		nm.errors.Add(1)
	} else {
		nm.success.Add(1)
	}
	nm.mu.Lock()
	_ = nm.histogram.RecordValue(latency)
	nm.mu.Unlock()
}

// RecordTimeout adds a request that never completed. Timeouts count as
// errors and are left out of the latency histograms.
func (m *Metrics) RecordTimeout(name string) {
	m.totalRequests.Add(1)
	m.timeoutRequests.Add(1)
	m.errorRequests.Add(1)

	if name != "" {
		nm := m.named(name)
		nm.total.Add(1)
		nm.errors.Add(1)
	}
}

func (m *Metrics) named(name string) *nameMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	nm, ok := m.byName[name]
	if !ok {
		nm = &nameMetrics{histogram: newHistogram()}
		m.byName[name] = nm
	}
	return nm
}

// Summary is a point-in-time view of a Metrics collector.
type Summary struct {
	Duration      time.Duration
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64
	TimeoutCount  int64

	RPS       float64
	ErrorRate float64

	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration

	// Breakdown is sorted by name.
	Breakdown []NameSummary
}

// NameSummary holds the figures for a single name, such as one HTTP verb.
type NameSummary struct {
	Name    string
	Total   int64
	Success int64
	Errors  int64
	P50     time.Duration
	P95     time.Duration
	P99     time.Duration
	Mean    time.Duration
}

func us(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}

// Summary returns the aggregated figures recorded so far.
func (m *Metrics) Summary() *Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	total := m.totalRequests.Load()
	errors := m.errorRequests.Load()

	s := &Summary{
		Duration:      duration,
		TotalRequests: total,
		SuccessCount:  m.successRequests.Load(),
		ErrorCount:    errors,
		TimeoutCount:  m.timeoutRequests.Load(),
		P50:           us(m.histogram.ValueAtQuantile(50)),
		P95:           us(m.histogram.ValueAtQuantile(95)),
		P99:           us(m.histogram.ValueAtQuantile(99)),
		Min:           us(m.histogram.Min()),
		Max:           us(m.histogram.Max()),
		Mean:          time.Duration(m.histogram.Mean()) * time.Microsecond,
		StdDev:        time.Duration(m.histogram.StdDev()) * time.Microsecond,
	}
	if duration.Seconds() > 0 {
		s.RPS = float64(total) / duration.Seconds()
	}
	if total > 0 {
		s.ErrorRate = float64(errors) / float64(total)
	}

	names := make([]string, 0, len(m.byName))
	for name := range m.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		nm := m.byName[name]
		nm.mu.Lock()
		s.Breakdown = append(s.Breakdown, NameSummary{
			Name:    name,
			Total:   nm.total.Load(),
			Success: nm.success.Load(),
			Errors:  nm.errors.Load(),
			P50:     us(nm.histogram.ValueAtQuantile(50)),
			P95:     us(nm.histogram.ValueAtQuantile(95)),
			P99:     us(nm.histogram.ValueAtQuantile(99)),
			Mean:    time.Duration(nm.histogram.Mean()) * time.Microsecond,
		})
		nm.mu.Unlock()
	}

	return s
}
