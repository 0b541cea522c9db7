// metrics.go - Metrics collection for the pool daemon
package main

import (
	"sync"
	"time"
)

// MetricType represents the type of metric
type MetricType string

const (
	Counter   MetricType = "counter"
	Gauge     MetricType = "gauge"
	Histogram MetricType = "histogram"
)

// Metric represents a single metric
type Metric struct {
	Name      string     `json:"name"`
	Type      MetricType `json:"type"`
	Value     float64    `json:"value"`
	Timestamp time.Time  `json:"timestamp"`
}

// MetricsCollector manages metrics collection
type MetricsCollector struct {
	mu         sync.RWMutex
	metrics    map[string]*Metric
	histograms map[string][]float64
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics:    make(map[string]*Metric),
		histograms: make(map[string][]float64),
	}
}

// IncrementCounter increments a counter metric
func (mc *MetricsCollector) IncrementCounter(name string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	m, ok := mc.metrics[name]
	if !ok {
		m = &Metric{Name: name, Type: Counter}
		mc.metrics[name] = m
	}
	m.Value++
	m.Timestamp = time.Now()
}

// SetGauge sets a gauge metric value
func (mc *MetricsCollector) SetGauge(name string, value float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics[name] = &Metric{Name: name, Type: Gauge, Value: value, Timestamp: time.Now()}
}

// ObserveDuration records an operation latency in a histogram
func (mc *MetricsCollector) ObserveDuration(name string, d time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.histograms[name] = append(mc.histograms[name], d.Seconds())
	// Keep only last 1000 values for memory efficiency
	if len(mc.histograms[name]) > 1000 {
		mc.histograms[name] = mc.histograms[name][len(mc.histograms[name])-1000:]
	}
	mc.metrics[name] = &Metric{Name: name, Type: Histogram, Value: d.Seconds(), Timestamp: time.Now()}
}

// Snapshot returns all collected metrics
func (mc *MetricsCollector) Snapshot() []*Metric {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	out := make([]*Metric, 0, len(mc.metrics))
	for _, m := range mc.metrics {
		copied := *m
		out = append(out, &copied)
	}
	return out
}
