// waypoint/metrics.go
package waypoint

import (
	"sync"
	"time"
)

// RouteMetrics holds metrics for one "METHOD routeName" key, the form
// MetricsMiddleware (middleware.go) records under — Route.RouteName(): the
// route's name when set, its raw URI template otherwise.
type RouteMetrics struct {
	RequestCount int           `json:"request_count"`
	TotalLatency time.Duration `json:"total_latency_ns"` // Total latency in nanoseconds
	AvgLatency   time.Duration `json:"avg_latency_ns"`   // Average latency in nanoseconds
	MaxLatency   time.Duration `json:"max_latency_ns"`   // Slowest single request seen for this key
}

// MetricsManager collects and provides simple application metrics, keyed by
// HTTP method + route name/template rather than by bare path, so two routes
// sharing a path but differing by method never collide.
type MetricsManager struct {
	mu      sync.RWMutex
	metrics map[string]*RouteMetrics // map["METHOD routeName"]*RouteMetrics
}

// NewMetricsManager creates and initializes a new MetricsManager.
func NewMetricsManager() *MetricsManager {
	return &MetricsManager{
		metrics: make(map[string]*RouteMetrics),
	}
}

// RecordRequest updates metrics for a given "METHOD routeName" key.
func (mm *MetricsManager) RecordRequest(routeKey string, duration time.Duration) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if _, ok := mm.metrics[routeKey]; !ok {
		mm.metrics[routeKey] = &RouteMetrics{}
	}

	rm := mm.metrics[routeKey]
	rm.RequestCount++
	rm.TotalLatency += duration
	rm.AvgLatency = rm.TotalLatency / time.Duration(rm.RequestCount)
	if duration > rm.MaxLatency {
		rm.MaxLatency = duration
	}
}

// GetMetrics returns a copy of the collected metrics.
func (mm *MetricsManager) GetMetrics() map[string]RouteMetrics {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	// Create a deep copy to prevent external modification
	copiedMetrics := make(map[string]RouteMetrics, len(mm.metrics))
	for path, metrics := range mm.metrics {
		copiedMetrics[path] = *metrics // Copy the struct value
	}
	return copiedMetrics
}
