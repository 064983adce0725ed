// waypoint/config.go
package waypoint

import (
	"os"
	"strconv"
	"sync"
)

// Environment variable names the Engine consults when wiring its ambient
// services together — the worker-pool size and the JWT signing secret (read
// in New()) and the debug-routes switch (read by DebugEnabled).
const (
	envTaskQueueWorkers = "WAYPOINT_TASK_QUEUE_WORKERS"
	envJWTSecret        = "WAYPOINT_JWT_SECRET"
	envDebugRoutes      = "WAYPOINT_DEBUG_ROUTES"
)

// ConfigManager handles application configuration for a running Engine:
// the task-queue worker count, the JWT signing secret, and the debug-routes
// switch all flow through it rather than being hardcoded at their call
// sites.
type ConfigManager struct {
	values map[string]string
	mu     sync.RWMutex
}

// NewConfigManager creates a new ConfigManager.
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		values: make(map[string]string),
	}
}

// Get retrieves a configuration value by key.
// It first checks environment variables, then the internal map.
func (cm *ConfigManager) Get(key string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.values[key]
}

// Set sets a configuration value. This will be overridden by environment variables.
func (cm *ConfigManager) Set(key, value string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.values[key] = value
}

// GetOrDefault returns Get(key), falling back to def when the key resolves
// to the empty string in both the environment and the internal map.
func (cm *ConfigManager) GetOrDefault(key, def string) string {
	if val := cm.Get(key); val != "" {
		return val
	}
	return def
}

// GetIntOrDefault parses Get(key) as an int, falling back to def when the
// key is unset or does not parse. Used to size the Engine's AsyncTaskQueue
// worker pool from WAYPOINT_TASK_QUEUE_WORKERS.
func (cm *ConfigManager) GetIntOrDefault(key string, def int) int {
	val := cm.Get(key)
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}
