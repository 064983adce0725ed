// waypoint/debug.go
package waypoint

import (
	"fmt"
	"net/http"
	"runtime"
	"runtime/pprof"
	"time"
)

// DebugRoutesHandler exposes every declared route's methods, template, and
// effective middleware list in declaration order.
func DebugRoutesHandler(c *Context) (interface{}, error) {
	routes := c.engine.Routes.Routes()
	info := make([]map[string]interface{}, 0, len(routes))
	for _, rt := range routes {
		info = append(info, map[string]interface{}{
			"name":       rt.RouteName(),
			"methods":    rt.Methods(),
			"uri":        rt.URI(),
			"middleware": rt.Middleware(),
		})
	}
	return info, nil
}

// DebugConfigHandler exposes active configuration values.
func DebugConfigHandler(c *Context) (interface{}, error) {
	configValues := make(map[string]string)
	c.engine.Config.mu.RLock()
	for k, v := range c.engine.Config.values {
		configValues[k] = v
	}
	c.engine.Config.mu.RUnlock()
	return configValues, nil
}

// DebugMetricsHandler exposes per-route request counts and latency.
func DebugMetricsHandler(c *Context) (interface{}, error) {
	return c.engine.MetricsMan.GetMetrics(), nil
}

// DebugMemoryHandler exposes current memory usage statistics.
func DebugMemoryHandler(c *Context) (interface{}, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"Alloc":       fmt.Sprintf("%v MB", bToMb(m.Alloc)),
		"TotalAlloc":  fmt.Sprintf("%v MB", bToMb(m.TotalAlloc)),
		"Sys":         fmt.Sprintf("%v MB", bToMb(m.Sys)),
		"NumGC":       m.NumGC,
		"LastGC":      time.Unix(0, int64(m.LastGC)).Format(time.RFC3339),
		"HeapObjects": m.HeapObjects,
		"LiveObjects": m.Mallocs - m.Frees,
		"Goroutines":  runtime.NumGoroutine(),
		"NumCPU":      runtime.NumCPU(),
		"GoVersion":   runtime.Version(),
		"GoOS":        runtime.GOOS,
		"GoArch":      runtime.GOARCH,
	}, nil
}

// DebugGoroutinesHandler exposes stack traces for all active goroutines.
func DebugGoroutinesHandler(c *Context) (interface{}, error) {
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	return string(buf[:n]), nil
}

// DebugPprofHandler serves a named pprof profile, defaulting to "heap".
func DebugPprofHandler(c *Context) (interface{}, error) {
	profileType := c.Param("profile")
	if profileType == "" {
		profileType = "heap"
	}

	p := pprof.Lookup(profileType)
	if p == nil {
		return nil, NewHTTPError(http.StatusNotFound, fmt.Sprintf("Profile '%s' not found", profileType))
	}

	c.Writer.Header().Set("Content-Type", "application/octet-stream")
	p.WriteTo(c.Writer, 1)
	return nil, nil
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
