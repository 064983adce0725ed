// waypoint/response.go
package waypoint

import (
	"net/http"
	"reflect"
)

// coerceResponse maps a handler's return value onto an HTTP response
// (SPEC_FULL.md §4.8). If the handler already wrote to c.Writer directly
// (e.g. called c.JSON itself and returned nil), coerceResponse is a no-op —
// WriteHeader having already fired is the signal that flushing happened.
func coerceResponse(c *Context, result interface{}) error {
	if c.Writer.status != 0 {
		return nil
	}

	if result == nil {
		return c.NoContent(http.StatusOK)
	}

	switch v := result.(type) {
	case error:
		return v
	case string:
		return c.String(http.StatusOK, "%s", v)
	case []byte:
		return c.String(http.StatusOK, "%s", string(v))
	}

	switch reflect.ValueOf(result).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return c.String(http.StatusOK, "%v", result)
	default:
		// bool, slice, map, struct, pointer-to-struct: encode as JSON.
		return c.JSON(http.StatusOK, result)
	}
}
