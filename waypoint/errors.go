// waypoint/errors.go
package waypoint

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is a custom error type for HTTP-related errors.
type HTTPError struct {
	StatusCode int
	Message    string
	Err        error // Original error, if any
}

// NewHTTPError creates a new HTTPError instance.
func NewHTTPError(statusCode int, message string, errs ...error) *HTTPError {
	var originalErr error
	if len(errs) > 0 {
		originalErr = errs[0]
	}
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Err:        originalErr,
	}
}

// Error implements the error interface for HTTPError.
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP Error %d: %s (original error: %v)", e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("HTTP Error %d: %s", e.StatusCode, e.Message)
}

// Unwrap exposes the wrapped cause so callers may use errors.Is/errors.As.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Declaration and dispatch-time error taxonomy (SPEC_FULL.md §7). These are
// sentinel values rather than typed errors because nothing but their
// identity is ever inspected by callers.
var (
	// ErrInvalidTemplate marks a malformed URI template or a duplicate
	// segment name. It is fatal for the Route being declared.
	ErrInvalidTemplate = errors.New("waypoint: invalid route template")

	// ErrNoRouteForRequest means no declared route's path matched the
	// request path at all.
	ErrNoRouteForRequest = errors.New("waypoint: no route for request")

	// ErrUnknownController means a string/pair handler named a controller
	// identifier that was never registered with Engine.Controller.
	ErrUnknownController = errors.New("waypoint: unknown controller")

	// ErrUnknownMethod means the resolved controller has no method by the
	// requested name.
	ErrUnknownMethod = errors.New("waypoint: unknown controller method")

	// ErrUnresolvedParameterType means a handler parameter's declared type
	// has no registered resolver and cannot be satisfied positionally.
	ErrUnresolvedParameterType = errors.New("waypoint: unresolved parameter type")
)

// MethodNotAllowedError carries the set of methods a matched path does
// support, for rendering a 405 response with an accurate Allow header.
type MethodNotAllowedError struct {
	Supported []string
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("waypoint: method not allowed, supported: %s", strings.Join(e.Supported, ", "))
}

// wantsJSON implements the content-negotiation rule from SPEC_FULL.md §6:
// AJAX-flavored requests get a JSON body, everything else gets plain text.
func wantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// defaultErrorHandler is the default function for handling errors returned
// by the dispatch pipeline. It distinguishes the router's own taxonomy from
// arbitrary handler errors and renders each per SPEC_FULL.md §6.
func defaultErrorHandler(err error, c *Context) {
	switch {
	case errors.Is(err, ErrNoRouteForRequest):
		writeNotFound(c)
		return
	case errorsAsMethodNotAllowed(err) != nil:
		writeMethodNotAllowed(c, errorsAsMethodNotAllowed(err).Supported)
		return
	}

	statusCode := http.StatusInternalServerError
	message := "Internal Server Error"

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		statusCode = httpErr.StatusCode
		message = httpErr.Message
		if httpErr.Err != nil {
			c.engine.Logger.Error("Handler error (HTTPError): %v", httpErr.Err)
		}
	} else {
		c.engine.Logger.Error("Unhandled error in handler: %v", err)
	}

	if wantsJSON(c.Request) {
		if jerr := c.JSON(statusCode, map[string]interface{}{"ok": false, "message": message, "status": statusCode}); jerr != nil {
			c.engine.Logger.Error("Failed to send JSON error response: %v", jerr)
			c.String(statusCode, message)
		}
		return
	}
	c.String(statusCode, message)
}

func errorsAsMethodNotAllowed(err error) *MethodNotAllowedError {
	var mnae *MethodNotAllowedError
	if errors.As(err, &mnae) {
		return mnae
	}
	return nil
}

// writeNotFound renders the 404 contract from SPEC_FULL.md §6.
func writeNotFound(c *Context) {
	if wantsJSON(c.Request) {
		c.JSON(http.StatusNotFound, map[string]interface{}{
			"ok":      false,
			"message": "Unknown resource.",
			"status":  http.StatusNotFound,
		})
		return
	}
	c.String(http.StatusNotFound, "Not found.")
}

// writeMethodNotAllowed renders the 405 contract from SPEC_FULL.md §6.
func writeMethodNotAllowed(c *Context, supported []string) {
	list := strings.Join(supported, ", ")
	c.Writer.Header().Set("Allow", list)
	if wantsJSON(c.Request) {
		c.JSON(http.StatusMethodNotAllowed, map[string]interface{}{
			"ok":      false,
			"message": "Method not allowed.",
			"status":  http.StatusMethodNotAllowed,
			"allowed": supported,
		})
		return
	}
	c.String(http.StatusMethodNotAllowed, list)
}
