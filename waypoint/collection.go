// waypoint/collection.go
package waypoint

import (
	"net/http"
	"strings"
)

// RouteCollection is the ordered list of declared routes. Its Dispatch
// method implements match-and-dispatch with method-not-allowed distinction
// and OPTIONS pre-flight (SPEC_FULL.md §4.5).
type RouteCollection struct {
	routes []*Route
}

func newRouteCollection() *RouteCollection {
	return &RouteCollection{}
}

// Add appends route; declaration order is preserved and is the only
// ordering that matters for matching (SPEC_FULL.md §5).
func (rc *RouteCollection) Add(route *Route) {
	rc.routes = append(rc.routes, route)
}

// Routes returns the routes in declaration order, for introspection
// (debug.go) and tests.
func (rc *RouteCollection) Routes() []*Route {
	return rc.routes
}

// Dispatch matches req against the collection and, on success, runs the
// winning route. On failure it returns ErrNoRouteForRequest or a
// *MethodNotAllowedError for the caller to render; a successful OPTIONS
// pre-flight is written directly and reported via a nil error.
func (rc *RouteCollection) Dispatch(c *Context) error {
	path := c.Request.URL.Path
	method := c.Request.Method

	var pathCandidates []*Route
	for _, route := range rc.routes {
		match := route.Match(path)
		if !match.Matched {
			continue
		}
		if route.Supports(method) {
			return route.Run(match, c)
		}
		pathCandidates = append(pathCandidates, route)
	}

	if len(pathCandidates) == 0 {
		return ErrNoRouteForRequest
	}

	methods := unionMethods(pathCandidates)
	if method == http.MethodOptions {
		return writeOptionsResponse(c, methods)
	}
	return &MethodNotAllowedError{Supported: methods}
}

// unionMethods flattens and de-duplicates the methods of candidates,
// preserving first-seen order.
func unionMethods(candidates []*Route) []string {
	seen := make(map[string]bool)
	var out []string
	for _, route := range candidates {
		for _, m := range route.Methods() {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

// writeOptionsResponse renders the 200 OPTIONS contract from
// SPEC_FULL.md §4.5/§6.
func writeOptionsResponse(c *Context, methods []string) error {
	list := strings.Join(methods, ", ")
	c.Writer.Header().Set("Allow", list)
	c.Writer.Header().Set("Access-Control-Allow-Methods", list)
	if wantsJSON(c.Request) {
		return c.JSON(http.StatusOK, methods)
	}
	return c.String(http.StatusOK, list)
}
