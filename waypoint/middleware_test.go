package waypoint

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestApplyMiddlewareOutermostFirst(t *testing.T) {
	var order []string
	mark := func(name string) MiddlewareFunc {
		return func(next HandlerFunc) HandlerFunc {
			return func(c *Context) (interface{}, error) {
				order = append(order, name+":in")
				result, err := next(c)
				order = append(order, name+":out")
				return result, err
			}
		}
	}

	final := HandlerFunc(func(c *Context) (interface{}, error) {
		order = append(order, "handler")
		return nil, nil
	})

	chain := applyMiddleware(final, mark("outer"), mark("inner"))
	if _, err := chain(&Context{Writer: &responseWriter{ResponseWriter: httptest.NewRecorder()}}); err != nil {
		t.Fatalf("chain: %v", err)
	}

	want := []string{"outer:in", "inner:in", "handler", "inner:out", "outer:out"}
	if len(order) != len(want) {
		t.Fatalf("want %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("want %v, got %v", want, order)
		}
	}
}

func TestMiddlewareShortCircuit(t *testing.T) {
	handlerCalled := false
	final := HandlerFunc(func(c *Context) (interface{}, error) {
		handlerCalled = true
		return nil, nil
	})

	deny := func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (interface{}, error) {
			return nil, NewHTTPError(http.StatusForbidden, "nope")
		}
	}

	chain := applyMiddleware(final, deny)
	_, err := chain(&Context{Writer: &responseWriter{ResponseWriter: httptest.NewRecorder()}})
	if err == nil {
		t.Fatalf("expected the denying middleware to short-circuit with an error")
	}
	if handlerCalled {
		t.Fatalf("handler must not run once a middleware link short-circuits")
	}
}

func TestBuildMiddlewareChainExpandsGroupsAndAliases(t *testing.T) {
	e := newTestEngine()

	var seen []string
	e.Middlewares.Register("a", func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (interface{}, error) {
			seen = append(seen, "a")
			return next(c)
		}
	})
	e.Middlewares.Register("b", func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (interface{}, error) {
			seen = append(seen, "b")
			return next(c)
		}
	})
	e.Middlewares.RegisterGroup("group", []string{"a", "b"})
	e.Middlewares.RegisterAlias("alias", "group")

	final := HandlerFunc(func(c *Context) (interface{}, error) { return nil, nil })
	chain, err := e.buildMiddlewareChain([]string{"alias"}, final)
	if err != nil {
		t.Fatalf("buildMiddlewareChain: %v", err)
	}

	if _, err := chain(&Context{Writer: &responseWriter{ResponseWriter: httptest.NewRecorder()}}); err != nil {
		t.Fatalf("chain: %v", err)
	}
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("want alias to expand to [a b] in order, got %v", seen)
	}
}

func TestBuildMiddlewareChainUnknownIdentifier(t *testing.T) {
	e := newTestEngine()
	final := HandlerFunc(func(c *Context) (interface{}, error) { return nil, nil })

	if _, err := e.buildMiddlewareChain([]string{"does-not-exist"}, final); err == nil {
		t.Fatalf("expected an error for an unregistered middleware identifier")
	}
}

func TestJWTAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	e := newTestEngine()
	e.GET("/secure", HandlerFunc(func(c *Context) (interface{}, error) {
		return "granted", nil
	})).SetMiddleware([]string{"jwt"})

	rec := doRequest(e, http.MethodGet, "/secure")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 without an Authorization header, got %d", rec.Code)
	}
}

func TestRequestIDMiddlewareHonorsIncomingTraceID(t *testing.T) {
	e := newTestEngine()
	e.GET("/whoami", func(c *Context) (interface{}, error) {
		return c.TraceID(), nil
	})
	e.Use(RequestIDMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Trace-ID", "fixed-trace-id")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Body.String() != "fixed-trace-id" {
		t.Fatalf("want incoming X-Trace-ID to be honored, got %q", rec.Body.String())
	}
}
