package waypoint

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestEngine() *Engine {
	return New()
}

func doRequest(e *Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRouteStringHandlerCoercion(t *testing.T) {
	e := newTestEngine()
	e.GET("/ping", func(c *Context) (interface{}, error) {
		return "pong", nil
	})

	rec := doRequest(e, http.MethodGet, "/ping")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if rec.Body.String() != "pong" {
		t.Fatalf("want body 'pong', got %q", rec.Body.String())
	}
}

func TestRouteJSONHandlerCoercion(t *testing.T) {
	e := newTestEngine()
	e.GET("/data", func(c *Context) (interface{}, error) {
		return map[string]string{"ok": "yes"}, nil
	})

	rec := doRequest(e, http.MethodGet, "/data")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("want application/json, got %q", ct)
	}
}

func TestRouteNilHandlerCoercion(t *testing.T) {
	e := newTestEngine()
	e.GET("/empty", func(c *Context) (interface{}, error) {
		return nil, nil
	})

	rec := doRequest(e, http.MethodGet, "/empty")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("want empty body, got %q", rec.Body.String())
	}
}

func TestRouteTypedParameterResolution(t *testing.T) {
	e := newTestEngine()
	e.GET("/users/{id}", func(id int, r *http.Request) (interface{}, error) {
		if r == nil {
			t.Fatalf("expected *http.Request to resolve by type")
		}
		return id * 2, nil
	})

	rec := doRequest(e, http.MethodGet, "/users/21")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if rec.Body.String() != "42" {
		t.Fatalf("want '42', got %q", rec.Body.String())
	}
}

func TestRouteWherePanicsAfterFirstMatch(t *testing.T) {
	e := newTestEngine()
	rt := e.GET("/fixed/{id}", func(c *Context) (interface{}, error) { return "ok", nil })

	doRequest(e, http.MethodGet, "/fixed/1")

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Where to panic after the route has matched once")
		}
	}()
	rt.Where("id", `\d+`, nil)
}

func TestRouteHandlerErrorRendersHTTPError(t *testing.T) {
	e := newTestEngine()
	e.GET("/boom", func(c *Context) (interface{}, error) {
		return nil, NewHTTPError(http.StatusTeapot, "short and stout")
	})

	rec := doRequest(e, http.MethodGet, "/boom")
	if rec.Code != http.StatusTeapot {
		t.Fatalf("want 418, got %d", rec.Code)
	}
}
