package waypoint

import (
	"net/http"
	"testing"
)

func TestDispatchNotFound(t *testing.T) {
	e := newTestEngine()
	e.GET("/known", func(c *Context) (interface{}, error) { return "ok", nil })

	rec := doRequest(e, http.MethodGet, "/unknown")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestDispatchMethodNotAllowed(t *testing.T) {
	e := newTestEngine()
	e.GET("/widgets", func(c *Context) (interface{}, error) { return "ok", nil })
	e.POST("/widgets", func(c *Context) (interface{}, error) { return "created", nil })

	rec := doRequest(e, http.MethodDelete, "/widgets")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("want 405, got %d", rec.Code)
	}

	allow := rec.Header().Get("Allow")
	if allow == "" {
		t.Fatalf("expected Allow header to be set")
	}
}

func TestDispatchOptionsPreflight(t *testing.T) {
	e := newTestEngine()
	e.GET("/widgets", func(c *Context) (interface{}, error) { return "ok", nil })
	e.POST("/widgets", func(c *Context) (interface{}, error) { return "created", nil })

	rec := doRequest(e, http.MethodOptions, "/widgets")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if rec.Header().Get("Allow") == "" {
		t.Fatalf("expected Allow header on OPTIONS pre-flight")
	}
}

func TestGetImpliesHead(t *testing.T) {
	e := newTestEngine()
	rt := e.GET("/implicit", func(c *Context) (interface{}, error) { return "ok", nil })

	if !rt.Supports(http.MethodHead) {
		t.Fatalf("expected GET route to implicitly support HEAD")
	}

	rec := doRequest(e, http.MethodHead, "/implicit")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 for HEAD on a GET route, got %d", rec.Code)
	}
}

func TestDeclarationOrderWins(t *testing.T) {
	e := newTestEngine()
	e.GET("/a/{id}", func(c *Context) (interface{}, error) { return "generic", nil })
	e.GET("/a/fixed", func(c *Context) (interface{}, error) { return "fixed", nil })

	rec := doRequest(e, http.MethodGet, "/a/fixed")
	if rec.Body.String() != "generic" {
		t.Fatalf("want the first-declared matching route ('generic') to win, got %q", rec.Body.String())
	}
}
