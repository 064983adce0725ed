package waypoint

import (
	"reflect"
	"testing"
)

func TestGroupStackPrefixFolding(t *testing.T) {
	var s groupStack
	s.push(GroupScope{Prefix: "/api"})
	s.push(GroupScope{Prefix: "/v1"})

	got := s.prefix("/users/{id}")
	want := "/api/v1/users/{id}"
	if got != want {
		t.Fatalf("prefix: want %q, got %q", want, got)
	}
}

func TestGroupStackNamespaceFolding(t *testing.T) {
	var s groupStack
	s.push(GroupScope{Namespace: `App`})
	s.push(GroupScope{Namespace: `Admin`})

	got := s.namespace("UsersController")
	want := `App\Admin\UsersController`
	if got != want {
		t.Fatalf("namespace: want %q, got %q", want, got)
	}
}

func TestGroupStackMiddlewareOutermostFirst(t *testing.T) {
	var s groupStack
	s.push(GroupScope{Middleware: []string{"outer"}})
	s.push(GroupScope{Middleware: []string{"inner"}})

	got := s.middleware([]string{"route"})
	want := []string{"outer", "inner", "route"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("middleware: want %v, got %v", want, got)
	}
}

func TestGroupStackConstraintsInnerWins(t *testing.T) {
	var s groupStack
	s.push(GroupScope{Where: map[string]Constraint{"id": {Pattern: `\w+`}}})
	s.push(GroupScope{Where: map[string]Constraint{"id": {Pattern: `\d+`}}})

	merged := s.constraints(map[string]Constraint{})
	if merged["id"].Pattern != `\d+` {
		t.Fatalf("expected innermost scope's constraint to win, got %q", merged["id"].Pattern)
	}
}

func TestGroupStackPopPanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected pop on empty stack to panic")
		}
	}()
	var s groupStack
	s.pop()
}

func TestJoinPathPartsCollapsesSlashes(t *testing.T) {
	got := joinPathParts([]string{"/api/", "/v1/", "/users"})
	if got != "/api/v1/users" {
		t.Fatalf("joinPathParts: got %q", got)
	}
}
