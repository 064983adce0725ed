package waypoint

import (
	"reflect"
	"testing"
)

func TestResolverRegistryResolvesDefaults(t *testing.T) {
	r := newResolverRegistry()
	installDefaultResolvers(r)

	cases := []interface{}{"", 0, int64(0), false, []string(nil), TraceID("")}
	for _, zero := range cases {
		typ := reflect.TypeOf(zero)
		if !r.Resolves(typ) {
			t.Errorf("expected a resolver registered for %s", typ)
		}
	}
}

func TestResolverRegistryUnresolvedType(t *testing.T) {
	r := newResolverRegistry()
	installDefaultResolvers(r)

	type Unregistered struct{}
	if r.Resolves(reflect.TypeOf(Unregistered{})) {
		t.Fatalf("did not expect a resolver for a type nothing registered")
	}

	_, err := r.Invoke(reflect.TypeOf(Unregistered{}), ResolverArgs{})
	if err != ErrUnresolvedParameterType {
		t.Fatalf("want ErrUnresolvedParameterType, got %v", err)
	}
}

func TestResolverRegistryIntParsing(t *testing.T) {
	r := newResolverRegistry()
	installDefaultResolvers(r)

	v, err := r.Invoke(reflect.TypeOf(0), ResolverArgs{Value: "41", Present: true})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if v.(int) != 41 {
		t.Fatalf("want 41, got %v", v)
	}

	v, err = r.Invoke(reflect.TypeOf(0), ResolverArgs{Present: false})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if v.(int) != 0 {
		t.Fatalf("want 0 for an absent optional int segment, got %v", v)
	}
}

func TestResolverRegistryBoolParsing(t *testing.T) {
	r := newResolverRegistry()
	installDefaultResolvers(r)

	for _, tc := range []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"yes", true},
		{"false", false},
		{"nonsense", false},
	} {
		v, err := r.Invoke(reflect.TypeOf(false), ResolverArgs{Value: tc.value, Present: true})
		if err != nil {
			t.Fatalf("Invoke(%q): %v", tc.value, err)
		}
		if v.(bool) != tc.want {
			t.Errorf("Invoke(%q): want %v, got %v", tc.value, tc.want, v)
		}
	}
}

func TestResolverRegistryDuplicateRegisterOverwrites(t *testing.T) {
	r := newResolverRegistry()
	calls := 0
	r.Register("", func(a ResolverArgs) (interface{}, error) {
		calls++
		return "first", nil
	})
	r.Register("", func(a ResolverArgs) (interface{}, error) {
		calls++
		return "second", nil
	})

	v, err := r.Invoke(reflect.TypeOf(""), ResolverArgs{})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if v.(string) != "second" {
		t.Fatalf("want the later registration to win, got %v", v)
	}
	if calls != 1 {
		t.Fatalf("want exactly one resolver invoked, got %d", calls)
	}
}
