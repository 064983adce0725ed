// waypoint/resolver.go
package waypoint

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// TraceID is the UUIDv4 every request is stamped with by the RequestID
// middleware (see middleware.go). It is a distinct type, rather than a bare
// string, purely so the Parameter Resolver Registry can key a resolver on it
// without also claiming every plain string parameter.
type TraceID string

// ResolverArgs is everything a ResolverFunc needs to produce a handler
// argument: the raw captured segment value (if the parameter corresponds to
// one), the full match, the parameter's position, and the request context.
type ResolverArgs struct {
	Value   string
	Present bool
	Match   MatchResult
	Name    string
	Index   int
	Context *Context
}

// ResolverFunc produces a value for a single declared parameter type.
type ResolverFunc func(args ResolverArgs) (interface{}, error)

// resolverRegistry is a type-keyed mapping from a declared parameter type to
// a function that produces a value for that parameter (SPEC_FULL.md §4.6).
// It reuses the same reflect.Type-keyed map idiom as the ambient DI
// Container (di.go) rather than inventing a second design — see
// SPEC_FULL.md §4.9.
type resolverRegistry struct {
	mu        sync.RWMutex
	resolvers map[reflect.Type]ResolverFunc
}

func newResolverRegistry() *resolverRegistry {
	return &resolverRegistry{resolvers: make(map[reflect.Type]ResolverFunc)}
}

// Register installs a resolver for every value of type reflect.TypeOf(zero).
// Entries are meant to be installed before first match (SPEC_FULL.md §5);
// the lock only guards against late/dynamic registration.
func (r *resolverRegistry) Register(zero interface{}, fn ResolverFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[reflect.TypeOf(zero)] = fn
}

// Resolves reports whether a resolver is registered for t.
func (r *resolverRegistry) Resolves(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.resolvers[t]
	return ok
}

// Invoke dispatches to the resolver registered for t.
func (r *resolverRegistry) Invoke(t reflect.Type, args ResolverArgs) (interface{}, error) {
	r.mu.RLock()
	fn, ok := r.resolvers[t]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnresolvedParameterType
	}
	return fn(args)
}

// installDefaultResolvers wires the table from SPEC_FULL.md §4.6 onto a
// fresh registry.
func installDefaultResolvers(r *resolverRegistry) {
	r.Register((*http.Request)(nil), func(a ResolverArgs) (interface{}, error) {
		return a.Context.Request, nil
	})
	r.Register((*Context)(nil), func(a ResolverArgs) (interface{}, error) {
		return a.Context, nil
	})
	r.Register((*Claims)(nil), func(a ResolverArgs) (interface{}, error) {
		claims, _ := a.Context.Get("claims")
		c, _ := claims.(*Claims)
		return c, nil
	})
	r.Register(TraceID(""), func(a ResolverArgs) (interface{}, error) {
		return TraceID(a.Context.TraceID()), nil
	})
	r.Register("", func(a ResolverArgs) (interface{}, error) {
		return a.Value, nil
	})
	r.Register(int(0), func(a ResolverArgs) (interface{}, error) {
		if !a.Present {
			return 0, nil
		}
		n, err := strconv.Atoi(a.Value)
		if err != nil {
			return 0, nil // documented: parse failure yields zero, not an error
		}
		return n, nil
	})
	r.Register(int64(0), func(a ResolverArgs) (interface{}, error) {
		if !a.Present {
			return int64(0), nil
		}
		n, err := strconv.ParseInt(a.Value, 10, 64)
		if err != nil {
			return int64(0), nil
		}
		return n, nil
	})
	r.Register(false, func(a ResolverArgs) (interface{}, error) {
		if !a.Present {
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(a.Value)) {
		case "true", "1", "yes", "on":
			return true, nil
		default:
			return false, nil
		}
	})
	r.Register([]string(nil), func(a ResolverArgs) (interface{}, error) {
		if !a.Present || a.Value == "" {
			return []string{}, nil
		}
		sep := ","
		if strings.Contains(a.Value, ";") && !strings.Contains(a.Value, ",") {
			sep = ";"
		}
		if !strings.ContainsAny(a.Value, ",;") {
			return []string{a.Value}, nil
		}
		parts := strings.Split(a.Value, sep)
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}
		return parts, nil
	})
}
