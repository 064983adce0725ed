// waypoint/route.go
package waypoint

import (
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"
)

// HandlerFunc is the canonical inline handler signature. Its return value is
// coerced into a response by coerceResponse (SPEC_FULL.md §4.8) rather than
// writing the body itself, which is what lets string/pair "Controller@method"
// handlers and inline callables share one Response Coercion path.
type HandlerFunc func(c *Context) (interface{}, error)

var errorInterfaceType = reflect.TypeOf((*error)(nil)).Elem()

// Route is a single declared endpoint: HTTP methods, URI template,
// constraints, middleware list, namespace, and a handler descriptor.
type Route struct {
	methods     []string
	methodSet   map[string]bool
	uri         string
	matcher     *CompiledMatcher
	constraints map[string]Constraint
	namespace   string
	middleware  []string
	handler     interface{}
	routeName   string

	engine       *Engine
	firstMatched atomic.Bool
}

func newRoute(engine *Engine, methods []string, uri string, handler interface{}, namespace string, constraints map[string]Constraint, middleware []string) (*Route, error) {
	ordered := make([]string, 0, len(methods)+1)
	set := make(map[string]bool, len(methods)+1)
	for _, m := range methods {
		m = strings.ToUpper(m)
		if !set[m] {
			set[m] = true
			ordered = append(ordered, m)
		}
	}
	if set["GET"] && !set["HEAD"] {
		set["HEAD"] = true
		ordered = append(ordered, "HEAD")
	}
	if len(ordered) == 0 {
		return nil, fmt.Errorf("%w: route has no methods", ErrInvalidTemplate)
	}

	if constraints == nil {
		constraints = map[string]Constraint{}
	}
	matcher, err := CompileTemplate(uri, constraints)
	if err != nil {
		return nil, err
	}

	return &Route{
		methods:     ordered,
		methodSet:   set,
		uri:         uri,
		matcher:     matcher,
		constraints: constraints,
		namespace:   namespace,
		middleware:  middleware,
		handler:     handler,
		engine:      engine,
	}, nil
}

// Methods returns the route's declared HTTP methods (GET implies HEAD), in
// declaration order.
func (rt *Route) Methods() []string { return rt.methods }

// URI returns the original route template.
func (rt *Route) URI() string { return rt.uri }

// Middleware returns the route's effective middleware identifier list.
func (rt *Route) Middleware() []string { return rt.middleware }

// Supports reports whether method is among the route's declared methods.
func (rt *Route) Supports(method string) bool {
	return rt.methodSet[strings.ToUpper(method)]
}

// Match applies the route's compiled matcher to path.
func (rt *Route) Match(path string) MatchResult {
	rt.firstMatched.Store(true)
	return rt.matcher.Match(path)
}

func (rt *Route) guardMutable() {
	if rt.firstMatched.Load() {
		panic("waypoint: route mutated after first match")
	}
}

// Where attaches or overrides a constraint on name, fluently, and
// recompiles the matcher immediately. Only valid between declaration and a
// route's first match.
func (rt *Route) Where(name, pattern string, required *bool) *Route {
	rt.guardMutable()
	rt.constraints[name] = Constraint{Pattern: pattern, Required: required}
	matcher, err := CompileTemplate(rt.uri, rt.constraints)
	if err != nil {
		panic(err)
	}
	rt.matcher = matcher
	return rt
}

// SetNamespace sets the controller-id namespace prefix, fluently.
func (rt *Route) SetNamespace(ns string) *Route {
	rt.guardMutable()
	rt.namespace = ns
	return rt
}

// SetMiddleware replaces the route's effective middleware list, fluently.
func (rt *Route) SetMiddleware(mw []string) *Route {
	rt.guardMutable()
	rt.middleware = mw
	return rt
}

// SetConstraints replaces the route's constraint map wholesale and
// recompiles the matcher.
func (rt *Route) SetConstraints(constraints map[string]Constraint) *Route {
	rt.guardMutable()
	rt.constraints = constraints
	matcher, err := CompileTemplate(rt.uri, rt.constraints)
	if err != nil {
		panic(err)
	}
	rt.matcher = matcher
	return rt
}

// Name attaches a logical name to the route, fluently.
func (rt *Route) Name(id string) *Route {
	rt.guardMutable()
	rt.routeName = id
	return rt
}

// RouteName returns the route's logical name, or the raw template if unset.
func (rt *Route) RouteName() string {
	if rt.routeName != "" {
		return rt.routeName
	}
	return rt.uri
}

// Run resolves the handler, threads it through the route's middleware chain,
// and writes the coerced response onto c. See SPEC_FULL.md §4.3.
func (rt *Route) Run(match MatchResult, c *Context) error {
	c.Set("routeName", rt.RouteName())
	c.SetMatch(match)

	final, err := rt.buildFinalHandler(match, c)
	if err != nil {
		return err
	}

	chain, err := rt.engine.buildMiddlewareChain(rt.middleware, final)
	if err != nil {
		return err
	}

	result, err := chain(c)
	if err != nil {
		return err
	}
	return coerceResponse(c, result)
}

// buildFinalHandler resolves the three handler variants from
// SPEC_FULL.md §3 into one HandlerFunc with its arguments already bound.
func (rt *Route) buildFinalHandler(match MatchResult, c *Context) (HandlerFunc, error) {
	switch h := rt.handler.(type) {
	case HandlerFunc:
		return h, nil
	case func(c *Context) (interface{}, error):
		return HandlerFunc(h), nil
	case string:
		controllerID, method := splitControllerHandler(h)
		controllerID = joinNamespace(rt.namespace, controllerID)
		return rt.controllerHandler(controllerID, method, match, c)
	case [2]string:
		return rt.controllerHandler(h[0], h[1], match, c)
	default:
		return rt.reflectHandler(h, match, c)
	}
}

// splitControllerHandler splits "Controller@method" on the first '@',
// defaulting to the invokable-entry convention ("Handle") when absent.
func splitControllerHandler(raw string) (controller, method string) {
	if idx := strings.IndexByte(raw, '@'); idx >= 0 {
		return raw[:idx], raw[idx+1:]
	}
	return raw, "Handle"
}

func joinNamespace(namespace, controllerID string) string {
	if namespace == "" {
		return controllerID
	}
	return namespace + `\` + controllerID
}

func (rt *Route) controllerHandler(controllerID, methodName string, match MatchResult, c *Context) (HandlerFunc, error) {
	instance, err := rt.engine.resolveController(controllerID)
	if err != nil {
		return nil, err
	}
	methodVal := reflect.ValueOf(instance).MethodByName(methodName)
	if !methodVal.IsValid() {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnknownMethod, methodName, controllerID)
	}
	return rt.reflectHandler(methodVal.Interface(), match, c)
}

// isPositionalType reports whether a resolver for t should consume the next
// captured segment value, versus being satisfied purely from request/context
// state (SPEC_FULL.md §4.3: Go parameters are always typed, so the
// "untyped fallback" branch of the original algorithm becomes "consume the
// next positional segment for plain value types"). TraceID is resolved from
// the context only, so it never consumes a segment.
func isPositionalType(t reflect.Type) bool {
	if t == reflect.TypeOf(TraceID("")) {
		return false
	}
	switch t.Kind() {
	case reflect.String, reflect.Int, reflect.Int64, reflect.Bool:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.String
	default:
		return false
	}
}

// reflectHandler binds fn's formal parameters against the resolver registry
// and the match's positional segment values, returning a HandlerFunc that
// invokes fn with those arguments already resolved.
func (rt *Route) reflectHandler(fn interface{}, match MatchResult, c *Context) (HandlerFunc, error) {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: handler value is not callable", ErrUnresolvedParameterType)
	}

	positional := match.Values()
	posCursor := 0
	args := make([]reflect.Value, ft.NumIn())

	for i := 0; i < ft.NumIn(); i++ {
		paramType := ft.In(i)
		if !rt.engine.Resolvers.Resolves(paramType) {
			return nil, fmt.Errorf("%w: parameter %d (%s)", ErrUnresolvedParameterType, i, paramType)
		}

		var value string
		present := false
		if isPositionalType(paramType) {
			if posCursor < len(positional) && positional[posCursor] != nil {
				value = *positional[posCursor]
				present = true
			}
			posCursor++
		}

		resolved, err := rt.engine.Resolvers.Invoke(paramType, ResolverArgs{
			Value:   value,
			Present: present,
			Match:   match,
			Index:   i,
			Context: c,
		})
		if err != nil {
			return nil, err
		}
		args[i] = valueForType(resolved, paramType)
	}

	return func(_ *Context) (interface{}, error) {
		out := fv.Call(args)
		return splitHandlerReturn(out)
	}, nil
}

func valueForType(resolved interface{}, t reflect.Type) reflect.Value {
	if resolved == nil {
		return reflect.Zero(t)
	}
	v := reflect.ValueOf(resolved)
	if v.Type() == t {
		return v
	}
	if v.Type().ConvertibleTo(t) {
		return v.Convert(t)
	}
	return reflect.Zero(t)
}

// splitHandlerReturn normalizes a reflected call's return values into the
// (value, error) shape HandlerFunc expects.
func splitHandlerReturn(out []reflect.Value) (interface{}, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type().Implements(errorInterfaceType) {
			if out[0].IsNil() {
				return nil, nil
			}
			return nil, out[0].Interface().(error)
		}
		return out[0].Interface(), nil
	default:
		var retErr error
		last := out[len(out)-1]
		if last.Type().Implements(errorInterfaceType) {
			if !last.IsNil() {
				retErr = last.Interface().(error)
			}
			if len(out) == 2 {
				return out[0].Interface(), retErr
			}
		}
		return nil, fmt.Errorf("waypoint: handler must return at most (value, error)")
	}
}
