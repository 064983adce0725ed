// waypoint/waypoint.go
package waypoint

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Engine is the router core: declared routes, the active group stack during
// declaration, the resolver/middleware/controller registries, and the
// ambient services (config, logging, metrics, background work) every
// request passes through.
type Engine struct {
	Routes      *RouteCollection
	Resolvers   *resolverRegistry
	Middlewares *MiddlewareRegistry
	DI          *Container
	Config      *ConfigManager
	Logger      *Logger
	SessionMan  *SessionManager
	MetricsMan  *MetricsManager
	TaskQueue   *AsyncTaskQueue
	SSE         *SSEManager

	groups      groupStack
	controllers map[string]interface{}
	controlMu   sync.RWMutex

	middleware   []MiddlewareFunc
	errorHandler func(err error, c *Context)
	httpServer   *http.Server
}

// New creates and initializes a new Engine with the default resolver table
// installed and the ambient services wired up (SPEC_FULL.md §2, §4.9).
func New() *Engine {
	resolvers := newResolverRegistry()
	installDefaultResolvers(resolvers)

	logger := NewLogger()
	cfg := NewConfigManager()

	workers := cfg.GetIntOrDefault(envTaskQueueWorkers, defaultTaskQueueWorkers)
	setJWTSecret(cfg.GetOrDefault(envJWTSecret, defaultJWTSecret))

	e := &Engine{
		Routes:       newRouteCollection(),
		Resolvers:    resolvers,
		Middlewares:  NewMiddlewareRegistry(),
		DI:           NewContainer(),
		Config:       cfg,
		Logger:       logger,
		SessionMan:   NewSessionManager(),
		MetricsMan:   NewMetricsManager(),
		TaskQueue:    NewAsyncTaskQueue(workers, logger),
		SSE:          NewSSEManager(logger),
		controllers:  make(map[string]interface{}),
		errorHandler: defaultErrorHandler,
	}
	e.httpServer = &http.Server{Handler: e}
	e.registerBuiltinMiddleware()
	return e
}

// registerBuiltinMiddleware installs the identifiers every waypoint app can
// reach for by name without wiring a closure itself, plus the "api" group
// that bundles the common request-scoped ones (SPEC_FULL.md §4.7, §4.10).
func (e *Engine) registerBuiltinMiddleware() {
	e.Middlewares.Register("recovery", RecoveryMiddleware())
	e.Middlewares.Register("logger", LoggerMiddleware())
	e.Middlewares.Register("requestid", RequestIDMiddleware())
	e.Middlewares.Register("jwt", JWTAuthMiddleware())
	e.Middlewares.Register("metrics", MetricsMiddleware(e.MetricsMan))
	e.Middlewares.Register("audit", AsyncAuditMiddleware(e.TaskQueue))
	e.Middlewares.RegisterGroup("api", []string{"requestid", "recovery", "logger", "metrics"})
	e.Middlewares.RegisterAlias("auth", "jwt")
}

// DebugEnabled reports whether WAYPOINT_DEBUG_ROUTES is set to a truthy
// value, the switch main.go consults before registering the /debug/* routes
// (debug.go) — debug introspection is opt-in, not wired unconditionally.
func (e *Engine) DebugEnabled() bool {
	switch strings.ToLower(e.Config.GetOrDefault(envDebugRoutes, "false")) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Use registers engine-wide middleware, applied to every request outermost
// wrapper first, ahead of any route-declared middleware.
func (e *Engine) Use(mw MiddlewareFunc) {
	e.middleware = append(e.middleware, mw)
}

// SetErrorHandler overrides the engine's error-to-response rendering logic.
func (e *Engine) SetErrorHandler(handler func(err error, c *Context)) {
	e.errorHandler = handler
}

// Controller registers prototype (typically a pointer to a zero-value
// controller struct) under id, resolvable by string/pair route handlers as
// "id@Method" (SPEC_FULL.md §3, §9).
func (e *Engine) Controller(id string, prototype interface{}) {
	e.controlMu.Lock()
	defer e.controlMu.Unlock()
	e.controllers[id] = prototype
}

// resolveController produces a controller instance for id: a binding
// already held by the ambient DI Container if one exists for the
// prototype's type, otherwise a fresh zero-value instance per request
// (SPEC_FULL.md §9's resolution of the "one instance or new each time?"
// Open Question).
func (e *Engine) resolveController(id string) (interface{}, error) {
	e.controlMu.RLock()
	proto, ok := e.controllers[id]
	e.controlMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownController, id)
	}

	protoType := reflect.TypeOf(proto)
	if protoType.Kind() == reflect.Ptr {
		protoType = protoType.Elem()
	}
	fresh := reflect.New(protoType)

	if e.DI.Bound(fresh.Interface()) {
		return e.DI.MustResolve(fresh.Interface()), nil
	}
	return fresh.Interface(), nil
}

// Group opens scope, runs body with it active, and pops it on return —
// every route body declares inside scope's prefix/namespace/constraints/
// middleware (SPEC_FULL.md §3).
func (e *Engine) Group(scope GroupScope, body func(e *Engine)) {
	e.groups.push(scope)
	defer e.groups.pop()
	body(e)
}

// Map declares a route matching any of methods against uri. handler may be
// a HandlerFunc, a "Controller@method" string, a [2]string{controller,
// method} pair, or any callable whose parameters the resolver registry can
// satisfy (SPEC_FULL.md §3).
func (e *Engine) Map(methods []string, uri string, handler interface{}) *Route {
	fullURI := e.groups.prefix(uri)
	constraints := e.groups.constraints(map[string]Constraint{})
	middleware := e.groups.middleware(nil)
	namespace := e.groups.namespace("")

	rt, err := newRoute(e, methods, fullURI, handler, namespace, constraints, middleware)
	if err != nil {
		panic(err)
	}
	e.Routes.Add(rt)
	return rt
}

// GET registers a GET (and implicitly HEAD) route.
func (e *Engine) GET(uri string, handler interface{}) *Route {
	return e.Map([]string{http.MethodGet}, uri, handler)
}

// POST registers a POST route.
func (e *Engine) POST(uri string, handler interface{}) *Route {
	return e.Map([]string{http.MethodPost}, uri, handler)
}

// PUT registers a PUT route.
func (e *Engine) PUT(uri string, handler interface{}) *Route {
	return e.Map([]string{http.MethodPut}, uri, handler)
}

// PATCH registers a PATCH route.
func (e *Engine) PATCH(uri string, handler interface{}) *Route {
	return e.Map([]string{http.MethodPatch}, uri, handler)
}

// DELETE registers a DELETE route.
func (e *Engine) DELETE(uri string, handler interface{}) *Route {
	return e.Map([]string{http.MethodDelete}, uri, handler)
}

// OPTIONS registers an explicit OPTIONS route, overriding the engine's
// automatic pre-flight response for that path.
func (e *Engine) OPTIONS(uri string, handler interface{}) *Route {
	return e.Map([]string{http.MethodOptions}, uri, handler)
}

// HEAD registers an explicit HEAD route.
func (e *Engine) HEAD(uri string, handler interface{}) *Route {
	return e.Map([]string{http.MethodHead}, uri, handler)
}

var staticPathOptional = false

// Static serves files from localDir under urlPrefix.
func (e *Engine) Static(urlPrefix, localDir string) {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	localDir = filepath.Clean(localDir)
	fileServer := http.FileServer(http.Dir(localDir))

	rt := e.GET(urlPrefix+"{path}", HandlerFunc(func(c *Context) (interface{}, error) {
		c.Request.URL.Path = "/" + c.Param("path")
		fileServer.ServeHTTP(c.Writer, c.Request)
		return nil, nil
	}))
	rt.Where("path", ".*", &staticPathOptional)
	e.Logger.Info("Serving static files from '%s' under URL prefix '%s'", localDir, urlPrefix)
}

// StaticFS serves files from an embedded/virtual filesystem under urlPrefix.
func (e *Engine) StaticFS(urlPrefix string, fsys fs.FS) {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	fileServer := http.FileServer(http.FS(fsys))

	rt := e.GET(urlPrefix+"{path}", HandlerFunc(func(c *Context) (interface{}, error) {
		c.Request.URL.Path = "/" + c.Param("path")
		fileServer.ServeHTTP(c.Writer, c.Request)
		return nil, nil
	}))
	rt.Where("path", ".*", &staticPathOptional)
	e.Logger.Info("Serving embedded static files under URL prefix '%s'", urlPrefix)
}

// ServeHTTP implements http.Handler: it wraps Dispatch with the engine's
// global middleware and renders whatever error comes back.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := newContext(e, w, r)

	dispatch := func(c *Context) (interface{}, error) {
		return nil, e.Routes.Dispatch(c)
	}
	chained := applyMiddleware(dispatch, e.middleware...)

	if _, err := chained(c); err != nil {
		e.errorHandler(err, c)
	}
}

// Run starts the HTTP server on addr and blocks until it is shut down via
// SIGINT/SIGTERM, draining the background task queue before returning.
func (e *Engine) Run(addr string) error {
	e.httpServer.Addr = addr
	e.Logger.Info("waypoint server listening on %s", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		e.Logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := e.httpServer.Shutdown(ctx); err != nil {
			e.Logger.Error("Server shutdown failed: %v", err)
		}

		e.Logger.Info("Shutting down task queue...")
		e.TaskQueue.Shutdown()
		e.Logger.Info("Task queue shut down.")

		e.Logger.Info("Server exited gracefully.")
	}()

	if err := e.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}
