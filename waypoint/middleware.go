// waypoint/middleware.go
package waypoint

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MiddlewareFunc defines the signature for waypoint middleware. It takes the
// next HandlerFunc in the chain and returns a new HandlerFunc — a link may
// decline to call next, short-circuiting the chain (SPEC_FULL.md §4.7).
type MiddlewareFunc func(next HandlerFunc) HandlerFunc

// applyMiddleware chains middleware around a final handler. Applied in
// reverse so that middleware[0] becomes the outermost link — the first
// middleware listed wraps every other link (SPEC_FULL.md §3's "outermost
// wrapper" rule).
func applyMiddleware(handler HandlerFunc, middleware ...MiddlewareFunc) HandlerFunc {
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}

// buildMiddlewareChain resolves a Route's effective middleware identifier
// list (expanding groups and aliases registered on the engine's
// middlewareRegistry) and wraps final with the resulting links.
func (e *Engine) buildMiddlewareChain(identifiers []string, final HandlerFunc) (HandlerFunc, error) {
	resolved, err := e.resolveMiddlewareIdentifiers(identifiers, 0)
	if err != nil {
		return nil, err
	}
	return applyMiddleware(final, resolved...), nil
}

const maxMiddlewareExpansionDepth = 16

// resolveMiddlewareIdentifiers expands group names and aliases inline at
// their position and resolves everything else as a fully-qualified
// middleware identifier registered directly on the engine.
func (e *Engine) resolveMiddlewareIdentifiers(identifiers []string, depth int) ([]MiddlewareFunc, error) {
	if depth > maxMiddlewareExpansionDepth {
		return nil, fmt.Errorf("waypoint: middleware identifier expansion too deep (cycle?)")
	}

	var resolved []MiddlewareFunc
	for _, id := range identifiers {
		entry, ok := e.Middlewares.lookup(id)
		if !ok {
			return nil, fmt.Errorf("waypoint: unregistered middleware identifier %q", id)
		}
		switch v := entry.(type) {
		case MiddlewareFunc:
			resolved = append(resolved, v)
		case []string:
			expanded, err := e.resolveMiddlewareIdentifiers(v, depth+1)
			if err != nil {
				return nil, err
			}
			resolved = append(resolved, expanded...)
		case string:
			expanded, err := e.resolveMiddlewareIdentifiers([]string{v}, depth+1)
			if err != nil {
				return nil, err
			}
			resolved = append(resolved, expanded...)
		default:
			return nil, fmt.Errorf("waypoint: middleware identifier %q resolved to unsupported type %T", id, entry)
		}
	}
	return resolved, nil
}

// LoggerMiddleware logs one line per request, tagged with the trace id
// RequestIDMiddleware attaches.
func LoggerMiddleware() MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (interface{}, error) {
			start := time.Now()
			result, err := next(c)
			duration := time.Since(start)

			statusCode := c.Status()
			c.engine.Logger.WithTrace(c.TraceID()).Info("%s %s %s - %d %s",
				c.Request.Method, c.Request.URL.Path, c.Request.RemoteAddr, statusCode, duration)
			return result, err
		}
	}
}

// RecoveryMiddleware recovers from handler/middleware panics and converts
// them into a 500 HTTPError rather than crashing the goroutine serving the
// request.
func RecoveryMiddleware() MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (result interface{}, err error) {
			defer func() {
				if r := recover(); r != nil {
					c.engine.Logger.Error("Panic recovered: %v\n%s", r, debug.Stack())
					err = NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
				}
			}()
			return next(c)
		}
	}
}

// SessionAuthMiddleware checks for a valid cookie-backed session and sets
// the authenticated user id in the context, redirecting to redirectPath
// otherwise. Kept alongside JWTAuthMiddleware as the cookie-session flavor
// of authentication (SessionManager lives in auth.go).
func SessionAuthMiddleware(sessionManager *SessionManager, redirectPath string) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (interface{}, error) {
			sessionID, err := sessionManager.GetSessionIDFromRequest(c.Request)
			if err != nil {
				sessionManager.ClearSessionCookie(c.Writer)
				c.Redirect(http.StatusFound, redirectPath)
				return nil, nil
			}

			session := sessionManager.GetSession(sessionID)
			if session == nil {
				sessionManager.ClearSessionCookie(c.Writer)
				c.Redirect(http.StatusFound, redirectPath)
				return nil, nil
			}

			c.Set("userID", session.UserID)
			return next(c)
		}
	}
}

// JWTAuthMiddleware validates a bearer JWT and attaches its Claims to the
// context, resolvable by handlers declaring a *Claims parameter
// (SPEC_FULL.md §4.6). A missing/invalid token short-circuits the chain
// with a 401 — the vehicle for Testable Property 6.
func JWTAuthMiddleware() MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (interface{}, error) {
			authHeader := c.Request.Header.Get("Authorization")
			if authHeader == "" {
				return nil, NewHTTPError(http.StatusUnauthorized, "Authorization header required")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return nil, NewHTTPError(http.StatusUnauthorized, "Authorization header must be in 'Bearer <token>' format")
			}

			claims, err := ValidateJWT(parts[1])
			if err != nil {
				c.engine.Logger.Warning("JWT validation failed: %v", err)
				return nil, NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set("claims", claims)
			c.Set("userID", claims.UserID)
			return next(c)
		}
	}
}

// TimeoutMiddleware aborts the chain with a 504 if the handler exceeds
// timeout.
func TimeoutMiddleware(timeout time.Duration) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (interface{}, error) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
			defer cancel()
			c.Request = c.Request.WithContext(ctx)

			type outcome struct {
				result interface{}
				err    error
			}
			done := make(chan outcome, 1)
			go func() {
				result, err := next(c)
				done <- outcome{result, err}
			}()

			select {
			case o := <-done:
				return o.result, o.err
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					c.engine.Logger.Warning("Request to %s timed out after %s", c.Request.URL.Path, timeout)
					return nil, NewHTTPError(http.StatusGatewayTimeout, fmt.Sprintf("Request timed out after %s", timeout))
				}
				return nil, NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Request context error: %v", ctx.Err()))
			}
		}
	}
}

// BasicAuth authenticates requests using HTTP Basic Authentication.
func BasicAuth(expectedUsername, expectedPassword, realm string) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (interface{}, error) {
			user, pass, ok := c.Request.BasicAuth()
			if !ok || user != expectedUsername || pass != expectedPassword {
				c.Writer.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm="%s"`, realm))
				return nil, NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			return next(c)
		}
	}
}

// CORSMiddleware provides Cross-Origin Resource Sharing support.
// allowedOrigins may be "*" or a comma-separated origin list.
func CORSMiddleware(allowedOrigins string) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (interface{}, error) {
			origin := c.Request.Header.Get("Origin")
			if origin == "" {
				return next(c)
			}

			if allowedOrigins == "*" || strings.Contains(allowedOrigins, origin) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			} else {
				return next(c)
			}

			if c.Request.Method == http.MethodOptions {
				c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
				c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				c.Writer.Header().Set("Access-Control-Max-Age", "86400")
				c.Writer.WriteHeader(http.StatusNoContent)
				return nil, nil
			}
			return next(c)
		}
	}
}

// RequestIDMiddleware stamps every request with a uuid.v4 trace id, honoring
// an incoming X-Trace-ID if present. The trace id is resolvable as a typed
// TraceID parameter (SPEC_FULL.md's Parameter Resolver Registry table).
func RequestIDMiddleware() MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (interface{}, error) {
			traceID := c.Request.Header.Get("X-Trace-ID")
			if traceID == "" {
				traceID = uuid.New().String()
			}

			c.Set("requestID", traceID)
			c.Set("traceID", traceID)
			c.Writer.Header().Set("X-Request-ID", traceID)
			c.Writer.Header().Set("X-Trace-ID", traceID)

			return next(c)
		}
	}
}

// MetricsMiddleware records request count and latency per route name,
// reading the name Route.Run stamped onto the context.
func MetricsMiddleware(metricsMan *MetricsManager) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (interface{}, error) {
			start := time.Now()
			result, err := next(c)
			duration := time.Since(start)

			routeName, _ := c.Get("routeName")
			key, _ := routeName.(string)
			if key == "" {
				key = c.Request.URL.Path
			}
			metricsMan.RecordRequest(c.Request.Method+" "+key, duration)
			return result, err
		}
	}
}

// AsyncAuditMiddleware schedules a fire-and-forget audit record onto the
// engine's AsyncTaskQueue after the handler returns, demonstrating that the
// router core never itself blocks on such work (SPEC_FULL.md §5).
func AsyncAuditMiddleware(queue *AsyncTaskQueue) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (interface{}, error) {
			result, err := next(c)
			method, path, status := c.Request.Method, c.Request.URL.Path, c.Status()
			queue.Go(func() {
				c.engine.Logger.Info("audit: %s %s -> %d", method, path, status)
			})
			return result, err
		}
	}
}

// Proxy creates a terminal middleware that reverse-proxies to targetURL.
// It ignores next, since the proxied response is itself the response.
func Proxy(targetURL string) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) (interface{}, error) {
			remote, err := url.Parse(targetURL)
			if err != nil {
				c.engine.Logger.Error("Proxy middleware: invalid target URL '%s': %v", targetURL, err)
				return nil, NewHTTPError(http.StatusInternalServerError, "Bad proxy configuration")
			}

			proxy := httputil.NewSingleHostReverseProxy(remote)
			proxy.Director = func(req *http.Request) {
				req.Header.Add("X-Forwarded-For", req.RemoteAddr)
				req.Header.Add("X-Origin-Host", req.Host)
				req.URL.Scheme = remote.Scheme
				req.URL.Host = remote.Host
				req.Host = remote.Host
			}
			proxy.ErrorHandler = func(rw http.ResponseWriter, req *http.Request, err error) {
				c.engine.Logger.Error("Proxy error for %s %s: %v", req.Method, req.URL.Path, err)
				c.Writer.WriteHeader(http.StatusBadGateway)
				c.Writer.Write([]byte("Bad Gateway"))
			}

			proxy.ServeHTTP(c.Writer, c.Request)
			return nil, nil
		}
	}
}
