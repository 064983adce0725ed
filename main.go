// waypoint is a small HTTP server demonstrating the router core: pattern
// matching, group composition, typed parameter resolution, controllers, and
// middleware chains.
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jwobs/waypoint/waypoint"
)

// UserController is resolved by name ("users") from string handlers like
// "users@Show", demonstrating the controller dispatch path (SPEC_FULL.md §3).
type UserController struct{}

func (uc *UserController) Show(id int, r *http.Request) (interface{}, error) {
	if id <= 0 {
		return nil, waypoint.NewHTTPError(http.StatusBadRequest, "id must be positive")
	}
	return map[string]interface{}{"id": id, "name": fmt.Sprintf("user-%d", id)}, nil
}

func (uc *UserController) Create(c *waypoint.Context) (interface{}, error) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := c.BindJSON(&payload); err != nil {
		return nil, waypoint.NewHTTPError(http.StatusBadRequest, "invalid JSON body", err)
	}
	return map[string]interface{}{"created": payload.Name}, nil
}

func main() {
	e := waypoint.New()

	e.Use(waypoint.RecoveryMiddleware())
	e.Use(waypoint.RequestIDMiddleware())
	e.Use(waypoint.LoggerMiddleware())

	e.Controller("users", &UserController{})

	e.GET("/", func(c *waypoint.Context) (interface{}, error) {
		return "waypoint is up", nil
	})

	e.GET("/health", func(c *waypoint.Context) (interface{}, error) {
		return map[string]interface{}{"status": "ok", "trace": c.TraceID()}, nil
	})

	// Typed-parameter handler: {id} is consumed positionally into the int
	// argument; *http.Request is resolved by type, not position.
	e.GET("/users/{id}", "users@Show")

	e.Group(waypoint.GroupScope{
		Prefix:     "/api/v1",
		Middleware: []string{"api"},
	}, func(e *waypoint.Engine) {
		e.POST("/users", "users@Create")

		e.GET("/users/{id}/orders/{?orderId}", func(c *waypoint.Context) (interface{}, error) {
			orderID := c.Param("orderId")
			if orderID == "" {
				return map[string]interface{}{"id": c.Param("id"), "orders": "all"}, nil
			}
			return map[string]interface{}{"id": c.Param("id"), "order": orderID}, nil
		}).Where("id", `\d+`, nil)

		e.Group(waypoint.GroupScope{
			Prefix:     "/admin",
			Middleware: []string{"auth"},
		}, func(e *waypoint.Engine) {
			e.GET("/stats", func(c *waypoint.Context) (interface{}, error) {
				claims, _ := c.Get("claims")
				return map[string]interface{}{"viewer": claims}, nil
			})
		})
	})

	if e.DebugEnabled() {
		e.GET("/debug/routes", waypoint.DebugRoutesHandler)
		e.GET("/debug/config", waypoint.DebugConfigHandler)
		e.GET("/debug/metrics", waypoint.DebugMetricsHandler)
		e.GET("/debug/memory", waypoint.DebugMemoryHandler)
	}

	e.GET("/events/{topic}", func(c *waypoint.Context) (interface{}, error) {
		e.SSE.AddClient(c.Param("topic"), c.TraceID(), c)
		return nil, nil
	})

	e.Use(waypoint.TimeoutMiddleware(10 * time.Second))

	if err := e.Run(":8080"); err != nil {
		e.Logger.Error("server stopped: %v", err)
	}
}
