// waypoint/plugin.go
package waypoint

import (
	"fmt"
	"sync"
)

// MiddlewareRegistry maps a middleware identifier to either a MiddlewareFunc
// (a leaf), a []string (a named group, expanded in order), or a string (an
// alias for another identifier). This is the teacher's PluginRegistry
// re-targeted: instead of holding arbitrary named plugin instances, it holds
// the three middleware-identifier kinds SPEC_FULL.md §4.7 distinguishes.
type MiddlewareRegistry struct {
	mu      sync.RWMutex
	entries map[string]interface{}
}

// NewMiddlewareRegistry creates and initializes a new MiddlewareRegistry.
func NewMiddlewareRegistry() *MiddlewareRegistry {
	return &MiddlewareRegistry{
		entries: make(map[string]interface{}),
	}
}

// Register installs a single middleware under id. Registering the same id
// twice is an error — identifiers are meant to be declared once at startup.
func (mr *MiddlewareRegistry) Register(id string, mw MiddlewareFunc) error {
	return mr.set(id, mw)
}

// RegisterGroup installs a named group: applying id expands to applying
// every identifier in members, in order.
func (mr *MiddlewareRegistry) RegisterGroup(id string, members []string) error {
	return mr.set(id, members)
}

// RegisterAlias installs id as another name for target, resolved recursively.
func (mr *MiddlewareRegistry) RegisterAlias(id, target string) error {
	return mr.set(id, target)
}

func (mr *MiddlewareRegistry) set(id string, value interface{}) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	if _, exists := mr.entries[id]; exists {
		return fmt.Errorf("waypoint: middleware identifier %q already registered", id)
	}
	mr.entries[id] = value
	return nil
}

// lookup retrieves the raw entry registered under id: a MiddlewareFunc,
// []string, or string, or (nil, false) if nothing is registered.
func (mr *MiddlewareRegistry) lookup(id string) (interface{}, bool) {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	v, ok := mr.entries[id]
	return v, ok
}
