package registry

import (
	"sync"

	"github.com/caronc/apprise-sub007/internal/target"
)

// Collection is the ordered set of configured targets.
//
// Readers take a snapshot with List and work on it for the whole dispatch;
// mutations made meanwhile only affect later snapshots.
type Collection struct {
	mu    sync.RWMutex
	items []target.Target
}

func NewCollection(ts ...target.Target) *Collection {
	c := &Collection{}
	c.Add(ts...)
	return c
}

// Add appends targets in order. Nil entries are ignored.
func (c *Collection) Add(ts ...target.Target) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range ts {
		if t != nil {
			c.items = append(c.items, t)
		}
	}
}

// Remove drops the target with the given Key and returns what was removed
// (more than one only if the same instance was added twice).
func (c *Collection) Remove(key string) []target.Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed []target.Target
	kept := c.items[:0:0]
	for _, t := range c.items {
		if t.Key() == key {
			removed = append(removed, t)
			continue
		}
		kept = append(kept, t)
	}
	c.items = kept
	return removed
}

// Replace swaps the whole collection and returns the previous targets.
func (c *Collection) Replace(ts []target.Target) []target.Target {
	next := make([]target.Target, 0, len(ts))
	for _, t := range ts {
		if t != nil {
			next = append(next, t)
		}
	}
	c.mu.Lock()
	prev := c.items
	c.items = next
	c.mu.Unlock()
	return prev
}

// List returns a snapshot in registration order.
func (c *Collection) List() []target.Target {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]target.Target(nil), c.items...)
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
