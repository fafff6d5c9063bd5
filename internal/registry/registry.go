// Package registry holds the static table of target kinds and the ordered
// collection of configured targets the dispatcher reads from.
//
// Kinds register explicitly at process start (no reflection, no dynamic
// loading):
//
//	tbl := registry.NewTable()
//	webhook.Register(tbl)
//	logtarget.Register(tbl, log)
//	t, err := tbl.Build("webhook", registry.Spec{URL: "https://..."})
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/caronc/apprise-sub007/internal/target"
)

var (
	ErrUnknownKind   = errors.New("registry: unknown target kind")
	ErrDuplicateKind = errors.New("registry: duplicate target kind")
)

// Spec is everything a factory needs to build one target.
type Spec struct {
	URL     string
	Tags    []string
	Options target.Options
	// Params carries kind-specific settings (headers, names, ...).
	Params map[string]string
}

// Factory builds a target from a spec.
type Factory func(spec Spec) (target.Target, error)

// Table maps target kinds to factories.
type Table struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewTable() *Table {
	return &Table{factories: map[string]Factory{}}
}

// Register makes a factory available under kind (case-insensitive).
func (t *Table) Register(kind string, f Factory) error {
	k := strings.ToLower(strings.TrimSpace(kind))
	if k == "" || f == nil {
		return fmt.Errorf("registry: invalid registration for %q", kind)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.factories[k]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateKind, k)
	}
	t.factories[k] = f
	return nil
}

// Build creates a target of the given kind.
func (t *Table) Build(kind string, spec Spec) (target.Target, error) {
	k := strings.ToLower(strings.TrimSpace(kind))
	t.mu.RLock()
	f, ok := t.factories[k]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	tg, err := f(spec)
	if err != nil {
		return nil, fmt.Errorf("registry: build %s: %w", k, err)
	}
	if target.KindOf(tg) == target.KindNone {
		return nil, fmt.Errorf("registry: %s target has no delivery method", k)
	}
	return tg, nil
}

// Kinds returns the registered kinds, sorted.
func (t *Table) Kinds() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.factories))
	for k := range t.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
