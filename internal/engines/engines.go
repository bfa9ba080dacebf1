// Package engines renders template sources through a named templating
// language before compilation.
package engines

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Engine renders src with data.
type Engine interface {
	Render(ctx context.Context, src string, data map[string]any) (string, error)
}

// Func adapts a blocking render function into an Engine. The call runs in
// its own goroutine and is abandoned when ctx is done.
type Func func(src string, data map[string]any) (string, error)

// Render implements Engine.
func (f Func) Render(ctx context.Context, src string, data map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("engine panicked: %v", r)}
			}
		}()
		out, err := f(src, data)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.out, r.err
	}
}

// Registry maps language names to engines. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
	primary map[string]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		engines: make(map[string]Engine),
		primary: make(map[string]bool),
	}
}

// Register adds engine under name and any aliases, replacing earlier
// registrations.
func (r *Registry) Register(name string, engine Engine, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = normalize(name)
	r.engines[name] = engine
	r.primary[name] = true
	for _, alias := range aliases {
		r.engines[normalize(alias)] = engine
	}
}

// Get returns the engine registered for lang.
func (r *Registry) Get(lang string) (Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.engines[normalize(lang)]
	return e, ok
}

// Has reports whether lang names a registered engine.
func (r *Registry) Has(lang string) bool {
	_, ok := r.Get(lang)
	return ok
}

// Names returns the primary engine names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.primary))
	for name := range r.primary {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render renders src through the engine registered for lang.
func (r *Registry) Render(ctx context.Context, lang, src string, data map[string]any) (string, error) {
	e, ok := r.Get(lang)
	if !ok {
		return "", fmt.Errorf("no templating engine registered for %q", lang)
	}
	return e.Render(ctx, src, data)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
