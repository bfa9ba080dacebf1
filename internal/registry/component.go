// Package registry tracks the single-file components discovered under the
// configured scan paths and broadcasts changes to interested watchers.
package registry

import (
	"sort"
	"sync"
	"time"
)

// ComponentRegistry manages all discovered components
type ComponentRegistry struct {
	components map[string]*ComponentInfo
	mutex      sync.RWMutex
	watchers   []chan ComponentEvent
}

// ComponentInfo holds metadata about a component file
type ComponentInfo struct {
	// ID is the stable scope id derived from the root-relative path.
	ID          string      `yaml:"id" json:"id"`
	Name        string      `yaml:"name" json:"name"`
	DisplayName string      `yaml:"display_name" json:"displayName"`
	FilePath    string      `yaml:"file" json:"file"`
	RelPath     string      `yaml:"path" json:"path"`
	LastMod     time.Time   `yaml:"last_modified" json:"lastModified"`
	Hash        string      `yaml:"hash" json:"hash"`
	Blocks      []BlockInfo `yaml:"blocks" json:"blocks"`
	Functional  bool        `yaml:"functional,omitempty" json:"functional,omitempty"`
	Scoped      bool        `yaml:"scoped,omitempty" json:"scoped,omitempty"`
	// Dependencies are files referenced through src attributes.
	Dependencies []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Errors       []string `yaml:"errors,omitempty" json:"errors,omitempty"`
}

// BlockInfo summarises one block of a component.
type BlockInfo struct {
	Type   string `yaml:"type" json:"type"`
	Index  int    `yaml:"index" json:"index"`
	Lang   string `yaml:"lang,omitempty" json:"lang,omitempty"`
	Src    string `yaml:"src,omitempty" json:"src,omitempty"`
	Scoped bool   `yaml:"scoped,omitempty" json:"scoped,omitempty"`
}

// ComponentEvent represents a change in the component registry
type ComponentEvent struct {
	Type      EventType
	Component *ComponentInfo
	Timestamp time.Time
}

// EventType represents the type of component event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

func (e EventType) String() string {
	switch e {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// NewComponentRegistry creates a new component registry
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		components: make(map[string]*ComponentInfo),
		watchers:   make([]chan ComponentEvent, 0),
	}
}

// Register adds or updates a component in the registry. Re-registering a
// component with an unchanged hash is a no-op.
func (r *ComponentRegistry) Register(component *ComponentInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if existing, exists := r.components[component.ID]; exists {
		if existing.Hash == component.Hash {
			return
		}
		eventType = EventTypeUpdated
	}

	r.components[component.ID] = component
	r.notify(ComponentEvent{
		Type:      eventType,
		Component: component,
		Timestamp: time.Now(),
	})
}

// Get retrieves a component by id
func (r *ComponentRegistry) Get(id string) (*ComponentInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	component, exists := r.components[id]
	return component, exists
}

// GetByPath retrieves a component by its file path
func (r *ComponentRegistry) GetByPath(path string) (*ComponentInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, component := range r.components {
		if component.FilePath == path {
			return component, true
		}
	}
	return nil, false
}

// GetAll returns all registered components ordered by file path
func (r *ComponentRegistry) GetAll() []*ComponentInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*ComponentInfo, 0, len(r.components))
	for _, component := range r.components {
		result = append(result, component)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FilePath < result[j].FilePath })
	return result
}

// Remove removes a component from the registry
func (r *ComponentRegistry) Remove(id string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	component, exists := r.components[id]
	if !exists {
		return
	}

	delete(r.components, id)
	r.notify(ComponentEvent{
		Type:      EventTypeRemoved,
		Component: component,
		Timestamp: time.Now(),
	})
}

// notify must be called with the mutex held.
func (r *ComponentRegistry) notify(event ComponentEvent) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Watch returns a channel that receives component events
func (r *ComponentRegistry) Watch() <-chan ComponentEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan ComponentEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *ComponentRegistry) UnWatch(ch <-chan ComponentEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered components
func (r *ComponentRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.components)
}
