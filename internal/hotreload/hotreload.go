// Package hotreload generates the hot-reload glue appended to compiled
// template modules and the events the dev server pushes to browsers.
package hotreload

import (
	"encoding/json"
	"time"
)

// DefaultAPIPath is the module providing rerender at runtime.
const DefaultAPIPath = "vue-hot-reload-api"

// TemplateCode returns the snippet that accepts hot updates for a compiled
// template module and rerenders the component registered under id.
func TemplateCode(id, apiPath string) string {
	if apiPath == "" {
		apiPath = DefaultAPIPath
	}
	return "\nif (module.hot) {\n" +
		"  module.hot.accept()\n" +
		"  if (module.hot.data) {\n" +
		"    require(" + quote(apiPath) + ").rerender(" + quote(id) +
		", { render: render, staticRenderFns: staticRenderFns })\n" +
		"  }\n" +
		"}\n"
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Event types.
const (
	EventRerender = "rerender"
	EventReload   = "reload"
	EventError    = "error"
	EventRemoved  = "removed"
)

// ReloadEvent is pushed to connected browsers after a rebuild.
type ReloadEvent struct {
	Type      string    `json:"type"`
	ID        string    `json:"id,omitempty"`
	File      string    `json:"file"`
	Component string    `json:"component,omitempty"`
	Module    string    `json:"module,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent returns an event stamped with the current time.
func NewEvent(eventType, file string) ReloadEvent {
	return ReloadEvent{Type: eventType, File: file, Timestamp: time.Now()}
}

// Marshal encodes the event for the wire.
func (e ReloadEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
