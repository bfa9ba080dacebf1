// Package loader implements the component block loaders: the block
// selector serving template, script, style and custom block requests, and
// the template loader compiling template blocks into render modules.
package loader

import (
	"context"

	"github.com/conneroisu/sfcloader/internal/errors"
	"github.com/conneroisu/sfcloader/internal/logging"
)

// Target is the environment a module is built for.
type Target string

const (
	TargetWeb  Target = "web"
	TargetNode Target = "node"
)

// Context carries the per-request inputs of one loader invocation and
// collects the diagnostics it reports.
type Context struct {
	// ResourcePath is the component file path.
	ResourcePath string
	// ResourceQuery is the request query, including its leading "?".
	ResourceQuery string
	Target        Target
	// Minimize and Production both select production output.
	Minimize   bool
	Production bool

	Diagnostics *errors.ErrorCollector
	Logger      logging.Logger
}

// IsServer reports whether the request targets server rendering.
func (c *Context) IsServer() bool {
	return c.Target == TargetNode
}

// IsProduction reports whether production output was requested.
func (c *Context) IsProduction() bool {
	return c.Minimize || c.Production
}

// EmitWarning reports a non-fatal diagnostic.
func (c *Context) EmitWarning(msg string) {
	c.emit(errors.ErrorSeverityWarning, msg)
	c.logger().Warn(context.Background(), nil, msg, "file", c.ResourcePath)
}

// EmitError reports an error diagnostic without failing the request.
func (c *Context) EmitError(msg string) {
	c.emit(errors.ErrorSeverityError, msg)
	c.logger().Error(context.Background(), nil, "template compile error", "file", c.ResourcePath)
}

func (c *Context) emit(severity errors.ErrorSeverity, msg string) {
	if c.Diagnostics == nil {
		return
	}
	c.Diagnostics.Add(errors.BuildError{
		File:     c.ResourcePath,
		Message:  msg,
		Severity: severity,
	})
}

func (c *Context) logger() logging.Logger {
	if c.Logger == nil {
		return logging.NewNopLogger()
	}
	return c.Logger
}
