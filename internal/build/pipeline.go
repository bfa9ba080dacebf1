// Package build drives the loaders over discovered components: it expands
// each component into block requests, serves them through the block
// selector and the template loader, and writes the resulting modules.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/conneroisu/sfcloader/internal/descriptor"
	"github.com/conneroisu/sfcloader/internal/errors"
	"github.com/conneroisu/sfcloader/internal/loader"
	"github.com/conneroisu/sfcloader/internal/logging"
	"github.com/conneroisu/sfcloader/internal/query"
	"github.com/conneroisu/sfcloader/internal/registry"
	"github.com/conneroisu/sfcloader/internal/scanner"
	"github.com/conneroisu/sfcloader/internal/sourcemap"
)

// Options controls how components are built.
type Options struct {
	OutputDir  string
	Workers    int
	Target     loader.Target
	Production bool
	Minimize   bool
	SourceMaps bool
}

// mode identifies the build settings that change generated code.
func (o Options) mode() string {
	return fmt.Sprintf("%s|production=%t|minimize=%t", o.Target, o.Production, o.Minimize)
}

// BuildTask represents a queued build
type BuildTask struct {
	Component *registry.ComponentInfo
	Priority  int
	Timestamp time.Time
}

// BuildResult represents the result of a build operation
type BuildResult struct {
	Component   *registry.ComponentInfo
	Modules     []string
	Diagnostics []errors.BuildError
	Error       error
	Duration    time.Duration
	// CacheHit is set when every template module came from the cache.
	CacheHit bool
	Hash     string
}

// HasErrors reports a fatal error or an error diagnostic.
func (r BuildResult) HasErrors() bool {
	if r.Error != nil {
		return true
	}
	for _, d := range r.Diagnostics {
		if d.Severity >= errors.ErrorSeverityError {
			return true
		}
	}
	return false
}

// BuildCallback is called when a queued build completes
type BuildCallback func(result BuildResult)

// BuildPipeline builds components, either synchronously or through a
// queue served by a pool of workers.
type BuildPipeline struct {
	loader  *loader.TemplateLoader
	parser  descriptor.Parser
	cache   *Cache
	options Options
	metrics *BuildMetrics
	logger  logging.Logger

	callbacks []BuildCallback
	cbMutex   sync.RWMutex

	tasks    chan BuildTask
	priority chan BuildTask
	workerWg sync.WaitGroup
	cancel   context.CancelFunc
}

// PipelineOption configures a BuildPipeline.
type PipelineOption func(*BuildPipeline)

// WithCache sets the descriptor and module cache.
func WithCache(c *Cache) PipelineOption {
	return func(bp *BuildPipeline) { bp.cache = c }
}

// WithParser replaces the descriptor parser.
func WithParser(p descriptor.Parser) PipelineOption {
	return func(bp *BuildPipeline) { bp.parser = p }
}

// WithLogger sets the pipeline logger.
func WithLogger(l logging.Logger) PipelineOption {
	return func(bp *BuildPipeline) { bp.logger = l }
}

// NewBuildPipeline creates a new build pipeline
func NewBuildPipeline(opts Options, tl *loader.TemplateLoader, fns ...PipelineOption) *BuildPipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Target == "" {
		opts.Target = loader.TargetWeb
	}

	bp := &BuildPipeline{
		loader:   tl,
		parser:   descriptor.Default,
		options:  opts,
		metrics:  NewBuildMetrics(),
		logger:   logging.NewNopLogger(),
		tasks:    make(chan BuildTask, 100),
		priority: make(chan BuildTask, 10),
	}
	for _, fn := range fns {
		fn(bp)
	}
	bp.logger = bp.logger.WithComponent("build")

	return bp
}

// Start starts the queue workers
func (bp *BuildPipeline) Start(ctx context.Context) {
	ctx, bp.cancel = context.WithCancel(ctx)

	for i := 0; i < bp.options.Workers; i++ {
		bp.workerWg.Add(1)
		go bp.worker(ctx)
	}
}

// Stop stops the workers and waits for them to finish
func (bp *BuildPipeline) Stop() {
	if bp.cancel != nil {
		bp.cancel()
	}
	bp.workerWg.Wait()
}

// Build queues a component for building. It reports false when the
// queue is full and the request was dropped.
func (bp *BuildPipeline) Build(component *registry.ComponentInfo) bool {
	return bp.enqueue(bp.tasks, component, 1)
}

// BuildWithPriority queues a component ahead of regular builds
func (bp *BuildPipeline) BuildWithPriority(component *registry.ComponentInfo) bool {
	return bp.enqueue(bp.priority, component, 10)
}

func (bp *BuildPipeline) enqueue(ch chan BuildTask, component *registry.ComponentInfo, priority int) bool {
	select {
	case ch <- BuildTask{Component: component, Priority: priority, Timestamp: time.Now()}:
		return true
	default:
		bp.logger.Warn(context.Background(), nil, "build queue full, dropping request", "component", component.Name)
		return false
	}
}

// AddCallback adds a callback to be called when queued builds complete
func (bp *BuildPipeline) AddCallback(callback BuildCallback) {
	bp.cbMutex.Lock()
	defer bp.cbMutex.Unlock()
	bp.callbacks = append(bp.callbacks, callback)
}

// GetMetrics returns the current build metrics
func (bp *BuildPipeline) GetMetrics() MetricsSnapshot {
	return bp.metrics.GetSnapshot()
}

// Cache returns the pipeline cache, which may be nil.
func (bp *BuildPipeline) Cache() *Cache {
	return bp.cache
}

// Options returns the build options.
func (bp *BuildPipeline) Options() Options {
	return bp.options
}

func (bp *BuildPipeline) worker(ctx context.Context) {
	defer bp.workerWg.Done()

	for {
		// Drain priority tasks first.
		select {
		case task := <-bp.priority:
			bp.run(ctx, task)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return
		case task := <-bp.priority:
			bp.run(ctx, task)
		case task := <-bp.tasks:
			bp.run(ctx, task)
		}
	}
}

func (bp *BuildPipeline) run(ctx context.Context, task BuildTask) {
	result := bp.BuildComponent(ctx, task.Component)

	bp.cbMutex.RLock()
	callbacks := append([]BuildCallback(nil), bp.callbacks...)
	bp.cbMutex.RUnlock()

	for _, callback := range callbacks {
		callback(result)
	}
}

// BuildAll builds components concurrently, bounded by the worker count.
// Results are returned in input order.
func (bp *BuildPipeline) BuildAll(ctx context.Context, components []*registry.ComponentInfo) []BuildResult {
	results := make([]BuildResult, len(components))
	sem := make(chan struct{}, bp.options.Workers)
	var wg sync.WaitGroup

	for i, c := range components {
		wg.Add(1)
		go func(i int, c *registry.ComponentInfo) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
				results[i] = bp.BuildComponent(ctx, c)
			case <-ctx.Done():
				results[i] = BuildResult{Component: c, Error: ctx.Err()}
			}
		}(i, c)
	}

	wg.Wait()
	return results
}

// BuildComponent builds one component and writes its modules.
func (bp *BuildPipeline) BuildComponent(ctx context.Context, component *registry.ComponentInfo) BuildResult {
	start := time.Now()
	result := bp.buildComponent(ctx, component)
	result.Duration = time.Since(start)

	bp.metrics.RecordBuild(result)

	if result.Error != nil {
		bp.logger.Error(ctx, result.Error, "build failed", "component", component.Name, "file", component.RelPath)
	} else {
		status := "built"
		if result.CacheHit {
			status = "cached"
		}
		bp.logger.Info(ctx, "build "+status,
			"component", component.Name,
			"modules", len(result.Modules),
			"diagnostics", len(result.Diagnostics),
			"duration", result.Duration)
	}

	return result
}

func (bp *BuildPipeline) buildComponent(ctx context.Context, component *registry.ComponentInfo) BuildResult {
	result := BuildResult{Component: component}

	source, err := os.ReadFile(component.FilePath)
	if err != nil {
		result.Error = errors.NewIOError(errors.ErrCodeFileNotFound, "reading component", err).
			WithComponent(component.Name).
			WithLocation(component.FilePath, 0, 0)
		return result
	}
	result.Hash = scanner.Hash(source)

	desc := bp.descriptor(component.FilePath, source, result.Hash)

	diagnostics := errors.NewErrorCollector()
	for _, perr := range desc.Errors {
		diagnostics.Add(errors.BuildError{
			Component: component.Name,
			File:      component.FilePath,
			Message:   perr.Error(),
			Severity:  errors.ErrorSeverityError,
		})
	}

	outDir := bp.OutputDir(component)
	reqs := Requests(desc, component.ID)
	templates, cached := 0, 0

	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			result.Error = err
			return result
		}

		lctx := &loader.Context{
			ResourcePath:  component.FilePath,
			ResourceQuery: req.Query,
			Target:        bp.options.Target,
			Minimize:      bp.options.Minimize,
			Production:    bp.options.Production,
			Diagnostics:   diagnostics,
			Logger:        bp.logger,
		}

		content, sourceMap, hit, err := bp.serve(ctx, lctx, desc, req)
		if err != nil {
			result.Error = errors.ErrBuildFailed(component.Name, err).
				WithContext("request", req.Query)
			result.Diagnostics = diagnostics.GetErrors()
			return result
		}
		if req.Type == query.TypeTemplate {
			templates++
			if hit {
				cached++
			}
		}

		written, err := bp.writeModule(outDir, req, content, sourceMap)
		if err != nil {
			result.Error = err
			return result
		}
		result.Modules = append(result.Modules, written...)
	}

	entry := EntryModule(desc, reqs, component.ID, component.RelPath, bp.options.Production || bp.options.Minimize)
	entryPath := filepath.Join(outDir, EntryFile)
	if err := writeFile(entryPath, entry); err != nil {
		result.Error = err
		return result
	}
	result.Modules = append(result.Modules, entryPath)

	result.Diagnostics = diagnostics.GetErrors()
	for i := range result.Diagnostics {
		result.Diagnostics[i].Component = component.Name
	}
	result.CacheHit = templates > 0 && cached == templates

	return result
}

// descriptor parses source, reusing a cached descriptor for unchanged content.
func (bp *BuildPipeline) descriptor(path string, source []byte, hash string) *descriptor.Descriptor {
	key := CacheKey("descriptor", path, hash, fmt.Sprint(bp.options.SourceMaps))
	if desc, ok := bp.cache.Descriptor(key); ok {
		return desc
	}

	desc := bp.parser.Parse(string(source), descriptor.ParseOptions{
		Filename: path,
		NeedMap:  bp.options.SourceMaps,
	})
	bp.cache.StoreDescriptor(key, desc)
	return desc
}

// serve runs one request through the selector and, for templates, the
// template loader.
func (bp *BuildPipeline) serve(ctx context.Context, lctx *loader.Context, desc *descriptor.Descriptor, req Request) (string, *sourcemap.Map, bool, error) {
	q, err := query.Parse(req.Query)
	if err != nil {
		return "", nil, false, err
	}

	selected, err := loader.Select(desc, lctx, q)
	if err != nil {
		return "", nil, false, err
	}
	content, sourceMap := selected.Content, selected.Map

	if req.Block.Src != "" {
		src, err := ReadSrc(lctx.ResourcePath, req.Block.Src)
		if err != nil {
			return "", nil, false, err
		}
		content, sourceMap = src, nil
	}

	if req.Type != query.TypeTemplate {
		return content, sourceMap, false, nil
	}

	key := CacheKey("module", scanner.Hash([]byte(content)), req.Query, bp.options.mode())
	if code, ok := bp.cache.Module(key); ok {
		return code, nil, true, nil
	}

	before := len(lctx.Diagnostics.GetBySeverity(errors.ErrorSeverityError))
	code, err := bp.loader.Load(ctx, lctx, content)
	if err != nil {
		return "", nil, false, err
	}
	// Stub modules are not cached so their diagnostics are reported again.
	if len(lctx.Diagnostics.GetBySeverity(errors.ErrorSeverityError)) == before {
		bp.cache.StoreModule(key, code)
	}

	return code, nil, false, nil
}

// ReadSrc reads the file a block src attribute points at, relative to the
// component.
func ReadSrc(resourcePath, src string) (string, error) {
	p := src
	if !filepath.IsAbs(p) {
		p = filepath.Join(filepath.Dir(resourcePath), src)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotFound, "reading block src "+src, err)
	}
	return string(data), nil
}

// OutputDir returns the directory a component's modules are written to.
func (bp *BuildPipeline) OutputDir(component *registry.ComponentInfo) string {
	rel := strings.TrimSuffix(filepath.FromSlash(component.RelPath), filepath.Ext(component.RelPath))
	return filepath.Join(bp.options.OutputDir, rel)
}

// RemoveOutputs deletes everything written for a component.
func (bp *BuildPipeline) RemoveOutputs(component *registry.ComponentInfo) error {
	return os.RemoveAll(bp.OutputDir(component))
}
