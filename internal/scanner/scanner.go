// Package scanner discovers single-file components on disk.
//
// The scanner walks the configured scan paths for .vue files, skipping
// excluded names, parses each file into a descriptor and registers a
// summary of its blocks with the component registry. Files are hashed with
// CRC32 so unchanged components do not produce registry events. Batches
// are processed by a persistent worker pool.
package scanner

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/conneroisu/sfcloader/internal/descriptor"
	"github.com/conneroisu/sfcloader/internal/registry"
)

// Extension is the component file extension.
const Extension = ".vue"

// ScanJob represents a scanning job for the worker pool
type ScanJob struct {
	filePath string
	result   chan<- ScanResult
}

// ScanResult carries the outcome of scanning one file
type ScanResult struct {
	filePath string
	err      error
}

// WorkerPool manages persistent scanning workers
type WorkerPool struct {
	jobQueue    chan ScanJob
	workerCount int
	scanner     *ComponentScanner
	stop        chan struct{}
	stopped     bool
	mu          sync.RWMutex
	wg          sync.WaitGroup
}

// ComponentScanner discovers and parses component files.
type ComponentScanner struct {
	registry   *registry.ComponentRegistry
	parser     descriptor.Parser
	root       string
	excludes   []string
	workerPool *WorkerPool
}

// Option configures a ComponentScanner.
type Option func(*ComponentScanner)

// WithParser replaces the descriptor parser.
func WithParser(p descriptor.Parser) Option {
	return func(s *ComponentScanner) { s.parser = p }
}

// WithExcludes sets glob patterns matched against every path element.
func WithExcludes(patterns []string) Option {
	return func(s *ComponentScanner) { s.excludes = patterns }
}

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(s *ComponentScanner) {
		if n > 0 {
			s.workerPool.workerCount = n
		}
	}
}

// NewComponentScanner creates a scanner confined to root. An empty root
// means the current working directory.
func NewComponentScanner(reg *registry.ComponentRegistry, root string, opts ...Option) (*ComponentScanner, error) {
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
		root = cwd
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute root: %w", err)
	}

	workerCount := runtime.NumCPU()
	if workerCount > 8 {
		workerCount = 8 // Cap at 8 workers for diminishing returns
	}

	s := &ComponentScanner{
		registry: reg,
		parser:   descriptor.Default,
		root:     absRoot,
	}
	s.workerPool = &WorkerPool{workerCount: workerCount, scanner: s}
	for _, opt := range opts {
		opt(s)
	}
	s.workerPool.start()

	return s, nil
}

func (p *WorkerPool) start() {
	p.jobQueue = make(chan ScanJob, p.workerCount*2)
	p.stop = make(chan struct{})
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.work()
	}
}

func (p *WorkerPool) work() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobQueue:
			job.result <- ScanResult{filePath: job.filePath, err: p.scanner.ScanFile(job.filePath)}
		case <-p.stop:
			return
		}
	}
}

// Stop gracefully shuts down the worker pool
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	close(p.stop)
	p.wg.Wait()
}

// GetRegistry returns the component registry
func (s *ComponentScanner) GetRegistry() *registry.ComponentRegistry {
	return s.registry
}

// Root returns the absolute directory scanning is confined to.
func (s *ComponentScanner) Root() string {
	return s.root
}

// Close gracefully shuts down the scanner and its worker pool
func (s *ComponentScanner) Close() error {
	s.workerPool.Stop()
	return nil
}

// ScanDirectory scans dir recursively for component files.
func (s *ComponentScanner) ScanDirectory(ctx context.Context, dir string) error {
	files, err := s.Discover(ctx, dir)
	if err != nil {
		return err
	}
	return s.processBatch(ctx, files)
}

// Discover lists the component files under dir without parsing them.
func (s *ComponentScanner) Discover(ctx context.Context, dir string) ([]string, error) {
	cleanDir, err := s.validatePath(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid directory path: %w", err)
	}

	var files []string
	err = filepath.WalkDir(cleanDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if path != cleanDir && s.IsExcluded(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsComponentFile(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// processBatch fans files out to the worker pool and collects the results.
func (s *ComponentScanner) processBatch(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}

	// For very small batches, process synchronously to avoid overhead
	if len(files) <= 5 {
		var errs []error
		for _, file := range files {
			if err := s.ScanFile(file); err != nil {
				errs = append(errs, fmt.Errorf("scanning %s: %w", file, err))
			}
		}
		return batchError(errs)
	}

	resultChan := make(chan ScanResult, len(files))
	go func() {
		for _, file := range files {
			select {
			case s.workerPool.jobQueue <- ScanJob{filePath: file, result: resultChan}:
			case <-ctx.Done():
				resultChan <- ScanResult{filePath: file, err: ctx.Err()}
			case <-s.workerPool.stop:
				resultChan <- ScanResult{filePath: file, err: fmt.Errorf("scanner closed")}
			}
		}
	}()

	var errs []error
	for i := 0; i < len(files); i++ {
		result := <-resultChan
		if result.err != nil {
			errs = append(errs, fmt.Errorf("scanning %s: %w", result.filePath, result.err))
		}
	}

	return batchError(errs)
}

func batchError(errs []error) error {
	if len(errs) > 0 {
		return fmt.Errorf("scan completed with %d errors: %w", len(errs), errs[0])
	}
	return nil
}

// ScanFile parses one component file and registers it.
func (s *ComponentScanner) ScanFile(path string) error {
	cleanPath, err := s.validatePath(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("getting file info for %s: %w", cleanPath, err)
	}
	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return fmt.Errorf("reading file %s: %w", cleanPath, err)
	}

	rel, err := filepath.Rel(s.root, cleanPath)
	if err != nil {
		return fmt.Errorf("relative path for %s: %w", cleanPath, err)
	}

	desc := s.parser.Parse(string(content), descriptor.ParseOptions{Filename: cleanPath})
	blocks := Summarize(desc)

	component := &registry.ComponentInfo{
		ID:           registry.ComponentID(rel),
		Name:         registry.ComponentName(cleanPath),
		DisplayName:  registry.DisplayName(cleanPath),
		FilePath:     cleanPath,
		RelPath:      filepath.ToSlash(rel),
		LastMod:      info.ModTime(),
		Hash:         Hash(content),
		Blocks:       blocks,
		Functional:   desc.Template != nil && desc.Template.Functional,
		Dependencies: registry.ResolveDependencies(cleanPath, blocks),
	}
	for _, style := range desc.Styles {
		if style.Scoped {
			component.Scoped = true
		}
	}
	for _, perr := range desc.Errors {
		component.Errors = append(component.Errors, perr.Error())
	}

	s.registry.Register(component)
	return nil
}

// RemoveFile drops the component registered for path, if any.
func (s *ComponentScanner) RemoveFile(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	component, ok := s.registry.GetByPath(filepath.Clean(abs))
	if !ok {
		return false
	}
	s.registry.Remove(component.ID)
	return true
}

// Summarize lists the blocks of a descriptor with their per-type indexes.
func Summarize(desc *descriptor.Descriptor) []registry.BlockInfo {
	var blocks []registry.BlockInfo
	add := func(typ string, i int, b *descriptor.Block) {
		blocks = append(blocks, registry.BlockInfo{
			Type:   typ,
			Index:  i,
			Lang:   b.Lang,
			Src:    b.Src,
			Scoped: b.Scoped,
		})
	}

	if desc.Template != nil {
		add("template", 0, desc.Template)
	}
	if desc.Script != nil {
		add("script", 0, desc.Script)
	}
	for i, b := range desc.Styles {
		add("style", i, b)
	}
	for i, b := range desc.CustomBlocks {
		add(b.Type, i, b)
	}

	return blocks
}

// Hash returns the CRC32 content hash used for change detection.
func Hash(content []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(content))
}

// IsComponentFile reports whether path has the component extension.
func IsComponentFile(path string) bool {
	return strings.HasSuffix(path, Extension)
}

// IsExcluded reports whether any element of path relative to the root
// matches an exclude pattern.
func (s *ComponentScanner) IsExcluded(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		for _, pattern := range s.excludes {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}

// validatePath resolves path against the root and rejects anything that
// escapes it.
func (s *ComponentScanner) validatePath(path string) (string, error) {
	absPath := path
	if !filepath.IsAbs(absPath) {
		absPath = filepath.Join(s.root, path)
	}
	absPath = filepath.Clean(absPath)

	rel, err := filepath.Rel(s.root, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside %s", path, s.root)
	}

	return absPath, nil
}
