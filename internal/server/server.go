// Package server runs the watch-mode development server. It rebuilds
// components as their files change and pushes reload events to connected
// browsers over a websocket.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/sfcloader/internal/build"
	"github.com/conneroisu/sfcloader/internal/config"
	"github.com/conneroisu/sfcloader/internal/errors"
	"github.com/conneroisu/sfcloader/internal/hotreload"
	"github.com/conneroisu/sfcloader/internal/loader"
	"github.com/conneroisu/sfcloader/internal/logging"
	"github.com/conneroisu/sfcloader/internal/registry"
	"github.com/conneroisu/sfcloader/internal/scanner"
	"github.com/conneroisu/sfcloader/internal/watcher"
)

// Client represents a WebSocket client
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *DevServer
}

// DevServer serves built modules with live reload
type DevServer struct {
	config      *config.Config
	root        string
	logger      logging.Logger
	httpServer  *http.Server
	serverMutex sync.RWMutex

	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *websocket.Conn
	done         chan struct{}

	registry *registry.ComponentRegistry
	deps     *registry.DependencyAnalyzer
	scanner  *scanner.ComponentScanner
	watcher  *watcher.FileWatcher
	pipeline *build.BuildPipeline

	// lastErrors holds the messages of the latest failed build per component id.
	lastErrors  map[string][]string
	errorsMutex sync.RWMutex

	shutdownOnce sync.Once
}

// New creates a dev server for the project at root, building components
// with tl.
func New(cfg *config.Config, root string, tl *loader.TemplateLoader, logger logging.Logger) (*DevServer, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	reg := registry.NewComponentRegistry()
	sc, err := scanner.NewComponentScanner(reg, absRoot,
		scanner.WithExcludes(cfg.Components.ExcludePatterns),
		scanner.WithWorkers(cfg.Build.Workers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	fileWatcher, err := watcher.NewFileWatcher(absRoot, cfg.Development.Debounce, logger)
	if err != nil {
		sc.Close()
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	pipeline := build.NewBuildPipeline(build.OptionsFromConfig(cfg, absRoot), tl,
		build.WithCache(build.NewCacheFromConfig(cfg)),
		build.WithLogger(logger),
	)

	return &DevServer{
		config:     cfg,
		root:       absRoot,
		logger:     logger.WithComponent("server"),
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		registry:   reg,
		deps:       registry.NewDependencyAnalyzer(reg),
		scanner:    sc,
		watcher:    fileWatcher,
		pipeline:   pipeline,
		lastErrors: make(map[string][]string),
	}, nil
}

// Registry returns the registry of discovered components.
func (s *DevServer) Registry() *registry.ComponentRegistry {
	return s.registry
}

// Addr returns the configured listen address.
func (s *DevServer) Addr() string {
	return net.JoinHostPort(s.config.Development.Host, strconv.Itoa(s.config.Development.Port))
}

// Start scans and builds every component, then watches for changes and
// serves until ctx is cancelled or the server is shut down.
func (s *DevServer) Start(ctx context.Context) error {
	if err := s.prepare(ctx); err != nil {
		return err
	}

	addr := s.Addr()
	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "dev server listening", "addr", "http://"+addr)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Watch is Start without the HTTP server: components are rebuilt as they
// change until ctx is cancelled.
func (s *DevServer) Watch(ctx context.Context) error {
	if err := s.prepare(ctx); err != nil {
		return err
	}
	s.logger.Info(ctx, "watching for changes")

	select {
	case <-ctx.Done():
	case <-s.done:
	}
	return nil
}

func (s *DevServer) prepare(ctx context.Context) error {
	if err := s.initialBuild(ctx); err != nil {
		return err
	}

	s.pipeline.AddCallback(s.handleBuildResult)
	s.pipeline.Start(ctx)

	go s.runWebSocketHub(ctx)

	return s.setupFileWatcher(ctx)
}

// Handler returns the HTTP routes of the server.
func (s *DevServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc(hotreload.ClientPath, s.handleClientScript)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/components", s.handleComponents)
	mux.HandleFunc("/components/", s.handleComponent)
	mux.HandleFunc("/api/build/metrics", s.handleBuildMetrics)
	mux.HandleFunc("/api/build/errors", s.handleBuildErrors)
	mux.HandleFunc("/api/build/cache", s.handleBuildCache)
	mux.Handle("/", http.FileServer(http.Dir(s.pipeline.Options().OutputDir)))

	return s.addMiddleware(mux)
}

// scanPaths returns the configured scan paths that exist, resolved
// against the root.
func (s *DevServer) scanPaths() []string {
	var paths []string
	for _, p := range s.config.Components.ScanPaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(s.root, p)
		}
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			s.logger.Debug(context.Background(), "skipping missing scan path", "path", p)
			continue
		}
		paths = append(paths, filepath.Clean(p))
	}
	return paths
}

func (s *DevServer) initialBuild(ctx context.Context) error {
	for _, dir := range s.scanPaths() {
		if err := s.scanner.ScanDirectory(ctx, dir); err != nil {
			// Broken components are reported by the build, keep going.
			s.logger.Warn(ctx, err, "scan failed", "path", dir)
		}
	}

	components := s.registry.GetAll()
	failed := 0
	for _, result := range s.pipeline.BuildAll(ctx, components) {
		if result.HasErrors() {
			failed++
			s.recordErrors(result)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Info(ctx, "initial build complete", "components", len(components), "failed", failed)
	return nil
}

func (s *DevServer) setupFileWatcher(ctx context.Context) error {
	outDir := s.pipeline.Options().OutputDir

	s.watcher.AddFilter(watcher.NoGitFilter)
	s.watcher.AddFilter(watcher.ExcludeFilter(s.config.Components.ExcludePatterns))
	s.watcher.AddFilter(func(path string) bool {
		return !within(outDir, path)
	})
	s.watcher.AddHandler(s.handleFileChange)

	for _, path := range s.scanPaths() {
		if err := s.watcher.AddRecursive(path); err != nil {
			s.logger.Warn(ctx, err, "failed to watch path", "path", path)
		}
	}

	return s.watcher.Start(ctx)
}

// within reports whether path is dir or inside it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// handleFileChange rescans changed components and queues their rebuild.
// Changes to other files rebuild the components that reference them
// through a src attribute.
func (s *DevServer) handleFileChange(events []watcher.ChangeEvent) error {
	ctx := context.Background()
	rebuild := make(map[string]*registry.ComponentInfo)

	for _, event := range events {
		s.logger.Debug(ctx, "file changed", "path", event.Path, "type", event.Type.String())

		if scanner.IsComponentFile(event.Path) {
			if event.Gone() {
				s.removeComponent(event.Path)
				continue
			}
			if err := s.scanner.ScanFile(event.Path); err != nil {
				s.logger.Warn(ctx, err, "failed to rescan file", "path", event.Path)
				continue
			}
			if component, ok := s.registry.GetByPath(filepath.Clean(event.Path)); ok {
				rebuild[component.ID] = component
			}
			continue
		}

		for _, component := range s.deps.GetDependents(event.Path) {
			rebuild[component.ID] = component
		}
	}

	for _, component := range rebuild {
		s.pipeline.BuildWithPriority(component)
	}

	return nil
}

func (s *DevServer) removeComponent(path string) {
	component, ok := s.registry.GetByPath(filepath.Clean(path))
	if !ok {
		return
	}
	if err := s.pipeline.RemoveOutputs(component); err != nil {
		s.logger.Warn(context.Background(), err, "failed to remove outputs", "component", component.Name)
	}
	s.scanner.RemoveFile(path)
	s.clearErrors(component.ID)

	event := hotreload.NewEvent(hotreload.EventRemoved, component.RelPath)
	event.ID = component.ID
	event.Component = component.Name
	s.broadcastEvent(event)
}

// handleBuildResult turns a finished build into a reload event.
func (s *DevServer) handleBuildResult(result build.BuildResult) {
	component := result.Component
	event := hotreload.NewEvent(hotreload.EventReload, component.RelPath)
	event.ID = component.ID
	event.Component = component.Name

	if result.HasErrors() {
		event.Type = hotreload.EventError
		event.Errors = s.recordErrors(result)
		s.broadcastEvent(event)
		return
	}

	s.clearErrors(component.ID)
	if module := s.templateModule(result); module != "" {
		event.Type = hotreload.EventRerender
		event.Module = module
	}
	s.broadcastEvent(event)
}

// templateModule returns the slash path, relative to the output directory,
// of the template module written by result.
func (s *DevServer) templateModule(result build.BuildResult) string {
	outDir := s.pipeline.Options().OutputDir
	for _, m := range result.Modules {
		if filepath.Base(m) != "template.js" {
			continue
		}
		rel, err := filepath.Rel(outDir, m)
		if err != nil {
			return ""
		}
		return filepath.ToSlash(rel)
	}
	return ""
}

func (s *DevServer) recordErrors(result build.BuildResult) []string {
	var messages []string
	if result.Error != nil {
		messages = append(messages, result.Error.Error())
	}
	for i := range result.Diagnostics {
		d := &result.Diagnostics[i]
		if d.Severity >= errors.ErrorSeverityError {
			messages = append(messages, d.Error())
		}
	}

	s.errorsMutex.Lock()
	s.lastErrors[result.Component.ID] = messages
	s.errorsMutex.Unlock()

	s.logger.Error(context.Background(), result.Error, "build failed",
		"component", result.Component.Name, "errors", len(messages))
	return messages
}

func (s *DevServer) clearErrors(id string) {
	s.errorsMutex.Lock()
	delete(s.lastErrors, id)
	s.errorsMutex.Unlock()
}

// LastErrors returns the messages of the latest failed build per component
// id.
func (s *DevServer) LastErrors() map[string][]string {
	s.errorsMutex.RLock()
	defer s.errorsMutex.RUnlock()

	out := make(map[string][]string, len(s.lastErrors))
	for id, messages := range s.lastErrors {
		out[id] = append([]string(nil), messages...)
	}
	return out
}

func (s *DevServer) broadcastEvent(event hotreload.ReloadEvent) {
	data, err := event.Marshal()
	if err != nil {
		s.logger.Error(context.Background(), err, "failed to marshal reload event")
		return
	}

	select {
	case s.broadcast <- data:
	case <-s.done:
	}
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *DevServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "shutting down dev server")
		close(s.done)

		s.pipeline.Stop()
		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn(ctx, err, "failed to stop watcher")
		}
		s.scanner.Close()

		s.clientsMutex.Lock()
		for conn, client := range s.clients {
			close(client.send)
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}
		s.clients = make(map[*websocket.Conn]*Client)
		s.clientsMutex.Unlock()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()
		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}
