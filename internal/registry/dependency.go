package registry

import (
	"path/filepath"
	"sort"
)

// DependencyAnalyzer answers which components reference a given file
// through a block src attribute.
type DependencyAnalyzer struct {
	registry *ComponentRegistry
}

// NewDependencyAnalyzer creates a new dependency analyzer
func NewDependencyAnalyzer(registry *ComponentRegistry) *DependencyAnalyzer {
	return &DependencyAnalyzer{
		registry: registry,
	}
}

// ResolveDependencies returns the cleaned paths of the external files a
// component's blocks reference, relative paths being resolved against the
// component's directory.
func ResolveDependencies(componentPath string, blocks []BlockInfo) []string {
	seen := make(map[string]bool)
	var deps []string
	dir := filepath.Dir(componentPath)

	for _, b := range blocks {
		if b.Src == "" {
			continue
		}
		dep := b.Src
		if !filepath.IsAbs(dep) {
			dep = filepath.Join(dir, dep)
		}
		dep = filepath.Clean(dep)
		if !seen[dep] {
			seen[dep] = true
			deps = append(deps, dep)
		}
	}

	sort.Strings(deps)
	return deps
}

// GetDependents returns components that reference path
func (da *DependencyAnalyzer) GetDependents(path string) []*ComponentInfo {
	var dependents []*ComponentInfo
	path = filepath.Clean(path)

	for _, component := range da.registry.GetAll() {
		for _, dep := range component.Dependencies {
			if dep == path {
				dependents = append(dependents, component)
				break
			}
		}
	}

	return dependents
}

// GetDependencyGraph maps component ids to the files they reference
func (da *DependencyAnalyzer) GetDependencyGraph() map[string][]string {
	graph := make(map[string][]string)

	da.registry.mutex.RLock()
	defer da.registry.mutex.RUnlock()

	for id, component := range da.registry.components {
		graph[id] = make([]string, len(component.Dependencies))
		copy(graph[id], component.Dependencies)
	}

	return graph
}
