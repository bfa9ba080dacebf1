package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/conneroisu/sfcloader/internal/config"
	"github.com/conneroisu/sfcloader/internal/logging"
	"github.com/conneroisu/sfcloader/internal/registry"
	"github.com/conneroisu/sfcloader/internal/scanner"
)

// scanProject registers every component under the configured scan paths.
// Missing scan paths are skipped.
func scanProject(ctx context.Context, cfg *config.Config, root string, logger logging.Logger) (*registry.ComponentRegistry, error) {
	reg := registry.NewComponentRegistry()
	sc, err := scanner.NewComponentScanner(reg, root,
		scanner.WithExcludes(cfg.Components.ExcludePatterns),
		scanner.WithWorkers(cfg.Build.Workers),
	)
	if err != nil {
		return nil, err
	}
	defer sc.Close()

	for _, path := range cfg.Components.ScanPaths {
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if _, err := os.Stat(path); err != nil {
			logger.Debug(ctx, "skipping missing scan path", "path", path)
			continue
		}
		if err := sc.ScanDirectory(ctx, path); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn(ctx, err, "failed to scan directory", "path", path)
		}
	}

	return reg, nil
}
