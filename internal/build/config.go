package build

import (
	"path/filepath"

	"github.com/conneroisu/sfcloader/internal/config"
)

// OptionsFromConfig maps the build section of cfg to pipeline options. A
// relative output directory is resolved against root.
func OptionsFromConfig(cfg *config.Config, root string) Options {
	out := cfg.Build.OutputDir
	if out == "" {
		out = "dist"
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(root, out)
	}

	return Options{
		OutputDir:  out,
		Workers:    cfg.Build.Workers,
		Target:     cfg.Target(),
		Production: cfg.Build.Production,
		Minimize:   cfg.Build.Minimize,
		SourceMaps: cfg.Build.SourceMaps,
	}
}

// NewCacheFromConfig returns the cache described by the cache section of
// cfg.
func NewCacheFromConfig(cfg *config.Config) *Cache {
	return NewCache(cfg.Cache.Size, cfg.Cache.TTL)
}
