// Package config loads sfcloader configuration using Viper from a YAML file,
// SFCLOADER_ environment variables and command-line flags.
//
// The loader section is decoded into loader.Options, so keys such as
// loader.compilerOptions.preserveWhitespace or loader.transpile.target
// configure the template loader directly. loader.buble is accepted as an
// alias of loader.transpile.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/sfcloader/internal/loader"
)

type Config struct {
	Components  ComponentsConfig  `mapstructure:"components" yaml:"components"`
	Build       BuildConfig       `mapstructure:"build" yaml:"build"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Development DevelopmentConfig `mapstructure:"development" yaml:"development"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
	Loader      loader.Options    `mapstructure:"loader" yaml:"loader"`
	TargetFiles []string          `mapstructure:"-" yaml:"-"` // CLI arguments, not from config file
}

type ComponentsConfig struct {
	ScanPaths       []string `mapstructure:"scan_paths" yaml:"scan_paths"`
	ExcludePatterns []string `mapstructure:"exclude_patterns" yaml:"exclude_patterns"`
}

type BuildConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Workers   int    `mapstructure:"workers" yaml:"workers"`
	// Target is "web" or "node".
	Target     string `mapstructure:"target" yaml:"target"`
	Production bool   `mapstructure:"production" yaml:"production"`
	Minimize   bool   `mapstructure:"minimize" yaml:"minimize"`
	SourceMaps bool   `mapstructure:"source_maps" yaml:"source_maps"`
}

type CacheConfig struct {
	Size int           `mapstructure:"size" yaml:"size"`
	TTL  time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type DevelopmentConfig struct {
	Host           string        `mapstructure:"host" yaml:"host"`
	Port           int           `mapstructure:"port" yaml:"port"`
	Debounce       time.Duration `mapstructure:"debounce" yaml:"debounce"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("components.scan_paths", []string{"./src", "./components"})
	v.SetDefault("components.exclude_patterns", []string{"node_modules", ".git", "*.bak"})
	v.SetDefault("build.output_dir", "dist")
	v.SetDefault("build.workers", 4)
	v.SetDefault("build.target", string(loader.TargetWeb))
	v.SetDefault("build.source_maps", true)
	v.SetDefault("cache.size", 512)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("development.host", "localhost")
	v.SetDefault("development.port", 8080)
	v.SetDefault("development.debounce", 100*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v. NODE_ENV=production selects
// production builds unless build.production is set explicitly.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	if v.IsSet("loader.buble") && !v.IsSet("loader.transpile") {
		v.Set("loader.transpile", v.Get("loader.buble"))
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle scan_paths set via viper (workaround for viper slice handling)
	if len(config.Components.ScanPaths) == 0 {
		config.Components.ScanPaths = v.GetStringSlice("components.scan_paths")
	}

	if !v.IsSet("build.production") && os.Getenv("NODE_ENV") == "production" {
		config.Build.Production = true
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Target returns the configured build target.
func (c *Config) Target() loader.Target {
	return loader.Target(c.Build.Target)
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateBuildConfig(&config.Build); err != nil {
		return fmt.Errorf("build config: %w", err)
	}

	if err := validateComponentsConfig(&config.Components); err != nil {
		return fmt.Errorf("components config: %w", err)
	}

	if err := validateDevelopmentConfig(&config.Development); err != nil {
		return fmt.Errorf("development config: %w", err)
	}

	if config.Cache.Size < 0 {
		return fmt.Errorf("cache config: size %d must not be negative", config.Cache.Size)
	}

	return nil
}

// validateDevelopmentConfig validates dev server configuration values
func validateDevelopmentConfig(config *DevelopmentConfig) error {
	// Validate port range (allow 0 for system-assigned ports in testing)
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			return err
		}
	}

	if config.Debounce < 0 {
		return fmt.Errorf("debounce %s must not be negative", config.Debounce)
	}

	return nil
}

// validateBuildConfig validates build configuration values
func validateBuildConfig(config *BuildConfig) error {
	switch loader.Target(config.Target) {
	case loader.TargetWeb, loader.TargetNode:
	default:
		return fmt.Errorf("target %q must be %q or %q", config.Target, loader.TargetWeb, loader.TargetNode)
	}

	if config.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", config.Workers)
	}

	if config.OutputDir != "" {
		if err := validatePath(config.OutputDir); err != nil {
			return fmt.Errorf("invalid output_dir '%s': %w", config.OutputDir, err)
		}
	}

	return nil
}

// validateComponentsConfig validates components configuration values
func validateComponentsConfig(config *ComponentsConfig) error {
	for _, path := range config.ScanPaths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid scan path '%s': %w", path, err)
		}
	}

	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	// Clean the path
	cleanPath := filepath.Clean(path)

	// Reject path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	// Reject dangerous characters
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}
