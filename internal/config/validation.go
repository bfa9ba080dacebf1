package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"

	"github.com/conneroisu/sfcloader/internal/transforms"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateDevelopmentConfigDetails(&config.Development, result)
	validateBuildConfigDetails(&config.Build, result)
	validateComponentsConfigDetails(&config.Components, result)
	validateCacheConfigDetails(&config.Cache, result)
	validateLoaderConfigDetails(config, result)

	result.Valid = !result.HasErrors()

	return result
}

func validateDevelopmentConfigDetails(config *DevelopmentConfig, result *ValidationResult) {
	if config.Port < 0 || config.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "development.port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			Suggestions: []string{
				"Use a port between 1024-65535 for non-privileged access",
				"Port 0 allows system to assign an available port",
			},
		})
	} else if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "development.port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
			Suggestions: []string{
				"Consider using a port above 1024 for development",
			},
		})
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "development.host",
				Value:   config.Host,
				Message: err.Error(),
				Suggestions: []string{
					"Use 'localhost' for local development",
					"Use '0.0.0.0' to bind to all interfaces",
				},
			})
		}
	}
}

func validateBuildConfigDetails(config *BuildConfig, result *ValidationResult) {
	if err := validateBuildConfig(config); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "build",
			Value:   *config,
			Message: err.Error(),
			Suggestions: []string{
				"build.target accepts 'web' (browser bundles) or 'node' (server rendering)",
				"build.workers should be at least 1",
			},
		})
	}

	if (config.Production || config.Minimize) && config.SourceMaps {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "build.source_maps",
			Value:   config.SourceMaps,
			Message: "source maps are emitted for production builds",
			Suggestions: []string{
				"Set build.source_maps to false to keep block sources out of production output",
			},
		})
	}
}

func validateComponentsConfigDetails(config *ComponentsConfig, result *ValidationResult) {
	if len(config.ScanPaths) == 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "components.scan_paths",
			Message: "no scan paths configured",
			Suggestions: []string{
				"Add the directories holding .vue files, e.g. './src'",
			},
		})
	}

	for i, path := range config.ScanPaths {
		if err := validatePath(path); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   fmt.Sprintf("components.scan_paths[%d]", i),
				Value:   path,
				Message: err.Error(),
			})
			continue
		}
		if !pathExists(path) {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   fmt.Sprintf("components.scan_paths[%d]", i),
				Value:   path,
				Message: "scan path does not exist",
				Suggestions: []string{
					"Create the directory or remove it from components.scan_paths",
				},
			})
		}
	}
}

func validateCacheConfigDetails(config *CacheConfig, result *ValidationResult) {
	if config.Size < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "cache.size",
			Value:   config.Size,
			Message: "cache size must not be negative",
		})
	} else if config.Size == 0 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "cache.size",
			Value:   config.Size,
			Message: "module cache is disabled",
			Suggestions: []string{
				"Set cache.size to keep compiled modules between rebuilds in watch mode",
			},
		})
	}
}

func validateLoaderConfigDetails(config *Config, result *ValidationResult) {
	opts := config.Loader

	if _, err := transforms.Modules(opts.CompilerOptions.Modules); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "loader.compilerOptions.modules",
			Value:   opts.CompilerOptions.Modules,
			Message: err.Error(),
			Suggestions: []string{
				"Available modules: " + strings.Join(transforms.ModuleNames(), ", "),
			},
		})
	}

	if _, err := transforms.Directives(opts.CompilerOptions.Directives); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "loader.compilerOptions.directives",
			Value:   opts.CompilerOptions.Directives,
			Message: err.Error(),
		})
	}

	if opts.HotReload != nil && *opts.HotReload && config.Target() == "node" {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "loader.hotReload",
			Value:   true,
			Message: "hot reload is never injected for node targets",
		})
	}
}

// Helper validation functions

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

func validateHostname(host string) error {
	// Check for dangerous characters
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("host contains dangerous character: %s", char)
		}
	}

	// Check if it's a valid IP address
	if net.ParseIP(host) != nil {
		return nil
	}

	if host == "localhost" {
		return nil
	}

	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}

	return nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
