package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sfcloader/internal/loader"
)

func loadYAML(t *testing.T, content string) (*Config, error) {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(content)))
	return LoadFrom(v)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NODE_ENV", "")

	config, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, []string{"./src", "./components"}, config.Components.ScanPaths)
	assert.Equal(t, []string{"node_modules", ".git", "*.bak"}, config.Components.ExcludePatterns)
	assert.Equal(t, "dist", config.Build.OutputDir)
	assert.Equal(t, 4, config.Build.Workers)
	assert.Equal(t, loader.TargetWeb, config.Target())
	assert.False(t, config.Build.Production)
	assert.True(t, config.Build.SourceMaps)
	assert.Equal(t, 512, config.Cache.Size)
	assert.Equal(t, 10*time.Minute, config.Cache.TTL)
	assert.Equal(t, "localhost", config.Development.Host)
	assert.Equal(t, 8080, config.Development.Port)
	assert.Equal(t, 100*time.Millisecond, config.Development.Debounce)
	assert.Equal(t, "info", config.Log.Level)
	assert.Nil(t, config.Loader.Transpile)
	assert.Nil(t, config.Loader.HotReload)
}

func TestLoadFromYAML(t *testing.T) {
	t.Setenv("NODE_ENV", "")

	config, err := loadYAML(t, `
components:
  scan_paths: [./app]
build:
  target: node
  workers: 2
  minimize: true
cache:
  ttl: 30s
development:
  port: 3000
loader:
  hotReload: false
  hotReloadApi: my-hot-api
  optimizeSSR: false
  transformAssetUrl:
    img: [src, data-src]
  compilerOptions:
    preserveWhitespace: false
    modules: [strip-test-attrs]
    directives: [t]
  transpile:
    target: es5
  template:
    greeting: hi
`)
	require.NoError(t, err)

	assert.Equal(t, []string{"./app"}, config.Components.ScanPaths)
	assert.Equal(t, loader.TargetNode, config.Target())
	assert.Equal(t, 2, config.Build.Workers)
	assert.True(t, config.Build.Minimize)
	assert.Equal(t, 30*time.Second, config.Cache.TTL)
	assert.Equal(t, 3000, config.Development.Port)

	opts := config.Loader
	require.NotNil(t, opts.HotReload)
	assert.False(t, *opts.HotReload)
	assert.Equal(t, "my-hot-api", opts.HotReloadAPI)
	require.NotNil(t, opts.OptimizeSSR)
	assert.False(t, *opts.OptimizeSSR)
	assert.Equal(t, []string{"src", "data-src"}, opts.TransformAssetURL["img"])
	require.NotNil(t, opts.CompilerOptions.PreserveWhitespace)
	assert.False(t, *opts.CompilerOptions.PreserveWhitespace)
	assert.Equal(t, []string{"strip-test-attrs"}, opts.CompilerOptions.Modules)
	assert.Equal(t, []string{"t"}, opts.CompilerOptions.Directives)
	require.NotNil(t, opts.Transpile)
	assert.Equal(t, "es5", opts.Transpile.Target)
	assert.Equal(t, "hi", opts.Template["greeting"])
}

func TestLoadBubleAlias(t *testing.T) {
	config, err := loadYAML(t, `
loader:
  buble:
    target: es2017
    transforms:
      stripWithFunctional: true
`)
	require.NoError(t, err)
	require.NotNil(t, config.Loader.Transpile)
	assert.Equal(t, "es2017", config.Loader.Transpile.Target)
	assert.True(t, config.Loader.Transpile.Transforms.StripWithFunctional)
}

func TestLoadWithEnvironment(t *testing.T) {
	t.Run("NODE_ENV selects production", func(t *testing.T) {
		t.Setenv("NODE_ENV", "production")
		config, err := LoadFrom(viper.New())
		require.NoError(t, err)
		assert.True(t, config.Build.Production)
	})

	t.Run("explicit setting wins over NODE_ENV", func(t *testing.T) {
		t.Setenv("NODE_ENV", "production")
		v := viper.New()
		v.Set("build.production", false)
		config, err := LoadFrom(v)
		require.NoError(t, err)
		assert.False(t, config.Build.Production)
	})

	t.Run("prefixed variables override defaults", func(t *testing.T) {
		t.Setenv("NODE_ENV", "")
		t.Setenv("SFCLOADER_BUILD_WORKERS", "8")
		v := viper.New()
		v.SetEnvPrefix("SFCLOADER")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		config, err := LoadFrom(v)
		require.NoError(t, err)
		assert.Equal(t, 8, config.Build.Workers)
	})
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"bad target", "build:\n  target: deno\n", "build config"},
		{"bad port", "development:\n  port: 70000\n", "development config"},
		{"bad scan path", "components:\n  scan_paths: ['../../etc']\n", "components config"},
		{"negative cache", "cache:\n  size: -1\n", "cache config"},
		{"unparsable port", "development:\n  port: abc\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := loadYAML(t, tt.content)
			require.Error(t, err)
			assert.Nil(t, config)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidateConfigWithDetails(t *testing.T) {
	dir := t.TempDir()
	on := true

	config := &Config{
		Components:  ComponentsConfig{ScanPaths: []string{dir, "./does-not-exist"}},
		Build:       BuildConfig{Target: "node", Workers: 1, Production: true, SourceMaps: true},
		Development: DevelopmentConfig{Host: "localhost", Port: 80},
		Loader: loader.Options{
			HotReload: &on,
			CompilerOptions: loader.CompilerOptions{
				Modules: []string{"nope"},
			},
		},
	}

	result := ValidateConfigWithDetails(config)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "loader.compilerOptions.modules", result.Errors[0].Field)

	fields := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		fields = append(fields, w.Field)
	}
	assert.ElementsMatch(t, []string{
		"development.port",
		"build.source_maps",
		"components.scan_paths[1]",
		"cache.size",
		"loader.hotReload",
	}, fields)

	out := result.String()
	assert.Contains(t, out, "Validation errors:")
	assert.Contains(t, out, "hint: Available modules: strip-test-attrs")
}

func TestValidateConfigWithDetails_Valid(t *testing.T) {
	config := &Config{
		Components:  ComponentsConfig{ScanPaths: []string{t.TempDir()}},
		Build:       BuildConfig{Target: "web", Workers: 2},
		Cache:       CacheConfig{Size: 16},
		Development: DevelopmentConfig{Host: "127.0.0.1", Port: 8080},
	}

	result := ValidateConfigWithDetails(config)
	assert.True(t, result.Valid)
	assert.False(t, result.HasErrors())
	assert.False(t, result.HasWarnings())
}
