// Package cmd provides the sfcloader command-line interface.
//
// Configuration is read, highest priority first, from command-line flags,
// SFCLOADER_<SECTION>_<OPTION> environment variables and the configuration
// file: --config, else SFCLOADER_CONFIG_FILE, else .sfcloader.yml in the
// current directory.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/sfcloader/internal/config"
	"github.com/conneroisu/sfcloader/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sfcloader",
	Short: "Build single-file components into render modules",
	Long: `sfcloader selects the blocks of single-file components (.vue files) and
compiles their templates into render functions, with optional template
pre-processing and hot reload.

Quick Start:
  sfcloader list                  List discovered components
  sfcloader compile App.vue       Print the compiled template module
  sfcloader select App.vue -t script
  sfcloader build                 Build every component into build.output_dir
  sfcloader watch --serve         Rebuild on change and push reloads to browsers`,
	SilenceUsage: true,
}

// Execute runs the root command. Cancelling ctx stops long running
// commands such as watch.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .sfcloader.yml, can also use SFCLOADER_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	AddFlagValidation(rootCmd.PersistentFlags(), "log-level", func(level string) error {
		_, err := logging.ParseLevel(level)
		return err
	})
	AddFlagValidation(rootCmd.PersistentFlags(), "log-format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"text", "json"})
	})
}

// initConfig points viper at the configuration file and environment.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("SFCLOADER_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sfcloader")
	}

	viper.SetEnvPrefix("SFCLOADER")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing file leaves the defaults in place.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads the configuration and the logger it describes.
func loadConfig() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	return cfg, logger, nil
}

// projectRoot is the directory relative scan paths resolve against.
func projectRoot() (string, error) {
	root, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return root, nil
}
