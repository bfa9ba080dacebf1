package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sfcloader/internal/build"
	"github.com/conneroisu/sfcloader/internal/loader"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Build all components",
	Long: `Build every component found under components.scan_paths. Each component
gets a directory in the output directory holding one module per block, the
source maps of script and style blocks and an index.js entry module.

Examples:
  sfcloader build                       # Build with the configured settings
  sfcloader build --production          # No hot reload, compact output
  sfcloader build --target node --clean # Server build into a fresh directory`,
	PreRunE: bindBuildFlags,
	RunE:    runBuild,
}

var buildClean bool

func init() {
	rootCmd.AddCommand(buildCmd)

	addBuildFlags(buildCmd)
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "Remove the output directory before building")
}

func runBuild(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := commandContext(cmd)

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	root, err := projectRoot()
	if err != nil {
		return err
	}

	opts := build.OptionsFromConfig(cfg, root)
	if buildClean {
		if err := os.RemoveAll(opts.OutputDir); err != nil {
			return fmt.Errorf("failed to clean %s: %w", opts.OutputDir, err)
		}
	}

	reg, err := scanProject(ctx, cfg, root, logger)
	if err != nil {
		return err
	}
	components := reg.GetAll()
	out := cmd.OutOrStdout()
	if len(components) == 0 {
		fmt.Fprintln(out, "No components found to build.")
		return nil
	}

	tl := loader.NewTemplateLoader(cfg.Loader, loader.WithLogger(logger))
	pipeline := build.NewBuildPipeline(opts, tl,
		build.WithCache(build.NewCacheFromConfig(cfg)),
		build.WithLogger(logger),
	)

	failed := 0
	for _, result := range pipeline.BuildAll(ctx, components) {
		if !result.HasErrors() {
			continue
		}
		failed++
		if result.Error != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", result.Component.RelPath, result.Error)
		}
		for i := range result.Diagnostics {
			fmt.Fprintln(cmd.ErrOrStderr(), result.Diagnostics[i].Error())
		}
	}

	metrics := pipeline.GetMetrics()
	fmt.Fprintf(out, "Built %d components (%d modules) into %s in %v\n",
		len(components), metrics.ModulesWritten, opts.OutputDir, time.Since(start).Round(time.Millisecond))

	if failed > 0 {
		return fmt.Errorf("%d of %d components failed to build", failed, len(components))
	}
	return nil
}
