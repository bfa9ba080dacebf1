package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/sfcloader/internal/loader"
	"github.com/conneroisu/sfcloader/internal/server"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Rebuild components as they change",
	Long: `Build every component, then rebuild components whenever they or the files
they reference through src attributes change. With --serve the built modules
are served over HTTP and connected browsers are told to rerender.

Examples:
  sfcloader watch                       # Rebuild on change
  sfcloader watch --serve               # Also serve on development.host:port
  sfcloader watch --serve --port 3000`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindBuildFlags(cmd, args); err != nil {
			return err
		}
		if err := viper.BindPFlag("development.port", cmd.Flags().Lookup("port")); err != nil {
			return err
		}
		return viper.BindPFlag("development.host", cmd.Flags().Lookup("host"))
	},
	RunE: runWatch,
}

var watchServe bool

func init() {
	rootCmd.AddCommand(watchCmd)

	addBuildFlags(watchCmd)
	watchCmd.Flags().BoolVar(&watchServe, "serve", false, "Serve built modules and push reload events")
	watchCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	watchCmd.Flags().String("host", "localhost", "Host to bind to")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	root, err := projectRoot()
	if err != nil {
		return err
	}

	tl := loader.NewTemplateLoader(cfg.Loader, loader.WithLogger(logger))
	srv, err := server.New(cfg, root, tl, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, err, "shutdown failed")
		}
	}()

	if !watchServe {
		return srv.Watch(ctx)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}
