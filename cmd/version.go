package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sfcloader/internal/version"
)

var (
	versionFlags *OutputFlags
	versionShort bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display the sfcloader version, commit, build time, Go version and platform.

Examples:
  sfcloader version              # Detailed version info
  sfcloader version --short      # Version only
  sfcloader version -o json      # Output as JSON`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionFlags = AddOutputFlags(versionCmd, "text", "json", "yaml")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if versionFlags.Format != "text" {
		return writeStructured(out, versionFlags.Format, version.GetBuildInfo())
	}

	if versionShort {
		fmt.Fprintln(out, version.GetShortVersion())
		return nil
	}

	fmt.Fprintln(out, version.GetDetailedVersion())
	if version.IsRelease() {
		fmt.Fprintln(out, "Build type: release")
	} else {
		fmt.Fprintln(out, "Build type: development")
	}
	return nil
}
