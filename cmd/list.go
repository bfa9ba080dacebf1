package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sfcloader/internal/registry"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List all discovered components",
	Long: `List the components found under components.scan_paths with their blocks.

Examples:
  sfcloader list                  # Table of components
  sfcloader list -o yaml          # Full metadata as YAML
  sfcloader list -d               # Include files referenced through src`,
	RunE: runList,
}

var (
	listFlags    *OutputFlags
	listWithDeps bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listFlags = AddOutputFlags(listCmd, "table", "json", "yaml")
	listCmd.Flags().BoolVarP(&listWithDeps, "with-deps", "d", false, "Include component dependencies")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	root, err := projectRoot()
	if err != nil {
		return err
	}

	reg, err := scanProject(commandContext(cmd), cfg, root, logger)
	if err != nil {
		return err
	}

	components := reg.GetAll()
	out := cmd.OutOrStdout()
	if len(components) == 0 && listFlags.Format == "table" {
		fmt.Fprintln(out, "No components found.")
		return nil
	}

	if !listWithDeps {
		trimmed := make([]*registry.ComponentInfo, len(components))
		for i, c := range components {
			copied := *c
			copied.Dependencies = nil
			trimmed[i] = &copied
		}
		components = trimmed
	}

	if listFlags.Format == "table" {
		return outputTable(out, components)
	}
	return writeStructured(out, listFlags.Format, components)
}

func outputTable(out io.Writer, components []*registry.ComponentInfo) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	header := "NAME\tID\tPATH\tBLOCKS"
	if listWithDeps {
		header += "\tDEPENDENCIES"
	}
	fmt.Fprintln(w, header)

	for _, c := range components {
		blocks := make([]string, len(c.Blocks))
		for i, b := range c.Blocks {
			blocks[i] = b.Type
			if b.Lang != "" {
				blocks[i] += ":" + b.Lang
			}
		}
		row := fmt.Sprintf("%s\t%s\t%s\t%s", c.DisplayName, c.ID, c.RelPath, strings.Join(blocks, ","))
		if listWithDeps {
			row += "\t" + strings.Join(c.Dependencies, ",")
		}
		fmt.Fprintln(w, row)
	}

	return w.Flush()
}
