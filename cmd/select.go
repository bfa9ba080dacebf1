package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sfcloader/internal/descriptor"
	"github.com/conneroisu/sfcloader/internal/errors"
	"github.com/conneroisu/sfcloader/internal/loader"
	"github.com/conneroisu/sfcloader/internal/query"
)

var selectCmd = &cobra.Command{
	Use:     "select <file.vue>",
	Aliases: []string{"s"},
	Short:   "Print one block of a component",
	Long: `Select a block out of a component the way the block selector serves
bundler requests. Style and custom blocks need --index.

Examples:
  sfcloader select src/App.vue                       # template content
  sfcloader select src/App.vue -t script -o yaml     # script with its source map
  sfcloader select src/App.vue -t style -i 1`,
	Args: cobra.ExactArgs(1),
	RunE: runSelect,
}

var (
	selectType  string
	selectIndex int
	selectMap   bool
	selectFlags *OutputFlags
)

func init() {
	rootCmd.AddCommand(selectCmd)

	selectCmd.Flags().StringVarP(&selectType, "type", "t", query.TypeTemplate, "Block type (template, script, style, custom)")
	selectCmd.Flags().IntVarP(&selectIndex, "index", "i", -1, "Block index for style and custom blocks")
	selectCmd.Flags().BoolVar(&selectMap, "map", true, "Generate source maps for script and style blocks")
	selectFlags = AddOutputFlags(selectCmd, "raw", "yaml", "json")
}

// selection is the structured output of the select command.
type selection struct {
	File    string         `json:"file" yaml:"file"`
	Query   string         `json:"query" yaml:"query"`
	Content string         `json:"content" yaml:"content"`
	Map     map[string]any `json:"map,omitempty" yaml:"map,omitempty"`
}

func runSelect(cmd *cobra.Command, args []string) error {
	_, logger, err := loadConfig()
	if err != nil {
		return err
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	desc := descriptor.Parse(string(source), descriptor.ParseOptions{
		Filename: path,
		NeedMap:  selectMap,
	})

	resourceQuery := "?vue&type=" + query.Escape(selectType)
	if selectIndex >= 0 {
		resourceQuery += "&index=" + strconv.Itoa(selectIndex)
	}
	q, err := query.Parse(resourceQuery)
	if err != nil {
		return err
	}

	lctx := &loader.Context{
		ResourcePath:  path,
		ResourceQuery: resourceQuery,
		Diagnostics:   errors.NewErrorCollector(),
		Logger:        logger,
	}
	res, err := loader.Select(desc, lctx, q)
	if err != nil {
		return err
	}

	if selectFlags.Format == "raw" {
		fmt.Fprint(cmd.OutOrStdout(), res.Content)
		return nil
	}

	out := selection{File: args[0], Query: resourceQuery, Content: res.Content}
	if res.Map != nil {
		data, err := res.Map.JSON()
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &out.Map); err != nil {
			return err
		}
	}
	return writeStructured(cmd.OutOrStdout(), selectFlags.Format, out)
}
