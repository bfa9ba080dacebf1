package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/sfcloader/internal/config"
	"github.com/conneroisu/sfcloader/internal/errors"
	"github.com/conneroisu/sfcloader/internal/loader"
	"github.com/conneroisu/sfcloader/internal/registry"
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and every component",
	Long: `Check the configuration, then parse every component and compile its
template without writing any output. Warnings are reported but only errors
fail the command.

Examples:
  sfcloader validate
  sfcloader validate --compile=false   # Only parse components
  sfcloader validate -o json`,
	RunE: runValidateCommand,
}

var (
	validateCompile bool
	validateFlags   *OutputFlags
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCompile, "compile", true, "Compile templates")
	validateFlags = AddOutputFlags(validateCmd, "text", "json", "yaml")
}

// ComponentValidation is the validation outcome of one component.
type ComponentValidation struct {
	Component string   `json:"component" yaml:"component"`
	File      string   `json:"file" yaml:"file"`
	Valid     bool     `json:"valid" yaml:"valid"`
	Errors    []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ValidationSummary is the output of the validate command.
type ValidationSummary struct {
	ConfigErrors   []string              `json:"config_errors,omitempty" yaml:"config_errors,omitempty"`
	ConfigWarnings []string              `json:"config_warnings,omitempty" yaml:"config_warnings,omitempty"`
	Total          int                   `json:"total" yaml:"total"`
	Valid          int                   `json:"valid" yaml:"valid"`
	Invalid        int                   `json:"invalid" yaml:"invalid"`
	Results        []ComponentValidation `json:"results" yaml:"results"`
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	// Decode without the load-time validation so every problem is listed.
	var cfg config.Config
	config.SetDefaults(viper.GetViper())
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}

	summary := ValidationSummary{}
	details := config.ValidateConfigWithDetails(&cfg)
	for _, e := range details.Errors {
		summary.ConfigErrors = append(summary.ConfigErrors, e.Error())
	}
	for _, w := range details.Warnings {
		summary.ConfigWarnings = append(summary.ConfigWarnings, w.Error())
	}

	if !details.HasErrors() {
		loaded, logger, err := loadConfig()
		if err != nil {
			return err
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}
		reg, err := scanProject(ctx, loaded, root, logger)
		if err != nil {
			return err
		}

		tl := loader.NewTemplateLoader(loaded.Loader, loader.WithLogger(logger))
		for _, component := range reg.GetAll() {
			result := validateComponent(cmd, tl, loaded, component)
			summary.Results = append(summary.Results, result)
			summary.Total++
			if result.Valid {
				summary.Valid++
			} else {
				summary.Invalid++
			}
		}
	}

	out := cmd.OutOrStdout()
	if validateFlags.Format == "text" {
		outputValidationText(out, summary)
	} else if err := writeStructured(out, validateFlags.Format, summary); err != nil {
		return err
	}

	if len(summary.ConfigErrors) > 0 || summary.Invalid > 0 {
		return fmt.Errorf("validation failed: %d configuration error(s), %d invalid component(s)",
			len(summary.ConfigErrors), summary.Invalid)
	}
	return nil
}

func validateComponent(cmd *cobra.Command, tl *loader.TemplateLoader, cfg *config.Config, component *registry.ComponentInfo) ComponentValidation {
	result := ComponentValidation{
		Component: component.Name,
		File:      component.RelPath,
		Valid:     true,
	}
	result.Errors = append(result.Errors, component.Errors...)

	hasTemplate := false
	for _, b := range component.Blocks {
		if b.Type == "template" {
			hasTemplate = true
		}
	}

	if validateCompile && hasTemplate {
		source, err := os.ReadFile(component.FilePath)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
		} else {
			diagnostics := errors.NewErrorCollector()
			lctx := &loader.Context{
				ResourcePath: component.FilePath,
				Target:       cfg.Target(),
				Production:   cfg.Build.Production,
				Minimize:     cfg.Build.Minimize,
				Diagnostics:  diagnostics,
			}
			template, resourceQuery, err := selectTemplate(lctx, string(source), component.ID)
			if err == nil {
				lctx.ResourceQuery = resourceQuery
				_, err = tl.Load(commandContext(cmd), lctx, template)
			}
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
			}
			for _, d := range diagnostics.GetErrors() {
				if d.Severity >= errors.ErrorSeverityError {
					result.Errors = append(result.Errors, d.Message)
				} else {
					result.Warnings = append(result.Warnings, d.Message)
				}
			}
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func outputValidationText(out io.Writer, summary ValidationSummary) {
	for _, e := range summary.ConfigErrors {
		fmt.Fprintf(out, "config error: %s\n", e)
	}
	for _, w := range summary.ConfigWarnings {
		fmt.Fprintf(out, "config warning: %s\n", w)
	}

	for _, r := range summary.Results {
		status := "ok"
		if !r.Valid {
			status = "FAIL"
		}
		fmt.Fprintf(out, "%-4s %s (%s)\n", status, r.Component, r.File)
		for _, e := range r.Errors {
			fmt.Fprintf(out, "     error: %s\n", e)
		}
		for _, w := range r.Warnings {
			fmt.Fprintf(out, "     warning: %s\n", w)
		}
	}

	fmt.Fprintf(out, "%d components, %d valid, %d invalid\n", summary.Total, summary.Valid, summary.Invalid)
}
