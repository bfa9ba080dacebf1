package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/sfcloader/internal/loader"
)

// OutputFlags selects how a command prints its result.
type OutputFlags struct {
	Format string
}

// AddOutputFlags adds -o/--output accepting one of formats; the first
// format is the default.
func AddOutputFlags(cmd *cobra.Command, formats ...string) *OutputFlags {
	flags := &OutputFlags{}
	cmd.Flags().StringVarP(&flags.Format, "output", "o", formats[0],
		"Output format ("+strings.Join(formats, "|")+")")
	AddFlagValidation(cmd.Flags(), "output", func(format string) error {
		return ValidateFormatWithSuggestion(format, formats)
	})
	return flags
}

// buildFlagKeys maps build flags to the configuration keys they override.
var buildFlagKeys = map[string]string{
	"output-dir":  "build.output_dir",
	"target":      "build.target",
	"production":  "build.production",
	"minimize":    "build.minimize",
	"source-maps": "build.source_maps",
	"workers":     "build.workers",
}

// addBuildFlags adds the flags overriding the build section of the
// configuration. They are bound to viper by bindBuildFlags.
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().String("output-dir", "dist", "Directory modules are written to")
	cmd.Flags().String("target", string(loader.TargetWeb), "Build target (web, node)")
	cmd.Flags().Bool("production", false, "Production output: no hot reload, no pretty printing")
	cmd.Flags().Bool("minimize", false, "Minimized output, implies production")
	cmd.Flags().Bool("source-maps", true, "Write source maps for script and style blocks")
	cmd.Flags().Int("workers", 4, "Number of build workers")

	AddFlagValidation(cmd.Flags(), "target", ValidateTarget)
}

// bindBuildFlags binds the build flags of cmd. Binding happens when the
// command runs since several commands share the configuration keys.
func bindBuildFlags(cmd *cobra.Command, _ []string) error {
	for name, key := range buildFlagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := viper.BindPFlag(key, flag); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(flags *pflag.FlagSet, flagName string, validator func(string) error) {
	flag := flags.Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:       flag.Value,
		validator:   validator,
		originalSet: flag.Value.Set,
	}
}

type validatingValue struct {
	pflag.Value
	validator   func(string) error
	originalSet func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.originalSet(val)
}

// ValidateFormatWithSuggestion rejects formats not in valid, suggesting
// the closest one.
func ValidateFormatWithSuggestion(format string, valid []string) error {
	lower := strings.ToLower(format)
	for _, v := range valid {
		if lower == v {
			return nil
		}
	}

	msg := fmt.Sprintf("invalid format %q, must be one of: %s", format, strings.Join(valid, ", "))
	if s := suggest(lower, valid); s != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", s)
	}
	return fmt.Errorf("%s", msg)
}

// ValidateTarget accepts the build targets.
func ValidateTarget(target string) error {
	switch loader.Target(target) {
	case loader.TargetWeb, loader.TargetNode:
		return nil
	}
	return fmt.Errorf("invalid target %q, must be %q or %q", target, loader.TargetWeb, loader.TargetNode)
}

// suggest returns the candidate within two edits of s, if any.
func suggest(s string, candidates []string) string {
	best, bestDist := "", 3
	for _, c := range candidates {
		if strings.HasPrefix(c, s) && s != "" {
			return c
		}
		if d := editDistance(s, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// writeStructured prints v as indented JSON or YAML.
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	}
	return fmt.Errorf("unsupported format: %s", format)
}
