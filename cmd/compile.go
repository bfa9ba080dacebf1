package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sfcloader/internal/build"
	"github.com/conneroisu/sfcloader/internal/descriptor"
	"github.com/conneroisu/sfcloader/internal/engines"
	"github.com/conneroisu/sfcloader/internal/errors"
	"github.com/conneroisu/sfcloader/internal/loader"
	"github.com/conneroisu/sfcloader/internal/query"
	"github.com/conneroisu/sfcloader/internal/registry"
	"github.com/conneroisu/sfcloader/internal/scanner"
)

var compileCmd = &cobra.Command{
	Use:     "compile <file>",
	Aliases: []string{"c"},
	Short:   "Compile a template and print the generated module",
	Long: `Compile the template of a component, or a standalone template file, into
its render module and print it. Diagnostics are written to stderr.

A standalone file is pre-processed by the engine named by --lang, or by its
extension when an engine of that name exists (gotmpl, gohtml, pongo2,
mustache, ...).

Examples:
  sfcloader compile src/App.vue
  sfcloader compile src/App.vue --target node
  sfcloader compile header.mustache --query "?vue&type=template&id=abc&scoped=true"`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

var (
	compileTarget     string
	compileProduction bool
	compileLang       string
	compileQuery      string
)

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVar(&compileTarget, "target", string(loader.TargetWeb), "Build target (web, node)")
	compileCmd.Flags().BoolVar(&compileProduction, "production", false, "Production output")
	compileCmd.Flags().StringVar(&compileLang, "lang", "", "Templating engine for standalone templates")
	compileCmd.Flags().StringVar(&compileQuery, "query", "", "Request query for standalone templates")
	AddFlagValidation(compileCmd.Flags(), "target", ValidateTarget)
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
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

	diagnostics := errors.NewErrorCollector()
	lctx := &loader.Context{
		ResourcePath: path,
		Target:       loader.Target(compileTarget),
		Production:   compileProduction,
		Diagnostics:  diagnostics,
		Logger:       logger,
	}

	id, err := componentID(path)
	if err != nil {
		return err
	}

	var template string
	if scanner.IsComponentFile(path) {
		template, lctx.ResourceQuery, err = selectTemplate(lctx, string(source), id)
		if err != nil {
			return err
		}
	} else {
		template = string(source)
		lctx.ResourceQuery = standaloneQuery(path, id)
	}

	tl := loader.NewTemplateLoader(cfg.Loader, loader.WithLogger(logger))
	code, err := tl.Load(commandContext(cmd), lctx, template)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), code)
	return reportDiagnostics(cmd.ErrOrStderr(), diagnostics)
}

// selectTemplate returns the template content of a component and the
// query the build pipeline would request it with.
func selectTemplate(lctx *loader.Context, source, id string) (string, string, error) {
	desc := descriptor.Parse(source, descriptor.ParseOptions{Filename: lctx.ResourcePath})
	for _, perr := range desc.Errors {
		lctx.EmitWarning(perr.Error())
	}

	for _, req := range build.Requests(desc, id) {
		if req.Type != query.TypeTemplate {
			continue
		}
		q, err := query.Parse(req.Query)
		if err != nil {
			return "", "", err
		}
		res, err := loader.Select(desc, lctx, q)
		if err != nil {
			return "", "", err
		}
		if req.Block.Src != "" {
			content, err := build.ReadSrc(lctx.ResourcePath, req.Block.Src)
			return content, req.Query, err
		}
		return res.Content, req.Query, nil
	}

	return "", "", fmt.Errorf("%s has no template block", lctx.ResourcePath)
}

func standaloneQuery(path, id string) string {
	if compileQuery != "" {
		if !strings.HasPrefix(compileQuery, "?") {
			return "?" + compileQuery
		}
		return compileQuery
	}

	q := "?vue&type=template&id=" + query.Escape(id)
	lang := compileLang
	if lang == "" {
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if engines.Default().Has(ext) {
			lang = ext
		}
	}
	if lang != "" {
		q += "&lang=" + query.Escape(lang)
	}
	return q
}

// componentID derives the scope id from the path relative to the project
// root.
func componentID(path string) (string, error) {
	root, err := projectRoot()
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return registry.ComponentID(rel), nil
}

// reportDiagnostics prints every diagnostic and fails when any of them is
// an error.
func reportDiagnostics(w io.Writer, diagnostics *errors.ErrorCollector) error {
	failed := 0
	for _, d := range diagnostics.GetErrors() {
		fmt.Fprintln(w, d.Error())
		if d.Severity >= errors.ErrorSeverityError {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("template compiled with %d error(s)", failed)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
