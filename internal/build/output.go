package build

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/sfcloader/internal/errors"
	"github.com/conneroisu/sfcloader/internal/query"
	"github.com/conneroisu/sfcloader/internal/sourcemap"
)

// writeModule writes one request's output and, when source maps are
// enabled and available, its map with a trailing sourceMappingURL comment.
func (bp *BuildPipeline) writeModule(outDir string, req Request, content string, m *sourcemap.Map) ([]string, error) {
	target := filepath.Join(outDir, req.Output)
	written := []string{target}

	if bp.options.SourceMaps && m != nil {
		data, err := m.JSON()
		if err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeInternalError, "encoding source map", err)
		}
		mapPath := target + ".map"
		if err := writeFile(mapPath, string(data)); err != nil {
			return nil, err
		}
		written = append(written, mapPath)
		content = withMapComment(content, req, filepath.Base(mapPath))
	}

	if err := writeFile(target, content); err != nil {
		return nil, err
	}
	return written, nil
}

func withMapComment(content string, req Request, mapName string) string {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	switch req.Type {
	case query.TypeStyle:
		return content + "/*# sourceMappingURL=" + mapName + " */\n"
	case query.TypeScript:
		return content + "//# sourceMappingURL=" + mapName + "\n"
	}
	return content
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewIOError(errors.ErrCodeBuildFailed, "creating output directory", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.NewIOError(errors.ErrCodeBuildFailed, "writing "+path, err)
	}
	return nil
}
