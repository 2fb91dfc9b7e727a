package compile

import (
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"tcss/config"
	"tcss/source"
	"tcss/state"
)

// buildOutputPath returns constructed output file path/name based on various
// input parameters. It uses either default naming scheme or user-defined
// template and keeps relative directory of the source on the output.
func buildOutputPath(src *source.Source, hash, rel, dst string, env *state.LocalEnv) string {
	outDir := filepath.Join(dst, rel)
	format := env.Cfg.Compiler.Format
	defaultFile := config.CleanFileName(slug.Make(src.Name())) + format.Ext()

	if env.Cfg.Compiler.OutputNameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expandedName, err := expandTemplate(config.OutputNameTemplateFieldName, env.Cfg.Compiler.OutputNameTemplate, Values{
		Name:   slug.Make(src.Name()),
		Source: src.Name(),
		Hash:   hash,
		Format: string(format),
	})
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return filepath.Join(outDir, defaultFile)
	}

	segments := splitPath(expandedName)
	if len(segments) == 0 {
		// fallback to default name if template expanded to nothing
		return filepath.Join(outDir, defaultFile)
	}
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, outDir)
	for _, segment := range segments {
		parts = append(parts, config.CleanFileName(segment))
	}
	parts[len(parts)-1] += format.Ext()
	return filepath.Join(parts...)
}

// splitPath splits expanded template into path segments, dropping empty and
// relative ones so output cannot escape destination directory.
func splitPath(path string) []string {
	var segments []string
	for segment := range strings.SplitSeq(filepath.ToSlash(strings.TrimSpace(path)), "/") {
		segment = strings.TrimSpace(segment)
		if segment == "" || segment == "." || segment == ".." {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}
