package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/boardpack/pkg/errors"
)

// outputBase strips the extension (and a ".layout" suffix) from input.
func outputBase(input string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return strings.TrimSuffix(base, ".layout")
}

// artifactPath picks where one format is written: output itself when it is
// the only format, otherwise "<base>.<format>" with base taken from output
// (or the input when output is empty).
func artifactPath(input, output, format string, single bool) string {
	if output != "" && single {
		return output
	}
	base := outputBase(input)
	if output != "" {
		base = strings.TrimSuffix(output, filepath.Ext(output))
	}
	return base + "." + format
}

// writeArtifacts writes every rendered format and returns the paths in
// format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			continue
		}
		path := artifactPath(input, output, f, len(formats) == 1)
		if err := errors.ValidateOutputPath(path); err != nil {
			return paths, err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
