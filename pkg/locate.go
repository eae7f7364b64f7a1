package mobileversion

import (
	"log/slog"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Locate expands each glob pattern into the regular files it matches.
// Patterns support "**" for recursive matching. When requireSingleMatch is
// set, a pattern matching more than one file fails with *MultipleMatchError.
// A pattern matching nothing is logged and contributes no paths. Paths
// matched by more than one pattern are returned once.
func Locate(patterns []string, requireSingleMatch bool, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("provided path(s)", "patterns", patterns)

	var matching []string
	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePathPattern(filepath.FromSlash(pattern)) {
			return nil, configErrorf("invalid glob pattern %q", pattern)
		}
		files, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, configErrorf("expanding %q: %v", pattern, err)
		}

		if requireSingleMatch && len(files) > 1 {
			return nil, &MultipleMatchError{Pattern: pattern, Count: len(files)}
		}
		if len(files) == 0 {
			logger.Info("no files found", "pattern", pattern)
			continue
		}

		logger.Info("found matching file(s)", "pattern", pattern, "files", files)
		for _, f := range files {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			matching = append(matching, f)
		}
	}
	return matching, nil
}
