package mobileversion

import (
	"errors"
	"fmt"
	"log/slog"
)

// Result summarizes a run.
type Result struct {
	ReleaseType  ReleaseType
	Synchronized bool
	DryRun       bool
	AndroidFiles []string
	IOSFiles     []string
	// Target is the shared version of a synchronized run, nil otherwise.
	Target  *Target
	Changes []Change
	// Skipped lists files that vanished before rewrite or whose extension
	// has no known layout.
	Skipped   []string
	Committed bool
	Tag       string
}

// UpdatedFiles returns the paths that were (or, for a dry run, would be)
// modified.
func (r Result) UpdatedFiles() []string {
	var files []string
	for _, c := range r.Changes {
		if c.Written || (r.DryRun && len(c.Fields) > 0) {
			files = append(files, c.Path)
		}
	}
	return files
}

// Run locates the configured Android and iOS files and bumps their version
// fields, either each file from its own values or, when SyncAllVersions is
// set, every file to one version derived from the batch-wide maximum.
//
// Any error aborts the remaining batch. A file that disappears between
// discovery and rewrite is logged and skipped.
func Run(cfg Config) (Result, error) {
	return run(cfg, false)
}

// DryRun performs the same discovery and computation as Run and reports
// every change it would make, without writing files or touching git.
func DryRun(cfg Config) (Result, error) {
	return run(cfg, true)
}

func run(cfg Config, dryRun bool) (Result, error) {
	res := Result{
		ReleaseType:  cfg.ReleaseType,
		Synchronized: cfg.SyncAllVersions,
		DryRun:       dryRun,
	}

	// 1. Validate before touching the file system.
	if err := cfg.Validate(); err != nil {
		return res, err
	}
	logger := cfg.logger()
	commit := cfg.Commit && !dryRun
	if commit {
		if err := checkGit(); err != nil {
			return res, err
		}
	}

	// 2. Locate both file sets.
	var err error
	res.AndroidFiles, err = Locate(cfg.AndroidPatterns, cfg.MustMatchSingleResult, logger.With("platform", string(Android)))
	if err != nil {
		return res, err
	}
	res.IOSFiles, err = Locate(cfg.IOSPatterns, cfg.MustMatchSingleResult, logger.With("platform", string(IOS)))
	if err != nil {
		return res, err
	}

	// 3. Nothing to do is a configuration mistake.
	if len(res.AndroidFiles) == 0 && len(res.IOSFiles) == 0 {
		return res, fmt.Errorf("%w: android %v, ios %v", ErrNoMatchingFiles, cfg.AndroidPatterns, cfg.IOSPatterns)
	}

	// 4. Rewrite.
	rw := Rewriter{ReleaseType: cfg.ReleaseType, DryRun: dryRun, Logger: logger}
	if cfg.SyncAllVersions {
		err = synchronize(&res, rw, logger)
	} else {
		err = bumpIndependently(&res, rw, logger)
	}
	if err != nil {
		return res, err
	}

	// 5. Optionally commit.
	if commit {
		if err := commitChanges(&res, cfg, logger); err != nil {
			return res, err
		}
	}
	return res, nil
}

// apply rewrites one file and records the change. A missing file is the only
// error that does not abort the batch.
func apply(res *Result, rw Rewriter, path string, format Format, target *Target, logger *slog.Logger) error {
	change, err := rw.Rewrite(path, format, target)
	if errors.Is(err, ErrFileNotFound) {
		logger.Error("file not found", "file", path)
		res.Skipped = append(res.Skipped, path)
		return nil
	}
	if err != nil {
		return err
	}
	res.Changes = append(res.Changes, change)
	return nil
}

func bumpIndependently(res *Result, rw Rewriter, logger *slog.Logger) error {
	for _, path := range res.AndroidFiles {
		if err := apply(res, rw, path, Android, nil, logger); err != nil {
			return err
		}
	}
	for _, path := range res.IOSFiles {
		if err := apply(res, rw, path, IOS, nil, logger); err != nil {
			return err
		}
	}
	return nil
}

func synchronize(res *Result, rw Rewriter, logger *slog.Logger) error {
	pool := make([]string, 0, len(res.AndroidFiles)+len(res.IOSFiles))
	seen := make(map[string]struct{})
	for _, path := range append(append([]string{}, res.AndroidFiles...), res.IOSFiles...) {
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		pool = append(pool, path)
	}

	var set []Field
	for _, path := range pool {
		fields, err := ExtractFile(path)
		if err != nil {
			return err
		}
		for _, f := range fields {
			logger.Info("added version", "file", f.Path, "field", string(f.Kind), "value", f.Raw)
		}
		set = append(set, fields...)
	}

	target, err := ComputeGlobal(set, rw.ReleaseType)
	if err != nil {
		return err
	}
	res.Target = &target
	logger.Info("computed global version", "counter", target.Counter, "semantic", target.Semantic)

	for _, path := range pool {
		format, ok := FormatForPath(path)
		if !ok {
			logger.Warn("skipping file with unknown extension", "file", path)
			res.Skipped = append(res.Skipped, path)
			continue
		}
		if err := apply(res, rw, path, format, &target, logger); err != nil {
			return err
		}
	}
	return nil
}

func commitChanges(res *Result, cfg Config, logger *slog.Logger) error {
	files := res.UpdatedFiles()
	if len(files) == 0 {
		logger.Info("nothing to commit")
		return nil
	}

	message := fmt.Sprintf("Bump mobile versions (%s)", cfg.ReleaseType)
	var tag string
	if res.Target != nil {
		message = fmt.Sprintf("%s (%d)", res.Target.Semantic, res.Target.Counter)
		if cfg.Tag {
			tag = "v" + res.Target.Semantic
		}
	}
	if err := gitCommit(message, files, tag); err != nil {
		return err
	}
	res.Committed = true
	res.Tag = tag
	logger.Info("committed", "message", message, "tag", tag, "files", files)
	return nil
}
