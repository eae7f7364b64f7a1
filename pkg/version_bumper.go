package mobileversion

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// FieldKind identifies one of the four version fields.
type FieldKind string

const (
	AndroidCode FieldKind = "versionCode"
	AndroidName FieldKind = "versionName"
	IOSBuild    FieldKind = "CFBundleVersion"
	IOSShort    FieldKind = "CFBundleShortVersionString"
)

// IsCounter reports whether the field holds an integer build counter rather
// than a semantic version.
func (k FieldKind) IsCounter() bool {
	return k == AndroidCode || k == IOSBuild
}

// Format is the field layout of a file.
type Format string

const (
	Android Format = "android"
	IOS     Format = "ios"
)

// FormatForPath picks the format from the file extension: .xml is Android,
// .plist is iOS. The bool is false for any other extension.
func FormatForPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return Android, true
	case ".plist":
		return IOS, true
	}
	return "", false
}

// VersionPattern matches one field kind. Group 1 is everything before the
// value, group 2 the value and group 3 the closing delimiter. Android
// attributes must be unprefixed or in the android namespace, so tools:versionCode
// and similar never match.
type VersionPattern struct {
	Kind    FieldKind
	Pattern *regexp.Regexp
}

// FieldPatterns holds the patterns in extraction order.
var FieldPatterns = []VersionPattern{
	{
		Kind:    AndroidCode,
		Pattern: regexp.MustCompile(`((?:^|[\s<])(?:android:)?versionCode\s*=\s*")(\d+)(")`),
	},
	{
		Kind:    AndroidName,
		Pattern: regexp.MustCompile(`((?:^|[\s<])(?:android:)?versionName\s*=\s*")([^"]+)(")`),
	},
	{
		Kind:    IOSBuild,
		Pattern: regexp.MustCompile(`(<key>CFBundleVersion</key>\s*<string>)(\d+)(</string>)`),
	},
	{
		Kind:    IOSShort,
		Pattern: regexp.MustCompile(`(<key>CFBundleShortVersionString</key>\s*<string>)([^<]+)(</string>)`),
	},
}

// formatFields lists the fields the rewriter touches for each format.
var formatFields = map[Format][]FieldKind{
	Android: {AndroidCode, AndroidName},
	IOS:     {IOSShort, IOSBuild},
}

func patternFor(kind FieldKind) *regexp.Regexp {
	for _, vp := range FieldPatterns {
		if vp.Kind == kind {
			return vp.Pattern
		}
	}
	panic("mobileversion: no pattern for field " + string(kind))
}

// Field is a version value found in a file.
type Field struct {
	Kind FieldKind
	Raw  string
	Path string
}

// Extract returns every occurrence of every known field in text, grouped by
// kind in FieldPatterns order and in text order within a kind. Values are
// returned verbatim.
func Extract(text, path string) []Field {
	var fields []Field
	for _, vp := range FieldPatterns {
		for _, m := range vp.Pattern.FindAllStringSubmatch(text, -1) {
			fields = append(fields, Field{Kind: vp.Kind, Raw: m[2], Path: path})
		}
	}
	return fields
}

// ExtractFile reads path and extracts its fields.
func ExtractFile(path string) ([]Field, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return Extract(string(data), path), nil
}

// replaceFirst replaces the first match of re in s with the result of fn,
// which receives the full match followed by every submatch. s is returned
// unchanged when re does not match.
func replaceFirst(re *regexp.Regexp, s string, fn func(groups []string) string) string {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return s[:loc[0]] + fn(groups) + s[loc[1]:]
}

// FieldChange records one substitution.
type FieldChange struct {
	Kind FieldKind
	Old  string
	New  string
}

// Change describes what happened to one file.
type Change struct {
	Path   string
	Format Format
	Fields []FieldChange
	// Written is false for dry runs and when the content did not change.
	Written bool
}

// rewriteContent applies the first-occurrence substitution of each field of
// format. A nil target bumps every field from its own current value.
func rewriteContent(content string, format Format, target *Target, releaseType ReleaseType) (string, []FieldChange, error) {
	var changes []FieldChange
	for _, kind := range formatFields[format] {
		var ferr error
		content = replaceFirst(patternFor(kind), content, func(g []string) string {
			old := g[2]
			var next string
			switch {
			case target != nil && kind.IsCounter():
				next = strconv.Itoa(target.Counter)
			case target != nil:
				next = target.Semantic
			default:
				var err error
				if next, err = nextIndependent(kind, old, releaseType); err != nil {
					ferr = fmt.Errorf("%s: %w", kind, err)
					return g[0]
				}
			}
			changes = append(changes, FieldChange{Kind: kind, Old: old, New: next})
			return g[1] + next + g[3]
		})
		if ferr != nil {
			return "", nil, ferr
		}
	}
	return content, changes, nil
}

// Rewriter updates the version fields of single files.
type Rewriter struct {
	ReleaseType ReleaseType
	// DryRun computes changes without writing.
	DryRun bool
	Logger *slog.Logger
}

// Rewrite updates the first occurrence of each field of format in path.
// With a nil target each field is incremented from its own value; otherwise
// every field is set to the target. Both fields are written in a single
// replace of the file. A file that no longer exists yields ErrFileNotFound.
func (r Rewriter) Rewrite(path string, format Format, target *Target) (Change, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	change := Change{Path: path, Format: format}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return change, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return change, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return change, fmt.Errorf("reading file %s: %w", path, err)
	}

	original := string(data)
	updated, fields, err := rewriteContent(original, format, target, r.ReleaseType)
	if err != nil {
		return change, fmt.Errorf("rewriting %s: %w", path, err)
	}
	change.Fields = fields

	verb := "incremented"
	if target != nil {
		verb = "synced"
	}
	for _, fc := range fields {
		logger.Info(fmt.Sprintf("%s %s %s", format, fc.Kind, verb),
			"file", path, "from", fc.Old, "to", fc.New, "release_type", string(r.ReleaseType))
	}
	if len(fields) == 0 {
		logger.Warn("no version fields found", "file", path, "format", string(format))
	}

	if r.DryRun || updated == original {
		return change, nil
	}
	if err := writeFileReplace(path, []byte(updated), info.Mode().Perm()); err != nil {
		return change, fmt.Errorf("writing file %s: %w", path, err)
	}
	change.Written = true
	logger.Info("file processed", "file", path, "format", string(format))
	logger.Debug("file content", "file", path, "content", updated)
	return change, nil
}

// writeFileReplace writes data to a temporary file next to the resolved path
// and renames it over that path so the file is never observed half written.
func writeFileReplace(path string, data []byte, perm os.FileMode) error {
	// Replace the file a symlink points to, not the link itself.
	path, err := filepath.EvalSymlinks(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
