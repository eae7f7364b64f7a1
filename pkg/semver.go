package mobileversion

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Target is the counter and semantic version written to a file.
type Target struct {
	Counter  int
	Semantic string
}

// normalizeVersion trims the value and ensures it starts with a "v", which is
// the form golang.org/x/mod/semver expects.
func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

// parseSemVer extracts the numerical components and prerelease from a
// semantic version. Build metadata is accepted and discarded. Shorthand forms
// such as "1.2" are rejected even though x/mod/semver considers them valid.
func parseSemVer(version string) (major, minor, patch int, prerelease string, err error) {
	normalized := normalizeVersion(version)
	if !semver.IsValid(normalized) {
		err = fmt.Errorf("%w: %q", ErrInvalidSemanticVersion, version)
		return
	}

	core := strings.TrimPrefix(normalized, "v")
	if i := strings.IndexByte(core, '+'); i >= 0 {
		core = core[:i]
	}
	parts := strings.SplitN(core, "-", 2)
	numParts := strings.Split(parts[0], ".")
	if len(numParts) != 3 {
		err = fmt.Errorf("%w: %q is not in major.minor.patch form", ErrInvalidSemanticVersion, version)
		return
	}

	nums := make([]int, 3)
	for i, p := range numParts {
		if nums[i], err = strconv.Atoi(p); err != nil {
			err = fmt.Errorf("%w: %q: %v", ErrInvalidSemanticVersion, version, err)
			return
		}
	}
	major, minor, patch = nums[0], nums[1], nums[2]
	if len(parts) == 2 {
		prerelease = parts[1]
	}
	return
}

// formatSemVer constructs a semantic version string without the "v" prefix.
func formatSemVer(major, minor, patch int, prerelease string) string {
	base := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if prerelease != "" {
		return base + "-" + prerelease
	}
	return base
}

// Increment returns the next version of v for the given release type.
//
// A prerelease that already sits on the release boundary is released instead
// of bumped, so "1.2.3-rc.1" patch becomes "1.2.3" and "2.0.0-beta" major
// becomes "2.0.0". The result is always greater than v; a segment that would
// overflow fails with ErrVersionIncrement.
func Increment(v string, releaseType ReleaseType) (string, error) {
	major, minor, patch, prerelease, err := parseSemVer(v)
	if err != nil {
		return "", err
	}

	switch releaseType {
	case Major:
		if minor != 0 || patch != 0 || prerelease == "" {
			if major, err = incrementSegment(v, major); err != nil {
				return "", err
			}
		}
		minor = 0
		patch = 0
	case Minor:
		if patch != 0 || prerelease == "" {
			if minor, err = incrementSegment(v, minor); err != nil {
				return "", err
			}
		}
		patch = 0
	case Patch:
		if prerelease == "" {
			if patch, err = incrementSegment(v, patch); err != nil {
				return "", err
			}
		}
	default:
		return "", configErrorf("unknown release type %q", releaseType)
	}

	return formatSemVer(major, minor, patch, ""), nil
}

func incrementSegment(v string, n int) (int, error) {
	if n == math.MaxInt {
		return 0, fmt.Errorf("%w: %q cannot be incremented without overflow", ErrVersionIncrement, v)
	}
	return n + 1, nil
}

// nextCounter returns n+1, failing with ErrVersionIncrement on overflow.
func nextCounter(n int) (int, error) {
	if n == math.MaxInt {
		return 0, fmt.Errorf("%w: counter %d cannot be incremented without overflow", ErrVersionIncrement, n)
	}
	return n + 1, nil
}

// CompareVersions compares two semantic versions by precedence. Both values
// must be valid; a leading "v" is optional.
func CompareVersions(a, b string) (int, error) {
	if _, _, _, _, err := parseSemVer(a); err != nil {
		return 0, err
	}
	if _, _, _, _, err := parseSemVer(b); err != nil {
		return 0, err
	}
	return semver.Compare(normalizeVersion(a), normalizeVersion(b)), nil
}

// ComputeIndependent derives a file's next version from its own values.
func ComputeIndependent(counter int, semantic string, releaseType ReleaseType) (Target, error) {
	next, err := nextCounter(counter)
	if err != nil {
		return Target{}, err
	}
	sem, err := Increment(semantic, releaseType)
	if err != nil {
		return Target{}, err
	}
	return Target{Counter: next, Semantic: sem}, nil
}

// nextIndependent is ComputeIndependent for a single field: counters go up by
// one and semantic versions are incremented by releaseType.
func nextIndependent(kind FieldKind, current string, releaseType ReleaseType) (string, error) {
	if !kind.IsCounter() {
		return Increment(current, releaseType)
	}
	n, err := strconv.Atoi(current)
	if err != nil {
		return "", fmt.Errorf("parsing %s %q: %w", kind, current, err)
	}
	next, err := nextCounter(n)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(next), nil
}

// ComputeGlobal derives the single target shared by every file of a
// synchronized batch: the highest counter plus one, and the increment of the
// highest semantic version. On equal precedence the first value seen wins.
func ComputeGlobal(set []Field, releaseType ReleaseType) (Target, error) {
	var (
		haveCounter bool
		maxCounter  int
		highest     string
	)

	for _, f := range set {
		if f.Kind.IsCounter() {
			n, err := strconv.Atoi(f.Raw)
			if err != nil {
				return Target{}, fmt.Errorf("parsing %s %q in %s: %w", f.Kind, f.Raw, f.Path, err)
			}
			if !haveCounter || n > maxCounter {
				maxCounter = n
				haveCounter = true
			}
			continue
		}

		compareTo := highest
		if compareTo == "" {
			compareTo = f.Raw
		}
		cmp, err := CompareVersions(f.Raw, compareTo)
		if err != nil {
			return Target{}, fmt.Errorf("%w: %s in %s: %w", ErrVersionIncrement, f.Kind, f.Path, err)
		}
		if highest == "" || cmp > 0 {
			highest = f.Raw
		}
	}

	if !haveCounter {
		return Target{}, fmt.Errorf("%w: no versionCode or CFBundleVersion values", ErrNoVersionData)
	}
	if highest == "" {
		return Target{}, fmt.Errorf("%w: no versionName or CFBundleShortVersionString values", ErrNoVersionData)
	}

	counter, err := nextCounter(maxCounter)
	if err != nil {
		return Target{}, err
	}
	next, err := Increment(highest, releaseType)
	if err != nil {
		return Target{}, fmt.Errorf("%w, highest version: %s: %w", ErrVersionIncrement, highest, err)
	}
	return Target{Counter: counter, Semantic: next}, nil
}
