package mobileversion

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

// Independent mode: a single Android file bumps its own values.
func TestRunIndependentAndroid(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "app/AndroidManifest.xml", androidManifest("5", "1.2.3"))
	logger, logs := bufferLogger()

	res, err := Run(Config{
		AndroidPatterns: []string{filepath.Join(dir, "app", "*.xml")},
		IOSPatterns:     []string{filepath.Join(dir, "ios", "*.plist")},
		ReleaseType:     Patch,
		Logger:          logger,
	})
	require.NoError(t, err)

	assert.Equal(t, androidManifest("6", "1.2.4"), readFile(t, manifest))
	assert.Nil(t, res.Target)
	assert.Equal(t, []string{manifest}, res.UpdatedFiles())
	assert.Contains(t, logs.String(), "from=5 to=6")
	assert.Contains(t, logs.String(), "from=1.2.3 to=1.2.4")
}

// Independent mode: files never influence each other.
func TestRunIndependentIsolation(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a/AndroidManifest.xml", androidManifest("3", "1.0.0"))
	b := writeFile(t, dir, "b/AndroidManifest.xml", androidManifest("7", "1.2.0"))
	p := writeFile(t, dir, "ios/Info.plist", infoPlist("41", "2.0.1"))

	res, err := Run(Config{
		AndroidPatterns: []string{filepath.Join(dir, "*", "AndroidManifest.xml")},
		IOSPatterns:     []string{filepath.Join(dir, "ios", "Info.plist")},
		ReleaseType:     Minor,
	})
	require.NoError(t, err)

	assert.Equal(t, androidManifest("4", "1.1.0"), readFile(t, a))
	assert.Equal(t, androidManifest("8", "1.3.0"), readFile(t, b))
	assert.Equal(t, infoPlist("42", "2.1.0"), readFile(t, p))
	assert.Len(t, res.Changes, 3)
}

// Synchronized mode: every file ends on max counter + 1 and the increment of
// the highest semantic version.
func TestRunSynchronized(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a/AndroidManifest.xml", androidManifest("3", "1.0.0"))
	b := writeFile(t, dir, "b/AndroidManifest.xml", androidManifest("7", "1.2.0"))

	res, err := Run(Config{
		AndroidPatterns: []string{filepath.Join(dir, "**", "AndroidManifest.xml")},
		IOSPatterns:     []string{filepath.Join(dir, "**", "Info.plist")},
		ReleaseType:     Minor,
		SyncAllVersions: true,
	})
	require.NoError(t, err)

	require.NotNil(t, res.Target)
	assert.Equal(t, Target{Counter: 8, Semantic: "1.3.0"}, *res.Target)
	assert.Equal(t, androidManifest("8", "1.3.0"), readFile(t, a))
	assert.Equal(t, androidManifest("8", "1.3.0"), readFile(t, b))
}

func TestRunSynchronizedAcrossPlatforms(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "android/AndroidManifest.xml", androidManifest("3", "1.4.0"))
	plist := writeFile(t, dir, "ios/Info.plist", infoPlist("41", "1.3.9"))
	notes := writeFile(t, dir, "android/version.txt", `versionCode="99" versionName="0.1.0"`)

	res, err := Run(Config{
		AndroidPatterns: []string{filepath.Join(dir, "android", "*")},
		IOSPatterns:     []string{filepath.Join(dir, "ios", "Info.plist")},
		ReleaseType:     Patch,
		SyncAllVersions: true,
	})
	require.NoError(t, err)

	// Files of unknown extension still count towards the maximum but are not rewritten.
	assert.Equal(t, Target{Counter: 100, Semantic: "1.4.1"}, *res.Target)
	assert.Equal(t, androidManifest("100", "1.4.1"), readFile(t, manifest))
	assert.Equal(t, infoPlist("100", "1.4.1"), readFile(t, plist))
	assert.Equal(t, `versionCode="99" versionName="0.1.0"`, readFile(t, notes))
	assert.Equal(t, []string{notes}, res.Skipped)
}

func TestRunSynchronizedDeduplicatesPool(t *testing.T) {
	dir := t.TempDir()
	plist := writeFile(t, dir, "Info.plist", infoPlist("10", "1.0.0"))
	pattern := filepath.Join(dir, "*.plist")

	res, err := Run(Config{
		AndroidPatterns: []string{pattern},
		IOSPatterns:     []string{pattern},
		ReleaseType:     Major,
		SyncAllVersions: true,
	})
	require.NoError(t, err)

	assert.Len(t, res.Changes, 1)
	assert.Equal(t, infoPlist("11", "2.0.0"), readFile(t, plist))
}

// A pattern that matches nothing contributes nothing; only the other set is touched.
func TestRunUnmatchedAndroidPattern(t *testing.T) {
	dir := t.TempDir()
	plist := writeFile(t, dir, "ios/Info.plist", infoPlist("1", "0.1.0"))

	res, err := Run(Config{
		AndroidPatterns: []string{filepath.Join(dir, "nope", "*.xml")},
		IOSPatterns:     []string{filepath.Join(dir, "ios", "Info.plist")},
		ReleaseType:     Patch,
	})
	require.NoError(t, err)

	assert.Empty(t, res.AndroidFiles)
	assert.Equal(t, []string{plist}, res.UpdatedFiles())
	assert.Equal(t, infoPlist("2", "0.1.1"), readFile(t, plist))
}

// Single-match mode aborts before any file is modified.
func TestRunMultipleMatch(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a/AndroidManifest.xml", androidManifest("1", "1.0.0"))
	b := writeFile(t, dir, "b/AndroidManifest.xml", androidManifest("2", "1.0.0"))
	p := writeFile(t, dir, "Info.plist", infoPlist("1", "1.0.0"))

	_, err := Run(Config{
		AndroidPatterns:       []string{filepath.Join(dir, "*", "AndroidManifest.xml")},
		IOSPatterns:           []string{p},
		ReleaseType:           Patch,
		MustMatchSingleResult: true,
	})
	require.ErrorIs(t, err, ErrMultipleMatch)

	assert.Equal(t, androidManifest("1", "1.0.0"), readFile(t, a))
	assert.Equal(t, androidManifest("2", "1.0.0"), readFile(t, b))
	assert.Equal(t, infoPlist("1", "1.0.0"), readFile(t, p))
}

// An invalid release type fails before any glob is expanded.
func TestRunInvalidReleaseType(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "AndroidManifest.xml", androidManifest("1", "1.0.0"))
	logger, logs := bufferLogger()

	res, err := Run(Config{
		AndroidPatterns: []string{manifest},
		IOSPatterns:     []string{filepath.Join(dir, "*.plist")},
		ReleaseType:     ReleaseType("weekly"),
		Logger:          logger,
	})
	require.ErrorIs(t, err, ErrConfiguration)

	assert.Nil(t, res.AndroidFiles)
	assert.Empty(t, logs.String(), "nothing may be located")
	assert.Equal(t, androidManifest("1", "1.0.0"), readFile(t, manifest))
}

func TestRunNoMatchingFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := Run(Config{
		AndroidPatterns: []string{filepath.Join(dir, "*.xml")},
		IOSPatterns:     []string{filepath.Join(dir, "*.plist")},
		ReleaseType:     Patch,
	})
	assert.ErrorIs(t, err, ErrNoMatchingFiles)
}

// A fatal error stops the batch; files already rewritten stay rewritten.
func TestRunIndependentInvalidSemanticAborts(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "AndroidManifest.xml", androidManifest("1", "1.0.0"))
	bad := writeFile(t, dir, "a/Info.plist", infoPlist("1", "$(MARKETING_VERSION)"))
	good := writeFile(t, dir, "b/Info.plist", infoPlist("1", "1.0.0"))

	_, err := Run(Config{
		AndroidPatterns: []string{manifest},
		IOSPatterns:     []string{bad, good},
		ReleaseType:     Patch,
	})
	require.ErrorIs(t, err, ErrInvalidSemanticVersion)

	assert.Equal(t, androidManifest("2", "1.0.1"), readFile(t, manifest))
	assert.Equal(t, infoPlist("1", "$(MARKETING_VERSION)"), readFile(t, bad))
	assert.Equal(t, infoPlist("1", "1.0.0"), readFile(t, good))
}

func TestRunSynchronizedErrors(t *testing.T) {
	t.Run("no counters", func(t *testing.T) {
		dir := t.TempDir()
		manifest := writeFile(t, dir, "AndroidManifest.xml", `<manifest android:versionName="1.0.0" />`)

		_, err := Run(Config{
			AndroidPatterns: []string{manifest},
			IOSPatterns:     []string{filepath.Join(dir, "*.plist")},
			ReleaseType:     Patch,
			SyncAllVersions: true,
		})
		assert.ErrorIs(t, err, ErrNoVersionData)
		assert.Equal(t, `<manifest android:versionName="1.0.0" />`, readFile(t, manifest))
	})

	t.Run("malformed semantic version", func(t *testing.T) {
		dir := t.TempDir()
		manifest := writeFile(t, dir, "AndroidManifest.xml", androidManifest("1", "1.0.0"))
		plist := writeFile(t, dir, "Info.plist", infoPlist("2", "1.0"))

		_, err := Run(Config{
			AndroidPatterns: []string{manifest},
			IOSPatterns:     []string{plist},
			ReleaseType:     Patch,
			SyncAllVersions: true,
		})
		assert.ErrorIs(t, err, ErrVersionIncrement)
		assert.Equal(t, androidManifest("1", "1.0.0"), readFile(t, manifest))
	})
}

// A located symlink is rewritten through to the file it points at.
func TestRunSymlinkedManifest(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}
	dir := t.TempDir()
	shared := writeFile(t, dir, "shared/AndroidManifest.xml", androidManifest("5", "1.2.3"))
	link := filepath.Join(dir, "app", "AndroidManifest.xml")
	require.NoError(t, os.MkdirAll(filepath.Dir(link), 0755))
	require.NoError(t, os.Symlink(shared, link))

	_, err := Run(Config{
		AndroidPatterns: []string{link},
		IOSPatterns:     []string{filepath.Join(dir, "*.plist")},
		ReleaseType:     Patch,
	})
	require.NoError(t, err)

	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "link replaced by a regular file")
	assert.Equal(t, androidManifest("6", "1.2.4"), readFile(t, shared))
}

func TestApplySkipsMissingFile(t *testing.T) {
	logger, logs := bufferLogger()
	missing := filepath.Join(t.TempDir(), "AndroidManifest.xml")
	var res Result

	err := apply(&res, Rewriter{ReleaseType: Patch, Logger: logger}, missing, Android, nil, logger)
	require.NoError(t, err)

	assert.Equal(t, []string{missing}, res.Skipped)
	assert.Empty(t, res.Changes)
	assert.Contains(t, logs.String(), "file not found")
}

func TestDryRun(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "AndroidManifest.xml", androidManifest("3", "1.0.0"))
	plist := writeFile(t, dir, "Info.plist", infoPlist("7", "1.2.0"))

	res, err := DryRun(Config{
		AndroidPatterns: []string{manifest},
		IOSPatterns:     []string{plist},
		ReleaseType:     Minor,
		SyncAllVersions: true,
		Commit:          true,
	})
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.False(t, res.Committed)
	assert.Equal(t, Target{Counter: 8, Semantic: "1.3.0"}, *res.Target)
	assert.Equal(t, []string{manifest, plist}, res.UpdatedFiles())
	assert.Equal(t, androidManifest("3", "1.0.0"), readFile(t, manifest))
	assert.Equal(t, infoPlist("7", "1.2.0"), readFile(t, plist))
}
