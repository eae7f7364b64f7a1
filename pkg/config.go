package mobileversion

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ReleaseType is the granularity of a version increment.
type ReleaseType string

const (
	Major ReleaseType = "major"
	Minor ReleaseType = "minor"
	Patch ReleaseType = "patch"
)

// ReleaseTypes lists the accepted release types in their canonical order.
var ReleaseTypes = []ReleaseType{Major, Minor, Patch}

// ParseReleaseType validates s as a release type.
func ParseReleaseType(s string) (ReleaseType, error) {
	for _, rt := range ReleaseTypes {
		if s == string(rt) {
			return rt, nil
		}
	}
	return "", configErrorf("invalid release type %q, expected values are major, minor, patch", s)
}

// Config is everything a run needs. It is built once, usually from Inputs,
// and passed by value to Run or DryRun.
type Config struct {
	AndroidPatterns       []string
	IOSPatterns           []string
	ReleaseType           ReleaseType
	MustMatchSingleResult bool
	SyncAllVersions       bool
	// Commit stages and commits the rewritten files with git.
	Commit bool
	// Tag adds a v<semantic> tag to the commit. Synchronized mode only.
	Tag    bool
	Logger *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Validate checks the parts of the configuration that must hold before any
// file system access.
func (c Config) Validate() error {
	if _, err := ParseReleaseType(string(c.ReleaseType)); err != nil {
		return err
	}
	if c.Tag && !c.Commit {
		return configErrorf("tag requires commit")
	}
	if c.Tag && !c.SyncAllVersions {
		return configErrorf("tag is only supported when all versions are synchronized")
	}
	return nil
}

// Inputs holds the raw named string values a run is configured with, in the
// shape the invoking environment provides them.
type Inputs struct {
	AndroidManifestPaths  string `yaml:"android_manifest_paths"`
	IOSPlistPaths         string `yaml:"ios_plist_paths"`
	ReleaseType           string `yaml:"release_type"`
	MustMatchSingleResult string `yaml:"must_match_single_result"`
	SyncAllVersions       string `yaml:"sync_all_versions"`
	DryRun                string `yaml:"dry_run"`
	Commit                string `yaml:"commit"`
	Tag                   string `yaml:"tag"`
}

// inputEnvNames maps each input to its environment variable, following the
// INPUT_<NAME> convention of GitHub Actions.
var inputEnvNames = []struct {
	env   string
	field func(*Inputs) *string
}{
	{"INPUT_ANDROID_MANIFEST_PATHS", func(in *Inputs) *string { return &in.AndroidManifestPaths }},
	{"INPUT_IOS_PLIST_PATHS", func(in *Inputs) *string { return &in.IOSPlistPaths }},
	{"INPUT_RELEASE_TYPE", func(in *Inputs) *string { return &in.ReleaseType }},
	{"INPUT_MUST_MATCH_SINGLE_RESULT", func(in *Inputs) *string { return &in.MustMatchSingleResult }},
	{"INPUT_SYNC_ALL_VERSIONS", func(in *Inputs) *string { return &in.SyncAllVersions }},
	{"INPUT_DRY_RUN", func(in *Inputs) *string { return &in.DryRun }},
	{"INPUT_COMMIT", func(in *Inputs) *string { return &in.Commit }},
	{"INPUT_TAG", func(in *Inputs) *string { return &in.Tag }},
}

// InputsFromEnv reads inputs from INPUT_* variables using getenv
// (os.Getenv when nil).
func InputsFromEnv(getenv func(string) string) Inputs {
	if getenv == nil {
		getenv = os.Getenv
	}
	var in Inputs
	for _, e := range inputEnvNames {
		*e.field(&in) = getenv(e.env)
	}
	return in
}

// LoadDotEnv loads variables from a .env style file into the process
// environment without overriding variables that are already set. A missing
// file is ignored unless required is true.
func LoadDotEnv(path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("reading env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// LoadInputsFile reads inputs from a YAML file. Unknown keys are rejected.
func LoadInputsFile(path string) (Inputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Inputs{}, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return ParseInputs(data)
}

// ParseInputs decodes YAML input data. Empty data yields zero Inputs.
func ParseInputs(data []byte) (Inputs, error) {
	var in Inputs
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		return Inputs{}, fmt.Errorf("%w: parsing config: %v", ErrConfiguration, err)
	}
	return in, nil
}

// Merge returns in with every non-empty field of over applied on top.
func (in Inputs) Merge(over Inputs) Inputs {
	out := in
	for _, e := range inputEnvNames {
		if v := *e.field(&over); strings.TrimSpace(v) != "" {
			*e.field(&out) = v
		}
	}
	return out
}

// Config validates the inputs and converts them into a Config. The returned
// bool reports whether a dry run was requested.
func (in Inputs) Config(logger *slog.Logger) (Config, bool, error) {
	if strings.TrimSpace(in.AndroidManifestPaths) == "" {
		return Config{}, false, configErrorf("input required and not supplied: android_manifest_paths")
	}
	if strings.TrimSpace(in.IOSPlistPaths) == "" {
		return Config{}, false, configErrorf("input required and not supplied: ios_plist_paths")
	}
	if strings.TrimSpace(in.ReleaseType) == "" {
		return Config{}, false, configErrorf("input required and not supplied: release_type")
	}
	rt, err := ParseReleaseType(strings.TrimSpace(in.ReleaseType))
	if err != nil {
		return Config{}, false, err
	}

	cfg := Config{
		AndroidPatterns:       SplitPatterns(in.AndroidManifestPaths),
		IOSPatterns:           SplitPatterns(in.IOSPlistPaths),
		ReleaseType:           rt,
		MustMatchSingleResult: ParseBool(in.MustMatchSingleResult),
		SyncAllVersions:       ParseBool(in.SyncAllVersions),
		Commit:                ParseBool(in.Commit),
		Tag:                   ParseBool(in.Tag),
		Logger:                logger,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, false, err
	}
	return cfg, ParseBool(in.DryRun), nil
}

// SplitPatterns splits a comma separated glob list, trimming each entry and
// dropping empty ones.
func SplitPatterns(list string) []string {
	var out []string
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseBool reports whether s is "true", ignoring case and surrounding space.
// Every other value, including the empty string, is false.
func ParseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}
