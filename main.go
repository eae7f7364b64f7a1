// Package main implements a CLI tool to bump the version code and version name
// of Android manifests and iOS property lists.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	mobileversion "github.com/bcomnes/mobileversion/pkg"
	"github.com/spf13/cobra"
)

const longUsage = `Bumps android:versionCode / android:versionName in Android manifests and
CFBundleVersion / CFBundleShortVersionString in iOS property lists.

Files are found with comma separated glob lists ("**" is supported). By default
every file is bumped from its own values. With --sync every file is set to one
version: the highest counter found plus one, and the increment of the highest
semantic version found.

Every input can also come from a YAML file (--config), a .env file, or the
INPUT_<NAME> environment variables used by GitHub Actions. Flags win over the
environment, which wins over the config file.`

// newRootCmd builds the root command. Tests build a fresh one per run.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mobileversion [flags] [major|minor|patch]",
		Short: "Bump Android and iOS app versions",
		Long:  longUsage,
		Example: `  # Bump the patch version of every manifest and plist independently
  mobileversion --android './**/AndroidManifest.xml' --ios './ios/**/Info.plist' patch

  # Synchronize every file to the next minor version of the highest one found
  mobileversion --android './app/src/main/AndroidManifest.xml' --ios './ios/App/Info.plist' --sync minor

  # Preview the changes
  mobileversion --config mobileversion.yaml --dry patch

  # Synchronize, commit and tag v<version>
  mobileversion --config mobileversion.yaml --sync --commit --tag major`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       Version,
		RunE:          runRoot,
	}
	cmd.SetVersionTemplate("mobileversion CLI version {{.Version}}\n")

	f := cmd.Flags()
	f.String("android", "", "Comma separated glob patterns of Android manifests (android_manifest_paths)")
	f.String("ios", "", "Comma separated glob patterns of iOS property lists (ios_plist_paths)")
	f.String("release-type", "", "One of major, minor, patch (release_type); may also be given as the positional argument")
	f.Bool("single", false, "Fail when a pattern matches more than one file (must_match_single_result)")
	f.Bool("sync", false, "Set every file to one shared version (sync_all_versions)")
	f.Bool("dry", false, "Perform a dry run without modifying any files or git repository")
	f.Bool("commit", false, "Stage and commit the rewritten files with git")
	f.Bool("tag", false, "Tag the commit with v<version>; requires --commit and --sync")
	f.String("config", "", "YAML file with input values")
	f.String("env-file", ".env", "File with INPUT_* variables; ignored when missing unless set explicitly")
	f.BoolP("quiet", "q", false, "Only log warnings and errors")
	return cmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	quiet, _ := cmd.Flags().GetBool("quiet")
	logger := newLogger(out, quiet)

	inputs, err := collectInputs(cmd, args)
	if err != nil {
		return err
	}
	cfg, dryRun, err := inputs.Config(logger)
	if err != nil {
		return err
	}

	var res mobileversion.Result
	if dryRun {
		res, err = mobileversion.DryRun(cfg)
	} else {
		res, err = mobileversion.Run(cfg)
	}
	if err != nil {
		return err
	}
	printSummary(out, res)
	return nil
}

func newLogger(w io.Writer, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// collectInputs merges the config file, the environment and the flags, in
// increasing order of precedence.
func collectInputs(cmd *cobra.Command, args []string) (mobileversion.Inputs, error) {
	flags := cmd.Flags()
	var inputs mobileversion.Inputs

	if path, _ := flags.GetString("config"); path != "" {
		fromFile, err := mobileversion.LoadInputsFile(path)
		if err != nil {
			return inputs, err
		}
		inputs = fromFile
	}

	envFile, _ := flags.GetString("env-file")
	if err := mobileversion.LoadDotEnv(envFile, flags.Changed("env-file")); err != nil {
		return inputs, err
	}
	inputs = inputs.Merge(mobileversion.InputsFromEnv(os.Getenv))

	var fromFlags mobileversion.Inputs
	stringFlags := []struct {
		name string
		dst  *string
	}{
		{"android", &fromFlags.AndroidManifestPaths},
		{"ios", &fromFlags.IOSPlistPaths},
		{"release-type", &fromFlags.ReleaseType},
	}
	for _, sf := range stringFlags {
		if flags.Changed(sf.name) {
			*sf.dst, _ = flags.GetString(sf.name)
		}
	}
	boolFlags := []struct {
		name string
		dst  *string
	}{
		{"single", &fromFlags.MustMatchSingleResult},
		{"sync", &fromFlags.SyncAllVersions},
		{"dry", &fromFlags.DryRun},
		{"commit", &fromFlags.Commit},
		{"tag", &fromFlags.Tag},
	}
	for _, bf := range boolFlags {
		if flags.Changed(bf.name) {
			v, _ := flags.GetBool(bf.name)
			*bf.dst = strconv.FormatBool(v)
		}
	}
	if len(args) == 1 {
		if fromFlags.ReleaseType != "" && fromFlags.ReleaseType != args[0] {
			return inputs, fmt.Errorf("release type given twice: --release-type %s and %s", fromFlags.ReleaseType, args[0])
		}
		fromFlags.ReleaseType = args[0]
	}
	return inputs.Merge(fromFlags), nil
}

func printSummary(w io.Writer, res mobileversion.Result) {
	if res.DryRun {
		fmt.Fprintln(w, "Dry run complete, no files were modified.")
	} else {
		fmt.Fprintln(w, "Version bump successful!")
	}
	mode := "independent"
	if res.Synchronized {
		mode = "synchronized"
	}
	fmt.Fprintf(w, "Release Type: %s\n", res.ReleaseType)
	fmt.Fprintf(w, "Mode:         %s\n", mode)
	if res.Target != nil {
		fmt.Fprintf(w, "New Version:  %s (%d)\n", res.Target.Semantic, res.Target.Counter)
	}

	if len(res.Changes) > 0 {
		if res.DryRun {
			fmt.Fprintln(w, "Files that would be updated:")
		} else {
			fmt.Fprintln(w, "Files updated:")
		}
		for _, c := range res.Changes {
			parts := make([]string, 0, len(c.Fields))
			for _, fc := range c.Fields {
				parts = append(parts, fmt.Sprintf("%s %s -> %s", fc.Kind, fc.Old, fc.New))
			}
			fmt.Fprintf(w, "  %s: %s\n", c.Path, strings.Join(parts, ", "))
		}
	}
	if len(res.Skipped) > 0 {
		fmt.Fprintln(w, "Files skipped:")
		for _, p := range res.Skipped {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	if res.Committed {
		fmt.Fprintln(w, "Committed changes.")
		if res.Tag != "" {
			fmt.Fprintf(w, "Tagged: %s\n", res.Tag)
		}
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
