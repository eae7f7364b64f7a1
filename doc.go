// Package main implements the mobileversion CLI tool.
//
// The mobileversion tool bumps the version identifiers of mobile apps. It finds
// Android manifests and iOS property lists from comma separated glob lists and
// rewrites, as plain text, the first android:versionCode / android:versionName
// attribute and the first CFBundleVersion / CFBundleShortVersionString entry of
// each file. Everything else in the files is left byte for byte as it was.
//
// Command Usage:
//
//	mobileversion [flags] [major|minor|patch]
//
// Flags:
//
//	--android:      Comma separated glob patterns of Android manifests.
//	--ios:          Comma separated glob patterns of iOS property lists.
//	--release-type: major, minor or patch. May be given as the positional argument instead.
//	--single:       Fail when any one pattern matches more than one file.
//	--sync:         Set every file to one version: the highest counter plus one and the
//	                increment of the highest semantic version across all files.
//	--dry:          Report what would change without writing anything.
//	--commit:       Stage and commit the rewritten files with git.
//	--tag:          Tag the commit with v<version>. Requires --commit and --sync.
//	--config:       YAML file holding the same inputs (android_manifest_paths, ios_plist_paths,
//	                release_type, must_match_single_result, sync_all_versions, dry_run, commit, tag).
//	--env-file:     .env file with INPUT_* variables (default ".env", ignored when missing).
//	--quiet:        Only log warnings and errors.
//	--version:      Displays the version of the mobileversion CLI tool and exits.
//
// Inputs are also read from the INPUT_ANDROID_MANIFEST_PATHS, INPUT_IOS_PLIST_PATHS,
// INPUT_RELEASE_TYPE, INPUT_MUST_MATCH_SINGLE_RESULT, INPUT_SYNC_ALL_VERSIONS,
// INPUT_DRY_RUN, INPUT_COMMIT and INPUT_TAG environment variables, so the binary can
// run as a GitHub Action step. Flags override the environment, which overrides the
// config file.
//
// Examples:
//
//	# Bump each file from its own values (versionCode 5 → 6, versionName 1.2.3 → 1.2.4)
//	mobileversion --android './**/AndroidManifest.xml' --ios './ios/**/Info.plist' patch
//
//	# Synchronize: counters 3 and 7, names 1.0.0 and 1.2.0 → every file gets 8 and 1.3.0
//	mobileversion --android 'app/*/AndroidManifest.xml' --ios 'ios/Info.plist' --sync minor
//
//	# Require every pattern to resolve to a single file
//	mobileversion --android app/src/main/AndroidManifest.xml --ios ios/App/Info.plist --single major
//
//	# Synchronize, commit and tag the release
//	mobileversion --config mobileversion.yaml --sync --commit --tag minor
//
// The audit log of discovered files and before/after values is written to stdout.
// Any failure prints "Error: <message>" to stderr and exits with status 1.
//
// For the library API see the "pkg" package.
package main
