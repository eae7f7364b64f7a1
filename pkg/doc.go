// Package mobileversion bumps Android and iOS app version identifiers.
//
// It provides functionalities for:
//   - Locating AndroidManifest.xml and Info.plist files from glob patterns, including "**".
//   - Extracting android:versionCode, android:versionName, CFBundleVersion and
//     CFBundleShortVersionString values as plain text, without XML parsing.
//   - Incrementing semantic versions by major, minor or patch, and build counters by one.
//   - Rewriting only the first occurrence of each field, leaving every other byte untouched.
//   - Synchronizing every file of a batch to one version derived from the highest
//     counter and the highest semantic version found.
//   - Optionally committing the rewritten files, and tagging synchronized releases, with git.
//
// Usage Example:
//
//	import (
//	    "log"
//	    "log/slog"
//	    "os"
//
//	    mobileversion "github.com/bcomnes/mobileversion/pkg"
//	)
//
//	func main() {
//	    res, err := mobileversion.Run(mobileversion.Config{
//	        AndroidPatterns: []string{"./**/AndroidManifest.xml"},
//	        IOSPatterns:     []string{"./ios/**/Info.plist"},
//	        ReleaseType:     mobileversion.Minor,
//	        SyncAllVersions: true,
//	        Logger:          slog.New(slog.NewTextHandler(os.Stdout, nil)),
//	    })
//	    if err != nil {
//	        log.Fatalf("version bump failed: %v", err)
//	    }
//	    log.Printf("bumped to %s (%d)", res.Target.Semantic, res.Target.Counter)
//	}
package mobileversion
