package release

import (
	"fmt"
	"path/filepath"
	"strings"
)

// verifyManifest checks that every support file the profile requires is
// present in the assembled release. These files are never built from
// source; they come only from the extras trees, so a miss means the extras
// directory the user supplied is incomplete. All misses are collected and
// reported together rather than one rerun at a time.
func verifyManifest(profile *TargetProfile, paths *WorkspacePaths, extrasDir string) error {
	var missing []string
	for _, rel := range profile.Manifest {
		full := filepath.Join(paths.OSRoot, filepath.FromSlash(rel))
		if !isFile(full) {
			missing = append(missing, rel)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "release is missing %d required support file(s):\n", len(missing))
	for _, rel := range missing {
		fmt.Fprintf(&b, "  %s\n", filepath.Join("dmd2", profile.OS, rel))
	}
	fmt.Fprintf(&b, "check the extras trees: %s, %s and %s",
		paths.ExtrasAll, paths.ExtrasOS, extrasDir)
	return &Fail{msg: b.String()}
}
