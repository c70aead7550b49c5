package release

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ReleaseConfig is built once from the command line and the optional config
// file, validated, and treated as immutable afterwards.
type ReleaseConfig struct {
	Tag string // tag or branch to release, e.g. "v2.065.0" or "master"

	SkipClone   bool
	SkipBuild   bool
	SkipDocs    bool
	SkipPackage bool

	Archive   bool
	ArchiveXZ bool // posix alternative: .tar.xz instead of .zip
	Upload    bool
	Clean     bool

	ExtrasDir string // user-supplied support files, required
	UseClone  string // existing checkout to reuse, implies SkipClone

	Only32 bool
	Only64 bool

	Jobs int // parallel make jobs, 0/1 = sequential

	// Values carries config-file settings (upload endpoint and credentials),
	// merged with DRELEASE_* environment overrides.
	Values map[string]string
}

// normalize applies the cascading skip rules and validates flag combinations.
// Called exactly once, before any stage runs.
func (c *ReleaseConfig) normalize() error {
	if c.Clean {
		return nil // clean-only mode ignores everything else
	}
	if c.Tag == "" {
		return failf("missing TAG_OR_BRANCH argument (try --help)")
	}
	if c.Only32 && c.Only64 {
		return failf("--only-32 and --only-64 are mutually exclusive")
	}
	if c.UseClone != "" {
		c.SkipClone = true
	}
	// Upload needs an archive to publish.
	if c.Upload {
		c.Archive = true
	}
	// skip-package implies skip-build implies skip-clone.
	if c.SkipPackage {
		c.SkipBuild = true
	}
	if c.SkipBuild {
		c.SkipClone = true
	}
	if c.SkipPackage && !c.Archive {
		return failf("nothing to do: --skip-package without --archive")
	}
	if c.ExtrasDir == "" {
		return failf("--extras=PATH is required")
	}
	info, err := os.Stat(c.ExtrasDir)
	if err != nil || !info.IsDir() {
		return failf("extras directory %s does not exist", c.ExtrasDir)
	}
	if abs, err := filepath.Abs(c.ExtrasDir); err == nil {
		c.ExtrasDir = abs
	}
	if c.UseClone != "" {
		info, err := os.Stat(c.UseClone)
		if err != nil || !info.IsDir() {
			return failf("checkout directory %s does not exist", c.UseClone)
		}
		if abs, err := filepath.Abs(c.UseClone); err == nil {
			c.UseClone = abs
		}
	}
	return nil
}

// Widths returns the requested bit widths; both when neither --only flag
// was given.
func (c *ReleaseConfig) Widths() []BitWidth {
	switch {
	case c.Only32:
		return []BitWidth{Bits32}
	case c.Only64:
		return []BitWidth{Bits64}
	default:
		return []BitWidth{Bits32, Bits64}
	}
}

// loadConfigFile reads KEY=VALUE pairs from ~/.drelease.conf if present and
// merges DRELEASE_* environment overrides on top. Missing file is fine; the
// settings only matter for --upload.
func loadConfigFile() map[string]string {
	values := make(map[string]string)

	path := ConfigFile
	if !filepath.IsAbs(path) {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path)
		}
	}

	if file, err := os.Open(path); err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
			values[key] = val
		}
	}

	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "DRELEASE_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				values[parts[0]] = parts[1]
			}
		}
	}

	return values
}
