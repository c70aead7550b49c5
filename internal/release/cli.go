package release

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gookit/color"
)

// printHelp prints the option table.
func printHelp(w io.Writer) {
	colSuccess.Printf("drelease %s (built %s)\n", version, buildDate)
	colSuccess.Println("Usage: drelease [options] TAG_OR_BRANCH")
	colSuccess.Println("Build a DMD toolchain release bundle for this platform")
	fmt.Fprintln(w)
	color.Info.Println("Options:")

	type optInfo struct {
		Opt  string
		Desc string
	}
	opts := []optInfo{
		{"--help", "Show this help"},
		{"-q, --quiet", "Suppress stage progress output"},
		{"-v, --verbose", "Echo every external command before running it"},
		{"--extras=PATH", "Tree of support files merged into the release (required)"},
		{"--skip-clone", "Reuse the existing workspace checkout"},
		{"--use-clone=PATH", "Reuse the checkout at PATH (implies --skip-clone)"},
		{"--skip-build", "Reuse existing build artifacts (implies --skip-clone)"},
		{"--skip-docs", "Do not build or package documentation"},
		{"--skip-package", "Do not assemble the release directory (implies --skip-build)"},
		{"--archive", "Pack the release directory into an archive"},
		{"--archive-xz", "Use .tar.xz instead of .zip (posix only, implies --archive)"},
		{"--upload", "Publish the archive to the configured bucket (implies --archive)"},
		{"--clean", "Delete the temporary workspace and exit"},
		{"--only-32", "Build 32-bit binaries only"},
		{"--only-64", "Build 64-bit binaries only"},
		{"-j N", "Parallel build-tool jobs"},
	}
	maxLen := 0
	for _, o := range opts {
		if len(o.Opt) > maxLen {
			maxLen = len(o.Opt)
		}
	}
	for _, o := range opts {
		fmt.Fprint(w, "  ")
		color.Bold.Print(o.Opt)
		for i := len(o.Opt); i < maxLen+3; i++ {
			fmt.Fprint(w, " ")
		}
		fmt.Fprintln(w, o.Desc)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "TAG_OR_BRANCH selects what to clone and build, e.g. v2.065.0 or master.")
}

// parseArgs turns the command line into a ReleaseConfig. A nil config with
// nil error means help was requested and printed.
func parseArgs(args []string) (*ReleaseConfig, error) {
	cfg := &ReleaseConfig{}

	fs := flag.NewFlagSet("drelease", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // errors are reported by us, not the flag package
	fs.Usage = func() {}

	var quiet, verbose, archiveXZ bool
	fs.BoolVar(&quiet, "q", false, "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&verbose, "v", false, "")
	fs.BoolVar(&verbose, "verbose", false, "")
	fs.StringVar(&cfg.ExtrasDir, "extras", "", "")
	fs.BoolVar(&cfg.SkipClone, "skip-clone", false, "")
	fs.StringVar(&cfg.UseClone, "use-clone", "", "")
	fs.BoolVar(&cfg.SkipBuild, "skip-build", false, "")
	fs.BoolVar(&cfg.SkipDocs, "skip-docs", false, "")
	fs.BoolVar(&cfg.SkipPackage, "skip-package", false, "")
	fs.BoolVar(&cfg.Archive, "archive", false, "")
	fs.BoolVar(&archiveXZ, "archive-xz", false, "")
	fs.BoolVar(&cfg.Upload, "upload", false, "")
	fs.BoolVar(&cfg.Clean, "clean", false, "")
	fs.BoolVar(&cfg.Only32, "only-32", false, "")
	fs.BoolVar(&cfg.Only64, "only-64", false, "")
	fs.IntVar(&cfg.Jobs, "j", 0, "")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printHelp(os.Stdout)
			return nil, nil
		}
		return nil, failf("%v (try --help)", err)
	}

	if archiveXZ {
		cfg.ArchiveXZ = true
		cfg.Archive = true
	}

	rest := fs.Args()
	switch len(rest) {
	case 0:
		// normalize() reports the missing tag (unless --clean short-circuits)
	case 1:
		cfg.Tag = rest[0]
	default:
		return nil, failf("unexpected extra arguments: %v", rest[1:])
	}

	Quiet = quiet
	Verbose = verbose
	if os.Getenv("DRELEASE_DEBUG") == "1" {
		Debug = true
	}
	return cfg, nil
}
