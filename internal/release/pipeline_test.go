//go:build unix

package release

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fakeGit = `
case "$1" in
clone)
  # invocation: clone --depth 1 -b BRANCH REPO DEST
  repo="$6"; dest="$7"
  mkdir -p "$dest/.git"
  echo "module content" > "$dest/source.d"
  case "$repo" in
  *dmd*)
    mkdir -p "$dest/src"
    ;;
  *installer*)
    mkdir -p "$dest/create_dmd_release/extras/all"
    mkdir -p "$dest/create_dmd_release/extras/linux"
    echo notes > "$dest/create_dmd_release/extras/all/README.TXT"
    ;;
  esac
  ;;
ls-files)
  echo source.d
  ;;
--version)
  echo "git version 2.43.0"
  ;;
esac
exit 0`

const fakeMake = `
cwd=$(pwd)
[ -n "$MAKE_LOG" ] && echo "$cwd: $*" >> "$MAKE_LOG"
if [ -n "$MAKE_FAIL_IN" ]; then
  case "$cwd" in *"$MAKE_FAIL_IN") exit 1 ;; esac
fi
case "$cwd" in
*/dmd/src) echo bin > dmd ;;
*/phobos) echo lib > libphobos2.a ;;
*/tools) for f in rdmd ddemangle dustmite; do echo bin > $f; done ;;
*/dlang.org) mkdir -p web; echo "<html></html>" > web/index.html ;;
esac
exit 0`

// pipelineFixture wires fake git and make onto PATH, builds a complete user
// extras tree for the linux manifest, and returns a ready-to-run pipeline.
func pipelineFixture(t *testing.T, cfg *ReleaseConfig) *Pipeline {
	t.Helper()
	if hostOS() != "linux" {
		t.Skip("end-to-end fixture assumes the linux target profile")
	}

	tools := t.TempDir()
	for name, script := range map[string]string{"git": fakeGit, "make": fakeMake} {
		if err := os.WriteFile(filepath.Join(tools, name), []byte("#!/bin/sh\n"+script), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", tools+string(os.PathListSeparator)+os.Getenv("PATH"))

	profile := profiles["linux"]
	extras := t.TempDir()
	for _, rel := range profile.Manifest {
		writeFile(t, filepath.Join(extras, "dmd2", "linux", rel), "support file")
	}
	cfg.ExtrasDir = extras

	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}

	outDir := t.TempDir()
	tmpRoot := t.TempDir()
	return &Pipeline{
		cfg:     cfg,
		profile: profile,
		paths:   newWorkspacePaths(cfg, profile, outDir, tmpRoot),
		exec:    NewExecutor(context.Background()),
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	p := pipelineFixture(t, &ReleaseConfig{Tag: "v1.0", Archive: true})

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	if got := filepath.Base(p.paths.ReleaseDir); got != "dmd.v1.0.linux" {
		t.Fatalf("release dir = %q, want dmd.v1.0.linux", got)
	}

	for _, rel := range []string{
		"dmd2/linux/bin32/dmd",
		"dmd2/linux/bin32/rdmd",
		"dmd2/linux/bin64/dmd",
		"dmd2/linux/bin64/dustmite",
		"dmd2/linux/lib32/libphobos2.a",
		"dmd2/linux/lib64/libphobos2.a",
		"dmd2/linux/bin32/dumpobj",
		"dmd2/linux/bin64/obj2asm",
		"dmd2/src/dmd/source.d",
		"dmd2/src/phobos/source.d",
		"dmd2/html/d/index.html",
		"README.TXT",
	} {
		if !isFile(filepath.Join(p.paths.ReleaseDir, filepath.FromSlash(rel))) {
			t.Errorf("release is missing %s", rel)
		}
	}

	if !isFile(p.paths.ArchivePath) {
		t.Error("archive not written")
	}
	if !isFile(p.paths.ArchivePath + ".b3sum") {
		t.Error("checksum sidecar not written")
	}
}

func TestPipelineBuildFailureAbortsBeforePackaging(t *testing.T) {
	p := pipelineFixture(t, &ReleaseConfig{Tag: "v1.0"})
	t.Setenv("MAKE_FAIL_IN", "phobos")

	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("pipeline succeeded despite a failing component build")
	}
	var fail *Fail
	if !errors.As(err, &fail) {
		t.Fatalf("error is %T, want *Fail", err)
	}
	if !strings.Contains(err.Error(), "phobos") {
		t.Fatalf("error %q does not name the failing directory", err)
	}
	if exists(p.paths.ReleaseDir) {
		t.Error("release directory was created despite the build failure")
	}
}

func TestPipelineResumeRunsCleanBeforeBuild(t *testing.T) {
	p := pipelineFixture(t, &ReleaseConfig{Tag: "v1.0"})
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("initial run: %v", err)
	}

	// Resume into the existing checkout: skip-clone with build enabled must
	// always run the clean recipes first.
	cfg2 := &ReleaseConfig{Tag: "v1.0", SkipClone: true, ExtrasDir: p.cfg.ExtrasDir}
	if err := cfg2.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	p2 := &Pipeline{cfg: cfg2, profile: p.profile, paths: p.paths, exec: p.exec}

	log := filepath.Join(t.TempDir(), "make.log")
	t.Setenv("MAKE_LOG", log)

	if err := p2.Run(context.Background()); err != nil {
		t.Fatalf("resumed run: %v", err)
	}

	data, err := os.ReadFile(log)
	if err != nil {
		t.Fatalf("make was never invoked: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	cleans := 0
	firstBuild := -1
	lastClean := -1
	for i, line := range lines {
		if strings.Contains(line, "--version") {
			continue // preflight probe
		}
		if strings.Contains(line, " clean") {
			cleans++
			lastClean = i
		} else if firstBuild == -1 {
			firstBuild = i
		}
	}
	// Four buildable components, two bit widths each.
	if cleans != 8 {
		t.Fatalf("clean invocations = %d, want 8\nlog:\n%s", cleans, data)
	}
	if firstBuild != -1 && lastClean > firstBuild {
		t.Fatalf("a clean ran after building started\nlog:\n%s", data)
	}
}

func TestPipelineArchiveStandalone(t *testing.T) {
	p := pipelineFixture(t, &ReleaseConfig{Tag: "v1.0"})
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("initial run: %v", err)
	}

	// Archive-only resume: skip everything, archive from the on-disk tree.
	cfg2 := &ReleaseConfig{Tag: "v1.0", SkipPackage: true, Archive: true, ExtrasDir: p.cfg.ExtrasDir}
	if err := cfg2.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	p2 := &Pipeline{cfg: cfg2, profile: p.profile, paths: p.paths, exec: p.exec}
	if err := p2.Run(context.Background()); err != nil {
		t.Fatalf("archive-only run: %v", err)
	}
	if !isFile(p.paths.ArchivePath) {
		t.Error("archive not written")
	}
}

func TestPipelineArchiveWithoutReleaseDirFails(t *testing.T) {
	p := pipelineFixture(t, &ReleaseConfig{Tag: "v1.0", SkipPackage: true, Archive: true})
	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("archive stage ran without a release directory")
	}
	var fail *Fail
	if !errors.As(err, &fail) {
		t.Fatalf("error is %T, want *Fail", err)
	}
}

func TestPreflightSkipsToolchainEnvCheckWithoutBuild(t *testing.T) {
	// Archive-only resume on a target that needs toolchain env vars for
	// building: no build runs, so the missing vars must not abort the run.
	profile := &TargetProfile{OS: "windows", MakeTool: "make",
		RequiredEnv64: []string{"DRELEASE_TEST_VCDIR"}}
	cfg := &ReleaseConfig{Tag: "v1.0",
		SkipClone: true, SkipBuild: true, SkipPackage: true, Archive: true}
	p := &Pipeline{cfg: cfg, profile: profile, exec: NewExecutor(context.Background())}

	if err := p.preflight(); err != nil {
		t.Fatalf("preflight failed without a build stage: %v", err)
	}
}

func TestPreflightRequiresToolchainEnvForBuild(t *testing.T) {
	installFakeTool(t, "git", `echo "git version 2.43.0"`)
	installFakeTool(t, "make", `echo "GNU Make 4.4"`)

	profile := &TargetProfile{OS: "windows", MakeTool: "make",
		RequiredEnv64: []string{"DRELEASE_TEST_VCDIR"}}
	cfg := &ReleaseConfig{Tag: "v1.0", SkipClone: true}
	p := &Pipeline{cfg: cfg, profile: profile, exec: NewExecutor(context.Background())}

	err := p.preflight()
	if err == nil {
		t.Fatal("preflight passed with the 64-bit toolchain env unset")
	}
	if !strings.Contains(err.Error(), "DRELEASE_TEST_VCDIR") {
		t.Fatalf("error %q does not name the missing variable", err)
	}
}

func TestPipelineCleanMode(t *testing.T) {
	p := pipelineFixture(t, &ReleaseConfig{Tag: "v1.0"})
	if err := os.MkdirAll(filepath.Join(p.paths.CloneRoot, "dmd"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg2 := &ReleaseConfig{Clean: true}
	if err := cfg2.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	p2 := &Pipeline{cfg: cfg2, profile: p.profile, paths: p.paths, exec: p.exec}
	if err := p2.Run(context.Background()); err != nil {
		t.Fatalf("clean mode: %v", err)
	}
	if exists(p.paths.CloneRoot) {
		t.Error("workspace still exists after --clean")
	}
}
