package release

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Pipeline drives the release through its stages:
//
//	Init -> [Clone] -> [Build] -> [Package] -> [Archive] -> Done
//
// Each bracketed stage can be skipped independently. A stage never asks
// whether an earlier stage ran in this process; it only checks that the
// on-disk artifacts it needs exist. That is what makes a crashed or
// partially debugged run resumable with the --skip-* flags.
type Pipeline struct {
	cfg     *ReleaseConfig
	profile *TargetProfile
	paths   *WorkspacePaths
	exec    *Executor
}

// Main is the process entry point behind the thin main package.
func Main(ctx context.Context, args []string) error {
	cfg, err := parseArgs(args)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil // help was printed
	}
	cfg.Values = loadConfigFile()
	if err := cfg.normalize(); err != nil {
		return err
	}

	profile, err := profileFor(hostOS())
	if err != nil {
		return err
	}
	if cfg.ArchiveXZ && profile.OS == "windows" {
		return failf("--archive-xz is not available on windows (the release ships as a zip)")
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	p := &Pipeline{
		cfg:     cfg,
		profile: profile,
		paths:   newWorkspacePaths(cfg, profile, cwd, os.TempDir()),
		exec:    NewExecutor(ctx),
	}
	return p.Run(ctx)
}

// Run executes the configured stages in order.
func (p *Pipeline) Run(ctx context.Context) error {
	cfg := p.cfg

	if cfg.Clean {
		infof("Removing workspace %s", p.paths.CloneRoot)
		return removeTree(p.paths.CloneRoot)
	}

	if err := p.preflight(); err != nil {
		return err
	}

	if !cfg.SkipClone {
		if err := p.cloneStage(); err != nil {
			return err
		}
	}
	// Resuming into an existing unbuilt checkout: scrub old objects so the
	// build starts from scratch without a fresh clone.
	if cfg.SkipClone && !cfg.SkipBuild {
		if err := p.cleanStage(); err != nil {
			return err
		}
	}
	if !cfg.SkipBuild {
		if err := p.buildStage(); err != nil {
			return err
		}
	}
	if !cfg.SkipPackage {
		if err := p.packageStage(); err != nil {
			return err
		}
	}
	if cfg.Archive {
		if err := p.archiveStage(ctx); err != nil {
			return err
		}
	}

	infof("Release complete: %s", p.paths.ReleaseDir)
	return nil
}

// preflight verifies the external tools and directories every later stage
// depends on, so a doomed multi-hour run fails in the first second instead.
func (p *Pipeline) preflight() error {
	if !p.cfg.SkipClone || !p.cfg.SkipPackage {
		if err := p.exec.ProbeTool("git", []string{"--version"}, `git version`); err != nil {
			return err
		}
	}
	if !p.cfg.SkipBuild {
		if err := p.exec.ProbeTool(p.profile.MakeTool, []string{"--version"}, ""); err != nil {
			return err
		}
	}
	// The 64-bit toolchain only matters if something will be built.
	if !p.cfg.SkipBuild && p.widthRequested(Bits64) {
		for _, name := range p.profile.RequiredEnv64 {
			if os.Getenv(name) == "" {
				return failf("environment variable %s must point at the 64-bit toolchain", name)
			}
		}
	}
	return nil
}

func (p *Pipeline) widthRequested(w BitWidth) bool {
	for _, have := range p.cfg.Widths() {
		if have == w {
			return true
		}
	}
	return false
}

// cloneStage wipes the workspace and clones every component at the
// requested tag or branch, shallow.
func (p *Pipeline) cloneStage() error {
	infof("Cloning %d repositories at %s into %s", len(components), p.cfg.Tag, p.paths.CloneRoot)
	if err := removeTree(p.paths.CloneRoot); err != nil {
		return err
	}
	if err := os.MkdirAll(p.paths.CloneRoot, 0o755); err != nil {
		return err
	}
	for _, c := range components {
		infof("Cloning %s", c.Name)
		if err := gitClone(p.exec, c.Repo, p.paths.Clone(c.Name), p.cfg.Tag); err != nil {
			return err
		}
	}
	return nil
}

// cleanStage runs each component's clean recipe for every requested bit
// width. Only reached when reusing an existing checkout for a fresh build.
func (p *Pipeline) cleanStage() error {
	infof("Cleaning existing checkout %s", p.paths.CloneRoot)
	for _, c := range buildOrder() {
		dir := filepath.Join(p.paths.Clone(c.Name), c.SubDir)
		if !isDir(dir) {
			return failf("checkout for %s not found at %s (clone first or check --use-clone)", c.Name, dir)
		}
		for _, w := range p.cfg.Widths() {
			cmd := exec.Command(p.profile.MakeTool,
				"-f", p.profile.Makefile(w), "MODEL="+w.Model(), "clean")
			cmd.Dir = dir
			if err := p.exec.Run(cmd); err != nil {
				return err
			}
		}
	}
	return removeTree(p.paths.StageRoot)
}

// buildStage builds every component per requested bit width in dependency
// order, then the documentation once.
func (p *Pipeline) buildStage() error {
	widths := p.cfg.Widths()

	// A 64-bit-only request still needs a 32-bit compiler first on targets
	// where the 64-bit standard library links against one during its build.
	if p.profile.Needs32BitHelper && len(widths) == 1 && widths[0] == Bits64 {
		infof("Building 32-bit compiler (build-time dependency of the 64-bit libraries)")
		if err := p.buildComponent(*componentByName("dmd"), Bits32); err != nil {
			return err
		}
	}

	for _, w := range widths {
		infof("Building %s-bit toolchain", w)
		for _, c := range buildOrder() {
			if err := p.buildComponent(c, w); err != nil {
				return err
			}
		}
		if err := p.stageArtifacts(w); err != nil {
			return err
		}
	}

	if !p.cfg.SkipDocs {
		if err := p.buildDocs(); err != nil {
			return err
		}
	}
	return nil
}

// buildComponent invokes the build tool with the component's recipe:
//
//	MAKE [-jN] MODEL=<bits> [DMD=<path>] RELEASE=1 LATEST=<tag> -f <makefile> [targets]
func (p *Pipeline) buildComponent(c Component, w BitWidth) error {
	dir := filepath.Join(p.paths.Clone(c.Name), c.SubDir)

	var args []string
	if p.cfg.Jobs > 1 {
		args = append(args, fmt.Sprintf("-j%d", p.cfg.Jobs))
	}
	args = append(args, "MODEL="+w.Model())
	if c.NeedsDMD {
		args = append(args, "DMD="+p.dmdPath())
	}
	args = append(args, "RELEASE=1", "LATEST="+p.cfg.Tag, "-f", p.profile.Makefile(w))
	args = append(args, c.Targets...)

	cmd := exec.Command(p.profile.MakeTool, args...)
	cmd.Dir = dir
	if env := p.profile.BuildEnv(w); len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	return p.exec.Run(cmd)
}

// buildDocs generates the website/reference docs once, not per bit width.
func (p *Pipeline) buildDocs() error {
	infof("Building documentation")
	cmd := exec.Command(p.profile.MakeTool,
		"MODEL="+Bits32.Model(), "DMD="+p.dmdPath(),
		"RELEASE=1", "LATEST="+p.cfg.Tag,
		"-f", p.profile.Makefile32, "html")
	cmd.Dir = p.paths.Clone("dlang.org")
	return p.exec.Run(cmd)
}

// dmdPath is the freshly built compiler, used by every later component.
func (p *Pipeline) dmdPath() string {
	return filepath.Join(p.paths.Clone("dmd"), "src", p.profile.dmdName())
}

// stageArtifacts copies one bit width's build outputs into the staging area
// before the next width's build overwrites them in place.
func (p *Pipeline) stageArtifacts(w BitWidth) error {
	binDst := p.paths.StageBin(w)
	libDst := p.paths.StageLib(w)
	if err := os.MkdirAll(binDst, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(libDst, 0o755); err != nil {
		return err
	}

	dmd := p.dmdPath()
	if !isFile(dmd) {
		return failf("compiler binary %s missing after build", dmd)
	}
	if err := copyFile(dmd, filepath.Join(binDst, p.profile.dmdName())); err != nil {
		return err
	}

	tools := componentByName("tools")
	for _, t := range tools.Targets {
		src := filepath.Join(p.paths.Clone("tools"), t+p.profile.ExeExt)
		if !isFile(src) {
			return failf("tool binary %s missing after build", src)
		}
		if err := copyFile(src, filepath.Join(binDst, t+p.profile.ExeExt)); err != nil {
			return err
		}
	}

	lib := filepath.Join(p.paths.Clone("phobos"), p.profile.PhobosLib(w))
	if !isFile(lib) {
		return failf("standard library %s missing after build", lib)
	}
	return copyFile(lib, filepath.Join(libDst, filepath.Base(lib)))
}

// packageStage assembles the canonical release tree and verifies it.
func (p *Pipeline) packageStage() error {
	paths := p.paths
	infof("Assembling release directory %s", filepath.Base(paths.ReleaseDir))

	// Always rebuilt from nothing so a rerun with a different tag cannot
	// inherit stale artifacts.
	if err := removeTree(paths.ReleaseDir); err != nil {
		return err
	}
	if err := os.MkdirAll(paths.OSRoot, 0o755); err != nil {
		return err
	}

	// Extras layer in from generic to specific; later layers overwrite.
	for _, layer := range []string{paths.ExtrasAll, paths.ExtrasOS, p.cfg.ExtrasDir} {
		if !isDir(layer) {
			return failf("extras tree %s not found (was the installer repository cloned?)", layer)
		}
		infof("Merging extras from %s", layer)
		if err := copyDir(layer, paths.ReleaseDir, nil); err != nil {
			return err
		}
	}
	// Editor droppings sometimes ride along in hand-maintained extras trees.
	if err := removeFilesMatching(paths.ReleaseDir, "*~", traverseDepth, nil); err != nil {
		return err
	}

	// Version-controlled sources per component.
	for _, c := range components {
		if !c.Sources {
			continue
		}
		clone := paths.Clone(c.Name)
		files, err := gitTrackedFiles(p.exec, clone)
		if err != nil {
			return err
		}
		dst := filepath.Join(paths.SrcRoot, c.Name)
		debugf("copying %d tracked files for %s\n", len(files), c.Name)
		if err := copyFiles(files, clone, dst, func(rel string) bool {
			return !archiveSkip(filepath.Base(rel))
		}); err != nil {
			return err
		}
	}

	if !p.cfg.SkipDocs {
		if err := p.packageDocs(); err != nil {
			return err
		}
	}

	// Compiled binaries and libraries, per bit width, from the staging area.
	for _, w := range p.cfg.Widths() {
		stageBin := paths.StageBin(w)
		if !isDir(stageBin) {
			return failf("no %s-bit build artifacts in %s; run without --skip-build first", w, stageBin)
		}
		if err := copyDir(stageBin, paths.Bin(w), nil); err != nil {
			return err
		}
		if err := copyDir(paths.StageLib(w), paths.Lib(w), nil); err != nil {
			return err
		}
	}

	if err := verifyManifest(p.profile, paths, p.cfg.ExtrasDir); err != nil {
		return err
	}
	infof("Release layout verified")
	return nil
}

// packageDocs copies the generated website into the release, keeping only
// the rendered content (html, stylesheets, scripts, images) and leaving out
// the help-file build subtree and the document sources.
func (p *Pipeline) packageDocs() error {
	src := filepath.Join(p.paths.Clone("dlang.org"), "web")
	if !isDir(src) {
		return failf("generated documentation not found at %s (build docs first or pass --skip-docs)", src)
	}
	exclude := p.profile.DocExcludeDir
	return copyDir(src, p.paths.DocRoot, func(rel string, isDir bool) bool {
		if isDir {
			return filepath.Base(rel) != exclude
		}
		switch filepath.Ext(rel) {
		case ".html", ".css", ".js", ".png", ".jpg", ".jpeg", ".gif", ".ico", ".svg":
			return true
		}
		return false
	})
}

// archiveStage packs the release directory. It deliberately has no skip
// flag; it is opt-in and only needs the release directory on disk, so it
// can run standalone after a prior packaging run.
func (p *Pipeline) archiveStage(ctx context.Context) error {
	paths := p.paths
	if !isDir(paths.ReleaseDir) {
		return failf("release directory %s not found; run packaging first", paths.ReleaseDir)
	}

	infof("Writing archive %s", filepath.Base(paths.ArchivePath))
	var err error
	if p.cfg.ArchiveXZ {
		err = buildTarXZ(paths.ReleaseDir, paths.ArchivePath)
	} else {
		err = buildArchive(paths.ReleaseDir, paths.ArchivePath)
	}
	if err != nil {
		return err
	}

	sidecar, err := writeChecksumFile(paths.ArchivePath)
	if err != nil {
		return err
	}

	if p.cfg.Upload {
		return uploadRelease(ctx, p.cfg.Values, p.cfg.Tag, paths.ArchivePath, sidecar)
	}
	return nil
}
