package release

import (
	"path/filepath"
	"strings"
)

// workDirName is the fixed clone-workspace name under the platform temp root.
const workDirName = "drelease.workdir"

// WorkspacePaths holds every directory the pipeline touches, derived once
// from the configuration. Construction is pure: no filesystem access, all
// paths absolute with no trailing separator.
type WorkspacePaths struct {
	CloneRoot  string // workspace holding per-component checkouts
	ReleaseDir string // dmd.<tag>.<os> under the invocation directory

	OSRoot  string // <ReleaseDir>/dmd2/<os>
	SrcRoot string // <ReleaseDir>/dmd2/src
	DocRoot string // <ReleaseDir>/dmd2/html/d

	Bin32, Bin64 string
	Lib32, Lib64 string

	// Extras trees bundled inside the installer checkout; the user-supplied
	// tree lives in ReleaseConfig.ExtrasDir.
	ExtrasAll string
	ExtrasOS  string

	ArchivePath string // <ReleaseDir>.zip or .tar.xz next to ReleaseDir

	// StageRoot holds finished build artifacts per bit width, inside the
	// clone workspace. Packaging reads from here, which is what lets
	// --skip-build resume into a previously completed build.
	StageRoot string
}

// newWorkspacePaths derives the full path set. cwd and tempRoot must be
// absolute; cfg is already normalized.
func newWorkspacePaths(cfg *ReleaseConfig, profile *TargetProfile, cwd, tempRoot string) *WorkspacePaths {
	cloneRoot := filepath.Join(tempRoot, workDirName)
	if cfg.UseClone != "" {
		cloneRoot = cfg.UseClone
	}

	releaseDir := filepath.Join(cwd, "dmd."+cfg.Tag+"."+profile.OS)
	osRoot := filepath.Join(releaseDir, "dmd2", profile.OS)

	ext := ".zip"
	if cfg.ArchiveXZ {
		ext = ".tar.xz"
	}

	extrasRoot := filepath.Join(cloneRoot, "installer", "create_dmd_release", "extras")

	return &WorkspacePaths{
		CloneRoot:   strings.TrimRight(cloneRoot, string(filepath.Separator)),
		ReleaseDir:  releaseDir,
		OSRoot:      osRoot,
		SrcRoot:     filepath.Join(releaseDir, "dmd2", "src"),
		DocRoot:     filepath.Join(releaseDir, "dmd2", "html", "d"),
		Bin32:       filepath.Join(osRoot, profile.BinDir(Bits32)),
		Bin64:       filepath.Join(osRoot, profile.BinDir(Bits64)),
		Lib32:       filepath.Join(osRoot, profile.LibDir(Bits32)),
		Lib64:       filepath.Join(osRoot, profile.LibDir(Bits64)),
		ExtrasAll:   filepath.Join(extrasRoot, "all"),
		ExtrasOS:    filepath.Join(extrasRoot, profile.OS),
		ArchivePath: releaseDir + ext,
		StageRoot:   filepath.Join(cloneRoot, "artifacts"),
	}
}

// StageBin is the staging directory for built executables of one bit width.
func (w *WorkspacePaths) StageBin(width BitWidth) string {
	return filepath.Join(w.StageRoot, "bin"+width.String())
}

// StageLib is the staging directory for built libraries of one bit width.
func (w *WorkspacePaths) StageLib(width BitWidth) string {
	return filepath.Join(w.StageRoot, "lib"+width.String())
}

// Bin returns the bit-suffixed binary directory.
func (w *WorkspacePaths) Bin(width BitWidth) string {
	if width == Bits64 {
		return w.Bin64
	}
	return w.Bin32
}

// Lib returns the bit-suffixed library directory.
func (w *WorkspacePaths) Lib(width BitWidth) string {
	if width == Bits64 {
		return w.Lib64
	}
	return w.Lib32
}

// Clone returns the checkout directory for a component.
func (w *WorkspacePaths) Clone(name string) string {
	return filepath.Join(w.CloneRoot, name)
}
