package release

import "runtime"

func hostOS() string { return runtime.GOOS }

// TargetProfile collects everything that differs between host platforms:
// makefile names, directory suffixes, file extensions and toolchain quirks.
// It is selected once at startup so the pipeline itself stays platform
// agnostic.
type TargetProfile struct {
	OS       string // release name token and extras subdirectory ("linux", "windows", ...)
	MakeTool string // the external build tool ("make" or "gmake")

	Makefile32 string
	Makefile64 string

	ExeExt string // "" or ".exe"
	LibExt string // ".a" or ".lib"

	BinDir32, BinDir64 string
	LibDir32, LibDir64 string

	// DocExcludeDir is a generated-docs subtree left out of the release
	// (the Windows help-file build intermediates).
	DocExcludeDir string

	// Needs32BitHelper: building the 64-bit standard library requires a
	// working 32-bit compiler on this target, so a 32-bit compiler pass runs
	// first even when only 64-bit output was requested. Historical toolchain
	// constraint, kept as a profile flag.
	Needs32BitHelper bool

	// Extra KEY=VALUE environment for build-tool invocations, per bit width.
	BuildEnv32 []string
	BuildEnv64 []string

	// RequiredEnv64 names host environment variables that must be set before
	// a 64-bit build can work (the Microsoft toolchain locations on Windows).
	RequiredEnv64 []string

	// Manifest is the list of required support files, relative to the
	// per-OS release root. These come only from the extras trees, never
	// from a component build.
	Manifest []string
}

func (p *TargetProfile) Makefile(w BitWidth) string {
	if w == Bits64 {
		return p.Makefile64
	}
	return p.Makefile32
}

func (p *TargetProfile) BinDir(w BitWidth) string {
	if w == Bits64 {
		return p.BinDir64
	}
	return p.BinDir32
}

func (p *TargetProfile) LibDir(w BitWidth) string {
	if w == Bits64 {
		return p.LibDir64
	}
	return p.LibDir32
}

func (p *TargetProfile) BuildEnv(w BitWidth) []string {
	if w == Bits64 {
		return p.BuildEnv64
	}
	return p.BuildEnv32
}

// PhobosLib is the standard-library artifact name produced by the build,
// relative to the phobos clone.
func (p *TargetProfile) PhobosLib(w BitWidth) string {
	if p.OS == "windows" {
		if w == Bits64 {
			return "phobos64" + p.LibExt
		}
		return "phobos" + p.LibExt
	}
	return "libphobos2" + p.LibExt
}

var profiles = map[string]*TargetProfile{
	"linux": {
		OS:         "linux",
		MakeTool:   "make",
		Makefile32: "posix.mak",
		Makefile64: "posix.mak",
		LibExt:     ".a",
		BinDir32:   "bin32", BinDir64: "bin64",
		LibDir32: "lib32", LibDir64: "lib64",
		DocExcludeDir: "chm",
		Manifest: []string{
			"bin32/dumpobj",
			"bin32/obj2asm",
			"bin64/dumpobj",
			"bin64/obj2asm",
		},
	},
	"freebsd": {
		OS:         "freebsd",
		MakeTool:   "gmake",
		Makefile32: "posix.mak",
		Makefile64: "posix.mak",
		LibExt:     ".a",
		BinDir32:   "bin32", BinDir64: "bin64",
		LibDir32: "lib32", LibDir64: "lib64",
		DocExcludeDir: "chm",
		Manifest: []string{
			"bin32/dumpobj",
			"bin32/obj2asm",
			"bin64/dumpobj",
			"bin64/obj2asm",
		},
	},
	"darwin": {
		OS:         "osx",
		MakeTool:   "make",
		Makefile32: "posix.mak",
		Makefile64: "posix.mak",
		LibExt:     ".a",
		BinDir32:   "bin32", BinDir64: "bin64",
		LibDir32: "lib32", LibDir64: "lib64",
		DocExcludeDir: "chm",
		Manifest: []string{
			"bin32/dumpobj",
			"bin32/obj2asm",
			"bin64/dumpobj",
			"bin64/obj2asm",
		},
	},
	"windows": {
		OS:         "windows",
		MakeTool:   "make",
		Makefile32: "win32.mak",
		Makefile64: "win64.mak",
		ExeExt:     ".exe",
		LibExt:     ".lib",
		BinDir32:   "bin", BinDir64: "bin64",
		LibDir32: "lib", LibDir64: "lib64",
		DocExcludeDir:    "chm",
		Needs32BitHelper: true,
		// The 64-bit makefiles locate the Microsoft toolchain through these.
		RequiredEnv64: []string{"VCDIR", "SDKDIR"},
		BuildEnv64:    []string{"AR=lib"},
		Manifest: []string{
			"bin/link.exe",
			"bin/lib.exe",
			"bin/make.exe",
			"bin/replace.exe",
			"bin/shell.exe",
			"bin/dm.dll",
			"bin/eecxxx86.dll",
			"bin/emx86.dll",
			"bin/mspdb41.dll",
			"bin/shcv.dll",
			"bin/tlloc.dll",
			"lib/advapi32.lib",
			"lib/comctl32.lib",
			"lib/comdlg32.lib",
			"lib/gdi32.lib",
			"lib/kernel32.lib",
			"lib/ole32.lib",
			"lib/oleaut32.lib",
			"lib/rpcrt4.lib",
			"lib/shell32.lib",
			"lib/snn.lib",
			"lib/user32.lib",
			"lib/uuid.lib",
			"lib/winmm.lib",
			"lib/winspool.lib",
			"lib/ws2_32.lib",
			"lib/wsock32.lib",
		},
	},
}

// profileFor selects the target profile for the host OS.
func profileFor(goos string) (*TargetProfile, error) {
	p, ok := profiles[goos]
	if !ok {
		return nil, failf("unsupported host platform %q", goos)
	}
	return p, nil
}

// dmdName is the compiler executable with the platform suffix.
func (p *TargetProfile) dmdName() string { return "dmd" + p.ExeExt }
