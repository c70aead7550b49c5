package release

import (
	"strings"
	"testing"
)

func validConfig(t *testing.T) *ReleaseConfig {
	t.Helper()
	return &ReleaseConfig{Tag: "v1.0", ExtrasDir: t.TempDir()}
}

func TestWidthsDefaulting(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	got := cfg.Widths()
	if len(got) != 2 || got[0] != Bits32 || got[1] != Bits64 {
		t.Fatalf("Widths() = %v, want [32 64]", got)
	}

	cfg = validConfig(t)
	cfg.Only32 = true
	if got := cfg.Widths(); len(got) != 1 || got[0] != Bits32 {
		t.Fatalf("Widths() with only-32 = %v, want [32]", got)
	}

	cfg = validConfig(t)
	cfg.Only64 = true
	if got := cfg.Widths(); len(got) != 1 || got[0] != Bits64 {
		t.Fatalf("Widths() with only-64 = %v, want [64]", got)
	}
}

func TestOnlyFlagsMutuallyExclusive(t *testing.T) {
	cfg := validConfig(t)
	cfg.Only32 = true
	cfg.Only64 = true
	err := cfg.normalize()
	if err == nil {
		t.Fatal("normalize accepted --only-32 with --only-64")
	}
	if _, ok := err.(*Fail); !ok {
		t.Fatalf("error is %T, want *Fail", err)
	}
}

func TestSkipFlagsCascade(t *testing.T) {
	cfg := validConfig(t)
	cfg.SkipPackage = true
	cfg.Archive = true
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !cfg.SkipBuild {
		t.Error("skip-package did not imply skip-build")
	}
	if !cfg.SkipClone {
		t.Error("skip-package did not imply skip-clone")
	}

	cfg = validConfig(t)
	cfg.SkipBuild = true
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !cfg.SkipClone {
		t.Error("skip-build did not imply skip-clone")
	}
}

func TestUseCloneImpliesSkipClone(t *testing.T) {
	cfg := validConfig(t)
	cfg.UseClone = t.TempDir()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !cfg.SkipClone {
		t.Error("use-clone did not imply skip-clone")
	}
}

func TestUploadImpliesArchive(t *testing.T) {
	cfg := validConfig(t)
	cfg.Upload = true
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !cfg.Archive {
		t.Error("upload did not imply archive")
	}
}

func TestSkipPackageWithoutArchiveIsNothingToDo(t *testing.T) {
	cfg := validConfig(t)
	cfg.SkipPackage = true
	err := cfg.normalize()
	if err == nil {
		t.Fatal("normalize accepted skip-package without archive")
	}
	if !strings.Contains(err.Error(), "nothing to do") {
		t.Fatalf("error = %q, want it to mention nothing to do", err)
	}
}

func TestMissingTagRejected(t *testing.T) {
	cfg := &ReleaseConfig{ExtrasDir: t.TempDir()}
	if err := cfg.normalize(); err == nil {
		t.Fatal("normalize accepted empty tag")
	}
}

func TestMissingExtrasRejected(t *testing.T) {
	cfg := &ReleaseConfig{Tag: "v1.0"}
	if err := cfg.normalize(); err == nil {
		t.Fatal("normalize accepted missing --extras")
	}

	cfg = &ReleaseConfig{Tag: "v1.0", ExtrasDir: "/no/such/dir"}
	if err := cfg.normalize(); err == nil {
		t.Fatal("normalize accepted nonexistent extras directory")
	}
}

func TestCleanShortCircuitsValidation(t *testing.T) {
	cfg := &ReleaseConfig{Clean: true}
	if err := cfg.normalize(); err != nil {
		t.Fatalf("clean-only config rejected: %v", err)
	}
}
