//go:build unix

package release

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestTrackedFilesCopyOnlyTrackedContent(t *testing.T) {
	// Fake git reports two tracked files; a third untracked file sits in
	// the same directory and must not reach the destination.
	installFakeTool(t, "git", `
if [ "$1" = "ls-files" ]; then
  echo tracked1.d
  echo sub/tracked2.d
  exit 0
fi
exit 0`)

	src := t.TempDir()
	writeFile(t, filepath.Join(src, "tracked1.d"), "1")
	writeFile(t, filepath.Join(src, "sub", "tracked2.d"), "2")
	writeFile(t, filepath.Join(src, "untracked.o"), "junk")

	e := NewExecutor(context.Background())
	files, err := gitTrackedFiles(e, src)
	if err != nil {
		t.Fatalf("gitTrackedFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("tracked files = %v, want 2 entries", files)
	}

	dst := t.TempDir()
	if err := copyFiles(files, src, dst, nil); err != nil {
		t.Fatalf("copyFiles: %v", err)
	}

	copied := 0
	err = filepath.Walk(dst, func(path string, info os.FileInfo, err error) error {
		if err == nil && info.Mode().IsRegular() {
			copied++
		}
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if copied != 2 {
		t.Fatalf("copied %d files, want exactly the 2 tracked ones", copied)
	}
	if exists(filepath.Join(dst, "untracked.o")) {
		t.Error("untracked file was copied")
	}
}

func TestGitTrackedFilesFailure(t *testing.T) {
	installFakeTool(t, "git", `exit 128`)
	e := NewExecutor(context.Background())
	if _, err := gitTrackedFiles(e, t.TempDir()); err == nil {
		t.Fatal("git failure not reported")
	}
}
