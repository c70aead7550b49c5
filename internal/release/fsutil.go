package release

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// copyFile copies a single regular file preserving its permission bits.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// Perm on OpenFile is masked by umask; restate it.
	return os.Chmod(dst, info.Mode().Perm())
}

// copyFiles copies an explicit list of paths relative to srcDir into dstDir,
// creating destination parents as needed. filter (optional) rejects entries
// by relative path.
func copyFiles(files []string, srcDir, dstDir string, filter func(string) bool) error {
	for _, rel := range files {
		if filter != nil && !filter(rel) {
			continue
		}
		src := filepath.Join(srcDir, rel)
		info, err := os.Lstat(src)
		if err != nil {
			return fmt.Errorf("cannot copy %s: %w", src, err)
		}
		if !info.Mode().IsRegular() {
			continue // lists may name submodule dirs or links; only files copy
		}
		if err := copyFile(src, filepath.Join(dstDir, rel)); err != nil {
			return fmt.Errorf("copy %s: %w", rel, err)
		}
	}
	return nil
}

// copyDir recursively mirrors src into dst. Dotfiles are always skipped;
// symlinks are recreated as symlinks rather than followed; filter (optional)
// rejects entries by path relative to src. dst is created if absent.
func copyDir(src, dst string, filter func(rel string, isDir bool) bool) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil || rel == "." {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if filter != nil && !filter(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type()&fs.ModeSymlink != 0:
			dest, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("readlink %s: %w", path, err)
			}
			_ = os.Remove(target)
			return os.Symlink(dest, target)
		case d.Type().IsRegular():
			return copyFile(path, target)
		default:
			debugf("skipping special file %s\n", path)
			return nil
		}
	})
}

// traverseMode selects how removeFilesMatching walks the tree.
type traverseMode int

const (
	traverseShallow traverseMode = iota // top level only
	traverseDepth                       // full tree, depth-first
	traverseBreadth                     // rejected: unsafe for deletion
)

// removeFilesMatching deletes regular files under dir whose base name
// matches pattern. Directories are never removed. Breadth-first order is
// refused outright since deleting while visiting breadth-first invalidates
// the traversal.
func removeFilesMatching(dir, pattern string, mode traverseMode, filter func(string) bool) error {
	if mode == traverseBreadth {
		return fmt.Errorf("removeFilesMatching: breadth-first deletion is not supported")
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if mode == traverseShallow && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		ok, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if !ok {
			return nil
		}
		if filter != nil && !filter(path) {
			return nil
		}
		debugf("removing %s\n", path)
		return os.Remove(path)
	})
}

// removeTree deletes path recursively. Absent paths are a no-op, so calling
// it twice is always safe. The failure diagnostic points at the dominant
// real-world cause: another process holding a file open inside the tree.
func removeTree(path string) error {
	if !exists(path) {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return failf("failed to remove %s (a file inside may be held open by another process): %v", path, err)
	}
	return nil
}
