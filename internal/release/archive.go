package release

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/pgzip"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"
	"golang.org/x/term"
)

// archiveSkip returns true for entries that never belong in a release
// archive: VCS metadata and OS scratch files.
func archiveSkip(name string) bool {
	switch name {
	case ".git", ".gitignore", ".gitmodules", ".gitattributes",
		".DS_Store", "Thumbs.db", "desktop.ini":
		return true
	}
	return false
}

func newArchiveBar(count int, desc string) *progressbar.ProgressBar {
	if Quiet || !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}
	return progressbar.NewOptions(count,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// collectArchiveFiles walks sourceDir depth-first and returns every regular
// file, as paths relative to the parent of sourceDir (so the archive expands
// into a single top-level directory).
func collectArchiveFiles(sourceDir string) ([]string, string, error) {
	parent := filepath.Dir(sourceDir)
	var files []string
	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if archiveSkip(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(parent, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	return files, parent, err
}

// buildArchive packs sourceDir into a deflate-compressed zip at archivePath,
// overwriting any existing archive. Member paths are relative to the parent
// of sourceDir; modification times and permission bits are stored.
func buildArchive(sourceDir, archivePath string) error {
	files, parent, err := collectArchiveFiles(sourceDir)
	if err != nil {
		return fmt.Errorf("walking %s: %w", sourceDir, err)
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	bar := newArchiveBar(len(files), "archiving")

	for _, rel := range files {
		if err := addZipMember(zw, parent, rel); err != nil {
			zw.Close()
			return err
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return out.Close()
}

func addZipMember(zw *zip.Writer, parent, rel string) error {
	path := filepath.Join(parent, rel)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = filepath.ToSlash(rel)
	hdr.Method = zip.Deflate
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("compress %s: %w", rel, err)
	}
	return nil
}

// extractArchive expands a zip archive into outputDir, restoring each
// member's modification time and permission bits. Zero-length members
// (directory placeholders) are skipped.
func extractArchive(archivePath, outputDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer r.Close()

	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return err
	}

	for _, f := range r.File {
		fpath := filepath.Join(outputDir, f.Name)
		// Path traversal guard.
		if !strings.HasPrefix(fpath, outputDir+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path in archive: %s", f.Name)
		}
		if f.FileInfo().IsDir() || f.UncompressedSize64 == 0 {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fpath), 0o755); err != nil {
			return err
		}

		mode := f.Mode().Perm()
		if mode == 0 {
			mode = 0o644
		}
		out, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
		if err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			out.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
		_ = os.Chmod(fpath, mode)
		if !f.Modified.IsZero() {
			_ = os.Chtimes(fpath, f.Modified, f.Modified)
		}
	}
	return nil
}

// buildTarXZ is the posix alternative archive format: a .tar.xz with the
// same member layout and exclusions as buildArchive.
func buildTarXZ(sourceDir, archivePath string) error {
	files, parent, err := collectArchiveFiles(sourceDir)
	if err != nil {
		return fmt.Errorf("walking %s: %w", sourceDir, err)
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	xw, err := xz.NewWriter(out)
	if err != nil {
		return fmt.Errorf("xz writer: %w", err)
	}
	tw := tar.NewWriter(xw)
	bar := newArchiveBar(len(files), "archiving")

	for _, rel := range files {
		path := filepath.Join(parent, rel)
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		if _, err := io.Copy(tw, f); err != nil {
			f.Close()
			return fmt.Errorf("compress %s: %w", rel, err)
		}
		f.Close()
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if err := tw.Close(); err != nil {
		return err
	}
	if err := xw.Close(); err != nil {
		return err
	}
	return out.Close()
}

// extractTarball expands a .tar.xz or .tar.gz archive into outputDir,
// restoring modification times and, where possible, symlinks.
func extractTarball(archivePath, outputDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer f.Close()

	var r io.Reader
	switch {
	case strings.HasSuffix(archivePath, ".tar.xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("xz reader: %w", err)
		}
		r = xr
	case strings.HasSuffix(archivePath, ".tar.gz"), strings.HasSuffix(archivePath, ".tgz"):
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	default:
		return fmt.Errorf("unsupported archive format: %s", archivePath)
	}

	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return err
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read: %w", err)
		}
		target := filepath.Join(outputDir, hdr.Name)
		// Path traversal guard, same as the zip side.
		if !strings.HasPrefix(target, outputDir+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path in archive: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode).Perm())
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
			_ = os.Chtimes(target, hdr.AccessTime, hdr.ModTime)
		case tar.TypeSymlink:
			// The link target must stay inside the output tree too.
			if filepath.IsAbs(hdr.Linkname) {
				return fmt.Errorf("illegal symlink target in archive: %s -> %s", hdr.Name, hdr.Linkname)
			}
			resolved := filepath.Join(filepath.Dir(target), hdr.Linkname)
			if !strings.HasPrefix(resolved, outputDir+string(os.PathSeparator)) {
				return fmt.Errorf("illegal symlink target in archive: %s -> %s", hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil && !os.IsExist(err) {
				return err
			}
			lchtimes(target, hdr.AccessTime, hdr.ModTime)
		default:
			debugf("skipping unsupported tar entry type %c: %s\n", hdr.Typeflag, hdr.Name)
		}
	}
	return nil
}
