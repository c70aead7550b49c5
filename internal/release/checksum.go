package release

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"lukechampine.com/blake3"
)

// hashFile computes the BLAKE3 digest of a file. A system b3sum is used
// when present (it is considerably faster on large archives); otherwise the
// pure-Go implementation serves.
func hashFile(path string) (string, error) {
	if _, err := exec.LookPath("b3sum"); err == nil {
		cmd := exec.Command("b3sum", "--no-names", path)
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err == nil {
			sum := strings.TrimSpace(out.String())
			if sum != "" {
				return sum, nil
			}
		}
		warnf("system b3sum failed on %s, using built-in hashing", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// writeChecksumFile writes "<digest>  <file>" next to the archive so a
// download can be verified with b3sum -c.
func writeChecksumFile(archivePath string) (string, error) {
	sum, err := hashFile(archivePath)
	if err != nil {
		return "", fmt.Errorf("checksum %s: %w", archivePath, err)
	}
	sidecar := archivePath + ".b3sum"
	line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(archivePath))
	if err := os.WriteFile(sidecar, []byte(line), 0o644); err != nil {
		return "", err
	}
	return sidecar, nil
}
