package release

import (
	"os/exec"
	"strings"
)

// gitClone makes a shallow clone of repo at the given tag or branch.
// Output streams through so a slow network clone is visible.
func gitClone(e *Executor, repo, dest, branch string) error {
	cmd := exec.Command("git", "clone", "--depth", "1", "-b", branch, repo, dest)
	return e.Run(cmd)
}

// gitTrackedFiles lists the files git tracks in dir, relative to dir.
// Feeding this into copyFiles guarantees a release only ever contains
// committed content, never build droppings or local edits.
func gitTrackedFiles(e *Executor, dir string) ([]string, error) {
	cmd := exec.Command("git", "ls-files")
	cmd.Dir = dir
	out, err := e.RunCapture(cmd)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}
