package release

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// Executor runs external tools synchronously. Every invocation carries its
// working directory on the command itself; the process-wide cwd is never
// changed. Cancellation kills the whole child process group so a stuck
// clone or build dies with the run.
type Executor struct {
	Context context.Context
}

func NewExecutor(ctx context.Context) *Executor {
	return &Executor{Context: ctx}
}

// Run executes cmd and blocks until it exits. Stdio is inherited unless the
// caller wired its own. A nonzero exit reports the directory the command ran
// from, since build failures are only diagnosable with that context.
func (e *Executor) Run(cmd *exec.Cmd) error {
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if len(cmd.Env) == 0 {
		cmd.Env = os.Environ()
	}

	if Verbose {
		cPrintf(colInfo, "+ %s (in %s)\n", strings.Join(cmd.Args, " "), runDir(cmd))
	}

	isolateProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Args[0], err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-e.Context.Done():
			killProcessGroup(cmd)
		case <-done:
		}
	}()

	if err := cmd.Wait(); err != nil {
		if e.Context.Err() != nil {
			time.Sleep(100 * time.Millisecond)
			return failf("command aborted: %v", e.Context.Err())
		}
		return failf("command failed: %s, ran from directory %s", strings.Join(cmd.Args, " "), runDir(cmd))
	}
	return nil
}

// RunCapture is Run with standard output captured and returned. Nonzero
// exit is still an error.
func (e *Executor) RunCapture(cmd *exec.Cmd) (string, error) {
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := e.Run(cmd); err != nil {
		return "", err
	}
	return out.String(), nil
}

// ProbeTool checks that a tool is present and sane by invoking it with probe
// arguments. The exit status is deliberately ignored (plenty of tools exit
// nonzero on a help invocation); when pattern is non-empty the combined
// output must match it.
func (e *Executor) ProbeTool(name string, probeArgs []string, pattern string) error {
	if _, err := exec.LookPath(name); err != nil {
		return failf("required tool %q not found on PATH", name)
	}

	cmd := exec.CommandContext(e.Context, name, probeArgs...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	_ = cmd.Run() // exit status intentionally discarded

	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("bad probe pattern %q: %w", pattern, err)
		}
		if !re.MatchString(out.String()) {
			return failf("tool %q did not identify itself as expected (output: %s)",
				name, strings.TrimSpace(out.String()))
		}
	}
	return nil
}

func runDir(cmd *exec.Cmd) string {
	if cmd.Dir != "" {
		return cmd.Dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
