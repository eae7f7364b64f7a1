package mobileversion

import (
	"bytes"
	"fmt"
	"os/exec"
)

// checkGit verifies that git is available on the system.
func checkGit() error {
	cmd := exec.Command("git", "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: git is not available on the system", ErrGit)
	}
	return nil
}

// runGit runs git with args, folding stderr into the returned error.
func runGit(args ...string) error {
	cmd := exec.Command("git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: git %s failed: %v, detail: %s", ErrGit, args[0], err, stderr.String())
	}
	return nil
}

// gitCommit stages files, commits them with message and, when tag is not
// empty, tags the commit.
func gitCommit(message string, files []string, tag string) error {
	if len(files) == 0 {
		return nil
	}

	addArgs := append([]string{"add", "--"}, files...)
	if err := runGit(addArgs...); err != nil {
		return err
	}
	if err := runGit("commit", "-m", message); err != nil {
		return err
	}
	if tag == "" {
		return nil
	}
	return runGit("tag", tag)
}
