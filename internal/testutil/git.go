package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// GitHelper runs git commands in a repo directory.
type GitHelper struct {
	t            *testing.T
	dir          string
	resolvedPath string
}

func (g *GitHelper) Run(args ...string) {
	g.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = g.dir
	if out, err := cmd.CombinedOutput(); err != nil {
		g.t.Fatalf("git %v: %s: %v", args, out, err)
	}
}

func (g *GitHelper) Path() string {
	if g.resolvedPath != "" {
		return g.resolvedPath
	}
	return g.dir
}

func (g *GitHelper) HeadSHA() string {
	g.t.Helper()
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = g.dir
	out, err := cmd.Output()
	if err != nil {
		g.t.Fatalf("git rev-parse HEAD: %v", err)
	}
	return strings.TrimSpace(string(out))
}

// WriteFile writes a file in the work tree without staging it.
func (g *GitHelper) WriteFile(name, content string) {
	g.t.Helper()
	path := filepath.Join(g.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		g.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		g.t.Fatal(err)
	}
}

// StageFile writes a file and adds it to the index.
func (g *GitHelper) StageFile(name, content string) {
	g.t.Helper()
	g.WriteFile(name, content)
	g.Run("add", name)
}

func (g *GitHelper) CommitFile(name, content, msg string) {
	g.t.Helper()
	g.StageFile(name, content)
	g.Run("commit", "-m", msg)
}

func NewGitRepo(t *testing.T) *GitHelper {
	t.Helper()
	dir := t.TempDir()

	// Resolve symlinks for macOS /var -> /private/var
	resolvedPath, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolvedPath = dir
	}

	g := &GitHelper{t: t, dir: dir, resolvedPath: resolvedPath}
	g.Run("init", "-b", "main")
	g.Run("config", "user.email", "test@test.com")
	g.Run("config", "user.name", "Test")
	return g
}
