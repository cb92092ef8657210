package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrRepositoryNotFound is returned by Open when the path is not inside a
// git repository. It is fatal at startup and never retried.
var ErrRepositoryNotFound = fmt.Errorf("repository not found")

// normalizeMSYSPath converts MSYS-style paths (e.g., /c/Users/...) to Windows paths (C:\Users\...).
// On non-Windows systems, it just applies filepath.FromSlash.
func normalizeMSYSPath(path string) string {
	path = strings.TrimSpace(path)
	if runtime.GOOS == "windows" && len(path) >= 3 && path[0] == '/' {
		if (path[1] >= 'a' && path[1] <= 'z' || path[1] >= 'A' && path[1] <= 'Z') && path[2] == '/' {
			path = strings.ToUpper(string(path[1])) + ":" + path[2:]
		}
	}
	return filepath.FromSlash(path)
}

// Reader answers point-in-time diff queries against one repository.
// It holds only the resolved repo root and performs no writes; it is the
// only layer that sees git's error shapes.
type Reader struct {
	root string
}

// Open resolves the repository root containing path. Returns
// ErrRepositoryNotFound if path is not inside a work tree.
func Open(path string) (*Reader, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = path

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, path)
	}

	return &Reader{root: normalizeMSYSPath(string(out))}, nil
}

// Root returns the repository root directory.
func (r *Reader) Root() string {
	return r.root
}

// Diff runs the comparison described by mode and returns the parsed payload.
// It never returns an error: git failures (missing ref, empty history,
// detached HEAD) and inapplicable queries degrade to the empty result, with
// the cause logged. The interactive layer has no safe way to display a raw
// git error, so degrade-to-empty is the contract here.
func (r *Reader) Diff(mode DiffMode) *DiffResult {
	args, ok := r.diffArgs(mode)
	if !ok {
		// Structurally inapplicable (e.g. range mode with no refs yet).
		return &DiffResult{Mode: mode}
	}

	cmd := exec.Command("git", args...)
	cmd.Dir = r.root

	out, err := cmd.Output()
	if err != nil {
		log.Debug().Str("mode", mode.String()).Err(err).Msg("diff query failed")
		return &DiffResult{Mode: mode}
	}

	result, err := parseUnified(string(out))
	if err != nil {
		log.Debug().Str("mode", mode.String()).Err(err).Msg("diff parse failed")
		return &DiffResult{Mode: mode}
	}
	result.Mode = mode
	return result
}

// diffArgs maps a mode to git arguments. The second return is false when the
// mode cannot produce a meaningful query (range mode without refs).
func (r *Reader) diffArgs(mode DiffMode) ([]string, bool) {
	common := []string{"diff", "--no-color", "--no-ext-diff", "-M"}
	switch mode.Kind {
	case ModeUnstaged:
		return common, true
	case ModeStaged:
		return append(common, "--cached"), true
	case ModeBranch:
		base := mode.Base
		if base == "" {
			b, err := DefaultBranch(r.root)
			if err != nil {
				return nil, false
			}
			base = b
		}
		return append(common, base, "HEAD"), true
	case ModeRange:
		if mode.From == "" || mode.To == "" {
			return nil, false
		}
		return append(common, mode.From, mode.To), true
	}
	return nil, false
}

// CurrentBranch returns the current branch name, or empty string if detached HEAD
func CurrentBranch(repoPath string) string {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = repoPath

	out, err := cmd.Output()
	if err != nil {
		return ""
	}

	branch := strings.TrimSpace(string(out))
	if branch == "HEAD" {
		// Detached HEAD state
		return ""
	}
	return branch
}

// ResolveSHA resolves a ref (like HEAD) to a full SHA
func ResolveSHA(repoPath, ref string) (string, error) {
	cmd := exec.Command("git", "rev-parse", ref)
	cmd.Dir = repoPath

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

// DefaultBranch detects the default branch (from origin/HEAD, or main/master locally)
func DefaultBranch(repoPath string) (string, error) {
	cmd := exec.Command("git", "symbolic-ref", "refs/remotes/origin/HEAD")
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err == nil {
		ref := strings.TrimSpace(string(out))
		branchName := strings.TrimPrefix(ref, "refs/remotes/origin/")
		if branchName != "" {
			checkCmd := exec.Command("git", "rev-parse", "--verify", "--quiet", "refs/remotes/origin/"+branchName)
			checkCmd.Dir = repoPath
			if checkCmd.Run() == nil {
				return "origin/" + branchName, nil
			}
			checkCmd = exec.Command("git", "rev-parse", "--verify", "--quiet", branchName)
			checkCmd.Dir = repoPath
			if checkCmd.Run() == nil {
				return branchName, nil
			}
		}
	}

	// Fall back to common local branch names (for repos without origin)
	for _, branch := range []string{"main", "master"} {
		cmd := exec.Command("git", "rev-parse", "--verify", "--quiet", branch)
		cmd.Dir = repoPath
		if err := cmd.Run(); err == nil {
			return branch, nil
		}
	}

	return "", fmt.Errorf("could not detect default branch (tried origin/HEAD, main, master)")
}
