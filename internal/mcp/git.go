package mcp

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	maxGitFiles   = 20
	maxGitCommits = 5
)

// gitStatus describes uncommitted work under the posts directory.
type gitStatus struct {
	Branch      string   `json:"branch,omitempty"`
	LastCommits []string `json:"last_commits,omitempty"`
	Modified    []string `json:"modified_posts,omitempty"`
	Unpublished []string `json:"unpublished_posts,omitempty"`
	Note        string   `json:"note,omitempty"`
}

// postsGitStatus reports best-effort git state for postsDir.
// Returns nil when the directory is not inside a git repository.
func postsGitStatus(postsDir string) *gitStatus {
	root := findGitRoot(postsDir)
	if root == "" {
		return nil
	}

	st := &gitStatus{}
	var notes []string

	branch, err := runGit(root, "branch", "--show-current")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return &gitStatus{Note: "git not installed"}
		}
		notes = append(notes, "branch unavailable")
	} else {
		st.Branch = strings.TrimSpace(branch)
	}

	rel, err := filepath.Rel(root, absPath(postsDir))
	if err != nil {
		rel = "."
	}

	logOut, err := runGit(root, "log", "--oneline", "-5", "--", rel)
	if err != nil {
		notes = append(notes, "commit history unavailable")
	} else {
		st.LastCommits = splitNonEmptyLines(logOut, maxGitCommits)
	}

	statusOut, err := runGit(root, "status", "--porcelain", "--untracked-files=all", "--", rel)
	if err != nil {
		notes = append(notes, "status unavailable")
	} else {
		st.Modified, st.Unpublished = parsePorcelainStatus(statusOut)
	}

	if len(notes) > 0 {
		st.Note = strings.Join(notes, "; ")
	}
	return st
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func findGitRoot(startPath string) string {
	dir := absPath(startPath)
	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func runGit(root string, args ...string) (string, error) {
	cmdArgs := append([]string{"-C", root}, args...)
	out, err := exec.Command("git", cmdArgs...).CombinedOutput()
	if err != nil {
		return "", err
	}
	return trimOutput(string(out)), nil
}

// trimOutput drops trailing line breaks only. Leading spaces are significant
// in porcelain status codes.
func trimOutput(out string) string {
	return strings.TrimRight(out, "\r\n")
}

func splitNonEmptyLines(text string, max int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) >= max {
			break
		}
	}
	return out
}

// parsePorcelainStatus splits `git status --porcelain` output into changed
// and untracked Markdown files. Other files are ignored.
func parsePorcelainStatus(status string) (modified []string, untracked []string) {
	for _, line := range strings.Split(status, "\n") {
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		path := strings.TrimSpace(line[3:])
		if i := strings.LastIndex(path, " -> "); i >= 0 {
			path = strings.TrimSpace(path[i+4:])
		}
		path = strings.Trim(path, `"`)
		if !strings.HasSuffix(strings.ToLower(path), ".md") {
			continue
		}
		if code == "??" {
			if len(untracked) < maxGitFiles {
				untracked = append(untracked, path)
			}
			continue
		}
		if len(modified) < maxGitFiles {
			modified = append(modified, path)
		}
	}
	return modified, untracked
}
