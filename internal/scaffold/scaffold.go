// Package scaffold creates new post files from a template.
package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
	"gopkg.in/yaml.v3"
)

// DefaultTitle is used when no title is given.
const DefaultTitle = "untitled"

// PlaceholderBody is written below the front matter of a new post.
const PlaceholderBody = "Write your content here.\n"

// ErrPostExists is returned when the target file is already present.
var ErrPostExists = errors.New("post already exists")

type template struct {
	Title       string   `yaml:"title"`
	Date        string   `yaml:"date"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags,flow"`
}

// Filename returns the file name for a post titled title created on day.
func Filename(title string, day time.Time) string {
	s, err := slug.Normalize(title)
	if err != nil || s == "" {
		s = DefaultTitle
	}
	return fmt.Sprintf("%s-%s.md", day.UTC().Format("2006-01-02"), s)
}

// NewPost writes a templated post into dir and returns its path. dir is
// created when missing; an existing file is never overwritten.
func NewPost(dir, title string, now time.Time) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	date := now.UTC().Format("2006-01-02")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create posts dir: %w", err)
	}
	path := filepath.Join(dir, Filename(title, now))

	front, err := yaml.Marshal(&template{Title: title, Date: date, Tags: []string{}})
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(front)
	buf.WriteString("---\n\n")
	buf.WriteString(PlaceholderBody)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("%w: %s", ErrPostExists, filepath.Base(path))
	}
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return "", fmt.Errorf("write post: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write post: %w", err)
	}
	return path, nil
}
