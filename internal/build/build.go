// Package build writes the static bundle: post data modules, a precomputed
// index and copied assets.
package build

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sgx-labs/blog/internal/index"
	"github.com/sgx-labs/blog/internal/logging"
	"github.com/sgx-labs/blog/internal/posts"
)

// Output layout, relative to the output directory.
const (
	DataDir       = "data"
	PostsJSONFile = "posts.json"
	PostsJSFile   = "posts.js"
	IndexFile     = "index.json"
	ImagesDir     = "images"
	NoJekyllFile  = ".nojekyll"
)

// Options configures a build.
type Options struct {
	Root          string // project root; .nojekyll is looked up here
	OutputDir     string
	PostsDir      string // never removed or written into
	ImagesDir     string
	PublicDir     string
	Sentinel      string
	KeywordCount  int
	KeywordMaxLen int
	Logger        logging.Logger
}

// Result summarizes what a build wrote.
type Result struct {
	Posts       int
	Images      int
	PublicFiles int
	NoJekyll    bool
}

// Index is the precomputed navigation data written next to the posts.
type Index struct {
	Archive    []ArchiveYear   `json:"archive"`
	Categories []index.Count   `json:"categories"`
	Tags       []index.Count   `json:"tags"`
	Keywords   []index.Keyword `json:"keywords"`
}

// ArchiveYear is GroupByTime output reduced to slugs.
type ArchiveYear struct {
	Year   string         `json:"year"`
	Months []ArchiveMonth `json:"months"`
}

// ArchiveMonth lists the slugs of one month.
type ArchiveMonth struct {
	Month string   `json:"month"`
	Slugs []string `json:"slugs"`
}

// Run writes the bundle for c into opts.OutputDir, replacing its previous contents.
func Run(c *posts.Collection, opts Options) (*Result, error) {
	log := logging.OrNop(opts.Logger)
	out, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	if err := checkOutputDir(out, opts.Root, opts.PostsDir, opts.ImagesDir, opts.PublicDir); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(out); err != nil {
		return nil, fmt.Errorf("clean output: %w", err)
	}

	res := &Result{Posts: c.Len()}

	if opts.PublicDir != "" {
		n, err := copyTree(opts.PublicDir, out)
		if err != nil {
			return nil, fmt.Errorf("copy public assets: %w", err)
		}
		res.PublicFiles = n
	}

	if err := writeData(c, filepath.Join(out, DataDir), opts); err != nil {
		return nil, err
	}

	if opts.ImagesDir != "" {
		n, err := copyTree(opts.ImagesDir, filepath.Join(out, ImagesDir))
		if err != nil {
			return nil, fmt.Errorf("copy images: %w", err)
		}
		res.Images = n
	}

	if opts.Root != "" {
		src := filepath.Join(opts.Root, NoJekyllFile)
		if _, err := os.Stat(src); err == nil {
			if err := copyFile(src, filepath.Join(out, NoJekyllFile)); err != nil {
				return nil, fmt.Errorf("copy %s: %w", NoJekyllFile, err)
			}
			res.NoJekyll = true
		}
	}

	log.Infof("build: %d posts, %d images, %d public files -> %s", res.Posts, res.Images, res.PublicFiles, out)
	return res, nil
}

// BuildIndex computes the navigation index for c.
func BuildIndex(c *posts.Collection, opts Options) Index {
	g := index.Grouper{Sentinel: opts.Sentinel}
	idx := Index{
		Categories: g.CategoryCounts(c.Posts),
		Tags:       index.TagCounts(c.Posts),
		Keywords:   index.ExtractKeywords(c.Posts, opts.KeywordCount, opts.KeywordMaxLen),
	}
	for _, yg := range g.GroupByTime(c.Posts) {
		ay := ArchiveYear{Year: yg.Year}
		for _, mg := range yg.Months {
			am := ArchiveMonth{Month: mg.Month, Slugs: make([]string, 0, len(mg.Posts))}
			for _, p := range mg.Posts {
				am.Slugs = append(am.Slugs, p.Slug)
			}
			ay.Months = append(ay.Months, am)
		}
		idx.Archive = append(idx.Archive, ay)
	}
	return idx
}

// PostsModule renders the collection as an ES module exporting `posts`.
func PostsModule(c *posts.Collection) ([]byte, error) {
	data, err := postsJSON(c)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("export const posts = ")
	b.Write(data)
	b.WriteString(";\n")
	return []byte(b.String()), nil
}

func postsJSON(c *posts.Collection) ([]byte, error) {
	list := c.Posts
	if list == nil {
		list = []posts.Post{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encode posts: %w", err)
	}
	return data, nil
}

func writeData(c *posts.Collection, dir string, opts Options) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := postsJSON(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, PostsJSONFile), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", PostsJSONFile, err)
	}

	module, err := PostsModule(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, PostsJSFile), module, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", PostsJSFile, err)
	}

	idx, err := json.MarshalIndent(BuildIndex(c, opts), "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, IndexFile), idx, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", IndexFile, err)
	}
	return nil
}

// checkOutputDir refuses output locations that would wipe the project or
// overlap a source directory.
func checkOutputDir(out, root string, sources ...string) error {
	if out == filepath.Dir(out) {
		return fmt.Errorf("refusing to use %s as output directory", out)
	}
	if root != "" {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("project root: %w", err)
		}
		if within(absRoot, out) {
			return fmt.Errorf("output directory %s contains the project root", out)
		}
	}
	for _, src := range sources {
		if src == "" {
			continue
		}
		absSrc, err := filepath.Abs(src)
		if err != nil {
			return fmt.Errorf("source dir: %w", err)
		}
		if within(absSrc, out) || within(out, absSrc) {
			return fmt.Errorf("output directory %s overlaps source directory %s", out, absSrc)
		}
	}
	return nil
}

// within reports whether path equals dir or lies inside it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// copyTree copies every regular file under src into dst. A missing src is
// not an error. It returns the number of files copied.
func copyTree(src, dst string) (int, error) {
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	n := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
