package posts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sgx-labs/blog/internal/logging"
)

// DefaultWorkers is the loader's worker pool size when none is configured.
const DefaultWorkers = 4

// Diagnostic records a file the loader skipped.
type Diagnostic struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Duplicate lists the files that produced the same slug, in enumeration order.
// The last file wins slug lookup.
type Duplicate struct {
	Slug  string   `json:"slug"`
	Files []string `json:"files"`
}

// Report is the outcome of a load.
type Report struct {
	Collection *Collection
	Skipped    []Diagnostic
	Duplicates []Duplicate
}

// Loader reads every *.md file in Dir into a Collection.
type Loader struct {
	Dir      string
	Renderer Renderer
	Logger   logging.Logger
	Workers  int
}

// fileResult is the per-file outcome produced by a worker.
type fileResult struct {
	name string
	post Post
	err  error
}

// Load reads the posts directory. A missing directory yields an empty
// collection. Files that cannot be read or parsed are skipped and reported;
// they never fail the load.
func (l *Loader) Load() *Report {
	log := logging.OrNop(l.Logger)
	report := &Report{Collection: NewCollection(nil)}

	names, err := listMarkdown(l.Dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("posts: cannot read %s: %v", l.Dir, err)
		}
		return report
	}

	results := l.process(names)

	type entry struct {
		post Post
		seq  int
	}
	entries := make([]entry, 0, len(results))
	files := make(map[string][]string)
	var slugOrder []string
	for i, r := range results {
		if r.err != nil {
			logging.With(log, logging.Fields{"file": r.name}).Warnf("posts: skipping %s: %v", r.name, r.err)
			report.Skipped = append(report.Skipped, Diagnostic{File: r.name, Reason: r.err.Error()})
			continue
		}
		if _, seen := files[r.post.Slug]; !seen {
			slugOrder = append(slugOrder, r.post.Slug)
		}
		files[r.post.Slug] = append(files[r.post.Slug], r.name)
		entries = append(entries, entry{post: r.post, seq: i})
	}

	for _, slug := range slugOrder {
		if f := files[slug]; len(f) > 1 {
			log.Warnf("posts: duplicate slug %q from %s; %s wins lookup",
				slug, strings.Join(f, ", "), f[len(f)-1])
			report.Duplicates = append(report.Duplicates, Duplicate{Slug: slug, Files: f})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].post.Meta.Date > entries[j].post.Meta.Date
	})

	sorted := make([]Post, len(entries))
	seq := make([]int, len(entries))
	for i, e := range entries {
		sorted[i] = e.post
		seq[i] = e.seq
	}
	report.Collection = newCollection(sorted, seq)
	return report
}

// process loads files with a bounded worker pool. Results keep the order of names.
func (l *Loader) process(names []string) []fileResult {
	renderer := l.Renderer
	if renderer == nil {
		renderer = NewGoldmarkRenderer()
	}
	workers := l.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(names) {
		workers = len(names)
	}

	results := make([]fileResult, len(names))
	workCh := make(chan int, len(names))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				post, err := loadFile(filepath.Join(l.Dir, names[i]), renderer)
				results[i] = fileResult{name: names[i], post: post, err: err}
			}
		}()
	}
	for i := range names {
		workCh <- i
	}
	close(workCh)
	wg.Wait()
	return results
}

// LoadFile reads and renders a single post file.
func LoadFile(path string, r Renderer) (Post, error) {
	if r == nil {
		r = NewGoldmarkRenderer()
	}
	return loadFile(path, r)
}

func loadFile(path string, r Renderer) (Post, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Post{}, err
	}
	meta, body, err := ParseFrontMatter(raw)
	if err != nil {
		return Post{}, err
	}
	html, err := r.Render([]byte(body))
	if err != nil {
		return Post{}, err
	}

	pm := NormalizeMeta(meta)
	if pm.Title == "" {
		pm.Title = DefaultTitle
	}
	return Post{
		Slug:    SlugFromFilename(filepath.Base(path)),
		Meta:    pm,
		Content: body,
		HTML:    html,
	}, nil
}

// listMarkdown returns the *.md regular files directly inside dir, sorted by name.
func listMarkdown(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read posts dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
