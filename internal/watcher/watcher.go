// Package watcher monitors the posts directory and triggers a full reload
// after changes settle.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sgx-labs/blog/internal/logging"
)

// DefaultDebounce is the quiet period before a reload fires.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls OnChange once changes to *.md files in Dir have been quiet
// for Debounce.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	OnChange func()
	Logger   logging.Logger
}

// Run watches until ctx is done. It returns an error only when the watch
// cannot be established.
func (w *Watcher) Run(ctx context.Context) error {
	log := logging.OrNop(w.Logger)
	delay := w.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}
	log.Infof("watching %s for changes", w.Dir)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		log.Infof("posts changed, reloading")
		if w.OnChange != nil {
			w.OnChange()
		}
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			log.Debugf("change: %s %s", event.Op, filepath.Base(event.Name))
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(delay, fire)
			mu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warnf("watch error: %v", err)
		}
	}
}

// relevant reports whether event touches a post file in a way that can
// change the collection. Chmod-only events are ignored.
func relevant(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, ".md") {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
