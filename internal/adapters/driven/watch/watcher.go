// Package watch observes the encrypted drop inbox and triggers a
// decrypt batch when a dated drop settles.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/dropsync-cli/internal/core/domain"
	"github.com/custodia-labs/dropsync-cli/internal/logger"
)

const (
	defaultSettleWindow = 30 * time.Second
	flushInterval       = time.Second
)

// TriggerFunc is invoked once per settled batch date.
type TriggerFunc func(ctx context.Context, date time.Time)

// Watcher observes the inbox directory tree. File events are mapped to
// batch dates through the filename date token and debounced: a date only
// fires after its drop has been quiet for the settle window, so partners
// mid-upload do not trigger half-empty batches.
type Watcher struct {
	sourceDir string
	settle    time.Duration
	trigger   TriggerFunc

	mu      sync.Mutex
	pending map[string]time.Time // compact date -> last event time

	fsWatcher *fsnotify.Watcher
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates an inbox watcher. A zero settle duration uses the default
// 30 second window.
func New(sourceDir string, settle time.Duration, trigger TriggerFunc) *Watcher {
	if settle <= 0 {
		settle = defaultSettleWindow
	}
	return &Watcher{
		sourceDir: sourceDir,
		settle:    settle,
		trigger:   trigger,
		pending:   make(map[string]time.Time),
	}
}

// Start begins watching. The watch covers the inbox root and all
// existing subdirectories; directories created later are added as they
// appear.
func (w *Watcher) Start(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsWatcher = fsWatcher

	if err := w.watchTree(w.sourceDir); err != nil {
		fsWatcher.Close()
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.loop(ctx)

	logger.Info("Watching %s for encrypted drops", w.sourceDir)
	return nil
}

// Stop ends the watch and waits for the event loop to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, time.Now())

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch: %v", err)

		case now := <-ticker.C:
			for _, date := range w.flushDue(now) {
				logger.Debug("watch: drop for %s settled, triggering decrypt",
					date.Format(domain.CompactDate))
				w.trigger(ctx, date)
			}
		}
	}
}

// handleEvent maps one filesystem event onto the pending set. New
// directories are added to the watch; dateless or hidden files are
// ignored.
func (w *Watcher) handleEvent(event fsnotify.Event, now time.Time) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	if isHidden(event.Name) {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// A new dated drop directory needs its own watch
			if err := w.watchTree(event.Name); err != nil {
				logger.Warn("watch: adding %s: %v", event.Name, err)
			}
			return
		}
	}

	descriptor, ok := domain.DescribeFile(event.Name)
	if !ok {
		return
	}

	key := descriptor.Date.Format(domain.CompactDate)
	w.mu.Lock()
	w.pending[key] = now
	w.mu.Unlock()
}

// flushDue returns the dates whose drops have been quiet for the settle
// window and clears them from the pending set.
func (w *Watcher) flushDue(now time.Time) []time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	var due []time.Time
	for key, last := range w.pending {
		if now.Sub(last) < w.settle {
			continue
		}
		if date, err := time.Parse(domain.CompactDate, key); err == nil {
			due = append(due, date)
		}
		delete(w.pending, key)
	}
	return due
}

// watchTree adds a directory and its subdirectories to the watch.
// Passing a file path is a no-op.
func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if isHidden(path) && path != root {
			return fs.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// isHidden reports whether any element of the path starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
