// Package watch monitors the website source roots and re-scrapes pages
// whose markup files change on disk.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sectiond/internal/pagename"
	"git.home.luguber.info/inful/sectiond/internal/resolve"
	"git.home.luguber.info/inful/sectiond/internal/section"
)

// Refresher re-scrapes a page, bypassing stored content.
type Refresher interface {
	Refresh(ctx context.Context, page string) (*resolve.Result, error)
}

// Publisher announces refreshed content to other contexts.
type Publisher interface {
	PublishUpdate(ctx context.Context, page string, content json.RawMessage) error
}

// Watcher monitors source roots for markup changes and triggers re-scrapes.
type Watcher struct {
	roots        []string
	refresher    Refresher
	publisher    Publisher
	watcher      *fsnotify.Watcher
	mu           sync.Mutex
	stopChan     chan struct{}
	stopOnce     sync.Once
	changeChan   chan string
	debounceTime time.Duration
}

// Option adjusts watcher behaviour.
type Option func(*Watcher)

// WithDebounce overrides the debounce window applied to rapid file changes.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounceTime = d }
}

// NewWatcher creates a watcher over the given source roots.
func NewWatcher(roots []string, refresher Refresher, publisher Publisher, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		roots:        roots,
		refresher:    refresher,
		publisher:    publisher,
		watcher:      fw,
		stopChan:     make(chan struct{}),
		changeChan:   make(chan string, 16),
		debounceTime: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins monitoring the source roots. Roots that do not exist are
// skipped so a partially provisioned deployment still starts.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	watched := 0
	for _, root := range w.roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("failed to resolve source root %s: %w", root, err)
		}
		if _, err := os.Stat(abs); err != nil {
			slog.Debug("skipping missing source root", "root", abs)
			continue
		}
		if err := w.watcher.Add(abs); err != nil {
			return fmt.Errorf("failed to watch source root %s: %w", abs, err)
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no watchable source roots among %v", w.roots)
	}

	slog.Info("Starting source watcher", "roots", w.roots)

	go w.watchLoop(ctx)
	go w.refreshLoop(ctx)

	return nil
}

// Stop stops the watcher and releases the underlying file system watch.
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	slog.Info("Stopping source watcher")
	w.stopOnce.Do(func() { close(w.stopChan) })
	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".html") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			page := pagename.Normalize(filepath.Base(event.Name))
			slog.Debug("source change detected", "file", event.Name, "page", page)
			// Block rather than drop: the refresh loop dedups pages, so a
			// burst touching many distinct pages must deliver all of them.
			select {
			case w.changeChan <- page:
			case <-w.stopChan:
				return
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("source watcher error", "error", err)
		}
	}
}

// refreshLoop debounces bursts of file events into a single re-scrape pass.
func (w *Watcher) refreshLoop(ctx context.Context) {
	pending := make(map[string]struct{})
	flushChan := make(chan struct{}, 1)
	var flushTimer *time.Timer
	defer func() {
		if flushTimer != nil {
			flushTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case page := <-w.changeChan:
			pending[page] = struct{}{}
			if flushTimer != nil {
				flushTimer.Stop()
			}
			flushTimer = time.AfterFunc(w.debounceTime, func() {
				select {
				case flushChan <- struct{}{}:
				default:
				}
			})
		case <-flushChan:
			pages := make([]string, 0, len(pending))
			for p := range pending {
				pages = append(pages, p)
			}
			pending = make(map[string]struct{})
			w.flush(ctx, pages)
		}
	}
}

func (w *Watcher) flush(ctx context.Context, pages []string) {
	for _, page := range pages {
		result, err := w.refresher.Refresh(ctx, page)
		if err != nil {
			slog.Error("failed to refresh changed page", "page", page, "error", err)
			continue
		}
		slog.Info("refreshed changed page",
			"page", page, "sections", len(result.Sections), "provenance", string(result.Provenance))
		w.announce(ctx, page, result.Sections)
	}
}

func (w *Watcher) announce(ctx context.Context, page string, sections []section.Section) {
	if w.publisher == nil {
		return
	}
	payload, err := json.Marshal(sections)
	if err != nil {
		slog.Warn("failed to encode refreshed sections", "page", page, "error", err)
		return
	}
	if err := w.publisher.PublishUpdate(ctx, page, payload); err != nil {
		slog.Warn("failed to announce refreshed page", "page", page, "error", err)
	}
}
