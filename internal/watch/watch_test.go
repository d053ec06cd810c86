package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sectiond/internal/resolve"
	"git.home.luguber.info/inful/sectiond/internal/section"
)

type recordingRefresher struct {
	mu    sync.Mutex
	pages []string
}

func (r *recordingRefresher) Refresh(_ context.Context, page string) (*resolve.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = append(r.pages, page)
	return &resolve.Result{
		Page:       page,
		Sections:   []section.Section{{PageName: page, SectionID: page + "-section-0"}},
		Provenance: resolve.ProvenanceScraped,
	}, nil
}

func (r *recordingRefresher) refreshed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.pages...)
}

type recordingPublisher struct {
	mu    sync.Mutex
	pages []string
}

func (p *recordingPublisher) PublishUpdate(_ context.Context, page string, _ json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = append(p.pages, page)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.pages...)
}

func startWatcher(t *testing.T, root string) (*recordingRefresher, *recordingPublisher) {
	t.Helper()

	refresher := &recordingRefresher{}
	publisher := &recordingPublisher{}
	w, err := NewWatcher([]string{root}, refresher, publisher, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(func() { _ = w.Stop(context.Background()) })

	return refresher, publisher
}

func TestWatcherRefreshesChangedPage(t *testing.T) {
	root := t.TempDir()
	refresher, publisher := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "About.html"), []byte("<section>hi</section>"), 0o644))

	assert.Eventually(t, func() bool {
		return len(refresher.refreshed()) > 0
	}, 5*time.Second, 10*time.Millisecond)

	assert.Contains(t, refresher.refreshed(), "about")
	assert.Eventually(t, func() bool {
		return len(publisher.published()) > 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, publisher.published(), "about")
}

func TestWatcherIgnoresNonMarkupFiles(t *testing.T) {
	root := t.TempDir()
	refresher, _ := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "styles.css"), []byte("body{}"), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, refresher.refreshed())
}

func TestWatcherDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	refresher, _ := startWatcher(t, root)

	path := filepath.Join(root, "projects.html")
	for range 5 {
		require.NoError(t, os.WriteFile(path, []byte("<section>v</section>"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return len(refresher.refreshed()) > 0
	}, 5*time.Second, 10*time.Millisecond)

	// Quiet period, then confirm the burst collapsed into one refresh.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{"projects"}, refresher.refreshed())
}

func TestWatcherRefreshesEveryPageInWideBurst(t *testing.T) {
	root := t.TempDir()
	refresher, _ := startWatcher(t, root)

	// More distinct pages than the change channel buffers.
	var want []string
	for i := range 20 {
		name := fmt.Sprintf("page%02d", i)
		want = append(want, name)
		require.NoError(t, os.WriteFile(filepath.Join(root, name+".html"), []byte("<section>hi</section>"), 0o644))
	}

	assert.Eventually(t, func() bool {
		return len(refresher.refreshed()) >= len(want)
	}, 5*time.Second, 10*time.Millisecond)

	// Every page must be refreshed; none may be silently skipped.
	got := map[string]bool{}
	for _, p := range refresher.refreshed() {
		got[p] = true
	}
	for _, p := range want {
		assert.True(t, got[p], "page %s was never refreshed", p)
	}
}

func TestWatcherRequiresAnExistingRoot(t *testing.T) {
	w, err := NewWatcher([]string{filepath.Join(t.TempDir(), "missing")}, &recordingRefresher{}, nil)
	require.NoError(t, err)
	assert.Error(t, w.Start(t.Context()))
}
