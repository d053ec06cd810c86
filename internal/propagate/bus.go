package propagate

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sectiond/internal/metrics"
	"git.home.luguber.info/inful/sectiond/internal/section"
)

const (
	// StalenessWindow bounds how old a received event may be before it is
	// silently dropped.
	StalenessWindow = 30 * time.Second
	// ReplayWindow bounds the startup pending-update check; it is much
	// shorter so old state is never reapplied.
	ReplayWindow = 5 * time.Second
)

// Fetcher re-resolves a page's content after an invalidation.
type Fetcher interface {
	FetchSections(ctx context.Context, page string) ([]section.Section, error)
}

// Notifier surfaces a transient confirmation after an applied update. The
// page argument is GlobalScope for whole-cache invalidations.
type Notifier func(page string)

// Bus connects a transport to a content cache: received events invalidate
// affected entries and trigger a re-fetch; local edits are published for
// other contexts. Event handling is serialized by the transport, so cache
// mutation needs no coordination beyond the cache's own lock.
type Bus struct {
	origin      string
	transport   Transport
	cache       *ContentCache
	fetcher     Fetcher
	notifier    Notifier
	recorder    metrics.Recorder
	now         func() time.Time
	unsubscribe func()
}

// BusOption configures optional bus collaborators.
type BusOption func(*Bus)

// WithNotifier sets the transient-confirmation hook.
func WithNotifier(n Notifier) BusOption {
	return func(b *Bus) { b.notifier = n }
}

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) BusOption {
	return func(b *Bus) { b.recorder = r }
}

// NewBus builds a propagation bus over the given transport and cache.
func NewBus(transport Transport, cache *ContentCache, fetcher Fetcher, opts ...BusOption) *Bus {
	b := &Bus{
		origin:    uuid.NewString(),
		transport: transport,
		cache:     cache,
		fetcher:   fetcher,
		notifier:  func(string) {},
		recorder:  metrics.NoopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start subscribes to the transport and runs the one-time pending-update
// check, catching events published before this context attached.
func (b *Bus) Start(ctx context.Context) error {
	unsub, err := b.transport.Subscribe(func(e Event) {
		b.handle(ctx, e, StalenessWindow)
	})
	if err != nil {
		return err
	}
	b.unsubscribe = unsub

	pending, err := b.transport.Pending(ctx)
	if err != nil {
		// A failed replay check only costs freshness until the next event.
		slog.Warn("pending update check failed", "error", err)
		return nil
	}
	if pending != nil {
		b.handle(ctx, *pending, ReplayWindow)
	}
	return nil
}

// Stop detaches the bus from its transport.
func (b *Bus) Stop() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

// PublishUpdate announces a local edit to every other context. content may
// be nil; receivers re-fetch either way.
func (b *Bus) PublishUpdate(ctx context.Context, page string, content json.RawMessage) error {
	e := NewEvent(b.origin, page, content)
	if err := b.transport.Publish(ctx, e); err != nil {
		return err
	}
	b.recorder.IncEventPublished()
	return nil
}

func (b *Bus) handle(ctx context.Context, e Event, window time.Duration) {
	if e.Origin == b.origin {
		// Own events round-trip on the shared channel; the local cache is
		// already current.
		return
	}
	if age := e.Age(b.now()); age > window {
		slog.Debug("dropping stale update event", "page", e.Page, "age", age)
		b.recorder.IncEventDropped("stale")
		return
	}

	if e.Global() {
		b.cache.InvalidateAll()
	} else {
		b.cache.Invalidate(e.Page)
	}
	b.recorder.IncCacheInvalidation()

	if !e.Global() && b.fetcher != nil {
		sections, err := b.fetcher.FetchSections(ctx, e.Page)
		if err != nil {
			// The entry stays invalidated; the next read fetches fresh.
			slog.Warn("re-fetch after invalidation failed", "page", e.Page, "error", err)
		} else {
			b.cache.Put(e.Page, sections)
		}
	}

	b.notifier(e.Page)
	slog.Debug("applied content update", "page", e.Page, "event_id", e.ID)
}
