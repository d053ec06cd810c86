// Package resolve orchestrates page content resolution: stored sections
// first, on-the-fly extraction from static markup second, synthesized
// placeholder content last. Resolution favors availability over strictness;
// a request never fails because content is missing.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sectiond/internal/extract"
	"git.home.luguber.info/inful/sectiond/internal/metrics"
	"git.home.luguber.info/inful/sectiond/internal/pagename"
	"git.home.luguber.info/inful/sectiond/internal/section"
	"git.home.luguber.info/inful/sectiond/internal/source"
	"git.home.luguber.info/inful/sectiond/internal/store"
)

// Provenance tags where a resolution's content came from.
type Provenance string

const (
	ProvenanceStored   Provenance = "stored"
	ProvenanceScraped  Provenance = "scraped"
	ProvenanceFallback Provenance = "fallback"
)

// Result is the outcome of one page resolution.
type Result struct {
	Page       string
	Sections   []section.Section
	Provenance Provenance
}

// Pipeline wires the resolution tiers together. It is stateless between
// requests; the store is the only shared resource.
type Pipeline struct {
	store       store.Store
	locator     *source.Locator
	extractor   *extract.Extractor
	synthesizer *Synthesizer
	recorder    metrics.Recorder
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// NewPipeline constructs a resolution pipeline over the given store and
// document locator.
func NewPipeline(st store.Store, locator *source.Locator, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:       st,
		locator:     locator,
		extractor:   extract.New(),
		synthesizer: NewSynthesizer(),
		recorder:    metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve returns the content sections for a page. The fast path returns
// persisted sections without any extraction work; otherwise the page is
// scraped from its source document, or a placeholder is synthesized when no
// document exists. Persistence failures are logged and the best-effort
// in-memory result is returned rather than failing the request.
func (p *Pipeline) Resolve(ctx context.Context, rawPage string) (*Result, error) {
	page := pagename.Normalize(rawPage)

	stored, err := p.store.GetSections(ctx, page, false)
	if err != nil {
		// A read failure is not a missing-content case. Falling through to
		// the scrape path would overwrite the page's rows, so direct edits
		// could be lost to a transient error.
		return nil, fmt.Errorf("read stored sections for %s: %w", page, err)
	}
	if len(stored) > 0 {
		p.recorder.IncResolution(string(ProvenanceStored))
		return &Result{Page: page, Sections: stored, Provenance: ProvenanceStored}, nil
	}

	return p.scrape(ctx, page)
}

// Refresh forces a full re-scrape for a page, overwriting whatever is
// stored. Direct edits to the page's sections do not survive it.
func (p *Pipeline) Refresh(ctx context.Context, rawPage string) (*Result, error) {
	page := pagename.Normalize(rawPage)
	return p.scrape(ctx, page)
}

func (p *Pipeline) scrape(ctx context.Context, page string) (*Result, error) {
	markup, err := p.locator.Locate(page)
	if err != nil {
		if !errors.Is(err, source.ErrNotFound) {
			slog.Warn("source document lookup failed", "page", page, "error", err)
		}
		return p.fallback(ctx, page)
	}

	sections, tier, err := p.extractor.Extract(page, markup)
	if err != nil {
		slog.Warn("extraction failed", "page", page, "error", err)
		return p.fallback(ctx, page)
	}
	if len(sections) == 0 {
		// Document found but nothing qualified: same path as not found.
		return p.fallback(ctx, page)
	}
	p.recorder.IncExtractionTier(tier)

	if err := p.persist(ctx, page, sections); err != nil {
		slog.Error("persisting scraped sections failed", "page", page, "error", err)
		p.recorder.IncPersistenceFailure()
		p.recorder.IncResolution(string(ProvenanceScraped))
		return &Result{Page: page, Sections: sections, Provenance: ProvenanceScraped}, nil
	}

	// Re-query so the response reflects exactly what was stored.
	stored, err := p.store.GetSections(ctx, page, false)
	if err != nil || len(stored) == 0 {
		if err != nil {
			slog.Error("re-query after scrape failed", "page", page, "error", err)
		}
		stored = sections
	}

	slog.Info("scraped page sections", "page", page, "tier", tier, "sections", len(stored))
	p.recorder.IncResolution(string(ProvenanceScraped))
	return &Result{Page: page, Sections: stored, Provenance: ProvenanceScraped}, nil
}

func (p *Pipeline) fallback(ctx context.Context, page string) (*Result, error) {
	placeholder, err := p.synthesizer.Synthesize(page)
	if err != nil {
		return nil, fmt.Errorf("synthesize fallback for %s: %w", page, err)
	}

	if err := p.persist(ctx, page, []section.Section{placeholder}); err != nil {
		slog.Error("persisting fallback section failed", "page", page, "error", err)
		p.recorder.IncPersistenceFailure()
	}

	slog.Info("synthesized fallback section", "page", page)
	p.recorder.IncResolution(string(ProvenanceFallback))
	return &Result{
		Page:       page,
		Sections:   []section.Section{placeholder},
		Provenance: ProvenanceFallback,
	}, nil
}

func (p *Pipeline) persist(ctx context.Context, page string, sections []section.Section) error {
	return p.store.UpsertAll(ctx, page, sections)
}
