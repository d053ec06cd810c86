// Package reseed runs scheduled full re-scrapes of configured pages so
// stored content tracks the deployed markup even without file events.
package reseed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sectiond/internal/resolve"
)

// Refresher re-scrapes a page, bypassing stored content.
type Refresher interface {
	Refresh(ctx context.Context, page string) (*resolve.Result, error)
}

// Publisher announces refreshed content to other contexts.
type Publisher interface {
	PublishUpdate(ctx context.Context, page string, content json.RawMessage) error
}

// Reseeder wraps a gocron scheduler running periodic page re-scrapes.
type Reseeder struct {
	scheduler gocron.Scheduler
	refresher Refresher
	publisher Publisher
	pages     []string
}

// NewReseeder creates a reseeder for the given cron schedule and pages.
func NewReseeder(schedule string, pages []string, refresher Refresher, publisher Publisher) (*Reseeder, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	r := &Reseeder{
		scheduler: s,
		refresher: refresher,
		publisher: publisher,
		pages:     pages,
	}

	if _, err := s.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(r.runAll),
		gocron.WithName("reseed"),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create reseed job: %w", err)
	}

	return r, nil
}

// Start begins the scheduler.
func (r *Reseeder) Start(ctx context.Context) {
	slog.Info("Starting reseed scheduler", "pages", len(r.pages))
	r.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (r *Reseeder) Stop(ctx context.Context) error {
	slog.Info("Stopping reseed scheduler")
	return r.scheduler.Shutdown()
}

// runAll is called by gocron to re-scrape every configured page.
func (r *Reseeder) runAll() {
	ctx := context.Background()
	for _, page := range r.pages {
		result, err := r.refresher.Refresh(ctx, page)
		if err != nil {
			slog.Error("reseed refresh failed", "page", page, "error", err)
			continue
		}
		slog.Info("reseeded page", "page", page, "sections", len(result.Sections))
		r.announce(ctx, page, result)
	}
}

func (r *Reseeder) announce(ctx context.Context, page string, result *resolve.Result) {
	if r.publisher == nil {
		return
	}
	payload, err := json.Marshal(result.Sections)
	if err != nil {
		slog.Warn("failed to encode reseeded sections", "page", page, "error", err)
		return
	}
	if err := r.publisher.PublishUpdate(ctx, page, payload); err != nil {
		slog.Warn("failed to announce reseeded page", "page", page, "error", err)
	}
}
