// Package store persists Section entities with idempotent upsert semantics.
package store

import (
	"context"
	"errors"

	"git.home.luguber.info/inful/sectiond/internal/section"
)

// ErrNotFound reports a missing (page, sectionID) identity.
var ErrNotFound = errors.New("section not found")

// Store defines the persistence interface for sections.
type Store interface {
	// GetSections returns a page's sections sorted by display order.
	// Unless includeInactive is set, only active and visible sections are
	// returned.
	GetSections(ctx context.Context, page string, includeInactive bool) ([]section.Section, error)

	// UpsertAll replaces a page's sections wholesale: every existing row
	// for the page is deleted and the given set inserted, in one
	// transaction. This is the scrape/reseed path; direct edits to the
	// page's sections do not survive it.
	UpsertAll(ctx context.Context, page string, sections []section.Section) error

	// UpdateOrCreate applies a partial update keyed by (page, sectionID),
	// inserting the section when absent. Concurrent writers to the same
	// identity resolve via upsert and never produce duplicates.
	UpdateOrCreate(ctx context.Context, page, sectionID string, patch Patch) (*section.Section, error)

	// DeleteSection removes one section; ErrNotFound when absent.
	DeleteSection(ctx context.Context, page, sectionID string) error

	// Count returns the number of stored sections for a page, or for all
	// pages when page is empty.
	Count(ctx context.Context, page string) (int, error)

	// Close releases the underlying resources.
	Close() error
}

// Patch carries the fields of a partial section update. Nil pointers leave
// the stored value untouched; on insert they fall back to zero values with
// IsActive and IsVisible defaulting to true.
type Patch struct {
	SectionTitle      *string
	ContentHTML       *string
	ContentTranslated *string
	Order             *int
	IsActive          *bool
	IsVisible         *bool
	Layout            *section.Layout
	Metadata          map[string]any
	UpdatedBy         string
}
