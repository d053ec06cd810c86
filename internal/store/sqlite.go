package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sectiond/internal/section"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the section database.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		page_name TEXT NOT NULL,
		section_id TEXT NOT NULL,
		section_title TEXT NOT NULL DEFAULT '',
		content_html TEXT NOT NULL,
		content_translated TEXT NOT NULL DEFAULT '',
		display_order INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		is_visible INTEGER NOT NULL DEFAULT 1,
		is_fallback INTEGER NOT NULL DEFAULT 0,
		layout TEXT NOT NULL DEFAULT 'default',
		metadata TEXT,
		created_by TEXT NOT NULL DEFAULT '',
		updated_by TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE(page_name, section_id)
	);
	CREATE INDEX IF NOT EXISTS idx_sections_page ON sections(page_name);
	`
	_, err := s.db.Exec(schema)
	return err
}

const sectionColumns = `page_name, section_id, section_title, content_html, content_translated,
	display_order, is_active, is_visible, is_fallback, layout, metadata,
	created_by, updated_by, created_at, updated_at`

// GetSections returns a page's sections ordered by display order. Row id
// breaks order ties so repeated reads are stable.
func (s *SQLiteStore) GetSections(ctx context.Context, page string, includeInactive bool) ([]section.Section, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + sectionColumns + " FROM sections WHERE page_name = ?"
	if !includeInactive {
		query += " AND is_active = 1 AND is_visible = 1"
	}
	query += " ORDER BY display_order, id"

	rows, err := s.db.QueryContext(ctx, query, page)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	return scanSections(rows)
}

// UpsertAll deletes every section for the page and inserts the given set in
// a single transaction, so a re-scrape leaves no orphaned stale rows and
// racing scrapes converge to one complete set.
func (s *SQLiteStore) UpsertAll(ctx context.Context, page string, sections []section.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sections WHERE page_name = ?", page); err != nil {
		return fmt.Errorf("clear page sections: %w", err)
	}

	now := time.Now().Unix()
	for _, sec := range sections {
		metadata, err := marshalMetadata(sec.Metadata)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO sections ("+sectionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			page, sec.SectionID, sec.SectionTitle, sec.ContentHTML, sec.ContentTranslated,
			sec.Order, boolToInt(sec.IsActive), boolToInt(sec.IsVisible), boolToInt(sec.IsFallback),
			string(sec.Layout), metadata, sec.CreatedBy, sec.UpdatedBy, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert section %s: %w", sec.SectionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// UpdateOrCreate merges the patch into the stored section, inserting when
// the identity does not exist yet.
func (s *SQLiteStore) UpdateOrCreate(ctx context.Context, page, sectionID string, patch Patch) (*section.Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getOne(ctx, page, sectionID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	merged := section.Section{
		PageName:  page,
		SectionID: sectionID,
		IsActive:  true,
		IsVisible: true,
		Layout:    section.LayoutDefault,
		CreatedBy: patch.UpdatedBy,
		CreatedAt: now,
	}
	if existing != nil {
		merged = *existing
	}
	applyPatch(&merged, patch)
	merged.UpdatedAt = now

	metadata, err := marshalMetadata(merged.Metadata)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sections (`+sectionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(page_name, section_id) DO UPDATE SET
			section_title = excluded.section_title,
			content_html = excluded.content_html,
			content_translated = excluded.content_translated,
			display_order = excluded.display_order,
			is_active = excluded.is_active,
			is_visible = excluded.is_visible,
			is_fallback = excluded.is_fallback,
			layout = excluded.layout,
			metadata = excluded.metadata,
			updated_by = excluded.updated_by,
			updated_at = excluded.updated_at`,
		page, sectionID, merged.SectionTitle, merged.ContentHTML, merged.ContentTranslated,
		merged.Order, boolToInt(merged.IsActive), boolToInt(merged.IsVisible), boolToInt(merged.IsFallback),
		string(merged.Layout), metadata, merged.CreatedBy, merged.UpdatedBy,
		merged.CreatedAt.Unix(), merged.UpdatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert section: %w", err)
	}

	return s.getOne(ctx, page, sectionID)
}

// DeleteSection removes a single section by identity.
func (s *SQLiteStore) DeleteSection(ctx context.Context, page, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sections WHERE page_name = ? AND section_id = ?", page, sectionID)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the stored section count for a page, or across all pages
// when page is empty.
func (s *SQLiteStore) Count(ctx context.Context, page string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	var err error
	if page == "" {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sections").Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sections WHERE page_name = ?", page).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count sections: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *SQLiteStore) getOne(ctx context.Context, page, sectionID string) (*section.Section, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sectionColumns+" FROM sections WHERE page_name = ? AND section_id = ?",
		page, sectionID)
	if err != nil {
		return nil, fmt.Errorf("query section: %w", err)
	}
	defer rows.Close()

	sections, err := scanSections(rows)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, ErrNotFound
	}
	return &sections[0], nil
}

func scanSections(rows *sql.Rows) ([]section.Section, error) {
	var sections []section.Section
	for rows.Next() {
		var sec section.Section
		var active, visible, fallback int
		var layout string
		var metadataJSON sql.NullString
		var createdAt, updatedAt int64

		err := rows.Scan(&sec.PageName, &sec.SectionID, &sec.SectionTitle, &sec.ContentHTML,
			&sec.ContentTranslated, &sec.Order, &active, &visible, &fallback, &layout,
			&metadataJSON, &sec.CreatedBy, &sec.UpdatedBy, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}

		sec.IsActive = active != 0
		sec.IsVisible = visible != 0
		sec.IsFallback = fallback != 0
		sec.Layout = section.NormalizeLayout(layout)
		sec.CreatedAt = time.Unix(createdAt, 0)
		sec.UpdatedAt = time.Unix(updatedAt, 0)

		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &sec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}

		sections = append(sections, sec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return sections, nil
}

func applyPatch(sec *section.Section, patch Patch) {
	if patch.SectionTitle != nil {
		sec.SectionTitle = *patch.SectionTitle
	}
	if patch.ContentHTML != nil {
		sec.ContentHTML = *patch.ContentHTML
	}
	if patch.ContentTranslated != nil {
		sec.ContentTranslated = *patch.ContentTranslated
	}
	if patch.Order != nil {
		sec.Order = *patch.Order
	}
	if patch.IsActive != nil {
		sec.IsActive = *patch.IsActive
	}
	if patch.IsVisible != nil {
		sec.IsVisible = *patch.IsVisible
	}
	if patch.Layout != nil {
		sec.Layout = section.NormalizeLayout(string(*patch.Layout))
	}
	if patch.Metadata != nil {
		sec.Metadata = patch.Metadata
	}
	if patch.UpdatedBy != "" {
		sec.UpdatedBy = patch.UpdatedBy
	}
	// An edited section is no longer placeholder content.
	if patch.ContentHTML != nil {
		sec.IsFallback = false
	}
}

func marshalMetadata(m map[string]any) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal metadata: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
