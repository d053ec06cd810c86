package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sectiond/internal/section"
	"git.home.luguber.info/inful/sectiond/internal/source"
	"git.home.luguber.info/inful/sectiond/internal/store"
)

const blockText = "This qualifying block comfortably exceeds the extraction noise threshold of fifty characters."

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func newTestPipeline(t *testing.T, docRoot string) (*Pipeline, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewPipeline(st, source.NewLocator(docRoot)), st
}

func TestResolveScrapesAndPersists(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "projects.html", fmt.Sprintf(`<html><body>
		<section><h2>Water Wells</h2><p>%s</p></section>
		<section><h2>Education</h2><p>%s</p></section>
	</body></html>`, blockText, blockText))

	p, st := newTestPipeline(t, dir)
	ctx := t.Context()

	res, err := p.Resolve(ctx, "projects")
	require.NoError(t, err)
	assert.Equal(t, ProvenanceScraped, res.Provenance)
	require.Len(t, res.Sections, 2)
	assert.Equal(t, 0, res.Sections[0].Order)
	assert.Equal(t, 1, res.Sections[1].Order)
	assert.Equal(t, "Water Wells", res.Sections[0].SectionTitle)
	assert.Equal(t, "Education", res.Sections[1].SectionTitle)

	count, err := st.Count(ctx, "projects")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestResolveFastPathSkipsExtraction(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "about.html", fmt.Sprintf(
		`<html><body><section><h2>Original</h2><p>%s</p></section></body></html>`, blockText))

	p, _ := newTestPipeline(t, dir)
	ctx := t.Context()

	first, err := p.Resolve(ctx, "about")
	require.NoError(t, err)
	assert.Equal(t, ProvenanceScraped, first.Provenance)

	// Changing the source document must not affect the second resolution:
	// the fast path returns persisted sections without re-extracting.
	writeDoc(t, dir, "about.html", fmt.Sprintf(
		`<html><body><section><h2>Changed</h2><p>%s</p></section></body></html>`, blockText))

	second, err := p.Resolve(ctx, "about")
	require.NoError(t, err)
	assert.Equal(t, ProvenanceStored, second.Provenance)
	require.Len(t, second.Sections, 1)
	assert.Equal(t, "Original", second.Sections[0].SectionTitle)
}

func TestResolveSynthesizesFallback(t *testing.T) {
	p, st := newTestPipeline(t, t.TempDir())
	ctx := t.Context()

	res, err := p.Resolve(ctx, "no-such-page")
	require.NoError(t, err)
	assert.Equal(t, ProvenanceFallback, res.Provenance)
	require.Len(t, res.Sections, 1)
	assert.True(t, res.Sections[0].IsFallback)
	assert.NotEmpty(t, res.Sections[0].ContentHTML)

	// The placeholder is persisted too.
	count, err := st.Count(ctx, "no-such-page")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestResolveFallbackForEmptyExtraction(t *testing.T) {
	dir := t.TempDir()
	// Document exists but holds nothing above the noise threshold.
	writeDoc(t, dir, "empty.html", `<html><body><section><p>tiny</p></section></body></html>`)

	p, _ := newTestPipeline(t, dir)

	res, err := p.Resolve(t.Context(), "empty")
	require.NoError(t, err)
	assert.Equal(t, ProvenanceFallback, res.Provenance)
	require.Len(t, res.Sections, 1)
	assert.True(t, res.Sections[0].IsFallback)
}

func TestResolveNormalizesPageName(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "index.html", fmt.Sprintf(
		`<html><body><section><h1>Welcome</h1><p>%s</p></section></body></html>`, blockText))

	p, st := newTestPipeline(t, dir)
	ctx := t.Context()

	res, err := p.Resolve(ctx, "INDEX.html")
	require.NoError(t, err)
	assert.Equal(t, "home", res.Page)

	count, err := st.Count(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRefreshOverwritesStoredSections(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "news.html", fmt.Sprintf(
		`<html><body><section><h2>Old News</h2><p>%s</p></section></body></html>`, blockText))

	p, st := newTestPipeline(t, dir)
	ctx := t.Context()

	_, err := p.Resolve(ctx, "news")
	require.NoError(t, err)

	// A direct edit...
	body := "<p>hand edited</p>"
	_, err = st.UpdateOrCreate(ctx, "news", "news-section-0", store.Patch{ContentHTML: &body})
	require.NoError(t, err)

	// ...is discarded by a forced refresh (overwrite, not merge).
	writeDoc(t, dir, "news.html", fmt.Sprintf(
		`<html><body><section><h2>Fresh News</h2><p>%s</p></section></body></html>`, blockText))
	res, err := p.Refresh(ctx, "news")
	require.NoError(t, err)
	assert.Equal(t, ProvenanceScraped, res.Provenance)
	require.Len(t, res.Sections, 1)
	assert.Equal(t, "Fresh News", res.Sections[0].SectionTitle)
	assert.NotContains(t, res.Sections[0].ContentHTML, "hand edited")
}

// failingStore wraps a Store and fails all writes.
type failingStore struct {
	store.Store
}

func (f *failingStore) UpsertAll(context.Context, string, []section.Section) error {
	return errors.New("disk full")
}

func TestResolveSurvivesPersistenceFailure(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "contact.html", fmt.Sprintf(
		`<html><body><section><h2>Contact</h2><p>%s</p></section></body></html>`, blockText))

	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	p := NewPipeline(&failingStore{Store: st}, source.NewLocator(dir))

	// The request still succeeds with the in-memory result.
	res, err := p.Resolve(t.Context(), "contact")
	require.NoError(t, err)
	assert.Equal(t, ProvenanceScraped, res.Provenance)
	require.Len(t, res.Sections, 1)
	assert.Equal(t, "Contact", res.Sections[0].SectionTitle)
}

// unreadableStore wraps a Store and fails all reads.
type unreadableStore struct {
	store.Store
}

func (u *unreadableStore) GetSections(context.Context, string, bool) ([]section.Section, error) {
	return nil, errors.New("database locked")
}

func TestResolveReadFailureDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "about.html", fmt.Sprintf(
		`<html><body><section><h2>From Source</h2><p>%s</p></section></body></html>`, blockText))

	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	// A direct edit exists for the page.
	edited := "<p>hand edited</p>"
	_, err = st.UpdateOrCreate(t.Context(), "about", "intro", store.Patch{ContentHTML: &edited})
	require.NoError(t, err)

	p := NewPipeline(&unreadableStore{Store: st}, source.NewLocator(dir))

	// A transient read failure surfaces as an error instead of degrading
	// into a scrape that would replace the page's rows.
	_, err = p.Resolve(t.Context(), "about")
	require.Error(t, err)

	stored, err := st.GetSections(t.Context(), "about", false)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, edited, stored[0].ContentHTML)
}

func TestSynthesizeKnownAndUnknownPages(t *testing.T) {
	s := NewSynthesizer()

	known, err := s.Synthesize("home")
	require.NoError(t, err)
	assert.True(t, known.IsFallback)
	assert.Equal(t, "Welcome", known.SectionTitle)
	assert.Contains(t, known.ContentHTML, "<p>")
	assert.NotEmpty(t, known.ContentTranslated)

	unknown, err := s.Synthesize("volunteers")
	require.NoError(t, err)
	assert.True(t, unknown.IsFallback)
	assert.Equal(t, "Volunteers", unknown.SectionTitle)
	assert.Contains(t, unknown.ContentHTML, "volunteers")
}
