package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sectiond/internal/section"
)

const filler = "This block carries enough readable text to clear the noise threshold easily."

func TestExtractStructuralSections(t *testing.T) {
	markup := fmt.Sprintf(`<html><body>
		<section><h2>Our Work</h2><p>%s</p></section>
		<section><h2>Our Team</h2><p>%s</p></section>
	</body></html>`, filler, filler)

	sections, tier, err := New().Extract("projects", markup)
	require.NoError(t, err)
	assert.Equal(t, "structural", tier)
	require.Len(t, sections, 2)

	assert.Equal(t, "Our Work", sections[0].SectionTitle)
	assert.Equal(t, "Our Team", sections[1].SectionTitle)
	assert.Equal(t, 0, sections[0].Order)
	assert.Equal(t, 1, sections[1].Order)
	assert.Equal(t, "projects-section-0", sections[0].SectionID)
	assert.Equal(t, "projects", sections[0].PageName)
	assert.Contains(t, sections[0].ContentHTML, "<h2>Our Work</h2>")
	assert.True(t, sections[0].IsActive)
	assert.True(t, sections[0].IsVisible)
}

func TestExtractNoiseThreshold(t *testing.T) {
	markup := fmt.Sprintf(`<html><body>
		<section><p>too short</p></section>
		<section><p>%s</p></section>
	</body></html>`, filler)

	sections, tier, err := New().Extract("home", markup)
	require.NoError(t, err)
	assert.Equal(t, "structural", tier)
	require.Len(t, sections, 1)

	// No emitted section may fall below the noise threshold.
	for _, s := range sections {
		node, err := html.Parse(strings.NewReader(s.ContentHTML))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(textContent(node)), minTextLength)
	}
}

func TestExtractContainerTier(t *testing.T) {
	markup := fmt.Sprintf(`<html><body>
		<div class="hero-banner"><h1>Welcome Home</h1><p>%s</p></div>
		<div class="stats-row"><p>%s</p></div>
		<div class="unrelated"><p>%s</p></div>
	</body></html>`, filler, filler, filler)

	sections, tier, err := New().Extract("home", markup)
	require.NoError(t, err)
	assert.Equal(t, "container", tier)
	require.Len(t, sections, 2)
	assert.Equal(t, section.LayoutHero, sections[0].Layout)
	assert.Equal(t, section.LayoutStatistics, sections[1].Layout)
}

func TestHintedLayoutPriorityIsStable(t *testing.T) {
	markup := fmt.Sprintf(`<html><body>
		<div class="hero stats"><h1>Impact</h1><p>%s</p></div>
	</body></html>`, filler)

	// A block matching several hint fragments must resolve to the same
	// layout on every extraction.
	for range 100 {
		sections, tier, err := New().Extract("home", markup)
		require.NoError(t, err)
		require.Equal(t, "container", tier)
		require.Len(t, sections, 1)
		require.Equal(t, section.LayoutHero, sections[0].Layout)
	}
}

func TestExtractMainContentTier(t *testing.T) {
	markup := fmt.Sprintf(`<html><body>
		<nav><a href="/">Home</a><a href="/about">About this organisation and everything it does</a></nav>
		<div><p>%s</p><p>%s</p></div>
		<footer><p>Copyright notice that is fairly long but must never be extracted.</p></footer>
	</body></html>`, filler, filler)

	sections, tier, err := New().Extract("about", markup)
	require.NoError(t, err)
	assert.Equal(t, "main-content", tier)
	require.Len(t, sections, 1)
	assert.NotContains(t, sections[0].ContentHTML, "Copyright")
	assert.NotContains(t, sections[0].ContentHTML, "<nav>")
}

func TestExtractNothingUsable(t *testing.T) {
	sections, tier, err := New().Extract("empty", `<html><body><script>var x=1;</script></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, sections)
	assert.Equal(t, "", tier)
}

func TestExtractTitleExcerptFallback(t *testing.T) {
	text := "Community outreach initiatives spanning several decades here. " + filler
	markup := fmt.Sprintf(`<html><body><section><p>%s</p></section></body></html>`, text)

	sections, _, err := New().Extract("home", markup)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	title := sections[0].SectionTitle
	assert.True(t, strings.HasSuffix(title, ellipsis), "excerpt over the cap carries an ellipsis: %q", title)
	assert.LessOrEqual(t, len(title), titleMaxLen+len(ellipsis))
	assert.True(t, strings.HasPrefix(title, "Community outreach"))
}

func TestBoundContentSentenceBoundary(t *testing.T) {
	sentence := "This is a complete sentence that takes up some space. "
	var b strings.Builder
	for b.Len() < 5000 {
		b.WriteString(sentence)
	}
	input := b.String()
	require.Greater(t, len(input), maxContentLength)

	out := boundContent(input)
	assert.LessOrEqual(t, len(out), maxContentLength)
	assert.True(t, strings.HasSuffix(out, "."+ellipsis), "cut lands on a sentence boundary: ...%q", out[len(out)-10:])
	assert.LessOrEqual(t, len(out), truncateBudget+len(ellipsis))
}

func TestBoundContentHardTruncate(t *testing.T) {
	input := strings.Repeat("x", 5000)
	out := boundContent(input)
	assert.Equal(t, truncateBudget+len(ellipsis), len(out))
	assert.True(t, strings.HasSuffix(out, ellipsis))
}

func TestBoundContentShortPassthrough(t *testing.T) {
	assert.Equal(t, "short.", boundContent("short."))
}
