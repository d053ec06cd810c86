// Package extract parses static markup into ordered content sections using
// a tiered strategy chain: explicit structural blocks first, then heuristic
// containers, then the largest main-content region. Each tier runs only when
// the previous one yields nothing usable.
package extract

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sectiond/internal/section"
)

const (
	// minTextLength is the noise threshold: blocks whose rendered text is
	// shorter are discarded.
	minTextLength = 50

	titleWordCount = 5
	titleMaxLen    = 30
)

// Extractor turns raw markup into persisted-shape sections.
type Extractor struct {
	strategies []Strategy
}

// New returns an extractor with the standard tier chain.
func New() *Extractor {
	return &Extractor{
		strategies: []Strategy{
			structuralStrategy{},
			containerStrategy{},
			mainContentStrategy{},
		},
	}
}

// Extract parses markup and returns sections in document order with
// zero-based Order indexes, along with the name of the tier that produced
// them. A nil slice with no error means no tier found usable content; the
// caller decides whether to synthesize a placeholder.
func (e *Extractor) Extract(page, markup string) ([]section.Section, string, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, "", fmt.Errorf("parse markup: %w", err)
	}

	for _, strategy := range e.strategies {
		blocks := strategy.Select(doc)
		sections := e.build(page, strategy.Name(), blocks)
		if len(sections) > 0 {
			slog.Debug("extraction tier matched",
				"page", page, "tier", strategy.Name(), "sections", len(sections))
			return sections, strategy.Name(), nil
		}
	}

	slog.Debug("no extraction tier yielded content", "page", page)
	return nil, "", nil
}

func (e *Extractor) build(page, tier string, blocks []*html.Node) []section.Section {
	var sections []section.Section
	for _, block := range blocks {
		text := textContent(block)
		if len(text) < minTextLength {
			continue
		}

		layout, _ := hintedLayout(block)
		if block.Data == "aside" {
			layout = section.LayoutAnnouncement
		}

		idx := len(sections)
		sections = append(sections, section.Section{
			PageName:     page,
			SectionID:    fmt.Sprintf("%s-section-%d", page, idx),
			SectionTitle: blockTitle(block, text),
			ContentHTML:  boundContent(renderNode(block)),
			Order:        idx,
			IsActive:     true,
			IsVisible:    true,
			Layout:       layout,
			Metadata: map[string]any{
				"extractedFrom": tier,
			},
		})
	}
	return sections
}

// blockTitle prefers a nested heading; otherwise it excerpts the first few
// words of the block's text, ellipsis-truncated when too long.
func blockTitle(block *html.Node, text string) string {
	if heading := firstHeadingText(block); heading != "" {
		return heading
	}
	words := strings.Fields(text)
	if len(words) > titleWordCount {
		words = words[:titleWordCount]
	}
	excerpt := strings.Join(words, " ")
	if len(excerpt) > titleMaxLen {
		cut := titleMaxLen
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = strings.TrimSpace(excerpt[:cut]) + ellipsis
	}
	return excerpt
}
