package extract

import (
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sectiond/internal/section"
)

// Strategy selects candidate content blocks from a parsed document. The
// extractor evaluates strategies in order and stops at the first one that
// yields a usable result.
type Strategy interface {
	// Name identifies the tier in logs and section metadata.
	Name() string
	// Select returns candidate blocks in document order.
	Select(doc *html.Node) []*html.Node
}

// structuralStrategy picks explicit semantic <section> blocks.
type structuralStrategy struct{}

func (structuralStrategy) Name() string { return "structural" }

func (structuralStrategy) Select(doc *html.Node) []*html.Node {
	return findTopMost(doc, func(n *html.Node) bool {
		return n.Data == "section"
	})
}

// containerHint pairs a class/id fragment with the layout it suggests.
type containerHint struct {
	fragment string
	layout   section.Layout
}

// containerHints lists hint fragments in match priority order, so a block
// carrying several hints always resolves to the same layout. The fragments
// double as the selection heuristic for the container tier.
var containerHints = []containerHint{
	{"hero", section.LayoutHero},
	{"banner", section.LayoutHero},
	{"feature", section.LayoutFeatures},
	{"service", section.LayoutFeatures},
	{"stat", section.LayoutStatistics},
	{"counter", section.LayoutStatistics},
	{"contact", section.LayoutContact},
	{"announce", section.LayoutAnnouncement},
	{"notice", section.LayoutAnnouncement},
	{"marquee", section.LayoutAnnouncement},
	{"about", section.LayoutDefault},
	{"content", section.LayoutDefault},
	{"container", section.LayoutDefault},
}

var landmarkTags = map[string]bool{
	"article": true,
	"main":    true,
	"aside":   true,
}

func hintedLayout(n *html.Node) (section.Layout, bool) {
	hints := strings.ToLower(getAttr(n, "class") + " " + getAttr(n, "id"))
	if hints == " " {
		return section.LayoutDefault, false
	}
	for _, hint := range containerHints {
		if strings.Contains(hints, hint.fragment) {
			return hint.layout, true
		}
	}
	return section.LayoutDefault, false
}

// containerStrategy broadens selection to divs whose class/id hint at known
// block roles, plus structural landmark elements.
type containerStrategy struct{}

func (containerStrategy) Name() string { return "container" }

func (containerStrategy) Select(doc *html.Node) []*html.Node {
	return findTopMost(doc, func(n *html.Node) bool {
		if landmarkTags[n.Data] {
			return true
		}
		if n.Data != "div" {
			return false
		}
		_, ok := hintedLayout(n)
		return ok
	})
}

// mainContentStrategy strips boilerplate and returns the single largest
// remaining content region.
type mainContentStrategy struct{}

func (mainContentStrategy) Name() string { return "main-content" }

func (mainContentStrategy) Select(doc *html.Node) []*html.Node {
	stripBoilerplate(doc)

	body := findFirst(doc, "body")
	if body == nil {
		body = doc
	}

	// Largest meaningful region: the element with the most rendered text
	// among the body's block-level descendants, falling back to the body.
	best := body
	bestLen := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "div" || c.Data == "main" || c.Data == "article" || c.Data == "section") {
				if l := len(textContent(c)); l > bestLen {
					best, bestLen = c, l
				}
			}
			walk(c)
		}
	}
	walk(body)

	if len(textContent(best)) == 0 {
		return nil
	}
	return []*html.Node{best}
}

func findFirst(n *html.Node, tag string) *html.Node {
	matches := findTopMost(n, func(node *html.Node) bool { return node.Data == tag })
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}
