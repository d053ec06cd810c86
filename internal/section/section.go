// Package section defines the persisted content block model and the
// bilingual field resolution rules shared by the pipeline and the server.
package section

import (
	"strings"
	"time"
)

// Layout categorizes a section for presentation. The set is closed; unknown
// values normalize to LayoutDefault.
type Layout string

const (
	LayoutDefault      Layout = "default"
	LayoutHero         Layout = "hero"
	LayoutFeatures     Layout = "features"
	LayoutStatistics   Layout = "statistics"
	LayoutContact      Layout = "contact"
	LayoutAnnouncement Layout = "announcement"
)

var validLayouts = map[Layout]bool{
	LayoutDefault:      true,
	LayoutHero:         true,
	LayoutFeatures:     true,
	LayoutStatistics:   true,
	LayoutContact:      true,
	LayoutAnnouncement: true,
}

// NormalizeLayout maps a raw layout string to a member of the closed
// enumeration, defaulting when the value is unknown or empty.
func NormalizeLayout(raw string) Layout {
	l := Layout(strings.ToLower(strings.TrimSpace(raw)))
	if validLayouts[l] {
		return l
	}
	return LayoutDefault
}

// Section is an independently addressable content block within a page.
// Identity is (PageName, SectionID); Order only affects presentation
// sequence and is not required to be unique.
type Section struct {
	PageName          string         `json:"pageName"`
	SectionID         string         `json:"sectionId"`
	SectionTitle      string         `json:"sectionTitle,omitempty"`
	ContentHTML       string         `json:"contentHtml"`
	ContentTranslated string         `json:"contentTranslated,omitempty"`
	Order             int            `json:"order"`
	IsActive          bool           `json:"isActive"`
	IsVisible         bool           `json:"isVisible"`
	IsFallback        bool           `json:"isFallback,omitempty"`
	Layout            Layout         `json:"layout"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedBy         string         `json:"createdBy,omitempty"`
	UpdatedBy         string         `json:"updatedBy,omitempty"`
	CreatedAt         time.Time      `json:"createdAt,omitempty"`
	UpdatedAt         time.Time      `json:"updatedAt,omitempty"`
}

// Bilingual returns the section body as a language-paired field.
func (s *Section) Bilingual() BilingualField {
	return BilingualField{Primary: s.ContentHTML, Secondary: s.ContentTranslated}
}
