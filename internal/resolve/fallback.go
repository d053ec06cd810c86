package resolve

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/sectiond/internal/section"
)

// placeholderTemplate is a per-page bilingual placeholder authored in
// markdown; bodies are rendered to HTML at synthesis time.
type placeholderTemplate struct {
	title section.BilingualField
	body  section.BilingualField
}

// placeholders keys are normalized page names. Pages without an entry get
// the generic template with the page name interpolated.
var placeholders = map[string]placeholderTemplate{
	"home": {
		title: section.BilingualField{Primary: "Welcome", Secondary: "வரவேற்கிறோம்"},
		body: section.BilingualField{
			Primary:   "Welcome to our website. Content for this page is being prepared and will appear here soon.",
			Secondary: "எங்கள் வலைத்தளத்திற்கு வரவேற்கிறோம். இந்தப் பக்கத்திற்கான உள்ளடக்கம் தயாராகி விரைவில் இங்கே தோன்றும்.",
		},
	},
	"about": {
		title: section.BilingualField{Primary: "About Us", Secondary: "எங்களைப் பற்றி"},
		body: section.BilingualField{
			Primary:   "Information about our organisation will be published here shortly.",
			Secondary: "எங்கள் அமைப்பு பற்றிய தகவல்கள் விரைவில் இங்கே வெளியிடப்படும்.",
		},
	},
	"projects": {
		title: section.BilingualField{Primary: "Our Projects", Secondary: "எங்கள் திட்டங்கள்"},
		body: section.BilingualField{
			Primary:   "Details of our ongoing projects will be published here shortly.",
			Secondary: "எங்கள் நடைபெறும் திட்டங்களின் விவரங்கள் விரைவில் இங்கே வெளியிடப்படும்.",
		},
	},
	"contact": {
		title: section.BilingualField{Primary: "Contact Us", Secondary: "எங்களை தொடர்பு கொள்ள"},
		body: section.BilingualField{
			Primary:   "Our contact details will be available here soon.",
			Secondary: "எங்கள் தொடர்பு விவரங்கள் விரைவில் இங்கே கிடைக்கும்.",
		},
	},
	"donate": {
		title: section.BilingualField{Primary: "Support Us", Secondary: "எங்களை ஆதரிக்க"},
		body: section.BilingualField{
			Primary:   "Information on how to support our work will appear here soon.",
			Secondary: "எங்கள் பணிக்கு ஆதரவளிக்கும் வழிகள் விரைவில் இங்கே தோன்றும்.",
		},
	},
}

// Synthesizer produces the single placeholder section emitted when no real
// content can be found or extracted.
type Synthesizer struct {
	md goldmark.Markdown
}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{md: goldmark.New()}
}

// Synthesize builds the placeholder section for a page. The section is
// flagged IsFallback so consumers can tell placeholder from real content.
func (s *Synthesizer) Synthesize(page string) (section.Section, error) {
	tpl, ok := placeholders[page]
	if !ok {
		display := strings.ReplaceAll(page, "-", " ")
		tpl = placeholderTemplate{
			title: section.BilingualField{Primary: titleCase(display)},
			body: section.BilingualField{
				Primary:   fmt.Sprintf("Content for the %s page is being prepared and will appear here soon.", display),
				Secondary: fmt.Sprintf("%s பக்கத்திற்கான உள்ளடக்கம் தயாராகி விரைவில் இங்கே தோன்றும்.", titleCase(display)),
			},
		}
	}

	primary, err := s.render(tpl.body.Primary)
	if err != nil {
		return section.Section{}, fmt.Errorf("render placeholder: %w", err)
	}
	secondary, err := s.render(tpl.body.Secondary)
	if err != nil {
		return section.Section{}, fmt.Errorf("render placeholder: %w", err)
	}

	return section.Section{
		PageName:          page,
		SectionID:         page + "-fallback",
		SectionTitle:      tpl.title.Primary,
		ContentHTML:       primary,
		ContentTranslated: secondary,
		Order:             0,
		IsActive:          true,
		IsVisible:         true,
		IsFallback:        true,
		Layout:            section.LayoutDefault,
		Metadata: map[string]any{
			"synthesized":    true,
			"titleSecondary": tpl.title.Secondary,
		},
	}, nil
}

func (s *Synthesizer) render(markdown string) (string, error) {
	if markdown == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
