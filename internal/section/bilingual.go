package section

import "golang.org/x/text/language"

// BilingualField pairs one piece of content in the site's primary and
// secondary languages. Either side may be empty.
type BilingualField struct {
	Primary   string `json:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty"`
}

// LanguageResolver resolves bilingual fields against the site's configured
// language pair. The zero value resolves with no requested-language
// preference (primary, then secondary).
type LanguageResolver struct {
	Primary   language.Tag
	Secondary language.Tag
}

// NewLanguageResolver parses the configured language pair. Tags are matched
// by base language, so "en-US" requests resolve against "en" content.
func NewLanguageResolver(primary, secondary string) (LanguageResolver, error) {
	p, err := language.Parse(primary)
	if err != nil {
		return LanguageResolver{}, err
	}
	s, err := language.Parse(secondary)
	if err != nil {
		return LanguageResolver{}, err
	}
	return LanguageResolver{Primary: p, Secondary: s}, nil
}

// Resolve returns the displayable text for the requested language:
// requested-language value, then primary, then secondary, then "".
// An unparseable or unknown requested language falls through to the
// primary-first order.
func (r LanguageResolver) Resolve(f BilingualField, requested string) string {
	if r.matchesSecondary(requested) {
		return firstNonEmpty(f.Secondary, f.Primary)
	}
	return firstNonEmpty(f.Primary, f.Secondary)
}

// Alternate returns the other-language value for an "also show" rendering.
// It is suppressed (empty) when identical to the resolved value, so callers
// never display the same text twice.
func (r LanguageResolver) Alternate(f BilingualField, requested string) string {
	chosen := r.Resolve(f, requested)
	var other string
	if r.matchesSecondary(requested) {
		other = f.Primary
	} else {
		other = f.Secondary
	}
	if other == chosen {
		return ""
	}
	return other
}

func (r LanguageResolver) matchesSecondary(requested string) bool {
	if r.Secondary == (language.Tag{}) {
		return false
	}
	tag, err := language.Parse(requested)
	if err != nil {
		return false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return false
	}
	secBase, _ := r.Secondary.Base()
	return base == secBase
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
