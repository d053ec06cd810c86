package section

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T) LanguageResolver {
	t.Helper()
	r, err := NewLanguageResolver("en", "ta")
	require.NoError(t, err)
	return r
}

func TestResolveRequestedLanguage(t *testing.T) {
	r := newResolver(t)
	f := BilingualField{Primary: "Welcome", Secondary: "வணக்கம்"}

	assert.Equal(t, "Welcome", r.Resolve(f, "en"))
	assert.Equal(t, "வணக்கம்", r.Resolve(f, "ta"))
	// Regional variants match by base language.
	assert.Equal(t, "Welcome", r.Resolve(f, "en-US"))
	assert.Equal(t, "வணக்கம்", r.Resolve(f, "ta-IN"))
}

func TestResolveFallsThroughEmptyValues(t *testing.T) {
	r := newResolver(t)

	// Empty primary must not win over present secondary text.
	f := BilingualField{Primary: "", Secondary: "வணக்கம்"}
	assert.Equal(t, "வணக்கம்", r.Resolve(f, "en"))

	f = BilingualField{Primary: "Welcome", Secondary: ""}
	assert.Equal(t, "Welcome", r.Resolve(f, "ta"))

	assert.Equal(t, "", r.Resolve(BilingualField{}, "en"))
}

func TestResolveUnknownRequestedLanguage(t *testing.T) {
	r := newResolver(t)
	f := BilingualField{Primary: "Welcome", Secondary: "வணக்கம்"}

	assert.Equal(t, "Welcome", r.Resolve(f, "fr"))
	assert.Equal(t, "Welcome", r.Resolve(f, "not-a-tag!!"))
	assert.Equal(t, "Welcome", r.Resolve(f, ""))
}

func TestAlternateSuppressesDuplicate(t *testing.T) {
	r := newResolver(t)

	f := BilingualField{Primary: "Welcome", Secondary: "வணக்கம்"}
	assert.Equal(t, "வணக்கம்", r.Alternate(f, "en"))
	assert.Equal(t, "Welcome", r.Alternate(f, "ta"))

	// Identical secondary is suppressed from the alternate rendering.
	same := BilingualField{Primary: "Welcome", Secondary: "Welcome"}
	assert.Equal(t, "", r.Alternate(same, "en"))

	// When resolution already fell through to the secondary, the alternate
	// must not repeat it.
	only := BilingualField{Primary: "", Secondary: "வணக்கம்"}
	assert.Equal(t, "வணக்கம்", r.Resolve(only, "en"))
	assert.Equal(t, "", r.Alternate(only, "ta"))
}

func TestNormalizeLayout(t *testing.T) {
	assert.Equal(t, LayoutHero, NormalizeLayout("hero"))
	assert.Equal(t, LayoutHero, NormalizeLayout("  HERO "))
	assert.Equal(t, LayoutDefault, NormalizeLayout(""))
	assert.Equal(t, LayoutDefault, NormalizeLayout("sidebar"))
}
