package pagename

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"", "home"},
		{"/", "home"},
		{"index", "home"},
		{"index.html", "home"},
		{"INDEX.html", "home"},
		{"Home", "home"},
		{"  about.html  ", "about"},
		{"Projects", "projects"},
		{"/contact/", "contact"},
		{"donate.HTML", "donate"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.raw); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeEquivalences(t *testing.T) {
	// The canonical forms of the root page must all collapse.
	root := Normalize("/")
	for _, raw := range []string{"INDEX.html", "Home", "", "index"} {
		if Normalize(raw) != root {
			t.Errorf("Normalize(%q) = %q, want %q", raw, Normalize(raw), root)
		}
	}
}

func TestSourceFile(t *testing.T) {
	if got := SourceFile("home"); got != "index.html" {
		t.Errorf("SourceFile(home) = %q, want index.html", got)
	}
	if got := SourceFile("projects"); got != "projects.html" {
		t.Errorf("SourceFile(projects) = %q, want projects.html", got)
	}
}
