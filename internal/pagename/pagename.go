// Package pagename canonicalizes page identifiers into lowercase slugs.
package pagename

import "strings"

// Home is the canonical name for the site root page.
const Home = "home"

// Normalize maps an arbitrary page identifier to its canonical slug.
// It is total: any input, including empty, yields a usable page name.
//
//	"", "/", "index", "index.html", "INDEX.html" -> "home"
//	"About.html" -> "about"
func Normalize(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.Trim(name, "/")
	name = strings.TrimSuffix(name, ".html")
	if name == "" || name == "index" {
		return Home
	}
	return name
}

// SourceFile returns the static document filename for a normalized page
// name. The home page maps to index.html.
func SourceFile(page string) string {
	if page == Home {
		return "index.html"
	}
	return page + ".html"
}
