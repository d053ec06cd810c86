// Package source resolves normalized page names to static markup documents
// on disk.
package source

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sectiond/internal/pagename"
)

// ErrNotFound reports that no candidate location holds a document for the
// requested page. It is an expected condition, not a failure.
var ErrNotFound = errors.New("source document not found")

// DefaultRoots are the candidate base directories probed in order. The list
// tolerates varying deployment layouts (project root, public assets, build
// output, views).
var DefaultRoots = []string{".", "public", "dist", "views"}

// Locator probes an ordered list of base directories for a page's static
// document. First match wins; the full list is exhausted before reporting
// absence.
type Locator struct {
	roots []string
}

// NewLocator returns a Locator over the given base directories, falling
// back to DefaultRoots when none are configured.
func NewLocator(roots ...string) *Locator {
	if len(roots) == 0 {
		roots = DefaultRoots
	}
	return &Locator{roots: roots}
}

// Locate returns the contents of the first existing, readable candidate
// document for the normalized page name. It returns ErrNotFound (never a
// raw IO error for absence) when no candidate exists.
func (l *Locator) Locate(page string) (string, error) {
	file := pagename.SourceFile(page)
	for _, root := range l.roots {
		path := filepath.Join(filepath.Clean(root), file)
		data, err := os.ReadFile(path) // #nosec G304 - path built from normalized page name
		if err != nil {
			if !os.IsNotExist(err) {
				// Unreadable candidate: log and keep probing so a bad
				// permission bit in one root does not hide the others.
				slog.Debug("skipping unreadable source candidate", "path", path, "error", err)
			}
			continue
		}
		slog.Debug("located source document", "page", page, "path", path)
		return string(data), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, file)
}
