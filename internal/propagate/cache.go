package propagate

import (
	"sync"

	"git.home.luguber.info/inful/sectiond/internal/section"
)

// ContentCache holds the most recently resolved section list per normalized
// page key. It is the single owner of cached content in its execution
// context; there is no other shared mutable state.
type ContentCache struct {
	mu      sync.RWMutex
	entries map[string][]section.Section
}

func NewContentCache() *ContentCache {
	return &ContentCache{entries: make(map[string][]section.Section)}
}

// Get returns the cached sections for a page and whether an entry exists.
func (c *ContentCache) Get(page string) ([]section.Section, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sections, ok := c.entries[page]
	return sections, ok
}

// Put stores the resolved sections for a page, replacing any entry.
func (c *ContentCache) Put(page string, sections []section.Section) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[page] = sections
}

// Invalidate drops the entry for one page.
func (c *ContentCache) Invalidate(page string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, page)
}

// InvalidateAll drops every entry.
func (c *ContentCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]section.Section)
}

// Len returns the number of cached pages.
func (c *ContentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
