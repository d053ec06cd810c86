// Package propagate keeps independent execution contexts convergent after
// content edits. A propagation bus delivers transient ContentUpdateEvents
// through interchangeable transports; receivers invalidate their local
// content cache and re-fetch. Convergence is eventual and best-effort,
// bounded by the staleness window.
package propagate

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GlobalScope targets every cached page instead of a single one.
const GlobalScope = "*"

// Event is a transient content update notification. It is never persisted;
// its validity is bounded by the receiver's staleness window.
type Event struct {
	ID        string          `json:"id"`
	Origin    string          `json:"origin,omitempty"`
	Page      string          `json:"page"`
	Content   json.RawMessage `json:"content,omitempty"`
	Timestamp int64           `json:"timestamp"` // epoch-ms
}

// NewEvent builds an update event for a page. content may be nil when the
// receiver should re-fetch rather than apply a payload directly.
func NewEvent(origin, page string, content json.RawMessage) Event {
	return Event{
		ID:        uuid.NewString(),
		Origin:    origin,
		Page:      page,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Age returns how long ago the event was published, relative to now.
func (e Event) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(e.Timestamp))
}

// Global reports whether the event targets the shared scope.
func (e Event) Global() bool {
	return e.Page == GlobalScope || e.Page == ""
}
