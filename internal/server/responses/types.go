// Package responses defines API response types used by sectiond HTTP
// handlers.
package responses

import (
	"time"

	"git.home.luguber.info/inful/sectiond/internal/section"
)

// SectionsResponse is the page resolution response. Provenance tells the
// consumer whether content came from the store, live extraction, or
// synthesis.
type SectionsResponse struct {
	Success    bool              `json:"success"`
	Data       []section.Section `json:"data"`
	Count      int               `json:"count"`
	Page       string            `json:"page"`
	Provenance string            `json:"provenance"`
}

// SectionResponse wraps a single upserted section.
type SectionResponse struct {
	Success bool             `json:"success"`
	Data    *section.Section `json:"data"`
}

// RefreshResponse is returned by the force-refresh endpoint.
type RefreshResponse struct {
	Success    bool              `json:"success"`
	JobID      string            `json:"job_id"`
	Data       []section.Section `json:"data"`
	Count      int               `json:"count"`
	Page       string            `json:"page"`
	Provenance string            `json:"provenance"`
}

// HealthResponse is the admin health check payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
	Pages     int       `json:"pages,omitempty"`
	Sections  int       `json:"sections,omitempty"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
