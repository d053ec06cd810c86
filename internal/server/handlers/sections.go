// Package handlers implements the sectiond HTTP handlers.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sectiond/internal/pagename"
	"git.home.luguber.info/inful/sectiond/internal/resolve"
	"git.home.luguber.info/inful/sectiond/internal/section"
	"git.home.luguber.info/inful/sectiond/internal/server/responses"
	"git.home.luguber.info/inful/sectiond/internal/store"
	"git.home.luguber.info/inful/sectiond/internal/translate"
)

// Resolver is the pipeline surface the handlers need.
type Resolver interface {
	Resolve(ctx context.Context, page string) (*resolve.Result, error)
	Refresh(ctx context.Context, page string) (*resolve.Result, error)
}

// Publisher announces content changes to other execution contexts. It may
// be nil when propagation is disabled.
type Publisher interface {
	PublishUpdate(ctx context.Context, page string, content json.RawMessage) error
}

// SectionHandlers serves the resolution and editing endpoints.
type SectionHandlers struct {
	resolver   Resolver
	store      store.Store
	publisher  Publisher
	translator translate.Translator
	languages  section.LanguageResolver
}

// NewSectionHandlers wires the handler dependencies. publisher may be nil.
func NewSectionHandlers(resolver Resolver, st store.Store, publisher Publisher, translator translate.Translator, languages section.LanguageResolver) *SectionHandlers {
	if translator == nil {
		translator = translate.Noop{}
	}
	return &SectionHandlers{
		resolver:   resolver,
		store:      st,
		publisher:  publisher,
		translator: translator,
		languages:  languages,
	}
}

// HandleGetSections resolves a page's sections. An optional lang query
// parameter localizes each section's content to the requested language,
// with the other-language variant kept only when it differs.
func (h *SectionHandlers) HandleGetSections(w http.ResponseWriter, r *http.Request) {
	page := pagename.Normalize(r.PathValue("page"))

	result, err := h.resolver.Resolve(r.Context(), page)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "content resolution failed")
		return
	}

	sections := result.Sections
	if lang := r.URL.Query().Get("lang"); lang != "" {
		sections = h.localize(sections, lang)
	}

	writeJSON(w, http.StatusOK, &responses.SectionsResponse{
		Success:    true,
		Data:       sections,
		Count:      len(sections),
		Page:       result.Page,
		Provenance: string(result.Provenance),
	})
}

// sectionPatch is the upsert request body.
type sectionPatch struct {
	SectionTitle      *string        `json:"sectionTitle"`
	ContentHTML       *string        `json:"contentHtml"`
	ContentTranslated *string        `json:"contentTranslated"`
	Order             *int           `json:"order"`
	IsActive          *bool          `json:"isActive"`
	IsVisible         *bool          `json:"isVisible"`
	Layout            *string        `json:"layout"`
	Metadata          map[string]any `json:"metadata"`
	UpdatedBy         string         `json:"updatedBy"`
}

// HandleUpsertSection applies a direct edit to one section, creating it
// when absent. A missing translated variant is filled through the
// translation service when the primary content changed.
func (h *SectionHandlers) HandleUpsertSection(w http.ResponseWriter, r *http.Request) {
	page := pagename.Normalize(r.PathValue("page"))
	sectionID := r.PathValue("id")
	if sectionID == "" {
		writeError(w, http.StatusBadRequest, "section id required")
		return
	}

	var body sectionPatch
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := store.Patch{
		SectionTitle:      body.SectionTitle,
		ContentHTML:       body.ContentHTML,
		ContentTranslated: body.ContentTranslated,
		Order:             body.Order,
		IsActive:          body.IsActive,
		IsVisible:         body.IsVisible,
		Metadata:          body.Metadata,
		UpdatedBy:         body.UpdatedBy,
	}
	if body.Layout != nil {
		layout := section.NormalizeLayout(*body.Layout)
		patch.Layout = &layout
	}

	if body.ContentHTML != nil && body.ContentTranslated == nil {
		if translated, err := h.translator.Translate(r.Context(), *body.ContentHTML); err != nil {
			slog.Warn("translation failed, storing primary only", "page", page, "error", err)
		} else if translated != *body.ContentHTML {
			patch.ContentTranslated = &translated
		}
	}

	updated, err := h.store.UpdateOrCreate(r.Context(), page, sectionID, patch)
	if err != nil {
		slog.Error("section upsert failed", "page", page, "section_id", sectionID, "error", err)
		writeError(w, http.StatusInternalServerError, "section upsert failed")
		return
	}

	h.announce(r.Context(), page, updated)
	writeJSON(w, http.StatusOK, &responses.SectionResponse{Success: true, Data: updated})
}

// HandleRefreshPage deletes and rebuilds a page's sections from its source
// document. Direct edits to the page do not survive this.
func (h *SectionHandlers) HandleRefreshPage(w http.ResponseWriter, r *http.Request) {
	page := pagename.Normalize(r.PathValue("page"))

	result, err := h.resolver.Refresh(r.Context(), page)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "page refresh failed")
		return
	}

	h.announce(r.Context(), page, nil)
	writeJSON(w, http.StatusOK, &responses.RefreshResponse{
		Success:    true,
		JobID:      uuid.NewString(),
		Data:       result.Sections,
		Count:      len(result.Sections),
		Page:       result.Page,
		Provenance: string(result.Provenance),
	})
}

// HandleDeleteSection removes one section.
func (h *SectionHandlers) HandleDeleteSection(w http.ResponseWriter, r *http.Request) {
	page := pagename.Normalize(r.PathValue("page"))
	sectionID := r.PathValue("id")

	if err := h.store.DeleteSection(r.Context(), page, sectionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "section not found")
			return
		}
		slog.Error("section delete failed", "page", page, "section_id", sectionID, "error", err)
		writeError(w, http.StatusInternalServerError, "section delete failed")
		return
	}

	h.announce(r.Context(), page, nil)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *SectionHandlers) localize(sections []section.Section, lang string) []section.Section {
	localized := make([]section.Section, len(sections))
	for i, s := range sections {
		resolved := h.languages.Resolve(s.Bilingual(), lang)
		alternate := h.languages.Alternate(s.Bilingual(), lang)
		s.ContentHTML = resolved
		s.ContentTranslated = alternate
		localized[i] = s
	}
	return localized
}

func (h *SectionHandlers) announce(ctx context.Context, page string, updated *section.Section) {
	if h.publisher == nil {
		return
	}
	var content json.RawMessage
	if updated != nil {
		if data, err := json.Marshal(updated); err == nil {
			content = data
		}
	}
	if err := h.publisher.PublishUpdate(ctx, page, content); err != nil {
		// Propagation is best effort; the write already succeeded.
		slog.Warn("update event publish failed", "page", page, "error", err)
	}
}
