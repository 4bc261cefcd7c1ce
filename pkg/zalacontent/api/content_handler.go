package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/zala-app/content-engine/pkg/zalacontent"
	"github.com/zala-app/content-engine/pkg/zalacontent/objectkey"
)

// maxUploadBytes caps direct media uploads.
const maxUploadBytes = 2 << 30

// ContentHandler handles HTTP requests for creator content
type ContentHandler struct {
	service  zalacontent.Service
	storage  zalacontent.BlobStore
	keys     *objectkey.Generator
	identity zalacontent.IdentityProvider
}

// NewContentHandler creates a new content handler
func NewContentHandler(service zalacontent.Service, storage zalacontent.BlobStore, identity zalacontent.IdentityProvider) *ContentHandler {
	return &ContentHandler{
		service:  service,
		storage:  storage,
		keys:     objectkey.New(),
		identity: identity,
	}
}

// Routes returns the routes for content
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateContent)
	r.Get("/", h.ListContent)
	r.Get("/search", h.SearchContent)
	r.Get("/library", h.ListLibrary)
	r.Post("/media", h.UploadMedia)
	r.Get("/media/url", h.GetMediaURL)

	r.Get("/{id}", h.GetContent)
	r.Patch("/{id}", h.EditContent)
	r.Delete("/{id}", h.DeleteContent)
	r.Post("/{id}/schedule", h.ScheduleContent)
	r.Post("/{id}/unschedule", h.UnscheduleContent)

	return r
}

// statusForError maps domain errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, zalacontent.ErrContentNotFound),
		errors.Is(err, zalacontent.ErrPostNotFound),
		errors.Is(err, zalacontent.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, zalacontent.ErrValidation),
		errors.Is(err, zalacontent.ErrInvalidSchedule):
		return http.StatusBadRequest
	case errors.Is(err, zalacontent.ErrNotScheduled),
		errors.Is(err, zalacontent.ErrAlreadyPublished):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CreateContentRequest is the request body for creating content
type CreateContentRequest struct {
	CreatorID         string     `json:"creator_id"`
	CreatorName       string     `json:"creator_name"`
	CreatorProfileURL string     `json:"creator_profile_url"`
	Title             string     `json:"title"`
	Focus             string     `json:"focus"`
	Description       string     `json:"description"`
	VideoRef          string     `json:"video_ref"`
	ThumbnailRef      string     `json:"thumbnail_ref"`
	Tags              []string   `json:"tags"`
	Accessibility     []string   `json:"accessibility"`
	OrgID             string     `json:"org_id"`
	InLibrary         bool       `json:"in_library"`
	PublicDiscovery   bool       `json:"public_discovery"`
	ScheduledFor      *time.Time `json:"scheduled_for,omitempty"`
}

// CreateContent creates new content for a creator
func (h *ContentHandler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req CreateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	creatorID, err := uuid.Parse(req.CreatorID)
	if err != nil {
		slog.Error("Invalid creator ID", "creator_id", req.CreatorID, "error", err)
		http.Error(w, "Invalid creator ID", http.StatusBadRequest)
		return
	}

	createReq := zalacontent.CreateContentRequest{
		CreatorID:         creatorID,
		CreatorName:       req.CreatorName,
		CreatorProfileURL: req.CreatorProfileURL,
		Title:             req.Title,
		Focus:             req.Focus,
		Description:       req.Description,
		VideoRef:          req.VideoRef,
		ThumbnailRef:      req.ThumbnailRef,
		Tags:              req.Tags,
		Accessibility:     req.Accessibility,
		OrgID:             req.OrgID,
		InLibrary:         req.InLibrary,
		PublicDiscovery:   req.PublicDiscovery,
		ScheduledFor:      req.ScheduledFor,
	}

	// A verified token overrides the body's display name
	if ident, err := h.identity.Identity(r.Context()); err == nil && ident.DisplayName != "" {
		createReq.CreatorName = ident.DisplayName
	}

	item, err := h.service.CreateContent(r.Context(), createReq)
	if err != nil {
		slog.Error("Failed to create content", "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	slog.Info("Content created", "content_id", item.ID.String(), "state", item.State)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, item)
}

// GetContent retrieves a content item by ID
func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	item, err := h.service.GetContent(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get content", "content_id", id.String(), "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.JSON(w, r, item)
}

// EditContentRequest is the request body for editing content. Absent fields
// are left unchanged.
type EditContentRequest struct {
	Title           *string  `json:"title,omitempty"`
	Focus           *string  `json:"focus,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Accessibility   []string `json:"accessibility,omitempty"`
	InLibrary       *bool    `json:"in_library,omitempty"`
	PublicDiscovery *bool    `json:"public_discovery,omitempty"`
	VideoRef        *string  `json:"video_ref,omitempty"`
	ThumbnailRef    *string  `json:"thumbnail_ref,omitempty"`
}

// EditContent edits a content item in place
func (h *ContentHandler) EditContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req EditContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.EditContent(r.Context(), zalacontent.EditContentRequest{
		ID:              id,
		Title:           req.Title,
		Focus:           req.Focus,
		Description:     req.Description,
		Tags:            req.Tags,
		Accessibility:   req.Accessibility,
		InLibrary:       req.InLibrary,
		PublicDiscovery: req.PublicDiscovery,
		VideoRef:        req.VideoRef,
		ThumbnailRef:    req.ThumbnailRef,
	})
	if err != nil {
		slog.Error("Failed to edit content", "content_id", id.String(), "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	slog.Info("Content edited", "content_id", id.String())
	render.JSON(w, r, item)
}

// DeleteContent deletes a content item and all derived records
func (h *ContentHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteContent(r.Context(), id); err != nil {
		slog.Error("Failed to delete content", "content_id", id.String(), "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	slog.Info("Content deleted", "content_id", id.String())
	w.WriteHeader(http.StatusNoContent)
}

// ScheduleContentRequest is the request body for scheduling content
type ScheduleContentRequest struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// ScheduleContent schedules content for future publication
func (h *ContentHandler) ScheduleContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req ScheduleContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.ScheduleContent(r.Context(), id, req.ScheduledFor)
	if err != nil {
		slog.Error("Failed to schedule content", "content_id", id.String(), "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	slog.Info("Content scheduled", "content_id", id.String(), "scheduled_for", req.ScheduledFor)
	render.JSON(w, r, item)
}

// UnscheduleContent reverts scheduled content back to draft
func (h *ContentHandler) UnscheduleContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	item, err := h.service.UnscheduleContent(r.Context(), id)
	if err != nil {
		slog.Error("Failed to unschedule content", "content_id", id.String(), "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	slog.Info("Content unscheduled", "content_id", id.String())
	render.JSON(w, r, item)
}

// ListContent lists a creator's content
func (h *ContentHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := parseCreatorQuery(w, r)
	if !ok {
		return
	}

	items, err := h.service.ListContentByCreator(r.Context(), creatorID)
	if err != nil {
		slog.Error("Failed to list content", "creator_id", creatorID.String(), "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.JSON(w, r, items)
}

// SearchContent searches a creator's content by title, focus or description
func (h *ContentHandler) SearchContent(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := parseCreatorQuery(w, r)
	if !ok {
		return
	}

	items, err := h.service.SearchContentByCreator(r.Context(), creatorID, r.URL.Query().Get("q"))
	if err != nil {
		slog.Error("Failed to search content", "creator_id", creatorID.String(), "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.JSON(w, r, items)
}

// ListLibrary lists a creator's library entries
func (h *ContentHandler) ListLibrary(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := parseCreatorQuery(w, r)
	if !ok {
		return
	}

	entries, err := h.service.ListLibraryByCreator(r.Context(), creatorID)
	if err != nil {
		slog.Error("Failed to list library", "creator_id", creatorID.String(), "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.JSON(w, r, entries)
}

// MediaResponse is the response body for an uploaded media object
type MediaResponse struct {
	ObjectKey string `json:"object_key"`
	Size      int64  `json:"size,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
}

// UploadMedia stores a media object and returns its key. Multipart form
// fields: creator_id, kind ("video" or "thumbnail"), file.
func (h *ContentHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	creatorID, err := uuid.Parse(r.FormValue("creator_id"))
	if err != nil {
		http.Error(w, "Invalid creator ID", http.StatusBadRequest)
		return
	}

	kind := objectkey.KindVideo
	if r.FormValue("kind") == "thumbnail" {
		kind = objectkey.KindThumbnail
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	key := h.keys.GenerateKey(kind, creatorID, header.Filename)
	mimeType := header.Header.Get("Content-Type")

	if err := h.storage.Upload(r.Context(), file, zalacontent.UploadParams{
		ObjectKey: key,
		MimeType:  mimeType,
	}); err != nil {
		slog.Error("Failed to upload media", "object_key", key, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Media uploaded", "object_key", key, "size", header.Size)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, MediaResponse{
		ObjectKey: key,
		Size:      header.Size,
		MimeType:  mimeType,
	})
}

// GetMediaURL returns a download URL for a stored media object
func (h *ContentHandler) GetMediaURL(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		http.Error(w, "Missing required 'key' parameter", http.StatusBadRequest)
		return
	}

	url, err := h.storage.GetDownloadURL(r.Context(), key, r.URL.Query().Get("filename"))
	if err != nil {
		slog.Error("Failed to get download URL", "object_key", key, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.JSON(w, r, map[string]string{"url": url})
}

// parseIDParam parses a UUID path parameter, writing a 400 on failure
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, name)
	id, err := uuid.Parse(idStr)
	if err != nil {
		slog.Error("Invalid ID", "param", name, "value", idStr, "error", err)
		http.Error(w, "Invalid "+name, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// parseCreatorQuery parses the creator_id query parameter
func parseCreatorQuery(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.URL.Query().Get("creator_id")
	creatorID, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "Invalid creator ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return creatorID, true
}
