package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/zala-app/content-engine/pkg/zalacontent"
)

// PostHandler handles HTTP requests for published posts, feeds and
// engagement.
type PostHandler struct {
	service  zalacontent.Service
	identity zalacontent.IdentityProvider
}

// NewPostHandler creates a new post handler
func NewPostHandler(service zalacontent.Service, identity zalacontent.IdentityProvider) *PostHandler {
	return &PostHandler{
		service:  service,
		identity: identity,
	}
}

// Routes returns the routes for posts and feeds
func (h *PostHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/feed/public", h.PublicFeed)
	r.Get("/feed/for-you", h.ForYouFeed)
	r.Get("/creator/{creatorID}", h.ListByCreator)

	r.Get("/{id}", h.GetPost)
	r.Post("/{id}/like", h.LikePost)
	r.Post("/{id}/dislike", h.DislikePost)
	r.Post("/{id}/view", h.ViewPost)

	return r
}

// GetPost retrieves a published post by ID
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		slog.Error("Failed to get post", "post_id", id.String(), "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.JSON(w, r, post)
}

// ListByCreator lists a creator's posts, newest first
func (h *PostHandler) ListByCreator(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := parseIDParam(w, r, "creatorID")
	if !ok {
		return
	}

	posts, err := h.service.ListPostsByCreator(r.Context(), creatorID)
	if err != nil {
		slog.Error("Failed to list posts", "creator_id", creatorID.String(), "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.JSON(w, r, posts)
}

// PublicFeed lists all public discovery entries, newest first
func (h *PostHandler) PublicFeed(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListPublicFeed(r.Context())
	if err != nil {
		slog.Error("Failed to list public feed", "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.JSON(w, r, entries)
}

// ForYouFeed merges posts from the given creators with the public discovery
// entries. Creators are passed as repeated creator_id query parameters.
func (h *PostHandler) ForYouFeed(w http.ResponseWriter, r *http.Request) {
	var creatorIDs []uuid.UUID
	for _, raw := range r.URL.Query()["creator_id"] {
		id, err := uuid.Parse(raw)
		if err != nil {
			slog.Warn("Invalid creator ID in feed request", "creator_id", raw)
			continue
		}
		creatorIDs = append(creatorIDs, id)
	}

	items, err := h.service.ListForYouFeed(r.Context(), creatorIDs)
	if err != nil {
		slog.Error("Failed to build for-you feed", "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.JSON(w, r, items)
}

// LikePost records a like for the caller
func (h *PostHandler) LikePost(w http.ResponseWriter, r *http.Request) {
	h.interact(w, r, h.service.LikePost)
}

// DislikePost records a dislike for the caller
func (h *PostHandler) DislikePost(w http.ResponseWriter, r *http.Request) {
	h.interact(w, r, h.service.DislikePost)
}

// ViewPost records a view for the caller
func (h *PostHandler) ViewPost(w http.ResponseWriter, r *http.Request) {
	h.interact(w, r, h.service.ViewPost)
}

func (h *PostHandler) interact(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, userID string, postID uuid.UUID) (*zalacontent.InteractionResult, error)) {

	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	ident, err := h.identity.Identity(r.Context())
	if err != nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	result, err := op(r.Context(), ident.CallerID, id)
	if err != nil {
		slog.Error("Failed to record interaction", "post_id", id.String(), "user_id", ident.CallerID, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.JSON(w, r, result)
}
