package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelmates/backend/internal/apperrors"
	"github.com/reelmates/backend/internal/auth"
	"github.com/reelmates/backend/internal/logging"
	"github.com/reelmates/backend/internal/models"
	"github.com/reelmates/backend/internal/repositories"
)

// ListHandler provides favorite list and item endpoints.
type ListHandler struct {
	Lists   FavoriteStore
	NowFunc func() time.Time
}

type listRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type listResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Items       []itemResponse `json:"items,omitempty"`
}

type addItemRequest struct {
	MediaType string `json:"mediaType"`
	MediaID   string `json:"mediaId"`
}

type itemResponse struct {
	ID        string    `json:"id"`
	MediaType string    `json:"mediaType"`
	MediaID   string    `json:"mediaId"`
	MediaRef  string    `json:"mediaRef"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

// Create handles POST /api/v1/lists.
func (h ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperrors.New(apperrors.Validation, "invalid request body"))
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		respondError(ctx, w, apperrors.New(apperrors.Validation, "title is required"))
		return
	}

	now := h.now()
	list := models.FavoriteList{
		ID:          uuid.NewString(),
		OwnerID:     userID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Lists.CreateList(ctx, list); err != nil {
		logging.FromContext(ctx).Error("create list failed", "error", err, "userId", userID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toListResponse(list, nil))
}

// List handles GET /api/v1/lists.
func (h ListHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	lists, err := h.Lists.ListsForOwner(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list lists failed", "error", err, "userId", userID)
		respondError(ctx, w, err)
		return
	}

	out := make([]listResponse, 0, len(lists))
	for _, list := range lists {
		out = append(out, toListResponse(list, nil))
	}

	respondJSON(ctx, w, http.StatusOK, out)
}

// Get handles GET /api/v1/lists/{listID}.
func (h ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)
	listID := r.PathValue("listID")

	list, err := h.Lists.FindList(ctx, listID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperrors.New(apperrors.NotFound, "list not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	// Lists are private; non-owners cannot tell one exists.
	if list.OwnerID != userID {
		respondError(ctx, w, apperrors.New(apperrors.NotFound, "list not found"))
		return
	}

	items, err := h.Lists.Items(ctx, listID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toListResponse(list, items))
}

// Update handles PATCH /api/v1/lists/{listID}.
func (h ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)
	listID := r.PathValue("listID")

	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperrors.New(apperrors.Validation, "invalid request body"))
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		respondError(ctx, w, apperrors.New(apperrors.Validation, "title is required"))
		return
	}

	list := models.FavoriteList{
		ID:          listID,
		OwnerID:     userID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		UpdatedAt:   h.now(),
	}

	if err := h.Lists.UpdateList(ctx, list); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperrors.New(apperrors.NotFound, "list not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "list updated"})
}

// Delete handles DELETE /api/v1/lists/{listID}.
func (h ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)
	listID := r.PathValue("listID")

	if err := h.Lists.DeleteList(ctx, listID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperrors.New(apperrors.NotFound, "list not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "list deleted"})
}

// AddItem handles POST /api/v1/lists/{listID}/items.
func (h ListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)
	listID := r.PathValue("listID")

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperrors.New(apperrors.Validation, "invalid request body"))
		return
	}

	if req.MediaType != models.MediaTypeMovie && req.MediaType != models.MediaTypeTV {
		respondError(ctx, w, apperrors.New(apperrors.Validation, "mediaType must be movie or tv"))
		return
	}
	req.MediaID = strings.TrimSpace(req.MediaID)
	if req.MediaID == "" {
		respondError(ctx, w, apperrors.New(apperrors.Validation, "mediaId is required"))
		return
	}

	ownerID, err := h.Lists.ListOwner(ctx, listID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperrors.New(apperrors.NotFound, "list not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}
	if ownerID != userID {
		respondError(ctx, w, apperrors.New(apperrors.Forbidden, "only the list owner may add items"))
		return
	}

	item := models.FavoriteItem{
		ID:        uuid.NewString(),
		ListID:    listID,
		MediaType: req.MediaType,
		MediaID:   req.MediaID,
		CreatedAt: h.now(),
	}

	item, err = h.Lists.AddItem(ctx, item)
	if err != nil {
		logging.FromContext(ctx).Error("add item failed", "error", err, "listId", listID)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toItemResponse(item))
}

// RemoveItem handles DELETE /api/v1/lists/{listID}/items/{itemID}.
func (h ListHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)
	listID := r.PathValue("listID")
	itemID := r.PathValue("itemID")

	if err := h.Lists.RemoveItem(ctx, listID, itemID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperrors.New(apperrors.NotFound, "item not found"))
			return
		}
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "item removed"})
}

func toListResponse(list models.FavoriteList, items []models.FavoriteItem) listResponse {
	resp := listResponse{
		ID:          list.ID,
		Title:       list.Title,
		Description: list.Description,
		CreatedAt:   list.CreatedAt,
		UpdatedAt:   list.UpdatedAt,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toItemResponse(item))
	}
	return resp
}

func toItemResponse(item models.FavoriteItem) itemResponse {
	return itemResponse{
		ID:        item.ID,
		MediaType: item.MediaType,
		MediaID:   item.MediaID,
		MediaRef:  item.MediaRef(),
		Position:  item.Position,
		CreatedAt: item.CreatedAt,
	}
}

func (h ListHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
