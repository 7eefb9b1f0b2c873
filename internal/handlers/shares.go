package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/reelmates/backend/internal/apperrors"
	"github.com/reelmates/backend/internal/auth"
	"github.com/reelmates/backend/internal/logging"
	"github.com/reelmates/backend/internal/models"
)

// ShareHandler provides share-link endpoints, including the public lookup.
type ShareHandler struct {
	Shares  ShareManager
	Limiter RateLimiter
	BaseURL string
	NowFunc func() time.Time
}

type createShareRequest struct {
	ExpirationDays *int `json:"expirationDays"`
}

type createShareResponse struct {
	ShareURL   string     `json:"shareUrl"`
	ShareToken string     `json:"shareToken"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt"`
}

type shareLinkResponse struct {
	ID         string     `json:"id"`
	ShareURL   string     `json:"shareUrl"`
	ShareToken string     `json:"shareToken"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	IsActive   bool       `json:"isActive"`
	IsExpired  bool       `json:"isExpired"`
}

type sharedListResponse struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	OwnerUsername string         `json:"ownerUsername"`
	Items         []itemResponse `json:"items"`
	SharedAt      time.Time      `json:"sharedAt"`
	ExpiresAt     *time.Time     `json:"expiresAt"`
}

// Create handles POST /api/v1/lists/{listID}/shares. An empty body means the
// link never expires.
func (h ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)
	listID := r.PathValue("listID")

	var req createShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(ctx, w, apperrors.New(apperrors.Validation, "invalid request body"))
		return
	}

	link, err := h.Shares.Create(ctx, listID, userID, req.ExpirationDays)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, createShareResponse{
		ShareURL:   h.shareURL(link.Token),
		ShareToken: link.Token,
		CreatedAt:  link.CreatedAt,
		ExpiresAt:  link.ExpiresAt,
	})
}

// List handles GET /api/v1/lists/{listID}/shares.
func (h ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)
	listID := r.PathValue("listID")

	links, err := h.Shares.LinksForList(ctx, listID, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	now := h.now()
	out := make([]shareLinkResponse, 0, len(links))
	for _, link := range links {
		out = append(out, shareLinkResponse{
			ID:         link.ID,
			ShareURL:   h.shareURL(link.Token),
			ShareToken: link.Token,
			CreatedAt:  link.CreatedAt,
			ExpiresAt:  link.ExpiresAt,
			IsActive:   link.IsActive,
			IsExpired:  link.Expired(now),
		})
	}

	respondJSON(ctx, w, http.StatusOK, out)
}

// Revoke handles PATCH /api/v1/shares/{shareID}/revoke.
func (h ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)
	shareID := r.PathValue("shareID")

	if err := h.Shares.Revoke(ctx, shareID, userID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "share link revoked"})
}

// Delete handles DELETE /api/v1/shares/{shareID}.
func (h ShareHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)
	shareID := r.PathValue("shareID")

	if err := h.Shares.Delete(ctx, shareID, userID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "share link deleted"})
}

// Shared handles GET /api/v1/shared/{token}. Public and rate limited; every
// failure mode looks identical to the caller.
func (h ShareHandler) Shared(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "shared") {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	shared, err := h.Shares.Resolve(ctx, r.PathValue("token"))
	if err != nil {
		if apperrors.KindOf(err) != apperrors.NotFound {
			logging.FromContext(ctx).Error("resolve shared list failed", "error", err)
		}
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toSharedListResponse(shared))
}

func toSharedListResponse(shared models.SharedList) sharedListResponse {
	resp := sharedListResponse{
		Title:         shared.Title,
		Description:   shared.Description,
		OwnerUsername: shared.OwnerUsername,
		Items:         make([]itemResponse, 0, len(shared.Items)),
		SharedAt:      shared.SharedAt,
		ExpiresAt:     shared.ExpiresAt,
	}
	for _, item := range shared.Items {
		resp.Items = append(resp.Items, toItemResponse(item))
	}
	return resp
}

func (h ShareHandler) shareURL(token string) string {
	if h.BaseURL == "" {
		return token
	}
	return h.BaseURL + "/" + token
}

func (h ShareHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
