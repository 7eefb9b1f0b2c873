package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/reelmates/backend/internal/apperrors"
	"github.com/reelmates/backend/internal/auth"
	"github.com/reelmates/backend/internal/models"
)

// GroupHandler provides group, membership, join-request, and watch-list
// endpoints.
type GroupHandler struct {
	Groups GroupManager
}

type groupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsVisible   *bool  `json:"isVisible"`
}

type groupResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsVisible   bool      `json:"isVisible"`
	CreatedAt   time.Time `json:"createdAt"`
}

type joinRequestResponse struct {
	ID          string     `json:"id"`
	GroupID     string     `json:"groupId"`
	UserID      string     `json:"userId"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}

type memberRequest struct {
	UserID string `json:"userId"`
}

type memberResponse struct {
	UserID  string    `json:"userId"`
	Role    string    `json:"role"`
	AddedAt time.Time `json:"addedAt"`
}

type groupMovieRequest struct {
	MediaType string `json:"mediaType"`
	MediaID   string `json:"mediaId"`
}

type groupMovieResponse struct {
	MediaType string    `json:"mediaType"`
	MediaID   string    `json:"mediaId"`
	AddedBy   string    `json:"addedBy"`
	AddedAt   time.Time `json:"addedAt"`
}

// Create handles POST /api/v1/groups. Groups are visible unless the request
// says otherwise.
func (h GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperrors.New(apperrors.Validation, "invalid request body"))
		return
	}

	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}

	group, err := h.Groups.Create(ctx, userID, req.Name, req.Description, visible)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toGroupResponse(group))
}

// List handles GET /api/v1/groups.
func (h GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	groups, err := h.Groups.ListVisible(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	out := make([]groupResponse, 0, len(groups))
	for _, group := range groups {
		out = append(out, toGroupResponse(group))
	}

	respondJSON(ctx, w, http.StatusOK, out)
}

// Get handles GET /api/v1/groups/{groupID}.
func (h GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	group, err := h.Groups.Get(ctx, r.PathValue("groupID"), userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toGroupResponse(group))
}

// Delete handles DELETE /api/v1/groups/{groupID}.
func (h GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	if err := h.Groups.Delete(ctx, r.PathValue("groupID"), userID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "group deleted"})
}

// RequestJoin handles POST /api/v1/groups/{groupID}/join-requests.
func (h GroupHandler) RequestJoin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	request, err := h.Groups.RequestJoin(ctx, r.PathValue("groupID"), userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toJoinRequestResponse(request))
}

// ListJoinRequests handles GET /api/v1/groups/{groupID}/join-requests.
func (h GroupHandler) ListJoinRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	requests, err := h.Groups.PendingRequests(ctx, r.PathValue("groupID"), userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	out := make([]joinRequestResponse, 0, len(requests))
	for _, request := range requests {
		out = append(out, toJoinRequestResponse(request))
	}

	respondJSON(ctx, w, http.StatusOK, out)
}

// Accept handles PATCH /api/v1/groups/{groupID}/join-requests/{requestID}/accept.
func (h GroupHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	if err := h.Groups.Accept(ctx, r.PathValue("groupID"), r.PathValue("requestID"), userID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "join request accepted"})
}

// Reject handles PATCH /api/v1/groups/{groupID}/join-requests/{requestID}/reject.
func (h GroupHandler) Reject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	if err := h.Groups.Reject(ctx, r.PathValue("groupID"), r.PathValue("requestID"), userID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "join request rejected"})
}

// AddMember handles POST /api/v1/groups/{groupID}/members. Adding an existing
// member responds 200 instead of 201.
func (h GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperrors.New(apperrors.Validation, "invalid request body"))
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		respondError(ctx, w, apperrors.New(apperrors.Validation, "userId is required"))
		return
	}

	added, err := h.Groups.AddMember(ctx, r.PathValue("groupID"), req.UserID, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if !added {
		respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "already a member"})
		return
	}
	respondJSON(ctx, w, http.StatusCreated, map[string]string{"message": "member added"})
}

// RemoveMember handles DELETE /api/v1/groups/{groupID}/members/{userID}.
func (h GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	if err := h.Groups.RemoveMember(ctx, r.PathValue("groupID"), r.PathValue("userID"), userID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "member removed"})
}

// Members handles GET /api/v1/groups/{groupID}/members.
func (h GroupHandler) Members(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	members, err := h.Groups.Members(ctx, r.PathValue("groupID"), userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	out := make([]memberResponse, 0, len(members))
	for _, member := range members {
		out = append(out, memberResponse{
			UserID:  member.UserID,
			Role:    member.Role,
			AddedAt: member.AddedAt,
		})
	}

	respondJSON(ctx, w, http.StatusOK, out)
}

// AddMovie handles POST /api/v1/groups/{groupID}/movies. Adding a movie that
// is already on the watch-list responds 200 instead of 201.
func (h GroupHandler) AddMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	var req groupMovieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperrors.New(apperrors.Validation, "invalid request body"))
		return
	}

	movie, added, err := h.Groups.AddMovie(ctx, r.PathValue("groupID"), userID, req.MediaType, req.MediaID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	status := http.StatusCreated
	if !added {
		status = http.StatusOK
	}
	respondJSON(ctx, w, status, toGroupMovieResponse(movie))
}

// RemoveMovie handles DELETE /api/v1/groups/{groupID}/movies. The entry is
// identified by mediaType and mediaId query parameters.
func (h GroupHandler) RemoveMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	mediaType := r.URL.Query().Get("mediaType")
	mediaID := strings.TrimSpace(r.URL.Query().Get("mediaId"))
	if mediaType != models.MediaTypeMovie && mediaType != models.MediaTypeTV {
		respondError(ctx, w, apperrors.New(apperrors.Validation, "mediaType must be movie or tv"))
		return
	}
	if mediaID == "" {
		respondError(ctx, w, apperrors.New(apperrors.Validation, "mediaId is required"))
		return
	}

	if err := h.Groups.RemoveMovie(ctx, r.PathValue("groupID"), userID, mediaType, mediaID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "movie removed"})
}

// Movies handles GET /api/v1/groups/{groupID}/movies.
func (h GroupHandler) Movies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserIDFromContext(ctx)

	movies, err := h.Groups.Movies(ctx, r.PathValue("groupID"), userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	out := make([]groupMovieResponse, 0, len(movies))
	for _, movie := range movies {
		out = append(out, toGroupMovieResponse(movie))
	}

	respondJSON(ctx, w, http.StatusOK, out)
}

func toGroupResponse(group models.Group) groupResponse {
	return groupResponse{
		ID:          group.ID,
		OwnerID:     group.OwnerID,
		Name:        group.Name,
		Description: group.Description,
		IsVisible:   group.IsVisible,
		CreatedAt:   group.CreatedAt,
	}
}

func toJoinRequestResponse(request models.JoinRequest) joinRequestResponse {
	return joinRequestResponse{
		ID:          request.ID,
		GroupID:     request.GroupID,
		UserID:      request.UserID,
		Status:      request.Status,
		CreatedAt:   request.CreatedAt,
		RespondedAt: request.RespondedAt,
	}
}

func toGroupMovieResponse(movie models.GroupMovie) groupMovieResponse {
	return groupMovieResponse{
		MediaType: movie.MediaType,
		MediaID:   movie.MediaID,
		AddedBy:   movie.AddedBy,
		AddedAt:   movie.AddedAt,
	}
}
