package handlers

import (
	"context"

	"github.com/reelmates/backend/internal/models"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues, validates, and refreshes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, token string)
}

// FavoriteStore captures persistence for favorite lists and items.
type FavoriteStore interface {
	CreateList(ctx context.Context, list models.FavoriteList) error
	FindList(ctx context.Context, listID string) (models.FavoriteList, error)
	ListsForOwner(ctx context.Context, ownerID string) ([]models.FavoriteList, error)
	UpdateList(ctx context.Context, list models.FavoriteList) error
	DeleteList(ctx context.Context, listID, ownerID string) error
	ListOwner(ctx context.Context, listID string) (string, error)
	AddItem(ctx context.Context, item models.FavoriteItem) (models.FavoriteItem, error)
	RemoveItem(ctx context.Context, listID, itemID, ownerID string) error
	Items(ctx context.Context, listID string) ([]models.FavoriteItem, error)
}

// ShareManager drives the share-link lifecycle for the share endpoints.
type ShareManager interface {
	Create(ctx context.Context, listID, userID string, expirationDays *int) (models.ShareLink, error)
	LinksForList(ctx context.Context, listID, userID string) ([]models.ShareLink, error)
	Revoke(ctx context.Context, shareID, userID string) error
	Delete(ctx context.Context, shareID, userID string) error
	Resolve(ctx context.Context, token string) (models.SharedList, error)
}

// GroupManager drives group membership and the shared watch-list.
type GroupManager interface {
	Create(ctx context.Context, ownerID, name, description string, visible bool) (models.Group, error)
	Get(ctx context.Context, groupID, userID string) (models.Group, error)
	ListVisible(ctx context.Context) ([]models.Group, error)
	Delete(ctx context.Context, groupID, userID string) error
	RequestJoin(ctx context.Context, groupID, userID string) (models.JoinRequest, error)
	PendingRequests(ctx context.Context, groupID, userID string) ([]models.JoinRequest, error)
	Accept(ctx context.Context, groupID, requestID, actorID string) error
	Reject(ctx context.Context, groupID, requestID, actorID string) error
	AddMember(ctx context.Context, groupID, targetID, actorID string) (bool, error)
	RemoveMember(ctx context.Context, groupID, targetID, actorID string) error
	Members(ctx context.Context, groupID, userID string) ([]models.GroupMember, error)
	AddMovie(ctx context.Context, groupID, actorID, mediaType, mediaID string) (models.GroupMovie, bool, error)
	RemoveMovie(ctx context.Context, groupID, actorID, mediaType, mediaID string) error
	Movies(ctx context.Context, groupID, userID string) ([]models.GroupMovie, error)
}
