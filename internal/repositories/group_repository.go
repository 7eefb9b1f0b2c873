package repositories

import (
	"context"

	"github.com/reelmates/backend/internal/models"
)

// GroupRepository defines data access for group rows.
type GroupRepository interface {
	Create(ctx context.Context, group models.Group) error
	Find(ctx context.Context, groupID string) (models.Group, error)
	ListVisible(ctx context.Context) ([]models.Group, error)
	Delete(ctx context.Context, groupID, ownerID string) error
}

// MemberRepository defines data access for group membership rows.
type MemberRepository interface {
	Add(ctx context.Context, member models.GroupMember) error
	Remove(ctx context.Context, groupID, userID string) error
	Find(ctx context.Context, groupID, userID string) (models.GroupMember, error)
	List(ctx context.Context, groupID string) ([]models.GroupMember, error)
}

// JoinRequestRepository defines data access for join requests.
type JoinRequestRepository interface {
	Create(ctx context.Context, request models.JoinRequest) error
	Find(ctx context.Context, requestID string) (models.JoinRequest, error)
	HasPending(ctx context.Context, groupID, userID string) (bool, error)
	UpdateStatus(ctx context.Context, requestID, status string) error
	ListPending(ctx context.Context, groupID string) ([]models.JoinRequest, error)
}

// MovieRepository defines data access for the shared watch-list.
type MovieRepository interface {
	Add(ctx context.Context, movie models.GroupMovie) (bool, error)
	Remove(ctx context.Context, groupID, mediaType, mediaID string) error
	List(ctx context.Context, groupID string) ([]models.GroupMovie, error)
}
