// Package groups implements group membership: join requests, role checks,
// direct member management, and the shared watch-list.
package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelmates/backend/internal/apperrors"
	"github.com/reelmates/backend/internal/models"
	"github.com/reelmates/backend/internal/repositories"
)

// Signals the membership state machine reports to callers. The codes let
// clients render "already a member" distinctly from a generic conflict.
var (
	ErrAlreadyMember = apperrors.Coded(apperrors.Conflict, "ALREADY_MEMBER", "user is already a member of this group")
	ErrPendingExists = apperrors.Coded(apperrors.Conflict, "PENDING_EXISTS", "a pending join request already exists")
)

// GroupStore captures persistence for groups.
type GroupStore interface {
	Create(ctx context.Context, group models.Group) error
	Find(ctx context.Context, groupID string) (models.Group, error)
	ListVisible(ctx context.Context) ([]models.Group, error)
	Delete(ctx context.Context, groupID, ownerID string) error
}

// MemberStore captures persistence for group membership rows.
type MemberStore interface {
	Add(ctx context.Context, member models.GroupMember) error
	Remove(ctx context.Context, groupID, userID string) error
	Find(ctx context.Context, groupID, userID string) (models.GroupMember, error)
	List(ctx context.Context, groupID string) ([]models.GroupMember, error)
}

// JoinRequestStore captures persistence for join requests.
type JoinRequestStore interface {
	Create(ctx context.Context, request models.JoinRequest) error
	Find(ctx context.Context, requestID string) (models.JoinRequest, error)
	HasPending(ctx context.Context, groupID, userID string) (bool, error)
	UpdateStatus(ctx context.Context, requestID, status string) error
	ListPending(ctx context.Context, groupID string) ([]models.JoinRequest, error)
}

// MovieStore captures persistence for the shared watch-list.
type MovieStore interface {
	Add(ctx context.Context, movie models.GroupMovie) (bool, error)
	Remove(ctx context.Context, groupID, mediaType, mediaID string) error
	List(ctx context.Context, groupID string) ([]models.GroupMovie, error)
}

// Service coordinates group state transitions. Every role check reads the
// stored rows at call time; nothing is cached per request.
type Service struct {
	groups  GroupStore
	members MemberStore
	joins   JoinRequestStore
	movies  MovieStore
	NowFunc func() time.Time
}

// NewService constructs the group membership service.
func NewService(groups GroupStore, members MemberStore, joins JoinRequestStore, movies MovieStore) *Service {
	return &Service{groups: groups, members: members, joins: joins, movies: movies}
}

// Create stores a new group with the caller as owner. The owner is tracked
// only on the group row and never receives a member row; all role checks
// special-case the owner.
func (s *Service) Create(ctx context.Context, ownerID, name, description string, visible bool) (models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Group{}, apperrors.New(apperrors.Validation, "group name is required")
	}

	group := models.Group{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(description),
		IsVisible:   visible,
		CreatedAt:   s.now(),
	}

	if err := s.groups.Create(ctx, group); err != nil {
		return models.Group{}, fmt.Errorf("insert group: %w", err)
	}
	return group, nil
}

// Get returns a group. Hidden groups behave as absent for non-members.
func (s *Service) Get(ctx context.Context, groupID, userID string) (models.Group, error) {
	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}

	if !group.IsVisible {
		ok, err := s.isMemberOrOwner(ctx, group, userID)
		if err != nil {
			return models.Group{}, err
		}
		if !ok {
			return models.Group{}, apperrors.New(apperrors.NotFound, "group not found")
		}
	}

	return group, nil
}

// ListVisible returns all publicly visible groups.
func (s *Service) ListVisible(ctx context.Context) ([]models.Group, error) {
	groups, err := s.groups.ListVisible(ctx)
	if err != nil {
		return nil, fmt.Errorf("list visible groups: %w", err)
	}
	return groups, nil
}

// Delete removes a group. Owner only.
func (s *Service) Delete(ctx context.Context, groupID, userID string) error {
	if err := s.RequireOwner(ctx, groupID, userID); err != nil {
		return err
	}
	if err := s.groups.Delete(ctx, groupID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.New(apperrors.NotFound, "group not found")
		}
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

// RequestJoin submits a pending join request for the caller. Owners and
// existing members get ErrAlreadyMember; a second pending request gets
// ErrPendingExists (also enforced by a partial unique index, so concurrent
// submissions cannot produce two pending rows).
func (s *Service) RequestJoin(ctx context.Context, groupID, userID string) (models.JoinRequest, error) {
	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return models.JoinRequest{}, err
	}

	member, err := s.isMemberOrOwner(ctx, group, userID)
	if err != nil {
		return models.JoinRequest{}, err
	}
	if member {
		return models.JoinRequest{}, ErrAlreadyMember
	}

	pending, err := s.joins.HasPending(ctx, groupID, userID)
	if err != nil {
		return models.JoinRequest{}, fmt.Errorf("check pending join request: %w", err)
	}
	if pending {
		return models.JoinRequest{}, ErrPendingExists
	}

	request := models.JoinRequest{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		UserID:    userID,
		Status:    models.JoinStatusPending,
		CreatedAt: s.now(),
	}

	if err := s.joins.Create(ctx, request); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.JoinRequest{}, ErrPendingExists
		}
		return models.JoinRequest{}, fmt.Errorf("insert join request: %w", err)
	}

	return request, nil
}

// PendingRequests lists a group's pending join requests. Admin or owner only.
func (s *Service) PendingRequests(ctx context.Context, groupID, userID string) ([]models.JoinRequest, error) {
	if err := s.RequireAdminOrOwner(ctx, groupID, userID); err != nil {
		return nil, err
	}
	requests, err := s.joins.ListPending(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list pending join requests: %w", err)
	}
	return requests, nil
}

// Accept transitions a pending request to accepted and adds the requester as
// a member. Admin or owner only.
func (s *Service) Accept(ctx context.Context, groupID, requestID, actorID string) error {
	request, err := s.resolvePending(ctx, groupID, requestID, actorID)
	if err != nil {
		return err
	}

	if err := s.joins.UpdateStatus(ctx, requestID, models.JoinStatusAccepted); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.New(apperrors.NotFound, "join request not found")
		}
		return fmt.Errorf("accept join request: %w", err)
	}

	member := models.GroupMember{
		GroupID: groupID,
		UserID:  request.UserID,
		Role:    models.RoleMember,
		AddedAt: s.now(),
	}
	if err := s.members.Add(ctx, member); err != nil && !errors.Is(err, repositories.ErrConflict) {
		return fmt.Errorf("insert accepted member: %w", err)
	}

	return nil
}

// Reject transitions a pending request to rejected. No member row is created.
func (s *Service) Reject(ctx context.Context, groupID, requestID, actorID string) error {
	if _, err := s.resolvePending(ctx, groupID, requestID, actorID); err != nil {
		return err
	}

	if err := s.joins.UpdateStatus(ctx, requestID, models.JoinStatusRejected); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.New(apperrors.NotFound, "join request not found")
		}
		return fmt.Errorf("reject join request: %w", err)
	}
	return nil
}

// AddMember inserts a membership row directly, bypassing the request flow.
// Owner only. The returned bool is false when the user was already a member
// (including the owner), which is a no-op rather than an error.
func (s *Service) AddMember(ctx context.Context, groupID, targetID, actorID string) (bool, error) {
	if err := s.RequireOwner(ctx, groupID, actorID); err != nil {
		return false, err
	}

	if targetID == actorID {
		return false, nil
	}

	member := models.GroupMember{
		GroupID: groupID,
		UserID:  targetID,
		Role:    models.RoleMember,
		AddedAt: s.now(),
	}
	if err := s.members.Add(ctx, member); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return false, nil
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return false, apperrors.New(apperrors.NotFound, "user not found")
		}
		return false, fmt.Errorf("insert member: %w", err)
	}

	return true, nil
}

// RemoveMember deletes a membership row. Owner only.
func (s *Service) RemoveMember(ctx context.Context, groupID, targetID, actorID string) error {
	if err := s.RequireOwner(ctx, groupID, actorID); err != nil {
		return err
	}

	if err := s.members.Remove(ctx, groupID, targetID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.New(apperrors.NotFound, "member not found")
		}
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// Members lists a group's membership rows. Member or owner only. The owner
// does not appear in the result since owners carry no member row.
func (s *Service) Members(ctx context.Context, groupID, userID string) ([]models.GroupMember, error) {
	if err := s.RequireMemberOrOwner(ctx, groupID, userID); err != nil {
		return nil, err
	}
	members, err := s.members.List(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// AddMovie puts a watch-list entry on the group. Member or owner only.
// Adding a movie that is already present is a harmless no-op; the returned
// bool is false in that case.
func (s *Service) AddMovie(ctx context.Context, groupID, actorID, mediaType, mediaID string) (models.GroupMovie, bool, error) {
	if mediaType != models.MediaTypeMovie && mediaType != models.MediaTypeTV {
		return models.GroupMovie{}, false, apperrors.New(apperrors.Validation, "mediaType must be movie or tv")
	}
	if strings.TrimSpace(mediaID) == "" {
		return models.GroupMovie{}, false, apperrors.New(apperrors.Validation, "mediaId is required")
	}

	if err := s.RequireMemberOrOwner(ctx, groupID, actorID); err != nil {
		return models.GroupMovie{}, false, err
	}

	movie := models.GroupMovie{
		GroupID:   groupID,
		MediaType: mediaType,
		MediaID:   strings.TrimSpace(mediaID),
		AddedBy:   actorID,
		AddedAt:   s.now(),
	}

	added, err := s.movies.Add(ctx, movie)
	if err != nil {
		return models.GroupMovie{}, false, fmt.Errorf("insert group movie: %w", err)
	}
	return movie, added, nil
}

// RemoveMovie deletes a watch-list entry. Removing an absent entry is a no-op.
func (s *Service) RemoveMovie(ctx context.Context, groupID, actorID, mediaType, mediaID string) error {
	if err := s.RequireMemberOrOwner(ctx, groupID, actorID); err != nil {
		return err
	}
	if err := s.movies.Remove(ctx, groupID, mediaType, mediaID); err != nil {
		return fmt.Errorf("remove group movie: %w", err)
	}
	return nil
}

// Movies lists the group watch-list. Member or owner only.
func (s *Service) Movies(ctx context.Context, groupID, userID string) ([]models.GroupMovie, error) {
	if err := s.RequireMemberOrOwner(ctx, groupID, userID); err != nil {
		return nil, err
	}
	movies, err := s.movies.List(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group movies: %w", err)
	}
	return movies, nil
}

// RequireOwner fails with Forbidden unless the user owns the group.
func (s *Service) RequireOwner(ctx context.Context, groupID, userID string) error {
	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID != userID {
		return apperrors.New(apperrors.Forbidden, "only the group owner may do this")
	}
	return nil
}

// RequireMemberOrOwner fails with Forbidden unless the user owns the group
// or has a membership row.
func (s *Service) RequireMemberOrOwner(ctx context.Context, groupID, userID string) error {
	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return err
	}
	ok, err := s.isMemberOrOwner(ctx, group, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.Forbidden, "group members only")
	}
	return nil
}

// RequireAdminOrOwner fails with Forbidden unless the user owns the group or
// holds the admin role.
func (s *Service) RequireAdminOrOwner(ctx context.Context, groupID, userID string) error {
	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID == userID {
		return nil
	}

	member, err := s.members.Find(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.New(apperrors.Forbidden, "group admins only")
		}
		return fmt.Errorf("look up member: %w", err)
	}
	if member.Role != models.RoleAdmin {
		return apperrors.New(apperrors.Forbidden, "group admins only")
	}
	return nil
}

func (s *Service) resolvePending(ctx context.Context, groupID, requestID, actorID string) (models.JoinRequest, error) {
	if err := s.RequireAdminOrOwner(ctx, groupID, actorID); err != nil {
		return models.JoinRequest{}, err
	}

	request, err := s.joins.Find(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.JoinRequest{}, apperrors.New(apperrors.NotFound, "join request not found")
		}
		return models.JoinRequest{}, fmt.Errorf("find join request: %w", err)
	}

	if request.GroupID != groupID {
		return models.JoinRequest{}, apperrors.New(apperrors.NotFound, "join request not found")
	}
	if request.Status != models.JoinStatusPending {
		return models.JoinRequest{}, apperrors.New(apperrors.Conflict, "join request already resolved")
	}

	return request, nil
}

func (s *Service) findGroup(ctx context.Context, groupID string) (models.Group, error) {
	group, err := s.groups.Find(ctx, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Group{}, apperrors.New(apperrors.NotFound, "group not found")
		}
		return models.Group{}, fmt.Errorf("find group: %w", err)
	}
	return group, nil
}

func (s *Service) isMemberOrOwner(ctx context.Context, group models.Group, userID string) (bool, error) {
	if userID != "" && group.OwnerID == userID {
		return true, nil
	}
	_, err := s.members.Find(ctx, group.ID, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("look up member: %w", err)
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
