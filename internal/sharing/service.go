// Package sharing implements the share-link lifecycle: creation, listing,
// revocation, deletion, public resolution, and the expired-link sweep.
package sharing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reelmates/backend/internal/apperrors"
	"github.com/reelmates/backend/internal/logging"
	"github.com/reelmates/backend/internal/models"
	"github.com/reelmates/backend/internal/repositories"
)

// Expiration bounds for explicit share-link lifetimes, in days.
const (
	MinExpirationDays = 1
	MaxExpirationDays = 365
)

// ShareStore captures persistence for share links.
type ShareStore interface {
	Create(ctx context.Context, link models.ShareLink) error
	ActiveForList(ctx context.Context, listID string, now time.Time) (models.ShareLink, error)
	FindActiveByToken(ctx context.Context, token string, now time.Time) (models.ShareLink, error)
	ForList(ctx context.Context, listID string) ([]models.ShareLink, error)
	Deactivate(ctx context.Context, shareID, ownerID string) error
	Delete(ctx context.Context, shareID, ownerID string) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// ListStore captures the list lookups the lifecycle needs.
type ListStore interface {
	ListOwner(ctx context.Context, listID string) (string, error)
	SharedSnapshot(ctx context.Context, listID string) (models.SharedList, error)
}

// Service coordinates share-link state transitions against the stores.
type Service struct {
	shares  ShareStore
	lists   ListStore
	NowFunc func() time.Time
}

// NewService constructs the share-link lifecycle service.
func NewService(shares ShareStore, lists ListStore) *Service {
	return &Service{shares: shares, lists: lists}
}

// Create issues a share link for the list, or returns the existing active
// unexpired one unchanged. The existence check and the insert are separate
// statements, so two concurrent calls can both insert; the stored invariant
// is best-effort (one of the links is later revoked by hand or by sweep).
func (s *Service) Create(ctx context.Context, listID, userID string, expirationDays *int) (models.ShareLink, error) {
	if err := s.requireListOwner(ctx, listID, userID); err != nil {
		return models.ShareLink{}, err
	}

	now := s.now()

	existing, err := s.shares.ActiveForList(ctx, listID, now)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return models.ShareLink{}, fmt.Errorf("check active share: %w", err)
	}

	var expiresAt *time.Time
	if expirationDays != nil {
		days := *expirationDays
		if days < MinExpirationDays || days > MaxExpirationDays {
			return models.ShareLink{}, apperrors.Newf(apperrors.Validation,
				"expirationDays must be between %d and %d", MinExpirationDays, MaxExpirationDays)
		}
		t := now.AddDate(0, 0, days)
		expiresAt = &t
	}

	token, err := NewToken()
	if err != nil {
		return models.ShareLink{}, err
	}

	link := models.ShareLink{
		ID:        uuid.NewString(),
		ListID:    listID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		IsActive:  true,
	}

	if err := s.shares.Create(ctx, link); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.ShareLink{}, apperrors.Wrap(apperrors.Conflict, "share token collision", err)
		}
		return models.ShareLink{}, fmt.Errorf("insert share link: %w", err)
	}

	return link, nil
}

// LinksForList returns every share link for a list the caller owns.
func (s *Service) LinksForList(ctx context.Context, listID, userID string) ([]models.ShareLink, error) {
	if err := s.requireListOwner(ctx, listID, userID); err != nil {
		return nil, err
	}

	links, err := s.shares.ForList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("list share links: %w", err)
	}
	return links, nil
}

// Revoke deactivates a share link. Only the owner of the parent list may
// revoke; anyone else observes not-found. Revoking an already-revoked link
// succeeds.
func (s *Service) Revoke(ctx context.Context, shareID, userID string) error {
	if err := s.shares.Deactivate(ctx, shareID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.New(apperrors.NotFound, "share link not found")
		}
		return fmt.Errorf("revoke share link: %w", err)
	}
	return nil
}

// Delete permanently removes a share link, with the same ownership rule as Revoke.
func (s *Service) Delete(ctx context.Context, shareID, userID string) error {
	if err := s.shares.Delete(ctx, shareID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.New(apperrors.NotFound, "share link not found")
		}
		return fmt.Errorf("delete share link: %w", err)
	}
	return nil
}

// Resolve returns the public projection of the list behind a token. A
// malformed, unknown, revoked, or expired token all yield the same
// not-found result so unauthenticated callers cannot distinguish them.
func (s *Service) Resolve(ctx context.Context, token string) (models.SharedList, error) {
	if !ValidToken(token) {
		return models.SharedList{}, apperrors.New(apperrors.NotFound, "shared list not found")
	}

	link, err := s.shares.FindActiveByToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SharedList{}, apperrors.New(apperrors.NotFound, "shared list not found")
		}
		return models.SharedList{}, fmt.Errorf("find share by token: %w", err)
	}

	shared, err := s.lists.SharedSnapshot(ctx, link.ListID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SharedList{}, apperrors.New(apperrors.NotFound, "shared list not found")
		}
		return models.SharedList{}, fmt.Errorf("load shared list: %w", err)
	}

	shared.SharedAt = link.CreatedAt
	shared.ExpiresAt = link.ExpiresAt
	return shared, nil
}

// CleanupExpired flips expired-but-active rows to inactive in bulk. Reads
// stay correct without it; the sweep only trims stale rows.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	ctx, span := logging.StartSpan(ctx, "sharing.cleanup_expired")
	defer span.End()

	count, err := s.shares.DeactivateExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("deactivate expired shares: %w", err)
	}
	if count > 0 {
		logging.FromContext(ctx).Info("deactivated expired share links", "count", count)
	}
	return count, nil
}

func (s *Service) requireListOwner(ctx context.Context, listID, userID string) error {
	ownerID, err := s.lists.ListOwner(ctx, listID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.New(apperrors.NotFound, "list not found")
		}
		return fmt.Errorf("look up list owner: %w", err)
	}
	if ownerID != userID {
		return apperrors.New(apperrors.Forbidden, "only the list owner may manage share links")
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}
