package repositories

import (
	"context"
	"time"

	"github.com/reelmates/backend/internal/models"
)

// ShareRepository defines data access for share links.
type ShareRepository interface {
	Create(ctx context.Context, link models.ShareLink) error
	ActiveForList(ctx context.Context, listID string, now time.Time) (models.ShareLink, error)
	FindActiveByToken(ctx context.Context, token string, now time.Time) (models.ShareLink, error)
	ForList(ctx context.Context, listID string) ([]models.ShareLink, error)
	Deactivate(ctx context.Context, shareID, ownerID string) error
	Delete(ctx context.Context, shareID, ownerID string) error
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

var _ ShareRepository = (*PostgresShareRepository)(nil)
