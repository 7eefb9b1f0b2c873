package repositories

import (
	"context"

	"github.com/reelmates/backend/internal/models"
)

// FavoriteRepository defines data access for favorite lists and their items.
type FavoriteRepository interface {
	CreateList(ctx context.Context, list models.FavoriteList) error
	FindList(ctx context.Context, listID string) (models.FavoriteList, error)
	ListsForOwner(ctx context.Context, ownerID string) ([]models.FavoriteList, error)
	UpdateList(ctx context.Context, list models.FavoriteList) error
	DeleteList(ctx context.Context, listID, ownerID string) error
	ListOwner(ctx context.Context, listID string) (string, error)
	AddItem(ctx context.Context, item models.FavoriteItem) (models.FavoriteItem, error)
	RemoveItem(ctx context.Context, listID, itemID, ownerID string) error
	Items(ctx context.Context, listID string) ([]models.FavoriteItem, error)
	SharedSnapshot(ctx context.Context, listID string) (models.SharedList, error)
	Export(ctx context.Context) ([]models.ListBackup, error)
}
