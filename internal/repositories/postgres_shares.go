package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/reelmates/backend/internal/db"
	"github.com/reelmates/backend/internal/models"
)

// PostgresShareRepository provides PostgreSQL-backed persistence for share links.
type PostgresShareRepository struct {
	pool db.Pool
}

// NewPostgresShareRepository constructs a share repository backed by PostgreSQL.
func NewPostgresShareRepository(pool db.Pool) *PostgresShareRepository {
	return &PostgresShareRepository{pool: pool}
}

// Create persists a new share link.
func (r *PostgresShareRepository) Create(ctx context.Context, link models.ShareLink) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO share_links (id, list_id, token, created_at, expires_at, is_active)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, link.ID, link.ListID, link.Token, link.CreatedAt, nullableTime(link.ExpiresAt), link.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert share link: %w", err)
	}

	return nil
}

// ActiveForList returns the newest active, unexpired share link for a list.
func (r *PostgresShareRepository) ActiveForList(ctx context.Context, listID string, now time.Time) (models.ShareLink, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ShareLink{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, list_id, token, created_at, expires_at, is_active
        FROM share_links
        WHERE list_id = $1
          AND is_active
          AND (expires_at IS NULL OR expires_at > $2)
        ORDER BY created_at DESC
        LIMIT 1
    `, listID, now)

	return scanShareLink(row)
}

// FindActiveByToken resolves a token to its share link when active and unexpired.
func (r *PostgresShareRepository) FindActiveByToken(ctx context.Context, token string, now time.Time) (models.ShareLink, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ShareLink{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, list_id, token, created_at, expires_at, is_active
        FROM share_links
        WHERE token = $1
          AND is_active
          AND (expires_at IS NULL OR expires_at > $2)
    `, token, now)

	return scanShareLink(row)
}

// ForList returns every share link for a list, newest first.
func (r *PostgresShareRepository) ForList(ctx context.Context, listID string) ([]models.ShareLink, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, list_id, token, created_at, expires_at, is_active
        FROM share_links
        WHERE list_id = $1
        ORDER BY created_at DESC
    `, listID)
	if err != nil {
		return nil, fmt.Errorf("query share links: %w", err)
	}
	defer rows.Close()

	var links []models.ShareLink
	for rows.Next() {
		link, err := scanShareLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate share links: %w", err)
	}

	return links, nil
}

// Deactivate flips a link inactive when the caller owns the parent list.
// Zero rows means no such link is visible to this owner.
func (r *PostgresShareRepository) Deactivate(ctx context.Context, shareID, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE share_links sl
        SET is_active = FALSE
        FROM favorite_lists fl
        WHERE sl.id = $1
          AND fl.id = sl.list_id
          AND fl.owner_id = $2
    `, shareID, ownerID)
	if err != nil {
		return fmt.Errorf("deactivate share link: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete permanently removes a link when the caller owns the parent list.
func (r *PostgresShareRepository) Delete(ctx context.Context, shareID, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM share_links sl
        USING favorite_lists fl
        WHERE sl.id = $1
          AND fl.id = sl.list_id
          AND fl.owner_id = $2
    `, shareID, ownerID)
	if err != nil {
		return fmt.Errorf("delete share link: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeactivateExpired bulk-flips active rows whose expiration has passed.
func (r *PostgresShareRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE share_links
        SET is_active = FALSE
        WHERE is_active
          AND expires_at IS NOT NULL
          AND expires_at < $1
    `, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired share links: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanShareLink(row pgx.Row) (models.ShareLink, error) {
	var (
		link      models.ShareLink
		expiresAt sql.NullTime
	)
	if err := row.Scan(&link.ID, &link.ListID, &link.Token, &link.CreatedAt, &expiresAt, &link.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ShareLink{}, ErrNotFound
		}
		return models.ShareLink{}, fmt.Errorf("scan share link: %w", err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		link.ExpiresAt = &t
	}
	return link, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Valid: true, Time: t.UTC()}
}
