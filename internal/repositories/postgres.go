package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/reelmates/backend/internal/db"
	"github.com/reelmates/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, user.ID, user.Email, user.Username, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by email, matched case-insensitively.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, username, password_hash, created_at, updated_at
        FROM users
        WHERE lower(email) = lower($1)
    `, email)

	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &user.Password, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}

	return user, nil
}

// FindByID fetches a user by primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, email, username, password_hash, created_at, updated_at
        FROM users
        WHERE id = $1
    `, id)

	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &user.Password, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}

	return user, nil
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, username = $3, password_hash = $4, updated_at = $5
        WHERE id = $1
    `, user.ID, user.Email, user.Username, user.Password, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresFavoriteRepository provides PostgreSQL-backed persistence for
// favorite lists and their items.
type PostgresFavoriteRepository struct {
	pool db.Pool
}

// NewPostgresFavoriteRepository constructs a favorite repository backed by PostgreSQL.
func NewPostgresFavoriteRepository(pool db.Pool) *PostgresFavoriteRepository {
	return &PostgresFavoriteRepository{pool: pool}
}

// CreateList persists a new favorite list.
func (r *PostgresFavoriteRepository) CreateList(ctx context.Context, list models.FavoriteList) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO favorite_lists (id, owner_id, title, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, list.ID, list.OwnerID, list.Title, list.Description, list.CreatedAt, list.UpdatedAt)
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
		return fmt.Errorf("insert favorite list: %w", err)
	}

	return nil
}

// FindList fetches a favorite list by primary key.
func (r *PostgresFavoriteRepository) FindList(ctx context.Context, listID string) (models.FavoriteList, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.FavoriteList{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, title, description, created_at, updated_at
        FROM favorite_lists
        WHERE id = $1
    `, listID)

	var list models.FavoriteList
	if err := row.Scan(&list.ID, &list.OwnerID, &list.Title, &list.Description, &list.CreatedAt, &list.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.FavoriteList{}, ErrNotFound
		}
		return models.FavoriteList{}, fmt.Errorf("select favorite list: %w", err)
	}

	return list, nil
}

// ListsForOwner returns all lists owned by a user, most recently updated first.
func (r *PostgresFavoriteRepository) ListsForOwner(ctx context.Context, ownerID string) ([]models.FavoriteList, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, title, description, created_at, updated_at
        FROM favorite_lists
        WHERE owner_id = $1
        ORDER BY updated_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query favorite lists: %w", err)
	}
	defer rows.Close()

	var lists []models.FavoriteList
	for rows.Next() {
		var list models.FavoriteList
		if err := rows.Scan(&list.ID, &list.OwnerID, &list.Title, &list.Description, &list.CreatedAt, &list.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite list: %w", err)
		}
		lists = append(lists, list)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorite lists: %w", err)
	}

	return lists, nil
}

// UpdateList modifies a list's title and description, scoped to the owner so
// the ownership check and the write are one statement.
func (r *PostgresFavoriteRepository) UpdateList(ctx context.Context, list models.FavoriteList) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE favorite_lists
        SET title = $3, description = $4, updated_at = $5
        WHERE id = $1 AND owner_id = $2
    `, list.ID, list.OwnerID, list.Title, list.Description, list.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update favorite list: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteList removes a list and, via cascade, its items and share links.
func (r *PostgresFavoriteRepository) DeleteList(ctx context.Context, listID, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM favorite_lists
        WHERE id = $1 AND owner_id = $2
    `, listID, ownerID)
	if err != nil {
		return fmt.Errorf("delete favorite list: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListOwner returns the owner id of a list.
func (r *PostgresFavoriteRepository) ListOwner(ctx context.Context, listID string) (string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var ownerID string
	err = conn.QueryRow(ctx, `
        SELECT owner_id FROM favorite_lists WHERE id = $1
    `, listID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("select list owner: %w", err)
	}

	return ownerID, nil
}

// AddItem appends an item to a list, assigning the next display position.
// Duplicates of the same media within a list are allowed.
func (r *PostgresFavoriteRepository) AddItem(ctx context.Context, item models.FavoriteItem) (models.FavoriteItem, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.FavoriteItem{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, `
        INSERT INTO favorite_items (id, list_id, media_type, media_id, position, created_at)
        SELECT $1, $2, $3, $4, COALESCE(MAX(position), -1) + 1, $5
        FROM favorite_items
        WHERE list_id = $2
        RETURNING position
    `, item.ID, item.ListID, item.MediaType, item.MediaID, item.CreatedAt).Scan(&item.Position)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.FavoriteItem{}, ErrNotFound
		}
		return models.FavoriteItem{}, fmt.Errorf("insert favorite item: %w", err)
	}

	return item, nil
}

// RemoveItem deletes an item, scoped to the list owner.
func (r *PostgresFavoriteRepository) RemoveItem(ctx context.Context, listID, itemID, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM favorite_items fi
        USING favorite_lists fl
        WHERE fi.id = $1
          AND fi.list_id = $2
          AND fl.id = fi.list_id
          AND fl.owner_id = $3
    `, itemID, listID, ownerID)
	if err != nil {
		return fmt.Errorf("delete favorite item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Items returns a list's items in display order.
func (r *PostgresFavoriteRepository) Items(ctx context.Context, listID string) ([]models.FavoriteItem, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, list_id, media_type, media_id, position, created_at
        FROM favorite_items
        WHERE list_id = $1
        ORDER BY position ASC, created_at ASC
    `, listID)
	if err != nil {
		return nil, fmt.Errorf("query favorite items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// SharedSnapshot loads the public projection of a list: metadata, the owner's
// display name, and the ordered items.
func (r *PostgresFavoriteRepository) SharedSnapshot(ctx context.Context, listID string) (models.SharedList, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.SharedList{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var shared models.SharedList
	err = conn.QueryRow(ctx, `
        SELECT fl.title, fl.description, u.username
        FROM favorite_lists fl
        JOIN users u ON u.id = fl.owner_id
        WHERE fl.id = $1
    `, listID).Scan(&shared.Title, &shared.Description, &shared.OwnerUsername)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SharedList{}, ErrNotFound
		}
		return models.SharedList{}, fmt.Errorf("select shared list: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT id, list_id, media_type, media_id, position, created_at
        FROM favorite_items
        WHERE list_id = $1
        ORDER BY position ASC, created_at ASC
    `, listID)
	if err != nil {
		return models.SharedList{}, fmt.Errorf("query shared list items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return models.SharedList{}, err
	}

	shared.Items = items
	return shared, nil
}

// Export returns every list with its items in display order, for snapshot backups.
func (r *PostgresFavoriteRepository) Export(ctx context.Context) ([]models.ListBackup, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, title, description, created_at, updated_at
        FROM favorite_lists
        ORDER BY created_at ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("query lists for export: %w", err)
	}
	defer rows.Close()

	var backups []models.ListBackup
	index := make(map[string]int)
	for rows.Next() {
		var list models.FavoriteList
		if err := rows.Scan(&list.ID, &list.OwnerID, &list.Title, &list.Description, &list.CreatedAt, &list.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan list for export: %w", err)
		}
		index[list.ID] = len(backups)
		backups = append(backups, models.ListBackup{List: list})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lists for export: %w", err)
	}
	rows.Close()

	itemRows, err := conn.Query(ctx, `
        SELECT id, list_id, media_type, media_id, position, created_at
        FROM favorite_items
        ORDER BY list_id, position ASC, created_at ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("query items for export: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.FavoriteItem
		if err := itemRows.Scan(&item.ID, &item.ListID, &item.MediaType, &item.MediaID, &item.Position, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item for export: %w", err)
		}
		if i, ok := index[item.ListID]; ok {
			backups[i].Items = append(backups[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items for export: %w", err)
	}

	return backups, nil
}

func scanItems(rows pgx.Rows) ([]models.FavoriteItem, error) {
	var items []models.FavoriteItem
	for rows.Next() {
		var item models.FavoriteItem
		if err := rows.Scan(&item.ID, &item.ListID, &item.MediaType, &item.MediaID, &item.Position, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorite items: %w", err)
	}
	return items, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ FavoriteRepository = (*PostgresFavoriteRepository)(nil)
