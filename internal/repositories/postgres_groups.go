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

// PostgresGroupRepository provides PostgreSQL-backed persistence for groups.
type PostgresGroupRepository struct {
	pool db.Pool
}

// NewPostgresGroupRepository constructs a group repository backed by PostgreSQL.
func NewPostgresGroupRepository(pool db.Pool) *PostgresGroupRepository {
	return &PostgresGroupRepository{pool: pool}
}

// Create persists a new group.
func (r *PostgresGroupRepository) Create(ctx context.Context, group models.Group) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO groups (id, owner_id, name, description, is_visible, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, group.ID, group.OwnerID, group.Name, group.Description, group.IsVisible, group.CreatedAt)
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
		return fmt.Errorf("insert group: %w", err)
	}

	return nil
}

// Find fetches a group by primary key.
func (r *PostgresGroupRepository) Find(ctx context.Context, groupID string) (models.Group, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Group{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, name, description, is_visible, created_at
        FROM groups
        WHERE id = $1
    `, groupID)

	var group models.Group
	if err := row.Scan(&group.ID, &group.OwnerID, &group.Name, &group.Description, &group.IsVisible, &group.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Group{}, ErrNotFound
		}
		return models.Group{}, fmt.Errorf("select group: %w", err)
	}

	return group, nil
}

// ListVisible returns all publicly visible groups, newest first.
func (r *PostgresGroupRepository) ListVisible(ctx context.Context) ([]models.Group, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, name, description, is_visible, created_at
        FROM groups
        WHERE is_visible
        ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("query visible groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var group models.Group
		if err := rows.Scan(&group.ID, &group.OwnerID, &group.Name, &group.Description, &group.IsVisible, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	return groups, nil
}

// Delete removes a group, scoped to its owner.
func (r *PostgresGroupRepository) Delete(ctx context.Context, groupID, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM groups
        WHERE id = $1 AND owner_id = $2
    `, groupID, ownerID)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresMemberRepository provides PostgreSQL-backed persistence for group members.
type PostgresMemberRepository struct {
	pool db.Pool
}

// NewPostgresMemberRepository constructs a member repository backed by PostgreSQL.
func NewPostgresMemberRepository(pool db.Pool) *PostgresMemberRepository {
	return &PostgresMemberRepository{pool: pool}
}

// Add inserts a membership row.
func (r *PostgresMemberRepository) Add(ctx context.Context, member models.GroupMember) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO group_members (group_id, user_id, role, added_at)
        VALUES ($1, $2, $3, $4)
    `, member.GroupID, member.UserID, member.Role, member.AddedAt)
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
		return fmt.Errorf("insert group member: %w", err)
	}

	return nil
}

// Remove deletes a membership row.
func (r *PostgresMemberRepository) Remove(ctx context.Context, groupID, userID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM group_members
        WHERE group_id = $1 AND user_id = $2
    `, groupID, userID)
	if err != nil {
		return fmt.Errorf("delete group member: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Find fetches a single membership row.
func (r *PostgresMemberRepository) Find(ctx context.Context, groupID, userID string) (models.GroupMember, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.GroupMember{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT group_id, user_id, role, added_at
        FROM group_members
        WHERE group_id = $1 AND user_id = $2
    `, groupID, userID)

	var member models.GroupMember
	if err := row.Scan(&member.GroupID, &member.UserID, &member.Role, &member.AddedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.GroupMember{}, ErrNotFound
		}
		return models.GroupMember{}, fmt.Errorf("select group member: %w", err)
	}

	return member, nil
}

// List returns a group's membership rows, oldest first.
func (r *PostgresMemberRepository) List(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT group_id, user_id, role, added_at
        FROM group_members
        WHERE group_id = $1
        ORDER BY added_at ASC
    `, groupID)
	if err != nil {
		return nil, fmt.Errorf("query group members: %w", err)
	}
	defer rows.Close()

	var members []models.GroupMember
	for rows.Next() {
		var member models.GroupMember
		if err := rows.Scan(&member.GroupID, &member.UserID, &member.Role, &member.AddedAt); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group members: %w", err)
	}

	return members, nil
}

// PostgresJoinRequestRepository provides PostgreSQL-backed persistence for join requests.
type PostgresJoinRequestRepository struct {
	pool db.Pool
}

// NewPostgresJoinRequestRepository constructs a join request repository backed by PostgreSQL.
func NewPostgresJoinRequestRepository(pool db.Pool) *PostgresJoinRequestRepository {
	return &PostgresJoinRequestRepository{pool: pool}
}

// Create persists a new join request. A second pending request for the same
// (group, user) pair trips the partial unique index and surfaces ErrConflict.
func (r *PostgresJoinRequestRepository) Create(ctx context.Context, request models.JoinRequest) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO join_requests (id, group_id, user_id, status, created_at, responded_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, request.ID, request.GroupID, request.UserID, request.Status, request.CreatedAt, nullableTime(request.RespondedAt))
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
		return fmt.Errorf("insert join request: %w", err)
	}

	return nil
}

// Find fetches a join request by primary key.
func (r *PostgresJoinRequestRepository) Find(ctx context.Context, requestID string) (models.JoinRequest, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.JoinRequest{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, group_id, user_id, status, created_at, responded_at
        FROM join_requests
        WHERE id = $1
    `, requestID)

	return scanJoinRequest(row)
}

// HasPending reports whether a pending request exists for the pair.
func (r *PostgresJoinRequestRepository) HasPending(ctx context.Context, groupID, userID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM join_requests
            WHERE group_id = $1 AND user_id = $2 AND status = 'pending'
        )
    `, groupID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending join request: %w", err)
	}

	return exists, nil
}

// UpdateStatus updates the status (and responded_at) for a join request.
func (r *PostgresJoinRequestRepository) UpdateStatus(ctx context.Context, requestID, status string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	respondedAt := sql.NullTime{}
	if status != models.JoinStatusPending {
		respondedAt = sql.NullTime{Valid: true, Time: time.Now().UTC()}
	}

	tag, err := conn.Exec(ctx, `
        UPDATE join_requests
        SET status = $2, responded_at = $3
        WHERE id = $1
    `, requestID, status, respondedAt)
	if err != nil {
		return fmt.Errorf("update join request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListPending returns a group's pending join requests, oldest first.
func (r *PostgresJoinRequestRepository) ListPending(ctx context.Context, groupID string) ([]models.JoinRequest, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, group_id, user_id, status, created_at, responded_at
        FROM join_requests
        WHERE group_id = $1 AND status = 'pending'
        ORDER BY created_at ASC
    `, groupID)
	if err != nil {
		return nil, fmt.Errorf("query join requests: %w", err)
	}
	defer rows.Close()

	var requests []models.JoinRequest
	for rows.Next() {
		request, err := scanJoinRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate join requests: %w", err)
	}

	return requests, nil
}

// PostgresMovieRepository provides PostgreSQL-backed persistence for group watch-lists.
type PostgresMovieRepository struct {
	pool db.Pool
}

// NewPostgresMovieRepository constructs a movie repository backed by PostgreSQL.
func NewPostgresMovieRepository(pool db.Pool) *PostgresMovieRepository {
	return &PostgresMovieRepository{pool: pool}
}

// Add inserts a watch-list entry, ignoring duplicates. The returned bool
// reports whether a row was actually written.
func (r *PostgresMovieRepository) Add(ctx context.Context, movie models.GroupMovie) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO group_movies (group_id, media_type, media_id, added_by, added_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (group_id, media_type, media_id) DO NOTHING
    `, movie.GroupID, movie.MediaType, movie.MediaID, movie.AddedBy, movie.AddedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("insert group movie: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Remove deletes a watch-list entry. Removing an absent entry is not an error.
func (r *PostgresMovieRepository) Remove(ctx context.Context, groupID, mediaType, mediaID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        DELETE FROM group_movies
        WHERE group_id = $1 AND media_type = $2 AND media_id = $3
    `, groupID, mediaType, mediaID)
	if err != nil {
		return fmt.Errorf("delete group movie: %w", err)
	}

	return nil
}

// List returns the group's watch-list in insertion order.
func (r *PostgresMovieRepository) List(ctx context.Context, groupID string) ([]models.GroupMovie, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT group_id, media_type, media_id, added_by, added_at
        FROM group_movies
        WHERE group_id = $1
        ORDER BY added_at ASC
    `, groupID)
	if err != nil {
		return nil, fmt.Errorf("query group movies: %w", err)
	}
	defer rows.Close()

	var movies []models.GroupMovie
	for rows.Next() {
		var movie models.GroupMovie
		if err := rows.Scan(&movie.GroupID, &movie.MediaType, &movie.MediaID, &movie.AddedBy, &movie.AddedAt); err != nil {
			return nil, fmt.Errorf("scan group movie: %w", err)
		}
		movies = append(movies, movie)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group movies: %w", err)
	}

	return movies, nil
}

func scanJoinRequest(row pgx.Row) (models.JoinRequest, error) {
	var (
		request     models.JoinRequest
		respondedAt sql.NullTime
	)
	if err := row.Scan(&request.ID, &request.GroupID, &request.UserID, &request.Status, &request.CreatedAt, &respondedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.JoinRequest{}, ErrNotFound
		}
		return models.JoinRequest{}, fmt.Errorf("scan join request: %w", err)
	}
	if respondedAt.Valid {
		t := respondedAt.Time.UTC()
		request.RespondedAt = &t
	}
	return request, nil
}

var _ GroupRepository = (*PostgresGroupRepository)(nil)
var _ MemberRepository = (*PostgresMemberRepository)(nil)
var _ JoinRequestRepository = (*PostgresJoinRequestRepository)(nil)
var _ MovieRepository = (*PostgresMovieRepository)(nil)
