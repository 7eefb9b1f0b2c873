package models

import "time"

// User represents an account within the ReelMates platform.
type User struct {
	ID        string
	Email     string
	Username  string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FavoriteList is a user-owned named collection of external media references.
// The owner never changes after creation.
type FavoriteList struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FavoriteItem references a single movie or TV show inside a list. Position
// controls display ordering only; duplicates of the same media are allowed.
type FavoriteItem struct {
	ID        string
	ListID    string
	MediaType string
	MediaID   string
	Position  int
	CreatedAt time.Time
}

const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// MediaRef renders the composite external reference, e.g. "movie:550".
func (i FavoriteItem) MediaRef() string {
	return i.MediaType + ":" + i.MediaID
}

// ShareLink grants public read-only access to one favorite list until it is
// revoked, deleted, or expires. A nil ExpiresAt means the link never expires.
type ShareLink struct {
	ID        string
	ListID    string
	Token     string
	CreatedAt time.Time
	ExpiresAt *time.Time
	IsActive  bool
}

// Expired reports whether the link's expiration has passed at the given time.
func (l ShareLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// SharedList is the public projection returned for a valid share token.
type SharedList struct {
	Title         string
	Description   string
	OwnerUsername string
	Items         []FavoriteItem
	SharedAt      time.Time
	ExpiresAt     *time.Time
}

// Group is a named collection of users with an owner and a shared watch-list.
type Group struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	IsVisible   bool
	CreatedAt   time.Time
}

// GroupMember records a user's role inside a group. The owner is tracked on
// the Group row and never receives a member row.
type GroupMember struct {
	GroupID string
	UserID  string
	Role    string
	AddedAt time.Time
}

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// JoinRequest tracks a user's request to join a group.
type JoinRequest struct {
	ID          string
	GroupID     string
	UserID      string
	Status      string
	CreatedAt   time.Time
	RespondedAt *time.Time
}

const (
	JoinStatusPending  = "pending"
	JoinStatusAccepted = "accepted"
	JoinStatusRejected = "rejected"
)

// GroupMovie is one entry on a group's shared watch-list.
type GroupMovie struct {
	GroupID   string
	MediaType string
	MediaID   string
	AddedBy   string
	AddedAt   time.Time
}

// ListBackup pairs a favorite list with its items for snapshot exports.
type ListBackup struct {
	List  FavoriteList   `json:"list"`
	Items []FavoriteItem `json:"items"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
