package sharing

import (
	"context"
	"testing"
	"time"

	"github.com/reelmates/backend/internal/apperrors"
	"github.com/reelmates/backend/internal/models"
	"github.com/reelmates/backend/internal/repositories"
)

type fakeShareStore struct {
	links  map[string]models.ShareLink
	owners map[string]string
}

func newFakeShareStore(owners map[string]string) *fakeShareStore {
	return &fakeShareStore{links: make(map[string]models.ShareLink), owners: owners}
}

func (s *fakeShareStore) Create(_ context.Context, link models.ShareLink) error {
	for _, existing := range s.links {
		if existing.Token == link.Token {
			return repositories.ErrConflict
		}
	}
	s.links[link.ID] = link
	return nil
}

func (s *fakeShareStore) ActiveForList(_ context.Context, listID string, now time.Time) (models.ShareLink, error) {
	for _, link := range s.links {
		if link.ListID == listID && link.IsActive && !link.Expired(now) {
			return link, nil
		}
	}
	return models.ShareLink{}, repositories.ErrNotFound
}

func (s *fakeShareStore) FindActiveByToken(_ context.Context, token string, now time.Time) (models.ShareLink, error) {
	for _, link := range s.links {
		if link.Token == token && link.IsActive && !link.Expired(now) {
			return link, nil
		}
	}
	return models.ShareLink{}, repositories.ErrNotFound
}

func (s *fakeShareStore) ForList(_ context.Context, listID string) ([]models.ShareLink, error) {
	var out []models.ShareLink
	for _, link := range s.links {
		if link.ListID == listID {
			out = append(out, link)
		}
	}
	return out, nil
}

func (s *fakeShareStore) Deactivate(_ context.Context, shareID, ownerID string) error {
	link, ok := s.links[shareID]
	if !ok || s.ownerOf(link.ListID) != ownerID {
		return repositories.ErrNotFound
	}
	link.IsActive = false
	s.links[shareID] = link
	return nil
}

func (s *fakeShareStore) Delete(_ context.Context, shareID, ownerID string) error {
	link, ok := s.links[shareID]
	if !ok || s.ownerOf(link.ListID) != ownerID {
		return repositories.ErrNotFound
	}
	delete(s.links, shareID)
	return nil
}

func (s *fakeShareStore) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	var count int64
	for id, link := range s.links {
		if link.IsActive && link.Expired(now) {
			link.IsActive = false
			s.links[id] = link
			count++
		}
	}
	return count, nil
}

// ownerOf mirrors the SQL join the real store performs; both fakes share one
// owners map.
func (s *fakeShareStore) ownerOf(listID string) string {
	return s.owners[listID]
}

type fakeListStore struct {
	owners    map[string]string
	snapshots map[string]models.SharedList
}

func newFakeListStore() *fakeListStore {
	return &fakeListStore{owners: make(map[string]string), snapshots: make(map[string]models.SharedList)}
}

func (s *fakeListStore) addList(listID, ownerID string, snapshot models.SharedList) {
	s.owners[listID] = ownerID
	s.snapshots[listID] = snapshot
}

func (s *fakeListStore) ListOwner(_ context.Context, listID string) (string, error) {
	owner, ok := s.owners[listID]
	if !ok {
		return "", repositories.ErrNotFound
	}
	return owner, nil
}

func (s *fakeListStore) SharedSnapshot(_ context.Context, listID string) (models.SharedList, error) {
	snapshot, ok := s.snapshots[listID]
	if !ok {
		return models.SharedList{}, repositories.ErrNotFound
	}
	return snapshot, nil
}

func newTestService(now time.Time) (*Service, *fakeShareStore, *fakeListStore) {
	lists := newFakeListStore()
	shares := newFakeShareStore(lists.owners)
	svc := NewService(shares, lists)
	svc.NowFunc = func() time.Time { return now }
	return svc, shares, lists
}

func intPtr(v int) *int { return &v }

func TestCreateIssuesToken(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc, _, lists := newTestService(now)
	lists.addList("list-1", "owner-1", models.SharedList{Title: "Favorites"})

	link, err := svc.Create(context.Background(), "list-1", "owner-1", intPtr(7))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if !ValidToken(link.Token) {
		t.Fatalf("issued token %q is malformed", link.Token)
	}
	if !link.IsActive {
		t.Fatal("expected issued link to be active")
	}
	if link.ExpiresAt == nil || !link.ExpiresAt.Equal(now.AddDate(0, 0, 7)) {
		t.Fatalf("unexpected expiry %v", link.ExpiresAt)
	}
}

func TestCreateNoExpiry(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc, _, lists := newTestService(now)
	lists.addList("list-1", "owner-1", models.SharedList{})

	link, err := svc.Create(context.Background(), "list-1", "owner-1", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if link.ExpiresAt != nil {
		t.Fatalf("expected nil expiry, got %v", link.ExpiresAt)
	}
}

func TestCreateReturnsExistingActiveLink(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc, _, lists := newTestService(now)
	lists.addList("list-1", "owner-1", models.SharedList{})

	first, err := svc.Create(context.Background(), "list-1", "owner-1", nil)
	if err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	second, err := svc.Create(context.Background(), "list-1", "owner-1", intPtr(30))
	if err != nil {
		t.Fatalf("second Create returned error: %v", err)
	}
	if second.ID != first.ID || second.Token != first.Token {
		t.Fatal("expected second create to return the existing active link")
	}
}

func TestCreateAfterExpiryIssuesNewLink(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc, shares, lists := newTestService(now)
	lists.addList("list-1", "owner-1", models.SharedList{})

	first, err := svc.Create(context.Background(), "list-1", "owner-1", intPtr(1))
	if err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}

	svc.NowFunc = func() time.Time { return now.AddDate(0, 0, 2) }
	second, err := svc.Create(context.Background(), "list-1", "owner-1", nil)
	if err != nil {
		t.Fatalf("second Create returned error: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh link once the first expired")
	}
	if len(shares.links) != 2 {
		t.Fatalf("expected 2 stored links, got %d", len(shares.links))
	}
}

func TestCreateValidation(t *testing.T) {
	now := time.Now().UTC()
	svc, _, lists := newTestService(now)
	lists.addList("list-1", "owner-1", models.SharedList{})

	for _, days := range []int{0, -1, 366} {
		if _, err := svc.Create(context.Background(), "list-1", "owner-1", intPtr(days)); apperrors.KindOf(err) != apperrors.Validation {
			t.Fatalf("expirationDays=%d: expected validation error, got %v", days, err)
		}
	}
}

func TestCreateOwnership(t *testing.T) {
	svc, _, lists := newTestService(time.Now().UTC())
	lists.addList("list-1", "owner-1", models.SharedList{})

	_, err := svc.Create(context.Background(), "list-1", "intruder", nil)
	if apperrors.KindOf(err) != apperrors.Forbidden {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}

	_, err = svc.Create(context.Background(), "missing", "owner-1", nil)
	if apperrors.KindOf(err) != apperrors.NotFound {
		t.Fatalf("expected not found for missing list, got %v", err)
	}
}

func TestRevokeHidesLinkFromResolve(t *testing.T) {
	now := time.Now().UTC()
	svc, _, lists := newTestService(now)
	lists.addList("list-1", "owner-1", models.SharedList{Title: "Favorites", OwnerUsername: "casey"})

	link, err := svc.Create(context.Background(), "list-1", "owner-1", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), link.Token); err != nil {
		t.Fatalf("Resolve before revoke returned error: %v", err)
	}

	if err := svc.Revoke(context.Background(), link.ID, "owner-1"); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), link.Token); apperrors.KindOf(err) != apperrors.NotFound {
		t.Fatalf("expected not found after revoke, got %v", err)
	}

	// Revoking again is a no-op, not an error.
	if err := svc.Revoke(context.Background(), link.ID, "owner-1"); err != nil {
		t.Fatalf("second Revoke returned error: %v", err)
	}
}

func TestRevokeNonOwnerLooksLikeMissing(t *testing.T) {
	svc, _, lists := newTestService(time.Now().UTC())
	lists.addList("list-1", "owner-1", models.SharedList{})

	link, err := svc.Create(context.Background(), "list-1", "owner-1", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Revoke(context.Background(), link.ID, "intruder"); apperrors.KindOf(err) != apperrors.NotFound {
		t.Fatalf("expected not found for non-owner revoke, got %v", err)
	}
}

func TestDeleteRemovesLink(t *testing.T) {
	svc, shares, lists := newTestService(time.Now().UTC())
	lists.addList("list-1", "owner-1", models.SharedList{})

	link, err := svc.Create(context.Background(), "list-1", "owner-1", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Delete(context.Background(), link.ID, "owner-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(shares.links) != 0 {
		t.Fatalf("expected link removed, %d remain", len(shares.links))
	}

	if err := svc.Delete(context.Background(), link.ID, "owner-1"); apperrors.KindOf(err) != apperrors.NotFound {
		t.Fatalf("expected not found for second delete, got %v", err)
	}
}

func TestResolveProjectsSnapshot(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc, _, lists := newTestService(now)
	lists.addList("list-1", "owner-1", models.SharedList{
		Title:         "Noir Classics",
		Description:   "B&W only",
		OwnerUsername: "casey",
		Items: []models.FavoriteItem{
			{ID: "item-1", ListID: "list-1", MediaType: models.MediaTypeMovie, MediaID: "550"},
		},
	})

	link, err := svc.Create(context.Background(), "list-1", "owner-1", intPtr(30))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	shared, err := svc.Resolve(context.Background(), link.Token)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if shared.Title != "Noir Classics" || shared.OwnerUsername != "casey" {
		t.Fatalf("unexpected projection: %+v", shared)
	}
	if !shared.SharedAt.Equal(link.CreatedAt) {
		t.Fatalf("SharedAt = %v, want %v", shared.SharedAt, link.CreatedAt)
	}
	if shared.ExpiresAt == nil || !shared.ExpiresAt.Equal(*link.ExpiresAt) {
		t.Fatalf("ExpiresAt = %v, want %v", shared.ExpiresAt, link.ExpiresAt)
	}
	if len(shared.Items) != 1 || shared.Items[0].MediaRef() != "movie:550" {
		t.Fatalf("unexpected items: %+v", shared.Items)
	}
}

func TestResolveFailureModesCollapse(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc, _, lists := newTestService(now)
	lists.addList("list-1", "owner-1", models.SharedList{})

	link, err := svc.Create(context.Background(), "list-1", "owner-1", intPtr(1))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	unknown, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken returned error: %v", err)
	}

	// Expired link.
	svc.NowFunc = func() time.Time { return now.AddDate(0, 0, 2) }

	for name, token := range map[string]string{
		"malformed": "not-a-token",
		"unknown":   unknown,
		"expired":   link.Token,
	} {
		if _, err := svc.Resolve(context.Background(), token); apperrors.KindOf(err) != apperrors.NotFound {
			t.Fatalf("%s token: expected not found, got %v", name, err)
		}
	}
}

func TestCleanupExpired(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc, shares, lists := newTestService(now)
	lists.addList("list-1", "owner-1", models.SharedList{})
	lists.addList("list-2", "owner-1", models.SharedList{})

	if _, err := svc.Create(context.Background(), "list-1", "owner-1", intPtr(1)); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	keep, err := svc.Create(context.Background(), "list-2", "owner-1", nil)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	svc.NowFunc = func() time.Time { return now.AddDate(0, 0, 2) }
	count, err := svc.CleanupExpired(context.Background())
	if err != nil {
		t.Fatalf("CleanupExpired returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 deactivated link, got %d", count)
	}
	if !shares.links[keep.ID].IsActive {
		t.Fatal("unexpired link should remain active")
	}

	// Second sweep finds nothing.
	count, err = svc.CleanupExpired(context.Background())
	if err != nil {
		t.Fatalf("second CleanupExpired returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected idempotent sweep, got %d", count)
	}
}

func TestLinksForListOwnership(t *testing.T) {
	svc, _, lists := newTestService(time.Now().UTC())
	lists.addList("list-1", "owner-1", models.SharedList{})

	if _, err := svc.Create(context.Background(), "list-1", "owner-1", nil); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	links, err := svc.LinksForList(context.Background(), "list-1", "owner-1")
	if err != nil {
		t.Fatalf("LinksForList returned error: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}

	if _, err := svc.LinksForList(context.Background(), "list-1", "intruder"); apperrors.KindOf(err) != apperrors.Forbidden {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
}
