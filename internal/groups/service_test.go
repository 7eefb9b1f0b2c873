package groups

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reelmates/backend/internal/apperrors"
	"github.com/reelmates/backend/internal/models"
	"github.com/reelmates/backend/internal/repositories"
)

type memberKey struct{ groupID, userID string }

type fakeGroupStore struct {
	groups map[string]models.Group
}

func (s *fakeGroupStore) Create(_ context.Context, group models.Group) error {
	s.groups[group.ID] = group
	return nil
}

func (s *fakeGroupStore) Find(_ context.Context, groupID string) (models.Group, error) {
	group, ok := s.groups[groupID]
	if !ok {
		return models.Group{}, repositories.ErrNotFound
	}
	return group, nil
}

func (s *fakeGroupStore) ListVisible(_ context.Context) ([]models.Group, error) {
	var out []models.Group
	for _, group := range s.groups {
		if group.IsVisible {
			out = append(out, group)
		}
	}
	return out, nil
}

func (s *fakeGroupStore) Delete(_ context.Context, groupID, ownerID string) error {
	group, ok := s.groups[groupID]
	if !ok || group.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	delete(s.groups, groupID)
	return nil
}

type fakeMemberStore struct {
	members map[memberKey]models.GroupMember
}

func (s *fakeMemberStore) Add(_ context.Context, member models.GroupMember) error {
	key := memberKey{member.GroupID, member.UserID}
	if _, exists := s.members[key]; exists {
		return repositories.ErrConflict
	}
	s.members[key] = member
	return nil
}

func (s *fakeMemberStore) Remove(_ context.Context, groupID, userID string) error {
	key := memberKey{groupID, userID}
	if _, exists := s.members[key]; !exists {
		return repositories.ErrNotFound
	}
	delete(s.members, key)
	return nil
}

func (s *fakeMemberStore) Find(_ context.Context, groupID, userID string) (models.GroupMember, error) {
	member, ok := s.members[memberKey{groupID, userID}]
	if !ok {
		return models.GroupMember{}, repositories.ErrNotFound
	}
	return member, nil
}

func (s *fakeMemberStore) List(_ context.Context, groupID string) ([]models.GroupMember, error) {
	var out []models.GroupMember
	for _, member := range s.members {
		if member.GroupID == groupID {
			out = append(out, member)
		}
	}
	return out, nil
}

type fakeJoinRequestStore struct {
	requests map[string]models.JoinRequest
}

func (s *fakeJoinRequestStore) Create(_ context.Context, request models.JoinRequest) error {
	for _, existing := range s.requests {
		if existing.GroupID == request.GroupID && existing.UserID == request.UserID &&
			existing.Status == models.JoinStatusPending {
			return repositories.ErrConflict
		}
	}
	s.requests[request.ID] = request
	return nil
}

func (s *fakeJoinRequestStore) Find(_ context.Context, requestID string) (models.JoinRequest, error) {
	request, ok := s.requests[requestID]
	if !ok {
		return models.JoinRequest{}, repositories.ErrNotFound
	}
	return request, nil
}

func (s *fakeJoinRequestStore) HasPending(_ context.Context, groupID, userID string) (bool, error) {
	for _, request := range s.requests {
		if request.GroupID == groupID && request.UserID == userID && request.Status == models.JoinStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeJoinRequestStore) UpdateStatus(_ context.Context, requestID, status string) error {
	request, ok := s.requests[requestID]
	if !ok {
		return repositories.ErrNotFound
	}
	request.Status = status
	s.requests[requestID] = request
	return nil
}

func (s *fakeJoinRequestStore) ListPending(_ context.Context, groupID string) ([]models.JoinRequest, error) {
	var out []models.JoinRequest
	for _, request := range s.requests {
		if request.GroupID == groupID && request.Status == models.JoinStatusPending {
			out = append(out, request)
		}
	}
	return out, nil
}

type movieKey struct{ groupID, mediaType, mediaID string }

type fakeMovieStore struct {
	movies map[movieKey]models.GroupMovie
}

func (s *fakeMovieStore) Add(_ context.Context, movie models.GroupMovie) (bool, error) {
	key := movieKey{movie.GroupID, movie.MediaType, movie.MediaID}
	if _, exists := s.movies[key]; exists {
		return false, nil
	}
	s.movies[key] = movie
	return true, nil
}

func (s *fakeMovieStore) Remove(_ context.Context, groupID, mediaType, mediaID string) error {
	delete(s.movies, movieKey{groupID, mediaType, mediaID})
	return nil
}

func (s *fakeMovieStore) List(_ context.Context, groupID string) ([]models.GroupMovie, error) {
	var out []models.GroupMovie
	for _, movie := range s.movies {
		if movie.GroupID == groupID {
			out = append(out, movie)
		}
	}
	return out, nil
}

type fixture struct {
	svc     *Service
	groups  *fakeGroupStore
	members *fakeMemberStore
	joins   *fakeJoinRequestStore
	movies  *fakeMovieStore
}

func newFixture() fixture {
	groups := &fakeGroupStore{groups: make(map[string]models.Group)}
	members := &fakeMemberStore{members: make(map[memberKey]models.GroupMember)}
	joins := &fakeJoinRequestStore{requests: make(map[string]models.JoinRequest)}
	movies := &fakeMovieStore{movies: make(map[movieKey]models.GroupMovie)}

	svc := NewService(groups, members, joins, movies)
	svc.NowFunc = func() time.Time { return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC) }
	return fixture{svc: svc, groups: groups, members: members, joins: joins, movies: movies}
}

func (f fixture) mustCreateGroup(t *testing.T, ownerID, name string, visible bool) models.Group {
	t.Helper()
	group, err := f.svc.Create(context.Background(), ownerID, name, "", visible)
	if err != nil {
		t.Fatalf("Create group returned error: %v", err)
	}
	return group
}

func TestCreateRequiresName(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Create(context.Background(), "owner-1", "   ", "", true); apperrors.KindOf(err) != apperrors.Validation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateOwnerGetsNoMemberRow(t *testing.T) {
	f := newFixture()
	group := f.mustCreateGroup(t, "owner-1", "Movie Night", true)

	if _, err := f.members.Find(context.Background(), group.ID, "owner-1"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("owner should not have a member row, got %v", err)
	}
}

func TestGetHiddenGroupVisibility(t *testing.T) {
	f := newFixture()
	group := f.mustCreateGroup(t, "owner-1", "Secret Club", false)

	if _, err := f.svc.Get(context.Background(), group.ID, "owner-1"); err != nil {
		t.Fatalf("owner should see hidden group: %v", err)
	}

	if _, err := f.svc.Get(context.Background(), group.ID, "stranger"); apperrors.KindOf(err) != apperrors.NotFound {
		t.Fatalf("hidden group should look absent to strangers, got %v", err)
	}

	if _, err := f.svc.AddMember(context.Background(), group.ID, "friend", "owner-1"); err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), group.ID, "friend"); err != nil {
		t.Fatalf("member should see hidden group: %v", err)
	}
}

func TestListVisibleOmitsHiddenGroups(t *testing.T) {
	f := newFixture()
	f.mustCreateGroup(t, "owner-1", "Public", true)
	f.mustCreateGroup(t, "owner-1", "Hidden", false)

	groups, err := f.svc.ListVisible(context.Background())
	if err != nil {
		t.Fatalf("ListVisible returned error: %v", err)
	}
	if len(groups) != 1 || groups[0].Name != "Public" {
		t.Fatalf("unexpected visible groups: %+v", groups)
	}
}

func TestRequestJoinLifecycle(t *testing.T) {
	f := newFixture()
	group := f.mustCreateGroup(t, "owner-1", "Movie Night", true)

	request, err := f.svc.RequestJoin(context.Background(), group.ID, "user-2")
	if err != nil {
		t.Fatalf("RequestJoin returned error: %v", err)
	}
	if request.Status != models.JoinStatusPending {
		t.Fatalf("expected pending request, got %q", request.Status)
	}

	// Duplicate pending request is rejected with a coded conflict.
	if _, err := f.svc.RequestJoin(context.Background(), group.ID, "user-2"); !errors.Is(err, ErrPendingExists) {
		t.Fatalf("expected ErrPendingExists, got %v", err)
	}

	// The owner cannot request to join their own group.
	if _, err := f.svc.RequestJoin(context.Background(), group.ID, "owner-1"); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember for owner, got %v", err)
	}

	if err := f.svc.Accept(context.Background(), group.ID, request.ID, "owner-1"); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}

	member, err := f.members.Find(context.Background(), group.ID, "user-2")
	if err != nil {
		t.Fatalf("accepted user missing member row: %v", err)
	}
	if member.Role != models.RoleMember {
		t.Fatalf("expected member role, got %q", member.Role)
	}

	// Members cannot re-request.
	if _, err := f.svc.RequestJoin(context.Background(), group.ID, "user-2"); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember after acceptance, got %v", err)
	}

	// Accepting an already-resolved request conflicts.
	if err := f.svc.Accept(context.Background(), group.ID, request.ID, "owner-1"); apperrors.KindOf(err) != apperrors.Conflict {
		t.Fatalf("expected conflict re-accepting, got %v", err)
	}
}

func TestRejectLeavesNoMembership(t *testing.T) {
	f := newFixture()
	group := f.mustCreateGroup(t, "owner-1", "Movie Night", true)

	request, err := f.svc.RequestJoin(context.Background(), group.ID, "user-2")
	if err != nil {
		t.Fatalf("RequestJoin returned error: %v", err)
	}

	if err := f.svc.Reject(context.Background(), group.ID, request.ID, "owner-1"); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}

	if _, err := f.members.Find(context.Background(), group.ID, "user-2"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("rejected user should have no member row, got %v", err)
	}

	// A rejected user may request again.
	if _, err := f.svc.RequestJoin(context.Background(), group.ID, "user-2"); err != nil {
		t.Fatalf("re-request after rejection returned error: %v", err)
	}
}

func TestResolveRequiresAdminOrOwner(t *testing.T) {
	f := newFixture()
	group := f.mustCreateGroup(t, "owner-1", "Movie Night", true)

	request, err := f.svc.RequestJoin(context.Background(), group.ID, "user-2")
	if err != nil {
		t.Fatalf("RequestJoin returned error: %v", err)
	}

	if err := f.svc.Accept(context.Background(), group.ID, request.ID, "user-3"); apperrors.KindOf(err) != apperrors.Forbidden {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}

	// A plain member cannot resolve either.
	if _, err := f.svc.AddMember(context.Background(), group.ID, "user-3", "owner-1"); err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}
	if err := f.svc.Accept(context.Background(), group.ID, request.ID, "user-3"); apperrors.KindOf(err) != apperrors.Forbidden {
		t.Fatalf("expected forbidden for plain member, got %v", err)
	}

	// An admin can.
	f.members.members[memberKey{group.ID, "admin-1"}] = models.GroupMember{
		GroupID: group.ID, UserID: "admin-1", Role: models.RoleAdmin,
	}
	if err := f.svc.Accept(context.Background(), group.ID, request.ID, "admin-1"); err != nil {
		t.Fatalf("admin Accept returned error: %v", err)
	}
}

func TestResolveWrongGroupLooksMissing(t *testing.T) {
	f := newFixture()
	groupA := f.mustCreateGroup(t, "owner-1", "Group A", true)
	groupB := f.mustCreateGroup(t, "owner-1", "Group B", true)

	request, err := f.svc.RequestJoin(context.Background(), groupA.ID, "user-2")
	if err != nil {
		t.Fatalf("RequestJoin returned error: %v", err)
	}

	if err := f.svc.Accept(context.Background(), groupB.ID, request.ID, "owner-1"); apperrors.KindOf(err) != apperrors.NotFound {
		t.Fatalf("expected not found for request under wrong group, got %v", err)
	}
}

func TestAddMemberDirect(t *testing.T) {
	f := newFixture()
	group := f.mustCreateGroup(t, "owner-1", "Movie Night", true)

	added, err := f.svc.AddMember(context.Background(), group.ID, "user-2", "owner-1")
	if err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}
	if !added {
		t.Fatal("expected first add to report true")
	}

	// Adding again is a no-op.
	added, err = f.svc.AddMember(context.Background(), group.ID, "user-2", "owner-1")
	if err != nil {
		t.Fatalf("second AddMember returned error: %v", err)
	}
	if added {
		t.Fatal("expected duplicate add to report false")
	}

	// Owner adding themselves is a no-op too.
	added, err = f.svc.AddMember(context.Background(), group.ID, "owner-1", "owner-1")
	if err != nil {
		t.Fatalf("self AddMember returned error: %v", err)
	}
	if added {
		t.Fatal("expected self add to report false")
	}

	// Only the owner may add members directly.
	if _, err := f.svc.AddMember(context.Background(), group.ID, "user-3", "user-2"); apperrors.KindOf(err) != apperrors.Forbidden {
		t.Fatalf("expected forbidden for non-owner add, got %v", err)
	}
}

func TestRemoveMember(t *testing.T) {
	f := newFixture()
	group := f.mustCreateGroup(t, "owner-1", "Movie Night", true)

	if _, err := f.svc.AddMember(context.Background(), group.ID, "user-2", "owner-1"); err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}

	if err := f.svc.RemoveMember(context.Background(), group.ID, "user-2", "user-2"); apperrors.KindOf(err) != apperrors.Forbidden {
		t.Fatalf("expected forbidden for member self-removal, got %v", err)
	}

	if err := f.svc.RemoveMember(context.Background(), group.ID, "user-2", "owner-1"); err != nil {
		t.Fatalf("RemoveMember returned error: %v", err)
	}

	if err := f.svc.RemoveMember(context.Background(), group.ID, "user-2", "owner-1"); apperrors.KindOf(err) != apperrors.NotFound {
		t.Fatalf("expected not found removing absent member, got %v", err)
	}
}

func TestMembersVisibility(t *testing.T) {
	f := newFixture()
	group := f.mustCreateGroup(t, "owner-1", "Movie Night", true)

	if _, err := f.svc.AddMember(context.Background(), group.ID, "user-2", "owner-1"); err != nil {
		t.Fatalf("AddMember returned error: %v", err)
	}

	members, err := f.svc.Members(context.Background(), group.ID, "user-2")
	if err != nil {
		t.Fatalf("Members returned error: %v", err)
	}
	if len(members) != 1 || members[0].UserID != "user-2" {
		t.Fatalf("unexpected members: %+v", members)
	}

	if _, err := f.svc.Members(context.Background(), group.ID, "stranger"); apperrors.KindOf(err) != apperrors.Forbidden {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}
}

func TestWatchListLifecycle(t *testing.T) {
	f := newFixture()
	group := f.mustCreateGroup(t, "owner-1", "Movie Night", true)

	movie, added, err := f.svc.AddMovie(context.Background(), group.ID, "owner-1", models.MediaTypeMovie, "550")
	if err != nil {
		t.Fatalf("AddMovie returned error: %v", err)
	}
	if !added {
		t.Fatal("expected first add to report true")
	}
	if movie.AddedBy != "owner-1" {
		t.Fatalf("unexpected AddedBy %q", movie.AddedBy)
	}

	// Duplicate adds are a no-op.
	_, added, err = f.svc.AddMovie(context.Background(), group.ID, "owner-1", models.MediaTypeMovie, "550")
	if err != nil {
		t.Fatalf("duplicate AddMovie returned error: %v", err)
	}
	if added {
		t.Fatal("expected duplicate add to report false")
	}

	if _, _, err := f.svc.AddMovie(context.Background(), group.ID, "owner-1", "series", "550"); apperrors.KindOf(err) != apperrors.Validation {
		t.Fatalf("expected validation error for bad media type, got %v", err)
	}
	if _, _, err := f.svc.AddMovie(context.Background(), group.ID, "stranger", models.MediaTypeMovie, "551"); apperrors.KindOf(err) != apperrors.Forbidden {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}

	movies, err := f.svc.Movies(context.Background(), group.ID, "owner-1")
	if err != nil {
		t.Fatalf("Movies returned error: %v", err)
	}
	if len(movies) != 1 {
		t.Fatalf("expected 1 movie, got %d", len(movies))
	}

	if err := f.svc.RemoveMovie(context.Background(), group.ID, "owner-1", models.MediaTypeMovie, "550"); err != nil {
		t.Fatalf("RemoveMovie returned error: %v", err)
	}
	// Removing an absent entry is a no-op.
	if err := f.svc.RemoveMovie(context.Background(), group.ID, "owner-1", models.MediaTypeMovie, "550"); err != nil {
		t.Fatalf("second RemoveMovie returned error: %v", err)
	}
}

func TestDeleteGroupOwnerOnly(t *testing.T) {
	f := newFixture()
	group := f.mustCreateGroup(t, "owner-1", "Movie Night", true)

	if err := f.svc.Delete(context.Background(), group.ID, "stranger"); apperrors.KindOf(err) != apperrors.Forbidden {
		t.Fatalf("expected forbidden for stranger delete, got %v", err)
	}
	if err := f.svc.Delete(context.Background(), group.ID, "owner-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), group.ID, "owner-1"); apperrors.KindOf(err) != apperrors.NotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
