package handlers

import (
	"net/http"
	"time"

	"github.com/reelmates/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Lists         FavoriteStore
	Shares        ShareManager
	Groups        GroupManager
	AuthLimiter   RateLimiter
	SharedLimiter RateLimiter
	ShareBaseURL  string
	NowFunc       func() time.Time
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Routes under
// /api/v1 require a bearer access token except for auth, refresh, and the
// public shared-list lookup.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authH := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.AuthLimiter, NowFunc: deps.NowFunc}
	lists := ListHandler{Lists: deps.Lists, NowFunc: deps.NowFunc}
	shares := ShareHandler{Shares: deps.Shares, Limiter: deps.SharedLimiter, BaseURL: deps.ShareBaseURL, NowFunc: deps.NowFunc}
	groups := GroupHandler{Groups: deps.Groups}

	requireAuth := middleware.RequireAuth(deps.Sessions)
	protected := func(handler http.HandlerFunc) http.Handler {
		return requireAuth(handler)
	}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/auth/signup", authH.SignUp)
	mux.HandleFunc("POST /api/v1/auth/login", authH.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authH.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", authH.Logout)

	mux.HandleFunc("GET /api/v1/shared/{token}", shares.Shared)

	mux.Handle("POST /api/v1/lists", protected(lists.Create))
	mux.Handle("GET /api/v1/lists", protected(lists.List))
	mux.Handle("GET /api/v1/lists/{listID}", protected(lists.Get))
	mux.Handle("PATCH /api/v1/lists/{listID}", protected(lists.Update))
	mux.Handle("DELETE /api/v1/lists/{listID}", protected(lists.Delete))
	mux.Handle("POST /api/v1/lists/{listID}/items", protected(lists.AddItem))
	mux.Handle("DELETE /api/v1/lists/{listID}/items/{itemID}", protected(lists.RemoveItem))

	mux.Handle("POST /api/v1/lists/{listID}/shares", protected(shares.Create))
	mux.Handle("GET /api/v1/lists/{listID}/shares", protected(shares.List))
	mux.Handle("PATCH /api/v1/shares/{shareID}/revoke", protected(shares.Revoke))
	mux.Handle("DELETE /api/v1/shares/{shareID}", protected(shares.Delete))

	mux.Handle("POST /api/v1/groups", protected(groups.Create))
	mux.Handle("GET /api/v1/groups", protected(groups.List))
	mux.Handle("GET /api/v1/groups/{groupID}", protected(groups.Get))
	mux.Handle("DELETE /api/v1/groups/{groupID}", protected(groups.Delete))
	mux.Handle("POST /api/v1/groups/{groupID}/join-requests", protected(groups.RequestJoin))
	mux.Handle("GET /api/v1/groups/{groupID}/join-requests", protected(groups.ListJoinRequests))
	mux.Handle("PATCH /api/v1/groups/{groupID}/join-requests/{requestID}/accept", protected(groups.Accept))
	mux.Handle("PATCH /api/v1/groups/{groupID}/join-requests/{requestID}/reject", protected(groups.Reject))
	mux.Handle("POST /api/v1/groups/{groupID}/members", protected(groups.AddMember))
	mux.Handle("GET /api/v1/groups/{groupID}/members", protected(groups.Members))
	mux.Handle("DELETE /api/v1/groups/{groupID}/members/{userID}", protected(groups.RemoveMember))
	mux.Handle("POST /api/v1/groups/{groupID}/movies", protected(groups.AddMovie))
	mux.Handle("GET /api/v1/groups/{groupID}/movies", protected(groups.Movies))
	mux.Handle("DELETE /api/v1/groups/{groupID}/movies", protected(groups.RemoveMovie))
}
