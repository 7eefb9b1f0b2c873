package app

import (
	"github.com/reelmates/backend/internal/auth"
	"github.com/reelmates/backend/internal/config"
	"github.com/reelmates/backend/internal/db"
	"github.com/reelmates/backend/internal/groups"
	"github.com/reelmates/backend/internal/handlers"
	"github.com/reelmates/backend/internal/middleware"
	"github.com/reelmates/backend/internal/repositories"
	"github.com/reelmates/backend/internal/sharing"
)

// dependencies holds the wired collaborators. Handlers is what the router
// consumes; the other fields back the background sweep and the backup command.
type dependencies struct {
	Handlers  handlers.Dependencies
	Shares    *sharing.Service
	Favorites *repositories.PostgresFavoriteRepository
}

// buildDependencies wires together concrete implementations used by the HTTP
// handlers and the auxiliary commands.
func buildDependencies(pool db.Pool, cfg config.Config) dependencies {
	users := repositories.NewPostgresUserRepository(pool)
	favorites := repositories.NewPostgresFavoriteRepository(pool)
	shareRepo := repositories.NewPostgresShareRepository(pool)
	groupRepo := repositories.NewPostgresGroupRepository(pool)
	memberRepo := repositories.NewPostgresMemberRepository(pool)
	joinRepo := repositories.NewPostgresJoinRequestRepository(pool)
	movieRepo := repositories.NewPostgresMovieRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)

	shareSvc := sharing.NewService(shareRepo, favorites)
	groupSvc := groups.NewService(groupRepo, memberRepo, joinRepo, movieRepo)

	return dependencies{
		Handlers: handlers.Dependencies{
			Users:         users,
			Sessions:      auth.NewManager(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, sessionStore),
			Lists:         favorites,
			Shares:        shareSvc,
			Groups:        groupSvc,
			AuthLimiter:   middleware.NewIPRateLimiter(cfg.AuthRate.Requests, cfg.AuthRate.Window, cfg.AuthRate.Burst, cfg.AuthRate.TTL),
			SharedLimiter: middleware.NewIPRateLimiter(cfg.SharedRate.Requests, cfg.SharedRate.Window, cfg.SharedRate.Burst, cfg.SharedRate.TTL),
			ShareBaseURL:  cfg.ShareBaseURL,
		},
		Shares:    shareSvc,
		Favorites: favorites,
	}
}
