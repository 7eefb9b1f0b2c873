package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reelmates/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		ShareBaseURL:    "http://localhost:8080/api/v1/shared",
		AuthRate:        config.RateLimit{Requests: 10, Window: time.Minute, Burst: 5, TTL: time.Minute},
		SharedRate:      config.RateLimit{Requests: 60, Window: time.Minute, Burst: 20, TTL: time.Minute},
	}

	deps := buildDependencies(fakePool{}, cfg)

	if deps.Handlers.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Handlers.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Handlers.Lists == nil {
		t.Fatal("expected favorite repository to be configured")
	}
	if deps.Handlers.Shares == nil {
		t.Fatal("expected share service to be configured")
	}
	if deps.Handlers.Groups == nil {
		t.Fatal("expected group service to be configured")
	}
	if deps.Handlers.AuthLimiter == nil || deps.Handlers.SharedLimiter == nil {
		t.Fatal("expected rate limiters to be configured")
	}
	if deps.Handlers.ShareBaseURL != cfg.ShareBaseURL {
		t.Fatalf("unexpected share base url %q", deps.Handlers.ShareBaseURL)
	}
	if deps.Shares == nil || deps.Favorites == nil {
		t.Fatal("expected auxiliary collaborators to be configured")
	}
}

type countingSweeper struct {
	calls atomic.Int64
}

func (s *countingSweeper) CleanupExpired(context.Context) (int64, error) {
	s.calls.Add(1)
	return 0, nil
}

func TestRunShareSweep(t *testing.T) {
	sweeper := &countingSweeper{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runShareSweep(ctx, sweeper, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(time.Second)
	for sweeper.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("sweep never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop on cancel")
	}
}

func TestRunShareSweepDisabled(t *testing.T) {
	done := make(chan struct{})
	go func() {
		runShareSweep(context.Background(), &countingSweeper{}, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep with zero interval should return immediately")
	}
}
