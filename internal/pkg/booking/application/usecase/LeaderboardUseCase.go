package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	cacheport "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/cache/port"
	booking "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/application/domain"
	repository "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/persistence/repository/port"
)

const (
	leaderboardCacheKey = "booking:leaderboard"
	leaderboardCacheTTL = time.Minute
)

// LeaderboardUseCase serves the aggregated standings, cached for a minute
// because the aggregation joins the whole archive.
type LeaderboardUseCase struct {
	Repo  repository.BookingRepository
	Cache cacheport.Cache
}

func NewLeaderboardUseCase(repo repository.BookingRepository, cache cacheport.Cache) *LeaderboardUseCase {
	return &LeaderboardUseCase{Repo: repo, Cache: cache}
}

func (uc *LeaderboardUseCase) Execute(ctx context.Context, limit int) ([]booking.LeaderboardRow, error) {
	if uc.Cache != nil {
		if cached, err := uc.Cache.Get(ctx, leaderboardCacheKey); err == nil {
			var rows []booking.LeaderboardRow
			if json.Unmarshal([]byte(cached), &rows) == nil {
				return rows, nil
			}
		} else if !errors.Is(err, cacheport.ErrMiss) {
			// Cache outage: fall through to the database.
			_ = err
		}
	}

	rows, err := uc.Repo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if uc.Cache != nil {
		if b, err := json.Marshal(rows); err == nil {
			_ = uc.Cache.Set(ctx, leaderboardCacheKey, string(b), leaderboardCacheTTL)
		}
	}
	return rows, nil
}
