package service

import (
	"context"
	"errors"
	"fmt"

	"monad_community_portal/internal/model"
	"monad_community_portal/internal/repository"
	"monad_community_portal/pkg/logger"

	"go.uber.org/zap"
)

const leaderboardSize = 100

// LedgerService fronts the point counters with the redis cache. Increments
// go straight to storage and drop the cached entry so the next read is fresh.
type LedgerService struct {
	repo  LedgerRepository
	cache PointsCache
}

func NewLedgerService(repo LedgerRepository, cache PointsCache) *LedgerService {
	return &LedgerService{repo: repo, cache: cache}
}

func (s *LedgerService) GetPoints(ctx context.Context, address string) (*model.PointTotals, error) {
	if totals, ok := s.cache.GetPoints(ctx, address); ok {
		return totals, nil
	}

	totals, err := s.repo.GetPoints(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to read points: %w", err)
	}

	if err := s.cache.SetPoints(ctx, address, totals); err != nil {
		logger.Logger().Warn("failed to cache points", zap.Error(err))
	}

	return totals, nil
}

func (s *LedgerService) Increment(ctx context.Context, address, counter string, amount int) error {
	err := s.repo.IncrementCounter(ctx, address, counter, amount)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to increment counter: %w", err)
	}

	if err := s.cache.InvalidatePoints(ctx, address); err != nil {
		logger.Logger().Warn("failed to invalidate points cache", zap.Error(err))
	}

	return nil
}

func (s *LedgerService) Invalidate(ctx context.Context, address string) {
	if err := s.cache.InvalidatePoints(ctx, address); err != nil {
		logger.Logger().Warn("failed to invalidate points cache", zap.Error(err))
	}
}
