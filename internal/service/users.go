package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"monad_community_portal/internal/model"
	"monad_community_portal/internal/repository"
)

type UserService struct {
	repo   ProfileRepository
	ledger *LedgerService
}

func NewUserService(repo ProfileRepository, ledger *LedgerService) *UserService {
	return &UserService{repo: repo, ledger: ledger}
}

func (s *UserService) GetProfile(ctx context.Context, address string) (*model.UserProfile, error) {
	profile, err := s.repo.GetProfileByAddress(ctx, strings.ToLower(address))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *UserService) GetPoints(ctx context.Context, address string) (*model.PointTotals, error) {
	return s.ledger.GetPoints(ctx, strings.ToLower(address))
}

func (s *UserService) GetLeaderboard(ctx context.Context) ([]*model.LeaderboardEntry, error) {
	entries, err := s.repo.GetTopUsers(ctx, leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	return entries, nil
}

func (s *UserService) GetReferrals(ctx context.Context, address string) ([]*model.UserReferral, error) {
	referrals, err := s.repo.GetUserReferrals(ctx, strings.ToLower(address))
	if err != nil {
		return nil, fmt.Errorf("failed to get user referrals: %w", err)
	}
	return referrals, nil
}

// ReferralLink derives the sharable invite URL; the address itself is the
// referral code.
func (s *UserService) ReferralLink(baseURL, address string) string {
	return fmt.Sprintf("%s/?ref=%s", strings.TrimRight(baseURL, "/"), strings.ToLower(address))
}
