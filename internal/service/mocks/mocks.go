package mocks

import (
	"context"
	"time"

	"monad_community_portal/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) CreateProfile(ctx context.Context, profile *model.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) CreditReferrer(ctx context.Context, address string) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *MockProfileRepository) GetProfileByAddress(ctx context.Context, address string) (*model.UserProfile, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockProfileRepository) ReferrerExists(ctx context.Context, address string) (bool, error) {
	args := m.Called(ctx, address)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileRepository) SetSocialHandle(ctx context.Context, address, network, handle string) error {
	args := m.Called(ctx, address, network, handle)
	return args.Error(0)
}

func (m *MockProfileRepository) GetTopUsers(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LeaderboardEntry), args.Error(1)
}

func (m *MockProfileRepository) GetUserReferrals(ctx context.Context, address string) ([]*model.UserReferral, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserReferral), args.Error(1)
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) GetPoints(ctx context.Context, address string) (*model.PointTotals, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PointTotals), args.Error(1)
}

func (m *MockLedgerRepository) IncrementCounter(ctx context.Context, address, counter string, amount int) error {
	args := m.Called(ctx, address, counter, amount)
	return args.Error(0)
}

func (m *MockLedgerRepository) MarkQuestDone(ctx context.Context, address, questID string, reward int) error {
	args := m.Called(ctx, address, questID, reward)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetUserQuests(ctx context.Context, address string) (map[string]*model.UserQuest, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*model.UserQuest), args.Error(1)
}

func (m *MockLedgerRepository) CheckIn(ctx context.Context, address string, at time.Time, reward int) error {
	args := m.Called(ctx, address, at, reward)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetLastCheckIn(ctx context.Context, address string) (*time.Time, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockLedgerRepository) CashOut(ctx context.Context, address string, points, wagerFloor int) (*model.CashOutResult, error) {
	args := m.Called(ctx, address, points, wagerFloor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CashOutResult), args.Error(1)
}

type MockProposalRepository struct {
	mock.Mock
}

func (m *MockProposalRepository) CreateProposal(ctx context.Context, proposal *model.Proposal) error {
	args := m.Called(ctx, proposal)
	return args.Error(0)
}

func (m *MockProposalRepository) DeleteProposal(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProposalRepository) ListProposals(ctx context.Context) ([]*model.Proposal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Proposal), args.Error(1)
}

func (m *MockProposalRepository) GetProposal(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Proposal), args.Error(1)
}

func (m *MockProposalRepository) GetVote(ctx context.Context, proposalID uuid.UUID, voter string) (*model.Vote, error) {
	args := m.Called(ctx, proposalID, voter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vote), args.Error(1)
}

func (m *MockProposalRepository) CastVote(ctx context.Context, vote *model.Vote) error {
	args := m.Called(ctx, vote)
	return args.Error(0)
}

func (m *MockProposalRepository) LikeProposal(ctx context.Context, proposalID uuid.UUID, address string) error {
	args := m.Called(ctx, proposalID, address)
	return args.Error(0)
}

func (m *MockProposalRepository) GetUserProposalState(ctx context.Context, address string) (map[uuid.UUID]bool, map[uuid.UUID]model.VoteChoice, error) {
	args := m.Called(ctx, address)
	var likes map[uuid.UUID]bool
	var votes map[uuid.UUID]model.VoteChoice
	if args.Get(0) != nil {
		likes = args.Get(0).(map[uuid.UUID]bool)
	}
	if args.Get(1) != nil {
		votes = args.Get(1).(map[uuid.UUID]model.VoteChoice)
	}
	return likes, votes, args.Error(2)
}

func (m *MockProposalRepository) CountProposals(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockBadgeRepository struct {
	mock.Mock
}

func (m *MockBadgeRepository) GetClaimedBadges(ctx context.Context, address string) ([]*model.UserBadge, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserBadge), args.Error(1)
}

func (m *MockBadgeRepository) ClaimBadge(ctx context.Context, address string, badgeID int, txHash string) error {
	args := m.Called(ctx, address, badgeID, txHash)
	return args.Error(0)
}

type MockPointsCache struct {
	mock.Mock
}

func (m *MockPointsCache) GetPoints(ctx context.Context, address string) (*model.PointTotals, bool) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*model.PointTotals), args.Bool(1)
}

func (m *MockPointsCache) SetPoints(ctx context.Context, address string, totals *model.PointTotals) error {
	args := m.Called(ctx, address, totals)
	return args.Error(0)
}

func (m *MockPointsCache) InvalidatePoints(ctx context.Context, address string) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}
