package service

import (
	"context"
	"errors"
	"time"

	"monad_community_portal/internal/model"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUnknownQuest        = errors.New("unknown quest")
	ErrQuestAlreadyClaimed = errors.New("quest already claimed")
	ErrAlreadyVoted        = errors.New("already voted on this proposal")
	ErrProposalNotFound    = errors.New("proposal not found")
	ErrCheckInNotAvailable = errors.New("check-in not available yet")
	ErrNotAdmin            = errors.New("admin wallet required")
	ErrBadgeNotEarned      = errors.New("badge milestone not reached")
	ErrBadgeAlreadyClaimed = errors.New("badge already claimed")
	ErrConnectionTimeout   = errors.New("wallet connection timed out")
	ErrUserCancelled       = errors.New("user cancelled")
	ErrTransactionFailed   = errors.New("transaction failed")
	ErrGameNotActive       = errors.New("game is not active")
	ErrNothingToCashOut    = errors.New("nothing to cash out")
)

type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *model.UserProfile) error
	CreditReferrer(ctx context.Context, address string) error
	GetProfileByAddress(ctx context.Context, address string) (*model.UserProfile, error)
	ReferrerExists(ctx context.Context, address string) (bool, error)
	SetSocialHandle(ctx context.Context, address, network, handle string) error
	GetTopUsers(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
	GetUserReferrals(ctx context.Context, address string) ([]*model.UserReferral, error)
}

type LedgerRepository interface {
	GetPoints(ctx context.Context, address string) (*model.PointTotals, error)
	IncrementCounter(ctx context.Context, address, counter string, amount int) error
	MarkQuestDone(ctx context.Context, address, questID string, reward int) error
	GetUserQuests(ctx context.Context, address string) (map[string]*model.UserQuest, error)
	CheckIn(ctx context.Context, address string, at time.Time, reward int) error
	GetLastCheckIn(ctx context.Context, address string) (*time.Time, error)
	CashOut(ctx context.Context, address string, points, wagerFloor int) (*model.CashOutResult, error)
}

type ProposalRepository interface {
	CreateProposal(ctx context.Context, proposal *model.Proposal) error
	DeleteProposal(ctx context.Context, id uuid.UUID) error
	ListProposals(ctx context.Context) ([]*model.Proposal, error)
	GetProposal(ctx context.Context, id uuid.UUID) (*model.Proposal, error)
	GetVote(ctx context.Context, proposalID uuid.UUID, voter string) (*model.Vote, error)
	CastVote(ctx context.Context, vote *model.Vote) error
	LikeProposal(ctx context.Context, proposalID uuid.UUID, address string) error
	GetUserProposalState(ctx context.Context, address string) (map[uuid.UUID]bool, map[uuid.UUID]model.VoteChoice, error)
	CountProposals(ctx context.Context) (int, error)
}

type BadgeRepository interface {
	GetClaimedBadges(ctx context.Context, address string) ([]*model.UserBadge, error)
	ClaimBadge(ctx context.Context, address string, badgeID int, txHash string) error
}

// PointsCache is the redis-backed totals cache; entries are invalidated
// after every confirmed increment so dependent reads refetch.
type PointsCache interface {
	GetPoints(ctx context.Context, address string) (*model.PointTotals, bool)
	SetPoints(ctx context.Context, address string, totals *model.PointTotals) error
	InvalidatePoints(ctx context.Context, address string) error
}
