package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"monad_community_portal/internal/chain"
	"monad_community_portal/internal/model"
	"monad_community_portal/internal/repository"

	"github.com/ethereum/go-ethereum/common"
)

// BadgeStatus is one milestone tier joined with the caller's progress.
type BadgeStatus struct {
	model.Badge
	Earned  bool
	Claimed bool
	TxHash  string
}

type BadgeService struct {
	repo     BadgeRepository
	ledger   *LedgerService
	registry *chain.Registry
	flowCfg  chain.FlowConfig
	contract common.Address
}

func NewBadgeService(repo BadgeRepository, ledger *LedgerService, registry *chain.Registry, flowCfg chain.FlowConfig, contract common.Address) *BadgeService {
	return &BadgeService{
		repo:     repo,
		ledger:   ledger,
		registry: registry,
		flowCfg:  flowCfg,
		contract: contract,
	}
}

// ListBadges returns every milestone tier with the caller's earned and
// claimed flags. Earned means total points at or past the milestone.
func (s *BadgeService) ListBadges(ctx context.Context, address string) ([]*BadgeStatus, error) {
	address = strings.ToLower(address)

	totals, err := s.ledger.GetPoints(ctx, address)
	if err != nil {
		return nil, err
	}

	claimed, err := s.repo.GetClaimedBadges(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get claimed badges: %w", err)
	}

	claimedByID := make(map[int]*model.UserBadge, len(claimed))
	for _, ub := range claimed {
		claimedByID[ub.BadgeID] = ub
	}

	total := totals.Total()
	statuses := make([]*BadgeStatus, len(model.BadgeMilestones))
	for i, badge := range model.BadgeMilestones {
		status := &BadgeStatus{
			Badge:  badge,
			Earned: total >= badge.Milestone,
		}
		if ub, ok := claimedByID[badge.ID]; ok {
			status.Claimed = true
			status.TxHash = ub.TxHash
		}
		statuses[i] = status
	}

	return statuses, nil
}

// Claim mints an earned badge on chain and records the claim. The earned and
// already-claimed checks run before anything is submitted.
func (s *BadgeService) Claim(ctx context.Context, wallet, address string, badgeID int) (*chain.FlowResult, error) {
	address = strings.ToLower(address)

	var badge *model.Badge
	for i := range model.BadgeMilestones {
		if model.BadgeMilestones[i].ID == badgeID {
			badge = &model.BadgeMilestones[i]
			break
		}
	}
	if badge == nil {
		return nil, ErrBadgeNotEarned
	}

	totals, err := s.ledger.GetPoints(ctx, address)
	if err != nil {
		return nil, err
	}
	if totals.Total() < badge.Milestone {
		return nil, ErrBadgeNotEarned
	}

	claimed, err := s.repo.GetClaimedBadges(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get claimed badges: %w", err)
	}
	for _, ub := range claimed {
		if ub.BadgeID == badgeID {
			return nil, ErrBadgeAlreadyClaimed
		}
	}

	provider, err := s.registry.Resolve(wallet)
	if err != nil {
		return nil, err
	}

	data, err := chain.PackClaimBadge(int64(badge.Milestone))
	if err != nil {
		return nil, fmt.Errorf("failed to encode claim call: %w", err)
	}

	target := s.contract
	flow := chain.NewFlow(provider, s.flowCfg)
	flow.OnConfirmed = func(ctx context.Context, result *chain.FlowResult) {
		err := s.repo.ClaimBadge(ctx, address, badgeID, result.TxHash.Hex())
		if err != nil && !errors.Is(err, repository.ErrAlreadyClaimed) {
			result.Err = fmt.Errorf("claim confirmed on chain but not recorded: %w", err)
		}
	}

	result := flow.Execute(ctx, chain.TxRequest{
		From: common.HexToAddress(address),
		To:   &target,
		Data: data,
	})

	if result.State != chain.StateConfirmed && !result.Cancelled && result.Err == nil {
		result.Err = ErrTransactionFailed
	}

	return result, nil
}
