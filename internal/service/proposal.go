package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"monad_community_portal/internal/chain"
	"monad_community_portal/internal/model"
	"monad_community_portal/internal/repository"
	"monad_community_portal/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Seed proposals written on first read of an empty collection.
var demoProposals = []model.Proposal{
	{Author: "CatLord", Title: "Decentralized Node Hub", Content: "Deploy validator nodes."},
	{Author: "PurrMaster", Title: "DeFi Incubator", Content: "Fund DeFi development."},
	{Author: "WhiskerWizard", Title: "Cross-Chain Bridge", Content: "Connect Monad to other chains."},
}

type ProposalService struct {
	repo        ProposalRepository
	ledger      *LedgerService
	registry    *chain.Registry
	flowCfg     chain.FlowConfig
	voteTarget  common.Address
	adminWallet string
}

func NewProposalService(repo ProposalRepository, ledger *LedgerService, registry *chain.Registry, flowCfg chain.FlowConfig, voteTarget common.Address, adminWallet string) *ProposalService {
	return &ProposalService{
		repo:        repo,
		ledger:      ledger,
		registry:    registry,
		flowCfg:     flowCfg,
		voteTarget:  voteTarget,
		adminWallet: strings.ToLower(adminWallet),
	}
}

// ListProposals returns all proposals newest first, joined with the
// requesting user's like and vote state. An empty collection is seeded with
// the demo set first.
func (s *ProposalService) ListProposals(ctx context.Context, address string) ([]*model.ProposalStatus, error) {
	address = strings.ToLower(address)

	count, err := s.repo.CountProposals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count proposals: %w", err)
	}
	if count == 0 {
		s.seedDemoProposals(ctx)
	}

	proposals, err := s.repo.ListProposals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	likes, votes, err := s.repo.GetUserProposalState(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get user proposal state: %w", err)
	}

	statuses := make([]*model.ProposalStatus, len(proposals))
	for i, p := range proposals {
		status := &model.ProposalStatus{
			Proposal:    *p,
			LikedByUser: likes[p.ID],
		}
		if choice, ok := votes[p.ID]; ok {
			c := choice
			status.UserVote = &c
		}
		statuses[i] = status
	}

	return statuses, nil
}

func (s *ProposalService) seedDemoProposals(ctx context.Context) {
	log := logger.Logger()
	now := time.Now().UTC()

	for i, demo := range demoProposals {
		p := demo
		p.ID = uuid.New()
		p.CreatedAt = now.Add(-time.Duration(i) * 24 * time.Hour)
		if err := s.repo.CreateProposal(ctx, &p); err != nil {
			log.Warn("failed to seed demo proposal", zap.String("title", p.Title), zap.Error(err))
		}
	}
}

func (s *ProposalService) CreateProposal(ctx context.Context, author string, proposal *model.Proposal) error {
	if strings.ToLower(author) != s.adminWallet {
		return ErrNotAdmin
	}

	proposal.ID = uuid.New()
	proposal.Author = "Admin"
	proposal.CreatedAt = time.Now().UTC()

	if err := s.repo.CreateProposal(ctx, proposal); err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}
	return nil
}

func (s *ProposalService) DeleteProposal(ctx context.Context, requester string, id uuid.UUID) error {
	if strings.ToLower(requester) != s.adminWallet {
		return ErrNotAdmin
	}

	err := s.repo.DeleteProposal(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProposalNotFound
		}
		return fmt.Errorf("failed to delete proposal: %w", err)
	}
	return nil
}

// LikeProposal appends the caller to the proposal's like set. A second like
// is a silent no-op.
func (s *ProposalService) LikeProposal(ctx context.Context, address string, id uuid.UUID) error {
	err := s.repo.LikeProposal(ctx, id, strings.ToLower(address))
	if err != nil && !errors.Is(err, repository.ErrAlreadyLiked) {
		return fmt.Errorf("failed to like proposal: %w", err)
	}
	return nil
}

// Vote casts an on-chain vote and records it with the points credit. The
// duplicate check runs before anything is submitted to the chain, so a
// repeat vote never costs a second transaction.
func (s *ProposalService) Vote(ctx context.Context, wallet, address string, id uuid.UUID, choice model.VoteChoice) (*chain.FlowResult, error) {
	address = strings.ToLower(address)

	proposal, err := s.repo.GetProposal(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, err
	}

	_, err = s.repo.GetVote(ctx, id, address)
	if err == nil {
		return nil, ErrAlreadyVoted
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	provider, err := s.registry.Resolve(wallet)
	if err != nil {
		return nil, err
	}

	data, err := chain.PackVote(choice == model.VoteYes, int64(proposal.OnChainIndex))
	if err != nil {
		return nil, fmt.Errorf("failed to encode vote call: %w", err)
	}

	target := s.voteTarget
	flow := chain.NewFlow(provider, s.flowCfg)
	flow.OnConfirmed = func(ctx context.Context, result *chain.FlowResult) {
		vote := &model.Vote{
			ProposalID: id,
			Voter:      address,
			Choice:     choice,
			TxHash:     result.TxHash.Hex(),
			CastAt:     time.Now().UTC(),
		}
		if err := s.repo.CastVote(ctx, vote); err != nil {
			if errors.Is(err, repository.ErrAlreadyVoted) {
				result.Err = ErrAlreadyVoted
				return
			}
			result.Err = fmt.Errorf("vote confirmed on chain but not recorded: %w", err)
			return
		}
		s.ledger.Invalidate(ctx, address)
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
