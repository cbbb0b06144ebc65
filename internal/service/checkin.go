package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"monad_community_portal/internal/chain"
	"monad_community_portal/internal/model"
	"monad_community_portal/internal/repository"

	"github.com/ethereum/go-ethereum/common"
)

const checkInReward = 10

// CheckInService drives the daily zero-value check-in transaction. The 24h
// window is verified before any transaction is built, and again inside the
// storage transaction when the reward lands.
type CheckInService struct {
	repo     LedgerRepository
	ledger   *LedgerService
	registry *chain.Registry
	flowCfg  chain.FlowConfig
	target   common.Address
}

func NewCheckInService(repo LedgerRepository, ledger *LedgerService, registry *chain.Registry, flowCfg chain.FlowConfig, target common.Address) *CheckInService {
	return &CheckInService{
		repo:     repo,
		ledger:   ledger,
		registry: registry,
		flowCfg:  flowCfg,
		target:   target,
	}
}

func (s *CheckInService) Status(ctx context.Context, address string) (*model.CheckInStatus, error) {
	lastCheckIn, err := s.repo.GetLastCheckIn(ctx, strings.ToLower(address))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	status := &model.CheckInStatus{
		WalletAddress: strings.ToLower(address),
		LastCheckIn:   lastCheckIn,
		IsAvailable:   true,
	}

	if lastCheckIn != nil {
		next := lastCheckIn.Add(24 * time.Hour)
		status.NextAvailable = &next
		status.IsAvailable = time.Now().UTC().After(next)
	}

	return status, nil
}

// CheckIn submits the zero-value transfer and, once confirmed, records the
// check-in and reward. A call inside the 24h window is rejected before a
// transaction is built.
func (s *CheckInService) CheckIn(ctx context.Context, wallet, address string) (*chain.FlowResult, error) {
	address = strings.ToLower(address)

	status, err := s.Status(ctx, address)
	if err != nil {
		return nil, err
	}
	if !status.IsAvailable {
		return nil, ErrCheckInNotAvailable
	}

	provider, err := s.registry.Resolve(wallet)
	if err != nil {
		return nil, err
	}

	target := s.target
	flow := chain.NewFlow(provider, s.flowCfg)
	flow.OnConfirmed = func(ctx context.Context, result *chain.FlowResult) {
		now := time.Now().UTC()
		if err := s.repo.CheckIn(ctx, address, now, checkInReward); err != nil {
			result.Err = fmt.Errorf("check-in confirmed on chain but not recorded: %w", err)
			return
		}
		s.ledger.Invalidate(ctx, address)
	}

	result := flow.Execute(ctx, chain.TxRequest{
		From:  common.HexToAddress(address),
		To:    &target,
		Value: big.NewInt(0),
	})

	if result.State != chain.StateConfirmed && !result.Cancelled && result.Err == nil {
		result.Err = ErrTransactionFailed
	}

	return result, nil
}
