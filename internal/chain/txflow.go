package chain

import (
	"context"
	"time"

	"monad_community_portal/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type FlowState string

const (
	StateIdle              FlowState = "idle"
	StateSimulating        FlowState = "simulating"
	StateAwaitingSignature FlowState = "awaiting_signature"
	StatePending           FlowState = "pending"
	StateConfirmed         FlowState = "confirmed"
	StateFailed            FlowState = "failed"
)

// FlowResult is the terminal outcome of one transaction flow run. Cancelled
// marks a user rejection, which is terminal but not an error.
type FlowResult struct {
	State     FlowState
	TxHash    common.Hash
	Receipt   *ethtypes.Receipt
	Cancelled bool
	Err       error
}

type FlowConfig struct {
	ReceiptTimeout time.Duration
	PollInterval   time.Duration
}

func DefaultFlowConfig() FlowConfig {
	return FlowConfig{
		ReceiptTimeout: 45 * time.Second,
		PollInterval:   2 * time.Second,
	}
}

// Flow drives one transaction through
// idle -> simulating -> awaiting_signature -> pending -> confirmed | failed.
// OnConfirmed runs after a successful receipt, before Execute returns; the
// ledger update and cache invalidation hang off it.
type Flow struct {
	provider    Provider
	cfg         FlowConfig
	OnConfirmed func(ctx context.Context, result *FlowResult)
}

func NewFlow(provider Provider, cfg FlowConfig) *Flow {
	if cfg.ReceiptTimeout == 0 {
		cfg = DefaultFlowConfig()
	}
	return &Flow{provider: provider, cfg: cfg}
}

// Execute runs the full state machine for one request. The returned
// FlowResult is always terminal; a retry simply calls Execute again.
func (f *Flow) Execute(ctx context.Context, req TxRequest) *FlowResult {
	log := logger.Logger()

	// simulating: dry-run before asking for a signature.
	_, err := f.provider.CallContract(ctx, req.callMsg())
	if err != nil {
		classified := Classify(err)
		log.Info("transaction simulation failed", zap.Error(classified))
		return &FlowResult{State: StateFailed, Err: classified}
	}

	// awaiting_signature: sign and broadcast.
	hash, err := f.provider.SendTransaction(ctx, req)
	if err != nil {
		classified := Classify(err)
		if errors.Is(classified, ErrUserCancelled) {
			return &FlowResult{State: StateFailed, Cancelled: true}
		}
		log.Info("transaction broadcast failed", zap.Error(classified))
		return &FlowResult{State: StateFailed, Err: classified}
	}

	// pending: poll for the receipt until confirmed or given up. The
	// transaction may still land after the timeout; it is not tracked.
	receipt, err := f.waitForReceipt(ctx, hash)
	if err != nil {
		return &FlowResult{State: StateFailed, TxHash: hash, Err: err}
	}

	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return &FlowResult{
			State:   StateFailed,
			TxHash:  hash,
			Receipt: receipt,
			Err:     &RevertError{},
		}
	}

	result := &FlowResult{State: StateConfirmed, TxHash: hash, Receipt: receipt}
	if f.OnConfirmed != nil {
		f.OnConfirmed(ctx, result)
	}

	log.Info("transaction confirmed", zap.String("tx_hash", hash.Hex()))
	return result
}

func (f *Flow) waitForReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	deadline := time.NewTimer(f.cfg.ReceiptTimeout)
	defer deadline.Stop()

	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := f.provider.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrConnectionTimeout
		case <-ticker.C:
		}
	}
}
