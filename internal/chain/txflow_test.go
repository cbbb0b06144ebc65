package chain

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// stubProvider scripts every call so each flow path can be forced.
type stubProvider struct {
	name         string
	chainID      *big.Int
	accounts     []string
	callErr      error
	sendErr      error
	sendHash     common.Hash
	receipt      *ethtypes.Receipt
	receiptErr   error
	switchErr    error
	addErr       error
	chainIDs     []*big.Int // consumed by successive ChainID calls
	switchCalls  int
	addCalls     int
	receiptPolls int
	events       chan Event
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	return s.accounts, nil
}

func (s *stubProvider) ChainID(ctx context.Context) (*big.Int, error) {
	if len(s.chainIDs) > 0 {
		id := s.chainIDs[0]
		s.chainIDs = s.chainIDs[1:]
		return id, nil
	}
	return s.chainID, nil
}

func (s *stubProvider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	s.switchCalls++
	return s.switchErr
}

func (s *stubProvider) AddChain(ctx context.Context, desc ChainDescriptor) error {
	s.addCalls++
	return s.addErr
}

func (s *stubProvider) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (s *stubProvider) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return nil, s.callErr
}

func (s *stubProvider) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	if s.sendErr != nil {
		return common.Hash{}, s.sendErr
	}
	return s.sendHash, nil
}

func (s *stubProvider) TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	s.receiptPolls++
	if s.receiptErr != nil {
		return nil, s.receiptErr
	}
	return s.receipt, nil
}

func (s *stubProvider) Events() <-chan Event {
	if s.events == nil {
		s.events = make(chan Event)
	}
	return s.events
}

type codedError struct {
	code int
	msg  string
}

func (e *codedError) Error() string  { return e.msg }
func (e *codedError) ErrorCode() int { return e.code }

func fastFlowConfig() FlowConfig {
	return FlowConfig{
		ReceiptTimeout: 100 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
	}
}

func TestFlow_Execute(t *testing.T) {
	hash := common.HexToHash("0xabc123")

	tests := []struct {
		name          string
		provider      *stubProvider
		expectedState FlowState
		cancelled     bool
		expectedErr   error
	}{
		{
			name: "Confirmed",
			provider: &stubProvider{
				sendHash: hash,
				receipt:  &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful},
			},
			expectedState: StateConfirmed,
		},
		{
			name: "Simulation failure",
			provider: &stubProvider{
				callErr: errors.New("execution reverted"),
			},
			expectedState: StateFailed,
		},
		{
			name: "User rejection is terminal but not an error",
			provider: &stubProvider{
				sendErr: &codedError{code: CodeUserRejected, msg: "user denied"},
			},
			expectedState: StateFailed,
			cancelled:     true,
		},
		{
			name: "Insufficient funds at broadcast",
			provider: &stubProvider{
				sendErr: errors.New("insufficient funds for gas * price + value"),
			},
			expectedState: StateFailed,
			expectedErr:   ErrInsufficientFunds,
		},
		{
			name: "Receipt never appears",
			provider: &stubProvider{
				sendHash:   hash,
				receiptErr: errors.New("not found"),
			},
			expectedState: StateFailed,
			expectedErr:   ErrConnectionTimeout,
		},
		{
			name: "Reverted receipt",
			provider: &stubProvider{
				sendHash: hash,
				receipt:  &ethtypes.Receipt{Status: ethtypes.ReceiptStatusFailed},
			},
			expectedState: StateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := NewFlow(tt.provider, fastFlowConfig())
			result := flow.Execute(context.Background(), TxRequest{})

			assert.Equal(t, tt.expectedState, result.State)
			assert.Equal(t, tt.cancelled, result.Cancelled)

			if tt.cancelled {
				assert.NoError(t, result.Err)
				return
			}
			if tt.expectedErr != nil {
				assert.ErrorIs(t, result.Err, tt.expectedErr)
			}
			if tt.expectedState == StateFailed {
				assert.Error(t, result.Err)
			}
		})
	}
}

func TestFlow_OnConfirmedRunsBeforeReturn(t *testing.T) {
	hash := common.HexToHash("0xdeadbeef")
	provider := &stubProvider{
		sendHash: hash,
		receipt:  &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful},
	}

	flow := NewFlow(provider, fastFlowConfig())

	var hookHash common.Hash
	flow.OnConfirmed = func(ctx context.Context, result *FlowResult) {
		hookHash = result.TxHash
	}

	result := flow.Execute(context.Background(), TxRequest{})

	assert.Equal(t, StateConfirmed, result.State)
	assert.Equal(t, hash, hookHash)
}

func TestFlow_RetryAfterFailureSucceeds(t *testing.T) {
	provider := &stubProvider{
		sendErr: &codedError{code: CodeUserRejected, msg: "user denied"},
	}

	flow := NewFlow(provider, fastFlowConfig())
	first := flow.Execute(context.Background(), TxRequest{})
	assert.True(t, first.Cancelled)

	provider.sendErr = nil
	provider.sendHash = common.HexToHash("0x01")
	provider.receipt = &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful}

	second := flow.Execute(context.Background(), TxRequest{})
	assert.Equal(t, StateConfirmed, second.State)
	assert.False(t, second.Cancelled)
}
