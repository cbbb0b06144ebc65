package api

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"monad_community_portal/internal/chain"
	"monad_community_portal/internal/service"
	"monad_community_portal/internal/service/mocks"
	"monad_community_portal/pkg/auth"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestTransactionError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedBody []string
	}{
		{
			name:         "Insufficient funds carries the faucet link",
			err:          chain.ErrInsufficientFunds,
			expectedCode: http.StatusBadGateway,
			expectedBody: []string{"insufficient funds", faucetURL},
		},
		{
			name:         "Revert carries the decoded reason",
			err:          &chain.RevertError{Reason: "bet already placed"},
			expectedCode: http.StatusBadGateway,
			expectedBody: []string{"execution reverted", "bet already placed"},
		},
		{
			name:         "Revert without a reason",
			err:          &chain.RevertError{},
			expectedCode: http.StatusBadGateway,
			expectedBody: []string{"execution reverted"},
		},
		{
			name:         "Timeout is flagged retryable",
			err:          chain.ErrConnectionTimeout,
			expectedCode: http.StatusGatewayTimeout,
			expectedBody: []string{"retryable"},
		},
		{
			name:         "Unclassified failure",
			err:          errors.New("nonce too low"),
			expectedCode: http.StatusBadGateway,
			expectedBody: []string{"transaction failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			transactionError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			for _, fragment := range tt.expectedBody {
				assert.Contains(t, w.Body.String(), fragment)
			}
		})
	}
}

// brokeProvider simulates fine but has no funds to broadcast with.
type brokeProvider struct{}

func (p *brokeProvider) Name() string { return "broke" }

func (p *brokeProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	return []string{"0xabc"}, nil
}

func (p *brokeProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(10143), nil
}

func (p *brokeProvider) SwitchChain(ctx context.Context, chainID *big.Int) error { return nil }

func (p *brokeProvider) AddChain(ctx context.Context, desc chain.ChainDescriptor) error { return nil }

func (p *brokeProvider) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (p *brokeProvider) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return nil, nil
}

func (p *brokeProvider) SendTransaction(ctx context.Context, req chain.TxRequest) (common.Hash, error) {
	return common.Hash{}, errors.New("insufficient funds for gas * price + value")
}

func (p *brokeProvider) TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	return nil, ethereum.NotFound
}

func (p *brokeProvider) Events() <-chan chain.Event { return nil }

func TestCheckInHandler_SurfacesTransactionFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := &mocks.MockLedgerRepository{}
	cache := &mocks.MockPointsCache{}
	ledger := service.NewLedgerService(repo, cache)

	registry := chain.NewRegistry()
	registry.Register(&brokeProvider{})

	cs := service.NewCheckInService(repo, ledger, registry, chain.FlowConfig{
		ReceiptTimeout: 100 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
	}, common.Address{})

	repo.On("GetLastCheckIn", mock.Anything, "0xabc").Return(nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/checkin/", strings.NewReader(`{"wallet":"broke"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(auth.AddressKey, "0xabc")

	r := &checkInRoutes{cs: cs}
	r.CheckIn(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), faucetURL)
}
