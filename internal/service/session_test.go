package service

import (
	"context"
	"math/big"
	"testing"
	"time"

	"monad_community_portal/internal/chain"
	"monad_community_portal/internal/model"
	"monad_community_portal/internal/repository"
	"monad_community_portal/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testNetwork() chain.ChainDescriptor {
	return chain.ChainDescriptor{
		ChainID:        big.NewInt(10143),
		Name:           "Monad Testnet",
		RPCURL:         "https://testnet-rpc.monad.xyz",
		CurrencySymbol: "MON",
		Decimals:       18,
	}
}

func newSessionManager(provider *fakeProvider) (*SessionManager, *mocks.MockProfileRepository) {
	registry := chain.NewRegistry()
	if provider != nil {
		registry.Register(provider)
	}
	profiles := &mocks.MockProfileRepository{}
	return NewSessionManager(registry, profiles, testNetwork(), time.Second), profiles
}

func TestSessionManager_Connect(t *testing.T) {
	const address = "0xabc0000000000000000000000000000000000001"

	t.Run("Creates a profile on first connect", func(t *testing.T) {
		provider := newFakeProvider("metamask")
		sm, profiles := newSessionManager(provider)

		profiles.On("GetProfileByAddress", mock.Anything, address).
			Return(nil, repository.ErrNotFound)
		profiles.On("CreateProfile", mock.Anything, mock.MatchedBy(func(p *model.UserProfile) bool {
			return p.WalletAddress == address && p.ReferredBy == nil
		})).Return(nil)

		session, err := sm.Connect(context.Background(), "metamask", "")
		assert.NoError(t, err)
		assert.Equal(t, StatusConnected, session.Status)
		assert.Equal(t, address, session.Address)

		profiles.AssertExpectations(t)
	})

	t.Run("Connecting twice yields one session and one profile", func(t *testing.T) {
		provider := newFakeProvider("metamask")
		sm, profiles := newSessionManager(provider)

		profiles.On("GetProfileByAddress", mock.Anything, address).
			Return(nil, repository.ErrNotFound).Once()
		profiles.On("CreateProfile", mock.Anything, mock.Anything).Return(nil).Once()

		first, err := sm.Connect(context.Background(), "metamask", "")
		assert.NoError(t, err)

		second, err := sm.Connect(context.Background(), "metamask", "")
		assert.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		profiles.AssertExpectations(t)
	})

	t.Run("Referral code from an existing user credits the referrer once", func(t *testing.T) {
		provider := newFakeProvider("metamask")
		sm, profiles := newSessionManager(provider)
		referrer := "0xreferrer"

		profiles.On("GetProfileByAddress", mock.Anything, address).
			Return(nil, repository.ErrNotFound)
		profiles.On("ReferrerExists", mock.Anything, referrer).Return(true, nil)
		profiles.On("CreateProfile", mock.Anything, mock.MatchedBy(func(p *model.UserProfile) bool {
			return p.ReferredBy != nil && *p.ReferredBy == referrer
		})).Return(nil)
		profiles.On("CreditReferrer", mock.Anything, referrer).Return(nil).Once()

		_, err := sm.Connect(context.Background(), "metamask", "0xREFERRER")
		assert.NoError(t, err)

		profiles.AssertExpectations(t)
	})

	t.Run("Existing profile never re-credits the referrer", func(t *testing.T) {
		provider := newFakeProvider("metamask")
		sm, profiles := newSessionManager(provider)
		referrer := "0xreferrer"

		profiles.On("GetProfileByAddress", mock.Anything, address).
			Return(nil, repository.ErrNotFound)
		profiles.On("ReferrerExists", mock.Anything, referrer).Return(true, nil)
		profiles.On("CreateProfile", mock.Anything, mock.Anything).
			Return(repository.ErrProfileExists)

		_, err := sm.Connect(context.Background(), "metamask", referrer)
		assert.NoError(t, err)

		profiles.AssertNotCalled(t, "CreditReferrer", mock.Anything, mock.Anything)
	})

	t.Run("Self-referral is ignored", func(t *testing.T) {
		provider := newFakeProvider("metamask")
		sm, profiles := newSessionManager(provider)

		profiles.On("GetProfileByAddress", mock.Anything, address).
			Return(nil, repository.ErrNotFound)
		profiles.On("CreateProfile", mock.Anything, mock.MatchedBy(func(p *model.UserProfile) bool {
			return p.ReferredBy == nil
		})).Return(nil)

		_, err := sm.Connect(context.Background(), "metamask", address)
		assert.NoError(t, err)

		profiles.AssertNotCalled(t, "ReferrerExists", mock.Anything, mock.Anything)
		profiles.AssertExpectations(t)
	})

	t.Run("Unknown wallet", func(t *testing.T) {
		sm, _ := newSessionManager(nil)

		_, err := sm.Connect(context.Background(), "phantom", "")
		assert.ErrorIs(t, err, chain.ErrUnknownWallet)
	})

	t.Run("User rejection", func(t *testing.T) {
		provider := newFakeProvider("metamask")
		provider.accountsErr = &walletRejection{}
		sm, _ := newSessionManager(provider)

		_, err := sm.Connect(context.Background(), "metamask", "")
		assert.ErrorIs(t, err, ErrUserCancelled)
	})

	t.Run("No accounts", func(t *testing.T) {
		provider := newFakeProvider("metamask")
		provider.accounts = nil
		sm, _ := newSessionManager(provider)

		_, err := sm.Connect(context.Background(), "metamask", "")
		assert.ErrorIs(t, err, chain.ErrNoAccounts)
	})
}

type walletRejection struct{}

func (e *walletRejection) Error() string  { return "user rejected the request" }
func (e *walletRejection) ErrorCode() int { return 4001 }

func TestSessionManager_DisconnectAndRedirect(t *testing.T) {
	const address = "0xabc0000000000000000000000000000000000001"

	provider := newFakeProvider("metamask")
	sm, profiles := newSessionManager(provider)

	profiles.On("GetProfileByAddress", mock.Anything, address).
		Return(&model.UserProfile{WalletAddress: address}, nil)

	session, err := sm.Connect(context.Background(), "metamask", "")
	assert.NoError(t, err)

	assert.False(t, sm.ShouldRedirect(session.ID))

	sm.Disconnect(session.ID)

	got, ok := sm.Get(session.ID)
	assert.True(t, ok)
	assert.Equal(t, StatusDisconnected, got.Status)
	assert.Empty(t, got.Address)

	// The redirect fires exactly once.
	assert.True(t, sm.ShouldRedirect(session.ID))
	assert.False(t, sm.ShouldRedirect(session.ID))
}

func TestSessionManager_AccountsChanged(t *testing.T) {
	const address = "0xabc0000000000000000000000000000000000001"

	provider := newFakeProvider("metamask")
	sm, profiles := newSessionManager(provider)

	profiles.On("GetProfileByAddress", mock.Anything, address).
		Return(&model.UserProfile{WalletAddress: address}, nil)

	session, err := sm.Connect(context.Background(), "metamask", "")
	assert.NoError(t, err)

	sm.applyAccountsChanged("metamask", []string{"0xDEF0000000000000000000000000000000000002"})

	got, _ := sm.Get(session.ID)
	assert.Equal(t, "0xdef0000000000000000000000000000000000002", got.Address)
	assert.Equal(t, StatusConnected, got.Status)

	// An empty account list means the wallet locked or disconnected.
	sm.applyAccountsChanged("metamask", nil)
	got, _ = sm.Get(session.ID)
	assert.Equal(t, StatusDisconnected, got.Status)
}
