package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"monad_community_portal/internal/chain"
	"monad_community_portal/internal/model"
	"monad_community_portal/internal/repository"
	"monad_community_portal/pkg/auth"
	"monad_community_portal/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type SessionStatus string

const (
	StatusResolving    SessionStatus = "resolving"
	StatusConnected    SessionStatus = "connected"
	StatusDisconnected SessionStatus = "disconnected"
)

// Session tracks one wallet connection. The redirect flag is one-shot so a
// flapping status cannot bounce the client between routes.
type Session struct {
	ID        uuid.UUID
	Address   string
	Wallet    string
	Status    SessionStatus
	CreatedAt time.Time

	redirected bool
}

// SessionManager owns all sessions and is the only mutator of their state.
type SessionManager struct {
	registry       *chain.Registry
	profiles       ProfileRepository
	network        chain.ChainDescriptor
	connectTimeout time.Duration

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewSessionManager(registry *chain.Registry, profiles ProfileRepository, network chain.ChainDescriptor, connectTimeout time.Duration) *SessionManager {
	if connectTimeout == 0 {
		connectTimeout = 30 * time.Second
	}
	return &SessionManager{
		registry:       registry,
		profiles:       profiles,
		network:        network,
		connectTimeout: connectTimeout,
		sessions:       make(map[uuid.UUID]*Session),
	}
}

// Connect resolves the named wallet adapter, verifies the network, derives
// the signer address and lazily creates the profile. Connecting a wallet
// that is already connected returns the existing session unchanged, so no
// second profile is ever created.
func (m *SessionManager) Connect(ctx context.Context, wallet, refCode string) (*Session, error) {
	log := logger.Logger()

	provider, err := m.registry.Resolve(wallet)
	if err != nil {
		return nil, err
	}

	if err := chain.EnsureChain(ctx, provider, m.network); err != nil {
		return nil, err
	}

	session := &Session{
		ID:        uuid.New(),
		Wallet:    wallet,
		Status:    StatusResolving,
		CreatedAt: time.Now().UTC(),
	}

	accountCtx, cancel := context.WithTimeout(ctx, m.connectTimeout)
	defer cancel()

	accounts, err := provider.RequestAccounts(accountCtx)
	if err != nil {
		classified := chain.Classify(err)
		switch {
		case errors.Is(classified, chain.ErrUserCancelled):
			return nil, ErrUserCancelled
		case errors.Is(err, context.DeadlineExceeded):
			return nil, ErrConnectionTimeout
		default:
			return nil, classified
		}
	}
	if len(accounts) == 0 {
		return nil, chain.ErrNoAccounts
	}

	address := strings.ToLower(accounts[0])

	if existing := m.findByAddress(address); existing != nil {
		return existing, nil
	}

	if err := m.ensureProfile(ctx, address, refCode); err != nil {
		return nil, err
	}

	session.Address = address
	session.Status = StatusConnected

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	log.Info("wallet connected",
		zap.String("address", address),
		zap.String("wallet", wallet))

	return session, nil
}

func (m *SessionManager) ensureProfile(ctx context.Context, address, refCode string) error {
	_, err := m.profiles.GetProfileByAddress(ctx, address)
	if err == nil {
		return nil
	}

	profile := &model.UserProfile{
		WalletAddress: address,
		CreatedAt:     time.Now().UTC(),
	}

	if refCode != "" {
		referrer := strings.ToLower(refCode)
		if referrer != address {
			exists, err := m.profiles.ReferrerExists(ctx, referrer)
			if err != nil {
				return err
			}
			if exists {
				profile.ReferredBy = &referrer
			}
		}
	}

	err = m.profiles.CreateProfile(ctx, profile)
	if err != nil {
		if errors.Is(err, repository.ErrProfileExists) {
			return nil
		}
		return err
	}

	// The reward is paid only when the insert actually happened, so a
	// referrer is never credited twice for one address.
	if profile.ReferredBy != nil {
		if err := m.profiles.CreditReferrer(ctx, *profile.ReferredBy); err != nil {
			logger.Logger().Warn("failed to credit referrer",
				zap.String("referrer", *profile.ReferredBy),
				zap.Error(err))
		}
	}
	return nil
}

// SessionState exposes the auth view of a session.
func (m *SessionManager) SessionState(id uuid.UUID) (auth.SessionState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return auth.SessionState{}, false
	}
	return auth.SessionState{Address: s.Address, Status: string(s.Status)}, true
}

func (m *SessionManager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *SessionManager) findByAddress(address string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.Address == address && s.Status == StatusConnected {
			return s
		}
	}
	return nil
}

func (m *SessionManager) Disconnect(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.Status = StatusDisconnected
		s.Address = ""
	}
}

// ShouldRedirect reports whether a disconnected session should be sent to
// the landing route. It fires at most once per session.
func (m *SessionManager) ShouldRedirect(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return true
	}
	if s.Status != StatusDisconnected || s.redirected {
		return false
	}
	s.redirected = true
	return true
}

// WatchEvents applies wallet account and chain change notifications to the
// sessions bound to that wallet. Runs until ctx is cancelled.
func (m *SessionManager) WatchEvents(ctx context.Context, provider chain.Provider) {
	log := logger.Logger()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-provider.Events():
			if !ok {
				return
			}
			switch event.Type {
			case chain.EventAccountsChanged:
				m.applyAccountsChanged(provider.Name(), event.Accounts)
			case chain.EventChainChanged:
				if event.ChainID.Cmp(m.network.ChainID) != 0 {
					if err := chain.EnsureChain(ctx, provider, m.network); err != nil {
						log.Warn("chain remediation failed",
							zap.String("wallet", provider.Name()),
							zap.Error(err))
					}
				}
			}
		}
	}
}

func (m *SessionManager) applyAccountsChanged(wallet string, accounts []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sessions {
		if s.Wallet != wallet {
			continue
		}
		if len(accounts) == 0 {
			s.Status = StatusDisconnected
			s.Address = ""
			continue
		}
		s.Address = strings.ToLower(accounts[0])
		s.Status = StatusConnected
	}
}
