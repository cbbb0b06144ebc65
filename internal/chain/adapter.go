package chain

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

var ErrUnknownWallet = errors.New("unknown wallet")

// ChainDescriptor is the registration payload handed to a wallet that does
// not know the target chain yet.
type ChainDescriptor struct {
	ChainID        *big.Int
	Name           string
	RPCURL         string
	ExplorerURL    string
	CurrencyName   string
	CurrencySymbol string
	Decimals       int
}

// TxRequest is a chain-agnostic transaction to sign and broadcast. A nil To
// is a contract creation, which this portal never issues.
type TxRequest struct {
	From     common.Address
	To       *common.Address
	Value    *big.Int
	Data     []byte
	GasLimit uint64
}

func (r TxRequest) callMsg() ethereum.CallMsg {
	return ethereum.CallMsg{
		From:  r.From,
		To:    r.To,
		Value: r.Value,
		Data:  r.Data,
		Gas:   r.GasLimit,
	}
}

type EventType string

const (
	EventAccountsChanged EventType = "accounts_changed"
	EventChainChanged    EventType = "chain_changed"
)

type Event struct {
	Type     EventType
	Accounts []string
	ChainID  *big.Int
}

// Provider is the common capability surface over a wallet flavor. Adapters
// are selected from the registry by explicit name, never by property
// sniffing on the raw provider object.
type Provider interface {
	Name() string
	RequestAccounts(ctx context.Context) ([]string, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SwitchChain(ctx context.Context, chainID *big.Int) error
	AddChain(ctx context.Context, desc ChainDescriptor) error
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error)
	Events() <-chan Event
}

// Registry holds the named provider adapters.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

func (r *Registry) Resolve(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownWallet, name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnsureChain verifies the provider's active chain id against the expected
// one. On mismatch it issues exactly one switch-or-add sequence and
// re-verifies; if the chain is still wrong the caller gets
// ErrNetworkMismatch and must not submit a transaction.
func EnsureChain(ctx context.Context, p Provider, desc ChainDescriptor) error {
	chainID, err := p.ChainID(ctx)
	if err != nil {
		return Classify(err)
	}
	if chainID.Cmp(desc.ChainID) == 0 {
		return nil
	}

	err = p.SwitchChain(ctx, desc.ChainID)
	if err != nil {
		if !errors.Is(Classify(err), ErrUnknownChain) {
			return ErrNetworkMismatch
		}
		if err := p.AddChain(ctx, desc); err != nil {
			return ErrNetworkMismatch
		}
	}

	chainID, err = p.ChainID(ctx)
	if err != nil {
		return Classify(err)
	}
	if chainID.Cmp(desc.ChainID) != 0 {
		return ErrNetworkMismatch
	}

	return nil
}
