package service

import (
	"context"
	"math/big"

	"monad_community_portal/internal/chain"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// fakeProvider is a happy-path wallet: one account, right chain, every
// transaction confirms immediately. Tests flip individual fields to force
// the failure they need.
type fakeProvider struct {
	name        string
	accounts    []string
	accountsErr error
	chainID     *big.Int
	sendErr     error
	events      chan chain.Event
}

func newFakeProvider(name string) *fakeProvider {
	return &fakeProvider{
		name:     name,
		accounts: []string{"0xAbC0000000000000000000000000000000000001"},
		chainID:  big.NewInt(10143),
		events:   make(chan chain.Event, 4),
	}
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	if p.accountsErr != nil {
		return nil, p.accountsErr
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return p.accounts, nil
}

func (p *fakeProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(p.chainID), nil
}

func (p *fakeProvider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	p.chainID = new(big.Int).Set(chainID)
	return nil
}

func (p *fakeProvider) AddChain(ctx context.Context, desc chain.ChainDescriptor) error {
	p.chainID = new(big.Int).Set(desc.ChainID)
	return nil
}

func (p *fakeProvider) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (p *fakeProvider) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return nil, nil
}

func (p *fakeProvider) SendTransaction(ctx context.Context, req chain.TxRequest) (common.Hash, error) {
	if p.sendErr != nil {
		return common.Hash{}, p.sendErr
	}
	return common.HexToHash("0xfeed"), nil
}

func (p *fakeProvider) TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	return &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful}, nil
}

func (p *fakeProvider) Events() <-chan chain.Event {
	return p.events
}
