package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"monad_community_portal/pkg/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// providerError mimics an EIP-1193 coded error so Classify treats server-side
// adapters the same as browser wallets.
type providerError struct {
	code int
	msg  string
}

func (e *providerError) Error() string  { return e.msg }
func (e *providerError) ErrorCode() int { return e.code }

// RPCProvider is the server-side wallet flavor: it talks to a JSON-RPC
// endpoint directly and signs with the operator key. Chain switching swaps
// the active endpoint; a chain with no registered endpoint behaves like an
// unknown chain on a browser wallet.
type RPCProvider struct {
	name    string
	key     *ecdsa.PrivateKey
	address common.Address

	mu        sync.RWMutex
	client    *ethclient.Client
	chainID   *big.Int
	endpoints map[string]string // chain id (decimal string) -> rpc url
	events    chan Event
}

func NewRPCProvider(name, rpcURL string, privateKeyHex string) (*RPCProvider, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}

	chainID, err := client.ChainID(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read chain id: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid operator key: %w", err)
	}

	p := &RPCProvider{
		name:      name,
		key:       key,
		address:   crypto.PubkeyToAddress(key.PublicKey),
		client:    client,
		chainID:   chainID,
		endpoints: map[string]string{chainID.String(): rpcURL},
		events:    make(chan Event, 8),
	}

	logger.Logger().Info("rpc provider ready",
		zap.String("name", name),
		zap.String("chain_id", chainID.String()),
		zap.String("address", p.address.Hex()))

	return p, nil
}

func (p *RPCProvider) Name() string { return p.name }

func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	return []string{strings.ToLower(p.address.Hex())}, nil
}

func (p *RPCProvider) ChainID(ctx context.Context) (*big.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.chainID), nil
}

func (p *RPCProvider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.chainID.Cmp(chainID) == 0 {
		return nil
	}

	url, ok := p.endpoints[chainID.String()]
	if !ok {
		return &providerError{code: CodeUnknownChain, msg: "unrecognized chain id " + chainID.String()}
	}

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to dial endpoint for chain %s: %w", chainID, err)
	}

	p.client.Close()
	p.client = client
	p.chainID = new(big.Int).Set(chainID)

	select {
	case p.events <- Event{Type: EventChainChanged, ChainID: new(big.Int).Set(chainID)}:
	default:
	}

	return nil
}

func (p *RPCProvider) AddChain(ctx context.Context, desc ChainDescriptor) error {
	p.mu.Lock()
	p.endpoints[desc.ChainID.String()] = desc.RPCURL
	p.mu.Unlock()

	return p.SwitchChain(ctx, desc.ChainID)
}

func (p *RPCProvider) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()
	return client.BalanceAt(ctx, account, nil)
}

func (p *RPCProvider) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()
	return client.CallContract(ctx, msg, nil)
}

func (p *RPCProvider) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	p.mu.RLock()
	client := p.client
	chainID := new(big.Int).Set(p.chainID)
	p.mu.RUnlock()

	nonce, err := client.PendingNonceAt(ctx, p.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		gasLimit, err = client.EstimateGas(ctx, req.callMsg())
		if err != nil {
			return common.Hash{}, err
		}
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       req.To,
		Value:    req.Value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     req.Data,
	})

	signedTx, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(chainID), p.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, err
	}

	return signedTx.Hash(), nil
}

func (p *RPCProvider) TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()
	return client.TransactionReceipt(ctx, hash)
}

func (p *RPCProvider) Events() <-chan Event {
	return p.events
}

func (p *RPCProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client.Close()
}
