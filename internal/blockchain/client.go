// Package blockchain is the chain-aware RPC facade described in spec.md
// §4.4. It wraps go-ethereum's ethclient per configured chain and owns the
// server's one HD signing key, derived once at startup from a BIP-39
// mnemonic — grounded on the wider retrieval pack's Ethereum-client
// manifests (the teacher repo has no blockchain code of its own).
package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/vibechess/server/internal/logging"
)

// ErrUnsupportedChain is returned for any operation against a chainId with
// no configured RPC endpoint, per spec.md §4.4.
var ErrUnsupportedChain = errors.New("blockchain: unsupported chainId")

// ChainConfig names the RPC endpoint and escrow contract for one chain.
type ChainConfig struct {
	ChainID         int64
	RPCURL          string
	EscrowAddress   string
}

// Client is the per-chain RPC facade. Clients are constructed lazily and
// cached; the HD signer is shared across every chain.
type Client struct {
	configs map[int64]ChainConfig
	signer  *Signer
	log     *logging.Logger
	escrowABI abi.ABI

	mu      sync.Mutex
	clients map[int64]*ethclient.Client
}

// New builds a Client. mnemonic derives the single settler key via the
// default Ethereum HD path (m/44'/60'/0'/0/0).
func New(configs []ChainConfig, mnemonic string) (*Client, error) {
	signer, err := NewSigner(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("blockchain: deriving signer: %w", err)
	}

	escrowABI, err := abi.JSON(strings.NewReader(escrowABIJSON))
	if err != nil {
		return nil, fmt.Errorf("blockchain: parsing escrow ABI: %w", err)
	}

	byChain := make(map[int64]ChainConfig, len(configs))
	for _, c := range configs {
		byChain[c.ChainID] = c
	}

	return &Client{
		configs:   byChain,
		signer:    signer,
		log:       logging.New("blockchain"),
		escrowABI: escrowABI,
		clients:   make(map[int64]*ethclient.Client),
	}, nil
}

// SettlerAddress is the address authorized on the escrow contract to call
// settleGame.
func (c *Client) SettlerAddress() common.Address {
	return c.signer.Address()
}

func (c *Client) clientFor(chainID int64) (*ethclient.Client, ChainConfig, error) {
	cfg, ok := c.configs[chainID]
	if !ok {
		return nil, ChainConfig{}, ErrUnsupportedChain
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.clients[chainID]; ok {
		return existing, cfg, nil
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, ChainConfig{}, fmt.Errorf("blockchain: dialing chain %d: %w", chainID, err)
	}
	c.clients[chainID] = client
	return client, cfg, nil
}

// GetBalance returns the wei balance of addr on chainID.
func (c *Client) GetBalance(ctx context.Context, addr string, chainID int64) (*big.Int, error) {
	client, _, err := c.clientFor(chainID)
	if err != nil {
		return nil, err
	}
	return client.BalanceAt(ctx, common.HexToAddress(addr), nil)
}

// GetPendingNonce returns addr's next usable nonce on chainID.
func (c *Client) GetPendingNonce(ctx context.Context, addr string, chainID int64) (uint64, error) {
	client, _, err := c.clientFor(chainID)
	if err != nil {
		return 0, err
	}
	return client.PendingNonceAt(ctx, common.HexToAddress(addr))
}

// BroadcastSigned submits a pre-signed transaction and returns its hash.
func (c *Client) BroadcastSigned(ctx context.Context, tx *types.Transaction, chainID int64) (string, error) {
	client, _, err := c.clientFor(chainID)
	if err != nil {
		return "", err
	}
	if err := client.SendTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("blockchain: broadcasting tx: %w", err)
	}
	return tx.Hash().Hex(), nil
}

// receiptPollInterval is how often WaitForReceipt re-checks for a mined
// transaction; go-ethereum's own bind.WaitMined uses the same interval.
const receiptPollInterval = 1 * time.Second

// WaitForReceipt blocks until txHash is mined or ctx is done.
func (c *Client) WaitForReceipt(ctx context.Context, txHash string, chainID int64) (*types.Receipt, error) {
	client, _, err := c.clientFor(chainID)
	if err != nil {
		return nil, err
	}
	hash := common.HexToHash(txHash)

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()
	for {
		receipt, err := client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// CallContract builds, signs, broadcasts, and waits for a settleGame (or any
// escrow method) call using the server's one HD signer.
func (c *Client) CallContract(ctx context.Context, chainID int64, contractAddr string, method string, args ...interface{}) (*types.Receipt, error) {
	client, cfg, err := c.clientFor(chainID)
	if err != nil {
		return nil, err
	}
	if contractAddr == "" {
		contractAddr = cfg.EscrowAddress
	}

	abiMethod, ok := c.escrowABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("blockchain: unknown method %s", method)
	}
	packedArgs := convertABIArgs(abiMethod, args)

	calldata, err := c.escrowABI.Pack(method, packedArgs...)
	if err != nil {
		return nil, fmt.Errorf("blockchain: encoding %s calldata: %w", method, err)
	}

	nonce, err := client.PendingNonceAt(ctx, c.signer.Address())
	if err != nil {
		return nil, fmt.Errorf("blockchain: fetching nonce: %w", err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("blockchain: fetching gas price: %w", err)
	}
	to := common.HexToAddress(contractAddr)

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(0),
		Gas:      300000,
		GasPrice: gasPrice,
		Data:     calldata,
	})

	signedTx, err := c.signer.Sign(tx, big.NewInt(chainID))
	if err != nil {
		return nil, fmt.Errorf("blockchain: signing tx: %w", err)
	}
	if err := client.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("blockchain: broadcasting %s: %w", method, err)
	}

	return bind.WaitMined(ctx, client, signedTx)
}

// convertABIArgs adapts caller-supplied Go values to the kind abi.Pack
// expects for each input, per the contract method's declared signature.
// Callers (internal/settler) pass addresses as plain hex strings; go-ethereum's
// abi.Pack type-checks an "address" input against common.Address (a [20]byte
// array kind), not string, so a bare string argument for an address parameter
// would otherwise fail Pack's type check for every call.
func convertABIArgs(method abi.Method, args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		if i < len(method.Inputs) && method.Inputs[i].Type.T == abi.AddressTy {
			if s, ok := a.(string); ok {
				out[i] = common.HexToAddress(s)
				continue
			}
		}
		out[i] = a
	}
	return out
}

// CallContractHash adapts CallContract to the internal/settler.ChainCaller
// shape, returning just the mined transaction hash.
func (c *Client) CallContractHash(ctx context.Context, chainID int64, contractAddr string, method string, args ...interface{}) (string, error) {
	receipt, err := c.CallContract(ctx, chainID, contractAddr, method, args...)
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

// ValidateConnectivity reports, per configured chain, whether an
// eth_blockNumber call currently succeeds.
func (c *Client) ValidateConnectivity(ctx context.Context) map[int64]bool {
	out := make(map[int64]bool, len(c.configs))
	for chainID := range c.configs {
		client, _, err := c.clientFor(chainID)
		if err != nil {
			out[chainID] = false
			continue
		}
		_, err = client.BlockNumber(ctx)
		out[chainID] = err == nil
	}
	return out
}

// boundEscrow returns a bound contract instance for log queries and view
// calls, wired through the same ethclient used for writes.
func (c *Client) boundEscrow(chainID int64) (*bind.BoundContract, *ethclient.Client, ChainConfig, error) {
	client, cfg, err := c.clientFor(chainID)
	if err != nil {
		return nil, nil, ChainConfig{}, err
	}
	addr := common.HexToAddress(cfg.EscrowAddress)
	return bind.NewBoundContract(addr, c.escrowABI, client, client, client), client, cfg, nil
}
