package blockchain

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vibechess/server/internal/eventpoller"
	"github.com/vibechess/server/internal/models"
)

// EscrowReader implements eventpoller.EscrowSource against the single
// configured escrow contract, per spec.md §4.3's "single chain" scope.
type EscrowReader struct {
	client  *Client
	chainID int64
}

// NewEscrowReader binds a reader to the chain the EventPoller watches.
func NewEscrowReader(client *Client, chainID int64) *EscrowReader {
	return &EscrowReader{client: client, chainID: chainID}
}

var _ eventpoller.EscrowSource = (*EscrowReader)(nil)

// CurrentBlock reads the chain head.
func (r *EscrowReader) CurrentBlock(ctx context.Context) (uint64, error) {
	client, _, err := r.client.clientFor(r.chainID)
	if err != nil {
		return 0, err
	}
	return client.BlockNumber(ctx)
}

// QueryGameCreated filters GameCreated logs in (fromExclusive, to].
func (r *EscrowReader) QueryGameCreated(ctx context.Context, fromExclusive, to uint64) ([]eventpoller.GameCreated, error) {
	logs, err := r.filterLogs(ctx, fromExclusive, to, "GameCreated")
	if err != nil {
		return nil, err
	}

	var out []eventpoller.GameCreated
	for _, l := range logs {
		values, err := r.client.escrowABI.Unpack("GameCreated", l.Data)
		if err != nil {
			return nil, fmt.Errorf("blockchain: unpacking GameCreated: %w", err)
		}
		gameID, ok := values[0].(string)
		if !ok {
			return nil, fmt.Errorf("blockchain: GameCreated.gameId decode failed")
		}
		wager, ok := values[1].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("blockchain: GameCreated.wagerAmount decode failed")
		}
		if len(l.Topics) < 3 {
			return nil, fmt.Errorf("blockchain: GameCreated missing indexed topics")
		}
		creator := common.HexToAddress(l.Topics[2].Hex())

		out = append(out, eventpoller.GameCreated{
			GameID:      gameID,
			Creator:     creator.Hex(),
			Wager:       wager.String(),
			ChainID:     r.chainID,
			TxHash:      l.TxHash.Hex(),
			BlockNumber: l.BlockNumber,
		})
	}
	return out, nil
}

// QueryGameJoined filters GameJoined logs in (fromExclusive, to].
func (r *EscrowReader) QueryGameJoined(ctx context.Context, fromExclusive, to uint64) ([]eventpoller.GameJoined, error) {
	logs, err := r.filterLogs(ctx, fromExclusive, to, "GameJoined")
	if err != nil {
		return nil, err
	}

	var out []eventpoller.GameJoined
	for _, l := range logs {
		values, err := r.client.escrowABI.Unpack("GameJoined", l.Data)
		if err != nil {
			return nil, fmt.Errorf("blockchain: unpacking GameJoined: %w", err)
		}
		gameID, ok := values[0].(string)
		if !ok {
			return nil, fmt.Errorf("blockchain: GameJoined.gameId decode failed")
		}
		if len(l.Topics) < 3 {
			return nil, fmt.Errorf("blockchain: GameJoined missing indexed topics")
		}
		joiner := common.HexToAddress(l.Topics[2].Hex())

		out = append(out, eventpoller.GameJoined{
			GameID: gameID,
			Joiner: joiner.Hex(),
		})
	}
	return out, nil
}

func (r *EscrowReader) filterLogs(ctx context.Context, fromExclusive, to uint64, eventName string) ([]types.Log, error) {
	client, cfg, err := r.client.clientFor(r.chainID)
	if err != nil {
		return nil, err
	}

	topic := r.client.escrowABI.Events[eventName].ID
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromExclusive + 1),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{common.HexToAddress(cfg.EscrowAddress)},
		Topics:    [][]common.Hash{{topic}},
	}

	logs, err := client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("blockchain: filtering %s logs: %w", eventName, err)
	}
	return logs, nil
}

// getGameResult mirrors the escrow ABI's getGame return tuple.
type getGameResult struct {
	Creator     common.Address
	Opponent    common.Address
	WagerAmount *big.Int
	Settled     bool
}

// GetGame fetches the optional named opponent for a created game, per
// spec.md §4.3/§9: the GameCreated event does not carry it.
func (r *EscrowReader) GetGame(ctx context.Context, gameID string) (eventpoller.ContractGame, error) {
	bound, _, cfg, err := r.client.boundEscrow(r.chainID)
	if err != nil {
		return eventpoller.ContractGame{}, err
	}

	// A non-empty results slice routes bind.Call's output through
	// abi.UnpackIntoInterface rather than the generic abi.Unpack, which is
	// what lets the tuple decode into our named getGameResult instead of a
	// reflect-generated anonymous struct.
	var result getGameResult
	out := []interface{}{&result}
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, "getGame", gameID); err != nil {
		return eventpoller.ContractGame{}, fmt.Errorf("blockchain: getGame(%s): %w", gameID, err)
	}

	var opponent *string
	if result.Opponent != (common.Address{}) {
		hex := result.Opponent.Hex()
		opponent = &hex
	}

	return eventpoller.ContractGame{
		Opponent:        opponent,
		ContractAddress: cfg.EscrowAddress,
		NetworkType:     models.NetworkEVM,
	}, nil
}
