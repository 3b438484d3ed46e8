// Package settler implements the checkmate payout path of spec.md §4.5. It
// is invoked by the Lobby through the lobby.Settler interface so the Lobby
// itself stays chain-agnostic.
package settler

import (
	"context"
	"time"

	"github.com/vibechess/server/internal/lobby"
	"github.com/vibechess/server/internal/logging"
)

// callTimeout bounds the settleGame RPC, per spec.md §5's 30s default.
const callTimeout = 30 * time.Second

// ChainCaller is the subset of internal/blockchain.Client the Settler
// needs, adapted to return just the mined transaction hash.
type ChainCaller interface {
	CallContract(ctx context.Context, chainID int64, contractAddr string, method string, args ...interface{}) (txHash string, err error)
}

// GameStore is the subset of *lobby.Lobby the Settler needs to record a
// successful settlement.
type GameStore interface {
	RecordSettlement(gameID, txHash string)
	EscrowAddress(gameID string) string
}

// Settler derives the winner address and calls the escrow's settleGame.
type Settler struct {
	chain  ChainCaller
	games  GameStore
	log    *logging.Logger
}

var _ lobby.Settler = (*Settler)(nil)

// New constructs a Settler.
func New(chain ChainCaller, games GameStore) *Settler {
	return &Settler{chain: chain, games: games, log: logging.New("settler")}
}

// Settle implements lobby.Settler. Called off the lobby's lock, on its own
// goroutine per spec.md §4.5/§6 — this is fire-and-forget from the winning
// move's caller's perspective.
func (s *Settler) Settle(req lobby.SettlementRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	escrowAddr := s.games.EscrowAddress(req.GameID)

	txHash, err := s.chain.CallContract(ctx, req.ChainID, escrowAddr, "settleGame", req.GameID, req.WinnerAddress)
	if err != nil {
		// Per spec.md §4.5/§9: log and do not retry. The contract remains
		// the source of truth for funds; the next poll can reconcile.
		s.log.Printf("settlement failed for game %s (winner %s, chain %d): %v", req.GameID, req.WinnerAddress, req.ChainID, err)
		return
	}

	s.games.RecordSettlement(req.GameID, txHash)
	s.log.Printf("settled game %s: winner=%s tx=%s", req.GameID, req.WinnerAddress, txHash)
}
