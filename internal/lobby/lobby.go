// Package lobby holds the in-memory store of Game records and enforces the
// lifecycle state machine of spec.md §3. A single mutex serializes every
// read and mutation; per spec.md §5 it is never held across an RPC call —
// settlement is dispatched on its own goroutine after the lock is released.
package lobby

import (
	"strings"
	"sync"
	"time"

	"github.com/vibechess/server/internal/chessengine"
	"github.com/vibechess/server/internal/models"
)

// SettlementRequest is handed to a Settler when a game concludes by
// checkmate. The Lobby never imports internal/settler directly — it depends
// only on this callback shape, keeping chess/lifecycle logic chain-agnostic.
type SettlementRequest struct {
	GameID        string
	WinnerAddress string
	ChainID       int64
}

// Settler is invoked asynchronously, off the lobby lock, whenever a game
// settles by checkmate.
type Settler interface {
	Settle(req SettlementRequest)
}

// Notifier is invoked synchronously (still off the lobby lock) on every
// lifecycle transition a connected client might care about. Lobby never
// requires a Notifier — a nil one is a silent no-op — so HttpApi's behavior
// never depends on whether anything is subscribed.
type Notifier interface {
	GameStarted(game *models.Game)
	MoveApplied(game *models.Game, move chessengine.Move)
	GameSettled(game *models.Game)
}

// CreationEvent is the normalized form of an on-chain GameCreated event plus
// the optional opponent the poller fetched via getGame.
type CreationEvent struct {
	GameID        string
	Owner         string
	Opponent      *string
	Wager         string
	NetworkType   models.NetworkType
	ChainID       *int64
	ContractAddr  string
	CreationTx    string
	CreationBlock uint64
}

// JoinEvent is the normalized form of an on-chain GameJoined event.
type JoinEvent struct {
	GameID string
	Joiner string
}

// Stats summarizes the lobby's game counts per state.
type Stats struct {
	Created int `json:"created"`
	Waiting int `json:"waiting"`
	Started int `json:"started"`
	Settled int `json:"settled"`
}

// Lobby is the exclusive owner of every Game record.
type Lobby struct {
	mu       sync.Mutex
	games    map[string]*models.Game
	settler  Settler
	notifier Notifier
}

// New returns an empty Lobby. settler and notifier may be nil; a nil
// notifier silently drops lifecycle notifications, and a nil settler means
// checkmate settlement is skipped (only useful in tests).
func New(settler Settler, notifier Notifier) *Lobby {
	return &Lobby{
		games:    make(map[string]*models.Game),
		settler:  settler,
		notifier: notifier,
	}
}

// UpsertFromCreation idempotently inserts a Game from a GameCreated event.
// Re-delivery of an already-known gameId is a no-op, per spec.md §4.3's
// idempotency requirement.
func (l *Lobby) UpsertFromCreation(evt CreationEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.games[evt.GameID]; exists {
		return
	}

	game := &models.Game{
		ID:          evt.GameID,
		Owner:       strings.ToLower(evt.Owner),
		Wager:       evt.Wager,
		NetworkType: evt.NetworkType,
		ChainID:     evt.ChainID,
		// Every freshly-created game is WAITING for a joiner, per spec.md
		// §4.2's upsertFromCreation — CREATED is reachable only as a lifecycle
		// state the join-application and stats bookkeeping still account for.
		State: models.StateWaiting,
		CreatedAt:   time.Now(),
		Escrow: &models.Escrow{
			ContractAddress: evt.ContractAddr,
			CreationTxHash:  evt.CreationTx,
			CreationBlock:   evt.CreationBlock,
		},
	}
	if evt.Opponent != nil {
		opp := strings.ToLower(*evt.Opponent)
		game.Opponent = &opp
	}

	l.games[evt.GameID] = game
}

// ApplyJoin transitions a CREATED/WAITING game to STARTED. A second
// application (or one against a game not in that state set) is a no-op.
func (l *Lobby) ApplyJoin(evt JoinEvent) {
	var notify *models.Game

	l.mu.Lock()
	game, exists := l.games[evt.GameID]
	if exists && (game.State == models.StateCreated || game.State == models.StateWaiting) {
		opp := strings.ToLower(evt.Joiner)
		game.Opponent = &opp
		game.State = models.StateStarted
		now := time.Now()
		game.StartedAt = &now
		game.ChessState = chessengine.InitialPosition()
		notify = game.Clone()
	}
	l.mu.Unlock()

	if notify != nil && l.notifier != nil {
		l.notifier.GameStarted(notify)
	}
}

// GetGame returns a copy of the game, or nil if unknown.
func (l *Lobby) GetGame(id string) *models.Game {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.games[id].Clone()
}

// ListByOwner returns copies of every game owned by addr.
func (l *Lobby) ListByOwner(addr string) []*models.Game {
	return l.filter(func(g *models.Game) bool {
		return strings.EqualFold(g.Owner, addr)
	})
}

// ListByOpponent returns copies of every game where addr is the opponent.
func (l *Lobby) ListByOpponent(addr string) []*models.Game {
	return l.filter(func(g *models.Game) bool {
		return g.Opponent != nil && strings.EqualFold(*g.Opponent, addr)
	})
}

// ListOpen returns WAITING games with no named opponent, excluding
// excludeAddr's own games (excludeAddr == "" excludes nothing).
func (l *Lobby) ListOpen(excludeAddr string) []*models.Game {
	return l.filter(func(g *models.Game) bool {
		if g.State != models.StateWaiting || g.Opponent != nil {
			return false
		}
		if excludeAddr == "" {
			return true
		}
		return !strings.EqualFold(g.Owner, excludeAddr)
	})
}

// ListInvitations returns WAITING games where addr is the named opponent.
func (l *Lobby) ListInvitations(addr string) []*models.Game {
	return l.filter(func(g *models.Game) bool {
		return g.State == models.StateWaiting && g.Opponent != nil && strings.EqualFold(*g.Opponent, addr)
	})
}

// ListActive returns STARTED games where addr is a participant.
func (l *Lobby) ListActive(addr string) []*models.Game {
	return l.filter(func(g *models.Game) bool {
		return g.State == models.StateStarted && g.IsParticipant(addr)
	})
}

// ListSettled returns SETTLED games where addr is a participant.
func (l *Lobby) ListSettled(addr string) []*models.Game {
	return l.filter(func(g *models.Game) bool {
		return g.State == models.StateSettled && g.IsParticipant(addr)
	})
}

// ListAll returns every game, optionally filtered by state/owner/opponent.
// Empty strings mean "no filter" for that dimension.
func (l *Lobby) ListAll(state models.State, owner, opponent string) []*models.Game {
	return l.filter(func(g *models.Game) bool {
		if state != "" && g.State != state {
			return false
		}
		if owner != "" && !strings.EqualFold(g.Owner, owner) {
			return false
		}
		if opponent != "" && (g.Opponent == nil || !strings.EqualFold(*g.Opponent, opponent)) {
			return false
		}
		return true
	})
}

func (l *Lobby) filter(pred func(*models.Game) bool) []*models.Game {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*models.Game
	for _, g := range l.games {
		if pred(g) {
			out = append(out, g.Clone())
		}
	}
	return out
}

// ValidMoves returns the legal destination squares for the piece at from in
// game id, or nil if the game is unknown, not STARTED, or has no piece at
// from.
func (l *Lobby) ValidMoves(id string, from chessengine.Square) []chessengine.Square {
	l.mu.Lock()
	defer l.mu.Unlock()

	game, ok := l.games[id]
	if !ok || game.State != models.StateStarted || game.ChessState == nil {
		return nil
	}
	return chessengine.ValidMoves(game.ChessState, from)
}

// MoveOutcome describes the effect a MakeMove call had on the game,
// independent of the returned error.
type MoveOutcome struct {
	Game *models.Game
	Move chessengine.Move
}

// MakeMove applies a move on behalf of mover, after checking that mover is a
// participant and that it is mover's turn, and advances the lobby's
// lifecycle state machine: checkmate moves the game to SETTLED, records the winner, and
// dispatches a SettlementRequest to the Settler off the lock; stalemate
// moves the game to SETTLED with no winner and no settlement dispatch, per
// spec.md §4.5.
func (l *Lobby) MakeMove(id string, mover string, from, to chessengine.Square, promotion *chessengine.PieceType) (*MoveOutcome, error) {
	var (
		settleReq  *SettlementRequest
		moveNotify *models.Game
		moveRecord chessengine.Move
		settleGame *models.Game
	)

	l.mu.Lock()
	game, ok := l.games[id]
	if !ok {
		l.mu.Unlock()
		return nil, ErrGameNotFound
	}
	if game.State != models.StateStarted || game.ChessState == nil {
		l.mu.Unlock()
		return nil, ErrGameNotActive
	}
	color, isParticipant := game.ColorOf(mover)
	if !isParticipant {
		l.mu.Unlock()
		return nil, ErrNotParticipant
	}
	if color != game.ChessState.CurrentPlayer {
		l.mu.Unlock()
		return nil, ErrNotYourTurn
	}

	result, err := chessengine.MakeMove(game.ChessState, from, to, promotion)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}

	game.ChessState = result.NewState
	moveRecord = result.Move
	moveNotify = game.Clone()

	switch result.NewState.GameStatus {
	case chessengine.StatusCheckmate:
		game.State = models.StateSettled
		now := time.Now()
		game.SettledAt = &now
		winner := models.WinnerWhite
		if *result.NewState.Winner == chessengine.Black {
			winner = models.WinnerBlack
		}
		game.Winner = &winner

		// Owner always plays White and opponent always plays Black, per the
		// color assignment ApplyJoin establishes.
		winnerAddr := game.Owner
		if *result.NewState.Winner == chessengine.Black && game.Opponent != nil {
			winnerAddr = *game.Opponent
		}

		var chainID int64
		if game.ChainID != nil {
			chainID = *game.ChainID
		}
		settleReq = &SettlementRequest{GameID: game.ID, WinnerAddress: winnerAddr, ChainID: chainID}
		settleGame = game.Clone()

	case chessengine.StatusStalemate:
		game.State = models.StateSettled
		now := time.Now()
		game.SettledAt = &now
		settleGame = game.Clone()
	}

	out := &MoveOutcome{Game: game.Clone(), Move: moveRecord}
	l.mu.Unlock()

	if l.notifier != nil {
		l.notifier.MoveApplied(moveNotify, moveRecord)
		if settleGame != nil {
			l.notifier.GameSettled(settleGame)
		}
	}
	if settleReq != nil && l.settler != nil {
		go l.settler.Settle(*settleReq)
	}

	return out, nil
}

// RecordSettlement stores the mined settlement transaction hash on a game's
// escrow record. Implements settler.GameStore.
func (l *Lobby) RecordSettlement(gameID, txHash string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	game, ok := l.games[gameID]
	if !ok || game.Escrow == nil {
		return
	}
	hash := txHash
	game.Escrow.SettlementTxHash = &hash
}

// EscrowAddress returns the configured escrow contract address for a game,
// or "" if unknown. Implements settler.GameStore.
func (l *Lobby) EscrowAddress(gameID string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	game, ok := l.games[gameID]
	if !ok || game.Escrow == nil {
		return ""
	}
	return game.Escrow.ContractAddress
}

// Stats summarizes game counts per lifecycle state.
func (l *Lobby) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	var s Stats
	for _, g := range l.games {
		switch g.State {
		case models.StateCreated:
			s.Created++
		case models.StateWaiting:
			s.Waiting++
		case models.StateStarted:
			s.Started++
		case models.StateSettled:
			s.Settled++
		}
	}
	return s
}
