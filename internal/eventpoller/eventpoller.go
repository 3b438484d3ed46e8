// Package eventpoller drives the Lobby from on-chain facts. It is grounded
// on the teacher's MatchmakingService.Start()/processMatchmaking ticker
// loop (internal/lobby/matchmaking.go), generalized with an in-flight guard
// the teacher's always-fire ticker lacks.
package eventpoller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vibechess/server/internal/lobby"
	"github.com/vibechess/server/internal/logging"
	"github.com/vibechess/server/internal/models"
)

// Interval is the poll period.
const Interval = 2 * time.Second

// callTimeout bounds every outbound RPC issued while processing one tick.
const callTimeout = 30 * time.Second

// GameCreated is the normalized form of the on-chain event of the same name.
type GameCreated struct {
	GameID      string
	Creator     string
	Wager       string
	ChainID     int64
	TxHash      string
	BlockNumber uint64
}

// GameJoined is the normalized form of the on-chain event of the same name.
type GameJoined struct {
	GameID string
	Joiner string
	Wager  string
}

// ContractGame is what getGame(gameId) returns — only the fields the poller
// needs to compensate for GameCreated not carrying the optional opponent.
type ContractGame struct {
	Opponent        *string
	ContractAddress string
	NetworkType     models.NetworkType
}

// EscrowSource is the on-chain read surface the poller depends on. A
// concrete implementation lives in internal/blockchain; tests supply a fake.
type EscrowSource interface {
	CurrentBlock(ctx context.Context) (uint64, error)
	QueryGameCreated(ctx context.Context, fromExclusive, to uint64) ([]GameCreated, error)
	QueryGameJoined(ctx context.Context, fromExclusive, to uint64) ([]GameJoined, error)
	GetGame(ctx context.Context, gameID string) (ContractGame, error)
}

// LobbyTarget is the subset of *lobby.Lobby the poller writes to.
type LobbyTarget interface {
	UpsertFromCreation(evt lobby.CreationEvent)
	ApplyJoin(evt lobby.JoinEvent)
}

// Poller runs the ticker loop described in spec.md §4.3.
type Poller struct {
	source  EscrowSource
	target  LobbyTarget
	log     *logging.Logger
	lastBlock uint64
	inFlight  atomic.Bool
	running   atomic.Bool

	stop chan struct{}
	done chan struct{}
}

// New constructs a Poller. Call Start to begin ticking; lastBlock should be
// the chain's current block at construction time (spec.md §4.3:
// "Initialize lastProcessedBlock := currentBlock()").
func New(source EscrowSource, target LobbyTarget, startBlock uint64) *Poller {
	return &Poller{
		source:    source,
		target:    target,
		log:       logging.New("poller"),
		lastBlock: startBlock,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the background ticker goroutine. It returns immediately.
func (p *Poller) Start() {
	p.running.Store(true)
	go func() {
		defer close(p.done)
		defer p.running.Store(false)
		ticker := time.NewTicker(Interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.tick()
			}
		}
	}()
}

// Running reports whether the ticker goroutine is currently active, for
// /health.
func (p *Poller) Running() bool {
	return p.running.Load()
}

// Stop signals the ticker loop to exit and blocks until it has.
func (p *Poller) Stop() {
	close(p.stop)
	<-p.done
}

// tick skips entirely if the previous tick is still running, per spec.md
// §5's "no overlap" requirement.
func (p *Poller) tick() {
	if !p.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer p.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	current, err := p.source.CurrentBlock(ctx)
	if err != nil {
		p.log.Printf("failed to read current block: %v", err)
		return
	}
	if current <= p.lastBlock {
		return
	}

	if err := p.processRange(ctx, p.lastBlock, current); err != nil {
		p.log.Printf("failed to process range (%d, %d]: %v; will retry next tick", p.lastBlock, current, err)
		return
	}

	p.lastBlock = current
}

// processRange handles one (fromExclusive, to] window, creations before
// joins, per spec.md §4.3's ordering requirement.
func (p *Poller) processRange(ctx context.Context, fromExclusive, to uint64) error {
	created, err := p.source.QueryGameCreated(ctx, fromExclusive, to)
	if err != nil {
		return err
	}
	joined, err := p.source.QueryGameJoined(ctx, fromExclusive, to)
	if err != nil {
		return err
	}

	for _, evt := range created {
		p.processCreation(ctx, evt)
	}
	for _, evt := range joined {
		p.target.ApplyJoin(lobby.JoinEvent{GameID: evt.GameID, Joiner: evt.Joiner})
	}

	return nil
}

// processCreation fetches the optional named opponent via getGame, per
// spec.md §9's "opponent extraction at creation" open question: a failed
// getGame call falls back to treating the game as open.
func (p *Poller) processCreation(ctx context.Context, evt GameCreated) {
	var opponent *string
	contractAddr := ""
	networkType := models.NetworkEVM

	game, err := p.source.GetGame(ctx, evt.GameID)
	if err != nil {
		p.log.Printf("getGame(%s) failed, treating as open: %v", evt.GameID, err)
	} else {
		opponent = game.Opponent
		contractAddr = game.ContractAddress
		if game.NetworkType != "" {
			networkType = game.NetworkType
		}
	}

	chainID := evt.ChainID
	p.target.UpsertFromCreation(lobby.CreationEvent{
		GameID:        evt.GameID,
		Owner:         evt.Creator,
		Opponent:      opponent,
		Wager:         evt.Wager,
		NetworkType:   networkType,
		ChainID:       &chainID,
		ContractAddr:  contractAddr,
		CreationTx:    evt.TxHash,
		CreationBlock: evt.BlockNumber,
	})
}
