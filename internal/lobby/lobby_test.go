package lobby

import (
	"sync"
	"testing"
	"time"

	"github.com/vibechess/server/internal/chessengine"
	"github.com/vibechess/server/internal/models"
)

type fakeSettler struct {
	mu   sync.Mutex
	reqs []SettlementRequest
}

func (f *fakeSettler) Settle(req SettlementRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
}

// waitForRequests polls until at least one request has arrived (settlement
// is dispatched on its own goroutine) or a second has passed, and returns a
// copy of what was received.
func (f *fakeSettler) waitForRequests() []SettlementRequest {
	deadline := time.Now().Add(time.Second)
	for {
		f.mu.Lock()
		reqs := append([]SettlementRequest(nil), f.reqs...)
		f.mu.Unlock()
		if len(reqs) > 0 || time.Now().After(deadline) {
			return reqs
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestUpsertFromCreationIsIdempotent(t *testing.T) {
	l := New(nil, nil)
	evt := CreationEvent{GameID: "g1", Owner: "0xAAA", Wager: "1000", NetworkType: models.NetworkEVM, ContractAddr: "0xEscrow"}
	l.UpsertFromCreation(evt)
	l.UpsertFromCreation(evt)

	games := l.ListAll("", "", "")
	if len(games) != 1 {
		t.Fatalf("expected exactly one game after duplicate delivery, got %d", len(games))
	}
	if games[0].Owner != "0xaaa" {
		t.Fatalf("expected owner normalized lowercase, got %q", games[0].Owner)
	}
}

func TestApplyJoinStartsGame(t *testing.T) {
	l := New(nil, nil)
	l.UpsertFromCreation(CreationEvent{GameID: "g1", Owner: "0xAAA", Wager: "1", NetworkType: models.NetworkEVM})
	l.ApplyJoin(JoinEvent{GameID: "g1", Joiner: "0xBBB"})

	game := l.GetGame("g1")
	if game.State != models.StateStarted {
		t.Fatalf("expected STARTED, got %v", game.State)
	}
	if game.ChessState == nil || game.ChessState.CurrentPlayer != chessengine.White {
		t.Fatalf("expected initial chess state with white to move")
	}
	if game.Opponent == nil || *game.Opponent != "0xbbb" {
		t.Fatalf("expected opponent normalized lowercase, got %v", game.Opponent)
	}
}

func TestApplyJoinIsNoOpWhenAlreadyStarted(t *testing.T) {
	l := New(nil, nil)
	l.UpsertFromCreation(CreationEvent{GameID: "g1", Owner: "0xAAA"})
	l.ApplyJoin(JoinEvent{GameID: "g1", Joiner: "0xBBB"})
	before := l.GetGame("g1").ChessState.FullMoveNumber

	l.ApplyJoin(JoinEvent{GameID: "g1", Joiner: "0xCCC"})
	after := l.GetGame("g1")
	if after.Opponent == nil || *after.Opponent != "0xbbb" {
		t.Fatalf("expected opponent unchanged by a second join, got %v", after.Opponent)
	}
	if after.ChessState.FullMoveNumber != before {
		t.Fatalf("expected chess state untouched by a second join")
	}
}

func TestListOpenExcludesOwnerAndNamedInvitations(t *testing.T) {
	l := New(nil, nil)
	l.UpsertFromCreation(CreationEvent{GameID: "open1", Owner: "0xAAA"})
	opp := "0xCCC"
	l.UpsertFromCreation(CreationEvent{GameID: "invite1", Owner: "0xBBB", Opponent: &opp})

	open := l.ListOpen("0xAAA")
	if len(open) != 0 {
		t.Fatalf("expected own game excluded from open list, got %d", len(open))
	}

	open = l.ListOpen("0xZZZ")
	if len(open) != 1 || open[0].ID != "open1" {
		t.Fatalf("expected exactly open1 in open list, got %+v", open)
	}

	invites := l.ListInvitations("0xccc")
	if len(invites) != 1 || invites[0].ID != "invite1" {
		t.Fatalf("expected invite1 for 0xccc, got %+v", invites)
	}
}

func TestMakeMoveRejectsNonParticipantAndWrongTurn(t *testing.T) {
	l := New(nil, nil)
	l.UpsertFromCreation(CreationEvent{GameID: "g1", Owner: "0xAAA"})
	l.ApplyJoin(JoinEvent{GameID: "g1", Joiner: "0xBBB"})

	if _, err := l.MakeMove("g1", "0xccc", chessengine.Square{Row: 6, Col: 4}, chessengine.Square{Row: 4, Col: 4}, nil); err != ErrNotParticipant {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := l.MakeMove("g1", "0xbbb", chessengine.Square{Row: 6, Col: 4}, chessengine.Square{Row: 4, Col: 4}, nil); err != ErrNotYourTurn {
		t.Fatalf("expected ErrNotYourTurn for black moving first, got %v", err)
	}
}

func TestMakeMoveFoolsMateSettlesAndDispatches(t *testing.T) {
	settler := &fakeSettler{}
	l := New(settler, nil)
	l.UpsertFromCreation(CreationEvent{GameID: "g1", Owner: "0xAAA", ChainID: int64Ptr(11155111)})
	l.ApplyJoin(JoinEvent{GameID: "g1", Joiner: "0xBBB"})

	moves := []struct {
		mover      string
		from, to   chessengine.Square
	}{
		{"0xaaa", chessengine.Square{Row: 6, Col: 5}, chessengine.Square{Row: 5, Col: 5}}, // f2f3
		{"0xbbb", chessengine.Square{Row: 1, Col: 4}, chessengine.Square{Row: 3, Col: 4}}, // e7e5
		{"0xaaa", chessengine.Square{Row: 6, Col: 6}, chessengine.Square{Row: 4, Col: 6}}, // g2g4
		{"0xbbb", chessengine.Square{Row: 0, Col: 3}, chessengine.Square{Row: 4, Col: 7}}, // Qd8h4#
	}

	var outcome *MoveOutcome
	var err error
	for _, m := range moves {
		outcome, err = l.MakeMove("g1", m.mover, m.from, m.to, nil)
		if err != nil {
			t.Fatalf("unexpected error on %v->%v: %v", m.from, m.to, err)
		}
	}

	if outcome.Game.State != models.StateSettled {
		t.Fatalf("expected SETTLED, got %v", outcome.Game.State)
	}
	if outcome.Game.Winner == nil || *outcome.Game.Winner != models.WinnerBlack {
		t.Fatalf("expected black winner, got %v", outcome.Game.Winner)
	}
	reqs := settler.waitForRequests()
	if len(reqs) != 1 {
		t.Fatalf("expected exactly one settlement request, got %d", len(reqs))
	}
	if reqs[0].WinnerAddress != "0xbbb" {
		t.Fatalf("expected winner address 0xbbb (opponent played black), got %q", reqs[0].WinnerAddress)
	}
}

func int64Ptr(v int64) *int64 { return &v }
