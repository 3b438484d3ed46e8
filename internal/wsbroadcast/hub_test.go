package wsbroadcast

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vibechess/server/internal/models"
)

func TestPublishMessageIsNoOpWithNoSubscribers(t *testing.T) {
	h := NewHub()
	go h.Run()

	// No room exists yet for "g1"; publishing must not block or panic.
	h.GameStarted(&models.Game{ID: "g1", Owner: "0xaaa"})
}

func TestGameStartedFansOutToRoomSubscribers(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := &client{id: uuid.New(), gameID: "g1", send: make(chan []byte, 1)}
	h.register <- c

	// Give the Run loop's select a chance to process the registration
	// before publishing, since register/publish are separate channels.
	time.Sleep(10 * time.Millisecond)

	h.GameStarted(&models.Game{ID: "g1", Owner: "0xaaa"})

	select {
	case raw := <-c.send:
		var got Message
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("unmarshalling pushed message: %v", err)
		}
		if got.Type != MessageTypeGameStarted {
			t.Fatalf("expected game_started, got %s", got.Type)
		}
		if got.GameID != "g1" {
			t.Fatalf("expected gameId g1, got %s", got.GameID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pushed message")
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := &client{id: uuid.New(), gameID: "g1", send: make(chan []byte, 1)}
	h.register <- c
	time.Sleep(10 * time.Millisecond)

	h.unregister <- c
	time.Sleep(10 * time.Millisecond)

	if _, ok := <-c.send; ok {
		t.Fatal("expected send channel to be closed after unregister")
	}
}
