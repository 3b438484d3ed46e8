// Package api is the thin HTTP adapter of spec.md §4.7: it validates
// request shapes, delegates to the Lobby, and serializes responses under
// the {success, data?, error?} envelope of spec.md §6.1. It is adapted
// from the teacher's api.Handler, trading the teacher's user/game-record
// CRUD surface for the read-and-move surface this spec defines.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vibechess/server/internal/authgate"
	"github.com/vibechess/server/internal/chessengine"
	"github.com/vibechess/server/internal/lobby"
	"github.com/vibechess/server/internal/models"
)

// Handler holds the collaborators every endpoint delegates to.
type Handler struct {
	lobby  *lobby.Lobby
	chain  Connectivity
	poller PollerStatus
}

// Connectivity is the subset of internal/blockchain.Client the health
// endpoint needs.
type Connectivity interface {
	ValidateConnectivity(ctx context.Context) map[int64]bool
}

// PollerStatus reports whether the EventPoller is currently running, for
// /health.
type PollerStatus interface {
	Running() bool
}

// NewHandler constructs a Handler. chain and poller may be nil; /health
// omits the corresponding fields in that case (useful in tests).
func NewHandler(lob *lobby.Lobby, chain Connectivity, poller PollerStatus) *Handler {
	return &Handler{lobby: lob, chain: chain, poller: poller}
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// statusForLobbyErr maps internal/lobby sentinel errors to the taxonomy of
// spec.md §7.
func statusForLobbyErr(err error) (int, string) {
	switch {
	case errors.Is(err, lobby.ErrGameNotFound):
		return http.StatusNotFound, "game not found"
	case errors.Is(err, lobby.ErrGameNotActive):
		return http.StatusBadRequest, "game is not in progress"
	case errors.Is(err, lobby.ErrNotParticipant):
		return http.StatusForbidden, "caller is not a participant in this game"
	case errors.Is(err, lobby.ErrNotYourTurn):
		return http.StatusBadRequest, "it is not the caller's turn"
	case errors.Is(err, chessengine.ErrEmptySquare),
		errors.Is(err, chessengine.ErrWrongColor),
		errors.Is(err, chessengine.ErrIllegalMove),
		errors.Is(err, chessengine.ErrCapturesKing):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "unexpected error"
	}
}

// HealthCheck reports liveness, per-chain RPC connectivity, and whether
// the EventPoller is running, per spec.md §6.1.
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status": "healthy",
	}
	if h.chain != nil {
		body["chains"] = h.chain.ValidateConnectivity(c.Request.Context())
	}
	if h.poller != nil {
		body["pollerRunning"] = h.poller.Running()
	}
	c.JSON(http.StatusOK, body)
}

// ListGames handles GET /api/games.
func (h *Handler) ListGames(c *gin.Context) {
	state := models.State(c.Query("state"))
	owner := c.Query("owner")
	opponent := c.Query("opponent")
	ok(c, h.lobby.ListAll(state, owner, opponent))
}

// ListOpen handles GET /api/games/open.
func (h *Handler) ListOpen(c *gin.Context) {
	ok(c, h.lobby.ListOpen(c.Query("excludeUser")))
}

// ListActive handles GET /api/games/active.
func (h *Handler) ListActive(c *gin.Context) {
	user := c.Query("user")
	if user == "" {
		fail(c, http.StatusBadRequest, "user query parameter is required")
		return
	}
	ok(c, h.lobby.ListActive(user))
}

// ListInvitations handles GET /api/games/invitations.
func (h *Handler) ListInvitations(c *gin.Context) {
	ok(c, h.lobby.ListInvitations(c.Query("user")))
}

// ListSettled handles GET /api/games/settled.
func (h *Handler) ListSettled(c *gin.Context) {
	ok(c, h.lobby.ListSettled(c.Query("userAddress")))
}

// Stats handles GET /api/games/stats.
func (h *Handler) Stats(c *gin.Context) {
	ok(c, h.lobby.Stats())
}

// GetGame handles GET /api/games/:id.
func (h *Handler) GetGame(c *gin.Context) {
	game := h.lobby.GetGame(c.Param("id"))
	if game == nil {
		fail(c, http.StatusNotFound, "game not found")
		return
	}
	ok(c, game)
}

// GetChessState handles GET /api/games/:id/chess.
func (h *Handler) GetChessState(c *gin.Context) {
	game := h.lobby.GetGame(c.Param("id"))
	if game == nil {
		fail(c, http.StatusNotFound, "game not found")
		return
	}
	if game.ChessState == nil {
		fail(c, http.StatusNotFound, "game has not started")
		return
	}
	ok(c, game.ChessState)
}

func parseCoord(raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 || v > 7 {
		return 0, errors.New("coordinate must be an integer in [0,7]")
	}
	return v, nil
}

// ValidMoves handles GET /api/games/:id/chess/valid-moves/:row/:col.
// Authenticated: the caller must be a participant and it must be their
// turn, per spec.md §6.1.
func (h *Handler) ValidMoves(c *gin.Context) {
	caller, _ := authgate.Caller(c)

	row, err := parseCoord(c.Param("row"))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	col, err := parseCoord(c.Param("col"))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	game := h.lobby.GetGame(c.Param("id"))
	if game == nil {
		fail(c, http.StatusNotFound, "game not found")
		return
	}
	if game.State != models.StateStarted || game.ChessState == nil {
		fail(c, http.StatusBadRequest, "game is not in progress")
		return
	}
	if !game.IsParticipant(caller) {
		fail(c, http.StatusForbidden, "caller is not a participant in this game")
		return
	}
	color, _ := game.ColorOf(caller)
	if color != game.ChessState.CurrentPlayer {
		fail(c, http.StatusBadRequest, "it is not the caller's turn")
		return
	}

	moves := h.lobby.ValidMoves(c.Param("id"), chessengine.Square{Row: row, Col: col})
	ok(c, moves)
}

// moveRequestSquare mirrors chessengine.Square's JSON shape for request
// binding.
type moveRequestSquare struct {
	Row int `json:"row" binding:"min=0,max=7"`
	Col int `json:"col" binding:"min=0,max=7"`
}

// MakeMoveRequest is the body of POST /api/games/:id/chess/move. From/To
// have no top-level "required" tag: go-playground/validator's required
// check fails a zero-value struct, and {row:0,col:0} (the a8 corner) is a
// legitimate square — the nested min=0,max=7 tags already bound the
// coordinates.
type MakeMoveRequest struct {
	From           moveRequestSquare      `json:"from"`
	To             moveRequestSquare      `json:"to"`
	PromotionPiece *chessengine.PieceType `json:"promotionPiece,omitempty"`
}

// MakeMove handles POST /api/games/:id/chess/move.
func (h *Handler) MakeMove(c *gin.Context) {
	caller, ok2 := authgate.Caller(c)
	if !ok2 {
		fail(c, http.StatusUnauthorized, "missing caller identity")
		return
	}

	var req MakeMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	from := chessengine.Square{Row: req.From.Row, Col: req.From.Col}
	to := chessengine.Square{Row: req.To.Row, Col: req.To.Col}

	outcome, err := h.lobby.MakeMove(c.Param("id"), caller, from, to, req.PromotionPiece)
	if err != nil {
		status, msg := statusForLobbyErr(err)
		fail(c, status, msg)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"move":      outcome.Move,
		"gameState": outcome.Game,
	})
}
