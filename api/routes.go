package api

import (
	"github.com/gin-gonic/gin"

	"github.com/vibechess/server/internal/authgate"
	"github.com/vibechess/server/internal/ratelimit"
)

// WebSocketHandler is the subset of *wsbroadcast.Hub routes need, kept as
// an interface so api never imports wsbroadcast directly.
type WebSocketHandler interface {
	HandleWebSocket(c *gin.Context)
}

// SetupRoutes wires the endpoint surface of spec.md §6.1. limiter may be
// nil to disable rate limiting (used in tests).
func SetupRoutes(handler *Handler, gate *authgate.Gate, limiter *ratelimit.Limiter, ws WebSocketHandler) *gin.Engine {
	router := gin.Default()

	router.Use(CORSMiddleware())
	if limiter != nil {
		router.Use(limiter.Middleware())
	}

	router.GET("/health", handler.HealthCheck)

	games := router.Group("/api/games")
	{
		games.GET("", handler.ListGames)
		games.GET("/open", handler.ListOpen)
		games.GET("/active", handler.ListActive)
		games.GET("/invitations", handler.ListInvitations)
		games.GET("/settled", handler.ListSettled)
		games.GET("/stats", handler.Stats)
		games.GET("/:id", handler.GetGame)
		games.GET("/:id/chess", handler.GetChessState)

		games.GET("/:id/chess/valid-moves/:row/:col", gate.Middleware(), handler.ValidMoves)
		games.POST("/:id/chess/move", gate.Middleware(), handler.MakeMove)

		if ws != nil {
			games.GET("/:id/ws", ws.HandleWebSocket)
		}
	}

	return router
}
