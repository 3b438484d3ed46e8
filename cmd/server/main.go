package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/vibechess/server/api"
	"github.com/vibechess/server/internal/authgate"
	"github.com/vibechess/server/internal/blockchain"
	"github.com/vibechess/server/internal/eventpoller"
	"github.com/vibechess/server/internal/lobby"
	"github.com/vibechess/server/internal/ratelimit"
	"github.com/vibechess/server/internal/settler"
	"github.com/vibechess/server/internal/wsbroadcast"
	"github.com/vibechess/server/pkg/config"
)

// chainCallerAdapter satisfies settler.ChainCaller by delegating to
// blockchain.Client's receipt-returning CallContract under the narrower
// method name the Settler depends on.
type chainCallerAdapter struct {
	client *blockchain.Client
}

func (a chainCallerAdapter) CallContract(ctx context.Context, chainID int64, contractAddr, method string, args ...interface{}) (string, error) {
	return a.client.CallContractHash(ctx, chainID, contractAddr, method, args...)
}

// deferredSettler breaks the construction cycle between Lobby (which takes
// its Settler at New time) and Settler (which takes the Lobby as its
// GameStore): the Lobby is built first against this box, then the real
// Settler is dropped in once it exists.
type deferredSettler struct {
	inner lobby.Settler
}

func (d *deferredSettler) Settle(req lobby.SettlementRequest) {
	if d.inner != nil {
		d.inner.Settle(req)
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	escrowConfigs := make([]blockchain.ChainConfig, 0, len(cfg.Escrows))
	for _, e := range cfg.Escrows {
		escrowConfigs = append(escrowConfigs, blockchain.ChainConfig{
			ChainID:       e.ChainID,
			RPCURL:        e.RPCURL,
			EscrowAddress: e.Address,
		})
	}

	chain, err := blockchain.New(escrowConfigs, cfg.Mnemonic)
	if err != nil {
		log.Fatalf("Failed to initialize blockchain client: %v", err)
	}

	connCtx, connCancel := context.WithTimeout(context.Background(), 30*time.Second)
	connectivity := chain.ValidateConnectivity(connCtx)
	connCancel()
	for chainID, reachable := range connectivity {
		log.Printf("chain %d reachable: %v", chainID, reachable)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	limiter := ratelimit.New(redisClient, 120, time.Minute)

	hub := wsbroadcast.NewHub()
	go hub.Run()

	settlerBox := &deferredSettler{}
	lob := lobby.New(settlerBox, hub)
	settlerBox.inner = settler.New(chainCallerAdapter{client: chain}, lob)

	escrowReader := blockchain.NewEscrowReader(chain, cfg.PrimaryChainID)

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	startBlock, err := escrowReader.CurrentBlock(startCtx)
	startCancel()
	if err != nil {
		log.Fatalf("Failed to read starting block: %v", err)
	}

	poller := eventpoller.New(escrowReader, lob, startBlock)
	poller.Start()

	gate := authgate.New(authgate.NewJWTVerifier(cfg.JWTSecret))
	handler := api.NewHandler(lob, chain, poller)
	router := api.SetupRoutes(handler, gate, limiter, hub)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("shutting down")
	poller.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("error during server shutdown: %v", err)
	}
}
