// Package config loads this server's runtime configuration from the
// environment, per spec.md §6.3. The teacher references a pkg/config
// package (cfg := config.Load() in cmd/server/main.go) without shipping one
// in the retrieved tree; this rebuilds it in the same typed-struct,
// os.Getenv shape.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EscrowConfig names one chain's deployed escrow contract and RPC endpoint.
type EscrowConfig struct {
	ChainID int64
	RPCURL  string
	Address string
}

// Config is the server's full runtime configuration.
type Config struct {
	AppPort string

	PrivyAppID     string
	PrivyAppSecret string

	// JWTSecret backs the local JWTVerifier standing in for the identity
	// provider's token mechanics (see internal/authgate).
	JWTSecret string

	Mnemonic string

	SepoliaRPCURL     string
	BaseSepoliaRPCURL string

	Escrows []EscrowConfig

	// PrimaryChainID names which configured chain the EventPoller watches,
	// per spec.md §4.3's "single chain" scope.
	PrimaryChainID int64

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Default chain IDs for the two RPC endpoints spec.md §6.3 names.
const (
	SepoliaChainID     int64 = 11155111
	BaseSepoliaChainID int64 = 84532
)

// Load populates Config from the environment. Callers are expected to have
// already called godotenv.Load() for local .env support, matching the
// teacher's cmd/server/main.go.
func Load() (*Config, error) {
	cfg := &Config{
		AppPort:           getEnv("APP_PORT", "8181"),
		PrivyAppID:        os.Getenv("PRIVY_APP_ID"),
		PrivyAppSecret:    os.Getenv("PRIVY_APP_SECRET"),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret-change-me"),
		Mnemonic:          os.Getenv("MNEMONIC"),
		SepoliaRPCURL:     os.Getenv("SEPOLIA_RPC_URL"),
		BaseSepoliaRPCURL: os.Getenv("BASE_SEPOLIA_RPC_URL"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = db
	}

	if cfg.Mnemonic == "" {
		return nil, fmt.Errorf("config: MNEMONIC is required")
	}

	if cfg.SepoliaRPCURL != "" {
		cfg.Escrows = append(cfg.Escrows, EscrowConfig{
			ChainID: SepoliaChainID,
			RPCURL:  cfg.SepoliaRPCURL,
			Address: os.Getenv("SEPOLIA_ESCROW_ADDRESS"),
		})
	}
	if cfg.BaseSepoliaRPCURL != "" {
		cfg.Escrows = append(cfg.Escrows, EscrowConfig{
			ChainID: BaseSepoliaChainID,
			RPCURL:  cfg.BaseSepoliaRPCURL,
			Address: os.Getenv("BASE_SEPOLIA_ESCROW_ADDRESS"),
		})
	}
	if len(cfg.Escrows) == 0 {
		return nil, fmt.Errorf("config: at least one of SEPOLIA_RPC_URL / BASE_SEPOLIA_RPC_URL must be set")
	}

	primary := strings.TrimSpace(os.Getenv("PRIMARY_CHAIN_ID"))
	if primary != "" {
		id, err := strconv.ParseInt(primary, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PRIMARY_CHAIN_ID %q: %w", primary, err)
		}
		cfg.PrimaryChainID = id
	} else {
		cfg.PrimaryChainID = cfg.Escrows[0].ChainID
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
