package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_PORT", "PRIVY_APP_ID", "PRIVY_APP_SECRET", "JWT_SECRET", "MNEMONIC",
		"SEPOLIA_RPC_URL", "BASE_SEPOLIA_RPC_URL", "SEPOLIA_ESCROW_ADDRESS",
		"BASE_SEPOLIA_ESCROW_ADDRESS", "PRIMARY_CHAIN_ID", "REDIS_ADDR",
		"REDIS_PASSWORD", "REDIS_DB",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadRequiresMnemonic(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEPOLIA_RPC_URL", "https://example.invalid")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when MNEMONIC is unset")
	}
}

func TestLoadRequiresAtLeastOneEscrowChain(t *testing.T) {
	clearEnv(t)
	t.Setenv("MNEMONIC", "test test test test test test test test test test test junk")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when no RPC URL is configured")
	}
}

func TestLoadDefaultsPrimaryChainToFirstConfiguredEscrow(t *testing.T) {
	clearEnv(t)
	t.Setenv("MNEMONIC", "test test test test test test test test test test test junk")
	t.Setenv("BASE_SEPOLIA_RPC_URL", "https://example.invalid")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PrimaryChainID != BaseSepoliaChainID {
		t.Fatalf("expected primary chain %d, got %d", BaseSepoliaChainID, cfg.PrimaryChainID)
	}
	if cfg.AppPort != "8181" {
		t.Fatalf("expected default APP_PORT 8181, got %s", cfg.AppPort)
	}
}

func TestLoadHonorsExplicitPrimaryChainID(t *testing.T) {
	clearEnv(t)
	t.Setenv("MNEMONIC", "test test test test test test test test test test test junk")
	t.Setenv("SEPOLIA_RPC_URL", "https://example.invalid")
	t.Setenv("BASE_SEPOLIA_RPC_URL", "https://example.invalid")
	t.Setenv("PRIMARY_CHAIN_ID", "84532")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PrimaryChainID != BaseSepoliaChainID {
		t.Fatalf("expected primary chain %d, got %d", BaseSepoliaChainID, cfg.PrimaryChainID)
	}
	if len(cfg.Escrows) != 2 {
		t.Fatalf("expected 2 configured escrows, got %d", len(cfg.Escrows))
	}
}

func TestLoadRejectsInvalidRedisDB(t *testing.T) {
	clearEnv(t)
	t.Setenv("MNEMONIC", "test test test test test test test test test test test junk")
	t.Setenv("SEPOLIA_RPC_URL", "https://example.invalid")
	t.Setenv("REDIS_DB", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric REDIS_DB")
	}
}
