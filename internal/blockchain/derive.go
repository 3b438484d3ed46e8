package blockchain

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/hdkeychain"
	"github.com/ethereum/go-ethereum/accounts"
)

// deriveKey walks path from a BIP-32 master key built from seed, converting
// the final child key's private scalar into a go-ethereum ECDSA key. Paired
// with go-bip39's seed and go-ethereum's own DerivationPath type (package
// accounts, accounts/hd.go), since go-ethereum does not ship BIP-32
// child-key derivation itself.
func deriveKey(seed []byte, path accounts.DerivationPath) (*ecdsa.PrivateKey, error) {
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("building master key: %w", err)
	}

	child := master
	for _, index := range path {
		child, err = child.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("deriving index %d: %w", index, err)
		}
	}

	btcecKey, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extracting private key: %w", err)
	}

	return btcecKey.ToECDSA(), nil
}
