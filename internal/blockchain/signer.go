package blockchain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// defaultDerivationPath is go-ethereum's standard Ethereum HD path
// (m/44'/60'/0'/0/0), per spec.md §4.4/§6.3. DerivationPath and its default
// live in package accounts (accounts/hd.go) — there is no accounts/hd
// subpackage.
var defaultDerivationPath = accounts.DefaultBaseDerivationPath

// Signer owns the server's one HD-derived ECDSA key. The contract's
// configured "settler" must match Address(); any other caller to
// settleGame is rejected on-chain.
type Signer struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewSigner derives the settler key from a BIP-39 mnemonic via go-ethereum's
// default derivation path.
func NewSigner(mnemonic string) (*Signer, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("blockchain: invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")

	key, err := deriveKey(seed, defaultDerivationPath)
	if err != nil {
		return nil, fmt.Errorf("blockchain: deriving key: %w", err)
	}

	return &Signer{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address is the settler's on-chain address.
func (s *Signer) Address() common.Address {
	return s.addr
}

// Sign produces an EIP-155 signed transaction for the given chain.
func (s *Signer) Sign(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.NewEIP155Signer(chainID), s.key)
}
