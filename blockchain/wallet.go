package blockchain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
)

// AddressFromPubKey derives the account address of a public key.
func AddressFromPubKey(pub *btcec.PublicKey) Address {
	return Address(hex.EncodeToString(pub.SerializeCompressed()))
}

// Wallet holds the signing key of one address.
type Wallet struct {
	key *btcec.PrivateKey
}

// NewWallet generates a fresh key pair.
func NewWallet() (*Wallet, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &Wallet{key: key}, nil
}

// WalletFromHex restores a wallet from a hex encoded private key.
func WalletFromHex(privHex string) (*Wallet, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(privHex))
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}
	if len(raw) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("invalid private key length %d", len(raw))
	}
	key, _ := btcec.PrivKeyFromBytes(raw)
	return &Wallet{key: key}, nil
}

// LoadOrCreateWallet reads the key stored at path, generating and saving a
// new one when the file does not exist.
func LoadOrCreateWallet(path string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		return WalletFromHex(string(data))

	case errors.Is(err, os.ErrNotExist):
		w, err := NewWallet()
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(w.PrivateKeyHex()+"\n"), 0600); err != nil {
			return nil, fmt.Errorf("failed to save key: %w", err)
		}
		return w, nil

	default:
		return nil, fmt.Errorf("failed to read key: %w", err)
	}
}

// Address returns the wallet's account address.
func (w *Wallet) Address() Address {
	return AddressFromPubKey(w.key.PubKey())
}

// PrivateKey exposes the signing key.
func (w *Wallet) PrivateKey() *btcec.PrivateKey {
	return w.key
}

// PrivateKeyHex serializes the signing key.
func (w *Wallet) PrivateKeyHex() string {
	return hex.EncodeToString(w.key.Serialize())
}

// NewSignedTransaction creates and signs a transfer from this wallet.
func (w *Wallet) NewSignedTransaction(to Address, amount float64) (*Transaction, error) {
	tx := NewTransaction(w.Address(), to, amount)
	if err := tx.Sign(w.key); err != nil {
		return nil, err
	}
	return tx, nil
}
