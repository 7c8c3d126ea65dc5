package blockchain

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSign(t *testing.T) {
	alice, err := NewWallet()
	require.NoError(t, err)
	mallory, err := NewWallet()
	require.NoError(t, err)

	tx := NewTransactionAt(alice.Address(), "bob", 10, testTime)

	err = tx.Sign(mallory.PrivateKey())
	require.ErrorIs(t, err, ErrAuthorization)
	require.Empty(t, tx.Signature)

	require.NoError(t, tx.Sign(alice.PrivateKey()))
	require.NotEmpty(t, tx.Signature)
	require.NoError(t, tx.VerifySignature())

	coinbase := NewCoinbase("bob", 50, testTime)
	require.ErrorIs(t, coinbase.Sign(alice.PrivateKey()), ErrAuthorization)
	require.NoError(t, coinbase.VerifySignature())
}

func TestVerifySignature(t *testing.T) {
	alice, err := NewWallet()
	require.NoError(t, err)

	signed := func() *Transaction {
		tx := NewTransactionAt(alice.Address(), "bob", 10, testTime)
		require.NoError(t, tx.Sign(alice.PrivateKey()))
		return tx
	}

	tests := []struct {
		name   string
		tamper func(tx *Transaction)
		err    error
	}{
		{
			name:   "missing signature",
			tamper: func(tx *Transaction) { tx.Signature = "" },
			err:    ErrMissingSignature,
		},
		{
			name:   "amount changed",
			tamper: func(tx *Transaction) { tx.Amount = 11 },
			err:    ErrInvalidTransaction,
		},
		{
			name:   "recipient changed",
			tamper: func(tx *Transaction) { tx.To = "mallory" },
			err:    ErrInvalidTransaction,
		},
		{
			name:   "malformed signature",
			tamper: func(tx *Transaction) { tx.Signature = "zz" },
			err:    ErrInvalidTransaction,
		},
		{
			name: "sender is not a key",
			tamper: func(tx *Transaction) {
				from := Address("alice")
				tx.From = &from
			},
			err: ErrInvalidTransaction,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tx := signed()
			tc.tamper(tx)
			require.ErrorIs(t, tx.VerifySignature(), tc.err)
		})
	}
}

func TestTransactionJSON(t *testing.T) {
	coinbase := NewCoinbase("bob", 50, testTime)
	data, err := json.Marshal(coinbase)
	require.NoError(t, err)
	require.JSONEq(t, `{"from":null,"to":"bob","amount":50,"timestamp":1700000100000}`, string(data))

	var decoded Transaction
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.True(t, decoded.IsCoinbase())
	require.Equal(t, *coinbase, decoded)

	transfer := NewTransactionAt("alice", "bob", 1.5, testTime)
	transfer.Signature = "sig"
	data, err = json.Marshal(transfer)
	require.NoError(t, err)
	require.Equal(t,
		`{"from":"alice","to":"bob","amount":1.5,"timestamp":1700000100000,"signature":"sig"}`,
		string(data))
}

func TestLoadOrCreateWallet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.key")

	created, err := LoadOrCreateWallet(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadOrCreateWallet(path)
	require.NoError(t, err)
	require.Equal(t, created.Address(), loaded.Address())
	require.Equal(t, created.PrivateKeyHex(), loaded.PrivateKeyHex())

	require.NoError(t, os.WriteFile(path, []byte("not hex"), 0600))
	_, err = LoadOrCreateWallet(path)
	require.Error(t, err)
}

func TestWalletFromHex(t *testing.T) {
	w, err := NewWallet()
	require.NoError(t, err)

	restored, err := WalletFromHex(w.PrivateKeyHex() + "\n")
	require.NoError(t, err)
	require.Equal(t, w.Address(), restored.Address())

	_, err = WalletFromHex("abcd")
	require.Error(t, err)
}
