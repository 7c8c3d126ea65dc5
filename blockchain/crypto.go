package blockchain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	sha256 "github.com/minio/sha256-simd"
)

func sha256Hex(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// contentHash is the digest a transaction signature commits to.
func (tx *Transaction) contentHash() []byte {
	h := sha256.New()
	h.Write([]byte(tx.Sender()))
	h.Write([]byte(tx.To))
	h.Write([]byte(formatAmount(tx.Amount)))
	h.Write([]byte(strconv.FormatInt(tx.Timestamp, 10)))
	return h.Sum(nil)
}

// Hash returns the hex content hash of the transaction including its
// signature, so two transfers with identical fields but different
// signatures are distinct.
func (tx *Transaction) Hash() string {
	return sha256Hex(hex.EncodeToString(tx.contentHash()), tx.Signature)
}

// Sign signs the transaction content with key. The key must belong to the
// sending address.
func (tx *Transaction) Sign(key *btcec.PrivateKey) error {
	if tx.IsCoinbase() {
		return fmt.Errorf("%w: coinbase transactions are not signed", ErrAuthorization)
	}
	if AddressFromPubKey(key.PubKey()) != *tx.From {
		return fmt.Errorf("%w: cannot sign transactions for other wallets", ErrAuthorization)
	}

	sig := ecdsa.Sign(key, tx.contentHash())
	tx.Signature = hex.EncodeToString(sig.Serialize())
	return nil
}

// VerifySignature checks the signature cryptographically against the public
// key encoded in the sending address.
func (tx *Transaction) VerifySignature() error {
	if tx.IsCoinbase() {
		return nil
	}
	if tx.Signature == "" {
		return ErrMissingSignature
	}

	pubBytes, err := hex.DecodeString(string(*tx.From))
	if err != nil {
		return fmt.Errorf("%w: sender is not a public key: %v", ErrInvalidTransaction, err)
	}
	pub, err := btcec.ParsePubKey(pubBytes)
	if err != nil {
		return fmt.Errorf("%w: sender is not a public key: %v", ErrInvalidTransaction, err)
	}
	sigBytes, err := hex.DecodeString(tx.Signature)
	if err != nil {
		return fmt.Errorf("%w: malformed signature: %v", ErrInvalidTransaction, err)
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return fmt.Errorf("%w: malformed signature: %v", ErrInvalidTransaction, err)
	}
	if !sig.Verify(tx.contentHash(), pub) {
		return fmt.Errorf("%w: signature does not match sender", ErrInvalidTransaction)
	}
	return nil
}

// serializeTransactions renders the transaction list the way the block hash
// expects it. An empty list is always "[]".
func serializeTransactions(txs []Transaction) (string, error) {
	if len(txs) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(txs)
	if err != nil {
		return "", fmt.Errorf("%w: cannot serialize transactions: %v", ErrInvalidBlock, err)
	}
	return string(data), nil
}

// computeHash is CalculateHash with the serialization error exposed.
func (b *Block) computeHash() (string, error) {
	txs, err := serializeTransactions(b.Transactions)
	if err != nil {
		return "", err
	}
	return sha256Hex(
		strconv.FormatUint(b.Index, 10),
		strconv.FormatInt(b.Timestamp, 10),
		txs,
		b.PreviousHash,
		strconv.FormatUint(b.Nonce, 10),
	), nil
}

// CalculateHash computes the content hash of the block from its fields. It
// returns "" if the transactions cannot be serialized, for example when an
// amount is not a finite number.
func (b *Block) CalculateHash() string {
	hash, _ := b.computeHash()
	return hash
}
