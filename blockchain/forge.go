package blockchain

import (
	"fmt"
	"math"
	"time"
)

// NewBlock creates an unmined block and computes its hash.
func NewBlock(index uint64, timestamp int64, transactions []Transaction, previousHash string) *Block {
	b := &Block{
		Index:        index,
		Timestamp:    timestamp,
		Transactions: transactions,
		PreviousHash: previousHash,
	}
	b.Hash = b.CalculateHash()
	return b
}

// NewTransaction creates an unsigned transfer stamped with the current time.
func NewTransaction(from, to Address, amount float64) *Transaction {
	return NewTransactionAt(from, to, amount, time.Now())
}

// NewTransactionAt is NewTransaction with an explicit timestamp.
func NewTransactionAt(from, to Address, amount float64, at time.Time) *Transaction {
	return &Transaction{
		From:      &from,
		To:        to,
		Amount:    amount,
		Timestamp: at.UnixMilli(),
	}
}

// NewCoinbase creates a reward transaction crediting to.
func NewCoinbase(to Address, amount float64, at time.Time) *Transaction {
	return &Transaction{
		To:        to,
		Amount:    amount,
		Timestamp: at.UnixMilli(),
	}
}

// IsValid checks the transaction in isolation. Coinbase transactions are
// always valid; others must carry a signature. The signature is not
// verified here, see VerifySignature.
func (tx *Transaction) IsValid() error {
	if tx.IsCoinbase() {
		return nil
	}
	if tx.Signature == "" {
		return ErrMissingSignature
	}
	return nil
}

// checkFields validates a transaction submitted to the pending pool,
// without looking at chain state. Coinbase transactions are only produced by
// mining and never enter the pool.
func (tx *Transaction) checkFields() error {
	if tx.From == nil || *tx.From == "" || tx.To == "" {
		return fmt.Errorf("%w: transaction must include from and to address", ErrInvalidTransaction)
	}
	if !(tx.Amount > 0) || math.IsInf(tx.Amount, 0) {
		return fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidTransaction, tx.Amount)
	}
	if err := tx.IsValid(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	return nil
}
