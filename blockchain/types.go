package blockchain

import (
	"encoding/json"
)

const (
	// DefaultDifficulty is the number of leading zero hex digits a block
	// hash must carry.
	DefaultDifficulty = 3

	// DefaultMiningReward is credited to the miner by the coinbase
	// transaction of every mined block.
	DefaultMiningReward = 50
)

// Address identifies an account. Wallet addresses are the hex encoded
// compressed secp256k1 public key.
type Address string

// Transaction is a signed transfer record. A nil From marks a coinbase
// transaction.
type Transaction struct {
	From      *Address
	To        Address
	Amount    float64
	Timestamp int64 // milliseconds since the unix epoch
	Signature string
}

// transactionJSON fixes the wire field order, which is also the order the
// block hash serializes transactions in.
type transactionJSON struct {
	From      *Address `json:"from"`
	To        Address  `json:"to"`
	Amount    float64  `json:"amount"`
	Timestamp int64    `json:"timestamp"`
	Signature string   `json:"signature,omitempty"`
}

func (tx Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON(tx))
}

func (tx *Transaction) UnmarshalJSON(data []byte) error {
	var raw transactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*tx = Transaction(raw)
	return nil
}

// IsCoinbase reports whether the transaction mints new coins.
func (tx *Transaction) IsCoinbase() bool {
	return tx.From == nil
}

// Sender returns the sending address, or "" for coinbase transactions.
func (tx *Transaction) Sender() Address {
	if tx.From == nil {
		return ""
	}
	return *tx.From
}

// Block is an ordered batch of transactions sealed by proof-of-work.
type Block struct {
	Index        uint64        `json:"index"`
	Timestamp    int64         `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	PreviousHash string        `json:"previousHash"`
	Nonce        uint64        `json:"nonce"`
	Hash         string        `json:"hash"`
}

// Clone returns a deep copy of the block.
func (b *Block) Clone() *Block {
	c := *b
	c.Transactions = make([]Transaction, len(b.Transactions))
	for i, tx := range b.Transactions {
		if tx.From != nil {
			from := *tx.From
			tx.From = &from
		}
		c.Transactions[i] = tx
	}
	return &c
}

// CloneChain deep copies every block of chain.
func CloneChain(chain []*Block) []*Block {
	out := make([]*Block, len(chain))
	for i, b := range chain {
		out[i] = b.Clone()
	}
	return out
}
