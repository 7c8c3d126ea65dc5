package mocks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"relaychain/blockchain"
)

// ErrInsufficientBalance is returned when a sender has nothing to spend.
var ErrInsufficientBalance = errors.New("insufficient balance")

// GenerateWallets creates count fresh wallets.
func GenerateWallets(count int) ([]*blockchain.Wallet, error) {
	wallets := make([]*blockchain.Wallet, 0, count)
	for i := 0; i < count; i++ {
		w, err := blockchain.NewWallet()
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

// GenerateValidTransaction creates a signed transfer the ledger will accept
// from sender to to. If amount is -1, a random amount between 1 and the
// sender's spendable balance is used.
func GenerateValidTransaction(ledger *blockchain.Ledger, r *rand.Rand, sender *blockchain.Wallet, to blockchain.Address, amount float64) (*blockchain.Transaction, error) {
	available := ledger.BalanceOf(sender.Address())
	for _, tx := range ledger.Pending() {
		if tx.Sender() == sender.Address() {
			available -= tx.Amount
		}
	}

	switch {
	case amount == -1:
		if available < 1 {
			return nil, ErrInsufficientBalance
		}
		amount = float64(r.Intn(int(available)) + 1)
	case amount <= 0:
		return nil, errors.New("invalid amount: must be positive or -1 for random")
	case available < amount:
		return nil, ErrInsufficientBalance
	}

	return sender.NewSignedTransaction(to, amount)
}

// GeneratePrebuiltChain mines blockCount blocks on top of genesis. The
// first block funds wallets[0]; every later block carries up to
// txPerBlock random transfers between the wallets and rewards the next
// wallet in turn, so every wallet ends up with coins.
func GeneratePrebuiltChain(difficulty, blockCount, txPerBlock int, wallets []*blockchain.Wallet, seed int64) ([]*blockchain.Block, error) {
	if len(wallets) < 2 {
		return nil, errors.New("need at least two wallets")
	}

	r := rand.New(rand.NewSource(seed))
	ledger := blockchain.NewLedger(blockchain.WithDifficulty(difficulty))

	for i := 0; i < blockCount; i++ {
		for j := 0; j < txPerBlock && i > 0; j++ {
			from := wallets[r.Intn(len(wallets))]
			to := wallets[r.Intn(len(wallets))]
			for to == from {
				to = wallets[r.Intn(len(wallets))]
			}

			tx, err := GenerateValidTransaction(ledger, r, from, to.Address(), -1)
			if errors.Is(err, ErrInsufficientBalance) {
				continue
			}
			if err != nil {
				return nil, err
			}
			// Identical transfers within the same millisecond sign
			// identically and are refused as duplicates.
			if err := ledger.AddTransaction(tx); errors.Is(err, blockchain.ErrInvalidTransaction) {
				continue
			} else if err != nil {
				return nil, fmt.Errorf("block %d: %w", i+1, err)
			}
		}

		miner := wallets[i%len(wallets)].Address()
		if _, err := ledger.MinePendingTransactions(context.Background(), miner); err != nil {
			return nil, fmt.Errorf("block %d: %w", i+1, err)
		}
	}

	return ledger.Chain(), nil
}

// GenerateInvalidBlock returns a block that links to the tip of chain but
// whose hash does not match its contents.
func GenerateInvalidBlock(chain []*blockchain.Block) *blockchain.Block {
	tip := chain[len(chain)-1]
	block := blockchain.NewBlock(tip.Index+1, tip.Timestamp+1, []blockchain.Transaction{
		{To: "mallory", Amount: 1_000_000, Timestamp: tip.Timestamp + 1},
	}, tip.Hash)
	block.Nonce++
	return block
}

// RandomRecipient picks an address other than self that appears in chain,
// or "" if there is none.
func RandomRecipient(r *rand.Rand, chain []*blockchain.Block, self blockchain.Address) blockchain.Address {
	seen := make(map[blockchain.Address]struct{})
	var addresses []blockchain.Address
	for _, block := range chain {
		for i := range block.Transactions {
			tx := &block.Transactions[i]
			for _, addr := range []blockchain.Address{tx.Sender(), tx.To} {
				if addr == "" || addr == self {
					continue
				}
				if _, ok := seen[addr]; !ok {
					seen[addr] = struct{}{}
					addresses = append(addresses, addr)
				}
			}
		}
	}

	if len(addresses) == 0 {
		return ""
	}
	return addresses[r.Intn(len(addresses))]
}
