package blockchain

import (
	"context"
	"fmt"
	"sync"

	"github.com/lightningnetwork/lnd/clock"
)

// Option configures a Ledger.
type Option func(*Ledger)

// WithDifficulty sets the proof-of-work difficulty every non-genesis block
// is validated against.
func WithDifficulty(difficulty int) Option {
	return func(l *Ledger) {
		l.difficulty = difficulty
	}
}

// WithMiningReward sets the amount credited by each coinbase transaction.
func WithMiningReward(reward float64) Option {
	return func(l *Ledger) {
		l.miningReward = reward
	}
}

// WithClock sets the time source for block timestamps.
func WithClock(c clock.Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// WithStrictSignatures makes the ledger verify transaction signatures
// against the sender's public key, instead of only requiring one to be
// present.
func WithStrictSignatures() Option {
	return func(l *Ledger) {
		l.strict = true
	}
}

// WithReplaceListener registers fn to be called with the new tip whenever a
// block or chain received from elsewhere changes the tip. It is called with
// the ledger lock held and must not call back into the ledger.
func WithReplaceListener(fn func(tip *Block)) Option {
	return func(l *Ledger) {
		l.onReplace = fn
	}
}

// Ledger is the chain of blocks plus the pool of pending transactions. All
// methods are safe for concurrent use; mutations are serialized by a single
// lock.
type Ledger struct {
	mu      sync.RWMutex
	chain   []*Block
	pending []Transaction

	difficulty   int
	miningReward float64
	strict       bool
	clock        clock.Clock
	onReplace    func(tip *Block)
}

// NewLedger creates a ledger holding only the genesis block.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		chain:        []*Block{GenesisBlock()},
		difficulty:   DefaultDifficulty,
		miningReward: DefaultMiningReward,
		clock:        clock.NewDefaultClock(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Difficulty() int {
	return l.difficulty
}

func (l *Ledger) MiningReward() float64 {
	return l.miningReward
}

// Len returns the number of blocks including genesis.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.chain)
}

// Latest returns a copy of the tip.
func (l *Ledger) Latest() *Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chain[len(l.chain)-1].Clone()
}

// Chain returns a copy of the whole chain.
func (l *Ledger) Chain() []*Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return CloneChain(l.chain)
}

// Pending returns a copy of the pending pool.
func (l *Ledger) Pending() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Transaction(nil), l.pending...)
}

// BalanceOf sums credits minus debits of address over every block. It scans
// the whole chain on each call.
func (l *Ledger) BalanceOf(address Address) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return balanceOf(l.chain, address)
}

func balanceOf(chain []*Block, address Address) float64 {
	var balance float64
	for _, block := range chain {
		for i := range block.Transactions {
			tx := &block.Transactions[i]
			if tx.From != nil && *tx.From == address {
				balance -= tx.Amount
			}
			if tx.To == address {
				balance += tx.Amount
			}
		}
	}
	return balance
}

// pendingDebitsUnsafe sums what address already spends in the pending pool.
// Must be called with the lock held.
func (l *Ledger) pendingDebitsUnsafe(address Address) float64 {
	var debits float64
	for i := range l.pending {
		if l.pending[i].Sender() == address {
			debits += l.pending[i].Amount
		}
	}
	return debits
}

// knownUnsafe reports whether a transaction with this hash is already
// pending or in the chain. Must be called with the lock held.
func (l *Ledger) knownUnsafe(hash string) bool {
	for i := range l.pending {
		if l.pending[i].Hash() == hash {
			return true
		}
	}
	for _, block := range l.chain {
		for i := range block.Transactions {
			if block.Transactions[i].Hash() == hash {
				return true
			}
		}
	}
	return false
}

// AddTransaction validates tx against the current state and appends it to
// the pending pool. The pool is unchanged when an error is returned.
func (l *Ledger) AddTransaction(tx *Transaction) error {
	if err := tx.checkFields(); err != nil {
		return err
	}
	if l.strict {
		if err := tx.VerifySignature(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.knownUnsafe(tx.Hash()) {
		return fmt.Errorf("%w: duplicate transaction", ErrInvalidTransaction)
	}

	sender := *tx.From
	available := balanceOf(l.chain, sender) - l.pendingDebitsUnsafe(sender)
	if available < tx.Amount {
		return fmt.Errorf("%w: not enough balance: has %v, needs %v",
			ErrInvalidTransaction, available, tx.Amount)
	}

	l.pending = append(l.pending, *tx)
	return nil
}

// removePendingUnsafe drops pending transactions contained in blocks. Must
// be called with the lock held.
func (l *Ledger) removePendingUnsafe(blocks ...*Block) {
	if len(l.pending) == 0 {
		return
	}

	included := make(map[string]struct{})
	for _, block := range blocks {
		for i := range block.Transactions {
			included[block.Transactions[i].Hash()] = struct{}{}
		}
	}

	kept := l.pending[:0]
	for _, tx := range l.pending {
		if _, ok := included[tx.Hash()]; !ok {
			kept = append(kept, tx)
		}
	}
	l.pending = kept
}

// MinePendingTransactions mines the pending pool plus a coinbase reward for
// rewardAddress into a new block and appends it. The proof-of-work search
// runs without holding the lock and stops when ctx is cancelled. If the tip
// moved while mining, the block is discarded and ErrStaleBlock returned.
func (l *Ledger) MinePendingTransactions(ctx context.Context, rewardAddress Address) (*Block, error) {
	now := l.clock.Now()

	l.mu.RLock()
	tip := l.chain[len(l.chain)-1]
	txs := make([]Transaction, 0, len(l.pending)+1)
	txs = append(txs, l.pending...)
	txs = append(txs, *NewCoinbase(rewardAddress, l.miningReward, now))
	candidate := NewBlock(uint64(len(l.chain)), now.UnixMilli(), txs, tip.Hash)
	l.mu.RUnlock()

	if err := candidate.Mine(ctx, l.difficulty); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tip = l.chain[len(l.chain)-1]
	if candidate.PreviousHash != tip.Hash || candidate.Index != uint64(len(l.chain)) {
		return nil, fmt.Errorf("%w: mined block %d on %.16s, tip is now %d",
			ErrStaleBlock, candidate.Index, candidate.PreviousHash, tip.Index)
	}

	l.chain = append(l.chain, candidate)
	l.removePendingUnsafe(candidate)
	return candidate.Clone(), nil
}

// AppendBlock extends the chain with a block received from elsewhere. It
// returns ErrBlockGap if the block does not sit on the current tip, and
// ErrInvalidBlock if it fails validation.
func (l *Ledger) AppendBlock(block *Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tip := l.chain[len(l.chain)-1]
	if block.Index != uint64(len(l.chain)) {
		return fmt.Errorf("%w: block index %d, chain length %d", ErrBlockGap, block.Index, len(l.chain))
	}
	if block.PreviousHash != tip.Hash {
		return fmt.Errorf("%w: invalid previous hash %.16s", ErrBlockGap, block.PreviousHash)
	}
	if err := validateBlockContents(block, l.difficulty, l.strict); err != nil {
		return err
	}

	accepted := block.Clone()
	l.chain = append(l.chain, accepted)
	l.removePendingUnsafe(accepted)
	l.notifyUnsafe()
	return nil
}

// ValidateChain checks a candidate chain with this ledger's difficulty.
func (l *Ledger) ValidateChain(chain []*Block) error {
	return ValidateChain(chain, l.difficulty, l.strict)
}

// IsValid reports whether chain is fully valid for this ledger.
func (l *Ledger) IsValid(chain []*Block) bool {
	return l.ValidateChain(chain) == nil
}

// IsChainValid validates the ledger's own chain.
func (l *Ledger) IsChainValid() bool {
	return l.IsValid(l.Chain())
}

// ReplaceChain adopts candidate if it is strictly longer than the current
// chain and fully valid. Otherwise the current chain is kept and an error
// wrapping ErrChainRejected explains why.
func (l *Ledger) ReplaceChain(candidate []*Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(candidate) <= len(l.chain) {
		return fmt.Errorf("%w: received chain of %d blocks is not longer than current %d",
			ErrChainRejected, len(candidate), len(l.chain))
	}
	if err := l.ValidateChain(candidate); err != nil {
		return fmt.Errorf("%w: received chain is invalid: %w", ErrChainRejected, err)
	}

	l.chain = CloneChain(candidate)
	l.removePendingUnsafe(l.chain...)
	l.notifyUnsafe()
	return nil
}

func (l *Ledger) notifyUnsafe() {
	if l.onReplace != nil {
		l.onReplace(l.chain[len(l.chain)-1].Clone())
	}
}
