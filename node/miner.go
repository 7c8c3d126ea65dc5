package node

import (
	"context"
	"errors"

	"relaychain/blockchain"
	"relaychain/p2p"
)

// mineLoop waits for the start delay, then considers mining on every tick.
func (n *Node) mineLoop(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-n.clock.TickAfter(n.cfg.StartDelay):
	}

	n.ticker.Resume()
	defer n.ticker.Stop()

	n.log.Infof("Mining every %v at difficulty %d", n.cfg.MiningInterval, n.ledger.Difficulty())

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-n.ticker.Ticks():
			if n.shouldMine() {
				n.mineBlock(ctx)
			}
		}
	}
}

// shouldMine mines whenever transactions are pending and otherwise only
// with IdleMiningChance, so idle networks still grow slowly.
func (n *Node) shouldMine() bool {
	if len(n.ledger.Pending()) > 0 {
		return true
	}
	return n.rand() < n.cfg.IdleMiningChance
}

// mineBlock runs one mining attempt. It is cancelled early when a peer
// block or chain moves the tip.
func (n *Node) mineBlock(ctx context.Context) (*blockchain.Block, error) {
	mineCtx, cancel := context.WithCancel(ctx)
	n.mineMu.Lock()
	n.cancelMining = cancel
	n.mineMu.Unlock()

	defer func() {
		n.mineMu.Lock()
		n.cancelMining = nil
		n.mineMu.Unlock()
		cancel()
	}()

	block, err := n.ledger.MinePendingTransactions(mineCtx, n.wallet.Address())
	switch {
	case err == nil:
		n.metrics.blocksMined.Inc()
		n.updateGauges()
		n.persist()
		n.log.Infof("Mined block %d: %s", block.Index, block.Hash)
		n.broadcast(&p2p.NewBlock{Block: block})
		return block, nil

	case ctx.Err() != nil:
		return nil, ctx.Err()

	case errors.Is(err, blockchain.ErrStaleBlock), errors.Is(err, context.Canceled):
		n.metrics.miningAbandoned.Inc()
		n.log.Infof("Mining abandoned, tip moved: %v", err)

	default:
		n.log.Errorf("Mining failed: %v", err)
	}
	return nil, err
}

// abandonMining cancels the attempt in progress, if any. It runs with the
// ledger lock held and must not touch the ledger.
func (n *Node) abandonMining() {
	n.mineMu.Lock()
	defer n.mineMu.Unlock()

	if n.cancelMining != nil {
		n.cancelMining()
	}
}
