package node

import (
	"errors"

	"relaychain/blockchain"
	"relaychain/p2p"
)

var _ p2p.Handler = (*Node)(nil)

// OnRequestBlockchain answers with the full local chain.
func (n *Node) OnRequestBlockchain(*p2p.RequestBlockchain) error {
	n.broadcast(&p2p.Blockchain{Chain: n.ledger.Chain()})
	return nil
}

// OnBlockchain adopts the received chain if it is longer and valid.
func (n *Node) OnBlockchain(msg *p2p.Blockchain) error {
	if err := n.ledger.ReplaceChain(msg.Chain); err != nil {
		n.log.Debugf("Keeping current chain: %v", err)
		return nil
	}

	n.metrics.chainReplacements.Inc()
	n.updateGauges()
	n.persist()
	n.log.Infof("Replaced chain, height now %d", len(msg.Chain))
	return nil
}

// OnNewBlock appends a block that extends the tip. A block that does not fit
// the tip may come from a longer fork, so the full chain is requested
// instead.
func (n *Node) OnNewBlock(msg *p2p.NewBlock) error {
	block := msg.Block

	err := n.ledger.AppendBlock(block)
	switch {
	case err == nil:
		n.metrics.blocksAccepted.Inc()
		n.updateGauges()
		n.persist()
		n.log.Infof("Accepted block %d: %.16s", block.Index, block.Hash)

	case errors.Is(err, blockchain.ErrBlockGap):
		n.log.Debugf("Block %d does not extend tip, requesting chain: %v", block.Index, err)
		n.requestChain()

	default:
		n.log.Warnf("Rejected block %d: %v", block.Index, err)
	}
	return nil
}

// OnNewTransaction adds a peer's transaction to the pending pool.
func (n *Node) OnNewTransaction(msg *p2p.NewTransaction) error {
	if err := n.ledger.AddTransaction(msg.Transaction); err != nil {
		n.metrics.txRejected.Inc()
		n.log.Warnf("Rejected transaction: %v", err)
		return nil
	}

	n.updateGauges()
	n.log.Debugf("Added transaction of %v to %s", msg.Transaction.Amount, msg.Transaction.To)
	return nil
}
