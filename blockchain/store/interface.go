package store

import (
	"relaychain/blockchain"
)

// ChainStore persists snapshots of a node's chain so it survives restarts.
type ChainStore interface {
	// SaveChain replaces the stored chain with chain.
	SaveChain(chain []*blockchain.Block) error

	// LoadChain returns the stored chain, or an empty slice if nothing
	// has been stored yet.
	LoadChain() ([]*blockchain.Block, error)

	// GetChainHeight returns the number of stored blocks.
	GetChainHeight() (uint64, error)

	Close() error
}
