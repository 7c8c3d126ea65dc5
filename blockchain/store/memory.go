package store

import (
	"errors"
	"sync"

	"relaychain/blockchain"
)

var errClosed = errors.New("store is closed")

// MemoryChainStore keeps the chain in process memory. It is used by tests and
// by nodes started without a data directory.
type MemoryChainStore struct {
	blocks []*blockchain.Block
	closed bool
	mu     sync.RWMutex
}

func NewMemoryChainStore() *MemoryChainStore {
	return &MemoryChainStore{
		blocks: make([]*blockchain.Block, 0),
	}
}

func (m *MemoryChainStore) SaveChain(chain []*blockchain.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errClosed
	}

	// Copy so later mutations by the caller do not leak into the store
	m.blocks = blockchain.CloneChain(chain)
	return nil
}

func (m *MemoryChainStore) LoadChain() ([]*blockchain.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, errClosed
	}
	return blockchain.CloneChain(m.blocks), nil
}

func (m *MemoryChainStore) GetChainHeight() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, errClosed
	}
	return uint64(len(m.blocks)), nil
}

func (m *MemoryChainStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
