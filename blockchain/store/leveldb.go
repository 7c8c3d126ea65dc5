package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"relaychain/blockchain"
)

var (
	heightKey   = []byte("height")
	blockPrefix = []byte("block/")
)

func blockKey(index uint64) []byte {
	key := make([]byte, len(blockPrefix)+8)
	copy(key, blockPrefix)
	binary.BigEndian.PutUint64(key[len(blockPrefix):], index)
	return key
}

// LevelDBChainStore keeps one JSON encoded block per key, indexed by
// height, plus a height record.
type LevelDBChainStore struct {
	db *leveldb.DB
	mu sync.Mutex
}

// OpenLevelDBChainStore opens or creates the database at path.
func OpenLevelDBChainStore(path string) (*LevelDBChainStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open chain database %s: %w", path, err)
	}
	return &LevelDBChainStore{db: db}, nil
}

// NewLevelDBChainStore wraps an existing storage backend, e.g.
// storage.NewMemStorage() in tests.
func NewLevelDBChainStore(stor storage.Storage) (*LevelDBChainStore, error) {
	db, err := leveldb.Open(stor, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open chain database: %w", err)
	}
	return &LevelDBChainStore{db: db}, nil
}

func (s *LevelDBChainStore) heightUnsafe() (uint64, error) {
	raw, err := s.db.Get(heightKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("corrupt height record of %d bytes", len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (s *LevelDBChainStore) GetChainHeight() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heightUnsafe()
}

func (s *LevelDBChainStore) SaveChain(chain []*blockchain.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldHeight, err := s.heightUnsafe()
	if err != nil {
		return fmt.Errorf("failed to read height: %w", err)
	}

	batch := new(leveldb.Batch)
	for i, block := range chain {
		data, err := json.Marshal(block)
		if err != nil {
			return fmt.Errorf("failed to encode block %d: %w", i, err)
		}
		batch.Put(blockKey(uint64(i)), data)
	}

	// Drop blocks beyond the new tip, left over from a longer chain
	for i := uint64(len(chain)); i < oldHeight; i++ {
		batch.Delete(blockKey(i))
	}

	height := make([]byte, 8)
	binary.BigEndian.PutUint64(height, uint64(len(chain)))
	batch.Put(heightKey, height)

	return s.db.Write(batch, nil)
}

func (s *LevelDBChainStore) LoadChain() ([]*blockchain.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	height, err := s.heightUnsafe()
	if err != nil {
		return nil, fmt.Errorf("failed to read height: %w", err)
	}

	var chain []*blockchain.Block
	for i := uint64(0); i < height; i++ {
		raw, err := s.db.Get(blockKey(i), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read block %d: %w", i, err)
		}

		var block blockchain.Block
		if err := json.Unmarshal(raw, &block); err != nil {
			return nil, fmt.Errorf("failed to decode block %d: %w", i, err)
		}
		chain = append(chain, &block)
	}

	return chain, nil
}

func (s *LevelDBChainStore) Close() error {
	return s.db.Close()
}
