package blockchain

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashMeetsDifficulty(t *testing.T) {
	tests := []struct {
		hash       string
		difficulty int
		want       bool
	}{
		{"000abc", 3, true},
		{"000abc", 4, false},
		{"00", 3, false},
		{"abc", 0, true},
		{"abc", -1, true},
		{"0a0", 2, false},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, HashMeetsDifficulty(tc.hash, tc.difficulty),
			"hash %q difficulty %d", tc.hash, tc.difficulty)
	}
}

func TestMine(t *testing.T) {
	for difficulty := 0; difficulty <= 3; difficulty++ {
		block := NewBlock(1, GenesisTimestamp+1, []Transaction{
			*NewCoinbase("miner", 50, testTime),
		}, GenesisBlock().Hash)

		require.NoError(t, block.Mine(context.Background(), difficulty))
		require.True(t, strings.HasPrefix(block.Hash, strings.Repeat("0", difficulty)))
		require.Equal(t, block.CalculateHash(), block.Hash)
	}
}

func TestMineDeterministic(t *testing.T) {
	mine := func() *Block {
		block := NewBlock(1, GenesisTimestamp+1, []Transaction{
			*NewCoinbase("miner", 50, testTime),
		}, GenesisBlock().Hash)
		require.NoError(t, block.Mine(context.Background(), testDifficulty))
		return block
	}

	first, second := mine(), mine()
	require.Equal(t, first.Nonce, second.Nonce)
	require.Equal(t, first.Hash, second.Hash)
}

func TestMineCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := NewBlock(1, GenesisTimestamp+1, nil, GenesisBlock().Hash)
	require.ErrorIs(t, block.Mine(ctx, 64), context.Canceled)
	require.Zero(t, block.Nonce)
}

func TestGenesisBlock(t *testing.T) {
	genesis := GenesisBlock()

	require.EqualValues(t, 0, genesis.Index)
	require.Equal(t, GenesisTimestamp, genesis.Timestamp)
	require.Equal(t, GenesisPreviousHash, genesis.PreviousHash)
	require.Empty(t, genesis.Transactions)
	require.Equal(t, genesis.CalculateHash(), genesis.Hash)
	require.True(t, IsGenesis(genesis))

	// Every call yields an identical block.
	require.Equal(t, genesis, GenesisBlock())

	genesis.Nonce = 1
	genesis.Hash = genesis.CalculateHash()
	require.False(t, IsGenesis(genesis))
}

func TestBlockHashEmptyTransactions(t *testing.T) {
	withNil := NewBlock(1, 5, nil, "prev")
	withEmpty := NewBlock(1, 5, []Transaction{}, "prev")
	require.Equal(t, withNil.Hash, withEmpty.Hash)
}

func TestMineUnserializableBlock(t *testing.T) {
	tx := *NewCoinbase("miner", math.NaN(), time.UnixMilli(GenesisTimestamp))
	block := NewBlock(1, GenesisTimestamp+1, []Transaction{tx}, GenesisBlock().Hash)
	require.Empty(t, block.Hash)

	require.ErrorIs(t, block.Mine(context.Background(), 1), ErrInvalidBlock)

	chain := []*Block{GenesisBlock(), block}
	require.ErrorIs(t, ValidateChain(chain, 0, false), ErrInvalidBlock)
}
