package blockchain

// GenesisTimestamp is fixed so that every node starts from the same block.
const GenesisTimestamp int64 = 1700000000000

// GenesisPreviousHash is the sentinel parent of the genesis block.
const GenesisPreviousHash = "0"

// GenesisBlock returns a fresh copy of the first block of every chain. It
// carries no transactions and is not mined.
func GenesisBlock() *Block {
	return NewBlock(0, GenesisTimestamp, []Transaction{}, GenesisPreviousHash)
}

// genesisHash is computed once; the genesis block never changes.
var genesisHash = GenesisBlock().Hash

// IsGenesis reports whether b is the fixed genesis block.
func IsGenesis(b *Block) bool {
	return b.Index == 0 &&
		b.PreviousHash == GenesisPreviousHash &&
		len(b.Transactions) == 0 &&
		b.Hash == genesisHash &&
		b.CalculateHash() == genesisHash
}
