package blockchain

import (
	"fmt"
)

// validateBlockContents checks everything about a block that does not
// depend on its parent: transaction validity, the hash, and proof-of-work.
func validateBlockContents(block *Block, difficulty int, strict bool) error {
	for i := range block.Transactions {
		tx := &block.Transactions[i]
		if err := tx.IsValid(); err != nil {
			return fmt.Errorf("%w: block %d transaction %d: %w", ErrInvalidBlock, block.Index, i, err)
		}
		if strict {
			if err := tx.VerifySignature(); err != nil {
				return fmt.Errorf("%w: block %d transaction %d: %w", ErrInvalidBlock, block.Index, i, err)
			}
		}
	}

	hash, err := block.computeHash()
	if err != nil {
		return fmt.Errorf("block %d: %w", block.Index, err)
	}
	if block.Hash != hash {
		return fmt.Errorf("%w: block %d hash mismatch", ErrInvalidBlock, block.Index)
	}

	if !block.MeetsDifficulty(difficulty) {
		return fmt.Errorf("%w: block %d does not meet difficulty %d, hash: %s",
			ErrInvalidBlock, block.Index, difficulty, block.Hash)
	}

	return nil
}

// validateLink checks that block sits directly on top of prev.
func validateLink(block, prev *Block) error {
	if block.Index != prev.Index+1 {
		return fmt.Errorf("%w: block index %d after %d", ErrBlockGap, block.Index, prev.Index)
	}
	if block.PreviousHash != prev.Hash {
		return fmt.Errorf("%w: block %d previous hash %.16s does not match %.16s",
			ErrBlockGap, block.Index, block.PreviousHash, prev.Hash)
	}
	return nil
}

// ValidateChain checks a whole chain against the given difficulty and
// returns the first failure. The genesis block is only compared against the
// fixed genesis, it is not subject to proof-of-work.
func ValidateChain(chain []*Block, difficulty int, strict bool) error {
	if len(chain) == 0 {
		return fmt.Errorf("%w: empty chain", ErrInvalidBlock)
	}
	if chain[0] == nil || !IsGenesis(chain[0]) {
		return fmt.Errorf("%w: first block is not genesis", ErrInvalidBlock)
	}

	for i := 1; i < len(chain); i++ {
		block, prev := chain[i], chain[i-1]
		if block == nil {
			return fmt.Errorf("%w: block %d missing", ErrInvalidBlock, i)
		}
		if err := validateBlockContents(block, difficulty, strict); err != nil {
			return err
		}
		if err := validateLink(block, prev); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidBlock, err)
		}
	}

	return nil
}
