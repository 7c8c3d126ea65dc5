package blockchain

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// cancelCheckInterval is how many nonces are tried between context checks.
const cancelCheckInterval = 1 << 12

// HashMeetsDifficulty reports whether hash starts with difficulty zero hex
// digits.
func HashMeetsDifficulty(hash string, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if difficulty > len(hash) {
		return false
	}
	return strings.Count(hash[:difficulty], "0") == difficulty
}

// MeetsDifficulty reports whether the block hash satisfies the target.
func (b *Block) MeetsDifficulty(difficulty int) bool {
	return HashMeetsDifficulty(b.Hash, difficulty)
}

// Mine searches for a nonce whose hash meets difficulty. It returns
// ctx.Err() if the context is cancelled before a solution is found, leaving
// the block unsealed, and ErrInvalidBlock if its contents cannot be hashed.
func (b *Block) Mine(ctx context.Context, difficulty int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	hash, err := b.computeHash()
	if err != nil {
		return err
	}
	b.Hash = hash
	for tries := 1; !b.MeetsDifficulty(difficulty); tries++ {
		if tries%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		b.Nonce++
		if b.Hash, err = b.computeHash(); err != nil {
			return err
		}
	}

	logrus.WithFields(logrus.Fields{
		"index": b.Index,
		"nonce": b.Nonce,
	}).Debugf("Block mined: %s", b.Hash)
	return nil
}
