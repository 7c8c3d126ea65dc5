package blockchain

import "errors"

var (
	// ErrInvalidTransaction covers malformed fields, insufficient balance
	// and missing or bad signatures.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrMissingSignature is returned by Transaction.IsValid for a
	// non-coinbase transaction without a signature.
	ErrMissingSignature = errors.New("no signature in this transaction")

	// ErrAuthorization is returned when signing with a key that does not
	// own the sending address.
	ErrAuthorization = errors.New("not authorized to sign")

	// ErrInvalidBlock covers hash mismatches, broken linkage and unmet
	// difficulty.
	ErrInvalidBlock = errors.New("invalid block")

	// ErrBlockGap means a block does not extend the local tip. The caller
	// should resynchronize the whole chain instead of dropping it.
	ErrBlockGap = errors.New("block does not extend tip")

	// ErrStaleBlock is returned when a locally mined block lost the race
	// against a block or chain accepted from the network.
	ErrStaleBlock = errors.New("stale block")

	// ErrChainRejected is returned by ReplaceChain for candidates that are
	// not longer or not valid.
	ErrChainRejected = errors.New("chain rejected")
)
