// events.go - Facts emitted by the pool state machine.

package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DepositEvent records an accepted deposit: which commitment entered the
// tree, where, and when.
type DepositEvent struct {
	Commitment common.Hash `json:"commitment"`
	LeafIndex  uint32      `json:"leaf_index"`
	Timestamp  int64       `json:"timestamp"`
}

// WithdrawalEvent records a spent note leaving the pool.
type WithdrawalEvent struct {
	Nullifier common.Hash    `json:"nullifier"`
	Recipient common.Address `json:"recipient"`
	Amount    *big.Int       `json:"amount"`
}

// TransferEvent records a private split: one note spent, two new
// commitments inserted. Amounts stay hidden.
type TransferEvent struct {
	Nullifier      common.Hash `json:"nullifier"`
	NewCommitmentA common.Hash `json:"new_commitment_a"`
	NewCommitmentB common.Hash `json:"new_commitment_b"`
	LeafIndexA     uint32      `json:"leaf_index_a"`
	LeafIndexB     uint32      `json:"leaf_index_b"`
	NewRoot        common.Hash `json:"new_root"`
}

// FeeEvent records a relayer payout. The monotonic nonce makes payouts
// distinguishable and auditable.
type FeeEvent struct {
	FeeRecipient common.Address `json:"fee_recipient"`
	Amount       *big.Int       `json:"amount"`
	FeeNonce     uint64         `json:"fee_nonce"`
}

// Stats is a read-only snapshot of pool activity counters.
type Stats struct {
	Deposits    uint64 `json:"deposits"`
	Withdrawals uint64 `json:"withdrawals"`
	Transfers   uint64 `json:"transfers"`
	SpentNotes  uint64 `json:"spent_notes"`
	NextIndex   uint32 `json:"next_index"`
}
