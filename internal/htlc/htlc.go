// htlc.go - Hashlock/timelock atomic-swap collaborator.
//
// Independent of the pool: a single-struct state machine per swap, no tree
// or proof logic. Preimages are checked with SHA-256, the hash family
// counterparty chains can evaluate natively.

package htlc

import (
	"crypto/sha256"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Status is the lifecycle state of a swap.
type Status string

const (
	StatusActive   Status = "active"
	StatusRedeemed Status = "redeemed"
	StatusRefunded Status = "refunded"
)

// Timelock bounds relative to initiation time.
const (
	MinLock = time.Hour
	MaxLock = 7 * 24 * time.Hour
)

var (
	// ErrInvalidTimelock rejects a timelock outside [now+1h, now+7d].
	ErrInvalidTimelock = errors.New("timelock outside allowed window")
	// ErrInvalidPreimage rejects a preimage whose SHA-256 does not match
	// the hashlock.
	ErrInvalidPreimage = errors.New("preimage does not match hashlock")
	// ErrSwapNotFound rejects an unknown swap id.
	ErrSwapNotFound = errors.New("swap not found")
	// ErrSwapNotActive rejects redeem/refund of a settled swap.
	ErrSwapNotActive = errors.New("swap is not active")
	// ErrTimelockNotExpired rejects a refund before expiry.
	ErrTimelockNotExpired = errors.New("timelock has not expired")
	// ErrTimelockExpired rejects a redeem after expiry.
	ErrTimelockExpired = errors.New("timelock has expired")
	// ErrZeroAmount rejects a swap with no value attached.
	ErrZeroAmount = errors.New("amount must be nonzero")
)

// Swap is one hashlock/timelock contract.
type Swap struct {
	ID        common.Hash    `json:"id"`
	Sender    common.Address `json:"sender"`
	Recipient common.Address `json:"recipient"`
	Amount    *big.Int       `json:"amount"`
	Hashlock  common.Hash    `json:"hashlock"`
	Timelock  time.Time      `json:"timelock"`
	Status    Status         `json:"status"`
}

// Registry tracks swaps by id. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	swaps map[common.Hash]*Swap
	now   func() time.Time
}

// NewRegistry returns an empty swap registry.
func NewRegistry() *Registry {
	return &Registry{
		swaps: make(map[common.Hash]*Swap),
		now:   time.Now,
	}
}

// Initiate locks value under a hashlock until timelock. The timelock must
// lie within [now+1h, now+7d].
func (r *Registry) Initiate(sender, recipient common.Address, amount *big.Int, hashlock common.Hash, timelock time.Time) (common.Hash, error) {
	if amount == nil || amount.Sign() <= 0 {
		return common.Hash{}, ErrZeroAmount
	}
	now := r.now()
	if timelock.Before(now.Add(MinLock)) || timelock.After(now.Add(MaxLock)) {
		return common.Hash{}, ErrInvalidTimelock
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := swapID(sender, recipient, hashlock, timelock)
	if _, exists := r.swaps[id]; exists {
		return common.Hash{}, errors.New("swap already exists")
	}
	r.swaps[id] = &Swap{
		ID:        id,
		Sender:    sender,
		Recipient: recipient,
		Amount:    new(big.Int).Set(amount),
		Hashlock:  hashlock,
		Timelock:  timelock,
		Status:    StatusActive,
	}
	return id, nil
}

// Redeem settles an active swap to the recipient given the hashlock
// preimage, before expiry.
func (r *Registry) Redeem(id common.Hash, preimage []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.swaps[id]
	if !ok {
		return ErrSwapNotFound
	}
	if s.Status != StatusActive {
		return ErrSwapNotActive
	}
	if !r.now().Before(s.Timelock) {
		return ErrTimelockExpired
	}
	if sha256.Sum256(preimage) != [32]byte(s.Hashlock) {
		return ErrInvalidPreimage
	}
	s.Status = StatusRedeemed
	return nil
}

// Refund returns a swap to the sender once the timelock has expired.
func (r *Registry) Refund(id common.Hash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.swaps[id]
	if !ok {
		return ErrSwapNotFound
	}
	if s.Status != StatusActive {
		return ErrSwapNotActive
	}
	if r.now().Before(s.Timelock) {
		return ErrTimelockNotExpired
	}
	s.Status = StatusRefunded
	return nil
}

// CanRedeem reports whether a swap is active and unexpired.
func (r *Registry) CanRedeem(id common.Hash) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.swaps[id]
	return ok && s.Status == StatusActive && r.now().Before(s.Timelock)
}

// CanRefund reports whether a swap is active and expired.
func (r *Registry) CanRefund(id common.Hash) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.swaps[id]
	return ok && s.Status == StatusActive && !r.now().Before(s.Timelock)
}

// Get returns a copy of the swap, if present.
func (r *Registry) Get(id common.Hash) (Swap, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.swaps[id]
	if !ok {
		return Swap{}, false
	}
	out := *s
	out.Amount = new(big.Int).Set(s.Amount)
	return out, true
}

// swapID derives a deterministic id from the swap parameters.
func swapID(sender, recipient common.Address, hashlock common.Hash, timelock time.Time) common.Hash {
	h := sha256.New()
	h.Write(sender.Bytes())
	h.Write(recipient.Bytes())
	h.Write(hashlock.Bytes())
	h.Write(new(big.Int).SetInt64(timelock.Unix()).Bytes())
	return common.BytesToHash(h.Sum(nil))
}
