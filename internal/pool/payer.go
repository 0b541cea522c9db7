// payer.go - Value-movement capability for withdrawals and relayer fees.

package pool

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrPayoutFailed wraps any failure to move value to a recipient. The
// surrounding operation is reverted as a unit; a nullifier marked spent
// with funds unmoved must never be observable.
var ErrPayoutFailed = errors.New("payout failed")

// Payer moves value out of the pool. Synchronous, bounded latency, no
// cancellation: it either succeeds or the whole operation fails atomically.
type Payer interface {
	Pay(recipient common.Address, amount *big.Int) error
}

// Book is the default in-process Payer: a plain account book crediting
// recipients, so every payout stays auditable in tests and in the daemon.
type Book struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int
	paidOut  *big.Int
}

// NewBook returns an empty account book.
func NewBook() *Book {
	return &Book{
		balances: make(map[common.Address]*big.Int),
		paidOut:  new(big.Int),
	}
}

func (b *Book) Pay(recipient common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrPayoutFailed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bal, ok := b.balances[recipient]
	if !ok {
		bal = new(big.Int)
		b.balances[recipient] = bal
	}
	bal.Add(bal, amount)
	b.paidOut.Add(b.paidOut, amount)
	return nil
}

// Balance returns the total credited to an address.
func (b *Book) Balance(addr common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.balances[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// TotalPaid returns the sum of all payouts.
func (b *Book) TotalPaid() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.paidOut)
}
