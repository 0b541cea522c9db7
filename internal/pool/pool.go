// pool.go - The shielded-value pool state machine.
//
// Deposits insert a commitment into the tree; withdrawals and transfers
// are gated by nullifier uniqueness and a zero-knowledge proof against the
// current root. All three mutating operations serialize on one writer
// lock so check-nullifier → verify-proof → mark-spent → mutate-tree is
// atomic as a unit; two concurrent withdrawals can never both pass the
// nullifier check. Queries read a consistent snapshot under the read lock.

package pool

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"shieldedpool/internal/merkletree"
	"shieldedpool/internal/verifier"
)

var (
	// ErrZeroAmount rejects a deposit or withdrawal with no value attached.
	ErrZeroAmount = errors.New("amount must be nonzero")
	// ErrInvalidRecipient rejects an unset recipient address.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrNullifierSpent rejects re-use of a spent nullifier. Permanent for
	// that nullifier; retrying with the same arguments can never succeed.
	ErrNullifierSpent = errors.New("nullifier already spent")
	// ErrInvalidProof rejects an operation whose proof fails verification.
	ErrInvalidProof = errors.New("invalid proof")
	// ErrRelayerNotAllowed rejects a fee-bearing withdrawal through a
	// relayer outside the allow-list.
	ErrRelayerNotAllowed = errors.New("relayer not on allow-list")
	// ErrFeeExceedsAmount rejects a fee that does not leave the recipient
	// a positive payout.
	ErrFeeExceedsAmount = errors.New("fee must be less than amount")
)

// Config wires the pool's collaborators. Zero-value fields get safe
// in-process defaults.
type Config struct {
	Store            Store
	Payer            Payer
	WithdrawVerifier verifier.Verifier
	TransferVerifier verifier.Verifier
	// Relayers is the fee-payout allow-list. Fee-bearing withdrawals
	// through an unlisted relayer are rejected.
	Relayers []common.Address
	Logger   zerolog.Logger
}

// Pool owns the commitment tree and the nullifier set.
type Pool struct {
	mu sync.RWMutex

	tree       *merkletree.Tree
	nullifiers map[common.Hash]struct{}
	feeNonce   uint64

	store    Store
	payer    Payer
	withdraw verifier.Verifier
	transfer verifier.Verifier
	relayers map[common.Address]struct{}

	stats Stats
	log   zerolog.Logger
	now   func() time.Time
}

// New builds a pool and replays any state journaled in cfg.Store so a
// restarted node resumes at its previous root.
func New(cfg Config) (*Pool, error) {
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Payer == nil {
		cfg.Payer = NewBook()
	}
	if cfg.WithdrawVerifier == nil || cfg.TransferVerifier == nil {
		return nil, errors.New("pool: withdraw and transfer verifiers are required")
	}
	p := &Pool{
		tree:       merkletree.New(),
		nullifiers: make(map[common.Hash]struct{}),
		store:      cfg.Store,
		payer:      cfg.Payer,
		withdraw:   cfg.WithdrawVerifier,
		transfer:   cfg.TransferVerifier,
		relayers:   make(map[common.Address]struct{}),
		log:        cfg.Logger,
		now:        time.Now,
	}
	for _, r := range cfg.Relayers {
		p.relayers[r] = struct{}{}
	}
	if err := p.replay(); err != nil {
		return nil, err
	}
	return p, nil
}

// replay rebuilds in-memory state from the journal.
func (p *Pool) replay() error {
	err := p.store.ReplayLeaves(func(index uint32, leaf common.Hash) error {
		got, _, err := p.tree.Insert(leaf)
		if err != nil {
			return err
		}
		if got != index {
			return fmt.Errorf("pool: journal replay out of order: leaf %d landed at %d", index, got)
		}
		p.stats.NextIndex = got + 1
		return nil
	})
	if err != nil {
		return fmt.Errorf("pool: replay leaves: %w", err)
	}
	err = p.store.ReplayNullifiers(func(n common.Hash) error {
		p.nullifiers[n] = struct{}{}
		return nil
	})
	if err != nil {
		return fmt.Errorf("pool: replay nullifiers: %w", err)
	}
	p.stats.SpentNotes = uint64(len(p.nullifiers))
	if p.feeNonce, err = p.store.FeeNonce(); err != nil {
		return fmt.Errorf("pool: load fee nonce: %w", err)
	}
	return nil
}

// Deposit accepts a commitment with attached value and inserts it into
// the tree. No proof required: deposits are always accepted while value
// is nonzero and capacity remains.
func (p *Pool) Deposit(commitment common.Hash, amount *big.Int) (*DepositEvent, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if err := merkletree.CheckLeaf(commitment); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	index := p.tree.NextIndex()
	if uint64(index)+1 > 1<<merkletree.Depth {
		return nil, merkletree.ErrTreeFull
	}
	// Journal before mutating: a journal failure must leave the tree
	// untouched, and the insert below cannot fail once capacity and
	// leaf canonicity are checked.
	if err := p.store.AppendLeaves(index, commitment); err != nil {
		return nil, fmt.Errorf("pool: journal leaf: %w", err)
	}
	_, root, err := p.tree.Insert(commitment)
	if err != nil {
		return nil, err
	}
	p.stats.Deposits++
	p.stats.NextIndex = index + 1

	ev := &DepositEvent{
		Commitment: commitment,
		LeafIndex:  index,
		Timestamp:  p.now().Unix(),
	}
	p.log.Info().
		Str("commitment", commitment.Hex()).
		Uint32("leaf_index", index).
		Str("root", root.Hex()).
		Msg("deposit accepted")
	return ev, nil
}

// Withdraw spends a note: checks the nullifier, verifies the withdrawal
// proof against [currentRoot, nullifier, recipient, amount], marks the
// nullifier spent, then moves value. relayer and fee are optional; a fee
// requires an allow-listed relayer and is paid under a monotonic nonce.
func (p *Pool) Withdraw(proof []byte, nullifier common.Hash, recipient common.Address, amount *big.Int, relayer *common.Address, fee *big.Int) (*WithdrawalEvent, *FeeEvent, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, nil, ErrZeroAmount
	}
	if recipient == (common.Address{}) {
		return nil, nil, ErrInvalidRecipient
	}
	hasFee := fee != nil && fee.Sign() > 0
	if hasFee {
		if relayer == nil {
			return nil, nil, ErrRelayerNotAllowed
		}
		if fee.Cmp(amount) >= 0 {
			return nil, nil, ErrFeeExceedsAmount
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, spent := p.nullifiers[nullifier]; spent {
		return nil, nil, ErrNullifierSpent
	}
	if hasFee {
		if _, ok := p.relayers[*relayer]; !ok {
			return nil, nil, ErrRelayerNotAllowed
		}
	}

	inputs := []*big.Int{
		p.tree.Root().Big(),
		nullifier.Big(),
		new(big.Int).SetBytes(recipient.Bytes()),
		amount,
	}
	ok, err := p.withdraw.Verify(proof, inputs)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrInvalidProof
	}

	// Mark the authoritative state before any externally observable
	// transfer. A payout failure reverts the mark under the same lock,
	// so partial application is never visible.
	p.nullifiers[nullifier] = struct{}{}
	if err := p.store.PutNullifier(nullifier); err != nil {
		delete(p.nullifiers, nullifier)
		return nil, nil, fmt.Errorf("pool: journal nullifier: %w", err)
	}

	// The advanced nonce is journaled before any payout. A later payout
	// failure leaves an unused nonce value behind, which keeps the
	// sequence monotonic; a reused nonce is what must never happen.
	if hasFee {
		if err := p.store.PutFeeNonce(p.feeNonce + 1); err != nil {
			p.rollbackNullifier(nullifier)
			return nil, nil, fmt.Errorf("pool: journal fee nonce: %w", err)
		}
	}

	payout := new(big.Int).Set(amount)
	if hasFee {
		payout.Sub(payout, fee)
	}
	if err := p.payer.Pay(recipient, payout); err != nil {
		p.rollbackNullifier(nullifier)
		return nil, nil, fmt.Errorf("%w: recipient: %v", ErrPayoutFailed, err)
	}

	var feeEv *FeeEvent
	if hasFee {
		if err := p.payer.Pay(*relayer, fee); err != nil {
			p.rollbackNullifier(nullifier)
			return nil, nil, fmt.Errorf("%w: relayer: %v", ErrPayoutFailed, err)
		}
		p.feeNonce++
		feeEv = &FeeEvent{FeeRecipient: *relayer, Amount: new(big.Int).Set(fee), FeeNonce: p.feeNonce}
	}

	p.stats.Withdrawals++
	p.stats.SpentNotes++

	ev := &WithdrawalEvent{
		Nullifier: nullifier,
		Recipient: recipient,
		Amount:    new(big.Int).Set(amount),
	}
	p.log.Info().
		Str("nullifier", nullifier.Hex()).
		Str("recipient", recipient.Hex()).
		Str("amount", amount.String()).
		Msg("withdrawal accepted")
	return ev, feeEv, nil
}

// Transfer spends a note and splits it into two fresh commitments. No
// value leaves the pool; the two outputs encode recipient amount plus
// change, both hidden.
func (p *Pool) Transfer(proof []byte, nullifier, newCommitmentA, newCommitmentB common.Hash) (*TransferEvent, error) {
	if err := merkletree.CheckLeaf(newCommitmentA); err != nil {
		return nil, err
	}
	if err := merkletree.CheckLeaf(newCommitmentB); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, spent := p.nullifiers[nullifier]; spent {
		return nil, ErrNullifierSpent
	}
	// Both outputs must fit before anything mutates.
	if uint64(p.tree.NextIndex())+2 > 1<<merkletree.Depth {
		return nil, merkletree.ErrTreeFull
	}

	inputs := []*big.Int{
		p.tree.Root().Big(),
		nullifier.Big(),
		newCommitmentA.Big(),
		newCommitmentB.Big(),
	}
	ok, err := p.transfer.Verify(proof, inputs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidProof
	}

	p.nullifiers[nullifier] = struct{}{}
	if err := p.store.PutNullifier(nullifier); err != nil {
		delete(p.nullifiers, nullifier)
		return nil, fmt.Errorf("pool: journal nullifier: %w", err)
	}

	// Both leaves are journaled as one batch before the tree moves, so a
	// journal failure rolls back to a tree and nullifier set identical to
	// the pre-call state.
	indexA := p.tree.NextIndex()
	if err := p.store.AppendLeaves(indexA, newCommitmentA, newCommitmentB); err != nil {
		p.rollbackNullifier(nullifier)
		return nil, fmt.Errorf("pool: journal leaves: %w", err)
	}
	if _, _, err := p.tree.Insert(newCommitmentA); err != nil {
		return nil, err
	}
	indexB, _, err := p.tree.Insert(newCommitmentB)
	if err != nil {
		return nil, err
	}

	p.stats.Transfers++
	p.stats.SpentNotes++
	p.stats.NextIndex = indexB + 1

	// Root read again after both insertions; it moved twice.
	ev := &TransferEvent{
		Nullifier:      nullifier,
		NewCommitmentA: newCommitmentA,
		NewCommitmentB: newCommitmentB,
		LeafIndexA:     indexA,
		LeafIndexB:     indexB,
		NewRoot:        p.tree.Root(),
	}
	p.log.Info().
		Str("nullifier", nullifier.Hex()).
		Str("new_root", ev.NewRoot.Hex()).
		Msg("transfer accepted")
	return ev, nil
}

func (p *Pool) rollbackNullifier(n common.Hash) {
	delete(p.nullifiers, n)
	if err := p.store.DeleteNullifier(n); err != nil {
		p.log.Error().Err(err).Str("nullifier", n.Hex()).Msg("nullifier rollback journal write failed")
	}
}

// Root returns the current Merkle root.
func (p *Pool) Root() common.Hash {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tree.Root()
}

// IsSpent reports whether a nullifier has been consumed.
func (p *Pool) IsSpent(nullifier common.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, spent := p.nullifiers[nullifier]
	return spent
}

// NextIndex returns the next free leaf index.
func (p *Pool) NextIndex() uint32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tree.NextIndex()
}

// Stats returns a consistent snapshot of activity counters.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.stats
	s.NextIndex = p.tree.NextIndex()
	return s
}

// CheckJournal exercises the journal with a read, for health reporting.
func (p *Pool) CheckJournal() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, err := p.store.FeeNonce()
	return err
}

// Close releases the journal.
func (p *Pool) Close() error {
	return p.store.Close()
}
