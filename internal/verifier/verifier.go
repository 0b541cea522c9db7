// verifier.go - Proof verification capability for the shielded pool.
//
// One contract, verify(proof, publicInputs) -> bool, polymorphic over the
// three proof roles the pool consumes. Concrete implementations are
// selected at construction time: a raw pairing-check engine, a gnark
// backend adapter, and a stub for tests. Verification keys come out of an
// offline trusted setup and are immutable once parsed; rotating a key
// means deploying a new verifier, never mutating an existing one.

package verifier

import (
	"errors"
	"math/big"
)

var (
	// ErrInvalidProofLength rejects a proof whose serialized size does
	// not match the fixed point encoding, independent of content.
	ErrInvalidProofLength = errors.New("invalid proof length")
	// ErrInvalidPublicInput rejects a public-input vector of the wrong
	// arity or containing a value outside the scalar field.
	ErrInvalidPublicInput = errors.New("invalid public input")
)

// Input arities per proof role.
const (
	WithdrawalInputs  = 4 // [merkleRoot, nullifier, recipient, amount]
	ConsistencyInputs = 4 // [merkleRoot, nullifier, newCommitmentA, newCommitmentB]
	RangeInputs       = 2 // [commitment, minValue]
)

// Verifier is the capability gating every state-changing pool operation.
// A false result and a nil error is an ordinary rejection; an error means
// the inputs were malformed or the arithmetic primitive failed.
type Verifier interface {
	Verify(proof []byte, publicInputs []*big.Int) (bool, error)
}

// checkInputs enforces arity and field membership before any group math.
func checkInputs(inputs []*big.Int, arity int, modulus *big.Int) error {
	if len(inputs) != arity {
		return ErrInvalidPublicInput
	}
	for _, in := range inputs {
		if in == nil || in.Sign() < 0 || in.Cmp(modulus) >= 0 {
			return ErrInvalidPublicInput
		}
	}
	return nil
}

// Stub is a test double returning a fixed outcome. Tests control verifier
// acceptance directly without needing a real proof.
type Stub struct {
	Result bool
	Err    error
}

func (s *Stub) Verify([]byte, []*big.Int) (bool, error) {
	return s.Result, s.Err
}
