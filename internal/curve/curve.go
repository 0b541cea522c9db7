// curve.go - Curve arithmetic provider capability for the shielded pool.
//
// Every group operation in the pool (commitments, verification-key folding,
// pairing checks) funnels through the Provider interface so the backing
// elliptic-curve library can be swapped without touching protocol logic.
// All backend failures surface as ErrCurveOperation; callers must treat
// that as a rejection, never as a zero result.

package curve

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
)

// ErrCurveOperation is returned whenever the underlying arithmetic primitive
// reports a failure (point not on curve, bad encoding, pairing error).
var ErrCurveOperation = errors.New("curve operation failed")

// G1 and G2 are the affine group elements the provider operates on.
type (
	G1 = bn254.G1Affine
	G2 = bn254.G2Affine
)

const (
	// G1EncodedLen is the width of the raw affine G1 encoding: X || Y,
	// each a 32-byte big-endian base-field element.
	G1EncodedLen = 64
	// G2EncodedLen is the width of the raw affine G2 encoding: four
	// base-field coordinates, imaginary part first per coordinate.
	G2EncodedLen = 128
)

// Provider is the arithmetic capability backing the pool. A single
// conforming implementation exists (BN254); tests use it directly since
// substitution for outcome control happens at the proof-verifier boundary.
type Provider interface {
	// AddG1 returns a+b in the group.
	AddG1(a, b *G1) (*G1, error)
	// ScalarMulG1 returns k·p. k is reduced modulo the group order.
	ScalarMulG1(p *G1, k *big.Int) (*G1, error)
	// ScalarBaseMulG1 returns k·G for the canonical generator G.
	ScalarBaseMulG1(k *big.Int) (*G1, error)
	// NegG1 returns -p.
	NegG1(p *G1) *G1
	// HashToG1 maps arbitrary bytes onto the group under a domain
	// separation tag, with no known discrete log to the generator.
	HashToG1(msg, dst []byte) (*G1, error)
	// PairingCheck reports whether the product of pairings
	// e(ps[0],qs[0])·...·e(ps[n],qs[n]) is the multiplicative identity.
	PairingCheck(ps []G1, qs []G2) (bool, error)
	// ScalarField returns the group order r.
	ScalarField() *big.Int
	// BaseField returns the coordinate field modulus p.
	BaseField() *big.Int
}

// opError wraps a backend failure into the single curve error kind.
func opError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrCurveOperation, op, err)
}
