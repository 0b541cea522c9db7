// pedersen.go - Pedersen commitment engine for the shielded pool.
//
// A commitment binds a (value, blinding) pair to the group element
// C = value·G + blinding·H and hides both operands. G is the canonical
// generator; H is derived by hashing a fixed tag onto the curve, so no
// party knows a discrete-log relation between the two. The additive homomorphism
// commit(v1,r1) + commit(v2,r2) = commit(v1+v2, r1+r2) is what lets the
// pool split and merge hidden amounts.

package pedersen

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/ethereum/go-ethereum/common"

	"shieldedpool/internal/curve"
)

// generatorHTag is the fixed domain-separation tag H is derived from.
// Changing it changes every commitment in existence; never touch it.
const generatorHTag = "shieldedpool/pedersen/generator-H/v1"

// Engine computes and combines Pedersen commitments over a curve provider.
type Engine struct {
	provider curve.Provider
	h        *curve.G1 // second generator, hash-to-curve of generatorHTag
}

// New builds an Engine on the given arithmetic provider, deriving the
// second generator H via hash-to-curve.
func New(p curve.Provider) (*Engine, error) {
	h, err := p.HashToG1([]byte(generatorHTag), []byte("shieldedpool"))
	if err != nil {
		return nil, fmt.Errorf("derive generator H: %w", err)
	}
	return &Engine{provider: p, h: h}, nil
}

// CommitPoint returns the raw group element value·G + blinding·H.
// Use this form when the linear structure is still needed; Digest loses it.
func (e *Engine) CommitPoint(value, blinding *big.Int) (*curve.G1, error) {
	vg, err := e.provider.ScalarBaseMulG1(value)
	if err != nil {
		return nil, err
	}
	rh, err := e.provider.ScalarMulG1(e.h, blinding)
	if err != nil {
		return nil, err
	}
	return e.provider.AddG1(vg, rh)
}

// Commit returns the compact 32-byte digest of the commitment point, the
// form stored in the tree and carried in public inputs.
func (e *Engine) Commit(value, blinding *big.Int) (common.Hash, error) {
	p, err := e.CommitPoint(value, blinding)
	if err != nil {
		return common.Hash{}, err
	}
	return Digest(p), nil
}

// Verify recomputes the commitment for (value, blinding) and compares
// digests. Off the critical path: production flows never reveal the
// operands, this exists for testing and audit tooling.
func (e *Engine) Verify(digest common.Hash, value, blinding *big.Int) (bool, error) {
	got, err := e.Commit(value, blinding)
	if err != nil {
		return false, err
	}
	return got == digest, nil
}

// Add returns the group sum of two commitment points.
func (e *Engine) Add(c1, c2 *curve.G1) (*curve.G1, error) {
	return e.provider.AddG1(c1, c2)
}

// ScalarMul returns k·C.
func (e *Engine) ScalarMul(c *curve.G1, k *big.Int) (*curve.G1, error) {
	return e.provider.ScalarMulG1(c, k)
}

// HashToScalar deterministically maps arbitrary bytes into [0, groupOrder),
// used to derive blinding and challenge scalars.
func (e *Engine) HashToScalar(data []byte) *big.Int {
	return curve.HashToScalar(data)
}

// Digest hashes a commitment point's coordinates into the fixed 32-byte
// form. MiMC over the scalar field keeps the digest a valid tree leaf.
func Digest(p *curve.G1) common.Hash {
	h := mimc.NewMiMC()
	x := curve.ScalarBytes(p.X.BigInt(new(big.Int)))
	y := curve.ScalarBytes(p.Y.BigInt(new(big.Int)))
	h.Write(x[:])
	h.Write(y[:])
	return common.BytesToHash(h.Sum(nil))
}
