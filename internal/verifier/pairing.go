// pairing.go - Groth16 pairing-check verification engine.
//
// Verifies the fixed 256-byte proof encoding A(64) || B(128) || C(64)
// against a baked-in verification key: folds the public inputs into
// vk_x = IC[0] + Σ input_i·IC[i+1], then checks
// e(-A, B) · e(alpha, beta) · e(vk_x, gamma) · e(C, delta) == 1.

package verifier

import (
	"fmt"
	"math/big"

	"shieldedpool/internal/curve"
)

// ProofLen is the serialized size of a pairing-check proof:
// three curve points at their fixed widths.
const ProofLen = curve.G1EncodedLen + curve.G2EncodedLen + curve.G1EncodedLen

// VerifyingKey holds the trusted-setup constants for one circuit.
// Immutable after parsing.
type VerifyingKey struct {
	Alpha curve.G1
	Beta  curve.G2
	Gamma curve.G2
	Delta curve.G2
	IC    []curve.G1
}

// ParseVerifyingKey decodes the raw constant table for a circuit with the
// given public-input arity: alpha || beta || gamma || delta || IC[0..arity].
func ParseVerifyingKey(raw []byte, arity int) (*VerifyingKey, error) {
	want := curve.G1EncodedLen + 3*curve.G2EncodedLen + (arity+1)*curve.G1EncodedLen
	if len(raw) != want {
		return nil, fmt.Errorf("verifying key: got %d bytes, want %d", len(raw), want)
	}
	vk := &VerifyingKey{IC: make([]curve.G1, arity+1)}
	off := 0
	take := func(n int) []byte {
		out := raw[off : off+n]
		off += n
		return out
	}
	alpha, err := curve.DecodeG1(take(curve.G1EncodedLen))
	if err != nil {
		return nil, fmt.Errorf("verifying key alpha: %w", err)
	}
	vk.Alpha = *alpha
	for i, dst := range []*curve.G2{&vk.Beta, &vk.Gamma, &vk.Delta} {
		p, err := curve.DecodeG2(take(curve.G2EncodedLen))
		if err != nil {
			return nil, fmt.Errorf("verifying key g2[%d]: %w", i, err)
		}
		*dst = *p
	}
	for i := 0; i <= arity; i++ {
		p, err := curve.DecodeG1(take(curve.G1EncodedLen))
		if err != nil {
			return nil, fmt.Errorf("verifying key IC[%d]: %w", i, err)
		}
		vk.IC[i] = *p
	}
	return vk, nil
}

// Pairing is the pairing-check implementation of Verifier for one proof
// role. Arity is fixed at construction.
type Pairing struct {
	provider curve.Provider
	vk       *VerifyingKey
	arity    int
}

// NewPairing builds a pairing verifier for a role. The verification key's
// IC table must match the role's arity.
func NewPairing(provider curve.Provider, vk *VerifyingKey, arity int) (*Pairing, error) {
	if len(vk.IC) != arity+1 {
		return nil, fmt.Errorf("verifying key IC length %d does not match arity %d", len(vk.IC), arity)
	}
	return &Pairing{provider: provider, vk: vk, arity: arity}, nil
}

func (v *Pairing) Verify(proof []byte, publicInputs []*big.Int) (bool, error) {
	if len(proof) != ProofLen {
		return false, ErrInvalidProofLength
	}
	if err := checkInputs(publicInputs, v.arity, v.provider.ScalarField()); err != nil {
		return false, err
	}

	a, err := curve.DecodeG1(proof[:curve.G1EncodedLen])
	if err != nil {
		return false, err
	}
	b, err := curve.DecodeG2(proof[curve.G1EncodedLen : curve.G1EncodedLen+curve.G2EncodedLen])
	if err != nil {
		return false, err
	}
	c, err := curve.DecodeG1(proof[curve.G1EncodedLen+curve.G2EncodedLen:])
	if err != nil {
		return false, err
	}

	vkx := &v.vk.IC[0]
	for i, input := range publicInputs {
		term, err := v.provider.ScalarMulG1(&v.vk.IC[i+1], input)
		if err != nil {
			return false, err
		}
		vkx, err = v.provider.AddG1(vkx, term)
		if err != nil {
			return false, err
		}
	}

	negA := v.provider.NegG1(a)
	return v.provider.PairingCheck(
		[]curve.G1{*negA, v.vk.Alpha, *vkx, *c},
		[]curve.G2{*b, v.vk.Beta, v.vk.Gamma, v.vk.Delta},
	)
}
