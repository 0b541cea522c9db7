package verifier

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	qt "github.com/frankban/quicktest"

	"shieldedpool/internal/curve"
)

// testVK builds a verification key whose pairing equation is satisfied by
// proof (A=G1, B=G2, C=6·G1) with public inputs [2, 3]:
// e(-A,B)·e(alpha,beta) cancels since alpha=A, beta=B, and with gamma=G2,
// delta=-G2 the remaining product is e(vk_x - C, G2), the identity exactly
// when vk_x = IC[0] + 2·IC[1] + 3·IC[2] = 6·G1 = C.
func testVK(t *testing.T) *VerifyingKey {
	t.Helper()
	_, _, g1, g2 := bn254.Generators()
	var negG2 curve.G2
	negG2.Neg(&g2)

	raw := append([]byte{}, curve.EncodeG1(&g1)...)
	raw = append(raw, curve.EncodeG2(&g2)...)   // beta
	raw = append(raw, curve.EncodeG2(&g2)...)   // gamma
	raw = append(raw, curve.EncodeG2(&negG2)...) // delta
	for i := 0; i < 3; i++ {
		raw = append(raw, curve.EncodeG1(&g1)...) // IC[0..2]
	}

	vk, err := ParseVerifyingKey(raw, RangeInputs)
	qt.Assert(t, err, qt.IsNil)
	return vk
}

func testProof(scale int64) []byte {
	_, _, g1, g2 := bn254.Generators()
	var c curve.G1
	c.ScalarMultiplication(&g1, big.NewInt(scale))
	proof := append([]byte{}, curve.EncodeG1(&g1)...)
	proof = append(proof, curve.EncodeG2(&g2)...)
	proof = append(proof, curve.EncodeG1(&c)...)
	return proof
}

func TestPairingAcceptsSatisfiedEquation(t *testing.T) {
	v, err := NewPairing(curve.NewBN254(), testVK(t), RangeInputs)
	qt.Assert(t, err, qt.IsNil)

	ok, err := v.Verify(testProof(6), []*big.Int{big.NewInt(2), big.NewInt(3)})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ok, qt.IsTrue)
}

func TestPairingRejectsUnsatisfiedEquation(t *testing.T) {
	v, err := NewPairing(curve.NewBN254(), testVK(t), RangeInputs)
	qt.Assert(t, err, qt.IsNil)

	// C = 7·G1 breaks vk_x == C.
	ok, err := v.Verify(testProof(7), []*big.Int{big.NewInt(2), big.NewInt(3)})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ok, qt.IsFalse)

	// Same proof, different inputs: also rejected.
	ok, err = v.Verify(testProof(6), []*big.Int{big.NewInt(2), big.NewInt(4)})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ok, qt.IsFalse)
}

func TestPairingProofLength(t *testing.T) {
	v, err := NewPairing(curve.NewBN254(), testVK(t), RangeInputs)
	qt.Assert(t, err, qt.IsNil)

	inputs := []*big.Int{big.NewInt(2), big.NewInt(3)}
	for _, n := range []int{0, 1, ProofLen - 1, ProofLen + 1, 2 * ProofLen} {
		ok, err := v.Verify(make([]byte, n), inputs)
		qt.Assert(t, err, qt.Equals, ErrInvalidProofLength)
		qt.Assert(t, ok, qt.IsFalse)
	}
}

func TestPairingPublicInputBounds(t *testing.T) {
	prov := curve.NewBN254()
	v, err := NewPairing(prov, testVK(t), RangeInputs)
	qt.Assert(t, err, qt.IsNil)
	proof := testProof(6)

	// Wrong arity.
	ok, err := v.Verify(proof, []*big.Int{big.NewInt(1)})
	qt.Assert(t, err, qt.Equals, ErrInvalidPublicInput)
	qt.Assert(t, ok, qt.IsFalse)

	// Input at and above the field modulus.
	for _, bad := range []*big.Int{
		prov.ScalarField(),
		new(big.Int).Add(prov.ScalarField(), big.NewInt(1)),
	} {
		ok, err := v.Verify(proof, []*big.Int{bad, big.NewInt(3)})
		qt.Assert(t, err, qt.Equals, ErrInvalidPublicInput)
		qt.Assert(t, ok, qt.IsFalse)
	}

	// Nil input.
	ok, err = v.Verify(proof, []*big.Int{nil, big.NewInt(3)})
	qt.Assert(t, err, qt.Equals, ErrInvalidPublicInput)
	qt.Assert(t, ok, qt.IsFalse)
}

func TestPairingRejectsMalformedPoints(t *testing.T) {
	v, err := NewPairing(curve.NewBN254(), testVK(t), RangeInputs)
	qt.Assert(t, err, qt.IsNil)

	// Right length, but the A slot's X coordinate exceeds the base field.
	proof := testProof(6)
	for i := 0; i < 32; i++ {
		proof[i] = 0xff
	}
	ok, err := v.Verify(proof, []*big.Int{big.NewInt(2), big.NewInt(3)})
	qt.Assert(t, err, qt.ErrorIs, curve.ErrCurveOperation)
	qt.Assert(t, ok, qt.IsFalse)
}

func TestParseVerifyingKeyLength(t *testing.T) {
	_, err := ParseVerifyingKey(make([]byte, 10), RangeInputs)
	qt.Assert(t, err, qt.IsNotNil)
}

func TestArityMismatchAtConstruction(t *testing.T) {
	_, err := NewPairing(curve.NewBN254(), testVK(t), WithdrawalInputs)
	qt.Assert(t, err, qt.IsNotNil)
}

func TestStub(t *testing.T) {
	accept := &Stub{Result: true}
	ok, err := accept.Verify(nil, nil)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ok, qt.IsTrue)

	reject := &Stub{Result: false}
	ok, err = reject.Verify(make([]byte, ProofLen), []*big.Int{big.NewInt(1)})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ok, qt.IsFalse)
}
