package verifier

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	qt "github.com/frankban/quicktest"
)

// openingCircuit is a minimal statement with the range role's public shape:
// the prover knows an opening such that minValue + opening == commitment.
type openingCircuit struct {
	Commitment frontend.Variable `gnark:",public"`
	MinValue   frontend.Variable `gnark:",public"`
	Opening    frontend.Variable
}

func (c *openingCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(api.Add(c.MinValue, c.Opening), c.Commitment)
	return nil
}

// setupRangeProof compiles the circuit, runs the setup, and proves one
// satisfying assignment (commitment 10 = minValue 3 + opening 7).
func setupRangeProof(t *testing.T) (groth16.VerifyingKey, []byte) {
	t.Helper()
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &openingCircuit{})
	qt.Assert(t, err, qt.IsNil)
	pk, vk, err := groth16.Setup(ccs)
	qt.Assert(t, err, qt.IsNil)

	assignment := &openingCircuit{Commitment: 10, MinValue: 3, Opening: 7}
	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	qt.Assert(t, err, qt.IsNil)
	proof, err := groth16.Prove(ccs, pk, w)
	qt.Assert(t, err, qt.IsNil)

	var buf bytes.Buffer
	_, err = proof.WriteTo(&buf)
	qt.Assert(t, err, qt.IsNil)
	return vk, buf.Bytes()
}

func TestGnarkRoundTrip(t *testing.T) {
	vk, proof := setupRangeProof(t)
	v, err := NewGnark(vk, RangeInputs)
	qt.Assert(t, err, qt.IsNil)

	ok, err := v.Verify(proof, []*big.Int{big.NewInt(10), big.NewInt(3)})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ok, qt.IsTrue)

	// Same proof against different public inputs is an ordinary rejection.
	ok, err = v.Verify(proof, []*big.Int{big.NewInt(11), big.NewInt(3)})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ok, qt.IsFalse)

	ok, err = v.Verify(proof, []*big.Int{big.NewInt(10), big.NewInt(4)})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ok, qt.IsFalse)
}

func TestGnarkMalformedProofBytes(t *testing.T) {
	vk, _ := setupRangeProof(t)
	v, err := NewGnark(vk, RangeInputs)
	qt.Assert(t, err, qt.IsNil)

	inputs := []*big.Int{big.NewInt(10), big.NewInt(3)}
	for _, proof := range [][]byte{nil, {0x01}, make([]byte, 16)} {
		ok, err := v.Verify(proof, inputs)
		qt.Assert(t, err, qt.Equals, ErrInvalidProofLength)
		qt.Assert(t, ok, qt.IsFalse)
	}
}

func TestGnarkInputValidation(t *testing.T) {
	// Input checks run before the proof is touched, so no key is needed.
	v, err := NewGnark(nil, RangeInputs)
	qt.Assert(t, err, qt.IsNil)

	// Wrong arity.
	ok, err := v.Verify(nil, []*big.Int{big.NewInt(1)})
	qt.Assert(t, err, qt.Equals, ErrInvalidPublicInput)
	qt.Assert(t, ok, qt.IsFalse)

	// Input at the field modulus.
	ok, err = v.Verify(nil, []*big.Int{fr.Modulus(), big.NewInt(1)})
	qt.Assert(t, err, qt.Equals, ErrInvalidPublicInput)
	qt.Assert(t, ok, qt.IsFalse)

	// Nil input.
	ok, err = v.Verify(nil, []*big.Int{nil, big.NewInt(1)})
	qt.Assert(t, err, qt.Equals, ErrInvalidPublicInput)
	qt.Assert(t, ok, qt.IsFalse)

	// Consistency constructor validates arity the same way.
	c := NewGnarkConsistency(nil)
	ok, err = c.Verify(nil, []*big.Int{big.NewInt(1)})
	qt.Assert(t, err, qt.Equals, ErrInvalidPublicInput)
	qt.Assert(t, ok, qt.IsFalse)
}

func TestNewGnarkUnsupportedArity(t *testing.T) {
	_, err := NewGnark(nil, 7)
	qt.Assert(t, err, qt.IsNotNil)
}
