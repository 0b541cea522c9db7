package curve

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	qt "github.com/frankban/quicktest"
)

func TestScalarBaseMulMatchesAddition(t *testing.T) {
	p := NewBN254()

	g1, err := p.ScalarBaseMulG1(big.NewInt(1))
	qt.Assert(t, err, qt.IsNil)
	g2, err := p.ScalarBaseMulG1(big.NewInt(2))
	qt.Assert(t, err, qt.IsNil)

	sum, err := p.AddG1(g1, g1)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, sum.Equal(g2), qt.IsTrue)

	tripled, err := p.ScalarMulG1(g1, big.NewInt(3))
	qt.Assert(t, err, qt.IsNil)
	viaAdd, err := p.AddG1(sum, g1)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, tripled.Equal(viaAdd), qt.IsTrue)
}

func TestScalarReduction(t *testing.T) {
	p := NewBN254()
	k := big.NewInt(5)
	overflow := new(big.Int).Add(k, p.ScalarField())

	a, err := p.ScalarBaseMulG1(k)
	qt.Assert(t, err, qt.IsNil)
	b, err := p.ScalarBaseMulG1(overflow)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, a.Equal(b), qt.IsTrue)
}

func TestNeg(t *testing.T) {
	p := NewBN254()
	g, err := p.ScalarBaseMulG1(big.NewInt(7))
	qt.Assert(t, err, qt.IsNil)
	sum, err := p.AddG1(g, p.NegG1(g))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, sum.IsInfinity(), qt.IsTrue)
}

func TestHashToG1DomainSeparation(t *testing.T) {
	p := NewBN254()
	h1, err := p.HashToG1([]byte("tag-a"), []byte("dst"))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, h1.IsOnCurve(), qt.IsTrue)

	h2, err := p.HashToG1([]byte("tag-b"), []byte("dst"))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, h1.Equal(h2), qt.IsFalse)
}

func TestEncodeDecodeG1(t *testing.T) {
	p := NewBN254()
	for _, k := range []int64{1, 2, 31337} {
		pt, err := p.ScalarBaseMulG1(big.NewInt(k))
		qt.Assert(t, err, qt.IsNil)
		dec, err := DecodeG1(EncodeG1(pt))
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, dec.Equal(pt), qt.IsTrue)
	}

	// Infinity round-trips as all zeros.
	var inf G1
	dec, err := DecodeG1(EncodeG1(&inf))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, dec.IsInfinity(), qt.IsTrue)

	_, err = DecodeG1(make([]byte, 10))
	qt.Assert(t, err, qt.ErrorIs, ErrCurveOperation)

	// Coordinates outside the base field are rejected.
	bad := make([]byte, G1EncodedLen)
	for i := range bad {
		bad[i] = 0xff
	}
	_, err = DecodeG1(bad)
	qt.Assert(t, err, qt.ErrorIs, ErrCurveOperation)
}

func TestEncodeDecodeG2(t *testing.T) {
	_, _, _, g2 := bn254.Generators()
	dec, err := DecodeG2(EncodeG2(&g2))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, dec.Equal(&g2), qt.IsTrue)

	_, err = DecodeG2(make([]byte, 10))
	qt.Assert(t, err, qt.ErrorIs, ErrCurveOperation)
}

func TestPairingCheckIdentity(t *testing.T) {
	p := NewBN254()
	_, _, g1, g2 := bn254.Generators()
	neg := p.NegG1(&g1)

	// e(G1,G2) · e(-G1,G2) == 1.
	ok, err := p.PairingCheck([]G1{g1, *neg}, []G2{g2, g2})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ok, qt.IsTrue)

	// e(G1,G2) alone is not the identity.
	ok, err = p.PairingCheck([]G1{g1}, []G2{g2})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ok, qt.IsFalse)

	_, err = p.PairingCheck([]G1{g1}, []G2{})
	qt.Assert(t, err, qt.ErrorIs, ErrCurveOperation)
}

func TestHashToScalar(t *testing.T) {
	p := NewBN254()
	seen := make(map[string]bool)
	for _, data := range [][]byte{nil, {0}, {1}, []byte("seed"), make([]byte, 64)} {
		s := HashToScalar(data)
		qt.Assert(t, s.Cmp(p.ScalarField()) < 0, qt.IsTrue)
		qt.Assert(t, s.Sign() >= 0, qt.IsTrue)
		seen[s.String()] = true
	}
	// nil and the empty-ish inputs must still be distinct from "seed".
	qt.Assert(t, len(seen) >= 4, qt.IsTrue)
}
