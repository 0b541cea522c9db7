package pedersen

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"shieldedpool/internal/curve"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(curve.NewBN254())
	qt.Assert(t, err, qt.IsNil)
	return e
}

func TestCommitDeterministic(t *testing.T) {
	e := newEngine(t)
	v, r := big.NewInt(100), big.NewInt(31337)

	c1, err := e.Commit(v, r)
	qt.Assert(t, err, qt.IsNil)
	c2, err := e.Commit(v, r)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, c1, qt.Equals, c2)

	// Different blinding hides the value: digest changes.
	c3, err := e.Commit(v, big.NewInt(31338))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, c3, qt.Not(qt.Equals), c1)
}

func TestVerify(t *testing.T) {
	e := newEngine(t)
	v, r := big.NewInt(42), big.NewInt(7)

	digest, err := e.Commit(v, r)
	qt.Assert(t, err, qt.IsNil)

	ok, err := e.Verify(digest, v, r)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ok, qt.IsTrue)

	ok, err = e.Verify(digest, big.NewInt(43), r)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ok, qt.IsFalse)

	ok, err = e.Verify(digest, v, big.NewInt(8))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ok, qt.IsFalse)
}

func TestHomomorphism(t *testing.T) {
	e := newEngine(t)
	cases := []struct{ v1, r1, v2, r2 int64 }{
		{1, 2, 3, 4},
		{0, 99, 1000000, 1},
		{123456789, 987654321, 42, 7},
	}
	for _, tc := range cases {
		p1, err := e.CommitPoint(big.NewInt(tc.v1), big.NewInt(tc.r1))
		qt.Assert(t, err, qt.IsNil)
		p2, err := e.CommitPoint(big.NewInt(tc.v2), big.NewInt(tc.r2))
		qt.Assert(t, err, qt.IsNil)

		sum, err := e.Add(p1, p2)
		qt.Assert(t, err, qt.IsNil)

		want, err := e.CommitPoint(big.NewInt(tc.v1+tc.v2), big.NewInt(tc.r1+tc.r2))
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, sum.Equal(want), qt.IsTrue)
	}
}

func TestScalarMul(t *testing.T) {
	e := newEngine(t)
	// k·commit(v, r) == commit(k·v, k·r) by linearity.
	p, err := e.CommitPoint(big.NewInt(5), big.NewInt(11))
	qt.Assert(t, err, qt.IsNil)
	tripled, err := e.ScalarMul(p, big.NewInt(3))
	qt.Assert(t, err, qt.IsNil)
	want, err := e.CommitPoint(big.NewInt(15), big.NewInt(33))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, tripled.Equal(want), qt.IsTrue)
}

func TestHashToScalarInField(t *testing.T) {
	e := newEngine(t)
	prov := curve.NewBN254()
	for _, data := range [][]byte{nil, {0x01}, []byte("blinding seed"), make([]byte, 100)} {
		s := e.HashToScalar(data)
		qt.Assert(t, s.Sign() >= 0, qt.IsTrue)
		qt.Assert(t, s.Cmp(prov.ScalarField()) < 0, qt.IsTrue)
		// Deterministic.
		qt.Assert(t, e.HashToScalar(data).Cmp(s), qt.Equals, 0)
	}
}

func TestValueReducedModOrder(t *testing.T) {
	e := newEngine(t)
	prov := curve.NewBN254()
	r := big.NewInt(9)
	v := big.NewInt(17)
	overflow := new(big.Int).Add(v, prov.ScalarField())

	c1, err := e.Commit(v, r)
	qt.Assert(t, err, qt.IsNil)
	c2, err := e.Commit(overflow, r)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, c1, qt.Equals, c2)
}
