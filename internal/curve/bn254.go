// bn254.go - BN254 backend for the curve arithmetic provider.
//
// BN254 is the pairing-friendly curve exposed by the on-chain arithmetic
// coprocessor routines the source system targets, so it is the only backend
// shipped. Implemented on consensys/gnark-crypto.

package curve

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// BN254 implements Provider over gnark-crypto's BN254.
type BN254 struct{}

// NewBN254 returns the BN254 arithmetic provider.
func NewBN254() *BN254 { return &BN254{} }

func (BN254) AddG1(a, b *G1) (*G1, error) {
	if !a.IsOnCurve() || !b.IsOnCurve() {
		return nil, opError("add", errors.New("operand not on curve"))
	}
	var out G1
	out.Add(a, b)
	return &out, nil
}

func (c BN254) ScalarMulG1(p *G1, k *big.Int) (*G1, error) {
	if !p.IsOnCurve() {
		return nil, opError("scalar-mul", errors.New("point not on curve"))
	}
	var out G1
	out.ScalarMultiplication(p, new(big.Int).Mod(k, fr.Modulus()))
	return &out, nil
}

func (c BN254) ScalarBaseMulG1(k *big.Int) (*G1, error) {
	var out G1
	out.ScalarMultiplicationBase(new(big.Int).Mod(k, fr.Modulus()))
	return &out, nil
}

func (BN254) NegG1(p *G1) *G1 {
	var out G1
	out.Neg(p)
	return &out
}

func (BN254) HashToG1(msg, dst []byte) (*G1, error) {
	p, err := bn254.HashToG1(msg, dst)
	if err != nil {
		return nil, opError("hash-to-g1", err)
	}
	return &p, nil
}

func (BN254) PairingCheck(ps []G1, qs []G2) (bool, error) {
	if len(ps) != len(qs) {
		return false, opError("pairing", errors.New("mismatched pair count"))
	}
	ok, err := bn254.PairingCheck(ps, qs)
	if err != nil {
		return false, opError("pairing", err)
	}
	return ok, nil
}

func (BN254) ScalarField() *big.Int { return fr.Modulus() }

func (BN254) BaseField() *big.Int { return fp.Modulus() }

// HashToScalar maps arbitrary bytes to a scalar in [0, r) using MiMC,
// the same construction the protocol uses to derive blinding and
// challenge scalars.
func HashToScalar(data []byte) *big.Int {
	h := mimc.NewMiMC()
	// MiMC consumes canonical field elements; fold the input into
	// 31-byte chunks so every block is strictly below the modulus.
	for i := 0; i < len(data) || i == 0; i += 31 {
		end := i + 31
		if end > len(data) {
			end = len(data)
		}
		var block [32]byte
		copy(block[32-(end-i):], data[i:end])
		h.Write(block[:])
	}
	return new(big.Int).Mod(new(big.Int).SetBytes(h.Sum(nil)), fr.Modulus())
}

// ScalarBytes returns the 32-byte big-endian canonical encoding of v mod r.
// All hash inputs and digests in the pool use this fixed width.
func ScalarBytes(v *big.Int) [32]byte {
	var out [32]byte
	new(big.Int).Mod(v, fr.Modulus()).FillBytes(out[:])
	return out
}

// EncodeG1 serializes p as X || Y, 32-byte big-endian coordinates.
// The point at infinity encodes as 64 zero bytes.
func EncodeG1(p *G1) []byte {
	out := make([]byte, G1EncodedLen)
	if p.IsInfinity() {
		return out
	}
	x := p.X.Bytes()
	y := p.Y.Bytes()
	copy(out[:32], x[:])
	copy(out[32:], y[:])
	return out
}

// DecodeG1 parses the raw 64-byte affine encoding produced by EncodeG1.
func DecodeG1(buf []byte) (*G1, error) {
	if len(buf) != G1EncodedLen {
		return nil, opError("decode-g1", errors.New("bad length"))
	}
	var p G1
	if allZero(buf) {
		return &p, nil
	}
	if err := setFp(&p.X, buf[:32]); err != nil {
		return nil, err
	}
	if err := setFp(&p.Y, buf[32:]); err != nil {
		return nil, err
	}
	if !p.IsOnCurve() {
		return nil, opError("decode-g1", errors.New("point not on curve"))
	}
	return &p, nil
}

// EncodeG2 serializes p as X_im || X_re || Y_im || Y_re, 32-byte
// big-endian coordinates. The point at infinity encodes as 128 zero bytes.
func EncodeG2(p *G2) []byte {
	out := make([]byte, G2EncodedLen)
	if p.IsInfinity() {
		return out
	}
	for i, e := range []*fp.Element{&p.X.A1, &p.X.A0, &p.Y.A1, &p.Y.A0} {
		b := e.Bytes()
		copy(out[i*32:], b[:])
	}
	return out
}

// DecodeG2 parses the raw 128-byte affine encoding: X_im || X_re || Y_im || Y_re,
// the coordinate order used by the proof wire format.
func DecodeG2(buf []byte) (*G2, error) {
	if len(buf) != G2EncodedLen {
		return nil, opError("decode-g2", errors.New("bad length"))
	}
	var p G2
	if allZero(buf) {
		return &p, nil
	}
	coords := []*fp.Element{&p.X.A1, &p.X.A0, &p.Y.A1, &p.Y.A0}
	for i, e := range coords {
		if err := setFp(e, buf[i*32:(i+1)*32]); err != nil {
			return nil, err
		}
	}
	if !p.IsOnCurve() || !p.IsInSubGroup() {
		return nil, opError("decode-g2", errors.New("point not in group"))
	}
	return &p, nil
}

func setFp(e *fp.Element, buf []byte) error {
	if new(big.Int).SetBytes(buf).Cmp(fp.Modulus()) >= 0 {
		return opError("decode", errors.New("coordinate exceeds base field"))
	}
	e.SetBytes(buf)
	return nil
}

func allZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
