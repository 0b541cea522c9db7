// gnark.go - Adapter re-encoding public inputs for the gnark proof backend.
//
// The pool treats heterogeneous proof systems uniformly behind the same
// capability: this variant widens the public-input vector into a gnark
// public witness and delegates to gnark's Groth16 verifier. Exists so
// proofs produced by a gnark prover can gate the same operations as the
// raw pairing-check engine.

package verifier

import (
	"bytes"
	"fmt"
	"math/big"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
)

// withdrawalAssignment mirrors the withdrawal circuit's public interface:
// [merkleRoot, nullifier, recipient, amount]. The constraint system itself
// lives with the prover; only the public shape matters here.
type withdrawalAssignment struct {
	Root      frontend.Variable `gnark:",public"`
	Nullifier frontend.Variable `gnark:",public"`
	Recipient frontend.Variable `gnark:",public"`
	Amount    frontend.Variable `gnark:",public"`
}

func (c *withdrawalAssignment) Define(frontend.API) error { return nil }

// consistencyAssignment mirrors the transfer circuit's public interface:
// [merkleRoot, nullifier, newCommitmentA, newCommitmentB].
type consistencyAssignment struct {
	Root           frontend.Variable `gnark:",public"`
	Nullifier      frontend.Variable `gnark:",public"`
	NewCommitmentA frontend.Variable `gnark:",public"`
	NewCommitmentB frontend.Variable `gnark:",public"`
}

func (c *consistencyAssignment) Define(frontend.API) error { return nil }

// rangeAssignment mirrors the range circuit's public interface:
// [commitment, minValue].
type rangeAssignment struct {
	Commitment frontend.Variable `gnark:",public"`
	MinValue   frontend.Variable `gnark:",public"`
}

func (c *rangeAssignment) Define(frontend.API) error { return nil }

// Gnark adapts the Verifier contract onto gnark's Groth16 backend for one
// proof role.
type Gnark struct {
	vk    groth16.VerifyingKey
	arity int
	// assign builds the role's public witness from the input vector.
	assign func(inputs []*big.Int) frontend.Circuit
}

// NewGnark wraps a gnark verifying key for the given role arity.
func NewGnark(vk groth16.VerifyingKey, arity int) (*Gnark, error) {
	g := &Gnark{vk: vk, arity: arity}
	switch arity {
	case WithdrawalInputs:
		g.assign = func(in []*big.Int) frontend.Circuit {
			return &withdrawalAssignment{Root: in[0], Nullifier: in[1], Recipient: in[2], Amount: in[3]}
		}
	case RangeInputs:
		g.assign = func(in []*big.Int) frontend.Circuit {
			return &rangeAssignment{Commitment: in[0], MinValue: in[1]}
		}
	default:
		return nil, fmt.Errorf("unsupported public-input arity %d", arity)
	}
	return g, nil
}

// NewGnarkConsistency wraps a gnark verifying key for the transfer role.
// Separate constructor because withdrawal and consistency share an arity
// but not a public-input layout.
func NewGnarkConsistency(vk groth16.VerifyingKey) *Gnark {
	return &Gnark{
		vk:    vk,
		arity: ConsistencyInputs,
		assign: func(in []*big.Int) frontend.Circuit {
			return &consistencyAssignment{Root: in[0], Nullifier: in[1], NewCommitmentA: in[2], NewCommitmentB: in[3]}
		},
	}
}

func (g *Gnark) Verify(proof []byte, publicInputs []*big.Int) (bool, error) {
	if err := checkInputs(publicInputs, g.arity, fr.Modulus()); err != nil {
		return false, err
	}
	p := groth16.NewProof(ecc.BN254)
	if _, err := p.ReadFrom(bytes.NewReader(proof)); err != nil {
		return false, ErrInvalidProofLength
	}
	w, err := frontend.NewWitness(g.assign(publicInputs), ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, fmt.Errorf("public witness: %w", err)
	}
	if err := groth16.Verify(p, g.vk, w); err != nil {
		// A failed pairing equation is an ordinary rejection.
		return false, nil
	}
	return true, nil
}

// LoadVerifyingKey reads a gnark Groth16 verifying key from disk.
func LoadVerifyingKey(path string) (groth16.VerifyingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(f); err != nil {
		return nil, err
	}
	return vk, nil
}
