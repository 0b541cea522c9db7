// merkletree.go - Append-only incremental Merkle tree over note commitments.
//
// Fixed depth, sparse incremental insertion: each insert touches exactly
// Depth hash computations and one cached sibling per level, independent of
// how many leaves exist. Node hash is MiMC over the BN254 scalar field
// applied to the fixed-width concatenation of the two 32-byte children,
// with a domain-separated zero leaf.

package merkletree

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/ethereum/go-ethereum/common"

	"shieldedpool/internal/curve"
)

// Depth is the fixed tree depth; capacity is 2^Depth leaves.
const Depth = 20

// zeroLeafTag seeds Z[0], the empty-leaf constant. Domain separation keeps
// an empty subtree from colliding with any real commitment digest.
const zeroLeafTag = "shieldedpool/merkletree/zero-leaf/v1"

// ErrTreeFull is returned once all 2^Depth slots are taken.
var ErrTreeFull = errors.New("merkle tree is full")

// ErrLeafOutOfField rejects a leaf that is not a canonical scalar-field
// element. Two distinct byte strings reducing to the same element would
// hash identically, so non-canonical leaves never enter the tree.
var ErrLeafOutOfField = errors.New("leaf exceeds the scalar field")

// CheckLeaf reports whether leaf is a canonical field element.
func CheckLeaf(leaf common.Hash) error {
	if new(big.Int).SetBytes(leaf[:]).Cmp(fr.Modulus()) >= 0 {
		return ErrLeafOutOfField
	}
	return nil
}

// zeros[i] is the root of an empty subtree of height i:
// zeros[0] = H(zeroLeafTag), zeros[i] = hashNodes(zeros[i-1], zeros[i-1]).
// Process-wide immutable table, built once at startup and never mutated.
var zeros [Depth]common.Hash

func init() {
	zeros[0] = common.BigToHash(curve.HashToScalar([]byte(zeroLeafTag)))
	for i := 1; i < Depth; i++ {
		zeros[i] = hashNodes(zeros[i-1], zeros[i-1])
	}
}

// ZeroHash returns the empty-subtree constant at the given level.
func ZeroHash(level int) common.Hash { return zeros[level] }

// Tree is the incremental Merkle tree state: cached left siblings per
// level, the next free leaf index, and the current root. Not safe for
// concurrent use by itself; the pool serializes access.
type Tree struct {
	depth          int
	filledSubtrees []common.Hash
	nextIndex      uint32
	currentRoot    common.Hash
}

// New returns an empty tree of the protocol depth.
func New() *Tree { return newWithDepth(Depth) }

// newWithDepth exists so capacity behavior is testable without 2^20 inserts.
func newWithDepth(depth int) *Tree {
	t := &Tree{
		depth:          depth,
		filledSubtrees: make([]common.Hash, depth),
	}
	for i := 0; i < depth; i++ {
		t.filledSubtrees[i] = zeros[i]
	}
	// Root of the fully empty tree.
	t.currentRoot = hashNodes(zeros[depth-1], zeros[depth-1])
	return t
}

// Root returns the current root.
func (t *Tree) Root() common.Hash { return t.currentRoot }

// NextIndex returns the index the next inserted leaf will take.
func (t *Tree) NextIndex() uint32 { return t.nextIndex }

// Insert appends a leaf and returns its index and the new root.
// Walks levels bottom-up using the index bit at each level: bit 0 caches
// the running hash as that level's left sibling and pairs it with the
// zero subtree; bit 1 pairs it with the previously cached left sibling.
func (t *Tree) Insert(leaf common.Hash) (uint32, common.Hash, error) {
	if t.nextIndex >= 1<<uint(t.depth) {
		return 0, common.Hash{}, ErrTreeFull
	}
	if err := CheckLeaf(leaf); err != nil {
		return 0, common.Hash{}, err
	}
	index := t.nextIndex
	current := leaf
	idx := index
	for level := 0; level < t.depth; level++ {
		if idx&1 == 0 {
			t.filledSubtrees[level] = current
			current = hashNodes(current, zeros[level])
		} else {
			current = hashNodes(t.filledSubtrees[level], current)
		}
		idx >>= 1
	}
	t.currentRoot = current
	t.nextIndex++
	return index, current, nil
}

// VerifyProof recomputes the path bottom-up and compares against root.
// directions[i] = 0 means the running hash is the left child at level i,
// 1 means it is the right child. Pure function.
func VerifyProof(root, leaf common.Hash, siblings []common.Hash, directions []uint8) bool {
	if len(siblings) != len(directions) {
		return false
	}
	current := leaf
	for i, sib := range siblings {
		if directions[i] == 0 {
			current = hashNodes(current, sib)
		} else {
			current = hashNodes(sib, current)
		}
	}
	return current == root
}

// PathIndices returns the bit decomposition of leafIndex across the tree
// levels, least-significant first. Pure function.
func PathIndices(leafIndex uint32) []uint8 {
	out := make([]uint8, Depth)
	for i := 0; i < Depth; i++ {
		out[i] = uint8(leafIndex >> uint(i) & 1)
	}
	return out
}

// ProofForLast reconstructs the inclusion proof for the most recently
// inserted leaf from the cached sibling state. Only the last leaf's path
// is recoverable from O(depth) state; historical paths need an indexer.
func (t *Tree) ProofForLast() (siblings []common.Hash, directions []uint8) {
	if t.nextIndex == 0 {
		return nil, nil
	}
	index := t.nextIndex - 1
	siblings = make([]common.Hash, t.depth)
	directions = make([]uint8, t.depth)
	idx := index
	for level := 0; level < t.depth; level++ {
		if idx&1 == 0 {
			siblings[level] = zeros[level]
			directions[level] = 0
		} else {
			siblings[level] = t.filledSubtrees[level]
			directions[level] = 1
		}
		idx >>= 1
	}
	return siblings, directions
}

// hashNodes combines two children into their parent node hash. Inputs are
// fixed 32-byte field elements, so the encoding is unambiguous.
func hashNodes(left, right common.Hash) common.Hash {
	h := mimc.NewMiMC()
	l := curve.ScalarBytes(new(big.Int).SetBytes(left[:]))
	r := curve.ScalarBytes(new(big.Int).SetBytes(right[:]))
	h.Write(l[:])
	h.Write(r[:])
	return common.BytesToHash(h.Sum(nil))
}
