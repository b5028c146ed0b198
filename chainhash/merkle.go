package chainhash

import "github.com/continuum-labs/storachain/errs"

// MerkleStep is one hop of an authentication path: the sibling hash plus the
// direction bit spec.md assigns it (0 = sibling is left, 1 = sibling is
// right), ordered leaf-to-root.
type MerkleStep struct {
	Sibling      Hash
	SiblingRight bool // true <=> direction byte 1 (sibling is to the right)
}

const authStepBytes = 1 + Size

// Tree is a Merkle tree over chunk hashes, built once and queried for proofs
// any number of times. Internal levels duplicate a trailing unpaired node
// rather than promoting it unchanged, per spec.md §4.A.
type Tree struct {
	levels [][]Hash // levels[0] == leaves
}

// BuildTree constructs the full tree over leaves. An empty leaf set yields a
// zero-value root (the construction is never reached in practice since
// streaming rejects zero chunks).
func BuildTree(leaves []Hash) *Tree {
	t := &Tree{levels: [][]Hash{append([]Hash(nil), leaves...)}}
	level := t.levels[0]
	for len(level) > 1 {
		level = nextLevel(level)
		t.levels = append(t.levels, level)
	}
	return t
}

func nextLevel(level []Hash) []Hash {
	next := make([]Hash, 0, (len(level)+1)/2)
	for i := 0; i < len(level); i += 2 {
		left := level[i]
		right := left
		if i+1 < len(level) {
			right = level[i+1]
		}
		next = append(next, combine(left, right))
	}
	return next
}

func combine(left, right Hash) Hash {
	buf := make([]byte, 0, 2*Size)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return Sum256(buf)
}

// Root returns the tree's root hash. The root of a tree with zero leaves is
// the zero hash.
func (t *Tree) Root() Hash {
	if t == nil || len(t.levels) == 0 {
		return Hash{}
	}
	top := t.levels[len(t.levels)-1]
	if len(top) == 0 {
		return Hash{}
	}
	return top[0]
}

// Proof returns the authentication path for leaf index i, ordered leaf-to-root.
func (t *Tree) Proof(i int) ([]MerkleStep, error) {
	if t == nil || len(t.levels) == 0 || i < 0 || i >= len(t.levels[0]) {
		return nil, errs.New(errs.OutOfRange, "merkle: leaf index %d out of range", i)
	}
	var path []MerkleStep
	idx := i
	for level := 0; level < len(t.levels)-1; level++ {
		cur := t.levels[level]
		var sibling Hash
		siblingRight := idx%2 == 0
		if siblingRight {
			if idx+1 < len(cur) {
				sibling = cur[idx+1]
			} else {
				sibling = cur[idx] // duplicated trailing node
			}
		} else {
			sibling = cur[idx-1]
		}
		path = append(path, MerkleStep{Sibling: sibling, SiblingRight: siblingRight})
		idx /= 2
	}
	return path, nil
}

// VerifyPath reconstructs the root from leaf via path and checks both the
// recomputed root and the leaf's claimed index against expectedIndex (so a
// proof cannot be replayed at the wrong position).
func VerifyPath(leaf Hash, expectedIndex uint32, path []MerkleStep, root Hash) bool {
	cur := leaf
	var idx uint64
	for i, step := range path {
		if step.SiblingRight {
			cur = combine(cur, step.Sibling)
			// current node was the left child => index bit at this level is 0
		} else {
			cur = combine(step.Sibling, cur)
			idx |= 1 << uint(i)
		}
	}
	return cur == root && idx == uint64(expectedIndex)
}

// EncodeAuthPath serializes path as a blob whose length is a multiple of 33
// bytes: one direction byte followed by the 32-byte sibling, per step.
func EncodeAuthPath(path []MerkleStep) []byte {
	out := make([]byte, 0, len(path)*authStepBytes)
	for _, step := range path {
		dir := byte(0)
		if step.SiblingRight {
			dir = 1
		}
		out = append(out, dir)
		out = append(out, step.Sibling[:]...)
	}
	return out
}

// DecodeAuthPath parses a blob produced by EncodeAuthPath.
func DecodeAuthPath(blob []byte) ([]MerkleStep, error) {
	if len(blob)%authStepBytes != 0 {
		return nil, errs.New(errs.Corrupt, "merkle: auth path length %d not a multiple of %d", len(blob), authStepBytes)
	}
	n := len(blob) / authStepBytes
	out := make([]MerkleStep, n)
	for i := 0; i < n; i++ {
		off := i * authStepBytes
		dir := blob[off]
		if dir > 1 {
			return nil, errs.New(errs.Corrupt, "merkle: invalid direction byte %d", dir)
		}
		var sib Hash
		copy(sib[:], blob[off+1:off+authStepBytes])
		out[i] = MerkleStep{Sibling: sib, SiblingRight: dir == 1}
	}
	return out, nil
}
