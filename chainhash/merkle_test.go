package chainhash

import "testing"

func leafHash(b byte) Hash {
	var h Hash
	h[0] = b
	return h
}

func TestBuildTreeSingleLeaf(t *testing.T) {
	tree := BuildTree([]Hash{leafHash(1)})
	if tree.Root() != leafHash(1) {
		t.Fatalf("single-leaf root should equal the leaf itself")
	}
}

func TestBuildTreeEvenLevel(t *testing.T) {
	leaves := []Hash{leafHash(1), leafHash(2)}
	tree := BuildTree(leaves)
	want := combine(leaves[0], leaves[1])
	if tree.Root() != want {
		t.Fatalf("root mismatch")
	}
}

func TestBuildTreeOddLevelDuplicatesLast(t *testing.T) {
	leaves := []Hash{leafHash(1), leafHash(2), leafHash(3)}
	tree := BuildTree(leaves)

	level1a := combine(leaves[0], leaves[1])
	level1b := combine(leaves[2], leaves[2]) // duplicated
	want := combine(level1a, level1b)

	if tree.Root() != want {
		t.Fatalf("root mismatch for odd-length level")
	}
}

func TestProofRoundTripAllLeaves(t *testing.T) {
	leaves := make([]Hash, 7)
	for i := range leaves {
		leaves[i] = leafHash(byte(i + 1))
	}
	tree := BuildTree(leaves)
	root := tree.Root()

	for i := range leaves {
		path, err := tree.Proof(i)
		if err != nil {
			t.Fatalf("Proof(%d): %v", i, err)
		}
		if !VerifyPath(leaves[i], uint32(i), path, root) {
			t.Fatalf("VerifyPath failed for leaf %d", i)
		}
	}
}

func TestProofRejectsWrongIndex(t *testing.T) {
	leaves := make([]Hash, 5)
	for i := range leaves {
		leaves[i] = leafHash(byte(i + 1))
	}
	tree := BuildTree(leaves)
	root := tree.Root()

	path, err := tree.Proof(2)
	if err != nil {
		t.Fatalf("Proof: %v", err)
	}
	if VerifyPath(leaves[2], 3, path, root) {
		t.Fatalf("expected verification to fail against the wrong claimed index")
	}
}

func TestProofRejectsTamperedSibling(t *testing.T) {
	leaves := make([]Hash, 4)
	for i := range leaves {
		leaves[i] = leafHash(byte(i + 1))
	}
	tree := BuildTree(leaves)
	root := tree.Root()

	path, err := tree.Proof(0)
	if err != nil {
		t.Fatalf("Proof: %v", err)
	}
	path[0].Sibling[0] ^= 0xFF
	if VerifyPath(leaves[0], 0, path, root) {
		t.Fatalf("expected verification to fail with a tampered sibling")
	}
}

func TestProofOutOfRange(t *testing.T) {
	tree := BuildTree([]Hash{leafHash(1)})
	if _, err := tree.Proof(5); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestEncodeDecodeAuthPathRoundTrip(t *testing.T) {
	leaves := make([]Hash, 9)
	for i := range leaves {
		leaves[i] = leafHash(byte(i + 1))
	}
	tree := BuildTree(leaves)
	path, err := tree.Proof(4)
	if err != nil {
		t.Fatalf("Proof: %v", err)
	}

	blob := EncodeAuthPath(path)
	if len(blob)%33 != 0 {
		t.Fatalf("encoded auth path length %d not a multiple of 33", len(blob))
	}

	decoded, err := DecodeAuthPath(blob)
	if err != nil {
		t.Fatalf("DecodeAuthPath: %v", err)
	}
	if len(decoded) != len(path) {
		t.Fatalf("length mismatch: got %d want %d", len(decoded), len(path))
	}
	for i := range path {
		if decoded[i] != path[i] {
			t.Fatalf("step %d mismatch", i)
		}
	}
}

func TestDecodeAuthPathRejectsBadLength(t *testing.T) {
	if _, err := DecodeAuthPath(make([]byte, 10)); err == nil {
		t.Fatalf("expected error for non-multiple-of-33 length")
	}
}

func TestEmptyTreeRootIsZero(t *testing.T) {
	tree := BuildTree(nil)
	if tree.Root() != (Hash{}) {
		t.Fatalf("expected zero root for empty tree")
	}
}
