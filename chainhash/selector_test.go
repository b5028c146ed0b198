package chainhash

import "testing"

func blockHashFixture(b byte) Hash {
	var h Hash
	for i := range h {
		h[i] = b
	}
	return h
}

func TestSelectChunksV1Deterministic(t *testing.T) {
	h := blockHashFixture(0xbb)
	a, err := SelectChunksV1(h, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := SelectChunksV1(h, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Indices != b.Indices {
		t.Fatalf("selection is not deterministic: %v != %v", a.Indices, b.Indices)
	}
	if a.VerificationHash != b.VerificationHash {
		t.Fatalf("verification hash is not deterministic")
	}
}

func TestSelectChunksV1DistinctAndInRange(t *testing.T) {
	h := blockHashFixture(0x42)
	const total = 37
	sel, err := SelectChunksV1(h, total)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[uint32]bool)
	for _, idx := range sel.Indices {
		if idx >= total {
			t.Fatalf("index %d out of range [0,%d)", idx, total)
		}
		if seen[idx] {
			t.Fatalf("duplicate index %d", idx)
		}
		seen[idx] = true
	}
}

func TestSelectChunksV1MinimalCaseIsPermutationOfFour(t *testing.T) {
	for b := 0; b < 32; b++ {
		h := blockHashFixture(byte(b))
		sel, err := SelectChunksV1(h, ChunksPerBlock)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen := make(map[uint32]bool, 4)
		for _, idx := range sel.Indices {
			if idx >= ChunksPerBlock {
				t.Fatalf("index %d out of range", idx)
			}
			seen[idx] = true
		}
		if len(seen) != ChunksPerBlock {
			t.Fatalf("selection is not a permutation of {0,1,2,3}: %v", sel.Indices)
		}
	}
}

func TestSelectChunksV1RejectsNonPositive(t *testing.T) {
	if _, err := SelectChunksV1(blockHashFixture(1), 0); err == nil {
		t.Fatalf("expected error for total_chunks=0")
	}
}

func TestSelectChunksV1RejectsTooFewChunks(t *testing.T) {
	if _, err := SelectChunksV1(blockHashFixture(1), 3); err == nil {
		t.Fatalf("expected TooFewChunks error")
	}
}

func TestVerifyChunkSelectionRoundTrip(t *testing.T) {
	h := blockHashFixture(0x07)
	sel, err := SelectChunksV1(h, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !VerifyChunkSelection(h, 10, sel.Indices[:], 1) {
		t.Fatalf("expected verification to succeed")
	}
}

func TestVerifyChunkSelectionRejectsReordering(t *testing.T) {
	h := blockHashFixture(0x07)
	sel, err := SelectChunksV1(h, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reordered := []uint32{sel.Indices[1], sel.Indices[0], sel.Indices[2], sel.Indices[3]}
	if VerifyChunkSelection(h, 10, reordered, 1) {
		t.Fatalf("expected reordered indices to fail verification")
	}
}

func TestVerifyChunkSelectionRejectsDuplicate(t *testing.T) {
	h := blockHashFixture(0x07)
	sel, err := SelectChunksV1(h, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dup := []uint32{sel.Indices[0], sel.Indices[0], sel.Indices[2], sel.Indices[3]}
	if VerifyChunkSelection(h, 10, dup, 1) {
		t.Fatalf("expected duplicate indices to fail verification")
	}
}

func TestVerifyChunkSelectionRejectsOutOfRange(t *testing.T) {
	h := blockHashFixture(0x07)
	bad := []uint32{0, 1, 2, 10}
	if VerifyChunkSelection(h, 10, bad, 1) {
		t.Fatalf("expected out-of-range index to fail verification")
	}
}

func TestVerifyChunkSelectionRejectsWrongVersion(t *testing.T) {
	h := blockHashFixture(0x07)
	sel, err := SelectChunksV1(h, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if VerifyChunkSelection(h, 10, sel.Indices[:], 2) {
		t.Fatalf("expected version 2 to fail verification")
	}
}
