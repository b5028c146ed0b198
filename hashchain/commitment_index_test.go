package hashchain

import "testing"

func TestCommitmentIndexAccelerated(t *testing.T) {
	dir := t.TempDir()
	h := New(fixedHash(0xaa), 100, fixedHash(0xbb))
	if err := h.Stream(make([]byte, 16384), dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := h.AddBlock(fixedHash(byte(i + 1))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := h.EnableCommitmentIndex(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer h.CloseCommitmentIndex()

	want := h.chain[1].CommitmentHash
	got, found := h.CommitmentAtHeight(h.chain[1].BlockHeight)
	if !found || got != want {
		t.Fatalf("expected %v, got %v (found=%v)", want, got, found)
	}

	if _, err := h.AddBlock(fixedHash(4)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = h.chain[3].CommitmentHash
	got, found = h.CommitmentAtHeight(h.chain[3].BlockHeight)
	if !found || got != want {
		t.Fatalf("expected index to reflect newly appended commitment")
	}
}

func TestCommitmentAtHeightFallsBackWithoutIndex(t *testing.T) {
	dir := t.TempDir()
	h := New(fixedHash(0xaa), 100, fixedHash(0xbb))
	if err := h.Stream(make([]byte, 16384), dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, err := h.AddBlock(fixedHash(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, found := h.CommitmentAtHeight(c.BlockHeight)
	if !found || got != c.CommitmentHash {
		t.Fatalf("expected linear-scan fallback to find the commitment")
	}

	if _, found := h.CommitmentAtHeight(99999); found {
		t.Fatalf("expected not found for unknown height")
	}
}
