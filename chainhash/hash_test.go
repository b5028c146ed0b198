package chainhash

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/continuum-labs/storachain/errs"
)

func TestSum256MatchesStdlib(t *testing.T) {
	want := sha256.Sum256([]byte("hello"))
	got := Sum256([]byte("hello"))
	if !bytes.Equal(got[:], want[:]) {
		t.Fatalf("mismatch")
	}
}

func TestDoubleSum256(t *testing.T) {
	first := sha256.Sum256([]byte("x"))
	want := sha256.Sum256(first[:])
	got := DoubleSum256([]byte("x"))
	if !bytes.Equal(got[:], want[:]) {
		t.Fatalf("mismatch")
	}
}

func TestFromBytesRejectsWrongSize(t *testing.T) {
	_, err := FromBytes("block_hash", make([]byte, 16))
	if !errs.Is(err, errs.SizeMismatch) {
		t.Fatalf("expected SizeMismatch, got %v", err)
	}
}

func TestFromBytesAccepts32(t *testing.T) {
	h, err := FromBytes("block_hash", make([]byte, 32))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != (Hash{}) {
		t.Fatalf("expected zero hash")
	}
}
