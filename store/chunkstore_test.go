package store

import (
	"bytes"
	"testing"

	"github.com/continuum-labs/storachain/errs"
)

func TestStreamPadsTailChunk(t *testing.T) {
	dir := t.TempDir()
	input := make([]byte, 100)
	for i := range input {
		input[i] = byte(i)
	}

	res, err := Stream(input, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Store.Close()

	if res.TotalChunks != 1 {
		t.Fatalf("expected 1 chunk, got %d", res.TotalChunks)
	}

	chunk, err := res.Store.ReadChunk(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunk) != ChunkSize {
		t.Fatalf("expected chunk of size %d, got %d", ChunkSize, len(chunk))
	}
	if !bytes.Equal(chunk[:100], input) {
		t.Fatalf("chunk prefix mismatch")
	}
	for _, b := range chunk[100:] {
		if b != 0 {
			t.Fatalf("expected zero padding in tail")
		}
	}
}

func TestStreamMultiChunkExactBoundary(t *testing.T) {
	dir := t.TempDir()
	input := make([]byte, 2*ChunkSize)
	for i := range input {
		input[i] = byte(i % 251)
	}

	res, err := Stream(input, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Store.Close()

	if res.TotalChunks != 2 {
		t.Fatalf("expected 2 chunks, got %d", res.TotalChunks)
	}
	if len(res.ChunkHashes) != 2 {
		t.Fatalf("expected 2 chunk hashes, got %d", len(res.ChunkHashes))
	}
}

func TestStreamIdenticalInputSameStem(t *testing.T) {
	dir := t.TempDir()
	input := []byte("identical payload")

	a, err := Stream(input, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Store.Close()

	b, err := Stream(input, dir)
	if err != nil {
		t.Fatalf("unexpected error on re-stream: %v", err)
	}
	defer b.Store.Close()

	if a.DataHash != b.DataHash {
		t.Fatalf("expected identical input to produce the same data hash")
	}
	if a.Store.DataPath() != b.Store.DataPath() {
		t.Fatalf("expected identical input to resolve to the same data path")
	}
}

func TestStreamDifferentInputDifferentStem(t *testing.T) {
	dir := t.TempDir()
	a, err := Stream([]byte("payload one"), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Store.Close()
	b, err := Stream([]byte("payload two"), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer b.Store.Close()

	if a.DataHash == b.DataHash {
		t.Fatalf("expected different input to produce different data hashes")
	}
}

func TestReadChunkRejectsOutOfRange(t *testing.T) {
	dir := t.TempDir()
	res, err := Stream([]byte("small"), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Store.Close()

	if _, err := res.Store.ReadChunk(res.TotalChunks); !errs.Is(err, errs.OutOfRange) {
		t.Fatalf("expected OutOfRange, got %v", err)
	}
}

func TestReadChunkOnNilStoreFailsWithNoData(t *testing.T) {
	var cs *ChunkStore
	if _, err := cs.ReadChunk(0); !errs.Is(err, errs.NoData) {
		t.Fatalf("expected NoData, got %v", err)
	}
}

func TestOpenRejectsMismatchedSize(t *testing.T) {
	dir := t.TempDir()
	res, err := Stream([]byte("payload"), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := res.Store.DataPath()
	res.Store.Close()

	if _, err := Open(path, res.TotalChunks+1); !errs.Is(err, errs.Corrupt) {
		t.Fatalf("expected Corrupt, got %v", err)
	}
}

func TestOpenRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(dir+"/does-not-exist.data", 1); !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
