package hashchain

import (
	"testing"

	"github.com/continuum-labs/storachain/chainhash"
	"github.com/continuum-labs/storachain/errs"
)

func fixedHash(b byte) chainhash.Hash {
	var h chainhash.Hash
	for i := range h {
		h[i] = b
	}
	return h
}

// S1 — 4-chunk minimum.
func TestS1FourChunkMinimum(t *testing.T) {
	dir := t.TempDir()
	h := New(fixedHash(0xaa), 100, fixedHash(0xbb))

	input := make([]byte, 16384)
	for i := range input {
		input[i] = byte(i % 256)
	}
	if err := h.Stream(input, dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info := h.GetChainInfo()
	if info.TotalChunks != 4 {
		t.Fatalf("expected 4 chunks, got %d", info.TotalChunks)
	}

	blockHash := fixedHash(0x01)
	c, err := h.AddBlock(blockHash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[uint32]bool, 4)
	for _, idx := range c.SelectedChunks {
		if idx >= 4 {
			t.Fatalf("index %d out of range", idx)
		}
		seen[idx] = true
	}
	if len(seen) != 4 {
		t.Fatalf("selected_chunks is not a permutation of {0,1,2,3}: %v", c.SelectedChunks)
	}
	for _, ch := range c.ChunkHashes {
		if len(ch) != chainhash.Size {
			t.Fatalf("chunk hash wrong size")
		}
	}
	if len(c.CommitmentHash) != chainhash.Size {
		t.Fatalf("commitment hash wrong size")
	}
}

// S2 — 5-chunk general case, deterministic selection.
func TestS2DeterministicSelection(t *testing.T) {
	dir := t.TempDir()
	h := New(fixedHash(0xaa), 100, fixedHash(0xbb))

	input := make([]byte, 20480)
	if err := h.Stream(input, dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.GetChainInfo().TotalChunks; got != 5 {
		t.Fatalf("expected 5 chunks, got %d", got)
	}

	a, err := chainhash.SelectChunksV1(fixedHash(0xbb), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := chainhash.SelectChunksV1(fixedHash(0xbb), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Indices != b.Indices || a.VerificationHash != b.VerificationHash {
		t.Fatalf("selection not deterministic")
	}
}

// S3 — proof window readiness transitions.
func TestS3ProofWindowReadinessTransitions(t *testing.T) {
	dir := t.TempDir()
	h := New(fixedHash(0xaa), 100, fixedHash(0xbb))
	if err := h.Stream(make([]byte, 20480), dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 7; i++ {
		if _, err := h.AddBlock(fixedHash(byte(i + 1))); err != nil {
			t.Fatalf("addBlock %d: %v", i, err)
		}
	}
	info := h.GetChainInfo()
	if info.Status != StatusBuilding {
		t.Fatalf("expected building, got %s", info.Status)
	}
	if info.BlocksUntilProofReady == nil || *info.BlocksUntilProofReady != 1 {
		t.Fatalf("expected blocks_until_proof_ready=1, got %v", info.BlocksUntilProofReady)
	}

	if _, err := h.AddBlock(fixedHash(8)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info = h.GetChainInfo()
	if info.Status != StatusActive {
		t.Fatalf("expected active, got %s", info.Status)
	}

	window, err := h.GetProofWindow()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(window.Commitments) != 8 {
		t.Fatalf("expected 8 commitments")
	}
	if len(window.MerkleProofs) != 32 {
		t.Fatalf("expected 32 merkle proofs")
	}
	for _, p := range window.MerkleProofs {
		if len(chainhash.EncodeAuthPath(p))%33 != 0 {
			t.Fatalf("auth path length not aligned")
		}
	}

	if !VerifyProof(window, h.anchoredCommitmentHash, h.merkleRoot, h.chunkStore.TotalChunks()) {
		t.Fatalf("expected proof window to verify")
	}
}

// S4 — file load round-trip.
func TestS4FileLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	h := New(fixedHash(0xaa), 100, fixedHash(0xbb), WithPersistence(dir))
	input := make([]byte, 16384)
	if err := h.Stream(input, dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := h.AddBlock(fixedHash(byte(i + 1))); err != nil {
			t.Fatalf("addBlock %d: %v", i, err)
		}
	}

	hcPath, _, ok := h.GetFilePaths()
	if !ok {
		t.Fatalf("expected file paths to be available")
	}

	loaded, err := LoadFromFile(hcPath, WithPersistence(dir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	origInfo := h.GetChainInfo()
	loadedInfo := loaded.GetChainInfo()
	if origInfo.ChainLength != loadedInfo.ChainLength {
		t.Fatalf("chain_length mismatch: %d != %d", origInfo.ChainLength, loadedInfo.ChainLength)
	}
	if *origInfo.CurrentCommitment != *loadedInfo.CurrentCommitment {
		t.Fatalf("current_commitment mismatch")
	}
	if *origInfo.AnchoredCommitment != *loadedInfo.AnchoredCommitment {
		t.Fatalf("anchored_commitment mismatch")
	}
	if origInfo.TotalChunks != loadedInfo.TotalChunks {
		t.Fatalf("total_chunks mismatch")
	}

	if _, err := loaded.AddBlock(fixedHash(6)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.GetChainInfo().ChainLength != 6 {
		t.Fatalf("expected chain_length 6 after reload+addBlock")
	}
	if !loaded.VerifyChain() {
		t.Fatalf("expected verify_chain to succeed after reload")
	}
}

func TestCommitmentLinkage(t *testing.T) {
	dir := t.TempDir()
	h := New(fixedHash(0xaa), 100, fixedHash(0xbb))
	if err := h.Stream(make([]byte, 16384), dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var prev chainhash.Hash
	for i := 0; i < 4; i++ {
		c, err := h.AddBlock(fixedHash(byte(i + 1)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if i == 0 {
			if c.PreviousCommitment != h.anchoredCommitmentHash {
				t.Fatalf("first commitment must link to the anchor")
			}
		} else if c.PreviousCommitment != prev {
			t.Fatalf("commitment %d does not link to commitment %d", i, i-1)
		}
		prev = c.CommitmentHash
	}
	if !h.VerifyChain() {
		t.Fatalf("expected verify_chain to succeed")
	}
}

func TestFaultIsolationLeavesStateUnchanged(t *testing.T) {
	dir := t.TempDir()
	h := New(fixedHash(0xaa), 100, fixedHash(0xbb))
	if err := h.Stream(make([]byte, 16384), dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.AddBlock(fixedHash(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before := h.GetChainInfo()
	beforeVerify := h.VerifyChain()

	if _, err := h.ReadChunk(999999); !errs.Is(err, errs.OutOfRange) {
		t.Fatalf("expected OutOfRange, got %v", err)
	}
	if err := h.Stream(make([]byte, 100), dir); !errs.Is(err, errs.AlreadyStreamed) {
		t.Fatalf("expected AlreadyStreamed, got %v", err)
	}

	after := h.GetChainInfo()
	if before.ChainLength != after.ChainLength {
		t.Fatalf("chain_length changed after failed operation")
	}
	if *before.CurrentCommitment != *after.CurrentCommitment {
		t.Fatalf("current_commitment changed after failed operation")
	}
	if *before.AnchoredCommitment != *after.AnchoredCommitment {
		t.Fatalf("anchored_commitment changed after failed operation")
	}
	if h.VerifyChain() != beforeVerify {
		t.Fatalf("verify_chain result changed after failed operation")
	}
}

func TestAddBlockBeforeStreamFailsWithNoData(t *testing.T) {
	h := New(fixedHash(0xaa), 100, fixedHash(0xbb))
	if _, err := h.AddBlock(fixedHash(1)); !errs.Is(err, errs.NoData) {
		t.Fatalf("expected NoData, got %v", err)
	}
}

func TestContentAddressingSameStemForIdenticalInput(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	input := []byte("same content, different heights")

	a := New(fixedHash(0xaa), 10, fixedHash(0xbb))
	if err := a.Stream(input, dirA); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := New(fixedHash(0xaa), 999, fixedHash(0xcc))
	if err := b.Stream(input, dirB); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.dataHash != b.dataHash {
		t.Fatalf("identical input must produce the same data_hash regardless of block height")
	}
}
