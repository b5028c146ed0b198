package hashchain

import (
	"github.com/continuum-labs/storachain/chainhash"
	"github.com/continuum-labs/storachain/errs"
)

// ChainInfo is a point-in-time snapshot returned by GetChainInfo.
type ChainInfo struct {
	Status                    Status
	TotalChunks               uint64
	ChainLength               uint64
	ChunkSizeBytes            uint64
	TotalStorageMB            float64
	HashchainFilePath         string
	DataFilePath              string
	HashchainFileSizeBytes    *int64
	DataFileSizeBytes         *int64
	AnchoredCommitment        *chainhash.Hash
	CurrentCommitment         *chainhash.Hash
	ProofWindowReady          bool
	BlocksUntilProofReady     *uint64
	ConsensusAlgorithmVersion uint16
	InitialBlockHeight        uint64
}

// ProofWindow materialises the last PROOF_WINDOW_BLOCKS commitments plus a
// Merkle authentication path for every selected chunk of every commitment
// in the window, in row-major (block, chunk) order. It holds a copy of the
// commitments, not a back-pointer, so its lifetime is independent of the
// live chain (see spec's "Cycles and back-references" design note).
type ProofWindow struct {
	Commitments      [ProofWindowBlocks]Commitment
	MerkleProofs     [ProofWindowBlocks * chainhash.ChunksPerBlock][]chainhash.MerkleStep
	StartCommitment  chainhash.Hash
	EndCommitment    chainhash.Hash
}

// GetProofWindow assembles a ProofWindow over the last eight commitments.
func (h *Hashchain) GetProofWindow() (ProofWindow, error) {
	if uint64(len(h.chain)) < ProofWindowBlocks {
		return ProofWindow{}, errs.New(errs.ChainTooShort, "get_proof_window: have %d commitments, need %d", len(h.chain), ProofWindowBlocks)
	}

	tail := h.chain[len(h.chain)-ProofWindowBlocks:]

	var window ProofWindow
	copy(window.Commitments[:], tail)
	window.StartCommitment = tail[0].PreviousCommitment
	window.EndCommitment = tail[ProofWindowBlocks-1].CommitmentHash

	for i, c := range tail {
		for j, chunkIdx := range c.SelectedChunks {
			path, err := h.merkleTree.Proof(int(chunkIdx))
			if err != nil {
				return ProofWindow{}, err
			}
			window.MerkleProofs[i*chainhash.ChunksPerBlock+j] = path
		}
	}

	return window, nil
}

// VerifyProof returns true iff every commitment, linkage and Merkle
// authentication path in window is consistent with merkleRoot and
// totalChunks, starting from window.StartCommitment. anchoredCommitment is
// accepted but not compared against the window. The window's shape is fixed
// by its array types, and every mismatch returns false; the function never
// returns an error.
func VerifyProof(window ProofWindow, anchoredCommitment chainhash.Hash, merkleRoot chainhash.Hash, totalChunks uint64) bool {
	if len(window.MerkleProofs) != ProofWindowBlocks*chainhash.ChunksPerBlock {
		return false
	}

	previous := window.StartCommitment
	if window.Commitments[0].PreviousCommitment != previous {
		return false
	}

	for i, c := range window.Commitments {
		if c.PreviousCommitment != previous {
			return false
		}
		recomputed := computeCommitmentHash(c.PreviousCommitment, c.BlockHash, c.BlockHeight, c.ChunkHashes)
		if recomputed != c.CommitmentHash {
			return false
		}

		sel, err := chainhash.SelectChunksV1(c.BlockHash, totalChunks)
		if err != nil || sel.Indices != c.SelectedChunks {
			return false
		}

		for j, chunkIdx := range c.SelectedChunks {
			path := window.MerkleProofs[i*chainhash.ChunksPerBlock+j]
			if !chainhash.VerifyPath(c.ChunkHashes[j], chunkIdx, path, merkleRoot) {
				return false
			}
		}

		previous = c.CommitmentHash
	}

	if previous != window.EndCommitment {
		return false
	}
	if window.EndCommitment != window.Commitments[ProofWindowBlocks-1].CommitmentHash {
		return false
	}

	return true
}
