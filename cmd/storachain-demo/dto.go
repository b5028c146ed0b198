package main

import (
	"encoding/hex"

	"github.com/continuum-labs/storachain/chainhash"
	"github.com/continuum-labs/storachain/errs"
	"github.com/continuum-labs/storachain/hashchain"
)

func parseHash(field, s string) (chainhash.Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return chainhash.Hash{}, errs.New(errs.SizeMismatch, "%s: invalid hex", field)
	}
	return chainhash.FromBytes(field, b)
}

func hashHex(h chainhash.Hash) string {
	return hex.EncodeToString(h[:])
}

// commitmentDTO is the JSON-friendly mirror of hashchain.Commitment.
type commitmentDTO struct {
	BlockHeight        uint64   `json:"block_height"`
	BlockHash          string   `json:"block_hash"`
	PreviousCommitment string   `json:"previous_commitment"`
	SelectedChunks     []uint32 `json:"selected_chunks"`
	ChunkHashes        []string `json:"chunk_hashes"`
	CommitmentHash     string   `json:"commitment_hash"`
}

func toCommitmentDTO(c hashchain.Commitment) commitmentDTO {
	chunks := make([]uint32, len(c.SelectedChunks))
	copy(chunks, c.SelectedChunks[:])
	hashes := make([]string, len(c.ChunkHashes))
	for i, h := range c.ChunkHashes {
		hashes[i] = hashHex(h)
	}
	return commitmentDTO{
		BlockHeight:        c.BlockHeight,
		BlockHash:          hashHex(c.BlockHash),
		PreviousCommitment: hashHex(c.PreviousCommitment),
		SelectedChunks:     chunks,
		ChunkHashes:        hashes,
		CommitmentHash:     hashHex(c.CommitmentHash),
	}
}

func fromCommitmentDTO(d commitmentDTO) (hashchain.Commitment, error) {
	var c hashchain.Commitment
	var err error
	if c.BlockHash, err = parseHash("block_hash", d.BlockHash); err != nil {
		return c, err
	}
	if c.PreviousCommitment, err = parseHash("previous_commitment", d.PreviousCommitment); err != nil {
		return c, err
	}
	if c.CommitmentHash, err = parseHash("commitment_hash", d.CommitmentHash); err != nil {
		return c, err
	}
	if len(d.SelectedChunks) != chainhash.ChunksPerBlock || len(d.ChunkHashes) != chainhash.ChunksPerBlock {
		return c, errs.New(errs.SizeMismatch, "commitment: expected %d selected chunks", chainhash.ChunksPerBlock)
	}
	c.BlockHeight = d.BlockHeight
	copy(c.SelectedChunks[:], d.SelectedChunks)
	for i, s := range d.ChunkHashes {
		if c.ChunkHashes[i], err = parseHash("chunk_hash", s); err != nil {
			return c, err
		}
	}
	return c, nil
}

// proofWindowDTO is the JSON-friendly mirror of hashchain.ProofWindow,
// written by `prove` and read back by `verify` so the two can run as
// separate processes.
type proofWindowDTO struct {
	Commitments     []commitmentDTO `json:"commitments"`
	MerkleProofsHex []string        `json:"merkle_proofs"`
	StartCommitment string          `json:"start_commitment"`
	EndCommitment   string          `json:"end_commitment"`
}

func toProofWindowDTO(w hashchain.ProofWindow) proofWindowDTO {
	var d proofWindowDTO
	for _, c := range w.Commitments {
		d.Commitments = append(d.Commitments, toCommitmentDTO(c))
	}
	for _, path := range w.MerkleProofs {
		d.MerkleProofsHex = append(d.MerkleProofsHex, hex.EncodeToString(chainhash.EncodeAuthPath(path)))
	}
	d.StartCommitment = hashHex(w.StartCommitment)
	d.EndCommitment = hashHex(w.EndCommitment)
	return d
}

func fromProofWindowDTO(d proofWindowDTO) (hashchain.ProofWindow, error) {
	var w hashchain.ProofWindow
	var err error
	if len(d.Commitments) != hashchain.ProofWindowBlocks {
		return w, errs.New(errs.SizeMismatch, "proof window: expected %d commitments", hashchain.ProofWindowBlocks)
	}
	if len(d.MerkleProofsHex) != hashchain.ProofWindowBlocks*chainhash.ChunksPerBlock {
		return w, errs.New(errs.SizeMismatch, "proof window: expected %d merkle proofs", hashchain.ProofWindowBlocks*chainhash.ChunksPerBlock)
	}
	for i, cd := range d.Commitments {
		if w.Commitments[i], err = fromCommitmentDTO(cd); err != nil {
			return w, err
		}
	}
	for i, s := range d.MerkleProofsHex {
		blob, err := hex.DecodeString(s)
		if err != nil {
			return w, errs.New(errs.SizeMismatch, "merkle_proofs[%d]: invalid hex", i)
		}
		path, err := chainhash.DecodeAuthPath(blob)
		if err != nil {
			return w, err
		}
		w.MerkleProofs[i] = path
	}
	if w.StartCommitment, err = parseHash("start_commitment", d.StartCommitment); err != nil {
		return w, err
	}
	if w.EndCommitment, err = parseHash("end_commitment", d.EndCommitment); err != nil {
		return w, err
	}
	return w, nil
}
