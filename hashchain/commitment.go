package hashchain

import (
	"bytes"
	"encoding/binary"

	"github.com/continuum-labs/storachain/chainhash"
)

// Commitment binds one block to the four chunks selected for it. Chains are
// strictly append-only with forward hash references (see commitment_hash
// below), matching the teacher's own block-append shape: never mutated
// once appended.
type Commitment struct {
	BlockHeight        uint64
	BlockHash          chainhash.Hash
	PreviousCommitment chainhash.Hash
	SelectedChunks     [chainhash.ChunksPerBlock]uint32
	ChunkHashes        [chainhash.ChunksPerBlock]chainhash.Hash
	CommitmentHash     chainhash.Hash
}

func computeCommitmentHash(previous, blockHash chainhash.Hash, blockHeight uint64, chunkHashes [chainhash.ChunksPerBlock]chainhash.Hash) chainhash.Hash {
	buf := new(bytes.Buffer)
	buf.Write(previous[:])
	buf.Write(blockHash[:])
	var heightBE [8]byte
	binary.BigEndian.PutUint64(heightBE[:], blockHeight)
	buf.Write(heightBE[:])
	for _, h := range chunkHashes {
		buf.Write(h[:])
	}
	return chainhash.Sum256(buf.Bytes())
}

// OwnershipCommitment binds a prover's public key to the data it claims to
// hold, independent of any blockchain anchor.
type OwnershipCommitment struct {
	PublicKey      chainhash.Hash
	DataHash       chainhash.Hash
	CommitmentHash chainhash.Hash
}

// CreateOwnershipCommitment computes
// commitment_hash = SHA256(data_hash ‖ public_key).
func CreateOwnershipCommitment(publicKey, dataHash chainhash.Hash) OwnershipCommitment {
	buf := new(bytes.Buffer)
	buf.Write(dataHash[:])
	buf.Write(publicKey[:])
	return OwnershipCommitment{
		PublicKey:      publicKey,
		DataHash:       dataHash,
		CommitmentHash: chainhash.Sum256(buf.Bytes()),
	}
}

// AnchoredCommitment binds an OwnershipCommitment to a specific point in an
// external blockchain's timeline. It is the chain's immutable root.
type AnchoredCommitment struct {
	Ownership    OwnershipCommitment
	BlockHeight  uint64
	BlockHash    chainhash.Hash
	AnchoredHash chainhash.Hash
}

// CreateAnchoredOwnershipCommitment computes
// anchored_hash = SHA256(ownership.commitment_hash ‖ block_height_be ‖ block_hash).
func CreateAnchoredOwnershipCommitment(ownership OwnershipCommitment, blockHeight uint64, blockHash chainhash.Hash) AnchoredCommitment {
	buf := new(bytes.Buffer)
	buf.Write(ownership.CommitmentHash[:])
	var heightBE [8]byte
	binary.BigEndian.PutUint64(heightBE[:], blockHeight)
	buf.Write(heightBE[:])
	buf.Write(blockHash[:])
	return AnchoredCommitment{
		Ownership:    ownership,
		BlockHeight:  blockHeight,
		BlockHash:    blockHash,
		AnchoredHash: chainhash.Sum256(buf.Bytes()),
	}
}
