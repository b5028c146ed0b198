package chainhash

import (
	"encoding/binary"

	"github.com/continuum-labs/storachain/errs"
)

// ChunksPerBlock is the number of chunks selected for every block commitment.
const ChunksPerBlock = 4

// AlgorithmVersion is the consensus-critical version of the selection
// algorithm implemented here.
const AlgorithmVersion uint16 = 1

const selectDomainTag = "CHUNK_SELECT_V1"

// Selection is the result of running SelectChunksV1.
type Selection struct {
	Indices          [ChunksPerBlock]uint32
	AlgorithmVersion uint16
	TotalChunks      uint64
	BlockHash        Hash
	VerificationHash Hash
}

// SelectChunksV1 deterministically picks ChunksPerBlock distinct chunk
// indices from blockHash and totalChunks. Every conforming implementation of
// this protocol MUST produce bit-identical output for the same inputs — see
// spec.md §4.D.
func SelectChunksV1(blockHash Hash, totalChunks uint64) (Selection, error) {
	if totalChunks == 0 {
		return Selection{}, errs.New(errs.NonPositive, "select_v1: total_chunks must be positive")
	}
	if totalChunks < ChunksPerBlock {
		return Selection{}, errs.New(errs.TooFewChunks, "select_v1: total_chunks %d < %d", totalChunks, ChunksPerBlock)
	}

	indices := selectIndicesV1(blockHash, totalChunks)

	var encoded []byte
	for _, idx := range indices {
		encoded = append(encoded, u32be(idx)...)
	}
	verification := Sum256(append(blockHash.Bytes(), encoded...))

	return Selection{
		Indices:          indices,
		AlgorithmVersion: AlgorithmVersion,
		TotalChunks:      totalChunks,
		BlockHash:        blockHash,
		VerificationHash: verification,
	}, nil
}

// VerifyChunkSelection returns true iff version is 1, indices has exactly
// ChunksPerBlock entries that are the element-wise expected indices for
// (blockHash, totalChunks) — including order — with no out-of-range or
// duplicated entry.
func VerifyChunkSelection(blockHash Hash, totalChunks uint64, indices []uint32, version uint16) bool {
	if version != AlgorithmVersion {
		return false
	}
	if len(indices) != ChunksPerBlock {
		return false
	}
	seen := make(map[uint32]struct{}, ChunksPerBlock)
	for _, idx := range indices {
		if uint64(idx) >= totalChunks {
			return false
		}
		if _, dup := seen[idx]; dup {
			return false
		}
		seen[idx] = struct{}{}
	}
	expected, err := SelectChunksV1(blockHash, totalChunks)
	if err != nil {
		return false
	}
	for i := range expected.Indices {
		if expected.Indices[i] != indices[i] {
			return false
		}
	}
	return true
}

// selectIndicesV1 implements the reference construction in spec.md §4.D: a
// seed is expanded by iterated SHA-256; each of the four 8-byte windows of
// the current seed is tried in turn as a big-endian u64 candidate modulo
// totalChunks, skipping any value already chosen. Because totalChunks is at
// least ChunksPerBlock, a free value always exists, so the retry below
// (rehash the seed and try all four windows again) terminates with
// probability 1. For small totalChunks the retry is common: with
// totalChunks == 4 the last pick misses on all four windows about a third
// of the time.
func selectIndicesV1(blockHash Hash, totalChunks uint64) [ChunksPerBlock]uint32 {
	seed := Sum256(append(blockHash.Bytes(), []byte(selectDomainTag)...))

	var out [ChunksPerBlock]uint32
	chosen := make(map[uint64]struct{}, ChunksPerBlock)

	for k := 0; k < ChunksPerBlock; k++ {
		var candidate uint64
		cur := seed
		for {
			found := false
			for w := 0; w < ChunksPerBlock; w++ {
				off := w * 8
				val := binary.BigEndian.Uint64(cur[off : off+8])
				c := val % totalChunks
				if _, dup := chosen[c]; dup {
					continue
				}
				candidate = c
				found = true
				break
			}
			if found {
				break
			}
			cur = Sum256(cur[:])
		}

		out[k] = uint32(candidate)
		chosen[candidate] = struct{}{}

		preimage := make([]byte, 0, Size+8)
		preimage = append(preimage, cur[:]...)
		preimage = append(preimage, u64be(candidate)...)
		seed = Sum256(preimage)
	}

	return out
}

func u32be(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

func u64be(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
