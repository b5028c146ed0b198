// Package hashchain implements the aggregate root of the proof-of-storage-
// continuity engine: streaming data into a ChunkStore, building the
// append-only commitment chain anchored to an initial ownership commitment,
// and assembling/verifying proof windows over it. The binary `.hashchain`
// sidecar format below is grounded on the teacher's own hand-rolled binary
// codecs (node/store/db.go encodeIndexEntry/decodeIndexEntry,
// consensus/wire_write.go) rather than encoding/gob or reflection.
package hashchain

import (
	"bytes"
	"encoding/binary"

	"github.com/continuum-labs/storachain/chainhash"
	"github.com/continuum-labs/storachain/errs"
)

var magic = [4]byte{'H', 'C', 'H', '1'}

const fileVersion uint16 = 1

// commitmentRecordSize is the fixed on-disk size of one commitment record:
// block_height(8) + block_hash(32) + previous_commitment(32) +
// 4*selected_chunk(4*4) + 4*chunk_hash(4*32) + commitment_hash(32).
const commitmentRecordSize = 8 + 32 + 32 + 4*4 + 4*32 + 32

// fileHeader mirrors the fixed-width prefix of a `.hashchain` file, before
// the chain_length-many commitment records.
type fileHeader struct {
	ProverPublicKey        chainhash.Hash
	InitialBlockHeight     uint64
	InitialBlockHash       chainhash.Hash
	DataHash               chainhash.Hash
	MerkleRoot             chainhash.Hash
	TotalChunks            uint64
	AnchoredCommitmentHash chainhash.Hash
}

func encodeFile(h fileHeader, chain []Commitment) []byte {
	buf := new(bytes.Buffer)
	buf.Write(magic[:])
	writeU16(buf, fileVersion)
	buf.Write(h.ProverPublicKey[:])
	writeU64(buf, h.InitialBlockHeight)
	buf.Write(h.InitialBlockHash[:])
	buf.Write(h.DataHash[:])
	buf.Write(h.MerkleRoot[:])
	writeU64(buf, h.TotalChunks)
	buf.Write(h.AnchoredCommitmentHash[:])
	writeU64(buf, uint64(len(chain)))

	for _, c := range chain {
		writeU64(buf, c.BlockHeight)
		buf.Write(c.BlockHash[:])
		buf.Write(c.PreviousCommitment[:])
		for _, idx := range c.SelectedChunks {
			writeU32(buf, idx)
		}
		for _, ch := range c.ChunkHashes {
			buf.Write(ch[:])
		}
		buf.Write(c.CommitmentHash[:])
	}
	return buf.Bytes()
}

func decodeFile(raw []byte) (fileHeader, []Commitment, error) {
	var h fileHeader
	r := bytes.NewReader(raw)

	var gotMagic [4]byte
	if err := readExact(r, gotMagic[:]); err != nil {
		return h, nil, errs.New(errs.Corrupt, "hashchain: truncated magic: %v", err)
	}
	if gotMagic != magic {
		return h, nil, errs.New(errs.BadMagic, "hashchain: bad magic %q", gotMagic[:])
	}

	version, err := readU16(r)
	if err != nil {
		return h, nil, errs.New(errs.Corrupt, "hashchain: truncated version: %v", err)
	}
	if version != fileVersion {
		return h, nil, errs.New(errs.UnsupportedVersion, "hashchain: unsupported version %d", version)
	}

	if err := readHash(r, &h.ProverPublicKey); err != nil {
		return h, nil, corrupt("prover_public_key", err)
	}
	if h.InitialBlockHeight, err = readU64(r); err != nil {
		return h, nil, corrupt("initial_block_height", err)
	}
	if err := readHash(r, &h.InitialBlockHash); err != nil {
		return h, nil, corrupt("initial_block_hash", err)
	}
	if err := readHash(r, &h.DataHash); err != nil {
		return h, nil, corrupt("data_hash", err)
	}
	if err := readHash(r, &h.MerkleRoot); err != nil {
		return h, nil, corrupt("merkle_root", err)
	}
	if h.TotalChunks, err = readU64(r); err != nil {
		return h, nil, corrupt("total_chunks", err)
	}
	if err := readHash(r, &h.AnchoredCommitmentHash); err != nil {
		return h, nil, corrupt("anchored_commitment_hash", err)
	}

	chainLength, err := readU64(r)
	if err != nil {
		return h, nil, corrupt("chain_length", err)
	}

	chain := make([]Commitment, chainLength)
	for i := range chain {
		c := &chain[i]
		if c.BlockHeight, err = readU64(r); err != nil {
			return h, nil, corrupt("commitment.block_height", err)
		}
		if err := readHash(r, &c.BlockHash); err != nil {
			return h, nil, corrupt("commitment.block_hash", err)
		}
		if err := readHash(r, &c.PreviousCommitment); err != nil {
			return h, nil, corrupt("commitment.previous_commitment", err)
		}
		for j := range c.SelectedChunks {
			v, err := readU32(r)
			if err != nil {
				return h, nil, corrupt("commitment.selected_chunks", err)
			}
			c.SelectedChunks[j] = v
		}
		for j := range c.ChunkHashes {
			if err := readHash(r, &c.ChunkHashes[j]); err != nil {
				return h, nil, corrupt("commitment.chunk_hashes", err)
			}
		}
		if err := readHash(r, &c.CommitmentHash); err != nil {
			return h, nil, corrupt("commitment.commitment_hash", err)
		}
	}

	if r.Len() != 0 {
		return h, nil, errs.New(errs.Corrupt, "hashchain: %d trailing bytes after chain", r.Len())
	}

	return h, chain, nil
}

func corrupt(field string, err error) error {
	return errs.New(errs.Corrupt, "hashchain: truncated %s: %v", field, err)
}

func readExact(r *bytes.Reader, b []byte) error {
	n, err := r.Read(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return errs.New(errs.Corrupt, "short read: got %d want %d", n, len(b))
	}
	return nil
}

func readHash(r *bytes.Reader, h *chainhash.Hash) error {
	return readExact(r, h[:])
}

func readU16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if err := readExact(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if err := readExact(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readU64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if err := readExact(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
