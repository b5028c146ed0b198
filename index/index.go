// Package index implements a bbolt-backed, rebuildable secondary index over
// a hashchain's commitments: block_height -> (commitment_hash,
// previous_commitment). It is never authoritative — the `.hashchain` file
// is — and exists purely to accelerate height/hash lookups in long chains.
// Grounded on the teacher's node/store/db.go DB type: bolt.Open with a
// timeout, a bucket created up front, tx.Update/tx.View closures, and a
// hand-rolled fixed-width value encoding rather than a reflection-based
// codec.
package index

import (
	"encoding/binary"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/continuum-labs/storachain/chainhash"
	"github.com/continuum-labs/storachain/errs"
)

var bucketByHeight = []byte("commitments_by_height")

// entrySize is the fixed-width value: commitment_hash(32) ‖ previous_commitment(32).
const entrySize = chainhash.Size * 2

// Record is one rebuildable index entry.
type Record struct {
	BlockHeight        uint64
	CommitmentHash     chainhash.Hash
	PreviousCommitment chainhash.Hash
}

// Index is an open handle to the side index's bbolt file.
type Index struct {
	db *bolt.DB
}

// Open opens (creating if absent) the index database under dir.
func Open(dir string) (*Index, error) {
	path := filepath.Join(dir, "commitment_index.db")
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errs.New(errs.IoFailure, "index: open %s: %v", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketByHeight)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errs.New(errs.IoFailure, "index: create bucket: %v", err)
	}
	return &Index{db: db}, nil
}

// Close closes the underlying bbolt database. Safe on a nil Index.
func (ix *Index) Close() error {
	if ix == nil || ix.db == nil {
		return nil
	}
	return ix.db.Close()
}

// Rebuild discards and repopulates the index from records, in order. It
// never trusts prior on-disk state, matching the "fully rebuilt, not
// incrementally trusted" contract in the component design.
func (ix *Index) Rebuild(records []Record) error {
	return ix.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketByHeight); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		nb, err := tx.CreateBucket(bucketByHeight)
		if err != nil {
			return err
		}
		for _, r := range records {
			if err := nb.Put(heightKey(r.BlockHeight), encodeRecord(r)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns the commitment_hash/previous_commitment recorded at height.
func (ix *Index) Get(height uint64) (commitmentHash, previousCommitment chainhash.Hash, found bool, err error) {
	gerr := ix.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketByHeight).Get(heightKey(height))
		if v == nil {
			return nil
		}
		if len(v) != entrySize {
			return errs.New(errs.Corrupt, "index: malformed entry at height %d", height)
		}
		copy(commitmentHash[:], v[:chainhash.Size])
		copy(previousCommitment[:], v[chainhash.Size:])
		found = true
		return nil
	})
	if gerr != nil {
		return chainhash.Hash{}, chainhash.Hash{}, false, gerr
	}
	return commitmentHash, previousCommitment, found, nil
}

func heightKey(height uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], height)
	return b[:]
}

func encodeRecord(r Record) []byte {
	out := make([]byte, entrySize)
	copy(out[:chainhash.Size], r.CommitmentHash[:])
	copy(out[chainhash.Size:], r.PreviousCommitment[:])
	return out
}
