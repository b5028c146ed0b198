// Package chainhash holds the consensus-critical primitives of the storage
// continuity engine: plain and double SHA-256, the chunk Merkle tree with
// per-leaf authentication paths, and the V1 deterministic chunk selector.
//
// Every function here must produce bit-identical output across every
// implementation of this protocol; nothing in this package is tunable at
// runtime.
package chainhash

import (
	"crypto/sha256"

	"github.com/continuum-labs/storachain/errs"
)

// Size is the fixed width, in bytes, of every hash and key in this protocol.
const Size = 32

// Hash is a 32-byte digest.
type Hash [Size]byte

// Sum256 returns the SHA-256 digest of b.
func Sum256(b []byte) Hash {
	return sha256.Sum256(b)
}

// DoubleSum256 returns SHA-256(SHA-256(b)).
func DoubleSum256(b []byte) Hash {
	first := sha256.Sum256(b)
	return sha256.Sum256(first[:])
}

// FromBytes validates that b is exactly Size bytes and returns it as a Hash.
func FromBytes(field string, b []byte) (Hash, error) {
	var out Hash
	if len(b) != Size {
		return out, errs.SizeMismatchErr(field, Size, len(b))
	}
	copy(out[:], b)
	return out, nil
}

// Bytes returns h as a freshly allocated slice.
func (h Hash) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, h[:])
	return out
}
