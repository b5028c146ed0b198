package pow

import (
	"bytes"
	"time"

	"github.com/continuum-labs/storachain/chainhash"
	"github.com/continuum-labs/storachain/errs"
)

// Result is the outcome of a successful mining run.
type Result struct {
	Nonce      uint64
	Hash       chainhash.Hash
	Attempts   uint64
	ElapsedMs  int64
	Difficulty float64
	Target     chainhash.Hash
}

// preimageHash computes H(seed || nonce_be): double-SHA-256 by default, or a
// single SHA-256 pass when useDoubleSHA256 is false.
func preimageHash(seed []byte, nonce uint64, useDoubleSHA256 bool) chainhash.Hash {
	preimage := make([]byte, 0, len(seed)+8)
	preimage = append(preimage, seed...)
	preimage = append(preimage, u64be(nonce)...)
	if useDoubleSHA256 {
		return chainhash.DoubleSum256(preimage)
	}
	return chainhash.Sum256(preimage)
}

func meetsTarget(hash, target chainhash.Hash) bool {
	return bytes.Compare(hash[:], target[:]) <= 0
}

// Mine performs a synchronous nonce search over [0, maxAttempts), returning
// the first nonce whose preimage hash meets the target for difficulty.
func Mine(seed []byte, difficulty float64, maxAttempts uint64, useDoubleSHA256 bool) (Result, error) {
	target, err := TargetFromDifficulty(difficulty)
	if err != nil {
		return Result{}, err
	}

	started := time.Now()
	for nonce := uint64(0); nonce < maxAttempts; nonce++ {
		h := preimageHash(seed, nonce, useDoubleSHA256)
		if meetsTarget(h, target) {
			return Result{
				Nonce:      nonce,
				Hash:       h,
				Attempts:   nonce + 1,
				ElapsedMs:  time.Since(started).Milliseconds(),
				Difficulty: difficulty,
				Target:     target,
			}, nil
		}
	}
	return Result{}, errs.Exhaustion(maxAttempts)
}

// Verify reports whether nonce is a valid proof of work for seed at
// difficulty, using the given hashing mode.
func Verify(seed []byte, nonce uint64, difficulty float64, useDoubleSHA256 bool) (bool, error) {
	target, err := TargetFromDifficulty(difficulty)
	if err != nil {
		return false, err
	}
	h := preimageHash(seed, nonce, useDoubleSHA256)
	return meetsTarget(h, target), nil
}

// VerifyStandardized is Verify gated on algorithmVersion: only
// AlgorithmVersion (1) is accepted, so a future incompatible algorithm never
// silently validates under the old rules.
func VerifyStandardized(seed []byte, nonce uint64, difficulty float64, algorithmVersion uint16, useDoubleSHA256 bool) (bool, error) {
	if algorithmVersion != AlgorithmVersion {
		return false, errs.New(errs.UnsupportedVersion, "pow: unsupported algorithm version %d", algorithmVersion)
	}
	return Verify(seed, nonce, difficulty, useDoubleSHA256)
}
