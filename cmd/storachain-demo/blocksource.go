package main

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/continuum-labs/storachain/chainhash"
)

// BlockSource supplies the (height, hash) pairs an external chain would
// normally hand a prover. The library itself never depends on this — per
// spec.md §6's exclusion of the blockchain node from the core — so it lives
// here, consumed only by the demo CLI.
type BlockSource interface {
	Next() (height uint64, hash chainhash.Hash, err error)
}

// deterministicBlockSource derives a block hash from a running counter. It
// exists so the demo can be scripted end to end without a real node: height
// N always maps to the same hash, so `addblock` runs are reproducible across
// invocations.
type deterministicBlockSource struct {
	height uint64
}

func newDeterministicBlockSource(startHeight uint64) *deterministicBlockSource {
	return &deterministicBlockSource{height: startHeight}
}

func (s *deterministicBlockSource) Next() (uint64, chainhash.Hash, error) {
	s.height++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], s.height)
	return s.height, chainhash.Hash(sha256.Sum256(buf[:])), nil
}
