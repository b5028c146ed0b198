package hashchain

import (
	"github.com/continuum-labs/storachain/chainhash"
	"github.com/continuum-labs/storachain/index"
)

// EnableCommitmentIndex opens (or creates) the bbolt-backed commitment
// index alongside the hashchain's directory and fully rebuilds it from the
// in-memory chain. It is a pure accelerator: CommitmentAtHeight falls back
// to a linear scan when no index is enabled, so deleting the index file and
// never calling this again loses nothing but lookup speed.
func (h *Hashchain) EnableCommitmentIndex() error {
	if !h.streamed {
		return nil
	}
	ix, err := index.Open(h.dir)
	if err != nil {
		return err
	}
	if err := ix.Rebuild(h.indexRecords()); err != nil {
		_ = ix.Close()
		return err
	}
	h.commitmentIndex = ix
	return nil
}

// CloseCommitmentIndex releases the index handle, if one was opened.
func (h *Hashchain) CloseCommitmentIndex() error {
	if h.commitmentIndex == nil {
		return nil
	}
	err := h.commitmentIndex.Close()
	h.commitmentIndex = nil
	return err
}

// CommitmentAtHeight returns the commitment hash recorded at blockHeight,
// preferring the side index when enabled and falling back to a linear scan
// of the live chain otherwise.
func (h *Hashchain) CommitmentAtHeight(blockHeight uint64) (chainhash.Hash, bool) {
	if h.commitmentIndex != nil {
		hash, _, found, err := h.commitmentIndex.Get(blockHeight)
		if err == nil && found {
			return hash, true
		}
	}
	for _, c := range h.chain {
		if c.BlockHeight == blockHeight {
			return c.CommitmentHash, true
		}
	}
	return chainhash.Hash{}, false
}

func (h *Hashchain) indexRecords() []index.Record {
	records := make([]index.Record, len(h.chain))
	for i, c := range h.chain {
		records[i] = index.Record{
			BlockHeight:        c.BlockHeight,
			CommitmentHash:     c.CommitmentHash,
			PreviousCommitment: c.PreviousCommitment,
		}
	}
	return records
}
