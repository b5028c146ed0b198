// Package store implements the content-addressed chunk store: the on-disk
// `.data` file and the atomic-write/mmap machinery around it. Layout and
// naming conventions are grounded on the teacher's node/store/paths.go
// (ChainDir) and node/blockstore.go (content-addressed, hash-named files).
package store

import (
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/continuum-labs/storachain/chainhash"
)

// DataFileName returns the `.data` filename for a given data hash.
func DataFileName(dataHash chainhash.Hash) string {
	return hex.EncodeToString(dataHash[:]) + ".data"
}

// HashchainFileName returns the `.hashchain` filename for a given data hash.
func HashchainFileName(dataHash chainhash.Hash) string {
	return hex.EncodeToString(dataHash[:]) + ".hashchain"
}

// DataPath joins dir with the `.data` filename for dataHash.
func DataPath(dir string, dataHash chainhash.Hash) string {
	return filepath.Join(dir, DataFileName(dataHash))
}

// HashchainPath joins dir with the `.hashchain` filename for dataHash.
func HashchainPath(dir string, dataHash chainhash.Hash) string {
	return filepath.Join(dir, HashchainFileName(dataHash))
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
