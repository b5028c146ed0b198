package hashchain

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/continuum-labs/storachain/chainhash"
	"github.com/continuum-labs/storachain/errs"
	"github.com/continuum-labs/storachain/index"
	"github.com/continuum-labs/storachain/store"
)

// ProofWindowBlocks is the fixed number of trailing commitments a proof
// window materialises.
const ProofWindowBlocks = 8

// ConsensusAlgorithmVersion is the chunk-selection algorithm version this
// build implements.
const ConsensusAlgorithmVersion = chainhash.AlgorithmVersion

// Status is the coarse-grained lifecycle state reported by GetChainInfo.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusInitialized   Status = "initialized"
	StatusBuilding      Status = "building"
	StatusActive        Status = "active"
)

// Hashchain is the aggregate root: it exclusively owns its ChunkStore and
// commitment chain, grounded on the teacher's node/sync.go ApplyBlock shape
// (validate input, compute derived fields, append, persist) but
// restructured around commitments instead of UTXO-set transitions.
type Hashchain struct {
	proverPublicKey    chainhash.Hash
	initialBlockHeight uint64
	initialBlockHash   chainhash.Hash

	streamed               bool
	dataHash               chainhash.Hash
	merkleRoot             chainhash.Hash
	merkleTree             *chainhash.Tree
	anchoredCommitmentHash chainhash.Hash
	chain                  []Commitment

	dir             string
	chunkStore      *store.ChunkStore
	persistDir      string
	logger          zerolog.Logger
	commitmentIndex *index.Index
}

// Option configures a Hashchain at construction time.
type Option func(*Hashchain)

// WithPersistence enables atomic `.hashchain` rewrites on every Stream and
// AddBlock call, written to dir (which must match the Stream target
// directory). Resolves spec.md's open question on automatic vs explicit
// persistence: library construction defaults this off so pure in-memory use
// pays no I/O cost; the CLI demo turns it on.
func WithPersistence(dir string) Option {
	return func(h *Hashchain) { h.persistDir = dir }
}

// WithLogger attaches a structured logger; the zero value is a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *Hashchain) { h.logger = logger }
}

// New constructs an empty, unstreamed Hashchain.
func New(proverPublicKey chainhash.Hash, initialBlockHeight uint64, initialBlockHash chainhash.Hash, opts ...Option) *Hashchain {
	h := &Hashchain{
		proverPublicKey:    proverPublicKey,
		initialBlockHeight: initialBlockHeight,
		initialBlockHash:   initialBlockHash,
		logger:             zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Stream is the single-shot initialisation operation: it chunks inputBytes,
// writes the `.data` file, computes the Merkle root, and derives the
// anchored ownership commitment that roots the chain.
func (h *Hashchain) Stream(inputBytes []byte, targetDirectory string) error {
	if h.streamed {
		return errs.New(errs.AlreadyStreamed, "stream: hashchain already initialised")
	}

	res, err := store.Stream(inputBytes, targetDirectory)
	if err != nil {
		return err
	}

	tree := chainhash.BuildTree(res.ChunkHashes)

	ownership := CreateOwnershipCommitment(h.proverPublicKey, res.DataHash)
	anchored := CreateAnchoredOwnershipCommitment(ownership, h.initialBlockHeight, h.initialBlockHash)

	h.dataHash = res.DataHash
	h.merkleRoot = tree.Root()
	h.merkleTree = tree
	h.anchoredCommitmentHash = anchored.AnchoredHash
	h.chunkStore = res.Store
	h.dir = targetDirectory
	h.streamed = true

	h.logger.Info().
		Str("data_hash", hexHash(h.dataHash)).
		Uint64("total_chunks", res.TotalChunks).
		Msg("hashchain streamed")

	if h.persistDir != "" {
		if err := h.Save(); err != nil {
			return err
		}
	}
	return nil
}

// AddBlock selects four chunks for blockHash via SelectChunksV1, hashes
// them, appends the resulting Commitment to the chain, and — if
// persistence was requested — atomically rewrites the `.hashchain` file.
func (h *Hashchain) AddBlock(blockHash chainhash.Hash) (Commitment, error) {
	if !h.streamed {
		return Commitment{}, errs.New(errs.NoData, "add_block: hashchain has not been streamed")
	}

	sel, err := chainhash.SelectChunksV1(blockHash, h.chunkStore.TotalChunks())
	if err != nil {
		return Commitment{}, err
	}

	var chunkHashes [chainhash.ChunksPerBlock]chainhash.Hash
	for i, idx := range sel.Indices {
		chunk, err := h.chunkStore.ReadChunk(uint64(idx))
		if err != nil {
			return Commitment{}, err
		}
		chunkHashes[i] = chainhash.Sum256(chunk)
	}

	previous := h.anchoredCommitmentHash
	if len(h.chain) > 0 {
		previous = h.chain[len(h.chain)-1].CommitmentHash
	}
	blockHeight := h.initialBlockHeight + uint64(len(h.chain)) + 1

	commitmentHash := computeCommitmentHash(previous, blockHash, blockHeight, chunkHashes)

	commitment := Commitment{
		BlockHeight:        blockHeight,
		BlockHash:          blockHash,
		PreviousCommitment: previous,
		SelectedChunks:     sel.Indices,
		ChunkHashes:        chunkHashes,
		CommitmentHash:     commitmentHash,
	}

	h.chain = append(h.chain, commitment)

	h.logger.Info().
		Uint64("block_height", blockHeight).
		Int("chain_length", len(h.chain)).
		Msg("commitment appended")

	if h.persistDir != "" {
		if err := h.Save(); err != nil {
			h.chain = h.chain[:len(h.chain)-1]
			return Commitment{}, err
		}
	}

	if h.commitmentIndex != nil {
		if err := h.commitmentIndex.Rebuild(h.indexRecords()); err != nil {
			h.logger.Warn().Err(err).Msg("commitment index rebuild failed")
		}
	}

	return commitment, nil
}

// ReadChunk reads a raw 4096-byte chunk from the backing ChunkStore.
func (h *Hashchain) ReadChunk(i uint64) ([]byte, error) {
	if !h.streamed {
		return nil, errs.New(errs.NoData, "read_chunk: hashchain has not been streamed")
	}
	return h.chunkStore.ReadChunk(i)
}

// VerifyChain checks linkage and commitment-hash recomputation across the
// whole chain, and — when persisted — that the backing files still exist.
func (h *Hashchain) VerifyChain() bool {
	if !h.streamed {
		return false
	}
	if h.persistDir != "" {
		hcPath, dataPath, ok := h.GetFilePaths()
		if !ok {
			return false
		}
		if _, err := os.Stat(hcPath); err != nil {
			return false
		}
		if _, err := os.Stat(dataPath); err != nil {
			return false
		}
	}

	previous := h.anchoredCommitmentHash
	for _, c := range h.chain {
		if c.PreviousCommitment != previous {
			return false
		}
		recomputed := computeCommitmentHash(c.PreviousCommitment, c.BlockHash, c.BlockHeight, c.ChunkHashes)
		if recomputed != c.CommitmentHash {
			return false
		}
		previous = c.CommitmentHash
	}
	return true
}

// MerkleRoot returns the root of the chunk Merkle tree computed by Stream
// or recomputed by LoadFromFile. External verifiers (the CLI demo, a
// remote challenger) need this alongside a ProofWindow to call VerifyProof.
func (h *Hashchain) MerkleRoot() chainhash.Hash {
	return h.merkleRoot
}

// AnchoredCommitment returns the chain's immutable root commitment hash.
func (h *Hashchain) AnchoredCommitment() chainhash.Hash {
	return h.anchoredCommitmentHash
}

// GetFilePaths returns the `.hashchain` and `.data` paths once streamed.
func (h *Hashchain) GetFilePaths() (hashchainPath, dataPath string, ok bool) {
	if !h.streamed {
		return "", "", false
	}
	return store.HashchainPath(h.dir, h.dataHash), h.chunkStore.DataPath(), true
}

// GetChainInfo returns a point-in-time snapshot of chain status and sizes.
func (h *Hashchain) GetChainInfo() ChainInfo {
	info := ChainInfo{
		InitialBlockHeight:        h.initialBlockHeight,
		ConsensusAlgorithmVersion: ConsensusAlgorithmVersion,
	}

	if !h.streamed {
		info.Status = StatusUninitialized
		return info
	}

	info.TotalChunks = h.chunkStore.TotalChunks()
	info.ChainLength = uint64(len(h.chain))
	info.ChunkSizeBytes = store.ChunkSize
	info.TotalStorageMB = float64(info.TotalChunks*store.ChunkSize) / (1024 * 1024)

	hcPath, dataPath, _ := h.GetFilePaths()
	info.HashchainFilePath = hcPath
	info.DataFilePath = dataPath
	if fi, err := os.Stat(hcPath); err == nil {
		sz := fi.Size()
		info.HashchainFileSizeBytes = &sz
	}
	if fi, err := os.Stat(dataPath); err == nil {
		sz := fi.Size()
		info.DataFileSizeBytes = &sz
	}

	anchored := h.anchoredCommitmentHash
	info.AnchoredCommitment = &anchored

	switch {
	case info.ChainLength == 0:
		info.Status = StatusInitialized
	case info.ChainLength < ProofWindowBlocks:
		info.Status = StatusBuilding
		remaining := uint64(ProofWindowBlocks) - info.ChainLength
		info.BlocksUntilProofReady = &remaining
	default:
		info.Status = StatusActive
	}

	if info.ChainLength > 0 {
		current := h.chain[len(h.chain)-1].CommitmentHash
		info.CurrentCommitment = &current
	}
	info.ProofWindowReady = info.ChainLength >= ProofWindowBlocks

	return info
}

// Save atomically rewrites the `.hashchain` sidecar file from the current
// in-memory state. Grounded on the teacher's node/store/manifest.go
// writeManifestAtomic, via store.WriteFileAtomic.
func (h *Hashchain) Save() error {
	if !h.streamed {
		return errs.New(errs.NoData, "save: hashchain has not been streamed")
	}
	header := fileHeader{
		ProverPublicKey:        h.proverPublicKey,
		InitialBlockHeight:     h.initialBlockHeight,
		InitialBlockHash:       h.initialBlockHash,
		DataHash:               h.dataHash,
		MerkleRoot:             h.merkleRoot,
		TotalChunks:            h.chunkStore.TotalChunks(),
		AnchoredCommitmentHash: h.anchoredCommitmentHash,
	}
	raw := encodeFile(header, h.chain)
	path := store.HashchainPath(h.dir, h.dataHash)
	return store.WriteFileAtomic(path, raw, 0o644)
}

// LoadFromFile reconstructs a Hashchain from a `.hashchain` sidecar,
// re-opening the co-located `.data` file and rebuilding the Merkle tree
// from its chunks.
func LoadFromFile(hashchainPath string, opts ...Option) (*Hashchain, error) {
	raw, err := os.ReadFile(hashchainPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.New(errs.NotFound, "load_from_file: %s not found", hashchainPath)
		}
		return nil, errs.New(errs.IoFailure, "load_from_file: %v", err)
	}

	header, chain, err := decodeFile(raw)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(hashchainPath)
	dataPath := store.DataPath(dir, header.DataHash)
	cs, err := store.Open(dataPath, header.TotalChunks)
	if err != nil {
		return nil, err
	}

	leaves := make([]chainhash.Hash, header.TotalChunks)
	for i := uint64(0); i < header.TotalChunks; i++ {
		chunk, err := cs.ReadChunk(i)
		if err != nil {
			return nil, err
		}
		leaves[i] = chainhash.Sum256(chunk)
	}
	tree := chainhash.BuildTree(leaves)
	if tree.Root() != header.MerkleRoot {
		return nil, errs.New(errs.Corrupt, "load_from_file: merkle root mismatch")
	}

	h := &Hashchain{
		proverPublicKey:        header.ProverPublicKey,
		initialBlockHeight:     header.InitialBlockHeight,
		initialBlockHash:       header.InitialBlockHash,
		streamed:               true,
		dataHash:               header.DataHash,
		merkleRoot:             header.MerkleRoot,
		merkleTree:             tree,
		anchoredCommitmentHash: header.AnchoredCommitmentHash,
		chain:                  chain,
		dir:                    dir,
		chunkStore:             cs,
		logger:                 zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func hexHash(h chainhash.Hash) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, 0, chainhash.Size*2)
	for _, b := range h {
		out = append(out, hextable[b>>4], hextable[b&0x0f])
	}
	return string(out)
}
