// Command storachain-demo drives a single Hashchain through its lifecycle —
// stream, addblock, prove, verify, mine — as a set of flag-parsed
// subcommands, one process invocation per step. It is a thin wrapper, not a
// library: correctness lives in chainhash/pow/store/hashchain, this just
// wires flags to them and prints JSON, following the teacher's
// node/main.go / cmd/rubin-node/main.go flag-based CLI shape and the
// Ok/Err JSON response convention from cmd/rubin-consensus-cli/main.go.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/continuum-labs/storachain/chainhash"
	"github.com/continuum-labs/storachain/hashchain"
	"github.com/continuum-labs/storachain/pow"
)

func hexDecodeSeed(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// Response is the single JSON envelope every subcommand writes to stdout.
type Response struct {
	Ok          bool            `json:"ok"`
	Err         string          `json:"err,omitempty"`
	ChainInfo   *chainInfoDTO   `json:"chain_info,omitempty"`
	Commitment  *commitmentDTO  `json:"commitment,omitempty"`
	ProofWindow *proofWindowDTO `json:"proof_window,omitempty"`
	Verified    *bool           `json:"verified,omitempty"`
	MineResult  *mineResultDTO  `json:"mine_result,omitempty"`
}

type chainInfoDTO struct {
	Status                    string  `json:"status"`
	TotalChunks               uint64  `json:"total_chunks"`
	ChainLength               uint64  `json:"chain_length"`
	TotalStorageMB            float64 `json:"total_storage_mb"`
	HashchainFilePath         string  `json:"hashchain_file_path,omitempty"`
	DataFilePath              string  `json:"data_file_path,omitempty"`
	AnchoredCommitment        string  `json:"anchored_commitment,omitempty"`
	CurrentCommitment         string  `json:"current_commitment,omitempty"`
	ProofWindowReady          bool    `json:"proof_window_ready"`
	BlocksUntilProofReady     *uint64 `json:"blocks_until_proof_ready,omitempty"`
	ConsensusAlgorithmVersion uint16  `json:"consensus_algorithm_version"`
}

func toChainInfoDTO(info hashchain.ChainInfo) chainInfoDTO {
	d := chainInfoDTO{
		Status:                    string(info.Status),
		TotalChunks:               info.TotalChunks,
		ChainLength:               info.ChainLength,
		TotalStorageMB:            info.TotalStorageMB,
		HashchainFilePath:         info.HashchainFilePath,
		DataFilePath:              info.DataFilePath,
		ProofWindowReady:          info.ProofWindowReady,
		BlocksUntilProofReady:     info.BlocksUntilProofReady,
		ConsensusAlgorithmVersion: info.ConsensusAlgorithmVersion,
	}
	if info.AnchoredCommitment != nil {
		d.AnchoredCommitment = hashHex(*info.AnchoredCommitment)
	}
	if info.CurrentCommitment != nil {
		d.CurrentCommitment = hashHex(*info.CurrentCommitment)
	}
	return d
}

type mineResultDTO struct {
	Nonce      uint64  `json:"nonce"`
	Hash       string  `json:"hash"`
	Attempts   uint64  `json:"attempts"`
	ElapsedMs  int64   `json:"elapsed_ms"`
	Difficulty float64 `json:"difficulty"`
}

func toMineResultDTO(r pow.Result) mineResultDTO {
	return mineResultDTO{
		Nonce:      r.Nonce,
		Hash:       hashHex(r.Hash),
		Attempts:   r.Attempts,
		ElapsedMs:  r.ElapsedMs,
		Difficulty: r.Difficulty,
	}
}

func writeResp(w io.Writer, resp Response) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

func fail(w io.Writer, err error) {
	writeResp(w, Response{Ok: false, Err: err.Error()})
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: storachain-demo <stream|addblock|prove|verify|mine> [flags]")
		return 2
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).With().Timestamp().Logger()

	var err error
	switch args[0] {
	case "stream":
		err = runStream(args[1:], stdout, logger)
	case "addblock":
		err = runAddBlock(args[1:], stdout, logger)
	case "prove":
		err = runProve(args[1:], stdout, logger)
	case "verify":
		err = runVerify(args[1:], stdout)
	case "mine":
		err = runMine(args[1:], stdout, logger)
	default:
		fmt.Fprintf(stderr, "unknown subcommand %q\n", args[0])
		return 2
	}
	if err != nil {
		fail(stdout, err)
		return 1
	}
	return 0
}

func runStream(args []string, stdout io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("stream", flag.ContinueOnError)
	datadir := fs.String("datadir", "", "directory to hold the .data/.hashchain files")
	owner := fs.String("owner", "", "prover public key, 32 bytes hex")
	height := fs.Uint64("height", 0, "initial anchoring block height")
	blockhash := fs.String("blockhash", "", "initial anchoring block hash, 32 bytes hex")
	input := fs.String("input", "", "path to the file to stream")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ownerHash, err := parseHash("owner", *owner)
	if err != nil {
		return err
	}
	blockHash, err := parseHash("blockhash", *blockhash)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(*input)
	if err != nil {
		return err
	}

	h := hashchain.New(ownerHash, *height, blockHash, hashchain.WithPersistence(*datadir), hashchain.WithLogger(logger))
	if err := h.Stream(data, *datadir); err != nil {
		return err
	}

	info := toChainInfoDTO(h.GetChainInfo())
	writeResp(stdout, Response{Ok: true, ChainInfo: &info})
	return nil
}

func runAddBlock(args []string, stdout io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("addblock", flag.ContinueOnError)
	hashchainPath := fs.String("hashchain", "", "path to the .hashchain file")
	blockhash := fs.String("blockhash", "", "block hash for this commitment, 32 bytes hex (omit to derive one deterministically)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	h, err := hashchain.LoadFromFile(*hashchainPath, hashchain.WithPersistence(filepath.Dir(*hashchainPath)), hashchain.WithLogger(logger))
	if err != nil {
		return err
	}

	resolvedHash, err := resolveBlockHash(*blockhash, h)
	if err != nil {
		return err
	}

	commitment, err := h.AddBlock(resolvedHash)
	if err != nil {
		return err
	}

	dto := toCommitmentDTO(commitment)
	info := toChainInfoDTO(h.GetChainInfo())
	writeResp(stdout, Response{Ok: true, Commitment: &dto, ChainInfo: &info})
	return nil
}

// resolveBlockHash parses an explicit hash, or, if blockhashFlag is empty,
// derives one deterministically from the chain's current length via
// BlockSource — letting `addblock` be scripted in a loop without a real
// chain tip to follow.
func resolveBlockHash(blockhashFlag string, h *hashchain.Hashchain) (chainhash.Hash, error) {
	if blockhashFlag != "" {
		return parseHash("blockhash", blockhashFlag)
	}
	src := newDeterministicBlockSource(h.GetChainInfo().ChainLength)
	_, hash, err := src.Next()
	return hash, err
}

func runProve(args []string, stdout io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("prove", flag.ContinueOnError)
	hashchainPath := fs.String("hashchain", "", "path to the .hashchain file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	h, err := hashchain.LoadFromFile(*hashchainPath, hashchain.WithLogger(logger))
	if err != nil {
		return err
	}
	window, err := h.GetProofWindow()
	if err != nil {
		return err
	}

	dto := toProofWindowDTO(window)
	writeResp(stdout, Response{Ok: true, ProofWindow: &dto})
	return nil
}

func runVerify(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	hashchainPath := fs.String("hashchain", "", "path to the .hashchain file providing the anchor, merkle root and total chunks")
	windowPath := fs.String("window", "", "path to a JSON proof window previously written by `prove`")
	if err := fs.Parse(args); err != nil {
		return err
	}

	h, err := hashchain.LoadFromFile(*hashchainPath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(*windowPath)
	if err != nil {
		return err
	}
	var dto proofWindowDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return err
	}
	window, err := fromProofWindowDTO(dto)
	if err != nil {
		return err
	}

	info := h.GetChainInfo()
	var anchored chainhash.Hash
	if info.AnchoredCommitment != nil {
		anchored = *info.AnchoredCommitment
	}
	ok := hashchain.VerifyProof(window, anchored, h.MerkleRoot(), info.TotalChunks)
	writeResp(stdout, Response{Ok: true, Verified: &ok})
	return nil
}

func runMine(args []string, stdout io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("mine", flag.ContinueOnError)
	seedHex := fs.String("seed", "", "mining preimage seed, hex-encoded")
	difficulty := fs.Float64("difficulty", 1, "target difficulty, >= 1")
	maxAttempts := fs.Uint64("maxattempts", 10_000_000, "nonce search budget")
	double := fs.Bool("double", true, "use double-SHA-256 instead of single")
	async := fs.Bool("async", false, "mine asynchronously via StartMining/Wait instead of Mine")
	if err := fs.Parse(args); err != nil {
		return err
	}

	seed, err := hexDecodeSeed(*seedHex)
	if err != nil {
		return err
	}

	if !*async {
		result, err := pow.Mine(seed, *difficulty, *maxAttempts, *double)
		if err != nil {
			return err
		}
		dto := toMineResultDTO(result)
		writeResp(stdout, Response{Ok: true, MineResult: &dto})
		return nil
	}

	handle, err := pow.StartMining(pow.Request{
		Seed:            seed,
		Difficulty:      *difficulty,
		MaxAttempts:     *maxAttempts,
		UseDoubleSHA256: *double,
	}, logger)
	if err != nil {
		return err
	}
	handle.Wait()
	if handle.HasError() {
		return handle.GetError()
	}
	result, err := handle.GetResult()
	if err != nil {
		return err
	}
	dto := toMineResultDTO(*result)
	writeResp(stdout, Response{Ok: true, MineResult: &dto})
	return nil
}
