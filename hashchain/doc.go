package hashchain

// Mapping from the specification's illustrative operation names to the
// exported identifiers in this package and its siblings:
//
//	Hashchain(public_key, height, hash)        -> New
//	stream_data(input, dir)                    -> (*Hashchain).Stream
//	add_block(block_hash)                       -> (*Hashchain).AddBlock
//	read_chunk(index)                           -> (*Hashchain).ReadChunk
//	verify_chain()                              -> (*Hashchain).VerifyChain
//	get_proof_window()                          -> (*Hashchain).GetProofWindow
//	get_chain_info()                            -> (*Hashchain).GetChainInfo
//	get_file_paths()                            -> (*Hashchain).GetFilePaths
//	load_from_file(path)                        -> LoadFromFile
//	select_chunks_v1(hash, n)                   -> chainhash.SelectChunksV1
//	verify_chunk_selection(...)                 -> chainhash.VerifyChunkSelection
//	create_ownership_commitment(...)             -> CreateOwnershipCommitment
//	create_anchored_ownership_commitment(...)    -> CreateAnchoredOwnershipCommitment
//	verify_proof(...)                            -> VerifyProof
//	compute_proof_of_work(...)                   -> pow.Mine
//	compute_proof_of_work_async(...)             -> pow.StartMining
//	verify_proof_of_work(...)                    -> pow.Verify
//	verify_proof_of_work_standardized(...)       -> pow.VerifyStandardized
//	hash_to_difficulty(hash)                     -> pow.HashToDifficulty
//	difficulty_to_target_hex(difficulty)         -> pow.DifficultyToTargetHex
//	get_algorithm_version()                      -> pow.GetAlgorithmVersion
//	get_algorithm_spec()                         -> pow.AlgorithmSpec
//	get_algorithm_parameters()                   -> pow.GetAlgorithmParameters
