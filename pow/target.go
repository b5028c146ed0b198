// Package pow implements the engine's Bitcoin-style proof-of-work: target
// arithmetic, synchronous mining, verification, and a cancellable async
// handle. Target math is grounded on the teacher's arbitrary-precision
// big.Int retargeting in consensus/pow.go, adapted from a retarget formula
// to the difficulty<->target conversion spec.md §4.G requires.
package pow

import (
	"math"
	"math/big"

	"github.com/continuum-labs/storachain/chainhash"
	"github.com/continuum-labs/storachain/errs"
)

// Network-wide constants. Changing any of these changes AlgorithmSpec and
// therefore breaks interoperability with every prior release.
const (
	BaseZeroBits     = 8
	LogMultiplier    = 1.0
	MaxZeroBits      = 224
	AlgorithmVersion = 1
)

// AlgorithmParameters is the introspectable tuple of constants above.
type AlgorithmParameters struct {
	BaseZeroBits  int
	LogMultiplier float64
	MaxZeroBits   int
}

// GetAlgorithmParameters returns the exact constants this build uses.
func GetAlgorithmParameters() AlgorithmParameters {
	return AlgorithmParameters{
		BaseZeroBits:  BaseZeroBits,
		LogMultiplier: LogMultiplier,
		MaxZeroBits:   MaxZeroBits,
	}
}

// GetAlgorithmVersion returns the PoW algorithm version implemented here.
func GetAlgorithmVersion() uint16 {
	return AlgorithmVersion
}

// AlgorithmSpec returns the hex encoding of SHA-256 over the parameter
// tuple, stable for a given AlgorithmVersion across releases.
func AlgorithmSpec() string {
	buf := make([]byte, 0, 4+8+4+2)
	buf = append(buf, u32be(uint32(BaseZeroBits))...)
	buf = append(buf, f64be(LogMultiplier)...)
	buf = append(buf, u32be(uint32(MaxZeroBits))...)
	buf = append(buf, u16be(uint16(AlgorithmVersion))...)
	h := chainhash.Sum256(buf)
	return hexEncode(h[:])
}

// TargetFromDifficulty computes the 32-byte big-endian target corresponding
// to difficulty, per the zero_bits = floor(BASE + log2(d)*MULT) rule in
// spec.md §4.G.
func TargetFromDifficulty(difficulty float64) (chainhash.Hash, error) {
	if !(difficulty > 0) || math.IsInf(difficulty, 0) || math.IsNaN(difficulty) {
		return chainhash.Hash{}, errs.New(errs.InvalidDifficulty, "difficulty must be a positive finite number, got %v", difficulty)
	}

	zeroBits := int(math.Floor(BaseZeroBits + math.Log2(difficulty)*LogMultiplier))
	if zeroBits < 0 {
		zeroBits = 0
	}
	if zeroBits > MaxZeroBits {
		zeroBits = MaxZeroBits
	}

	t := new(big.Int).Lsh(big.NewInt(1), uint(256-zeroBits))
	t.Sub(t, big.NewInt(1))

	return bigIntToHash(t)
}

// DifficultyToTargetHex returns the 64-character hex encoding of the target
// for difficulty.
func DifficultyToTargetHex(difficulty float64) (string, error) {
	target, err := TargetFromDifficulty(difficulty)
	if err != nil {
		return "", err
	}
	return hexEncode(target[:]), nil
}

// HashToDifficulty returns 2^((z-BaseZeroBits)/LogMultiplier), where z is
// the hash's leading zero-bit count clamped to MaxZeroBits, and never less
// than 1. This is the lowest difficulty whose target has exactly z zero bits,
// so a hash with at least BaseZeroBits leading zeros satisfies
// TargetFromDifficulty of the returned value; it is not the largest such
// difficulty. A hash with fewer than BaseZeroBits leading zeros gets 1 even
// though it does not satisfy TargetFromDifficulty(1).
func HashToDifficulty(hash chainhash.Hash) float64 {
	zeroBits := leadingZeroBits(hash)
	if zeroBits > MaxZeroBits {
		zeroBits = MaxZeroBits
	}
	if zeroBits <= BaseZeroBits {
		return 1
	}
	d := math.Pow(2, float64(zeroBits-BaseZeroBits)/LogMultiplier)
	if d < 1 {
		d = 1
	}
	return d
}

func leadingZeroBits(h chainhash.Hash) int {
	count := 0
	for _, b := range h {
		if b == 0 {
			count += 8
			continue
		}
		for mask := byte(0x80); mask > 0; mask >>= 1 {
			if b&mask != 0 {
				return count
			}
			count++
		}
	}
	return count
}

func bigIntToHash(x *big.Int) (chainhash.Hash, error) {
	var out chainhash.Hash
	if x.Sign() < 0 {
		return out, errs.New(errs.Corrupt, "target: negative value")
	}
	b := x.Bytes()
	if len(b) > chainhash.Size {
		return out, errs.New(errs.Corrupt, "target: overflows 32 bytes")
	}
	copy(out[chainhash.Size-len(b):], b)
	return out, nil
}
