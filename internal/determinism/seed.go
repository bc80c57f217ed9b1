package determinism

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// GenerateSeed derives a deterministic uint64 seed for one sample from a
// batch seed and the sample's index. The value is a SHA-256 hash of the
// pair, so fixing the batch seed reproduces the whole batch while still
// giving each sample an independent stream.
// The returned value is masked to fit in int64, since several provider APIs
// accept seeds as signed 64-bit integers.
func GenerateSeed(batchSeed uint64, index int) uint64 {
	input := fmt.Sprintf("%d|%d", batchSeed, index)

	hash := sha256.Sum256([]byte(input))
	seed := binary.BigEndian.Uint64(hash[:8])

	// Keep the seed in [0, math.MaxInt64].
	return seed & 0x7FFFFFFFFFFFFFFF
}
