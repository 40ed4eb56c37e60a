package sim

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewBaseSeed draws a batch base seed from crypto/rand. Per-game seeds are
// derived deterministically from the base, so recording one int64 is enough
// to reproduce an entire batch.
func NewBaseSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// gamma is the golden-ratio increment used to spread per-game seeds across
// the int64 space (the splitmix64 stream constant).
const gamma = int64(-7046029254386353131)

// gameSeed derives the seed for the i-th game of a batch. Distinct games get
// distinct seeds, and the derivation is pure, so any single game of a batch
// can be replayed in isolation.
func gameSeed(base int64, i int) int64 {
	return base + int64(i+1)*gamma
}
