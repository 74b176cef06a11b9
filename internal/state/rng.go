// Deterministic randomness. All in-core pseudo-random choices (ids, view
// noise) derive from SHA-256 over (seed, tick, counter) — never from
// wall-clock or process entropy, so identical inputs reproduce identical
// post-tick hashes.
package state

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Uniform maps (seed, idx) to a uniform float64 in [0, 1).
func Uniform(seed int64, idx int64) float64 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(seed))
	binary.BigEndian.PutUint64(buf[8:16], uint64(idx))
	sum := sha256.Sum256(buf[:])
	// 53 bits give a uniform float64 in [0, 1).
	n := binary.BigEndian.Uint64(sum[:8]) >> 11
	return float64(n) / float64(1<<53)
}

// Noise perturbs base by up to ±mag, seeded by (seed, idx).
func Noise(base, mag float64, seed, idx int64) float64 {
	return base + (Uniform(seed, idx)-0.5)*2*mag
}

// DeterministicID mints a stable id from the current seed, a kind tag, and a
// counter (typically the owning collection's length).
func DeterministicID(kind string, seed int32, counter int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d", kind, seed, counter)))
	return fmt.Sprintf("%s_%s", kind, hex.EncodeToString(sum[:6]))
}

// NewLawID mints a law id from the seed and current law count.
func (w *WorldState) NewLawID() string {
	return DeterministicID("law", w.Meta.Seed, len(w.Laws))
}

// NewEventID mints an event id from the seed and current event count.
func (w *WorldState) NewEventID() string {
	return DeterministicID("evt", w.Meta.Seed, len(w.Events))
}

// NewMovementID mints a movement id from the seed and current movement count.
func (w *WorldState) NewMovementID() string {
	return DeterministicID("mov", w.Meta.Seed, len(w.Society.Movements))
}
