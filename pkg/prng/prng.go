// Package prng implements the per-thread random substrate shared by every
// perturbation backend: lazy seeding, a sparsity gate, and single-slot
// seed save/restore. Modeled on the *rand.Rand-holding Sampler in
// chaos-utils' fuzz package, generalized from a single process-wide
// generator to one instance per goroutine.
package prng

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync/atomic"
)

var threadIDCounter uint64

// NextThreadID returns a process-wide monotonically increasing id,
// assigned to a goroutine the first time it touches its State.
func NextThreadID() uint64 {
	return atomic.AddUint64(&threadIDCounter, 1) - 1
}

// State is a thread-local RNG state: one per goroutine, never shared.
// Seeding is lazy; the zero value is valid and seeds itself on first use.
type State struct {
	rng       *mathrand.Rand
	threadID  uint64
	hasThread bool
	seeded    bool

	configuredSeed    uint64
	useConfiguredSeed bool

	saved *savedState
}

type savedState struct {
	rng    *mathrand.Rand
	seeded bool
}

// Configure sets the seed this state will lazily derive from. When
// useSeed is false, entropy is drawn from the system CSPRNG instead.
func (s *State) Configure(seed uint64, useSeed bool) {
	s.configuredSeed = seed
	s.useConfiguredSeed = useSeed
	s.seeded = false
}

func (s *State) tid() uint64 {
	if !s.hasThread {
		s.threadID = NextThreadID()
		s.hasThread = true
	}
	return s.threadID
}

// ensureSeeded performs the first-call lazy seed described in the RNG
// substrate: configured seed XOR thread id, or system entropy.
func (s *State) ensureSeeded() {
	if s.seeded {
		return
	}
	var seed uint64
	if s.useConfiguredSeed {
		seed = s.configuredSeed ^ s.tid()
	} else {
		seed = systemEntropySeed()
	}
	s.rng = mathrand.New(mathrand.NewSource(int64(seed))) //nolint:gosec
	s.seeded = true
}

func systemEntropySeed() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failure on a sane OS is not recoverable behavior
		// worth modeling; fall back to a fixed, clearly non-random seed
		// rather than panicking mid-computation.
		return 0xDEADBEEF
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// NextU64 returns a uniform 64-bit value, seeding the state on first use.
func (s *State) NextU64() uint64 {
	s.ensureSeeded()
	return s.rng.Uint64()
}

// NextUnitOpen returns a uniform double in the open interval (0, 1).
func (s *State) NextUnitOpen() float64 {
	s.ensureSeeded()
	for {
		f := s.rng.Float64()
		if f > 0 {
			return f
		}
	}
}

// SkipEval is the sparsity gate: returns true (keep/no-perturbation)
// with probability 1-sparsity. sparsity<=0 always skips; the mcaquad and
// mcaint backends reject such values at Configure. sparsity>=1 never skips.
func (s *State) SkipEval(sparsity float64) bool {
	if sparsity >= 1 {
		return false
	}
	return s.NextUnitOpen() >= sparsity
}

// PushSeed saves the current stream and reseeds deterministically from
// newSeed, for reproducing a single perturbed operation.
func (s *State) PushSeed(newSeed uint64) {
	s.ensureSeeded()
	s.saved = &savedState{rng: s.rng, seeded: s.seeded}
	s.rng = mathrand.New(mathrand.NewSource(int64(newSeed))) //nolint:gosec
	s.seeded = true
}

// PopSeed restores the stream saved by the most recent PushSeed. It is a
// programming error to call PopSeed without a matching PushSeed; doing
// so leaves the state untouched rather than corrupting it.
func (s *State) PopSeed() {
	if s.saved == nil {
		return
	}
	s.rng = s.saved.rng
	s.seeded = s.saved.seeded
	s.saved = nil
}

// Signbit64 draws a uniform random sign, used by backends that need a
// symmetric perturbation direction without consuming a full float.
func (s *State) Signbit64() bool {
	return s.NextU64()&1 == 1
}

// NoiseExponent draws a signed noise exponent: a uniform integer in
// [-bound, bound].
func (s *State) NoiseExponent(bound int32) int32 {
	if bound <= 0 {
		return 0
	}
	span := uint64(2*int64(bound) + 1)
	return int32(s.NextU64()%span) - bound
}
