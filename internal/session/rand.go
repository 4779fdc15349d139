package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// SeedFromString returns a 64-bit seed from an arbitrary string using SHA256.
func SeedFromString(s string) uint64 {
	h := sha256.Sum256([]byte(s))
	return binary.LittleEndian.Uint64(h[:8])
}

// Derive returns a deterministic child seed based on a base seed and a label
// using HMAC-SHA256. Labels should be stable strings such as "questions" or
// "reshuffle:3".
func Derive(base uint64, label string) uint64 {
	key := make([]byte, 8)
	binary.LittleEndian.PutUint64(key, base)
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(label))
	sum := m.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8])
}

// SessionSeed encapsulates the canonical seed string for a wizard session and
// exposes deterministic streams. The same seed text always produces the same
// question draws, which keeps resumed sessions and tests stable.
type SessionSeed struct {
	Text string
	root uint64
}

// NewSessionSeed creates a deterministic SessionSeed from a textual seed.
// Empty text is rejected.
func NewSessionSeed(seedText string) (SessionSeed, error) {
	if seedText == "" {
		return SessionSeed{}, fmt.Errorf("seed text must not be empty")
	}
	return SessionSeed{Text: seedText, root: SeedFromString(seedText)}, nil
}

// Stream returns a new deterministic RNG stream derived from the session's
// root seed.
func (s SessionSeed) Stream(label string) *Stream {
	return newStream(Derive(s.root, label))
}

// SplitMix64 PRNG for deterministic streams.
type splitMix64 struct{ state uint64 }

func (s *splitMix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Stream provides deterministic random numbers with support for labelled
// child streams.
type Stream struct {
	base uint64
	sm   *splitMix64
}

func newStream(seed uint64) *Stream {
	return &Stream{base: seed, sm: &splitMix64{state: seed}}
}

// Intn mirrors math/rand.Intn but is deterministic per stream.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.sm.next() % uint64(n))
}

// Child creates a stable sub-stream derived from this stream's base seed and
// label.
func (s *Stream) Child(label string) *Stream { return newStream(Derive(s.base, label)) }
