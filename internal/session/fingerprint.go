package session

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Fingerprint digests the ordered (questionID, answer) pairs into a stable
// cache and idempotency key. Identical answers in identical order always
// produce the same value; any change to a question, an answer, or their
// order produces a different one. Fields are length-prefixed so adjacent
// pairs cannot collide by concatenation.
func Fingerprint(pairs []AnswerPair) string {
	h := sha256.New()
	var lenBuf [8]byte
	write := func(s string) {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(s)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write([]byte(s))
	}
	for _, p := range pairs {
		write(p.QuestionID)
		write(p.Answer)
	}
	return hex.EncodeToString(h.Sum(nil))
}
