// Package roundid generates short, time-ordered identifiers for game
// rounds. Every deal mints a fresh id which is stamped on round-scoped
// events and log lines so a judging step can be correlated with the deal
// that produced it.
package roundid

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Crockford's base32 alphabet; sorts lexicographically with time.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length of a rendered round id: 80 bits as 16 base32 characters.
const Length = 16

// RandSource supplies the random tail, injectable for deterministic tests.
type RandSource interface {
	Intn(n int) int
}

// Generator mints round ids with configurable randomness.
type Generator struct {
	randSource RandSource
	now        func() time.Time
}

// NewGenerator creates a generator. A nil randSource falls back to
// crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource, now: time.Now}
}

// New mints a round id using crypto/rand.
func New() string {
	return NewGenerator(nil).Generate()
}

// Generate mints a round id: 40 bits of unix seconds followed by 40 random
// bits, base32-encoded.
func (g *Generator) Generate() string {
	var raw [10]byte

	secs := g.now().Unix()
	raw[0] = byte(secs >> 32)
	raw[1] = byte(secs >> 24)
	raw[2] = byte(secs >> 16)
	raw[3] = byte(secs >> 8)
	raw[4] = byte(secs)

	if g.randSource != nil {
		for i := 5; i < 10; i++ {
			raw[i] = byte(g.randSource.Intn(256))
		}
	} else {
		if _, err := rand.Read(raw[5:]); err != nil {
			panic("roundid: failed to read random bytes: " + err.Error())
		}
	}

	return encode(raw)
}

// encode renders 80 bits as 16 base32 characters, 5 bits per character.
func encode(raw [10]byte) string {
	out := make([]byte, Length)
	for i := 0; i < Length; i++ {
		bit := i * 5
		byteIdx := bit / 8
		shift := bit % 8

		var v byte
		if shift <= 3 {
			v = (raw[byteIdx] >> (3 - shift)) & 0x1f
		} else {
			v = (raw[byteIdx] << (shift - 3)) & 0x1f
			if byteIdx+1 < len(raw) {
				v |= raw[byteIdx+1] >> (11 - shift)
			}
		}
		out[i] = alphabet[v]
	}
	return string(out)
}

// Validate checks that id is a well-formed round id.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("round id must be %d characters, got %d", Length, len(id))
	}
	for i := 0; i < len(id); i++ {
		if !validChar(id[i]) {
			return fmt.Errorf("invalid character %q at position %d", id[i], i)
		}
	}
	return nil
}

func validChar(c byte) bool {
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == c {
			return true
		}
	}
	return false
}
