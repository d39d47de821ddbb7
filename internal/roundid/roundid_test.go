package roundid

import (
	"math/rand"
	"testing"
	"time"
)

func TestGenerateLength(t *testing.T) {
	id := New()
	if len(id) != Length {
		t.Errorf("expected %d characters, got %d (%q)", Length, len(id), id)
	}
	if err := Validate(id); err != nil {
		t.Errorf("freshly generated id failed validation: %v", err)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	fixed := time.Unix(1700000000, 0)

	a := NewGenerator(rand.New(rand.NewSource(42)))
	a.now = func() time.Time { return fixed }
	b := NewGenerator(rand.New(rand.NewSource(42)))
	b.now = func() time.Time { return fixed }

	if a.Generate() != b.Generate() {
		t.Error("same seed and clock produced different ids")
	}
}

func TestGenerateTimeOrdered(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(1)))

	g.now = func() time.Time { return time.Unix(1000000000, 0) }
	early := g.Generate()
	g.now = func() time.Time { return time.Unix(2000000000, 0) }
	late := g.Generate()

	if !(early < late) {
		t.Errorf("ids are not time-ordered: %q >= %q", early, late)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("short"); err == nil {
		t.Error("expected length error")
	}
	if err := Validate("ABCDEFGH12345678"); err == nil {
		t.Error("expected alphabet error for uppercase")
	}
	if err := Validate("0123456789abcdef"); err != nil {
		t.Errorf("valid id rejected: %v", err)
	}
}
