package randutil

import "testing"

func TestNewIsDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 100; i++ {
		if got, want := a.Uint64(), b.Uint64(); got != want {
			t.Fatalf("sequence diverged at step %d: %d != %d", i, got, want)
		}
	}
}

func TestNewDistinctSeeds(t *testing.T) {
	a := New(1)
	b := New(2)

	same := true
	for i := 0; i < 10; i++ {
		if a.Uint64() != b.Uint64() {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical sequences")
	}
}

func TestIndex(t *testing.T) {
	rng := New(7)

	if got := Index(rng, 0); got != -1 {
		t.Errorf("Index(0) = %d, want -1", got)
	}
	if got := Index(rng, -3); got != -1 {
		t.Errorf("Index(-3) = %d, want -1", got)
	}

	for i := 0; i < 1000; i++ {
		if got := Index(rng, 5); got < 0 || got > 4 {
			t.Fatalf("Index(5) = %d, out of range", got)
		}
	}
}

func TestPick(t *testing.T) {
	rng := New(7)

	if _, ok := Pick(rng, []string(nil)); ok {
		t.Error("Pick on empty slice reported ok")
	}

	seen := make(map[string]bool)
	items := []string{"a", "b", "c"}
	for i := 0; i < 300; i++ {
		v, ok := Pick(rng, items)
		if !ok {
			t.Fatal("Pick on non-empty slice reported !ok")
		}
		seen[v] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected all 3 elements picked over 300 draws, saw %d", len(seen))
	}
}
