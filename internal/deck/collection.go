package deck

import (
	"errors"
	"time"

	rand "math/rand/v2"

	"github.com/cardtsar/cardtsar/internal/randutil"
)

var (
	// ErrAlreadyMerged is returned when merging a collection that is
	// already part of this collection's provenance.
	ErrAlreadyMerged = errors.New("deck: collection already merged")

	// ErrNotMerged is returned when unmerging a collection that was never
	// merged in.
	ErrNotMerged = errors.New("deck: collection was not merged")
)

// Collection is a bag of white and black card templates. Collections can be
// merged into one another; provenance is tracked so a merge can later be
// undone exactly. Collections are not safe for concurrent use.
type Collection struct {
	white  []*WhiteCard
	black  []*BlackCard
	merged []*Collection
	rng    *rand.Rand
}

// NewCollection creates an empty collection drawing with the supplied rng.
// A nil rng falls back to a time-seeded one.
func NewCollection(rng *rand.Rand) *Collection {
	if rng == nil {
		rng = randutil.New(time.Now().UnixNano())
	}
	return &Collection{rng: rng}
}

// AddWhite appends white card templates.
func (c *Collection) AddWhite(cards ...*WhiteCard) {
	c.white = append(c.white, cards...)
}

// AddBlack appends black card templates.
func (c *Collection) AddBlack(cards ...*BlackCard) {
	c.black = append(c.black, cards...)
}

// WhiteCount returns the number of white templates.
func (c *Collection) WhiteCount() int { return len(c.white) }

// BlackCount returns the number of black templates.
func (c *Collection) BlackCount() int { return len(c.black) }

// RandomWhite draws a uniformly random white card, or nil when the
// collection has none. With clone set the draw returns a deep copy so the
// template stays immutable.
func (c *Collection) RandomWhite(clone bool) *WhiteCard {
	card, ok := randutil.Pick(c.rng, c.white)
	if !ok {
		return nil
	}
	if clone {
		return card.Clone()
	}
	return card
}

// RandomBlack draws a uniformly random black card, or nil when the
// collection has none.
func (c *Collection) RandomBlack(clone bool) *BlackCard {
	card, ok := randutil.Pick(c.rng, c.black)
	if !ok {
		return nil
	}
	if clone {
		return card.Clone()
	}
	return card
}

// Merge appends other's cards to this collection and records other in the
// provenance set. Merging the same collection twice is refused.
func (c *Collection) Merge(other *Collection) error {
	for _, m := range c.merged {
		if m == other {
			return ErrAlreadyMerged
		}
	}
	c.white = append(c.white, other.white...)
	c.black = append(c.black, other.black...)
	c.merged = append(c.merged, other)
	return nil
}

// Unmerge removes, by identity, exactly the cards that came from other. It
// refuses unless other is in the provenance set or force is set. Cost is
// proportional to collection size, which is fine at deck scale.
func (c *Collection) Unmerge(other *Collection, force bool) error {
	found := -1
	for i, m := range c.merged {
		if m == other {
			found = i
			break
		}
	}
	if found < 0 && !force {
		return ErrNotMerged
	}

	whiteSet := make(map[*WhiteCard]bool, len(other.white))
	for _, card := range other.white {
		whiteSet[card] = true
	}
	blackSet := make(map[*BlackCard]bool, len(other.black))
	for _, card := range other.black {
		blackSet[card] = true
	}

	kept := c.white[:0]
	for _, card := range c.white {
		if !whiteSet[card] {
			kept = append(kept, card)
		}
	}
	c.white = kept

	keptBlack := c.black[:0]
	for _, card := range c.black {
		if !blackSet[card] {
			keptBlack = append(keptBlack, card)
		}
	}
	c.black = keptBlack

	if found >= 0 {
		c.merged = append(c.merged[:found], c.merged[found+1:]...)
	}
	return nil
}

// Merged reports whether other is in this collection's provenance set.
func (c *Collection) Merged(other *Collection) bool {
	for _, m := range c.merged {
		if m == other {
			return true
		}
	}
	return false
}
