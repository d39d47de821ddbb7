package game

import (
	"sort"

	"github.com/cardtsar/cardtsar/internal/deck"
)

// Player is one participant: an opaque caller-supplied id, a hand of white
// cards, the hand indices submitted this round, and a running score.
type Player struct {
	ID     string
	hand   []*deck.WhiteCard
	played []int
	points int
}

// NewPlayer creates a player with an empty hand.
func NewPlayer(id string) *Player {
	return &Player{ID: id}
}

// Hand returns a copy of the player's current hand.
func (p *Player) Hand() []*deck.WhiteCard {
	out := make([]*deck.WhiteCard, len(p.hand))
	copy(out, p.hand)
	return out
}

// HandSize returns the number of cards held.
func (p *Player) HandSize() int { return len(p.hand) }

// Played returns a copy of the hand indices submitted this round, in
// submission order.
func (p *Player) Played() []int {
	out := make([]int, len(p.played))
	copy(out, p.played)
	return out
}

// Points returns the player's score.
func (p *Player) Points() int { return p.points }

// award increments the score by exactly one. Points never decrease and
// never move by more than one per round.
func (p *Player) award() {
	p.points++
}

// playedCards resolves the submitted indices against the hand, in
// submission order.
func (p *Player) playedCards() []*deck.WhiteCard {
	out := make([]*deck.WhiteCard, len(p.played))
	for i, idx := range p.played {
		out[i] = p.hand[idx]
	}
	return out
}

// discardPlayed removes the submitted cards from the hand and clears the
// submission list. Indices are removed highest-first so earlier removals
// don't shift later ones.
func (p *Player) discardPlayed() {
	if len(p.played) == 0 {
		return
	}
	idxs := make([]int, len(p.played))
	copy(idxs, p.played)
	sort.Sort(sort.Reverse(sort.IntSlice(idxs)))
	for _, idx := range idxs {
		if idx >= 0 && idx < len(p.hand) {
			p.hand = append(p.hand[:idx], p.hand[idx+1:]...)
		}
	}
	p.played = p.played[:0]
}

// clearHand empties the hand and any pending submission.
func (p *Player) clearHand() {
	p.hand = nil
	p.played = nil
}
