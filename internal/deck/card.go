package deck

import (
	"fmt"
	"strings"
)

// WhiteCard is a single-phrase answer card. Cards held in a collection are
// templates; hands receive clones so template text stays pristine.
type WhiteCard struct {
	Text string
}

// NewWhiteCard creates a white card with the given text.
func NewWhiteCard(text string) *WhiteCard {
	return &WhiteCard{Text: text}
}

// Clone returns an independent copy of the card.
func (c *WhiteCard) Clone() *WhiteCard {
	return &WhiteCard{Text: c.Text}
}

func (c *WhiteCard) String() string { return c.Text }

// Token is one element of a black card's prompt: either literal text or a
// numbered fill slot. Slot numbers index into the cards supplied at render
// time and need not be contiguous or unique.
type Token struct {
	Text   string
	Slot   int
	isSlot bool
}

// Lit creates a literal text token.
func Lit(text string) Token {
	return Token{Text: text}
}

// Slot creates a fill-slot token with the given slot number.
func Slot(n int) Token {
	return Token{Slot: n, isSlot: true}
}

// IsSlot reports whether the token is a fill slot.
func (t Token) IsSlot() bool { return t.isSlot }

// BlackCard is a round prompt: an ordered sequence of literals and fill
// slots.
type BlackCard struct {
	tokens []Token
}

// NewBlackCard creates a black card from the given token sequence.
func NewBlackCard(tokens ...Token) *BlackCard {
	return &BlackCard{tokens: tokens}
}

// Tokens returns a copy of the card's token sequence.
func (b *BlackCard) Tokens() []Token {
	out := make([]Token, len(b.tokens))
	copy(out, b.tokens)
	return out
}

// Clone returns an independent copy of the card.
func (b *BlackCard) Clone() *BlackCard {
	return NewBlackCard(b.Tokens()...)
}

// FillSpots returns the distinct slot numbers in first-seen order.
func (b *BlackCard) FillSpots() []int {
	seen := make(map[int]bool)
	var spots []int
	for _, t := range b.tokens {
		if t.IsSlot() && !seen[t.Slot] {
			seen[t.Slot] = true
			spots = append(spots, t.Slot)
		}
	}
	return spots
}

// FillCount returns the number of distinct slots. This, not the raw token
// count, is how many cards a player must submit to complete the prompt.
func (b *BlackCard) FillCount() int {
	return len(b.FillSpots())
}

// Template renders the prompt with placeholder slots, e.g.
// "I like <slot 0> with <slot 1>".
func (b *BlackCard) Template() string {
	var sb strings.Builder
	for _, t := range b.tokens {
		if t.IsSlot() {
			fmt.Fprintf(&sb, "<slot %d>", t.Slot)
		} else {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}

// Fill renders the prompt substituting each slot with the text of the card
// at that slot's numeric position in cards. Callers must order cards so
// position i corresponds to slot i, not to submission order. Too few cards
// for the highest slot, or a nil card in a required position, is a broken
// invariant and panics.
func (b *BlackCard) Fill(cards ...*WhiteCard) string {
	var sb strings.Builder
	for _, t := range b.tokens {
		if !t.IsSlot() {
			sb.WriteString(t.Text)
			continue
		}
		if t.Slot >= len(cards) {
			panic(fmt.Sprintf("deck: black card slot %d needs %d cards, got %d", t.Slot, t.Slot+1, len(cards)))
		}
		card := cards[t.Slot]
		if card == nil {
			panic(fmt.Sprintf("deck: nil card supplied for slot %d", t.Slot))
		}
		sb.WriteString(card.Text)
	}
	return sb.String()
}

func (b *BlackCard) String() string { return b.Template() }
