package deck

import (
	"encoding/json"
	"fmt"
	"os"
)

// Bag is a named set of card templates loaded from a deck file. The wire
// format is {"name": ..., "white": [...], "black": [[...], ...]} where each
// black entry mixes literal strings with integer slot markers.
type Bag struct {
	Name  string
	White []*WhiteCard
	Black []*BlackCard
}

type rawBag struct {
	Name  string   `json:"name"`
	White []string `json:"white"`
	Black [][]any  `json:"black"`
}

// ParseBag decodes a deck bag from JSON. Malformed bags are expected input
// errors and are returned, not panicked.
func ParseBag(data []byte) (*Bag, error) {
	var raw rawBag
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("deck: parse bag: %w", err)
	}
	if raw.Name == "" {
		return nil, fmt.Errorf("deck: bag has no name")
	}

	bag := &Bag{Name: raw.Name}
	for _, text := range raw.White {
		bag.White = append(bag.White, NewWhiteCard(text))
	}
	for i, entry := range raw.Black {
		tokens := make([]Token, 0, len(entry))
		maxSlot := -1
		for j, v := range entry {
			switch tv := v.(type) {
			case string:
				tokens = append(tokens, Lit(tv))
			case float64:
				if tv != float64(int(tv)) || tv < 0 {
					return nil, fmt.Errorf("deck: bag %q black card %d token %d: slot must be a non-negative integer, got %v", raw.Name, i, j, tv)
				}
				if int(tv) > maxSlot {
					maxSlot = int(tv)
				}
				tokens = append(tokens, Slot(int(tv)))
			default:
				return nil, fmt.Errorf("deck: bag %q black card %d token %d: want string or integer, got %T", raw.Name, i, j, v)
			}
		}
		card := NewBlackCard(tokens...)
		// A player submits FillCount cards and Fill indexes them by slot
		// number, so a slot past FillCount-1 can never be rendered.
		if maxSlot >= card.FillCount() {
			return nil, fmt.Errorf("deck: bag %q black card %d: slot %d cannot be filled by a %d-card submission", raw.Name, i, maxSlot, card.FillCount())
		}
		bag.Black = append(bag.Black, card)
	}
	return bag, nil
}

// LoadBagFile reads and parses a deck bag from path.
func LoadBagFile(path string) (*Bag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("deck: read bag file: %w", err)
	}
	return ParseBag(data)
}

// FillCollection appends the bag's templates to the collection.
func (b *Bag) FillCollection(c *Collection) {
	c.AddWhite(b.White...)
	c.AddBlack(b.Black...)
}
