package main

import (
	"fmt"

	"github.com/cardtsar/cardtsar/internal/deck"
)

// DeckCmd works with card deck files
type DeckCmd struct {
	Inspect  DeckInspectCmd  `cmd:"" help:"Print a deck's contents"`
	Validate DeckValidateCmd `cmd:"" help:"Check that deck files load cleanly"`
}

// DeckInspectCmd loads a deck file and reports what is in it.
type DeckInspectCmd struct {
	Path   string `kong:"arg,help='Path to a deck JSON file'"`
	Sample int    `kong:"default='3',help='Number of sample cards to print'"`
}

func (c *DeckInspectCmd) Run() error {
	bag, err := deck.LoadBagFile(c.Path)
	if err != nil {
		return err
	}

	multi := 0
	for _, black := range bag.Black {
		if black.FillCount() > 1 {
			multi++
		}
	}

	fmt.Printf("Deck %q: %d white cards, %d black cards (%d multi-slot)\n",
		bag.Name, len(bag.White), len(bag.Black), multi)

	for i, black := range bag.Black {
		if i >= c.Sample {
			break
		}
		fmt.Printf("  black: %s\n", black.Template())
	}
	for i, white := range bag.White {
		if i >= c.Sample {
			break
		}
		fmt.Printf("  white: %s\n", white.Text)
	}

	return nil
}

// DeckValidateCmd loads each file and reports failures. A deck that
// validates here will load cleanly at server startup.
type DeckValidateCmd struct {
	Paths []string `kong:"arg,help='Deck JSON files to check'"`
}

func (c *DeckValidateCmd) Run() error {
	failed := 0
	for _, path := range c.Paths {
		bag, err := deck.LoadBagFile(path)
		if err != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Printf("ok   %s (%s: %d white, %d black)\n", path, bag.Name, len(bag.White), len(bag.Black))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d deck files failed validation", failed, len(c.Paths))
	}
	return nil
}
