package card

import (
	"math/rand"
	"time"
)

// Deck returns one ordered 52-card deck, suit by suit.
func Deck() CardList {
	cards := make(CardList, 0, 52)
	for s := Spade; s <= Diamond; s++ {
		for r := Ace; r <= King; r++ {
			cards = append(cards, New(s, r))
		}
	}
	return cards
}

// Shoe produces shuffled multi-deck piles on demand.
type Shoe struct {
	decks int
	rng   *rand.Rand
}

// NewShoe builds a shoe of the given deck count. seed 0 means time-based.
func NewShoe(decks int, seed int64) *Shoe {
	if decks <= 0 {
		decks = 1
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Shoe{decks: decks, rng: rand.New(rand.NewSource(seed))}
}

// Next returns a freshly shuffled pile. Not safe for concurrent use.
func (s *Shoe) Next() CardList {
	cards := make(CardList, 0, 52*s.decks)
	for i := 0; i < s.decks; i++ {
		cards = append(cards, Deck()...)
	}
	cards.Shuffle(s.rng)
	return cards
}
