package blackjack

import "blackjack-lite/card"

type Config struct {
	// Shoe refills the deck when it runs dry mid-round. nil means the table
	// only ever plays the cards loaded with LoadDeck.
	Shoe func() card.CardList
}
