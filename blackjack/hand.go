package blackjack

import "blackjack-lite/card"

// Hand holds cards in draw order.
type Hand []card.Card

// RawValue sums nominal card values with every ace at 11.
func (h Hand) RawValue() int {
	sum := 0
	for _, c := range h {
		sum += c.Value()
	}
	return sum
}

// Value is the best total: each ace held may drop from 11 to 1, once, while the
// total is over 21.
func (h Hand) Value() int {
	sum := 0
	aces := 0
	for _, c := range h {
		sum += c.Value()
		if c.IsAce() {
			aces++
		}
	}
	for sum > blackjackValue && aces > 0 {
		sum -= 10
		aces--
	}
	return sum
}

// IsNatural is a two-card 21.
func (h Hand) IsNatural() bool {
	return len(h) == 2 && h.Value() == blackjackValue
}

func (h Hand) IsBust() bool {
	return h.Value() > blackjackValue
}

func (h Hand) clone() Hand {
	return append(Hand{}, h...)
}
