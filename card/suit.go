package card

type Suit byte

const (
	Spade Suit = iota // ♠️
	Heart             // ♥️
	Club              // ♣️
	Diamond           // ♦️
)

var SuitDictionary = map[Suit]string{
	Spade:   "Spades",
	Heart:   "Hearts",
	Club:    "Clubs",
	Diamond: "Diamonds",
}

func (s Suit) String() string {
	switch s {
	case Diamond:
		return "♦️"
	case Club:
		return "♣️"
	case Heart:
		return "♥️"
	case Spade:
		return "♠️"
	}
	return "?"
}

// Name is the suit's wire name.
func (s Suit) Name() string {
	if name, ok := SuitDictionary[s]; ok {
		return name
	}
	return "Invalid"
}
