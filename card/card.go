package card

import (
	"fmt"
	"strings"
)

// Card 牌
//
// 编码规则:
// - 高4位: 花色 (0:Spade, 1:Heart, 2:Club, 3:Diamond)
// - 低4位: 点数 (1:A, 2..9, 10:T, 11:J, 12:Q, 13:K)
type Card byte

const CardInvalid Card = 0

// Rank 点数 1-13 (A=1, K=13)
type Rank byte

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var RankDictionary = map[Rank]string{
	Ace:   "Ace",
	Two:   "Two",
	Three: "Three",
	Four:  "Four",
	Five:  "Five",
	Six:   "Six",
	Seven: "Seven",
	Eight: "Eight",
	Nine:  "Nine",
	Ten:   "Ten",
	Jack:  "Jack",
	Queen: "Queen",
	King:  "King",
}

func (r Rank) String() string {
	if name, ok := RankDictionary[r]; ok {
		return name
	}
	return "Invalid"
}

// New builds a card from suit and rank. Out-of-range input yields CardInvalid.
func New(s Suit, r Rank) Card {
	if s > Diamond || r < Ace || r > King {
		return CardInvalid
	}
	return Card(byte(s)<<4 | byte(r))
}

func (c Card) String() string {
	if c == CardInvalid {
		return "Invalid"
	}
	return fmt.Sprintf("%s%s", c.Suit(), c.Rank())
}

func (c Card) Rank() Rank {
	if c == CardInvalid {
		return 0
	}
	return Rank(c & 0x0F)
}

func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

func (c Card) IsAce() bool {
	return c.Rank() == Ace
}

// IsFace reports jacks, queens and kings.
func (c Card) IsFace() bool {
	switch c.Rank() {
	case Jack, Queen, King:
		return true
	}
	return false
}

func (c Card) Valid() bool {
	return c.Suit() <= Diamond && c.Rank() >= Ace && c.Rank() <= King
}

// Value 返回 21 点牌面值: 2-10 原值, J/Q/K 为 10, A 为 11
func (c Card) Value() int {
	r := c.Rank()
	switch {
	case r == Ace:
		return 11
	case r == Ten || c.IsFace():
		return 10
	default:
		return int(r)
	}
}

// Parse 将字符串 (如 "As", "Td", "10h") 转换为 Card
func Parse(cardStr string) (Card, error) {
	if len(cardStr) < 2 {
		return CardInvalid, fmt.Errorf("invalid card string: %s", cardStr)
	}

	var suit Suit
	switch cardStr[len(cardStr)-1] {
	case 's', 'S':
		suit = Spade
	case 'h', 'H':
		suit = Heart
	case 'c', 'C':
		suit = Club
	case 'd', 'D':
		suit = Diamond
	default:
		return CardInvalid, fmt.Errorf("invalid suit: %c", cardStr[len(cardStr)-1])
	}

	var rank Rank
	switch strings.ToUpper(cardStr[:len(cardStr)-1]) {
	case "A":
		rank = Ace
	case "2":
		rank = Two
	case "3":
		rank = Three
	case "4":
		rank = Four
	case "5":
		rank = Five
	case "6":
		rank = Six
	case "7":
		rank = Seven
	case "8":
		rank = Eight
	case "9":
		rank = Nine
	case "T", "10":
		rank = Ten
	case "J":
		rank = Jack
	case "Q":
		rank = Queen
	case "K":
		rank = King
	default:
		return CardInvalid, fmt.Errorf("invalid rank: %s", cardStr[:len(cardStr)-1])
	}

	return New(suit, rank), nil
}

// MustParse is Parse for fixed inputs; it panics on a bad string.
func MustParse(cardStr string) Card {
	c, err := Parse(cardStr)
	if err != nil {
		panic(err)
	}
	return c
}
