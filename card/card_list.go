package card

import "math/rand"

// CardList is an ordered pile; the head (index 0) is the next card drawn.
type CardList []Card

// Count 获取总牌数
func (ds CardList) Count() int {
	return len(ds)
}

func (ds CardList) Clone() CardList {
	return append(CardList{}, ds...)
}

func (ds CardList) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(ds), func(i, j int) {
		ds[i], ds[j] = ds[j], ds[i]
	})
}

func (ds *CardList) Add(cards ...Card) {
	*ds = append(*ds, cards...)
}

// Draw removes and returns the head card.
func (ds *CardList) Draw() (Card, bool) {
	if len(*ds) == 0 {
		return CardInvalid, false
	}
	c := (*ds)[0]
	*ds = (*ds)[1:]
	return c, true
}

func (ds *CardList) PopCards(size int) ([]Card, bool) {
	if size > ds.Count() {
		return nil, false
	}
	cards := make([]Card, size)
	copy(cards, (*ds)[:size])
	*ds = (*ds)[size:]
	return cards, true
}
