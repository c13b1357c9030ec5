package blackjack

import "blackjack-lite/card"

type PlayerSnapshot struct {
	ID       PlayerID
	Seat     int
	Hand     []card.Card
	Value    int
	Balance  Chips
	Bet      Chips
	HasBet   bool
	Finished bool
}

type Snapshot struct {
	Round uint32
	Phase Phase

	CurrentPlayer PlayerID
	HasCurrent    bool

	Players       []PlayerSnapshot
	DealerHand    []card.Card
	DeckRemaining int
}

func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		Round:         t.round,
		Phase:         t.phase,
		CurrentPlayer: t.current,
		HasCurrent:    t.hasCurrent,
		DealerHand:    t.dealerHand.clone(),
		DeckRemaining: t.deck.Count(),
	}
	for seat, id := range t.players {
		bet, hasBet := t.bets[id]
		s.Players = append(s.Players, PlayerSnapshot{
			ID:       id,
			Seat:     seat,
			Hand:     t.hands[id].clone(),
			Value:    t.hands[id].Value(),
			Balance:  t.money[id],
			Bet:      bet,
			HasBet:   hasBet,
			Finished: t.isFinishedLocked(id),
		})
	}
	return s
}
